package runtime

import (
	"fmt"
	"sort"
)

// Component is the runtime counterpart of a ComponentDef. The hook set is
// shared by all kinds; each kind implements only the hooks it needs and
// inherits no-ops for the rest.
type Component interface {
	Name() string
	Def() *ComponentDef

	// Resolve re-evaluates the component's parameters against the current
	// environment. The routine calls it per the update policy: once at
	// activation start for "constant"/"never"/"set every repeat", every
	// frame while live for "set every frame". "never" resolves literal
	// values only and leaves expressions unevaluated.
	Resolve(run *Run) error

	// Params returns the most recently resolved parameter values.
	Params() map[string]any

	OnStart(run *Run) error
	OnFrame(run *Run, frame int) error
	OnStop(run *Run) error
}

// Drawable components are handed to the Renderer once per frame while live.
type Drawable interface {
	Component
	DrawWith(r Renderer)
}

// Listenable components receive polled input once per frame while live.
// Returning forceEnd ends the routine activation.
type Listenable interface {
	Component
	HandleInput(run *Run, events []InputEvent) (forceEnd bool, err error)
}

type componentFactory func(def ComponentDef, eval ExpressionEvaluator) Component

// componentKinds is the closed registry of component kinds. The flow language
// has a fixed vocabulary, so a map of constructors replaces the reflective
// plugin discovery a general task engine would need.
var componentKinds = map[string]componentFactory{
	"polygon":  newPolygonComponent,
	"text":     newTextComponent,
	"progress": newProgressComponent,
	"mouse":    newMouseComponent,
	"code":     newCodeComponent,
}

func newComponent(def ComponentDef, eval ExpressionEvaluator) (Component, error) {
	factory, ok := componentKinds[def.Kind]
	if !ok {
		return nil, newConfigError(def.Name, "kind",
			fmt.Sprintf("unknown component kind %q", def.Kind), ErrUnknownComponentKind)
	}
	return factory(def, eval), nil
}

// baseComponent carries the definition, the evaluator and the resolved
// parameter map, and provides the default no-op hooks.
type baseComponent struct {
	def    ComponentDef
	eval   ExpressionEvaluator
	params map[string]any
}

func (b *baseComponent) Name() string           { return b.def.Name }
func (b *baseComponent) Def() *ComponentDef     { return &b.def }
func (b *baseComponent) Params() map[string]any { return b.params }

func (b *baseComponent) Resolve(run *Run) error {
	resolved := make(map[string]any, len(b.def.Params))
	for name, p := range b.def.Params {
		// "never" pins every parameter to its literal value; expressions
		// on never-updating components are not evaluated.
		if p.Expr != "" && b.def.Updates != UpdatesNever {
			v, err := b.eval.Eval(p.Expr, run.Env)
			if err != nil {
				if ee, ok := err.(*EvalError); ok && ee.Owner == "" {
					ee.Owner = b.def.Name
				}
				return err
			}
			resolved[name] = v
		} else {
			resolved[name] = p.Value
		}
	}
	b.params = resolved
	return nil
}

func (b *baseComponent) OnStart(run *Run) error        { return nil }
func (b *baseComponent) OnFrame(run *Run, f int) error { return nil }
func (b *baseComponent) OnStop(run *Run) error         { return nil }

// PolygonComponent is a visual shape stimulus.
type PolygonComponent struct {
	baseComponent
	p PolygonParams
}

type PolygonParams struct {
	Vertices  int       `param:"vertices"`
	Size      float64   `param:"size"`
	Pos       []float64 `param:"pos"`
	Ori       float64   `param:"ori"`
	FillColor string    `param:"fillColor"`
	LineColor string    `param:"lineColor"`
}

func newPolygonComponent(def ComponentDef, eval ExpressionEvaluator) Component {
	return &PolygonComponent{baseComponent: baseComponent{def: def, eval: eval}}
}

func (c *PolygonComponent) Resolve(run *Run) error {
	if err := c.baseComponent.Resolve(run); err != nil {
		return err
	}
	return decodeParams(c.params, &c.p)
}

func (c *PolygonComponent) DrawWith(r Renderer) {
	r.Draw("polygon", c.def.Name, c.params)
}

// TextComponent is a text-label stimulus.
type TextComponent struct {
	baseComponent
	p TextParams
}

type TextParams struct {
	Text   string    `param:"text"`
	Pos    []float64 `param:"pos"`
	Height float64   `param:"height"`
	Color  string    `param:"color"`
}

func newTextComponent(def ComponentDef, eval ExpressionEvaluator) Component {
	return &TextComponent{baseComponent: baseComponent{def: def, eval: eval}}
}

func (c *TextComponent) Resolve(run *Run) error {
	if err := c.baseComponent.Resolve(run); err != nil {
		return err
	}
	return decodeParams(c.params, &c.p)
}

func (c *TextComponent) DrawWith(r Renderer) {
	r.Draw("text", c.def.Name, c.params)
}

// ProgressComponent is a progress indicator; its value parameter is typically
// an expression over loop counters resolved every frame.
type ProgressComponent struct {
	baseComponent
	p ProgressParams
}

type ProgressParams struct {
	Value float64   `param:"value"`
	Pos   []float64 `param:"pos"`
	Size  []float64 `param:"size"`
}

func newProgressComponent(def ComponentDef, eval ExpressionEvaluator) Component {
	return &ProgressComponent{baseComponent: baseComponent{def: def, eval: eval}}
}

func (c *ProgressComponent) Resolve(run *Run) error {
	if err := c.baseComponent.Resolve(run); err != nil {
		return err
	}
	return decodeParams(c.params, &c.p)
}

func (c *ProgressComponent) DrawWith(r Renderer) {
	r.Draw("progress", c.def.Name, c.params)
}

// MouseComponent listens for pointer clicks. It publishes its observations
// under <name>.clicked / <name>.x / <name>.y and, with forceEndRoutine set,
// ends the routine on the first click.
type MouseComponent struct {
	baseComponent
	clicked bool
}

func newMouseComponent(def ComponentDef, eval ExpressionEvaluator) Component {
	return &MouseComponent{baseComponent: baseComponent{def: def, eval: eval}}
}

func (c *MouseComponent) OnStart(run *Run) error {
	c.clicked = false
	run.Env.Set(c.def.Name+".clicked", false)
	return nil
}

func (c *MouseComponent) HandleInput(run *Run, events []InputEvent) (bool, error) {
	for _, ev := range events {
		if ev.Kind != "click" {
			continue
		}
		c.clicked = true
		run.Env.Set(c.def.Name+".clicked", true)
		run.Env.Set(c.def.Name+".x", ev.X)
		run.Env.Set(c.def.Name+".y", ev.Y)
		if c.def.ForceEndRoutine {
			return true, nil
		}
	}
	return false, nil
}

// CodeComponent runs assignment blocks against the environment. Its slots are
// literal maps of variable name to expression:
//
//	params:
//	  beginRoutine: { value: { branch: "choice == 'left' ? 1 : 0" } }
//	  eachFrame:    { value: { t: "t + 1" } }
//
// beginRoutine runs once at activation start, eachFrame every frame while
// live, endRoutine once when the component stops.
type CodeComponent struct {
	baseComponent
}

func newCodeComponent(def ComponentDef, eval ExpressionEvaluator) Component {
	return &CodeComponent{baseComponent: baseComponent{def: def, eval: eval}}
}

func (c *CodeComponent) OnStart(run *Run) error {
	return c.runSlot(run, "beginRoutine")
}

func (c *CodeComponent) OnFrame(run *Run, frame int) error {
	return c.runSlot(run, "eachFrame")
}

func (c *CodeComponent) OnStop(run *Run) error {
	return c.runSlot(run, "endRoutine")
}

func (c *CodeComponent) runSlot(run *Run, slot string) error {
	p, ok := c.def.Params[slot]
	if !ok {
		return nil
	}

	assigns, ok := p.Value.(map[string]any)
	if !ok {
		return newConfigError(c.def.Name, slot,
			fmt.Sprintf("code slot %q must be a mapping of variable to expression", slot), nil)
	}

	// Sorted order keeps writes deterministic; YAML mappings do not
	// preserve insertion order through map decoding.
	names := make([]string, 0, len(assigns))
	for name := range assigns {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		expression, ok := assigns[name].(string)
		if !ok {
			return newConfigError(c.def.Name, slot,
				fmt.Sprintf("assignment %q must be a string expression", name), nil)
		}
		v, err := c.eval.Eval(expression, run.Env)
		if err != nil {
			if ee, ok := err.(*EvalError); ok && ee.Owner == "" {
				ee.Owner = c.def.Name
			}
			return err
		}
		run.Env.SetNested(name, v)
	}
	return nil
}
