package runtime

import (
	"fmt"

	"github.com/google/uuid"
)

type liveState int

const (
	compPending liveState = iota
	compLive
	compFinished
)

// liveComponent tracks one component's start/stop window inside an activation.
type liveComponent struct {
	comp  Component
	state liveState

	startAt  float64 // seconds or frames, per StartType
	stopAt   float64 // per StopType
	hasStop  bool
	liveAt   float64 // routine time when the component became live
	liveAtFr int     // frame when the component became live
}

// activateRoutine runs one temporal pass of a routine: build fresh component
// instances, resolve their parameters, then tick frames until the routine
// ends. Components are visited in declaration order on every tick.
func (s *Sequencer) activateRoutine(run *Run, ref *RoutineRef) error {
	activationID := uuid.New().String()
	s.l.InfoContext(run, "Activating routine",
		"routine", ref.Name,
		"activation", activationID)

	comps := make([]*liveComponent, 0, len(ref.Components))
	for _, def := range ref.Components {
		comp, err := newComponent(def, s.eval)
		if err != nil {
			return err
		}

		// Parameters resolve once at activation start for every policy
		// except "set every frame", which resolves once per live tick
		// instead.
		if def.Updates != UpdatesEveryFrame {
			if err := comp.Resolve(run); err != nil {
				return err
			}
		}

		lc := &liveComponent{comp: comp}
		if err := s.resolveWindow(run, lc); err != nil {
			return err
		}
		comps = append(comps, lc)
	}

	start := s.clock.Elapsed()
	maxSeconds := run.Experiment.Settings.MaxRoutineSeconds

	for frame := 0; ; frame++ {
		if err := run.Err(); err != nil {
			// Abort requested: discard the activation, nothing to clean up.
			return err
		}

		t := (s.clock.Elapsed() - start).Seconds()
		events := s.input.Poll()
		forceEnd := false

		for _, lc := range comps {
			if lc.state == compPending {
				met, err := s.startMet(run, lc, t, frame)
				if err != nil {
					return err
				}
				if met {
					lc.state = compLive
					lc.liveAt = t
					lc.liveAtFr = frame
					if err := lc.comp.OnStart(run); err != nil {
						return err
					}
				}
			}

			if lc.state != compLive {
				continue
			}

			if lc.comp.Def().Updates == UpdatesEveryFrame {
				if err := lc.comp.Resolve(run); err != nil {
					return err
				}
			}

			if err := lc.comp.OnFrame(run, frame); err != nil {
				return err
			}

			if d, ok := lc.comp.(Drawable); ok {
				d.DrawWith(s.renderer)
			}

			if listener, ok := lc.comp.(Listenable); ok {
				end, err := listener.HandleInput(run, events)
				if err != nil {
					return err
				}
				if end {
					forceEnd = true
				}
			}

			stopped, err := s.stopMet(run, lc, t, frame)
			if err != nil {
				return err
			}
			if stopped {
				lc.state = compFinished
				if err := lc.comp.OnStop(run); err != nil {
					return err
				}
			}
		}

		if forceEnd {
			s.l.InfoContext(run, "Routine force-ended",
				"routine", ref.Name,
				"frame", frame)
			break
		}

		if allFinished(comps) {
			break
		}

		if t >= maxSeconds {
			s.l.WarnContext(run, "Routine hit maxRoutineSeconds cap",
				"routine", ref.Name,
				"seconds", maxSeconds)
			break
		}

		if err := s.clock.Tick(run); err != nil {
			return err
		}
	}

	// Components still live when the routine ends get their stop hook.
	for _, lc := range comps {
		if lc.state == compLive {
			lc.state = compFinished
			if err := lc.comp.OnStop(run); err != nil {
				return err
			}
		}
	}

	run.RoutineRuns[ref.Name]++
	return nil
}

// resolveWindow evaluates the numeric start/stop values once per activation.
// Condition-typed starts and stops are re-evaluated every frame instead.
func (s *Sequencer) resolveWindow(run *Run, lc *liveComponent) error {
	def := lc.comp.Def()

	if def.StartType != StartTypeCondition {
		v, err := s.numericValue(run, def.Name, "startVal", def.StartVal)
		if err != nil {
			return err
		}
		lc.startAt = v
	}

	if def.StopType != "" && def.StopType != StopTypeCondition && def.StopVal != "" {
		v, err := s.numericValue(run, def.Name, "stopVal", def.StopVal)
		if err != nil {
			return err
		}
		lc.stopAt = v
		lc.hasStop = true
	}
	return nil
}

func (s *Sequencer) numericValue(run *Run, owner, field, expression string) (float64, error) {
	v, err := s.eval.Eval(expression, run.Env)
	if err != nil {
		if ee, ok := err.(*EvalError); ok && ee.Owner == "" {
			ee.Owner = owner
		}
		return 0, err
	}
	switch r := v.(type) {
	case int:
		return float64(r), nil
	case int64:
		return float64(r), nil
	case float64:
		return r, nil
	}
	return 0, newConfigError(owner, field,
		fmt.Sprintf("%s expression %q evaluated to %T, expected a number", field, expression, v), nil)
}

func (s *Sequencer) startMet(run *Run, lc *liveComponent, t float64, frame int) (bool, error) {
	def := lc.comp.Def()
	switch def.StartType {
	case StartTypeTime:
		return t >= lc.startAt, nil
	case StartTypeFrame:
		return frame >= int(lc.startAt), nil
	case StartTypeCondition:
		// An empty condition never starts the component.
		if def.StartVal == "" {
			return false, nil
		}
		return s.boolValue(run, def.Name, def.StartVal)
	}
	return false, nil
}

func (s *Sequencer) stopMet(run *Run, lc *liveComponent, t float64, frame int) (bool, error) {
	def := lc.comp.Def()
	switch def.StopType {
	case "":
		return false, nil
	case StopTypeDuration:
		return lc.hasStop && t-lc.liveAt >= lc.stopAt, nil
	case StopTypeTime:
		return lc.hasStop && t >= lc.stopAt, nil
	case StopTypeFrame:
		// "Live for stopVal frames", counting the current one: stopVal 3
		// keeps a component live for exactly frames f, f+1, f+2.
		return lc.hasStop && frame-lc.liveAtFr+1 >= int(lc.stopAt), nil
	case StopTypeCondition:
		if def.StopVal == "" {
			return false, nil
		}
		return s.boolValue(run, def.Name, def.StopVal)
	}
	return false, nil
}

func (s *Sequencer) boolValue(run *Run, owner, expression string) (bool, error) {
	v, err := s.eval.Eval(expression, run.Env)
	if err != nil {
		if ee, ok := err.(*EvalError); ok && ee.Owner == "" {
			ee.Owner = owner
		}
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, newConfigError(owner, "condition",
			fmt.Sprintf("condition %q evaluated to %T, expected boolean", expression, v), nil)
	}
	return b, nil
}

func allFinished(comps []*liveComponent) bool {
	for _, lc := range comps {
		if lc.state != compFinished {
			return false
		}
	}
	return true
}
