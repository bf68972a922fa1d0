package runtime

// Definition records for an experiment. These are the YAML-facing shapes;
// the loader links them into an executable Program.

type Experiment struct {
	ID       string                    `yaml:"id"`
	Settings Settings                  `yaml:"settings"`
	Routines map[string][]ComponentDef `yaml:"routines"`
	Flow     []FlowEntryDef            `yaml:"flow"`
}

type Settings struct {
	// FrameRate is the tick rate in frames per second. The virtual clock
	// advances 1/FrameRate per tick; the ticker clock sleeps for it.
	FrameRate float64 `yaml:"frameRate" default:"60" validate:"gt=0"`

	// MaxRoutineSeconds caps a single routine activation. A routine whose
	// components never all finish (e.g. a text component with no stop)
	// otherwise only ends on a force-end input.
	MaxRoutineSeconds float64 `yaml:"maxRoutineSeconds" default:"30" validate:"gt=0"`
}

// FlowEntryDef is one entry of the flow list: exactly one of Routine,
// LoopStart or LoopEnd is set.
type FlowEntryDef struct {
	Routine   string   `yaml:"routine,omitempty"`
	LoopStart *LoopDef `yaml:"loopStart,omitempty"`
	LoopEnd   string   `yaml:"loopEnd,omitempty"`
}

type LoopDef struct {
	Name     string `yaml:"name" validate:"required,varname"`
	LoopType string `yaml:"loopType" default:"sequential" validate:"oneof=sequential random"`

	// NReps is evaluated against the environment every time the loop is
	// entered. Zero means the body is skipped entirely.
	NReps string `yaml:"nReps" validate:"required"`

	// Branch marks the loop as a branch guard: NReps must evaluate to a
	// boolean or 0/1, and the loop is the explicit "if" construct of the
	// flow language.
	Branch bool `yaml:"branch"`

	// Seed fixes the permutation of random loops. Nil draws from the
	// process-level source.
	Seed *int64 `yaml:"seed,omitempty"`

	// IsTrials loops bind one condition-table row per iteration.
	IsTrials   bool           `yaml:"isTrials"`
	Conditions *ConditionsRef `yaml:"conditions,omitempty"`
}

// ConditionsRef points at a condition table, either on disk or over HTTP.
type ConditionsRef struct {
	File string `yaml:"file,omitempty" validate:"required_without=URL,excluded_with=URL"`
	URL  string `yaml:"url,omitempty" validate:"omitempty,url"`
}

// Component update policies.
const (
	UpdatesNever       = "never"
	UpdatesConstant    = "constant"
	UpdatesEveryRepeat = "set every repeat"
	UpdatesEveryFrame  = "set every frame"
)

// Component start/stop vocabularies.
const (
	StartTypeTime      = "time (s)"
	StartTypeFrame     = "frame N"
	StartTypeCondition = "condition"

	StopTypeDuration  = "duration (s)"
	StopTypeTime      = "time (s)"
	StopTypeFrame     = "frame N"
	StopTypeCondition = "condition"
)

type ComponentDef struct {
	Name string `yaml:"name" validate:"required,varname"`
	Kind string `yaml:"kind" validate:"required"`

	StartType string `yaml:"startType" default:"time (s)" validate:"oneof='time (s)' 'frame N' condition"`
	StartVal  string `yaml:"startVal" default:"0.0"`

	// An empty StopType means the component stays live until the routine ends.
	StopType string `yaml:"stopType,omitempty" validate:"omitempty,oneof='duration (s)' 'time (s)' 'frame N' condition"`
	StopVal  string `yaml:"stopVal,omitempty"`

	Updates string `yaml:"updates" default:"constant" validate:"oneof=never constant 'set every repeat' 'set every frame'"`

	// ForceEndRoutine ends the routine activation when this component fires
	// (input components only).
	ForceEndRoutine bool `yaml:"forceEndRoutine"`

	Params map[string]ParamDef `yaml:"params"`
}

// ParamDef is a single named parameter: either a literal value or an
// expression re-resolved according to the component's update policy.
type ParamDef struct {
	Value any    `yaml:"value,omitempty"`
	Expr  string `yaml:"expr,omitempty"`
}
