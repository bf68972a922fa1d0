package runtime

import (
	"context"
	"time"

	"github.com/google/uuid"
)

var _ context.Context = &Run{}

// LoopRecord captures one completed loop pass for the end-of-run summary.
type LoopRecord struct {
	Loop  string
	Count int
	Order []int
}

// Run is the mutable state of one flow execution: the variable environment,
// bookkeeping for the summary, and the cancellation signal. It implements
// context.Context so that cancellation and environment lookups travel as one
// value down the call chain, mirroring the single-threaded execution model.
type Run struct {
	ID          string
	Experiment  *Experiment
	Env         *Environment
	RoutineRuns map[string]int
	LoopRecords []LoopRecord

	ctx context.Context // real context carrying deadline/cancellation
}

func NewRun(ctx context.Context, exp *Experiment, variables map[string]any) *Run {
	if ctx == nil {
		ctx = context.Background()
	}

	run := &Run{
		ID:          uuid.New().String(),
		Experiment:  exp,
		Env:         NewEnvironment(),
		RoutineRuns: make(map[string]int),
		ctx:         ctx,
	}

	for k, v := range variables {
		run.Env.SetNested(k, v)
	}

	return run
}

// context.Context implementation: delegates to the embedded ctx so that
// cancellation propagates through slog and component calls.

func (r *Run) Deadline() (deadline time.Time, ok bool) {
	return r.ctx.Deadline()
}

func (r *Run) Done() <-chan struct{} {
	return r.ctx.Done()
}

func (r *Run) Err() error {
	return r.ctx.Err()
}

func (r *Run) Value(key any) any {
	k, ok := key.(string)
	if !ok {
		return r.ctx.Value(key)
	}

	v, _ := r.Env.Get(k)
	return v
}

// WithContext returns a shallow copy of the Run with a new embedded context.
// Mirrors the http.Request.WithContext pattern.
func (r *Run) WithContext(ctx context.Context) *Run {
	copy := *r
	copy.ctx = ctx
	return &copy
}
