package runtime

import (
	"fmt"
	"log/slog"
)

// Sequencer drives a linked Program to completion: routines activate in
// order, loops re-enter their bodies per their resolved repetition counts.
// Everything runs on one logical thread; the clock is the only place the
// sequencer yields between frames.
type Sequencer struct {
	l        *slog.Logger
	eval     ExpressionEvaluator
	clock    Clock
	renderer Renderer
	input    InputSource
}

func NewSequencer(l *slog.Logger, eval ExpressionEvaluator, clock Clock) *Sequencer {
	return &Sequencer{
		l:        l,
		eval:     eval,
		clock:    clock,
		renderer: NopRenderer{},
		input:    NopInput{},
	}
}

// SetRenderer installs the per-frame draw collaborator.
func (s *Sequencer) SetRenderer(r Renderer) {
	s.renderer = r
}

// SetInput installs the per-frame input collaborator.
func (s *Sequencer) SetInput(in InputSource) {
	s.input = in
}

// Run executes the whole program against the given run state and returns the
// end-of-run summary. The run's environment is only valid for the duration of
// this call; the summary snapshots whatever is needed afterwards.
func (s *Sequencer) Run(run *Run, program *Program) (*Summary, error) {
	s.l.InfoContext(run, "Starting run",
		"run", run.ID,
		"experiment", program.Experiment.ID)

	s.clock.Start()

	if err := s.runEntries(run, program.Entries); err != nil {
		s.l.ErrorContext(run, "Run failed",
			"run", run.ID,
			"error", err)
		return nil, err
	}

	s.l.InfoContext(run, "Run complete", "run", run.ID)
	return BuildSummary(run), nil
}

func (s *Sequencer) runEntries(run *Run, entries []Entry) error {
	for _, e := range entries {
		switch entry := e.(type) {
		case *RoutineRef:
			if err := s.activateRoutine(run, entry); err != nil {
				return fmt.Errorf("error in routine %s: %w", entry.Name, err)
			}
		case *LoopEntry:
			if err := s.runLoop(run, entry); err != nil {
				return fmt.Errorf("error in loop %s: %w", entry.Def.Name, err)
			}
		default:
			return newConfigError("", "flow", fmt.Sprintf("unexpected entry type %T", e), nil)
		}
	}
	return nil
}

// runLoop builds a fresh loop node (iteration state never survives between
// visits), resolves the count, and drives the body once per iteration.
func (s *Sequencer) runLoop(run *Run, entry *LoopEntry) error {
	node := newLoopNode(entry.Def, entry.Table, s.eval)

	if err := node.Enter(run); err != nil {
		return err
	}

	s.l.InfoContext(run, "Entering loop",
		"loop", entry.Def.Name,
		"count", node.Count(),
		"loopType", entry.Def.LoopType)

	for node.Next(run) {
		if err := s.runEntries(run, entry.Body); err != nil {
			return err
		}
	}
	node.Exit(run)

	s.l.InfoContext(run, "Exited loop", "loop", entry.Def.Name)
	return nil
}
