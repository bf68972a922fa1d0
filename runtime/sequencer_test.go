package runtime

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// branchingExperiment is the canonical conditional flow:
//
//	instructions → [outer: branch guard [inner: 3x [body]]]
//
// With branch=0 the body never runs; with branch=1 it runs three times.
func branchingExperiment() *Experiment {
	return &Experiment{
		ID: "branching",
		Routines: map[string][]ComponentDef{
			"instructions": {{
				Name: "welcome", Kind: "text",
				StopType: StopTypeDuration, StopVal: "0.0",
				Params: map[string]ParamDef{"text": {Value: "Press to begin"}},
			}},
			"body": {{
				Name: "stim", Kind: "text",
				StopType: StopTypeDuration, StopVal: "0.0",
				Updates:  UpdatesEveryRepeat,
				Params: map[string]ParamDef{
					"text":   {Expr: "'trial ' + string(inner.thisN)"},
					"height": {Expr: "0.05 + inner.thisN * 0.01"},
				},
			}},
		},
		Flow: []FlowEntryDef{
			{Routine: "instructions"},
			{LoopStart: &LoopDef{Name: "outer", NReps: "branch == 1", Branch: true}},
			{LoopStart: &LoopDef{Name: "inner", NReps: "3"}},
			{Routine: "body"},
			{LoopEnd: "inner"},
			{LoopEnd: "outer"},
		},
	}
}

func runProgram(t *testing.T, program *Program, variables map[string]any) (*Summary, *Run, *recordingRenderer) {
	t.Helper()

	renderer := &recordingRenderer{}
	run := NewRun(context.Background(), program.Experiment, variables)
	seq := NewSequencer(testLogger(), NewEvaluator(), NewVirtualClock(60))
	seq.SetRenderer(renderer)

	summary, err := seq.Run(run, program)
	require.NoError(t, err)
	return summary, run, renderer
}

func TestFlowBranchSkipped(t *testing.T) {
	program, err := LinkExperiment(branchingExperiment())
	require.NoError(t, err)

	summary, run, renderer := runProgram(t, program, map[string]any{"branch": 0})

	assert.Equal(t, 1, run.RoutineRuns["instructions"])
	assert.Equal(t, 0, run.RoutineRuns["body"])
	assert.Empty(t, renderer.byName("stim"))
	assert.Equal(t, 1, summary.RoutineRuns("instructions"))

	// Counters of skipped loops never become visible outside them.
	_, ok := run.Env.Get("inner.thisN")
	assert.False(t, ok)
	_, ok = run.Env.Get("outer.thisN")
	assert.False(t, ok)
}

func TestFlowBranchTaken(t *testing.T) {
	program, err := LinkExperiment(branchingExperiment())
	require.NoError(t, err)

	_, run, renderer := runProgram(t, program, map[string]any{"branch": 1})

	assert.Equal(t, 1, run.RoutineRuns["instructions"])
	assert.Equal(t, 3, run.RoutineRuns["body"])

	draws := renderer.byName("stim")
	require.Len(t, draws, 3)
	for i, d := range draws {
		assert.Equal(t, fmt.Sprintf("trial %d", i), d.params["text"], "activation %d", i)
		assert.InDelta(t, 0.05+float64(i)*0.01, d.params["height"], 1e-9, "activation %d", i)
	}

	// Counter scope ends with the loop.
	_, ok := run.Env.Get("inner.thisN")
	assert.False(t, ok)
	_, ok = run.Env.Get("inner.nTotal")
	assert.False(t, ok)
}

func TestNestedLoopReentry(t *testing.T) {
	// Inner count depends on the outer counter: passes run 1 and 2
	// iterations, 3 body activations in total.
	program, err := LinkExperiment(&Experiment{
		ID: "nested",
		Routines: map[string][]ComponentDef{
			"body": {{
				Name: "stim", Kind: "text",
				StopType: StopTypeDuration, StopVal: "0.0",
				Params:   map[string]ParamDef{"text": {Value: "x"}},
			}},
		},
		Flow: []FlowEntryDef{
			{LoopStart: &LoopDef{Name: "outer", NReps: "2"}},
			{LoopStart: &LoopDef{Name: "inner", NReps: "outer.thisN + 1"}},
			{Routine: "body"},
			{LoopEnd: "inner"},
			{LoopEnd: "outer"},
		},
	})
	require.NoError(t, err)

	summary, run, _ := runProgram(t, program, nil)

	assert.Equal(t, 3, run.RoutineRuns["body"])
	assert.Equal(t, 3, summary.RoutineRuns("body"))

	// The inner loop was entered twice, with re-resolved counts.
	var innerCounts []int
	for _, rec := range run.LoopRecords {
		if rec.Loop == "inner" {
			innerCounts = append(innerCounts, rec.Count)
		}
	}
	assert.Equal(t, []int{1, 2}, innerCounts)
}

func TestRandomLoopDeterministicAcrossRuns(t *testing.T) {
	seed := int64(7)
	exp := func() *Experiment {
		return &Experiment{
			ID: "shuffled",
			Routines: map[string][]ComponentDef{
				"body": {{
					Name: "stim", Kind: "text",
					StopType: StopTypeDuration, StopVal: "0.0",
					Updates:  UpdatesEveryRepeat,
					Params:   map[string]ParamDef{"text": {Expr: "string(trials.thisN)"}},
				}},
			},
			Flow: []FlowEntryDef{
				{LoopStart: &LoopDef{Name: "trials", LoopType: "random", NReps: "5", Seed: &seed}},
				{Routine: "body"},
				{LoopEnd: "trials"},
			},
		}
	}

	first, err := LinkExperiment(exp())
	require.NoError(t, err)
	_, _, r1 := runProgram(t, first, nil)

	second, err := LinkExperiment(exp())
	require.NoError(t, err)
	_, _, r2 := runProgram(t, second, nil)

	var order1, order2 []string
	for _, d := range r1.byName("stim") {
		order1 = append(order1, d.params["text"].(string))
	}
	for _, d := range r2.byName("stim") {
		order2 = append(order2, d.params["text"].(string))
	}
	require.Len(t, order1, 5)
	assert.Equal(t, order1, order2)
}

func TestRunCancellation(t *testing.T) {
	program, err := LinkExperiment(branchingExperiment())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run := NewRun(ctx, program.Experiment, map[string]any{"branch": 1})
	seq := NewSequencer(testLogger(), NewEvaluator(), NewVirtualClock(60))

	_, err = seq.Run(run, program)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadedExperimentEndToEnd(t *testing.T) {
	program, err := LoadExperiment("../testdata/branching.yaml")
	require.NoError(t, err)

	_, run, renderer := runProgram(t, program, map[string]any{"branch": 1})

	assert.Equal(t, 3, run.RoutineRuns["body"])
	assert.Len(t, renderer.byName("stim"), 3)
}
