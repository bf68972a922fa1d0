package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textDef(name string) ComponentDef {
	return ComponentDef{
		Name: name, Kind: "text",
		Params: map[string]ParamDef{"text": {Value: "x"}},
	}
}

func TestLoadExperimentFile(t *testing.T) {
	program, err := LoadExperiment("../testdata/branching.yaml")
	require.NoError(t, err)

	assert.Equal(t, "branching", program.Experiment.ID)
	assert.Equal(t, 60.0, program.Experiment.Settings.FrameRate)

	require.Len(t, program.Entries, 2)

	instructions, ok := program.Entries[0].(*RoutineRef)
	require.True(t, ok)
	assert.Equal(t, "instructions", instructions.Name)

	outer, ok := program.Entries[1].(*LoopEntry)
	require.True(t, ok)
	assert.Equal(t, "outer", outer.Def.Name)
	assert.True(t, outer.Def.Branch)
	require.Len(t, outer.Body, 1)

	inner, ok := outer.Body[0].(*LoopEntry)
	require.True(t, ok)
	assert.Equal(t, "inner", inner.Def.Name)
	assert.Equal(t, "sequential", inner.Def.LoopType)
	require.Len(t, inner.Body, 1)

	body, ok := inner.Body[0].(*RoutineRef)
	require.True(t, ok)
	assert.Equal(t, "body", body.Name)

	// Component defaults applied during linking.
	welcome := instructions.Components[0]
	assert.Equal(t, StartTypeTime, welcome.StartType)
	assert.Equal(t, UpdatesConstant, welcome.Updates)
}

func TestLinkStructuralErrors(t *testing.T) {
	routines := map[string][]ComponentDef{"r": {textDef("c")}}

	tests := []struct {
		name     string
		flow     []FlowEntryDef
		sentinel error
	}{
		{
			name: "unclosed loop",
			flow: []FlowEntryDef{
				{LoopStart: &LoopDef{Name: "a", NReps: "1"}},
				{Routine: "r"},
			},
			sentinel: ErrUnmatchedLoopStart,
		},
		{
			name: "loopEnd without loopStart",
			flow: []FlowEntryDef{
				{Routine: "r"},
				{LoopEnd: "a"},
			},
			sentinel: ErrUnmatchedLoopEnd,
		},
		{
			name: "partially overlapping loops",
			flow: []FlowEntryDef{
				{LoopStart: &LoopDef{Name: "a", NReps: "1"}},
				{LoopStart: &LoopDef{Name: "b", NReps: "1"}},
				{Routine: "r"},
				{LoopEnd: "a"},
				{LoopEnd: "b"},
			},
			sentinel: ErrOverlappingLoops,
		},
		{
			name: "duplicate loop names",
			flow: []FlowEntryDef{
				{LoopStart: &LoopDef{Name: "a", NReps: "1"}},
				{LoopEnd: "a"},
				{LoopStart: &LoopDef{Name: "a", NReps: "1"}},
				{LoopEnd: "a"},
			},
			sentinel: ErrDuplicateLoopName,
		},
		{
			name:     "unknown routine",
			flow:     []FlowEntryDef{{Routine: "nope"}},
			sentinel: ErrUnknownRoutine,
		},
		{
			name:     "empty flow",
			flow:     nil,
			sentinel: ErrEmptyFlow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LinkExperiment(&Experiment{
				ID:       "bad",
				Routines: routines,
				Flow:     tt.flow,
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)

			var configErr *ConfigError
			assert.ErrorAs(t, err, &configErr)
		})
	}
}

func TestLinkRejectsMixedFlowEntry(t *testing.T) {
	routines := map[string][]ComponentDef{"r": {textDef("c")}}

	tests := []struct {
		name string
		flow []FlowEntryDef
	}{
		{
			name: "routine with loopStart",
			flow: []FlowEntryDef{
				{Routine: "r", LoopStart: &LoopDef{Name: "a", NReps: "1"}},
			},
		},
		{
			name: "loopStart with loopEnd",
			flow: []FlowEntryDef{
				{LoopStart: &LoopDef{Name: "a", NReps: "1"}, LoopEnd: "a"},
				{Routine: "r"},
				{LoopEnd: "a"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LinkExperiment(&Experiment{
				ID:       "bad",
				Routines: routines,
				Flow:     tt.flow,
			})
			require.Error(t, err)

			var configErr *ConfigError
			assert.ErrorAs(t, err, &configErr)
			assert.Contains(t, err.Error(), "mixes")
		})
	}
}

func TestLinkUnknownComponentKind(t *testing.T) {
	_, err := LinkExperiment(&Experiment{
		ID: "bad",
		Routines: map[string][]ComponentDef{
			"r": {{Name: "c", Kind: "hologram"}},
		},
		Flow: []FlowEntryDef{{Routine: "r"}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownComponentKind)
}

func TestLinkValidatesLoopNames(t *testing.T) {
	_, err := LinkExperiment(&Experiment{
		ID:       "bad",
		Routines: map[string][]ComponentDef{"r": {textDef("c")}},
		Flow: []FlowEntryDef{
			{LoopStart: &LoopDef{Name: "not a name", NReps: "1"}},
			{Routine: "r"},
			{LoopEnd: "not a name"},
		},
	})
	require.Error(t, err)
}
