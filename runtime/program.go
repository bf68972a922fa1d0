package runtime

// Entry is one node of the linked flow: either a routine reference or a loop
// wrapping a contiguous body. The loader produces the nesting; the sequencer
// only ever walks it.
type Entry interface {
	entryNode()
}

// RoutineRef is an executable reference to a named routine definition.
type RoutineRef struct {
	Name       string
	Components []ComponentDef
}

func (*RoutineRef) entryNode() {}

// LoopEntry is a loop with its already-loaded condition table and the entries
// bracketed between its loopStart and loopEnd.
type LoopEntry struct {
	Def   *LoopDef
	Table *ConditionTable
	Body  []Entry
}

func (*LoopEntry) entryNode() {}

// Program is a linked, validated experiment ready for the sequencer.
type Program struct {
	Experiment *Experiment
	Entries    []Entry
	Routines   map[string]*RoutineRef
}
