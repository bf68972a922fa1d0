package runtime

import (
	"github.com/Jeffail/gabs/v2"
)

// Summary is the end-of-run report handed to external collaborators: final
// variable states, per-routine activation counts and per-loop iteration
// records. It is a JSON document so logging backends can store it as-is.
type Summary struct {
	doc *gabs.Container
}

func BuildSummary(run *Run) *Summary {
	doc := gabs.New()
	doc.Set(run.ID, "run")
	doc.Set(run.Experiment.ID, "experiment")

	for name, count := range run.RoutineRuns {
		doc.Set(count, "routines", name)
	}

	doc.Array("loops")
	for _, rec := range run.LoopRecords {
		loop := gabs.New()
		loop.Set(rec.Loop, "name")
		loop.Set(rec.Count, "count")
		loop.Array("order")
		for _, i := range rec.Order {
			loop.ArrayAppend(i, "order")
		}
		doc.ArrayAppend(loop.Data(), "loops")
	}

	for k, v := range run.Env.Snapshot() {
		doc.Set(v, "variables", k)
	}

	return &Summary{doc: doc}
}

// Data returns the summary as plain Go values.
func (s *Summary) Data() any {
	return s.doc.Data()
}

// Bytes returns the summary as compact JSON.
func (s *Summary) Bytes() []byte {
	return s.doc.Bytes()
}

func (s *Summary) String() string {
	return s.doc.StringIndent("", "  ")
}

// RoutineRuns reads back the activation count recorded for a routine.
func (s *Summary) RoutineRuns(name string) int {
	v, ok := s.doc.Search("routines", name).Data().(int)
	if !ok {
		return 0
	}
	return v
}
