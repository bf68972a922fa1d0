package runtime

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadExperiment reads an experiment definition from a YAML file and links it
// into an executable Program. All structural problems (unknown routines,
// unmatched loop brackets, bad component kinds) surface here, before any
// execution begins.
func LoadExperiment(filePath string) (*Program, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading experiment file: %w", err)
	}

	var exp Experiment
	if err := yaml.Unmarshal(data, &exp); err != nil {
		return nil, fmt.Errorf("error unmarshalling experiment YAML: %w", err)
	}

	// Condition files are referenced relative to the experiment file.
	dir := filepath.Dir(filePath)
	for _, entry := range exp.Flow {
		if entry.LoopStart == nil || entry.LoopStart.Conditions == nil {
			continue
		}
		ref := entry.LoopStart.Conditions
		if ref.File != "" && !filepath.IsAbs(ref.File) {
			ref.File = filepath.Join(dir, ref.File)
		}
	}

	return LinkExperiment(&exp)
}

// LinkExperiment validates the definition records and builds the nested entry
// structure from the flat flow list. Condition tables are loaded here, once,
// at startup.
func LinkExperiment(exp *Experiment) (*Program, error) {
	if exp.ID == "" {
		return nil, newConfigError("", "id", "experiment has no id", nil)
	}
	if len(exp.Flow) == 0 {
		return nil, newConfigError(exp.ID, "flow", "experiment flow is empty", ErrEmptyFlow)
	}

	if err := prepareDefinition(&exp.Settings); err != nil {
		return nil, newConfigError(exp.ID, "settings", err.Error(), nil)
	}

	program := &Program{
		Experiment: exp,
		Routines:   make(map[string]*RoutineRef),
	}

	for name, comps := range exp.Routines {
		if !varNameRe.MatchString(name) {
			return nil, newConfigError(name, "name",
				fmt.Sprintf("routine name %q is not a valid identifier", name), nil)
		}
		for i := range comps {
			if err := prepareDefinition(&comps[i]); err != nil {
				return nil, newConfigError(name, "components", err.Error(), nil)
			}
			if _, ok := componentKinds[comps[i].Kind]; !ok {
				return nil, newConfigError(name, "components",
					fmt.Sprintf("component %q has unknown kind %q", comps[i].Name, comps[i].Kind),
					ErrUnknownComponentKind)
			}
		}
		program.Routines[name] = &RoutineRef{Name: name, Components: comps}
	}

	entries, err := linkFlow(program, exp.Flow)
	if err != nil {
		return nil, err
	}
	program.Entries = entries
	return program, nil
}

// openLoop is one frame of the bracket-matching stack.
type openLoop struct {
	entry *LoopEntry
}

func linkFlow(program *Program, flow []FlowEntryDef) ([]Entry, error) {
	var top []Entry
	var stack []*openLoop
	loopNames := make(map[string]bool)

	appendEntry := func(e Entry) {
		if len(stack) > 0 {
			inner := stack[len(stack)-1]
			inner.entry.Body = append(inner.entry.Body, e)
			return
		}
		top = append(top, e)
	}

	for i, def := range flow {
		switch {
		case def.Routine != "":
			if def.LoopStart != nil || def.LoopEnd != "" {
				return nil, newConfigError(def.Routine, "flow",
					fmt.Sprintf("flow entry %d mixes routine and loop fields", i), nil)
			}
			ref, ok := program.Routines[def.Routine]
			if !ok {
				return nil, newConfigError(def.Routine, "flow",
					fmt.Sprintf("flow entry %d references unknown routine %q", i, def.Routine),
					ErrUnknownRoutine)
			}
			appendEntry(ref)

		case def.LoopStart != nil:
			if def.LoopEnd != "" {
				return nil, newConfigError(def.LoopStart.Name, "flow",
					fmt.Sprintf("flow entry %d mixes loopStart and loopEnd fields", i), nil)
			}
			if err := prepareDefinition(def.LoopStart); err != nil {
				return nil, newConfigError(def.LoopStart.Name, "loopStart", err.Error(), nil)
			}
			if loopNames[def.LoopStart.Name] {
				return nil, newConfigError(def.LoopStart.Name, "loopStart",
					fmt.Sprintf("loop name %q is used more than once", def.LoopStart.Name),
					ErrDuplicateLoopName)
			}
			loopNames[def.LoopStart.Name] = true

			table, err := LoadConditions(def.LoopStart.Conditions)
			if err != nil {
				return nil, newConfigError(def.LoopStart.Name, "conditions", err.Error(), nil)
			}

			entry := &LoopEntry{Def: def.LoopStart, Table: table}
			appendEntry(entry)
			stack = append(stack, &openLoop{entry: entry})

		case def.LoopEnd != "":
			if len(stack) == 0 {
				return nil, newConfigError(def.LoopEnd, "loopEnd",
					fmt.Sprintf("flow entry %d closes loop %q but no loop is open", i, def.LoopEnd),
					ErrUnmatchedLoopEnd)
			}
			inner := stack[len(stack)-1]
			if inner.entry.Def.Name != def.LoopEnd {
				return nil, newConfigError(def.LoopEnd, "loopEnd",
					fmt.Sprintf("flow entry %d closes loop %q while %q is still open",
						i, def.LoopEnd, inner.entry.Def.Name),
					ErrOverlappingLoops)
			}
			stack = stack[:len(stack)-1]

		default:
			return nil, newConfigError("", "flow",
				fmt.Sprintf("flow entry %d is empty: expected routine, loopStart or loopEnd", i), nil)
		}
	}

	if len(stack) > 0 {
		open := stack[len(stack)-1]
		return nil, newConfigError(open.entry.Def.Name, "loopStart",
			fmt.Sprintf("loop %q is never closed", open.entry.Def.Name),
			ErrUnmatchedLoopStart)
	}
	return top, nil
}
