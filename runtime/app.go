package runtime

import (
	"fmt"
	"path/filepath"
)

// App holds every experiment loaded from a directory, linked and ready to run.
type App struct {
	Experiments map[string]*Program
}

func NewApp(experimentsDir string) (*App, error) {
	files, err := filepath.Glob(filepath.Join(experimentsDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("error reading directory: %w", err)
	}

	app := &App{
		Experiments: make(map[string]*Program),
	}

	for _, file := range files {
		program, err := LoadExperiment(file)
		if err != nil {
			return nil, fmt.Errorf("error loading %s: %w", file, err)
		}
		app.Experiments[program.Experiment.ID] = program
	}

	return app, nil
}
