package runtime

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// runRequest is the optional body of POST /experiments/:id/run. Variables
// seed the environment before the flow starts (e.g. branching decisions made
// outside the engine).
type runRequest struct {
	Variables map[string]any `json:"variables"`
}

// NewHTTPHandler exposes loaded experiments over HTTP. Runs execute with the
// virtual clock: no sleeping, deterministic, summary returned in the response.
func NewHTTPHandler(app *App, l *slog.Logger, g *gin.Engine) {
	g.GET("/experiments", func(c *gin.Context) {
		ids := make([]string, 0, len(app.Experiments))
		for id := range app.Experiments {
			ids = append(ids, id)
		}
		c.JSON(http.StatusOK, gin.H{"experiments": ids})
	})

	g.POST("/experiments/:id/run", func(c *gin.Context) {
		program, ok := app.Experiments[c.Param("id")]
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"message": "unknown experiment"})
			return
		}

		var req runRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body: " + err.Error()})
				return
			}
		}

		run := NewRun(c.Request.Context(), program.Experiment, req.Variables)
		clock := NewVirtualClock(program.Experiment.Settings.FrameRate)
		seq := NewSequencer(l, NewEvaluator(), clock)

		summary, err := seq.Run(run, program)
		if err != nil {
			l.Error("Experiment run failed",
				"experiment", program.Experiment.ID,
				"run", run.ID,
				"error", err.Error())

			status := http.StatusInternalServerError
			var configErr *ConfigError
			var evalErr *EvalError
			var nameErr *UnresolvedNameError
			if errors.As(err, &configErr) || errors.As(err, &evalErr) || errors.As(err, &nameErr) {
				status = http.StatusUnprocessableEntity
			}
			c.JSON(status, gin.H{"message": "error running experiment: " + err.Error()})
			return
		}

		c.Data(http.StatusOK, "application/json", summary.Bytes())
	})
}
