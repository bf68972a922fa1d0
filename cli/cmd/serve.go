package cmd

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/FS94/psychopy/runtime"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve experiments over HTTP",
	Long: `Loads every experiment in the directory and exposes them over HTTP:
GET /experiments lists ids, POST /experiments/:id/run executes one with the
virtual clock and returns the summary.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		addr, _ := cmd.Flags().GetString("addr")

		app, err := runtime.NewApp(dir)
		if err != nil {
			return err
		}

		logger := runtime.SetupLogger()

		g := gin.Default()
		runtime.NewHTTPHandler(app, logger, g)

		return g.Run(addr)
	},
}

func init() {
	serveCmd.Flags().String("dir", "experiments", "Directory of experiment YAML files")
	serveCmd.Flags().String("addr", ":8080", "Listen address")
}
