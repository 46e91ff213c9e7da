package main

import (
	"fmt"
	"os"
	"sync"

	"faceoverlay/internal/app"
	"faceoverlay/internal/logger"
	"faceoverlay/internal/services/readiness"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Load every model once and report whether detection can run",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.NewWriter(os.Stderr)

		analyzer := app.NewAnalyzer(cfg, log)
		defer analyzer.Close()

		loaders := analyzer.Loaders()
		gate := readiness.NewGate(log, loaders...)

		bar := progressbar.NewOptions(len(loaders),
			progressbar.OptionSetDescription("🤖 Loading models"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
		)

		var mu sync.Mutex
		var failed []string
		gate.OnProgress(func(name string, err error) {
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed = append(failed, name)
			}
			bar.Add(1)
		})

		if err := gate.Load(cmd.Context()); err != nil {
			bar.Exit()
			fmt.Fprintln(os.Stderr)
			return fmt.Errorf("%d of %d models failed (%v): %w", len(failed), len(loaders), failed, err)
		}
		bar.Finish()
		fmt.Fprintln(os.Stderr)

		fmt.Println("✅ All models loaded, detection available")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(probeCmd)
}
