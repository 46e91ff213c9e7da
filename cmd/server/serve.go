package main

import (
	"faceoverlay/internal/app"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the camera, the detection loop and the viewer server",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := app.NewApp(cfg)
		if err != nil {
			return err
		}
		defer application.Close()

		return application.Run(cmd.Context())
	},
}

func init() {
	flags := serveCmd.Flags()
	flags.IntVarP(&cfg.Port, "port", "p", cfg.Port, "HTTP port")
	flags.IntVarP(&cfg.CameraIndex, "camera", "c", cfg.CameraIndex, "Camera device index")
	flags.IntVar(&cfg.RefreshHz, "refresh-hz", cfg.RefreshHz, "Display refresh rate pacing the detection loop")
	flags.IntVar(&cfg.DetectionWidth, "detection-width", cfg.DetectionWidth, "Working width frames are scaled to before inference")
	flags.BoolVar(&cfg.StreamFrames, "stream-frames", cfg.StreamFrames, "Send JPEG frames to viewers")
	flags.BoolVar(&cfg.Preview, "preview", cfg.Preview, "Open a local preview window")

	rootCmd.AddCommand(serveCmd)
}
