package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"faceoverlay/internal/config"

	"github.com/spf13/cobra"
)

// Version is the application version.
const Version = "0.1.0"

// cfg is loaded from the environment before flags are parsed; flags
// override it.
var cfg = config.Load()

var rootCmd = &cobra.Command{
	Use:     "faceoverlay",
	Short:   "Live face attribute overlay server",
	Version: Version,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfg.DetectorModelPath, "detector-model", cfg.DetectorModelPath, "Path to the YuNet face detector (.onnx)")
	flags.StringVar(&cfg.AgeGenderModelPath, "age-gender-model", cfg.AgeGenderModelPath, "Path to the gender/age model (.onnx)")
	flags.StringVar(&cfg.ExpressionModelPath, "expression-model", cfg.ExpressionModelPath, "Path to the FER+ expression model (.onnx)")
	flags.StringVar(&cfg.ONNXRuntimeLibPath, "onnxruntime-lib", cfg.ONNXRuntimeLibPath, "Path to the ONNX Runtime shared library")
	flags.StringVar(&cfg.LogDirectory, "log-dir", cfg.LogDirectory, "Directory for log files")
}
