package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bdougie/ytframes/internal/app"
	"github.com/bdougie/ytframes/internal/config"
	"github.com/bdougie/ytframes/internal/logging"
)

var (
	cfgFile string
	verbose bool

	application *app.App
)

// errReported marks a failure whose result was already written to stdout
var errReported = errors.New("reported")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		if !errors.Is(err, errReported) {
			writeJSON(os.Stdout, failure{Error: err.Error()})
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "ytframes",
	Short:         "Extract useful frames from YouTube videos",
	Long:          "Downloads a video, samples candidate frames, drops near-duplicates, classifies what each frame shows and keeps the useful ones.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		level := logging.ParseLevel(cfg.LogLevel)
		if verbose {
			level = slog.LevelDebug
		}
		logger := logging.New(os.Stderr, level)

		application = app.New(cfg, logger, os.Stderr)
		cmd.SetContext(config.WithConfig(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./ytframes.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(quickCmd)
	rootCmd.AddCommand(chaptersCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(configCmd)
}

type failure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
