package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bdougie/ytframes/internal/analyzer"
	"github.com/bdougie/ytframes/internal/app"
	"github.com/bdougie/ytframes/internal/config"
	"github.com/bdougie/ytframes/internal/extractor"
)

var extractFlags struct {
	outputDir      string
	strategy       string
	classifier     string
	sceneThreshold float64
	interval       int
	dedupThreshold int
	maxFrames      int
	keepVideo      bool
	maxResolution  int
	chronological  bool
}

var extractCmd = &cobra.Command{
	Use:   "extract <video-url-or-id>",
	Short: "Run the full extraction pipeline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := *config.FromContext(cmd.Context())

		f := cmd.Flags()
		if f.Changed("output-dir") {
			opts.OutputRoot = extractFlags.outputDir
		}
		if f.Changed("strategy") {
			opts.Strategy = extractFlags.strategy
		}
		if f.Changed("classifier") {
			opts.Classifier = extractFlags.classifier
		}
		if f.Changed("scene-threshold") {
			opts.SceneThreshold = extractFlags.sceneThreshold
		}
		if f.Changed("interval") {
			opts.Interval = extractFlags.interval
		}
		if f.Changed("dedup-threshold") {
			opts.DedupThreshold = extractFlags.dedupThreshold
		}
		if f.Changed("max-frames") {
			opts.MaxFrames = extractFlags.maxFrames
		}
		if f.Changed("keep-video") {
			opts.KeepVideo = extractFlags.keepVideo
		}
		if f.Changed("max-resolution") {
			opts.MaxResolution = extractFlags.maxResolution
		}
		if f.Changed("chronological") {
			opts.Chronological = extractFlags.chronological
		}

		result, err := application.Extract(cmd.Context(), args[0], opts)
		if err != nil {
			return err
		}

		writeJSON(os.Stdout, result)
		if !result.Success {
			return errReported
		}
		return nil
	},
}

func init() {
	f := extractCmd.Flags()
	f.StringVar(&extractFlags.outputDir, "output-dir", "", "root directory for extractions")
	f.StringVar(&extractFlags.strategy, "strategy", extractor.HybridName, fmt.Sprintf("sampling strategy %v", extractor.Names()))
	f.StringVar(&extractFlags.classifier, "classifier", analyzer.OCRName, "classifier: ocr, ollama, claude, gpt4v or none")
	f.Float64Var(&extractFlags.sceneThreshold, "scene-threshold", 0.3, "scene change threshold in [0,1]")
	f.IntVar(&extractFlags.interval, "interval", 10, "seconds between frames for the interval strategy")
	f.IntVar(&extractFlags.dedupThreshold, "dedup-threshold", 10, "perceptual hash distance below which frames are duplicates")
	f.IntVar(&extractFlags.maxFrames, "max-frames", 50, "maximum frames to keep")
	f.BoolVar(&extractFlags.keepVideo, "keep-video", false, "keep the downloaded video in the cache")
	f.IntVar(&extractFlags.maxResolution, "max-resolution", 1080, "maximum video height to download")
	f.BoolVar(&extractFlags.chronological, "chronological", true, "order kept frames by timestamp instead of confidence")
}

func optionalArg(args []string, i int) string {
	if len(args) > i {
		return args[i]
	}
	return ""
}

var quickCmd = &cobra.Command{
	Use:   "quick <video-url-or-id> [output-dir]",
	Short: "Scene-change sampling without classification",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := application.Quick(cmd.Context(), args[0], optionalArg(args, 1))
		if err != nil {
			return err
		}
		writeJSON(os.Stdout, s)
		if !s.Success {
			return errReported
		}
		return nil
	},
}

var chaptersCmd = &cobra.Command{
	Use:   "chapters <video-url-or-id> [output-dir]",
	Short: "One frame per chapter",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := application.Chapters(cmd.Context(), args[0], optionalArg(args, 1))
		if err != nil {
			return err
		}
		writeJSON(os.Stdout, s)
		if !s.Success {
			return errReported
		}
		return nil
	},
}

var classifyName string

var classifyCmd = &cobra.Command{
	Use:   "classify <frames-dir>",
	Short: "Re-classify an existing directory of frames",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := application.Classify(cmd.Context(), args[0], classifyName)
		if err != nil {
			return err
		}
		writeJSON(os.Stdout, res)
		return nil
	},
}

func init() {
	classifyCmd.Flags().StringVar(&classifyName, "classifier", analyzer.OCRName, "classifier: ocr, ollama, claude or gpt4v")
}

var cleanCmd = &cobra.Command{
	Use:   "clean [video-url-or-id]",
	Short: "Remove cached videos",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := application.Clean(optionalArg(args, 0))
		if err != nil {
			return err
		}
		writeJSON(os.Stdout, res)
		return nil
	},
}

var listOutputDir string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List previous extractions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := application.List(listOutputDir)
		if err != nil {
			return err
		}
		writeJSON(os.Stdout, res)
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listOutputDir, "output-dir", "", "root directory for extractions")
}

var viewOpts app.ViewOptions

var viewCmd = &cobra.Command{
	Use:   "view <video-url-or-id>",
	Short: "Render extracted frames in the terminal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := application.View(cmd.Context(), os.Stdout, args[0], viewOpts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return errReported
		}
		return nil
	},
}

func init() {
	viewCmd.Flags().StringVar(&viewOpts.OutputRoot, "output-dir", "", "root directory for extractions")
	viewCmd.Flags().StringVar(&viewOpts.Size, "size", app.DefaultViewSize, "render size as WxH")
	viewCmd.Flags().StringVar(&viewOpts.Filter, "filter", "", "only show frames of this classification")
}

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the effective configuration to a YAML file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := application.InitConfig(optionalArg(args, 0), configForce)
		if err != nil {
			return err
		}
		writeJSON(os.Stdout, res)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
}
