package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"subtitle-generator/internal/applock"
	"subtitle-generator/internal/config"
	"subtitle-generator/internal/domain"
	"subtitle-generator/internal/execx"
	"subtitle-generator/internal/logging"
	"subtitle-generator/internal/pipeline"
)

func newGenerateCommand() *cobra.Command {
	var outputDir string
	var tierFlag string
	var languageFlag string

	cmd := &cobra.Command{
		Use:   "generate <video>",
		Short: "Generate an SRT subtitle file for one video, headless",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), args[0], outputDir, tierFlag, languageFlag)
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (default: beside the video)")
	cmd.Flags().StringVarP(&tierFlag, "tier", "t", "", "Model tier: tiny, base, small, medium, large")
	cmd.Flags().StringVarP(&languageFlag, "language", "l", "", "Language code or auto")
	return cmd
}

func runGenerate(ctx context.Context, videoPath, outputDir, tierFlag, languageFlag string) error {
	store := config.NewTOMLStore(config.DefaultSettingsPath())
	settings, err := store.Load()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	logger, err := logging.New(logging.Options{
		Level:  settings.LogLevel,
		Format: settings.LogFormat,
	})
	if err != nil {
		return err
	}

	tier, err := domain.ParseModelTier(firstNonEmpty(tierFlag, settings.ModelTier, string(domain.ModelTierTiny)))
	if err != nil {
		return err
	}

	language := firstNonEmpty(languageFlag, settings.Language, domain.LanguageAuto)
	if !domain.IsSupportedLanguage(language) {
		return fmt.Errorf("unsupported language: %q", language)
	}

	if strings.TrimSpace(outputDir) == "" {
		outputDir = settings.OutputDir
	}
	if strings.TrimSpace(outputDir) == "" {
		outputDir = filepath.Dir(videoPath)
	}

	lock := applock.New(filepath.Join(config.AppDir(), "app.lock"))
	if err := lock.Acquire(); err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	var bar *progressbar.ProgressBar
	if isatty.IsTerminal(os.Stdout.Fd()) {
		bar = progressbar.NewOptions(3,
			progressbar.OptionSetDescription("starting"),
			progressbar.OptionSetWriter(os.Stdout),
			progressbar.OptionClearOnFinish(),
		)
	}

	runner := pipeline.New(pipeline.Config{
		FFmpegPath:  settings.FFmpegPath,
		WhisperPath: settings.WhisperPath,
		ModelsDir:   settings.ModelsDir,
	})

	result, err := runner.Run(ctx, pipeline.Request{
		VideoPath: videoPath,
		OutputDir: outputDir,
		ModelTier: tier,
		Language:  language,
		OnStage: func(stage string) {
			logger.Info("phase started", "phase", stage)
			if bar != nil {
				bar.Describe(stage)
				if stage != pipeline.StageExtracting {
					_ = bar.Add(1)
				}
			}
		},
		OnLog: func(log execx.Log) {
			logger.Debug("command completed",
				"command", log.Command,
				"exitCode", log.ExitCode,
			)
		},
	})
	if err != nil {
		return err
	}

	if bar != nil {
		_ = bar.Finish()
	}
	logger.Info("subtitles written", "path", result.SRTPath, "cues", result.SegmentCount)
	fmt.Println(result.SRTPath)
	return nil
}

// firstNonEmpty returns the first value with non-blank content.
func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
