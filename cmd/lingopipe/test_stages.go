package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/lingopipe/lingopipe/internal/capture"
	"github.com/lingopipe/lingopipe/internal/config"
	"github.com/lingopipe/lingopipe/internal/daemon"
	"github.com/lingopipe/lingopipe/internal/playback"
	"github.com/lingopipe/lingopipe/internal/synthesizer"
	"github.com/lingopipe/lingopipe/internal/transcriber"
)

const testPhrase = "hello world"

type testStagesOptions struct {
	timeout    time.Duration
	outputPath string
	play       bool
	skipCloud  bool
}

type stageResult struct {
	Stage      string `json:"stage"`
	Status     string `json:"status"` // pass, fail, skip
	DurationMS int64  `json:"duration_ms"`
	Detail     string `json:"detail,omitempty"`
	Error      string `json:"error,omitempty"`
}

type stageReport struct {
	StartedAt  time.Time     `json:"started_at"`
	Results    []stageResult `json:"results"`
	PassCount  int           `json:"pass_count"`
	FailCount  int           `json:"fail_count"`
	SkipCount  int           `json:"skip_count"`
	TotalCount int           `json:"total_count"`
}

var (
	passStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	skipStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	stageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

func testCmd() *cobra.Command {
	var opts testStagesOptions

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Check every pipeline stage independently",
		Long: `Runs a connectivity and sanity check for each pipeline stage:
capture device, transcription service, translation engine, speech
synthesis and playback device. Stages are checked independently so a
broken one does not hide the state of the others.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTestStages(cmd.Context(), opts)
		},
	}

	cmd.Flags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Per-stage timeout")
	cmd.Flags().StringVar(&opts.outputPath, "output", "", "Write JSON report to file")
	cmd.Flags().BoolVar(&opts.play, "play", false, "Play the synthesized check phrase out loud")
	cmd.Flags().BoolVar(&opts.skipCloud, "offline", false, "Skip stages that need network access")

	return cmd
}

func runTestStages(ctx context.Context, opts testStagesOptions) error {
	if opts.timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	startedAt := time.Now().UTC()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var results []stageResult
	results = append(results, checkCapture(ctx, cfg))
	results = append(results, checkTranscription(ctx, cfg, opts))
	translated, trResult := checkTranslation(ctx, cfg, opts)
	results = append(results, trResult)
	audio, syResult := checkSynthesis(ctx, cfg, opts, translated)
	results = append(results, syResult)
	results = append(results, checkPlayback(ctx, cfg, opts, audio))

	report := summarizeStages(startedAt, results)
	printStageReport(report)

	if opts.outputPath != "" {
		if err := writeStageReport(opts.outputPath, report); err != nil {
			return err
		}
	}

	if report.FailCount > 0 {
		return fmt.Errorf("%d of %d stages failed", report.FailCount, report.TotalCount)
	}
	return nil
}

func checkCapture(ctx context.Context, cfg *config.Config) stageResult {
	result := stageResult{Stage: "capture", Status: "fail"}

	start := time.Now()
	err := capture.CheckPipeWireAvailable(ctx)
	result.DurationMS = time.Since(start).Milliseconds()
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Status = "pass"
	device := cfg.Capture.Device
	if device == "" {
		device = "default"
	}
	result.Detail = fmt.Sprintf("pipewire ok, device=%s", device)
	return result
}

func checkTranscription(ctx context.Context, cfg *config.Config, opts testStagesOptions) stageResult {
	result := stageResult{Stage: "transcription", Status: "fail"}

	if opts.skipCloud {
		result.Status = "skip"
		result.Error = "offline mode"
		return result
	}

	acfg := cfg.ToAssemblyAIConfig()
	if acfg.APIKey == "" {
		result.Status = "skip"
		result.Error = "missing api key (set transcription.api_key or ASSEMBLYAI_API_KEY)"
		return result
	}

	stageCtx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	adapter := transcriber.NewAssemblyAIAdapter(acfg)
	start := time.Now()
	err := adapter.Start(stageCtx, cfg.Transcription.Language)
	if err == nil {
		// Send a short burst of silence so the session opens fully, then
		// close it down cleanly.
		silence := make([]byte, 3200)
		_ = adapter.SendChunk(silence)
		err = adapter.Finalize(stageCtx)
		adapter.Close()
	}
	result.DurationMS = time.Since(start).Milliseconds()
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Status = "pass"
	result.Detail = "streaming session opened and closed"
	return result
}

func checkTranslation(ctx context.Context, cfg *config.Config, opts testStagesOptions) (string, stageResult) {
	result := stageResult{Stage: "translation", Status: "fail"}

	tr, err := daemon.BuildTranslator(cfg)
	if err != nil {
		result.Error = err.Error()
		return "", result
	}

	stageCtx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	start := time.Now()
	translated, err := tr.Translate(stageCtx, testPhrase, cfg.Transcription.Language, cfg.Translation.TargetLanguage)
	result.DurationMS = time.Since(start).Milliseconds()
	if err != nil {
		result.Error = err.Error()
		return "", result
	}

	result.Status = "pass"
	result.Detail = fmt.Sprintf("%q -> %q", testPhrase, translated)
	return translated, result
}

func checkSynthesis(ctx context.Context, cfg *config.Config, opts testStagesOptions, text string) (*synthesizer.Audio, stageResult) {
	result := stageResult{Stage: "synthesis", Status: "fail"}

	if text == "" {
		// Translation failed; still exercise the synthesizer with the
		// untranslated phrase so both stages report independently.
		text = testPhrase
	}

	synth := synthesizer.NewCoquiAdapter(cfg.ToCoquiConfig())

	stageCtx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	start := time.Now()
	audio, err := synth.Synthesize(stageCtx, text)
	result.DurationMS = time.Since(start).Milliseconds()
	if err != nil {
		result.Error = err.Error()
		return nil, result
	}

	result.Status = "pass"
	result.Detail = fmt.Sprintf("%d samples @ %d Hz (%.1fs)",
		len(audio.Samples), audio.SampleRate, audio.Duration().Seconds())
	return audio, result
}

func checkPlayback(ctx context.Context, cfg *config.Config, opts testStagesOptions, audio *synthesizer.Audio) stageResult {
	result := stageResult{Stage: "playback", Status: "fail"}

	start := time.Now()
	if err := playback.CheckAvailable(); err != nil {
		result.DurationMS = time.Since(start).Milliseconds()
		result.Error = err.Error()
		return result
	}

	if opts.play && audio != nil {
		player := playback.New(cfg.ToPlaybackConfig())
		stageCtx, cancel := context.WithTimeout(ctx, opts.timeout)
		defer cancel()
		if err := player.Play(stageCtx, audio); err != nil {
			result.DurationMS = time.Since(start).Milliseconds()
			result.Error = err.Error()
			return result
		}
		result.Detail = "played check phrase"
	} else {
		result.Detail = "pw-play found (use --play to hear the check phrase)"
	}

	result.DurationMS = time.Since(start).Milliseconds()
	result.Status = "pass"
	return result
}

func summarizeStages(startedAt time.Time, results []stageResult) stageReport {
	report := stageReport{
		StartedAt: startedAt,
		Results:   results,
	}
	for _, r := range results {
		report.TotalCount++
		switch r.Status {
		case "pass":
			report.PassCount++
		case "fail":
			report.FailCount++
		case "skip":
			report.SkipCount++
		}
	}
	return report
}

func printStageReport(report stageReport) {
	fmt.Println()
	for _, r := range report.Results {
		var badge string
		switch r.Status {
		case "pass":
			badge = passStyle.Render("PASS")
		case "fail":
			badge = failStyle.Render("FAIL")
		case "skip":
			badge = skipStyle.Render("SKIP")
		}

		line := fmt.Sprintf("%s  %s", badge, stageStyle.Render(fmt.Sprintf("%-13s", r.Stage)))
		if r.DurationMS > 0 {
			line += dimStyle.Render(fmt.Sprintf(" %dms", r.DurationMS))
		}
		if r.Detail != "" {
			line += "  " + r.Detail
		}
		if r.Error != "" {
			line += "  " + failStyle.Render(truncateString(r.Error, 160))
		}
		fmt.Println(line)
	}

	fmt.Println()
	summary := fmt.Sprintf("total=%d pass=%d fail=%d skip=%d",
		report.TotalCount, report.PassCount, report.FailCount, report.SkipCount)
	if report.FailCount > 0 {
		fmt.Println(failStyle.Render(summary))
	} else {
		fmt.Println(passStyle.Render(summary))
	}
}

func writeStageReport(path string, report stageReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func truncateString(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
