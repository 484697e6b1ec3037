package tui

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/lingopipe/lingopipe/internal/config"
)

// ConfigureResult holds the configuration result from the TUI
type ConfigureResult struct {
	Config    *config.Config
	Cancelled bool
}

// ConfigSection represents a configuration section
type ConfigSection string

const (
	SectionLanguages     ConfigSection = "languages"
	SectionTranscription ConfigSection = "transcription"
	SectionTranslation   ConfigSection = "translation"
	SectionSynthesis     ConfigSection = "synthesis"
	SectionAudio         ConfigSection = "audio"
	SectionSaveExit      ConfigSection = "save_exit"
	SectionDiscardExit   ConfigSection = "discard_exit"
)

// Run starts the TUI configuration wizard.
func Run(existingConfig *config.Config) (*ConfigureResult, error) {
	if existingConfig == nil {
		return nil, fmt.Errorf("config is required")
	}

	if !hasUserChanges(existingConfig) {
		return runFreshInstall(existingConfig)
	}
	return runEditExisting(existingConfig)
}

// hasUserChanges detects if config has user modifications
func hasUserChanges(cfg *config.Config) bool {
	return cfg.Transcription.APIKey != "" || cfg.Translation.APIKey != ""
}

// runFreshInstall walks through every section once, in pipeline order.
func runFreshInstall(cfg *config.Config) (*ConfigureResult, error) {
	clearScreen()
	fmt.Println(Logo())
	fmt.Println(StyleMuted.Render("First-time setup. You can re-run 'lingopipe configure' anytime."))
	fmt.Println()

	steps := []func(*config.Config) error{
		editLanguages,
		editTranscription,
		editTranslation,
		editSynthesis,
		editAudio,
	}
	for _, step := range steps {
		if err := step(cfg); err != nil {
			if err == huh.ErrUserAborted {
				return &ConfigureResult{Cancelled: true}, nil
			}
			return nil, err
		}
	}

	confirmed, err := showSummary(cfg)
	if err != nil {
		if err == huh.ErrUserAborted {
			return &ConfigureResult{Cancelled: true}, nil
		}
		return nil, err
	}
	return &ConfigureResult{Config: cfg, Cancelled: !confirmed}, nil
}

// runEditExisting shows the menu loop until save or discard.
func runEditExisting(cfg *config.Config) (*ConfigureResult, error) {
	for {
		clearScreen()
		fmt.Println(Logo())

		section, err := showMenu(cfg)
		if err != nil {
			if err == huh.ErrUserAborted {
				return &ConfigureResult{Cancelled: true}, nil
			}
			return nil, err
		}

		switch section {
		case SectionSaveExit:
			confirmed, err := showSummary(cfg)
			if err != nil {
				if err == huh.ErrUserAborted {
					continue
				}
				return nil, err
			}
			if confirmed {
				return &ConfigureResult{Config: cfg}, nil
			}
		case SectionDiscardExit:
			return &ConfigureResult{Cancelled: true}, nil
		default:
			if err := editSection(section, cfg); err != nil {
				if err == huh.ErrUserAborted {
					continue
				}
				return nil, err
			}
		}
	}
}

func editSection(section ConfigSection, cfg *config.Config) error {
	switch section {
	case SectionLanguages:
		return editLanguages(cfg)
	case SectionTranscription:
		return editTranscription(cfg)
	case SectionTranslation:
		return editTranslation(cfg)
	case SectionSynthesis:
		return editSynthesis(cfg)
	case SectionAudio:
		return editAudio(cfg)
	}
	return nil
}

func showMenu(cfg *config.Config) (ConfigSection, error) {
	options := []huh.Option[ConfigSection]{
		huh.NewOption(fmt.Sprintf("Languages (%s -> %s)",
			languageName(cfg.Transcription.Language),
			languageName(cfg.Translation.TargetLanguage)), SectionLanguages),
		huh.NewOption("Transcription", SectionTranscription),
		huh.NewOption(fmt.Sprintf("Translation (%s)", cfg.Translation.Provider), SectionTranslation),
		huh.NewOption("Speech synthesis", SectionSynthesis),
		huh.NewOption("Audio devices", SectionAudio),
		huh.NewOption("Save & Exit", SectionSaveExit),
		huh.NewOption("Discard & Exit", SectionDiscardExit),
	}

	var selected ConfigSection
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[ConfigSection]().
				Title("Configuration Menu").
				Description("↑/↓ navigate • enter select • esc cancel").
				Options(options...).
				Value(&selected),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return "", err
	}
	return selected, nil
}

func editLanguages(cfg *config.Config) error {
	source := cfg.Transcription.Language
	target := cfg.Translation.TargetLanguage

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Spoken language").
				Description("The language you speak into the microphone").
				Options(languageOptions()...).
				Filtering(true).
				Value(&source),
			huh.NewSelect[string]().
				Title("Target language").
				Description("The language spoken back to you").
				Options(languageOptions()...).
				Filtering(true).
				Value(&target),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	if source == target {
		fmt.Println()
		fmt.Println(StyleWarning.Render("Source and target language are the same; nothing would be translated."))
		fmt.Println()
		return editLanguages(cfg)
	}

	cfg.Transcription.Language = source
	cfg.Translation.TargetLanguage = target
	return nil
}

func editTranscription(cfg *config.Config) error {
	apiKey := cfg.Transcription.APIKey

	desc := "AssemblyAI streaming API key"
	if os.Getenv("ASSEMBLYAI_API_KEY") != "" {
		desc += " (leave empty to use ASSEMBLYAI_API_KEY from the environment)"
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("API key").
				Description(desc).
				EchoMode(huh.EchoModePassword).
				Value(&apiKey),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Transcription.APIKey = apiKey
	return nil
}

func editTranslation(cfg *config.Config) error {
	provider := cfg.Translation.Provider

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Translation engine").
				Options(
					huh.NewOption("LibreTranslate (local, offline)", "libretranslate"),
					huh.NewOption("OpenAI (cloud)", "openai"),
				).
				Value(&provider),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}
	cfg.Translation.Provider = provider

	switch provider {
	case "libretranslate":
		endpoint := cfg.Translation.Endpoint
		epForm := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("LibreTranslate endpoint").
					Description("Local server URL, e.g. http://127.0.0.1:5000").
					Value(&endpoint),
			),
		).WithTheme(getTheme())
		if err := epForm.Run(); err != nil {
			return err
		}
		cfg.Translation.Endpoint = endpoint

	case "openai":
		apiKey := cfg.Translation.APIKey
		model := cfg.Translation.Model
		keyForm := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("OpenAI API key").
					Description("Leave empty to use OPENAI_API_KEY from the environment").
					EchoMode(huh.EchoModePassword).
					Value(&apiKey),
				huh.NewInput().
					Title("Model").
					Description("Chat model used for translation").
					Value(&model),
			),
		).WithTheme(getTheme())
		if err := keyForm.Run(); err != nil {
			return err
		}
		cfg.Translation.APIKey = apiKey
		cfg.Translation.Model = model
	}

	return nil
}

func editSynthesis(cfg *config.Config) error {
	endpoint := cfg.Synthesis.Endpoint
	model := cfg.Synthesis.Model

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("TTS server endpoint").
				Description("Coqui tts-server URL, e.g. http://127.0.0.1:5002").
				Value(&endpoint),
			huh.NewInput().
				Title("Voice model").
				Description("Model the server was started with, e.g. tts_models/es/css10/vits").
				Value(&model),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Synthesis.Endpoint = endpoint
	cfg.Synthesis.Model = model
	return nil
}

func editAudio(cfg *config.Config) error {
	captureDevice := cfg.Capture.Device
	playbackDevice := cfg.Playback.Device
	backlog := strconv.Itoa(cfg.Pipeline.MaxBacklog)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Microphone device").
				Description("PipeWire node name; empty for the system default").
				Value(&captureDevice),
			huh.NewInput().
				Title("Playback device").
				Description("PipeWire node name; empty for the system default").
				Value(&playbackDevice),
			huh.NewInput().
				Title("Max backlog").
				Description("Queued utterances kept when you speak faster than playback; oldest are dropped").
				Validate(func(s string) error {
					n, err := strconv.Atoi(s)
					if err != nil || n <= 0 {
						return fmt.Errorf("must be a positive number")
					}
					return nil
				}).
				Value(&backlog),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Capture.Device = captureDevice
	cfg.Playback.Device = playbackDevice
	cfg.Pipeline.MaxBacklog, _ = strconv.Atoi(backlog)
	return nil
}

func showSummary(cfg *config.Config) (bool, error) {
	fmt.Println()
	fmt.Println(StyleHeader.Render("Configuration Summary"))
	fmt.Println()

	fmt.Printf("  %s %s -> %s\n", StyleLabel.Render("Languages:"),
		languageName(cfg.Transcription.Language), languageName(cfg.Translation.TargetLanguage))
	fmt.Printf("  %s %s\n", StyleLabel.Render("Transcription:"), cfg.Transcription.Provider)
	fmt.Printf("  %s %s\n", StyleLabel.Render("Translation:"), cfg.Translation.Provider)
	fmt.Printf("  %s %s (%s)\n", StyleLabel.Render("Synthesis:"), cfg.Synthesis.Endpoint, cfg.Synthesis.Model)

	captureDevice := cfg.Capture.Device
	if captureDevice == "" {
		captureDevice = "default"
	}
	playbackDevice := cfg.Playback.Device
	if playbackDevice == "" {
		playbackDevice = "default"
	}
	fmt.Printf("  %s mic=%s speaker=%s\n", StyleLabel.Render("Devices:"), captureDevice, playbackDevice)
	fmt.Printf("  %s %d\n", StyleLabel.Render("Max backlog:"), cfg.Pipeline.MaxBacklog)
	fmt.Println()

	var confirmed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save this configuration?").
				Affirmative("Save").
				Negative("Cancel").
				Value(&confirmed),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return false, err
	}
	return confirmed, nil
}

// clearScreen clears the terminal screen
func clearScreen() {
	output := termenv.NewOutput(os.Stdout)
	output.ClearScreen()
}

func getTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	t.Focused.Description = lipgloss.NewStyle().Foreground(ColorMuted)
	t.Focused.Base = lipgloss.NewStyle().BorderForeground(ColorPrimary)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(ColorSecondary)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(ColorText)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(ColorMuted)
	t.Blurred.Description = lipgloss.NewStyle().Foreground(ColorSubtle)

	return t
}
