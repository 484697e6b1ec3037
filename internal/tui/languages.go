package tui

import "github.com/charmbracelet/huh"

type languageEntry struct {
	Code string
	Name string
}

// commonLanguages covers the pairs the translation backends actually ship
// models for. The config accepts any ISO-639-1 code; this list just keeps
// the picker short.
var commonLanguages = []languageEntry{
	{"en", "English"},
	{"es", "Spanish"},
	{"fr", "French"},
	{"de", "German"},
	{"it", "Italian"},
	{"pt", "Portuguese"},
	{"nl", "Dutch"},
	{"pl", "Polish"},
	{"ru", "Russian"},
	{"uk", "Ukrainian"},
	{"tr", "Turkish"},
	{"ar", "Arabic"},
	{"hi", "Hindi"},
	{"zh", "Chinese"},
	{"ja", "Japanese"},
	{"ko", "Korean"},
}

func languageOptions() []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(commonLanguages))
	for _, l := range commonLanguages {
		opts = append(opts, huh.NewOption(l.Name+" ("+l.Code+")", l.Code))
	}
	return opts
}

func languageName(code string) string {
	for _, l := range commonLanguages {
		if l.Code == code {
			return l.Name
		}
	}
	return code
}
