package transcribe

import "strings"

// Language pairs an ISO 639-1 code with a display name. The code "auto"
// stands for engine-side detection.
type Language struct {
	Code string
	Name string
}

// Languages lists the supported transcription languages, auto first.
var Languages = []Language{
	{Code: "auto", Name: "Auto-detect"},
	{Code: "en", Name: "English"},
	{Code: "es", Name: "Español"},
	{Code: "fr", Name: "Français"},
	{Code: "de", Name: "Deutsch"},
	{Code: "it", Name: "Italiano"},
	{Code: "pt", Name: "Português"},
	{Code: "ja", Name: "日本語"},
	{Code: "zh", Name: "中文"},
	{Code: "ko", Name: "한국어"},
	{Code: "ru", Name: "Русский"},
}

var languageAliases = map[string]string{
	"auto":       "auto",
	"en":         "en",
	"english":    "en",
	"es":         "es",
	"spanish":    "es",
	"español":    "es",
	"fr":         "fr",
	"french":     "fr",
	"français":   "fr",
	"de":         "de",
	"german":     "de",
	"deutsch":    "de",
	"it":         "it",
	"italian":    "it",
	"italiano":   "it",
	"pt":         "pt",
	"portuguese": "pt",
	"português":  "pt",
	"ja":         "ja",
	"japanese":   "ja",
	"日本語":        "ja",
	"zh":         "zh",
	"chinese":    "zh",
	"中文":         "zh",
	"ko":         "ko",
	"korean":     "ko",
	"한국어":        "ko",
	"ru":         "ru",
	"russian":    "ru",
	"русский":    "ru",
}

// ParseLanguage normalizes user input to a supported language code.
// Unrecognized input falls back to "auto".
func ParseLanguage(name string) string {
	if code, ok := languageAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return code
	}
	return "auto"
}
