package language

import (
	"strings"

	xlang "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Auto is the setting that leaves language detection to the speech engine.
const Auto = "auto"

// bibliographic ISO 639-2/B codes and English names that x/text does not parse.
var aliases = map[string]string{
	"fre":        "fr",
	"ger":        "de",
	"dut":        "nl",
	"chi":        "zh",
	"english":    "en",
	"spanish":    "es",
	"french":     "fr",
	"german":     "de",
	"italian":    "it",
	"portuguese": "pt",
	"japanese":   "ja",
	"korean":     "ko",
	"chinese":    "zh",
	"russian":    "ru",
	"arabic":     "ar",
	"hindi":      "hi",
	"dutch":      "nl",
	"polish":     "pl",
	"swedish":    "sv",
	"danish":     "da",
	"norwegian":  "no",
	"finnish":    "fi",
}

// ToISO2 returns the ISO 639-1 code for the input, or "" when it cannot be
// resolved. Auto and empty input also return "".
func ToISO2(code string) string {
	base, ok := parseBase(code)
	if !ok {
		return ""
	}
	return base.String()
}

// ToISO3 returns the ISO 639-2/T code for the input, or "".
func ToISO3(code string) string {
	base, ok := parseBase(code)
	if !ok {
		return ""
	}
	return base.ISO3()
}

// DisplayName returns the English name of the language, falling back to the
// upper-cased input when unknown.
func DisplayName(code string) string {
	base, ok := parseBase(code)
	if !ok {
		return strings.ToUpper(strings.TrimSpace(code))
	}
	if name := display.English.Languages().Name(base); name != "" {
		return name
	}
	return base.String()
}

// Normalize canonicalizes a configured language. Empty and "auto" map to Auto.
// ok is false when the value is not a recognizable language.
func Normalize(value string) (string, bool) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" || trimmed == Auto {
		return Auto, true
	}
	iso := ToISO2(trimmed)
	if iso == "" {
		return trimmed, false
	}
	return iso, true
}

func parseBase(code string) (xlang.Base, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" || code == Auto {
		return xlang.Base{}, false
	}
	if alias, ok := aliases[code]; ok {
		code = alias
	}
	tag, err := xlang.Parse(code)
	if err != nil {
		return xlang.Base{}, false
	}
	base, confidence := tag.Base()
	if confidence == xlang.No {
		return xlang.Base{}, false
	}
	return base, true
}
