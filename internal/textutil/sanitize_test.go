package textutil

import "testing"

func TestSanitizeFileName(t *testing.T) {
	tests := map[string]string{
		"  Weekly Sync  ":      "Weekly Sync",
		"Q3/Q4 planning":       "Q3-Q4 planning",
		`Board: "final" <v2>?`: "Board- final v2",
		"":                     "",
		"a|b*c":                "ab-c",
		"tab\tseparated\nname": "tab separated name",
		"..hidden":             "hidden",
		"bell\a":               "bell",
		"Réunion équipe":       "Réunion équipe",
	}
	for input, want := range tests {
		if got := SanitizeFileName(input); got != want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", input, got, want)
		}
	}
}
