package engine

import (
	"strings"
	"testing"
)

func TestValidateLevel(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		valid    bool
		errors   int
		warnings int
		contains string
	}{
		{"playable", pushLevel, true, 0, 0, ""},
		{"empty", "", false, 1, 0, "empty"},
		{"no start", "#####\n# $.#\n#####", false, 1, 0, "player start"},
		{"too small", "#@$.#", false, 1, 1, "at least"},
		{"no targets", "#####\n#@$ #\n#####", false, 1, 1, "target"},
		{"missing box", "######\n#@$..#\n######", false, 1, 0, "1 boxes but 2 targets"},
		{"extra box", "######\n#@$$.#\n#    #\n######", true, 0, 1, "2 boxes but only 1"},
		{"unknown character", "#####\n#@$.#\n#x  #\n#####", true, 0, 1, "unknown character"},
		{"open edge", "#@$. \n#####\n#####", true, 0, 1, "not enclosed"},
		{"box outside", "#####\n#@ .#\n#####\n $   ", false, 1, 0, "outside"},
		{"already solved", "#####\n#@* #\n#####", true, 0, 1, "already solved"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateLevel(tt.text)
			if result.Valid != tt.valid {
				t.Errorf("Valid = %v, want %v (errors: %v)", result.Valid, tt.valid, result.Errors)
			}
			if len(result.Errors) != tt.errors {
				t.Errorf("Expected %d errors, got %v", tt.errors, result.Errors)
			}
			if len(result.Warnings) != tt.warnings {
				t.Errorf("Expected %d warnings, got %v", tt.warnings, result.Warnings)
			}
			if tt.contains != "" {
				all := strings.Join(append(result.Errors, result.Warnings...), "\n")
				if !strings.Contains(all, tt.contains) {
					t.Errorf("Expected a message containing %q, got %q", tt.contains, all)
				}
			}
			if (result.Err() == nil) != tt.valid {
				t.Errorf("Err() = %v for valid=%v", result.Err(), tt.valid)
			}
		})
	}
}
