// ABOUTME: Tests for response mode parsing
// ABOUTME: Unknown modes must fail instead of falling back to a default
package models

import "testing"

func TestParseResponseMode(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantMode     ResponseMode
		wantGenerate bool
		wantErr      bool
	}{
		{"empty uses default", "", DefaultMode, true, false},
		{"db only", "db_only", ModeDBOnly, false, false},
		{"generate", "db_gemini", ModeGenerate, true, false},
		{"concise", "concise", ModeConcise, true, false},
		{"detailed", "detailed", ModeDetailed, true, false},
		{"surrounding space", "  concise ", ModeConcise, true, false},
		{"unknown", "verbose", "", false, true},
		{"wrong case", "Concise", "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := ParseResponseMode(tt.input)
			if tt.wantErr {
				if KindOf(err) != KindInvalidMode {
					t.Fatalf("ParseResponseMode(%q) error = %v, want InvalidMode", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseResponseMode(%q) error = %v", tt.input, err)
			}
			if spec.Mode != tt.wantMode {
				t.Errorf("Mode = %q, want %q", spec.Mode, tt.wantMode)
			}
			if spec.Generate != tt.wantGenerate {
				t.Errorf("Generate = %v, want %v", spec.Generate, tt.wantGenerate)
			}
		})
	}
}

func TestResponseMode_IsValid(t *testing.T) {
	for _, m := range Modes() {
		if !m.IsValid() {
			t.Errorf("%q.IsValid() = false, want true", m)
		}
	}
	if ResponseMode("summary").IsValid() {
		t.Error(`"summary".IsValid() = true, want false`)
	}
}

func TestModeSpecs_PreviewDims(t *testing.T) {
	detailed, _ := ParseResponseMode("detailed")
	if detailed.PreviewDims != 0 {
		t.Errorf("detailed PreviewDims = %d, want 0 (full vectors)", detailed.PreviewDims)
	}
	dbOnly, _ := ParseResponseMode("db_only")
	if dbOnly.PreviewDims != 10 {
		t.Errorf("db_only PreviewDims = %d, want 10", dbOnly.PreviewDims)
	}
}
