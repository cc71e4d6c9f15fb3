// ABOUTME: Response modes are a closed set of named variants for query shaping
// ABOUTME: A mode changes generation and preview length, never retrieval
package models

import "strings"

// ResponseMode names how a query answer is produced and shaped
type ResponseMode string

const (
	// ModeDBOnly skips generation and answers with the retrieved text
	ModeDBOnly ResponseMode = "db_only"
	// ModeGenerate grounds a generated answer in the retrieved text.
	// The wire value matches what existing clients send.
	ModeGenerate ResponseMode = "db_gemini"
	ModeConcise  ResponseMode = "concise"
	ModeDetailed ResponseMode = "detailed"
)

// DefaultMode is used when a request names no mode
const DefaultMode = ModeGenerate

// ModeSpec is the fixed behavior attached to a mode
type ModeSpec struct {
	Mode ResponseMode
	// Generate controls whether the generator is called
	Generate bool
	// PreviewDims truncates embeddings in responses; 0 keeps them whole
	PreviewDims int
	// Instruction is prepended to the generation prompt
	Instruction string
}

var modeSpecs = map[ResponseMode]ModeSpec{
	ModeDBOnly: {
		Mode:        ModeDBOnly,
		PreviewDims: 10,
	},
	ModeGenerate: {
		Mode:        ModeGenerate,
		Generate:    true,
		PreviewDims: 10,
	},
	ModeConcise: {
		Mode:        ModeConcise,
		Generate:    true,
		PreviewDims: 8,
		Instruction: "Answer in one or two sentences using only the relevant information.",
	},
	ModeDetailed: {
		Mode:        ModeDetailed,
		Generate:    true,
		Instruction: "Answer thoroughly, citing the relevant information that supports each point.",
	},
}

// Modes lists the accepted mode names in a stable order
func Modes() []ResponseMode {
	return []ResponseMode{ModeDBOnly, ModeGenerate, ModeConcise, ModeDetailed}
}

// ParseResponseMode resolves a mode name; empty selects DefaultMode
func ParseResponseMode(s string) (ModeSpec, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return modeSpecs[DefaultMode], nil
	}
	spec, ok := modeSpecs[ResponseMode(s)]
	if !ok {
		names := make([]string, 0, len(modeSpecs))
		for _, m := range Modes() {
			names = append(names, string(m))
		}
		return ModeSpec{}, NewError(KindInvalidMode, "parse mode", "unknown response mode %q (expected one of %s)", s, strings.Join(names, ", "))
	}
	return spec, nil
}

// IsValid reports whether m is one of the known modes
func (m ResponseMode) IsValid() bool {
	_, ok := modeSpecs[m]
	return ok
}
