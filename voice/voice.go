// Package voice provides the speech capability consumed by the workflow:
// transcription of a spoken utterance and synthesis of the narrated answer.
// The two roles are distinct operations behind one capability interface;
// the graph binds each to its own node.
package voice

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// MaxNarrativeLength is the hard ceiling for synthesis input.
const MaxNarrativeLength = 3000

// Validation errors returned before any provider call is attempted.
var (
	ErrEmptyNarrative     = errors.New("Empty narrative provided")
	ErrSanitizedEmpty     = errors.New("Sanitized narrative is empty")
	ErrUnsupportedRegion  = errors.New("speech synthesis not supported in region")
	ErrMissingCredentials = errors.New("missing speech provider credentials")
)

// Transcriber converts recorded audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Synthesizer converts narrative text into audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, narrative string) ([]byte, error)
}

// Service combines both speech roles.
type Service interface {
	Transcriber
	Synthesizer
}

// provider pairs independent Transcriber and Synthesizer implementations
// into one Service.
type provider struct {
	Transcriber
	Synthesizer
}

// NewService combines a transcriber and a synthesizer into a Service.
func NewService(stt Transcriber, tts Synthesizer) Service {
	return &provider{Transcriber: stt, Synthesizer: tts}
}

var sanitizePattern = regexp.MustCompile(`[^\w\s.,!?;:%$-]`)

// Sanitize strips characters outside the allowed synthesis character set.
func Sanitize(narrative string) string {
	return sanitizePattern.ReplaceAllString(narrative, "")
}

// ValidateNarrative applies the synthesis input checks shared by all
// synthesizers: non-empty and under the hard length ceiling. It returns the
// sanitized text to synthesize.
func ValidateNarrative(narrative string) (string, error) {
	if len(narrative) == 0 {
		return "", ErrEmptyNarrative
	}
	if len(narrative) > MaxNarrativeLength {
		return "", fmt.Errorf("narrative exceeds %d characters: %d", MaxNarrativeLength, len(narrative))
	}
	sanitized := Sanitize(narrative)
	if sanitized == "" {
		return "", ErrSanitizedEmpty
	}
	return sanitized, nil
}
