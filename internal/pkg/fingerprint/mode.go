package fingerprint

import (
	"github.com/grihenrik/videotranscribe/internal/pkg/errs"
)

// Mode selects the transcription path for a request
type Mode string

const (
	// ModeAuto - captions first, speech model fallback
	ModeAuto Mode = "auto"
	// ModeCaptions - captions only, no fallback
	ModeCaptions Mode = "captions"
	// ModeSpeech - speech model only, captions skipped
	ModeSpeech Mode = "speech"
)

var modeAliases = map[string]Mode{
	"":              ModeAuto,
	"auto":          ModeAuto,
	"captions":      ModeCaptions,
	"captions-only": ModeCaptions,
	"speech":        ModeSpeech,
	"speech-model":  ModeSpeech,
	"whisper":       ModeSpeech,
}

// ParseMode maps user input to a known mode
func ParseMode(s string) (Mode, error) {
	m, f := modeAliases[s]
	if !f {
		return "", errs.Errorf(errs.KindInvalidRequest, "unknown mode '%s'", s)
	}
	return m, nil
}
