package fingerprint

import (
	"regexp"
	"strings"

	"github.com/grihenrik/videotranscribe/internal/pkg/errs"
)

// Key identifies a unique transcription request.
// Two requests with equal keys must resolve to the same job.
type Key struct {
	VideoID string
	Mode    Mode
	Lang    string
}

func (k Key) String() string {
	return k.VideoID + ":" + string(k.Mode) + ":" + k.Lang
}

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/(?:[^/\n\s]+/\S+/|(?:v|e(?:mbed)?)/|\S*?[?&]v=)|youtu\.be/)([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/shorts/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`^([a-zA-Z0-9_-]{11})$`),
}

// ExtractVideoID returns the canonical video id from any supported url shape
func ExtractVideoID(url string) (string, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return "", errs.New(errs.KindInvalidRequest, "no url")
	}
	for _, p := range videoIDPatterns {
		if m := p.FindStringSubmatch(url); m != nil {
			return m[1], nil
		}
	}
	return "", errs.Errorf(errs.KindInvalidRequest, "can't extract video id from '%s'", url)
}

// New computes the request key from raw submission values
func New(url, mode, lang string) (Key, error) {
	id, err := ExtractVideoID(url)
	if err != nil {
		return Key{}, err
	}
	m, err := ParseMode(mode)
	if err != nil {
		return Key{}, err
	}
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		lang = "en"
	}
	return Key{VideoID: id, Mode: m, Lang: lang}, nil
}
