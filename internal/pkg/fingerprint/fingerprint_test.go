package fingerprint

import (
	"testing"

	"github.com/grihenrik/videotranscribe/internal/pkg/errs"
	"github.com/stretchr/testify/assert"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{name: "Watch", url: "https://www.youtube.com/watch?v=dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{name: "WatchParams", url: "https://www.youtube.com/watch?t=10&v=dQw4w9WgXcQ&list=x", want: "dQw4w9WgXcQ"},
		{name: "Short", url: "https://youtu.be/dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{name: "Embed", url: "https://www.youtube.com/embed/dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{name: "Shorts", url: "https://www.youtube.com/shorts/dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{name: "BareID", url: "dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractVideoID(tt.url)
			assert.Nil(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractVideoID_Fails(t *testing.T) {
	for _, url := range []string{"", "   ", "https://example.com/watch?v=123", "short"} {
		_, err := ExtractVideoID(url)
		assert.NotNil(t, err, url)
		assert.True(t, errs.Is(err, errs.KindInvalidRequest))
	}
}

func TestNew(t *testing.T) {
	k, err := New("https://youtu.be/dQw4w9WgXcQ", "auto", "")
	assert.Nil(t, err)
	assert.Equal(t, Key{VideoID: "dQw4w9WgXcQ", Mode: ModeAuto, Lang: "en"}, k)
}

func TestNew_SameKey(t *testing.T) {
	k1, err := New("https://youtu.be/dQw4w9WgXcQ", "auto", "EN")
	assert.Nil(t, err)
	k2, err := New("https://www.youtube.com/watch?v=dQw4w9WgXcQ", "", "en")
	assert.Nil(t, err)
	assert.Equal(t, k1, k2)
	assert.Equal(t, k1.String(), k2.String())
}

func TestNew_WrongMode(t *testing.T) {
	_, err := New("https://youtu.be/dQw4w9WgXcQ", "olia", "en")
	assert.NotNil(t, err)
	assert.True(t, errs.Is(err, errs.KindInvalidRequest))
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{in: "", want: ModeAuto}, {in: "auto", want: ModeAuto},
		{in: "captions", want: ModeCaptions}, {in: "captions-only", want: ModeCaptions},
		{in: "speech", want: ModeSpeech}, {in: "speech-model", want: ModeSpeech},
	}
	for _, tt := range tests {
		m, err := ParseMode(tt.in)
		assert.Nil(t, err)
		assert.Equal(t, tt.want, m)
	}
}
