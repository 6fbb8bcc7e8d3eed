package transcript

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testSegments() []Segment {
	return []Segment{
		{Start: 0, End: 2 * time.Second, Text: "labas"},
		{Start: 2 * time.Second, End: 4500 * time.Millisecond, Text: "olia olia"},
		{Start: time.Hour + 5*time.Second, End: time.Hour + 6*time.Second, Text: "pabaiga"},
	}
}

func TestValidate(t *testing.T) {
	assert.Nil(t, Validate(testSegments()))
	assert.Nil(t, Validate(nil))
}

func TestValidate_StartAfterEnd(t *testing.T) {
	err := Validate([]Segment{{Start: 2 * time.Second, End: time.Second}})
	assert.NotNil(t, err)
}

func TestValidate_NotOrdered(t *testing.T) {
	err := Validate([]Segment{
		{Start: 2 * time.Second, End: 3 * time.Second},
		{Start: time.Second, End: 4 * time.Second}})
	assert.NotNil(t, err)
}

func TestNew_Fails(t *testing.T) {
	_, err := New([]Segment{{Start: 2 * time.Second, End: time.Second}})
	assert.NotNil(t, err)
}

func TestText(t *testing.T) {
	tr, err := New(testSegments())
	assert.Nil(t, err)
	assert.Equal(t, "labas\nolia olia\npabaiga\n", tr.Text())
}

func TestEmpty(t *testing.T) {
	tr := &Transcript{Segments: []Segment{{Text: "  "}, {Text: ""}}}
	assert.True(t, tr.Empty())
	tr.Segments = append(tr.Segments, Segment{Text: "olia"})
	assert.False(t, tr.Empty())
	var nilT *Transcript
	assert.True(t, nilT.Empty())
}

func TestSrt(t *testing.T) {
	tr := &Transcript{Segments: testSegments()}
	srt := tr.Srt()
	assert.Contains(t, srt, "1\n00:00:00,000 --> 00:00:02,000\nlabas\n")
	assert.Contains(t, srt, "2\n00:00:02,000 --> 00:00:04,500\nolia olia\n")
	assert.Contains(t, srt, "01:00:05,000 --> 01:00:06,000")
}

func TestVtt(t *testing.T) {
	tr := &Transcript{Segments: testSegments()}
	vtt := tr.Vtt()
	assert.True(t, len(vtt) > 7)
	assert.Equal(t, "WEBVTT\n", vtt[:7])
	assert.Contains(t, vtt, "00:00:02.000 --> 00:00:04.500\nolia olia\n")
}

func TestSrt_RoundTrip(t *testing.T) {
	tr := &Transcript{Segments: testSegments()}
	parsed, err := ParseSrt(tr.Srt())
	assert.Nil(t, err)
	assert.Equal(t, tr.Segments, parsed)
}

func TestVtt_RoundTrip(t *testing.T) {
	tr := &Transcript{Segments: testSegments()}
	parsed, err := ParseVtt(tr.Vtt())
	assert.Nil(t, err)
	assert.Equal(t, tr.Segments, parsed)
}

func TestParseVtt_NoHours(t *testing.T) {
	parsed, err := ParseVtt("WEBVTT\n\n01:02.500 --> 01:04.000\nolia\n")
	assert.Nil(t, err)
	assert.Equal(t, []Segment{{Start: time.Minute + 2*time.Second + 500*time.Millisecond,
		End: time.Minute + 4*time.Second, Text: "olia"}}, parsed)
}

func TestParseSrt_MultiLineText(t *testing.T) {
	parsed, err := ParseSrt("1\n00:00:01,000 --> 00:00:02,000\nlabas\nrytas\n\n")
	assert.Nil(t, err)
	assert.Equal(t, "labas rytas", parsed[0].Text)
}

func TestParseSrt_Wrong(t *testing.T) {
	_, err := ParseSrt("1\n00:00:0x,000 --> 00:00:02,000\nlabas\n")
	assert.NotNil(t, err)
}

func TestParseFormat(t *testing.T) {
	f, ok := ParseFormat("srt")
	assert.True(t, ok)
	assert.Equal(t, FormatSrt, f)
	f, ok = ParseFormat("txt")
	assert.True(t, ok)
	assert.Equal(t, FormatText, f)
	_, ok = ParseFormat("olia")
	assert.False(t, ok)
}

func TestRender(t *testing.T) {
	tr := &Transcript{Segments: testSegments()}
	assert.Equal(t, []byte(tr.Srt()), tr.Render(FormatSrt))
	assert.Equal(t, []byte(tr.Vtt()), tr.Render(FormatVtt))
	assert.Equal(t, []byte(tr.Text()), tr.Render(FormatText))
}
