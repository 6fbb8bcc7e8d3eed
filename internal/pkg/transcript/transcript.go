package transcript

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Segment is one timestamped span of transcript text
type Segment struct {
	Start time.Duration `json:"start"`
	End   time.Duration `json:"end"`
	Text  string        `json:"text"`
}

// Transcript is an ordered sequence of segments
type Transcript struct {
	Segments []Segment
}

// New creates a transcript after validating the segment sequence
func New(segments []Segment) (*Transcript, error) {
	if err := Validate(segments); err != nil {
		return nil, err
	}
	return &Transcript{Segments: segments}, nil
}

// Validate checks segment ordering invariants
func Validate(segments []Segment) error {
	var prev time.Duration
	for i, s := range segments {
		if s.Start > s.End {
			return errors.Errorf("segment %d: start %v after end %v", i, s.Start, s.End)
		}
		if s.Start < prev {
			return errors.Errorf("segment %d: start %v before previous start %v", i, s.Start, prev)
		}
		prev = s.Start
	}
	return nil
}

// Empty returns true if there is no text at all
func (t *Transcript) Empty() bool {
	if t == nil {
		return true
	}
	for _, s := range t.Segments {
		if strings.TrimSpace(s.Text) != "" {
			return false
		}
	}
	return true
}

// Text renders segments as plain text, one segment per line
func (t *Transcript) Text() string {
	sb := strings.Builder{}
	for _, s := range t.Segments {
		sb.WriteString(strings.TrimSpace(s.Text))
		sb.WriteString("\n")
	}
	return sb.String()
}
