package transcript

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Srt renders segments in SubRip format
func (t *Transcript) Srt() string {
	sb := strings.Builder{}
	for i, s := range t.Segments {
		sb.WriteString(strconv.Itoa(i + 1))
		sb.WriteString("\n")
		sb.WriteString(formatTime(s.Start, ","))
		sb.WriteString(" --> ")
		sb.WriteString(formatTime(s.End, ","))
		sb.WriteString("\n")
		sb.WriteString(strings.TrimSpace(s.Text))
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// Vtt renders segments in WebVTT format
func (t *Transcript) Vtt() string {
	sb := strings.Builder{}
	sb.WriteString("WEBVTT\n\n")
	for _, s := range t.Segments {
		sb.WriteString(formatTime(s.Start, "."))
		sb.WriteString(" --> ")
		sb.WriteString(formatTime(s.End, "."))
		sb.WriteString("\n")
		sb.WriteString(strings.TrimSpace(s.Text))
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// ParseSrt reads SubRip content into segments
func ParseSrt(data string) ([]Segment, error) {
	return parseBlocks(data, ",")
}

// ParseVtt reads WebVTT content into segments
func ParseVtt(data string) ([]Segment, error) {
	data = strings.TrimPrefix(strings.TrimPrefix(data, "\ufeff"), "WEBVTT")
	return parseBlocks(data, ".")
}

func parseBlocks(data string, msSep string) ([]Segment, error) {
	var res []Segment
	lines := strings.Split(strings.ReplaceAll(data, "\r\n", "\n"), "\n")
	i := 0
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		if line == "" || !strings.Contains(line, "-->") {
			i++
			continue
		}
		seg, err := parseTimeLine(line, msSep)
		if err != nil {
			return nil, err
		}
		i++
		var text []string
		for i < len(lines) && strings.TrimSpace(lines[i]) != "" {
			text = append(text, strings.TrimSpace(lines[i]))
			i++
		}
		seg.Text = strings.Join(text, " ")
		res = append(res, seg)
	}
	if err := Validate(res); err != nil {
		return nil, err
	}
	return res, nil
}

func parseTimeLine(line, msSep string) (Segment, error) {
	parts := strings.SplitN(line, "-->", 2)
	if len(parts) != 2 {
		return Segment{}, errors.Errorf("wrong time line '%s'", line)
	}
	// vtt allows cue settings after the end time
	endStr := strings.Fields(strings.TrimSpace(parts[1]))
	if len(endStr) == 0 {
		return Segment{}, errors.Errorf("wrong time line '%s'", line)
	}
	start, err := parseTime(strings.TrimSpace(parts[0]), msSep)
	if err != nil {
		return Segment{}, err
	}
	end, err := parseTime(endStr[0], msSep)
	if err != nil {
		return Segment{}, err
	}
	return Segment{Start: start, End: end}, nil
}

func parseTime(s, msSep string) (time.Duration, error) {
	main := s
	ms := 0
	if i := strings.LastIndex(s, msSep); i > -1 {
		main = s[:i]
		var err error
		ms, err = strconv.Atoi(s[i+1:])
		if err != nil {
			return 0, errors.Wrapf(err, "wrong time '%s'", s)
		}
	}
	tp := strings.Split(main, ":")
	if len(tp) == 2 { // vtt may drop hours
		tp = append([]string{"0"}, tp...)
	}
	if len(tp) != 3 {
		return 0, errors.Errorf("wrong time '%s'", s)
	}
	h, err := strconv.Atoi(tp[0])
	if err != nil {
		return 0, errors.Wrapf(err, "wrong time '%s'", s)
	}
	m, err := strconv.Atoi(tp[1])
	if err != nil {
		return 0, errors.Wrapf(err, "wrong time '%s'", s)
	}
	sec, err := strconv.Atoi(tp[2])
	if err != nil {
		return 0, errors.Wrapf(err, "wrong time '%s'", s)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(sec)*time.Second + time.Duration(ms)*time.Millisecond, nil
}

func formatTime(d time.Duration, msSep string) string {
	if d < 0 {
		d = 0
	}
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	ms := d / time.Millisecond
	return fmt.Sprintf("%02d:%02d:%02d%s%03d", h, m, s, msSep, ms)
}
