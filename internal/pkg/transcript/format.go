package transcript

// Format names a rendered artifact type
type Format string

const (
	// FormatText - plain text rendering
	FormatText Format = "text"
	// FormatSrt - SubRip subtitles
	FormatSrt Format = "srt"
	// FormatVtt - WebVTT subtitles
	FormatVtt Format = "vtt"
)

// Formats lists all rendered artifact types
func Formats() []Format {
	return []Format{FormatText, FormatSrt, FormatVtt}
}

// ParseFormat maps a string to a known format
func ParseFormat(s string) (Format, bool) {
	switch Format(s) {
	case FormatText, FormatSrt, FormatVtt:
		return Format(s), true
	case "txt":
		return FormatText, true
	}
	return "", false
}

// Ext returns the file extension for a format
func (f Format) Ext() string {
	if f == FormatText {
		return ".txt"
	}
	return "." + string(f)
}

// ContentType returns the http content type for a format
func (f Format) ContentType() string {
	switch f {
	case FormatSrt:
		return "application/x-subrip"
	case FormatVtt:
		return "text/vtt"
	}
	return "text/plain; charset=utf-8"
}

// Render produces the artifact bytes for a format
func (t *Transcript) Render(f Format) []byte {
	switch f {
	case FormatSrt:
		return []byte(t.Srt())
	case FormatVtt:
		return []byte(t.Vtt())
	}
	return []byte(t.Text())
}
