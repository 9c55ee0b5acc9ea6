package transcript

import (
	"fmt"
	"strings"
)

// FormatDiarized serializes speaker segments as a readable transcript:
// a header line "[<speaker>] (<start>s - <end>s)" followed by the segment
// text and a blank line.
func FormatDiarized(segments []SpeakerSegment) string {
	var sb strings.Builder
	for _, segment := range segments {
		fmt.Fprintf(&sb, "[%s] (%.2fs - %.2fs)\n", segment.Speaker, segment.Start, segment.End)
		sb.WriteString(strings.TrimSpace(segment.Text))
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// ExtractSpokenText pulls the spoken text out of a transcript, dropping
// speaker/timestamp headers. Lines starting with "[" are headers entirely;
// lines containing ")" keep only what follows the first ")", which covers
// both header-only lines and header-plus-text lines uniformly. The surviving
// fragments are joined with single spaces.
func ExtractSpokenText(content string) string {
	var parts []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "[") {
			continue
		}
		if idx := strings.Index(line, ")"); idx >= 0 {
			line = strings.TrimSpace(line[idx+1:])
			if line == "" {
				continue
			}
		}
		parts = append(parts, line)
	}
	return strings.Join(parts, " ")
}
