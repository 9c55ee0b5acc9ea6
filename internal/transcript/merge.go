package transcript

import (
	"strings"

	"transvox/internal/timecode"
)

// UnknownSpeaker labels words whose midpoint falls inside no diarization turn.
// It is a sentinel, not an error: diarization models leave gaps.
const UnknownSpeaker = "Unknown Speaker"

// Word is a single transcribed word with its time span.
type Word struct {
	Text  string
	Start float64
	End   float64
}

// Turn is one continuous interval attributed to a single speaker by the
// diarization model. Turns from different speakers must not overlap; that is
// the model's invariant and is not re-verified here.
type Turn struct {
	Speaker  string
	Interval timecode.Interval
}

// SpeakerSegment is a run of consecutive words resolved to the same speaker.
// Start and End are the boundaries of the first and last constituent words.
type SpeakerSegment struct {
	Speaker string
	Text    string
	Start   float64
	End     float64
}

// MergeSpeakers aligns chronologically ordered words against diarization
// turns and produces speaker-attributed segments with one boundary exactly
// where the resolved speaker changes.
//
// Each word is resolved by its midpoint: the first turn whose interval
// contains (start+end)/2 wins, in turn emission order. The scan is
// O(words x turns); turns are few relative to words, so an interval index is
// not worth the bookkeeping at typical sizes.
func MergeSpeakers(words []Word, turns []Turn) []SpeakerSegment {
	var segments []SpeakerSegment
	var open *SpeakerSegment

	for _, word := range words {
		text := strings.TrimSpace(word.Text)
		speaker := speakerAt((word.Start+word.End)/2, turns)

		if open != nil && speaker != open.Speaker {
			segments = append(segments, *open)
			open = nil
		}
		if open == nil {
			open = &SpeakerSegment{
				Speaker: speaker,
				Text:    text,
				Start:   word.Start,
				End:     word.End,
			}
			continue
		}
		open.Text += " " + text
		open.End = word.End
	}

	if open != nil {
		segments = append(segments, *open)
	}
	return segments
}

func speakerAt(midpoint float64, turns []Turn) string {
	for _, turn := range turns {
		if turn.Interval.Contains(midpoint) {
			return turn.Speaker
		}
	}
	return UnknownSpeaker
}
