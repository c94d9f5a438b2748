package domain

// TranscriptSegment is one timed span of recognized speech.
// Segments arrive from the model in ascending start order; Index is the
// model's own numbering and is ignored when cues are rendered.
type TranscriptSegment struct {
	Index int     `json:"index"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}
