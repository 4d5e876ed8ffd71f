package state

// Speaker identifies who authored a story segment.
type Speaker string

const (
	SpeakerPlayer   Speaker = "player"
	SpeakerNarrator Speaker = "narrator"
)

// IllustrationStatus tracks the per-segment image side channel.
type IllustrationStatus string

const (
	// IllustrationAbsent means no illustration exists or was requested.
	IllustrationAbsent IllustrationStatus = "absent"
	// IllustrationPending means a generation request is in flight.
	IllustrationPending IllustrationStatus = "pending"
	// IllustrationReady means ImageURL holds the resolved reference.
	IllustrationReady IllustrationStatus = "ready"
	// IllustrationFailed means the last attempt errored; retry is manual.
	IllustrationFailed IllustrationStatus = "failed"
)

// StorySegment is one narrative unit in the append-only story log.
// Immutable once created except for the illustration sub-state.
type StorySegment struct {
	ID           int64              `json:"id"` // monotonic, creation-ordered
	Speaker      Speaker            `json:"speaker"`
	Text         string             `json:"text"`
	Illustration IllustrationStatus `json:"illustration"`
	ImageURL     string             `json:"image_url,omitempty"`
	ImagePrompt  string             `json:"image_prompt,omitempty"`
}
