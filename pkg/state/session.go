package state

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// View is the finite UI state the turn engine enforces.
type View string

const (
	ViewMenu              View = "menu"
	ViewThemeSelection    View = "theme_selection"
	ViewSubThemeSelection View = "sub_theme_selection"
	ViewHeroSelection     View = "hero_selection"
	ViewNameInput         View = "name_input"
	ViewLoadingGame       View = "loading_game"
	ViewGameActive        View = "game_active"
	ViewGameEnded         View = "game_ended"
)

// viewTransitions is the exhaustive transition table. Every non-terminal
// view also accepts a transition back to the menu.
var viewTransitions = map[View][]View{
	ViewMenu:              {ViewThemeSelection, ViewLoadingGame},
	ViewThemeSelection:    {ViewSubThemeSelection, ViewMenu},
	ViewSubThemeSelection: {ViewHeroSelection, ViewMenu},
	ViewHeroSelection:     {ViewNameInput, ViewMenu},
	ViewNameInput:         {ViewGameActive, ViewMenu},
	ViewLoadingGame:       {ViewGameActive, ViewGameEnded, ViewMenu},
	ViewGameActive:        {ViewGameActive, ViewGameEnded, ViewMenu},
	ViewGameEnded:         {ViewMenu},
}

// CanTransitionTo reports whether next is reachable from v in one step.
func (v View) CanTransitionTo(next View) bool {
	for _, t := range viewTransitions[v] {
		if t == next {
			return true
		}
	}
	return false
}

// DefaultMaxTurns bounds a playthrough when the configuration does not say
// otherwise.
const DefaultMaxTurns = 15

// SessionState is the aggregate root of one playthrough: the story log, the
// offered choices, the game state snapshot, turn counters and the current
// view. It is mutated only through its methods, by the turn engine and the
// illustration coordinator, from a single cooperative event loop.
type SessionState struct {
	ID uuid.UUID

	Theme      string
	SubTheme   string
	Hero       string
	PlayerName string

	CurrentTurn int
	MaxTurns    int

	Segments []StorySegment
	Choices  []string
	History  []string // chronological player actions, last = most recent
	Game     *GameState

	View    View
	Loading bool

	// LastError is the user-visible error banner, set only for input
	// validation and transport failures.
	LastError string

	// PendingIllustrationID is the single tracked in-flight illustration,
	// for loading-indicator purposes. Zero means none. A newer request
	// supersedes the tracked id without cancelling the older call.
	PendingIllustrationID int64

	nextSegmentID int64
}

// NewSession creates a fresh session sitting at the menu.
func NewSession(maxTurns int) *SessionState {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &SessionState{
		ID:            uuid.New(),
		MaxTurns:      maxTurns,
		Segments:      make([]StorySegment, 0),
		Choices:       make([]string, 0),
		History:       make([]string, 0),
		View:          ViewMenu,
		nextSegmentID: 1,
	}
}

// ErrInvalidTransition rejects a view change outside the transition table.
var ErrInvalidTransition = errors.New("invalid view transition")

// To transitions the view, rejecting anything outside the transition table.
func (s *SessionState) To(next View) error {
	if !s.View.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.View, next)
	}
	s.View = next
	return nil
}

// AppendSegment appends a new story segment and returns a pointer into the
// log. IDs are monotonic and never reused, even after a rollback.
func (s *SessionState) AppendSegment(speaker Speaker, text string) *StorySegment {
	seg := StorySegment{
		ID:           s.nextSegmentID,
		Speaker:      speaker,
		Text:         text,
		Illustration: IllustrationAbsent,
	}
	s.nextSegmentID++
	s.Segments = append(s.Segments, seg)
	return &s.Segments[len(s.Segments)-1]
}

// Segment returns the segment with the given id, or nil if it no longer
// exists in this session.
func (s *SessionState) Segment(id int64) *StorySegment {
	for i := range s.Segments {
		if s.Segments[i].ID == id {
			return &s.Segments[i]
		}
	}
	return nil
}

// RemoveSegment deletes a segment from the log. Only the turn engine's
// rollback compensation uses this; the log is otherwise append-only.
func (s *SessionState) RemoveSegment(id int64) {
	for i := range s.Segments {
		if s.Segments[i].ID == id {
			s.Segments = append(s.Segments[:i], s.Segments[i+1:]...)
			return
		}
	}
}

// LastSegment returns the newest segment, or nil on an empty log.
func (s *SessionState) LastSegment() *StorySegment {
	if len(s.Segments) == 0 {
		return nil
	}
	return &s.Segments[len(s.Segments)-1]
}

// Illustration sub-state operations. All are identity-keyed on the segment
// id: a completion arriving after further turns, or after the segment was
// rolled away, lands on its own segment or is discarded.

// MarkNoIllustration records that a segment will have no image. Not an
// error state.
func (s *SessionState) MarkNoIllustration(id int64) {
	if seg := s.Segment(id); seg != nil {
		seg.Illustration = IllustrationAbsent
		seg.ImageURL = ""
	}
}

// BeginIllustration marks a segment as generating and tracks it as the
// current in-flight request.
func (s *SessionState) BeginIllustration(id int64, prompt string) {
	seg := s.Segment(id)
	if seg == nil {
		return
	}
	seg.Illustration = IllustrationPending
	seg.ImagePrompt = prompt
	seg.ImageURL = ""
	s.PendingIllustrationID = id
}

// ResolveIllustration records a successful generation on the segment that
// requested it.
func (s *SessionState) ResolveIllustration(id int64, imageURL string) {
	if seg := s.Segment(id); seg != nil {
		seg.Illustration = IllustrationReady
		seg.ImageURL = imageURL
	}
	if s.PendingIllustrationID == id {
		s.PendingIllustrationID = 0
	}
}

// FailIllustration flags the segment's illustration as errored. Narrative
// progress is never blocked; retry is user-initiated.
func (s *SessionState) FailIllustration(id int64) {
	if seg := s.Segment(id); seg != nil {
		seg.Illustration = IllustrationFailed
		seg.ImageURL = ""
	}
	if s.PendingIllustrationID == id {
		s.PendingIllustrationID = 0
	}
}

// SegmentSnapshot is the persisted form of a story segment. Illustration
// payloads are transient and intentionally not persisted; the prompt is
// kept so an image can be regenerated on demand after a load.
type SegmentSnapshot struct {
	ID          int64   `json:"id"`
	Speaker     Speaker `json:"speaker"`
	Text        string  `json:"text"`
	ImagePrompt string  `json:"image_prompt,omitempty"`
}

// SessionSnapshot round-trips the full session through the persistence
// collaborator, with the game state carried as its encoded text form.
type SessionSnapshot struct {
	ID          uuid.UUID         `json:"id"`
	SavedAt     time.Time         `json:"saved_at"`
	Theme       string            `json:"theme"`
	SubTheme    string            `json:"sub_theme,omitempty"`
	Hero        string            `json:"hero"`
	PlayerName  string            `json:"player_name"`
	CurrentTurn int               `json:"current_turn"`
	MaxTurns    int               `json:"max_turns"`
	View        View              `json:"view"`
	Choices     []string          `json:"choices"`
	History     []string          `json:"history"`
	GameState   string            `json:"game_state"`
	Segments    []SegmentSnapshot `json:"segments"`
}

// Snapshot captures the session for persistence.
func (s *SessionState) Snapshot(now time.Time) *SessionSnapshot {
	snap := &SessionSnapshot{
		ID:          s.ID,
		SavedAt:     now,
		Theme:       s.Theme,
		SubTheme:    s.SubTheme,
		Hero:        s.Hero,
		PlayerName:  s.PlayerName,
		CurrentTurn: s.CurrentTurn,
		MaxTurns:    s.MaxTurns,
		View:        s.View,
		Choices:     append([]string(nil), s.Choices...),
		History:     append([]string(nil), s.History...),
		GameState:   Encode(s.Game),
		Segments:    make([]SegmentSnapshot, 0, len(s.Segments)),
	}
	for _, seg := range s.Segments {
		snap.Segments = append(snap.Segments, SegmentSnapshot{
			ID:          seg.ID,
			Speaker:     seg.Speaker,
			Text:        seg.Text,
			ImagePrompt: seg.ImagePrompt,
		})
	}
	return snap
}

// RestoreSession rebuilds a session from a snapshot. The restored view is
// either game_active or game_ended; everything transient (loading flags,
// pending illustration, error banner) starts cleared.
func RestoreSession(snap *SessionSnapshot) *SessionState {
	s := &SessionState{
		ID:          snap.ID,
		Theme:       snap.Theme,
		SubTheme:    snap.SubTheme,
		Hero:        snap.Hero,
		PlayerName:  snap.PlayerName,
		CurrentTurn: snap.CurrentTurn,
		MaxTurns:    snap.MaxTurns,
		Choices:     append([]string(nil), snap.Choices...),
		History:     append([]string(nil), snap.History...),
		Segments:    make([]StorySegment, 0, len(snap.Segments)),
		View:        ViewGameActive,
	}
	if snap.View == ViewGameEnded {
		s.View = ViewGameEnded
	}
	if s.MaxTurns <= 0 {
		s.MaxTurns = DefaultMaxTurns
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	var maxID int64
	for _, seg := range snap.Segments {
		s.Segments = append(s.Segments, StorySegment{
			ID:           seg.ID,
			Speaker:      seg.Speaker,
			Text:         seg.Text,
			ImagePrompt:  seg.ImagePrompt,
			Illustration: IllustrationAbsent,
		})
		if seg.ID > maxID {
			maxID = seg.ID
		}
	}
	s.nextSegmentID = maxID + 1
	s.Game, _ = Decode(snap.GameState, snap.PlayerName)
	return s
}
