package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewTransitions(t *testing.T) {
	allowed := []struct {
		from, to View
	}{
		{ViewMenu, ViewThemeSelection},
		{ViewMenu, ViewLoadingGame},
		{ViewThemeSelection, ViewSubThemeSelection},
		{ViewSubThemeSelection, ViewHeroSelection},
		{ViewHeroSelection, ViewNameInput},
		{ViewNameInput, ViewGameActive},
		{ViewLoadingGame, ViewGameActive},
		{ViewLoadingGame, ViewGameEnded},
		{ViewGameActive, ViewGameActive},
		{ViewGameActive, ViewGameEnded},
		{ViewGameEnded, ViewMenu},
		{ViewThemeSelection, ViewMenu},
		{ViewNameInput, ViewMenu},
	}
	for _, tr := range allowed {
		assert.True(t, tr.from.CanTransitionTo(tr.to), "%s -> %s", tr.from, tr.to)
	}

	denied := []struct {
		from, to View
	}{
		{ViewMenu, ViewGameActive},
		{ViewMenu, ViewHeroSelection},
		{ViewGameEnded, ViewGameActive},
		{ViewThemeSelection, ViewHeroSelection},
		{ViewGameEnded, ViewGameEnded},
	}
	for _, tr := range denied {
		assert.False(t, tr.from.CanTransitionTo(tr.to), "%s -> %s", tr.from, tr.to)
	}
}

func TestSessionTo(t *testing.T) {
	sess := NewSession(0)
	assert.Equal(t, ViewMenu, sess.View)
	assert.Equal(t, DefaultMaxTurns, sess.MaxTurns)

	require.NoError(t, sess.To(ViewThemeSelection))
	err := sess.To(ViewGameActive)
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, ViewThemeSelection, sess.View)
}

func TestAppendSegment_MonotonicIDs(t *testing.T) {
	sess := NewSession(0)
	a := sess.AppendSegment(SpeakerPlayer, "Ouvrir la porte")
	b := sess.AppendSegment(SpeakerNarrator, "La porte s'ouvre.")
	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, int64(2), b.ID)

	sess.RemoveSegment(b.ID)
	c := sess.AppendSegment(SpeakerNarrator, "Un courant d'air passe.")
	assert.Equal(t, int64(3), c.ID)
	assert.Nil(t, sess.Segment(2))
}

func TestIllustrationLifecycle(t *testing.T) {
	sess := NewSession(0)
	seg := sess.AppendSegment(SpeakerNarrator, "Une clairière.")
	assert.Equal(t, IllustrationAbsent, seg.Illustration)

	sess.BeginIllustration(seg.ID, "a clearing")
	assert.Equal(t, IllustrationPending, seg.Illustration)
	assert.Equal(t, seg.ID, sess.PendingIllustrationID)

	sess.ResolveIllustration(seg.ID, "https://example.com/img.png")
	assert.Equal(t, IllustrationReady, seg.Illustration)
	assert.Equal(t, "https://example.com/img.png", seg.ImageURL)
	assert.Zero(t, sess.PendingIllustrationID)
}

func TestIllustration_SupersededTrackingID(t *testing.T) {
	sess := NewSession(0)
	a := sess.AppendSegment(SpeakerNarrator, "Premier tableau.")
	b := sess.AppendSegment(SpeakerNarrator, "Second tableau.")

	sess.BeginIllustration(a.ID, "first")
	sess.BeginIllustration(b.ID, "second")
	require.Equal(t, b.ID, sess.PendingIllustrationID)

	// Resolving the superseded request does not clear the newer tracking.
	sess.ResolveIllustration(a.ID, "https://example.com/a.png")
	assert.Equal(t, b.ID, sess.PendingIllustrationID)
	assert.Equal(t, IllustrationReady, sess.Segment(a.ID).Illustration)

	sess.FailIllustration(b.ID)
	assert.Zero(t, sess.PendingIllustrationID)
	assert.Equal(t, IllustrationFailed, sess.Segment(b.ID).Illustration)
}

func TestSnapshotRestore(t *testing.T) {
	sess := NewSession(20)
	sess.Theme = "espace_etoile"
	sess.Hero = "inventeur"
	sess.PlayerName = "Noé"
	sess.Game = NewGameState("Noé")
	sess.Game.Location = "Station Lunaire"
	sess.View = ViewGameActive
	sess.CurrentTurn = 6
	sess.Choices = []string{"Réparer le robot"}
	sess.History = []string{"Décoller", "Explorer la station"}

	seg := sess.AppendSegment(SpeakerNarrator, "La station scintille.")
	sess.BeginIllustration(seg.ID, "a moon base")
	sess.ResolveIllustration(seg.ID, "https://example.com/lune.png")

	now := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	snap := sess.Snapshot(now)
	assert.Equal(t, now, snap.SavedAt)
	assert.NotEmpty(t, snap.GameState)

	restored := RestoreSession(snap)
	assert.Equal(t, sess.ID, restored.ID)
	assert.Equal(t, ViewGameActive, restored.View)
	assert.Equal(t, 6, restored.CurrentTurn)
	assert.Equal(t, 20, restored.MaxTurns)
	assert.Equal(t, "Station Lunaire", restored.Game.Location)
	assert.Equal(t, sess.Choices, restored.Choices)
	assert.Equal(t, sess.History, restored.History)

	require.Len(t, restored.Segments, 1)
	got := restored.Segments[0]
	assert.Equal(t, IllustrationAbsent, got.Illustration)
	assert.Empty(t, got.ImageURL)
	assert.Equal(t, "a moon base", got.ImagePrompt)

	next := restored.AppendSegment(SpeakerPlayer, "Réparer le robot")
	assert.Greater(t, next.ID, got.ID)
}
