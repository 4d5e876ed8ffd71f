package engine

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aberthier/conteur/internal/services"
	"github.com/aberthier/conteur/pkg/prompts"
	"github.com/aberthier/conteur/pkg/state"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(llm services.GenerationService) *Engine {
	return NewEngine(llm, testLogger()).
		WithInjector(prompts.NewEventInjector(1).WithChance(0))
}

func activeSession(t *testing.T) *state.SessionState {
	t.Helper()
	sess := state.NewSession(state.DefaultMaxTurns)
	sess.Theme = "foret_enchantee"
	sess.Hero = "exploratrice"
	sess.PlayerName = "Alex"
	sess.Game = state.NewGameState("Alex")
	sess.View = state.ViewGameActive
	return sess
}

// turnJSON builds a well-formed model response.
func turnJSON(t *testing.T, text string, choices []string, gs *state.GameState) string {
	t.Helper()
	doc := map[string]interface{}{
		"text":             text,
		"choices":          choices,
		"updatedGameState": state.Encode(gs),
	}
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	return string(raw)
}

func TestBeginTurn_Validation(t *testing.T) {
	e := newTestEngine(services.NewMockGenerationService())

	t.Run("empty action", func(t *testing.T) {
		sess := activeSession(t)
		_, err := e.BeginTurn(sess, "   ")
		assert.ErrorIs(t, err, ErrEmptyAction)
		assert.Empty(t, sess.Segments)
		assert.Zero(t, sess.CurrentTurn)
	})

	t.Run("game ended", func(t *testing.T) {
		sess := activeSession(t)
		sess.View = state.ViewGameEnded
		_, err := e.BeginTurn(sess, "Ouvrir la porte")
		assert.ErrorIs(t, err, ErrGameEnded)
	})

	t.Run("missing identity", func(t *testing.T) {
		sess := activeSession(t)
		sess.PlayerName = ""
		_, err := e.BeginTurn(sess, "Ouvrir la porte")
		assert.ErrorIs(t, err, ErrMissingIdentity)
	})
}

func TestBeginTurn_OptimisticUpdate(t *testing.T) {
	e := newTestEngine(services.NewMockGenerationService())
	sess := activeSession(t)
	sess.Choices = []string{"Entrer", "Faire demi-tour"}

	p, err := e.BeginTurn(sess, "Ouvrir la porte")
	require.NoError(t, err)

	require.Len(t, sess.Segments, 1)
	assert.Equal(t, state.SpeakerPlayer, sess.Segments[0].Speaker)
	assert.Equal(t, "Ouvrir la porte", sess.Segments[0].Text)
	assert.Equal(t, 1, sess.CurrentTurn)
	assert.Equal(t, []string{"Ouvrir la porte"}, sess.History)
	assert.Empty(t, sess.Choices)
	assert.True(t, sess.Loading)
	assert.False(t, p.IsLastTurn)
	require.NotNil(t, p.Request)
	assert.NotEmpty(t, p.Request.Messages)
}

func TestRollbackTurn_RestoresSession(t *testing.T) {
	mock := services.NewMockGenerationService()
	mock.SetNarrativeError(errors.New("connection refused"))
	e := newTestEngine(mock)

	sess := activeSession(t)
	// Three segments already in the log, two turns played.
	sess.AppendSegment(state.SpeakerNarrator, "La forêt s'ouvre devant toi.")
	sess.AppendSegment(state.SpeakerPlayer, "Suivre le sentier")
	sess.AppendSegment(state.SpeakerNarrator, "Le sentier mène à une porte de bois.")
	sess.History = []string{"Suivre le sentier"}
	sess.CurrentTurn = 4
	sess.Choices = []string{"Ouvrir la porte", "Frapper"}
	sess.Game.Location = "Porte de bois"

	prevChoices := sess.Choices

	_, err := e.HandleAction(context.Background(), sess, "Ouvrir la porte")
	require.Error(t, err)

	assert.Len(t, sess.Segments, 3)
	assert.Equal(t, 4, sess.CurrentTurn)
	assert.Equal(t, []string{"Suivre le sentier"}, sess.History)
	assert.Equal(t, prevChoices, sess.Choices)
	assert.Equal(t, "Porte de bois", sess.Game.Location)
	assert.False(t, sess.Loading)
	assert.NotEmpty(t, sess.LastError)

	// Segment ids are never reused after rollback.
	seg := sess.AppendSegment(state.SpeakerPlayer, "Frapper")
	assert.Greater(t, seg.ID, sess.Segments[2].ID+1)
}

func TestCommitTurn_ShapeViolationStillAdvances(t *testing.T) {
	mock := services.NewMockGenerationService()
	mock.SetNarrativeResponse("je ne sais pas quoi répondre")
	e := newTestEngine(mock)

	sess := activeSession(t)
	sess.Game.Inventory = []state.Item{{Name: "lanterne", Quantity: 1}}

	report, err := e.HandleAction(context.Background(), sess, "Ouvrir la porte")
	require.NoError(t, err)

	assert.True(t, report.ShapeFallback)
	assert.Equal(t, 1, sess.CurrentTurn)
	require.Len(t, sess.Segments, 2)
	assert.Equal(t, state.SpeakerNarrator, sess.Segments[1].Speaker)
	assert.Contains(t, sess.Segments[1].Text, prompts.FallbackNarration)
	assert.Equal(t, prompts.FallbackChoices(), sess.Choices)
	// Last-known-valid state survives the fallback.
	require.Len(t, sess.Game.Inventory, 1)
	assert.Equal(t, "lanterne", sess.Game.Inventory[0].Name)
	assert.False(t, sess.Loading)
	assert.Empty(t, sess.LastError)
}

func TestCommitTurn_LastTurnForcesEnding(t *testing.T) {
	sess := activeSession(t)
	sess.CurrentTurn = sess.MaxTurns

	mock := services.NewMockGenerationService()
	e := newTestEngine(mock)
	// The model keeps offering choices; the engine must discard them.
	mock.SetNarrativeResponse(turnJSON(t, "Et c'est ainsi que l'aventure se termine.",
		[]string{"Continuer", "Explorer encore"}, sess.Game))

	report, err := e.HandleAction(context.Background(), sess, "Rentrer chez toi")
	require.NoError(t, err)

	assert.True(t, report.GameEnded)
	assert.Equal(t, sess.MaxTurns+1, sess.CurrentTurn)
	assert.Empty(t, sess.Choices)
	assert.Equal(t, state.ViewGameEnded, sess.View)

	_, err = e.BeginTurn(sess, "Encore un tour")
	assert.ErrorIs(t, err, ErrGameEnded)
}

func TestCommitTurn_MissingChoicesOnOrdinaryTurn(t *testing.T) {
	mock := services.NewMockGenerationService()
	e := newTestEngine(mock)
	sess := activeSession(t)
	mock.SetNarrativeResponse(turnJSON(t, "Le couloir est silencieux.", nil, sess.Game))

	report, err := e.HandleAction(context.Background(), sess, "Avancer")
	require.NoError(t, err)

	assert.False(t, report.ShapeFallback)
	assert.Equal(t, prompts.FallbackChoices(), sess.Choices)
	assert.Contains(t, report.Segment.Text, prompts.FillerSentence)
	assert.False(t, report.GameEnded)
}

func TestCommitTurn_MalformedInventoryPreserved(t *testing.T) {
	mock := services.NewMockGenerationService()
	e := newTestEngine(mock)

	sess := activeSession(t)
	sess.Game.Inventory = []state.Item{
		{Name: "lanterne", Quantity: 1},
		{Name: "clé dorée", Quantity: 1},
	}

	// Inventory rendered as a prose string instead of an item list.
	badState := `{"playerName": "Alex", "location": "Grotte", "inventory": "une lanterne et une clé"}`
	doc := map[string]interface{}{
		"text":             "Tu entres dans la grotte.",
		"choices":          []string{"Explorer", "Ressortir"},
		"updatedGameState": badState,
	}
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	mock.SetNarrativeResponse(string(raw))

	report, err := e.HandleAction(context.Background(), sess, "Entrer dans la grotte")
	require.NoError(t, err)

	assert.True(t, report.StateRepaired)
	// Valid fields are taken, the broken inventory is carried over.
	assert.Equal(t, "Grotte", sess.Game.Location)
	require.Len(t, sess.Game.Inventory, 2)
	assert.Equal(t, "lanterne", sess.Game.Inventory[0].Name)
	assert.Equal(t, "clé dorée", sess.Game.Inventory[1].Name)
	assert.Contains(t, report.Segment.Text, prompts.InventoryCautionNote)
}

func TestCommitTurn_UnusableStateFallsBack(t *testing.T) {
	mock := services.NewMockGenerationService()
	e := newTestEngine(mock)

	sess := activeSession(t)
	sess.Game.Location = "Clairière"

	doc := map[string]interface{}{
		"text":             "Quelque chose d'étrange se produit.",
		"choices":          []string{"Continuer"},
		"updatedGameState": "pas du tout du JSON",
	}
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	mock.SetNarrativeResponse(string(raw))

	report, err := e.HandleAction(context.Background(), sess, "Observer")
	require.NoError(t, err)

	assert.True(t, report.StateRepaired)
	assert.Equal(t, "Clairière", sess.Game.Location)
	assert.Contains(t, report.Segment.Text, prompts.StateCautionNote)
}

func TestStartGame_BuildsOpening(t *testing.T) {
	mock := services.NewMockGenerationService()
	e := newTestEngine(mock)

	sess := state.NewSession(0)
	sess.Theme = "ocean_mysterieux"
	sess.SubTheme = ""
	sess.Hero = "magicienne"
	sess.PlayerName = "Jade"
	sess.View = state.ViewNameInput

	p, err := e.StartGame(sess)
	require.NoError(t, err)

	assert.True(t, p.Opening)
	assert.Equal(t, state.ViewGameActive, sess.View)
	assert.True(t, sess.Loading)
	require.NotNil(t, sess.Game)
	assert.Equal(t, "Jade", sess.Game.PlayerName)
	assert.Equal(t, state.DefaultLocation, sess.Game.Location)

	raw, err := e.Generate(context.Background(), p)
	require.NoError(t, err)
	report := e.CommitTurn(sess, p, raw)
	assert.False(t, report.GameEnded)
	require.Len(t, sess.Segments, 1)
	assert.Equal(t, state.SpeakerNarrator, sess.Segments[0].Speaker)
	assert.NotEmpty(t, sess.Choices)
	assert.False(t, sess.Loading)
}

func TestStartGame_MissingIdentity(t *testing.T) {
	e := newTestEngine(services.NewMockGenerationService())
	sess := state.NewSession(0)
	sess.View = state.ViewNameInput

	_, err := e.StartGame(sess)
	assert.ErrorIs(t, err, ErrMissingIdentity)
}

func TestBeginTurn_EventRidesPromptOnly(t *testing.T) {
	mock := services.NewMockGenerationService()
	e := NewEngine(mock, testLogger()).
		WithInjector(prompts.NewEventInjector(1).WithChance(1).WithEvents([]string{"Un écureuil farceur apparaît."}))

	sess := activeSession(t)
	p, err := e.BeginTurn(sess, "Avancer")
	require.NoError(t, err)

	assert.Equal(t, "Un écureuil farceur apparaît.", p.InjectedEvent)
	assert.Contains(t, p.PromptStateText, "écureuil")
	// The real event log is untouched until the narrator's state returns.
	assert.Empty(t, sess.Game.Events)
}
