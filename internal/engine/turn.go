package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aberthier/conteur/internal/services"
	"github.com/aberthier/conteur/pkg/chat"
	"github.com/aberthier/conteur/pkg/prompts"
	"github.com/aberthier/conteur/pkg/scenario"
	"github.com/aberthier/conteur/pkg/state"
)

var (
	// ErrEmptyAction rejects a blank or whitespace-only player action.
	ErrEmptyAction = errors.New("action is empty")

	// ErrMissingIdentity rejects turn processing before the theme, hero
	// and player name are all set.
	ErrMissingIdentity = errors.New("session identity is incomplete")

	// ErrGameEnded rejects further actions once the story has concluded.
	ErrGameEnded = errors.New("game has ended")
)

// transportErrMessage is the user-visible banner after a failed generation.
// Transport failures are the only errors surfaced technically; everything
// else degrades in-character.
const transportErrMessage = "Le conteur n'a pas pu répondre. Vérifie ta connexion et réessaie."

// Engine drives the turn cycle: it validates intents, applies the
// optimistic update, builds the generation request, and commits or rolls
// back when the result arrives. It never performs I/O itself except
// through Generate, so every other method is safe to call from the UI
// event loop.
type Engine struct {
	llm      services.GenerationService
	themes   []scenario.Theme
	heroes   []scenario.Hero
	injector *prompts.EventInjector
	logger   *slog.Logger
	now      func() time.Time
}

func NewEngine(llm services.GenerationService, logger *slog.Logger) *Engine {
	return &Engine{
		llm:      llm,
		themes:   scenario.Catalog(),
		heroes:   scenario.Heroes(),
		injector: prompts.NewEventInjector(time.Now().UnixNano()),
		logger:   logger,
		now:      time.Now,
	}
}

// WithThemes overrides the theme catalog.
func (e *Engine) WithThemes(themes []scenario.Theme) *Engine {
	e.themes = themes
	return e
}

// WithInjector overrides the random event source. Tests pass a seeded or
// zero-chance injector for determinism.
func (e *Engine) WithInjector(inj *prompts.EventInjector) *Engine {
	e.injector = inj
	return e
}

// WithClock overrides the time source.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// PendingTurn carries everything needed to finish or undo one in-flight
// turn. It is created on the event loop, crosses to the I/O command, and
// comes back for commit or rollback.
type PendingTurn struct {
	Action  string
	Opening bool

	// IsLastTurn is decided at begin time; the commit forces an empty
	// choice list when set.
	IsLastTurn bool

	// Request is the fully assembled generation request.
	Request *chat.TurnRequest

	// InjectedEvent is the random event rolled for this turn, empty for
	// none. It exists in the prompt only until the narrator weaves it in.
	InjectedEvent string

	// PromptStateText is the encoded state the request was built from,
	// the last-known-valid fallback if the response's state is unusable.
	PromptStateText string

	segmentID   int64
	prevChoices []string
	prevGame    *state.GameState
}

// TurnReport summarizes a committed turn for the caller.
type TurnReport struct {
	// Segment is the narrator segment appended by the commit.
	Segment *state.StorySegment

	// IllustrationPrompt is the optional image description the narrator
	// offered, empty for none.
	IllustrationPrompt string

	GameEnded     bool
	ShapeFallback bool
	StateRepaired bool
}

// StartGame begins a new playthrough from the session's chosen identity.
// It moves the view to the active game, installs a fresh game state, and
// returns the pending opening generation.
func (e *Engine) StartGame(sess *state.SessionState) (*PendingTurn, error) {
	theme, hero, err := e.identity(sess)
	if err != nil {
		return nil, err
	}

	seed := ""
	if sub, ok := theme.FindSubTheme(sess.SubTheme); ok {
		seed = sub.Prompt
	}

	req, err := prompts.New().
		WithTheme(theme).
		WithHero(hero).
		WithPlayerName(sess.PlayerName).
		WithScenarioSeed(seed).
		WithDate(e.now()).
		BuildOpening()
	if err != nil {
		return nil, fmt.Errorf("build opening prompt: %w", err)
	}

	sess.Game = state.NewGameState(sess.PlayerName)
	sess.CurrentTurn = 0
	sess.Choices = nil
	sess.LastError = ""
	sess.Loading = true
	if err := sess.To(state.ViewGameActive); err != nil {
		return nil, err
	}

	e.logger.Info("game started",
		"session_id", sess.ID,
		"theme", sess.Theme,
		"hero", sess.Hero,
		"player", sess.PlayerName)

	return &PendingTurn{
		Opening:         true,
		Request:         req,
		PromptStateText: state.Encode(sess.Game),
		prevGame:        sess.Game.Clone(),
	}, nil
}

// BeginTurn validates the action and applies the optimistic update: the
// player's segment is appended and the counters advance before any network
// call. The returned pending turn must be either committed or rolled back.
func (e *Engine) BeginTurn(sess *state.SessionState, action string) (*PendingTurn, error) {
	action = strings.TrimSpace(action)
	if action == "" {
		return nil, ErrEmptyAction
	}
	if sess.View == state.ViewGameEnded {
		return nil, ErrGameEnded
	}
	theme, hero, err := e.identity(sess)
	if err != nil {
		return nil, err
	}
	if sess.Game == nil {
		sess.Game = state.NewGameState(sess.PlayerName)
	}

	p := &PendingTurn{
		Action:      action,
		prevChoices: sess.Choices,
		prevGame:    sess.Game.Clone(),
	}

	seg := sess.AppendSegment(state.SpeakerPlayer, action)
	p.segmentID = seg.ID
	sess.History = append(sess.History, action)
	sess.CurrentTurn++
	sess.Choices = nil
	sess.LastError = ""
	sess.Loading = true
	p.IsLastTurn = sess.CurrentTurn > sess.MaxTurns

	// The rolled event rides in the prompt's copy of the state only; it
	// enters the real event log through the narrator's updated state.
	promptGame := sess.Game.Clone()
	if event, ok := e.injector.Roll(); ok {
		p.InjectedEvent = event
		promptGame.Events = append(promptGame.Events, event)
	}
	p.PromptStateText = state.Encode(promptGame)

	req, err := prompts.New().
		WithTheme(theme).
		WithHero(hero).
		WithPlayerName(sess.PlayerName).
		WithStateText(p.PromptStateText).
		WithHistory(sess.History).
		WithTurn(sess.CurrentTurn, sess.MaxTurns, p.IsLastTurn).
		WithEvent(p.InjectedEvent).
		WithDate(e.now()).
		BuildTurn()
	if err != nil {
		e.rollback(sess, p)
		return nil, fmt.Errorf("build turn prompt: %w", err)
	}
	p.Request = req
	return p, nil
}

// Generate runs the pending turn's request against the model. It is the
// only Engine method that blocks; callers run it off the event loop.
func (e *Engine) Generate(ctx context.Context, p *PendingTurn) (string, error) {
	raw, err := e.llm.GenerateNarrative(ctx, p.Request)
	if err != nil {
		return "", fmt.Errorf("generate narrative: %w", err)
	}
	return raw, nil
}

// CommitTurn folds the raw model response into the session. It never
// fails: a response that breaks the output contract degrades to
// in-character fallback content, and unusable state falls back to the
// last-known-valid state.
func (e *Engine) CommitTurn(sess *state.SessionState, p *PendingTurn, raw string) *TurnReport {
	report := &TurnReport{}

	turn, ok := chat.DecodeTurn(raw)
	text := ""
	var choices []string
	stateText := ""
	if ok {
		text = turn.Text
		choices = turn.Choices
		stateText = turn.UpdatedState
		report.IllustrationPrompt = strings.TrimSpace(turn.ImagePrompt)
	} else {
		report.ShapeFallback = true
		text = prompts.FallbackNarration
		choices = prompts.FallbackChoices()
		stateText = p.PromptStateText
		e.logger.Warn("model response violated output contract",
			"session_id", sess.ID,
			"turn", sess.CurrentTurn)
	}

	if p.IsLastTurn {
		choices = nil
	} else if len(choices) == 0 {
		choices = prompts.FallbackChoices()
		text = text + "\n\n" + prompts.FillerSentence
	}

	gs, decodeReport := state.Decode(stateText, sess.PlayerName)
	if decodeReport.Defaulted {
		gs = p.prevGame.Clone()
		if !report.ShapeFallback {
			text = text + "\n\n" + prompts.StateCautionNote
		}
		report.StateRepaired = true
	} else if decodeReport.InventoryReset {
		gs.Inventory = p.prevGame.Clone().Inventory
		text = text + "\n\n" + prompts.InventoryCautionNote
		report.StateRepaired = true
	}

	sess.Game = gs
	sess.Choices = choices
	sess.Loading = false
	sess.LastError = ""

	seg := sess.AppendSegment(state.SpeakerNarrator, text)
	seg.ImagePrompt = report.IllustrationPrompt
	report.Segment = seg

	if p.IsLastTurn {
		if err := sess.To(state.ViewGameEnded); err == nil {
			report.GameEnded = true
		}
	}

	e.logger.Debug("turn committed",
		"session_id", sess.ID,
		"turn", sess.CurrentTurn,
		"choices", len(choices),
		"shape_fallback", report.ShapeFallback,
		"state_repaired", report.StateRepaired,
		"ended", report.GameEnded)
	return report
}

// RollbackTurn undoes the optimistic update after a transport failure and
// surfaces the error banner. The session returns to its exact pre-turn
// state except for segment id allocation, which never rewinds.
func (e *Engine) RollbackTurn(sess *state.SessionState, p *PendingTurn, cause error) {
	e.rollback(sess, p)
	sess.LastError = transportErrMessage
	e.logger.Error("turn generation failed",
		"session_id", sess.ID,
		"turn", sess.CurrentTurn,
		"error", cause)
}

func (e *Engine) rollback(sess *state.SessionState, p *PendingTurn) {
	if p.Opening {
		sess.Loading = false
		return
	}
	sess.RemoveSegment(p.segmentID)
	if n := len(sess.History); n > 0 && sess.History[n-1] == p.Action {
		sess.History = sess.History[:n-1]
	}
	sess.CurrentTurn--
	sess.Choices = p.prevChoices
	sess.Game = p.prevGame
	sess.Loading = false
}

// HandleAction runs the full cycle synchronously: begin, generate, then
// commit or roll back. The console splits these stages across commands;
// this composition exists for callers without an event loop.
func (e *Engine) HandleAction(ctx context.Context, sess *state.SessionState, action string) (*TurnReport, error) {
	p, err := e.BeginTurn(sess, action)
	if err != nil {
		return nil, err
	}
	raw, err := e.Generate(ctx, p)
	if err != nil {
		e.RollbackTurn(sess, p, err)
		return nil, err
	}
	return e.CommitTurn(sess, p, raw), nil
}

func (e *Engine) identity(sess *state.SessionState) (scenario.Theme, scenario.Hero, error) {
	theme, ok := scenario.FindTheme(e.themes, sess.Theme)
	if !ok {
		return scenario.Theme{}, scenario.Hero{}, fmt.Errorf("%w: unknown theme %q", ErrMissingIdentity, sess.Theme)
	}
	hero, ok := scenario.FindHero(e.heroes, sess.Hero)
	if !ok {
		return scenario.Theme{}, scenario.Hero{}, fmt.Errorf("%w: unknown hero %q", ErrMissingIdentity, sess.Hero)
	}
	if strings.TrimSpace(sess.PlayerName) == "" {
		return scenario.Theme{}, scenario.Hero{}, fmt.Errorf("%w: player name is empty", ErrMissingIdentity)
	}
	return theme, hero, nil
}
