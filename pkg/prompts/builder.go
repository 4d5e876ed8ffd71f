package prompts

import (
	"fmt"
	"strings"
	"time"

	"github.com/aberthier/conteur/pkg/chat"
	"github.com/aberthier/conteur/pkg/scenario"
)

// Builder assembles the generation request for one turn using a fluent
// interface. It is the only place prompt text is put together; no network
// calls and no session mutation happen here.
type Builder struct {
	theme      scenario.Theme
	hero       scenario.Hero
	playerName string
	seed       string
	stateText  string
	history    []string
	turn       int
	maxTurns   int
	lastTurn   bool
	event      string
	date       time.Time
}

// New creates a builder.
func New() *Builder {
	return &Builder{date: time.Now()}
}

// WithTheme sets the story universe.
func (b *Builder) WithTheme(t scenario.Theme) *Builder {
	b.theme = t
	return b
}

// WithHero sets the hero class.
func (b *Builder) WithHero(h scenario.Hero) *Builder {
	b.hero = h
	return b
}

// WithPlayerName sets the player's name.
func (b *Builder) WithPlayerName(name string) *Builder {
	b.playerName = name
	return b
}

// WithScenarioSeed sets the sub-theme prompt, or a synthesized generic
// seed when the player skipped sub-theme selection.
func (b *Builder) WithScenarioSeed(seed string) *Builder {
	b.seed = seed
	return b
}

// WithStateText sets the encoded current game state, including any random
// event already injected into its events field.
func (b *Builder) WithStateText(text string) *Builder {
	b.stateText = text
	return b
}

// WithHistory sets the chronological choice history; the last element is
// the action this turn reacts to.
func (b *Builder) WithHistory(history []string) *Builder {
	b.history = history
	return b
}

// WithTurn sets the turn counters and the last-turn flag.
func (b *Builder) WithTurn(current, max int, last bool) *Builder {
	b.turn = current
	b.maxTurns = max
	b.lastTurn = last
	return b
}

// WithEvent records the random event injected this turn, empty for none.
func (b *Builder) WithEvent(event string) *Builder {
	b.event = event
	return b
}

// WithDate sets the cosmetic current date.
func (b *Builder) WithDate(t time.Time) *Builder {
	b.date = t
	return b
}

// BuildOpening produces the self-contained request for the first segment.
func (b *Builder) BuildOpening() (*chat.TurnRequest, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}
	seed := b.seed
	if seed == "" {
		seed = b.theme.GenericSeed()
	}

	system := fmt.Sprintf(OpeningSystemPrompt,
		b.theme.Prompt,
		seed,
		b.playerName,
		b.hero.Description,
		FormatDateFR(b.date),
	)

	return &chat.TurnRequest{
		Messages: []chat.Message{
			{Role: chat.RoleSystem, Content: system + "\n\n" + OutputShapePrompt},
			{Role: chat.RoleUser, Content: "Commence l'aventure."},
		},
		Schema: chat.TurnResponseSchema(),
	}, nil
}

// BuildTurn produces the request for a continuation (or final) turn.
func (b *Builder) BuildTurn() (*chat.TurnRequest, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}
	if len(b.history) == 0 {
		return nil, fmt.Errorf("choice history is required for a continuation turn")
	}
	if b.stateText == "" {
		return nil, fmt.Errorf("encoded game state is required for a continuation turn")
	}

	system := fmt.Sprintf(ContinuationSystemPrompt,
		b.theme.Prompt,
		b.playerName,
		b.hero.Description,
		b.stateText,
		b.turn,
		b.maxTurns,
		FormatDateFR(b.date),
	)

	var sb strings.Builder
	sb.WriteString(system)
	sb.WriteString("\n\n")
	if b.event != "" {
		sb.WriteString(fmt.Sprintf(EventDirective, b.event))
	} else {
		sb.WriteString(NoEventDirective)
	}
	sb.WriteString("\n\n")
	if b.lastTurn {
		sb.WriteString(LastTurnDirective)
	} else {
		sb.WriteString(TurnDirective)
	}
	sb.WriteString("\n\n")
	sb.WriteString(OutputShapePrompt)

	messages := []chat.Message{
		{Role: chat.RoleSystem, Content: sb.String()},
	}
	messages = append(messages, b.historyMessages()...)

	return &chat.TurnRequest{
		Messages: messages,
		Schema:   chat.TurnResponseSchema(),
	}, nil
}

// historyMessages renders the chronological choice history, closing with
// the action to react to.
func (b *Builder) historyMessages() []chat.Message {
	msgs := make([]chat.Message, 0, len(b.history)+1)
	if len(b.history) > 1 {
		var sb strings.Builder
		sb.WriteString("Actions précédentes du joueur, dans l'ordre :\n")
		for i, action := range b.history[:len(b.history)-1] {
			sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, action))
		}
		msgs = append(msgs, chat.Message{Role: chat.RoleSystem, Content: sb.String()})
	}
	msgs = append(msgs, chat.Message{
		Role:    chat.RoleUser,
		Content: b.history[len(b.history)-1],
	})
	return msgs
}

func (b *Builder) validate() error {
	if b.theme.Prompt == "" {
		return fmt.Errorf("theme is required")
	}
	if b.hero.Description == "" {
		return fmt.Errorf("hero is required")
	}
	if strings.TrimSpace(b.playerName) == "" {
		return fmt.Errorf("player name is required")
	}
	return nil
}

var frMonths = [...]string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

var frDays = [...]string{
	"dimanche", "lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi",
}

// FormatDateFR renders a date the way the narration expects it, e.g.
// "samedi 14 mars 2026". The standard library has no localized month
// names, so the tables live here.
func FormatDateFR(t time.Time) string {
	return fmt.Sprintf("%s %d %s %d",
		frDays[int(t.Weekday())], t.Day(), frMonths[int(t.Month())-1], t.Year())
}
