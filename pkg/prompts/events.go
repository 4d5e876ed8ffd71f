package prompts

import "math/rand"

// DefaultEventChance is the per-turn probability of injecting one random
// event into the state before prompting.
const DefaultEventChance = 0.10

// randomEvents is the fixed curated list the injector draws from.
var randomEvents = []string{
	"Une pluie d'étoiles filantes illumine soudain le ciel",
	"Un petit animal curieux se met à suivre le héros",
	"Une douce mélodie s'élève, venue de nulle part",
	"Le vent apporte une odeur de gâteau tout chaud",
	"Un messager essoufflé surgit avec une lettre mystérieuse",
	"Un arc-en-ciel apparaît alors qu'il n'a pas plu",
	"Le sol se met à briller doucement sous chaque pas",
	"Une vieille carte à moitié effacée tombe d'un arbre",
}

// EventInjector decides, once per turn, whether a curated random event is
// appended to the game state before the prompt is assembled. The randomness
// source is injected so tests can force either outcome.
type EventInjector struct {
	r      *rand.Rand
	chance float64
	events []string
}

// NewEventInjector builds an injector with the default chance and catalog.
func NewEventInjector(seed int64) *EventInjector {
	return &EventInjector{
		r:      rand.New(rand.NewSource(seed)),
		chance: DefaultEventChance,
		events: randomEvents,
	}
}

// WithChance overrides the per-turn probability. Mostly for tests, which
// pin it to 0 or 1.
func (e *EventInjector) WithChance(chance float64) *EventInjector {
	e.chance = chance
	return e
}

// WithEvents overrides the curated list.
func (e *EventInjector) WithEvents(events []string) *EventInjector {
	e.events = events
	return e
}

// Roll returns the event for this turn, if any.
func (e *EventInjector) Roll() (string, bool) {
	if len(e.events) == 0 || e.r.Float64() >= e.chance {
		return "", false
	}
	return e.events[e.r.Intn(len(e.events))], true
}
