package state

import "encoding/json"

const (
	// DefaultLocation is the sentinel used when the narrator never
	// committed to a place.
	DefaultLocation = "Lieu Inconnu"

	// DefaultPlayerName is used when no fallback name is available at all.
	DefaultPlayerName = "Aventurier"
)

// Item is a single inventory entry. Quantity is never negative after a
// codec pass.
type Item struct {
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	Description string `json:"description,omitempty"`
}

// GameState is the authoritative narrative-world snapshot exchanged with
// the generation backend. It is replaced wholesale each turn, derived from
// the previous instance. Extra carries model-invented fields verbatim so
// they survive a decode/encode round trip.
type GameState struct {
	PlayerName    string                     `json:"playerName"`
	Location      string                     `json:"location"`
	Inventory     []Item                     `json:"inventory"`
	Relationships map[string]string          `json:"relationships"`
	Emotions      []string                   `json:"emotions"`
	Events        []string                   `json:"events"`
	Extra         map[string]json.RawMessage `json:"-"`
}

// NewGameState returns a state with every mandatory field present.
func NewGameState(playerName string) *GameState {
	if playerName == "" {
		playerName = DefaultPlayerName
	}
	return &GameState{
		PlayerName:    playerName,
		Location:      DefaultLocation,
		Inventory:     make([]Item, 0),
		Relationships: make(map[string]string),
		Emotions:      make([]string, 0),
		Events:        make([]string, 0),
	}
}

// Normalize restores the mandatory-field invariants in place. It is applied
// before every encode so a state assembled from a prior failed decode still
// serializes to a valid document.
func (gs *GameState) Normalize() {
	if gs.PlayerName == "" {
		gs.PlayerName = DefaultPlayerName
	}
	if gs.Location == "" {
		gs.Location = DefaultLocation
	}
	if gs.Inventory == nil {
		gs.Inventory = make([]Item, 0)
	}
	for i := range gs.Inventory {
		if gs.Inventory[i].Quantity < 0 {
			gs.Inventory[i].Quantity = 0
		}
	}
	if gs.Relationships == nil {
		gs.Relationships = make(map[string]string)
	}
	if gs.Emotions == nil {
		gs.Emotions = make([]string, 0)
	}
	if gs.Events == nil {
		gs.Events = make([]string, 0)
	}
}

// Clone returns a deep copy. The engine keeps a reference to the pre-turn
// state for rollback and fallback, so committed states must never share
// slices with it.
func (gs *GameState) Clone() *GameState {
	if gs == nil {
		return nil
	}
	out := &GameState{
		PlayerName: gs.PlayerName,
		Location:   gs.Location,
	}
	out.Inventory = make([]Item, len(gs.Inventory))
	copy(out.Inventory, gs.Inventory)
	out.Relationships = make(map[string]string, len(gs.Relationships))
	for k, v := range gs.Relationships {
		out.Relationships[k] = v
	}
	out.Emotions = make([]string, len(gs.Emotions))
	copy(out.Emotions, gs.Emotions)
	out.Events = make([]string, len(gs.Events))
	copy(out.Events, gs.Events)
	if gs.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(gs.Extra))
		for k, v := range gs.Extra {
			raw := make(json.RawMessage, len(v))
			copy(raw, v)
			out.Extra[k] = raw
		}
	}
	return out
}
