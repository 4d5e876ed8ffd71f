package state

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// EncodeErrorEvent is appended to the events log of the minimal fallback
// document produced when serialization itself fails.
const EncodeErrorEvent = "encode_error"

// DecodeReport describes which parts of a decoded document had to be
// repaired. The turn engine uses it to decide whether an in-character
// disclosure is owed to the player.
type DecodeReport struct {
	// Defaulted is true when the whole document was unusable (empty,
	// unparsable, or not a JSON object) and the returned state is a
	// freshly seeded default.
	Defaulted bool

	// InventoryReset is true when an inventory field was present but
	// malformed and had to be reset to empty.
	InventoryReset bool

	// Missing lists mandatory fields that were absent or of the wrong
	// type and were substituted with defaults.
	Missing []string
}

// Repaired reports whether any self-healing took place.
func (r DecodeReport) Repaired() bool {
	return r.Defaulted || r.InventoryReset || len(r.Missing) > 0
}

// Decode converts generator-produced text into a GameState. It never fails:
// unusable input yields a default state seeded with playerNameFallback, and
// each field is extracted independently so one corrupt field never
// invalidates its siblings. Unknown fields are preserved in Extra.
func Decode(text string, playerNameFallback string) (*GameState, DecodeReport) {
	gs := NewGameState(playerNameFallback)
	report := DecodeReport{}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		report.Defaulted = true
		return gs, report
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil || raw == nil {
		report.Defaulted = true
		return gs, report
	}

	for key, val := range raw {
		switch key {
		case "playerName":
			if s, ok := asString(val); ok && s != "" {
				gs.PlayerName = s
			} else {
				report.Missing = append(report.Missing, key)
			}
		case "location":
			if s, ok := asString(val); ok && s != "" {
				gs.Location = s
			} else {
				report.Missing = append(report.Missing, key)
			}
		case "inventory":
			items, ok := decodeInventory(val)
			if ok {
				gs.Inventory = items
			} else {
				report.InventoryReset = true
			}
		case "relationships":
			var rels map[string]string
			if err := json.Unmarshal(val, &rels); err == nil && rels != nil {
				gs.Relationships = rels
			} else {
				report.Missing = append(report.Missing, key)
			}
		case "emotions":
			if ss, ok := decodeStrings(val); ok {
				gs.Emotions = ss
			} else {
				report.Missing = append(report.Missing, key)
			}
		case "events":
			if ss, ok := decodeStrings(val); ok {
				gs.Events = ss
			} else {
				report.Missing = append(report.Missing, key)
			}
		default:
			if gs.Extra == nil {
				gs.Extra = make(map[string]json.RawMessage)
			}
			gs.Extra[key] = val
		}
	}

	gs.Normalize()
	sort.Strings(report.Missing)
	return gs, report
}

// Encode serializes a GameState to JSON text. It always returns a valid
// document: defaults are re-applied first, and a marshal failure (for
// example a corrupt raw value smuggled into Extra) degrades to a minimal
// document carrying an "encode_error" event.
func Encode(gs *GameState) string {
	if gs == nil {
		gs = NewGameState("")
	}
	gs.Normalize()

	doc := make(map[string]interface{}, len(gs.Extra)+6)
	for k, v := range gs.Extra {
		doc[k] = v
	}
	doc["playerName"] = gs.PlayerName
	doc["location"] = gs.Location
	doc["inventory"] = gs.Inventory
	doc["relationships"] = gs.Relationships
	doc["emotions"] = gs.Emotions
	doc["events"] = gs.Events

	data, err := json.Marshal(doc)
	if err != nil {
		return encodeFallback(gs)
	}
	return string(data)
}

// encodeFallback builds the minimal valid document by hand. Only primitive
// fields are carried; collections are emptied since one of them is what
// broke the marshal.
func encodeFallback(gs *GameState) string {
	name, _ := json.Marshal(gs.PlayerName)
	loc, _ := json.Marshal(gs.Location)
	return fmt.Sprintf(
		`{"playerName":%s,"location":%s,"inventory":[],"relationships":{},"emotions":[],"events":[%q]}`,
		name, loc, EncodeErrorEvent)
}

func asString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func decodeStrings(raw json.RawMessage) ([]string, bool) {
	var ss []string
	if err := json.Unmarshal(raw, &ss); err != nil {
		return nil, false
	}
	if ss == nil {
		ss = make([]string, 0)
	}
	return ss, true
}

// decodeInventory accepts only a well-formed item array: every entry must
// carry a non-empty name and a numeric quantity. Anything else resets the
// whole inventory rather than keeping a half-trusted list.
func decodeInventory(raw json.RawMessage) ([]Item, bool) {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false
	}

	items := make([]Item, 0, len(entries))
	for _, entry := range entries {
		var item struct {
			Name        string           `json:"name"`
			Quantity    *json.RawMessage `json:"quantity"`
			Description string           `json:"description"`
		}
		if err := json.Unmarshal(entry, &item); err != nil {
			return nil, false
		}
		if item.Name == "" {
			return nil, false
		}
		qty := 1
		if item.Quantity != nil {
			var n float64
			if err := json.Unmarshal(*item.Quantity, &n); err != nil {
				return nil, false
			}
			qty = int(n)
			if qty < 0 {
				qty = 0
			}
		}
		items = append(items, Item{Name: item.Name, Quantity: qty, Description: item.Description})
	}
	return items, true
}
