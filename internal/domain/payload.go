package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Payload is the opaque itinerary content produced by the generator.
// The client only reads a few display fields out of it.
type Payload json.RawMessage

// maxEnvelopeDepth bounds how many response wrappers NormalizePayload strips
const maxEnvelopeDepth = 3

// keys that may sit next to "itinerary" in a response wrapper
var envelopeKeys = map[string]bool{
	"itinerary":   true,
	"ok":          true,
	"email_sent":  true,
	"email_error": true,
}

// MarshalJSON emits the raw content, or null when empty
func (p Payload) MarshalJSON() ([]byte, error) {
	if len(p) == 0 {
		return []byte("null"), nil
	}
	return p, nil
}

// UnmarshalJSON keeps a copy of the raw content
func (p *Payload) UnmarshalJSON(data []byte) error {
	if p == nil {
		return errors.New("domain.Payload: UnmarshalJSON on nil pointer")
	}
	*p = append((*p)[0:0], data...)
	return nil
}

// IsEmpty reports a missing, null or empty-object payload
func (p Payload) IsEmpty() bool {
	trimmed := bytes.TrimSpace(p)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte("{}"))
}

// Clone returns an independent copy
func (p Payload) Clone() Payload {
	if p == nil {
		return nil
	}
	return append(Payload(nil), p...)
}

// NormalizePayload strips response envelopes such as {"ok":true,"itinerary":{...}}
// so that every payload held by the client is the flat itinerary object.
// An object is an envelope when it has an "itinerary" object and no keys
// other than the known wrapper keys.
func NormalizePayload(raw []byte) (Payload, error) {
	current := bytes.TrimSpace(raw)
	for depth := 0; depth < maxEnvelopeDepth; depth++ {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(current, &obj); err != nil {
			return nil, fmt.Errorf("itinerary is not a JSON object: %w", err)
		}
		inner, ok := obj["itinerary"]
		if !ok || !isEnvelope(obj) {
			break
		}
		inner = bytes.TrimSpace(inner)
		if len(inner) == 0 || inner[0] != '{' {
			break
		}
		current = inner
	}
	if len(current) == 0 || current[0] != '{' {
		return nil, errors.New("itinerary is not a JSON object")
	}
	return Payload(append([]byte(nil), current...)), nil
}

func isEnvelope(obj map[string]json.RawMessage) bool {
	for k := range obj {
		if !envelopeKeys[k] {
			return false
		}
	}
	return true
}

// DayPlan is one day of the generated schedule
type DayPlan struct {
	Day        int               `json:"day"`
	Activities []json.RawMessage `json:"activities"`
}

// Labels renders the day's activities as short strings
func (d DayPlan) Labels() []string {
	labels := make([]string, 0, len(d.Activities))
	for _, raw := range d.Activities {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			labels = append(labels, s)
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal(raw, &obj); err == nil {
			if name, ok := firstString(obj, "name", "title", "activity"); ok {
				labels = append(labels, name)
				continue
			}
		}
		labels = append(labels, string(raw))
	}
	return labels
}

// PayloadView holds the optional display fields of a payload
type PayloadView struct {
	Destination string
	Days        int
	Budget      string
	Flights     int
	Hotels      int
	CO2Kg       *float64
	DayPlan     []DayPlan
}

// View extracts display fields; anything missing or oddly shaped is left zero
func (p Payload) View() PayloadView {
	var doc struct {
		Meta    map[string]any    `json:"meta"`
		Flights []json.RawMessage `json:"flights"`
		Hotels  []json.RawMessage `json:"hotels"`
		CO2Kg   *float64          `json:"co2_kg"`
		DayPlan []DayPlan         `json:"day_plan"`
	}
	var view PayloadView
	if err := json.Unmarshal(p, &doc); err != nil {
		return view
	}

	view.Destination, _ = firstString(doc.Meta, "destination")
	view.Budget, _ = firstString(doc.Meta, "budget")
	switch days := doc.Meta["days"].(type) {
	case float64:
		view.Days = int(days)
	case string:
		view.Days, _ = strconv.Atoi(days)
	}
	view.Flights = len(doc.Flights)
	view.Hotels = len(doc.Hotels)
	view.CO2Kg = doc.CO2Kg
	view.DayPlan = doc.DayPlan
	return view
}

func firstString(obj map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}
