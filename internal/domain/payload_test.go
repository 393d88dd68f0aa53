package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/Rrens/trip-planner/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePayload(t *testing.T) {
	flat := `{"meta":{"destination":"Paris","days":3},"flights":[]}`

	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"flat", flat, flat, false},
		{"single envelope", `{"itinerary":` + flat + `}`, flat, false},
		{"orchestrator envelope", `{"ok":true,"itinerary":` + flat + `}`, flat, false},
		{"double envelope", `{"itinerary":{"ok":true,"itinerary":` + flat + `}}`, flat, false},
		{"content with itinerary key", `{"itinerary":{"a":1},"flights":[]}`, `{"itinerary":{"a":1},"flights":[]}`, false},
		{"envelope around null", `{"itinerary":null}`, `{"itinerary":null}`, false},
		{"array", `[1,2]`, "", true},
		{"null", `null`, "", true},
		{"garbage", `not json`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.NormalizePayload([]byte(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestPayload_JSON(t *testing.T) {
	var body struct {
		Itinerary domain.Payload `json:"itinerary"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"itinerary":{"k":"v"}}`), &body))
	assert.JSONEq(t, `{"k":"v"}`, string(body.Itinerary))

	out, err := json.Marshal(body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"itinerary":{"k":"v"}}`, string(out))

	var empty domain.Payload
	out, err = json.Marshal(struct {
		P domain.Payload `json:"p"`
	}{empty})
	require.NoError(t, err)
	assert.JSONEq(t, `{"p":null}`, string(out))
}

func TestPayload_IsEmpty(t *testing.T) {
	assert.True(t, domain.Payload(nil).IsEmpty())
	assert.True(t, domain.Payload(" null ").IsEmpty())
	assert.True(t, domain.Payload("{}").IsEmpty())
	assert.False(t, domain.Payload(`{"a":1}`).IsEmpty())
}

func TestPayload_View(t *testing.T) {
	p := domain.Payload(`{
		"meta": {"destination": "Paris", "days": "3", "budget": "standard"},
		"flights": [{}, {}],
		"hotels": [{}],
		"co2_kg": 412.5,
		"day_plan": [
			{"day": 1, "activities": ["Louvre", {"name": "Seine cruise"}]},
			{"day": 2, "activities": [42]}
		]
	}`)

	view := p.View()
	assert.Equal(t, "Paris", view.Destination)
	assert.Equal(t, 3, view.Days)
	assert.Equal(t, "standard", view.Budget)
	assert.Equal(t, 2, view.Flights)
	assert.Equal(t, 1, view.Hotels)
	require.NotNil(t, view.CO2Kg)
	assert.Equal(t, 412.5, *view.CO2Kg)
	require.Len(t, view.DayPlan, 2)
	assert.Equal(t, []string{"Louvre", "Seine cruise"}, view.DayPlan[0].Labels())
	assert.Equal(t, []string{"42"}, view.DayPlan[1].Labels())

	assert.Equal(t, domain.PayloadView{}, domain.Payload(`[]`).View())
}

func TestStatusRank(t *testing.T) {
	assert.Less(t, domain.StatusGenerated.Rank(), domain.StatusSaved.Rank())
	assert.Less(t, domain.StatusSaved.Rank(), domain.StatusApproved.Rank())
	assert.False(t, domain.Status("DRAFT").Valid())
}

func TestItinerary_CloneIsIndependent(t *testing.T) {
	id := int64(7)
	days := 3
	it := domain.Itinerary{
		ID:          &id,
		Preferences: domain.Preferences{Destination: "Rome", Days: &days},
		Payload:     domain.Payload(`{"a":1}`),
		Status:      domain.StatusSaved,
	}

	c := it.Clone()
	*c.ID = 8
	*c.Preferences.Days = 9
	c.Payload[1] = 'x'

	assert.Equal(t, int64(7), *it.ID)
	assert.Equal(t, 3, *it.Preferences.Days)
	assert.Equal(t, `{"a":1}`, string(it.Payload))
}
