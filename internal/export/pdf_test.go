package export

import (
	"bytes"
	"testing"

	"github.com/Rrens/trip-planner/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(id *int64) *domain.Itinerary {
	days := 2
	return &domain.Itinerary{
		ID: id,
		Preferences: domain.Preferences{
			Destination: "Kyoto",
			Days:        &days,
			Budget:      domain.BudgetLuxury,
		},
		Payload: domain.Payload(`{"meta":{"destination":"Kyoto","days":2,"budget":"luxury"},` +
			`"flights":[{}],"hotels":[{},{}],"co2_kg":412.5,` +
			`"day_plan":[{"day":1,"activities":["Fushimi Inari"]},{"day":2,"activities":[{"name":"Tea ceremony"}]}]}`),
		Status: domain.StatusSaved,
	}
}

func TestShareLink(t *testing.T) {
	id := int64(9)
	assert.Equal(t, "http://localhost:8000/api/planner/history/9/", ShareLink("http://localhost:8000/", sample(&id)))
	assert.Equal(t, "Kyoto, 2 days, luxury", ShareLink("http://localhost:8000", sample(nil)))
}

func TestPDF(t *testing.T) {
	id := int64(9)
	var buf bytes.Buffer

	require.NoError(t, PDF(&buf, sample(&id), "http://localhost:8000"))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 1000)
}

func TestPDF_EmptyPayload(t *testing.T) {
	var buf bytes.Buffer
	it := sample(nil)
	it.Payload = nil

	require.NoError(t, PDF(&buf, it, ""))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}
