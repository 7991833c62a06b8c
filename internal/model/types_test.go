package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderMarshalJSON_FixedFieldsWinOverPayload(t *testing.T) {
	o := Order{
		Number:     "n-1",
		Region:     "CA",
		RegionKind: RegionJurisdiction,
		Requester:  "req@example.test",
		StartedAt:  time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		Payload: map[string]any{
			"region":    "NY",
			"state":     "TX",
			"caseTitle": "Doe v. Roe",
		},
	}
	raw, err := json.Marshal(o)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "CA", got["region"])
	assert.Equal(t, "CA", got["state"])
	assert.Equal(t, "Doe v. Roe", got["caseTitle"])
	assert.Equal(t, []any{}, got["plaintiffs"])
	assert.True(t, IsReservedOrderKey("region"))
}
