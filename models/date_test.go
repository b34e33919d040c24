package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	madrid := time.FixedZone("CEST", 2*60*60)

	got, err := ParseDate("2025-05-01T00:00:00.000Z", madrid)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)))

	got, err = ParseDate("2025-05-01", madrid)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2025, 5, 1, 0, 0, 0, 0, madrid)))

	got, err = ParseDate(" 2025-05-01T10:30:00 ", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Hour())

	for _, bad := range []string{"", "mañana", "2025-13-01", "01/05/2025"} {
		_, err := ParseDate(bad, time.UTC)
		assert.Error(t, err, bad)
	}
}

func TestProductPriceAcceptsNumberOrString(t *testing.T) {
	var p Product
	require.NoError(t, json.Unmarshal([]byte(`{"nombre":"Rosa","precio":"12.50"}`), &p))
	assert.True(t, p.Price.Equal(decimal.RequireFromString("12.5")))

	require.NoError(t, json.Unmarshal([]byte(`{"nombre":"Rosa","precio":12.5}`), &p))
	assert.True(t, p.Price.Equal(decimal.RequireFromString("12.5")))

	assert.Error(t, json.Unmarshal([]byte(`{"precio":"doce"}`), &p))

	out, err := json.Marshal(Product{Price: decimal.RequireFromString("12.50")})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"precio":12.5`)
}
