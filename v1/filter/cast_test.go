package filter

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/querykit/v1/queryerr"
	"github.com/Aleph-Alpha/querykit/v1/registry"
)

func TestCastNumber(t *testing.T) {
	tests := []struct {
		raw  any
		want any
	}{
		{"10", int64(10)},
		{10, int64(10)},
		{int32(10), int64(10)},
		{10.0, int64(10)},
		{" 10 ", int64(10)},
		{"2.5", 2.5},
		{json.Number("42"), int64(42)},
		{"1e3", int64(1000)},
	}

	for _, tt := range tests {
		got, err := Cast(tt.raw, registry.Number)
		require.NoError(t, err, "%v", tt.raw)
		assert.Equal(t, tt.want, got, "%v", tt.raw)
	}
}

func TestCastRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		typ  registry.SemanticType
	}{
		{"non numeric", "ten", registry.Number},
		{"empty number", "", registry.Number},
		{"nil", nil, registry.Number},
		{"bool word", "yes", registry.Boolean},
		{"bool number", 1, registry.Boolean},
		{"bool casing", "True", registry.Boolean},
		{"bad date", "last tuesday", registry.Date},
		{"fractional epoch", 1.5, registry.Date},
		{"map as string", map[string]any{"a": 1}, registry.String},
		{"bad array element", "1,x", registry.Array(registry.Number)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CastField("f", tt.raw, tt.typ)
			require.ErrorIs(t, err, queryerr.ErrCastError)

			var qe *queryerr.Error
			require.ErrorAs(t, err, &qe)
			assert.Equal(t, "f", qe.Field)
		})
	}
}

func TestCastBoolean(t *testing.T) {
	for raw, want := range map[any]bool{"true": true, "false": false, true: true, false: false} {
		got, err := Cast(raw, registry.Boolean)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestCastDate(t *testing.T) {
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	for _, raw := range []any{"2024-03-01", "2024-03-01T00:00:00Z", "2024-03-01T01:00:00+01:00", want.Unix(), "1709251200"} {
		got, err := Cast(raw, registry.Date)
		require.NoError(t, err, "%v", raw)
		assert.True(t, want.Equal(got.(time.Time)), "%v -> %v", raw, got)
	}
}

func TestCastString(t *testing.T) {
	got, err := Cast(42, registry.String)
	require.NoError(t, err)
	assert.Equal(t, "42", got)

	got, err = Cast(2.5, registry.String)
	require.NoError(t, err)
	assert.Equal(t, "2.5", got)
}

func TestCastArray(t *testing.T) {
	got, err := Cast("6, 14;22", registry.Array(registry.Number))
	require.NoError(t, err)
	assert.Equal(t, []any{int64(6), int64(14), int64(22)}, got)

	got, err = Cast([]any{"6", 14}, registry.Array(registry.Number))
	require.NoError(t, err)
	assert.Equal(t, []any{int64(6), int64(14)}, got)

	got, err = Cast(7, registry.Array(registry.Number))
	require.NoError(t, err)
	assert.Equal(t, []any{int64(7)}, got)

	got, err = CastList("tags", []string{"rpg", " action "}, registry.String)
	require.NoError(t, err)
	assert.Equal(t, []any{"rpg", " action "}, got)
}
