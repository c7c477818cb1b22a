package queryerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMatchesSentinel(t *testing.T) {
	err := CastError("rating", "abc", "number")

	assert.ErrorIs(t, err, ErrCastError)
	assert.NotErrorIs(t, err, ErrInvalidField)

	var qe *Error
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, "rating", qe.Field)
	assert.Equal(t, "abc", qe.Value)
	assert.Equal(t, "number", qe.Expected)
}

func TestErrorMessage(t *testing.T) {
	err := InvalidField("game", "colour", "not declared")
	assert.Equal(t, `invalid field: entity "game": field "colour": not declared`, err.Error())
}

func TestGetErrorCategory(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCategory
	}{
		{"nil", nil, CategoryUnknown},
		{"unknown entity", UnknownEntity("rocket"), CategoryClient},
		{"invalid field", InvalidField("game", "x", ""), CategoryClient},
		{"duplicate", DuplicateFilter("game", "title"), CategoryClient},
		{"cast", CastError("year", "x", "number"), CategoryClient},
		{"unsupported", Unsupported("game", "user.name", "join"), CategoryClient},
		{"backend", Backend("find", errors.New("connection refused")), CategoryBackend},
		{"wrapped client inside backend", Backend("resolve", CastError("id", "x", "number")), CategoryClient},
		{"foreign", errors.New("boom"), CategoryUnknown},
		{"wrapped foreign", fmt.Errorf("ctx: %w", errors.New("boom")), CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetErrorCategory(tt.err))
		})
	}
}

func TestBackendNil(t *testing.T) {
	assert.NoError(t, Backend("find", nil))
}

func TestBackendKeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := Backend("find", cause)

	assert.ErrorIs(t, err, ErrBackend)
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsBackendError(err))
	assert.False(t, IsClientError(err))
}
