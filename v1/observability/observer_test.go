package observability

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMulti(t *testing.T) {
	var got []string
	a := ObserverFunc(func(ctx OperationContext) { got = append(got, "a:"+ctx.Operation) })
	b := ObserverFunc(func(ctx OperationContext) { got = append(got, "b:"+ctx.Operation) })

	Multi(a, nil, b).ObserveOperation(OperationContext{Operation: "find", Error: errors.New("x")})

	assert.Equal(t, []string{"a:find", "b:find"}, got)
}
