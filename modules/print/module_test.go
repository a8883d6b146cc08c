package print

import (
	"bytes"
	"context"
	"testing"

	"github.com/specialistvlad/actionflow/internal/action"
	"github.com/specialistvlad/actionflow/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestPrint_RunAndCompensate(t *testing.T) {
	var out bytes.Buffer
	r := registry.New()
	require.NoError(t, (&Module{Out: &out}).Register(r))

	def, ok := r.Get(ActionID)
	require.True(t, ok)
	comp, ok := def.Compensator()
	require.True(t, ok, "print must be compensatable")

	ctx := action.WithCallID(context.Background(), "greet")
	args := cty.ObjectVal(map[string]cty.Value{
		"message": cty.StringVal("hello"),
		"values": cty.MapVal(map[string]cty.Value{
			"b": cty.StringVal("2"),
			"a": cty.StringVal("1"),
		}),
	})

	res, err := def.Handler.Run(ctx, args, nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", res)
	assert.Equal(t, "[greet]\n      hello\n      a = \"1\"\n      b = \"2\"\n", out.String())

	out.Reset()
	require.NoError(t, comp.Compensate(ctx, args, res, nil))
	assert.Equal(t, "[greet] rollback: hello\n", out.String())
}

func TestPrint_EmptyArguments(t *testing.T) {
	var out bytes.Buffer
	m := &Module{Out: &out}

	res, err := m.run(action.WithCallID(context.Background(), "p"), cty.EmptyObjectVal, nil)
	require.NoError(t, err)
	assert.Equal(t, "", res)
	assert.Equal(t, "[p]\n      (null)\n", out.String())
}

func TestPrint_InvalidArgumentsArePermanent(t *testing.T) {
	m := &Module{Out: &bytes.Buffer{}}

	_, err := m.run(context.Background(), cty.ObjectVal(map[string]cty.Value{
		"values": cty.StringVal("not a map"),
	}), nil)
	require.Error(t, err)
	assert.True(t, action.IsPermanent(err))
}
