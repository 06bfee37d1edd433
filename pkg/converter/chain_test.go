package converter

import (
	"testing"

	"github.com/edgeflare/smtconv/pkg/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChain(t *testing.T) {
	counter := &countingTransform{}

	t.Run("empty chain is identity", func(t *testing.T) {
		rec := connect.NewRecord("t", nil, "v")
		out, err := Chain(nil).Apply(rec)
		require.NoError(t, err)
		assert.Same(t, rec, out)
	})

	t.Run("input is not modified", func(t *testing.T) {
		rec := connect.NewRecord("t", nil, "v")
		out, err := Chain{{Alias: "u", Transformation: upperTransform{}}}.Apply(rec)
		require.NoError(t, err)
		assert.Equal(t, "V", out.Value)
		assert.Equal(t, "v", rec.Value)
	})

	t.Run("drop stops the fold", func(t *testing.T) {
		chain := Chain{
			{Alias: "d", Transformation: dropTransform{}},
			{Alias: "c", Transformation: counter},
		}
		out, idx, err := chain.apply(connect.NewRecord("t", nil, "v"))
		require.NoError(t, err)
		assert.Nil(t, out)
		assert.Equal(t, 1, idx)
		assert.Zero(t, counter.calls.Load())
	})

	t.Run("error reports stage", func(t *testing.T) {
		chain := Chain{
			{Alias: "c", Transformation: counter},
			{Alias: "f", Transformation: failTransform{}},
		}
		_, idx, err := chain.apply(connect.NewRecord("t", nil, "v"))
		assert.ErrorIs(t, err, errBoom)
		assert.Equal(t, 1, idx)
		assert.Equal(t, []string{"c", "f"}, chain.Aliases())
	})
}
