package nodeio

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"t2nodes/pkg/contract"
)

type sample struct {
	Count int    `json:"count" validate:"gte=1,lte=10"`
	Mode  string `json:"mode" validate:"oneof=a b"`
	Note  string `json:"note"`
}

func TestDecodeKeepsDefaults(t *testing.T) {
	v := sample{Count: 3, Mode: "a", Note: "keep"}
	require.NoError(t, Decode(json.RawMessage(`{"count":5}`), &v))
	assert.Equal(t, sample{Count: 5, Mode: "a", Note: "keep"}, v)

	require.NoError(t, Decode(nil, &v))
	require.NoError(t, Decode(json.RawMessage("  "), &v))
	assert.Equal(t, 5, v.Count)
}

func TestDecodeRejects(t *testing.T) {
	cases := map[string]string{
		"unknown field": `{"count":1,"extra":true}`,
		"wrong type":    `{"count":"x"}`,
		"trailing":      `{"count":1} {"count":2}`,
		"broken":        `{"count":`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			var v sample
			err := Decode(json.RawMessage(raw), &v)
			require.Error(t, err)
			assert.ErrorIs(t, err, contract.ErrInvalidInput)
		})
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(sample{Count: 1, Mode: "b"}))

	err := Validate(sample{Count: 0, Mode: "c"})
	require.Error(t, err)
	assert.ErrorIs(t, err, contract.ErrInvalidInput)
	assert.Contains(t, err.Error(), "count: failed gte=1")
	assert.Contains(t, err.Error(), "mode: failed oneof=a b")
}

func TestCtxErr(t *testing.T) {
	assert.NoError(t, CtxErr(context.Background()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, CtxErr(ctx), context.Canceled)
}
