package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalmt/hct/internal/errs"
)

type decodeTarget struct {
	Confidence float64 `json:"confidence"`
	Term       string  `json:"term"`
}

func TestDecodeJSON_Success(t *testing.T) {
	resp := &ChatResponse{Content: `{"confidence":0.9,"term":"force majeure"}`}
	var out decodeTarget
	require.NoError(t, DecodeJSON(resp, &out))
	assert.Equal(t, 0.9, out.Confidence)
	assert.Equal(t, "force majeure", out.Term)
}

func TestDecodeJSON_InvalidJSON(t *testing.T) {
	resp := &ChatResponse{Content: "not json at all"}
	var out decodeTarget
	err := DecodeJSON(resp, &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.SchemaError)
}

func TestDecodeJSON_NilResponse(t *testing.T) {
	var out decodeTarget
	err := DecodeJSON(nil, &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.SchemaError)
}
