package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProblem_MarshalFlattensExtensions(t *testing.T) {
	p := ValidationError(map[string]string{"image_url": "image_url is a required field"})

	b, err := json.Marshal(p)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, "Validation Error", out["title"])
	assert.Equal(t, float64(http.StatusBadRequest), out["status"])
	assert.Equal(t, typeBase+"validation", out["type"])
	assert.Equal(t, map[string]interface{}{"image_url": "image_url is a required field"}, out["errors"])
}

func TestProblem_LogNotSerialised(t *testing.T) {
	cause := errors.New("database is locked")
	p := InternalError("Failed to read settings", cause)

	b, err := json.Marshal(p)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "database is locked")
	assert.ErrorIs(t, p, cause)
}

func TestExhaustedError(t *testing.T) {
	p := ExhaustedError("No AI provider could generate a response.", []string{"openai"}, nil)
	assert.Equal(t, http.StatusBadGateway, p.Status)
	assert.Equal(t, []string{"openai"}, p.Extensions["attempts"])
}
