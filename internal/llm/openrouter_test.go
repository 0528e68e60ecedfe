package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BerylCAtieno/health-records-api/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithoutKeyIsUnconfigured(t *testing.T) {
	c := New(OpenRouterOptions{}, utils.NewLogger("error"))
	assert.False(t, IsConfigured(c))

	_, err := c.Complete(context.Background(), Request{User: "hi"})
	assert.ErrorIs(t, err, ErrUnconfigured)
}

func TestCompleteSendsSchema(t *testing.T) {
	var got OpenRouterRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"ok\":true}"}}]}`))
	}))
	defer srv.Close()

	c := New(OpenRouterOptions{APIKey: "sk-test", Model: "test/model", BaseURL: srv.URL + "/", Timeout: time.Second}, utils.NewLogger("error"))
	require.True(t, IsConfigured(c))

	out, err := c.Complete(context.Background(), Request{
		System: "sys",
		User:   "user",
		Schema: &Schema{Name: "thing", Definition: map[string]any{"type": "object"}},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)

	assert.Equal(t, "test/model", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_schema", got.ResponseFormat.Type)
	assert.True(t, got.ResponseFormat.JSONSchema.Strict)
	assert.Equal(t, "thing", got.ResponseFormat.JSONSchema.Name)
}

func TestCompleteNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New(OpenRouterOptions{APIKey: "k", BaseURL: srv.URL}, utils.NewLogger("error"))
	_, err := c.Complete(context.Background(), Request{User: "x"})
	assert.Error(t, err)
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	var p payload
	require.NoError(t, DecodeJSON(`{"name":"ok"}`, &p))
	assert.Equal(t, "ok", p.Name)

	assert.ErrorIs(t, DecodeJSON("```json\n{\"name\":\"ok\"}\n```", &p), ErrMalformedOutput)
	assert.ErrorIs(t, DecodeJSON(`{"name":"ok","extra":1}`, &p), ErrMalformedOutput)
	assert.ErrorIs(t, DecodeJSON(`{"name":"ok"} {"name":"again"}`, &p), ErrMalformedOutput)
}
