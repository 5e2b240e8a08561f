package analyzer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bdougie/ytframes/internal/models"
)

func ollamaServer(t *testing.T, status int) OllamaOptions {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	return OllamaOptions{BaseURL: "http://" + u.Hostname(), Port: port, Model: "llava"}
}

func TestNewOllamaReachable(t *testing.T) {
	o := NewOllama(context.Background(), ollamaServer(t, http.StatusOK), discard())

	require.NoError(t, o.err)
	assert.NotNil(t, o.agent)
}

func TestNewOllamaUnreachableDegrades(t *testing.T) {
	o := NewOllama(context.Background(), ollamaServer(t, http.StatusInternalServerError), discard())
	require.Error(t, o.err)
	assert.Nil(t, o.agent)

	_, err := o.Ask(context.Background(), VisionPrompt, "frame.png")
	assert.ErrorContains(t, err, "ollama unavailable")

	got := NewVision(OllamaName, o, discard()).Classify(context.Background(), "frame.png")
	assert.Equal(t, models.Other, got.Classification)
	assert.Equal(t, 0.5, got.Confidence)
	assert.True(t, got.Degraded)
}

func TestNewOllamaFromFactory(t *testing.T) {
	c, err := New(context.Background(), OllamaName, Options{Ollama: ollamaServer(t, http.StatusOK)}, discard())
	require.NoError(t, err)
	assert.Equal(t, OllamaName, c.Name())
}
