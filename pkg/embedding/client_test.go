package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbed(t *testing.T) {
	t.Run("sends model and input, returns vector", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/embeddings", r.URL.Path)
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

			var req embedRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "test-model", req.Model)
			assert.Equal(t, "go meetup", req.Input)

			json.NewEncoder(w).Encode(embedResponse{Vector: []float64{0.1, 0.2, 0.3}})
		}))
		defer server.Close()

		client := NewClient(server.URL, "secret", "test-model", time.Second)
		vector, err := client.Embed(context.Background(), "go meetup")
		require.NoError(t, err)
		assert.Equal(t, []float64{0.1, 0.2, 0.3}, vector)
	})

	t.Run("non-200 status is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		client := NewClient(server.URL, "", "test-model", time.Second)
		_, err := client.Embed(context.Background(), "go meetup")
		assert.Error(t, err)
	})

	t.Run("empty vector is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(embedResponse{})
		}))
		defer server.Close()

		client := NewClient(server.URL, "", "test-model", time.Second)
		_, err := client.Embed(context.Background(), "go meetup")
		assert.Error(t, err)
	})

	t.Run("unreachable provider is an error", func(t *testing.T) {
		client := NewClient("http://127.0.0.1:1", "", "test-model", 100*time.Millisecond)
		_, err := client.Embed(context.Background(), "go meetup")
		assert.Error(t, err)
	})
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    []float64
		b    []float64
		want float64
	}{
		{"identical vectors", []float64{1, 2, 3}, []float64{1, 2, 3}, 1},
		{"opposite vectors", []float64{1, 0}, []float64{-1, 0}, -1},
		{"orthogonal vectors", []float64{1, 0}, []float64{0, 1}, 0},
		{"mismatched lengths", []float64{1, 2}, []float64{1, 2, 3}, 0},
		{"zero vector", []float64{0, 0}, []float64{1, 2}, 0},
		{"empty vectors", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}
