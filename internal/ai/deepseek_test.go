package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAsk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "deepseek-chat", req.Model)
		require.Len(t, req.Messages, 2)
		require.Equal(t, "user", req.Messages[1].Role)

		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"42"}}]}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", "secret", 2*time.Second)
	answer, err := client.Ask(context.Background(), "meaning of life?")
	require.NoError(t, err)
	require.Equal(t, "42", answer)
}

func TestAsk_StatusMapping(t *testing.T) {
	for status, want := range map[int]error{
		http.StatusUnauthorized:    ErrUnauthorized,
		http.StatusPaymentRequired: ErrQuotaExceeded,
		http.StatusTooManyRequests: ErrRateLimited,
	} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		client := NewClient(srv.URL+"/", "secret", 2*time.Second)
		_, err := client.Ask(context.Background(), "hi")
		require.ErrorIs(t, err, want)
		srv.Close()
	}
}

func TestAsk_NoKey(t *testing.T) {
	client := NewClient("", "", 2*time.Second)
	require.False(t, client.Enabled())

	_, err := client.Ask(context.Background(), "hi")
	require.ErrorIs(t, err, ErrNoAPIKey)
}
