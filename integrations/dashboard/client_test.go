package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublish(t *testing.T) {
	var got Update
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/listener/update", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	c, err := NewClient("secret", srv.URL+"/")
	require.NoError(t, err)

	update := Update{
		ListenerID: "l-1",
		Dialect:    "zod",
		Schemas:    []Schema{{Method: "GET", URL: "/users/{arg1}", Source: "z.object({})"}},
	}
	require.NoError(t, c.Publish(context.Background(), update))
	assert.Equal(t, update, got)
}

func TestPublishUnexpectedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, err := NewClient("secret", srv.URL)
	require.NoError(t, err)
	err = c.Publish(context.Background(), Update{})
	assert.ErrorIs(t, err, ErrUnexpectedResponse)
}

func TestPublishCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	c, err := NewClient("secret", srv.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.Publish(ctx, Update{}), context.Canceled)
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient("", "http://localhost")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}
