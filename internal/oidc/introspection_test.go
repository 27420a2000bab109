package oidc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invitely/eventhub/internal/config"
	"invitely/eventhub/internal/service"
)

func newProvider(t *testing.T) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"issuer":                 srv.URL,
			"token_endpoint":         srv.URL + "/oauth/token",
			"introspection_endpoint": srv.URL + "/oauth/introspect",
			"jwks_uri":               srv.URL + "/keys",
		})
	})
	mux.HandleFunc("/oauth/introspect", func(w http.ResponseWriter, r *http.Request) {
		id, secret, ok := r.BasicAuth()
		if !ok || id != "eventhub" || secret != "s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = r.ParseForm()
		w.Header().Set("Content-Type", "application/json")
		switch r.PostForm.Get("token") {
		case "good":
			_, _ = w.Write([]byte(`{"active":true,"sub":"user-1","username":"Alice"}`))
		case "anonymous":
			_, _ = w.Write([]byte(`{"active":true,"sub":"user-2"}`))
		default:
			_, _ = w.Write([]byte(`{"active":false}`))
		}
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestIntrospectionAuthenticator(t *testing.T) {
	ctx := context.Background()
	srv := newProvider(t)

	auth, err := NewIntrospectionAuthenticator(ctx, config.OIDCConfig{
		Issuer:       srv.URL,
		ClientID:     "eventhub",
		ClientSecret: "s3cret",
	})
	require.NoError(t, err)

	sender, err := auth.Authenticate(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, "user-1", sender.ID)
	assert.Equal(t, "Alice", sender.Name)

	sender, err = auth.Authenticate(ctx, "anonymous")
	require.NoError(t, err)
	assert.Equal(t, "Organizer", sender.Name)

	_, err = auth.Authenticate(ctx, "revoked")
	assert.ErrorIs(t, err, service.ErrUnauthenticated)
}
