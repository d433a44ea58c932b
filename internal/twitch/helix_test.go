package twitch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"queuebot/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTwitch struct {
	tokenRequests atomic.Int32
	live          atomic.Bool
	rejectToken   atomic.Bool
}

func (twitch *fakeTwitch) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "client_credentials", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "secret", r.URL.Query().Get("client_secret"))
		n := twitch.tokenRequests.Add(1)
		fmt.Fprintf(w, `{"access_token":"token-%d","expires_in":3600,"token_type":"bearer"}`, n)
	})
	mux.HandleFunc("/helix/streams", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "client", r.Header.Get("Client-ID"))
		if twitch.rejectToken.Load() {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		if !twitch.live.Load() {
			fmt.Fprint(w, `{"data":[],"pagination":{}}`)
			return
		}
		login := r.URL.Query().Get("user_login")
		fmt.Fprintf(w, `{"data":[{"id":"42","user_login":"%s","user_name":"Streamer","game_name":"Chess","title":"Ranked","viewer_count":17,"started_at":"2024-05-01T18:00:00Z"}]}`, login)
	})
	return mux
}

func newTestHelix(t *testing.T) (*Helix, *fakeTwitch) {
	t.Helper()
	twitch := &fakeTwitch{}
	server := httptest.NewServer(twitch.handler(t))
	t.Cleanup(server.Close)

	helix := NewHelix("client", "secret", 5*time.Second)
	helix.authSchema = server.URL
	helix.apiSchema = server.URL
	return helix, twitch
}

func TestGetStream(t *testing.T) {
	ctx := context.Background()
	helix, twitch := newTestHelix(t)

	_, live, err := helix.GetStream(ctx, "streamer")
	require.NoError(t, err)
	assert.False(t, live)

	twitch.live.Store(true)
	stream, live, err := helix.GetStream(ctx, "streamer")
	require.NoError(t, err)
	require.True(t, live)
	assert.Equal(t, "streamer", stream.UserLogin)
	assert.Equal(t, "Ranked", stream.Title)
	assert.Equal(t, 17, stream.Viewers)
	assert.Equal(t, time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC), stream.StartedAt.UTC())

	// The token was cached between the two calls
	assert.Equal(t, int32(1), twitch.tokenRequests.Load())
}

func TestGetStreamForgetsRejectedToken(t *testing.T) {
	ctx := context.Background()
	helix, twitch := newTestHelix(t)

	twitch.rejectToken.Store(true)
	_, _, err := helix.GetStream(ctx, "streamer")
	require.Error(t, err)
	assert.True(t, common.HasStatus(err, common.UNAUTHORIZED))
	assert.Empty(t, helix.token)
}

func TestUnmarshalToken(t *testing.T) {
	received, err := UnmarshalToken([]byte(`{"access_token":"abc","expires_in":60}`))
	require.NoError(t, err)
	assert.Equal(t, "abc", received.value)
	assert.Equal(t, time.Minute, received.expiresIn)

	_, err = UnmarshalToken([]byte(`{"status":400,"message":"invalid client"}`))
	assert.Error(t, err)
}
