// Package twitch watches a Twitch channel and announces when it goes live
package twitch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"queuebot/internal/common"

	"github.com/rs/zerolog/log"
)

const (
	AUTH_SCHEMA = "https://id.twitch.tv"
	API_SCHEMA  = "https://api.twitch.tv"
)

// Routes
const (
	ROUTE_TOKEN   = "/oauth2/token"
	ROUTE_STREAMS = "/helix/streams?user_login=%s"
)

// Renew the token a bit before Twitch considers it expired
const tokenMargin = time.Minute

type Helix struct {
	clientId     string
	clientSecret string
	authSchema   string
	apiSchema    string
	proxy        common.Proxy

	mutex     sync.Mutex
	token     string
	stopwatch common.Stopwatch
}

func NewHelix(clientId string, clientSecret string, timeout time.Duration) *Helix {
	return &Helix{
		clientId:     clientId,
		clientSecret: clientSecret,
		authSchema:   AUTH_SCHEMA,
		apiSchema:    API_SCHEMA,
		proxy:        common.NewProxy(map[string]string{"Client-ID": clientId}, timeout),
	}
}

// Get the live stream of the user, if any
func (helix *Helix) GetStream(ctx context.Context, login string) (Stream, bool, error) {

	accessToken, err := helix.accessToken(ctx)
	if err != nil {
		return Stream{}, false, err
	}

	address := helix.apiSchema + fmt.Sprintf(ROUTE_STREAMS, url.QueryEscape(login))
	log.Debug().Msg(fmt.Sprintf("Requesting to url %s", address))
	data, err := helix.proxy.Request(ctx, http.MethodGet, address, map[string]string{"Authorization": "Bearer " + accessToken})
	if common.HasStatus(err, common.UNAUTHORIZED) {
		// Revoked before its expiry, ask for a new one next time
		helix.forgetToken()
	}
	if err != nil {
		return Stream{}, false, fmt.Errorf("could not request stream of %s: %w", login, err)
	}

	streams, err := UnmarshalStreams(data)
	if err != nil {
		return Stream{}, false, err
	}
	if len(streams) == 0 {
		return Stream{}, false, nil
	}
	return streams[0], true, nil
}

// Client credentials token, cached until it expires
func (helix *Helix) accessToken(ctx context.Context) (string, error) {
	helix.mutex.Lock()
	defer helix.mutex.Unlock()

	if helix.token != "" && !helix.stopwatch.Expired() {
		return helix.token, nil
	}
	log.Debug().Msg("Requesting a new app access token")

	query := url.Values{}
	query.Set("client_id", helix.clientId)
	query.Set("client_secret", helix.clientSecret)
	query.Set("grant_type", "client_credentials")
	data, err := helix.proxy.Request(ctx, http.MethodPost, helix.authSchema+ROUTE_TOKEN+"?"+query.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("could not request access token: %w", err)
	}

	received, err := UnmarshalToken(data)
	if err != nil {
		return "", err
	}
	timeout := received.expiresIn - tokenMargin
	if timeout <= 0 {
		timeout = received.expiresIn
	}
	helix.token = received.value
	helix.stopwatch = common.NewStopwatch(timeout)
	helix.stopwatch.Start()
	log.Info().Msg(fmt.Sprintf("New app access token valid for %s", received.expiresIn))
	return helix.token, nil
}

func (helix *Helix) forgetToken() {
	helix.mutex.Lock()
	defer helix.mutex.Unlock()
	helix.token = ""
}
