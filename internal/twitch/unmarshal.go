package twitch

import (
	"encoding/json"
	"fmt"
	"time"
)

func UnmarshalToken(data []byte) (token, error) {

	var raw struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return token{}, err
	}
	if raw.AccessToken == "" {
		return token{}, fmt.Errorf("no access token in response")
	}
	return token{value: raw.AccessToken, expiresIn: time.Duration(raw.ExpiresIn) * time.Second}, nil
}

func UnmarshalStreams(data []byte) ([]Stream, error) {

	var raw struct {
		Data []struct {
			Id          string    `json:"id"`
			UserLogin   string    `json:"user_login"`
			UserName    string    `json:"user_name"`
			GameName    string    `json:"game_name"`
			Title       string    `json:"title"`
			ViewerCount int       `json:"viewer_count"`
			StartedAt   time.Time `json:"started_at"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	streams := make([]Stream, 0, len(raw.Data))
	for _, stream := range raw.Data {
		streams = append(streams, Stream{
			Id:        stream.Id,
			UserLogin: stream.UserLogin,
			UserName:  stream.UserName,
			GameName:  stream.GameName,
			Title:     stream.Title,
			Viewers:   stream.ViewerCount,
			StartedAt: stream.StartedAt,
		})
	}
	return streams, nil
}
