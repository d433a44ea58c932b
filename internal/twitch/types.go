package twitch

import "time"

// A live stream as reported by Helix. Offline streamers have none
type Stream struct {
	Id        string
	UserLogin string
	UserName  string
	GameName  string
	Title     string
	Viewers   int
	StartedAt time.Time
}

type token struct {
	value     string
	expiresIn time.Duration
}
