package server

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type EntryResponse struct {
	Rank          int       `json:"rank"`
	ParticipantId string    `json:"participant_id"`
	DisplayName   string    `json:"display_name"`
	Priority      string    `json:"priority"`
	JoinedAt      time.Time `json:"joined_at"`
}

type QueueResponse struct {
	Accepting bool            `json:"accepting"`
	Total     int             `json:"total"`
	Entries   []EntryResponse `json:"entries"`
}

type PositionResponse struct {
	ParticipantId string `json:"participant_id"`
	Rank          int    `json:"rank"`
	Total         int    `json:"total"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
