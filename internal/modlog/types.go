package modlog

import (
	"fmt"
	"time"
)

const timestampLayout = "2006-01-02 15:04:05"

type Member struct {
	Id      string
	Name    string
	GuildId string
}

func (member Member) Mention() string {
	return fmt.Sprintf("<@%s>", member.Id)
}

// A chat message, as much as the audit trail needs of it
type Message struct {
	Id          string
	GuildId     string
	ChannelId   string
	ChannelName string
	AuthorId    string
	AuthorName  string
	Bot         bool
	Content     string
	CreatedAt   time.Time
	EditedAt    time.Time
}

func (message Message) JumpUrl() string {
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", message.GuildId, message.ChannelId, message.Id)
}

type Channel struct {
	Id   string
	Name string
}

// Record is what the log keeps of every message, timestamps already in the log timezone
type Record struct {
	AuthorId    string `json:"author_id"`
	AuthorName  string `json:"author_name"`
	ChannelId   string `json:"channel_id"`
	ChannelName string `json:"channel_name"`
	Content     string `json:"content"`
	CreatedAt   string `json:"created_at"`
	EditedAt    string `json:"edited_at,omitempty"`
	JumpUrl     string `json:"jump_url"`
}
