package bot

import (
	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

type Sender interface {
	SendText(channelId string, content string) error
	SendEmbed(channelId string, embed *discordgo.MessageEmbed) error
}

type ResponseString struct {
	string
}
type ResponseEmbed struct {
	discordgo.MessageEmbed
}

// A message sent to a channel in answer to a prefix command
type Response interface {
	Send(channelid string, sender Sender)
}

func (response ResponseString) Send(channelid string, sender Sender) {
	if err := sender.SendText(channelid, response.string); err != nil {
		log.Error().Err(err).Msg("Could not send response")
	}
}

func (response ResponseEmbed) Send(channelid string, sender Sender) {
	if err := sender.SendEmbed(channelid, &response.MessageEmbed); err != nil {
		log.Error().Err(err).Msg("Could not send response")
	}
}

// Reply is the answer to a button or select menu. By default it is a
// message only the user who clicked can see
type Reply struct {
	Content    string
	Embed      *discordgo.MessageEmbed
	Components []discordgo.MessageComponent
	// Replace the message that carried the component
	Update bool
	// Acknowledge without showing anything
	Silent bool
}

func (reply Reply) InteractionResponse() *discordgo.InteractionResponse {
	if reply.Silent {
		return &discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredMessageUpdate}
	}

	data := &discordgo.InteractionResponseData{Content: reply.Content, Components: reply.Components}
	if reply.Embed != nil {
		data.Embeds = []*discordgo.MessageEmbed{reply.Embed}
	}
	if reply.Update {
		// Drop the buttons of the prompt being answered
		if data.Components == nil {
			data.Components = []discordgo.MessageComponent{}
		}
		if data.Embeds == nil {
			data.Embeds = []*discordgo.MessageEmbed{}
		}
		return &discordgo.InteractionResponse{Type: discordgo.InteractionResponseUpdateMessage, Data: data}
	}
	data.Flags = discordgo.MessageFlagsEphemeral
	return &discordgo.InteractionResponse{Type: discordgo.InteractionResponseChannelMessageWithSource, Data: data}
}
