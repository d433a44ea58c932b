package bot

import (
	"fmt"
	"strings"
	"time"

	"queuebot/internal/board"
	"queuebot/internal/confirm"
	"queuebot/internal/queue"

	"github.com/bwmarrin/discordgo"
)

// Use "teal" color for the bot
const color int = 0x008080

// Orange for the prompts awaiting confirmation
const colorConfirm int = 0xe67e22

// Select menus cannot hold more options than this
const maxSelectOptions = 25

func InputNotValid(errorMessage string) []Response {

	return []Response{ResponseString{fmt.Sprintf("Input not valid: \n> %s", errorMessage)}}
}

func NotAdministrator(prefix string, command string) []Response {
	return []Response{ResponseString{fmt.Sprintf("You need the Administrator permission to use `%s%s`", prefix, command)}}
}

func HelpMessage(prefix string) []Response {

	embed := discordgo.MessageEmbed{Title: "Commands available", Color: color}
	commands := []struct{ name, description string }{
		{"createqueue", "Delete the queue boards and publish fresh ones (admin)"},
		{"queue status", "Print the state of the queue"},
		{"queue open", "Let new players join the queue (admin)"},
		{"queue close", "Stop new players from joining, the ones queued keep their place (admin)"},
		{"queue enable", "Turn the queue feature back on and publish the boards (admin)"},
		{"queue disable", "Turn the queue feature off and take the boards down (admin)"},
		{"purgeafter <YYYY-MM-DD HH:MM:SS>", "Delete every message of this channel sent after the UTC timestamp (admin)"},
		{"logeverymessage", "Add the whole history of every text channel to the moderation log (admin)"},
		{"help", "Print the usage of the different commands"},
	}
	for _, command := range commands {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   fmt.Sprintf("`%s%s`", prefix, command.name),
			Value:  command.description,
			Inline: false,
		})
	}
	return []Response{ResponseEmbed{embed}}
}

func SomethingWentWrong() []Response {
	return []Response{ResponseString{"Something went wrong, please try again later"}}
}

func QueueCreated(channelIds ...string) []Response {
	mentions := make([]string, 0, len(channelIds))
	for _, channelId := range channelIds {
		mentions = append(mentions, fmt.Sprintf("<#%s>", channelId))
	}
	return []Response{ResponseString{fmt.Sprintf("Queue created in %s", strings.Join(mentions, " and "))}}
}

func QueueIsDisabled(prefix string) []Response {
	return []Response{ResponseString{fmt.Sprintf("The queue is disabled. Use `%squeue enable` to turn it back on", prefix)}}
}

func QueueStatus(entries []queue.Entry, accepting bool, disabled bool) []Response {

	embed := discordgo.MessageEmbed{Title: "Queue status", Color: color}
	state := "Open"
	switch {
	case disabled:
		state = "Disabled"
	case !accepting:
		state = "Closed"
	}
	subscribers := 0
	for _, entry := range entries {
		if entry.Priority == queue.Subscriber {
			subscribers++
		}
	}
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "State", Value: state, Inline: true},
		{Name: "Players", Value: fmt.Sprint(len(entries)), Inline: true},
		{Name: "Subscribers", Value: fmt.Sprint(subscribers), Inline: true},
	}
	if len(entries) > 0 {
		next := entries[0]
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Next up",
			Value:  fmt.Sprintf("%s (waiting since %s)", next.DisplayName, next.JoinedAt.UTC().Format(timestampFormat)),
			Inline: false,
		})
	}
	return []Response{ResponseEmbed{embed}}
}

func AcceptingChanged(accepting bool) []Response {
	return []Response{ResponseString{acceptingMessage(accepting)}}
}

func acceptingMessage(accepting bool) string {
	if accepting {
		return "The queue is now open to new players"
	}
	return "The queue is now closed to new players"
}

func QueueEnabled() []Response {
	return []Response{ResponseString{"The queue is enabled and the boards are published"}}
}

func QueueDisabled() []Response {
	return []Response{ResponseString{"The queue is disabled and the boards were taken down"}}
}

func MessagesPurged(count int, after time.Time) []Response {
	return []Response{ResponseString{fmt.Sprintf("Deleted %d messages after %s UTC.", count, after.UTC().Format(timestampFormat))}}
}

func MessagesLogged(count int) []Response {
	return []Response{ResponseString{fmt.Sprintf("Logged %d messages across all channels.", count)}}
}

// 1st, 2nd, 3rd, 4th ... 11th, 12th, 13th ... 21st
func Ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}

// Replies to the buttons and menus

func replyText(content string) Reply {
	return Reply{Content: content}
}

func JoinedReply(class queue.PriorityClass) Reply {
	if class == queue.Subscriber {
		return replyText("You've been added to the queue as a Twitch subscriber!")
	}
	return replyText("You've been added to the queue!")
}

func AlreadyQueuedReply() Reply { return replyText("You're already in the queue!") }

func QueueClosedReply() Reply {
	return replyText("The queue is currently closed to new players.")
}

func QueueDisabledReply() Reply { return replyText("The queue is currently disabled.") }

func NotQueuedReply() Reply { return replyText("You are not in the queue!") }

func FailureReply() Reply { return replyText("Something went wrong, please try again later.") }

func PlaceReply(position queue.Position) Reply {
	return replyText(fmt.Sprintf("You are currently %s place in line out of %d players in the queue.", Ordinal(position.Rank), position.Total))
}

func NotYourPromptReply() Reply {
	return replyText("Only the person who asked can answer this prompt.")
}

func confirmationPrompt(action confirm.Action, token string, title string, description string, yesLabel string) Reply {
	return Reply{
		Embed: &discordgo.MessageEmbed{Title: title, Description: description, Color: colorConfirm},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{Label: yesLabel, Style: discordgo.DangerButton, CustomID: confirmId(action, token, true)},
				discordgo.Button{Label: "Cancel", Style: discordgo.SecondaryButton, CustomID: confirmId(action, token, false)},
			}},
		},
	}
}

func LeavePromptReply(token string) Reply {
	return confirmationPrompt(confirm.ActionLeave, token, "Confirm Leave", "Are you sure you want to leave the queue?", "Yes, Leave")
}

func LeftReply() Reply { return Reply{Content: "Successfully left the queue.", Update: true} }

func LeaveCancelledReply() Reply { return Reply{Content: "Cancelled leaving the queue.", Update: true} }

func ClearPromptReply(token string, count int) Reply {
	description := fmt.Sprintf("Are you sure you want to remove all %d players from the queue?", count)
	return confirmationPrompt(confirm.ActionClear, token, "Confirm Clear", description, "Yes, Clear")
}

func ClearedReply(count int) Reply {
	return Reply{Content: fmt.Sprintf("Cleared %d players from the queue.", count), Update: true}
}

func ClearCancelledReply() Reply { return Reply{Content: "Cancelled clearing the queue.", Update: true} }

func PulledReply(entry queue.Entry) Reply {
	return replyText(fmt.Sprintf("Pulled %s from the queue!", entry.DisplayName))
}

func NothingToPullReply(only *queue.PriorityClass) Reply {
	if only != nil && *only == queue.Subscriber {
		return replyText("No subscribers in queue to pull!")
	}
	return replyText("No users in queue to pull!")
}

func EmptyQueueReply() Reply { return replyText("No users in queue to pick from!") }

func PickPromptReply(entries []queue.Entry) Reply {

	options := make([]discordgo.SelectMenuOption, 0, maxSelectOptions)
	for i, entry := range entries {
		if i == maxSelectOptions {
			break
		}
		description := fmt.Sprintf("%s in line", Ordinal(i+1))
		if entry.Priority == queue.Subscriber {
			description += ", subscriber"
		}
		options = append(options, discordgo.SelectMenuOption{
			Label:       entry.DisplayName,
			Value:       string(entry.ParticipantId),
			Description: description,
		})
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Select User to Pull",
		Description: "Choose a user from the queue to pull",
		Color:       color,
	}
	if len(entries) > maxSelectOptions {
		embed.Description += fmt.Sprintf(". Only the first %d are listed", maxSelectOptions)
	}
	return Reply{
		Embed: embed,
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					MenuType:    discordgo.StringSelectMenu,
					CustomID:    board.ActionPickSelect,
					Placeholder: "Choose a user...",
					Options:     options,
				},
			}},
		},
	}
}

func PickedReply(entry queue.Entry) Reply {
	return Reply{Content: fmt.Sprintf("Pulled %s from the queue!", entry.DisplayName), Update: true}
}

func PickedMissingReply() Reply { return Reply{Content: "User not found!", Update: true} }

func AcceptingReply(accepting bool) Reply { return replyText(acceptingMessage(accepting) + ".") }
