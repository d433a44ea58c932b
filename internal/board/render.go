package board

import (
	"fmt"
	"strings"

	"queuebot/internal/queue"

	"github.com/bwmarrin/discordgo"
)

const (
	colorOpen   int = 0x3498db
	colorClosed int = 0xe67e22

	// Discord rejects embed field values longer than this
	fieldLimit = 1024
)

func Render(board Board, entries []queue.Entry, accepting bool) View {
	switch board.Kind {
	case KindControl:
		return renderControl(entries, accepting)
	default:
		return renderQueue(entries, accepting)
	}
}

func renderQueue(entries []queue.Entry, accepting bool) View {

	subscribers, standard := split(entries)
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Game Queue - %s", players(len(entries))),
		Color: colorOpen,
	}
	if accepting {
		embed.Description = "Click the buttons below to join or leave the queue"
	} else {
		embed.Description = "The queue is closed to new players. You can still leave or check your place"
		embed.Color = colorClosed
	}
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Status", Value: status(accepting), Inline: true},
		{Name: "Subscribers", Value: fmt.Sprint(len(subscribers)), Inline: true},
		{Name: "Standard", Value: fmt.Sprint(len(standard)), Inline: true},
	}

	joinLabel := "Join Queue"
	if !accepting {
		joinLabel = "Queue Closed"
	}
	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: joinLabel, Style: discordgo.SuccessButton, CustomID: ActionJoin, Disabled: !accepting},
			discordgo.Button{Label: "Leave Queue", Style: discordgo.DangerButton, CustomID: ActionLeave},
			discordgo.Button{Label: "Check My Place", Style: discordgo.PrimaryButton, CustomID: ActionCheck},
		}},
	}
	return View{Embed: embed, Components: components}
}

func renderControl(entries []queue.Entry, accepting bool) View {

	embed := &discordgo.MessageEmbed{
		Title:       "Queue Puller",
		Description: "Select an action below to pull users from queue",
		Color:       colorOpen,
	}
	if !accepting {
		embed.Color = colorClosed
	}

	// Ranks are global, lists are grouped by class
	var subscriberLines, standardLines []string
	for i, entry := range entries {
		line := fmt.Sprintf("%d. %s", i+1, entry.DisplayName)
		if entry.Priority == queue.Subscriber {
			subscriberLines = append(subscriberLines, line)
		} else {
			standardLines = append(standardLines, line)
		}
	}
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Status", Value: fmt.Sprintf("%s, %s", status(accepting), players(len(entries))), Inline: false},
		{Name: fmt.Sprintf("Subscribers (%d)", len(subscriberLines)), Value: listValue(subscriberLines), Inline: false},
		{Name: fmt.Sprintf("Standard (%d)", len(standardLines)), Value: listValue(standardLines), Inline: false},
	}

	toggleLabel := "Close Queue"
	if !accepting {
		toggleLabel = "Open Queue"
	}
	empty := len(entries) == 0
	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "Pull Top of Queue", Style: discordgo.SuccessButton, CustomID: ActionPullNext, Disabled: empty},
			discordgo.Button{Label: "Pull Top Subscriber", Style: discordgo.PrimaryButton, CustomID: ActionPullSubscriber, Disabled: len(subscriberLines) == 0},
			discordgo.Button{Label: "Pick from Queue", Style: discordgo.SecondaryButton, CustomID: ActionPick, Disabled: empty},
		}},
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: toggleLabel, Style: discordgo.SecondaryButton, CustomID: ActionToggle},
			discordgo.Button{Label: "Clear Queue", Style: discordgo.DangerButton, CustomID: ActionClear, Disabled: empty},
		}},
	}
	return View{Embed: embed, Components: components}
}

func split(entries []queue.Entry) (subscribers []queue.Entry, standard []queue.Entry) {
	for _, entry := range entries {
		if entry.Priority == queue.Subscriber {
			subscribers = append(subscribers, entry)
		} else {
			standard = append(standard, entry)
		}
	}
	return subscribers, standard
}

func status(accepting bool) string {
	if accepting {
		return "Open"
	}
	return "Closed"
}

func players(n int) string {
	if n == 1 {
		return "1 player"
	}
	return fmt.Sprintf("%d players", n)
}

// Join the lines, cutting the list when it would not fit in a field.
// Room for the "... and N more" marker is always kept while lines remain
func listValue(lines []string) string {
	if len(lines) == 0 {
		return "No users in queue"
	}
	var builder strings.Builder
	for i, line := range lines {
		remaining := len(lines) - i - 1
		needed := len(line)
		if remaining > 0 {
			needed += 1 + len(moreMarker(remaining))
		}
		if builder.Len()+needed > fieldLimit {
			builder.WriteString(moreMarker(len(lines) - i))
			return builder.String()
		}
		builder.WriteString(line)
		if remaining > 0 {
			builder.WriteString("\n")
		}
	}
	return builder.String()
}

func moreMarker(n int) string {
	return fmt.Sprintf("... and %d more", n)
}
