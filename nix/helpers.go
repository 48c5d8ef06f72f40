package nix

import (
	"strings"

	"github.com/bwmarrin/discordgo"
)

// truncate caps s at limit runes, replacing the tail with an ellipsis
// when cut. The result never exceeds limit.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

// discordInteractionOptions extracts the options from a slash command
// interaction into a map keyed by option name.
func discordInteractionOptions(
	i *discordgo.InteractionCreate,
) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	options := i.ApplicationCommandData().Options
	optionMap := make(
		map[string]*discordgo.ApplicationCommandInteractionDataOption,
		len(options),
	)
	for _, option := range options {
		optionMap[option.Name] = option
	}
	return optionMap
}

// mentionsUser reports whether the given user appears in a message's
// mention list.
func mentionsUser(mentions []*discordgo.User, userID string) bool {
	if userID == "" {
		return false
	}
	for _, u := range mentions {
		if u != nil && u.ID == userID {
			return true
		}
	}
	return false
}

// stripMention removes a user's mention tokens (plain and nickname
// form) from message content, collapsing the leftover whitespace.
func stripMention(content string, userID string) string {
	content = strings.ReplaceAll(content, "<@"+userID+">", "")
	content = strings.ReplaceAll(content, "<@!"+userID+">", "")
	return strings.Join(strings.Fields(content), " ")
}

// interactionUser returns the invoking user for an interaction,
// whether it came from a guild (Member) or a DM (User).
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}
