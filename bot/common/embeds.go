package common

import (
	"github.com/bwmarrin/discordgo"
)

// Embed accent colors used across features
const (
	ColorPrimary = 0x77C4D3
	ColorSuccess = 0x2ECC71
	ColorWarning = 0xF1C40F
	ColorError   = 0xE74C3C
)

// InfoEmbed builds a titled embed in the bot's accent color
func InfoEmbed(title, description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       ColorPrimary,
	}
}

// SuccessEmbed builds a green confirmation embed
func SuccessEmbed(description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Description: "✅ " + description,
		Color:       ColorSuccess,
	}
}

// ErrorEmbed builds a red failure embed
func ErrorEmbed(description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Description: "❌ " + description,
		Color:       ColorError,
	}
}
