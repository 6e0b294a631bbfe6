package commands

import (
	"strconv"

	"aoba/models"

	"github.com/bwmarrin/discordgo"
)

// Session is the slice of discordgo.Session the command layer touches.
// Tests substitute a recording fake.
type Session interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	UserChannelPermissions(userID string, channelID string, fetchOptions ...discordgo.RequestOption) (int64, error)
}

// Context carries everything a command handler needs for one invocation
type Context struct {
	Session Session
	Message *discordgo.MessageCreate

	// Prefix that matched and the arguments after the command tokens
	Prefix string
	Args   []string

	Guild *models.GuildSettings
	User  *models.UserSettings

	IsOwner bool
}

// AuthorID returns the invoker's ID as an int64 snowflake
func (cc *Context) AuthorID() (int64, error) {
	return strconv.ParseInt(cc.Message.Author.ID, 10, 64)
}

// GuildID is empty in direct messages
func (cc *Context) GuildID() string {
	return cc.Message.GuildID
}

// Reply sends plain text to the channel the command came from
func (cc *Context) Reply(content string) error {
	_, err := cc.Session.ChannelMessageSend(cc.Message.ChannelID, content)
	return err
}

// ReplyEmbed sends an embed to the channel the command came from
func (cc *Context) ReplyEmbed(embed *discordgo.MessageEmbed) error {
	_, err := cc.Session.ChannelMessageSendEmbed(cc.Message.ChannelID, embed)
	return err
}
