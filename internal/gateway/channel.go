package gateway

import "github.com/bwmarrin/discordgo"

// ChannelKind — грубая классификация канала для ядра.
type ChannelKind int

const (
	ChannelOther ChannelKind = iota
	ChannelText
	ChannelVoice
)

func (k ChannelKind) String() string {
	switch k {
	case ChannelText:
		return "text"
	case ChannelVoice:
		return "voice"
	default:
		return "other"
	}
}

type Channel struct {
	ID      string
	GuildID string
	Name    string
	Kind    ChannelKind
}

func channelKind(t discordgo.ChannelType) ChannelKind {
	switch t {
	case discordgo.ChannelTypeGuildVoice, discordgo.ChannelTypeGuildStageVoice:
		return ChannelVoice
	case discordgo.ChannelTypeGuildText,
		discordgo.ChannelTypeDM,
		discordgo.ChannelTypeGroupDM,
		discordgo.ChannelTypeGuildNews,
		discordgo.ChannelTypeGuildNewsThread,
		discordgo.ChannelTypeGuildPublicThread,
		discordgo.ChannelTypeGuildPrivateThread,
		discordgo.ChannelTypeGuildForum:
		return ChannelText
	default:
		return ChannelOther
	}
}

func newChannel(c *discordgo.Channel) *Channel {
	return &Channel{
		ID:      c.ID,
		GuildID: c.GuildID,
		Name:    c.Name,
		Kind:    channelKind(c.Type),
	}
}
