package warden

import (
	"errors"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// InteractionResponseData.Flags is a plain uint64 in discordgo v0.25.
const interactionResponseFlagEphemeral = uint64(discordgo.MessageFlagsEphemeral)

func authorIsOwner(i *discordgo.InteractionCreate) (bool, error) {
	if getOwnerID() == "" {
		return false, errors.New("owner ID is not set")
	}
	metadata, err := getInteractionMetaData(i)
	if err != nil {
		return false, err
	}
	return metadata.AuthorID == getOwnerID(), nil
}

type interactionMetaData struct {
	AuthorID       string
	AuthorUsername string
	AuthorMention  string
	GuildID        string
	ChannelID      string
	InteractionID  string
}

func getInteractionMetaData(i *discordgo.InteractionCreate) (*interactionMetaData, error) {
	if i == nil || i.Interaction == nil {
		return nil, errors.New("interaction is nil")
	}

	var user *discordgo.User
	if i.Member != nil {
		if i.Member.User == nil {
			return nil, errors.New("member.user is nil")
		}
		user = i.Member.User
	} else if i.User != nil {
		user = i.User
	} else {
		return nil, errors.New("no metadata could be found")
	}

	return &interactionMetaData{
		AuthorID:       user.ID,
		AuthorUsername: user.Username,
		AuthorMention:  user.Mention(),
		GuildID:        i.GuildID,
		ChannelID:      i.ChannelID,
		InteractionID:  i.ID,
	}, nil
}

// requireGuildPermission returns a userError unless the interaction was
// issued in a guild by a member holding perm (or Administrator).
func requireGuildPermission(i *discordgo.InteractionCreate, perm int64, permName string) error {
	if i.GuildID == "" || i.Member == nil {
		return newUserError("This command can only be used in a server.")
	}
	if i.Member.Permissions&discordgo.PermissionAdministrator != 0 {
		return nil
	}
	if i.Member.Permissions&perm == 0 {
		return newUserError("You need the %s permission to use this command.", permName)
	}
	return nil
}

// commandOptions maps the top level options of an application command by name.
func commandOptions(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	opts := map[string]*discordgo.ApplicationCommandInteractionDataOption{}
	for _, opt := range i.ApplicationCommandData().Options {
		opts[opt.Name] = opt
	}
	return opts
}

func respondEphemeral(s interactionResponder, i *discordgo.InteractionCreate, content string) {
	respond(s, i, &discordgo.InteractionResponseData{
		Content: content,
		Flags:   interactionResponseFlagEphemeral,
	})
}

func respond(s interactionResponder, i *discordgo.InteractionCreate, data *discordgo.InteractionResponseData) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		log.Error(err)
	}
}
