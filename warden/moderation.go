package warden

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const (
	kickCmd          = "kick"
	banCmd           = "ban"
	unbanCmd         = "unban"
	modOptUser       = "user"
	modOptReason     = "reason"
	banOptDeleteDays = "delete-days"

	maxBanDeleteDays = 7
	noReasonGiven    = "No reason given"
)

// The subset of *discordgo.Session used by the moderation commands.
type moderationSession interface {
	interactionResponder
	GuildMemberDeleteWithReason(guildID, userID, reason string) error
	GuildBanCreateWithReason(guildID, userID, reason string, days int) error
	GuildBanDelete(guildID, userID string) error
}

var _ moderationSession = (*discordgo.Session)(nil)

func modUserOpt(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        modOptUser,
		Description: description,
		Required:    true,
	}
}

func modReasonOpt() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        modOptReason,
		Description: "Why? Shows up in the audit log.",
	}
}

func kickCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        kickCmd,
		Description: "Kick a member from this server.",
		Options: []*discordgo.ApplicationCommandOption{
			modUserOpt("The member to kick"),
			modReasonOpt(),
		},
	}
}

func banCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        banCmd,
		Description: "Ban a user from this server.",
		Options: []*discordgo.ApplicationCommandOption{
			modUserOpt("The user to ban"),
			modReasonOpt(),
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        banOptDeleteDays,
				Description: fmt.Sprintf("Delete the user's messages from the last 0-%d days. Defaults to 0.", maxBanDeleteDays),
			},
		},
	}
}

func unbanCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        unbanCmd,
		Description: "Lift a user's ban from this server.",
		Options: []*discordgo.ApplicationCommandOption{
			modUserOpt("The user to unban"),
			modReasonOpt(),
		},
	}
}

type moderationAction struct {
	name     string
	perm     int64
	permName string
	// Past tense, used in the confirmation message.
	verb string
	do   func(s moderationSession, guildID, userID, reason string, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) error
}

var (
	kickAction = moderationAction{
		name:     kickCmd,
		perm:     discordgo.PermissionKickMembers,
		permName: "Kick Members",
		verb:     "Kicked",
		do: func(s moderationSession, guildID, userID, reason string, _ map[string]*discordgo.ApplicationCommandInteractionDataOption) error {
			return s.GuildMemberDeleteWithReason(guildID, userID, reason)
		},
	}

	banAction = moderationAction{
		name:     banCmd,
		perm:     discordgo.PermissionBanMembers,
		permName: "Ban Members",
		verb:     "Banned",
		do: func(s moderationSession, guildID, userID, reason string, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) error {
			days := 0
			if opt, ok := opts[banOptDeleteDays]; ok {
				days = int(opt.IntValue())
			}
			if days < 0 || days > maxBanDeleteDays {
				return newUserError("%s must be between 0 and %d.", banOptDeleteDays, maxBanDeleteDays)
			}
			return s.GuildBanCreateWithReason(guildID, userID, reason, days)
		},
	}

	unbanAction = moderationAction{
		name:     unbanCmd,
		perm:     discordgo.PermissionBanMembers,
		permName: "Ban Members",
		verb:     "Unbanned",
		do: func(s moderationSession, guildID, userID, _ string, _ map[string]*discordgo.ApplicationCommandInteractionDataOption) error {
			// discordgo has no reason variant of this endpoint.
			return s.GuildBanDelete(guildID, userID)
		},
	}
)

func handleKickCmd(s *discordgo.Session, i *discordgo.InteractionCreate) {
	runModerationCmd(s, i, kickAction)
}

func handleBanCmd(s *discordgo.Session, i *discordgo.InteractionCreate) {
	runModerationCmd(s, i, banAction)
}

func handleUnbanCmd(s *discordgo.Session, i *discordgo.InteractionCreate) {
	runModerationCmd(s, i, unbanAction)
}

func runModerationCmd(s moderationSession, i *discordgo.InteractionCreate, action moderationAction) {
	if s == nil || i == nil {
		log.Error(fmt.Errorf("nil Session pointer (%v) and/or InteractionCreate pointer (%v)", s, i))
		return
	}

	if err := requireGuildPermission(i, action.perm, action.permName); err != nil {
		interactionRespondEphemeralError(s, i, err)
		return
	}

	opts := commandOptions(i)
	userOpt, ok := opts[modOptUser]
	if !ok {
		interactionRespondEphemeralError(s, i, newUserError("Please specify a user."))
		return
	}
	target := userOpt.UserValue(nil)

	if i.Member.User != nil && target.ID == i.Member.User.ID {
		interactionRespondEphemeralError(s, i, newUserError("You cannot use this command on yourself."))
		return
	}

	reason := noReasonGiven
	if opt, ok := opts[modOptReason]; ok && opt.StringValue() != "" {
		reason = opt.StringValue()
	}

	if err := action.do(s, i.GuildID, target.ID, reason, opts); err != nil {
		interactionRespondEphemeralError(s, i, fmt.Errorf("%s %s in guild %s: %w", action.name, target.ID, i.GuildID, err))
		return
	}

	log.Infof("%s user %s in guild %s (reason: %s)", action.verb, target.ID, i.GuildID, reason)
	respond(s, i, &discordgo.InteractionResponseData{
		Content:         fmt.Sprintf("%s <@%s>. Reason: %s", action.verb, target.ID, reason),
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	})
}
