package warden

import (
	"github.com/bwmarrin/discordgo"
	"github.com/forPelevin/gomoji"
	log "github.com/sirupsen/logrus"
)

type reactionAdder interface {
	MessageReactionAdd(channelID, messageID, emojiID string) error
}

type limiter interface {
	Allow() bool
}

func onReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	botID := ""
	if s.State != nil && s.State.User != nil {
		botID = s.State.User.ID
	}
	if err := echoWelcomeReaction(s, bot().welcomeMessages, bot().reactionLimiter, botID, r); err != nil {
		log.Error(err)
	}
}

// echoWelcomeReaction joins in when a human reacts to a welcome
// message with a unicode emoji.
func echoWelcomeReaction(s reactionAdder, sent *welcomeMessages, l limiter, botID string, r *discordgo.MessageReactionAdd) error {
	if r == nil || r.MessageReaction == nil || r.UserID == botID {
		return nil
	}
	// Member is only set for reactions in guilds.
	if r.Member != nil && r.Member.User != nil && r.Member.User.Bot {
		log.Tracef("Not echoing reaction of bot %s", r.UserID)
		return nil
	}
	if _, ok := sent.memberFor(r.MessageID); !ok {
		return nil
	}
	// Custom emojis have IDs and may be unusable outside their guild.
	if r.Emoji.ID != "" || !gomoji.ContainsEmoji(r.Emoji.Name) {
		log.Tracef("Not echoing custom reaction %s", r.Emoji.APIName())
		return nil
	}
	if !l.Allow() {
		log.Debug("Reaction echo rate limited")
		return nil
	}
	return s.MessageReactionAdd(r.ChannelID, r.MessageID, r.Emoji.APIName())
}
