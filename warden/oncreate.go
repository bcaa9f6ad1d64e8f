package warden

import (
	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

func onGuildCreate(s *discordgo.Session, g *discordgo.Guild, isNew bool) {
	if err := greetGuild(s, g, isNew); err != nil {
		log.Error(err)
	}
}

// greetGuild introduces the bot in the system channel of guilds it just joined.
func greetGuild(s embedSender, g *discordgo.Guild, isNew bool) error {
	if !isNew {
		log.Debugf("Guild %s (%s) is available", g.Name, g.ID)
		return nil
	}

	log.Infof("Joined new guild %s (%s)", g.Name, g.ID)
	if g.SystemChannelID == "" {
		log.Debugf("Guild %s has no system channel, not introducing myself", g.ID)
		return nil
	}

	e := helpEmbed("Hello! I'm a moderation and welcome bot. Here is what I can do:")
	_, err := s.ChannelMessageSendEmbed(g.SystemChannelID, e)
	return err
}
