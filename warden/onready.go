package warden

import (
	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

func onReady(s *discordgo.Session, r *discordgo.Ready) {
	if r.User != nil {
		log.Infof("Logged in as %s#%s (%s)", r.User.Username, r.User.Discriminator, r.User.ID)
	}
	log.Infof("Waiting for %d guilds to become available", len(r.Guilds))

	// The status loop takes over once every guild has arrived.
	if err := applyStatus(s, bot().status, startingStatus()); err != nil {
		log.Error(err)
	}
}
