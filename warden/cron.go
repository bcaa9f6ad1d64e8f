package warden

import (
	"time"

	"github.com/go-co-op/gocron"
	log "github.com/sirupsen/logrus"
)

// Welcome messages older than this no longer get their reactions echoed.
const welcomeMessageTTL = 24 * time.Hour

func newScheduler() *gocron.Scheduler {
	s := gocron.NewScheduler(time.Local)
	if s == nil {
		log.Fatal("Could not create scheduler")
	}

	// https://crontab.guru/#0_1_*_*_*
	if _, err := s.Cron("0 1 * * *").Do(func() {
		pruneWelcomeSettings(bot().welcome, bot().gateway)
	}); err != nil {
		log.Fatal(err)
	}

	// https://crontab.guru/#0_*_*_*_*
	if _, err := s.Cron("0 * * * *").Do(func() {
		n := bot().welcomeMessages.forgetOlderThan(time.Now().Add(-welcomeMessageTTL))
		log.Debugf("Forgot %d old welcome messages", n)
	}); err != nil {
		log.Fatal(err)
	}

	// ^The above only initializes the scheduler, it does not start it.
	return s
}

type guildMembership interface {
	memberGuilds() (ids map[string]struct{}, ok bool)
}

// pruneWelcomeSettings drops the settings of guilds the bot is no longer in.
// Guilds that are only unavailable are kept. Does nothing until the guild
// list is complete.
func pruneWelcomeSettings(store *welcomeStore, guilds guildMembership) int {
	inGuild, ok := guilds.memberGuilds()
	if !ok {
		log.Debug("Guild list not loaded yet, not pruning welcome settings")
		return 0
	}

	n := store.Prune(func(guildID string) bool {
		_, ok := inGuild[guildID]
		return ok
	})
	log.Infof("Pruned welcome settings of %d guilds", n)
	return n
}
