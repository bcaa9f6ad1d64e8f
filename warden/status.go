package warden

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
	"go.uber.org/atomic"
)

type statusUpdater interface {
	UpdateStatusComplex(usd discordgo.UpdateStatusData) error
}

// refreshStatus updates the bot's presence. It is called by the status loop.
func refreshStatus(s *discordgo.Session) error {
	if s == nil || s.State == nil {
		return fmt.Errorf("session has no state")
	}
	s.State.RLock()
	guildCount := len(s.State.Guilds)
	s.State.RUnlock()

	usd := buildStatus(bot().Config, guildCount, bot().lastActiveTime(), time.Now())
	return applyStatus(s, bot().status, usd)
}

// applyStatus sends usd and records the resulting status in current.
func applyStatus(s statusUpdater, current *atomic.String, usd discordgo.UpdateStatusData) error {
	if err := s.UpdateStatusComplex(usd); err != nil {
		return err
	}
	prev := current.Load()
	current.Store(usd.Status)
	if prev != usd.Status {
		log.Infof("Set bot status to %s", usd.Status)
	}
	return nil
}

// buildStatus shows the help command and guild count, or goes idle
// when nobody has used the bot for longer than the idle timeout.
func buildStatus(cfg botConfig, guildCount int, lastActive, now time.Time) discordgo.UpdateStatusData {
	if cfg.IdleTimeoutMinutes > 0 && now.Sub(lastActive) > cfg.idleTimeout() {
		idleSince := int(lastActive.UnixMilli())
		return discordgo.UpdateStatusData{
			IdleSince: &idleSince,
			AFK:       true,
			Status:    string(discordgo.StatusIdle),
		}
	}

	servers := "servers"
	if guildCount == 1 {
		servers = "server"
	}
	return discordgo.UpdateStatusData{
		Activities: []*discordgo.Activity{{
			Name: fmt.Sprintf("%s | %d %s", cfg.StatusText, guildCount, servers),
			Type: discordgo.ActivityTypeWatching,
		}},
		Status: string(discordgo.StatusOnline),
	}
}

// startingStatus is shown between Ready and the first status refresh.
func startingStatus() discordgo.UpdateStatusData {
	return discordgo.UpdateStatusData{
		Activities: []*discordgo.Activity{{
			Name: "the guild list load",
			Type: discordgo.ActivityTypeWatching,
		}},
		Status: string(discordgo.StatusIdle),
	}
}
