package warden

import (
	"sync"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// gatewayAdapter binds an EventHandler to a discordgo session.
//
// discordgo has no notion of "cache ready" or of whether a GuildCreate is
// for a newly joined guild, so both are derived here from the guilds
// announced by Ready. The session must deliver events in order
// (SyncEvents=true); handlers are run on their own goroutines via dispatch.
type gatewayAdapter struct {
	handler EventHandler

	// Called when the bot is removed from a guild.
	onGuildRemoved func(guildID string)

	dispatch func(func())

	mu sync.Mutex
	// Guilds announced by the most recent Ready that have not arrived yet.
	pending map[string]struct{}
	// Guilds announced by the most recent Ready that the bot has not left since.
	announced []string
	// Guilds that arrived since the most recent Ready and were not left since.
	known           map[string]struct{}
	cacheReadyFired bool
	sawReady        bool
}

func newGatewayAdapter(h EventHandler, onGuildRemoved func(string)) *gatewayAdapter {
	return &gatewayAdapter{
		handler:         h,
		onGuildRemoved:  onGuildRemoved,
		dispatch:        func(f func()) { go f() },
		pending:         map[string]struct{}{},
		known:           map[string]struct{}{},
		cacheReadyFired: true,
	}
}

func (a *gatewayAdapter) bind(s *discordgo.Session) {
	s.AddHandler(a.ready)
	s.AddHandler(a.guildCreate)
	s.AddHandler(a.guildDelete)
	s.AddHandler(a.guildMemberAdd)
	s.AddHandler(a.interactionCreate)
	s.AddHandler(a.messageReactionAdd)
}

func (a *gatewayAdapter) ready(s *discordgo.Session, r *discordgo.Ready) {
	a.mu.Lock()
	a.pending = make(map[string]struct{}, len(r.Guilds))
	a.announced = make([]string, 0, len(r.Guilds))
	// Ready lists every guild the bot is in, so anything else was left while disconnected.
	a.known = make(map[string]struct{}, len(r.Guilds))
	for _, g := range r.Guilds {
		if g == nil {
			continue
		}
		a.pending[g.ID] = struct{}{}
		a.announced = append(a.announced, g.ID)
	}
	a.cacheReadyFired = false
	a.sawReady = true
	ids := a.takeCacheReadyLocked()
	a.mu.Unlock()

	a.dispatch(func() { a.handler.Ready(s, r) })
	a.fireCacheReady(s, ids)
}

func (a *gatewayAdapter) guildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if g == nil || g.Guild == nil {
		return
	}

	a.mu.Lock()
	_, wasPending := a.pending[g.ID]
	_, wasKnown := a.known[g.ID]
	isNew := !wasPending && !wasKnown && !a.isAnnouncedLocked(g.ID)
	delete(a.pending, g.ID)
	a.known[g.ID] = struct{}{}
	ids := a.takeCacheReadyLocked()
	a.mu.Unlock()

	a.dispatch(func() { a.handler.GuildCreate(s, g.Guild, isNew) })
	a.fireCacheReady(s, ids)
}

func (a *gatewayAdapter) guildDelete(s *discordgo.Session, g *discordgo.GuildDelete) {
	if g == nil || g.Guild == nil {
		return
	}

	a.mu.Lock()
	delete(a.pending, g.ID)
	if !g.Unavailable {
		delete(a.known, g.ID)
		a.unannounceLocked(g.ID)
	}
	ids := a.takeCacheReadyLocked()
	a.mu.Unlock()

	if g.Unavailable {
		log.Warnf("Guild %s is unavailable", g.ID)
	} else {
		log.Infof("Removed from guild %s", g.ID)
		if a.onGuildRemoved != nil {
			a.dispatch(func() { a.onGuildRemoved(g.ID) })
		}
	}
	a.fireCacheReady(s, ids)
}

func (a *gatewayAdapter) guildMemberAdd(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	if m == nil || m.Member == nil {
		return
	}
	a.dispatch(func() { a.handler.GuildMemberAdd(s, m.GuildID, m.Member) })
}

func (a *gatewayAdapter) interactionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i == nil || i.Interaction == nil {
		return
	}
	a.dispatch(func() { a.handler.InteractionCreate(s, i) })
}

func (a *gatewayAdapter) messageReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if r == nil || r.MessageReaction == nil {
		return
	}
	a.dispatch(func() { a.handler.ReactionAdd(s, r) })
}

func (a *gatewayAdapter) isAnnouncedLocked(guildID string) bool {
	for _, id := range a.announced {
		if id == guildID {
			return true
		}
	}
	return false
}

func (a *gatewayAdapter) unannounceLocked(guildID string) {
	for i, id := range a.announced {
		if id == guildID {
			a.announced = append(a.announced[:i:i], a.announced[i+1:]...)
			return
		}
	}
}

// memberGuilds returns the guilds the bot is in, counting guilds that are
// only unavailable. ok is false until the cache is ready, when the set
// would be incomplete.
func (a *gatewayAdapter) memberGuilds() (ids map[string]struct{}, ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.sawReady || !a.cacheReadyFired {
		return nil, false
	}
	ids = make(map[string]struct{}, len(a.known)+len(a.announced))
	for id := range a.known {
		ids[id] = struct{}{}
	}
	for _, id := range a.announced {
		ids[id] = struct{}{}
	}
	return ids, true
}

// takeCacheReadyLocked returns the announced guild IDs if the cache just
// became ready, nil otherwise. a.mu must be held.
func (a *gatewayAdapter) takeCacheReadyLocked() []string {
	if a.cacheReadyFired || len(a.pending) != 0 {
		return nil
	}
	a.cacheReadyFired = true
	ids := make([]string, len(a.announced))
	copy(ids, a.announced)
	return ids
}

func (a *gatewayAdapter) fireCacheReady(s *discordgo.Session, ids []string) {
	if ids == nil {
		return
	}
	a.dispatch(func() { a.handler.CacheReady(s, ids) })
}
