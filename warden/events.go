package warden

import (
	"runtime/debug"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
	"github.com/tilinna/clock"
	"go.uber.org/atomic"
)

// EventHandler is the set of gateway callbacks the bot listens for.
// Methods may be called concurrently for different events.
type EventHandler interface {
	Ready(s *discordgo.Session, r *discordgo.Ready)
	GuildMemberAdd(s *discordgo.Session, guildID string, m *discordgo.Member)
	GuildCreate(s *discordgo.Session, g *discordgo.Guild, isNew bool)
	InteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate)
	ReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd)
	CacheReady(s *discordgo.Session, guildIDs []string)
}

// Delegates are the functions each EventHandler method forwards to.
// A nil delegate is skipped.
type Delegates struct {
	Ready             func(*discordgo.Session, *discordgo.Ready)
	GuildMemberAdd    func(*discordgo.Session, string, *discordgo.Member)
	GuildCreate       func(*discordgo.Session, *discordgo.Guild, bool)
	InteractionCreate func(*discordgo.Session, *discordgo.InteractionCreate)
	ReactionAdd       func(*discordgo.Session, *discordgo.MessageReactionAdd)

	// RefreshStatus is invoked by the status loop once per tick.
	RefreshStatus func(*discordgo.Session) error
}

// How long the status loop sleeps between refreshes.
const statusRefreshInterval = 60 * time.Second

type sleeper interface {
	Sleep(d time.Duration)
}

// Handler implements EventHandler by forwarding every event to its delegate.
// The only state it owns is whether the status loop has been started.
type Handler struct {
	delegates Delegates
	clock     sleeper

	statusLoopStarted atomic.Bool
}

var _ EventHandler = (*Handler)(nil)

func NewHandler(d Delegates) *Handler {
	return &Handler{
		delegates: d,
		clock:     clock.Realtime(),
	}
}

func (h *Handler) Ready(s *discordgo.Session, r *discordgo.Ready) {
	if h.delegates.Ready == nil {
		return
	}
	defer recoverDelegate("ready")
	h.delegates.Ready(s, r)
}

func (h *Handler) GuildMemberAdd(s *discordgo.Session, guildID string, m *discordgo.Member) {
	if h.delegates.GuildMemberAdd == nil {
		return
	}
	defer recoverDelegate("guild member add")
	h.delegates.GuildMemberAdd(s, guildID, m)
}

func (h *Handler) GuildCreate(s *discordgo.Session, g *discordgo.Guild, isNew bool) {
	if h.delegates.GuildCreate == nil {
		return
	}
	defer recoverDelegate("guild create")
	h.delegates.GuildCreate(s, g, isNew)
}

func (h *Handler) InteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if h.delegates.InteractionCreate == nil {
		return
	}
	defer recoverDelegate("interaction create")
	h.delegates.InteractionCreate(s, i)
}

func (h *Handler) ReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if h.delegates.ReactionAdd == nil {
		return
	}
	defer recoverDelegate("reaction add")
	h.delegates.ReactionAdd(s, r)
}

// CacheReady starts the status loop the first time it is called.
// Later calls, e.g. after a reconnect, are no-ops.
func (h *Handler) CacheReady(s *discordgo.Session, guildIDs []string) {
	if !h.statusLoopStarted.CAS(false, true) {
		log.Debugf("Cache ready again (%d guilds), status loop already running", len(guildIDs))
		return
	}
	log.Infof("Cache ready with %d guilds, starting status loop", len(guildIDs))
	go h.statusLoop(s)
}

// statusLoop never returns. A failed or panicking refresh is
// retried on the next tick.
func (h *Handler) statusLoop(s *discordgo.Session) {
	for {
		h.refreshStatus(s)
		h.clock.Sleep(statusRefreshInterval)
	}
}

func (h *Handler) refreshStatus(s *discordgo.Session) {
	if h.delegates.RefreshStatus == nil {
		return
	}
	defer recoverDelegate("status refresh")
	if err := h.delegates.RefreshStatus(s); err != nil {
		log.Errorf("Could not refresh status: %v", err)
	}
}

func recoverDelegate(event string) {
	if r := recover(); r != nil {
		log.Errorf("panic in %s handler: %v\n%s", event, r, debug.Stack())
	}
}
