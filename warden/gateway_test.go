package warden

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type guildCreateCall struct {
	id    string
	isNew bool
}

type recordingHandler struct {
	ready        int
	guildCreates []guildCreateCall
	members      []string
	interactions int
	reactions    []*discordgo.MessageReactionAdd
	cacheReady   [][]string
}

func (r *recordingHandler) Ready(*discordgo.Session, *discordgo.Ready) { r.ready++ }

func (r *recordingHandler) GuildMemberAdd(_ *discordgo.Session, guildID string, m *discordgo.Member) {
	r.members = append(r.members, guildID+"/"+m.User.ID)
}

func (r *recordingHandler) GuildCreate(_ *discordgo.Session, g *discordgo.Guild, isNew bool) {
	r.guildCreates = append(r.guildCreates, guildCreateCall{g.ID, isNew})
}

func (r *recordingHandler) InteractionCreate(*discordgo.Session, *discordgo.InteractionCreate) {
	r.interactions++
}

func (r *recordingHandler) ReactionAdd(_ *discordgo.Session, reaction *discordgo.MessageReactionAdd) {
	r.reactions = append(r.reactions, reaction)
}

func (r *recordingHandler) CacheReady(_ *discordgo.Session, guildIDs []string) {
	r.cacheReady = append(r.cacheReady, guildIDs)
}

func newSyncAdapter(h EventHandler, onGuildRemoved func(string)) *gatewayAdapter {
	a := newGatewayAdapter(h, onGuildRemoved)
	a.dispatch = func(f func()) { f() }
	return a
}

func readyWith(ids ...string) *discordgo.Ready {
	r := &discordgo.Ready{}
	for _, id := range ids {
		r.Guilds = append(r.Guilds, &discordgo.Guild{ID: id, Unavailable: true})
	}
	return r
}

func guildCreate(id string) *discordgo.GuildCreate {
	return &discordgo.GuildCreate{Guild: &discordgo.Guild{ID: id}}
}

func TestGatewayCacheReadyAfterAnnouncedGuildsArrive(t *testing.T) {
	h := &recordingHandler{}
	a := newSyncAdapter(h, nil)

	a.ready(nil, readyWith("g1", "g2"))
	assert.Equal(t, 1, h.ready)
	assert.Empty(t, h.cacheReady)

	a.guildCreate(nil, guildCreate("g1"))
	assert.Empty(t, h.cacheReady)

	a.guildCreate(nil, guildCreate("g2"))
	assert.Equal(t, [][]string{{"g1", "g2"}}, h.cacheReady)
	assert.Equal(t, []guildCreateCall{{"g1", false}, {"g2", false}}, h.guildCreates)
}

func TestGatewayCacheReadyOncePerReady(t *testing.T) {
	h := &recordingHandler{}
	a := newSyncAdapter(h, nil)

	a.ready(nil, readyWith("g1"))
	a.guildCreate(nil, guildCreate("g1"))
	a.guildCreate(nil, guildCreate("g1"))
	a.guildCreate(nil, guildCreate("g2"))
	assert.Len(t, h.cacheReady, 1)

	// Reconnect
	a.ready(nil, readyWith("g1", "g2"))
	a.guildCreate(nil, guildCreate("g1"))
	a.guildCreate(nil, guildCreate("g2"))
	assert.Len(t, h.cacheReady, 2)
	assert.Equal(t, []string{"g1", "g2"}, h.cacheReady[1])
}

func TestGatewayEmptyReadyIsImmediatelyCacheReady(t *testing.T) {
	h := &recordingHandler{}
	a := newSyncAdapter(h, nil)

	a.ready(nil, readyWith())
	if assert.Len(t, h.cacheReady, 1) {
		assert.NotNil(t, h.cacheReady[0])
		assert.Empty(t, h.cacheReady[0])
	}
}

func TestGatewayNoCacheReadyBeforeReady(t *testing.T) {
	h := &recordingHandler{}
	a := newSyncAdapter(h, nil)

	a.guildCreate(nil, guildCreate("g1"))
	assert.Empty(t, h.cacheReady)
}

func TestGatewayIsNew(t *testing.T) {
	h := &recordingHandler{}
	a := newSyncAdapter(h, nil)

	a.ready(nil, readyWith("g1"))
	a.guildCreate(nil, guildCreate("g1"))
	a.guildCreate(nil, guildCreate("g3"))

	// g1 coming back after an outage is not new
	a.guildDelete(nil, &discordgo.GuildDelete{Guild: &discordgo.Guild{ID: "g1", Unavailable: true}})
	a.guildCreate(nil, guildCreate("g1"))

	assert.Equal(t, []guildCreateCall{
		{"g1", false},
		{"g3", true},
		{"g1", false},
	}, h.guildCreates)
}

func TestGatewayRejoinAfterRemovalIsNew(t *testing.T) {
	h := &recordingHandler{}
	var removed []string
	a := newSyncAdapter(h, func(id string) { removed = append(removed, id) })

	a.ready(nil, readyWith())
	a.guildCreate(nil, guildCreate("g1"))
	a.guildDelete(nil, &discordgo.GuildDelete{Guild: &discordgo.Guild{ID: "g1"}})
	a.guildCreate(nil, guildCreate("g1"))

	assert.Equal(t, []string{"g1"}, removed)
	assert.Equal(t, []guildCreateCall{{"g1", true}, {"g1", true}}, h.guildCreates)
}

func TestGatewayUnavailableGuildIsNotRemoved(t *testing.T) {
	h := &recordingHandler{}
	var removed []string
	a := newSyncAdapter(h, func(id string) { removed = append(removed, id) })

	a.ready(nil, readyWith("g1", "g2"))
	a.guildCreate(nil, guildCreate("g1"))
	a.guildDelete(nil, &discordgo.GuildDelete{Guild: &discordgo.Guild{ID: "g2", Unavailable: true}})

	assert.Empty(t, removed)
	// g2 will not arrive, so waiting for it would never end
	assert.Equal(t, [][]string{{"g1", "g2"}}, h.cacheReady)
}

func TestGatewayForwardsOtherEvents(t *testing.T) {
	h := &recordingHandler{}
	a := newSyncAdapter(h, nil)

	a.guildMemberAdd(nil, &discordgo.GuildMemberAdd{Member: &discordgo.Member{GuildID: "g1", User: &discordgo.User{ID: "u1"}}})
	a.interactionCreate(nil, &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{ID: "i1"}})
	reaction := &discordgo.MessageReactionAdd{
		MessageReaction: &discordgo.MessageReaction{MessageID: "m1"},
		Member:          &discordgo.Member{User: &discordgo.User{ID: "u1", Bot: true}},
	}
	a.messageReactionAdd(nil, reaction)

	assert.Equal(t, []string{"g1/u1"}, h.members)
	assert.Equal(t, 1, h.interactions)
	require.Len(t, h.reactions, 1)
	// The reacting member travels with the reaction
	assert.Same(t, reaction, h.reactions[0])
}

func TestGatewayIgnoresEmptyEvents(t *testing.T) {
	h := &recordingHandler{}
	a := newSyncAdapter(h, nil)

	a.guildCreate(nil, &discordgo.GuildCreate{})
	a.guildDelete(nil, &discordgo.GuildDelete{})
	a.guildMemberAdd(nil, &discordgo.GuildMemberAdd{})
	a.interactionCreate(nil, &discordgo.InteractionCreate{})
	a.messageReactionAdd(nil, &discordgo.MessageReactionAdd{})

	assert.Empty(t, h.guildCreates)
	assert.Empty(t, h.members)
	assert.Zero(t, h.interactions)
	assert.Empty(t, h.reactions)
}

func TestGatewayRejoinOfAnnouncedGuildIsNew(t *testing.T) {
	h := &recordingHandler{}
	var removed []string
	a := newSyncAdapter(h, func(id string) { removed = append(removed, id) })

	a.ready(nil, readyWith("g1", "g2"))
	a.guildCreate(nil, guildCreate("g1"))
	a.guildCreate(nil, guildCreate("g2"))
	a.guildDelete(nil, &discordgo.GuildDelete{Guild: &discordgo.Guild{ID: "g1"}})
	a.guildCreate(nil, guildCreate("g1"))

	assert.Equal(t, []string{"g1"}, removed)
	assert.Equal(t, []guildCreateCall{{"g1", false}, {"g2", false}, {"g1", true}}, h.guildCreates)
}

func TestGatewayMemberGuilds(t *testing.T) {
	a := newSyncAdapter(&recordingHandler{}, nil)

	_, ok := a.memberGuilds()
	assert.False(t, ok, "no Ready yet")

	a.ready(nil, readyWith("g1", "g2", "g3"))
	a.guildCreate(nil, guildCreate("g1"))
	_, ok = a.memberGuilds()
	assert.False(t, ok, "still waiting for guilds")

	a.guildCreate(nil, guildCreate("g2"))
	// g3 stays unavailable for the whole session
	a.guildDelete(nil, &discordgo.GuildDelete{Guild: &discordgo.Guild{ID: "g3", Unavailable: true}})
	a.guildCreate(nil, guildCreate("g4"))
	a.guildDelete(nil, &discordgo.GuildDelete{Guild: &discordgo.Guild{ID: "g2"}})
	a.guildDelete(nil, &discordgo.GuildDelete{Guild: &discordgo.Guild{ID: "g1", Unavailable: true}})

	ids, ok := a.memberGuilds()
	require.True(t, ok)
	assert.Equal(t, map[string]struct{}{"g1": {}, "g3": {}, "g4": {}}, ids)
}

func TestGatewayReadyForgetsGuildsLeftWhileDisconnected(t *testing.T) {
	a := newSyncAdapter(&recordingHandler{}, nil)

	a.ready(nil, readyWith())
	a.guildCreate(nil, guildCreate("g1"))
	a.guildCreate(nil, guildCreate("g2"))

	// Reconnect after being removed from g2 while offline
	a.ready(nil, readyWith("g1"))
	a.guildCreate(nil, guildCreate("g1"))

	ids, ok := a.memberGuilds()
	require.True(t, ok)
	assert.Equal(t, map[string]struct{}{"g1": {}}, ids)
}
