package warden

import (
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

type fakeStatusUpdater struct {
	updates []discordgo.UpdateStatusData
	err     error
}

func (f *fakeStatusUpdater) UpdateStatusComplex(usd discordgo.UpdateStatusData) error {
	if f.err != nil {
		return f.err
	}
	f.updates = append(f.updates, usd)
	return nil
}

func TestBuildStatusActive(t *testing.T) {
	cfg := defaultBotConfig()
	now := time.Now()

	usd := buildStatus(cfg, 3, now.Add(-time.Minute), now)
	assert.Equal(t, string(discordgo.StatusOnline), usd.Status)
	assert.False(t, usd.AFK)
	require.Len(t, usd.Activities, 1)
	assert.Equal(t, "/help | 3 servers", usd.Activities[0].Name)
	assert.Equal(t, discordgo.ActivityTypeWatching, usd.Activities[0].Type)

	usd = buildStatus(cfg, 1, now, now)
	assert.Equal(t, "/help | 1 server", usd.Activities[0].Name)
}

func TestBuildStatusIdle(t *testing.T) {
	cfg := defaultBotConfig()
	now := time.Now()
	lastActive := now.Add(-cfg.idleTimeout() - time.Second)

	usd := buildStatus(cfg, 3, lastActive, now)
	assert.Equal(t, string(discordgo.StatusIdle), usd.Status)
	assert.True(t, usd.AFK)
	require.NotNil(t, usd.IdleSince)
	assert.Equal(t, int(lastActive.UnixMilli()), *usd.IdleSince)
}

func TestBuildStatusNeverIdleWithoutTimeout(t *testing.T) {
	cfg := defaultBotConfig()
	cfg.IdleTimeoutMinutes = 0
	now := time.Now()

	usd := buildStatus(cfg, 2, now.Add(-48*time.Hour), now)
	assert.Equal(t, string(discordgo.StatusOnline), usd.Status)
}

func TestApplyStatus(t *testing.T) {
	s := &fakeStatusUpdater{}
	current := atomic.NewString("")

	require.NoError(t, applyStatus(s, current, startingStatus()))
	assert.Equal(t, string(discordgo.StatusIdle), current.Load())

	online := buildStatus(defaultBotConfig(), 1, time.Now(), time.Now())
	require.NoError(t, applyStatus(s, current, online))
	assert.Equal(t, string(discordgo.StatusOnline), current.Load())
	assert.Len(t, s.updates, 2)
}

func TestApplyStatusError(t *testing.T) {
	updateErr := errors.New("not connected")
	current := atomic.NewString(string(discordgo.StatusOnline))

	err := applyStatus(&fakeStatusUpdater{err: updateErr}, current, startingStatus())
	assert.ErrorIs(t, err, updateErr)
	assert.Equal(t, string(discordgo.StatusOnline), current.Load())
}

func TestGreetGuild(t *testing.T) {
	s := &fakeEmbedSender{}

	require.NoError(t, greetGuild(s, &discordgo.Guild{ID: "g1", SystemChannelID: "general"}, false))
	assert.Empty(t, s.sent)

	require.NoError(t, greetGuild(s, &discordgo.Guild{ID: "g2"}, true))
	assert.Empty(t, s.sent)

	require.NoError(t, greetGuild(s, &discordgo.Guild{ID: "g3", SystemChannelID: "general"}, true))
	require.Len(t, s.sent, 1)
	assert.Equal(t, "general", s.sent[0].channelID)
	assert.Len(t, s.sent[0].embed.Fields, len(commandGroups()))
}
