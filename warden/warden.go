package warden

import (
	"encoding/json"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/getsentry/sentry-go"
	"github.com/go-co-op/gocron"
	log "github.com/sirupsen/logrus"
	"go.uber.org/atomic"
	"golang.org/x/time/rate"

	"github.com/Kardbord/Warden-bot/warden/config"
)

const BotConfigFile = "config/config.json"

// Pointer to the single warden instance global to the package
var gbot *warden = nil

type warden struct {
	Session *discordgo.Session
	Handler *Handler
	Config  botConfig

	gateway *gatewayAdapter

	welcome         *welcomeStore
	welcomeMessages *welcomeMessages
	reactionLimiter *rate.Limiter
	scheduler       *gocron.Scheduler

	status     *atomic.String
	lastActive *atomic.Int64
}

type botConfig struct {
	StatusText         string  `json:"status-text"`
	IdleTimeoutMinutes int     `json:"idle-timeout-minutes"`
	WelcomeStorePath   string  `json:"welcome-store"`
	ReactionEchoRate   float64 `json:"reaction-echo-per-second"`
	ReactionEchoBurst  int     `json:"reaction-echo-burst"`
}

func defaultBotConfig() botConfig {
	return botConfig{
		StatusText:         "/help",
		IdleTimeoutMinutes: 5,
		WelcomeStorePath:   "config/welcome.json",
		ReactionEchoRate:   0.5,
		ReactionEchoBurst:  3,
	}
}

func (c botConfig) idleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutMinutes) * time.Minute
}

// bot() is a getter for the global warden instance
func bot() *warden {
	if gbot == nil {
		// The only time gbot should be nil is if Run() has not been called.
		log.Fatal("No warden initialized. This should never happen.")
	}
	return gbot
}

// RunAndBlock initializes and starts the bot, then blocks until
// a terminating signal is received, at which point the bot is stopped.
func RunAndBlock() {
	Run()
	BlockThenStop()
}

// Run initializes and starts the bot.
func Run() {
	initialize()
	log.Print("Bot is now running. Press CTRL-C to exit.")
}

// Block the current goroutine until a terminating signal is received
func Block() {
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc
}

// BlockThenStop blocks the current goroutine until a terminating signal is received.
// When the signal is received, stop and clean up the bot.
func BlockThenStop() {
	Block()
	Stop()
}

// Stop and clean up.
func Stop() {
	bot().scheduler.Stop()
	if err := bot().welcome.Save(); err != nil {
		log.Error(err)
	}
	sentry.Flush(2 * time.Second)
	if err := bot().Session.Close(); err != nil {
		log.Error(err)
	}
}

// Initialize the single global bot instance
func initialize() {
	loadEnv()
	initSentry()

	cfg := defaultBotConfig()
	jsonCfg, err := config.NewJsonConfig(BotConfigFile)
	if err != nil {
		log.Warnf("%v, using defaults", err)
	} else if err = json.Unmarshal(jsonCfg.Raw, &cfg); err != nil {
		log.Fatal(err)
	}

	dgs, err := discordgo.New("Bot " + getBotToken())
	if err != nil {
		log.Fatal(err)
	}
	if dgs == nil {
		log.Fatal("failed to create discordgo session")
	}

	store, err := loadWelcomeStore(cfg.WelcomeStorePath)
	if err != nil {
		log.Fatal(err)
	}

	gbot = &warden{
		Session:         dgs,
		Config:          cfg,
		welcome:         store,
		welcomeMessages: newWelcomeMessages(),
		reactionLimiter: rate.NewLimiter(rate.Limit(cfg.ReactionEchoRate), cfg.ReactionEchoBurst),
		status:          atomic.NewString(""),
		lastActive:      atomic.NewInt64(time.Now().UnixNano()),
	}
	gbot.Handler = NewHandler(Delegates{
		Ready:             onReady,
		GuildMemberAdd:    onGuildMemberAdd,
		GuildCreate:       onGuildCreate,
		InteractionCreate: onInteractionCreate,
		ReactionAdd:       onReactionAdd,
		RefreshStatus:     refreshStatus,
	})

	configure()
	addHandlers()
	gbot.scheduler = newScheduler()

	err = bot().Session.Open()
	if err != nil {
		log.Fatal(err)
	}

	err = registerCommands(bot().Session, getTestbedGuild())
	if err != nil {
		log.Fatal(err)
	}

	bot().scheduler.StartAsync()
}

func configure() {
	bot().Session.Identify.Intents = Intents
	// gatewayAdapter relies on in-order delivery and runs handlers on their own goroutines.
	bot().Session.SyncEvents = true
	bot().Session.ShouldReconnectOnError = true
	bot().Session.StateEnabled = true
}

func addHandlers() {
	bot().gateway = newGatewayAdapter(bot().Handler, forgetGuild)
	bot().gateway.bind(bot().Session)
}

// forgetGuild drops everything stored for a guild the bot was removed from.
func forgetGuild(guildID string) {
	if _, ok := bot().welcome.Remove(guildID); ok {
		log.Infof("Removed welcome settings for guild %s", guildID)
	}
}

// updateLastActive marks the bot as active. If the bot is currently idle
// its status is refreshed; wait on the returned WaitGroup for that to finish.
func (w *warden) updateLastActive() *sync.WaitGroup {
	wg := &sync.WaitGroup{}
	w.lastActive.Store(time.Now().UnixNano())
	if w.status.Load() != string(discordgo.StatusIdle) {
		return wg
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := refreshStatus(w.Session); err != nil {
			log.Error(err)
		}
	}()
	return wg
}

func (w *warden) lastActiveTime() time.Time {
	return time.Unix(0, w.lastActive.Load())
}
