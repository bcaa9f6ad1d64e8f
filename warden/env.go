package warden

import (
	"os"
	"time"
	_ "time/tzdata"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const (
	BotTokenEnv     = "WARDEN_TOKEN"
	BotOwnerEnv     = "WARDEN_OWNER_ID"
	TestbedGuildEnv = "WARDEN_TESTBED_GUILD"
	SentryDSNEnv    = "SENTRY_DSN"
	TimezoneEnv     = "TZ"

	Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildBans |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions
)

var (
	getBotToken     = func() string { return "" }
	getOwnerID      = func() string { return "" }
	getTestbedGuild = func() string { return "" }
	getSentryDSN    = func() string { return "" }
)

// Retrieves the bot's auth token and other settings from the environment
func loadEnv() {
	// This will only add new environment variables,
	// and will NOT overwrite existing ones.
	_ = godotenv.Load( /*.env by default*/ )

	token, tokenFound := os.LookupEnv(BotTokenEnv)
	if !tokenFound {
		log.Fatalf("%s not found in environment", BotTokenEnv)
	} else if token == "" {
		log.Fatalf("%s is the empty string", BotTokenEnv)
	}
	getBotToken = func() string { return token }

	owner, ownerFound := os.LookupEnv(BotOwnerEnv)
	if !ownerFound {
		log.Warnf("%s not found in environment. No commands requiring this privilege can be executed.", BotOwnerEnv)
	} else if owner == "" {
		log.Warnf("%s is the empty string. No commands requiring this privilege can be executed.", BotOwnerEnv)
	}
	getOwnerID = func() string { return owner }

	testbed, testbedFound := os.LookupEnv(TestbedGuildEnv)
	if !testbedFound || testbed == "" {
		log.Infof("%s not set. Commands will be registered globally.", TestbedGuildEnv)
	}
	getTestbedGuild = func() string { return testbed }

	dsn, _ := os.LookupEnv(SentryDSNEnv)
	if dsn == "" {
		log.Infof("%s not set, errors will only be logged", SentryDSNEnv)
	}
	getSentryDSN = func() string { return dsn }

	tz, tzFound := os.LookupEnv(TimezoneEnv)
	if !tzFound || tz == "" {
		log.Warnf("%s not found in environment", TimezoneEnv)
	} else {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			log.Error(err)
		} else {
			time.Local = loc
		}
	}
	log.Infof("Using timezone: %s", time.Local.String())
}
