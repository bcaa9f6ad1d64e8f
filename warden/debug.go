package warden

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const (
	logLevelCmd      = "loglevel"
	logLevelOptLevel = "level"
)

var logLevelMap = map[string]log.Level{
	"panic":   log.PanicLevel,
	"fatal":   log.FatalLevel,
	"error":   log.ErrorLevel,
	"err":     log.ErrorLevel,
	"warning": log.WarnLevel,
	"warn":    log.WarnLevel,
	"info":    log.InfoLevel,
	"debug":   log.DebugLevel,
	"trace":   log.TraceLevel,
}

func logLevelCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        logLevelCmd,
		Description: "Update the log level of the bot. Only works for the bot owner.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        logLevelOptLevel,
				Description: fmt.Sprintf("One of the following values: %v", log.AllLevels),
				Required:    true,
			},
		},
	}
}

func handleLogLevelCmd(s *discordgo.Session, i *discordgo.InteractionCreate) {
	updateLogLevel(s, i)
}

func updateLogLevel(s interactionResponder, i *discordgo.InteractionCreate) {
	if isOwner, err := authorIsOwner(i); err != nil {
		interactionRespondEphemeralError(s, i, newUserError("Only the bot owner can change the log level."))
		log.Warn(err)
		return
	} else if !isOwner {
		metadata, _ := getInteractionMetaData(i)
		log.Warnf("User %s (%s) does not have privilege to update log level", metadata.AuthorUsername, metadata.AuthorID)
		interactionRespondEphemeralError(s, i, newUserError("Only the bot owner can change the log level."))
		return
	}

	levelStr := ""
	if opt, ok := commandOptions(i)[logLevelOptLevel]; ok {
		levelStr = strings.ToLower(strings.TrimSpace(opt.StringValue()))
	}

	l, ok := logLevelMap[levelStr]
	if !ok {
		interactionRespondEphemeralError(s, i, newUserError("Invalid log level %q.", levelStr))
		return
	}

	info := fmt.Sprintf(`Set logging level to "%s"`, levelStr)
	log.Info(info)
	log.SetLevel(l)
	respondEphemeral(s, i, info)
}
