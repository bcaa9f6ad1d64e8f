package warden

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const genericErrorString = "an error occurred. :'("

type interactionResponder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse) error
}

func initSentry() {
	if getSentryDSN() == "" {
		return
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn: getSentryDSN(),
	})
	if err != nil {
		log.Errorf("Could not set up Sentry: %v", err)
		return
	}
	log.Info("Reporting errors to Sentry")
}

// userError is an error caused by the invoking user, e.g. a missing
// permission. It is shown as is and never reported.
type userError struct {
	msg string
}

func (e userError) Error() string { return e.msg }

func newUserError(format string, args ...interface{}) error {
	return userError{fmt.Sprintf(format, args...)}
}

// interactionRespondEphemeralError answers the interaction with an ephemeral
// error message. Errors that are not userErrors are logged and reported
// under a fresh error ID which is shown to the user.
func interactionRespondEphemeralError(s interactionResponder, i *discordgo.InteractionCreate, errResp error) {
	if s == nil {
		log.Error("nil session")
		return
	}
	if i == nil || i.Interaction == nil {
		log.Error("nil interaction")
		return
	}
	if errResp == nil {
		log.Warn("empty errResp, using generic error: ", genericErrorString)
		errResp = errors.New(genericErrorString)
	}

	content := ""
	var uerr userError
	if errors.As(errResp, &uerr) {
		content = uerr.Error()
	} else {
		errID := reportError(i, errResp)
		content = fmt.Sprintf("Something went wrong while processing your command. 😔\nError ID: `%s`", errID)
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   interactionResponseFlagEphemeral,
		},
	})
	if err != nil {
		log.Error(err)
	}
}

// reportError logs err and sends it to Sentry if configured, tagged with
// the returned error ID.
func reportError(i *discordgo.InteractionCreate, err error) string {
	errID := uuid.New().String()

	cmdName := ""
	if i.Type == discordgo.InteractionApplicationCommand {
		cmdName = i.ApplicationCommandData().Name
	}
	metadata, metaErr := getInteractionMetaData(i)
	if metaErr != nil {
		log.Warn(metaErr)
		metadata = &interactionMetaData{}
	}

	log.WithFields(log.Fields{
		"error-id": errID,
		"command":  cmdName,
		"guild":    metadata.GuildID,
		"user":     metadata.AuthorID,
	}).Error(err)

	if getSentryDSN() == "" {
		return errID
	}

	hub := sentry.CurrentHub().Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		if metadata.AuthorID != "" {
			scope.SetUser(sentry.User{ID: metadata.AuthorID})
		}
		scope.SetTag("error-id", errID)
		scope.SetTag("command", cmdName)
		scope.SetTag("guild", metadata.GuildID)
	})
	hub.CaptureException(err)
	return errID
}
