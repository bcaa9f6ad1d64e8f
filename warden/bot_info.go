package warden

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const (
	helpCmd    = "help"
	projectURL = "https://github.com/Kardbord/Warden-bot"
)

func helpCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        helpCmd,
		Description: "List the bot's commands.",
	}
}

func handleHelpCmd(s *discordgo.Session, i *discordgo.InteractionCreate) {
	showHelp(s, i)
}

func showHelp(s interactionResponder, i *discordgo.InteractionCreate) {
	respond(s, i, &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{helpEmbed("Below is some information about the commands I offer.")},
		Flags:  interactionResponseFlagEphemeral,
	})
}

// helpEmbed lists every command group with its commands.
func helpEmbed(description string) *discordgo.MessageEmbed {
	color, err := fastHappyColorInt64()
	if err != nil {
		log.Warn(err)
	}

	e := &discordgo.MessageEmbed{
		Type:        discordgo.EmbedTypeRich,
		Title:       "Commands",
		URL:         projectURL,
		Description: description,
		Color:       int(color),
	}
	for _, g := range commandGroups() {
		lines := make([]string, 0, len(g.Commands))
		for _, cmd := range g.Commands {
			lines = append(lines, fmt.Sprintf("`/%s` %s", cmd.Name, cmd.Description))
		}
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{
			Name:  g.Summary,
			Value: strings.Join(lines, "\n"),
		})
	}
	return e
}
