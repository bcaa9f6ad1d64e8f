package warden

import (
	"fmt"
	"regexp"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

type onInteractionHandler func(*discordgo.Session, *discordgo.InteractionCreate)

type command struct {
	*discordgo.ApplicationCommand
	handler onInteractionHandler
}

// CommandGroup is a named set of commands sharing a summary,
// used to organize the help output.
type CommandGroup struct {
	Name     string
	Summary  string
	Commands []command
}

// CommandNames lists the names of the group's commands in declaration order.
func (g CommandGroup) CommandNames() []string {
	names := make([]string, 0, len(g.Commands))
	for _, cmd := range g.Commands {
		names = append(names, cmd.Name)
	}
	return names
}

// All commands related with moderation
func moderationGroup() CommandGroup {
	return CommandGroup{
		Name:    "Moderation",
		Summary: "Moderation Commands",
		Commands: []command{
			{kickCommand(), handleKickCmd},
			{banCommand(), handleBanCmd},
			{unbanCommand(), handleUnbanCmd},
		},
	}
}

// All utility commands
func utilityGroup() CommandGroup {
	return CommandGroup{
		Name:    "Utility",
		Summary: "Utility Commands",
		Commands: []command{
			{welcomeCommand(), handleWelcomeCmd},
			{welcomeDisableCommand(), handleWelcomeDisableCmd},
		},
	}
}

func metaGroup() CommandGroup {
	return CommandGroup{
		Name:    "Meta",
		Summary: "Meta Commands",
		Commands: []command{
			{helpCommand(), handleHelpCmd},
			{logLevelCommand(), handleLogLevelCmd},
		},
	}
}

func commandGroups() []CommandGroup {
	return []CommandGroup{
		moderationGroup(),
		utilityGroup(),
		metaGroup(),
	}
}

// See https://discord.com/developers/docs/interactions/application-commands#application-command-object
var validCommandRegex = regexp.MustCompile(`^[\w-]{1,32}$`)

func validateGroups(groups []CommandGroup) error {
	seen := map[string]string{}
	for _, g := range groups {
		if g.Name == "" {
			return fmt.Errorf("command group with summary %q has no name", g.Summary)
		}
		for _, cmd := range g.Commands {
			if cmd.ApplicationCommand == nil || cmd.handler == nil {
				return fmt.Errorf("incomplete command in group %s", g.Name)
			}
			if !validCommandRegex.MatchString(cmd.Name) {
				return fmt.Errorf("invalid command name %q in group %s", cmd.Name, g.Name)
			}
			if other, ok := seen[cmd.Name]; ok {
				return fmt.Errorf("command %q declared in both %s and %s", cmd.Name, other, g.Name)
			}
			seen[cmd.Name] = g.Name
		}
	}
	return nil
}

func getCommands() []*discordgo.ApplicationCommand {
	cmds := []*discordgo.ApplicationCommand{}
	for _, g := range commandGroups() {
		for _, cmd := range g.Commands {
			cmds = append(cmds, cmd.ApplicationCommand)
		}
	}
	return cmds
}

func getCommandImpls() map[string]onInteractionHandler {
	impls := map[string]onInteractionHandler{}
	for _, g := range commandGroups() {
		for _, cmd := range g.Commands {
			impls[cmd.Name] = cmd.handler
		}
	}
	return impls
}

type commandRegistrar interface {
	ApplicationCommandBulkOverwrite(appID string, guildID string, commands []*discordgo.ApplicationCommand) ([]*discordgo.ApplicationCommand, error)
}

// registerCommands replaces the bot's application commands with the ones
// declared in commandGroups. An empty guildID registers them globally.
func registerCommands(s *discordgo.Session, guildID string) error {
	if s.State == nil || s.State.User == nil {
		return fmt.Errorf("session has no user, is it open?")
	}
	return overwriteCommands(s, s.State.User.ID, guildID)
}

func overwriteCommands(r commandRegistrar, appID, guildID string) error {
	if err := validateGroups(commandGroups()); err != nil {
		return err
	}

	registered, err := r.ApplicationCommandBulkOverwrite(appID, guildID, getCommands())
	if err != nil {
		return fmt.Errorf("registering commands: %w", err)
	}
	for _, cmd := range registered {
		log.Debug("Registered cmd: ", cmd.Name)
	}
	log.Infof("Registered %d commands", len(registered))
	return nil
}
