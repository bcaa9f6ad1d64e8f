package warden

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

func onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	wg := bot().updateLastActive()
	defer wg.Wait()

	routeInteraction(s, i, getCommandImpls())
}

// routeInteraction runs the handler registered under the invoked command's name.
func routeInteraction(s *discordgo.Session, i *discordgo.InteractionCreate, impls map[string]onInteractionHandler) {
	if i.Type != discordgo.InteractionApplicationCommand {
		log.Debugf("Ignoring interaction of type %v", i.Type)
		return
	}

	name := i.ApplicationCommandData().Name
	h, ok := impls[name]
	if !ok {
		interactionRespondEphemeralError(s, i, fmt.Errorf("no handler for command %s", name))
		return
	}
	log.Tracef("Dispatching command %s", name)
	h(s, i)
}
