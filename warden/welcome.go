package warden

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
	cmap "github.com/orcaman/concurrent-map/v2"
	log "github.com/sirupsen/logrus"
)

const (
	welcomeCmd        = "welcome"
	welcomeDisableCmd = "welcome-disable"

	welcomeOptChannel = "channel"
	welcomeOptMessage = "message"

	maxWelcomeMessageLen = 1000
)

func welcomeCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        welcomeCmd,
		Description: "Greet new members of this server in a channel.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:         discordgo.ApplicationCommandOptionChannel,
				Name:         welcomeOptChannel,
				Description:  "Where new members are greeted",
				ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
				Required:     true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        welcomeOptMessage,
				Description: "An extra line added to every welcome message",
			},
		},
	}
}

func welcomeDisableCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        welcomeDisableCmd,
		Description: "Stop greeting new members of this server.",
	}
}

func handleWelcomeCmd(s *discordgo.Session, i *discordgo.InteractionCreate) {
	configureWelcome(s, bot().welcome, i)
}

func handleWelcomeDisableCmd(s *discordgo.Session, i *discordgo.InteractionCreate) {
	disableWelcome(s, bot().welcome, i)
}

func configureWelcome(s interactionResponder, store *welcomeStore, i *discordgo.InteractionCreate) {
	if err := requireGuildPermission(i, discordgo.PermissionManageServer, "Manage Server"); err != nil {
		interactionRespondEphemeralError(s, i, err)
		return
	}

	settings := WelcomeSettings{GuildID: i.GuildID}
	opts := commandOptions(i)
	if opt, ok := opts[welcomeOptChannel]; ok {
		settings.ChannelID = opt.ChannelValue(nil).ID
	}
	if settings.ChannelID == "" {
		interactionRespondEphemeralError(s, i, newUserError("Please specify a channel."))
		return
	}
	if opt, ok := opts[welcomeOptMessage]; ok {
		settings.Message = opt.StringValue()
	}
	if len(settings.Message) > maxWelcomeMessageLen {
		interactionRespondEphemeralError(s, i, newUserError("The welcome message can be at most %d characters long.", maxWelcomeMessageLen))
		return
	}

	if err := store.Set(settings); err != nil {
		interactionRespondEphemeralError(s, i, fmt.Errorf("saving welcome settings: %w", err))
		return
	}

	log.Infof("Welcome messages for guild %s go to channel %s", settings.GuildID, settings.ChannelID)
	respondEphemeral(s, i, fmt.Sprintf("New members will be welcomed in <#%s>.", settings.ChannelID))
}

func disableWelcome(s interactionResponder, store *welcomeStore, i *discordgo.InteractionCreate) {
	if err := requireGuildPermission(i, discordgo.PermissionManageServer, "Manage Server"); err != nil {
		interactionRespondEphemeralError(s, i, err)
		return
	}

	if _, ok := store.Remove(i.GuildID); !ok {
		respondEphemeral(s, i, "Welcome messages are not enabled in this server.")
		return
	}

	log.Infof("Welcome messages disabled for guild %s", i.GuildID)
	respondEphemeral(s, i, "New members will no longer be welcomed.")
}

// welcomeMessages remembers which messages are welcome messages
// so that reactions to them can be recognized.
type welcomeMessages struct {
	// Maps message IDs to the welcome they belong to
	byMessageID interface {
		Set(key string, value sentWelcome)
		Get(key string) (sentWelcome, bool)
		Remove(key string)
		Items() map[string]sentWelcome
		Count() int
	}
}

type sentWelcome struct {
	MemberID string
	SentAt   time.Time
}

func newWelcomeMessages() *welcomeMessages {
	return &welcomeMessages{byMessageID: cmap.New[sentWelcome]()}
}

func (wm *welcomeMessages) add(messageID, memberID string, sentAt time.Time) {
	wm.byMessageID.Set(messageID, sentWelcome{MemberID: memberID, SentAt: sentAt})
}

// memberFor returns the member welcomed by the message, if it is a welcome message.
func (wm *welcomeMessages) memberFor(messageID string) (string, bool) {
	w, ok := wm.byMessageID.Get(messageID)
	return w.MemberID, ok
}

// forgetOlderThan drops welcome messages sent before cutoff.
func (wm *welcomeMessages) forgetOlderThan(cutoff time.Time) (removed int) {
	for id, w := range wm.byMessageID.Items() {
		if w.SentAt.Before(cutoff) {
			wm.byMessageID.Remove(id)
			removed++
		}
	}
	return removed
}

type embedSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed) (*discordgo.Message, error)
}

func onGuildMemberAdd(s *discordgo.Session, guildID string, m *discordgo.Member) {
	guildName := ""
	if g, err := s.State.Guild(guildID); err == nil {
		guildName = g.Name
	}
	if err := welcomeMember(s, bot().welcome, bot().welcomeMessages, guildID, guildName, m); err != nil {
		log.Error(err)
	}
}

// welcomeMember posts a welcome message for m if the guild has welcome settings.
func welcomeMember(s embedSender, store *welcomeStore, sent *welcomeMessages, guildID, guildName string, m *discordgo.Member) error {
	if m == nil || m.User == nil {
		return fmt.Errorf("member without user joined guild %s", guildID)
	}
	settings, ok := store.Get(guildID)
	if !ok {
		log.Tracef("No welcome settings for guild %s", guildID)
		return nil
	}
	if m.User.Bot {
		log.Debugf("Not welcoming bot %s", m.User.ID)
		return nil
	}

	now := time.Now()
	msg, err := s.ChannelMessageSendEmbed(settings.ChannelID, welcomeEmbed(settings, guildName, m.User, now))
	if err != nil {
		return fmt.Errorf("welcoming %s in guild %s: %w", m.User.ID, guildID, err)
	}
	if msg != nil {
		sent.add(msg.ID, m.User.ID, now)
	}
	log.Debugf("Welcomed %s in guild %s", m.User.ID, guildID)
	return nil
}

func welcomeEmbed(settings WelcomeSettings, guildName string, u *discordgo.User, now time.Time) *discordgo.MessageEmbed {
	title := "Welcome!"
	if guildName != "" {
		title = fmt.Sprintf("Welcome to %s!", guildName)
	}

	description := fmt.Sprintf("Say hi to %s!", u.Mention())
	if settings.Message != "" {
		description += "\n\n" + settings.Message
	}

	color, _ := fastHappyColorInt64()
	e := &discordgo.MessageEmbed{
		Type:        discordgo.EmbedTypeRich,
		Title:       title,
		Description: description,
		Color:       int(color),
		Thumbnail:   &discordgo.MessageEmbedThumbnail{URL: u.AvatarURL("")},
		Footer:      &discordgo.MessageEmbedFooter{Text: "ID: " + u.ID},
		Timestamp:   now.Format(time.RFC3339),
	}

	if created, err := discordgo.SnowflakeTimestamp(u.ID); err == nil {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{
			Name:   "Account created",
			Value:  humanize.RelTime(created, now, "ago", "from now"),
			Inline: true,
		})
	}
	return e
}
