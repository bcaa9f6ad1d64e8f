package warden

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	cmap "github.com/orcaman/concurrent-map/v2"
	log "github.com/sirupsen/logrus"

	"github.com/Kardbord/Warden-bot/warden/config"
)

// WelcomeSettings configures the message sent when a member joins a guild.
type WelcomeSettings struct {
	// Guild the settings belong to.
	GuildID string `json:"guild-id"`

	// Channel the welcome message is posted in.
	ChannelID string `json:"channel-id"`

	// Optional line appended to the welcome message, sent verbatim.
	Message string `json:"message,omitempty"`
}

type welcomeSettingsMap interface {
	Get(key string) (WelcomeSettings, bool)
	Set(key string, value WelcomeSettings)
	Pop(key string) (WelcomeSettings, bool)
	Items() map[string]WelcomeSettings
	Count() int
}

// welcomeStore keeps welcome settings by guild ID in memory
// and mirrors every change to a JSON file.
type welcomeStore struct {
	path     string
	settings welcomeSettingsMap

	// Serializes writes to path
	fileMutex sync.Mutex
}

func newWelcomeStore(path string) *welcomeStore {
	return &welcomeStore{
		path:     path,
		settings: cmap.New[WelcomeSettings](),
	}
}

// loadWelcomeStore reads the settings saved at path.
// A missing file yields an empty store.
func loadWelcomeStore(path string) (*welcomeStore, error) {
	ws := newWelcomeStore(path)

	jsonCfg, err := config.NewJsonConfig(path)
	if errors.Is(err, fs.ErrNotExist) {
		return ws, nil
	} else if err != nil {
		return nil, err
	}

	saved := map[string]WelcomeSettings{}
	if err = json.Unmarshal(jsonCfg.Raw, &saved); err != nil {
		return nil, fmt.Errorf("parsing welcome settings %s: %w", path, err)
	}
	for guildID, s := range saved {
		if s.ChannelID == "" {
			continue
		}
		s.GuildID = guildID
		ws.settings.Set(guildID, s)
	}
	return ws, nil
}

func (ws *welcomeStore) Get(guildID string) (WelcomeSettings, bool) {
	return ws.settings.Get(guildID)
}

func (ws *welcomeStore) Set(s WelcomeSettings) error {
	if s.GuildID == "" || s.ChannelID == "" {
		return errors.New("welcome settings need a guild and a channel")
	}
	ws.settings.Set(s.GuildID, s)
	return ws.Save()
}

// Remove deletes the settings of a guild, returning them if there were any.
func (ws *welcomeStore) Remove(guildID string) (WelcomeSettings, bool) {
	s, ok := ws.settings.Pop(guildID)
	if !ok {
		return s, false
	}
	if err := ws.Save(); err != nil {
		log.Error(err)
	}
	return s, true
}

// Prune removes the settings of every guild for which keep returns false.
func (ws *welcomeStore) Prune(keep func(guildID string) bool) (removed int) {
	for guildID := range ws.settings.Items() {
		if keep(guildID) {
			continue
		}
		if _, ok := ws.settings.Pop(guildID); ok {
			removed++
		}
	}
	if removed > 0 {
		if err := ws.Save(); err != nil {
			log.Error(err)
		}
	}
	return removed
}

func (ws *welcomeStore) Count() int {
	return ws.settings.Count()
}

// Save writes all settings to disk.
func (ws *welcomeStore) Save() error {
	if ws.path == "" {
		return nil
	}

	ws.fileMutex.Lock()
	defer ws.fileMutex.Unlock()

	buf, err := json.MarshalIndent(ws.settings.Items(), "", "  ")
	if err != nil {
		return err
	}

	if err = os.MkdirAll(filepath.Dir(ws.path), 0o755); err != nil {
		return err
	}
	tmp := ws.path + ".tmp"
	if err = os.WriteFile(tmp, buf, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, ws.path)
}
