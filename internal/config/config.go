package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// TableConfig is the server-side table tuning loaded once at startup.
type TableConfig struct {
	// DefaultVariant names the variant used when a table is created without
	// an explicit choice.
	DefaultVariant string `json:"default_variant"`

	BotsEnabled bool `json:"bots_enabled"`
	// BotMinDelaySeconds and BotMaxDelaySeconds bound the random pause before
	// a bot acts on its turn.
	BotMinDelaySeconds int `json:"bot_min_delay_seconds"`
	BotMaxDelaySeconds int `json:"bot_max_delay_seconds"`
	// BotAutoFillDelaySeconds configures how many seconds to wait before
	// filling a solo human lobby with bots.
	BotAutoFillDelaySeconds int `json:"bot_auto_fill_delay_seconds"`

	TurnDurationSeconds int `json:"turn_duration_seconds"`

	// RejoinTokenSecret signs rejoin tokens; empty disables them.
	RejoinTokenSecret string `json:"rejoin_token_secret"`
	// SnapshotDBPath is the sqlite file for table snapshots; empty disables
	// persistence.
	SnapshotDBPath string `json:"snapshot_db_path"`
}

var (
	cfg      *TableConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadTableConfig loads the table configuration from the given path.
func LoadTableConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read table config: %w", err)
			return
		}

		var c TableConfig
		if err := json.Unmarshal(data, &c); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal table config: %w", err)
			return
		}
		applyDefaults(&c)
		cfg = &c
	})
	return loadErr
}

// GetTableConfig returns the global table configuration, falling back to
// defaults when no file was loaded.
func GetTableConfig() *TableConfig {
	if cfg == nil {
		c := &TableConfig{}
		applyDefaults(c)
		return c
	}
	return cfg
}

func applyDefaults(c *TableConfig) {
	if c.DefaultVariant == "" {
		c.DefaultVariant = "ninetynine"
	}
	if c.BotMinDelaySeconds == 0 {
		c.BotMinDelaySeconds = 1
	}
	if c.BotMaxDelaySeconds == 0 {
		c.BotMaxDelaySeconds = 3
	}
	if c.BotAutoFillDelaySeconds == 0 {
		c.BotAutoFillDelaySeconds = 5
	}
	if c.TurnDurationSeconds == 0 {
		c.TurnDurationSeconds = 30
	}
}
