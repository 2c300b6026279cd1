package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every operator-tunable knob. Gameplay rules (damage,
// magazine size, tick rate) are constants, not configuration.
type Config struct {
	Addr      string // public listen address
	DebugAddr string // localhost-only pprof listener, empty disables
	PublicURL string // external base URL baked into the join QR code

	LogLevel  string
	LogPretty bool

	ReloadDuration    time.Duration
	RespawnDelay      time.Duration
	InactivityTimeout time.Duration

	AuthEnabled  bool
	AuthSecret   string // empty generates an ephemeral secret at startup
	JoinPassword string // empty means open joins
	TicketTTL    time.Duration

	StatsDSN string // sqlite DSN for the stats journal
}

// LoadConfig reads configuration in ascending precedence: built-in
// defaults, an optional config file, then ARENA_* environment variables.
// configFile may be empty; a missing default config.yaml is fine, a
// missing explicitly named file is an error.
func LoadConfig(configFile string) (Config, error) {
	v := viper.New()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.debug_addr", "127.0.0.1:6060")
	v.SetDefault("server.public_url", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetDefault("game.reload_duration", "3s")
	v.SetDefault("game.respawn_delay", "5s")
	v.SetDefault("game.inactivity_timeout", "60s")

	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.password", "")
	v.SetDefault("auth.ticket_ttl", "24h")

	v.SetDefault("stats.dsn", ":memory:")

	v.SetEnvPrefix("ARENA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		Addr:              v.GetString("server.addr"),
		DebugAddr:         v.GetString("server.debug_addr"),
		PublicURL:         v.GetString("server.public_url"),
		LogLevel:          v.GetString("log.level"),
		LogPretty:         v.GetBool("log.pretty"),
		ReloadDuration:    v.GetDuration("game.reload_duration"),
		RespawnDelay:      v.GetDuration("game.respawn_delay"),
		InactivityTimeout: v.GetDuration("game.inactivity_timeout"),
		AuthEnabled:       v.GetBool("auth.enabled"),
		AuthSecret:        v.GetString("auth.secret"),
		JoinPassword:      v.GetString("auth.password"),
		TicketTTL:         v.GetDuration("auth.ticket_ttl"),
		StatsDSN:          v.GetString("stats.dsn"),
	}

	if cfg.ReloadDuration <= 0 || cfg.RespawnDelay <= 0 || cfg.InactivityTimeout <= 0 {
		return Config{}, fmt.Errorf("game durations must be positive")
	}
	return cfg, nil
}

// GameSettings extracts the loop timers from the full config
func (c Config) GameSettings() GameSettings {
	return GameSettings{
		ReloadDuration:    c.ReloadDuration,
		RespawnDelay:      c.RespawnDelay,
		InactivityTimeout: c.InactivityTimeout,
	}
}
