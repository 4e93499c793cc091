package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

type App struct {
	LogLevel string   `json:"log_level"`
	Username string   `json:"username"` // пустой логин - анонимная сессия (justinfan)
	OAuth    string   `json:"oauth"`
	ClientID string   `json:"client_id"`
	Channels []string `json:"channels"`
}

type Connection struct {
	Secure bool   `json:"secure"`
	Server string `json:"server"`
	Port   int    `json:"port"`

	Reconnect               bool    `json:"reconnect"`
	MaxReconnectAttempts    int     `json:"max_reconnect_attempts"`     // 0 - без ограничения
	ReconnectIntervalSec    float64 `json:"reconnect_interval_sec"`     // базовая задержка
	ReconnectDecay          float64 `json:"reconnect_decay"`            // множитель задержки после каждой неудачи
	MaxReconnectIntervalSec float64 `json:"max_reconnect_interval_sec"` // потолок задержки

	PingIntervalSec int `json:"ping_interval_sec"`
	PingTimeoutSec  int `json:"ping_timeout_sec"`
	JoinIntervalMs  int `json:"join_interval_ms"`
}

type HTTP struct {
	Addr      string `json:"addr"`
	AuthToken string `json:"auth_token"`
}

type Config struct {
	App        App        `json:"app"`
	Connection Connection `json:"connection"`
	HTTP       HTTP       `json:"http"`
}

type Manager struct {
	mu   sync.RWMutex
	cfg  *Config
	path string
}

func New(path string) (*Manager, error) {
	m := &Manager{path: path}

	var err error
	m.cfg, err = m.readParseValidate(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}

		// первый запуск - пишем дефолтный конфиг и едем на нём
		m.cfg = Default()
		data, mErr := json.MarshalIndent(m.cfg, "", "  ")
		if mErr != nil {
			return nil, fmt.Errorf("marshal config: %w", mErr)
		}
		if wErr := m.writeAtomic(path, data, 0644); wErr != nil {
			return nil, fmt.Errorf("write config: %w", wErr)
		}
	}

	return m, nil
}

// Default matches the rate limits Twitch documents for a verified-less bot:
// one connection, joins no faster than one per 2s, ping every 60s.
func Default() *Config {
	return &Config{
		App: App{
			LogLevel: "info",
		},
		Connection: Connection{
			Secure:                  true,
			Server:                  "irc-ws.chat.twitch.tv",
			Port:                    443,
			Reconnect:               true,
			MaxReconnectAttempts:    0,
			ReconnectIntervalSec:    1,
			ReconnectDecay:          1.5,
			MaxReconnectIntervalSec: 30,
			PingIntervalSec:         60,
			PingTimeoutSec:          10,
			JoinIntervalMs:          2000,
		},
		HTTP: HTTP{Addr: ":8080"},
	}
}

func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.cfg
}

func (m *Manager) Update(modify func(cfg *Config)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cfg == nil {
		return errors.New("no config loaded")
	}

	modify(m.cfg)

	if err := m.validate(m.cfg); err != nil {
		return fmt.Errorf("invalid config update: %w", err)
	}

	return m.saveLocked()
}

func (m *Manager) readParseValidate(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open/read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}

	applyDefaults(&cfg)
	if err := m.validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	def := Default()

	if cfg.Connection.Server == "" {
		cfg.Connection.Server = def.Connection.Server
		cfg.Connection.Secure = def.Connection.Secure
	}
	if cfg.Connection.Port == 0 {
		if cfg.Connection.Secure {
			cfg.Connection.Port = 443
		} else {
			cfg.Connection.Port = 80
		}
	}
	if cfg.Connection.ReconnectIntervalSec == 0 {
		cfg.Connection.ReconnectIntervalSec = def.Connection.ReconnectIntervalSec
	}
	if cfg.Connection.ReconnectDecay == 0 {
		cfg.Connection.ReconnectDecay = def.Connection.ReconnectDecay
	}
	if cfg.Connection.MaxReconnectIntervalSec == 0 {
		cfg.Connection.MaxReconnectIntervalSec = def.Connection.MaxReconnectIntervalSec
	}
	if cfg.Connection.PingIntervalSec == 0 {
		cfg.Connection.PingIntervalSec = def.Connection.PingIntervalSec
	}
	if cfg.Connection.PingTimeoutSec == 0 {
		cfg.Connection.PingTimeoutSec = def.Connection.PingTimeoutSec
	}
	if cfg.Connection.JoinIntervalMs == 0 {
		cfg.Connection.JoinIntervalMs = def.Connection.JoinIntervalMs
	}
}

func (m *Manager) validate(cfg *Config) error {
	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	if cfg.App.LogLevel != "" && !validLevels[cfg.App.LogLevel] {
		return fmt.Errorf("app.log_level must be one of trace, debug, info, warn, error; got %s", cfg.App.LogLevel)
	}

	if cfg.App.Username != "" && cfg.App.OAuth == "" {
		return errors.New("app.oauth is required when app.username is set")
	}
	if cfg.App.Username != strings.ToLower(cfg.App.Username) {
		return errors.New("app.username must be lowercase")
	}

	if cfg.Connection.ReconnectDecay < 1 {
		return errors.New("connection.reconnect_decay must be >= 1")
	}
	if cfg.Connection.MaxReconnectAttempts < 0 {
		return errors.New("connection.max_reconnect_attempts must be >= 0")
	}
	if cfg.Connection.ReconnectIntervalSec <= 0 {
		return errors.New("connection.reconnect_interval_sec must be > 0")
	}
	if cfg.Connection.MaxReconnectIntervalSec < cfg.Connection.ReconnectIntervalSec {
		return errors.New("connection.max_reconnect_interval_sec must be >= connection.reconnect_interval_sec")
	}
	if cfg.Connection.PingTimeoutSec >= cfg.Connection.PingIntervalSec {
		return errors.New("connection.ping_timeout_sec must be < connection.ping_interval_sec")
	}
	if cfg.Connection.JoinIntervalMs < 0 {
		return errors.New("connection.join_interval_ms must be >= 0")
	}

	return nil
}

func (m *Manager) saveLocked() error {
	if m.path == "" {
		return errors.New("no config file loaded")
	}
	if m.cfg == nil {
		return errors.New("no config to save")
	}

	data, err := json.MarshalIndent(m.cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return m.writeAtomic(m.path, data, 0644)
}

func (m *Manager) writeAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d", base, time.Now().UnixNano()))

	if err := os.WriteFile(tmp, data, perm); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
