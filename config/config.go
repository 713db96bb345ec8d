package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/smnsjas/upgrade-dispatcher/upgrade"
)

// Config is the full startup configuration for upgrade-dispatcherd.
type Config struct {
	// Upgrade carries the fields the orchestrator and streamer read on
	// every request: chunk_size, max_threads, wpk_repository_path.
	Upgrade upgrade.Config `yaml:"upgrade"`

	// QueueCapacity bounds the dispatcher's pending-request FIFO.
	QueueCapacity int `yaml:"queue_capacity"`
	// WorkerIdleTimeout is how long an idle worker waits for a follow-up
	// request before releasing its pool slot.
	WorkerIdleTimeout time.Duration `yaml:"worker_idle_timeout"`

	// SocketPath is the remote-forwarding daemon's Unix domain socket.
	// Defaults to /queue/ossec/request if empty.
	SocketPath string `yaml:"socket_path"`
	// DialTimeout bounds a single connection attempt to SocketPath.
	DialTimeout time.Duration `yaml:"dial_timeout"`

	// LogPath is the rotating log file destination. Empty disables file
	// logging in favor of stderr.
	LogPath    string `yaml:"log_path"`
	LogMaxSize int64  `yaml:"log_max_size_bytes"`
	LogBackups int    `yaml:"log_backups"`
}

// Load reads and parses a YAML configuration file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.QueueCapacity == 0 {
		c.QueueCapacity = 256
	}
	if c.WorkerIdleTimeout == 0 {
		c.WorkerIdleTimeout = time.Second
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = 5 * time.Second
	}
	if c.LogMaxSize == 0 {
		c.LogMaxSize = 10 * 1024 * 1024
	}
	if c.LogBackups == 0 {
		c.LogBackups = 5
	}
}

// Validate enforces the positivity and required-field invariants on top of
// upgrade.Config.Validate, in gurre-ddb-pitr/config's style of a single
// top-to-bottom Validate method returning the first violation found.
func (c Config) Validate() error {
	if err := c.Upgrade.Validate(); err != nil {
		return err
	}
	if c.QueueCapacity < 1 {
		return fmt.Errorf("config: queue_capacity must be at least 1, got %d", c.QueueCapacity)
	}
	if c.WorkerIdleTimeout <= 0 {
		return fmt.Errorf("config: worker_idle_timeout must be positive")
	}
	if c.DialTimeout <= 0 {
		return fmt.Errorf("config: dial_timeout must be positive")
	}
	return nil
}
