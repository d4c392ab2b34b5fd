// Package config loads and validates the TOML configuration file that
// gives the HTTP/WebSocket bind address, the SSH authentication
// method, and the remote hosts to poll.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the top-level decoded config.toml.
type Config struct {
	Ip             string         `toml:"ip"`
	Port           int            `toml:"port"`
	Authentication Authentication `toml:"authentication"`
	Servers        []Server       `toml:"servers"`
}

// Authentication selects ssh_agent or pub_key authentication for
// every configured server.
type Authentication struct {
	Method     string `toml:"method"`
	PrivateKey string `toml:"private_key"`
	PublicKey  string `toml:"public_key"`
	Passphrase string `toml:"passphrase"`
}

// Server is one [[servers]] entry.
type Server struct {
	Hostname         string `toml:"hostname"`
	Username         string `toml:"username"`
	Disk             string `toml:"disk"`
	Filesystem       string `toml:"filesystem"`
	NetworkInterface string `toml:"network_interface"`
}

// Addr returns the "ip:port" HTTP bind address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Ip, c.Port)
}

// Load decodes and validates the TOML file at path. A missing or
// malformed file, or a config without a usable [[servers]] list, is
// fatal at startup.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the invariants main() depends on before starting
// any aggregator.
func (c *Config) Validate() error {
	if c.Port <= 0 {
		return fmt.Errorf("config: port must be set")
	}
	if len(c.Servers) == 0 {
		return fmt.Errorf("config: servers list must not be empty")
	}

	switch c.Authentication.Method {
	case "ssh_agent":
		// No further fields required.
	case "pub_key":
		if c.Authentication.PrivateKey == "" {
			return fmt.Errorf("config: authentication.private_key is required for pub_key auth")
		}
	default:
		return fmt.Errorf("config: unknown authentication.method %q", c.Authentication.Method)
	}

	for i, s := range c.Servers {
		if s.Hostname == "" {
			return fmt.Errorf("config: servers[%d].hostname is required", i)
		}
		if s.Username == "" {
			return fmt.Errorf("config: servers[%d].username is required", i)
		}
		if s.Disk == "" {
			return fmt.Errorf("config: servers[%d].disk is required", i)
		}
		if s.Filesystem == "" {
			return fmt.Errorf("config: servers[%d].filesystem is required", i)
		}
		if s.NetworkInterface == "" {
			return fmt.Errorf("config: servers[%d].network_interface is required", i)
		}
	}

	return nil
}
