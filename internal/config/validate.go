package config

import (
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateServers(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return fmt.Errorf("paths.data_dir is required")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return fmt.Errorf("paths.log_dir is required")
	}
	return nil
}

func (c *Config) validateServers() error {
	seen := make(map[string]struct{}, len(c.Servers))
	for i := range c.Servers {
		server := &c.Servers[i]
		if server.ID == "" {
			return fmt.Errorf("server[%d].id is required", i)
		}
		if _, dup := seen[server.ID]; dup {
			return fmt.Errorf("duplicate server id %q", server.ID)
		}
		seen[server.ID] = struct{}{}
		if server.Address == "" {
			return fmt.Errorf("server %q: address is required", server.ID)
		}
		if !strings.HasPrefix(server.Address, "http://") && !strings.HasPrefix(server.Address, "https://") {
			return fmt.Errorf("server %q: address must start with http:// or https://", server.ID)
		}
	}
	return nil
}
