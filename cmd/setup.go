package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/signctl/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes a configuration file populated with the default settings.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	r.logger.Info("creating config file from template", "path", configPath)
	if err := shared.CreateConfigFile(configPath); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	config, err := shared.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load created config: %w", err)
	}

	r.writePlain("✓ Config written to %s\n", configPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set player.base_url (currently %s)\n", config.Player.BaseURL)
	r.writePlain("2. Run 'signctl list -c %s' to check the connection\n", configPath)
	return nil
}
