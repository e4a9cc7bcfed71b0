// ABOUTME: init command writing a starter config with a random JWT secret
// ABOUTME: Refuses to overwrite an existing file unless --force is given

package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	cli "github.com/urfave/cli/v3"

	"github.com/2389/hookpanel/internal/config"
)

const configTemplate = `# hookpanel configuration
# Generated by hookpanel init

server:
  http_addr: %q

database:
  path: %q

auth:
  jwt_secret: %q
  token_ttl: "24h"

console:
  base_url: %q
  plugin_id: %q
  setting_id: %q
  draft_ttl: "30m"
  max_drafts: %d

matrix:
  enabled: false
  homeserver: ""
  user_id: ""
  access_token: "${HOOKPANEL_MATRIX_TOKEN}"
  server_name: ""

logging:
  level: "info"
  format: "text"
`

func newInitCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Write a starter config file with a random JWT secret",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "base-url",
				Usage: "External chat server URL used to build webhook URLs",
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "SQLite database path",
				Value: filepath.Join(defaultDataPath(), "hookpanel.db"),
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite an existing config file",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			path := cmd.String("config")
			if err := writeConfig(path, cmd.String("db"), cmd.String("base-url"), cmd.Bool("force")); err != nil {
				return err
			}
			color.Green("  ✓ Created config: %s", path)
			fmt.Println()
			color.Yellow("  Next:")
			fmt.Printf("    hookpanel --config %s token --subject admin\n", path)
			fmt.Printf("    hookpanel --config %s serve\n", path)
			return nil
		},
	}
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating JWT secret: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func writeConfig(path, dbPath, baseURL string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
	}

	secret, err := randomSecret()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	content := fmt.Sprintf(configTemplate,
		config.DefaultHTTPAddr, dbPath, secret, baseURL,
		config.DefaultPluginID, config.DefaultSettingID, config.DefaultMaxDrafts)

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
