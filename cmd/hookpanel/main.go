// ABOUTME: Entry point for hookpanel, the admin console for Pingdom webhook settings
// ABOUTME: Builds the urfave/cli command tree and resolves the config path

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	cli "github.com/urfave/cli/v3"
)

// version is reported by --version. Release builds set it with
// -ldflags "-X main.version=<tag>".
var version = "dev"

const banner = `
 _                 _                          _
| |__   ___   ___ | | ___ __   __ _ _ __   ___| |
| '_ \ / _ \ / _ \| |/ / '_ \ / _' | '_ \ / _ \ |
| | | | (_) | (_) |   <| |_) | (_| | | | |  __/ |
|_| |_|\___/ \___/|_|\_\ .__/ \__,_|_| |_|\___|_|
                       |_|
`

// defaultConfigPath returns the config location when --config is not given.
// Priority: XDG_CONFIG_HOME/hookpanel/config.yaml > ~/.config/hookpanel/config.yaml
func defaultConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml"
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "hookpanel", "config.yaml")
}

// defaultDataPath returns the directory holding the SQLite database.
// Priority: XDG_DATA_HOME/hookpanel > ~/.local/share/hookpanel
func defaultDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data"
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}
	return filepath.Join(dataDir, "hookpanel")
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:                  "hookpanel",
		Usage:                 "Admin console for Pingdom webhook settings",
		Version:               version,
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML or TOML config file",
				Value:   defaultConfigPath(),
				Sources: cli.EnvVars("HOOKPANEL_CONFIG"),
			},
		},
		Commands: []*cli.Command{
			newServeCommand(),
			newInitCommand(),
			newTokenCommand(),
			newListCommand(),
			newAuditCommand(),
			newHealthCommand(),
		},
	}
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("Error:"), err)
		os.Exit(1)
	}
}
