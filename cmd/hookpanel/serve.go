// ABOUTME: serve and health commands
// ABOUTME: serve runs the console until SIGINT/SIGTERM; health probes a running instance

package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fatih/color"
	cli "github.com/urfave/cli/v3"

	"github.com/2389/hookpanel/internal/config"
	"github.com/2389/hookpanel/internal/server"
)

func newServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the admin console",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runServe(ctx, cmd.String("config"))
		},
	}
}

func runServe(ctx context.Context, configPath string) error {
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Print("    ▶ ")
	fmt.Printf("Config:   %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:     %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Plugin:   %s ", cfg.Console.PluginID)
	gray.Printf("(%s)\n", cfg.Console.SettingID)
	if cfg.Matrix.Enabled {
		green.Print("    ▶ ")
		fmt.Print("Matrix:   ")
		cyan.Println(cfg.Matrix.Homeserver)
	}
	if cfg.Console.BaseURL == "" {
		yellow.Println("    ! console.base_url is empty; webhook URLs will be relative")
	}
	fmt.Println()

	logger.Info("starting hookpanel",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"plugin_id", cfg.Console.PluginID,
	)

	srv, err := server.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	return srv.Run(ctx)
}

func newHealthCommand() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Check the health of a running console",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.Load(cmd.String("config"))
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if err := checkHealth(ctx, http.DefaultClient, "http://"+cfg.Server.HTTPAddr); err != nil {
				return err
			}
			color.Green("healthy")
			return nil
		},
	}
}

func checkHealth(ctx context.Context, client *http.Client, baseURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return nil
}
