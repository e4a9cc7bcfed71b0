// ABOUTME: Offline admin commands: token, list and audit
// ABOUTME: list and audit read the SQLite store directly; token signs with auth.jwt_secret

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	cli "github.com/urfave/cli/v3"

	"github.com/2389/hookpanel/internal/auth"
	"github.com/2389/hookpanel/internal/config"
	"github.com/2389/hookpanel/internal/console"
	"github.com/2389/hookpanel/internal/store"
	"github.com/2389/hookpanel/internal/webhook"
)

func newTokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Issue an admin token",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "subject",
				Aliases:  []string{"s"},
				Usage:    "Admin identity recorded in the audit log",
				Required: true,
			},
			&cli.DurationFlag{
				Name:  "ttl",
				Usage: "Token lifetime (defaults to auth.token_ttl)",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg, err := config.Load(cmd.String("config"))
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			ttl := cmd.Duration("ttl")
			if ttl <= 0 {
				ttl = cfg.Auth.TokenTTL
			}
			token, err := issueToken(cfg.Auth.JWTSecret, cmd.String("subject"), ttl)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
}

func issueToken(secret, subject string, ttl time.Duration) (string, error) {
	verifier, err := auth.NewJWTVerifier([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("creating JWT verifier: %w", err)
	}
	token, err := verifier.Generate(subject, ttl)
	if err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return token, nil
}

// openStore loads the config and opens its database.
func openStore(cmd *cli.Command) (*config.Config, *store.SQLiteStore, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	return cfg, s, nil
}

func newListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "Print the saved webhooks",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, s, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			records, enabled, err := console.LoadSettings(ctx, s, cfg.Console.PluginID, cfg.Console.SettingID)
			if err != nil {
				return err
			}
			printWebhooks(os.Stdout, cfg.Console, webhook.NewCollection(records), enabled)
			return nil
		},
	}
}

func printWebhooks(out io.Writer, cc config.ConsoleConfig, c webhook.Collection, enabled bool) {
	status := color.RedString("disabled")
	if enabled {
		status = color.GreenString("enabled")
	}
	fmt.Fprintf(out, "%s %s\n\n", color.CyanString(cc.PluginID), status)

	if c.Len() == 0 {
		fmt.Fprintln(out, color.HiBlackString(webhook.PlaceholderText))
		return
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tSTATE\tTEAM\tCHANNEL\tURL")
	for _, e := range c.Entries() {
		state := "on"
		if e.Record.Disabled {
			state = "off"
		}
		if !e.Record.Valid() {
			state += " (invalid)"
		}
		url := ""
		if cc.BaseURL != "" && e.Record.Seed != "" {
			url = webhook.URL(cc.BaseURL, cc.PluginID, e.Record.Seed)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.Key, state, e.Record.Team, e.Record.Channel, url)
	}
	_ = tw.Flush()
}

func newAuditCommand() *cli.Command {
	return &cli.Command{
		Name:  "audit",
		Usage: "Print recent audit log entries",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of entries",
				Value: 20,
			},
			&cli.StringFlag{
				Name:  "actor",
				Usage: "Only entries by this admin",
			},
			&cli.StringFlag{
				Name:  "action",
				Usage: "Only entries with this action",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, s, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			filter := store.AuditFilter{
				PluginID: &cfg.Console.PluginID,
				Limit:    int(cmd.Int("limit")),
			}
			if actor := cmd.String("actor"); actor != "" {
				filter.Actor = &actor
			}
			if a := cmd.String("action"); a != "" {
				action := store.AuditAction(a)
				filter.Action = &action
			}

			entries, err := s.ListAuditLog(ctx, filter)
			if err != nil {
				return fmt.Errorf("listing audit log: %w", err)
			}
			printAudit(os.Stdout, entries)
			return nil
		},
	}
}

func printAudit(out io.Writer, entries []store.AuditEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(out, color.HiBlackString("no audit entries"))
		return
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tACTOR\tACTION\tTARGET")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			e.Timestamp.Local().Format(time.DateTime), e.Actor, e.Action, e.TargetID)
	}
	_ = tw.Flush()
}
