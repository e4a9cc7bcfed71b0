// ABOUTME: Ensures the chat channel behind each enabled webhook exists
// ABOUTME: Provisioner interface, a no-op implementation and the EnsureAll driver

package provision

import (
	"context"
	"log/slog"

	"github.com/2389/hookpanel/internal/webhook"
)

// Provisioner makes sure the channel for a team exists and returns an
// identifier for it.
type Provisioner interface {
	EnsureChannel(ctx context.Context, team, channel string) (string, error)
}

// Noop is used when no chat backend is configured.
type Noop struct{}

// EnsureChannel does nothing and returns an empty identifier.
func (Noop) EnsureChannel(ctx context.Context, team, channel string) (string, error) {
	return "", nil
}

// Result is the outcome of provisioning one webhook record.
type Result struct {
	Key     string
	Team    string
	Channel string
	RoomID  string
	Err     error
}

// EnsureAll provisions the channel of every enabled record whose fields
// validate, in collection order. Failures are logged and returned per
// record; they never stop the remaining records.
func EnsureAll(ctx context.Context, p Provisioner, entries []webhook.Entry, logger *slog.Logger) []Result {
	if logger == nil {
		logger = slog.Default()
	}

	var results []Result
	for _, ent := range entries {
		rec := ent.Record
		if rec.Disabled || !rec.Valid() {
			continue
		}
		if err := ctx.Err(); err != nil {
			results = append(results, Result{Key: ent.Key, Team: rec.Team, Channel: rec.Channel, Err: err})
			continue
		}

		roomID, err := p.EnsureChannel(ctx, rec.Team, rec.Channel)
		res := Result{Key: ent.Key, Team: rec.Team, Channel: rec.Channel, RoomID: roomID, Err: err}
		if err != nil {
			logger.Warn("failed to provision channel",
				"key", ent.Key,
				"team", rec.Team,
				"channel", rec.Channel,
				"error", err,
			)
		} else {
			logger.Debug("channel ready", "key", ent.Key, "room", roomID)
		}
		results = append(results, res)
	}
	return results
}
