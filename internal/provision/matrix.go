// ABOUTME: Matrix provisioner creating one public room per team and channel
// ABOUTME: Resolves #<team>-<channel>:<server> and creates the room when the alias is unknown

package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/id"
)

// networkTimeout bounds each homeserver call.
const networkTimeout = 10 * time.Second

// roomAPI is the subset of *mautrix.Client the provisioner needs.
type roomAPI interface {
	ResolveAlias(ctx context.Context, alias id.RoomAlias) (*mautrix.RespAliasResolve, error)
	CreateRoom(ctx context.Context, req *mautrix.ReqCreateRoom) (*mautrix.RespCreateRoom, error)
}

// MatrixConfig holds the homeserver credentials.
type MatrixConfig struct {
	Homeserver  string
	UserID      string
	AccessToken string
	ServerName  string
}

// Matrix provisions rooms on a Matrix homeserver.
type Matrix struct {
	client     roomAPI
	serverName string
	logger     *slog.Logger
}

// NewMatrix creates a provisioner logged in as cfg.UserID.
func NewMatrix(cfg MatrixConfig) (*Matrix, error) {
	client, err := mautrix.NewClient(cfg.Homeserver, id.UserID(cfg.UserID), cfg.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("creating matrix client: %w", err)
	}
	return newMatrix(client, cfg.ServerName), nil
}

func newMatrix(client roomAPI, serverName string) *Matrix {
	return &Matrix{
		client:     client,
		serverName: serverName,
		logger:     slog.Default().With("component", "provision"),
	}
}

// AliasLocalpart maps a team and channel onto a room alias localpart.
// Letters are lowercased and anything outside [a-z0-9._=-] becomes '-'.
func AliasLocalpart(team, channel string) string {
	return sanitize(team) + "-" + sanitize(channel)
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '=', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}

// Alias returns the full room alias for a team and channel.
func (m *Matrix) Alias(team, channel string) id.RoomAlias {
	return id.RoomAlias(fmt.Sprintf("#%s:%s", AliasLocalpart(team, channel), m.serverName))
}

// EnsureChannel resolves the channel's alias and creates a public room with
// that alias when the homeserver does not know it.
func (m *Matrix) EnsureChannel(ctx context.Context, team, channel string) (string, error) {
	alias := m.Alias(team, channel)

	resolveCtx, cancel := context.WithTimeout(ctx, networkTimeout)
	resp, err := m.client.ResolveAlias(resolveCtx, alias)
	cancel()
	if err == nil {
		return resp.RoomID.String(), nil
	}
	if !errors.Is(err, mautrix.MNotFound) {
		return "", fmt.Errorf("resolving %s: %w", alias, err)
	}

	createCtx, cancel := context.WithTimeout(ctx, networkTimeout)
	defer cancel()
	created, err := m.client.CreateRoom(createCtx, &mautrix.ReqCreateRoom{
		Visibility:    "public",
		RoomAliasName: AliasLocalpart(team, channel),
		Name:          fmt.Sprintf("%s / %s", team, channel),
		Topic:         "Pingdom alerts",
		Preset:        "public_chat",
	})
	if err != nil {
		return "", fmt.Errorf("creating room %s: %w", alias, err)
	}

	m.logger.Info("created alert room", "alias", alias, "room", created.RoomID)
	return created.RoomID.String(), nil
}
