// ABOUTME: Admin console for editing a plugin's webhook settings over HTTP
// ABOUTME: Wires drafts, the settings store, provisioning and auth onto a ServeMux

package console

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/2389/hookpanel/internal/auth"
	"github.com/2389/hookpanel/internal/draft"
	"github.com/2389/hookpanel/internal/provision"
	"github.com/2389/hookpanel/internal/store"
	"github.com/2389/hookpanel/internal/webhook"
)

// EnabledSettingKey stores the plugin-level webhook-active flag.
const EnabledSettingKey = "Enabled"

// ErrUnknownPlugin is returned for plugin ids the console does not manage.
var ErrUnknownPlugin = errors.New("unknown plugin")

// Config holds console configuration
type Config struct {
	// BaseURL is the external chat server URL used to print webhook URLs.
	// Empty disables URL rendering.
	BaseURL string
	// PluginID is the plugin whose settings are editable.
	PluginID string
	// SettingID names the webhook collection setting.
	SettingID string
	// HelpText is Markdown shown under the section header. Empty uses the
	// built-in text.
	HelpText string
}

// Console serves the settings section and its JSON editing API.
type Console struct {
	store       store.Store
	drafts      *draft.Cache
	provisioner provision.Provisioner
	verifier    auth.TokenVerifier
	config      Config
	logger      *slog.Logger
	help        template.HTML
	pages       *template.Template
}

// New creates a console. A nil provisioner disables channel provisioning.
func New(st store.Store, drafts *draft.Cache, p provision.Provisioner, verifier auth.TokenVerifier, cfg Config) (*Console, error) {
	if p == nil {
		p = provision.Noop{}
	}

	help, err := renderHelp(cfg.HelpText)
	if err != nil {
		return nil, fmt.Errorf("rendering help text: %w", err)
	}

	pages, err := parsePages()
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	return &Console{
		store:       st,
		drafts:      drafts,
		provisioner: p,
		verifier:    verifier,
		config:      cfg,
		logger:      slog.Default().With("component", "console"),
		help:        help,
		pages:       pages,
	}, nil
}

// RegisterRoutes registers all console routes on the given mux
func (c *Console) RegisterRoutes(mux *http.ServeMux) {
	requireAuth := auth.HTTPAuthMiddleware(c.verifier)
	optionalAuth := auth.OptionalAuthMiddleware(c.verifier)
	protect := func(h http.HandlerFunc) http.Handler { return requireAuth(h) }

	// Public routes
	mux.HandleFunc("GET /health", c.handleHealth)
	mux.HandleFunc("POST /admin/login", c.handleLogin)
	mux.HandleFunc("POST /admin/logout", c.handleLogout)

	// Settings page renders a login form for anonymous visitors
	mux.Handle("GET /admin/plugins/{plugin}/settings", optionalAuth(http.HandlerFunc(c.handleSettingsPage)))

	// Collection editor
	mux.Handle("GET /api/plugins/{plugin}/webhooks", protect(c.handleGetState))
	mux.Handle("POST /api/plugins/{plugin}/webhooks", protect(c.handleAddRecord))
	mux.Handle("PUT /api/plugins/{plugin}/webhooks/{key}", protect(c.handlePutRecord))
	mux.Handle("PATCH /api/plugins/{plugin}/webhooks/{key}", protect(c.handlePatchRecord))
	mux.Handle("POST /api/plugins/{plugin}/webhooks/{key}/seed", protect(c.handleRegenerateSeed))
	mux.Handle("POST /api/plugins/{plugin}/webhooks/{key}/delete", protect(c.handleRequestDelete))
	mux.Handle("POST /api/plugins/{plugin}/delete/confirm", protect(c.handleConfirmDelete))
	mux.Handle("POST /api/plugins/{plugin}/delete/cancel", protect(c.handleCancelDelete))

	// Plugin flag and host protocol
	mux.Handle("PUT /api/plugins/{plugin}/enabled", protect(c.handleSetEnabled))
	mux.Handle("POST /api/plugins/{plugin}/save", protect(c.handleSave))
	mux.Handle("POST /api/plugins/{plugin}/cancel", protect(c.handleCancel))
	mux.Handle("GET /api/plugins/{plugin}/audit", protect(c.handleAudit))
}

// Handler returns a mux with every console route registered.
func (c *Console) Handler() http.Handler {
	mux := http.NewServeMux()
	c.RegisterRoutes(mux)
	return mux
}

// checkPlugin rejects plugin ids other than the configured one.
func (c *Console) checkPlugin(pluginID string) error {
	if pluginID != c.config.PluginID {
		return fmt.Errorf("%w: %s", ErrUnknownPlugin, pluginID)
	}
	return nil
}

// draftFor returns the caller's draft for pluginID, loading it from the
// store on first use.
func (c *Console) draftFor(ctx context.Context, pluginID string) (*draft.Draft, error) {
	if err := c.checkPlugin(pluginID); err != nil {
		return nil, err
	}

	subject := auth.SubjectFromContext(ctx)
	d, created := c.drafts.GetOrCreate(subject, pluginID, func() *draft.Draft {
		return draft.New(subject, pluginID, c.config.SettingID)
	})
	if created {
		c.logger.Debug("draft created", "subject", subject, "plugin", pluginID)
	}

	if d.Loaded() {
		return d, nil
	}

	records, enabled, err := c.loadStored(ctx, pluginID)
	if err != nil {
		c.drafts.Remove(subject, pluginID)
		return nil, err
	}
	d.Load(records, enabled)
	return d, nil
}

// loadStored reads the persisted webhook mapping and enabled flag.
func (c *Console) loadStored(ctx context.Context, pluginID string) (map[string]webhook.Record, bool, error) {
	return LoadSettings(ctx, c.store, pluginID, c.config.SettingID)
}

// LoadSettings reads the webhook mapping stored under settingID and the
// plugin's Enabled flag. Missing settings yield a nil map and false.
func LoadSettings(ctx context.Context, st store.SettingsStore, pluginID, settingID string) (map[string]webhook.Record, bool, error) {
	settings, err := st.ListSettings(ctx, pluginID)
	if err != nil {
		return nil, false, fmt.Errorf("loading settings: %w", err)
	}

	var records map[string]webhook.Record
	enabled := false
	for _, s := range settings {
		switch s.Key {
		case settingID:
			if err := json.Unmarshal(s.Value, &records); err != nil {
				return nil, false, fmt.Errorf("decoding %s: %w", s.Key, err)
			}
		case EnabledSettingKey:
			if err := json.Unmarshal(s.Value, &enabled); err != nil {
				return nil, false, fmt.Errorf("decoding %s: %w", s.Key, err)
			}
		}
	}
	return records, enabled, nil
}

// urlFunc builds webhook URLs when a base URL is configured.
func (c *Console) urlFunc(pluginID string) webhook.URLFunc {
	if c.config.BaseURL == "" {
		return nil
	}
	return func(seed string) string {
		return webhook.URL(c.config.BaseURL, pluginID, seed)
	}
}

// state is the document every editing endpoint answers with.
type state struct {
	PluginID   string       `json:"plugin_id"`
	Enabled    bool         `json:"enabled"`
	SaveNeeded bool         `json:"save_needed"`
	Webhooks   webhook.View `json:"webhooks"`
}

// stateOf renders d. Must be called from inside d.Do.
func (c *Console) stateOf(d *draft.Draft, ed *webhook.Editor) state {
	return state{
		PluginID:   d.PluginID,
		Enabled:    d.Enabled(),
		SaveNeeded: d.SaveNeeded(),
		Webhooks:   ed.View(c.urlFunc(d.PluginID)),
	}
}

// audit appends an entry and logs instead of failing the request.
func (c *Console) audit(ctx context.Context, action store.AuditAction, pluginID, target string, detail map[string]any) {
	entry := &store.AuditEntry{
		Actor:    auth.SubjectFromContext(ctx),
		Action:   action,
		PluginID: pluginID,
		TargetID: target,
		Detail:   detail,
	}
	if err := c.store.AppendAuditLog(ctx, entry); err != nil {
		c.logger.Warn("failed to append audit log", "action", action, "error", err)
	}
}
