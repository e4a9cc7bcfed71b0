// ABOUTME: Host protocol handlers: save, cancel, audit listing and health
// ABOUTME: Saving persists the draft, audits it and provisions channels for enabled records

package console

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/2389/hookpanel/internal/auth"
	"github.com/2389/hookpanel/internal/draft"
	"github.com/2389/hookpanel/internal/problem"
	"github.com/2389/hookpanel/internal/provision"
	"github.com/2389/hookpanel/internal/store"
	"github.com/2389/hookpanel/internal/webhook"
)

// provisionTimeout bounds channel provisioning after a save.
const provisionTimeout = 30 * time.Second

// provisionResult reports one record's channel after a save.
type provisionResult struct {
	Key     string `json:"key"`
	Team    string `json:"team"`
	Channel string `json:"channel"`
	RoomID  string `json:"room_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// saveResponse extends the state with provisioning outcomes.
type saveResponse struct {
	state
	Provisioned []provisionResult `json:"provisioned"`
}

func (c *Console) handleSave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pluginID := r.PathValue("plugin")

	d, err := c.draftFor(ctx, pluginID)
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	var (
		resp    saveResponse
		entries []webhook.Entry
	)
	err = d.Do(func(ed *webhook.Editor) error {
		value, reported := d.Value()
		if !reported {
			value = ed.Collection().Map()
		}

		values, err := encodeSettings(ed.SettingID(), value, d.Enabled())
		if err != nil {
			return err
		}
		if err := c.store.SaveSettings(ctx, pluginID, values, auth.SubjectFromContext(ctx)); err != nil {
			return fmt.Errorf("saving settings: %w", err)
		}
		d.MarkSaved()

		c.audit(ctx, store.AuditSaveSettings, pluginID, ed.SettingID(), map[string]any{
			"records": len(value),
			"enabled": d.Enabled(),
		})

		entries = ed.Collection().Entries()
		resp.state = c.stateOf(d, ed)
		return nil
	})
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	c.logger.Info("settings saved",
		"plugin", pluginID,
		"by", auth.SubjectFromContext(ctx),
		"records", len(entries),
	)

	resp.Provisioned = c.provision(ctx, pluginID, entries)
	writeJSON(w, http.StatusOK, resp)
}

// encodeSettings builds the stored values for a save.
func encodeSettings(settingID string, records map[string]webhook.Record, enabled bool) (map[string]json.RawMessage, error) {
	if records == nil {
		records = map[string]webhook.Record{}
	}
	recordsJSON, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", settingID, err)
	}
	enabledJSON, err := json.Marshal(enabled)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", EnabledSettingKey, err)
	}
	return map[string]json.RawMessage{
		settingID:         recordsJSON,
		EnabledSettingKey: enabledJSON,
	}, nil
}

// provision ensures channels for the saved records. Failures are reported
// in the response but never fail the save.
func (c *Console) provision(ctx context.Context, pluginID string, entries []webhook.Entry) []provisionResult {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), provisionTimeout)
	defer cancel()

	results := provision.EnsureAll(pctx, c.provisioner, entries, c.logger)
	out := make([]provisionResult, 0, len(results))
	for _, res := range results {
		pr := provisionResult{
			Key:     res.Key,
			Team:    res.Team,
			Channel: res.Channel,
			RoomID:  res.RoomID,
		}
		if res.Err != nil {
			pr.Error = res.Err.Error()
		} else if res.RoomID != "" {
			c.audit(ctx, store.AuditProvisionChannel, pluginID, c.config.SettingID+"/"+res.Key, map[string]any{
				"team":    res.Team,
				"channel": res.Channel,
				"room_id": res.RoomID,
			})
		}
		out = append(out, pr)
	}
	return out
}

func (c *Console) handleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pluginID := r.PathValue("plugin")
	if err := c.checkPlugin(pluginID); err != nil {
		c.writeError(w, r, err)
		return
	}

	subject := auth.SubjectFromContext(ctx)
	if d, ok := c.drafts.Get(subject, pluginID); ok && d.SaveNeeded() {
		c.audit(ctx, store.AuditDiscardSettings, pluginID, c.config.SettingID, nil)
	}
	c.drafts.Remove(subject, pluginID)

	// Answer with a fresh draft loaded from the store
	c.edit(w, r, func(d *draft.Draft, ed *webhook.Editor) error {
		return nil
	})
}

func (c *Console) handleAudit(w http.ResponseWriter, r *http.Request) {
	pluginID := r.PathValue("plugin")
	if err := c.checkPlugin(pluginID); err != nil {
		c.writeError(w, r, err)
		return
	}

	filter := store.AuditFilter{PluginID: &pluginID}
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			problem.BadRequest(w, r, "limit must be an integer")
			return
		}
		filter.Limit = limit
	}
	if v := q.Get("action"); v != "" {
		action := store.AuditAction(v)
		filter.Action = &action
	}
	if v := q.Get("actor"); v != "" {
		filter.Actor = &v
	}
	if v := q.Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			problem.BadRequest(w, r, "since must be an RFC 3339 timestamp")
			return
		}
		filter.Since = &since
	}

	entries, err := c.store.ListAuditLog(r.Context(), filter)
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	type auditItem struct {
		ID        string         `json:"id"`
		Actor     string         `json:"actor"`
		Action    string         `json:"action"`
		Target    string         `json:"target"`
		Timestamp time.Time      `json:"timestamp"`
		Detail    map[string]any `json:"detail,omitempty"`
	}
	items := make([]auditItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, auditItem{
			ID:        e.ID,
			Actor:     e.Actor,
			Action:    string(e.Action),
			Target:    e.TargetID,
			Timestamp: e.Timestamp,
			Detail:    e.Detail,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": items})
}

func (c *Console) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := c.store.Ping(r.Context()); err != nil {
		c.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
