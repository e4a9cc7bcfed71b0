// ABOUTME: Per-admin draft of a plugin's settings, the host side of the webhook editor
// ABOUTME: Tracks the last reported mapping, the plugin enabled flag and the save-needed signal

package draft

import (
	"sync"

	"github.com/2389/hookpanel/internal/webhook"
)

// Draft holds one admin's unsaved edits to one plugin. It implements
// webhook.Host for the editor it owns.
type Draft struct {
	Subject  string
	PluginID string

	// mu serializes editor access. The editor calls back into OnChange and
	// SetSaveNeeded while mu is held, so those only take stateMu.
	mu     sync.Mutex
	editor *webhook.Editor

	stateMu    sync.Mutex
	loaded     bool
	value      map[string]webhook.Record
	reported   bool
	enabled    bool
	saveNeeded bool
}

// New creates an empty draft whose editor is bound to settingID.
func New(subject, pluginID, settingID string) *Draft {
	d := &Draft{
		Subject:  subject,
		PluginID: pluginID,
	}
	d.editor = webhook.NewEditor(settingID, d)
	return d
}

// OnChange records the full mapping reported by the editor.
func (d *Draft) OnChange(settingID string, value map[string]webhook.Record) {
	d.stateMu.Lock()
	defer d.stateMu.Unlock()
	d.value = value
	d.reported = true
}

// SetSaveNeeded flags the draft as differing from what is stored.
func (d *Draft) SetSaveNeeded() {
	d.stateMu.Lock()
	defer d.stateMu.Unlock()
	d.saveNeeded = true
}

// Do runs fn with exclusive access to the draft's editor.
func (d *Draft) Do(fn func(ed *webhook.Editor) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return fn(d.editor)
}

// Load seeds the draft from stored state the first time it is called and
// reports whether it did. The editor is hydrated with records; the enabled
// flag is taken as the stored value.
func (d *Draft) Load(records map[string]webhook.Record, enabled bool) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stateMu.Lock()
	if d.loaded {
		d.stateMu.Unlock()
		return false
	}
	d.loaded = true
	d.enabled = enabled
	d.stateMu.Unlock()

	d.editor.Hydrate(records)
	return true
}

// Loaded reports whether Load has run.
func (d *Draft) Loaded() bool {
	d.stateMu.Lock()
	defer d.stateMu.Unlock()
	return d.loaded
}

// Value returns the last mapping the editor reported. ok is false when the
// editor has not reported since the draft was created; callers then persist
// the editor's current collection instead.
func (d *Draft) Value() (value map[string]webhook.Record, ok bool) {
	d.stateMu.Lock()
	defer d.stateMu.Unlock()
	return d.value, d.reported
}

// Enabled returns the drafted plugin-level enabled flag.
func (d *Draft) Enabled() bool {
	d.stateMu.Lock()
	defer d.stateMu.Unlock()
	return d.enabled
}

// SetEnabled drafts the plugin-level enabled flag. A change marks the draft
// as needing a save.
func (d *Draft) SetEnabled(enabled bool) {
	d.stateMu.Lock()
	defer d.stateMu.Unlock()
	if d.enabled != enabled {
		d.enabled = enabled
		d.saveNeeded = true
	}
}

// SaveNeeded reports whether the draft has unsaved changes.
func (d *Draft) SaveNeeded() bool {
	d.stateMu.Lock()
	defer d.stateMu.Unlock()
	return d.saveNeeded
}

// MarkSaved clears the save-needed flag after the host persisted the draft.
func (d *Draft) MarkSaved() {
	d.stateMu.Lock()
	defer d.stateMu.Unlock()
	d.saveNeeded = false
}
