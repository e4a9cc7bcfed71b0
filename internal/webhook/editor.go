// ABOUTME: Webhook collection editor: hydrate once, then add/update/delete with host reporting
// ABOUTME: Every mutation reports the full mapping to the host and signals save-needed

package webhook

import (
	"errors"
	"log/slog"
)

// ErrNotReady is returned by editor operations invoked before Hydrate.
var ErrNotReady = errors.New("editor not hydrated")

// Host is the settings framework the editor reports into.
type Host interface {
	// OnChange receives the full current mapping after every mutation.
	OnChange(settingID string, value map[string]Record)
	// SetSaveNeeded marks unsaved local edits.
	SetSaveNeeded()
}

// State is the editor lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Editor owns a webhook Collection for one setting and mediates every change
// to it. It is not safe for concurrent use.
type Editor struct {
	settingID string
	host      Host
	logger    *slog.Logger

	state      State
	collection Collection

	deletePending bool
	deleteKey     string
}

// NewEditor creates an uninitialized editor for settingID reporting to host.
func NewEditor(settingID string, host Host) *Editor {
	return &Editor{
		settingID: settingID,
		host:      host,
		logger:    slog.Default().With("component", "webhook_editor", "setting", settingID),
	}
}

// SettingID returns the host setting this editor is bound to.
func (e *Editor) SettingID() string {
	return e.settingID
}

// State returns the lifecycle state.
func (e *Editor) State() State {
	return e.state
}

// Collection returns the current collection.
func (e *Editor) Collection() Collection {
	return e.collection
}

// Hydrate populates the collection from the host's initial value. It takes
// effect only on the first call; later calls return false and leave the
// collection alone so in-progress edits are not clobbered. A nil or empty
// mapping yields a single default record at key "0".
func (e *Editor) Hydrate(initial map[string]Record) bool {
	if e.state != StateUninitialized {
		e.logger.Debug("ignoring hydrate on ready editor")
		return false
	}

	if len(initial) == 0 {
		e.collection = NewCollection(map[string]Record{"0": {}})
	} else {
		e.collection = NewCollection(initial)
	}
	e.state = StateReady

	e.logger.Debug("editor hydrated", "entries", e.collection.Len())
	return true
}

// UpdateRecord binds key to rec, inserting key when absent.
func (e *Editor) UpdateRecord(key string, rec Record) error {
	if e.state != StateReady {
		return ErrNotReady
	}
	e.commit(e.collection.Set(key, rec))
	return nil
}

// AddRecord appends a default record and returns its key.
func (e *Editor) AddRecord() (string, error) {
	if e.state != StateReady {
		return "", ErrNotReady
	}
	next, key := e.collection.Add()
	e.commit(next)
	e.logger.Debug("added webhook", "key", key)
	return key, nil
}

// RequestDelete shows the confirmation dialog for key without mutating the
// collection.
func (e *Editor) RequestDelete(key string) error {
	if e.state != StateReady {
		return ErrNotReady
	}
	e.deletePending = true
	e.deleteKey = key
	return nil
}

// ConfirmDelete removes the pending key, hides the dialog and reports. A key
// that is already gone leaves the collection unchanged but still reports.
func (e *Editor) ConfirmDelete() error {
	if e.state != StateReady {
		return ErrNotReady
	}
	key := e.deleteKey
	e.deletePending = false
	e.deleteKey = ""

	e.commit(e.collection.Delete(key))
	e.logger.Debug("deleted webhook", "key", key)
	return nil
}

// CancelDelete hides the dialog without mutating the collection.
func (e *Editor) CancelDelete() error {
	if e.state != StateReady {
		return ErrNotReady
	}
	e.deletePending = false
	e.deleteKey = ""
	return nil
}

// PendingDelete returns the key awaiting confirmation, if any.
func (e *Editor) PendingDelete() (string, bool) {
	return e.deleteKey, e.deletePending
}

// commit replaces the collection and reports it to the host.
func (e *Editor) commit(next Collection) {
	e.collection = next
	if e.host == nil {
		return
	}
	e.host.OnChange(e.settingID, next.Map())
	e.host.SetSaveNeeded()
}

// Record returns a record editor view bound to key.
func (e *Editor) Record(key string) *RecordView {
	return &RecordView{editor: e, key: key}
}
