// ABOUTME: JSON handlers for the webhook collection editor
// ABOUTME: Each handler runs one editor operation on the caller's draft and returns the new state

package console

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/2389/hookpanel/internal/draft"
	"github.com/2389/hookpanel/internal/problem"
	"github.com/2389/hookpanel/internal/store"
	"github.com/2389/hookpanel/internal/webhook"
)

// maxBodyBytes caps request bodies of the editing API.
const maxBodyBytes = 64 << 10

// errStatus carries an HTTP problem out of an editor callback.
type errStatus struct {
	status int
	detail string
}

func (e *errStatus) Error() string { return e.detail }

func notFound(detail string) error { return &errStatus{status: http.StatusNotFound, detail: detail} }
func conflict(detail string) error { return &errStatus{status: http.StatusConflict, detail: detail} }
func badRequest(detail string) error {
	return &errStatus{status: http.StatusBadRequest, detail: detail}
}

// writeError maps an error onto a problem document.
func (c *Console) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var es *errStatus
	switch {
	case errors.As(err, &es):
		switch es.status {
		case http.StatusNotFound:
			problem.NotFound(w, r, es.detail)
		case http.StatusConflict:
			problem.Conflict(w, r, es.detail)
		default:
			problem.BadRequest(w, r, es.detail)
		}
	case errors.Is(err, ErrUnknownPlugin):
		problem.NotFound(w, r, err.Error())
	case errors.Is(err, store.ErrInvalidSetting):
		problem.BadRequest(w, r, err.Error())
	case errors.Is(err, webhook.ErrNotReady):
		problem.Conflict(w, r, err.Error())
	default:
		c.logger.Error("request failed", "path", r.URL.Path, "error", err)
		problem.Internal(w, r, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	return decode(w, r, v, true)
}

// decodeRecord accepts unknown fields so stored records written by other
// clients (with an "id" member, say) can be sent back unchanged.
func decodeRecord(w http.ResponseWriter, r *http.Request, rec *webhook.Record) error {
	return decode(w, r, rec, false)
}

func decode(w http.ResponseWriter, r *http.Request, v any, strict bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(v); err != nil {
		return badRequest("invalid request body: " + err.Error())
	}
	return nil
}

// edit loads the caller's draft, runs fn on its editor and answers with
// the resulting state.
func (c *Console) edit(w http.ResponseWriter, r *http.Request, fn func(d *draft.Draft, ed *webhook.Editor) error) {
	d, err := c.draftFor(r.Context(), r.PathValue("plugin"))
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	var st state
	err = d.Do(func(ed *webhook.Editor) error {
		if err := fn(d, ed); err != nil {
			return err
		}
		st = c.stateOf(d, ed)
		return nil
	})
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// requireKey fails when key is not in the editor's collection.
func requireKey(ed *webhook.Editor, key string) error {
	if _, ok := ed.Collection().Get(key); !ok {
		return notFound("no webhook with key " + key)
	}
	return nil
}

func (c *Console) handleGetState(w http.ResponseWriter, r *http.Request) {
	c.edit(w, r, func(d *draft.Draft, ed *webhook.Editor) error {
		return nil
	})
}

// addResponse extends the state with the key of the new record.
type addResponse struct {
	state
	Key string `json:"key"`
}

func (c *Console) handleAddRecord(w http.ResponseWriter, r *http.Request) {
	d, err := c.draftFor(r.Context(), r.PathValue("plugin"))
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	var resp addResponse
	err = d.Do(func(ed *webhook.Editor) error {
		key, err := ed.AddRecord()
		if err != nil {
			return err
		}
		resp = addResponse{state: c.stateOf(d, ed), Key: key}
		return nil
	})
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (c *Console) handlePutRecord(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		c.writeError(w, r, badRequest("key is required"))
		return
	}
	var rec webhook.Record
	if err := decodeRecord(w, r, &rec); err != nil {
		c.writeError(w, r, err)
		return
	}

	c.edit(w, r, func(d *draft.Draft, ed *webhook.Editor) error {
		return ed.UpdateRecord(key, rec)
	})
}

// recordPatch carries the fields a record editor may change. Absent fields
// are left alone.
type recordPatch struct {
	Enabled *bool   `json:"enabled"`
	Team    *string `json:"team"`
	Channel *string `json:"channel"`
	Token   *string `json:"token"`
}

func (c *Console) handlePatchRecord(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	var patch recordPatch
	if err := decodeBody(w, r, &patch); err != nil {
		c.writeError(w, r, err)
		return
	}

	c.edit(w, r, func(d *draft.Draft, ed *webhook.Editor) error {
		if err := requireKey(ed, key); err != nil {
			return err
		}
		rv := ed.Record(key)
		if patch.Enabled != nil {
			if err := rv.SetEnabled(*patch.Enabled); err != nil {
				return err
			}
		}
		if patch.Team != nil {
			if err := rv.SetTeam(*patch.Team); err != nil {
				return err
			}
		}
		if patch.Channel != nil {
			if err := rv.SetChannel(*patch.Channel); err != nil {
				return err
			}
		}
		if patch.Token != nil {
			if err := rv.SetToken(*patch.Token); err != nil {
				return err
			}
		}
		return nil
	})
}

func (c *Console) handleRegenerateSeed(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	pluginID := r.PathValue("plugin")

	c.edit(w, r, func(d *draft.Draft, ed *webhook.Editor) error {
		if err := requireKey(ed, key); err != nil {
			return err
		}
		if _, err := ed.Record(key).RegenerateSeed(); err != nil {
			return err
		}
		c.audit(r.Context(), store.AuditRegenerateSeed, pluginID, ed.SettingID()+"/"+key, nil)
		return nil
	})
}

func (c *Console) handleRequestDelete(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	c.edit(w, r, func(d *draft.Draft, ed *webhook.Editor) error {
		if err := requireKey(ed, key); err != nil {
			return err
		}
		return ed.Record(key).Delete()
	})
}

func (c *Console) handleConfirmDelete(w http.ResponseWriter, r *http.Request) {
	c.edit(w, r, func(d *draft.Draft, ed *webhook.Editor) error {
		if _, pending := ed.PendingDelete(); !pending {
			return conflict("no delete is pending")
		}
		return ed.ConfirmDelete()
	})
}

func (c *Console) handleCancelDelete(w http.ResponseWriter, r *http.Request) {
	c.edit(w, r, func(d *draft.Draft, ed *webhook.Editor) error {
		return ed.CancelDelete()
	})
}

// enabledRequest is the body of the webhook-active toggle.
type enabledRequest struct {
	Enabled *bool `json:"enabled"`
}

func (c *Console) handleSetEnabled(w http.ResponseWriter, r *http.Request) {
	var req enabledRequest
	if err := decodeBody(w, r, &req); err != nil {
		c.writeError(w, r, err)
		return
	}
	if req.Enabled == nil {
		c.writeError(w, r, badRequest("enabled is required"))
		return
	}

	c.edit(w, r, func(d *draft.Draft, ed *webhook.Editor) error {
		d.SetEnabled(*req.Enabled)
		return nil
	})
}
