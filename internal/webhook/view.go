// ABOUTME: Record editor view and the editor's rendering contract
// ABOUTME: Views hold no state of their own; every field edit goes through UpdateRecord

package webhook

import "fmt"

// UI strings shown by the collection editor.
const (
	PlaceholderText    = "No webhook configurations have been created yet."
	AddLabel           = "Add new Pingdom webhook"
	DeleteDialogTitle  = "Delete Pingdom webhook"
	DeleteDialogText   = "Are you sure you want to remove this webhook?"
	DeleteConfirmLabel = "Remove"
)

// RecordView edits the record stored under one key.
type RecordView struct {
	editor *Editor
	key    string
}

// Key returns the bound key.
func (v *RecordView) Key() string {
	return v.key
}

// Current returns the record as the editor holds it. An unknown key yields
// the default record.
func (v *RecordView) Current() Record {
	rec, _ := v.editor.collection.Get(v.key)
	return rec
}

// Errors returns the inline validation indicators for the current record.
func (v *RecordView) Errors() FieldErrors {
	return v.Current().Validate()
}

func (v *RecordView) update(fn func(*Record)) error {
	rec := v.Current()
	fn(&rec)
	return v.editor.UpdateRecord(v.key, rec)
}

// SetEnabled toggles whether the webhook may deliver alerts.
func (v *RecordView) SetEnabled(enabled bool) error {
	return v.update(func(r *Record) { r.Disabled = !enabled })
}

// SetTeam sets the team name.
func (v *RecordView) SetTeam(team string) error {
	return v.update(func(r *Record) { r.Team = team })
}

// SetChannel sets the channel name.
func (v *RecordView) SetChannel(channel string) error {
	return v.update(func(r *Record) { r.Channel = channel })
}

// SetToken sets the Pingdom API token.
func (v *RecordView) SetToken(token string) error {
	return v.update(func(r *Record) { r.Token = token })
}

// RegenerateSeed replaces the seed with a fresh random one and returns it.
func (v *RecordView) RegenerateSeed() (string, error) {
	seed, err := NewSeed()
	if err != nil {
		return "", fmt.Errorf("generating seed: %w", err)
	}
	if err := v.update(func(r *Record) { r.Seed = seed }); err != nil {
		return "", err
	}
	return seed, nil
}

// Delete asks the editor to confirm removal of this record.
func (v *RecordView) Delete() error {
	return v.editor.RequestDelete(v.key)
}

// EntryView is one rendered record editor.
type EntryView struct {
	Key     string      `json:"key"`
	Order   int         `json:"order"`
	Record  Record      `json:"record"`
	Errors  FieldErrors `json:"errors"`
	Enabled bool        `json:"enabled"`
	URL     string      `json:"url,omitempty"`
}

// DialogView is the state handed to the host's confirmation dialog.
type DialogView struct {
	Show         bool   `json:"show"`
	Key          string `json:"key,omitempty"`
	Title        string `json:"title"`
	Message      string `json:"message"`
	ConfirmLabel string `json:"confirm_label"`
}

// View is everything needed to draw the collection editor.
type View struct {
	SettingID   string      `json:"setting_id"`
	Entries     []EntryView `json:"entries"`
	Placeholder string      `json:"placeholder,omitempty"`
	AddLabel    string      `json:"add_label"`
	Dialog      DialogView  `json:"dialog"`
}

// URLFunc builds the inbound URL for a seed. It may be nil.
type URLFunc func(seed string) string

// View renders the editor: one entry per record in iteration order, or the
// placeholder when the collection is empty, plus the add action and dialog.
func (e *Editor) View(urlFor URLFunc) View {
	entries := e.collection.Entries()

	view := View{
		SettingID: e.settingID,
		Entries:   make([]EntryView, 0, len(entries)),
		AddLabel:  AddLabel,
		Dialog: DialogView{
			Show:         e.deletePending,
			Key:          e.deleteKey,
			Title:        DeleteDialogTitle,
			Message:      DeleteDialogText,
			ConfirmLabel: DeleteConfirmLabel,
		},
	}

	if len(entries) == 0 {
		view.Placeholder = PlaceholderText
		return view
	}

	for i, ent := range entries {
		ev := EntryView{
			Key:     ent.Key,
			Order:   i,
			Record:  ent.Record,
			Errors:  ent.Record.Validate(),
			Enabled: !ent.Record.Disabled,
		}
		if urlFor != nil && ent.Record.Seed != "" {
			ev.URL = urlFor(ent.Record.Seed)
		}
		view.Entries = append(view.Entries, ev)
	}
	return view
}
