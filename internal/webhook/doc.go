// Package webhook implements the editing model for Pingdom webhook settings.
//
// # Overview
//
// A plugin setting holds a mapping from editor-assigned keys to Records:
//
//	{
//	  "0": {"disabled": false, "team": "ops", "channel": "alerts", "seed": "...", "token": ""},
//	  "1": {"disabled": true,  "team": "ops", "channel": "noise",  "seed": "...", "token": "..."}
//	}
//
// The Editor owns that mapping while an administrator is editing it. It is
// hydrated exactly once from the stored value, then mutated only through
// UpdateRecord, AddRecord and the RequestDelete/ConfirmDelete pair. After
// every mutation the full mapping is reported to the Host together with a
// save-needed signal; the Host is the durable store.
//
// # Keys
//
// Keys are decimal strings assigned by the editor. A new record gets one past
// the highest key seen in the editing session, or "0" when the collection is
// empty. Keys that do not parse as integers count as 0 for this purpose.
//
// # Validation
//
// Team, Channel and Seed must be non-blank. Validation is advisory: invalid
// records are still reported and saved, and the view shows inline errors.
//
// # Seeds
//
// NewSeed returns 43 base64url characters from 32 bytes of crypto/rand, so a
// seed can be placed in a URL query or path without escaping.
package webhook
