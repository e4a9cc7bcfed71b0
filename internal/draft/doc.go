// Package draft keeps each admin's unsaved settings edits between requests.
//
// A Draft owns a webhook.Editor and acts as its host: it remembers the last
// mapping the editor reported and whether a save is needed. The console
// persists Value() on save and drops the draft on cancel, so the next load
// starts again from the stored settings.
//
// Drafts live in a Cache keyed by admin subject and plugin id. Drafts idle
// for longer than the TTL expire, and the least recently used draft is
// evicted when the cache is full.
package draft
