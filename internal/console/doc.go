// Package console serves the admin settings section for a plugin's Pingdom
// webhooks.
//
// # Routes
//
//	GET  /health
//	POST /admin/login, /admin/logout
//	GET  /admin/plugins/{plugin}/settings             HTML section
//	GET  /api/plugins/{plugin}/webhooks               current state
//	POST /api/plugins/{plugin}/webhooks               add a record
//	PUT  /api/plugins/{plugin}/webhooks/{key}         replace a record
//	PATCH /api/plugins/{plugin}/webhooks/{key}        edit record fields
//	POST /api/plugins/{plugin}/webhooks/{key}/seed    regenerate the seed
//	POST /api/plugins/{plugin}/webhooks/{key}/delete  ask for confirmation
//	POST /api/plugins/{plugin}/delete/confirm|cancel  answer the dialog
//	PUT  /api/plugins/{plugin}/enabled                webhook-active toggle
//	POST /api/plugins/{plugin}/save                   persist the draft
//	POST /api/plugins/{plugin}/cancel                 discard the draft
//	GET  /api/plugins/{plugin}/audit                  audit entries
//
// Every /api route requires an admin token. Each admin edits a private
// draft (see package draft) that is loaded from the store on first use.
// Editing routes answer with the full state: the enabled flag, the
// save-needed flag and the collection editor's view.
//
// # Saving
//
// Save writes the webhook mapping and the enabled flag in one transaction,
// appends an audit entry and then provisions the channel of every enabled,
// valid record. Provisioning failures are reported per record in the
// response and logged; they do not undo the save.
//
// Errors are RFC 7807 problem documents.
package console
