// Package provision makes sure the chat channel behind each enabled webhook
// exists after settings are saved.
//
// The Matrix provisioner maps team "Ops" and channel "Alerts" to the alias
// #ops-alerts:<server_name>. When the homeserver answers M_NOT_FOUND for the
// alias, a public room is created with it. Provisioning failures are logged
// per record and never fail the save that triggered them.
package provision
