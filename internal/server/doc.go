// Package server runs the hookpanel HTTP process.
//
// New opens the SQLite store, builds the draft cache, the JWT verifier and
// the channel provisioner (Matrix when matrix.enabled, otherwise a no-op)
// and mounts the console routes. Run serves until its context is canceled
// and then shuts down within five seconds, closing the store.
package server
