// Package integration holds end-to-end tests that run the updater against a
// local HTTP mirror and a stand-in gpg binary.
package integration
