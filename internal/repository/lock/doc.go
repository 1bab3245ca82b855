// Package lock guards a manifest against concurrent update runs with a
// sibling lock file that records the owning process ID.
package lock
