// Package manifest models a flatpak build manifest as a typed tree.
//
// Modules are either *Module records or *ExternalRef tokens naming a module
// file kept elsewhere. Sources expose only the fields the updater reads and
// writes; every other key is carried through in document order together with
// its original YAML node, so formatting and comments survive a round trip.
package manifest
