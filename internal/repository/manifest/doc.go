// Package manifest reads and writes build manifests on disk.
//
// The codec is picked from the file extension: .json manifests are written
// back as indented JSON and .yaml/.yml manifests as YAML. Both keep key order
// and every field the updater does not touch. FileRepository replaces the
// file atomically so a crash never leaves a half-written manifest.
package manifest
