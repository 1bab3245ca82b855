// Package release knows how KDE lays out release tarballs on its download mirror.
//
// It classifies an existing source URL into a release family and builds the
// canonical tarball URL for a module at a given version. Nothing here does I/O.
package release
