// Package updater rewrites the KDE tarball sources of a flatpak manifest.
//
// For every archive source that belongs to the applications or frameworks
// release family it builds the upstream URL for the requested version,
// downloads the tarball, checks its detached signature and only then stores
// the new url and sha256. The manifest is saved once, after every source
// succeeded.
package updater
