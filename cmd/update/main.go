// Command update rewrites the KDE tarball sources of a flatpak manifest.
package main

import "github.com/oshokin/kde-manifest-updater/cmd/update/cmd"

func main() {
	cmd.Execute()
}
