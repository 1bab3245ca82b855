// Package config loads the settings of an update run.
//
// Values come from an optional YAML file, are overridden by KDE_UPDATE_*
// environment variables and fall back to defaults that target download.kde.org
// and the gpg2 binary.
package config
