// Package signature checks detached OpenPGP signatures of downloaded artifacts
// by running an external gpg binary against a pre-provisioned keyring.
package signature
