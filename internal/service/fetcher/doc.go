// Package fetcher downloads release tarballs into memory while hashing them,
// and refuses bodies whose length differs from the declared Content-Length.
package fetcher
