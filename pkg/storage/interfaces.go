/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: interfaces.go
Description: Artifact storage interface. Pluggable backends for persisting run
output (exploration results, screenshots) keyed by path-like strings with optional
metadata sidecars.
*/

package storage

// Backend abstracts artifact storage for run output
type Backend interface {
	// StoreBytes persists raw bytes under a key and returns the final key
	StoreBytes(key string, data []byte, metadata map[string]interface{}) (string, error)

	// StoreJSON persists a value as indented JSON under a key
	StoreJSON(key string, value interface{}, metadata map[string]interface{}) (string, error)

	// LoadBytes reads back the content stored under a key
	LoadBytes(key string) ([]byte, error)

	// Exists reports whether a key holds content
	Exists(key string) bool

	// List returns all keys under a prefix
	List(prefix string) ([]string, error)

	// LocalPath resolves a key to a filesystem path when the backend has one,
	// or "" otherwise.
	LocalPath(key string) string

	// Delete removes a key and its metadata; missing keys are not an error
	Delete(key string) error
}
