/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: local.go
Description: Local filesystem storage backend. Sanitizes keys against path
traversal, keeps every artifact under one base directory, and writes a .meta.json
sidecar (stored-at timestamp, key, caller metadata) next to each stored file.
*/

package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const metadataSuffix = ".meta.json"

// Local is a filesystem-backed artifact store
type Local struct {
	basePath string
}

// NewLocal creates a local store rooted at basePath, creating it if needed
func NewLocal(basePath string) (*Local, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base path: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &Local{basePath: abs}, nil
}

// fullPath resolves a key to a path inside the base directory. Keys are
// normalized so traversal sequences cannot escape the base.
func (l *Local) fullPath(key string) string {
	clean := strings.TrimLeft(key, "/\\")
	clean = strings.ReplaceAll(clean, "..", "")
	clean = strings.ReplaceAll(clean, ":", "")
	full := filepath.Join(l.basePath, filepath.FromSlash(clean))

	if rel, err := filepath.Rel(l.basePath, full); err != nil || strings.HasPrefix(rel, "..") {
		flat := strings.NewReplacer("/", "_", "\\", "_").Replace(clean)
		full = filepath.Join(l.basePath, flat)
	}
	return full
}

// StoreBytes writes raw bytes under the key and its metadata sidecar
func (l *Local) StoreBytes(key string, data []byte, metadata map[string]interface{}) (string, error) {
	path := l.fullPath(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create parent directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := l.writeMetadata(key, metadata); err != nil {
		return "", err
	}
	return key, nil
}

// StoreJSON marshals the value with indentation and stores it
func (l *Local) StoreJSON(key string, value interface{}, metadata map[string]interface{}) (string, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal value: %w", err)
	}
	return l.StoreBytes(key, data, metadata)
}

// LoadBytes reads the content stored under the key
func (l *Local) LoadBytes(key string) ([]byte, error) {
	data, err := os.ReadFile(l.fullPath(key))
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %q: %w", key, err)
	}
	return data, nil
}

// Exists reports whether the key holds content
func (l *Local) Exists(key string) bool {
	info, err := os.Stat(l.fullPath(key))
	return err == nil && !info.IsDir()
}

// List returns all keys under the prefix, excluding metadata sidecars
func (l *Local) List(prefix string) ([]string, error) {
	root := l.fullPath(prefix)
	var keys []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() || strings.HasSuffix(path, metadataSuffix) {
			return nil
		}
		rel, rerr := filepath.Rel(l.basePath, path)
		if rerr != nil {
			return rerr
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to list %q: %w", prefix, err)
	}
	return keys, nil
}

// LocalPath resolves the key to its filesystem path
func (l *Local) LocalPath(key string) string {
	return l.fullPath(key)
}

// Delete removes the key and its metadata sidecar
func (l *Local) Delete(key string) error {
	if err := os.Remove(l.fullPath(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	_ = os.Remove(l.fullPath(key) + metadataSuffix)
	return nil
}

func (l *Local) writeMetadata(key string, metadata map[string]interface{}) error {
	meta := map[string]interface{}{
		"_key":       key,
		"_stored_at": time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range metadata {
		meta[k] = v
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(l.fullPath(key)+metadataSuffix, data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	return nil
}
