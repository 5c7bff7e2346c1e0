package store

import (
	"fmt"
	"strings"

	"github.com/peterbourgon/diskv/v3"
)

// Config locates the local store.
type Config interface {
	BasePath() string
	// Device is the configured device identifier. Empty means use the one
	// recorded in the store, generating it on first use.
	Device() string
}

// Load opens the diskv-backed store under cfg.BasePath().
func Load(cfg Config, opts ...Option) (*Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("store: config required")
	}
	basePath := cfg.BasePath()
	if basePath == "" {
		return nil, fmt.Errorf("store: base path required")
	}
	d := diskv.New(diskv.Options{
		BasePath:          basePath,
		AdvancedTransform: keyToPathTransform,
		InverseTransform:  pathToKeyTransform,
		CacheSizeMax:      1024 * 1024, // 1MB
	})
	return open(d, basePath, cfg.Device(), opts...)
}

// keyToPathTransform stores "kind/id" as <base>/kind/id. IDs are UUIDs, so
// splitting on "-" would scatter them across directories.
func keyToPathTransform(s string) *diskv.PathKey {
	parts := strings.Split(s, "/")
	return &diskv.PathKey{
		Path:     parts[:len(parts)-1],
		FileName: parts[len(parts)-1],
	}
}

func pathToKeyTransform(pathKey *diskv.PathKey) string {
	if len(pathKey.Path) == 0 {
		return pathKey.FileName
	}
	return fmt.Sprintf("%s/%s", strings.Join(pathKey.Path, "/"), pathKey.FileName)
}
