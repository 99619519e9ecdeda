package fs

import (
	"sort"
	"time"

	"github.com/aretw0/introspection"
)

// BackendState exposes internal state for observability.
type BackendState struct {
	Path          string     `json:"path"`
	Format        string     `json:"format"`
	SystemDir     string     `json:"system_dir"`
	ReadOnly      bool       `json:"read_only"`
	Strict        bool       `json:"strict"`
	Serializers   []string   `json:"serializers"`
	WatcherActive bool       `json:"watcher_active"`
	Saves         int        `json:"saves"`
	LastSave      *time.Time `json:"last_save,omitempty"`
}

// State implements introspection.Introspectable.
func (b *Backend) State() any {
	b.mu.RLock()
	defer b.mu.RUnlock()

	serializers := make([]string, 0, len(b.serializers))
	for ext := range b.serializers {
		serializers = append(serializers, ext)
	}
	sort.Strings(serializers)

	return BackendState{
		Path:          b.Path,
		Format:        b.config.Format,
		SystemDir:     b.config.SystemDir,
		ReadOnly:      b.config.ReadOnly,
		Strict:        b.config.Strict,
		Serializers:   serializers,
		WatcherActive: b.watcherActive,
		Saves:         b.saves,
		LastSave:      b.lastSave,
	}
}

// ComponentType implements introspection.Component.
func (b *Backend) ComponentType() string {
	return "fs-backend"
}

var _ introspection.Introspectable = (*Backend)(nil)
var _ introspection.Component = (*Backend)(nil)
