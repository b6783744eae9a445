package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"mcpctl/internal/fsutil"
	"mcpctl/pkg/logging"
)

// Registry is the durable name -> Server mapping. It is loaded fresh from
// disk on every command invocation, mutated in memory, and persisted as a
// whole via Save. There is no daemon and no cache; the known cost is that
// two concurrent invocations can race on the file (no locking).
type Registry struct {
	Servers   map[string]Server `json:"servers"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{Servers: make(map[string]Server)}
}

// Load reads the registry file at path. A missing file yields an empty
// registry (expected on first run). A file that exists but cannot be parsed
// yields a *CorruptRegistryError rather than an empty registry, so corrupt
// state is never silently discarded.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Debug("Registry", "No registry file at %s, starting empty", path)
			return New(), nil
		}
		return nil, fmt.Errorf("failed to read registry file %s: %w", path, err)
	}

	var reg Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, &CorruptRegistryError{Path: path, Reason: err}
	}
	if reg.Servers == nil {
		reg.Servers = make(map[string]Server)
	}

	logging.Debug("Registry", "Loaded %d servers from %s", len(reg.Servers), path)
	return &reg, nil
}

// Save persists the registry to path atomically: the document is written to
// a temp file in the same directory and renamed over the target, so a crash
// mid-write never leaves a truncated registry behind.
func (r *Registry) Save(path string) error {
	r.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := fsutil.AtomicWriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to save registry to %s: %w", path, err)
	}

	logging.Debug("Registry", "Saved %d servers to %s", len(r.Servers), path)
	return nil
}

// Add registers a new server. The name must not already be present.
func (r *Registry) Add(server Server) error {
	if err := ValidateName(server.Name); err != nil {
		return err
	}
	if _, exists := r.Servers[server.Name]; exists {
		return &DuplicateServerError{Name: server.Name}
	}
	r.Servers[server.Name] = server.clonePayloads()
	return nil
}

// Remove deletes a server by name.
func (r *Registry) Remove(name string) error {
	if _, exists := r.Servers[name]; !exists {
		return &ServerNotFoundError{Name: name}
	}
	delete(r.Servers, name)
	return nil
}

// Get returns the server registered under name. Callers must discriminate
// on the returned server's Type before accessing variant payloads. The
// payloads are detached copies: mutating them does not change the registry
// until the record is passed back through Update.
func (r *Registry) Get(name string) (Server, error) {
	server, exists := r.Servers[name]
	if !exists {
		return Server{}, &ServerNotFoundError{Name: name}
	}
	return server.clonePayloads(), nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, exists := r.Servers[name]
	return exists
}

// Update replaces an existing server record and bumps its UpdatedAt.
func (r *Registry) Update(server Server) error {
	if _, exists := r.Servers[server.Name]; !exists {
		return &ServerNotFoundError{Name: server.Name}
	}
	server.UpdatedAt = time.Now().UTC()
	r.Servers[server.Name] = server.clonePayloads()
	return nil
}

// List returns all servers sorted by name. As with Get, the variant
// payloads are detached copies.
func (r *Registry) List() []Server {
	servers := make([]Server, 0, len(r.Servers))
	for _, server := range r.Servers {
		servers = append(servers, server.clonePayloads())
	}
	sort.Slice(servers, func(i, j int) bool { return servers[i].Name < servers[j].Name })
	return servers
}

// Names returns the set of registered server names.
func (r *Registry) Names() map[string]struct{} {
	names := make(map[string]struct{}, len(r.Servers))
	for name := range r.Servers {
		names[name] = struct{}{}
	}
	return names
}
