package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// registry is a sidecar record of which example IDs belong to which user,
// with the relationship type of each. chromem-go cannot enumerate a
// collection's documents, so relationship listings, per-user stats and
// cross-user ID lookups are answered from here. It is persisted as JSON
// next to the chromem data and rewritten on every mutation.
type registry struct {
	path string
	mu   sync.RWMutex
	// users maps userID -> exampleID -> relationship type
	users map[string]map[string]string
}

func loadRegistry(dir string) (*registry, error) {
	r := &registry{
		path:  filepath.Join(dir, "registry.json"),
		users: make(map[string]map[string]string),
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, fmt.Errorf("failed to read index registry: %w", err)
	}
	if err := json.Unmarshal(data, &r.users); err != nil {
		return nil, fmt.Errorf("failed to parse index registry: %w", err)
	}
	return r, nil
}

func (r *registry) save() error {
	r.mu.RLock()
	data, err := json.Marshal(r.users)
	r.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to encode index registry: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write index registry: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("failed to replace index registry: %w", err)
	}
	return nil
}

func (r *registry) put(userID, exampleID, relationship string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	namespace, ok := r.users[userID]
	if !ok {
		namespace = make(map[string]string)
		r.users[userID] = namespace
	}
	namespace[exampleID] = relationship
}

func (r *registry) deleteUser(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.users, userID)
}

// idsByRelationship returns the user's example IDs tagged with the given
// relationship type
func (r *registry) idsByRelationship(userID, relationship string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	for id, rel := range r.users[userID] {
		if rel == relationship {
			ids = append(ids, id)
		}
	}
	return ids
}

func (r *registry) stats(userID string) map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := make(map[string]int)
	for _, rel := range r.users[userID] {
		stats[rel]++
	}
	return stats
}

// findUser returns the user owning the given example ID
func (r *registry) findUser(exampleID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for userID, namespace := range r.users {
		if _, ok := namespace[exampleID]; ok {
			return userID, true
		}
	}
	return "", false
}
