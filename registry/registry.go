// Package registry provides the process-wide directory of live scenes. It
// maps unique names to scene instances for lookup, tracks the set of all
// live instances independently of naming, and offers broadcast-style helpers
// that reach every peer-side instance through any one live scene.
package registry

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Roy-Kid/molvis/errors"
	"github.com/Roy-Kid/molvis/scene"
)

// Registry manages named scenes and the live-instance set. It is safe for
// concurrent use; name collisions are last-writer-wins by design, with the
// superseded scene object left untouched.
type Registry struct {
	mu        sync.RWMutex
	scenes    map[string]*scene.Scene
	instances map[*scene.Scene]struct{}
	log       *slog.Logger
}

// Option is a functional option for configuring a Registry
type Option func(*Registry)

// WithLogger sets the logger for the registry
func WithLogger(log *slog.Logger) Option {
	return func(r *Registry) {
		if log != nil {
			r.log = log
		}
	}
}

// NewRegistry creates an empty scene registry
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		scenes:    make(map[string]*scene.Scene),
		instances: make(map[*scene.Scene]struct{}),
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register inserts the scene under its name and adds it to the live-instance
// set. Registering a name that already exists silently supersedes the
// previous directory entry; the previous scene object is not closed and
// remains in the instance set until removed explicitly.
func (r *Registry) Register(s *scene.Scene) error {
	if s == nil {
		return errors.New("cannot register a nil scene")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.scenes[s.Name()]; ok && prev != s {
		r.log.Debug("scene name superseded", "scene", s.Name())
	}
	r.scenes[s.Name()] = s
	r.instances[s] = struct{}{}
	return nil
}

// Lookup returns the scene registered under name. A missing name fails with
// a not-found error listing the currently available names.
func (r *Registry) Lookup(name string) (*scene.Scene, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.scenes[name]
	if !ok {
		return nil, errors.NotFound(name, r.namesLocked())
	}
	return s, nil
}

// List returns a snapshot of the currently registered scene names, sorted
// for stable output. Insertion order is not meaningful.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.scenes))
	for name := range r.scenes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Unregister removes the directory entry for name if present; absent names
// are a no-op. The scene object itself is not closed and stays in the
// live-instance set.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.scenes, name)
}

// Remove drops a scene from the live-instance set and, when it still owns
// its name entry, from the directory.
func (r *Registry) Remove(s *scene.Scene) {
	if s == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.instances, s)
	if cur, ok := r.scenes[s.Name()]; ok && cur == s {
		delete(r.scenes, s.Name())
	}
}

// Len returns the number of live scene instances
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.instances)
}

// CloseScene closes the named scene and removes it from both the directory
// and the live-instance set.
func (r *Registry) CloseScene(name string) error {
	s, err := r.Lookup(name)
	if err != nil {
		return err
	}
	r.Remove(s)
	return s.Close()
}

// CloseAll closes every live scene and empties the registry
func (r *Registry) CloseAll() {
	r.mu.Lock()
	live := make([]*scene.Scene, 0, len(r.instances))
	for s := range r.instances {
		live = append(live, s)
	}
	r.scenes = make(map[string]*scene.Scene)
	r.instances = make(map[*scene.Scene]struct{})
	r.mu.Unlock()

	for _, s := range live {
		if err := s.Close(); err != nil {
			r.log.Warn("closing scene failed", "scene", s.Name(), "error", err)
		}
	}
}

// anyInstance returns an arbitrary live instance, or nil when none exist
func (r *Registry) anyInstance() *scene.Scene {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for s := range r.instances {
		return s
	}
	return nil
}

// FrontendInstanceCount asks the peer how many renderer instances it holds,
// going through any one live scene. With no live instance, or on any peer
// or transport failure, it degrades to zero with a warning: broadcast
// helpers never fail the caller.
func (r *Registry) FrontendInstanceCount(timeout time.Duration) int {
	s := r.anyInstance()
	if s == nil {
		return 0
	}
	n, err := s.FrontendInstanceCount(timeout)
	if err != nil {
		r.log.Warn("frontend instance count failed", "scene", s.Name(), "error", err)
		return 0
	}
	return n
}

// ClearAllInstances tells the peer to tear down every renderer instance,
// going through any one live scene. With no live instance this is a no-op.
func (r *Registry) ClearAllInstances() error {
	s := r.anyInstance()
	if s == nil {
		return nil
	}
	return s.ClearAllInstances()
}

// ClearAllContent tells the peer to clear the 3D content of every renderer
// instance, going through any one live scene. With no live instance this is
// a no-op.
func (r *Registry) ClearAllContent() error {
	s := r.anyInstance()
	if s == nil {
		return nil
	}
	return s.ClearAllContent()
}
