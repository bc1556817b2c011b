package registry

import (
	"sort"
	"sync"

	"mercator-hq/callisto/pkg/evidence"
)

// Registry is the static catalog mapping (framework, id) to control
// metadata. Registration is append-only at startup; Seal freezes the
// registry before the process enters serving state, after which lookups
// require no locking discipline from callers and every exported record
// cites a stable control definition.
type Registry struct {
	mu       sync.RWMutex
	sealed   bool
	controls map[string]evidence.ControlDescriptor // key: framework + "/" + id
	version  *CatalogVersionInfo
}

// CatalogVersionInfo identifies the revision of the control catalog the
// registry was loaded from. When catalogs are git-sourced this is the
// commit the catalog files were read at, giving exported evidence a
// verifiable provenance chain.
type CatalogVersionInfo struct {
	// CommitSHA is the git commit hash of the catalog revision.
	CommitSHA string `json:"commit_sha"`

	// CommitTime is when the commit was created.
	CommitTime string `json:"commit_time,omitempty"`

	// Branch is the branch the catalog was loaded from.
	Branch string `json:"branch,omitempty"`

	// Repository is the catalog repository URL.
	Repository string `json:"repository,omitempty"`

	// Author is the commit author (name and email).
	Author string `json:"author,omitempty"`
}

// New creates an empty, unsealed registry.
func New() *Registry {
	return &Registry{
		controls: make(map[string]evidence.ControlDescriptor),
	}
}

// Register adds a control descriptor to the registry.
//
// Returns DuplicateControlError if the (framework, id) pair is already
// registered, and RegistrySealedError if the registry has been sealed.
func (r *Registry) Register(d evidence.ControlDescriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return evidence.NewRegistrySealedError(d.Framework, d.ID)
	}

	key := d.Key()
	if _, exists := r.controls[key]; exists {
		return evidence.NewDuplicateControlError(d.Framework, d.ID)
	}

	r.controls[key] = d
	return nil
}

// RegisterAll registers a list of descriptors, stopping at the first error.
func (r *Registry) RegisterAll(descriptors []evidence.ControlDescriptor) error {
	for _, d := range descriptors {
		if err := r.Register(d); err != nil {
			return err
		}
	}
	return nil
}

// Lookup resolves a (framework, id) pair to its descriptor.
// Returns UnknownControlError if the pair is not registered.
func (r *Registry) Lookup(framework, id string) (evidence.ControlDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.controls[framework+"/"+id]
	if !ok {
		return evidence.ControlDescriptor{}, evidence.NewUnknownControlError(framework, id)
	}
	return d, nil
}

// Seal freezes the registry. Subsequent Register calls fail with
// RegistrySealedError. Sealing an already-sealed registry is a no-op.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
}

// Sealed reports whether the registry has been sealed.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// SetVersion records the catalog revision the registry was loaded from.
// Must be called before Seal.
func (r *Registry) SetVersion(v *CatalogVersionInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.sealed {
		r.version = v
	}
}

// Version returns the catalog revision info, or nil if none was recorded.
func (r *Registry) Version() *CatalogVersionInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// CatalogVersion returns the catalog commit SHA, or "" if catalogs were not
// version-sourced. Carried onto every EvidenceRecord.
func (r *Registry) CatalogVersion() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.version == nil {
		return ""
	}
	return r.version.CommitSHA
}

// Frameworks returns the sorted list of frameworks with registered controls.
func (r *Registry) Frameworks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	for _, d := range r.controls {
		seen[d.Framework] = true
	}

	frameworks := make([]string, 0, len(seen))
	for f := range seen {
		frameworks = append(frameworks, f)
	}
	sort.Strings(frameworks)
	return frameworks
}

// Controls returns the descriptors registered for a framework, sorted by id.
// Returns an empty slice for an unknown framework.
func (r *Registry) Controls(framework string) []evidence.ControlDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []evidence.ControlDescriptor
	for _, d := range r.controls {
		if d.Framework == framework {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Size returns the number of registered controls.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.controls)
}
