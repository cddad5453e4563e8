package profile

import (
	"errors"
	"strings"
	"sync"

	"github.com/dastsc/nexus/internal/telemetry"
)

// AutoID is the sentinel selection id that clears the manual override and
// returns the catalog to auto-detection.
const AutoID = "AUTO"

// DefaultID is the profile id used as the loco-name matching fallback when
// nothing else matches.
const DefaultID = "default_expert"

var (
	// ErrEmptyCatalog is returned when a selection is attempted against a
	// catalog with no profiles.
	ErrEmptyCatalog = errors.New("profile catalog is empty")
	// ErrUnknownProfile is returned when the requested profile id does not
	// exist in the catalog.
	ErrUnknownProfile = errors.New("unknown profile id")
)

// Catalog holds the loaded profiles in insertion order plus the operator's
// manual selection. Both change at runtime (operator commands, catalog
// reloads) and are guarded so they can race safely with telemetry ticks.
type Catalog struct {
	mu       sync.RWMutex
	profiles []*Profile
	manual   *Profile
}

// NewCatalog builds a catalog over the given profiles. Insertion order is
// preserved: it is the documented tie-break for fingerprint matching.
func NewCatalog(profiles []*Profile) *Catalog {
	return &Catalog{profiles: profiles}
}

// Profiles returns the catalog entries in insertion order.
func (c *Catalog) Profiles() []*Profile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.profiles
}

// Len returns the number of profiles in the catalog.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.profiles)
}

// Get returns the profile with the given id, or nil.
func (c *Catalog) Get(id string) *Profile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.get(id)
}

func (c *Catalog) get(id string) *Profile {
	for _, p := range c.profiles {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Select sets the manual override to the profile with the given id, or
// clears it when id is AutoID. Unknown ids leave the current selection
// untouched: a failed selection must not disturb a running session.
func (c *Catalog) Select(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id == AutoID {
		c.manual = nil
		return nil
	}
	if len(c.profiles) == 0 {
		return ErrEmptyCatalog
	}
	p := c.get(id)
	if p == nil {
		return ErrUnknownProfile
	}
	c.manual = p
	return nil
}

// Reload replaces the catalog contents. A manual selection survives when a
// profile with the same id still exists, and is cleared otherwise so a
// stale pointer can never shadow the new records.
func (c *Catalog) Reload(profiles []*Profile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.profiles = profiles
	if c.manual == nil {
		return
	}
	selected := c.manual.ID
	c.manual = nil
	for _, p := range profiles {
		if p.ID == selected {
			c.manual = p
			return
		}
	}
}

// Manual returns the manually selected profile, or nil when auto-detection
// is active.
func (c *Catalog) Manual() *Profile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.manual
}

// MatchFingerprint returns the profile whose required controls are all
// present in the snapshot, preferring the largest fingerprint (the more
// specific the profile, the better the evidence). Ties go to the earliest
// catalog entry. Profiles with an empty fingerprint never match. The manual
// override, when set, wins unconditionally.
func (c *Catalog) MatchFingerprint(snap telemetry.Snapshot) *Profile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.manual != nil {
		return c.manual
	}

	var best *Profile
	maxRequired := 0
	for _, p := range c.profiles {
		required := p.Fingerprint.RequiredControls
		if len(required) == 0 {
			continue
		}
		all := true
		for _, control := range required {
			if !snap.Has(control) {
				all = false
				break
			}
		}
		// Strictly greater keeps the first-inserted profile on ties.
		if all && len(required) > maxRequired {
			maxRequired = len(required)
			best = p
		}
	}
	return best
}

// MatchLocoName returns the best profile for a loco name reported directly
// in telemetry: exact case-insensitive id match, then substring match in
// either direction, then the default profile id, then the first catalog
// entry, then nil. The manual override, when set, wins unconditionally.
func (c *Catalog) MatchLocoName(locoName string) *Profile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.manual != nil {
		return c.manual
	}
	if len(c.profiles) == 0 {
		return nil
	}

	name := strings.ToLower(locoName)
	for _, p := range c.profiles {
		if strings.ToLower(p.ID) == name {
			return p
		}
	}
	for _, p := range c.profiles {
		id := strings.ToLower(p.ID)
		if strings.Contains(name, id) || strings.Contains(id, name) {
			return p
		}
	}
	if p := c.get(DefaultID); p != nil {
		return p
	}
	return c.profiles[0]
}
