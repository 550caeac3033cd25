package catalog

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// GenericKey is the fallback profile served for unknown business types.
const GenericKey = "generic"

// Normalize converts a business type into its lookup form.
func Normalize(businessType string) string {
	return strings.ToLower(strings.TrimSpace(businessType))
}

// ValidationError is returned when a catalog would contain an invalid profile.
type ValidationError struct {
	Report Report
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0)
	for _, key := range e.Report.InvalidKeys() {
		parts = append(parts, fmt.Sprintf("%s: %s", key, strings.Join(e.Report.Profiles[key].Errors, "; ")))
	}
	parts = append(parts, e.Report.Errors...)
	return "invalid booking profile catalog: " + strings.Join(parts, " | ")
}

// Catalog is an immutable, validated mapping from business type to profile.
// It is safe for concurrent use without synchronization. Accessors hand out
// deep copies.
type Catalog struct {
	profiles map[string]BookingProfile
	aliases  map[string]string
}

// New builds a catalog. Every profile is validated and the whole catalog is
// rejected if any profile, alias or the generic fallback is invalid.
func New(profiles []BookingProfile, aliases map[string]string) (*Catalog, error) {
	report := ValidateSet(profiles, aliases)
	if !report.Valid {
		return nil, &ValidationError{Report: report}
	}

	c := &Catalog{
		profiles: make(map[string]BookingProfile, len(profiles)),
		aliases:  make(map[string]string, len(aliases)),
	}
	for _, p := range profiles {
		c.profiles[p.Key] = p.Clone()
	}
	for alias, target := range aliases {
		c.aliases[alias] = target
	}
	return c, nil
}

// Resolve returns the canonical profile key for businessType and whether it is known.
func (c *Catalog) Resolve(businessType string) (string, bool) {
	key := Normalize(businessType)
	if target, ok := c.aliases[key]; ok {
		key = target
	}
	if _, ok := c.profiles[key]; ok {
		return key, true
	}
	return GenericKey, false
}

// ProfileFor returns the profile for businessType, falling back to the
// generic profile for unknown keys. It never fails.
func (c *Catalog) ProfileFor(businessType string) BookingProfile {
	key, _ := c.Resolve(businessType)
	return c.profiles[key].Clone()
}

// Lookup returns the profile for businessType without falling back.
func (c *Catalog) Lookup(businessType string) (BookingProfile, bool) {
	key, ok := c.Resolve(businessType)
	if !ok {
		return BookingProfile{}, false
	}
	return c.profiles[key].Clone(), true
}

// Keys returns the canonical profile keys in sorted order.
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.profiles))
	for key := range c.profiles {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Profiles returns every profile ordered by key.
func (c *Catalog) Profiles() []BookingProfile {
	keys := c.Keys()
	out := make([]BookingProfile, 0, len(keys))
	for _, key := range keys {
		out = append(out, c.profiles[key].Clone())
	}
	return out
}

// Aliases returns a copy of the alias table.
func (c *Catalog) Aliases() map[string]string {
	out := make(map[string]string, len(c.aliases))
	for alias, target := range c.aliases {
		out[alias] = target
	}
	return out
}

// AliasesFor returns the aliases that resolve to key, sorted.
func (c *Catalog) AliasesFor(key string) []string {
	out := make([]string, 0)
	for alias, target := range c.aliases {
		if target == key {
			out = append(out, alias)
		}
	}
	sort.Strings(out)
	return out
}

// WithProfile returns a new catalog in which p replaces (or adds) the profile
// with the same key. The receiver is left untouched.
func (c *Catalog) WithProfile(p BookingProfile, aliases ...string) (*Catalog, error) {
	profiles := make([]BookingProfile, 0, len(c.profiles)+1)
	for key, existing := range c.profiles {
		if key != p.Key {
			profiles = append(profiles, existing)
		}
	}
	profiles = append(profiles, p)

	table := c.Aliases()
	for _, alias := range aliases {
		table[Normalize(alias)] = p.Key
	}
	return New(profiles, table)
}

// Store holds the live catalog and swaps it atomically on update.
type Store struct {
	current atomic.Pointer[Catalog]
}

// NewStore creates a store serving c.
func NewStore(c *Catalog) *Store {
	s := &Store{}
	s.current.Store(c)
	return s
}

// Current returns the live catalog.
func (s *Store) Current() *Catalog {
	return s.current.Load()
}

// Swap replaces the live catalog.
func (s *Store) Swap(c *Catalog) {
	if c == nil {
		return
	}
	s.current.Store(c)
}

// ProfileFor resolves businessType against the live catalog.
func (s *Store) ProfileFor(businessType string) BookingProfile {
	return s.Current().ProfileFor(businessType)
}

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := New(DefaultProfiles(), DefaultAliases())
	if err != nil {
		panic(err.Error())
	}
	return c
})

// Default returns the built-in catalog.
func Default() *Catalog {
	return defaultCatalog()
}

// ProfileForBusinessType resolves businessType against the built-in catalog.
func ProfileForBusinessType(businessType string) BookingProfile {
	return Default().ProfileFor(businessType)
}
