// Package schema models the per-tenant template document tree
// (environments -> screens -> versions) and resolves schema versions
// within it. The tree is stored as a single JSON document per tenant;
// this package owns its navigation and invariants.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNotFound is the sentinel matched by every missing-path-segment
// error. Callers use errors.Is; the concrete NotFoundError names the
// segment that was absent.
var ErrNotFound = errors.New("not found")

// NotFoundError identifies which path segment of the template tree was
// missing during resolution.
type NotFoundError struct {
	Segment string
	Key     string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Segment)
	}
	return fmt.Sprintf("%s %q not found", e.Segment, e.Key)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func notFound(segment, key string) error {
	return &NotFoundError{Segment: segment, Key: key}
}

// Reserved keys stamped into every version document.
const (
	KeyVersion     = "version"
	KeyIsPublished = "isPublished"
)

// TemplateDocument is the single per-tenant document holding all
// environments, screens and schema versions.
type TemplateDocument struct {
	TenantID     string                  `json:"tenantId"`
	TenantName   string                  `json:"tenantName,omitempty"`
	Environments map[string]*Environment `json:"environments,omitempty"`
}

// Environment groups the screens visible in one deployment stage.
type Environment struct {
	Screens map[string]ScreenVersions `json:"screens,omitempty"`
}

// ScreenVersions maps version keys ("v1", "v2", ...) to version
// documents. Keys not matching v<digits> are ignored when computing the
// latest version.
type ScreenVersions map[string]VersionDocument

// VersionDocument is one stored schema version: arbitrary JSON plus the
// reserved version and isPublished fields.
type VersionDocument map[string]any

// LookupKey finds a map entry by exact match first, then by scanning
// sibling keys case-insensitively. Returns the stored key.
func LookupKey[V any](m map[string]V, key string) (string, V, bool) {
	var zero V
	if m == nil {
		return "", zero, false
	}
	if v, ok := m[key]; ok {
		return key, v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return k, v, true
		}
	}
	return "", zero, false
}

// ParseVersionKey parses a "v<digits>" key into its version number.
// Anything else parses to 0 and is never selected as latest.
func ParseVersionKey(key string) int {
	if len(key) < 2 || (key[0] != 'v' && key[0] != 'V') {
		return 0
	}
	n, err := strconv.Atoi(key[1:])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// FormatVersionKey renders a version number as its map key.
func FormatVersionKey(n int) string {
	return "v" + strconv.Itoa(n)
}

// Environment returns the named environment, case-insensitively.
func (t *TemplateDocument) Environment(env string) (*Environment, error) {
	if t == nil {
		return nil, notFound("tenant document", "")
	}
	if len(t.Environments) == 0 {
		return nil, notFound("environments", "")
	}
	_, e, ok := LookupKey(t.Environments, env)
	if !ok || e == nil {
		return nil, notFound("environment", env)
	}
	return e, nil
}

// EnsureEnvironment returns the named environment, creating it (and the
// environments map) when absent. An existing entry with different casing
// is reused rather than duplicated.
func (t *TemplateDocument) EnsureEnvironment(env string) *Environment {
	if t.Environments == nil {
		t.Environments = make(map[string]*Environment)
	}
	if _, e, ok := LookupKey(t.Environments, env); ok && e != nil {
		return e
	}
	e := &Environment{}
	t.Environments[strings.ToLower(env)] = e
	return e
}

// Versions returns the version map for an object code along with its
// stored key, case-insensitively.
func (e *Environment) Versions(objectCode string) (string, ScreenVersions, error) {
	if e == nil || len(e.Screens) == 0 {
		return "", nil, notFound("screens", "")
	}
	key, versions, ok := LookupKey(e.Screens, objectCode)
	if !ok || versions == nil {
		return "", nil, notFound("object", objectCode)
	}
	return key, versions, nil
}

// EnsureVersions returns the version map for an object code, creating an
// empty one under the given code when absent.
func (e *Environment) EnsureVersions(objectCode string) ScreenVersions {
	if e.Screens == nil {
		e.Screens = make(map[string]ScreenVersions)
	}
	if _, versions, ok := LookupKey(e.Screens, objectCode); ok && versions != nil {
		return versions
	}
	versions := make(ScreenVersions)
	e.Screens[objectCode] = versions
	return versions
}

// RemoveScreen drops the object code's entire version map. Reports
// whether anything was removed; removing a missing code is not an error.
func (e *Environment) RemoveScreen(objectCode string) bool {
	if e == nil || len(e.Screens) == 0 {
		return false
	}
	key, _, ok := LookupKey(e.Screens, objectCode)
	if !ok {
		return false
	}
	delete(e.Screens, key)
	return true
}

// MaxVersion returns the highest parseable version number in the map,
// or 0 when none parse.
func (sv ScreenVersions) MaxVersion() int {
	max := 0
	for key := range sv {
		if n := ParseVersionKey(key); n > max {
			max = n
		}
	}
	return max
}

// Version reads the reserved version field, tolerating the numeric
// representations JSON decoding produces.
func (d VersionDocument) Version() int {
	switch v := d[KeyVersion].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	default:
		return 0
	}
}

// IsPublished reads the reserved published flag.
func (d VersionDocument) IsPublished() bool {
	b, _ := d[KeyIsPublished].(bool)
	return b
}

// Stamp sets the reserved version and published fields.
func (d VersionDocument) Stamp(version int, published bool) {
	d[KeyVersion] = version
	d[KeyIsPublished] = published
}

// SetPublished sets only the published flag.
func (d VersionDocument) SetPublished(published bool) {
	d[KeyIsPublished] = published
}

// Clone deep-copies the version document via a JSON round-trip.
func (d VersionDocument) Clone() (VersionDocument, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("clone version document: %w", err)
	}
	var out VersionDocument
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("clone version document: %w", err)
	}
	return out, nil
}

// ParseTemplate decodes a stored template document.
func ParseTemplate(raw []byte) (*TemplateDocument, error) {
	if len(raw) == 0 {
		return &TemplateDocument{}, nil
	}
	var doc TemplateDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse template document: %w", err)
	}
	return &doc, nil
}

// Encode serialises the template document for storage.
func (t *TemplateDocument) Encode() ([]byte, error) {
	raw, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encode template document: %w", err)
	}
	return raw, nil
}
