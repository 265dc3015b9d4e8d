package schema

import (
	"errors"
	"sort"
)

// ErrInvalidVersion rejects non-positive version numbers before any
// document lookup happens.
var ErrInvalidVersion = errors.New("version must be a positive integer")

// Resolution is the outcome of resolving one schema version.
type Resolution struct {
	Version     int
	IsPublished bool
	// HasPublished reports whether any version of the object carries the
	// published flag; callers surface it out-of-band (X-Is-Published) so
	// clients can tell a latest draft apart from the published state.
	HasPublished bool
	Document     VersionDocument
}

// VersionInfo is one entry of a version listing.
type VersionInfo struct {
	Version     int  `json:"version"`
	IsPublished bool `json:"isPublished"`
}

// Latest resolves the version with the numerically largest parseable
// v<digits> key. Keys that fail to parse count as 0 and never win.
func Latest(t *TemplateDocument, env, objectCode string) (*Resolution, error) {
	versions, err := versionsFor(t, env, objectCode)
	if err != nil {
		return nil, err
	}

	bestVersion := 0
	var best VersionDocument
	hasPublished := false
	for key, doc := range versions {
		if doc == nil {
			continue
		}
		if doc.IsPublished() {
			hasPublished = true
		}
		if n := ParseVersionKey(key); n > bestVersion {
			bestVersion = n
			best = doc
		}
	}
	if best == nil {
		return nil, notFound("version", "")
	}
	return &Resolution{
		Version:      bestVersion,
		IsPublished:  best.IsPublished(),
		HasPublished: hasPublished,
		Document:     best,
	}, nil
}

// Published resolves the highest-numbered version flagged as published.
func Published(t *TemplateDocument, env, objectCode string) (*Resolution, error) {
	versions, err := versionsFor(t, env, objectCode)
	if err != nil {
		return nil, err
	}

	bestVersion := 0
	var best VersionDocument
	for key, doc := range versions {
		if doc == nil || !doc.IsPublished() {
			continue
		}
		if n := ParseVersionKey(key); n > bestVersion {
			bestVersion = n
			best = doc
		}
	}
	if best == nil {
		return nil, notFound("published version", objectCode)
	}
	return &Resolution{
		Version:      bestVersion,
		IsPublished:  true,
		HasPublished: true,
		Document:     best,
	}, nil
}

// ByVersion resolves an exact version key. The version number is
// validated before any lookup.
func ByVersion(t *TemplateDocument, env, objectCode string, version int) (*Resolution, error) {
	if version <= 0 {
		return nil, ErrInvalidVersion
	}
	versions, err := versionsFor(t, env, objectCode)
	if err != nil {
		return nil, err
	}
	doc, ok := versions[FormatVersionKey(version)]
	if !ok || doc == nil {
		return nil, notFound("version", FormatVersionKey(version))
	}
	hasPublished := false
	for _, d := range versions {
		if d != nil && d.IsPublished() {
			hasPublished = true
			break
		}
	}
	return &Resolution{
		Version:      version,
		IsPublished:  doc.IsPublished(),
		HasPublished: hasPublished,
		Document:     doc,
	}, nil
}

// ListObjectCodes returns all screen keys in the environment, sorted
// ascending, case as stored.
func ListObjectCodes(t *TemplateDocument, env string) ([]string, error) {
	e, err := t.Environment(env)
	if err != nil {
		return nil, err
	}
	codes := make([]string, 0, len(e.Screens))
	for code := range e.Screens {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes, nil
}

// ListVersions returns version/published pairs for all parseable version
// keys greater than zero, sorted descending by version.
func ListVersions(t *TemplateDocument, env, objectCode string) ([]VersionInfo, error) {
	versions, err := versionsFor(t, env, objectCode)
	if err != nil {
		return nil, err
	}
	infos := make([]VersionInfo, 0, len(versions))
	for key, doc := range versions {
		n := ParseVersionKey(key)
		if n <= 0 || doc == nil {
			continue
		}
		infos = append(infos, VersionInfo{Version: n, IsPublished: doc.IsPublished()})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Version > infos[j].Version })
	return infos, nil
}

func versionsFor(t *TemplateDocument, env, objectCode string) (ScreenVersions, error) {
	e, err := t.Environment(env)
	if err != nil {
		return nil, err
	}
	_, versions, err := e.Versions(objectCode)
	if err != nil {
		return nil, err
	}
	return versions, nil
}
