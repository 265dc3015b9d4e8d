package schema_test

import (
	"errors"
	"testing"

	"github.com/smallbiznis/valora/biz/schema"
)

func testDocument() *schema.TemplateDocument {
	return &schema.TemplateDocument{
		TenantID: "acme",
		Environments: map[string]*schema.Environment{
			"dev": {Screens: map[string]schema.ScreenVersions{
				"SalesOrder": {
					"v1":    schema.VersionDocument{"version": 1, "isPublished": false},
					"v2":    schema.VersionDocument{"version": 2, "isPublished": true},
					"v3":    schema.VersionDocument{"version": 3, "isPublished": false},
					"draft": schema.VersionDocument{"version": 99},
				},
				"Invoice": {
					"v1": schema.VersionDocument{"version": 1, "isPublished": false},
				},
			}},
			"prod": {Screens: map[string]schema.ScreenVersions{}},
		},
	}
}

func TestLatestPicksHighestParseableKey(t *testing.T) {
	doc := testDocument()

	res, err := schema.Latest(doc, "dev", "SalesOrder")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if res.Version != 3 {
		t.Fatalf("latest version = %d, want 3 (unparseable keys must not win)", res.Version)
	}
	if res.IsPublished {
		t.Fatalf("v3 is a draft, IsPublished should be false")
	}
	if !res.HasPublished {
		t.Fatalf("HasPublished should report the live v2")
	}
}

func TestLatestIsDeterministic(t *testing.T) {
	doc := testDocument()
	for i := 0; i < 50; i++ {
		res, err := schema.Latest(doc, "dev", "SalesOrder")
		if err != nil {
			t.Fatalf("latest: %v", err)
		}
		if res.Version != 3 {
			t.Fatalf("iteration %d resolved version %d, want 3", i, res.Version)
		}
	}
}

func TestLatestCaseInsensitivePath(t *testing.T) {
	doc := testDocument()
	res, err := schema.Latest(doc, "DEV", "salesorder")
	if err != nil {
		t.Fatalf("latest with folded path: %v", err)
	}
	if res.Version != 3 {
		t.Fatalf("latest version = %d, want 3", res.Version)
	}
}

func TestPublishedPicksHighestPublished(t *testing.T) {
	doc := testDocument()

	res, err := schema.Published(doc, "dev", "SalesOrder")
	if err != nil {
		t.Fatalf("published: %v", err)
	}
	if res.Version != 2 || !res.IsPublished {
		t.Fatalf("published resolved v%d published=%v, want v2 published", res.Version, res.IsPublished)
	}
}

func TestPublishedNoneLive(t *testing.T) {
	doc := testDocument()
	_, err := schema.Published(doc, "dev", "Invoice")
	if !errors.Is(err, schema.ErrNotFound) {
		t.Fatalf("expected ErrNotFound when no version is published, got %v", err)
	}
}

func TestByVersionValidatesBeforeLookup(t *testing.T) {
	doc := testDocument()

	for _, bad := range []int{0, -1} {
		if _, err := schema.ByVersion(doc, "nosuchenv", "SalesOrder", bad); !errors.Is(err, schema.ErrInvalidVersion) {
			t.Fatalf("version %d: expected ErrInvalidVersion before any path lookup, got %v", bad, err)
		}
	}

	res, err := schema.ByVersion(doc, "dev", "SalesOrder", 2)
	if err != nil {
		t.Fatalf("by version: %v", err)
	}
	if res.Version != 2 || !res.IsPublished || !res.HasPublished {
		t.Fatalf("unexpected resolution: %+v", res)
	}

	if _, err := schema.ByVersion(doc, "dev", "SalesOrder", 9); !errors.Is(err, schema.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing version, got %v", err)
	}
}

func TestListVersionsDescending(t *testing.T) {
	doc := testDocument()

	infos, err := schema.ListVersions(doc, "dev", "SalesOrder")
	if err != nil {
		t.Fatalf("list versions: %v", err)
	}
	if len(infos) != 3 {
		t.Fatalf("expected 3 parseable versions, got %d", len(infos))
	}
	for i := 1; i < len(infos); i++ {
		if infos[i-1].Version <= infos[i].Version {
			t.Fatalf("versions not descending: %+v", infos)
		}
	}
	if infos[1].Version != 2 || !infos[1].IsPublished {
		t.Fatalf("expected v2 to be flagged published: %+v", infos[1])
	}
}

func TestListObjectCodesSorted(t *testing.T) {
	doc := testDocument()

	codes, err := schema.ListObjectCodes(doc, "dev")
	if err != nil {
		t.Fatalf("list objects: %v", err)
	}
	if len(codes) != 2 || codes[0] != "Invoice" || codes[1] != "SalesOrder" {
		t.Fatalf("unexpected codes: %v", codes)
	}
}

func TestResolveUnknownEnvironment(t *testing.T) {
	doc := testDocument()
	if _, err := schema.Latest(doc, "staging", "SalesOrder"); !errors.Is(err, schema.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown environment, got %v", err)
	}
}

func TestResolveEmptyEnvironment(t *testing.T) {
	doc := testDocument()
	if _, err := schema.Latest(doc, "prod", "SalesOrder"); !errors.Is(err, schema.ErrNotFound) {
		t.Fatalf("expected ErrNotFound in empty environment, got %v", err)
	}
}
