package constants

import "strings"

// Canonical environment keys. Lookups throughout the platform treat
// environment keys case-insensitively; these are the stored forms.
const (
	EnvironmentDev     = "dev"
	EnvironmentTest    = "test"
	EnvironmentPreview = "preview"
	EnvironmentProd    = "prod"
)

// DefaultEnvironments lists the environments created for a freshly
// onboarded tenant, in promotion order.
var DefaultEnvironments = []string{
	EnvironmentDev,
	EnvironmentTest,
	EnvironmentPreview,
	EnvironmentProd,
}

// promotionTarget maps each environment to the only environment a
// schema version may be promoted into from it.
var promotionTarget = map[string]string{
	EnvironmentDev:     EnvironmentTest,
	EnvironmentTest:    EnvironmentPreview,
	EnvironmentPreview: EnvironmentProd,
}

// NormalizeEnvironment lowercases an environment key and reports whether
// it is one of the known stages.
func NormalizeEnvironment(env string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(env))
	for _, known := range DefaultEnvironments {
		if key == known {
			return known, true
		}
	}
	return key, false
}

// CanPromote reports whether a publish from one environment into another
// follows the dev -> test -> preview -> prod order. Prod is reachable
// only from preview.
func CanPromote(fromEnv, toEnv string) bool {
	from, ok := NormalizeEnvironment(fromEnv)
	if !ok {
		return false
	}
	to, ok := NormalizeEnvironment(toEnv)
	if !ok {
		return false
	}
	return promotionTarget[from] == to
}

// Roles permitted to publish schema versions.
const (
	RolePlatformAdmin = "PlatformAdmin"
	RoleTenantAdmin   = "TenantAdmin"
)

// CanPublish reports whether the given role may run the publish workflow.
func CanPublish(role string) bool {
	return role == RolePlatformAdmin || role == RoleTenantAdmin
}
