package schema

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	// TenantSchemaPrefix is prepended to every tenant schema name.
	TenantSchemaPrefix = "tenant_"

	// maxBaseLength bounds the sanitized part of a slug, before prefix and
	// disambiguation suffix.
	maxBaseLength = 30

	// maxSlugAttempts caps the _1.._N disambiguation loop.
	maxSlugAttempts = 999
)

// ErrSlugExhausted is returned when no unique slug could be derived within
// maxSlugAttempts.
var ErrSlugExhausted = errors.New("could not generate a unique slug")

var (
	identifierRe = regexp.MustCompile(`^[a-z0-9_]+$`)
	invalidRunes = regexp.MustCompile(`[^a-z0-9\s-]`)
	separators   = regexp.MustCompile(`[\s-]+`)
	doubleUnder  = regexp.MustCompile(`_+`)
)

// ValidIdentifier reports whether s is safe to interpolate as a SQL schema
// identifier. Everything that reaches a DSN or DDL statement must pass this.
func ValidIdentifier(s string) bool {
	return s != "" && identifierRe.MatchString(s)
}

// Sanitize derives a schema-safe base slug from a human-supplied name:
// lowercase, [a-z0-9_] only, no leading/trailing/duplicate underscores,
// truncated to maxBaseLength.
func Sanitize(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = invalidRunes.ReplaceAllString(s, "")
	s = separators.ReplaceAllString(s, "_")
	s = doubleUnder.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > maxBaseLength {
		s = strings.Trim(s[:maxBaseLength], "_")
	}
	return s
}

// ExistsFunc reports whether a candidate slug is already taken.
type ExistsFunc func(ctx context.Context, slug string) (bool, error)

// UniqueTenantSlug builds tenant_<base>, appending _1, _2, ... until exists
// reports a free slug or the attempt budget runs out.
func UniqueTenantSlug(ctx context.Context, name string, exists ExistsFunc) (string, error) {
	base := Sanitize(name)
	if base == "" {
		return "", fmt.Errorf("name %q sanitizes to an empty slug", name)
	}
	return uniqueSlug(ctx, TenantSchemaPrefix+base, exists)
}

// UniqueBranchSlug builds a branch-local slug with no prefix. Uniqueness is
// checked against the owning matrix schema's branch table only.
func UniqueBranchSlug(ctx context.Context, name string, exists ExistsFunc) (string, error) {
	base := Sanitize(name)
	if base == "" {
		return "", fmt.Errorf("name %q sanitizes to an empty slug", name)
	}
	return uniqueSlug(ctx, base, exists)
}

// UniqueSlug disambiguates an already-sanitized base against exists. Used for
// the global reference slugs of branches, which combine fixed parts with a
// branch-local slug.
func UniqueSlug(ctx context.Context, base string, exists ExistsFunc) (string, error) {
	if !ValidIdentifier(base) {
		return "", fmt.Errorf("invalid slug base %q", base)
	}
	return uniqueSlug(ctx, base, exists)
}

func uniqueSlug(ctx context.Context, base string, exists ExistsFunc) (string, error) {
	slug := base
	for attempt := 1; ; attempt++ {
		taken, err := exists(ctx, slug)
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
		if attempt > maxSlugAttempts {
			return "", fmt.Errorf("%w for %q", ErrSlugExhausted, base)
		}
		slug = fmt.Sprintf("%s_%d", base, attempt)
	}
}

// SoftwareSchemaName builds the composite schema name for a tenant-software
// pairing. The tenant slug already carries the tenant_ prefix.
func SoftwareSchemaName(softwareCode, tenantSlug string) string {
	return fmt.Sprintf("software_%s_%s", softwareCode, tenantSlug)
}

// ParseSoftwareSchemaName extracts the software code from a composite schema
// name produced by SoftwareSchemaName.
func ParseSoftwareSchemaName(schemaName string) (code string, tenantSlug string, err error) {
	rest, ok := strings.CutPrefix(schemaName, "software_")
	if !ok {
		return "", "", fmt.Errorf("not a software schema name: %q", schemaName)
	}
	idx := strings.Index(rest, "_"+TenantSchemaPrefix)
	if idx <= 0 {
		return "", "", fmt.Errorf("not a software schema name: %q", schemaName)
	}
	return rest[:idx], rest[idx+1:], nil
}
