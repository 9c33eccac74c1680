package schema

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercase passthrough", "acme", "acme"},
		{"uppercase folded", "Acme Corp", "acme_corp"},
		{"spaces and hyphens collapse", "acme  -  corp", "acme_corp"},
		{"special characters stripped", "Acme! Corp@ #2024", "acme_corp_2024"},
		{"leading and trailing underscores trimmed", "  _acme_  ", "acme"},
		{"consecutive underscores collapsed", "a__b___c", "a_b_c"},
		{"unicode stripped", "café münchen", "caf_mnchen"},
		{"only special characters", "!!!@@@", ""},
		{"empty input", "", ""},
		{"truncated to thirty", "abcdefghijklmnopqrstuvwxyz0123456789", "abcdefghijklmnopqrstuvwxyz0123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Sanitize(tt.input))
		})
	}
}

func TestSanitize_NoTrailingUnderscoreAfterTruncation(t *testing.T) {
	// 29 chars then a separator, so the cut lands on an underscore
	input := "abcdefghijklmnopqrstuvwxyz012 xxxxx"
	got := Sanitize(input)
	assert.Equal(t, "abcdefghijklmnopqrstuvwxyz012", got)
	assert.NotRegexp(t, "_$", got)
}

func TestValidIdentifier(t *testing.T) {
	assert.True(t, ValidIdentifier("tenant_acme"))
	assert.True(t, ValidIdentifier("software_erp_tenant_acme"))
	assert.True(t, ValidIdentifier("a1_2b"))

	assert.False(t, ValidIdentifier(""))
	assert.False(t, ValidIdentifier("Tenant"))
	assert.False(t, ValidIdentifier("tenant-acme"))
	assert.False(t, ValidIdentifier("tenant acme"))
	assert.False(t, ValidIdentifier(`tenant";DROP SCHEMA public`))
}

func TestUniqueTenantSlug(t *testing.T) {
	ctx := context.Background()
	schemaNameRe := regexp.MustCompile(`^tenant_[a-z0-9_]{1,34}$`)

	t.Run("free on first try", func(t *testing.T) {
		slug, err := UniqueTenantSlug(ctx, "Acme Corp", func(ctx context.Context, s string) (bool, error) {
			return false, nil
		})
		require.NoError(t, err)
		assert.Equal(t, "tenant_acme_corp", slug)
		assert.Regexp(t, schemaNameRe, slug)
	})

	t.Run("suffix disambiguation", func(t *testing.T) {
		taken := map[string]bool{"tenant_acme": true, "tenant_acme_1": true}
		slug, err := UniqueTenantSlug(ctx, "Acme", func(ctx context.Context, s string) (bool, error) {
			return taken[s], nil
		})
		require.NoError(t, err)
		assert.Equal(t, "tenant_acme_2", slug)
	})

	t.Run("attempt budget exhausted", func(t *testing.T) {
		_, err := UniqueTenantSlug(ctx, "Acme", func(ctx context.Context, s string) (bool, error) {
			return true, nil
		})
		assert.ErrorIs(t, err, ErrSlugExhausted)
	})

	t.Run("empty after sanitization", func(t *testing.T) {
		_, err := UniqueTenantSlug(ctx, "!!!", func(ctx context.Context, s string) (bool, error) {
			return false, nil
		})
		assert.Error(t, err)
	})

	t.Run("exists error propagates", func(t *testing.T) {
		boom := fmt.Errorf("db down")
		_, err := UniqueTenantSlug(ctx, "Acme", func(ctx context.Context, s string) (bool, error) {
			return false, boom
		})
		assert.ErrorIs(t, err, boom)
	})
}

func TestUniqueBranchSlug_NoPrefix(t *testing.T) {
	slug, err := UniqueBranchSlug(context.Background(), "Downtown Office", func(ctx context.Context, s string) (bool, error) {
		return false, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "downtown_office", slug)
}

func TestUniqueSlug_RejectsInvalidBase(t *testing.T) {
	_, err := UniqueSlug(context.Background(), "Branch-Ref", func(ctx context.Context, s string) (bool, error) {
		return false, nil
	})
	assert.Error(t, err)
}

func TestSoftwareSchemaName(t *testing.T) {
	name := SoftwareSchemaName("erp", "tenant_acme")
	assert.Equal(t, "software_erp_tenant_acme", name)

	code, tenantSlug, err := ParseSoftwareSchemaName(name)
	require.NoError(t, err)
	assert.Equal(t, "erp", code)
	assert.Equal(t, "tenant_acme", tenantSlug)
}

func TestParseSoftwareSchemaName_Invalid(t *testing.T) {
	_, _, err := ParseSoftwareSchemaName("tenant_acme")
	assert.Error(t, err)

	_, _, err = ParseSoftwareSchemaName("software_tenant_acme")
	assert.Error(t, err)
}
