package content

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Unity: Custom Editor Tools!", "unity-custom-editor-tools"},
		{"My Tip", "my-tip"},
		{"  leading and trailing  ", "leading-and-trailing"},
		{"already-a-slug", "already-a-slug"},
		{"Multiple---hyphens___and   spaces", "multiple-hyphens-and-spaces"},
		{"UPPER case 123", "upper-case-123"},
		{"Café Shaders", "caf-shaders"},
		{"!!!", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, Slug(tt.title))
		})
	}
}

func TestSlug_Properties(t *testing.T) {
	allowed := regexp.MustCompile(`^[a-z0-9-]*$`)
	titles := []string{
		"Unity: Custom Editor Tools!",
		"--Shader Graph -- Tips--",
		"Blender → Unity pipeline",
		"Udon#Sharp & you",
		"a",
		"日本語 title",
		"Tech Art / References (2024)",
	}

	for _, title := range titles {
		s := Slug(title)
		assert.Regexp(t, allowed, s, "title %q", title)
		assert.Equal(t, s, Slug(s), "slug of %q is not idempotent", title)
		assert.False(t, strings.HasPrefix(s, "-"), "leading hyphen in %q", s)
		assert.False(t, strings.HasSuffix(s, "-"), "trailing hyphen in %q", s)
		assert.NotContains(t, s, "--")
		assert.Equal(t, strings.ToLower(s), s)
	}
}
