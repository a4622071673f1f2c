package content

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleIndex = `{
  "Unity": [
    {"frontmatter": {"title": "Custom Editor Tools", "tags": ["Unity", "Editor Scripts"], "type": "guide", "created": "2024-03-01T10:00:00.000Z"}, "slug": "custom-editor-tools", "content": "  "},
    {"frontmatter": {"title": "Shader Keywords", "tags": ["Unity", "Shaders"], "type": "snippet", "created": "2024-03-02T10:00:00Z"}, "slug": "shader-keywords", "content": "Use shader_feature_local."}
  ],
  "Blender": [
    {"frontmatter": {"title": "Export Settings", "tags": ["Blender"], "type": "tip", "link": "https://example.com/export", "created": "2024-01-05T00:00:00Z"}, "slug": "export-settings", "content": ""}
  ],
  "Editor Scripts": [
    {"frontmatter": {"title": "Custom Editor Tools", "tags": ["Unity", "Editor Scripts"], "type": "guide", "created": "2024-03-01T10:00:00.000Z"}, "slug": "custom-editor-tools", "content": ""}
  ]
}`

func TestParseIndex_PreservesTagOrder(t *testing.T) {
	idx, err := ParseIndex(strings.NewReader(sampleIndex))
	require.NoError(t, err)

	assert.Equal(t, []string{"Unity", "Blender", "Editor Scripts"}, idx.Tags())
	assert.Equal(t, 4, idx.Len())

	unity := idx.Records("Unity")
	require.Len(t, unity, 2)
	assert.Equal(t, "custom-editor-tools", unity[0].Slug)
	assert.Equal(t, TypeGuide, unity[0].Type)
	assert.Equal(t, "Unity", unity[0].Category)
	assert.False(t, unity[0].HasBody(), "whitespace-only content is not a body")
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), unity[0].Created)
	assert.Equal(t, "Use shader_feature_local.", unity[1].Body)

	blender := idx.Records("Blender")
	require.Len(t, blender, 1)
	assert.Equal(t, "https://example.com/export", blender[0].Link)
}

func TestParseIndex_Malformed(t *testing.T) {
	for _, doc := range []string{`[]`, `{"Unity": {}}`, `{"Unity": [`, ``} {
		_, err := ParseIndex(strings.NewReader(doc))
		assert.ErrorIs(t, err, ErrBadIndex, "doc %q", doc)
	}
}

func TestWriteIndex_RoundTripKeepsOrder(t *testing.T) {
	idx, err := ParseIndex(strings.NewReader(sampleIndex))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteIndex(&buf, idx))

	again, err := ParseIndex(&buf)
	require.NoError(t, err)
	assert.Equal(t, idx.Tags(), again.Tags())
	assert.Equal(t, idx.Records("Unity"), again.Records("Unity"))
}

func TestIndex_EachStopsEarly(t *testing.T) {
	idx, err := ParseIndex(strings.NewReader(sampleIndex))
	require.NoError(t, err)

	var seen []string
	idx.Each(func(tag string, rec Record) bool {
		seen = append(seen, tag+"/"+rec.Slug)
		return len(seen) < 3
	})
	assert.Equal(t, []string{"Unity/custom-editor-tools", "Unity/shader-keywords", "Blender/export-settings"}, seen)
}
