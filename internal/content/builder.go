package content

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
)

// BuildIndex scans fsys for entry files with the given extension and groups
// them by tag. Tags appear in the order they are first seen; a record lists
// under every tag it carries.
func BuildIndex(fsys fs.FS, ext string, logger zerolog.Logger) (*Index, error) {
	ext = strings.TrimPrefix(ext, ".")
	matches, err := doublestar.Glob(fsys, "**/*."+ext)
	if err != nil {
		return nil, fmt.Errorf("failed to scan content: %w", err)
	}
	logger.Info().Int("files", len(matches)).Msg("Found content files")

	var tags []string
	grouped := make(map[string][]Record)
	for _, name := range matches {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		fm, body, err := ParseMarkdown(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}

		slug := strings.TrimSuffix(path.Base(name), "."+ext)
		rec := Record{
			Title:   fm.Title,
			Tags:    fm.Tags,
			Type:    fm.Type,
			Link:    fm.Link,
			Source:  fm.Source,
			Created: fm.Created,
			Slug:    slug,
			Body:    body,
		}
		if len(rec.Tags) == 0 {
			logger.Warn().Str("file", name).Msg("Entry has no tags and will not be searchable by tag")
		}
		for _, tag := range rec.Tags {
			if _, seen := grouped[tag]; !seen {
				tags = append(tags, tag)
			}
			tagged := rec
			tagged.Category = tag
			grouped[tag] = append(grouped[tag], tagged)
		}
	}

	for _, tag := range tags {
		logger.Debug().Str("tag", tag).Int("entries", len(grouped[tag])).Msg("Grouped entries")
	}
	return NewIndex(tags, grouped), nil
}
