package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Index is the read-only tag → records lookup the search path runs against.
// Tag order and record order are the order of the source document.
type Index struct {
	tags    []string
	records map[string][]Record
}

// NewIndex builds an index from tags in the given order.
func NewIndex(tags []string, records map[string][]Record) *Index {
	idx := &Index{records: make(map[string][]Record, len(tags))}
	for _, tag := range tags {
		if _, dup := idx.records[tag]; dup {
			continue
		}
		idx.tags = append(idx.tags, tag)
		idx.records[tag] = records[tag]
	}
	return idx
}

// Tags returns the index keys in corpus order.
func (idx *Index) Tags() []string {
	if idx == nil {
		return nil
	}
	out := make([]string, len(idx.tags))
	copy(out, idx.tags)
	return out
}

// Records returns the records listed under tag.
func (idx *Index) Records(tag string) []Record {
	if idx == nil {
		return nil
	}
	return idx.records[tag]
}

// Len is the number of tag entries, duplicates across tags included.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	n := 0
	for _, recs := range idx.records {
		n += len(recs)
	}
	return n
}

// Each walks every (tag, record) pair in corpus order until fn returns false.
func (idx *Index) Each(fn func(tag string, rec Record) bool) {
	if idx == nil {
		return
	}
	for _, tag := range idx.tags {
		for _, rec := range idx.records[tag] {
			if !fn(tag, rec) {
				return
			}
		}
	}
}

// indexEntry is the on-disk shape of one record in the content map.
type indexEntry struct {
	Frontmatter struct {
		Title   string   `json:"title"`
		Tags    []string `json:"tags"`
		Type    string   `json:"type"`
		Link    string   `json:"link,omitempty"`
		Source  string   `json:"source,omitempty"`
		Created string   `json:"created"`
	} `json:"frontmatter"`
	Slug    string `json:"slug"`
	Content string `json:"content"`
}

// LoadIndexFile reads a content map JSON document from path.
func LoadIndexFile(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read content index: %w", err)
	}
	return ParseIndex(bytes.NewReader(data))
}

// ParseIndex decodes a content map. The top-level object is walked token by
// token so that tag order survives decoding.
func ParseIndex(r io.Reader) (*Index, error) {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadIndex, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: expected an object of tags", ErrBadIndex)
	}

	var tags []string
	records := make(map[string][]Record)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadIndex, err)
		}
		tag, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: non-string tag key", ErrBadIndex)
		}

		var entries []indexEntry
		if err := dec.Decode(&entries); err != nil {
			return nil, fmt.Errorf("%w: tag %q: %v", ErrBadIndex, tag, err)
		}

		recs := make([]Record, 0, len(entries))
		for _, e := range entries {
			recs = append(recs, e.record(tag))
		}
		if _, seen := records[tag]; !seen {
			tags = append(tags, tag)
		}
		records[tag] = recs
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadIndex, err)
	}

	return NewIndex(tags, records), nil
}

func (e indexEntry) record(category string) Record {
	rec := Record{
		Title:    e.Frontmatter.Title,
		Tags:     e.Frontmatter.Tags,
		Type:     Type(strings.ToLower(e.Frontmatter.Type)),
		Link:     e.Frontmatter.Link,
		Source:   e.Frontmatter.Source,
		Slug:     e.Slug,
		Category: category,
	}
	if strings.TrimSpace(e.Content) != "" {
		rec.Body = e.Content
	}
	if rec.Slug == "" {
		rec.Slug = Slug(rec.Title)
	}
	if e.Frontmatter.Created != "" {
		if t, err := time.Parse(time.RFC3339, e.Frontmatter.Created); err == nil {
			rec.Created = t
		}
	}
	return rec
}

// WriteIndex encodes tags and their records in the same shape ParseIndex reads.
func WriteIndex(w io.Writer, idx *Index) error {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, tag := range idx.Tags() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(tag)
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteByte(':')

		entries := make([]indexEntry, 0, len(idx.Records(tag)))
		for _, rec := range idx.Records(tag) {
			entries = append(entries, entryFromRecord(rec))
		}
		val, err := json.Marshal(entries)
		if err != nil {
			return err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	_, err := w.Write(buf.Bytes())
	return err
}

func entryFromRecord(rec Record) indexEntry {
	var e indexEntry
	e.Frontmatter.Title = rec.Title
	e.Frontmatter.Tags = rec.Tags
	if e.Frontmatter.Tags == nil {
		e.Frontmatter.Tags = []string{}
	}
	e.Frontmatter.Type = string(rec.Type)
	e.Frontmatter.Link = rec.Link
	e.Frontmatter.Source = rec.Source
	if !rec.Created.IsZero() {
		e.Frontmatter.Created = rec.Created.UTC().Format(time.RFC3339Nano)
	}
	e.Slug = rec.Slug
	e.Content = rec.Body
	return e
}
