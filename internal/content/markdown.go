package content

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Frontmatter is the YAML header written at the top of every entry file.
// Field order here is the order on disk.
type Frontmatter struct {
	Title   string    `yaml:"title"`
	Tags    []string  `yaml:"tags,flow"`
	Type    Type      `yaml:"type"`
	Created time.Time `yaml:"created"`
	Source  string    `yaml:"source,omitempty"`
	Link    string    `yaml:"link,omitempty"`
}

const frontmatterDelimiter = "---"

// RenderMarkdown produces the file contents for a new entry: a frontmatter
// block followed by the optional markdown body.
func RenderMarkdown(fm Frontmatter, body string) (string, error) {
	if fm.Tags == nil {
		fm.Tags = []string{}
	}
	header, err := yaml.Marshal(fm)
	if err != nil {
		return "", fmt.Errorf("failed to encode frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(frontmatterDelimiter + "\n")
	buf.Write(header)
	buf.WriteString(frontmatterDelimiter + "\n")
	buf.WriteString(body)
	return buf.String(), nil
}

// ParseMarkdown splits an entry file into its frontmatter and body.
func ParseMarkdown(data []byte) (Frontmatter, string, error) {
	var fm Frontmatter
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	if !strings.HasPrefix(text, frontmatterDelimiter+"\n") {
		return fm, text, nil
	}

	rest := "\n" + text[len(frontmatterDelimiter)+1:]
	end := strings.Index(rest, "\n"+frontmatterDelimiter)
	if end < 0 {
		return fm, "", fmt.Errorf("frontmatter started but no closing delimiter found")
	}

	if err := yaml.Unmarshal([]byte(rest[:end]), &fm); err != nil {
		return fm, "", fmt.Errorf("failed to parse frontmatter: %w", err)
	}

	body := rest[end+len(frontmatterDelimiter)+1:]
	body = strings.TrimPrefix(body, "\n")
	return fm, strings.TrimSpace(body), nil
}
