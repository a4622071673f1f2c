package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tipsbot/internal/content"
	"github.com/tipsbot/internal/search"
)

// SearchResult is one entry of the public search API.
type SearchResult struct {
	Category string    `json:"category"`
	Title    string    `json:"title"`
	Tags     []string  `json:"tags"`
	Type     string    `json:"type"`
	Link     string    `json:"link,omitempty"`
	Source   string    `json:"source,omitempty"`
	Created  time.Time `json:"created"`
	Slug     string    `json:"slug"`
}

// SearchHandler serves GET /api/search?q= from the current index snapshot,
// with the same matching rules as the slash command.
type SearchHandler struct {
	index IndexSource
}

func NewSearchHandler(index IndexSource) *SearchHandler {
	return &SearchHandler{index: index}
}

func (h *SearchHandler) Handle(c echo.Context) error {
	term := c.QueryParam("q")
	if strings.TrimSpace(term) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "No search query provided"})
	}

	data := []SearchResult{}
	if h.index != nil {
		for _, rec := range search.Search(term, h.index.Index()) {
			data = append(data, toSearchResult(rec))
		}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": data})
}

func toSearchResult(rec content.Record) SearchResult {
	tags := rec.Tags
	if tags == nil {
		tags = []string{}
	}
	return SearchResult{
		Category: rec.Category,
		Title:    rec.Title,
		Tags:     tags,
		Type:     string(rec.Type),
		Link:     rec.Link,
		Source:   rec.Source,
		Created:  rec.Created,
		Slug:     rec.Slug,
	}
}
