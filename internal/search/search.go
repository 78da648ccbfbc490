package search

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/sha1n/mcp-prompt-server-go/internal/prompts"
)

// DefaultMaxResults is used when no positive limit is configured
const DefaultMaxResults = 10

// Result is a single search hit
type Result struct {
	Name        string
	Description string
	Category    string
	Score       float64
}

// Searcher finds prompts matching a free text query
type Searcher interface {
	Search(query string) ([]Result, error)
}

type document struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	Content     string   `json:"content"`
}

// Index is an in-memory full text index over one prompt snapshot.
// Rebuild swaps the whole index, mirroring the registry's snapshot swap.
type Index struct {
	maxResults int

	mu      sync.RWMutex
	index   bleve.Index
	entries map[string]prompts.PromptDefinition
}

// NewIndex creates an empty index
func NewIndex(maxResults int) (*Index, error) {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create search index: %w", err)
	}
	return &Index{
		maxResults: maxResults,
		index:      idx,
		entries:    map[string]prompts.PromptDefinition{},
	}, nil
}

// Rebuild replaces the indexed content with the given snapshot
func (i *Index) Rebuild(snapshot *prompts.Snapshot) error {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return fmt.Errorf("failed to create search index: %w", err)
	}

	entries := make(map[string]prompts.PromptDefinition, snapshot.Len())
	batch := idx.NewBatch()
	for _, d := range snapshot.Definitions() {
		if err := batch.Index(d.Name, toDocument(d)); err != nil {
			_ = idx.Close()
			return fmt.Errorf("failed to index prompt %s: %w", d.Name, err)
		}
		entries[d.Name] = d
	}
	if err := idx.Batch(batch); err != nil {
		_ = idx.Close()
		return fmt.Errorf("failed to index prompts: %w", err)
	}

	i.mu.Lock()
	old := i.index
	i.index = idx
	i.entries = entries
	i.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}

	slog.Debug("Search index rebuilt", "documents", len(entries))
	return nil
}

// Search runs a match query over names, descriptions, tags and content
func (i *Index) Search(query string) ([]Result, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if i.index == nil {
		return nil, fmt.Errorf("search index is closed")
	}

	q := bleve.NewMatchQuery(query)
	req := bleve.NewSearchRequestOptions(q, i.maxResults, 0, false)

	res, err := i.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	results := make([]Result, 0, len(res.Hits))
	for _, hit := range res.Hits {
		d, ok := i.entries[hit.ID]
		if !ok {
			continue
		}
		results = append(results, Result{
			Name:        d.Name,
			Description: d.ToolDescription(),
			Category:    d.Category,
			Score:       hit.Score,
		})
	}
	return results, nil
}

// Close releases the underlying index
func (i *Index) Close() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.index != nil {
		_ = i.index.Close()
		i.index = nil
	}
}

func toDocument(d prompts.PromptDefinition) document {
	var content []string
	for _, m := range d.Messages {
		if m.Content != nil {
			content = append(content, m.Content.Text)
		}
	}
	return document{
		Name:        d.Name,
		Description: d.Description,
		Category:    d.Category,
		Tags:        d.Tags,
		Content:     strings.Join(content, "\n"),
	}
}
