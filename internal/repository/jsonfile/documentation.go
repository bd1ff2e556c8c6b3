package jsonfile

import (
	"context"
	"fmt"
	"strings"

	"github.com/shuoxuer/shuoxuer-website/internal/domain"
)

// DocumentationRepository implements domain.DocumentationRepository
type DocumentationRepository struct {
	col *Collection[domain.DocumentationEntry]
}

// NewDocumentationRepository creates a new documentation repository
func NewDocumentationRepository(db *DB) *DocumentationRepository {
	return &DocumentationRepository{
		col: NewCollection(db.Path(DocumentationFile), func(d *domain.DocumentationEntry) string { return d.ID }),
	}
}

func (r *DocumentationRepository) List(ctx context.Context) ([]domain.DocumentationEntry, error) {
	return r.col.All(), nil
}

func (r *DocumentationRepository) Get(ctx context.Context, id string) (*domain.DocumentationEntry, bool, error) {
	d, ok := r.col.Find(id)
	if !ok {
		return nil, false, nil
	}
	return &d, true, nil
}

// Search returns docs whose title, sections or tags contain query,
// case-insensitively. An empty query returns everything.
func (r *DocumentationRepository) Search(ctx context.Context, query string) ([]domain.DocumentationEntry, error) {
	docs := r.col.All()
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return docs, nil
	}

	results := make([]domain.DocumentationEntry, 0)
	for _, d := range docs {
		if strings.Contains(searchText(&d), query) {
			results = append(results, d)
		}
	}
	return results, nil
}

func searchText(d *domain.DocumentationEntry) string {
	var sb strings.Builder
	sb.WriteString(d.Title)
	for _, s := range d.Sections {
		sb.WriteString(" ")
		sb.WriteString(s.Title)
		sb.WriteString(" ")
		sb.WriteString(s.Content)
	}
	for _, t := range d.Tags {
		sb.WriteString(" ")
		sb.WriteString(t)
	}
	return strings.ToLower(sb.String())
}

// FindMatching returns the first doc whose lowercased title contains the
// topic or is contained in it, or that carries the topic as a tag.
func (r *DocumentationRepository) FindMatching(ctx context.Context, topic string) (*domain.DocumentationEntry, bool, error) {
	topic = strings.ToLower(strings.TrimSpace(topic))
	if topic == "" {
		return nil, false, nil
	}

	for _, d := range r.col.All() {
		title := strings.ToLower(d.Title)
		if title != "" && (strings.Contains(title, topic) || strings.Contains(topic, title)) {
			return &d, true, nil
		}
		for _, tag := range d.Tags {
			if strings.ToLower(tag) == topic {
				return &d, true, nil
			}
		}
	}
	return nil, false, nil
}

// UpdateSection sets or appends to the named section, creating it when
// absent. Appended content is separated by a blank line.
// It returns false when the doc does not exist.
func (r *DocumentationRepository) UpdateSection(ctx context.Context, id, title, content string, appendContent bool) (bool, error) {
	_, found, err := r.col.Update(id, func(d *domain.DocumentationEntry) error {
		for i := range d.Sections {
			s := &d.Sections[i]
			if s.Title != title {
				continue
			}
			if appendContent && s.Content != "" {
				s.Content += "\n\n" + content
			} else {
				s.Content = content
			}
			return nil
		}
		d.Sections = append(d.Sections, domain.DocSection{Title: title, Content: content})
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to update documentation section: %w", err)
	}
	return found, nil
}

// AppendDetailedDescription appends content to the doc's 详细说明 section
func (r *DocumentationRepository) AppendDetailedDescription(ctx context.Context, id, content string) (bool, error) {
	return r.UpdateSection(ctx, id, domain.DetailedDescriptionSection, content, true)
}

// Upsert replaces the doc with the same id or appends it
func (r *DocumentationRepository) Upsert(ctx context.Context, doc domain.DocumentationEntry) error {
	return r.col.Mutate(func(items []domain.DocumentationEntry) ([]domain.DocumentationEntry, error) {
		for i := range items {
			if items[i].ID == doc.ID {
				items[i] = doc
				return items, nil
			}
		}
		return append(items, doc), nil
	})
}
