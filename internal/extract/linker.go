// Package extract pulls the hidden knowledge block out of chat replies,
// files it as a knowledge candidate and links it into the matching
// documentation entry.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shuoxuer/shuoxuer-website/internal/domain"
	"github.com/shuoxuer/shuoxuer-website/internal/metrics"
)

var (
	fencedBlock = regexp.MustCompile("(?is)```json\\s*(\\{.*?\"knowledge_extraction\".*?\\})\\s*```")
	bareObject  = regexp.MustCompile(`(?is)(\{.*"knowledge_extraction".*\})`)
)

// Extractor post-processes an assistant reply
type Extractor interface {
	Process(ctx context.Context, text string) string
}

// Noop returns replies unchanged
type Noop struct{}

func (Noop) Process(ctx context.Context, text string) string { return text }

// CandidateAdder files a knowledge candidate
type CandidateAdder interface {
	Add(ctx context.Context, content string, tags []string, source string) (*domain.KnowledgeEntry, error)
}

// DocLinker finds and extends documentation entries
type DocLinker interface {
	FindMatching(ctx context.Context, topic string) (*domain.DocumentationEntry, bool, error)
	AppendDetailedDescription(ctx context.Context, id, content string) (bool, error)
}

// Linker implements Extractor
type Linker struct {
	knowledge CandidateAdder
	docs      DocLinker
}

// NewLinker creates a new linker
func NewLinker(knowledge CandidateAdder, docs DocLinker) *Linker {
	return &Linker{knowledge: knowledge, docs: docs}
}

type extraction struct {
	Knowledge *struct {
		Content string   `json:"content"`
		Tags    []string `json:"tags"`
	} `json:"knowledge_extraction"`
}

// Process files the knowledge block found in text and returns text with the
// block removed. Text without a usable block is returned unchanged.
func (l *Linker) Process(ctx context.Context, text string) string {
	whole, body, ok := findBlock(text)
	if !ok {
		return text
	}

	var ext extraction
	if err := json.Unmarshal([]byte(strings.TrimSpace(body)), &ext); err != nil {
		log.Warn().Err(err).Msg("Failed to extract knowledge")
		return text
	}
	if ext.Knowledge == nil {
		return text
	}

	k := ext.Knowledge
	if _, err := l.knowledge.Add(ctx, k.Content, k.Tags, domain.SourceAutoExtract); err != nil {
		log.Warn().Err(err).Msg("Failed to add extracted knowledge")
	} else {
		metrics.KnowledgeExtracted.Inc()
		log.Info().Strs("tags", k.Tags).Msg("Auto-extracted knowledge candidate")
	}

	if err := l.linkDoc(ctx, k.Tags, k.Content); err != nil {
		log.Warn().Err(err).Msg("Failed to auto-link chat knowledge")
	}

	return strings.TrimSpace(strings.Replace(text, whole, "", 1))
}

// findBlock returns the whole match and the JSON object inside it
func findBlock(text string) (string, string, bool) {
	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		return m[0], m[1], true
	}
	if m := bareObject.FindStringSubmatch(text); m != nil {
		return m[0], m[1], true
	}
	return "", "", false
}

func (l *Linker) linkDoc(ctx context.Context, tags []string, content string) error {
	if l.docs == nil {
		return nil
	}
	for _, tag := range tags {
		doc, ok, err := l.docs.FindMatching(ctx, tag)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		note := fmt.Sprintf("### AI 知识补充\n%s", content)
		if _, err := l.docs.AppendDetailedDescription(ctx, doc.ID, note); err != nil {
			return err
		}
		log.Info().Str("doc", doc.Title).Msg("Auto-linked chat knowledge to doc")
		return nil
	}
	return nil
}
