// Package prompt assembles the instruction text sent to the coaching models.
// Everything here is a pure function of its inputs.
package prompt

import (
	"fmt"
	"strings"
	"time"
)

// Template names a prompt variant
type Template string

const (
	VideoAnalysis Template = "video_analysis"
	StyleAnalysis Template = "style_analysis"
	Chat          Template = "chat"
)

// Params parameterizes a prompt. Fields irrelevant to a template are ignored.
type Params struct {
	Strictness int
	Style      string

	// DurationSeconds is the measured length of the sampled video
	DurationSeconds float64

	HistoryContext   string
	KnowledgeContext string
	Greeting         string
	ExtractionHint   bool
}

// DefaultParams mirrors the defaults of the analysis endpoints
func DefaultParams() Params {
	return Params{Strictness: 5, Style: StyleConservative}
}

// Builder renders prompts using a terminology vocabulary
type Builder struct {
	vocabulary Vocabulary
}

// NewBuilder creates a builder. A nil vocabulary selects the built-in one.
func NewBuilder(vocabulary Vocabulary) *Builder {
	if len(vocabulary) == 0 {
		vocabulary = DefaultVocabulary
	}
	return &Builder{vocabulary: vocabulary}
}

// Build renders the given template. Unknown templates fall back to chat.
func (b *Builder) Build(t Template, p Params) string {
	switch t {
	case VideoAnalysis:
		return b.video(p)
	case StyleAnalysis:
		return b.style()
	default:
		return b.chat(p)
	}
}

func (b *Builder) video(p Params) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Video Duration: %.2f seconds.\n", p.DurationSeconds)
	sb.WriteString(gatekeeper)
	sb.WriteString("\n")
	sb.WriteString(videoTask)
	sb.WriteString("\n")
	sb.WriteString(coachHuBlock(p.Strictness))
	sb.WriteString("\n")
	sb.WriteString(coachLiBlock(p.Style))
	sb.WriteString("\n")
	sb.WriteString(coachAnBlock)
	sb.WriteString("\n")
	sb.WriteString(b.vocabulary.Render())
	sb.WriteString("\n")
	sb.WriteString(videoRequirements)
	return sb.String()
}

func (b *Builder) style() string {
	return gatekeeper + "\n" + styleTask
}

func (b *Builder) chat(p Params) string {
	var sb strings.Builder
	sb.WriteString(gatekeeper)
	sb.WriteString("\n")
	sb.WriteString(chatRole)
	sb.WriteString("\n")
	sb.WriteString(b.vocabulary.Render())
	sb.WriteString("\n**上下文信息**:\n")
	sb.WriteString(p.HistoryContext)
	sb.WriteString("\n")
	sb.WriteString(p.KnowledgeContext)
	sb.WriteString("\n")
	sb.WriteString(chatRequirements)

	if p.ExtractionHint {
		sb.WriteString("\n")
		sb.WriteString(extractionHint)
	}

	if p.Greeting != "" {
		fmt.Fprintf(&sb, "\n\n**Special Instruction**:\nAlways start your response with: '%s'.", p.Greeting)
	}
	return sb.String()
}

// Greeting renders Coach Hu's opening line for the given day
func Greeting(now time.Time, city string) string {
	return fmt.Sprintf("你好，我是斛教练，%d月%d号，我在%s。", int(now.Month()), now.Day(), city)
}

// KnowledgeContext formats retrieved snippets for the chat prompt
func KnowledgeContext(snippets []string) string {
	if len(snippets) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("【知识库参考资料】:\n")
	for _, s := range snippets {
		sb.WriteString("- ")
		sb.WriteString(s)
		sb.WriteString("\n")
	}
	return sb.String()
}

// HistoryContext formats the user's latest analysis for the chat prompt
func HistoryContext(analysisJSON string) string {
	if analysisJSON == "" {
		return ""
	}
	return "用户最近的分析记录: " + analysisJSON
}
