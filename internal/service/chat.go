package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shuoxuer/shuoxuer-website/internal/domain"
	"github.com/shuoxuer/shuoxuer-website/internal/extract"
	"github.com/shuoxuer/shuoxuer-website/internal/llm"
	"github.com/shuoxuer/shuoxuer-website/internal/prompt"
)

// Analyzer runs the analysis pipelines for chat attachments
type Analyzer interface {
	AnalyzeVideo(ctx context.Context, in VideoInput) (*AnalysisResult, error)
	AnalyzePhoto(ctx context.Context, in PhotoInput) (*AnalysisResult, error)
}

// Retriever returns knowledge snippets relevant to a query
type Retriever interface {
	Search(ctx context.Context, query string, topK int) ([]domain.SearchHit, error)
}

// ChatOptions configures a ChatService
type ChatOptions struct {
	TopK            int
	HistoryLimit    int
	GreetingEnabled bool
	GreetingCity    string
	Location        *time.Location
	ExtractionHint  bool
}

// ChatService answers pocket assistant messages inside sessions
type ChatService struct {
	sessions  domain.SessionRepository
	providers ProviderSource
	analyzer  Analyzer
	retriever Retriever
	extractor extract.Extractor
	builder   *prompt.Builder
	opts      ChatOptions
	now       func() time.Time
}

// NewChatService creates a new chat service. retriever may be nil; a nil
// extractor leaves replies untouched.
func NewChatService(
	sessions domain.SessionRepository,
	providers ProviderSource,
	analyzer Analyzer,
	retriever Retriever,
	extractor extract.Extractor,
	builder *prompt.Builder,
	opts ChatOptions,
) *ChatService {
	if extractor == nil {
		extractor = extract.Noop{}
	}
	if opts.TopK <= 0 {
		opts.TopK = 2
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &ChatService{
		sessions:  sessions,
		providers: providers,
		analyzer:  analyzer,
		retriever: retriever,
		extractor: extractor,
		builder:   builder,
		opts:      opts,
		now:       time.Now,
	}
}

// ChatInput holds one chat turn. File is optional.
type ChatInput struct {
	SessionID string
	Message   string
	File      *Upload
	Provider  string
}

// ChatReply is the assistant's answer to one turn
type ChatReply struct {
	SessionID string             `json:"sessionId"`
	Content   string             `json:"content"`
	Type      domain.MessageType `json:"type"`
	CardData  *domain.Card       `json:"cardData"`
}

// Send records the user's turn and the assistant's answer. Attachments are
// analyzed and answered with a report card; text is answered by the chat
// model with session and knowledge context.
func (s *ChatService) Send(ctx context.Context, in ChatInput) (*ChatReply, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" && (in.File == nil || len(in.File.Data) == 0) {
		return nil, fmt.Errorf("message or file is required: %w", domain.ErrInvalidInput)
	}

	sess, err := s.session(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}

	if in.File != nil && len(in.File.Data) > 0 {
		return s.sendFile(ctx, sess, message, *in.File, in.Provider)
	}
	return s.sendText(ctx, sess, message, in.Provider)
}

// session loads the given session or starts a new one when id is empty
func (s *ChatService) session(ctx context.Context, id string) (*domain.Session, error) {
	if id == "" {
		return s.sessions.Create(ctx, "")
	}
	sess, ok, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	return sess, nil
}

func (s *ChatService) sendFile(ctx context.Context, sess *domain.Session, message string, file Upload, providerName string) (*ChatReply, error) {
	content := message
	if content == "" {
		content = file.Filename
	}
	if _, err := s.sessions.AddMessage(ctx, sess.ID, domain.Message{
		Role:    domain.RoleUser,
		Content: content,
		Type:    domain.MessageTypeFile,
	}); err != nil {
		return nil, err
	}

	contentType := file.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(file.Data)
	}

	var (
		res *AnalysisResult
		err error
	)
	if strings.HasPrefix(contentType, "image/") {
		res, err = s.analyzer.AnalyzePhoto(ctx, PhotoInput{Upload: file, Provider: providerName})
	} else {
		res, err = s.analyzer.AnalyzeVideo(ctx, VideoInput{
			Upload:     file,
			Strictness: prompt.DefaultParams().Strictness,
			Style:      prompt.DefaultParams().Style,
			Provider:   providerName,
		})
	}
	if err != nil {
		return nil, err
	}

	if res.Degraded {
		return s.reply(ctx, sess.ID, domain.Message{
			Role:    domain.RoleAssistant,
			Content: "分析结果解析失败，请稍后重试。",
			Type:    domain.MessageTypeText,
		})
	}

	return s.reply(ctx, sess.ID, domain.Message{
		Role:    domain.RoleAssistant,
		Content: fmt.Sprintf("分析完成：%s", res.Summary),
		Type:    domain.MessageTypeReportCard,
		CardData: &domain.Card{
			Type:      res.Type,
			Data:      res.Analysis,
			ArchiveID: res.ArchiveID,
		},
	})
}

func (s *ChatService) sendText(ctx context.Context, sess *domain.Session, message, providerName string) (*ChatReply, error) {
	if _, err := s.sessions.AddMessage(ctx, sess.ID, domain.Message{
		Role:    domain.RoleUser,
		Content: message,
		Type:    domain.MessageTypeText,
	}); err != nil {
		return nil, err
	}

	provider, err := s.providers.GetProvider(providerName)
	if err != nil {
		return nil, err
	}

	params := prompt.Params{
		HistoryContext:   s.historyContext(sess),
		KnowledgeContext: s.knowledgeContext(ctx, message),
		ExtractionHint:   s.opts.ExtractionHint,
	}
	if s.opts.GreetingEnabled {
		params.Greeting = prompt.Greeting(s.now().In(s.opts.Location), s.opts.GreetingCity)
	}

	log.Info().Str("session_id", sess.ID).Str("provider", provider.Name()).Msg("Starting chat with coach")

	resp, err := generate(ctx, provider, llm.Request{
		Kind:    llm.KindChat,
		System:  s.builder.Build(prompt.Chat, params),
		Prompt:  message,
		History: s.turns(sess),
	})
	if err != nil {
		return nil, err
	}

	content := s.extractor.Process(ctx, resp.Content)

	return s.reply(ctx, sess.ID, domain.Message{
		Role:    domain.RoleAssistant,
		Content: content,
		Type:    domain.MessageTypeText,
	})
}

func (s *ChatService) reply(ctx context.Context, sessionID string, msg domain.Message) (*ChatReply, error) {
	saved, err := s.sessions.AddMessage(ctx, sessionID, msg)
	if err != nil {
		return nil, err
	}
	return &ChatReply{
		SessionID: sessionID,
		Content:   saved.Content,
		Type:      saved.Type,
		CardData:  saved.CardData,
	}, nil
}

// historyContext renders the latest report card of the session
func (s *ChatService) historyContext(sess *domain.Session) string {
	card := sess.LatestCard()
	if card == nil {
		return ""
	}
	b, err := json.Marshal(card.Data)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to encode analysis context")
		return ""
	}
	return prompt.HistoryContext(string(b))
}

// knowledgeContext retrieves approved tips for message. Failures only log.
func (s *ChatService) knowledgeContext(ctx context.Context, message string) string {
	if s.retriever == nil {
		return ""
	}
	hits, err := s.retriever.Search(ctx, message, s.opts.TopK)
	if err != nil {
		log.Warn().Err(err).Msg("Knowledge search failed")
		return ""
	}
	snippets := make([]string, 0, len(hits))
	for _, h := range hits {
		snippets = append(snippets, h.Content)
	}
	return prompt.KnowledgeContext(snippets)
}

// turns returns the most recent prior text messages as model history
func (s *ChatService) turns(sess *domain.Session) []llm.Turn {
	if s.opts.HistoryLimit <= 0 {
		return nil
	}
	var turns []llm.Turn
	for _, m := range sess.Messages {
		if m.Type != domain.MessageTypeText || m.Content == "" {
			continue
		}
		turns = append(turns, llm.Turn{Role: string(m.Role), Content: m.Content})
	}
	if len(turns) > s.opts.HistoryLimit {
		turns = turns[len(turns)-s.opts.HistoryLimit:]
	}
	return turns
}

// Sessions returns all sessions, newest first
func (s *ChatService) Sessions(ctx context.Context) ([]domain.Session, error) {
	return s.sessions.List(ctx)
}

// Session returns one session
func (s *ChatService) Session(ctx context.Context, id string) (*domain.Session, error) {
	sess, ok, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	return sess, nil
}

// DeleteSession removes a session and its messages
func (s *ChatService) DeleteSession(ctx context.Context, id string) error {
	deleted, err := s.sessions.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
