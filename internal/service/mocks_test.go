package service

import (
	"context"

	"github.com/shuoxuer/shuoxuer-website/internal/domain"
	"github.com/shuoxuer/shuoxuer-website/internal/llm"
	"github.com/shuoxuer/shuoxuer-website/internal/media"
	"github.com/stretchr/testify/mock"
)

// MockLLMProvider mocks llm.Provider
type MockLLMProvider struct {
	mock.Mock
}

func (m *MockLLMProvider) Name() string {
	return "mock"
}

func (m *MockLLMProvider) AvailableModels() []string {
	return []string{"mock-model"}
}

func (m *MockLLMProvider) DefaultModel() string {
	return "mock-model"
}

func (m *MockLLMProvider) IsConfigured() bool {
	return true
}

func (m *MockLLMProvider) Generate(ctx context.Context, req llm.Request, model string) (*llm.Response, error) {
	args := m.Called(ctx, req, model)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.Response), args.Error(1)
}

// MockProviders mocks ProviderSource
type MockProviders struct {
	mock.Mock
}

func (m *MockProviders) GetProvider(name string) (llm.Provider, error) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(llm.Provider), args.Error(1)
}

// MockSampler mocks VideoSampler
type MockSampler struct {
	mock.Mock
}

func (m *MockSampler) Sample(ctx context.Context, src media.Source) (*media.Sample, error) {
	args := m.Called(ctx, src)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*media.Sample), args.Error(1)
}

// MockMediaStore mocks MediaStore
type MockMediaStore struct {
	mock.Mock
}

func (m *MockMediaStore) Put(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	args := m.Called(ctx, name, data, contentType)
	return args.String(0), args.Error(1)
}

// MockAnalyzer mocks Analyzer
type MockAnalyzer struct {
	mock.Mock
}

func (m *MockAnalyzer) AnalyzeVideo(ctx context.Context, in VideoInput) (*AnalysisResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*AnalysisResult), args.Error(1)
}

func (m *MockAnalyzer) AnalyzePhoto(ctx context.Context, in PhotoInput) (*AnalysisResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*AnalysisResult), args.Error(1)
}

// MockRetriever mocks Retriever
type MockRetriever struct {
	mock.Mock
}

func (m *MockRetriever) Search(ctx context.Context, query string, topK int) ([]domain.SearchHit, error) {
	args := m.Called(ctx, query, topK)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SearchHit), args.Error(1)
}

// MockExtractor mocks extract.Extractor
type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Process(ctx context.Context, text string) string {
	args := m.Called(ctx, text)
	return args.String(0)
}
