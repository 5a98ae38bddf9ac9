package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/paperdeck/paperdeck/internal/domain"
	"github.com/paperdeck/paperdeck/internal/llm"
)

// mockParser fakes the document-conversion client.
type mockParser struct {
	mock.Mock
}

func (m *mockParser) Parse(ctx context.Context, pdf []byte, fileName string) (*domain.ParsedDocument, error) {
	args := m.Called(ctx, pdf, fileName)
	if doc := args.Get(0); doc != nil {
		return doc.(*domain.ParsedDocument), args.Error(1)
	}
	return nil, args.Error(1)
}

// mockProvider fakes an LLM provider. Stream forwards streamChunks through
// onChunk and returns their concatenation unless streamResult overrides it.
type mockProvider struct {
	mock.Mock
	streamChunks []string
	streamResult string
}

func (m *mockProvider) Name() string         { return "mock" }
func (m *mockProvider) DefaultModel() string { return "mock-model" }
func (m *mockProvider) IsConfigured() bool   { return true }

func (m *mockProvider) Stream(ctx context.Context, req llm.StreamRequest, onChunk func(string)) (string, error) {
	args := m.Called(ctx, req)
	if err := args.Error(0); err != nil {
		return "", err
	}
	full := ""
	for _, chunk := range m.streamChunks {
		full += chunk
		if onChunk != nil {
			onChunk(chunk)
		}
	}
	if m.streamResult != "" {
		return m.streamResult, nil
	}
	return full, nil
}

func (m *mockProvider) Invoke(ctx context.Context, turns []llm.Turn, temperature float64) (string, error) {
	args := m.Called(ctx, turns, temperature)
	return args.String(0), args.Error(1)
}

// mockMessageRepo fakes the message store.
type mockMessageRepo struct {
	mock.Mock
}

func (m *mockMessageRepo) Append(ctx context.Context, username string, sessionID int64, role domain.MessageRole, content string) error {
	args := m.Called(ctx, username, sessionID, role, content)
	return args.Error(0)
}

func (m *mockMessageRepo) BulkAppend(ctx context.Context, username string, sessionID int64, messages []domain.NewMessage) error {
	args := m.Called(ctx, username, sessionID, messages)
	return args.Error(0)
}

func (m *mockMessageRepo) ListBySession(ctx context.Context, username string, sessionID int64) ([]domain.Message, error) {
	args := m.Called(ctx, username, sessionID)
	if msgs := args.Get(0); msgs != nil {
		return msgs.([]domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func newTestRouter(provider llm.Provider) *llm.Router {
	r := llm.NewRouter("mock")
	r.RegisterProvider(provider)
	return r
}
