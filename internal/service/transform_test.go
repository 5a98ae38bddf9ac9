package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/paperdeck/paperdeck/internal/assets"
	"github.com/paperdeck/paperdeck/internal/domain"
	"github.com/paperdeck/paperdeck/internal/llm"
)

func seedOrigin(t *testing.T) (*assets.Store, string) {
	t.Helper()
	store, err := assets.NewStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.CreateDirectory("alice", "20240101000000_paper"))
	dirName := "alice/20240101000000_paper"
	require.NoError(t, store.WriteArtifact(dirName, "paper", domain.SuffixOrigin, "# Origin"))
	return store, dirName
}

func TestTransformTranslate(t *testing.T) {
	store, dirName := seedOrigin(t)

	provider := &mockProvider{streamChunks: []string{"# 訳", "文"}}
	provider.On("Stream", mock.Anything, mock.MatchedBy(func(req llm.StreamRequest) bool {
		return req.Temperature == 0 && req.User == "# Origin"
	})).Return(nil)

	svc := NewTransformService(store, newTestRouter(provider))
	events := collect(svc.Run(context.Background(), TransformTranslate, dirName, ""))

	final := events[len(events)-1]
	assert.Equal(t, "Translation complete", final.Status)
	assert.Equal(t, "paper", final.BaseFileName)

	name, content, err := store.FindArtifact(dirName, domain.SuffixTrans)
	require.NoError(t, err)
	assert.Equal(t, "paper_trans.md", name)
	assert.Equal(t, "# 訳文", content)
}

func TestTransformThreadStripsFencesAndRunsHot(t *testing.T) {
	store, dirName := seedOrigin(t)

	provider := &mockProvider{streamChunks: []string{"```markdown\n## [Thread]\n```"}}
	provider.On("Stream", mock.Anything, mock.MatchedBy(func(req llm.StreamRequest) bool {
		return req.Temperature == 1
	})).Return(nil)

	svc := NewTransformService(store, newTestRouter(provider))
	events := collect(svc.Run(context.Background(), TransformThread, dirName, ""))

	final := events[len(events)-1]
	assert.Equal(t, "Thread complete", final.Status)

	_, content, err := store.FindArtifact(dirName, domain.SuffixThread)
	require.NoError(t, err)
	assert.NotContains(t, content, "```")
	assert.Contains(t, content, "## [Thread]")
}

func TestTransformExplainKeepsFences(t *testing.T) {
	store, dirName := seedOrigin(t)

	provider := &mockProvider{streamChunks: []string{"# Abstract\n```python\nx\n```"}}
	provider.On("Stream", mock.Anything, mock.Anything).Return(nil)

	svc := NewTransformService(store, newTestRouter(provider))
	events := collect(svc.Run(context.Background(), TransformExplain, dirName, ""))

	assert.Equal(t, "Explanation complete", events[len(events)-1].Status)

	_, content, err := store.FindArtifact(dirName, domain.SuffixExplain)
	require.NoError(t, err)
	assert.Contains(t, content, "```python")
}

func TestTransformOverwritesPreviousArtifact(t *testing.T) {
	store, dirName := seedOrigin(t)
	require.NoError(t, store.WriteArtifact(dirName, "paper", domain.SuffixTrans, "old"))

	provider := &mockProvider{streamChunks: []string{"new"}}
	provider.On("Stream", mock.Anything, mock.Anything).Return(nil)

	svc := NewTransformService(store, newTestRouter(provider))
	collect(svc.Run(context.Background(), TransformTranslate, dirName, ""))

	_, content, err := store.FindArtifact(dirName, domain.SuffixTrans)
	require.NoError(t, err)
	assert.Equal(t, "new", content)
}

func TestTransformMissingOrigin(t *testing.T) {
	store, err := assets.NewStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.CreateDirectory("alice", "d"))

	provider := &mockProvider{}
	svc := NewTransformService(store, newTestRouter(provider))

	events := collect(svc.Run(context.Background(), TransformTranslate, "alice/d", ""))
	require.Len(t, events, 1)
	assert.Contains(t, events[0].Error, "_origin")
	provider.AssertNotCalled(t, "Stream", mock.Anything, mock.Anything)
}

func TestTransformUnknownKind(t *testing.T) {
	store, dirName := seedOrigin(t)
	svc := NewTransformService(store, newTestRouter(&mockProvider{}))

	events := collect(svc.Run(context.Background(), TransformKind("summarize"), dirName, ""))
	require.Len(t, events, 1)
	assert.Contains(t, events[0].Error, "unknown transform")
}
