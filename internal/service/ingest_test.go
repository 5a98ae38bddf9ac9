package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/paperdeck/paperdeck/internal/assets"
	"github.com/paperdeck/paperdeck/internal/domain"
	"github.com/paperdeck/paperdeck/internal/llm"
)

func collect(ch <-chan domain.Event) []domain.Event {
	var events []domain.Event
	for ev := range ch {
		events = append(events, ev)
	}
	return events
}

func TestIngestRunHappyPath(t *testing.T) {
	store, err := assets.NewStore(t.TempDir())
	require.NoError(t, err)

	p := new(mockParser)
	p.On("Parse", mock.Anything, []byte("%PDF"), "paper.pdf").Return(&domain.ParsedDocument{
		Markdown: "# Title",
		Elements: []domain.DocumentElement{
			{Kind: domain.ElementText},
			{Kind: domain.ElementTable, Image: []byte("t1")},
			{Kind: domain.ElementPicture, Image: []byte("p1")},
			{Kind: domain.ElementTable, Image: []byte("t2")},
		},
	}, nil)

	provider := &mockProvider{streamChunks: []string{"```markdown\n# Ti", "tle\n```"}}
	provider.On("Stream", mock.Anything, mock.MatchedBy(func(req llm.StreamRequest) bool {
		return req.Temperature == 0 && req.User == "# Title" && strings.Contains(req.System, "![Local Image]")
	})).Return(nil)

	svc := NewIngestService(store, p, newTestRouter(provider), nil)
	events := collect(svc.Run(context.Background(), IngestInput{
		Username: "alice",
		FileName: "paper.pdf",
		File:     strings.NewReader("%PDF"),
	}))

	require.NotEmpty(t, events)
	final := events[len(events)-1]
	assert.Empty(t, final.Error)
	assert.Equal(t, "paper", final.BaseFileName)
	assert.True(t, strings.HasPrefix(final.DirName, "alice/"))
	assert.True(t, strings.HasSuffix(final.DirName, "_paper"))

	// Statuses precede the bracketed chunk stream.
	var statuses, chunks []string
	for _, ev := range events {
		if ev.Status != "" {
			statuses = append(statuses, ev.Status)
		}
		if ev.LLMOutput != "" {
			chunks = append(chunks, ev.LLMOutput)
		}
	}
	assert.Equal(t, []string{
		"Saving PDF file...",
		"Parsing PDF file...",
		"Saving images...",
		"Converting to markdown...",
	}, statuses)
	require.Len(t, chunks, 4)
	assert.Equal(t, domain.StreamStart, chunks[0])
	assert.Equal(t, domain.StreamEnd, chunks[len(chunks)-1])

	// Images are numbered per kind; the persisted artifact is fence-free.
	images, err := store.ListImages(final.DirName)
	require.NoError(t, err)
	assert.Equal(t, []string{"picture-1.png", "table-1.png", "table-2.png"}, images)

	name, content, err := store.FindArtifact(final.DirName, domain.SuffixOrigin)
	require.NoError(t, err)
	assert.Equal(t, "paper_origin.md", name)
	assert.NotContains(t, content, "```")
	assert.Contains(t, content, "# Title")

	mdFiles, pdfFile, err := store.ListFiles(final.DirName)
	require.NoError(t, err)
	assert.Equal(t, []string{"paper_origin.md"}, mdFiles)
	assert.Equal(t, "paper.pdf", pdfFile)
}

func TestIngestRunParserFailure(t *testing.T) {
	store, err := assets.NewStore(t.TempDir())
	require.NoError(t, err)

	p := new(mockParser)
	p.On("Parse", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, domain.Parsef("conversion failed: broken PDF"))

	provider := &mockProvider{}
	svc := NewIngestService(store, p, newTestRouter(provider), nil)

	events := collect(svc.Run(context.Background(), IngestInput{
		Username: "alice",
		FileName: "paper.pdf",
		File:     strings.NewReader("%PDF"),
	}))

	final := events[len(events)-1]
	assert.Contains(t, final.Error, "broken PDF")
	provider.AssertNotCalled(t, "Stream", mock.Anything, mock.Anything)
}

func TestIngestRunRequiresInput(t *testing.T) {
	store, err := assets.NewStore(t.TempDir())
	require.NoError(t, err)
	svc := NewIngestService(store, new(mockParser), newTestRouter(&mockProvider{}), nil)

	events := collect(svc.Run(context.Background(), IngestInput{Username: "alice"}))
	require.Len(t, events, 1)
	assert.Contains(t, events[0].Error, "no valid PDF file or URL")
}

func TestIngestRunRejectsBadUsername(t *testing.T) {
	store, err := assets.NewStore(t.TempDir())
	require.NoError(t, err)
	svc := NewIngestService(store, new(mockParser), newTestRouter(&mockProvider{}), nil)

	events := collect(svc.Run(context.Background(), IngestInput{
		Username: "../etc",
		FileName: "paper.pdf",
		File:     strings.NewReader("%PDF"),
	}))
	require.Len(t, events, 1)
	assert.NotEmpty(t, events[0].Error)
}
