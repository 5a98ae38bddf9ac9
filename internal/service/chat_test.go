package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/paperdeck/paperdeck/internal/assets"
	"github.com/paperdeck/paperdeck/internal/domain"
	"github.com/paperdeck/paperdeck/internal/llm"
)

func decodeText(t *testing.T, raw json.RawMessage) string {
	t.Helper()
	var s string
	require.NoError(t, json.Unmarshal(raw, &s))
	return s
}

func TestChatSeed(t *testing.T) {
	store, dirName := seedOrigin(t)
	_, err := store.SaveImage("alice", "20240101000000_paper", domain.ElementTable, 1, []byte("png"))
	require.NoError(t, err)
	_, err = store.SaveImage("alice", "20240101000000_paper", domain.ElementPicture, 1, []byte("png"))
	require.NoError(t, err)

	svc := NewChatService(store, newTestRouter(&mockProvider{}), new(mockMessageRepo))

	state, err := svc.Seed(context.Background(), dirName)
	require.NoError(t, err)
	require.Len(t, state.Messages, 3)

	assert.Equal(t, "system", state.Messages[0].Role)
	assert.Contains(t, decodeText(t, state.Messages[0].Content), "research papers")

	userMsg := decodeText(t, state.Messages[1].Content)
	assert.Contains(t, userMsg, "# Origin")
	assert.Contains(t, userMsg, "picture-1.png")
	assert.Contains(t, userMsg, "table-1.png")

	assert.Equal(t, "assistant", state.Messages[2].Role)
	assert.Equal(t, chatAssistantAck, decodeText(t, state.Messages[2].Content))
}

func TestChatSeedMissingOrigin(t *testing.T) {
	store, err := assets.NewStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.CreateDirectory("alice", "d"))

	svc := NewChatService(store, newTestRouter(&mockProvider{}), new(mockMessageRepo))
	_, err = svc.Seed(context.Background(), "alice/d")
	require.Error(t, err)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestChatAskPlainText(t *testing.T) {
	store, _ := seedOrigin(t)

	provider := &mockProvider{}
	provider.On("Invoke", mock.Anything, mock.MatchedBy(func(turns []llm.Turn) bool {
		return len(turns) == 2 && turns[1].Content == "User message: what is it?"
	}), 1.0).Return("It is a paper.", nil)

	repo := new(mockMessageRepo)
	repo.On("Append", mock.Anything, "alice", int64(7), domain.RoleUser, `"what is it?"`).Return(nil)
	repo.On("Append", mock.Anything, "alice", int64(7), domain.RoleAssistant, "It is a paper.").Return(nil)

	svc := NewChatService(store, newTestRouter(provider), repo)

	state := ChatState{Messages: []StateMessage{textMessage("system", "sys")}}
	res, err := svc.Ask(context.Background(), AskInput{
		Username:  "alice",
		SessionID: 7,
		State:     state,
		UserInput: json.RawMessage(`"what is it?"`),
	})
	require.NoError(t, err)

	assert.Equal(t, "It is a paper.", res.Response)
	// The state grew by the normalized user turn and the assistant answer.
	require.Len(t, res.State.Messages, 3)
	assert.Equal(t, "user", res.State.Messages[1].Role)
	assert.Equal(t, "It is a paper.", decodeText(t, res.State.Messages[2].Content))

	repo.AssertExpectations(t)
	provider.AssertExpectations(t)
}

func TestChatAskTypedPartsWithImage(t *testing.T) {
	store, _ := seedOrigin(t)

	provider := &mockProvider{}
	provider.On("Invoke", mock.Anything, mock.MatchedBy(func(turns []llm.Turn) bool {
		last := turns[len(turns)-1]
		return last.ImageURL == "http://host/contents/alice/d/picture-1.png" &&
			last.Content == "User message: explain this figure\n"
	}), 1.0).Return("That figure shows the model.", nil)

	input := `[{"type":"text","text":"explain this figure"},{"type":"image_url","image_url":{"url":"http://host/contents/alice/d/picture-1.png"}}]`

	repo := new(mockMessageRepo)
	repo.On("Append", mock.Anything, "alice", int64(1), domain.RoleUser, input).Return(nil)
	repo.On("Append", mock.Anything, "alice", int64(1), domain.RoleAssistant, mock.Anything).Return(nil)

	svc := NewChatService(store, newTestRouter(provider), repo)
	res, err := svc.Ask(context.Background(), AskInput{
		Username:  "alice",
		SessionID: 1,
		State:     ChatState{},
		UserInput: json.RawMessage(input),
	})
	require.NoError(t, err)

	// The normalized user message keeps the typed-parts shape in the state.
	var parts []domain.ContentPart
	require.NoError(t, json.Unmarshal(res.State.Messages[0].Content, &parts))
	require.Len(t, parts, 2)
	assert.Equal(t, "image_url", parts[1].Type)

	repo.AssertExpectations(t)
}

func TestChatAskValidation(t *testing.T) {
	store, _ := seedOrigin(t)
	svc := NewChatService(store, newTestRouter(&mockProvider{}), new(mockMessageRepo))

	_, err := svc.Ask(context.Background(), AskInput{SessionID: 1, UserInput: json.RawMessage(`"x"`)})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = svc.Ask(context.Background(), AskInput{Username: "alice", UserInput: json.RawMessage(`"x"`)})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = svc.Ask(context.Background(), AskInput{Username: "alice", SessionID: 1})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestNormalizeInputForms(t *testing.T) {
	// A plain JSON string is prefixed without its quotes or escapes.
	msg := normalizeInput(json.RawMessage(`"What is the main contribution?"`))
	assert.Equal(t, "User message: What is the main contribution?", decodeText(t, msg.Content))

	msg = normalizeInput(json.RawMessage(`"要点は何ですか"`))
	assert.Equal(t, "User message: 要点は何ですか", decodeText(t, msg.Content))

	// Content that parses as neither string nor parts list goes through verbatim.
	msg = normalizeInput(json.RawMessage(`not json at all`))
	assert.Equal(t, "User message: not json at all", decodeText(t, msg.Content))
}

func TestStateTurnsFallback(t *testing.T) {
	turns := stateTurns(ChatState{Messages: []StateMessage{
		{Role: "user", Content: json.RawMessage(`{"weird":"shape"}`)},
	}})
	require.Len(t, turns, 1)
	assert.Equal(t, `{"weird":"shape"}`, turns[0].Content)
}
