package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/paperdeck/paperdeck/internal/assets"
	"github.com/paperdeck/paperdeck/internal/domain"
	"github.com/paperdeck/paperdeck/internal/llm"
)

// StateMessage is one message of the client-held conversation state. Content
// round-trips verbatim: plain strings and typed-parts arrays both survive.
type StateMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// ChatState is the conversation state the client carries between turns.
type ChatState struct {
	Messages []StateMessage `json:"messages"`
}

// AskInput is one conversational turn against a seeded state.
type AskInput struct {
	Username  string
	SessionID int64
	State     ChatState
	UserInput json.RawMessage
	Provider  string
}

// AskResult carries the assistant's answer and the grown state.
type AskResult struct {
	Response string    `json:"response"`
	State    ChatState `json:"state"`
}

// ChatService seeds conversation state from a directory's base artifact and
// runs question-answering turns over it, persisting both sides of each turn.
type ChatService struct {
	assets   *assets.Store
	llm      *llm.Router
	messages domain.MessageRepository
}

// NewChatService creates the chat service.
func NewChatService(store *assets.Store, router *llm.Router, messages domain.MessageRepository) *ChatService {
	return &ChatService{assets: store, llm: router, messages: messages}
}

func textMessage(role, content string) StateMessage {
	raw, _ := json.Marshal(content)
	return StateMessage{Role: role, Content: raw}
}

// Seed builds the initial conversation state for a directory: the system
// prompt, a user message carrying the paper and its image inventory, and a
// canned assistant acknowledgement.
func (s *ChatService) Seed(ctx context.Context, dirName string) (*ChatState, error) {
	if err := assets.ValidateDirName(dirName); err != nil {
		return nil, err
	}

	_, markdown, err := s.assets.FindArtifact(dirName, domain.SuffixOrigin)
	if err != nil {
		return nil, err
	}
	images, err := s.assets.ListImages(dirName)
	if err != nil {
		return nil, err
	}

	return &ChatState{Messages: []StateMessage{
		textMessage("system", chatSystemPrompt),
		textMessage("user", chatSeedUserPrompt(markdown, images)),
		textMessage("assistant", chatAssistantAck),
	}}, nil
}

// Ask runs one turn: the raw user input is persisted and normalized into a
// conversation turn, the agent produces an answer, and both sides land in the
// session history.
func (s *ChatService) Ask(ctx context.Context, in AskInput) (*AskResult, error) {
	if err := assets.ValidateUsername(in.Username); err != nil {
		return nil, err
	}
	if in.SessionID <= 0 {
		return nil, domain.Validationf("session_id is required")
	}
	if len(in.UserInput) == 0 {
		return nil, domain.Validationf("user_input is required")
	}

	if err := s.messages.Append(ctx, in.Username, in.SessionID, domain.RoleUser, string(in.UserInput)); err != nil {
		return nil, err
	}

	state := in.State
	state.Messages = append(state.Messages, normalizeInput(in.UserInput))

	provider, err := s.llm.GetProvider(in.Provider)
	if err != nil {
		return nil, domain.WrapError(domain.KindLLM, err, "no usable model provider")
	}

	agent := newAgent(provider)
	answer, err := agent.run(ctx, stateTurns(state))
	if err != nil {
		return nil, domain.WrapError(domain.KindLLM, err, "chat generation failed")
	}

	state.Messages = append(state.Messages, textMessage("assistant", answer))

	if err := s.messages.Append(ctx, in.Username, in.SessionID, domain.RoleAssistant, answer); err != nil {
		log.Error().Err(err).Int64("session_id", in.SessionID).Msg("failed to persist assistant message")
		return nil, err
	}

	return &AskResult{Response: answer, State: state}, nil
}

// normalizeInput turns the raw user input into the state message the model
// sees. A plain JSON string is prefixed as-is; typed-parts input collapses
// into prefixed text plus an optional image reference; anything that parses
// as neither is forwarded verbatim.
func normalizeInput(raw json.RawMessage) StateMessage {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return textMessage("user", "User message: "+text)
	}

	var parts []domain.ContentPart
	if err := json.Unmarshal(raw, &parts); err != nil || len(parts) == 0 {
		return textMessage("user", "User message: "+string(raw))
	}

	var sb strings.Builder
	var imageURL string
	for _, p := range parts {
		switch p.Type {
		case "text":
			sb.WriteString("User message: " + p.Text + "\n")
		case "image_url":
			if p.ImageURL != nil {
				imageURL = p.ImageURL.URL
			}
		}
	}

	if imageURL == "" {
		return textMessage("user", sb.String())
	}
	content, _ := json.Marshal([]domain.ContentPart{
		{Type: "text", Text: sb.String()},
		{Type: "image_url", ImageURL: &domain.ImageRef{URL: imageURL}},
	})
	return StateMessage{Role: "user", Content: content}
}

// stateTurns flattens the conversation state into provider turns. Plain
// string content passes through; typed-parts content becomes one turn whose
// image reference survives as a URL. Content that parses as neither is
// forwarded verbatim.
func stateTurns(state ChatState) []llm.Turn {
	turns := make([]llm.Turn, 0, len(state.Messages))
	for _, m := range state.Messages {
		var text string
		if err := json.Unmarshal(m.Content, &text); err == nil {
			turns = append(turns, llm.Turn{Role: m.Role, Content: text})
			continue
		}

		var parts []domain.ContentPart
		if err := json.Unmarshal(m.Content, &parts); err == nil && len(parts) > 0 {
			var sb strings.Builder
			var imageURL string
			for _, p := range parts {
				switch p.Type {
				case "text":
					sb.WriteString(p.Text)
				case "image_url":
					if p.ImageURL != nil {
						imageURL = p.ImageURL.URL
					}
				}
			}
			turns = append(turns, llm.Turn{Role: m.Role, Content: sb.String(), ImageURL: imageURL})
			continue
		}

		turns = append(turns, llm.Turn{Role: m.Role, Content: string(m.Content)})
	}
	return turns
}
