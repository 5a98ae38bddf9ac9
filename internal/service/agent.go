package service

import (
	"context"

	"github.com/paperdeck/paperdeck/internal/llm"
)

// agentState threads the conversation through the agent's steps.
type agentState struct {
	turns    []llm.Turn
	response string
}

// agentStep is one node of the answering pipeline. Steps run in order; each
// receives the state the previous one produced.
type agentStep struct {
	name string
	run  func(ctx context.Context, state *agentState) error
}

// agent answers one conversational turn. It currently has a single generation
// step; retrieval or tool steps slot in ahead of it.
type agent struct {
	steps []agentStep
}

func newAgent(provider llm.Provider) *agent {
	return &agent{steps: []agentStep{
		{
			name: "generate",
			run: func(ctx context.Context, state *agentState) error {
				answer, err := provider.Invoke(ctx, state.turns, 1)
				if err != nil {
					return err
				}
				state.response = answer
				return nil
			},
		},
	}}
}

func (a *agent) run(ctx context.Context, turns []llm.Turn) (string, error) {
	state := &agentState{turns: turns}
	for _, step := range a.steps {
		if err := step.run(ctx, state); err != nil {
			return "", err
		}
	}
	return state.response, nil
}
