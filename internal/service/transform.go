package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/paperdeck/paperdeck/internal/assets"
	"github.com/paperdeck/paperdeck/internal/domain"
	"github.com/paperdeck/paperdeck/internal/llm"
)

// TransformKind selects one of the derived-artifact jobs.
type TransformKind string

const (
	TransformTranslate TransformKind = "translate"
	TransformExplain   TransformKind = "explain"
	TransformThread    TransformKind = "thread"
)

// transformJob carries the per-kind parameters; the state machine is shared.
type transformJob struct {
	suffix      domain.ArtifactSuffix
	instruction string
	temperature float64
	stripFences bool
	workingMsg  string
	doneMsg     string
}

var transformJobs = map[TransformKind]transformJob{
	TransformTranslate: {
		suffix:      domain.SuffixTrans,
		instruction: translateInstruction,
		temperature: 0,
		workingMsg:  "Translating into Japanese...",
		doneMsg:     "Translation complete",
	},
	TransformExplain: {
		suffix:      domain.SuffixExplain,
		instruction: explainInstruction,
		temperature: 0,
		workingMsg:  "Explaining the paper...",
		doneMsg:     "Explanation complete",
	},
	TransformThread: {
		suffix:      domain.SuffixThread,
		instruction: threadInstruction,
		temperature: 1,
		stripFences: true,
		workingMsg:  "Writing the thread...",
		doneMsg:     "Thread complete",
	},
}

// TransformService derives translated, explanatory and dramatized artifacts
// from a directory's base markdown.
type TransformService struct {
	assets *assets.Store
	llm    *llm.Router
}

// NewTransformService creates the transform service.
func NewTransformService(store *assets.Store, router *llm.Router) *TransformService {
	return &TransformService{assets: store, llm: router}
}

// Run executes one transform job and streams progress events. Re-running a
// job overwrites its derived artifact.
func (s *TransformService) Run(ctx context.Context, kind TransformKind, dirName, providerName string) <-chan domain.Event {
	events := make(chan domain.Event)
	go func() {
		defer close(events)
		if err := s.run(ctx, kind, dirName, providerName, events); err != nil {
			log.Error().Err(err).Str("dir_name", dirName).Str("kind", string(kind)).Msg("transform failed")
			emit(ctx, events, domain.ErrorEvent(err))
		}
	}()
	return events
}

func (s *TransformService) run(ctx context.Context, kind TransformKind, dirName, providerName string, events chan<- domain.Event) error {
	job, ok := transformJobs[kind]
	if !ok {
		return domain.Validationf("unknown transform: %s", kind)
	}
	if err := assets.ValidateDirName(dirName); err != nil {
		return err
	}

	originName, markdown, err := s.assets.FindArtifact(dirName, domain.SuffixOrigin)
	if err != nil {
		return err
	}
	base := strings.TrimSuffix(assets.BaseName(originName), string(domain.SuffixOrigin))

	provider, err := s.llm.GetProvider(providerName)
	if err != nil {
		return domain.WrapError(domain.KindLLM, err, "no usable model provider")
	}

	if !emit(ctx, events, domain.StatusEvent(job.workingMsg)) {
		return ctx.Err()
	}
	if !emit(ctx, events, domain.ChunkEvent(domain.StreamStart)) {
		return ctx.Err()
	}

	result, err := provider.Stream(ctx, llm.StreamRequest{
		System:      job.instruction,
		User:        markdown,
		Temperature: job.temperature,
	}, func(chunk string) {
		emit(ctx, events, domain.ChunkEvent(chunk))
	})
	if err != nil {
		return domain.WrapError(domain.KindLLM, err, "%s generation failed", kind)
	}
	if job.stripFences {
		result = stripFences(result)
	}

	if err := s.assets.WriteArtifact(dirName, base, job.suffix, result); err != nil {
		return err
	}

	if !emit(ctx, events, domain.ChunkEvent(domain.StreamEnd)) {
		return ctx.Err()
	}
	emit(ctx, events, domain.Event{Status: job.doneMsg, BaseFileName: base})
	return nil
}
