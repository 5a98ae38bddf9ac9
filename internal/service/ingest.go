package service

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/paperdeck/paperdeck/internal/assets"
	"github.com/paperdeck/paperdeck/internal/domain"
	"github.com/paperdeck/paperdeck/internal/llm"
	"github.com/paperdeck/paperdeck/internal/parser"
)

// DirectoryCache invalidates and serves cached directory listings. It is
// optional; a nil cache disables caching.
type DirectoryCache interface {
	Get(ctx context.Context, username string) ([]domain.DirectoryInfo, error)
	Set(ctx context.Context, username string, dirs []domain.DirectoryInfo) error
	Invalidate(ctx context.Context, username string) error
}

// IngestInput describes one ingestion request. Exactly one of File and URL
// must be set.
type IngestInput struct {
	Username string
	FileName string
	File     io.Reader
	URL      string
	Provider string
}

// IngestService runs the PDF-to-annotated-markdown pipeline.
type IngestService struct {
	assets     *assets.Store
	parser     parser.Client
	llm        *llm.Router
	httpClient *http.Client
	cache      DirectoryCache
}

// NewIngestService creates the ingestion service. cache may be nil.
func NewIngestService(store *assets.Store, p parser.Client, router *llm.Router, cache DirectoryCache) *IngestService {
	return &IngestService{
		assets:     store,
		parser:     p,
		llm:        router,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		cache:      cache,
	}
}

// emit sends an event unless the consumer is gone.
func emit(ctx context.Context, ch chan<- domain.Event, ev domain.Event) bool {
	select {
	case ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// Run executes the pipeline and streams progress events. The channel closes
// when the pipeline finishes; an error event is always terminal.
func (s *IngestService) Run(ctx context.Context, in IngestInput) <-chan domain.Event {
	events := make(chan domain.Event)
	go func() {
		defer close(events)
		if err := s.run(ctx, in, events); err != nil {
			log.Error().Err(err).Str("username", in.Username).Msg("ingestion failed")
			emit(ctx, events, domain.ErrorEvent(err))
		}
	}()
	return events
}

func (s *IngestService) run(ctx context.Context, in IngestInput, events chan<- domain.Event) error {
	if err := assets.ValidateUsername(in.Username); err != nil {
		return err
	}

	fileName, pdf, err := s.acquire(ctx, in)
	if err != nil {
		return err
	}

	base := assets.BaseName(fileName)
	dirName := assets.NewDirName(base, time.Now())
	if err := s.assets.CreateDirectory(in.Username, dirName); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, in.Username); err != nil {
			log.Warn().Err(err).Str("username", in.Username).Msg("failed to invalidate directory cache")
		}
	}

	if !emit(ctx, events, domain.StatusEvent("Saving PDF file...")) {
		return ctx.Err()
	}
	if err := s.assets.SaveSource(in.Username, dirName, fileName, bytes.NewReader(pdf)); err != nil {
		return err
	}

	if !emit(ctx, events, domain.StatusEvent("Parsing PDF file...")) {
		return ctx.Err()
	}
	doc, err := s.parser.Parse(ctx, pdf, fileName)
	if err != nil {
		return err
	}

	if !emit(ctx, events, domain.StatusEvent("Saving images...")) {
		return ctx.Err()
	}
	tableCount, pictureCount := 0, 0
	for _, el := range doc.Elements {
		switch el.Kind {
		case domain.ElementTable:
			tableCount++
			if _, err := s.assets.SaveImage(in.Username, dirName, el.Kind, tableCount, el.Image); err != nil {
				return err
			}
		case domain.ElementPicture:
			pictureCount++
			if _, err := s.assets.SaveImage(in.Username, dirName, el.Kind, pictureCount, el.Image); err != nil {
				return err
			}
		}
	}

	if !emit(ctx, events, domain.StatusEvent("Converting to markdown...")) {
		return ctx.Err()
	}

	provider, err := s.llm.GetProvider(in.Provider)
	if err != nil {
		return domain.WrapError(domain.KindLLM, err, "no usable model provider")
	}

	if !emit(ctx, events, domain.ChunkEvent(domain.StreamStart)) {
		return ctx.Err()
	}
	result, err := provider.Stream(ctx, llm.StreamRequest{
		System:      annotateInstruction,
		User:        doc.Markdown,
		Temperature: 0,
	}, func(chunk string) {
		emit(ctx, events, domain.ChunkEvent(chunk))
	})
	if err != nil {
		return domain.WrapError(domain.KindLLM, err, "markdown annotation failed")
	}

	fullDirName := in.Username + "/" + dirName
	if err := s.assets.WriteArtifact(fullDirName, base, domain.SuffixOrigin, stripFences(result)); err != nil {
		return err
	}

	if !emit(ctx, events, domain.ChunkEvent(domain.StreamEnd)) {
		return ctx.Err()
	}
	emit(ctx, events, domain.Event{DirName: fullDirName, BaseFileName: base})
	return nil
}

// acquire resolves the input to a file name and the raw PDF bytes.
func (s *IngestService) acquire(ctx context.Context, in IngestInput) (string, []byte, error) {
	switch {
	case in.File != nil:
		if in.FileName == "" {
			return "", nil, domain.Validationf("file name is required")
		}
		if err := assets.ValidateFileName(in.FileName); err != nil {
			return "", nil, err
		}
		pdf, err := io.ReadAll(in.File)
		if err != nil {
			return "", nil, domain.WrapError(domain.KindAcquisition, err, "failed to read uploaded PDF")
		}
		return in.FileName, pdf, nil

	case in.URL != "":
		fileName := path.Base(in.URL)
		if !strings.HasSuffix(strings.ToLower(fileName), ".pdf") {
			fileName += ".pdf"
		}
		if err := assets.ValidateFileName(fileName); err != nil {
			return "", nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, in.URL, nil)
		if err != nil {
			return "", nil, domain.Acquisitionf("invalid PDF URL: %s", in.URL)
		}
		resp, err := s.httpClient.Do(req)
		if err != nil {
			return "", nil, domain.WrapError(domain.KindAcquisition, err, "failed to download PDF")
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return "", nil, domain.Acquisitionf("PDF download returned status %d", resp.StatusCode)
		}
		pdf, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", nil, domain.WrapError(domain.KindAcquisition, err, "failed to download PDF")
		}
		return fileName, pdf, nil

	default:
		return "", nil, domain.Validationf("no valid PDF file or URL provided")
	}
}
