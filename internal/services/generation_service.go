// Package services contains the application business logic.
//
// This file implements GenerationService, the application-level component that
// owns the generation lifecycle. Submit validates the prompt and tool, creates
// a processing placeholder row, and resolves it asynchronously: the provider
// executor produces the asset, and the row transitions to completed (with the
// asset URL and a points deduction in one transaction) or failed (with the
// absorbed error text). Transitions out of a terminal state never happen; the
// repository guards enforce that.
//
// One generation runs at a time. A second Submit while the first is still
// resolving returns ErrGenerationInFlight.
//
// Observability: public methods are OpenTelemetry-instrumented; spans include
// generation/user identifiers where applicable. Resolution outcomes and
// durations feed the Prometheus collectors in internal/observability.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/mkaran/go-studio-backend/internal/domain"
	"github.com/mkaran/go-studio-backend/internal/observability"
	"github.com/mkaran/go-studio-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Executor produces the asset for a prompt and returns its stored URL.
type Executor interface {
	Execute(ctx context.Context, kind domain.MediaKind, prompt string) (string, error)
}

// GenerationService coordinates submission, asynchronous resolution, and
// retrieval of generations.
type GenerationService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Exec runs the remote generation and stores the result.
	Exec Executor
	// Log receives resolution outcomes; submission itself is logged by the
	// HTTP layer.
	Log zerolog.Logger

	// ImageCost and VideoCost are the points charged per completed item.
	ImageCost int64
	VideoCost int64

	// MaxPromptRunes caps accepted prompts by rune length.
	MaxPromptRunes int
	// ResolveTimeout bounds a single resolution end to end.
	ResolveTimeout time.Duration

	// Title generation config
	TitleLocale language.Tag
	TitleMaxLen int

	busy atomic.Bool
	wg   sync.WaitGroup
}

// NewGenerationService constructs a GenerationService with sane defaults.
func NewGenerationService(db *gorm.DB, exec Executor, log zerolog.Logger) *GenerationService {
	return &GenerationService{
		DB:             db,
		Exec:           exec,
		Log:            log,
		ImageCost:      10,
		VideoCost:      250,
		MaxPromptRunes: 2000,
		ResolveTimeout: 10 * time.Minute,
		TitleLocale:    language.Und,
		TitleMaxLen:    60,
	}
}

// Submit validates the request, inserts a processing placeholder, and starts
// resolving it in the background. The returned item is the placeholder; poll
// Get until its status turns terminal.
func (s *GenerationService) Submit(ctx context.Context, userID string, tool domain.Tool, prompt string) (*domain.Generation, error) {
	tr := otel.Tracer("services/GenerationService")
	ctx, span := tr.Start(ctx, "Submit",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("generation.tool", string(tool)),
		),
	)
	defer span.End()

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}
	if s.MaxPromptRunes > 0 && utf8.RuneCountInString(prompt) > s.MaxPromptRunes {
		return nil, ErrPromptTooLong
	}
	kind := tool.KindFor()
	if kind == "" {
		return nil, ErrInvalidTool
	}

	// Single-flight gate: reject instead of queueing.
	if !s.busy.CompareAndSwap(false, true) {
		return nil, ErrGenerationInFlight
	}

	g, err := repo.CreateGeneration(ctx, s.DB, userID, prompt, s.titleFromPrompt(prompt), kind, tool)
	if err != nil {
		s.busy.Store(false)
		return nil, err
	}
	span.SetAttributes(attribute.String("generation.id", g.ID))

	s.wg.Add(1)
	go s.resolve(g.ID, kind, prompt)

	return g, nil
}

// resolve runs the executor and finalizes the row. It deliberately detaches
// from the request context: the caller's response is the placeholder, and the
// generation keeps running after the response is written.
func (s *GenerationService) resolve(id string, kind domain.MediaKind, prompt string) {
	defer s.wg.Done()
	defer s.busy.Store(false)

	timeout := s.ResolveTimeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	tr := otel.Tracer("services/GenerationService")
	ctx, span := tr.Start(ctx, "resolve",
		trace.WithAttributes(
			attribute.String("generation.id", id),
			attribute.String("generation.kind", string(kind)),
		),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		observability.GenerationDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
	}()

	resultURL, err := s.Exec.Execute(ctx, kind, prompt)
	if err != nil {
		if ferr := repo.FailGeneration(ctx, s.DB, id, err.Error()); ferr != nil {
			observability.GenerationsTotal.WithLabelValues(string(kind), "error").Inc()
			s.Log.Error().Err(ferr).Str("generation_id", id).Msg("recording generation failure")
			return
		}
		observability.GenerationsTotal.WithLabelValues(string(kind), "failed").Inc()
		s.Log.Warn().Err(err).Str("generation_id", id).Msg("generation failed")
		return
	}

	// Completion and the points deduction commit together.
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.CompleteGeneration(ctx, tx, id, resultURL); err != nil {
			return err
		}
		return repo.DeductPoints(ctx, tx, s.costFor(kind))
	})
	if err != nil {
		observability.GenerationsTotal.WithLabelValues(string(kind), "error").Inc()
		s.Log.Error().Err(err).Str("generation_id", id).Msg("finalizing generation")
		return
	}
	observability.GenerationsTotal.WithLabelValues(string(kind), "completed").Inc()
	s.Log.Info().Str("generation_id", id).Str("kind", string(kind)).Msg("generation completed")
}

// Get fetches a generation owned by userID.
func (s *GenerationService) Get(ctx context.Context, userID, id string) (*domain.Generation, error) {
	tr := otel.Tracer("services/GenerationService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(
			attribute.String("generation.id", id),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	g, err := repo.GetGeneration(ctx, s.DB, id, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrGenerationNotFound
		}
		return nil, err
	}
	return g, nil
}

// InFlight reports whether a generation is currently resolving.
func (s *GenerationService) InFlight() bool { return s.busy.Load() }

// Wait blocks until all background resolutions have finished. Used during
// shutdown and in tests.
func (s *GenerationService) Wait() { s.wg.Wait() }

// costFor returns the points charged for a completed item of the given kind.
func (s *GenerationService) costFor(kind domain.MediaKind) int64 {
	if kind == domain.KindVideo {
		return s.VideoCost
	}
	return s.ImageCost
}

// titleFromPrompt derives a concise display title from the prompt.
func (s *GenerationService) titleFromPrompt(prompt string) string {
	toks := titleWordRE.FindAllString(strings.ToLower(prompt), -1)
	if len(toks) == 0 {
		return ""
	}

	titleCaser := cases.Title(s.titleLocaleOrDefault())
	out := make([]string, 0, 8)
	for _, w := range toks {
		if _, skip := titleStopWords[w]; skip {
			continue
		}
		out = append(out, titleCaser.String(w))
		if len(out) >= 8 {
			break
		}
	}
	if len(out) == 0 {
		return ""
	}
	title := strings.Join(out, " ")
	max := s.TitleMaxLen
	if max <= 0 {
		max = 60
	}
	if utf8.RuneCountInString(title) > max {
		title = string([]rune(title)[:max])
	}
	return title
}

func (s *GenerationService) titleLocaleOrDefault() language.Tag {
	if s.TitleLocale == language.Und {
		return language.English
	}
	return s.TitleLocale
}

// Extract Unicode letters with optional trailing numbers.
var titleWordRE = regexp.MustCompile(`[\p{L}]+[\p{N}]*`)

// Minimal English stop-words set for compact titles.
var titleStopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "of": {}, "to": {}, "in": {},
	"is": {}, "are": {}, "for": {}, "on": {}, "with": {}, "by": {}, "from": {},
	"at": {}, "as": {}, "that": {}, "this": {}, "it": {}, "be": {}, "was": {}, "were": {},
}
