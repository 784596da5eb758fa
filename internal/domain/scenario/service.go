package scenario

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tcg/scenario-sheets/internal/extract"
	"github.com/tcg/scenario-sheets/internal/platform/source"
	"github.com/tcg/scenario-sheets/internal/sheet"
)

// ErrNoStore is returned by operations that need a repository when the
// service was built without one.
var ErrNoStore = errors.New("scenario store is not configured")

// Observer receives one call per Parse.
type Observer interface {
	ObserveParse(outcome string, warnings int, elapsed time.Duration)
}

type Service struct {
	repo           Repository
	logger         zerolog.Logger
	strictKeyWords bool
	observer       Observer
}

// NewService builds a service. repo may be nil, in which case only parsing
// is available.
func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// SetStrictKeyWords makes an empty key words cell a structural failure.
func (s *Service) SetStrictKeyWords(strict bool) { s.strictKeyWords = strict }

func (s *Service) SetObserver(o Observer) { s.observer = o }

// HasStore reports whether records can be persisted.
func (s *Service) HasStore() bool { return s.repo != nil }

// Sheets lists the sheet names of src.
func (s *Service) Sheets(ctx context.Context, src source.Source) ([]string, error) {
	return src.Sheets(ctx)
}

// Parse normalizes and extracts one sheet. The grid returned by src is
// normalized in place. Warnings are logged and returned with the result.
func (s *Service) Parse(ctx context.Context, src source.Source, name string) (*Result, error) {
	start := time.Now()
	res, err := s.parse(ctx, src, name)
	if s.observer != nil {
		warnings := 0
		if res != nil {
			warnings = len(res.Warnings)
		}
		s.observer.ObserveParse(outcome(err), warnings, time.Since(start))
	}
	return res, err
}

// outcome classifies a Parse error for metrics.
func outcome(err error) string {
	var structural *extract.StructuralError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &structural):
		return "structural"
	case errors.Is(err, source.ErrSheetNotFound):
		return "sheet_not_found"
	default:
		return "error"
	}
}

func (s *Service) parse(ctx context.Context, src source.Source, name string) (*Result, error) {
	if name == "" {
		return nil, fmt.Errorf("sheet name is required")
	}
	g, err := src.Grid(ctx, name)
	if err != nil {
		return nil, err
	}

	normalized := sheet.Normalize(g)

	var collected extract.Collector
	logger := s.logger.With().Str("sheet", name).Logger()
	doc, err := extract.Extract(g, extract.Options{
		Reporter:       extract.Tee(extract.NewLogReporter(logger), &collected),
		StrictKeyWords: s.strictKeyWords,
	})
	if err != nil {
		logger.Error().Err(err).Msg("extraction failed")
		return nil, err
	}

	warnings := collected.Warnings()
	logger.Info().
		Str("scenario", doc.Metadata.ScenarioName).
		Int("questions", len(doc.Questions)).
		Int("warnings", len(warnings)).
		Int("normalized_cells", len(normalized)).
		Msg("sheet extracted")

	return &Result{
		Sheet:      name,
		Document:   doc,
		Warnings:   warnings,
		Normalized: len(normalized),
	}, nil
}

// Import parses a sheet and stores the result.
func (s *Service) Import(ctx context.Context, src source.Source, name string) (*Record, error) {
	if s.repo == nil {
		return nil, ErrNoStore
	}
	res, err := s.Parse(ctx, src, name)
	if err != nil {
		return nil, err
	}
	return s.Store(ctx, res)
}

// Store persists an already parsed result.
func (s *Service) Store(ctx context.Context, res *Result) (*Record, error) {
	if s.repo == nil {
		return nil, ErrNoStore
	}
	rec, err := newRecord(res)
	if err != nil {
		return nil, fmt.Errorf("encode scenario: %w", err)
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("store scenario: %w", err)
	}
	s.logger.Info().Str("id", rec.ID.String()).Str("sheet", rec.SheetName).Msg("scenario stored")
	return rec, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	if s.repo == nil {
		return nil, ErrNoStore
	}
	return s.repo.GetByID(ctx, id)
}

// List returns stored records, newest first. An empty sheet lists all.
func (s *Service) List(ctx context.Context, sheetName string, limit, offset int) ([]*Record, int, error) {
	if s.repo == nil {
		return nil, 0, ErrNoStore
	}
	if sheetName != "" {
		return s.repo.ListBySheet(ctx, sheetName, limit, offset)
	}
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if s.repo == nil {
		return ErrNoStore
	}
	return s.repo.Delete(ctx, id)
}
