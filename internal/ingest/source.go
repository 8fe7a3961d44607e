package ingest

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/forecast/internal/domain"
)

// ErrNoChangeSet is returned when no export is configured for a comparison period.
var ErrNoChangeSet = errors.New("no change set configured for comparison")

// Source provides the three record kinds the forecast board works on.
type Source interface {
	ClosedWon(ctx context.Context) ([]domain.ClosedWonRecord, error)
	Pipeline(ctx context.Context) ([]domain.DealRecord, error)
	Changes(ctx context.Context, comparison domain.Comparison) ([]domain.ChangeRecord, error)
}

// Paths locates the exports on disk.
type Paths struct {
	ClosedWon string
	Pipeline  string
	Changes   map[domain.Comparison]string
}

// FileSource reads exports from the local filesystem on every call, so edits to the files
// show up on the next load.
type FileSource struct {
	paths      Paths
	normalizer *Normalizer
	logger     *zap.Logger
}

// NewFileSource creates a file-backed source.
func NewFileSource(paths Paths, logger *zap.Logger) *FileSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSource{
		paths:      paths,
		normalizer: NewNormalizer(logger),
		logger:     logger.With(zap.String("component", "file_source")),
	}
}

// ClosedWon loads the closed-won export.
func (s *FileSource) ClosedWon(ctx context.Context) ([]domain.ClosedWonRecord, error) {
	rows, err := s.read(ctx, s.paths.ClosedWon)
	if err != nil {
		return nil, errors.Wrap(err, "load closed won")
	}
	records := s.normalizer.ClosedWon(rows)
	s.logger.Info("closed won loaded", zap.String("path", s.paths.ClosedWon), zap.Int("records", len(records)))
	return records, nil
}

// Pipeline loads the open-pipeline export.
func (s *FileSource) Pipeline(ctx context.Context) ([]domain.DealRecord, error) {
	rows, err := s.read(ctx, s.paths.Pipeline)
	if err != nil {
		return nil, errors.Wrap(err, "load pipeline")
	}
	deals := s.normalizer.Deals(rows)
	s.logger.Info("pipeline loaded", zap.String("path", s.paths.Pipeline), zap.Int("records", len(deals)))
	return deals, nil
}

// Changes loads the change set measured against the comparison snapshot.
func (s *FileSource) Changes(ctx context.Context, comparison domain.Comparison) ([]domain.ChangeRecord, error) {
	path, ok := s.paths.Changes[comparison]
	if !ok || path == "" {
		return nil, errors.Wrapf(ErrNoChangeSet, "%s", comparison)
	}

	rows, err := s.read(ctx, path)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s changes", comparison)
	}
	changes := s.normalizer.Changes(rows)
	s.logger.Info("changes loaded",
		zap.String("comparison", comparison.String()),
		zap.String("path", path),
		zap.Int("records", len(changes)),
	)
	return changes, nil
}

func (s *FileSource) read(ctx context.Context, path string) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return Parse(string(payload)), nil
}
