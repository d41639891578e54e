package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
	"github.com/rs/zerolog"

	"physioeval/internal/codec"
	"physioeval/internal/domain"
)

// ExchangeService moves evaluations in and out of documents on disk. The
// format follows the file extension: .yaml/.yml for YAML, JSON otherwise.
type ExchangeService struct {
	evaluations *EvaluationService
	eventBus    *EventBus
	log         zerolog.Logger
}

// NewExchangeService creates a new import/export service
func NewExchangeService(evaluations *EvaluationService, eventBus *EventBus, log zerolog.Logger) *ExchangeService {
	return &ExchangeService{
		evaluations: evaluations,
		eventBus:    eventBus,
		log:         log.With().Str("component", "exchange").Logger(),
	}
}

// ExportFileName is the default document name for an evaluation
func ExportFileName(id int64) string {
	return fmt.Sprintf("evaluation_%d.json", id)
}

// Export returns the JSON document of an evaluation, or domain.ErrNotFound
func (s *ExchangeService) Export(ctx context.Context, id int64) ([]byte, error) {
	return s.encode(ctx, id, codec.NewJSONCodec())
}

func (s *ExchangeService) encode(ctx context.Context, id int64, enc codec.Encoder) ([]byte, error) {
	fields, err := s.evaluations.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, fmt.Errorf("evaluation %d: %w", id, domain.ErrNotFound)
	}

	var buf bytes.Buffer
	if err := enc.Encode(fields, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportToFile writes the document of an evaluation to path, creating
// parent directories. The file is replaced atomically so readers never see
// a partial document.
func (s *ExchangeService) ExportToFile(ctx context.Context, id int64, path string) error {
	data, err := s.encode(ctx, id, codec.ForPath(path))
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	s.log.Info().Int64("evaluation_id", id).Str("path", path).Msg("evaluation exported")
	s.eventBus.Publish(Event{Type: EventEvaluationExported, EvaluationID: id, Path: path})
	return nil
}

// Import reads a document from path and saves it as a new evaluation
func (s *ExchangeService) Import(ctx context.Context, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	id, err := s.importWith(ctx, f, codec.ForPath(path))
	if err != nil {
		return 0, fmt.Errorf("failed to import %s: %w", path, err)
	}

	s.log.Info().Int64("evaluation_id", id).Str("path", path).Msg("evaluation imported")
	s.eventBus.Publish(Event{Type: EventEvaluationImported, EvaluationID: id, Path: path})
	return id, nil
}

// ImportReader reads a JSON document from r and saves it as a new
// evaluation
func (s *ExchangeService) ImportReader(ctx context.Context, r io.Reader) (int64, error) {
	id, err := s.importWith(ctx, r, codec.NewJSONCodec())
	if err != nil {
		return 0, err
	}
	s.eventBus.Publish(Event{Type: EventEvaluationImported, EvaluationID: id})
	return id, nil
}

func (s *ExchangeService) importWith(ctx context.Context, r io.Reader, dec codec.Decoder) (int64, error) {
	fields, err := dec.Decode(r)
	if err != nil {
		return 0, err
	}
	return s.evaluations.Save(ctx, fields)
}
