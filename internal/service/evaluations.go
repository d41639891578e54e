package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"physioeval/internal/domain"
	"physioeval/internal/repository"
)

// EvaluationService exposes the evaluation aggregate through the flat field
// map used by every form and document collaborator.
type EvaluationService struct {
	repo     repository.Repository
	eventBus *EventBus
	log      zerolog.Logger
}

// NewEvaluationService creates a new evaluation service. eventBus may be nil.
func NewEvaluationService(repo repository.Repository, eventBus *EventBus, log zerolog.Logger) *EvaluationService {
	return &EvaluationService{
		repo:     repo,
		eventBus: eventBus,
		log:      log.With().Str("component", "evaluation_service").Logger(),
	}
}

// Save stores a new aggregate built from fields and returns its id. Missing
// keys are stored as empty values.
func (s *EvaluationService) Save(ctx context.Context, fields domain.FieldMap) (int64, error) {
	e, err := domain.FromFieldMap(fields)
	if err != nil {
		return 0, err
	}

	id, err := s.repo.Create(ctx, e)
	if err != nil {
		return 0, fmt.Errorf("failed to save evaluation: %w", err)
	}

	s.log.Info().Int64("evaluation_id", id).Str("patient", e.Patient.Name).Msg("evaluation saved")
	s.eventBus.Publish(Event{Type: EventEvaluationSaved, EvaluationID: id})
	return id, nil
}

// Get returns the field map of an evaluation, or nil, nil when id does not
// exist. Every logical field name is present in the result.
func (s *EvaluationService) Get(ctx context.Context, id int64) (domain.FieldMap, error) {
	e, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, nil
	}
	return e.ToFieldMap(), nil
}

// Update overwrites every field of an existing evaluation. Keys absent from
// fields are written as empty. Returns false, nil when id does not exist.
func (s *EvaluationService) Update(ctx context.Context, id int64, fields domain.FieldMap) (bool, error) {
	e, err := domain.FromFieldMap(fields)
	if err != nil {
		return false, err
	}

	ok, err := s.repo.Replace(ctx, id, e)
	if err != nil {
		return false, fmt.Errorf("failed to update evaluation %d: %w", id, err)
	}
	if !ok {
		s.log.Debug().Int64("evaluation_id", id).Msg("update skipped, evaluation not found")
		return false, nil
	}

	s.log.Info().Int64("evaluation_id", id).Msg("evaluation updated")
	s.eventBus.Publish(Event{Type: EventEvaluationUpdated, EvaluationID: id})
	return true, nil
}

// Delete removes an evaluation with its sections and patient. Returns
// false, nil when id does not exist.
func (s *EvaluationService) Delete(ctx context.Context, id int64) (bool, error) {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete evaluation %d: %w", id, err)
	}
	if !ok {
		return false, nil
	}

	s.log.Info().Int64("evaluation_id", id).Msg("evaluation deleted")
	s.eventBus.Publish(Event{Type: EventEvaluationDeleted, EvaluationID: id})
	return true, nil
}

// List returns summaries newest first; see domain.ListQuery
func (s *EvaluationService) List(ctx context.Context, q domain.ListQuery) ([]domain.Summary, error) {
	return s.repo.List(ctx, q)
}

// Count returns how many evaluations match filter
func (s *EvaluationService) Count(ctx context.Context, filter string) (int, error) {
	return s.repo.Count(ctx, filter)
}
