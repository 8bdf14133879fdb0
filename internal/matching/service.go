package matching

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/cv-matcher/internal/domain"
	"github.com/spigell/cv-matcher/internal/state"
)

// Service runs a batch for documents selected by id and merges the successes
// into the stored results.
type Service struct {
	state    *state.Manager
	executor *Executor
	logger   *zap.Logger
}

func NewService(st *state.Manager, executor *Executor, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{state: st, executor: executor, logger: log}
}

// Report is what one batch produced.
type Report struct {
	*Outcome
	// Added is the number of results that were new to the store.
	Added int
}

// Match resolves the ids, scores every pair and stores the successes.
// Unknown ids fail the whole batch before any pair is scored.
func (s *Service) Match(ctx context.Context, candidateIDs, jobIDs []string) (*Report, error) {
	candidates, err := s.resolve(domain.KindCandidate, candidateIDs)
	if err != nil {
		return nil, err
	}
	jobs, err := s.resolve(domain.KindJob, jobIDs)
	if err != nil {
		return nil, err
	}

	outcome, err := s.executor.Run(ctx, candidates, jobs)
	if err != nil {
		return nil, err
	}

	added := s.state.MergeResults(ctx, outcome.Successes)
	s.logger.Info("batch stored", zap.Int("added", added), zap.Int("failed", len(outcome.Failures)))

	return &Report{Outcome: outcome, Added: added}, nil
}

func (s *Service) resolve(kind domain.Kind, ids []string) ([]domain.Document, error) {
	docs := make([]domain.Document, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		doc, err := s.state.GetDocument(kind, id)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
