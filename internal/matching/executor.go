// Package matching scores every selected candidate against every selected job.
package matching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/cv-matcher/internal/domain"
	"github.com/spigell/cv-matcher/internal/logger"
)

var (
	ErrNoCandidates = errors.New("no candidates selected")
	ErrNoJobs       = errors.New("no jobs selected")
)

const DefaultPairTimeout = 60 * time.Second

// PairScorer scores one pair. *Adapter is the production implementation.
type PairScorer interface {
	ScorePair(ctx context.Context, candidate, job domain.Document) (*domain.MatchResult, error)
}

type Options struct {
	// Concurrency caps the number of pairs in flight. Zero or less means no cap.
	Concurrency int `mapstructure:"concurrency"`
	// PairTimeout bounds one scoring call. Zero or less disables the timeout.
	PairTimeout time.Duration `mapstructure:"pair-timeout"`
}

// Failure describes a pair that could not be scored.
type Failure struct {
	CandidateID string
	JobID       string
	Candidate   string
	Job         string
	Err         error
	Message     string
}

type Outcome struct {
	Successes []*domain.MatchResult
	Failures  []Failure
}

// Messages returns the display message of every failure, in pair order.
func (o *Outcome) Messages() []string {
	messages := make([]string, 0, len(o.Failures))
	for _, f := range o.Failures {
		messages = append(messages, f.Message)
	}
	return messages
}

// Executor has no state between runs.
type Executor struct {
	scorer PairScorer
	opts   Options
	logger *zap.Logger
}

func NewExecutor(scorer PairScorer, opts Options, log *zap.Logger) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{scorer: scorer, opts: opts, logger: log}
}

type pairOutcome struct {
	result *domain.MatchResult
	err    error
}

// Run scores the cartesian product of candidates and jobs, candidates outer.
// It returns once every pair has settled; one failing pair never affects the others.
func (e *Executor) Run(ctx context.Context, candidates, jobs []domain.Document) (*Outcome, error) {
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}
	if len(jobs) == 0 {
		return nil, ErrNoJobs
	}

	total := len(candidates) * len(jobs)
	settled := make([]pairOutcome, total)

	// Pair goroutines never return an error, so the group context is only
	// cancelled by the caller.
	g, gctx := errgroup.WithContext(ctx)
	if e.opts.Concurrency > 0 {
		g.SetLimit(e.opts.Concurrency)
	}

	e.logger.Info("matching started",
		zap.Int("candidates", len(candidates)),
		zap.Int("jobs", len(jobs)),
		zap.Int("pairs", total),
	)
	started := time.Now()

	for i := range candidates {
		for j := range jobs {
			idx := i*len(jobs) + j
			candidate, job := candidates[i], jobs[j]
			g.Go(func() error {
				result, err := e.scorePair(gctx, candidate, job)
				settled[idx] = pairOutcome{result: result, err: err}
				return nil
			})
		}
	}
	_ = g.Wait()

	outcome := &Outcome{}
	for idx, s := range settled {
		candidate, job := candidates[idx/len(jobs)], jobs[idx%len(jobs)]
		if s.err != nil {
			outcome.Failures = append(outcome.Failures, Failure{
				CandidateID: candidate.ID,
				JobID:       job.ID,
				Candidate:   candidate.Name,
				Job:         job.Name,
				Err:         s.err,
				Message:     fmt.Sprintf("Error for %s & %s: %v", candidate.Name, job.Name, s.err),
			})
			continue
		}
		outcome.Successes = append(outcome.Successes, s.result)
	}

	e.logger.Info("matching finished",
		zap.Int("succeeded", len(outcome.Successes)),
		zap.Int("failed", len(outcome.Failures)),
		zap.Duration("took", time.Since(started)),
	)
	return outcome, nil
}

// scorePair settles one pair. A scorer that ignores its context is abandoned
// once the context is done, so a stuck call still settles as a failure.
func (e *Executor) scorePair(ctx context.Context, candidate, job domain.Document) (*domain.MatchResult, error) {
	log := logger.WithFields(e.logger, logger.PairFields(candidate.ID, job.ID)...)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if e.opts.PairTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.PairTimeout)
		defer cancel()
	}

	done := make(chan pairOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("scorer panicked", zap.Any("panic", r))
				done <- pairOutcome{err: fmt.Errorf("scorer panicked: %v", r)}
			}
		}()
		result, err := e.scorer.ScorePair(ctx, candidate, job)
		done <- pairOutcome{result: result, err: err}
	}()

	var out pairOutcome
	select {
	case out = <-done:
	case <-ctx.Done():
		out = pairOutcome{err: ctx.Err()}
	}

	if out.err != nil {
		log.Warn("pair failed", zap.Error(out.err))
		return nil, out.err
	}
	if out.result == nil {
		return nil, errors.New("scorer returned no result")
	}
	return out.result, nil
}
