// Package evaluation scores a candidate against the traits of a job.
//
// A run fans out one task per trait, gathers the normalized outcomes in any
// order, waits for all of them, asks for one holistic fit verdict over the
// whole picture and compiles a report whose sections follow the trait order.
package evaluation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/candidate-evaluator/internal/logger"
)

var (
	// ErrFitAssessment wraps a failed fit assessor call. There is no fallback verdict.
	ErrFitAssessment = errors.New("fit assessment failed")
	// ErrSummary wraps a failed summarizer call.
	ErrSummary = errors.New("summary failed")
	// ErrCanceled is returned when the caller's context ends before all traits resolve.
	ErrCanceled = errors.New("evaluation canceled")
)

// TraitEvaluator judges a single trait.
type TraitEvaluator interface {
	EvaluateTrait(ctx context.Context, req TraitRequest) (*Judgment, error)
}

// FitAssessor produces the holistic fit verdict.
type FitAssessor interface {
	AssessFit(ctx context.Context, req FitRequest) (*FitVerdict, error)
}

// Summarizer writes the narrative recommendation.
type Summarizer interface {
	Summarize(ctx context.Context, req SummaryRequest) (string, error)
}

// Candidate is the parsed candidate profile handed to collaborators.
type Candidate struct {
	FullName string
	Context  string
}

// Job describes the position the candidate is evaluated for.
type Job struct {
	Title         string
	Description   string
	IdealProfiles []string
}

// Input is everything a run needs. Traits are read, never written.
type Input struct {
	Traits       []Trait
	Candidate    Candidate
	Sources      string
	Job          Job
	Instructions string
	Citations    []Citation
}

type TraitRequest struct {
	Trait        Trait
	Candidate    Candidate
	Sources      string
	Instructions string
}

type FitRequest struct {
	Job          Job
	Candidate    Candidate
	Sources      string
	Instructions string
	// Evaluations holds every trait text joined in trait order.
	Evaluations string
}

type SummaryRequest struct {
	Job           Job
	CandidateName string
	Evaluations   string
	Instructions  string
}

// Options tune an Engine. Zero values are valid.
type Options struct {
	// Summarizer is optional; without it reports carry no summary.
	Summarizer Summarizer
	// MaxConcurrency bounds in-flight trait tasks. 0 means one task per trait at once.
	MaxConcurrency int
	// TraitTimeout bounds a single trait evaluation. 0 means no bound.
	TraitTimeout time.Duration
	Logger       *zap.Logger
}

// Engine runs scatter-gather evaluations. It is safe for concurrent use.
type Engine struct {
	evaluator      TraitEvaluator
	fit            FitAssessor
	summarizer     Summarizer
	maxConcurrency int
	traitTimeout   time.Duration
	logger         *zap.Logger
}

func New(evaluator TraitEvaluator, fit FitAssessor, opts Options) (*Engine, error) {
	if evaluator == nil {
		return nil, errors.New("trait evaluator is required")
	}
	if fit == nil {
		return nil, errors.New("fit assessor is required")
	}
	if opts.MaxConcurrency < 0 {
		return nil, fmt.Errorf("max concurrency must not be negative, got %d", opts.MaxConcurrency)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Engine{
		evaluator:      evaluator,
		fit:            fit,
		summarizer:     opts.Summarizer,
		maxConcurrency: opts.MaxConcurrency,
		traitTimeout:   opts.TraitTimeout,
		logger:         logger,
	}, nil
}

// Run evaluates in and returns a complete report, or an error and no report.
//
// A failing trait never fails the run; it is left out of the sections. An
// empty trait list yields an empty report without calling any collaborator.
func (e *Engine) Run(ctx context.Context, in Input) (*Report, error) {
	log := logger.WithFields(e.logger, logger.RunFields(in.Candidate.FullName, in.Job.Title)...)

	if len(in.Traits) == 0 {
		log.Info("no traits to evaluate")
		return &Report{Sections: []Section{}, Citations: copyCitations(in.Citations)}, nil
	}

	stages := newStageTracker(log)
	gathered := NewGatherSet()

	done := e.scatter(ctx, log, in, gathered)
	if err := stages.advance(StageScattered); err != nil {
		return nil, err
	}

	select {
	case <-done:
	case <-ctx.Done():
	}
	completed := gathered.Len()
	results, failures := gathered.Seal()
	if err := ctx.Err(); err != nil {
		log.Warn("evaluation canceled before all traits resolved",
			zap.Int("traits", len(in.Traits)),
			zap.Int("completed", completed),
			zap.Int("failed", len(failures)),
		)
		return nil, fmt.Errorf("%w: %w", ErrCanceled, err)
	}
	if err := stages.advance(StageGathered); err != nil {
		return nil, err
	}

	report := Compile(in.Traits, results, failures)
	evaluations := report.JoinedContent()

	verdict, err := e.fit.AssessFit(ctx, FitRequest{
		Job:          in.Job,
		Candidate:    in.Candidate,
		Sources:      in.Sources,
		Instructions: in.Instructions,
		Evaluations:  evaluations,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFitAssessment, err)
	}
	if verdict == nil {
		return nil, fmt.Errorf("%w: assessor returned no verdict", ErrFitAssessment)
	}
	fit := verdict.clamped()
	if fit.Score != verdict.Score {
		log.Warn("fit score out of range, clamped",
			zap.Int("score", verdict.Score),
			zap.Int("clamped", fit.Score),
		)
	}
	report.Fit = &fit

	if e.summarizer != nil {
		summary, err := e.summarizer.Summarize(ctx, SummaryRequest{
			Job:           in.Job,
			CandidateName: in.Candidate.FullName,
			Evaluations:   evaluations,
			Instructions:  in.Instructions,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSummary, err)
		}
		report.Summary = summary
	}

	report.Citations = copyCitations(in.Citations)

	if err := stages.advance(StageFinalized); err != nil {
		return nil, err
	}

	log.Info("evaluation completed",
		zap.Int("sections", len(report.Sections)),
		zap.Int("skipped", len(report.Skipped)),
		zap.Int("required_met", report.RequiredMet),
		zap.Int("optional_met", report.OptionalMet),
		zap.Float64("overall_score", report.OverallScore),
		zap.Int("fit_score", report.Fit.Score),
	)

	return report, nil
}

// scatter launches one task per trait and closes the returned channel once
// every launched task has returned.
func (e *Engine) scatter(ctx context.Context, log *zap.Logger, in Input, gathered *GatherSet) <-chan struct{} {
	done := make(chan struct{})

	var g errgroup.Group
	if e.maxConcurrency > 0 {
		g.SetLimit(e.maxConcurrency)
	}

	go func() {
		defer close(done)
		for i, trait := range in.Traits {
			if err := ctx.Err(); err != nil {
				gathered.Fail(Failure{Position: i, TraitName: trait.Name, Reason: err.Error()})
				continue
			}

			req := TraitRequest{
				Trait:        trait,
				Candidate:    in.Candidate,
				Sources:      in.Sources,
				Instructions: in.Instructions,
			}
			g.Go(func() error {
				e.evaluate(ctx, log, i, req, gathered)
				return nil
			})
		}
		_ = g.Wait()
	}()

	return done
}

func (e *Engine) evaluate(ctx context.Context, runLog *zap.Logger, position int, req TraitRequest, gathered *GatherSet) {
	log := logger.WithFields(runLog, logger.TraitFields(req.Trait.Name, req.Trait.Kind.String())...)

	if e.traitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.traitTimeout)
		defer cancel()
	}

	judgment, err := e.callEvaluator(ctx, req)
	if err != nil {
		log.Warn("trait evaluation failed", zap.Error(err))
		gathered.Fail(Failure{Position: position, TraitName: req.Trait.Name, Reason: err.Error()})
		return
	}

	score, degraded := Normalize(req.Trait.Kind, judgment.Value)
	if degraded {
		log.Warn("trait answer could not be normalized", zap.String("value", judgment.Value.String()))
	}

	if !gathered.Add(Result{
		Position:  position,
		TraitName: req.Trait.Name,
		Kind:      req.Trait.Kind,
		Raw:       judgment.Value,
		Rationale: judgment.Rationale,
		Score:     score,
		Required:  req.Trait.Required,
		Degraded:  degraded,
	}) {
		log.Debug("trait result arrived after gather was sealed")
		return
	}

	log.Debug("trait evaluated", zap.Float64("normalized_score", score))
}

// callEvaluator isolates one evaluator call: a panic becomes an error and
// an evaluator that ignores ctx is abandoned once ctx is done.
func (e *Engine) callEvaluator(ctx context.Context, req TraitRequest) (*Judgment, error) {
	type outcome struct {
		judgment *Judgment
		err      error
	}

	ch := make(chan outcome, 1)
	go func() {
		var o outcome
		defer func() {
			if r := recover(); r != nil {
				o = outcome{err: fmt.Errorf("trait evaluator panicked: %v", r)}
			}
			ch <- o
		}()
		o.judgment, o.err = e.evaluator.EvaluateTrait(ctx, req)
	}()

	select {
	case o := <-ch:
		if o.err != nil {
			return nil, o.err
		}
		if o.judgment == nil {
			return nil, errors.New("trait evaluator returned no judgment")
		}
		return o.judgment, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("trait evaluation abandoned: %w", ctx.Err())
	}
}

func copyCitations(in []Citation) []Citation {
	out := make([]Citation, len(in))
	copy(out, in)
	return out
}
