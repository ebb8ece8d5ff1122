package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/teemow/clickup-mcp/internal/clickup"
	"github.com/teemow/clickup-mcp/internal/instrumentation"
	"github.com/teemow/clickup-mcp/internal/logging"
)

// Strategy names a lookup step.
type Strategy string

const (
	StrategyDirect   Strategy = "direct"
	StrategyCustomID Strategy = "custom_id"
	StrategySearch   Strategy = "search"
)

// FetchOptions controls a single task lookup.
type FetchOptions struct {
	IncludeSubtasks bool
	// ScopeID is the team the custom ID belongs to. Only used by FetchByCustomID.
	ScopeID string
}

// TaskStore is what the resolver looks tasks up in.
type TaskStore interface {
	FetchByID(ctx context.Context, id string, opts FetchOptions) (*clickup.Task, error)
	FetchByCustomID(ctx context.Context, id string, opts FetchOptions) (*clickup.Task, error)
	SearchByText(ctx context.Context, query string) ([]clickup.Task, error)
}

// errNoMatches marks a search that completed with zero results.
var errNoMatches = errors.New("no tasks match")

// Attempt is the outcome of one strategy. Exactly one of Task and Err is set.
type Attempt struct {
	Strategy Strategy
	Task     *clickup.Task
	Err      error
	// Results is the number of tasks a search returned; zero for lookups.
	Results int
}

// Succeeded reports whether the attempt produced a task.
func (a Attempt) Succeeded() bool {
	return a.Err == nil && a.Task != nil
}

// ResolveOptions controls a resolution.
type ResolveOptions struct {
	IncludeSubtasks bool
}

// Resolver resolves task references. It holds no per-call state and is safe for
// concurrent use.
type Resolver struct {
	store        TaskStore
	patterns     *PatternTable
	scopeID      string
	strictSearch bool
	metrics      *instrumentation.Metrics
	logger       logging.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithStrictSearch makes a search without an exact custom_id match fail with KindAmbiguous
// when it returned more than one task, instead of picking the first.
func WithStrictSearch(strict bool) Option {
	return func(r *Resolver) { r.strictSearch = strict }
}

func WithMetrics(m *instrumentation.Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

func WithLogger(logger logging.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// New creates a Resolver. patterns may be nil. scopeID is the team custom IDs are looked up
// in.
func New(store TaskStore, patterns *PatternTable, scopeID string, opts ...Option) *Resolver {
	r := &Resolver{
		store:    store,
		patterns: patterns,
		scopeID:  scopeID,
		logger:   logging.DiscardLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Patterns returns the table the resolver parses references with.
func (r *Resolver) Patterns() *PatternTable {
	return r.patterns
}

// Resolve turns raw into a task. Strategies run one after another, each at most once:
//
//  1. direct lookup of the candidate ID;
//  2. custom-ID lookup in the scope team, when the candidate has a known prefix or a "-";
//  3. text search for the reference, after a failed custom-ID lookup.
//
// A candidate without a known prefix or "-" only gets the direct lookup.
// The returned error is always a *ResolutionError.
func (r *Resolver) Resolve(ctx context.Context, raw string, opts ResolveOptions) (*clickup.Task, error) {
	ctx, span := instrumentation.StartResolveSpan(ctx, raw)
	defer span.End()

	task, err := r.resolve(ctx, raw, opts)
	if err != nil {
		var re *ResolutionError
		if errors.As(err, &re) {
			r.metrics.RecordResolution(ctx, string(re.Strategy), string(re.Kind))
		}
		instrumentation.SetSpanError(span, err)
		r.logger.Debug("task reference unresolved", logging.TaskRef(raw), logging.Err(err))
		return nil, err
	}

	instrumentation.SetSpanSuccess(span)
	return task, nil
}

func (r *Resolver) resolve(ctx context.Context, raw string, opts ResolveOptions) (*clickup.Task, error) {
	parsed := Parse(raw, r.patterns)
	if parsed.CandidateID == "" {
		return nil, &ResolutionError{Reference: raw, Kind: KindNotFound, Err: errors.New("empty task reference")}
	}

	var attempts []Attempt
	done := func(a Attempt) (*clickup.Task, bool) {
		attempts = append(attempts, a)
		r.recordAttempt(ctx, a)
		if a.Succeeded() {
			r.metrics.RecordResolution(ctx, string(a.Strategy), "resolved")
			r.logger.Debug("task reference resolved",
				logging.TaskRef(raw), logging.Strategy(string(a.Strategy)), "task_id", a.Task.ID)
			return a.Task, true
		}
		return nil, false
	}

	fetch := FetchOptions{IncludeSubtasks: opts.IncludeSubtasks}
	direct := Attempt{Strategy: StrategyDirect}
	direct.Task, direct.Err = r.store.FetchByID(ctx, parsed.CandidateID, fetch)
	if task, ok := done(direct); ok {
		return task, nil
	}

	if !parsed.LooksCustom() || ctx.Err() != nil {
		return nil, selectError(raw, parsed, attempts)
	}

	custom := Attempt{Strategy: StrategyCustomID}
	fetch.ScopeID = r.scopeID
	custom.Task, custom.Err = r.store.FetchByCustomID(ctx, parsed.CandidateID, fetch)
	if task, ok := done(custom); ok {
		return task, nil
	}
	if ctx.Err() != nil {
		return nil, selectError(raw, parsed, attempts)
	}

	query := strings.TrimSpace(raw)
	search := Attempt{Strategy: StrategySearch}
	tasks, err := r.store.SearchByText(ctx, query)
	switch {
	case err != nil:
		search.Err = err
	case len(tasks) == 0:
		search.Err = fmt.Errorf("%w %q", errNoMatches, query)
	default:
		search.Results = len(tasks)
		search.Task, search.Err = r.pickSearchResult(query, tasks)
	}
	if task, ok := done(search); ok {
		return task, nil
	}
	return nil, selectError(raw, parsed, attempts)
}

// pickSearchResult prefers the task whose custom_id equals query exactly.
func (r *Resolver) pickSearchResult(query string, tasks []clickup.Task) (*clickup.Task, error) {
	for i := range tasks {
		if tasks[i].CustomID == query {
			return &tasks[i], nil
		}
	}
	if r.strictSearch && len(tasks) > 1 {
		return nil, &ambiguousError{query: query, count: len(tasks)}
	}
	return &tasks[0], nil
}

type ambiguousError struct {
	query string
	count int
}

func (e *ambiguousError) Error() string {
	return fmt.Sprintf("%d tasks match %q and none has that custom ID", e.count, e.query)
}

// selectError picks the failure to report once every attempted strategy has failed.
//
// An ambiguous search is reported as such. Otherwise the custom-ID failure wins when the
// candidate carried a known prefix, and the direct failure wins in every other case. When
// the search ran and came back empty the resolution is NotFound whatever the chosen
// lookup failed with.
func selectError(raw string, parsed ParsedReference, attempts []Attempt) *ResolutionError {
	byStrategy := make(map[Strategy]Attempt, len(attempts))
	for _, a := range attempts {
		byStrategy[a.Strategy] = a
	}

	search, searched := byStrategy[StrategySearch]
	var amb *ambiguousError
	if searched && errors.As(search.Err, &amb) {
		return &ResolutionError{
			Reference: raw,
			Kind:      KindAmbiguous,
			Strategy:  StrategySearch,
			Attempts:  attempts,
			Err:       search.Err,
		}
	}

	chosen := byStrategy[StrategyDirect]
	if custom, ok := byStrategy[StrategyCustomID]; ok && parsed.HasCustomPrefix() {
		chosen = custom
	}

	kind := classify(chosen.Err)
	statusCode := clickup.StatusCode(chosen.Err)
	if searched && errors.Is(search.Err, errNoMatches) && kind != KindNotFound {
		kind = KindNotFound
		statusCode = 0
	}

	return &ResolutionError{
		Reference:  raw,
		Kind:       kind,
		Strategy:   chosen.Strategy,
		StatusCode: statusCode,
		Attempts:   attempts,
		Err:        chosen.Err,
	}
}

func (r *Resolver) recordAttempt(ctx context.Context, a Attempt) {
	result := "hit"
	switch {
	case a.Succeeded():
	case errors.Is(a.Err, errNoMatches), clickup.IsNotFound(a.Err):
		result = "miss"
	default:
		result = "error"
	}
	r.metrics.RecordResolverAttempt(ctx, string(a.Strategy), result)
}
