package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/clickup-mcp/internal/clickup"
	"github.com/teemow/clickup-mcp/internal/logging"
)

type call struct {
	Strategy Strategy
	ID       string
	Opts     FetchOptions
}

// fakeStore records calls and answers from fixed results.
type fakeStore struct {
	direct    *clickup.Task
	directErr error
	custom    *clickup.Task
	customErr error
	search    []clickup.Task
	searchErr error

	calls []call
}

func (f *fakeStore) FetchByID(_ context.Context, id string, opts FetchOptions) (*clickup.Task, error) {
	f.calls = append(f.calls, call{Strategy: StrategyDirect, ID: id, Opts: opts})
	return f.direct, f.directErr
}

func (f *fakeStore) FetchByCustomID(_ context.Context, id string, opts FetchOptions) (*clickup.Task, error) {
	f.calls = append(f.calls, call{Strategy: StrategyCustomID, ID: id, Opts: opts})
	return f.custom, f.customErr
}

func (f *fakeStore) SearchByText(_ context.Context, query string) ([]clickup.Task, error) {
	f.calls = append(f.calls, call{Strategy: StrategySearch, ID: query})
	return f.search, f.searchErr
}

func (f *fakeStore) strategies() []Strategy {
	out := make([]Strategy, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.Strategy)
	}
	return out
}

func notFound(msg string) error {
	return &clickup.APIError{StatusCode: http.StatusNotFound, Kind: clickup.KindNotFound, Message: msg}
}

func ghPatterns() *PatternTable {
	return NewPatternTable(map[string]string{"gh": "GitHub Issues"})
}

func TestResolve_DirectHit(t *testing.T) {
	store := &fakeStore{direct: &clickup.Task{ID: "86abc"}}
	r := New(store, ghPatterns(), "9001")

	task, err := r.Resolve(context.Background(), "https://app.clickup.com/t/86abc", ResolveOptions{IncludeSubtasks: true})
	require.NoError(t, err)
	assert.Equal(t, "86abc", task.ID)
	require.Len(t, store.calls, 1)
	assert.Equal(t, call{Strategy: StrategyDirect, ID: "86abc", Opts: FetchOptions{IncludeSubtasks: true}}, store.calls[0])
}

func TestResolve_PlainIDOnlyTriesDirect(t *testing.T) {
	refs := []string{"86abc", "#123", "ABC123"}
	for _, ref := range refs {
		t.Run(ref, func(t *testing.T) {
			directErr := notFound("Task not found")
			store := &fakeStore{directErr: directErr}
			r := New(store, ghPatterns(), "9001")

			_, err := r.Resolve(context.Background(), ref, ResolveOptions{})
			require.Error(t, err)
			assert.Equal(t, []Strategy{StrategyDirect}, store.strategies())

			var re *ResolutionError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, KindNotFound, re.Kind)
			assert.Equal(t, StrategyDirect, re.Strategy)
			assert.Equal(t, http.StatusNotFound, re.StatusCode)
			assert.ErrorIs(t, err, directErr)
		})
	}
}

func TestResolve_PlainIDUpstreamFailure(t *testing.T) {
	authErr := &clickup.APIError{StatusCode: http.StatusUnauthorized, Kind: clickup.KindUnauthorized, Message: "Token invalid"}
	store := &fakeStore{directErr: authErr}
	r := New(store, nil, "")

	_, err := r.Resolve(context.Background(), "86abc", ResolveOptions{})

	var re *ResolutionError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, KindUpstream, re.Kind)
	assert.Equal(t, http.StatusUnauthorized, re.StatusCode)
	assert.False(t, IsNotFound(err))
}

func TestResolve_KnownPrefixTriesCustomIDInScope(t *testing.T) {
	store := &fakeStore{
		directErr: notFound("Task not found"),
		custom:    &clickup.Task{ID: "86real", CustomID: "GH-3761"},
	}
	r := New(store, ghPatterns(), "9001")

	task, err := r.Resolve(context.Background(), "GH-3761", ResolveOptions{IncludeSubtasks: true})
	require.NoError(t, err)
	assert.Equal(t, "86real", task.ID)
	assert.Equal(t, []call{
		{Strategy: StrategyDirect, ID: "GH-3761", Opts: FetchOptions{IncludeSubtasks: true}},
		{Strategy: StrategyCustomID, ID: "GH-3761", Opts: FetchOptions{IncludeSubtasks: true, ScopeID: "9001"}},
	}, store.calls)
}

func TestResolve_DashWithoutKnownPrefixStillTriesCustomID(t *testing.T) {
	store := &fakeStore{
		directErr: notFound("Task not found"),
		custom:    &clickup.Task{ID: "86real", CustomID: "JIRA-1"},
	}
	r := New(store, ghPatterns(), "9001")

	task, err := r.Resolve(context.Background(), "JIRA-1", ResolveOptions{})
	require.NoError(t, err)
	assert.Equal(t, "86real", task.ID)
	assert.Equal(t, []Strategy{StrategyDirect, StrategyCustomID}, store.strategies())
}

func TestResolve_SearchPrefersExactCustomID(t *testing.T) {
	store := &fakeStore{
		directErr: notFound("direct"),
		customErr: notFound("custom"),
		search: []clickup.Task{
			{ID: "x1", CustomID: "gh-123"},
			{ID: "x2", CustomID: "other"},
		},
	}
	r := New(store, ghPatterns(), "9001")

	task, err := r.Resolve(context.Background(), "gh-123", ResolveOptions{})
	require.NoError(t, err)
	assert.Equal(t, "x1", task.ID)
	assert.Equal(t, []Strategy{StrategyDirect, StrategyCustomID, StrategySearch}, store.strategies())
	assert.Equal(t, "gh-123", store.calls[2].ID)
}

func TestResolve_SearchExactMatchNotFirst(t *testing.T) {
	store := &fakeStore{
		directErr: notFound("direct"),
		customErr: notFound("custom"),
		search: []clickup.Task{
			{ID: "first", CustomID: "GH-1234"},
			{ID: "exact", CustomID: "GH-123"},
		},
	}
	r := New(store, ghPatterns(), "9001")

	task, err := r.Resolve(context.Background(), "GH-123", ResolveOptions{})
	require.NoError(t, err)
	assert.Equal(t, "exact", task.ID)
}

func TestResolve_SearchExactMatchIsCaseSensitive(t *testing.T) {
	store := &fakeStore{
		directErr: notFound("direct"),
		customErr: notFound("custom"),
		search: []clickup.Task{
			{ID: "first", CustomID: "other"},
			{ID: "upper", CustomID: "GH-123"},
		},
	}
	r := New(store, ghPatterns(), "9001")

	task, err := r.Resolve(context.Background(), "gh-123", ResolveOptions{})
	require.NoError(t, err)
	assert.Equal(t, "first", task.ID)
}

func TestResolve_SearchFallsBackToFirstResult(t *testing.T) {
	store := &fakeStore{
		directErr: notFound("direct"),
		customErr: notFound("custom"),
		search:    []clickup.Task{{ID: "a"}, {ID: "b"}},
	}
	r := New(store, ghPatterns(), "9001")

	task, err := r.Resolve(context.Background(), "gh-9", ResolveOptions{})
	require.NoError(t, err)
	assert.Equal(t, "a", task.ID)
}

func TestResolve_StrictSearchReportsAmbiguity(t *testing.T) {
	store := &fakeStore{
		directErr: notFound("direct"),
		customErr: notFound("custom"),
		search:    []clickup.Task{{ID: "a"}, {ID: "b"}},
	}
	r := New(store, ghPatterns(), "9001", WithStrictSearch(true))

	_, err := r.Resolve(context.Background(), "gh-9", ResolveOptions{})
	require.Error(t, err)
	assert.True(t, IsAmbiguous(err))

	var re *ResolutionError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, StrategySearch, re.Strategy)
	assert.Len(t, re.Attempts, 3)
}

func TestResolve_StrictSearchAcceptsSingleResult(t *testing.T) {
	store := &fakeStore{
		directErr: notFound("direct"),
		customErr: notFound("custom"),
		search:    []clickup.Task{{ID: "only"}},
	}
	r := New(store, ghPatterns(), "9001", WithStrictSearch(true))

	task, err := r.Resolve(context.Background(), "gh-9", ResolveOptions{})
	require.NoError(t, err)
	assert.Equal(t, "only", task.ID)
}

func TestResolve_EmptySearchSurfacesCustomIDError(t *testing.T) {
	directErr := notFound("direct")
	customErr := notFound("custom")
	store := &fakeStore{directErr: directErr, customErr: customErr}
	r := New(store, ghPatterns(), "9001")

	_, err := r.Resolve(context.Background(), "gh-123", ResolveOptions{})
	require.Error(t, err)

	var re *ResolutionError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, KindNotFound, re.Kind)
	assert.Equal(t, StrategyCustomID, re.Strategy)
	assert.ErrorIs(t, err, customErr)
	assert.NotErrorIs(t, err, directErr)
}

func TestResolve_EmptySearchWithUnknownPrefixSurfacesDirectError(t *testing.T) {
	directErr := notFound("direct")
	store := &fakeStore{directErr: directErr, customErr: notFound("custom")}
	r := New(store, ghPatterns(), "9001")

	_, err := r.Resolve(context.Background(), "abc-123", ResolveOptions{})

	var re *ResolutionError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, KindNotFound, re.Kind)
	assert.Equal(t, StrategyDirect, re.Strategy)
	assert.ErrorIs(t, err, directErr)
}

func TestResolve_EmptySearchIsNotFoundEvenAfterUpstreamLookups(t *testing.T) {
	forbidden := &clickup.APIError{StatusCode: http.StatusForbidden, Kind: clickup.KindForbidden, Message: "no access"}
	store := &fakeStore{directErr: forbidden, customErr: forbidden}
	r := New(store, ghPatterns(), "9001")

	_, err := r.Resolve(context.Background(), "gh-1", ResolveOptions{})
	assert.True(t, IsNotFound(err))

	var re *ResolutionError
	require.ErrorAs(t, err, &re)
	assert.Zero(t, re.StatusCode)
	assert.ErrorIs(t, err, forbidden)
}

func TestResolve_SearchFailureKeepsLookupError(t *testing.T) {
	customErr := &clickup.APIError{StatusCode: http.StatusTooManyRequests, Kind: clickup.KindRateLimited, Message: "slow down"}
	store := &fakeStore{
		directErr: notFound("direct"),
		customErr: customErr,
		searchErr: errors.New("search down"),
	}
	r := New(store, ghPatterns(), "9001")

	_, err := r.Resolve(context.Background(), "gh-1", ResolveOptions{})

	var re *ResolutionError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, KindUpstream, re.Kind)
	assert.Equal(t, http.StatusTooManyRequests, re.StatusCode)
	assert.ErrorIs(t, err, customErr)
}

func TestResolve_EmptyReferenceMakesNoCalls(t *testing.T) {
	store := &fakeStore{}
	r := New(store, ghPatterns(), "9001")

	_, err := r.Resolve(context.Background(), "   ", ResolveOptions{})
	assert.True(t, IsNotFound(err))
	assert.Empty(t, store.calls)
}

func TestResolve_CancelledContextStopsChain(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := &fakeStore{directErr: context.Canceled}
	r := New(store, ghPatterns(), "9001")

	_, err := r.Resolve(ctx, "gh-1", ResolveOptions{})

	var re *ResolutionError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, KindUpstream, re.Kind)
	assert.Equal(t, []Strategy{StrategyDirect}, store.strategies())
}

func TestSelectError(t *testing.T) {
	directErr := notFound("direct")
	customErr := &clickup.APIError{StatusCode: http.StatusBadGateway, Kind: clickup.KindServer, Message: "bad gateway"}

	tests := []struct {
		name         string
		parsed       ParsedReference
		attempts     []Attempt
		wantStrategy Strategy
		wantKind     ErrorKind
		wantStatus   int
	}{
		{
			name:         "direct only",
			parsed:       ParsedReference{CandidateID: "abc"},
			attempts:     []Attempt{{Strategy: StrategyDirect, Err: directErr}},
			wantStrategy: StrategyDirect,
			wantKind:     KindNotFound,
			wantStatus:   http.StatusNotFound,
		},
		{
			name:   "known prefix prefers custom",
			parsed: ParsedReference{CandidateID: "gh-1", CustomPrefix: "gh"},
			attempts: []Attempt{
				{Strategy: StrategyDirect, Err: directErr},
				{Strategy: StrategyCustomID, Err: customErr},
			},
			wantStrategy: StrategyCustomID,
			wantKind:     KindUpstream,
			wantStatus:   http.StatusBadGateway,
		},
		{
			name:   "unknown prefix prefers direct",
			parsed: ParsedReference{CandidateID: "x-1"},
			attempts: []Attempt{
				{Strategy: StrategyDirect, Err: directErr},
				{Strategy: StrategyCustomID, Err: customErr},
			},
			wantStrategy: StrategyDirect,
			wantKind:     KindNotFound,
			wantStatus:   http.StatusNotFound,
		},
		{
			name:   "empty search forces not found",
			parsed: ParsedReference{CandidateID: "gh-1", CustomPrefix: "gh"},
			attempts: []Attempt{
				{Strategy: StrategyDirect, Err: directErr},
				{Strategy: StrategyCustomID, Err: customErr},
				{Strategy: StrategySearch, Err: errNoMatches},
			},
			wantStrategy: StrategyCustomID,
			wantKind:     KindNotFound,
		},
		{
			name:   "ambiguous search wins",
			parsed: ParsedReference{CandidateID: "gh-1", CustomPrefix: "gh"},
			attempts: []Attempt{
				{Strategy: StrategyDirect, Err: directErr},
				{Strategy: StrategyCustomID, Err: customErr},
				{Strategy: StrategySearch, Err: &ambiguousError{query: "gh-1", count: 2}, Results: 2},
			},
			wantStrategy: StrategySearch,
			wantKind:     KindAmbiguous,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := selectError("ref", tt.parsed, tt.attempts)
			assert.Equal(t, tt.wantStrategy, got.Strategy)
			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Equal(t, tt.wantStatus, got.StatusCode)
			assert.Equal(t, tt.attempts, got.Attempts)
		})
	}
}

func TestResolutionError_Messages(t *testing.T) {
	err := &ResolutionError{Reference: "gh-1", Kind: KindNotFound}
	assert.Equal(t, `task "gh-1" not found`, err.Error())

	err = &ResolutionError{Reference: "gh-1", Kind: KindUpstream, Err: errors.New("boom")}
	assert.Equal(t, `failed to resolve task "gh-1": boom`, err.Error())
}

// TestClientStore exercises the whole chain against a fake ClickUp API.
func TestClientStore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/v2/task/GH-3761" && r.URL.Query().Get("custom_task_ids") == "true":
			assert.Equal(t, "9001", r.URL.Query().Get("team_id"))
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "86real", "custom_id": "GH-3761"})
		case r.URL.Path == "/v2/task/GH-3761":
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{"err": "Team not authorized", "ECODE": "ITEM_015"})
		default:
			t.Errorf("unexpected request %s", r.URL)
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	client, err := clickup.NewClient("pk_test",
		clickup.WithBaseURL(srv.URL),
		clickup.WithHTTPClient(srv.Client()),
		clickup.WithRateLimit(0),
		clickup.WithLogger(logging.DiscardLogger()),
	)
	require.NoError(t, err)

	r := New(NewClientStore(client), ghPatterns(), "9001")
	task, err := r.Resolve(context.Background(), "https://app.clickup.com/t/3647378/GH-3761", ResolveOptions{})
	require.NoError(t, err)
	assert.Equal(t, "86real", task.ID)
}
