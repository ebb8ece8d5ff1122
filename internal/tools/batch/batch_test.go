package batch

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestParseStringOrArray(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		want    []string
		wantErr bool
	}{
		{name: "single string", input: "86abc123", want: []string{"86abc123"}},
		{name: "single string is trimmed", input: "  gh-42 ", want: []string{"gh-42"}},
		{name: "array of strings", input: []any{"86a", "gh-1", "DEV-7"}, want: []string{"86a", "gh-1", "DEV-7"}},
		{name: "typed string slice", input: []string{"86a", "86b"}, want: []string{"86a", "86b"}},
		{name: "nil input", input: nil, wantErr: true},
		{name: "empty string", input: "", wantErr: true},
		{name: "empty array", input: []any{}, wantErr: true},
		{name: "array with non-string", input: []any{"86a", 123}, wantErr: true},
		{name: "array with empty string", input: []any{"86a", " "}, wantErr: true},
		{name: "invalid type", input: 123, wantErr: true},
		{name: "JSON string array", input: `["86a", "gh-2", "86c"]`, want: []string{"86a", "gh-2", "86c"}},
		{name: "JSON string single element array", input: `["gh-2"]`, want: []string{"gh-2"}},
		{name: "JSON string empty array", input: `[]`, wantErr: true},
		{name: "invalid JSON string", input: `[invalid json`, want: []string{`[invalid json`}},
		{name: "string starting with bracket", input: `[bug] login fails`, want: []string{`[bug] login fails`}},
		{name: "comma is kept", input: "86a,86b", want: []string{"86a,86b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStringOrArray(tt.input, "task_ids")
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStringOrArray() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !stringSliceEqual(got, tt.want) {
				t.Errorf("ParseStringOrArray() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseList(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		want    []string
		wantErr bool
	}{
		{name: "comma separated", input: "86a, gh-2 ,86c", want: []string{"86a", "gh-2", "86c"}},
		{name: "trailing comma", input: "86a,", want: []string{"86a"}},
		{name: "only commas", input: ",,", wantErr: true},
		{name: "array elements are not split", input: []any{"a,b"}, want: []string{"a,b"}},
		{name: "JSON array", input: `["a","b"]`, want: []string{"a", "b"}},
		{name: "single", input: "86a", want: []string{"86a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseList(tt.input, "task_ids")
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseList() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !stringSliceEqual(got, tt.want) {
				t.Errorf("ParseList() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatResults(t *testing.T) {
	results := []Result{
		{ID: "86a", Status: StatusSuccess, Result: "updated"},
		{ID: "86b", Status: StatusSuccess, Result: "updated"},
		{ID: "gh-404", Status: StatusError, Error: `task "gh-404" not found`},
	}

	var br BatchResult
	if err := json.Unmarshal([]byte(FormatResults(results)), &br); err != nil {
		t.Fatalf("Failed to parse output JSON: %v", err)
	}

	if br.Total != 3 || br.Successful != 2 || br.Failed != 1 {
		t.Errorf("summary = %d/%d/%d, want 3/2/1", br.Total, br.Successful, br.Failed)
	}
	if len(br.Results) != 3 {
		t.Errorf("len(Results) = %d, want 3", len(br.Results))
	}
}

func TestProcessBatch(t *testing.T) {
	fn := func(_ context.Context, id string) (string, error) {
		if id == "86b" {
			return "", errors.New("failed to update task 86b")
		}
		return "updated " + id, nil
	}

	results := ProcessBatch(context.Background(), []string{"86a", "86b", "86c"}, fn)
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}

	want := []Result{
		{ID: "86a", Status: StatusSuccess, Result: "updated 86a"},
		{ID: "86b", Status: StatusError, Error: "failed to update task 86b"},
		{ID: "86c", Status: StatusSuccess, Result: "updated 86c"},
	}
	for i := range want {
		if results[i] != want[i] {
			t.Errorf("results[%d] = %+v, want %+v", i, results[i], want[i])
		}
	}
}

func TestProcessBatch_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	results := ProcessBatch(ctx, []string{"86a", "86b", "86c"}, func(context.Context, string) (string, error) {
		calls++
		cancel()
		return "ok", nil
	})

	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
	if results[0].Status != StatusSuccess {
		t.Errorf("first result = %+v, want success", results[0])
	}
	for _, r := range results[1:] {
		if r.Status != StatusError || r.Error != context.Canceled.Error() {
			t.Errorf("result after cancel = %+v, want cancelled error", r)
		}
	}
}

func TestNewResults(t *testing.T) {
	ok := NewSuccessResult("86a", "done")
	if ok.Status != StatusSuccess || ok.Result != "done" || ok.Error != "" {
		t.Errorf("NewSuccessResult() = %+v", ok)
	}

	failed := NewErrorResult("86a", errors.New("boom"))
	if failed.Status != StatusError || failed.Error != "boom" || failed.Result != "" {
		t.Errorf("NewErrorResult() = %+v", failed)
	}
}

func stringSliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
