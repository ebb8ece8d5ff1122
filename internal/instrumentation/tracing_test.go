package instrumentation

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(previous) })
	return recorder
}

func TestSpanAttributeBuilder(t *testing.T) {
	attrs := NewSpanAttributeBuilder().
		WithTool("get_task").
		WithResource(ResourceTask, "86abc").
		WithWorkspace("9000").
		WithTaskRef("GH-12").
		WithReadOnly(true).
		Build()

	got := make(map[string]interface{})
	for _, attr := range attrs {
		got[string(attr.Key)] = attr.Value.AsInterface()
	}

	want := map[string]interface{}{
		SpanAttrTool:       "get_task",
		SpanAttrResource:   ResourceTask,
		SpanAttrResourceID: "86abc",
		SpanAttrWorkspace:  "9000",
		SpanAttrTaskRef:    "GH-12",
		SpanAttrReadOnly:   true,
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d attributes, got %d", len(want), len(got))
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %v, want %v", k, got[k], v)
		}
	}
}

func TestSpanAttributeBuilder_EmptyValues(t *testing.T) {
	attrs := NewSpanAttributeBuilder().
		WithTool("list_spaces").
		WithResource("", "").
		WithWorkspace("").
		WithTaskRef("").
		Build()

	if len(attrs) != 1 {
		t.Errorf("expected only the tool attribute, got %d", len(attrs))
	}
}

func TestSpanHelpers(t *testing.T) {
	recorder := withRecorder(t)
	ctx := context.Background()

	_, toolSpan := StartToolSpan(ctx, "get_task")
	SetSpanSuccess(toolSpan)
	toolSpan.End()

	_, apiSpan := StartAPISpan(ctx, ResourceTask, OperationGet)
	SetSpanError(apiSpan, errors.New("boom"))
	apiSpan.End()

	resolveCtx, resolveSpan := StartResolveSpan(ctx, "GH-12")
	AddSpanEvent(resolveSpan, "attempt")
	if GetTraceID(resolveCtx) == "" || GetSpanID(resolveCtx) == "" {
		t.Error("expected trace and span IDs inside a recording span")
	}
	resolveSpan.End()

	spans := recorder.Ended()
	if len(spans) != 3 {
		t.Fatalf("expected 3 spans, got %d", len(spans))
	}

	if spans[0].Name() != "tool.get_task" || spans[0].SpanKind() != trace.SpanKindServer {
		t.Errorf("unexpected tool span %q kind %v", spans[0].Name(), spans[0].SpanKind())
	}
	if spans[0].Status().Code != codes.Ok {
		t.Errorf("tool span status = %v, want Ok", spans[0].Status().Code)
	}
	if spans[1].Name() != "clickup.task.get" || spans[1].SpanKind() != trace.SpanKindClient {
		t.Errorf("unexpected api span %q kind %v", spans[1].Name(), spans[1].SpanKind())
	}
	if spans[1].Status().Code != codes.Error {
		t.Errorf("api span status = %v, want Error", spans[1].Status().Code)
	}
	if spans[2].Name() != "resolver.resolve" || len(spans[2].Events()) != 1 {
		t.Errorf("unexpected resolve span %q with %d events", spans[2].Name(), len(spans[2].Events()))
	}
}

func TestSetSpanError_Nil(t *testing.T) {
	recorder := withRecorder(t)
	_, span := StartSpan(context.Background(), "noop")
	SetSpanError(span, nil)
	span.End()

	if recorder.Ended()[0].Status().Code != codes.Unset {
		t.Error("nil error should leave status unset")
	}
}

func TestGetIDs_NoSpan(t *testing.T) {
	if id := GetTraceID(context.Background()); id != "" {
		t.Errorf("expected empty trace ID, got %q", id)
	}
	if id := GetSpanID(context.Background()); id != "" {
		t.Errorf("expected empty span ID, got %q", id)
	}
}
