// Package telemetry wraps the global OpenTelemetry tracer/meter
// providers for the handful of operations worth observing from outside
// the engine: CLI command spans and saturation-loop counters. It is a
// no-op until a real SDK is registered with otel.SetTracerProvider /
// otel.SetMeterProvider, so importing it costs nothing in tests.
//
// The engine core itself (egraph, pattern) stays free of context.Context
// and telemetry calls — per spec §5 it is a pure, single-threaded,
// in-memory algorithm, and the teacher's own codebase only threads ctx
// through I/O-facing operations (streaming, not plain CRUD); see
// DESIGN.md.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/orneryd/slotted-egraph"

var (
	tracer = otel.Tracer(instrumentationName)
	meter  = otel.Meter(instrumentationName)

	classesAdded, _ = meter.Int64Counter(
		"egraph.classes_added",
		metric.WithDescription("number of new e-classes created by Add"),
	)
	unionsApplied, _ = meter.Int64Counter(
		"egraph.unions_applied",
		metric.WithDescription("number of Union calls that changed the graph"),
	)
	matchesFound, _ = meter.Int64Counter(
		"pattern.matches_found",
		metric.WithDescription("number of e-matching matches found per search"),
	)
)

// StartSpan begins a span named name, returning the child context to
// pass down to whatever it wraps.
func StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name)
}

// RecordClassAdded counts one freshly minted e-class.
func RecordClassAdded(ctx context.Context) {
	classesAdded.Add(ctx, 1)
}

// RecordUnion counts a Union call, only when it actually changed the
// graph (a same-root no-op union is not counted).
func RecordUnion(ctx context.Context, changed bool) {
	if changed {
		unionsApplied.Add(ctx, 1)
	}
}

// RecordMatches counts how many matches a single search pass produced.
func RecordMatches(ctx context.Context, n int) {
	matchesFound.Add(ctx, int64(n))
}
