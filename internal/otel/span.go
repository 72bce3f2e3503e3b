// Package otel holds tracing helpers shared by the block store packages.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys used on spans
const (
	AttrProvider     = attribute.Key("source.provider")
	AttrOrganization = attribute.Key("source.organization")
	AttrRepository   = attribute.Key("source.repository")
	AttrSourceKey    = attribute.Key("source.key")
	AttrCommitSHA    = attribute.Key("source.commit_sha")
	AttrBlockCount   = attribute.Key("source.block_count")
	AttrOperationID  = attribute.Key("operation.id")
	AttrHTTPStatus   = attribute.Key("provider.http_status")
)

// StartSpan starts a span on tracer, or returns the span already in ctx when
// tracer is nil.
func StartSpan(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

// RecordError marks span as failed. The status description stays generic;
// the error itself goes into a span event.
func RecordError(span trace.Span, err error) {
	if err != nil && span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "operation failed")
	}
}
