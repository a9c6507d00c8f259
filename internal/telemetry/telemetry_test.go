package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStartSpanReturnsUsableContext(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "test-span")
	defer span.End()
	assert.NotNil(t, ctx)
}

func TestRecordersDoNotPanicWithoutSDK(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordClassAdded(ctx)
		RecordUnion(ctx, true)
		RecordUnion(ctx, false)
		RecordMatches(ctx, 3)
	})
}
