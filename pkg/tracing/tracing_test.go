package tracing

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

func TestKafkaHeaderCarrier_SetOverwrites(t *testing.T) {
	headers := []kafka.Header{{Key: "traceparent", Value: []byte("old")}}
	carrier := KafkaHeaderCarrier{Headers: &headers}

	carrier.Set("traceparent", "new")
	carrier.Set("baggage", "k=v")

	assert.Len(t, headers, 2)
	assert.Equal(t, "new", carrier.Get("traceparent"))
	assert.Equal(t, "k=v", carrier.Get("baggage"))
	assert.Equal(t, "", carrier.Get("missing"))
	assert.ElementsMatch(t, []string{"traceparent", "baggage"}, carrier.Keys())
}

func TestInjectExtractKafka_RoundTripsSpanContext(t *testing.T) {
	shutdown, err := Init("tracing-test", "")
	require.NoError(t, err)
	defer shutdown(context.Background())

	ctx, span := otel.Tracer("tracing-test").Start(context.Background(), "publish")
	defer span.End()

	msg := kafka.Message{Value: []byte("{}")}
	InjectKafka(ctx, &msg)
	require.NotEmpty(t, msg.Headers)

	extracted := ExtractKafka(context.Background(), &msg)
	got := trace.SpanContextFromContext(extracted)

	assert.True(t, got.IsValid())
	assert.Equal(t, span.SpanContext().TraceID(), got.TraceID())
}
