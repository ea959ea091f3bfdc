package pubsub

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Instruments are registered against the global meter provider; a
// service that wants them exported configures the provider itself.
var (
	metricsOnce     sync.Once
	publishedMsgs   metric.Int64Counter
	publishedBatchs metric.Int64Counter
	publishErrors   metric.Int64Counter
	batchSizeHist   metric.Int64Histogram
	pulledMsgs      metric.Int64Counter
	ackedMsgs       metric.Int64Counter
	nackedMsgs      metric.Int64Counter
)

func instruments() {
	metricsOnce.Do(func() {
		meter := otel.Meter("github.com/infigaming-com/go-pubsub")
		publishedMsgs, _ = meter.Int64Counter("pubsub.publisher.messages",
			metric.WithDescription("Messages successfully published"))
		publishedBatchs, _ = meter.Int64Counter("pubsub.publisher.batches",
			metric.WithDescription("Batched publish calls issued"))
		publishErrors, _ = meter.Int64Counter("pubsub.publisher.errors",
			metric.WithDescription("Publish calls that failed, counted per message"))
		batchSizeHist, _ = meter.Int64Histogram("pubsub.publisher.batch_size",
			metric.WithDescription("Messages per batched publish call"))
		pulledMsgs, _ = meter.Int64Counter("pubsub.subscriber.pulled",
			metric.WithDescription("Messages received from pull calls"))
		ackedMsgs, _ = meter.Int64Counter("pubsub.subscriber.acked",
			metric.WithDescription("Messages acknowledged"))
		nackedMsgs, _ = meter.Int64Counter("pubsub.subscriber.nacked",
			metric.WithDescription("Messages nacked or expired back to the service"))
	})
}

func recordBatchSent(ctx context.Context, topic string, count int) {
	instruments()
	attrs := metric.WithAttributes(attribute.String("topic", topic))
	publishedBatchs.Add(ctx, 1, attrs)
	batchSizeHist.Record(ctx, int64(count), attrs)
}

func recordPublished(ctx context.Context, topic string, count int, err error) {
	instruments()
	attrs := metric.WithAttributes(attribute.String("topic", topic))
	if err != nil {
		publishErrors.Add(ctx, int64(count), attrs)
		return
	}
	publishedMsgs.Add(ctx, int64(count), attrs)
}

func recordPulled(ctx context.Context, subscription string, count int) {
	instruments()
	pulledMsgs.Add(ctx, int64(count),
		metric.WithAttributes(attribute.String("subscription", subscription)))
}

func recordSettled(ctx context.Context, subscription string, acked bool) {
	instruments()
	attrs := metric.WithAttributes(attribute.String("subscription", subscription))
	if acked {
		ackedMsgs.Add(ctx, 1, attrs)
		return
	}
	nackedMsgs.Add(ctx, 1, attrs)
}
