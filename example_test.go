package pubsub_test

import (
	"context"
	"fmt"
	"time"

	pubsub "github.com/infigaming-com/go-pubsub"
	"github.com/infigaming-com/go-pubsub/driver/inmem"
	"github.com/infigaming-com/go-pubsub/scheduler"
)

func Example() {
	ctx := context.Background()

	transport := inmem.New()
	defer transport.Close(ctx)
	transport.CreateSubscription(
		"projects/test-project/topics/orders-topic",
		"projects/test-project/subscriptions/orders-sub",
	)

	sched, err := scheduler.New(8)
	if err != nil {
		panic(err)
	}
	defer sched.Shutdown(ctx)

	publisher := pubsub.NewPublisher(
		pubsub.NewTopic("test-project", "orders-topic"),
		pubsub.DefaultBatchingConfig(),
		transport, sched,
	)

	done := make(chan struct{})
	session := pubsub.NewSession(ctx,
		pubsub.NewSubscription("test-project", "orders-sub"),
		transport, sched,
		pubsub.HandlerFunc(func(_ context.Context, m *pubsub.ReceivedMessage) {
			fmt.Println("received", string(m.Data))
			m.Ack()
			close(done)
		}),
	)

	result := publisher.Publish(ctx, &pubsub.Message{Data: []byte("order-42")})
	if _, err := result.Get(ctx); err != nil {
		panic(err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		panic("timeout waiting for message")
	}

	if err := publisher.Stop(ctx); err != nil {
		panic(err)
	}
	session.Cancel()
	if err := session.Wait(ctx); err != nil {
		panic(err)
	}
	// Output: received order-42
}
