// Package google implements pubsub.TransportStub over the Cloud
// Pub/Sub v1 gRPC surface.
package google

import (
	"context"
	"errors"
	"fmt"
	"time"

	pubsubapi "cloud.google.com/go/pubsub/apiv1"
	"cloud.google.com/go/pubsub/apiv1/pubsubpb"
	"github.com/samber/lo"
	"google.golang.org/api/option"

	pubsub "github.com/infigaming-com/go-pubsub"
)

type Config struct {
	CredentialsJSON []byte
	Endpoint        string
	UserAgent       string

	// Publisher and Subscriber, when both set, are used as-is and not
	// closed by the stub; otherwise clients are created from the
	// options above.
	Publisher  *pubsubapi.PublisherClient
	Subscriber *pubsubapi.SubscriberClient
}

type stub struct {
	pub  *pubsubapi.PublisherClient
	sub  *pubsubapi.SubscriberClient
	owns bool
}

func New(ctx context.Context, cfg Config) (pubsub.TransportStub, error) {
	if (cfg.Publisher == nil) != (cfg.Subscriber == nil) {
		return nil, errors.New("googlepubsub: publisher and subscriber clients must be provided together")
	}
	if cfg.Publisher != nil {
		return &stub{pub: cfg.Publisher, sub: cfg.Subscriber}, nil
	}

	opts := make([]option.ClientOption, 0, 3)
	if len(cfg.CredentialsJSON) > 0 {
		opts = append(opts, option.WithCredentialsJSON(cfg.CredentialsJSON))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, option.WithUserAgent(cfg.UserAgent))
	}
	pub, err := pubsubapi.NewPublisherClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("googlepubsub: create publisher client: %w", err)
	}
	sub, err := pubsubapi.NewSubscriberClient(ctx, opts...)
	if err != nil {
		_ = pub.Close()
		return nil, fmt.Errorf("googlepubsub: create subscriber client: %w", err)
	}
	return &stub{pub: pub, sub: sub, owns: true}, nil
}

func (s *stub) PublishBatch(ctx context.Context, req *pubsub.PublishBatchRequest) (*pubsub.PublishBatchResponse, error) {
	resp, err := s.pub.Publish(ctx, &pubsubpb.PublishRequest{
		Topic: req.Topic,
		Messages: lo.Map(req.Messages, func(m *pubsub.Message, _ int) *pubsubpb.PubsubMessage {
			return &pubsubpb.PubsubMessage{
				Data:        m.Data,
				Attributes:  m.Attributes,
				OrderingKey: m.OrderingKey,
			}
		}),
	})
	if err != nil {
		return nil, err
	}
	return &pubsub.PublishBatchResponse{MessageIDs: resp.GetMessageIds()}, nil
}

func (s *stub) Pull(ctx context.Context, req *pubsub.PullRequest) ([]*pubsub.PulledMessage, error) {
	resp, err := s.sub.Pull(ctx, &pubsubpb.PullRequest{
		Subscription: req.Subscription,
		MaxMessages:  int32(req.MaxMessages),
	})
	if err != nil {
		return nil, err
	}
	return lo.Map(resp.GetReceivedMessages(), func(rm *pubsubpb.ReceivedMessage, _ int) *pubsub.PulledMessage {
		pm := &pubsub.PulledMessage{
			AckID:           rm.GetAckId(),
			DeliveryAttempt: int(rm.GetDeliveryAttempt()),
		}
		if msg := rm.GetMessage(); msg != nil {
			pm.ID = msg.GetMessageId()
			pm.Data = msg.GetData()
			pm.Attributes = msg.GetAttributes()
			pm.OrderingKey = msg.GetOrderingKey()
			if ts := msg.GetPublishTime(); ts != nil {
				pm.PublishTime = ts.AsTime()
			}
		}
		return pm
	}), nil
}

func (s *stub) Acknowledge(ctx context.Context, req *pubsub.AcknowledgeRequest) error {
	return s.sub.Acknowledge(ctx, &pubsubpb.AcknowledgeRequest{
		Subscription: req.Subscription,
		AckIds:       req.AckIDs,
	})
}

func (s *stub) ModifyAckDeadline(ctx context.Context, req *pubsub.ModifyAckDeadlineRequest) error {
	return s.sub.ModifyAckDeadline(ctx, &pubsubpb.ModifyAckDeadlineRequest{
		Subscription:       req.Subscription,
		AckIds:             req.AckIDs,
		AckDeadlineSeconds: int32(req.AckDeadline / time.Second),
	})
}

func (s *stub) Close(context.Context) error {
	if !s.owns {
		return nil
	}
	perr := s.pub.Close()
	serr := s.sub.Close()
	if perr != nil {
		return perr
	}
	return serr
}
