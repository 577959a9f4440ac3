package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func TestProfileSubscriberDeliversSlug(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	srv := pstest.NewServer()
	defer srv.Close()

	client, err := pubsub.NewClient(ctx, "test-project",
		option.WithEndpoint(srv.Addr),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	if err != nil {
		t.Fatalf("pubsub.NewClient: %v", err)
	}
	defer func() {
		_ = client.Close()
	}()

	topic, err := client.CreateTopic(ctx, "profile-updates")
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}
	sub, err := client.CreateSubscription(ctx, "profile-updates-site", pubsub.SubscriptionConfig{Topic: topic})
	if err != nil {
		t.Fatalf("CreateSubscription: %v", err)
	}

	subscriber, err := NewProfileSubscriber(sub, zap.NewNop())
	if err != nil {
		t.Fatalf("NewProfileSubscriber: %v", err)
	}

	got := make(chan ProfileChanged, 1)
	runCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() {
		done <- subscriber.Run(runCtx, func(_ context.Context, event ProfileChanged) error {
			got <- event
			return nil
		})
	}()

	result := topic.Publish(ctx, &pubsub.Message{
		Data:       []byte(`{"status":"approved"}`),
		Attributes: map[string]string{AttributeSlug: "Kashi-Sweets"},
	})
	if _, err := result.Get(ctx); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case event := <-got:
		if event.Slug != "kashi-sweets" || event.Status != "approved" {
			t.Fatalf("unexpected event %+v", event)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}

	stop()
	if err := <-done; err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	topic.Stop()
}

type fakeReceiver struct {
	messages []*pubsub.Message
}

func (f *fakeReceiver) Receive(ctx context.Context, fn func(context.Context, *pubsub.Message)) error {
	for _, msg := range f.messages {
		fn(ctx, msg)
	}
	return nil
}

func TestProfileSubscriberSkipsInvalidSlugs(t *testing.T) {
	recv := &fakeReceiver{messages: []*pubsub.Message{
		{ID: "1", Data: []byte(`not json`)},
		{ID: "2", Attributes: map[string]string{AttributeSlug: "x"}},
		{ID: "3", Data: []byte(`{"slug":"ganga-tea"}`)},
	}}
	subscriber := &ProfileSubscriber{sub: recv, logger: zap.NewNop()}

	var slugs []string
	err := subscriber.Run(context.Background(), func(_ context.Context, event ProfileChanged) error {
		slugs = append(slugs, event.Slug)
		return errors.New("cache offline")
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(slugs) != 1 || slugs[0] != "ganga-tea" {
		t.Fatalf("unexpected slugs %v", slugs)
	}
}
