package main

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/angelmondragon/orderhub-backend/pkg/logger"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

type fakeRunner struct {
	name string
	err  error
	ran  chan struct{}
}

func (f *fakeRunner) Name() string { return f.name }

func (f *fakeRunner) Run(ctx context.Context, _ *gcppubsub.Subscriber) error {
	close(f.ran)
	if f.err != nil {
		return f.err
	}
	<-ctx.Done()
	return ctx.Err()
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "worker-test", Output: io.Discard})
}

func newRunner(name string, err error) *fakeRunner {
	return &fakeRunner{name: name, err: err, ran: make(chan struct{})}
}

func TestNewServiceRequiresBindings(t *testing.T) {
	_, err := NewService(ServiceParams{
		Logger: testLogger(),
		DB:     fakePinger{},
		Redis:  fakePinger{},
		PubSub: fakePinger{},
	})
	if err == nil {
		t.Fatal("expected error without bindings")
	}
	_, err = NewService(ServiceParams{
		Logger:   testLogger(),
		DB:       fakePinger{},
		Redis:    fakePinger{},
		PubSub:   fakePinger{},
		Bindings: []Binding{{Consumer: newRunner("email", nil)}},
	})
	if err == nil {
		t.Fatal("expected error for a binding without subscription")
	}
}

func TestRunStopsWhenReadinessFails(t *testing.T) {
	runner := newRunner("email", nil)
	svc := &Service{
		logg:     testLogger(),
		db:       fakePinger{},
		redis:    fakePinger{err: errors.New("redis down")},
		pubsub:   fakePinger{},
		bindings: []Binding{{Consumer: runner, Subscription: &gcppubsub.Subscriber{}}},
	}
	if err := svc.Run(context.Background()); err == nil {
		t.Fatal("expected readiness error")
	}
	select {
	case <-runner.ran:
		t.Fatal("consumer must not start before dependencies are ready")
	default:
	}
}

func TestRunCancelsSiblingsOnConsumerFailure(t *testing.T) {
	healthy := newRunner("email", nil)
	broken := newRunner("catalog-import", errors.New("subscription gone"))
	svc := &Service{
		logg:   testLogger(),
		db:     fakePinger{},
		redis:  fakePinger{},
		pubsub: fakePinger{},
		bindings: []Binding{
			{Consumer: healthy, Subscription: &gcppubsub.Subscriber{}},
			{Consumer: broken, Subscription: &gcppubsub.Subscriber{}},
		},
	}

	done := make(chan error, 1)
	go func() { done <- svc.Run(context.Background()) }()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected consumer failure to surface")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after a consumer failed")
	}
	<-healthy.ran
}

func TestRunReturnsOnCancel(t *testing.T) {
	runner := newRunner("email", nil)
	svc := &Service{
		logg:     testLogger(),
		db:       fakePinger{},
		redis:    fakePinger{},
		pubsub:   fakePinger{},
		bindings: []Binding{{Consumer: runner, Subscription: &gcppubsub.Subscriber{}}},
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()
	<-runner.ran
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop on cancel")
	}
}
