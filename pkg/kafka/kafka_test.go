package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func (w *fakeWriter) written() []kafka.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]kafka.Message(nil), w.msgs...)
}

// fakeReader yields queued messages and then blocks until ctx is done.
type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []kafka.Message
	closed    int
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	r.committed = append(r.committed, msgs...)
	r.mu.Unlock()
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	r.closed++
	r.mu.Unlock()
	return nil
}

func (r *fakeReader) commitCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.committed)
}

func mustEventMessage(t *testing.T, topic string) kafka.Message {
	t.Helper()
	evt, err := NewEvent("payment.recorded", "pay-1", "payment", "shopper", map[string]string{"email": "a@b.c"})
	if err != nil {
		t.Fatalf("NewEvent() error: %v", err)
	}
	data, err := evt.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	return kafka.Message{Topic: topic, Value: data, Offset: 7}
}

func newTestConsumer(reader messageReader, handler Handler) *Consumer {
	return &Consumer{
		reader:  reader,
		topic:   "shopper.payment.recorded",
		group:   "test-group",
		handler: handler,
		logger:  testLogger(),
		backoff: time.Millisecond,
	}
}

// runUntilCommitted runs c.Start until want commits have happened.
func runUntilCommitted(t *testing.T, c *Consumer, r *fakeReader, want int) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for r.commitCount() < want {
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("timed out waiting for %d commits, got %d", want, r.commitCount())
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Start() returned error: %v", err)
	}
}

func TestTopic(t *testing.T) {
	if got := Topic("payment", "recorded"); got != "shopper.payment.recorded" {
		t.Errorf("Topic() = %q", got)
	}
	if got := DLQTopic("shopper.review.created"); got != "shopper.dlq.shopper.review.created" {
		t.Errorf("DLQTopic() = %q", got)
	}
}

func TestNewEvent_Fields(t *testing.T) {
	evt, err := NewEvent("review.created", "prod-1", "product", "shopper", map[string]int{"rating": 4})
	if err != nil {
		t.Fatalf("NewEvent() error: %v", err)
	}
	if evt.EventID == "" {
		t.Error("expected generated event id")
	}
	if evt.Version != 1 || evt.AggregateType != "product" || evt.Source != "shopper" {
		t.Errorf("unexpected envelope: %+v", evt)
	}

	var payload map[string]int
	if err := evt.UnmarshalData(&payload); err != nil {
		t.Fatalf("UnmarshalData() error: %v", err)
	}
	if payload["rating"] != 4 {
		t.Errorf("rating = %d, want 4", payload["rating"])
	}
}

func TestNewEvent_UnmarshalablePayload(t *testing.T) {
	if _, err := NewEvent("x", "id", "t", "s", make(chan int)); err == nil {
		t.Fatal("expected error for channel payload")
	}
}

func TestUnmarshalEvent_RejectsMissingType(t *testing.T) {
	if _, err := UnmarshalEvent([]byte(`{"event_id":"1"}`)); err == nil {
		t.Fatal("expected error for event without type")
	}
	if _, err := UnmarshalEvent([]byte(`not json`)); err == nil {
		t.Fatal("expected error for invalid json")
	}
}

func TestProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w, logger: testLogger()}

	evt, _ := NewEvent("payment.recorded", "pay-9", "payment", "shopper", struct{}{})
	evt.WithCorrelationID("corr-1")

	if err := p.Publish(context.Background(), "shopper.payment.recorded", evt); err != nil {
		t.Fatalf("Publish() error: %v", err)
	}

	msgs := w.written()
	if len(msgs) != 1 {
		t.Fatalf("wrote %d messages, want 1", len(msgs))
	}
	if string(msgs[0].Key) != "pay-9" {
		t.Errorf("key = %q, want aggregate id", msgs[0].Key)
	}
	var sawCorrelation bool
	for _, h := range msgs[0].Headers {
		if h.Key == "correlation_id" && string(h.Value) == "corr-1" {
			sawCorrelation = true
		}
	}
	if !sawCorrelation {
		t.Error("correlation_id header missing")
	}
}

func TestProducer_PublishError(t *testing.T) {
	p := &Producer{writer: &fakeWriter{err: errors.New("broker down")}, logger: testLogger()}
	evt, _ := NewEvent("payment.recorded", "pay-1", "payment", "shopper", struct{}{})

	if err := p.Publish(context.Background(), "t", evt); err == nil {
		t.Fatal("expected publish error")
	}
}

func TestPingBrokers_NoBrokers(t *testing.T) {
	if err := PingBrokers(context.Background(), nil); err == nil {
		t.Fatal("expected error with no brokers")
	}
}

func TestDLQProducer_AddsOriginHeaders(t *testing.T) {
	w := &fakeWriter{}
	d := &DLQProducer{writer: w, logger: testLogger()}

	orig := kafka.Message{Topic: "shopper.review.created", Partition: 2, Offset: 42, Value: []byte("{}")}
	if err := d.Publish(context.Background(), orig, errors.New("boom"), "ratings"); err != nil {
		t.Fatalf("Publish() error: %v", err)
	}

	msgs := w.written()
	if len(msgs) != 1 {
		t.Fatalf("wrote %d messages, want 1", len(msgs))
	}
	if msgs[0].Topic != "shopper.dlq.shopper.review.created" {
		t.Errorf("topic = %q", msgs[0].Topic)
	}
	headers := map[string]string{}
	for _, h := range msgs[0].Headers {
		headers[h.Key] = string(h.Value)
	}
	want := map[string]string{
		"dlq.original_topic":     "shopper.review.created",
		"dlq.original_partition": "2",
		"dlq.original_offset":    "42",
		"dlq.consumer_group":     "ratings",
		"dlq.error":              "boom",
	}
	for k, v := range want {
		if headers[k] != v {
			t.Errorf("header %s = %q, want %q", k, headers[k], v)
		}
	}
}

func TestConsumer_SuccessCommits(t *testing.T) {
	r := &fakeReader{queue: []kafka.Message{mustEventMessage(t, "shopper.payment.recorded")}}
	var calls int
	var mu sync.Mutex
	c := newTestConsumer(r, func(_ context.Context, evt *Event) error {
		mu.Lock()
		calls++
		mu.Unlock()
		return nil
	})

	runUntilCommitted(t, c, r, 1)

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("handler calls = %d, want 1", calls)
	}
	if r.closed != 1 {
		t.Errorf("reader closed %d times, want 1", r.closed)
	}
}

func TestConsumer_ExhaustedRetriesGoToDLQ(t *testing.T) {
	r := &fakeReader{queue: []kafka.Message{mustEventMessage(t, "shopper.payment.recorded")}}
	w := &fakeWriter{}
	var calls int
	var mu sync.Mutex
	c := newTestConsumer(r, func(context.Context, *Event) error {
		mu.Lock()
		calls++
		mu.Unlock()
		return errors.New("downstream unavailable")
	}).WithDLQ(&DLQProducer{writer: w, logger: testLogger()})

	runUntilCommitted(t, c, r, 1)

	mu.Lock()
	defer mu.Unlock()
	if calls != maxHandlerRetries {
		t.Errorf("handler calls = %d, want %d", calls, maxHandlerRetries)
	}
	if got := len(w.written()); got != 1 {
		t.Errorf("DLQ messages = %d, want 1", got)
	}
}

func TestConsumer_PoisonMessageSkipped(t *testing.T) {
	r := &fakeReader{queue: []kafka.Message{{Topic: "t", Value: []byte("garbage")}}}
	c := newTestConsumer(r, func(context.Context, *Event) error {
		t.Error("handler must not run for undecodable messages")
		return nil
	})

	runUntilCommitted(t, c, r, 1)
}

func TestMemoryIdempotencyStore_Expiry(t *testing.T) {
	store := NewMemoryIdempotencyStore(time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	_ = store.Add(ctx, "evt-1")
	if ok, _ := store.Contains(ctx, "evt-1"); !ok {
		t.Fatal("expected evt-1 to be present")
	}

	now = now.Add(2 * time.Minute)
	if ok, _ := store.Contains(ctx, "evt-1"); ok {
		t.Fatal("expected evt-1 to have expired")
	}
}

type failingStore struct{}

func (failingStore) Contains(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}
func (failingStore) Add(context.Context, string) error { return errors.New("redis down") }

func TestIdempotentHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate skipped", func(t *testing.T) {
		store := NewMemoryIdempotencyStore(time.Minute)
		var calls int
		h := IdempotentHandler(store, func(context.Context, *Event) error { calls++; return nil }, testLogger())

		evt := &Event{EventID: "e-1", EventType: "review.created"}
		_ = h(ctx, evt)
		_ = h(ctx, evt)
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("failure not recorded", func(t *testing.T) {
		store := NewMemoryIdempotencyStore(time.Minute)
		var calls int
		h := IdempotentHandler(store, func(context.Context, *Event) error {
			calls++
			if calls == 1 {
				return errors.New("transient")
			}
			return nil
		}, testLogger())

		evt := &Event{EventID: "e-2", EventType: "review.created"}
		if err := h(ctx, evt); err == nil {
			t.Fatal("expected first call to fail")
		}
		if err := h(ctx, evt); err != nil {
			t.Fatalf("retry failed: %v", err)
		}
		if calls != 2 {
			t.Errorf("calls = %d, want 2", calls)
		}
	})

	t.Run("store errors do not block", func(t *testing.T) {
		var calls int
		h := IdempotentHandler(failingStore{}, func(context.Context, *Event) error { calls++; return nil }, testLogger())
		if err := h(ctx, &Event{EventID: "e-3"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})
}
