package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"techbot/internal/app/domains/entity/etmessage"
	"techbot/internal/app/infra/mq/lmstfy"
	"techbot/internal/app/pkg/errorx"
	"techbot/internal/app/pkg/logger"
)

type fakeQueue struct {
	mu    sync.Mutex
	jobs  []*lmstfy.Job
	acked []string
}

func (q *fakeQueue) Consume(queue string, ttr, timeout time.Duration) (*lmstfy.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.jobs) == 0 {
		return nil, nil
	}
	job := q.jobs[0]
	q.jobs = q.jobs[1:]
	return job, nil
}

func (q *fakeQueue) Ack(queue, jobID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.acked = append(q.acked, jobID)
	return nil
}

type fakeSender struct {
	mu   sync.Mutex
	err  error
	sent []*etmessage.Outbound
}

func (s *fakeSender) Send(ctx context.Context, msg *etmessage.Outbound) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func job(t *testing.T, id string, msg *etmessage.Outbound) *lmstfy.Job {
	t.Helper()
	data, err := json.Marshal(lmstfy.OutboxMessage{TraceID: "trace-" + id, Message: msg, QueuedAt: time.Now()})
	if err != nil {
		t.Fatal(err)
	}
	return &lmstfy.Job{ID: id, Queue: "outbox", Data: data}
}

func newConsumer(q Queue, s Sender) *OutboxConsumer {
	return NewOutboxConsumer(q, s, Config{QueueName: "outbox", ErrorBackoff: time.Millisecond}, logger.NewNop())
}

func TestConsumeOneDelivers(t *testing.T) {
	q := &fakeQueue{jobs: []*lmstfy.Job{job(t, "j1", etmessage.NewText("chan", "919900", "hello"))}}
	s := &fakeSender{}
	c := newConsumer(q, s)

	if err := c.consumeOne(context.Background()); err != nil {
		t.Fatalf("consumeOne failed: %v", err)
	}
	if len(s.sent) != 1 || s.sent[0].Body != "hello" {
		t.Fatalf("unexpected sent %+v", s.sent)
	}
	if len(q.acked) != 1 || q.acked[0] != "j1" {
		t.Fatalf("unexpected acks %v", q.acked)
	}
}

func TestConsumeOneSendFailureLeavesJob(t *testing.T) {
	q := &fakeQueue{jobs: []*lmstfy.Job{job(t, "j1", etmessage.NewText("chan", "919900", "hello"))}}
	s := &fakeSender{err: errorx.Retriable(errorx.ErrTransportFailure, "graph api down")}
	c := newConsumer(q, s)

	if err := c.consumeOne(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if len(q.acked) != 0 {
		t.Fatalf("failed send must not be acked: %v", q.acked)
	}
}

func TestConsumeOneRejectedSendIsAcked(t *testing.T) {
	q := &fakeQueue{jobs: []*lmstfy.Job{job(t, "j1", etmessage.NewText("chan", "919900", "hello"))}}
	s := &fakeSender{err: errorx.NonRetriable(errorx.ErrTransportFailure, "invalid recipient").WithCode(400)}
	c := newConsumer(q, s)

	err := c.consumeOne(context.Background())
	if !errors.Is(err, errorx.ErrTransportFailure) {
		t.Fatalf("expected transport failure, got %v", err)
	}
	if len(q.acked) != 1 || q.acked[0] != "j1" {
		t.Fatalf("rejected send must be acked: %v", q.acked)
	}
}

func TestConsumeOneMalformedIsAcked(t *testing.T) {
	q := &fakeQueue{jobs: []*lmstfy.Job{{ID: "bad", Data: []byte(`{"message":null}`)}}}
	c := newConsumer(q, &fakeSender{})

	if err := c.consumeOne(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
	if len(q.acked) != 1 || q.acked[0] != "bad" {
		t.Fatalf("malformed job must be acked: %v", q.acked)
	}
}

func TestStartAndShutdown(t *testing.T) {
	q := &fakeQueue{jobs: []*lmstfy.Job{
		job(t, "j1", etmessage.NewText("chan", "919900", "one")),
		job(t, "j2", etmessage.NewText("chan", "919900", "two")),
	}}
	s := &fakeSender{}
	c := newConsumer(q, s)

	errCh := make(chan error, 1)
	go func() { errCh <- c.Start(context.Background()) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		q.mu.Lock()
		n := len(q.acked)
		q.mu.Unlock()
		if n == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("jobs not consumed, acked=%d", n)
		}
		time.Sleep(5 * time.Millisecond)
	}

	c.Shutdown()
	c.Shutdown()
	if err := <-errCh; err != nil {
		t.Fatalf("Start returned %v", err)
	}
}
