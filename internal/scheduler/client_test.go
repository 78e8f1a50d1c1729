package scheduler

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
)

type fakeSchedulerConfig struct {
	redisURL    string
	queue       string
	tlsInsecure bool
}

func (c fakeSchedulerConfig) GetRedisURL() string       { return c.redisURL }
func (c fakeSchedulerConfig) GetRedisTLSInsecure() bool { return c.tlsInsecure }
func (c fakeSchedulerConfig) GetAsynqQueueName() string { return c.queue }
func (c fakeSchedulerConfig) GetAsynqConcurrency() int  { return 1 }

func TestClientEnqueueNotificationOutboxDue(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(fakeSchedulerConfig{redisURL: "redis://" + mr.Addr(), queue: "default"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer client.Close()

	payload := NotificationOutboxDuePayload{OutboxID: "outbox-1"}
	if err := client.EnqueueNotificationOutboxDue(context.Background(), payload); err != nil {
		t.Fatalf("EnqueueNotificationOutboxDue: %v", err)
	}

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: mr.Addr()})
	defer inspector.Close()

	tasks, err := inspector.ListPendingTasks("default")
	if err != nil {
		t.Fatalf("ListPendingTasks: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 pending task, got %d", len(tasks))
	}
	if tasks[0].Type != TaskNotificationOutboxDue {
		t.Errorf("unexpected task type: %s", tasks[0].Type)
	}

	got, err := ParseNotificationOutboxDuePayload(asynq.NewTask(tasks[0].Type, tasks[0].Payload))
	if err != nil {
		t.Fatalf("ParseNotificationOutboxDuePayload: %v", err)
	}
	if got.OutboxID != payload.OutboxID {
		t.Errorf("outbox id = %q, want %q", got.OutboxID, payload.OutboxID)
	}
}

func TestClientEnqueueWithoutRedisURLFails(t *testing.T) {
	if _, err := NewClient(fakeSchedulerConfig{}); err == nil {
		t.Fatal("expected error for empty redis url")
	}
}

func TestNilClientEnqueueIsNoop(t *testing.T) {
	var client *Client
	if err := client.EnqueueNotificationOutboxDue(context.Background(), NotificationOutboxDuePayload{}); err != nil {
		t.Errorf("nil client enqueue should be a no-op, got %v", err)
	}
}
