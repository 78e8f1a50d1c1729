package scheduler

import (
	"context"
	"fmt"

	"sdrsolar/internal/events"
	"sdrsolar/internal/notification/outbox"
	"sdrsolar/platform/config"
	"sdrsolar/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Worker is the asynq server side of the notification outbox: it picks up
// tasks enqueued by NotificationOutboxDispatcher, publishes the
// corresponding analytics event, and resolves the outbox row's terminal
// status.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	repo   *outbox.Repository
	bus    events.Bus
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, bus events.Bus, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		repo:   outbox.New(pool),
		bus:    bus,
		log:    log,
	}

	mux.HandleFunc(TaskNotificationOutboxDue, w.handleNotificationOutboxDue)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleNotificationOutboxDue(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseNotificationOutboxDuePayload(task)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(payload.OutboxID)
	if err != nil {
		return err
	}

	rec, err := w.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := w.repo.MarkProcessing(ctx, id); err != nil {
		return err
	}

	if w.bus != nil {
		if err := w.bus.PublishSync(ctx, events.AnalyticsOutboxDue{
			BaseEvent: events.NewBaseEvent(),
			OutboxID:  rec.ID.String(),
			LeadID:    rec.LeadID,
			Kind:      rec.Kind,
			Payload:   rec.Payload,
		}); err != nil {
			_ = w.repo.MarkFailed(ctx, id, err.Error())
			return err
		}
	}

	return w.repo.MarkSucceeded(ctx, id)
}
