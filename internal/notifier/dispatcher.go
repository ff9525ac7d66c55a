package notifier

import (
	"context"
	"sync"
	"time"

	"reportflow/internal/model"
	"reportflow/internal/repository"
	"reportflow/internal/workflow"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Channel delivers one event to a set of recipients over a single medium
// (email, SMS, chat webhook, websocket push). Delivery is best-effort:
// errors are logged by the dispatcher and never reach the workflow engine.
type Channel interface {
	Name() string
	Send(ctx context.Context, event workflow.Event, recipients []model.User) error
}

const defaultQueueSize = 256

// Dispatcher fans workflow events out to the configured channels from a
// single worker goroutine. Enqueue never blocks: when the queue is full the
// event is dropped with a warning, which is acceptable because the in-app
// notification row and the audit entry are written elsewhere.
type Dispatcher struct {
	queue         chan workflow.Event
	users         repository.UserRepository
	notifications repository.NotificationRepository
	channels      []Channel
	logger        *zap.Logger

	sendTimeout time.Duration
	stopOnce    sync.Once
	done        chan struct{}
	wg          sync.WaitGroup
}

func NewDispatcher(
	users repository.UserRepository,
	notifications repository.NotificationRepository,
	channels []Channel,
	logger *zap.Logger,
) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		queue:         make(chan workflow.Event, defaultQueueSize),
		users:         users,
		notifications: notifications,
		channels:      channels,
		logger:        logger,
		sendTimeout:   10 * time.Second,
		done:          make(chan struct{}),
	}
}

// Start launches the worker goroutine.
func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case event := <-d.queue:
				d.process(event)
			case <-d.done:
				// Drain what is already queued before exiting.
				for {
					select {
					case event := <-d.queue:
						d.process(event)
					default:
						return
					}
				}
			}
		}
	}()
}

// Stop shuts the worker down after draining the queue.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() { close(d.done) })
	d.wg.Wait()
}

// Enqueue implements workflow.Dispatcher. Fire-and-forget.
func (d *Dispatcher) Enqueue(event workflow.Event) {
	select {
	case d.queue <- event:
	default:
		d.logger.Warn("notification queue full, dropping event",
			zap.String("type", event.Type),
			zap.String("report_id", event.ReportID.String()))
	}
}

func (d *Dispatcher) process(event workflow.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), d.sendTimeout)
	defer cancel()

	recipients := d.resolve(ctx, event.Recipients)
	if len(recipients) == 0 {
		d.logger.Warn("no recipients resolved for event",
			zap.String("type", event.Type),
			zap.String("report_id", event.ReportID.String()))
		return
	}

	// Persist the in-app copy first so the bell menu is correct even when
	// every external channel is down.
	for _, recipient := range recipients {
		n := model.Notification{
			RecipientID: recipient.ID,
			EventType:   event.Type,
			ReportID:    &event.ReportID,
			Message:     event.Message,
		}
		if err := d.notifications.Create(ctx, &n); err != nil {
			d.logger.Error("failed to persist notification",
				zap.String("recipient", recipient.ID.String()),
				zap.Error(err))
		}
	}

	for _, ch := range d.channels {
		if err := ch.Send(ctx, event, recipients); err != nil {
			d.logger.Error("notification channel delivery failed",
				zap.String("channel", ch.Name()),
				zap.String("type", event.Type),
				zap.String("report_id", event.ReportID.String()),
				zap.Error(err))
		}
	}
}

// resolve turns recipient selectors into concrete users, deduplicated by id.
func (d *Dispatcher) resolve(ctx context.Context, selectors []workflow.RecipientSelector) []model.User {
	seen := make(map[uuid.UUID]bool)
	var recipients []model.User

	add := func(users []model.User) {
		for _, u := range users {
			if !seen[u.ID] {
				seen[u.ID] = true
				recipients = append(recipients, u)
			}
		}
	}

	for _, sel := range selectors {
		switch sel.Kind {
		case workflow.SelectorCreator:
			user, err := d.users.GetByID(ctx, sel.UserID.String())
			if err != nil {
				d.logger.Warn("failed to resolve creator recipient",
					zap.String("user_id", sel.UserID.String()), zap.Error(err))
				continue
			}
			add([]model.User{*user})
		case workflow.SelectorDeptManagers:
			users, err := d.users.ListManagersByDepartment(ctx, sel.Department)
			if err != nil {
				d.logger.Warn("failed to resolve manager pool",
					zap.String("department", sel.Department), zap.Error(err))
				continue
			}
			add(users)
		case workflow.SelectorGMs:
			users, err := d.users.ListByRole(ctx, model.RoleGM)
			if err != nil {
				d.logger.Warn("failed to resolve GM pool", zap.Error(err))
				continue
			}
			add(users)
		default:
			d.logger.Warn("unknown recipient selector", zap.String("kind", sel.Kind))
		}
	}

	return recipients
}
