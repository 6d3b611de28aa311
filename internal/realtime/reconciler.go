package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"dental-dashboard/internal/events"
	"dental-dashboard/internal/metrics"
	"dental-dashboard/internal/models"
	"dental-dashboard/pkg/response"
	"dental-dashboard/pkg/sl"
)

// Reconciler owns the dashboard collections and applies push events to them.
type Reconciler struct {
	log     *slog.Logger
	metrics *metrics.RealtimeMetrics

	Schedules     *Collection[models.ScheduleEntry]
	Appointments  *Collection[models.Appointment]
	Treatments    *Collection[models.Treatment]
	Notifications *Collection[models.Notification]

	mu        sync.RWMutex
	observers []func(events.Event)
}

func NewReconciler(log *slog.Logger, m *metrics.RealtimeMetrics) *Reconciler {
	log = log.With(slog.String("component", "realtime.Reconciler"))

	return &Reconciler{
		log:           log,
		metrics:       m,
		Schedules:     NewCollection[models.ScheduleEntry]("schedules", Append, log),
		Appointments:  NewCollection[models.Appointment]("appointments", Prepend, log),
		Treatments:    NewCollection[models.Treatment]("treatments", Prepend, log),
		Notifications: NewCollection[models.Notification]("notifications", Prepend, log),
	}
}

// OnEvent registers fn to be called with every well-formed delivered event,
// after it has been applied locally.
func (r *Reconciler) OnEvent(fn func(events.Event)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, fn)
}

// Handle is the transport callback: it applies ev, records the outcome and
// notifies observers. It never fails.
func (r *Reconciler) Handle(ctx context.Context, ev events.Event) {
	outcome, err := r.Apply(ev)
	r.metrics.ObserveEvent(ev.Name, outcome)

	log := r.log.With(slog.String("event", ev.Name), slog.String("outcome", outcome))
	if err != nil {
		log.Warn("push event not applied", sl.Err(err))
		return
	}
	log.Debug("push event reconciled")

	r.mu.RLock()
	observers := r.observers
	r.mu.RUnlock()

	for _, fn := range observers {
		fn(ev)
	}
}

// Apply routes ev to the operation for its name and returns the outcome.
func (r *Reconciler) Apply(ev events.Event) (string, error) {
	const op = "realtime.Reconciler.Apply"

	var (
		changed bool
		err     error
	)

	switch ev.Name {
	case events.ScheduleAssigned:
		changed, err = insert(r.Schedules, ev.Data)
	case events.ScheduleStatusUpdated:
		changed, err = statusUpdate(r.Schedules, ev.Data)
	case events.BillNotification, events.TreatmentNotification, events.AdminNotification, events.SMSNotification:
		changed, err = r.insertNotification(ev)
	case events.NewAppointment:
		changed, err = insert(r.Appointments, ev.Data)
	case events.UpdatedAppointment, events.AppointmentConfirmed:
		changed, err = statusUpdate(r.Appointments, ev.Data)
	case events.NewTreatment:
		changed, err = insert(r.Treatments, ev.Data)
	case events.NotificationCountReset:
		changed, err = r.resetCount(ev.Data)
	default:
		return metrics.OutcomeUnknown, fmt.Errorf("%s: %w: %q", op, response.ErrUnknownEvent, ev.Name)
	}

	switch {
	case errors.Is(err, errRecordMissing):
		return metrics.OutcomeDropped, nil
	case err != nil:
		return metrics.OutcomeInvalid, fmt.Errorf("%s: %s: %w", op, ev.Name, err)
	case changed:
		return metrics.OutcomeApplied, nil
	default:
		return metrics.OutcomeDuplicate, nil
	}
}

var errRecordMissing = errors.New("record not in collection")

func insert[T Entity](c *Collection[T], data json.RawMessage) (bool, error) {
	var rec T
	if err := json.Unmarshal(data, &rec); err != nil {
		return false, err
	}
	return c.ApplyInsert(rec)
}

func statusUpdate[T Entity](c *Collection[T], data json.RawMessage) (bool, error) {
	var ref struct {
		ID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &ref); err != nil {
		return false, err
	}
	if ref.ID == "" {
		return false, response.ErrMissingID
	}

	changed, err := c.ApplyStatusUpdate(ref.ID, data)
	if err != nil {
		return false, err
	}
	if !changed {
		return false, errRecordMissing
	}
	return true, nil
}

func (r *Reconciler) insertNotification(ev events.Event) (bool, error) {
	var n models.Notification
	if err := json.Unmarshal(ev.Data, &n); err != nil {
		return false, err
	}
	if n.Kind == "" {
		n.Kind = ev.Name
	}
	return r.Notifications.ApplyInsert(n)
}

func (r *Reconciler) resetCount(data json.RawMessage) (bool, error) {
	var p events.CountReset
	if err := json.Unmarshal(data, &p); err != nil {
		return false, err
	}
	if p.User == "" {
		return false, response.ErrBadRequest
	}
	return MarkAllRead(r.Notifications, p.User) > 0, nil
}

// Snapshotter fetches full snapshots of the collections.
type Snapshotter interface {
	ListSchedules(ctx context.Context) ([]models.ScheduleEntry, error)
	ListAppointments(ctx context.Context) ([]models.Appointment, error)
	ListTreatments(ctx context.Context) ([]models.Treatment, error)
	ListNotifications(ctx context.Context) ([]models.Notification, error)
}

// Refresh resynchronises every collection from src. Each collection is
// stamped before its fetch, so a push applied while the fetch was in flight
// is not regressed and an older refresh never overwrites a newer one.
func (r *Reconciler) Refresh(ctx context.Context, src Snapshotter) error {
	const op = "realtime.Reconciler.Refresh"

	if err := refresh(ctx, r, r.Schedules, src.ListSchedules); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := refresh(ctx, r, r.Appointments, src.ListAppointments); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := refresh(ctx, r, r.Treatments, src.ListTreatments); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := refresh(ctx, r, r.Notifications, src.ListNotifications); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func refresh[T Entity](ctx context.Context, r *Reconciler, c *Collection[T], fetch func(context.Context) ([]T, error)) error {
	stamp := c.Stamp()

	items, err := fetch(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", c.Name(), err)
	}

	res := c.ApplyRefresh(stamp, items)
	r.metrics.ObserveRefresh(c.Name(), res.Applied)

	if res.Applied {
		r.log.Debug("collection refreshed",
			slog.String("collection", c.Name()),
			slog.Int("replaced", res.Replaced),
			slog.Int("kept", res.Kept),
			slog.Int("dropped", res.Dropped),
		)
	}

	return nil
}
