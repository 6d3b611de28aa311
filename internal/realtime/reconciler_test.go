package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"dental-dashboard/internal/events"
	"dental-dashboard/internal/metrics"
	"dental-dashboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func event(name, data string) events.Event {
	return events.Event{Name: name, Data: json.RawMessage(data)}
}

func notification(id string, viewers ...models.Viewer) models.Notification {
	return models.Notification{ID: id, Message: "msg " + id, Viewers: viewers}
}

func TestDuplicatePushNotificationIsAbsorbed(t *testing.T) {
	r := NewReconciler(discardLogger(), nil)

	outcome, err := r.Apply(event(events.AdminNotification, `{"_id":"n1","message":"x"}`))
	require.NoError(t, err)
	assert.Equal(t, metrics.OutcomeApplied, outcome)

	outcome, err = r.Apply(event(events.AdminNotification, `{"_id":"n1","message":"x"}`))
	require.NoError(t, err)
	assert.Equal(t, metrics.OutcomeDuplicate, outcome)

	require.Equal(t, 1, r.Notifications.Len())
	n, _ := r.Notifications.Get("n1")
	assert.Equal(t, events.AdminNotification, n.Kind)
}

func TestNotificationWithoutIDIsRejected(t *testing.T) {
	r := NewReconciler(discardLogger(), nil)

	outcome, err := r.Apply(event(events.SMSNotification, `{"message":"no id"}`))
	require.Error(t, err)
	assert.Equal(t, metrics.OutcomeInvalid, outcome)
	assert.Zero(t, r.Notifications.Len())
}

func TestEveryNotificationEventInserts(t *testing.T) {
	r := NewReconciler(discardLogger(), nil)

	for i, name := range events.NotificationEvents {
		data, _ := json.Marshal(models.Notification{ID: name, Message: "m"})
		outcome, err := r.Apply(events.Event{Name: name, Data: data})
		require.NoError(t, err)
		assert.Equal(t, metrics.OutcomeApplied, outcome)
		assert.Equal(t, i+1, r.Notifications.Len())
	}
}

func TestScheduleEvents(t *testing.T) {
	r := NewReconciler(discardLogger(), nil)

	outcome, err := r.Apply(event(events.ScheduleAssigned, `{
		"_id":"s1","date":"2025-06-20T00:00:00.000Z","doctorId":"A","doctorName":"Dr. A",
		"status":"Pending","isActive":true,
		"timeSlots":[{"_id":"t1","start":"09:00","end":"09:30","maxPatientsPerSlot":3}]
	}`))
	require.NoError(t, err)
	assert.Equal(t, metrics.OutcomeApplied, outcome)

	outcome, err = r.Apply(event(events.ScheduleStatusUpdated, `{"_id":"s1","status":"Approved"}`))
	require.NoError(t, err)
	assert.Equal(t, metrics.OutcomeApplied, outcome)

	s, ok := r.Schedules.Get("s1")
	require.True(t, ok)
	assert.Equal(t, models.ScheduleApproved, s.Status)
	assert.Equal(t, "2025-06-20", s.Date.Key())
	require.Len(t, s.TimeSlots, 1)
	assert.Equal(t, 3, s.TimeSlots[0].MaxPatientsPerSlot)
}

func TestStatusUpdateForUnknownRecordIsDropped(t *testing.T) {
	r := NewReconciler(discardLogger(), nil)

	outcome, err := r.Apply(event(events.UpdatedAppointment, `{"_id":"ghost","status":"Cancelled"}`))
	require.NoError(t, err)
	assert.Equal(t, metrics.OutcomeDropped, outcome)
	assert.Zero(t, r.Appointments.Len())
}

func TestAppointmentAndTreatmentEvents(t *testing.T) {
	r := NewReconciler(discardLogger(), nil)

	_, err := r.Apply(event(events.NewAppointment, `{"_id":"a1","patientId":"p1","doctorId":"A","status":"Pending"}`))
	require.NoError(t, err)
	_, err = r.Apply(event(events.AppointmentConfirmed, `{"_id":"a1","status":"Confirmed"}`))
	require.NoError(t, err)
	_, err = r.Apply(event(events.NewTreatment, `{"_id":"t1","patientId":"p1","description":"scaling"}`))
	require.NoError(t, err)

	a, _ := r.Appointments.Get("a1")
	assert.Equal(t, models.AppointmentConfirmed, a.Status)
	assert.Equal(t, "p1", a.PatientID)
	assert.Equal(t, 1, r.Treatments.Len())
}

func TestUnknownAndMalformedEvents(t *testing.T) {
	r := NewReconciler(discardLogger(), nil)

	outcome, err := r.Apply(event("patientDeleted", `{}`))
	require.Error(t, err)
	assert.Equal(t, metrics.OutcomeUnknown, outcome)

	outcome, err = r.Apply(event(events.NewAppointment, `{"_id":`))
	require.Error(t, err)
	assert.Equal(t, metrics.OutcomeInvalid, outcome)
}

func TestReadMark(t *testing.T) {
	r := NewReconciler(discardLogger(), nil)
	_, _ = r.Notifications.ApplyInsert(notification("n1",
		models.Viewer{User: "u1"},
		models.Viewer{User: "u2"},
	))

	before := r.Notifications.Snapshot()

	assert.True(t, ApplyReadMark(r.Notifications, "n1", "u1"))
	once := r.Notifications.Snapshot()
	assert.False(t, ApplyReadMark(r.Notifications, "n1", "u1"))
	assert.Equal(t, once, r.Notifications.Snapshot(), "a second read-mark changes nothing")

	n, _ := r.Notifications.Get("n1")
	u1, _ := n.ViewerFor("u1")
	u2, _ := n.ViewerFor("u2")
	assert.True(t, u1.IsRead)
	assert.False(t, u2.IsRead)

	prev, _ := before[0].ViewerFor("u1")
	assert.False(t, prev.IsRead, "earlier snapshots are not mutated")
}

func TestReadMarkNeverFabricatesViewers(t *testing.T) {
	r := NewReconciler(discardLogger(), nil)
	_, _ = r.Notifications.ApplyInsert(notification("n1", models.Viewer{User: "u1"}))

	assert.False(t, ApplyReadMark(r.Notifications, "n1", "stranger"))
	assert.False(t, ApplyReadMark(r.Notifications, "missing", "u1"))

	n, _ := r.Notifications.Get("n1")
	assert.Len(t, n.Viewers, 1)
}

func TestNotificationCountReset(t *testing.T) {
	r := NewReconciler(discardLogger(), nil)
	_, _ = r.Notifications.ApplyInsert(notification("n1", models.Viewer{User: "u1"}))
	_, _ = r.Notifications.ApplyInsert(notification("n2", models.Viewer{User: "u1"}, models.Viewer{User: "u2"}))

	outcome, err := r.Apply(event(events.NotificationCountReset, `{"user":"u1"}`))
	require.NoError(t, err)
	assert.Equal(t, metrics.OutcomeApplied, outcome)

	_, unread := ForUser(r.Notifications.Snapshot(), "u1")
	assert.Zero(t, unread)
	mine, unread := ForUser(r.Notifications.Snapshot(), "u2")
	assert.Len(t, mine, 1)
	assert.Equal(t, 1, unread)

	outcome, err = r.Apply(event(events.NotificationCountReset, `{"user":"u1"}`))
	require.NoError(t, err)
	assert.Equal(t, metrics.OutcomeDuplicate, outcome)
}

func TestHandleNotifiesObserversOfWellFormedEvents(t *testing.T) {
	r := NewReconciler(discardLogger(), nil)

	var seen []string
	r.OnEvent(func(ev events.Event) { seen = append(seen, ev.Name) })

	r.Handle(context.Background(), event(events.NewTreatment, `{"_id":"t1"}`))
	r.Handle(context.Background(), event(events.NewTreatment, `{"_id":"t1"}`))
	r.Handle(context.Background(), event("bogus", `{}`))

	assert.Equal(t, []string{events.NewTreatment, events.NewTreatment}, seen)
}

type fakeSnapshotter struct {
	schedules     []models.ScheduleEntry
	appointments  []models.Appointment
	treatments    []models.Treatment
	notifications []models.Notification
	err           error
	// during runs inside the appointments fetch, like a push arriving mid-flight.
	during func()
}

func (f *fakeSnapshotter) ListSchedules(context.Context) ([]models.ScheduleEntry, error) {
	return f.schedules, f.err
}

func (f *fakeSnapshotter) ListAppointments(context.Context) ([]models.Appointment, error) {
	if f.during != nil {
		f.during()
	}
	return f.appointments, f.err
}

func (f *fakeSnapshotter) ListTreatments(context.Context) ([]models.Treatment, error) {
	return f.treatments, f.err
}

func (f *fakeSnapshotter) ListNotifications(context.Context) ([]models.Notification, error) {
	return f.notifications, f.err
}

func TestRefreshDoesNotRegressConcurrentPush(t *testing.T) {
	r := NewReconciler(discardLogger(), nil)
	_, _ = r.Appointments.ApplyInsert(appointment("a1", models.AppointmentPending))

	src := &fakeSnapshotter{
		appointments:  []models.Appointment{appointment("a1", models.AppointmentPending)},
		notifications: []models.Notification{notification("n1", models.Viewer{User: "u1"})},
		during: func() {
			_, err := r.Apply(event(events.AppointmentConfirmed, `{"_id":"a1","status":"Confirmed"}`))
			require.NoError(t, err)
		},
	}

	require.NoError(t, r.Refresh(context.Background(), src))

	a, _ := r.Appointments.Get("a1")
	assert.Equal(t, models.AppointmentConfirmed, a.Status)
	assert.Equal(t, 1, r.Notifications.Len())
}

func TestRefreshPropagatesFetchErrors(t *testing.T) {
	r := NewReconciler(discardLogger(), nil)
	err := r.Refresh(context.Background(), &fakeSnapshotter{err: errors.New("db down")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schedules")
}
