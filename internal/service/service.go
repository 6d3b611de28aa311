package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"dental-dashboard/api"
	"dental-dashboard/internal/events"
	"dental-dashboard/internal/lock"
	"dental-dashboard/internal/models"
	"dental-dashboard/internal/realtime"
	"dental-dashboard/internal/schedule"
	"dental-dashboard/pkg/response"
	"dental-dashboard/pkg/sl"

	"github.com/google/uuid"
)

type Store interface {
	realtime.Snapshotter

	// Schedules
	GetSchedule(ctx context.Context, id string) (*models.ScheduleEntry, error)
	CreateSchedule(ctx context.Context, entry *models.ScheduleEntry) error
	UpdateScheduleStatus(ctx context.Context, id string, status models.ScheduleStatus, isActive *bool) error

	// Appointments
	GetAppointment(ctx context.Context, id string) (*models.Appointment, error)
	CreateAppointment(ctx context.Context, a *models.Appointment) error
	UpdateAppointmentStatus(ctx context.Context, id string, status models.AppointmentStatus) error

	// Treatments
	CreateTreatment(ctx context.Context, t *models.Treatment) error

	// Notifications
	GetNotification(ctx context.Context, id string) (*models.Notification, error)
	CreateNotification(ctx context.Context, n *models.Notification) error
	MarkNotificationRead(ctx context.Context, id, userID string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error)
}

// Publisher fans an event out to every dashboard instance, this one included.
type Publisher interface {
	Publish(ctx context.Context, ev events.Event) error
}

type Config struct {
	StatusLockTTL              time.Duration
	PatientIncludeZeroCapacity bool
}

type Service struct {
	log       *slog.Logger
	store     Store
	locker    lock.Locker
	publisher Publisher
	rt        *realtime.Reconciler
	cfg       Config
}

func NewService(log *slog.Logger, store Store, locker lock.Locker, publisher Publisher, rt *realtime.Reconciler, cfg Config) *Service {
	if cfg.StatusLockTTL <= 0 {
		cfg.StatusLockTTL = 10 * time.Second
	}

	return &Service{
		log:       log.With(slog.String("component", "service")),
		store:     store,
		locker:    locker,
		publisher: publisher,
		rt:        rt,
		cfg:       cfg,
	}
}

// emit applies ev to the local read model and publishes it. The published
// copy comes back through the subscriber as a duplicate and is what reaches
// the browsers. A publish failure is logged only: the record is stored and
// the next refresh brings other instances up to date.
func (s *Service) emit(ctx context.Context, name string, payload any) {
	log := s.log.With(slog.String("event", name))

	ev, err := events.New(name, payload)
	if err != nil {
		log.Error("failed to encode event", sl.Err(err))
		return
	}

	if outcome, err := s.rt.Apply(ev); err != nil {
		log.Warn("local apply failed", slog.String("outcome", outcome), sl.Err(err))
	}

	if err := s.publisher.Publish(ctx, ev); err != nil {
		log.Error("failed to publish event", sl.Err(err))
	}
}

// Schedules

func (s *Service) ListSchedules(ctx context.Context) []models.ScheduleEntry {
	return s.rt.Schedules.Snapshot()
}

func (s *Service) CreateSchedule(ctx context.Context, req *api.CreateScheduleRequest) (*models.ScheduleEntry, error) {
	const op = "service.CreateSchedule"

	date, err := models.ParseDate(req.Date)
	if err != nil || date.IsZero() {
		return nil, fmt.Errorf("%s: invalid date: %w", op, response.ErrBadRequest)
	}

	if strings.TrimSpace(req.DoctorID) == "" {
		return nil, fmt.Errorf("%s: doctorId is required: %w", op, response.ErrBadRequest)
	}

	status := models.SchedulePending
	if req.Status != "" {
		status = models.ScheduleStatus(req.Status)
		if !status.Valid() {
			return nil, fmt.Errorf("%s: %w", op, response.ErrInvalidStatus)
		}
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	entry := &models.ScheduleEntry{
		ID:         uuid.NewString(),
		Date:       date,
		DoctorID:   req.DoctorID,
		DoctorName: req.DoctorName,
		Specialty:  req.Specialty,
		Status:     status,
		IsActive:   isActive,
		TimeSlots:  make([]models.TimeSlot, 0, len(req.TimeSlots)),
	}

	for _, ts := range req.TimeSlots {
		if ts.Start == "" || ts.End == "" {
			return nil, fmt.Errorf("%s: slot start and end are required: %w", op, response.ErrBadRequest)
		}
		entry.TimeSlots = append(entry.TimeSlots, models.TimeSlot{
			ID:                 uuid.NewString(),
			Start:              ts.Start,
			End:                ts.End,
			MaxPatientsPerSlot: ts.MaxPatientsPerSlot,
			Reason:             ts.Reason,
		})
	}

	if err := s.store.CreateSchedule(ctx, entry); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.emit(ctx, events.ScheduleAssigned, entry)

	return entry, nil
}

// UpdateScheduleStatus approves, rejects or reassigns an entry. Concurrent
// updates of the same entry are refused with ErrLocked.
func (s *Service) UpdateScheduleStatus(ctx context.Context, id string, req *api.ScheduleStatusRequest) (*models.ScheduleEntry, error) {
	const op = "service.UpdateScheduleStatus"

	status := models.ScheduleStatus(req.Status)
	if !status.Valid() {
		return nil, fmt.Errorf("%s: %w", op, response.ErrInvalidStatus)
	}

	lockKey := fmt.Sprintf("schedule:%s", id)
	locked, err := s.locker.Lock(ctx, lockKey, s.cfg.StatusLockTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: lock error: %w", op, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", op, response.ErrLocked)
	}
	defer func() {
		_ = s.locker.Unlock(ctx, lockKey)
	}()

	if err := s.store.UpdateScheduleStatus(ctx, id, status, req.IsActive); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	entry, err := s.store.GetSchedule(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.emit(ctx, events.ScheduleStatusUpdated, map[string]any{
		"_id":      entry.ID,
		"status":   entry.Status,
		"isActive": entry.IsActive,
	})

	return entry, nil
}

func (s *Service) aggregate(view schedule.View) schedule.Result {
	opts := schedule.StaffOptions()
	if view != schedule.StaffView {
		opts = schedule.PatientOptions()
		opts.RequirePositiveCapacity = !s.cfg.PatientIncludeZeroCapacity
	}

	return schedule.Aggregate(s.rt.Schedules.Snapshot(), opts)
}

// Availability recomputes the calendar from the current schedules snapshot.
func (s *Service) Availability(ctx context.Context, view schedule.View, doctorID string) api.AvailabilityResponse {
	res := s.aggregate(view)

	daily := res.DailyAvailability
	if doctorID != "" {
		daily = res.ForDoctor(doctorID)
		res = schedule.Result{Doctors: res.Doctors, DailyAvailability: daily}
	}

	return api.AvailabilityResponse{
		View:              string(view),
		Dates:             res.Dates(),
		Doctors:           res.Doctors,
		DailyAvailability: daily,
	}
}

func (s *Service) Doctors(ctx context.Context) []models.DoctorDirectoryEntry {
	return s.aggregate(schedule.PatientView).Doctors
}

// Appointments

func (s *Service) ListAppointments(ctx context.Context) []models.Appointment {
	return s.rt.Appointments.Snapshot()
}

func (s *Service) CreateAppointment(ctx context.Context, req *api.CreateAppointmentRequest) (*models.Appointment, error) {
	const op = "service.CreateAppointment"

	if req.PatientID == "" || req.DoctorID == "" || req.ScheduleID == "" || req.SlotID == "" {
		return nil, fmt.Errorf("%s: patientId, doctorId, scheduleId and slotId are required: %w", op, response.ErrBadRequest)
	}

	date, err := models.ParseDate(req.Date)
	if err != nil || date.IsZero() {
		return nil, fmt.Errorf("%s: invalid date: %w", op, response.ErrBadRequest)
	}

	a := &models.Appointment{
		ID:          uuid.NewString(),
		PatientID:   req.PatientID,
		PatientName: req.PatientName,
		DoctorID:    req.DoctorID,
		ScheduleID:  req.ScheduleID,
		SlotID:      req.SlotID,
		Date:        date,
		Status:      models.AppointmentPending,
	}

	if err := s.store.CreateAppointment(ctx, a); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.emit(ctx, events.NewAppointment, a)

	return a, nil
}

func (s *Service) UpdateAppointmentStatus(ctx context.Context, id string, req *api.AppointmentStatusRequest) (*models.Appointment, error) {
	const op = "service.UpdateAppointmentStatus"

	status := models.AppointmentStatus(req.Status)
	if !status.Valid() {
		return nil, fmt.Errorf("%s: %w", op, response.ErrInvalidStatus)
	}

	if err := s.store.UpdateAppointmentStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	a, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	name := events.UpdatedAppointment
	if status == models.AppointmentConfirmed {
		name = events.AppointmentConfirmed
	}
	s.emit(ctx, name, map[string]any{"_id": a.ID, "status": a.Status})

	return a, nil
}

// Treatments

func (s *Service) ListTreatments(ctx context.Context) []models.Treatment {
	return s.rt.Treatments.Snapshot()
}

// CreateTreatment records a treatment and notifies the patient about it.
func (s *Service) CreateTreatment(ctx context.Context, req *api.CreateTreatmentRequest) (*models.Treatment, error) {
	const op = "service.CreateTreatment"

	if req.PatientID == "" || strings.TrimSpace(req.Description) == "" {
		return nil, fmt.Errorf("%s: patientId and description are required: %w", op, response.ErrBadRequest)
	}

	t := &models.Treatment{
		ID:          uuid.NewString(),
		PatientID:   req.PatientID,
		DoctorID:    req.DoctorID,
		Description: req.Description,
	}

	if err := s.store.CreateTreatment(ctx, t); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.emit(ctx, events.NewTreatment, t)

	n := &models.Notification{
		ID:      uuid.NewString(),
		Message: fmt.Sprintf("New treatment recorded: %s", t.Description),
		Kind:    events.TreatmentNotification,
		Viewers: []models.Viewer{{User: t.PatientID}},
	}
	if err := s.store.CreateNotification(ctx, n); err != nil {
		s.log.Error("failed to store treatment notification", slog.String("treatment_id", t.ID), sl.Err(err))
		return t, nil
	}

	s.emit(ctx, events.TreatmentNotification, n)

	return t, nil
}

// Notifications

// Notifications returns what userID can see, newest first, and how many of
// them are unread.
func (s *Service) Notifications(ctx context.Context, userID string) api.NotificationsResponse {
	mine, unread := realtime.ForUser(s.rt.Notifications.Snapshot(), userID)

	return api.NotificationsResponse{Notifications: mine, Unread: unread}
}

func (s *Service) CreateNotification(ctx context.Context, req *api.CreateNotificationRequest) (*models.Notification, error) {
	const op = "service.CreateNotification"

	if strings.TrimSpace(req.Message) == "" || len(req.Recipients) == 0 {
		return nil, fmt.Errorf("%s: message and recipients are required: %w", op, response.ErrBadRequest)
	}

	n := &models.Notification{
		ID:      uuid.NewString(),
		Message: req.Message,
		Kind:    events.AdminNotification,
		Viewers: make([]models.Viewer, 0, len(req.Recipients)),
	}

	seen := make(map[string]struct{}, len(req.Recipients))
	for _, user := range req.Recipients {
		if user == "" {
			continue
		}
		if _, dup := seen[user]; dup {
			continue
		}
		seen[user] = struct{}{}
		n.Viewers = append(n.Viewers, models.Viewer{User: user})
	}
	if len(n.Viewers) == 0 {
		return nil, fmt.Errorf("%s: no valid recipients: %w", op, response.ErrBadRequest)
	}

	if err := s.store.CreateNotification(ctx, n); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.emit(ctx, events.AdminNotification, n)

	return n, nil
}

// MarkNotificationRead marks the notification read for userID locally first
// and then in storage. If storage refuses, the local record is replaced with
// the stored one so the read model never shows a read flag that was not
// persisted.
func (s *Service) MarkNotificationRead(ctx context.Context, id, userID string) error {
	const op = "service.MarkNotificationRead"

	if userID == "" {
		return fmt.Errorf("%s: %w", op, response.ErrBadRequest)
	}

	n, ok := s.rt.Notifications.Get(id)
	if ok {
		if _, isViewer := n.ViewerFor(userID); !isViewer {
			return fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
	}

	realtime.ApplyReadMark(s.rt.Notifications, id, userID)

	err := s.store.MarkNotificationRead(ctx, id, userID)
	if err == nil {
		return nil
	}

	s.log.Warn("read-mark not persisted, reconciling",
		slog.String("notification_id", id),
		slog.String("user", userID),
		sl.Err(err),
	)

	stored, getErr := s.store.GetNotification(ctx, id)
	switch {
	case getErr == nil:
		s.rt.Notifications.ApplyUpdate(id, func(cur *models.Notification) bool {
			*cur = *stored
			return true
		})
	case errors.Is(getErr, response.ErrNotFound):
		s.rt.Notifications.ApplyUpdate(id, func(cur *models.Notification) bool {
			return revertReadMark(cur, userID)
		})
	default:
		s.log.Error("failed to reload notification", slog.String("notification_id", id), sl.Err(getErr))
	}

	return fmt.Errorf("%s: %w", op, err)
}

func revertReadMark(n *models.Notification, userID string) bool {
	viewers := make([]models.Viewer, len(n.Viewers))
	copy(viewers, n.Viewers)

	changed := false
	for i := range viewers {
		if viewers[i].User == userID && viewers[i].IsRead {
			viewers[i].IsRead = false
			changed = true
		}
	}
	n.Viewers = viewers

	return changed
}

// ResetNotificationCount marks every notification of userID as read.
func (s *Service) ResetNotificationCount(ctx context.Context, userID string) (int64, error) {
	const op = "service.ResetNotificationCount"

	if userID == "" {
		return 0, fmt.Errorf("%s: %w", op, response.ErrBadRequest)
	}

	n, err := s.store.MarkAllNotificationsRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	s.emit(ctx, events.NotificationCountReset, events.CountReset{User: userID})

	return n, nil
}

// Refresh

func (s *Service) Refresh(ctx context.Context) error {
	const op = "service.Refresh"

	if err := s.rt.Refresh(ctx, s.store); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// RunRefresher refreshes the read model every interval until ctx is done.
// Failed refreshes are logged and retried on the next tick.
func (s *Service) RunRefresher(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
				s.log.Error("periodic refresh failed", sl.Err(err))
			}
		}
	}
}
