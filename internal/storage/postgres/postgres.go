package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"dental-dashboard/internal/models"
	"dental-dashboard/pkg/response"

	"github.com/lib/pq"
)

//go:embed schema.sql
var schema string

type Storage struct {
	db *sql.DB
}

func New(storagePath string) (*Storage, error) {
	const op = "storage.postgres.New"

	db, err := sql.Open("postgres", storagePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

// NewWithDB wraps an existing handle.
func NewWithDB(db *sql.DB) *Storage {
	return &Storage{db: db}
}

func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

func (s *Storage) Migrate(ctx context.Context) error {
	const op = "storage.postgres.Migrate"

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, nil)
}

// mapPQError turns constraint violations into the response sentinels.
func mapPQError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return fmt.Errorf("%s: %w", op, response.ErrConflict)
		case "23503":
			return fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// #### schedules ####

const selectSchedules = `
	SELECT e.id, e.date, e.doctor_id, e.doctor_name, e.specialty, e.status, e.is_active,
	       s.id, s.start_time, s.end_time, s.max_patients, s.reason
	FROM schedule_entries e
	LEFT JOIN time_slots s ON s.schedule_id = e.id`

func (s *Storage) ListSchedules(ctx context.Context) ([]models.ScheduleEntry, error) {
	const op = "storage.postgres.ListSchedules"

	rows, err := s.db.QueryContext(ctx, selectSchedules+` ORDER BY e.created_at, e.id, s.position`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	entries, err := scanSchedules(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return entries, nil
}

func (s *Storage) GetSchedule(ctx context.Context, id string) (*models.ScheduleEntry, error) {
	const op = "storage.postgres.GetSchedule"

	rows, err := s.db.QueryContext(ctx, selectSchedules+` WHERE e.id = $1 ORDER BY s.position`, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	entries, err := scanSchedules(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return &entries[0], nil
}

func scanSchedules(rows *sql.Rows) ([]models.ScheduleEntry, error) {
	entries := make([]models.ScheduleEntry, 0)
	index := make(map[string]int)

	for rows.Next() {
		var (
			e          models.ScheduleEntry
			slotID     sql.NullString
			start, end sql.NullString
			capacity   sql.NullInt64
			reason     sql.NullString
		)

		err := rows.Scan(
			&e.ID, &e.Date, &e.DoctorID, &e.DoctorName, &e.Specialty, &e.Status, &e.IsActive,
			&slotID, &start, &end, &capacity, &reason,
		)
		if err != nil {
			return nil, err
		}

		i, ok := index[e.ID]
		if !ok {
			e.TimeSlots = []models.TimeSlot{}
			entries = append(entries, e)
			i = len(entries) - 1
			index[e.ID] = i
		}

		if slotID.Valid {
			entries[i].TimeSlots = append(entries[i].TimeSlots, models.TimeSlot{
				ID:                 slotID.String,
				Start:              start.String,
				End:                end.String,
				MaxPatientsPerSlot: int(capacity.Int64),
				Reason:             reason.String,
			})
		}
	}

	return entries, rows.Err()
}

func (s *Storage) CreateSchedule(ctx context.Context, e *models.ScheduleEntry) error {
	const op = "storage.postgres.CreateSchedule"

	tx, err := s.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("%s: begin tx: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO schedule_entries (id, date, doctor_id, doctor_name, specialty, status, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.Date, e.DoctorID, e.DoctorName, e.Specialty, string(e.Status), e.IsActive,
	)
	if err != nil {
		return mapPQError(op, err)
	}

	for pos, slot := range e.TimeSlots {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO time_slots (id, schedule_id, position, start_time, end_time, max_patients, reason)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			slot.ID, e.ID, pos, slot.Start, slot.End, slot.MaxPatientsPerSlot, slot.Reason,
		)
		if err != nil {
			return mapPQError(op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}

	return nil
}

func (s *Storage) UpdateScheduleStatus(ctx context.Context, id string, status models.ScheduleStatus, isActive *bool) error {
	const op = "storage.postgres.UpdateScheduleStatus"

	res, err := s.db.ExecContext(ctx,
		`UPDATE schedule_entries SET status = $1, is_active = COALESCE($2, is_active) WHERE id = $3`,
		string(status), isActive, id,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return expectAffected(op, res)
}

func expectAffected(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}
	return nil
}

// #### appointments ####

const selectAppointments = `
	SELECT id, patient_id, patient_name, doctor_id, schedule_id, slot_id, date, status, created_at
	FROM appointments`

func scanAppointment(row interface{ Scan(...any) error }) (models.Appointment, error) {
	var a models.Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.PatientName, &a.DoctorID, &a.ScheduleID, &a.SlotID, &a.Date, &a.Status, &a.CreatedAt)
	return a, err
}

func (s *Storage) ListAppointments(ctx context.Context) ([]models.Appointment, error) {
	const op = "storage.postgres.ListAppointments"

	rows, err := s.db.QueryContext(ctx, selectAppointments+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	result := make([]models.Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return result, nil
}

func (s *Storage) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	const op = "storage.postgres.GetAppointment"

	a, err := scanAppointment(s.db.QueryRowContext(ctx, selectAppointments+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &a, nil
}

func (s *Storage) CreateAppointment(ctx context.Context, a *models.Appointment) error {
	const op = "storage.postgres.CreateAppointment"

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO appointments (id, patient_id, patient_name, doctor_id, schedule_id, slot_id, date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`,
		a.ID, a.PatientID, a.PatientName, a.DoctorID, a.ScheduleID, a.SlotID, a.Date, string(a.Status),
	).Scan(&a.CreatedAt)
	if err != nil {
		return mapPQError(op, err)
	}

	return nil
}

func (s *Storage) UpdateAppointmentStatus(ctx context.Context, id string, status models.AppointmentStatus) error {
	const op = "storage.postgres.UpdateAppointmentStatus"

	res, err := s.db.ExecContext(ctx, `UPDATE appointments SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return expectAffected(op, res)
}

// #### treatments ####

func (s *Storage) ListTreatments(ctx context.Context) ([]models.Treatment, error) {
	const op = "storage.postgres.ListTreatments"

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, patient_id, doctor_id, description, created_at FROM treatments ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	result := make([]models.Treatment, 0)
	for rows.Next() {
		var t models.Treatment
		if err := rows.Scan(&t.ID, &t.PatientID, &t.DoctorID, &t.Description, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return result, nil
}

func (s *Storage) CreateTreatment(ctx context.Context, t *models.Treatment) error {
	const op = "storage.postgres.CreateTreatment"

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO treatments (id, patient_id, doctor_id, description) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		t.ID, t.PatientID, t.DoctorID, t.Description,
	).Scan(&t.CreatedAt)
	if err != nil {
		return mapPQError(op, err)
	}

	return nil
}

// #### notifications ####

const selectNotifications = `
	SELECT n.id, n.message, n.kind, n.created_at, v.user_id, v.is_read
	FROM notifications n
	LEFT JOIN notification_viewers v ON v.notification_id = n.id`

func (s *Storage) ListNotifications(ctx context.Context) ([]models.Notification, error) {
	const op = "storage.postgres.ListNotifications"

	rows, err := s.db.QueryContext(ctx, selectNotifications+` ORDER BY n.created_at DESC, n.id, v.user_id`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	result, err := scanNotifications(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return result, nil
}

func (s *Storage) GetNotification(ctx context.Context, id string) (*models.Notification, error) {
	const op = "storage.postgres.GetNotification"

	rows, err := s.db.QueryContext(ctx, selectNotifications+` WHERE n.id = $1 ORDER BY v.user_id`, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	result, err := scanNotifications(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return &result[0], nil
}

func scanNotifications(rows *sql.Rows) ([]models.Notification, error) {
	result := make([]models.Notification, 0)
	index := make(map[string]int)

	for rows.Next() {
		var (
			n      models.Notification
			user   sql.NullString
			isRead sql.NullBool
		)

		if err := rows.Scan(&n.ID, &n.Message, &n.Kind, &n.CreatedAt, &user, &isRead); err != nil {
			return nil, err
		}

		i, ok := index[n.ID]
		if !ok {
			n.Viewers = []models.Viewer{}
			result = append(result, n)
			i = len(result) - 1
			index[n.ID] = i
		}

		if user.Valid {
			result[i].Viewers = append(result[i].Viewers, models.Viewer{User: user.String, IsRead: isRead.Bool})
		}
	}

	return result, rows.Err()
}

func (s *Storage) CreateNotification(ctx context.Context, n *models.Notification) error {
	const op = "storage.postgres.CreateNotification"

	tx, err := s.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("%s: begin tx: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO notifications (id, message, kind) VALUES ($1, $2, $3) RETURNING created_at`,
		n.ID, n.Message, n.Kind,
	).Scan(&n.CreatedAt)
	if err != nil {
		return mapPQError(op, err)
	}

	for _, v := range n.Viewers {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO notification_viewers (notification_id, user_id, is_read) VALUES ($1, $2, $3)`,
			n.ID, v.User, v.IsRead,
		)
		if err != nil {
			return mapPQError(op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}

	return nil
}

// MarkNotificationRead flips the user's own read flag. A user who is not a
// viewer of the notification gets ErrNotFound.
func (s *Storage) MarkNotificationRead(ctx context.Context, id, userID string) error {
	const op = "storage.postgres.MarkNotificationRead"

	res, err := s.db.ExecContext(ctx,
		`UPDATE notification_viewers SET is_read = TRUE WHERE notification_id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return expectAffected(op, res)
}

func (s *Storage) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	const op = "storage.postgres.MarkAllNotificationsRead"

	res, err := s.db.ExecContext(ctx,
		`UPDATE notification_viewers SET is_read = TRUE WHERE user_id = $1 AND NOT is_read`, userID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}
