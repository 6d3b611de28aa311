package models

import "time"

type ScheduleStatus string

const (
	SchedulePending    ScheduleStatus = "Pending"
	ScheduleApproved   ScheduleStatus = "Approved"
	ScheduleReAssigned ScheduleStatus = "Re-Assigned"
	ScheduleRejected   ScheduleStatus = "Rejected"
	ScheduleCancelled  ScheduleStatus = "Cancelled"
)

func (s ScheduleStatus) Valid() bool {
	switch s {
	case SchedulePending, ScheduleApproved, ScheduleReAssigned, ScheduleRejected, ScheduleCancelled:
		return true
	}
	return false
}

// ScheduleEntry is one doctor's availability submission for one calendar date.
type ScheduleEntry struct {
	ID         string         `json:"_id" db:"id"`
	Date       Date           `json:"date" db:"date"`
	DoctorID   string         `json:"doctorId" db:"doctor_id"`
	DoctorName string         `json:"doctorName" db:"doctor_name"`
	Specialty  string         `json:"specialty" db:"specialty"`
	Status     ScheduleStatus `json:"status" db:"status"`
	IsActive   bool           `json:"isActive" db:"is_active"`
	TimeSlots  []TimeSlot     `json:"timeSlots"`
}

func (e ScheduleEntry) EntityID() string { return e.ID }

// Eligible reports whether the entry may contribute to any availability view.
func (e ScheduleEntry) Eligible() bool {
	return e.Status == ScheduleApproved && e.IsActive
}

// TimeSlot start/end are wall-clock strings and are not range-checked.
type TimeSlot struct {
	ID                 string `json:"_id" db:"id"`
	Start              string `json:"start" db:"start_time"`
	End                string `json:"end" db:"end_time"`
	MaxPatientsPerSlot int    `json:"maxPatientsPerSlot" db:"max_patients"`
	Reason             string `json:"reason,omitempty" db:"reason"`
}

type DoctorDirectoryEntry struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	Color     string `json:"color"`
}

type DoctorSlot struct {
	DoctorID string   `json:"doctorId"`
	Slot     TimeSlot `json:"slot"`
}

// DailyAvailabilityMap is keyed by ISO date (2006-01-02).
type DailyAvailabilityMap map[string][]DoctorSlot

type Viewer struct {
	User   string `json:"user" db:"user_id"`
	IsRead bool   `json:"isRead" db:"is_read"`
}

type Notification struct {
	ID        string    `json:"_id" db:"id"`
	Message   string    `json:"message" db:"message"`
	Kind      string    `json:"kind,omitempty" db:"kind"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	Viewers   []Viewer  `json:"viewers"`
}

func (n Notification) EntityID() string { return n.ID }

// ViewerFor returns the read marker of user, if the notification addresses them.
func (n Notification) ViewerFor(user string) (Viewer, bool) {
	for _, v := range n.Viewers {
		if v.User == user {
			return v, true
		}
	}
	return Viewer{}, false
}

type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "Pending"
	AppointmentConfirmed AppointmentStatus = "Confirmed"
	AppointmentCompleted AppointmentStatus = "Completed"
	AppointmentCancelled AppointmentStatus = "Cancelled"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentPending, AppointmentConfirmed, AppointmentCompleted, AppointmentCancelled:
		return true
	}
	return false
}

type Appointment struct {
	ID          string            `json:"_id" db:"id"`
	PatientID   string            `json:"patientId" db:"patient_id"`
	PatientName string            `json:"patientName" db:"patient_name"`
	DoctorID    string            `json:"doctorId" db:"doctor_id"`
	ScheduleID  string            `json:"scheduleId" db:"schedule_id"`
	SlotID      string            `json:"slotId" db:"slot_id"`
	Date        Date              `json:"date" db:"date"`
	Status      AppointmentStatus `json:"status" db:"status"`
	CreatedAt   time.Time         `json:"createdAt" db:"created_at"`
}

func (a Appointment) EntityID() string { return a.ID }

type Treatment struct {
	ID          string    `json:"_id" db:"id"`
	PatientID   string    `json:"patientId" db:"patient_id"`
	DoctorID    string    `json:"doctorId" db:"doctor_id"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

func (t Treatment) EntityID() string { return t.ID }
