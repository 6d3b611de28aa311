package api

import "dental-dashboard/internal/models"

type TimeSlotRequest struct {
	Start              string `json:"start"`
	End                string `json:"end"`
	MaxPatientsPerSlot int    `json:"maxPatientsPerSlot"`
	Reason             string `json:"reason,omitempty"`
}

type CreateScheduleRequest struct {
	Date       string            `json:"date"`
	DoctorID   string            `json:"doctorId"`
	DoctorName string            `json:"doctorName"`
	Specialty  string            `json:"specialty"`
	Status     string            `json:"status,omitempty"`
	IsActive   *bool             `json:"isActive,omitempty"`
	TimeSlots  []TimeSlotRequest `json:"timeSlots"`
}

type ScheduleStatusRequest struct {
	Status   string `json:"status"`
	IsActive *bool  `json:"isActive,omitempty"`
}

type AvailabilityResponse struct {
	View              string                        `json:"view"`
	Dates             []string                      `json:"dates"`
	Doctors           []models.DoctorDirectoryEntry `json:"doctors"`
	DailyAvailability models.DailyAvailabilityMap   `json:"dailyAvailability"`
}

type CreateAppointmentRequest struct {
	PatientID   string `json:"patientId"`
	PatientName string `json:"patientName"`
	DoctorID    string `json:"doctorId"`
	ScheduleID  string `json:"scheduleId"`
	SlotID      string `json:"slotId"`
	Date        string `json:"date"`
}

type AppointmentStatusRequest struct {
	Status string `json:"status"`
}

type CreateTreatmentRequest struct {
	PatientID   string `json:"patientId"`
	DoctorID    string `json:"doctorId"`
	Description string `json:"description"`
}

// CreateNotificationRequest addresses a message to each recipient user id.
type CreateNotificationRequest struct {
	Message    string   `json:"message"`
	Recipients []string `json:"recipients"`
}

type NotificationsResponse struct {
	Notifications []models.Notification `json:"notifications"`
	Unread        int                   `json:"unread"`
}

// UserIDHeader carries the id of the dashboard user making the request.
const UserIDHeader = "X-User-ID"
