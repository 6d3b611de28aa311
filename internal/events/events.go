// Package events carries push events between the clinic backend, the
// dashboard read model and connected browsers.
package events

import (
	"encoding/json"
	"fmt"
)

// Push event names as emitted by the clinic backend.
const (
	ScheduleAssigned       = "scheduleAssigned"
	ScheduleStatusUpdated  = "scheduleStatusUpdated"
	BillNotification       = "billNotification"
	TreatmentNotification  = "treatmentNotification"
	AdminNotification      = "adminNotification"
	SMSNotification        = "SMSNotification"
	AppointmentConfirmed   = "appointmentConfirmed"
	NewAppointment         = "new-appointment"
	UpdatedAppointment     = "updated-appointment"
	NewTreatment           = "new-treatment"
	NotificationCountReset = "notificationCountReset"
)

// NotificationEvents are the events whose payload is a notification record.
var NotificationEvents = []string{
	BillNotification,
	TreatmentNotification,
	AdminNotification,
	SMSNotification,
}

type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data"`
}

func New(name string, payload any) (Event, error) {
	const op = "events.New"

	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("%s: %w", op, err)
	}

	return Event{Name: name, Data: data}, nil
}

// CountReset is the payload of notificationCountReset.
type CountReset struct {
	User string `json:"user"`
}
