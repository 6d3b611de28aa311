package get

import (
	"context"
	"log/slog"
	"net/http"

	"dental-dashboard/internal/models"
	"dental-dashboard/pkg/response"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type AppointmentLister interface {
	ListAppointments(ctx context.Context) []models.Appointment
}

type Response struct {
	response.Response
	Appointments []models.Appointment `json:"appointments"`
}

// New lists appointments, newest first. ?patient_id and ?doctor_id filter
// the list.
func New(log *slog.Logger, lister AppointmentLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.appointments.get.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		patientID := r.URL.Query().Get("patient_id")
		doctorID := r.URL.Query().Get("doctor_id")

		all := lister.ListAppointments(r.Context())
		appointments := make([]models.Appointment, 0, len(all))
		for _, a := range all {
			if patientID != "" && a.PatientID != patientID {
				continue
			}
			if doctorID != "" && a.DoctorID != doctorID {
				continue
			}
			appointments = append(appointments, a)
		}

		log.Debug("Appointments retrieved", slog.Int("count", len(appointments)))
		render.JSON(w, r, Response{Appointments: appointments})
	}
}
