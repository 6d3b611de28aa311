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

type TreatmentLister interface {
	ListTreatments(ctx context.Context) []models.Treatment
}

type Response struct {
	response.Response
	Treatments []models.Treatment `json:"treatments"`
}

func New(log *slog.Logger, lister TreatmentLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.treatments.get.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		patientID := r.URL.Query().Get("patient_id")

		treatments := lister.ListTreatments(r.Context())
		if patientID != "" {
			mine := make([]models.Treatment, 0, len(treatments))
			for _, t := range treatments {
				if t.PatientID == patientID {
					mine = append(mine, t)
				}
			}
			treatments = mine
		}

		log.Debug("Treatments retrieved", slog.Int("count", len(treatments)))
		render.JSON(w, r, Response{Treatments: treatments})
	}
}
