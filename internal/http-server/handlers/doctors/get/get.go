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

type DoctorLister interface {
	Doctors(ctx context.Context) []models.DoctorDirectoryEntry
}

type Response struct {
	response.Response
	Doctors []models.DoctorDirectoryEntry `json:"doctors"`
}

func New(log *slog.Logger, lister DoctorLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.doctors.get.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		doctors := lister.Doctors(r.Context())

		log.Debug("Doctors retrieved", slog.Int("count", len(doctors)))
		render.JSON(w, r, Response{Doctors: doctors})
	}
}
