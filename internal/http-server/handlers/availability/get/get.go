package get

import (
	"context"
	"log/slog"
	"net/http"

	"dental-dashboard/api"
	"dental-dashboard/internal/schedule"
	"dental-dashboard/pkg/response"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type AvailabilityGetter interface {
	Availability(ctx context.Context, view schedule.View, doctorID string) api.AvailabilityResponse
}

type Response struct {
	response.Response
	api.AvailabilityResponse
}

// New serves the aggregated calendar. ?view=patient (default) hides
// zero-capacity slots and slot reasons; ?view=staff shows both.
// ?doctor_id narrows the map to one doctor.
func New(log *slog.Logger, getter AvailabilityGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.availability.get.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		view, ok := schedule.ParseView(r.URL.Query().Get("view"))
		if !ok {
			log.Error("unknown view", slog.String("view", r.URL.Query().Get("view")))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.INVALID_FIELD), "view must be patient or staff"))
			return
		}

		res := getter.Availability(r.Context(), view, r.URL.Query().Get("doctor_id"))

		log.Debug("Availability computed", slog.String("view", string(view)), slog.Int("dates", len(res.Dates)))
		render.JSON(w, r, Response{AvailabilityResponse: res})
	}
}
