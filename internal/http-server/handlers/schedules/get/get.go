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

type ScheduleLister interface {
	ListSchedules(ctx context.Context) []models.ScheduleEntry
}

type Response struct {
	response.Response
	Schedules []models.ScheduleEntry `json:"schedules"`
}

func New(log *slog.Logger, lister ScheduleLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.schedules.get.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		schedules := lister.ListSchedules(r.Context())

		log.Debug("Schedules retrieved", slog.Int("count", len(schedules)))
		render.JSON(w, r, Response{Schedules: schedules})
	}
}
