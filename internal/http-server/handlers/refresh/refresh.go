package refresh

import (
	"context"
	"log/slog"
	"net/http"

	"dental-dashboard/pkg/response"
	"dental-dashboard/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Refresher interface {
	Refresh(ctx context.Context) error
}

func New(log *slog.Logger, refresher Refresher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.refresh.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if err := refresher.Refresh(r.Context()); err != nil {
			log.Error("Failed to refresh", sl.Err(err))
			render.Status(r, http.StatusBadGateway)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to refresh from storage"))
			return
		}

		log.Info("Read model refreshed")
		w.WriteHeader(http.StatusNoContent)
	}
}
