package create

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"dental-dashboard/api"
	"dental-dashboard/internal/models"
	"dental-dashboard/pkg/response"
	"dental-dashboard/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type TreatmentCreator interface {
	CreateTreatment(ctx context.Context, req *api.CreateTreatmentRequest) (*models.Treatment, error)
}

type Response struct {
	response.Response
	Treatment *models.Treatment `json:"treatment,omitempty"`
}

func New(log *slog.Logger, creator TreatmentCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.treatments.create.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req api.CreateTreatmentRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		treatment, err := creator.CreateTreatment(r.Context(), &req)

		if errors.Is(err, response.ErrBadRequest) {
			log.Error("Invalid treatment", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.INVALID_FIELD), "patientId and description are required"))
			return
		}

		if err != nil {
			log.Error("Failed to create treatment", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create treatment"))
			return
		}

		log.Info("Treatment created", slog.String("id", treatment.ID))
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, Response{Treatment: treatment})
	}
}
