package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cwrk-planet/chatroom/internal/domain"
	"github.com/cwrk-planet/chatroom/pkg/httputil"
)

// ToHTTP maps a service error onto a status code.
func ToHTTP(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNameTaken):
		return http.StatusConflict
	case errors.Is(err, domain.ErrParticipantNotFound), errors.Is(err, domain.ErrMessageNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotOwner):
		return http.StatusUnauthorized
	case errors.Is(err, httputil.ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	status := ToHTTP(err)
	if status == http.StatusInternalServerError {
		httputil.L(ctx).ErrorContext(ctx, op, slog.Any("err", err))
		httputil.JSON(w, status, httputil.ErrorBody{Error: "internal error"})
		return
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		httputil.Error(ctx, w, status, domain.ErrInvalidInput.Error(), ve.Details...)
		return
	}
	httputil.Error(ctx, w, status, err.Error())
}
