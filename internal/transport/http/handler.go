package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/cwrk-planet/chatroom/internal/domain"
	"github.com/cwrk-planet/chatroom/internal/repository"
	"github.com/cwrk-planet/chatroom/internal/service"
	httpmw "github.com/cwrk-planet/chatroom/internal/transport/http/middleware"
	"github.com/cwrk-planet/chatroom/internal/validation"
	"github.com/cwrk-planet/chatroom/pkg/httputil"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	presence *service.PresenceService
	ledger   *service.MessageService
	store    repository.Pinger
}

func NewHandler(presence *service.PresenceService, ledger *service.MessageService, store repository.Pinger) *Handler {
	return &Handler{
		presence: presence,
		ledger:   ledger,
		store:    store,
	}
}

func errMissingUser() error {
	return domain.NewValidationError("user header is required")
}

func errBadJSON(err error) error {
	if errors.Is(err, httputil.ErrBodyTooLarge) {
		return err
	}
	return domain.NewValidationError("malformed JSON body: " + err.Error())
}

// POST /participants
func (h *Handler) CreateParticipant(w http.ResponseWriter, r *http.Request) {
	var req validation.ParticipantInput
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		writeError(r.Context(), w, "handler.CreateParticipant.Decode", errBadJSON(err))
		return
	}

	p, err := h.presence.Admit(r.Context(), req.Name)
	if err != nil {
		writeError(r.Context(), w, "handler.CreateParticipant", err)
		return
	}
	httputil.JSON(w, http.StatusCreated, toParticipantItem(*p))
}

// GET /participants
func (h *Handler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	list, err := h.presence.List(r.Context())
	if err != nil {
		writeError(r.Context(), w, "handler.ListParticipants", err)
		return
	}
	httputil.JSON(w, http.StatusOK, toParticipantItems(list))
}

// POST /messages
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	var req validation.MessageInput
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		writeError(r.Context(), w, "handler.PostMessage.Decode", errBadJSON(err))
		return
	}

	m, err := h.ledger.Post(r.Context(), httpmw.UserFromCtx(r.Context()), req)
	if err != nil {
		writeError(r.Context(), w, "handler.PostMessage", err)
		return
	}
	httputil.JSON(w, http.StatusCreated, toMessageItem(*m))
}

// GET /messages?limit=
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(r.Context(), w, "handler.ListMessages", domain.NewValidationError("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	msgs, err := h.ledger.Query(r.Context(), httpmw.UserFromCtx(r.Context()), limit)
	if err != nil {
		writeError(r.Context(), w, "handler.ListMessages", err)
		return
	}
	httputil.JSON(w, http.StatusOK, toMessageItems(msgs))
}

// POST /status
func (h *Handler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	user := httpmw.UserFromCtx(r.Context())
	if user == "" {
		writeError(r.Context(), w, "handler.Heartbeat", errMissingUser())
		return
	}
	if err := h.presence.Heartbeat(r.Context(), user); err != nil {
		writeError(r.Context(), w, "handler.Heartbeat", err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// PUT /messages/{id}
func (h *Handler) EditMessage(w http.ResponseWriter, r *http.Request) {
	var req validation.MessageInput
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		writeError(r.Context(), w, "handler.EditMessage.Decode", errBadJSON(err))
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.ledger.Edit(r.Context(), id, httpmw.UserFromCtx(r.Context()), req); err != nil {
		writeError(r.Context(), w, "handler.EditMessage", err)
		return
	}
	httputil.NoContent(w)
}

// DELETE /messages/{id}
func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.ledger.Delete(r.Context(), id, httpmw.UserFromCtx(r.Context())); err != nil {
		writeError(r.Context(), w, "handler.DeleteMessage", err)
		return
	}
	httputil.NoContent(w)
}

// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		httputil.L(r.Context()).WarnContext(r.Context(), "store ping failed", "err", err)
		httputil.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
