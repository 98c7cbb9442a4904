package httputil_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cwrk-planet/chatroom/pkg/httputil"
	"github.com/cwrk-planet/chatroom/pkg/logger"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/require"
)

func Test_Error_Writes_Body_With_Details(t *testing.T) {
	req := require.New(t)
	rec := httptest.NewRecorder()

	httputil.Error(t.Context(), rec, http.StatusUnprocessableEntity, "invalid input", "name is required")

	req.Equal(http.StatusUnprocessableEntity, rec.Code)
	req.Contains(rec.Header().Get("Content-Type"), "application/json")
	var body httputil.ErrorBody
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	req.Equal("invalid input", body.Error)
	req.Equal([]string{"name is required"}, body.Details)
}

func Test_Error_Omits_Empty_Details(t *testing.T) {
	rec := httptest.NewRecorder()
	httputil.Error(t.Context(), rec, http.StatusNotFound, "not found")
	require.JSONEq(t, `{"error":"not found"}`, rec.Body.String())
}

func Test_RequestLogger_Levels_By_Status(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer
	logger.Init(logger.Config{
		Service: "chatroom",
		Env:     logger.EnvProd,
		Backend: logger.BackendStd,
		Level:   slog.LevelDebug,
		Output:  &buf,
	})

	h := middleware.RequestID(httputil.WithRequestLoggerCtx(httputil.RequestLogger(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			httputil.JSON(w, http.StatusConflict, map[string]string{"error": "taken"})
		}),
	)))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/participants", nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var m map[string]any
	req.NoError(json.Unmarshal([]byte(lines[len(lines)-1]), &m))
	req.Equal("http_request", m["msg"])
	req.Equal("WARN", m["level"])
	req.Equal("/participants", m["path"])
	req.Equal(http.MethodPost, m["method"])
	req.NotEmpty(m["req_id"])
	req.EqualValues(http.StatusConflict, m["status"])
}

func Test_EchoRequestID(t *testing.T) {
	h := middleware.RequestID(httputil.EchoRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(middleware.RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	require.Equal(t, "abc-123", rec.Header().Get(httputil.HeaderRequestID))
}

func Test_DecodeJSON_Limits_Body_Size(t *testing.T) {
	req := require.New(t)
	var dst struct {
		Text string `json:"text"`
	}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"text":"hi"}`))
	req.NoError(httputil.DecodeJSON(httptest.NewRecorder(), r, &dst))
	req.Equal("hi", dst.Text)

	big := `{"text":"` + strings.Repeat("x", httputil.MaxBodyBytes) + `"}`
	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
	err := httputil.DecodeJSON(httptest.NewRecorder(), r, &dst)
	req.ErrorIs(err, httputil.ErrBodyTooLarge)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{bad"))
	err = httputil.DecodeJSON(httptest.NewRecorder(), r, &dst)
	req.Error(err)
	req.False(errors.Is(err, httputil.ErrBodyTooLarge))
}
