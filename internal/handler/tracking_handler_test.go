package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/conduct-api/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var env response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestWeeklyRequiresClassID(t *testing.T) {
	h := NewTrackingHandler(nil)
	c, w := newGinContext(http.MethodGet, "/reports/weekly?week=3", nil)

	h.Weekly(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestWeeklyRequiresWeek(t *testing.T) {
	h := NewTrackingHandler(nil)
	c, w := newGinContext(http.MethodGet, "/reports/weekly?class_id=class-10a", nil)

	h.Weekly(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitDayRejectsMalformedBody(t *testing.T) {
	h := NewTrackingHandler(nil)
	c, w := newGinContext(http.MethodPost, "/reports/bulk", []byte(`{"week":`))

	h.SubmitDay(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNoteRequiresClassID(t *testing.T) {
	h := NewTrackingHandler(nil)
	c, w := newGinContext(http.MethodGet, "/reports/note?date=2024-09-18", nil)

	h.Note(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSaveNoteRejectsMalformedBody(t *testing.T) {
	h := NewTrackingHandler(nil)
	c, w := newGinContext(http.MethodPost, "/reports/note", []byte(`not json`))

	h.SaveNote(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
