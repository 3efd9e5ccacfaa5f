package attempt

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/examdesk/internal/highlight"
	"github.com/ziadkadry99/examdesk/internal/overlay"
)

func setupRouter(t *testing.T) (chi.Router, fixture) {
	t.Helper()
	f := setup(t)
	r := chi.NewRouter()
	RegisterRoutes(r, f.svc)
	return r, f
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func startAttempt(t *testing.T, r http.Handler, f fixture) Attempt {
	t.Helper()
	rec := do(t, r, http.MethodPost, "/api/attempts", `{"test_id":"`+f.test.ID+`","taker_id":"taker-1"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var a Attempt
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&a))
	return a
}

func TestRoutes_AttemptLifecycle(t *testing.T) {
	r, f := setupRouter(t)
	a := startAttempt(t, r, f)
	base := "/api/attempts/" + a.ID

	rec := do(t, r, http.MethodPut, base+"/progress", `{"answers":{"`+f.q1.ID+`":"b"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, r, http.MethodGet, "/api/attempts/resume?test_id="+f.test.ID+"&taker_id=taker-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resumed Attempt
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resumed))
	assert.Equal(t, "b", resumed.Answers[f.q1.ID])

	rec = do(t, r, http.MethodPost, base+"/passages/"+f.passage.ID+"/highlights", `{"start":0,"end":5,"color":"blue"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var hl highlight.Record
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&hl))
	assert.Equal(t, "Hello", hl.Text)

	rec = do(t, r, http.MethodGet, base+"/passages/"+f.passage.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), hl.ID)

	rec = do(t, r, http.MethodPost, base+"/questions/"+f.q1.ID+"/overlay", `{"action":"cross_out","option":"a"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var st overlay.State
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&st))
	assert.True(t, st.IsCrossedOut("a"))

	rec = do(t, r, http.MethodGet, base+"/questions/"+f.q1.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, r, http.MethodDelete, base+"/passages/"+f.passage.ID+"/highlights/"+hl.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, r, http.MethodPost, base+"/submit", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, r, http.MethodPut, base+"/progress", `{"answers":{"`+f.q1.ID+`":"a"}}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, ErrSubmitted.Error(), body["error"])
}

func TestRoutes_Errors(t *testing.T) {
	r, f := setupRouter(t)
	a := startAttempt(t, r, f)
	base := "/api/attempts/" + a.ID

	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodPost, "/api/attempts", `nope`).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodPost, "/api/attempts", `{"test_id":"x","taker_id":"y"}`).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/api/attempts/missing", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodPut, base+"/progress", `{"answers":{"nope":"a"}}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodPost, base+"/passages/"+f.passage.ID+"/highlights", `{"start":3,"end":3}`).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodDelete, base+"/passages/"+f.passage.ID+"/highlights/none", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/ws/attempts/missing", "").Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, StatusFor(ErrNotFound))
	assert.Equal(t, http.StatusConflict, StatusFor(ErrSubmitted))
	assert.Equal(t, http.StatusBadRequest, StatusFor(ErrInvalid))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(assert.AnError))
}

func TestAutosaveWebSocket(t *testing.T) {
	r, f := setupRouter(t)
	a := startAttempt(t, r, f)

	server := httptest.NewServer(r)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/attempts/" + a.ID
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	require.NoError(t, conn.WriteJSON(autosaveRequest{
		Type:     "autosave",
		Seq:      1,
		Progress: Progress{Answers: map[string]string{f.q1.ID: "a", f.q2.ID: "a"}},
	}))
	var saved autosaveResponse
	require.NoError(t, conn.ReadJSON(&saved))
	assert.Equal(t, "saved", saved.Type)
	assert.Equal(t, 1, saved.Seq)
	assert.Equal(t, 2, saved.Answered)

	require.NoError(t, conn.WriteJSON(autosaveRequest{Type: "autosave", Seq: 2, Progress: Progress{Answers: map[string]string{"nope": "a"}}}))
	var failed autosaveResponse
	require.NoError(t, conn.ReadJSON(&failed))
	assert.Equal(t, "error", failed.Type)
	assert.Equal(t, 2, failed.Seq)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{bad")))
	var malformed autosaveResponse
	require.NoError(t, conn.ReadJSON(&malformed))
	assert.Equal(t, "invalid message format", malformed.Error)

	require.NoError(t, conn.WriteJSON(autosaveRequest{Type: "ping", Seq: 3}))
	var pong autosaveResponse
	require.NoError(t, conn.ReadJSON(&pong))
	assert.Equal(t, "pong", pong.Type)

	stored, err := f.svc.Get(t.Context(), a.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Answers, 2)
}
