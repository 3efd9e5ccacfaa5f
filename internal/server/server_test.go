package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ziadkadry99/examdesk/internal/attempt"
	"github.com/ziadkadry99/examdesk/internal/db"
	"github.com/ziadkadry99/examdesk/internal/exam"
	"github.com/ziadkadry99/examdesk/internal/grading"
	"github.com/ziadkadry99/examdesk/internal/highlight"
	"github.com/ziadkadry99/examdesk/internal/passage"
)

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	srv := New(cfg, database, nil)
	srv.Mount(NewServices(database, highlight.DefaultOptions(), 0, nil))
	return srv
}

func call(t *testing.T, srv *Server, method, path, body string, out any) int {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	if out != nil && w.Code < 300 {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			t.Fatalf("%s %s: unmarshal: %v (%s)", method, path, err, w.Body.String())
		}
	}
	return w.Code
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t, Config{Port: 0})

	var body map[string]string
	if code := call(t, srv, "GET", "/healthz", "", &body); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", body["status"])
	}
}

func TestCORSHeaders(t *testing.T) {
	srv := newTestServer(t, Config{Port: 0, AllowAll: true})

	req := httptest.NewRequest("OPTIONS", "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("expected CORS Allow-Origin header")
	}
}

func TestMountedRoutes(t *testing.T) {
	srv := newTestServer(t, Config{})

	var test exam.Test
	if code := call(t, srv, "POST", "/api/tests", `{"title":"Reading 1"}`, &test); code != http.StatusCreated {
		t.Fatalf("create test: %d", code)
	}
	var p exam.Passage
	if code := call(t, srv, "POST", "/api/passages",
		`{"test_id":"`+test.ID+`","content":"<p>Cats sleep. Dogs bark.</p>"}`, &p); code != http.StatusCreated {
		t.Fatalf("create passage: %d", code)
	}
	var q exam.Question
	if code := call(t, srv, "POST", "/api/questions", `{
		"test_id":"`+test.ID+`","passage_id":"`+p.ID+`","prompt":"Who barks?",
		"options":[{"id":"a","html":"Cats"},{"id":"b","html":"Dogs"}],
		"correct_option":"b","sentence_references":[1]}`, &q); code != http.StatusCreated {
		t.Fatalf("create question: %d", code)
	}

	var view passage.View
	if code := call(t, srv, "GET", "/api/passages/"+p.ID+"/render", "", &view); code != http.StatusOK {
		t.Fatalf("render passage: %d", code)
	}
	if len(view.Sentences) != 2 {
		t.Errorf("expected 2 sentences, got %d", len(view.Sentences))
	}

	var a attempt.Attempt
	if code := call(t, srv, "POST", "/api/attempts",
		`{"test_id":"`+test.ID+`","taker_id":"taker-1"}`, &a); code != http.StatusCreated {
		t.Fatalf("start attempt: %d", code)
	}
	if code := call(t, srv, "PUT", "/api/attempts/"+a.ID+"/progress",
		`{"answers":{"`+q.ID+`":"b"}}`, nil); code != http.StatusOK {
		t.Fatalf("save progress: %d", code)
	}
	if code := call(t, srv, "POST", "/api/attempts/"+a.ID+"/submit", "", nil); code != http.StatusOK {
		t.Fatalf("submit: %d", code)
	}

	var rep grading.Report
	if code := call(t, srv, "GET", "/api/grading/attempts/"+a.ID, "", &rep); code != http.StatusOK {
		t.Fatalf("grading report: %d", code)
	}
	if rep.Correct != 1 || rep.Graded != 1 {
		t.Errorf("expected 1/1 correct, got %d/%d", rep.Correct, rep.Graded)
	}

	var entries []map[string]any
	if code := call(t, srv, "GET", "/api/audit/", "", &entries); code != http.StatusOK {
		t.Fatalf("audit: %d", code)
	}
	if len(entries) == 0 {
		t.Error("expected audit entries")
	}
}
