package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	handler "coursechat/handler/http"
	"coursechat/src/core/coursechat"
)

type fakeRAGService struct {
	answer    string
	sources   []coursechat.Source
	sessionID string
	queryErr  error

	analytics *coursechat.Analytics
	health    *coursechat.HealthStatus

	lastQuery   string
	lastSession string
}

func (f *fakeRAGService) Query(_ context.Context, query string, sessionID string) (string, []coursechat.Source, string, error) {
	f.lastQuery = query
	f.lastSession = sessionID
	if f.queryErr != nil {
		return "", nil, "", f.queryErr
	}
	sid := f.sessionID
	if sessionID != "" {
		sid = sessionID
	}
	return f.answer, f.sources, sid, nil
}

func (f *fakeRAGService) Analytics(context.Context) (*coursechat.Analytics, error) {
	if f.analytics == nil {
		return nil, errors.New("catalog unavailable")
	}
	return f.analytics, nil
}

func (f *fakeRAGService) CheckHealth(context.Context) *coursechat.HealthStatus {
	return f.health
}

func newRouter(svc *fakeRAGService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler.NewHandler(svc).RegisterRoutes(r)
	return r
}

func TestQueryEndpoint(t *testing.T) {
	svc := &fakeRAGService{
		answer:    "The answer.",
		sources:   []coursechat.Source{{Text: "Course A - Lesson 1", Link: "https://example.com/a/1"}},
		sessionID: "sess-1",
	}
	r := newRouter(svc)

	body := `{"query":"what is retrieval?"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Answer    string              `json:"answer"`
		Sources   []coursechat.Source `json:"sources"`
		SessionID string              `json:"session_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Answer != "The answer." || resp.SessionID != "sess-1" {
		t.Errorf("response = %+v", resp)
	}
	if len(resp.Sources) != 1 || resp.Sources[0].Link != "https://example.com/a/1" {
		t.Errorf("sources = %+v", resp.Sources)
	}
	if svc.lastQuery != "what is retrieval?" {
		t.Errorf("service saw query %q", svc.lastQuery)
	}
}

func TestQueryEndpointPassesSessionID(t *testing.T) {
	svc := &fakeRAGService{answer: "ok"}
	r := newRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/query",
		strings.NewReader(`{"query":"q","session_id":"existing"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if svc.lastSession != "existing" {
		t.Errorf("service saw session %q, want existing", svc.lastSession)
	}
}

func TestQueryEndpointValidation(t *testing.T) {
	r := newRouter(&fakeRAGService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestQueryEndpointErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			"rate limited",
			&coursechat.ModelAPIError{Kind: coursechat.ModelErrRateLimited, Err: errors.New("429")},
			http.StatusTooManyRequests,
			"RATE_LIMITED",
		},
		{
			"model down",
			&coursechat.ModelAPIError{Kind: coursechat.ModelErrService, Err: errors.New("boom")},
			http.StatusBadGateway,
			"MODEL_UNAVAILABLE",
		},
		{
			"other",
			errors.New("boom"),
			http.StatusInternalServerError,
			"INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(&fakeRAGService{queryErr: tt.err})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(`{"query":"q"}`))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var resp handler.ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid error body: %v", err)
			}
			if resp.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", resp.Code, tt.wantCode)
			}
		})
	}
}

func TestCoursesEndpoint(t *testing.T) {
	svc := &fakeRAGService{
		analytics: &coursechat.Analytics{TotalCourses: 2, CourseTitles: []string{"Course A", "Course B"}},
	}
	r := newRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/courses", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp coursechat.Analytics
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if resp.TotalCourses != 2 || len(resp.CourseTitles) != 2 {
		t.Errorf("analytics = %+v", resp)
	}
}

func TestHealthEndpoint(t *testing.T) {
	healthy := &coursechat.HealthStatus{Status: "healthy"}
	healthy.Components.Weaviate = coursechat.StatusUp
	healthy.Components.Ollama = coursechat.StatusUp

	r := newRouter(&fakeRAGService{health: healthy})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}

	unhealthy := &coursechat.HealthStatus{Status: "unhealthy"}
	r = newRouter(&fakeRAGService{health: unhealthy})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}
