package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"booking_engine/internal/bookingsession/session"
	"booking_engine/internal/bookingsession/transport"
	"booking_engine/platform/logger"
	"booking_engine/platform/validator"
)

type stubAPI struct{}

func (stubAPI) GetConfig(context.Context, uuid.UUID, string) (session.Config, error) {
	return session.Config{Enabled: true, Services: []session.Service{{ID: "cut", Name: "Haircut"}}}, nil
}

func (stubAPI) StartIntent(context.Context, session.StartIntentInput) (uuid.UUID, error) {
	return uuid.New(), nil
}

func (stubAPI) AttachLead(context.Context, uuid.UUID, string, uuid.UUID, session.Contact) (uuid.UUID, error) {
	return uuid.New(), nil
}

func (stubAPI) CommitClick(context.Context, uuid.UUID, string, uuid.UUID) (session.Resolution, error) {
	return session.Resolution{RedirectType: "external", URL: "https://booking.example.com"}, nil
}

func (stubAPI) Abandon(context.Context, uuid.UUID, string, uuid.UUID) error { return nil }

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	machine := session.NewMachine(stubAPI{}, session.NewMemoryStore(), logger.Nop(), nil)
	h := New(machine, validator.New())

	r := gin.New()
	g := r.Group("/booking/:tenantId/:botId/sessions/:sessionId")
	g.GET("", h.Get)
	g.POST("/start", h.Start)
	g.POST("/select", h.SelectService)
	g.POST("/contact", h.SubmitContact)
	g.POST("/book", h.Book)
	return r
}

func call(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSessionFlowOverHTTP(t *testing.T) {
	r := newRouter()
	base := "/booking/" + uuid.NewString() + "/web/sessions/conv-1"

	steps := []struct {
		method string
		path   string
		body   string
		state  session.State
	}{
		{http.MethodPost, base + "/start", "", session.StateSelectService},
		{http.MethodPost, base + "/select", `{"serviceId":"cut"}`, session.StateCollectContact},
		{http.MethodPost, base + "/contact", `{"name":"<b>Jane</b> Doe"}`, session.StateReadyToBook},
	}
	for _, step := range steps {
		w := call(t, r, step.method, step.path, step.body)
		if w.Code != http.StatusOK {
			t.Fatalf("%s: status %d body %s", step.path, w.Code, w.Body.String())
		}
		var resp transport.SessionResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.State != step.state {
			t.Fatalf("%s: expected %s, got %s", step.path, step.state, resp.State)
		}
	}

	w := call(t, r, http.MethodPost, base+"/book", "")
	var book transport.BookResponse
	if err := json.Unmarshal(w.Body.Bytes(), &book); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if w.Code != http.StatusOK || book.Session.State != session.StateDone || book.Resolution.URL == "" {
		t.Fatalf("unexpected book response %d %s", w.Code, w.Body.String())
	}
}

func TestContactBeforeSelectionIsConflict(t *testing.T) {
	r := newRouter()
	base := "/booking/" + uuid.NewString() + "/web/sessions/conv-2"

	w := call(t, r, http.MethodPost, base+"/contact", `{"name":"Jane"}`)
	if w.Code != http.StatusConflict || !strings.Contains(w.Body.String(), session.CodeMissingActiveBooking) {
		t.Fatalf("expected conflict, got %d %s", w.Code, w.Body.String())
	}
}

func TestInvalidTenantIsRejected(t *testing.T) {
	w := call(t, newRouter(), http.MethodGet, "/booking/not-a-uuid/web/sessions/conv-3", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestContactRequiresName(t *testing.T) {
	w := call(t, newRouter(), http.MethodPost, "/booking/"+uuid.NewString()+"/web/sessions/conv-4/contact", `{"email":"jane@example.com"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
