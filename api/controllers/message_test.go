package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/retailgenie/orchestrator/api/middleware"
	"github.com/retailgenie/orchestrator/internal/chat"
	"github.com/retailgenie/orchestrator/internal/intent"
	"github.com/retailgenie/orchestrator/internal/sessions"
	pkgerrors "github.com/retailgenie/orchestrator/pkg/errors"
)

type stubChatService struct {
	lastInput chat.MessageInput
	reply     *chat.MessageReply
	session   *sessions.Session
	err       error
}

func (s *stubChatService) HandleMessage(_ context.Context, input chat.MessageInput) (*chat.MessageReply, error) {
	s.lastInput = input
	return s.reply, s.err
}

func (s *stubChatService) GetSession(context.Context, string) (*sessions.Session, error) {
	return s.session, s.err
}

func TestMessageControllerHappyPath(t *testing.T) {
	svc := &stubChatService{reply: &chat.MessageReply{
		SessionID: "sess-1",
		Response:  "Here are some picks.",
		Intent:    intent.Recommend,
	}}
	handler := Message(svc, nil)

	r := httptest.NewRequest("POST", "/api/v1/message", strings.NewReader(`{"message":"blue jeans"}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var envelope struct {
		Data chat.MessageReply `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.SessionID != "sess-1" {
		t.Fatalf("unexpected reply %+v", envelope.Data)
	}
	if svc.lastInput.Message != "blue jeans" {
		t.Fatalf("unexpected input %+v", svc.lastInput)
	}
}

func TestMessageControllerForwardsIdentity(t *testing.T) {
	svc := &stubChatService{reply: &chat.MessageReply{SessionID: "sess-1"}}
	handler := Message(svc, nil)

	r := httptest.NewRequest("POST", "/api/v1/message", strings.NewReader(`{"message":"hi"}`))
	r = r.WithContext(middleware.WithUserID(r.Context(), "user-42"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if svc.lastInput.UserID != "user-42" {
		t.Fatalf("expected user id forwarded, got %q", svc.lastInput.UserID)
	}
}

func TestMessageControllerRejectsEmptyMessage(t *testing.T) {
	svc := &stubChatService{}
	handler := Message(svc, nil)

	r := httptest.NewRequest("POST", "/api/v1/message", strings.NewReader(`{"message":""}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if svc.lastInput.Message != "" {
		t.Fatal("service must not run for an invalid body")
	}
}

func TestMessageControllerRejectsUnknownFields(t *testing.T) {
	handler := Message(&stubChatService{}, nil)

	r := httptest.NewRequest("POST", "/api/v1/message", strings.NewReader(`{"message":"hi","admin":true}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestMessageControllerMapsServiceErrors(t *testing.T) {
	svc := &stubChatService{err: pkgerrors.New(pkgerrors.CodeDependency, "recommender down")}
	handler := Message(svc, nil)

	r := httptest.NewRequest("POST", "/api/v1/message", strings.NewReader(`{"message":"hi"}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != "DEPENDENCY_ERROR" {
		t.Fatalf("unexpected error code %q", envelope.Error.Code)
	}
}

func TestChatSessionController(t *testing.T) {
	svc := &stubChatService{session: &sessions.Session{ID: "sess-9"}}

	router := chi.NewRouter()
	router.Get("/api/v1/session/{sessionID}", ChatSession(svc, nil))

	r := httptest.NewRequest("GET", "/api/v1/session/sess-9", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var envelope struct {
		Data sessions.Session `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ID != "sess-9" {
		t.Fatalf("unexpected session %+v", envelope.Data)
	}
}

func TestChatSessionControllerNotFound(t *testing.T) {
	svc := &stubChatService{err: pkgerrors.New(pkgerrors.CodeNotFound, "session not found")}

	router := chi.NewRouter()
	router.Get("/api/v1/session/{sessionID}", ChatSession(svc, nil))

	r := httptest.NewRequest("GET", "/api/v1/session/gone", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
