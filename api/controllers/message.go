package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/retailgenie/orchestrator/api/middleware"
	"github.com/retailgenie/orchestrator/api/responses"
	"github.com/retailgenie/orchestrator/api/validators"
	"github.com/retailgenie/orchestrator/internal/chat"
	pkgerrors "github.com/retailgenie/orchestrator/pkg/errors"
	"github.com/retailgenie/orchestrator/pkg/logger"
)

type messageRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message" validate:"required,min=1,max=2000"`
}

// Message handles one chat turn. Anonymous callers get a fresh session;
// signed-in callers additionally get nearby-store enrichment.
func Message(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "chat service unavailable"))
			return
		}

		var body messageRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reply, err := svc.HandleMessage(r.Context(), chat.MessageInput{
			SessionID: body.SessionID,
			Message:   body.Message,
			UserID:    middleware.UserIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, reply)
	}
}

// ChatSession returns the stored conversation for a session id.
func ChatSession(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "chat service unavailable"))
			return
		}

		session, err := svc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, session)
	}
}
