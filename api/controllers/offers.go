package controllers

import (
	"net/http"

	"github.com/retailgenie/orchestrator/api/responses"
	"github.com/retailgenie/orchestrator/internal/offers"
)

// Offers lists the promotions currently available.
func Offers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, offers.All())
	}
}
