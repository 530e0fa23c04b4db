package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"mealplan-subscription/internal/domain"
	"mealplan-subscription/internal/domain/model"
	"mealplan-subscription/internal/domain/ports/adapter"
	"mealplan-subscription/internal/domain/ports/repository"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeDomainError maps domain sentinels onto HTTP statuses. Anything not
// recognized is a 500 with a generic body.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		http.Error(w, "Invalid request", http.StatusBadRequest)
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrTrialExpired):
		writeJSON(w, http.StatusPaymentRequired, map[string]string{
			"error": "trial expired; a subscription is required",
		})
	case errors.Is(err, domain.ErrGenerationLimitReached):
		writeJSON(w, http.StatusForbidden, map[string]string{
			"error": "trial generation limit reached",
		})
	case errors.Is(err, domain.ErrActiveSubscriptionExists):
		http.Error(w, "An active subscription already exists", http.StatusConflict)
	case errors.Is(err, domain.ErrNoActiveSubscription):
		http.Error(w, "No active subscription", http.StatusNotFound)
	case errors.Is(err, domain.ErrUnknownPaymentIntent):
		http.Error(w, "Unknown payment intent", http.StatusNotFound)
	case errors.Is(err, domain.ErrPaymentDeclined):
		http.Error(w, "Payment declined", http.StatusPaymentRequired)
	default:
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}

func (s *Server) entitlementHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, isAdmin, isSpecial := s.callerIdentity(r)
		ent, err := s.entitlementUC.Evaluate(r.Context(), userID, isAdmin, isSpecial)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ent)
	}
}

type subscribeRequest struct {
	PlanID string `json:"plan_id"`
}

func (s *Server) subscribeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req subscribeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		userID, _, _ := s.callerIdentity(r)

		sub, intent, err := s.subUC.Subscribe(r.Context(), userID, req.PlanID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		response := struct {
			Subscription *model.Subscription  `json:"subscription"`
			Intent       *model.PaymentIntent `json:"payment_intent,omitempty"`
		}{
			Subscription: sub,
			Intent:       intent,
		}
		writeJSON(w, http.StatusCreated, response)
	}
}

type confirmRequest struct {
	PaymentIntentID string `json:"payment_intent_id"`
}

func (s *Server) confirmHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req confirmRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		sub, err := s.subUC.ConfirmCheckout(r.Context(), req.PaymentIntentID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sub)
	}
}

func (s *Server) activeSubscriptionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, _ := s.callerIdentity(r)
		sub, err := s.subUC.GetActiveSubscription(r.Context(), userID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sub)
	}
}

func (s *Server) cancelHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, _ := s.callerIdentity(r)
		sub, err := s.subUC.Cancel(r.Context(), userID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sub)
	}
}

type generateRequest struct {
	Goal         string `json:"goal"`
	Restrictions string `json:"dietary_restriction"`
	Allergies    string `json:"allergies"`
	Favorites    string `json:"favorite_foods"`
	Avoid        string `json:"disliked_foods"`
	MealsPerDay  int    `json:"meals_per_day"`
}

func (s *Server) generateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		userID, isAdmin, isSpecial := s.callerIdentity(r)

		plan, err := s.mealPlanUC.Generate(r.Context(), userID, isAdmin, isSpecial, adapter.MealPlanRequest{
			Goal:         req.Goal,
			Restrictions: req.Restrictions,
			Allergies:    req.Allergies,
			Favorites:    req.Favorites,
			Avoid:        req.Avoid,
			MealsPerDay:  req.MealsPerDay,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, plan)
	}
}

func (s *Server) listMealPlansHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, _ := s.callerIdentity(r)
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		plans, err := s.mealPlanUC.ListPlans(r.Context(), userID, limit)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		response := struct {
			Data []*model.MealPlan `json:"data"`
		}{Data: plans}
		writeJSON(w, http.StatusOK, response)
	}
}

type favoriteRequest struct {
	Favorite bool `json:"favorite"`
}

func (s *Server) favoriteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req favoriteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		userID, _, _ := s.callerIdentity(r)
		id := chi.URLParam(r, "id")

		if err := s.mealPlanUC.SetFavorite(r.Context(), userID, id, req.Favorite); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) plansListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plans, err := s.planRepo.ListAll(r.Context(), repository.NoTX)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		response := struct {
			Data []*model.Plan `json:"data"`
		}{Data: plans}
		writeJSON(w, http.StatusOK, response)
	}
}

type loginRequest struct {
	APIKey string `json:"api_key"`
}

func (s *Server) loginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if s.apiKey == "" || req.APIKey != s.apiKey {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		token, err := s.auth.Mint(w)
		if err != nil {
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"token": token})
	}
}

func (s *Server) statsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := s.statsUC.SubscriptionCounts(r.Context())
		if err != nil {
			http.Error(w, "Failed to get stats", http.StatusInternalServerError)
			return
		}
		response := struct {
			SubscriptionsByStatus map[model.SubscriptionStatus]int `json:"subscriptions_by_status"`
		}{SubscriptionsByStatus: counts}
		writeJSON(w, http.StatusOK, response)
	}
}
