package web

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"mealplan-subscription/internal/domain/ports/repository"
	"mealplan-subscription/internal/infra/logging"
	"mealplan-subscription/internal/usecase"
)

type Server struct {
	entitlementUC *usecase.EntitlementUseCase
	subUC         *usecase.SubscriptionUseCase
	mealPlanUC    *usecase.MealPlanUseCase
	statsUC       *usecase.StatsUseCase
	planRepo      repository.PlanRepository

	apiKey string
	auth   *AuthManager
	exempt map[string]struct{}
	log    *zerolog.Logger
}

func NewServer(
	entitlementUC *usecase.EntitlementUseCase,
	subUC *usecase.SubscriptionUseCase,
	mealPlanUC *usecase.MealPlanUseCase,
	statsUC *usecase.StatsUseCase,
	planRepo repository.PlanRepository,
	apiKey string,
	auth *AuthManager,
	exemptUserIDs []string,
	logger *zerolog.Logger,
) *Server {
	exempt := make(map[string]struct{}, len(exemptUserIDs))
	for _, id := range exemptUserIDs {
		exempt[id] = struct{}{}
	}
	l := logger.With().Str("component", "WebServer").Logger()
	return &Server{
		entitlementUC: entitlementUC,
		subUC:         subUC,
		mealPlanUC:    mealPlanUC,
		statsUC:       statsUC,
		planRepo:      planRepo,
		apiKey:        apiKey,
		auth:          auth,
		exempt:        exempt,
		log:           &l,
	}
}

// Router builds the full route tree: a user-facing API keyed by the
// X-User-ID header, an admin API behind bearer-key or session auth, and the
// operational endpoints.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/plans", s.plansListHandler())

		r.Group(func(r chi.Router) {
			r.Use(s.requireUser)

			r.Get("/entitlement", s.entitlementHandler())

			r.Post("/subscriptions", s.subscribeHandler())
			r.Post("/subscriptions/confirm", s.confirmHandler())
			r.Get("/subscriptions/active", s.activeSubscriptionHandler())
			r.Delete("/subscriptions", s.cancelHandler())

			r.Post("/meal-plans", s.generateHandler())
			r.Get("/meal-plans", s.listMealPlansHandler())
			r.Put("/meal-plans/{id}/favorite", s.favoriteHandler())
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", s.loginHandler())
			r.Group(func(r chi.Router) {
				r.Use(s.requireAdmin)
				r.Get("/stats", s.statsHandler())
			})
		})
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rid := r.Header.Get("X-Request-ID"); rid != "" {
			r = r.WithContext(logging.WithRequestID(r.Context(), rid))
		}
		next.ServeHTTP(w, r)
	})
}

// requireUser rejects requests that do not identify a user. Identity is
// established upstream (the app's auth proxy); this service trusts the
// forwarded header.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User-ID")
		if userID == "" {
			http.Error(w, "Unauthorized: missing user", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(logging.WithUserID(r.Context(), userID)))
	})
}

// requireAdmin accepts either the configured bearer API key or a valid
// admin session token.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey != "" {
			hdr := r.Header.Get("Authorization")
			parts := strings.Split(hdr, " ")
			if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") && parts[1] == s.apiKey {
				next.ServeHTTP(w, r)
				return
			}
		}
		if s.auth != nil {
			if _, err := s.auth.ParseFromRequest(r); err == nil {
				next.ServeHTTP(w, r)
				return
			}
		}
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	})
}

func (s *Server) callerIdentity(r *http.Request) (userID string, isAdmin, isSpecial bool) {
	userID = r.Header.Get("X-User-ID")
	isAdmin = r.Header.Get("X-User-Role") == "admin"
	_, isSpecial = s.exempt[userID]
	return userID, isAdmin, isSpecial
}
