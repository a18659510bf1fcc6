package stub

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/exotrack/exotrack-console/internal/domain"
	"github.com/exotrack/exotrack-console/internal/infra/observability"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter creates the stub's HTTP router with all routes and middleware.
// The route surface mirrors the production ExoTrack API contract.
func NewRouter(store *Store, issuer *TokenIssuer, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- Auth ---
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", loginHandler(store, issuer, logger))
		r.Post("/register", registerHandler(store, logger))

		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(issuer, store, logger))
			r.Get("/check-auth-status", checkAuthStatusHandler())
			r.Post("/logout", logoutHandler())
		})
	})

	// --- Protected resources ---
	r.Group(func(r chi.Router) {
		r.Use(JWTAuthMiddleware(issuer, store, logger))

		r.Route("/users", func(r chi.Router) {
			r.Use(RequireAdmin(logger))
			r.Get("/", listUsersHandler(store))
			r.Post("/", createUserHandler(store, logger))
			r.Get("/stats", userStatsHandler(store))
			r.Get("/{userId}", getUserHandler(store, logger))
			r.Put("/{userId}", updateUserHandler(store, logger))
			r.Delete("/{userId}", deleteUserHandler(store, logger))
		})

		r.Route("/declarations", func(r chi.Router) {
			r.Get("/", listDeclarationsHandler(store))
			r.Post("/", createDeclarationHandler(store, logger))
			r.Get("/stats", declarationStatsHandler(store, logger))
			r.Get("/recent-activity", recentActivityHandler(store, logger))
			r.Get("/{declarationId}", getDeclarationHandler(store, logger))
			r.Put("/{declarationId}", updateDeclarationHandler(store, logger))
			r.Delete("/{declarationId}", deleteDeclarationHandler(store, logger))
		})

		r.Route("/assets", itemRoutes(store, domain.KindAsset, logger))
		r.Route("/incomes", itemRoutes(store, domain.KindIncome, logger))
		r.Route("/liabilities", itemRoutes(store, domain.KindLiability, logger))
	})

	return r
}

func healthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}
}

// ---- auth handlers ----

func loginHandler(store *Store, issuer *TokenIssuer, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var creds domain.Credentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if creds.DocumentNumber == "" || creds.Password == "" {
			writeValidationError(w, []string{
				"documentNumber must not be empty",
				"password must not be empty",
			})
			return
		}

		user, err := store.Authenticate(creds.DocumentNumber, creds.Password)
		if err != nil {
			handleStoreError(w, err, logger)
			return
		}

		token, err := issuer.Issue(user)
		if err != nil {
			handleStoreError(w, err, logger)
			return
		}

		logger.Info("login", zap.String("user_id", user.ID))
		writeJSON(w, http.StatusOK, map[string]any{
			"id":       user.ID,
			"fullName": user.FullName,
			"role":     user.Role,
			"token":    token,
		})
	}
}

func registerHandler(store *Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		user, err := store.CreateUser(domain.CreateUserRequest{
			DocumentNumber: req.DocumentNumber,
			FullName:       req.FullName,
			Email:          req.Email,
			PhoneNumber:    req.PhoneNumber,
			Password:       req.Password,
			Role:           domain.RoleUser,
		})
		if err != nil {
			handleStoreError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, user)
	}
}

func checkAuthStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, SessionUserFromContext(r.Context()))
	}
}

func logoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Stateless tokens: nothing to revoke server-side.
		writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
	}
}

// ---- user handlers ----

func listUsersHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := parsePageQuery(r)
		users, total := store.ListUsers(limit, offset)
		writeJSON(w, http.StatusOK, pageEnvelope{Data: users, Total: total, Limit: limit, Offset: offset})
	}
}

func createUserHandler(store *Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.CreateUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		user, err := store.CreateUser(req)
		if err != nil {
			handleStoreError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, user)
	}
}

func getUserHandler(store *Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := store.GetUser(chi.URLParam(r, "userId"))
		if err != nil {
			handleStoreError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

func updateUserHandler(store *Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			FullName    string `json:"fullName"`
			Email       string `json:"email"`
			PhoneNumber string `json:"phoneNumber"`
			IsActive    bool   `json:"isActive"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		user, err := store.UpdateUser(chi.URLParam(r, "userId"), req.FullName, req.Email, req.PhoneNumber, req.IsActive)
		if err != nil {
			handleStoreError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

func deleteUserHandler(store *Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteUser(chi.URLParam(r, "userId")); err != nil {
			handleStoreError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func userStatsHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, store.UserStats())
	}
}

// ---- declaration handlers ----

func listDeclarationsHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := parsePageQuery(r)
		userID := r.URL.Query().Get("userId")

		// Customers only ever see their own declarations.
		if session := SessionUserFromContext(r.Context()); session != nil && session.Role != domain.RoleAdmin {
			userID = session.ID
		}

		decls, total := store.ListDeclarations(limit, offset, userID)
		writeJSON(w, http.StatusOK, pageEnvelope{Data: decls, Total: total, Limit: limit, Offset: offset})
	}
}

func createDeclarationHandler(store *Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.CreateDeclarationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		decl, err := store.CreateDeclaration(req)
		if err != nil {
			handleStoreError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, decl)
	}
}

func getDeclarationHandler(store *Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		decl, err := store.GetDeclaration(chi.URLParam(r, "declarationId"))
		if err != nil {
			handleStoreError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, decl)
	}
}

func updateDeclarationHandler(store *Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Status      domain.DeclarationStatus `json:"status"`
			Description string                   `json:"description"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeValidationError(w, []string{"status must be one of PENDING, COMPLETED"})
			return
		}
		decl, err := store.UpdateDeclaration(chi.URLParam(r, "declarationId"), req.Status, req.Description)
		if err != nil {
			handleStoreError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, decl)
	}
}

func deleteDeclarationHandler(store *Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteDeclaration(chi.URLParam(r, "declarationId")); err != nil {
			handleStoreError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func declarationStatsHandler(store *Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, store.DeclarationStats())
	}
}

func recentActivityHandler(store *Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 10
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}
		writeJSON(w, http.StatusOK, store.RecentActivity(limit))
	}
}

// ---- line item handlers ----

// itemRoutes builds the identical CRUD surface for one line-item collection.
func itemRoutes(store *Store, kind domain.ItemKind, logger *zap.Logger) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			limit, offset := parsePageQuery(req)
			items, total := store.ListItems(kind, limit, offset, req.URL.Query().Get("declarationId"))
			writeJSON(w, http.StatusOK, pageEnvelope{Data: toItemViews(items), Total: total, Limit: limit, Offset: offset})
		})
		r.Post("/", func(w http.ResponseWriter, req *http.Request) {
			var body domain.CreateLineItemRequest
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeValidationError(w, []string{"amount must be a number or a numeric string"})
				return
			}
			item, err := store.CreateItem(kind, body)
			if err != nil {
				handleStoreError(w, err, logger)
				return
			}
			writeJSON(w, http.StatusCreated, toItemView(*item))
		})
		r.Get("/{itemId}", func(w http.ResponseWriter, req *http.Request) {
			item, err := store.GetItem(kind, chi.URLParam(req, "itemId"))
			if err != nil {
				handleStoreError(w, err, logger)
				return
			}
			writeJSON(w, http.StatusOK, toItemView(*item))
		})
		r.Put("/{itemId}", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Concept string        `json:"concept"`
				Amount  domain.Amount `json:"amount"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeValidationError(w, []string{"amount must be a number or a numeric string"})
				return
			}
			item, err := store.UpdateItem(kind, chi.URLParam(req, "itemId"), body.Concept, body.Amount)
			if err != nil {
				handleStoreError(w, err, logger)
				return
			}
			writeJSON(w, http.StatusOK, toItemView(*item))
		})
		r.Delete("/{itemId}", func(w http.ResponseWriter, req *http.Request) {
			if err := store.DeleteItem(kind, chi.URLParam(req, "itemId")); err != nil {
				handleStoreError(w, err, logger)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	}
}
