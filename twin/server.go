/*
server.go - The twin's GraphQL endpoint

PURPOSE:
  Serves the subset of the commerce platform's GraphQL contract the
  loyalty engine uses. Operations are dispatched by the operation name
  embedded in the query document; the twin does not implement a general
  GraphQL executor.

OPERATIONS:
  CustomerLoyalty              metafield read by customer access token
  SetCustomerLoyalty           metafield write by customer access token
  InitCustomerLoyalty          metafield seed by admin token

ADMIN SURFACE:
  POST /admin/customers seeds a customer {id, access_token, email} so a
  local storefront can log in against the twin. Guarded by the same
  admin token as the initialization mutation.
*/
package twin

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/meridian/loyalty-engine/platform"
)

// Server is the twin's HTTP surface.
type Server struct {
	store      *Store
	adminToken string
	log        *zap.Logger
}

// NewServer creates a twin server around a store.
func NewServer(store *Store, adminToken string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{store: store, adminToken: adminToken, log: log}
}

// Router returns the twin's routes.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Post("/graphql", s.handleGraphQL)
	r.Post("/admin/customers", s.handleSeedCustomer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

type graphqlRequest struct {
	Query     string                     `json:"query"`
	Variables map[string]json.RawMessage `json:"variables"`
}

func (s *Server) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	var req graphqlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeGraphQLErrors(w, "invalid request body")
		return
	}

	switch {
	case strings.Contains(req.Query, "customerMetafieldsInitialize"):
		s.initMetafields(w, r, req)
	case strings.Contains(req.Query, "customerMetafieldsSet"):
		s.setMetafields(w, r, req)
	case strings.Contains(req.Query, "customer("):
		s.readCustomer(w, r, req)
	default:
		writeGraphQLErrors(w, "unsupported operation")
	}
}

func (s *Server) readCustomer(w http.ResponseWriter, r *http.Request, req graphqlRequest) {
	var token, namespace string
	var keys []string
	decodeVar(req.Variables, "token", &token)
	decodeVar(req.Variables, "namespace", &namespace)
	decodeVar(req.Variables, "keys", &keys)

	customerID, err := s.store.CustomerIDByToken(r.Context(), token)
	if err != nil {
		writeGraphQLErrors(w, err.Error())
		return
	}
	if customerID == "" {
		writeGraphQLData(w, map[string]any{"customer": nil})
		return
	}

	fields, err := s.store.GetMetafields(r.Context(), customerID, namespace, keys)
	if err != nil {
		writeGraphQLErrors(w, err.Error())
		return
	}
	if fields == nil {
		fields = []platform.Metafield{}
	}

	writeGraphQLData(w, map[string]any{
		"customer": map[string]any{
			"id":         customerID,
			"metafields": fields,
		},
	})
}

func (s *Server) setMetafields(w http.ResponseWriter, r *http.Request, req graphqlRequest) {
	var token string
	var inputs []platform.MetafieldInput
	decodeVar(req.Variables, "token", &token)
	decodeVar(req.Variables, "metafields", &inputs)

	customerID, err := s.store.CustomerIDByToken(r.Context(), token)
	if err != nil {
		writeGraphQLErrors(w, err.Error())
		return
	}
	if customerID == "" {
		writeGraphQLData(w, map[string]any{"customerMetafieldsSet": nil})
		return
	}

	userErrors := s.store.SetMetafields(r.Context(), customerID, inputs)
	writeGraphQLData(w, map[string]any{
		"customerMetafieldsSet": map[string]any{
			"userErrors": orEmpty(userErrors),
		},
	})
}

func (s *Server) initMetafields(w http.ResponseWriter, r *http.Request, req graphqlRequest) {
	if r.Header.Get("X-Admin-Token") != s.adminToken {
		writeGraphQLErrors(w, "admin token required")
		return
	}

	var customerID string
	var inputs []platform.MetafieldInput
	decodeVar(req.Variables, "customerId", &customerID)
	decodeVar(req.Variables, "metafields", &inputs)

	exists, err := s.store.CustomerExists(r.Context(), customerID)
	if err != nil {
		writeGraphQLErrors(w, err.Error())
		return
	}
	if !exists {
		writeGraphQLData(w, map[string]any{"customerMetafieldsInitialize": nil})
		return
	}

	userErrors := s.store.SetMetafields(r.Context(), customerID, inputs)
	writeGraphQLData(w, map[string]any{
		"customerMetafieldsInitialize": map[string]any{
			"userErrors": orEmpty(userErrors),
		},
	})
}

func (s *Server) handleSeedCustomer(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-Admin-Token") != s.adminToken {
		http.Error(w, "admin token required", http.StatusUnauthorized)
		return
	}

	var req struct {
		ID          string `json:"id"`
		AccessToken string `json:"access_token"`
		Email       string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" || req.AccessToken == "" {
		http.Error(w, "id and access_token are required", http.StatusBadRequest)
		return
	}

	if err := s.store.SeedCustomer(r.Context(), req.ID, req.AccessToken, req.Email); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	s.log.Info("customer seeded", zap.String("customer_id", req.ID))
	w.WriteHeader(http.StatusCreated)
}

// =============================================================================
// HELPERS
// =============================================================================

func decodeVar(vars map[string]json.RawMessage, name string, dst any) {
	if raw, ok := vars[name]; ok {
		json.Unmarshal(raw, dst)
	}
}

func orEmpty(errs []platform.UserError) []platform.UserError {
	if errs == nil {
		return []platform.UserError{}
	}
	return errs
}

func writeGraphQLData(w http.ResponseWriter, data map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func writeGraphQLErrors(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"errors": []map[string]string{{"message": message}},
	})
}
