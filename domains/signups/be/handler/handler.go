// Package handler exposes the self-service signup pipeline over HTTP: the
// signup submission endpoint and the public plan listing.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/nimbusdesk/nimbusdesk-saas/domains/signups/be/service"
	"github.com/nimbusdesk/nimbusdesk-saas/platform/go/httpapi"
	"github.com/nimbusdesk/nimbusdesk-saas/platform/go/identity"
	platformlogging "github.com/nimbusdesk/nimbusdesk-saas/platform/go/logging"
	"github.com/nimbusdesk/nimbusdesk-saas/platform/go/tenant"
)

// Handler wires the signups service to HTTP.
type Handler struct {
	svc    *service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc *service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("signups service is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// Register adds the signup endpoints to the given router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/signups", h.Create)
	r.Get("/plans", h.ListPlans)
}

// Routes mounts the signup endpoints on a fresh router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	h.Register(r)
	return r
}

// SignupRequest is the signup form payload.
type SignupRequest struct {
	CompanyName string          `json:"company_name"`
	Slug        string          `json:"slug,omitempty"`
	Email       string          `json:"email"`
	Password    string          `json:"password"`
	FirstName   string          `json:"first_name,omitempty"`
	LastName    string          `json:"last_name,omitempty"`
	Phone       string          `json:"phone,omitempty"`
	Settings    json.RawMessage `json:"settings,omitempty"`
}

// SignupResponse is the body of a successful provisioning run.
type SignupResponse struct {
	SignupID  string `json:"signup_id"`
	TenantID  string `json:"tenant_id"`
	Slug      string `json:"slug"`
	PortalURL string `json:"portal_url"`
}

// Create runs the provisioning pipeline for a signup submission.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.WriteProblem(w, httpapi.NewProblem(
			"Invalid request body", http.StatusBadRequest, httpapi.ProblemTypeValidation,
			"request body must be a JSON signup object", ""))
		return
	}

	if req.CompanyName == "" || req.Email == "" || req.Password == "" {
		httpapi.WriteProblem(w, httpapi.NewProblem(
			"Validation failed", http.StatusBadRequest, httpapi.ProblemTypeValidation,
			"company_name, email, and password are required", ""))
		return
	}

	result, err := h.svc.Provision(r.Context(), service.SignupData{
		CompanyName: req.CompanyName,
		Slug:        req.Slug,
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Phone:       req.Phone,
		Settings:    req.Settings,
	})
	if err != nil {
		h.writeProvisionError(w, r, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusCreated, SignupResponse{
		SignupID:  result.SignupID.String(),
		TenantID:  result.TenantID.String(),
		Slug:      result.Slug,
		PortalURL: result.PortalURL,
	})
}

func (h *Handler) writeProvisionError(w http.ResponseWriter, r *http.Request, err error) {
	logger := platformlogging.FromRequest(r, h.logger)

	var perr *service.Error
	if !errors.As(err, &perr) {
		logger.Error("signup failed", zap.Error(err))
		httpapi.WriteProblem(w, httpapi.NewProblem(
			"Internal server error", http.StatusInternalServerError, httpapi.ProblemTypeInternal,
			"an unexpected error occurred", ""))
		return
	}

	switch perr.Reason {
	case tenant.ReasonInvalidSlug, tenant.ReasonInvalidSettings:
		httpapi.WriteProblem(w, httpapi.NewProblem(
			"Validation failed", http.StatusBadRequest, httpapi.ProblemTypeValidation,
			perr.Message, string(perr.Reason)))
	case tenant.ReasonReservedOrTaken:
		httpapi.WriteProblem(w, httpapi.NewProblem(
			"Slug unavailable", http.StatusConflict, httpapi.ProblemTypeConflict,
			perr.Message, string(perr.Reason)))
	case tenant.ReasonIdentityFailed:
		if errors.Is(perr, identity.ErrEmailExists) {
			httpapi.WriteProblem(w, httpapi.NewProblem(
				"Email already registered", http.StatusConflict, httpapi.ProblemTypeConflict,
				"an account with this email already exists", string(perr.Reason)))
			return
		}
		logger.Error("identity creation failed", zap.Error(perr))
		httpapi.WriteProblem(w, httpapi.NewProblem(
			"Signup failed", http.StatusBadGateway, httpapi.ProblemTypeInternal,
			perr.Message, string(perr.Reason)))
	default:
		logger.Error("signup failed", zap.Error(perr))
		httpapi.WriteProblem(w, httpapi.NewProblem(
			"Signup failed", http.StatusInternalServerError, httpapi.ProblemTypeInternal,
			perr.Message, string(perr.Reason)))
	}
}

// PlanView is one purchasable plan as exposed by the pricing endpoint.
type PlanView struct {
	ID                string `json:"id"`
	Code              string `json:"code"`
	Name              string `json:"name"`
	DatabaseType      string `json:"database_type"`
	MonthlyPriceCents int    `json:"monthly_price_cents"`
}

// ListPlans returns the active plans, cheapest first.
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.svc.ListPlans(r.Context())
	if err != nil {
		platformlogging.FromRequest(r, h.logger).Error("list plans failed", zap.Error(err))
		httpapi.WriteProblem(w, httpapi.NewProblem(
			"Internal server error", http.StatusInternalServerError, httpapi.ProblemTypeInternal,
			"an unexpected error occurred", ""))
		return
	}

	items := make([]PlanView, 0, len(plans))
	for _, p := range plans {
		items = append(items, PlanView{
			ID:                p.ID.String(),
			Code:              p.Code,
			Name:              p.Name,
			DatabaseType:      string(p.DatabaseType),
			MonthlyPriceCents: p.MonthlyPriceCents,
		})
	}
	httpapi.WriteJSON(w, http.StatusOK, struct {
		Items []PlanView `json:"items"`
	}{Items: items})
}
