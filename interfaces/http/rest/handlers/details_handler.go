package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"familytree-backend/application/services"
	"familytree-backend/pkg/common"
	pkgerrors "familytree-backend/pkg/errors"
	"familytree-backend/pkg/utils"
)

// DetailsHandler handles the biographical detail record endpoints
type DetailsHandler struct {
	service *services.FamilyTreeService
	errors  *pkgerrors.ErrorHandler
	logger  *zap.Logger
}

// NewDetailsHandler creates a new details handler
func NewDetailsHandler(service *services.FamilyTreeService, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *DetailsHandler {
	return &DetailsHandler{
		service: service,
		errors:  errorHandler,
		logger:  logger,
	}
}

// DetailsRequest carries the detail-record fields; all optional, only the
// fields present in the body are applied.
type DetailsRequest struct {
	FullName     *string `json:"fullName,omitempty" validate:"omitempty,max=300"`
	NickName     *string `json:"nickName,omitempty" validate:"omitempty,max=100"`
	Title        *string `json:"title,omitempty" validate:"omitempty,max=200"`
	DateOfBirth  *string `json:"dateOfBirth,omitempty"`
	DateOfDeath  *string `json:"dateOfDeath,omitempty"`
	PlaceOfBirth *string `json:"placeOfBirth,omitempty"`
	PlaceOfDeath *string `json:"placeOfDeath,omitempty"`
	Profession   *string `json:"profession,omitempty"`
	Institution  *string `json:"institution,omitempty"`
	Bio          *string `json:"bio,omitempty"`
	Cell         *string `json:"cell,omitempty"`
	Email        *string `json:"email,omitempty" validate:"omitempty,email"`
	Facebook     *string `json:"facebook,omitempty"`
	LinkedIn     *string `json:"linkedIn,omitempty"`
	Website      *string `json:"website,omitempty"`
	AnyOther     *string `json:"anyOther,omitempty"`
}

// SaveDetails handles POST /api/family-tree/{id}/details
func (h *DetailsHandler) SaveDetails(w http.ResponseWriter, r *http.Request) {
	personID := chi.URLParam(r, "id")
	if personID == "" {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("person id is required"))
		return
	}

	var req DetailsRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("invalid request body: "+err.Error()))
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError(err.Error()))
		return
	}

	details, err := h.service.AddOrUpdateDetails(r.Context(), personID, services.DetailsInput{
		FullName:     req.FullName,
		NickName:     req.NickName,
		Title:        req.Title,
		DateOfBirth:  req.DateOfBirth,
		DateOfDeath:  req.DateOfDeath,
		PlaceOfBirth: req.PlaceOfBirth,
		PlaceOfDeath: req.PlaceOfDeath,
		Profession:   req.Profession,
		Institution:  req.Institution,
		Bio:          req.Bio,
		Cell:         req.Cell,
		Email:        req.Email,
		Facebook:     req.Facebook,
		LinkedIn:     req.LinkedIn,
		Website:      req.Website,
		AnyOther:     req.AnyOther,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, "Details saved successfully", details)
}

// GetDetails handles GET /api/family-tree/{id}/details
func (h *DetailsHandler) GetDetails(w http.ResponseWriter, r *http.Request) {
	personID := chi.URLParam(r, "id")
	if personID == "" {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("person id is required"))
		return
	}

	details, err := h.service.GetDetails(r.Context(), personID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, "Details retrieved successfully", details)
}

// DeleteDetails handles DELETE /api/family-tree/{id}/details
func (h *DetailsHandler) DeleteDetails(w http.ResponseWriter, r *http.Request) {
	personID := chi.URLParam(r, "id")
	if personID == "" {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("person id is required"))
		return
	}

	if err := h.service.DeleteDetails(r.Context(), personID); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, "Details deleted successfully", nil)
}
