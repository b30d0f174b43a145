// Package handlers contains the HTTP handlers for the family tree API.
package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"familytree-backend/application/services"
	"familytree-backend/pkg/common"
	pkgerrors "familytree-backend/pkg/errors"
	"familytree-backend/pkg/utils"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// TreeHandler handles person and tree HTTP requests
type TreeHandler struct {
	service *services.FamilyTreeService
	errors  *pkgerrors.ErrorHandler
	logger  *zap.Logger
}

// NewTreeHandler creates a new tree handler
func NewTreeHandler(service *services.FamilyTreeService, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *TreeHandler {
	return &TreeHandler{
		service: service,
		errors:  errorHandler,
		logger:  logger,
	}
}

// CreatePersonRequest represents the request body for creating a person
type CreatePersonRequest struct {
	ID        string   `json:"id" validate:"required,min=1,max=100"`
	Name      string   `json:"name" validate:"required,min=1,max=200"`
	Gender    string   `json:"gender,omitempty"`
	Avatar    string   `json:"avatar,omitempty"`
	Address   string   `json:"address,omitempty"`
	Level     int      `json:"level" validate:"gte=0"`
	Signature string   `json:"signature,omitempty"`
	Spouse    string   `json:"spouse,omitempty"`
	ParentID  string   `json:"parentId,omitempty"`
	PositionX *float64 `json:"positionX,omitempty"`
	PositionY *float64 `json:"positionY,omitempty"`
}

// UpdatePersonRequest represents the partial update body for a person
type UpdatePersonRequest struct {
	Name      *string  `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Avatar    *string  `json:"avatar,omitempty"`
	Address   *string  `json:"address,omitempty"`
	Level     *int     `json:"level,omitempty" validate:"omitempty,gte=0"`
	Signature *string  `json:"signature,omitempty"`
	Spouse    *string  `json:"spouse,omitempty"`
	PositionX *float64 `json:"positionX,omitempty"`
	PositionY *float64 `json:"positionY,omitempty"`
}

// GetFullTree handles GET /api/family-tree
func (h *TreeHandler) GetFullTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.service.GetFullTree(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, "Family tree retrieved successfully", tree)
}

// GetPerson handles GET /api/family-tree/{id}
func (h *TreeHandler) GetPerson(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("person id is required"))
		return
	}

	person, err := h.service.GetPersonByID(r.Context(), id)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, "Person retrieved successfully", person)
}

// GetDescendants handles GET /api/family-tree/{id}/descendants
func (h *TreeHandler) GetDescendants(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("person id is required"))
		return
	}

	subtree, err := h.service.GetPersonWithDescendants(r.Context(), id)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, "Descendants retrieved successfully", subtree)
}

// CreatePerson handles POST /api/family-tree
func (h *TreeHandler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	var req CreatePersonRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("invalid request body: "+err.Error()))
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError(err.Error()))
		return
	}

	person, err := h.service.CreatePerson(r.Context(), services.CreatePersonInput{
		ID:        req.ID,
		Name:      req.Name,
		Gender:    req.Gender,
		Avatar:    req.Avatar,
		Address:   req.Address,
		Level:     req.Level,
		Signature: req.Signature,
		Spouse:    req.Spouse,
		ParentID:  req.ParentID,
		PositionX: req.PositionX,
		PositionY: req.PositionY,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, "Person created successfully", person)
}

// UpdatePerson handles PATCH /api/family-tree/{id}
func (h *TreeHandler) UpdatePerson(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("person id is required"))
		return
	}

	var req UpdatePersonRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("invalid request body: "+err.Error()))
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError(err.Error()))
		return
	}

	person, err := h.service.UpdatePerson(r.Context(), id, services.UpdatePersonInput{
		Name:      req.Name,
		Avatar:    req.Avatar,
		Address:   req.Address,
		Level:     req.Level,
		Signature: req.Signature,
		Spouse:    req.Spouse,
		PositionX: req.PositionX,
		PositionY: req.PositionY,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, "Person updated successfully", person)
}

// DeletePerson handles DELETE /api/family-tree/{id}
func (h *TreeHandler) DeletePerson(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("person id is required"))
		return
	}

	if err := h.service.DeletePerson(r.Context(), id); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, "Person deleted successfully", nil)
}

// Search handles GET /api/family-tree/search?name=
func (h *TreeHandler) Search(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(r.URL.Query().Get("name"))
	if term == "" {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("query parameter 'name' is required"))
		return
	}

	results, err := h.service.SearchByName(r.Context(), term)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, "Search completed successfully", results)
}

// GetByLevel handles GET /api/family-tree/level/{level}
func (h *TreeHandler) GetByLevel(w http.ResponseWriter, r *http.Request) {
	level, err := strconv.Atoi(chi.URLParam(r, "level"))
	if err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("level must be an integer"))
		return
	}

	persons, err := h.service.GetPersonsByLevel(r.Context(), level)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, "Persons retrieved successfully", persons)
}

// Count handles GET /api/family-tree/count
func (h *TreeHandler) Count(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.GetTotalCount(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, "Count retrieved successfully", map[string]int64{"count": count})
}

// ReloadData handles POST /api/family-tree/reload-data
func (h *TreeHandler) ReloadData(w http.ResponseWriter, r *http.Request) {
	h.logger.Warn("Data reload requested", zap.String("remoteAddr", r.RemoteAddr))

	if err := h.service.ReloadData(r.Context()); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, "Data reloaded successfully", nil)
}

// ResetPositions handles PATCH /api/family-tree/reset-positions
func (h *TreeHandler) ResetPositions(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ResetAllPositions(r.Context()); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, "Positions reset successfully", nil)
}
