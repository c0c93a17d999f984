package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"househunt/internal/database"
	"househunt/internal/models"
	"househunt/internal/scoring"
)

type CriteriaHandler struct {
	db     *database.Database
	logger *logrus.Logger
}

type CriterionRequest struct {
	Text       string                `json:"text" binding:"required,max=200"`
	Type       scoring.CriterionType `json:"type" binding:"required,criterion_type"`
	Category   string                `json:"category"`
	Weight     *int                  `json:"weight"`
	RatingType *scoring.RatingType   `json:"rating_type"`
	Position   int                   `json:"position"`
}

func (r CriterionRequest) toModel(id string) models.Criterion {
	return models.Criterion{
		ID:         id,
		Text:       r.Text,
		Type:       r.Type,
		Category:   r.Category,
		Weight:     r.Weight,
		RatingType: r.RatingType,
		Position:   r.Position,
	}
}

func NewCriteriaHandler(db *database.Database, logger *logrus.Logger) *CriteriaHandler {
	return &CriteriaHandler{
		db:     db,
		logger: logger,
	}
}

// ListCriteria returns all criteria ordered by type and position
func (h *CriteriaHandler) ListCriteria(c *gin.Context) {
	criteria, err := h.db.GetAllCriteria()
	if err != nil {
		h.logger.WithError(err).Error("Failed to get criteria")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get criteria"})
		return
	}
	c.JSON(http.StatusOK, criteria)
}

// CreateCriterion creates a new criterion. Weight and rating type are
// defaulted or cleared to match the criterion type.
func (h *CriteriaHandler) CreateCriterion(c *gin.Context) {
	var req CriterionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	criterion := req.toModel("")
	if err := h.db.CreateCriterion(&criterion); err != nil {
		h.logger.WithError(err).Error("Failed to create criterion")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create criterion"})
		return
	}

	c.JSON(http.StatusCreated, criterion)
}

// UpdateCriterion replaces a criterion. Cached property scores are not
// recomputed.
func (h *CriteriaHandler) UpdateCriterion(c *gin.Context) {
	var req CriterionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	criterion := req.toModel(c.Param("id"))
	if err := h.db.UpdateCriterion(&criterion); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Criterion not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to update criterion")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update criterion"})
		return
	}

	updated, err := h.db.GetCriterion(criterion.ID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get criterion")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get criterion"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteCriterion deletes a criterion. Ratings stored against it are kept.
func (h *CriteriaHandler) DeleteCriterion(c *gin.Context) {
	if err := h.db.DeleteCriterion(c.Param("id")); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Criterion not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to delete criterion")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete criterion"})
		return
	}

	c.Status(http.StatusNoContent)
}
