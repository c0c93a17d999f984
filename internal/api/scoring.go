package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"househunt/internal/compare"
	"househunt/internal/metrics"
	"househunt/internal/models"
	"househunt/internal/scoring"
)

// ScoreRequest is an ad-hoc scoring call: criteria and ratings are supplied inline.
type ScoreRequest struct {
	Criteria []ScoreCriterion       `json:"criteria" binding:"dive"`
	Ratings  map[string]interface{} `json:"ratings"`
}

// ScoreCriterion mirrors scoring.Criterion with request binding rules.
type ScoreCriterion struct {
	ID         string                `json:"id" binding:"required"`
	Text       string                `json:"text"`
	Type       scoring.CriterionType `json:"type" binding:"required,criterion_type"`
	Category   string                `json:"category"`
	Weight     int                   `json:"weight"`
	RatingType scoring.RatingType    `json:"rating_type"`
}

// ScoreResponse carries the computed score and the breakdown behind it.
type ScoreResponse struct {
	Score     int               `json:"score"`
	Breakdown scoring.Breakdown `json:"breakdown"`
}

// CompareResponse is the ranked comparison table. Live reports whether rows
// were scored against current criteria or read from cached scores.
type CompareResponse struct {
	Criteria []models.Criterion `json:"criteria"`
	Rows     []compare.Row      `json:"rows"`
	Live     bool               `json:"live"`
}

// Score evaluates ad-hoc criteria and ratings without touching the database
func (h *Handler) Score(c *gin.Context) {
	var req ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	criteria := make([]scoring.Criterion, len(req.Criteria))
	for i, sc := range req.Criteria {
		criteria[i] = scoring.Criterion(sc)
	}
	breakdown := scoring.Split(criteria).Breakdown(req.Ratings)
	h.observeScore(metrics.SourcePreview, breakdown.Score)

	c.JSON(http.StatusOK, ScoreResponse{Score: breakdown.Score, Breakdown: breakdown})
}

// Compare ranks the requested properties, or all of them when ids is empty
func (h *Handler) Compare(c *gin.Context) {
	filter := models.PropertyFilter{}
	if raw := c.Query("ids"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property ID in ids"})
				return
			}
			filter.IDs = append(filter.IDs, id)
		}
	}

	opts := compare.Options{Live: c.DefaultQuery("live", "true") == "true"}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		opts.Limit = limit
	}

	properties, err := h.db.GetAllProperties(filter)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get properties")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get properties"})
		return
	}
	criteria, err := h.db.GetAllCriteria()
	if err != nil {
		h.logger.WithError(err).Error("Failed to get criteria")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get criteria"})
		return
	}

	c.JSON(http.StatusOK, CompareResponse{
		Criteria: criteria,
		Rows:     compare.Rank(properties, criteria, opts),
		Live:     opts.Live,
	})
}
