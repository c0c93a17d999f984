package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"househunt/internal/metrics"
	"househunt/internal/processor"
	"househunt/internal/queue"
)

// UpdateRatings merges new ratings into a property, recomputes its score
// against the current criteria and stores both. A null value removes a rating.
func (h *Handler) UpdateRatings(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validateRatings(updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	set, _, err := h.criteriaSet()
	if err != nil {
		h.storeError(c, err, "Failed to get criteria")
		return
	}

	previous, err := h.db.MergeRatings(id, updates, set)
	if err != nil {
		h.storeError(c, err, "Failed to update ratings")
		return
	}

	updated, err := h.db.GetProperty(id)
	if err != nil {
		h.storeError(c, err, "Failed to get property")
		return
	}
	breakdown := set.Breakdown(updated.RatingsMap())
	h.observeScore(metrics.SourceRatings, breakdown.Score)

	h.logger.WithFields(logrus.Fields{
		"property_id": id,
		"score":       breakdown.Score,
		"outcome":     breakdown.Outcome,
	}).Info("Property rescored")

	if _, err := h.notifier.NotifyHighScore(c.Request.Context(), *updated, previous, breakdown); err != nil {
		h.logger.WithError(err).WithField("property_id", id).Error("Failed to send high score alert")
	}

	c.JSON(http.StatusOK, h.detail(*updated, set))
}

func (h *Handler) GetBreakdown(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	property, err := h.db.GetProperty(id)
	if err != nil {
		h.storeError(c, err, "Failed to get property")
		return
	}
	set, _, err := h.criteriaSet()
	if err != nil {
		h.storeError(c, err, "Failed to get criteria")
		return
	}

	c.JSON(http.StatusOK, set.Breakdown(property.RatingsMap()))
}

// RescoreAll queues every property for recomputation of its cached score
func (h *Handler) RescoreAll(c *gin.Context) {
	if h.queue == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Rescoring is unavailable"})
		return
	}

	batches, properties, err := processor.EnqueueAll(h.db, h.queue, h.batchSize)
	if err != nil {
		if errors.Is(err, queue.ErrQueueFull) || errors.Is(err, queue.ErrQueueClosed) {
			h.logger.WithError(err).WithField("batches", batches).Warn("Rescore partially queued")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error":   err.Error(),
				"batches": batches,
			})
			return
		}
		h.logger.WithError(err).Error("Failed to queue rescore")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue rescore"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"batches":    batches,
		"properties": properties,
	})
}
