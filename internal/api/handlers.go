package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"househunt/internal/compare"
	"househunt/internal/database"
	"househunt/internal/geocoding"
	"househunt/internal/geometry"
	"househunt/internal/metrics"
	"househunt/internal/models"
	"househunt/internal/queue"
	"househunt/internal/scoring"
	"househunt/internal/telegram"
)

type Handler struct {
	db        *database.Database
	logger    *logrus.Logger
	geocoder  *geocoding.Geocoder
	queue     *queue.PropertyQueue
	notifier  *telegram.Service
	metrics   *metrics.Metrics
	batchSize int
	// outlives single requests; background geocoding runs under it
	ctx context.Context
}

type PropertyRequest struct {
	URL          string                 `json:"url"`
	Street       string                 `json:"street" binding:"required"`
	Neighborhood string                 `json:"neighborhood"`
	City         string                 `json:"city" binding:"required"`
	PostalCode   string                 `json:"postal_code"`
	PropertyType string                 `json:"property_type"`
	Price        int                    `json:"price" binding:"gte=0"`
	YearBuilt    *int                   `json:"year_built" binding:"omitempty,gte=1000,lte=2100"`
	LivingArea   *int                   `json:"living_area" binding:"omitempty,gt=0"`
	NumRooms     *int                   `json:"num_rooms" binding:"omitempty,gte=0"`
	Status       string                 `json:"status" binding:"omitempty,property_status"`
	Notes        string                 `json:"notes"`
	Latitude     *float64               `json:"latitude" binding:"omitempty,latitude"`
	Longitude    *float64               `json:"longitude" binding:"omitempty,longitude"`
	Ratings      map[string]interface{} `json:"ratings"`
}

func (r PropertyRequest) toModel() models.Property {
	return models.Property{
		URL:          r.URL,
		Street:       r.Street,
		Neighborhood: r.Neighborhood,
		City:         r.City,
		PostalCode:   r.PostalCode,
		PropertyType: r.PropertyType,
		Price:        r.Price,
		YearBuilt:    r.YearBuilt,
		LivingArea:   r.LivingArea,
		NumRooms:     r.NumRooms,
		Status:       r.Status,
		Notes:        r.Notes,
		Latitude:     r.Latitude,
		Longitude:    r.Longitude,
	}
}

// PropertyDetail is a property with its live score next to the cached one
type PropertyDetail struct {
	models.Property
	LiveScore int               `json:"live_score"`
	Stale     bool              `json:"stale"`
	Breakdown scoring.Breakdown `json:"breakdown"`
}

type StatsResponse struct {
	models.PropertyStats
	StaleScores int `json:"stale_scores"`
}

func NewHandler(deps Dependencies) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	ctx := deps.Context
	if ctx == nil {
		ctx = context.Background()
	}
	batchSize := deps.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	return &Handler{
		db:        deps.DB,
		logger:    logger,
		geocoder:  deps.Geocoder,
		queue:     deps.Queue,
		notifier:  deps.Notifier,
		metrics:   deps.Metrics,
		batchSize: batchSize,
		ctx:       ctx,
	}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property ID"})
		return 0, false
	}
	return id, true
}

// storeError answers 404 for missing records and 500 for everything else
func (h *Handler) storeError(c *gin.Context, err error, message string) {
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	h.logger.WithError(err).Error(message)
	c.JSON(http.StatusInternalServerError, gin.H{"error": message})
}

func (h *Handler) criteriaSet() (scoring.CriteriaSet, []models.Criterion, error) {
	criteria, err := h.db.GetAllCriteria()
	if err != nil {
		return scoring.CriteriaSet{}, nil, err
	}
	return models.CriteriaSet(criteria), criteria, nil
}

func (h *Handler) detail(p models.Property, set scoring.CriteriaSet) PropertyDetail {
	breakdown := set.Breakdown(p.RatingsMap())
	return PropertyDetail{
		Property:  p,
		LiveScore: breakdown.Score,
		Stale:     p.Score == nil || *p.Score != breakdown.Score,
		Breakdown: breakdown,
	}
}

func (h *Handler) GetAllProperties(c *gin.Context) {
	filter := models.PropertyFilter{
		City:   c.Query("city"),
		Status: c.Query("status"),
		Sort:   c.DefaultQuery("sort", models.SortScoreDesc),
	}
	if raw := c.Query("min_score"); raw != "" {
		minScore, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid min_score"})
			return
		}
		filter.MinScore = &minScore
	}

	properties, err := h.db.GetAllProperties(filter)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get properties")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get properties"})
		return
	}

	c.JSON(http.StatusOK, properties)
}

func (h *Handler) GetProperty(c *gin.Context) {
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

	c.JSON(http.StatusOK, h.detail(*property, set))
}

func (h *Handler) CreateProperty(c *gin.Context) {
	var req PropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validateRatings(req.Ratings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	property := req.toModel()
	set, _, err := h.criteriaSet()
	if err != nil {
		h.storeError(c, err, "Failed to get criteria")
		return
	}
	if len(req.Ratings) > 0 {
		property.Ratings = models.MergeRatings(nil, req.Ratings)
		score := set.Score(property.RatingsMap())
		now := time.Now()
		property.Score = &score
		property.ScoredAt = &now
		h.observeScore(metrics.SourceRatings, score)
	}

	if err := h.db.CreateProperty(&property); err != nil {
		h.storeError(c, err, "Failed to create property")
		return
	}

	if !property.HasCoordinates() && h.geocoder != nil {
		go h.geocodeProperty(property)
	}

	c.JSON(http.StatusCreated, h.detail(property, set))
}

func (h *Handler) UpdateProperty(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req PropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	property := req.toModel()
	property.ID = id
	if property.Status == "" {
		property.Status = models.StatusInterested
	}
	if err := h.db.UpdateProperty(&property); err != nil {
		h.storeError(c, err, "Failed to update property")
		return
	}

	h.GetProperty(c)
}

func (h *Handler) DeleteProperty(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.db.DeleteProperty(id); err != nil {
		h.storeError(c, err, "Failed to delete property")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) GetPropertyStats(c *gin.Context) {
	stats, err := h.db.GetPropertyStats()
	if err != nil {
		h.logger.WithError(err).Error("Failed to get property stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get property stats"})
		return
	}

	properties, err := h.db.GetAllProperties(models.PropertyFilter{})
	if err != nil {
		h.logger.WithError(err).Error("Failed to get properties")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get property stats"})
		return
	}
	criteria, err := h.db.GetAllCriteria()
	if err != nil {
		h.logger.WithError(err).Error("Failed to get criteria")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get property stats"})
		return
	}

	c.JSON(http.StatusOK, StatsResponse{
		PropertyStats: stats,
		StaleScores:   compare.StaleCount(properties, criteria),
	})
}

func (h *Handler) GetMap(c *gin.Context) {
	properties, err := h.db.GetPropertiesWithCoordinates()
	if err != nil {
		h.logger.WithError(err).Error("Failed to get properties")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get properties"})
		return
	}

	fc := geometry.PropertyFeatures(properties, nil)
	if raw := c.Query("bbox"); raw != "" {
		bound, err := geometry.ParseBBox(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		fc = geometry.PropertyFeatures(properties, &bound)
	}
	if c.Query("districts") == "true" {
		fc.Features = append(fc.Features, geometry.DistrictHulls(properties)...)
	}

	c.JSON(http.StatusOK, fc)
}

func (h *Handler) UpdateCoordinates(c *gin.Context) {
	if h.geocoder == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Geocoding is disabled"})
		return
	}

	result, err := geocoding.UpdateMissingCoordinates(c.Request.Context(), h.db, h.geocoder, h.logger, 10)
	if err != nil {
		h.logger.WithError(err).Error("Failed to update coordinates")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update coordinates"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) geocodeProperty(p models.Property) {
	lat, lon, err := h.geocoder.GeocodeAddress(h.ctx, p.Street, p.PostalCode, p.City)
	if err != nil {
		h.logger.WithError(err).WithField("property_id", p.ID).Warn("Failed to geocode new property")
		if err := h.db.UpdateCoordinates(p.ID, nil, nil); err != nil {
			h.logger.WithError(err).Error("Failed to mark geocoding attempt")
		}
		return
	}
	if err := h.db.UpdateCoordinates(p.ID, &lat, &lon); err != nil {
		h.logger.WithError(err).WithField("property_id", p.ID).Error("Failed to store coordinates")
	}
}

func (h *Handler) observeScore(source string, score int) {
	if h.metrics != nil {
		h.metrics.ObserveScore(source, score)
	}
}
