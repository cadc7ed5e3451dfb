package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fittrack/backend/internal/domain"
	"github.com/fittrack/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	aggregator *usecase.Aggregator
	diary      *usecase.Diary
}

// NewHandler creates a new HTTP handler
func NewHandler(aggregator *usecase.Aggregator, diary *usecase.Diary) *Handler {
	return &Handler{
		aggregator: aggregator,
		diary:      diary,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "fittrack-backend",
		"version": "1.0.0",
	})
}

// SearchFood handles GET /food/search?q=...&limit=...
func (h *Handler) SearchFood(c *gin.Context) {
	query := c.Query("q")

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
			return
		}
		limit = parsed
	}

	result, err := h.aggregator.Search(c.Request.Context(), query, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// SearchByBarcode handles GET /food/barcode/:barcode
func (h *Handler) SearchByBarcode(c *gin.Context) {
	item, err := h.aggregator.SearchBarcode(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// AddCustomFood handles POST /food/custom
func (h *Handler) AddCustomFood(c *gin.Context) {
	var req domain.CustomFoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	item, err := h.aggregator.AddCustomFood(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, item)
}

// entryRequest is the wire shape for creating a diary entry.
type entryRequest struct {
	FoodName     string   `json:"food_name"`
	BrandName    *string  `json:"brand_name"`
	Calories     *float64 `json:"calories"`
	ProteinG     float64  `json:"protein_g"`
	CarbsG       float64  `json:"carbs_g"`
	FatG         float64  `json:"fat_g"`
	Quantity     float64  `json:"quantity"`
	Unit         string   `json:"unit"`
	MealType     *string  `json:"meal_type"`
	EntryDate    string   `json:"entry_date"`
	FoodMasterID *uint    `json:"food_master_id"`
}

// entryUpdateRequest is the wire shape for a partial entry update.
type entryUpdateRequest struct {
	FoodName  *string  `json:"food_name"`
	BrandName *string  `json:"brand_name"`
	Calories  *float64 `json:"calories"`
	ProteinG  *float64 `json:"protein_g"`
	CarbsG    *float64 `json:"carbs_g"`
	FatG      *float64 `json:"fat_g"`
	Quantity  *float64 `json:"quantity"`
	Unit      *string  `json:"unit"`
	MealType  *string  `json:"meal_type"`
	EntryDate *string  `json:"entry_date"`
}

// CreateEntry handles POST /food/entries
func (h *Handler) CreateEntry(c *gin.Context) {
	var req entryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	entryDate, err := parseDate(req.EntryDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "entry_date must be YYYY-MM-DD"})
		return
	}

	entry, err := h.diary.Log(c.Request.Context(), currentUserID(c), &usecase.EntryInput{
		FoodName:     req.FoodName,
		BrandName:    req.BrandName,
		Calories:     req.Calories,
		ProteinG:     req.ProteinG,
		CarbsG:       req.CarbsG,
		FatG:         req.FatG,
		Quantity:     req.Quantity,
		Unit:         req.Unit,
		MealType:     req.MealType,
		EntryDate:    entryDate,
		FoodMasterID: req.FoodMasterID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// ListEntries handles GET /food/entries?date=YYYY-MM-DD
func (h *Handler) ListEntries(c *gin.Context) {
	var date *time.Time
	if raw := c.Query("date"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		date = &parsed
	}

	entries, err := h.diary.List(c.Request.Context(), currentUserID(c), date)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}

// GetEntry handles GET /food/entries/:id
func (h *Handler) GetEntry(c *gin.Context) {
	entryID, ok := entryIDParam(c)
	if !ok {
		return
	}

	entry, err := h.diary.Get(c.Request.Context(), currentUserID(c), entryID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

// UpdateEntry handles PUT /food/entries/:id
func (h *Handler) UpdateEntry(c *gin.Context) {
	entryID, ok := entryIDParam(c)
	if !ok {
		return
	}

	var req entryUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	update := &usecase.EntryUpdate{
		FoodName:  req.FoodName,
		BrandName: req.BrandName,
		Calories:  req.Calories,
		ProteinG:  req.ProteinG,
		CarbsG:    req.CarbsG,
		FatG:      req.FatG,
		Quantity:  req.Quantity,
		Unit:      req.Unit,
		MealType:  req.MealType,
	}
	if req.EntryDate != nil {
		parsed, err := parseDate(*req.EntryDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "entry_date must be YYYY-MM-DD"})
			return
		}
		update.EntryDate = &parsed
	}

	entry, err := h.diary.Update(c.Request.Context(), currentUserID(c), entryID, update)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

// DeleteEntry handles DELETE /food/entries/:id
func (h *Handler) DeleteEntry(c *gin.Context) {
	entryID, ok := entryIDParam(c)
	if !ok {
		return
	}

	if err := h.diary.Delete(c.Request.Context(), currentUserID(c), entryID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// DailySummary handles GET /food/summary?date=YYYY-MM-DD (defaults to today)
func (h *Handler) DailySummary(c *gin.Context) {
	date := time.Now().UTC()
	if raw := c.Query("date"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		date = parsed
	}

	summary, err := h.diary.Summary(c.Request.Context(), currentUserID(c), date)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func entryIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "entry id must be a positive integer"})
		return 0, false
	}
	return uint(id), true
}

func parseDate(raw string) (time.Time, error) {
	return time.Parse("2006-01-02", raw)
}

// respondError maps domain errors onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrQueryTooShort), errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrFoodNotFound), errors.Is(err, domain.ErrEntryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service temporarily unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
