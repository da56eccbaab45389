package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/service"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/middleware"
)

type StoreController struct {
	storeService service.StoreService
}

func NewStoreController(storeService service.StoreService) *StoreController {
	return &StoreController{storeService: storeService}
}

type StoreRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Address     string   `json:"address" binding:"required"`
	Lng         *float64 `json:"lng" binding:"required"`
	Lat         *float64 `json:"lat" binding:"required"`
	Photo       string   `json:"photo"`
}

func (r StoreRequest) input() service.StoreInput {
	return service.StoreInput{
		Name:        r.Name,
		Description: r.Description,
		Tags:        r.Tags,
		Address:     r.Address,
		Lng:         *r.Lng,
		Lat:         *r.Lat,
		Photo:       r.Photo,
	}
}

func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil || id == 0 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid ID")
		return 0, false
	}
	return uint(id), true
}

func storePath(slug string) string {
	return "/store/" + slug
}

// ListStores returns one page of stores, newest first
// GET /api/v1/stores?page=
func (ctrl *StoreController) ListStores(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	result, err := ctrl.storeService.ListStores(c.Request.Context(), page)
	if err != nil {
		log.Error("Failed to list stores", err, nil)
		apperrors.InternalError(c, "Failed to fetch stores")
		return
	}

	if result.OutOfRange {
		apperrors.FlashInfo(c,
			fmt.Sprintf("Hey! You asked for page %d. But that doesn't exist. So I put you on page %d", page, result.Page),
			fmt.Sprintf("/stores/page/%d", result.Page))
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetStoreBySlug returns the store and whether the viewer may edit it
// GET /api/v1/stores/:slug
func (ctrl *StoreController) GetStoreBySlug(c *gin.Context) {
	store, err := ctrl.storeService.GetStoreBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrStoreNotFound) {
			apperrors.NotFound(c, apperrors.StoreNotFound, "Store not found")
			return
		}
		middleware.GetLoggerFromContext(c).Error("Failed to fetch store", err, map[string]interface{}{
			"slug": c.Param("slug"),
		})
		apperrors.InternalError(c, "Failed to fetch store")
		return
	}

	viewerID, loggedIn := middleware.GetUserID(c)
	c.JSON(http.StatusOK, gin.H{
		"store":    store,
		"can_edit": loggedIn && viewerID == store.AuthorID,
	})
}

// CreateStore
// POST /api/v1/stores
func (ctrl *StoreController) CreateStore(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Oops you must be logged in to do that!")
		return
	}

	var req StoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid store request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid store data")
		return
	}

	store, err := ctrl.storeService.CreateStore(c.Request.Context(), userID, req.input())
	if err != nil {
		ctrl.respondStoreError(c, err, "create store")
		return
	}

	apperrors.FlashSuccess(c, fmt.Sprintf("Successfully Created %s. Care to leave a review?", store.Name),
		storePath(store.Slug), gin.H{"store": store})
}

// UpdateStore
// PUT /api/v1/stores/:id
func (ctrl *StoreController) UpdateStore(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Oops you must be logged in to do that!")
		return
	}
	storeID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req StoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid store data")
		return
	}

	store, err := ctrl.storeService.UpdateStore(c.Request.Context(), storeID, userID, req.input())
	if err != nil {
		ctrl.respondStoreError(c, err, "update store")
		return
	}

	apperrors.FlashSuccess(c, fmt.Sprintf("Successfully updated %s.", store.Name),
		storePath(store.Slug), gin.H{"store": store})
}

// DeleteStore
// DELETE /api/v1/stores/:id
func (ctrl *StoreController) DeleteStore(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Oops you must be logged in to do that!")
		return
	}
	storeID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.storeService.DeleteStore(c.Request.Context(), storeID, userID); err != nil {
		ctrl.respondStoreError(c, err, "delete store")
		return
	}

	c.Status(http.StatusNoContent)
}

// RemoveStore deletes any store. The route is restricted to administrators.
// DELETE /api/v1/admin/stores/:id
func (ctrl *StoreController) RemoveStore(c *gin.Context) {
	storeID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.storeService.RemoveStore(c.Request.Context(), storeID); err != nil {
		ctrl.respondStoreError(c, err, "remove store")
		return
	}

	c.Status(http.StatusNoContent)
}

// GetStoresByTag lists tag counts along with the stores for the selected tag
// GET /api/v1/tags, /api/v1/tags/:tag
func (ctrl *StoreController) GetStoresByTag(c *gin.Context) {
	result, err := ctrl.storeService.GetStoresByTag(c.Request.Context(), c.Param("tag"))
	if err != nil {
		middleware.GetLoggerFromContext(c).Error("Failed to fetch tags", err, nil)
		apperrors.InternalError(c, "Failed to fetch tags")
		return
	}
	c.JSON(http.StatusOK, result)
}

// SearchStores
// GET /api/v1/search?q=
func (ctrl *StoreController) SearchStores(c *gin.Context) {
	stores, err := ctrl.storeService.SearchStores(c.Request.Context(), c.Query("q"))
	if err != nil {
		middleware.GetLoggerFromContext(c).Error("Store search failed", err, nil)
		apperrors.InternalError(c, "Failed to search stores")
		return
	}
	c.JSON(http.StatusOK, stores)
}

// MapStores returns stores within reach of a point
// GET /api/v1/stores/near?lat=&lng=
func (ctrl *StoreController) MapStores(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
	if latErr != nil || lngErr != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidRange, "lat and lng are required")
		return
	}

	stores, err := ctrl.storeService.FindNearby(c.Request.Context(), lat, lng)
	if err != nil {
		ctrl.respondStoreError(c, err, "find nearby stores")
		return
	}
	c.JSON(http.StatusOK, stores)
}

// TopStores
// GET /api/v1/top
func (ctrl *StoreController) TopStores(c *gin.Context) {
	stores, err := ctrl.storeService.TopStores(c.Request.Context())
	if err != nil {
		middleware.GetLoggerFromContext(c).Error("Failed to fetch top stores", err, nil)
		apperrors.InternalError(c, "Failed to fetch top stores")
		return
	}
	c.JSON(http.StatusOK, gin.H{"stores": stores})
}

func (ctrl *StoreController) respondStoreError(c *gin.Context, err error, operation string) {
	switch {
	case errors.Is(err, service.ErrStoreNotFound):
		apperrors.NotFound(c, apperrors.StoreNotFound, "Store not found")
	case errors.Is(err, service.ErrStoreForbidden):
		apperrors.FlashError(c, http.StatusForbidden, apperrors.AuthzOwnerOnly, "You must own a store in order to edit it!", "/stores")
	case errors.Is(err, service.ErrInvalidStoreInput):
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid store data")
	case errors.Is(err, service.ErrInvalidCoordinates):
		apperrors.BadRequest(c, apperrors.ValidationInvalidRange, "Coordinates are out of range")
	default:
		middleware.GetLoggerFromContext(c).Error("Store operation failed", err, map[string]interface{}{
			"operation": operation,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, operation)
	}
}
