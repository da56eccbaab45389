package controller

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/app/service"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/middleware"
	"github.com/ikkim/storefront-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type storeFixture struct {
	router *gin.Engine
	db     *gorm.DB
}

func setupStoreControllerTest(t *testing.T) *storeFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	testDB := setupTestDB(t)
	storeRepo := repository.NewStoreRepository(testDB)
	storeCtrl := NewStoreController(service.NewStoreService(storeRepo))
	reviewCtrl := NewReviewController(service.NewReviewService(repository.NewReviewRepository(testDB), storeRepo))
	authMiddleware := middleware.NewAuthMiddleware(testJWTSecret, nil)

	router := gin.New()
	router.GET("/stores", storeCtrl.ListStores)
	router.GET("/stores/near", storeCtrl.MapStores)
	router.GET("/stores/:slug", authMiddleware.OptionalAuthenticate(), storeCtrl.GetStoreBySlug)
	router.POST("/stores", authMiddleware.Authenticate(), storeCtrl.CreateStore)
	router.PUT("/stores/:id", authMiddleware.Authenticate(), storeCtrl.UpdateStore)
	router.DELETE("/stores/:id", authMiddleware.Authenticate(), storeCtrl.DeleteStore)
	router.GET("/tags", storeCtrl.GetStoresByTag)
	router.GET("/tags/:tag", storeCtrl.GetStoresByTag)
	router.GET("/search", storeCtrl.SearchStores)
	router.GET("/top", storeCtrl.TopStores)
	router.POST("/reviews/:id", authMiddleware.Authenticate(), reviewCtrl.AddReview)
	router.DELETE("/admin/stores/:id", authMiddleware.Authenticate(), authMiddleware.RequireRole(model.RoleAdmin), storeCtrl.RemoveStore)

	return &storeFixture{router: router, db: testDB}
}

func (f *storeFixture) login(t *testing.T, email string) (*model.User, string) {
	t.Helper()
	return f.loginAs(t, email, model.RoleUser)
}

func (f *storeFixture) loginAs(t *testing.T, email string, role model.UserRole) (*model.User, string) {
	t.Helper()
	user := &model.User{Email: email, Name: email, Role: role}
	require.NoError(t, user.SetPassword("password123"))
	require.NoError(t, f.db.Create(user).Error)

	tokens, err := util.GenerateTokenPair(user.ID, user.Email, string(user.Role), testJWTSecret, time.Hour, time.Hour)
	require.NoError(t, err)
	return user, tokens.AccessToken
}

func storeBody(name string, tags ...string) gin.H {
	return gin.H{
		"name":        name,
		"description": "About " + name,
		"tags":        tags,
		"address":     "100 Queen St W, Toronto",
		"lat":         43.6532,
		"lng":         -79.3832,
	}
}

func createdStore(t *testing.T, body []byte) model.Store {
	t.Helper()
	var resp struct {
		Data struct {
			Store model.Store `json:"store"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp.Data.Store
}

func (f *storeFixture) create(t *testing.T, token, name string, tags ...string) model.Store {
	t.Helper()
	w := doJSON(t, f.router, http.MethodPost, "/stores", storeBody(name, tags...), token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return createdStore(t, w.Body.Bytes())
}

func TestStoreController_CreateStore(t *testing.T) {
	f := setupStoreControllerTest(t)
	_, token := f.login(t, "owner@example.com")

	w := doJSON(t, f.router, http.MethodPost, "/stores", storeBody("Wes Bos Coffee", "Wifi"), token)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeFlash(t, w)
	assert.Equal(t, apperrors.FlashTypeSuccess, resp.Flash.Type)
	assert.Equal(t, "/store/wes-bos-coffee", resp.Redirect)

	second := f.create(t, token, "Wes Bos Coffee")
	assert.Equal(t, "wes-bos-coffee-2", second.Slug)

	t.Run("Requires login", func(t *testing.T) {
		w := doJSON(t, f.router, http.MethodPost, "/stores", storeBody("Anon"), "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "/login", decodeFlash(t, w).Redirect)
	})

	t.Run("Missing coordinates", func(t *testing.T) {
		body := storeBody("No Coords")
		delete(body, "lat")
		w := doJSON(t, f.router, http.MethodPost, "/stores", body, token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Name without slug characters", func(t *testing.T) {
		w := doJSON(t, f.router, http.MethodPost, "/stores", storeBody("!!!"), token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestStoreController_UpdateStore(t *testing.T) {
	f := setupStoreControllerTest(t)
	_, ownerToken := f.login(t, "owner@example.com")
	_, otherToken := f.login(t, "other@example.com")
	store := f.create(t, ownerToken, "Corner Store", "Family Friendly")

	path := fmt.Sprintf("/stores/%d", store.ID)

	t.Run("Other user forbidden", func(t *testing.T) {
		w := doJSON(t, f.router, http.MethodPut, path, storeBody("Hijacked"), otherToken)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, apperrors.AuthzOwnerOnly, decodeFlash(t, w).Error)
	})

	t.Run("Owner renames", func(t *testing.T) {
		w := doJSON(t, f.router, http.MethodPut, path, storeBody("Corner Market", "Wifi"), ownerToken)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "/store/corner-market", decodeFlash(t, w).Redirect)
	})

	t.Run("Bad id", func(t *testing.T) {
		w := doJSON(t, f.router, http.MethodPut, "/stores/abc", storeBody("X"), ownerToken)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Delete", func(t *testing.T) {
		w := doJSON(t, f.router, http.MethodDelete, path, nil, ownerToken)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = doJSON(t, f.router, http.MethodGet, "/stores/corner-market", nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestStoreController_GetStoreBySlug_CanEdit(t *testing.T) {
	f := setupStoreControllerTest(t)
	_, ownerToken := f.login(t, "owner@example.com")
	_, otherToken := f.login(t, "other@example.com")
	f.create(t, ownerToken, "Corner Store")

	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{name: "Author", token: ownerToken, want: true},
		{name: "Other user", token: otherToken, want: false},
		{name: "Guest", token: "", want: false},
		{name: "Bad token viewed as guest", token: "not-a-jwt", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, f.router, http.MethodGet, "/stores/corner-store", nil, tt.token)
			require.Equal(t, http.StatusOK, w.Code)

			var resp struct {
				Store   model.Store `json:"store"`
				CanEdit bool        `json:"can_edit"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "corner-store", resp.Store.Slug)
			assert.Equal(t, tt.want, resp.CanEdit)
		})
	}
}

func TestStoreController_RemoveStore(t *testing.T) {
	f := setupStoreControllerTest(t)
	_, ownerToken := f.login(t, "owner@example.com")
	_, adminToken := f.loginAs(t, "admin@example.com", model.RoleAdmin)
	store := f.create(t, ownerToken, "Corner Store")

	path := fmt.Sprintf("/admin/stores/%d", store.ID)

	t.Run("Author is not an administrator", func(t *testing.T) {
		w := doJSON(t, f.router, http.MethodDelete, path, nil, ownerToken)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Administrator removes any store", func(t *testing.T) {
		w := doJSON(t, f.router, http.MethodDelete, path, nil, adminToken)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = doJSON(t, f.router, http.MethodGet, "/stores/corner-store", nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Already removed", func(t *testing.T) {
		w := doJSON(t, f.router, http.MethodDelete, path, nil, adminToken)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestStoreController_ListStores(t *testing.T) {
	f := setupStoreControllerTest(t)
	_, token := f.login(t, "owner@example.com")
	for i := 1; i <= service.StoresPerPage+1; i++ {
		f.create(t, token, fmt.Sprintf("Store %d", i))
	}

	t.Run("Second page", func(t *testing.T) {
		w := doJSON(t, f.router, http.MethodGet, "/stores?page=2", nil, "")
		require.Equal(t, http.StatusOK, w.Code)

		var page service.StorePage
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
		assert.Equal(t, 2, page.Page)
		assert.Equal(t, 2, page.Pages)
		assert.Len(t, page.Stores, 1)
	})

	t.Run("Past the end", func(t *testing.T) {
		w := doJSON(t, f.router, http.MethodGet, "/stores?page=9", nil, "")
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeFlash(t, w)
		assert.Equal(t, apperrors.FlashTypeInfo, resp.Flash.Type)
		assert.Equal(t, "/stores/page/2", resp.Redirect)
	})
}

func TestStoreController_Lookups(t *testing.T) {
	f := setupStoreControllerTest(t)
	_, token := f.login(t, "owner@example.com")
	f.create(t, token, "Lakeside Books", "Books", "Wifi")
	f.create(t, token, "Harbour Coffee", "Wifi")

	t.Run("By slug", func(t *testing.T) {
		w := doJSON(t, f.router, http.MethodGet, "/stores/Lakeside-Books", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"slug":"lakeside-books"`)
	})

	t.Run("Unknown slug", func(t *testing.T) {
		w := doJSON(t, f.router, http.MethodGet, "/stores/nope", nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Tags", func(t *testing.T) {
		w := doJSON(t, f.router, http.MethodGet, "/tags/Wifi", nil, "")
		require.Equal(t, http.StatusOK, w.Code)

		var page service.TagPage
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
		assert.Equal(t, "Wifi", page.Tag)
		assert.Len(t, page.Stores, 2)
		require.NotEmpty(t, page.Tags)
		assert.Equal(t, model.TagCount{Tag: "Wifi", Count: 2}, page.Tags[0])
	})

	t.Run("Search", func(t *testing.T) {
		w := doJSON(t, f.router, http.MethodGet, "/search?q=coffee", nil, "")
		require.Equal(t, http.StatusOK, w.Code)

		var stores []model.Store
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stores))
		require.Len(t, stores, 1)
		assert.Equal(t, "harbour-coffee", stores[0].Slug)
	})

	t.Run("Near", func(t *testing.T) {
		w := doJSON(t, f.router, http.MethodGet, "/stores/near?lat=43.65&lng=-79.38", nil, "")
		require.Equal(t, http.StatusOK, w.Code)

		var near []model.NearbyStore
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &near))
		assert.Len(t, near, 2)
	})

	t.Run("Near without coordinates", func(t *testing.T) {
		w := doJSON(t, f.router, http.MethodGet, "/stores/near", nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestReviewController_AddReview(t *testing.T) {
	f := setupStoreControllerTest(t)
	_, ownerToken := f.login(t, "owner@example.com")
	_, token := f.login(t, "reviewer@example.com")
	store := f.create(t, ownerToken, "Review Me")
	path := fmt.Sprintf("/reviews/%d", store.ID)

	tests := []struct {
		name   string
		path   string
		body   gin.H
		status int
	}{
		{name: "Valid", path: path, body: gin.H{"text": "Great coffee", "rating": 5}, status: http.StatusOK},
		{name: "Rating too high", path: path, body: gin.H{"text": "Hmm", "rating": 6}, status: http.StatusBadRequest},
		{name: "Blank text", path: path, body: gin.H{"text": "   ", "rating": 3}, status: http.StatusBadRequest},
		{name: "Unknown store", path: "/reviews/9999", body: gin.H{"text": "Where?", "rating": 3}, status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, f.router, http.MethodPost, tt.path, tt.body, token)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}

	t.Run("Top stores need two reviews", func(t *testing.T) {
		w := doJSON(t, f.router, http.MethodGet, "/top", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), `"slug":"review-me"`)

		w = doJSON(t, f.router, http.MethodPost, path, gin.H{"text": "Decent", "rating": 3}, ownerToken)
		require.Equal(t, http.StatusOK, w.Code)

		w = doJSON(t, f.router, http.MethodGet, "/top", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"slug":"review-me"`)
	})
}
