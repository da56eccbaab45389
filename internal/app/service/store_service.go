package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrStoreNotFound      = errors.New("store not found")
	ErrStoreForbidden     = errors.New("you must own a store in order to edit it")
	ErrInvalidStoreInput  = errors.New("invalid store data")
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

const (
	StoresPerPage      = 6
	SearchResultLimit  = 5
	NearbyRadiusKm     = 10.0
	NearbyResultLimit  = 10
	TopStoreMinReviews = 2
	TopStoreLimit      = 10
)

type StoreInput struct {
	Name        string
	Description string
	Tags        []string
	Address     string
	Lng         float64
	Lat         float64
	Photo       string
}

func (in StoreInput) validate() error {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Address) == "" {
		return ErrInvalidStoreInput
	}
	return validateCoordinates(in.Lat, in.Lng)
}

func validateCoordinates(lat, lng float64) error {
	if math.IsNaN(lat) || math.IsNaN(lng) || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}

// StorePage is one page of the store listing. OutOfRange is set when the requested
// page is past the last one; Page then holds the last page.
type StorePage struct {
	Stores     []model.Store `json:"stores"`
	Page       int           `json:"page"`
	Pages      int           `json:"pages"`
	Total      int64         `json:"total"`
	OutOfRange bool          `json:"-"`
}

type TagPage struct {
	Tag    string           `json:"tag"`
	Tags   []model.TagCount `json:"tags"`
	Stores []model.Store    `json:"stores"`
}

type StoreService interface {
	CreateStore(ctx context.Context, authorID uint, input StoreInput) (*model.Store, error)
	UpdateStore(ctx context.Context, storeID, userID uint, input StoreInput) (*model.Store, error)
	DeleteStore(ctx context.Context, storeID, userID uint) error
	RemoveStore(ctx context.Context, storeID uint) error
	GetStoreByID(ctx context.Context, id uint) (*model.Store, error)
	GetStoreBySlug(ctx context.Context, slug string) (*model.Store, error)
	ListStores(ctx context.Context, page int) (*StorePage, error)
	GetStoresByTag(ctx context.Context, tag string) (*TagPage, error)
	SearchStores(ctx context.Context, query string) ([]model.Store, error)
	FindNearby(ctx context.Context, lat, lng float64) ([]model.NearbyStore, error)
	TopStores(ctx context.Context) ([]model.TopStore, error)
}

type storeService struct {
	storeRepo repository.StoreRepository
}

func NewStoreService(storeRepo repository.StoreRepository) StoreService {
	return &storeService{storeRepo: storeRepo}
}

func applyStoreInput(store *model.Store, input StoreInput) {
	store.Name = strings.TrimSpace(input.Name)
	store.Description = strings.TrimSpace(input.Description)
	store.Location.Address = strings.TrimSpace(input.Address)
	store.Location.Lat = input.Lat
	store.Location.Lng = input.Lng
	if input.Photo != "" {
		store.Photo = input.Photo
	}
	store.SetTags(input.Tags)
}

func (s *storeService) CreateStore(ctx context.Context, authorID uint, input StoreInput) (*model.Store, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	store := &model.Store{AuthorID: authorID}
	applyStoreInput(store, input)

	if err := s.storeRepo.Create(ctx, store); err != nil {
		if errors.Is(err, model.ErrEmptySlug) {
			return nil, ErrInvalidStoreInput
		}
		return nil, err
	}

	logger.Info("Store created", map[string]interface{}{
		"store_id":  store.ID,
		"slug":      store.Slug,
		"author_id": authorID,
	})
	return store, nil
}

func (s *storeService) loadOwned(ctx context.Context, storeID, userID uint) (*model.Store, error) {
	store, err := s.GetStoreByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if store.AuthorID != userID {
		logger.Warn("Store access denied", map[string]interface{}{
			"store_id": storeID,
			"user_id":  userID,
		})
		return nil, ErrStoreForbidden
	}
	return store, nil
}

// UpdateStore applies input to a store owned by userID. The slug only changes
// when the name does.
func (s *storeService) UpdateStore(ctx context.Context, storeID, userID uint, input StoreInput) (*model.Store, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	store, err := s.loadOwned(ctx, storeID, userID)
	if err != nil {
		return nil, err
	}
	applyStoreInput(store, input)
	store.Author = nil
	store.Reviews = nil

	if err := s.storeRepo.Update(ctx, store); err != nil {
		if errors.Is(err, model.ErrEmptySlug) {
			return nil, ErrInvalidStoreInput
		}
		return nil, err
	}

	logger.Info("Store updated", map[string]interface{}{
		"store_id": store.ID,
		"slug":     store.Slug,
	})
	return s.GetStoreByID(ctx, store.ID)
}

func (s *storeService) DeleteStore(ctx context.Context, storeID, userID uint) error {
	if _, err := s.loadOwned(ctx, storeID, userID); err != nil {
		return err
	}
	if err := s.storeRepo.Delete(ctx, storeID); err != nil {
		return err
	}

	logger.Info("Store deleted", map[string]interface{}{
		"store_id": storeID,
		"user_id":  userID,
	})
	return nil
}

// RemoveStore deletes a store regardless of its author. Callers must have
// checked that the user is an administrator.
func (s *storeService) RemoveStore(ctx context.Context, storeID uint) error {
	if _, err := s.GetStoreByID(ctx, storeID); err != nil {
		return err
	}
	if err := s.storeRepo.Delete(ctx, storeID); err != nil {
		return err
	}

	logger.Info("Store removed by administrator", map[string]interface{}{
		"store_id": storeID,
	})
	return nil
}

func (s *storeService) GetStoreByID(ctx context.Context, id uint) (*model.Store, error) {
	store, err := s.storeRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, err
	}
	return store, nil
}

func (s *storeService) GetStoreBySlug(ctx context.Context, slug string) (*model.Store, error) {
	store, err := s.storeRepo.FindBySlug(ctx, strings.ToLower(slug))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, err
	}
	return store, nil
}

func (s *storeService) ListStores(ctx context.Context, page int) (*StorePage, error) {
	if page < 1 {
		page = 1
	}

	stores, total, err := s.storeRepo.FindAll(ctx, repository.StoreFilter{Page: page, Limit: StoresPerPage})
	if err != nil {
		return nil, err
	}

	pages := int((total + StoresPerPage - 1) / StoresPerPage)
	result := &StorePage{Stores: stores, Page: page, Pages: pages, Total: total}
	if len(stores) == 0 && page > 1 && pages > 0 {
		result.OutOfRange = true
		result.Page = pages
	}
	return result, nil
}

// GetStoresByTag returns the tag histogram plus the stores carrying tag, or every
// tagged store when tag is empty
func (s *storeService) GetStoresByTag(ctx context.Context, tag string) (*TagPage, error) {
	tags, err := s.storeRepo.ListTags(ctx)
	if err != nil {
		return nil, err
	}

	filter := repository.StoreFilter{Tag: tag, Tagged: tag == ""}
	stores, _, err := s.storeRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &TagPage{Tag: tag, Tags: tags, Stores: stores}, nil
}

func (s *storeService) SearchStores(ctx context.Context, query string) ([]model.Store, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.Store{}, nil
	}
	return s.storeRepo.Search(ctx, query, SearchResultLimit)
}

func (s *storeService) FindNearby(ctx context.Context, lat, lng float64) ([]model.NearbyStore, error) {
	if err := validateCoordinates(lat, lng); err != nil {
		return nil, err
	}
	return s.storeRepo.FindNear(ctx, lat, lng, NearbyRadiusKm, NearbyResultLimit)
}

func (s *storeService) TopStores(ctx context.Context) ([]model.TopStore, error) {
	return s.storeRepo.TopStores(ctx, TopStoreMinReviews, TopStoreLimit)
}
