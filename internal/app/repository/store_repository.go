package repository

import (
	"context"
	"errors"
	"sort"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/ikkim/storefront-backend/pkg/util"
	"gorm.io/gorm"
)

// slugAttempts bounds the retries after a concurrent writer claimed the same slug
const slugAttempts = 3

type StoreFilter struct {
	Tag    string
	Tagged bool // only stores with at least one tag
	Page   int
	Limit  int
}

type StoreRepository interface {
	Create(ctx context.Context, store *model.Store) error
	Update(ctx context.Context, store *model.Store) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Store, error)
	FindBySlug(ctx context.Context, slug string) (*model.Store, error)
	FindAll(ctx context.Context, filter StoreFilter) ([]model.Store, int64, error)
	Search(ctx context.Context, query string, limit int) ([]model.Store, error)
	FindNear(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]model.NearbyStore, error)
	ListTags(ctx context.Context) ([]model.TagCount, error)
	TopStores(ctx context.Context, minReviews, limit int) ([]model.TopStore, error)
}

type storeRepository struct {
	db *gorm.DB
}

func NewStoreRepository(db *gorm.DB) StoreRepository {
	return &storeRepository{db: db}
}

// Create inserts the store with its tags. When the slug was derived from the name and
// another writer took it first, the slug is derived again.
func (r *storeRepository) Create(ctx context.Context, store *model.Store) error {
	logger.Debug("Creating store in database", map[string]interface{}{
		"name":      store.Name,
		"author_id": store.AuthorID,
	})

	derived := store.Slug == ""
	var err error
	for attempt := 1; attempt <= slugAttempts; attempt++ {
		err = r.db.WithContext(ctx).Omit("Author", "Reviews").Create(store).Error
		if err == nil || !derived || !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}

		logger.Warn("Store slug taken concurrently, retrying", map[string]interface{}{
			"slug":    store.Slug,
			"attempt": attempt,
		})
		store.ID = 0
		store.Slug = ""
		for i := range store.Tags {
			store.Tags[i].ID = 0
			store.Tags[i].StoreID = 0
		}
	}
	if err != nil {
		logger.Error("Failed to create store in database", err, map[string]interface{}{
			"name":      store.Name,
			"author_id": store.AuthorID,
		})
		return err
	}

	logger.Debug("Store created in database", map[string]interface{}{
		"store_id": store.ID,
		"slug":     store.Slug,
	})
	return nil
}

// Update saves the store and replaces its tag rows in one transaction
func (r *storeRepository) Update(ctx context.Context, store *model.Store) error {
	logger.Debug("Updating store in database", map[string]interface{}{
		"store_id": store.ID,
		"name":     store.Name,
	})

	var err error
	for attempt := 1; attempt <= slugAttempts; attempt++ {
		err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("store_id = ?", store.ID).Delete(&model.StoreTag{}).Error; err != nil {
				return err
			}
			if err := tx.Omit("Tags", "Author", "Reviews").Save(store).Error; err != nil {
				return err
			}
			if len(store.Tags) == 0 {
				return nil
			}
			for i := range store.Tags {
				store.Tags[i].ID = 0
				store.Tags[i].StoreID = store.ID
			}
			return tx.Create(&store.Tags).Error
		})
		if err == nil || !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
		logger.Warn("Store slug taken concurrently, retrying", map[string]interface{}{
			"store_id": store.ID,
			"attempt":  attempt,
		})
	}
	if err != nil {
		logger.Error("Failed to update store in database", err, map[string]interface{}{
			"store_id": store.ID,
		})
		return err
	}

	logger.Debug("Store updated in database", map[string]interface{}{
		"store_id": store.ID,
		"slug":     store.Slug,
	})
	return nil
}

func (r *storeRepository) Delete(ctx context.Context, id uint) error {
	logger.Debug("Deleting store from database", map[string]interface{}{
		"store_id": id,
	})

	if err := r.db.WithContext(ctx).Delete(&model.Store{}, id).Error; err != nil {
		logger.Error("Failed to delete store from database", err, map[string]interface{}{
			"store_id": id,
		})
		return err
	}

	logger.Debug("Store deleted from database", map[string]interface{}{
		"store_id": id,
	})
	return nil
}

func (r *storeRepository) detailed(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Tags").
		Preload("Author").
		Preload("Reviews", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Preload("Reviews.Author")
}

func (r *storeRepository) FindByID(ctx context.Context, id uint) (*model.Store, error) {
	logger.Debug("Finding store by ID", map[string]interface{}{
		"store_id": id,
	})

	var store model.Store
	if err := r.detailed(ctx).First(&store, id).Error; err != nil {
		logger.Error("Failed to find store by ID", err, map[string]interface{}{
			"store_id": id,
		})
		return nil, err
	}

	logger.Debug("Store found by ID", map[string]interface{}{
		"store_id": store.ID,
		"slug":     store.Slug,
	})
	return &store, nil
}

func (r *storeRepository) FindBySlug(ctx context.Context, slug string) (*model.Store, error) {
	logger.Debug("Finding store by slug", map[string]interface{}{
		"slug": slug,
	})

	var store model.Store
	if err := r.detailed(ctx).Where("slug = ?", slug).First(&store).Error; err != nil {
		logger.Error("Failed to find store by slug", err, map[string]interface{}{
			"slug": slug,
		})
		return nil, err
	}

	logger.Debug("Store found by slug", map[string]interface{}{
		"store_id": store.ID,
		"slug":     store.Slug,
	})
	return &store, nil
}

// FindAll returns one page of stores, newest first, and the total matching count
func (r *storeRepository) FindAll(ctx context.Context, filter StoreFilter) ([]model.Store, int64, error) {
	logger.Debug("Finding stores", map[string]interface{}{
		"tag":   filter.Tag,
		"page":  filter.Page,
		"limit": filter.Limit,
	})

	query := r.db.WithContext(ctx).Model(&model.Store{})
	if filter.Tag != "" {
		query = query.Where("id IN (?)",
			r.db.Model(&model.StoreTag{}).Select("store_id").Where("name = ?", filter.Tag))
	} else if filter.Tagged {
		query = query.Where("id IN (?)", r.db.Model(&model.StoreTag{}).Select("store_id"))
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		logger.Error("Failed to count stores", err, map[string]interface{}{
			"tag": filter.Tag,
		})
		return nil, 0, err
	}

	if filter.Limit > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.Limit).Limit(filter.Limit)
	}

	var stores []model.Store
	if err := query.Preload("Tags").Order("created_at DESC").Order("id DESC").Find(&stores).Error; err != nil {
		logger.Error("Failed to find stores", err, map[string]interface{}{
			"tag": filter.Tag,
		})
		return nil, 0, err
	}

	logger.Debug("Stores found", map[string]interface{}{
		"count": len(stores),
		"total": total,
	})
	return stores, total, nil
}

// Search matches query case-insensitively against name and description
func (r *storeRepository) Search(ctx context.Context, query string, limit int) ([]model.Store, error) {
	logger.Debug("Searching stores", map[string]interface{}{
		"query": query,
		"limit": limit,
	})

	pattern := "%" + escapeLike(query) + "%"
	var stores []model.Store
	err := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE LOWER(?) ESCAPE '\\' OR LOWER(description) LIKE LOWER(?) ESCAPE '\\'", pattern, pattern).
		Order("name ASC").
		Limit(limit).
		Find(&stores).Error
	if err != nil {
		logger.Error("Failed to search stores", err, map[string]interface{}{
			"query": query,
		})
		return nil, err
	}

	logger.Debug("Stores searched", map[string]interface{}{
		"query": query,
		"count": len(stores),
	})
	return stores, nil
}

// FindNear prefilters on a bounding box, then ranks by great-circle distance
func (r *storeRepository) FindNear(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]model.NearbyStore, error) {
	logger.Debug("Finding stores near point", map[string]interface{}{
		"lat":       lat,
		"lng":       lng,
		"radius_km": radiusKm,
	})

	minLat, maxLat, minLng, maxLng := util.BoundingBox(lat, lng, radiusKm)

	var stores []model.Store
	err := r.db.WithContext(ctx).
		Where("location_lat BETWEEN ? AND ?", minLat, maxLat).
		Where("location_lng BETWEEN ? AND ?", minLng, maxLng).
		Find(&stores).Error
	if err != nil {
		logger.Error("Failed to find stores near point", err, map[string]interface{}{
			"lat": lat,
			"lng": lng,
		})
		return nil, err
	}

	nearby := make([]model.NearbyStore, 0, len(stores))
	for _, s := range stores {
		d := util.CalculateDistance(lat, lng, s.Location.Lat, s.Location.Lng)
		if d <= radiusKm {
			nearby = append(nearby, model.NearbyStore{Store: s, DistanceKm: d})
		}
	}
	sort.SliceStable(nearby, func(i, j int) bool {
		return nearby[i].DistanceKm < nearby[j].DistanceKm
	})
	if limit > 0 && len(nearby) > limit {
		nearby = nearby[:limit]
	}

	logger.Debug("Stores found near point", map[string]interface{}{
		"count": len(nearby),
	})
	return nearby, nil
}

// ListTags counts live stores per tag, most used first
func (r *storeRepository) ListTags(ctx context.Context) ([]model.TagCount, error) {
	logger.Debug("Listing tag counts")

	var tags []model.TagCount
	err := r.db.WithContext(ctx).
		Table("store_tags").
		Select("store_tags.name AS tag, COUNT(*) AS count").
		Joins("JOIN stores ON stores.id = store_tags.store_id").
		Where("stores.deleted_at IS NULL").
		Group("store_tags.name").
		Order("count DESC, tag ASC").
		Scan(&tags).Error
	if err != nil {
		logger.Error("Failed to list tag counts", err)
		return nil, err
	}

	logger.Debug("Tag counts listed", map[string]interface{}{
		"count": len(tags),
	})
	return tags, nil
}

// TopStores ranks stores with at least minReviews reviews by average rating
func (r *storeRepository) TopStores(ctx context.Context, minReviews, limit int) ([]model.TopStore, error) {
	logger.Debug("Finding top stores", map[string]interface{}{
		"min_reviews": minReviews,
		"limit":       limit,
	})

	var top []model.TopStore
	err := r.db.WithContext(ctx).
		Table("stores").
		Select("stores.id, stores.name, stores.slug, stores.photo, " +
			"COUNT(reviews.id) AS review_count, AVG(reviews.rating * 1.0) AS average_rating").
		Joins("JOIN reviews ON reviews.store_id = stores.id").
		Where("stores.deleted_at IS NULL").
		Group("stores.id, stores.name, stores.slug, stores.photo").
		Having("COUNT(reviews.id) >= ?", minReviews).
		Order("average_rating DESC, review_count DESC, stores.id ASC").
		Limit(limit).
		Scan(&top).Error
	if err != nil {
		logger.Error("Failed to find top stores", err)
		return nil, err
	}

	logger.Debug("Top stores found", map[string]interface{}{
		"count": len(top),
	})
	return top, nil
}
