package model

import (
	"errors"
	"strings"
	"time"

	"github.com/ikkim/storefront-backend/pkg/slug"
	"gorm.io/gorm"
)

// ErrEmptySlug is returned when a store name has no characters a slug can keep
var ErrEmptySlug = errors.New("store name does not produce a slug")

// Location is a GeoJSON-style point with a street address
type Location struct {
	Type    string  `gorm:"type:varchar(10);default:'Point'" json:"type"`
	Lng     float64 `gorm:"not null" json:"lng"`
	Lat     float64 `gorm:"not null" json:"lat"`
	Address string  `gorm:"type:text;not null" json:"address"`
}

type Store struct {
	ID          uint       `gorm:"primarykey" json:"id"`
	Name        string     `gorm:"not null" json:"name"`
	Slug        string     `gorm:"size:255;uniqueIndex" json:"slug"` // URL identifier derived from Name
	Description string     `gorm:"type:text" json:"description"`
	Tags        []StoreTag `gorm:"foreignKey:StoreID;constraint:OnDelete:CASCADE" json:"tags,omitempty"`
	Location    Location   `gorm:"embedded;embeddedPrefix:location_" json:"location"`
	Photo       string     `json:"photo"`
	AuthorID    uint       `gorm:"not null;index" json:"author_id"`
	Author      *User      `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"author,omitempty"`
	Reviews     []Review   `gorm:"foreignKey:StoreID" json:"reviews,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Store) TableName() string {
	return "stores"
}

// TagNames returns the store's tags in insertion order
func (s *Store) TagNames() []string {
	names := make([]string, 0, len(s.Tags))
	for _, t := range s.Tags {
		names = append(names, t.Name)
	}
	return names
}

// SetTags replaces the tag rows with one row per distinct, non-blank name
func (s *Store) SetTags(names []string) {
	seen := make(map[string]struct{}, len(names))
	tags := make([]StoreTag, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		tags = append(tags, StoreTag{StoreID: s.ID, Name: n})
	}
	s.Tags = tags
}

// BeforeCreate assigns a slug unless one was set explicitly
func (s *Store) BeforeCreate(tx *gorm.DB) error {
	s.Name = strings.TrimSpace(s.Name)
	if s.Location.Type == "" {
		s.Location.Type = "Point"
	}
	if s.Slug != "" {
		return nil
	}
	return s.assignSlug(tx, 0)
}

// BeforeUpdate reassigns the slug only when the persisted name differs
func (s *Store) BeforeUpdate(tx *gorm.DB) error {
	if s.ID == 0 || s.Name == "" {
		return nil
	}
	s.Name = strings.TrimSpace(s.Name)

	var prev Store
	if err := tx.Unscoped().Select("id", "name", "slug").First(&prev, s.ID).Error; err != nil {
		return err
	}

	if prev.Name == s.Name {
		if s.Slug == "" {
			s.Slug = prev.Slug
		}
		return nil
	}
	return s.assignSlug(tx, s.ID)
}

func (s *Store) assignSlug(tx *gorm.DB, excludeID uint) error {
	base := slug.Make(s.Name)
	if base == "" {
		return ErrEmptySlug
	}

	existing, err := ExistingSlugs(tx, base, excludeID)
	if err != nil {
		return err
	}
	s.Slug = slug.Resolve(s.Name, existing)
	return nil
}

// ExistingSlugs returns every stored slug in the family of base, soft-deleted rows included
// since they still hold their unique index entry. excludeID leaves one store out.
func ExistingSlugs(tx *gorm.DB, base string, excludeID uint) ([]string, error) {
	var candidates []string
	q := tx.Unscoped().Model(&Store{}).
		Where("(LOWER(slug) = ? OR LOWER(slug) LIKE ?)", base, base+"-%")
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Pluck("slug", &candidates).Error; err != nil {
		return nil, err
	}

	re := slug.Pattern(base)
	existing := candidates[:0]
	for _, c := range candidates {
		if re.MatchString(c) {
			existing = append(existing, c)
		}
	}
	return existing, nil
}
