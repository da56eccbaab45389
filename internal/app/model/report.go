package model

// TagCount is one row of the tag histogram
type TagCount struct {
	Tag   string `json:"tag"`
	Count int64  `json:"count"`
}

// TopStore is one row of the top-rated report
type TopStore struct {
	ID            uint    `json:"id"`
	Name          string  `json:"name"`
	Slug          string  `json:"slug"`
	Photo         string  `json:"photo"`
	ReviewCount   int64   `json:"review_count"`
	AverageRating float64 `json:"average_rating"`
}

// NearbyStore pairs a store with its distance from the query point
type NearbyStore struct {
	Store      Store   `json:"store"`
	DistanceKm float64 `json:"distance_km"`
}
