package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// Sheet columns, first row is a header
const (
	colName = iota
	colDescription
	colTags
	colAddress
	colLng
	colLat
	colAuthorEmail
	columnCount
)

type storeRow struct {
	Line        int
	Name        string
	Description string
	Tags        []string
	Address     string
	Lng         float64
	Lat         float64
	AuthorEmail string
}

type readSummary struct {
	Total   int
	Skipped int
}

func readStoreRows(filePath string) ([]storeRow, readSummary, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, readSummary{}, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, readSummary{}, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, readSummary{}, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, readSummary{}, fmt.Errorf("no data found in XLSX file")
	}

	var (
		out     []storeRow
		summary readSummary
		seen    = make(map[string]bool)
	)
	for i, row := range rows[1:] {
		summary.Total++
		r, ok := parseStoreRow(row)
		if !ok {
			summary.Skipped++
			continue
		}
		r.Line = i + 2

		// same name at the same address is one store
		key := strings.ToLower(r.Name + "|" + r.Address)
		if seen[key] {
			summary.Skipped++
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out, summary, nil
}

func parseStoreRow(row []string) (storeRow, bool) {
	if len(row) < columnCount {
		return storeRow{}, false
	}
	cell := func(i int) string { return strings.TrimSpace(row[i]) }

	r := storeRow{
		Name:        cell(colName),
		Description: cell(colDescription),
		Address:     cell(colAddress),
		AuthorEmail: strings.ToLower(cell(colAuthorEmail)),
	}
	if r.Name == "" || r.Address == "" || r.AuthorEmail == "" {
		return storeRow{}, false
	}

	lng, errLng := strconv.ParseFloat(cell(colLng), 64)
	lat, errLat := strconv.ParseFloat(cell(colLat), 64)
	if errLng != nil || errLat != nil || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return storeRow{}, false
	}
	r.Lng, r.Lat = lng, lat

	for _, t := range strings.Split(cell(colTags), ",") {
		if t = strings.TrimSpace(t); t != "" {
			r.Tags = append(r.Tags, t)
		}
	}
	return r, true
}

type importResult struct {
	Created       int
	UnknownAuthor int
	Failed        int
}

type importer struct {
	users   repository.UserRepository
	stores  repository.StoreRepository
	authors map[string]uint
}

func newImporter(users repository.UserRepository, stores repository.StoreRepository) *importer {
	return &importer{
		users:   users,
		stores:  stores,
		authors: make(map[string]uint),
	}
}

func (imp *importer) authorID(ctx context.Context, email string) (uint, error) {
	if id, ok := imp.authors[email]; ok {
		return id, nil
	}
	user, err := imp.users.FindByEmail(ctx, email)
	if err != nil {
		return 0, err
	}
	imp.authors[email] = user.ID
	return user.ID, nil
}

// Import creates one store per row. Slugs are assigned by the store model so
// imported names collide the same way as ones created over HTTP.
func (imp *importer) Import(ctx context.Context, rows []storeRow) importResult {
	var res importResult
	for _, r := range rows {
		authorID, err := imp.authorID(ctx, r.AuthorEmail)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				res.UnknownAuthor++
			} else {
				res.Failed++
			}
			logger.Warn("Skipping row", map[string]interface{}{
				"line":   r.Line,
				"author": r.AuthorEmail,
				"error":  err.Error(),
			})
			continue
		}

		store := &model.Store{
			Name:        r.Name,
			Description: r.Description,
			AuthorID:    authorID,
			Location: model.Location{
				Type:    "Point",
				Lng:     r.Lng,
				Lat:     r.Lat,
				Address: r.Address,
			},
		}
		store.SetTags(r.Tags)

		if err := imp.stores.Create(ctx, store); err != nil {
			res.Failed++
			logger.Error("Failed to import store", err, map[string]interface{}{
				"line": r.Line,
				"name": r.Name,
			})
			continue
		}
		res.Created++
	}
	return res
}
