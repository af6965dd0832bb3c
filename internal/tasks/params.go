package tasks

import (
	"math"
	"strconv"
	"strings"

	"taskmanager/internal/models"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 50

	// maxPage keeps (page-1)*limit within an int.
	maxPage = math.MaxInt / MaxLimit
)

// ListParams is a normalized listing request. The zero value is not valid;
// build one with ParseListParams.
type ListParams struct {
	Page   int
	Limit  int
	Status *models.TaskStatus
	Search string
	SortBy models.SortField
	Order  models.SortOrder
}

// ParseListParams reads page, limit, status, search, sortBy and order from
// raw. Anything missing or malformed falls back to its default, so it never
// fails.
func ParseListParams(raw map[string]string) ListParams {
	params := ListParams{
		Page:   DefaultPage,
		Limit:  DefaultLimit,
		SortBy: models.SortByCreatedAt,
		Order:  models.OrderDesc,
	}

	if page, err := strconv.Atoi(strings.TrimSpace(raw["page"])); err == nil && page > 0 {
		params.Page = page
	}
	if params.Page > maxPage {
		params.Page = maxPage
	}

	if limit, err := strconv.Atoi(strings.TrimSpace(raw["limit"])); err == nil && limit > 0 {
		params.Limit = limit
	}
	if params.Limit > MaxLimit {
		params.Limit = MaxLimit
	}

	if status := models.TaskStatus(raw["status"]); status.Valid() {
		params.Status = &status
	}

	params.Search = cleanSearch(raw["search"])

	if raw["sortBy"] == string(models.SortByDueDate) {
		params.SortBy = models.SortByDueDate
	}
	if raw["order"] == string(models.OrderAsc) {
		params.Order = models.OrderAsc
	}

	return params
}

// cleanSearch drops NUL bytes and invalid UTF-8, which Postgres refuses in
// text parameters, before trimming.
func cleanSearch(raw string) string {
	search := strings.ToValidUTF8(raw, "")
	search = strings.ReplaceAll(search, "\x00", "")
	return strings.TrimSpace(search)
}

// Skip is the number of matching tasks before the requested page.
func (p ListParams) Skip() int {
	return (p.Page - 1) * p.Limit
}

// Query scopes the listing to ownerID.
func (p ListParams) Query(ownerID int) models.TaskQuery {
	return models.TaskQuery{
		Filter: models.TaskFilter{
			OwnerID: ownerID,
			Status:  p.Status,
			Search:  p.Search,
		},
		Sort: models.TaskSort{
			Field: p.SortBy,
			Order: p.Order,
		},
		Skip:  p.Skip(),
		Limit: p.Limit,
	}
}
