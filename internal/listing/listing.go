// Package listing parses the shared list query (skip, limit, date range, sort) into
// store filter and options.
package listing

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eventboard/backend/internal/store"
	"github.com/eventboard/backend/internal/validation"
	"github.com/eventboard/backend/pkg/apperrors"
)

// DefaultLimit applies when limit is missing or not positive.
const DefaultLimit = 10

// Params are the list query parameters. Start and End are epoch milliseconds.
type Params struct {
	Skip      int    `form:"skip" json:"skip" validate:"min=0"`
	Limit     int    `form:"limit" json:"limit"`
	Start     *int64 `form:"start" json:"start"`
	End       *int64 `form:"end" json:"end"`
	SortBy    string `form:"sortBy" json:"sortBy" validate:"omitempty,max=64"`
	Direction string `form:"direction" json:"direction" validate:"omitempty,oneof=asc desc"`
}

// Parse binds and validates the list parameters of the request query.
func Parse(c *gin.Context) (Params, error) {
	var p Params
	if err := c.ShouldBindQuery(&p); err != nil {
		return Params{}, apperrors.NewValidationError("", fmt.Sprintf("invalid query: %v", err))
	}
	if err := validation.Struct(&p); err != nil {
		return Params{}, err
	}
	if p.SortBy != "" && !store.ValidField(p.SortBy) {
		return Params{}, apperrors.NewValidationError("sortBy", `"sortBy" must be a field name`)
	}
	return p, nil
}

// Query turns p into a store filter and find options. The range applies to dateField
// only when both bounds are present; an empty dateField disables it. Sorting needs both
// sortBy and direction.
func (p Params) Query(dateField string) (store.Filter, store.FindOptions) {
	var filter store.Filter
	if dateField != "" && p.Start != nil && p.End != nil {
		filter = store.Between(dateField, time.UnixMilli(*p.Start).UTC(), time.UnixMilli(*p.End).UTC())
	}
	opts := store.FindOptions{Skip: p.Skip, Limit: p.Limit}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if p.SortBy != "" && p.Direction != "" {
		opts.Sort = &store.Sort{Field: p.SortBy, Desc: p.Direction == "desc"}
	}
	return filter, opts
}
