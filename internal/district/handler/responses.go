package handler

import (
	"cityscope/internal/district/models"
	"cityscope/internal/district/resolver"
)

// BaseItem is the compact row of GET /districts/base.
type BaseItem struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// PageResponse is the envelope of every paged list.
type PageResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Size  int `json:"size"`
}

func newPage[T any](items []T, total int, page models.Page) PageResponse[T] {
	if items == nil {
		items = []T{}
	}
	return PageResponse[T]{Items: items, Total: total, Page: page.Page, Size: page.Size}
}

// ResolveResponse is the body of GET /districts/resolve.
type ResolveResponse struct {
	District *models.District `json:"district"`
	Tier     resolver.Tier    `json:"tier"`
}

// MetricsResponse is the body of GET /districts/metrics/{kind}.
type MetricsResponse struct {
	Kind  models.MetricKind `json:"kind"`
	Items any               `json:"items"`
	Total int               `json:"total"`
	Page  int               `json:"page"`
	Size  int               `json:"size"`
}

func toBaseItems(rows []*models.District) []BaseItem {
	out := make([]BaseItem, len(rows))
	for i, d := range rows {
		out[i] = BaseItem{ID: d.ID, Name: d.Name}
	}
	return out
}
