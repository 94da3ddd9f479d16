// Package district is the entry point to the district catalog: resolution of
// free-text names, the address flow and the read API.
package district

import (
	"log/slog"

	"cityscope/internal/district/handler"
	"cityscope/internal/district/resolver"
	"cityscope/internal/district/service"
)

// Catalog is what a backing store must provide to serve every operation.
type Catalog interface {
	resolver.Catalog
	service.CatalogStore
}

// Resolver maps free-text names onto catalog rows.
type Resolver = resolver.Resolver

// Service composes catalog reads, resolution and geocoding.
type Service = service.Service

// Handler wires HTTP endpoints to the district service.
type Handler = handler.Handler

func NewResolver(catalog Catalog, opts ...resolver.Option) *Resolver {
	return resolver.New(catalog, opts...)
}

func NewService(catalog Catalog, names *Resolver, opts ...service.Option) *Service {
	return service.New(catalog, names, opts...)
}

func NewHandler(s *Service, logger *slog.Logger, opts ...handler.Option) *Handler {
	return handler.New(s, logger, opts...)
}
