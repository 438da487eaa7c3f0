// Package ingestion imports already-parsed activity records into the record
// source that aggregations read from.
package ingestion

import (
	"github.com/aevon-lab/aggcache/internal/core/storage"
	"github.com/gin-gonic/gin"
)

type Service struct {
	store            storage.RecordStore
	maxBodySizeBytes int
}

func NewService(store storage.RecordStore, maxBodySizeMB int) *Service {
	if store == nil {
		panic("ingestion: store must not be nil")
	}
	if maxBodySizeMB <= 0 {
		maxBodySizeMB = 1 // default to 1MB
	}
	return &Service{
		store:            store,
		maxBodySizeBytes: maxBodySizeMB * 1024 * 1024,
	}
}

// RegisterRoutes registers the record import routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/records", s.ImportHandler)
	r.GET("/v1/records/:user_id", s.ListRecordsHandler)
}
