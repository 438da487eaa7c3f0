package ingestion

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	v1 "github.com/aevon-lab/aggcache/internal/api/v1"
	httperr "github.com/aevon-lab/aggcache/internal/core/errors"
	"github.com/aevon-lab/aggcache/internal/core/storage"
	"github.com/aevon-lab/aggcache/internal/filters"
	"github.com/aevon-lab/aggcache/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgReadBodyFailed  = "Failed to read request body"
	msgInvalidJSON     = "Invalid JSON body"
	msgPersistFailed   = "Failed to persist record"
	msgDuplicateRecord = "Record already exists"
	msgLoadFailed      = "Failed to load records"
)

// importError carries the structured HTTP error shape from a helper back to the handler.
type importError struct {
	statusCode int
	errorType  string
	message    string
	details    interface{}
}

func (e *importError) Error() string {
	return e.message
}

// RecordsQuery narrows a record listing. It mirrors the aggregation filters.
type RecordsQuery struct {
	Timeframe string   `form:"timeframe"`
	Product   string   `form:"product"`
	Topics    []string `form:"topic"`
	Channels  []string `form:"channel"`
}

// ImportHandler handles HTTP POST requests carrying one activity record.
// Records without an id are assigned a random one.
func (s *Service) ImportHandler(c *gin.Context) {
	rec, payloadSize, ierr := s.parseRecord(c)
	if ierr != nil {
		metrics.RecordsImported.WithLabelValues("rejected").Inc()
		writeError(c, ierr)
		return
	}

	if err := rec.Validate(); err != nil {
		slog.Warn("[Ingestion] Record validation failed", "error", err, "record_id", rec.ID)
		metrics.RecordsImported.WithLabelValues("rejected").Inc()
		writeError(c, &importError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    err.Error(),
		})
		return
	}

	slog.Info("[Ingestion] Received record",
		"record_id", rec.ID,
		"user_id", rec.UserID,
		"product", rec.Product,
		"payload_size", payloadSize)

	if ierr := s.persistRecord(c.Request.Context(), rec); ierr != nil {
		writeError(c, ierr)
		return
	}

	metrics.RecordsImported.WithLabelValues("accepted").Inc()
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted", "id": rec.ID})
}

// ListRecordsHandler returns a user's records matching the query filters, oldest first.
func (s *Service) ListRecordsHandler(c *gin.Context) {
	var q RecordsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeError(c, &importError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidRequestError,
			message:    err.Error(),
		})
		return
	}

	f := filters.Filters{
		Timeframe: q.Timeframe,
		Product:   q.Product,
		Topics:    q.Topics,
		Channels:  q.Channels,
	}
	records, err := s.store.LoadRecords(c.Request.Context(), c.Param("user_id"), f)
	if err != nil {
		slog.Error("[Ingestion] Failed to load records", "error", err, "user_id", c.Param("user_id"))
		writeError(c, &importError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgLoadFailed,
		})
		return
	}
	if records == nil {
		records = []*v1.Record{}
	}

	c.JSON(http.StatusOK, records)
}

// parseRecord reads the size-limited request body and binds it into a Record.
// Returns the parsed record and the raw payload size.
func (s *Service) parseRecord(c *gin.Context) (*v1.Record, int, *importError) {
	maxBytes := int64(s.maxBodySizeBytes)
	limitedBody := io.LimitReader(c.Request.Body, maxBytes+1) // +1 to detect oversized requests

	bodyBytes, err := io.ReadAll(limitedBody)
	if err != nil {
		slog.Error("[Ingestion] Failed to read request body", "error", err)
		return nil, 0, &importError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgReadBodyFailed,
		}
	}

	if int64(len(bodyBytes)) > maxBytes {
		slog.Warn("[Ingestion] Request body exceeds maximum size", "size", len(bodyBytes), "max", maxBytes)
		return nil, len(bodyBytes), &importError{
			statusCode: http.StatusRequestEntityTooLarge,
			errorType:  httperr.HttpInvalidJsonError,
			message:    "Request body exceeds maximum allowed size",
			details: map[string]interface{}{
				"max_size_mb": maxBytes / (1024 * 1024),
			},
		}
	}

	c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))

	var rec v1.Record
	if err := c.ShouldBindJSON(&rec); err != nil {
		slog.Warn("[Ingestion] Invalid JSON body received", "error", err, "payload_size", len(bodyBytes))
		return nil, len(bodyBytes), &importError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    msgInvalidJSON,
		}
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	return &rec, len(bodyBytes), nil
}

// persistRecord saves the record to the record store.
func (s *Service) persistRecord(ctx context.Context, rec *v1.Record) *importError {
	if err := s.store.SaveRecord(ctx, rec); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			slog.Info("[Ingestion] Duplicate record rejected", "record_id", rec.ID, "user_id", rec.UserID)
			metrics.RecordsImported.WithLabelValues("duplicate").Inc()
			return &importError{
				statusCode: http.StatusConflict,
				errorType:  httperr.HttpDuplicateRecordError,
				message:    msgDuplicateRecord,
			}
		}

		slog.Error("[Ingestion] Failed to persist record", "error", err, "record_id", rec.ID)
		metrics.RecordsImported.WithLabelValues("error").Inc()
		return &importError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgPersistFailed,
		}
	}

	return nil
}

// writeError serializes an importError as the JSON HTTP response.
func writeError(c *gin.Context, err *importError) {
	c.JSON(err.statusCode, httperr.ErrorResponse{
		ErrorType: err.errorType,
		Message:   err.message,
		Details:   err.details,
	})
}
