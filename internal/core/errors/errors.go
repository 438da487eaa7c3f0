package errors

const (
	HttpInternalError           = "internal_error"
	HttpInvalidRequestError     = "invalid_request"
	HttpInvalidJsonError        = "invalid_json"
	HttpDuplicateRecordError    = "duplicate_record"
	HttpUnknownAggregationError = "unknown_aggregation"
	HttpValidationError         = "aggregation_validation_failed"
	HttpCacheDisabledError      = "cache_disabled"
	HttpUnknownFlagError        = "unknown_flag"
	HttpBackfillDisabledError   = "backfill_disabled"
)

// ErrorResponse is the error response body of every HTTP endpoint.
type ErrorResponse struct {
	ErrorType string      `json:"error_type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}
