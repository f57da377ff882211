package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldStream     = "stream"
	FieldDate       = "date"
	FieldCategory   = "category"
	FieldAssetCode  = "asset_code"
	FieldAmount     = "amount"
	FieldWindowDays = "window_days"
	FieldBackend    = "backend"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentSnapshots = "snapshots"
	ComponentLedger    = "ledger"
	ComponentAnalyzer  = "analyzer"
	ComponentPriceFeed = "pricefeed"
	ComponentRows      = "rows"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentBackend   = "backend"
	ComponentCache     = "cache"
)

// Operations defines standard operation names
const (
	OpUpsert    = "upsert"
	OpRead      = "read"
	OpAppend    = "append"
	OpUpdate    = "update"
	OpInit      = "initialize"
	OpSpend     = "spend"
	OpReplenish = "replenish"
	OpAnalyze   = "analyze"
	OpFetch     = "fetch"
	OpSync      = "sync"
	OpValidate  = "validate"
	OpStartup   = "startup"
	OpShutdown  = "shutdown"
)

// Fields provides a builder for structured log fields
type Fields map[string]any

// NewFields creates an empty Fields set
func NewFields() Fields {
	return make(Fields)
}

// WithComponent adds the component field
func (f Fields) WithComponent(component string) Fields {
	f[FieldComponent] = component
	return f
}

// WithRequestID adds the request ID field
func (f Fields) WithRequestID(requestID string) Fields {
	f[FieldRequestID] = requestID
	return f
}

// WithError adds the error field
func (f Fields) WithError(err error) Fields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds the operation field
func (f Fields) WithOperation(op string) Fields {
	f[FieldOperation] = op
	return f
}

// WithStream adds the stream field
func (f Fields) WithStream(stream string) Fields {
	f[FieldStream] = stream
	return f
}

// WithHTTPRequest adds HTTP request fields
func (f Fields) WithHTTPRequest(method, path, query, userAgent string) Fields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	f[FieldUserAgent] = userAgent
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f Fields) WithHTTPResponse(statusCode int, durationMs int64) Fields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice converts Fields to an alternating key/value slice for slog
func (f Fields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
