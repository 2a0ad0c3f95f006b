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

	FieldTenantID  = "tenant_id"
	FieldExpenseID = "expense_id"
	FieldName      = "name"
	FieldCost      = "cost"
	FieldDate      = "date"
	FieldFrom      = "from"
	FieldTo        = "to"
	FieldCount     = "count"
	FieldThreshold = "threshold"
	FieldEvent     = "event_type"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentLedger    = "ledger"
	ComponentStats     = "stats"
	ComponentStorage   = "storage"
	ComponentRegistry  = "registry"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSessions  = "sessions"
	ComponentChat      = "chat"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentTrace     = "trace"
	ComponentBackend   = "backend"
)

// Operations defines standard operation names
const (
	OpAdd        = "add"
	OpList       = "list"
	OpRange      = "range"
	OpStatistics = "statistics"
	OpDelete     = "delete"
	OpSearch     = "search"
	OpPublish    = "publish"
	OpConsume    = "consume"
	OpShutdown   = "shutdown"
	OpStartup    = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

func (f LogFields) WithTenant(tenantID int64) LogFields {
	f[FieldTenantID] = tenantID
	return f
}

// WithError adds the error text; nil errors are skipped.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithExpense adds the fields describing a single record.
func (f LogFields) WithExpense(name string, cost float64) LogFields {
	f[FieldName] = name
	f[FieldCost] = cost
	return f
}

// ToSlice converts LogFields to key/value pairs for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
