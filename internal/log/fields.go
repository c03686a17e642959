package log

// Common field names for structured logging.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldTransactionID  = "id"
	FieldDate           = "date"
	FieldYear           = "year"
	FieldMonth          = "month"
	FieldCategory       = "category"
	FieldCurrencyCode   = "currency_code"
	FieldAmountOriginal = "amount_original"
	FieldAmountHome     = "amount_home"
	FieldMigration      = "migration"
)

// Components defines standard component names.
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentLedger   = "ledger"
	ComponentStorage  = "storage"
	ComponentCurrency = "currency"
	ComponentReports  = "reports"
	ComponentBudget   = "budget"
	ComponentAMQP     = "amqp"
)

// Operations defines standard operation names.
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpMigrate  = "migrate"
	OpConvert  = "convert"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
