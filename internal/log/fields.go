package log

// Field names shared by every log line.
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
	FieldUserID     = "user_id"
	FieldUsername   = "username"
	FieldEntryID    = "entry_id"
	FieldEntryKind  = "entry_kind"
	FieldAmount     = "amount"
	FieldCategory   = "category"
	FieldSource     = "source"
	FieldDate       = "date"
)

const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentExpense   = "expense"
	ComponentIncome    = "income"
	ComponentSummary   = "summary"
	ComponentAccount   = "account"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentExport    = "export"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentTrace     = "trace"
	ComponentBackend   = "backend"
	ComponentTemplate  = "template"
	ComponentCLI       = "cli"
	ComponentWorker    = "worker"
)

const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpSearch   = "search"
	OpSummary  = "summary"
	OpRegister = "register"
	OpActivate = "activate"
	OpLogin    = "login"
	OpLogout   = "logout"
	OpExport   = "export"
	OpRender   = "render"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// Entry kinds for FieldEntryKind.
const (
	KindExpense = "expense"
	KindIncome  = "income"
)

// Fields builds structured log attributes.
type Fields map[string]any

func NewFields() Fields {
	return make(Fields)
}

func (f Fields) WithRequestID(requestID string) Fields {
	f[FieldRequestID] = requestID
	return f
}

func (f Fields) WithClientIP(ip string) Fields {
	f[FieldClientIP] = ip
	return f
}

// WithError adds the error text; nil errors are skipped.
func (f Fields) WithError(err error) Fields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f Fields) WithOperation(op string) Fields {
	f[FieldOperation] = op
	return f
}

func (f Fields) WithUser(id int64) Fields {
	f[FieldUserID] = id
	return f
}

// WithEntry describes one ledger entry. label is the category for expenses
// and the source for income.
func (f Fields) WithEntry(kind string, id int64, amount, label, date string) Fields {
	f[FieldEntryKind] = kind
	f[FieldEntryID] = id
	f[FieldAmount] = amount
	if kind == KindIncome {
		f[FieldSource] = label
	} else {
		f[FieldCategory] = label
	}
	f[FieldDate] = date
	return f
}

func (f Fields) WithHTTPRequest(method, path, query, userAgent string) Fields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

func (f Fields) WithHTTPResponse(statusCode int, durationMs int64) Fields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice flattens the fields into slog key/value arguments.
func (f Fields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
