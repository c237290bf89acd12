package contextkeys

type contextKey string

const (
	// AdminClaimsKey holds the *auth.AdminClaims of an authenticated admin request
	AdminClaimsKey contextKey = "admin_claims"
	// RequestIDKey holds the request id assigned by the logging middleware
	RequestIDKey contextKey = "request_id"
)
