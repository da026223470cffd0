package middlewares

// gin context keys
const (
	CtxRequestID = "request_id"
	ctxUserIDKey = "auth.userID"
	ctxEmailKey  = "auth.email"
	ctxRoleKey   = "auth.role"
)
