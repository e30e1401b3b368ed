package middlewares

// gin context keys for the authenticated identity and request metadata.
const (
	CtxUserID    = "auth.userID"
	CtxEmail     = "auth.email"
	CtxRequestID = "request_id"
)
