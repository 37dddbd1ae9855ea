package usercontext

// Locals keys shared by middlewares and controllers
const (
	KeyUserContext = "USER_CONTEXT"
	KeyUserID      = "user_id"
	KeyUsername    = "username"
	KeyIsAdmin     = "isAdmin"
)

// Authentication methods recorded on the context
const (
	AuthMethodToken  = "token"
	AuthMethodAPIKey = "api_key"
)
