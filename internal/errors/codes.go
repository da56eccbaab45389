package errors

// Error codes returned in the "error" field of JSON responses.
// Format: CATEGORY_SPECIFIC_DETAIL

const (
	// Authentication
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED"
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"

	// Password reset
	ResetAccountNotFound  = "RESET_ACCOUNT_NOT_FOUND"
	ResetTokenInvalid     = "RESET_TOKEN_INVALID"
	ResetPasswordMismatch = "RESET_PASSWORD_MISMATCH"
	ResetMailFailed       = "RESET_MAIL_FAILED"

	// Authorization
	AuthzForbidden = "AUTHZ_FORBIDDEN"
	AuthzOwnerOnly = "AUTHZ_OWNER_ONLY"

	// Validation
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID    = "VALIDATION_INVALID_ID"
	ValidationInvalidRange = "VALIDATION_INVALID_RANGE"
	ValidationRequired     = "VALIDATION_REQUIRED"

	// Resources
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// Stores
	StoreNotFound    = "STORE_NOT_FOUND"
	StoreSlugTaken   = "STORE_SLUG_TAKEN"
	StorePageMissing = "STORE_PAGE_MISSING"

	// Reviews
	ReviewInvalidRating = "REVIEW_INVALID_RATING"
	ReviewEmpty         = "REVIEW_EMPTY"

	// Uploads
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadFailed          = "UPLOAD_FAILED"

	// Internal
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
)
