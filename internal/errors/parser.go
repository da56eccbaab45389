package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError maps storage and driver errors to a code and a message that is safe
// to show. context names the operation, e.g. "create store".
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Code: InternalServerError, Message: "Something went wrong"}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{Code: ResourceNotFound, Message: notFoundMessage(context)}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return parseDuplicateKeyError(err.Error())
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return ErrorInfo{Code: ResourceConflict, Message: "Related data prevents this change"}
	}

	errLower := strings.ToLower(err.Error())

	// untranslated driver errors
	switch {
	case strings.Contains(errLower, "duplicate key"), strings.Contains(errLower, "unique constraint"):
		return parseDuplicateKeyError(errLower)
	case strings.Contains(errLower, "foreign key constraint"):
		return ErrorInfo{Code: ResourceConflict, Message: "Related data prevents this change"}
	case strings.Contains(errLower, "not-null constraint"), strings.Contains(errLower, "not null constraint"):
		return ErrorInfo{Code: ValidationRequired, Message: "A required field is missing"}
	case strings.Contains(errLower, "check constraint"):
		return ErrorInfo{Code: ValidationInvalidInput, Message: "Invalid input"}
	case strings.Contains(errLower, "connection refused"),
		strings.Contains(errLower, "no such host"),
		strings.Contains(errLower, "timeout"):
		return ErrorInfo{Code: InternalExternalAPI, Message: "A backing service is unavailable. Please try again later"}
	}

	return ErrorInfo{Code: InternalServerError, Message: defaultErrorMessage(context)}
}

func parseDuplicateKeyError(errStr string) ErrorInfo {
	errLower := strings.ToLower(errStr)

	if strings.Contains(errLower, "slug") {
		return ErrorInfo{Code: StoreSlugTaken, Message: "That store address is already taken. Please try again"}
	}
	if strings.Contains(errLower, "email") {
		return ErrorInfo{Code: AuthEmailAlreadyExists, Message: "That email is already registered"}
	}
	return ErrorInfo{Code: ResourceAlreadyExists, Message: "That record already exists"}
}

func notFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "store"):
		return "Store not found"
	case strings.Contains(contextLower, "user"):
		return "User not found"
	case strings.Contains(contextLower, "review"):
		return "Review not found"
	}
	return "The requested data was not found"
}

func defaultErrorMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "create"):
		return "Could not save. Please try again later"
	case strings.Contains(contextLower, "update"):
		return "Could not update. Please try again later"
	case strings.Contains(contextLower, "delete"):
		return "Could not delete. Please try again later"
	}
	return "Something went wrong. Please try again later"
}

// ParseAndRespond parses err and writes it with statusCode
func ParseAndRespond(c interface{ JSON(int, interface{}) }, statusCode int, err error, context string) {
	info := ParseError(err, context)
	c.JSON(statusCode, ErrorResponse{
		Error:   info.Code,
		Message: info.Message,
	})
}
