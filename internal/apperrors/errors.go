// Package apperrors defines the service error taxonomy and its HTTP mapping.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidCredentials is returned when email/password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAuthRequired is returned when no valid session accompanies a request.
	ErrAuthRequired = errors.New("authentication required")
	// ErrForbidden is returned when the caller's role is insufficient.
	ErrForbidden = errors.New("insufficient permissions")
	// ErrAccountDisabled is returned when a deactivated account is used.
	ErrAccountDisabled = errors.New("account is disabled")
	// ErrNotFound is returned when no record matches the identifier.
	ErrNotFound = errors.New("record not found")
	// ErrLastAdmin is returned when deactivating the sole active admin.
	ErrLastAdmin = errors.New("cannot deactivate the last admin user")
	// ErrUserReferenced is returned when deleting a user that farmer
	// records still reference under the restrict policy.
	ErrUserReferenced = errors.New("user is referenced by farmer records")
)

// FieldError is a single itemized validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries per-field schema violations.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string { return "validation failed" }

// FileError reports a missing, oversized or wrongly-typed uploaded file.
type FileError struct {
	Detail string
}

func (e *FileError) Error() string { return e.Detail }

// DuplicateError reports a unique-constraint collision.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate entry for %s", e.Field)
}

// StorageError wraps an object-store upload/sign failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

// ExportError wraps any failure in the export pipeline.
type ExportError struct {
	Err error
}

func (e *ExportError) Error() string { return fmt.Sprintf("export failed: %v", e.Err) }
func (e *ExportError) Unwrap() error { return e.Err }

// Response is the JSON error body returned to clients.
type Response struct {
	Error   string       `json:"error"`
	Detail  string       `json:"detail,omitempty"`
	Details []FieldError `json:"details,omitempty"`
}

// ToHTTP maps a service error onto a status code and response body.
// Unknown errors collapse to a generic 500 with a non-leaking message.
func ToHTTP(err error) (int, Response) {
	var (
		validationErr *ValidationError
		fileErr       *FileError
		duplicateErr  *DuplicateError
		storageErr    *StorageError
		exportErr     *ExportError
	)
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, Response{Error: "validation failed", Details: validationErr.Fields}
	case errors.As(err, &fileErr):
		return http.StatusBadRequest, Response{Error: "file validation failed", Detail: fileErr.Detail}
	case errors.As(err, &duplicateErr):
		return http.StatusBadRequest, Response{Error: duplicateErr.Error()}
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized, Response{Error: ErrInvalidCredentials.Error()}
	case errors.Is(err, ErrAuthRequired):
		return http.StatusUnauthorized, Response{Error: ErrAuthRequired.Error()}
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, Response{Error: ErrForbidden.Error()}
	case errors.Is(err, ErrAccountDisabled):
		return http.StatusForbidden, Response{Error: ErrAccountDisabled.Error()}
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, Response{Error: ErrNotFound.Error()}
	case errors.Is(err, ErrLastAdmin):
		return http.StatusBadRequest, Response{Error: ErrLastAdmin.Error()}
	case errors.Is(err, ErrUserReferenced):
		return http.StatusBadRequest, Response{Error: ErrUserReferenced.Error()}
	case errors.As(err, &storageErr):
		return http.StatusInternalServerError, Response{Error: "storage operation failed"}
	case errors.As(err, &exportErr):
		return http.StatusInternalServerError, Response{Error: "failed to export farmers data"}
	default:
		return http.StatusInternalServerError, Response{Error: "internal server error"}
	}
}
