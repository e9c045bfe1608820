package errors

import (
	goerrors "errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Conversation core taxonomy. Callers wrap them with fmt.Errorf("%w: ...")
// and compare with errors.Is.
var (
	ErrNotFound         = fmt.Errorf("not found")
	ErrPermissionDenied = fmt.Errorf("permission denied")
	ErrInvalidOperation = fmt.Errorf("invalid operation")
	ErrConflict         = fmt.Errorf("conflict")
	ErrValidation       = fmt.Errorf("validation failed")
)

// Identity
var (
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity requirements")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrUnauthenticated    = fmt.Errorf("unauthenticated")
)

// Runtime
var (
	ErrWorkerPanic     = fmt.Errorf("worker panic")
	ErrDeliveryDropped = fmt.Errorf("delivery dropped")
)

// MapToGRPCError translates a service error into a gRPC status.
// Unknown errors are reported as Internal with a generic message so that
// store details never leak to clients.
func MapToGRPCError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case goerrors.Is(err, ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case goerrors.Is(err, ErrPermissionDenied):
		return status.Error(codes.PermissionDenied, err.Error())
	case goerrors.Is(err, ErrInvalidOperation):
		return status.Error(codes.FailedPrecondition, err.Error())
	case goerrors.Is(err, ErrConflict), goerrors.Is(err, ErrUserAlreadyExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case goerrors.Is(err, ErrValidation), goerrors.Is(err, ErrInvalidPassword):
		return status.Error(codes.InvalidArgument, err.Error())
	case goerrors.Is(err, ErrInvalidCredentials), goerrors.Is(err, ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

// MapToHTTPStatus is the HTTP counterpart of MapToGRPCError, used by the
// websocket and file endpoints.
func MapToHTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case goerrors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case goerrors.Is(err, ErrPermissionDenied):
		return http.StatusForbidden
	case goerrors.Is(err, ErrInvalidOperation), goerrors.Is(err, ErrConflict):
		return http.StatusConflict
	case goerrors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case goerrors.Is(err, ErrUnauthenticated), goerrors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
