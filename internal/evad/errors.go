package evad

import (
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrRunNotFound   = errors.New("run not found")
	ErrRunExists     = errors.New("run already exists")
	ErrRunTerminal   = errors.New("run is terminal")
	ErrRunIDMissing  = errors.New("run_id is required")
	ErrInvalidConfig = errors.New("invalid run config")

	ErrInvalidCallback = errors.New("invalid callback URL")
)

// statusError maps executor and store errors to gRPC status codes.
func statusError(err error) error {
	switch {
	case errors.Is(err, ErrRunIDMissing), errors.Is(err, ErrInvalidConfig), errors.Is(err, ErrInvalidCallback):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrRunNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrRunExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, ErrRunTerminal):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// httpStatus maps executor and store errors to HTTP status codes.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, ErrRunIDMissing), errors.Is(err, ErrInvalidConfig), errors.Is(err, ErrInvalidCallback):
		return http.StatusBadRequest
	case errors.Is(err, ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrRunExists), errors.Is(err, ErrRunTerminal):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
