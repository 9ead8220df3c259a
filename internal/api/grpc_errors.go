package api

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/signalsfoundry/mission-orbit-sim/core"
	"github.com/signalsfoundry/mission-orbit-sim/internal/intent"
	"github.com/signalsfoundry/mission-orbit-sim/kb"
	"github.com/signalsfoundry/mission-orbit-sim/model"
)

// ErrInvalidRequest is a package-level sentinel used for client-side validation failures.
var ErrInvalidRequest = errors.New("invalid request")

// ToStatusError maps simulator errors onto gRPC status codes.
func ToStatusError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	return status.Error(codeFor(err), err.Error())
}

// HTTPStatus maps simulator errors onto HTTP status codes.
func HTTPStatus(err error) int {
	switch codeFor(err) {
	case codes.OK:
		return http.StatusOK
	case codes.NotFound:
		return http.StatusNotFound
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.FailedPrecondition:
		return http.StatusConflict
	case codes.Canceled:
		return 499
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func codeFor(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK

	case errors.Is(err, kb.ErrMissionNotFound):
		return codes.NotFound

	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, intent.ErrMalformed),
		errors.Is(err, kb.ErrMissionInvalid),
		errors.Is(err, model.ErrInvalidUnitConfig):
		return codes.InvalidArgument

	case errors.Is(err, core.ErrPreconditionViolation),
		errors.Is(err, model.ErrInvalidOrbit):
		return codes.FailedPrecondition

	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded

	default:
		return codes.Internal
	}
}
