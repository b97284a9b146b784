package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/recipebook/internal/common"
	"github.com/dmitrijs2005/recipebook/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// kindError converts a failed recipe result into a status error. The
// detail was already made safe to show by the service.
func kindError(kind services.ErrorKind, detail string) error {
	switch kind {
	case services.KindValidationFailed, services.KindInvalidStatusValue:
		return status.Error(codes.InvalidArgument, detail)
	case services.KindOwnershipDenied, services.KindNotFoundOrForbidden:
		return status.Error(codes.NotFound, detail)
	case services.KindInvalidTransition:
		return status.Error(codes.FailedPrecondition, detail)
	}
	return status.Error(codes.Internal, detail)
}

// statusError converts a service sentinel error into a status error.
// Anything unrecognised is logged and reported as a generic internal error.
func (s *GRPCServer) statusError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrInvalidStatusValue):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrNotFoundOrForbidden):
		return status.Error(codes.NotFound, "recipe not found or no permission")
	case errors.Is(err, common.ErrNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, common.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, "already exists")
	case errors.Is(err, common.ErrUnauthorized):
		return status.Error(codes.Unauthenticated, "unauthorized")
	case errors.Is(err, common.ErrAdminRequired):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, common.ErrInvalidTransition), errors.Is(err, common.ErrConstraintViolation):
		return status.Error(codes.FailedPrecondition, err.Error())
	}

	if !errors.Is(err, common.ErrInternal) {
		s.logger.Error(ctx, "request failed", "error", err)
	}
	return status.Error(codes.Internal, "internal error")
}
