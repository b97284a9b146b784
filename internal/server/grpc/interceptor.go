package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/recipebook/internal/common"
	"github.com/dmitrijs2005/recipebook/internal/server/auth"
	"github.com/dmitrijs2005/recipebook/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const viewerKey ctxKey = "viewer"

// viewerInterceptor resolves the access token, if any, into the viewer the
// handlers act for. Calls without a token run as the anonymous viewer.
func (s *GRPCServer) viewerInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {

	viewer := models.AnonymousViewer()

	if accessToken := accessTokenFrom(ctx); accessToken != "" {
		v, err := auth.ViewerFromToken(accessToken, s.jwtSecret)
		if err != nil {
			if errors.Is(err, common.ErrTokenExpired) {
				return nil, status.Error(codes.Unauthenticated, "token expired")
			}
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}
		viewer = v
	}

	return handler(context.WithValue(ctx, viewerKey, viewer), req)
}

func (s *GRPCServer) recoverInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error(ctx, "handler panicked", "method", info.FullMethod, "panic", r)
			err = status.Error(codes.Internal, "internal error")
		}
	}()
	return handler(ctx, req)
}

func accessTokenFrom(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(common.AccessTokenHeaderName)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// viewerFrom returns the viewer stored by viewerInterceptor.
func viewerFrom(ctx context.Context) models.Viewer {
	if v, ok := ctx.Value(viewerKey).(models.Viewer); ok {
		return v
	}
	return models.AnonymousViewer()
}

// requireUser returns the authenticated viewer or an Unauthenticated status.
func requireUser(ctx context.Context) (models.Viewer, error) {
	v := viewerFrom(ctx)
	if !v.Authenticated() {
		return v, status.Error(codes.Unauthenticated, "missing token")
	}
	return v, nil
}
