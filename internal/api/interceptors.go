package api

import (
	"context"
	"net"
	"strings"
	"time"

	"styledecor/internal/metrics"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

const requestIDMetadataKey = "x-request-id"

// unaryInterceptors runs outermost first: request id, access log, limiter.
// Rate limited calls are still logged and counted.
func unaryInterceptors(logger *zerolog.Logger, limiter *rateLimiter) []grpc.UnaryServerInterceptor {
	return []grpc.UnaryServerInterceptor{
		requestIDInterceptor,
		accessLogInterceptor(logger),
		rateLimitInterceptor(limiter),
	}
}

// requestIDInterceptor reuses the caller's x-request-id or mints one, echoes
// it back as a header and stores it where chi's GetReqID finds it.
func requestIDInterceptor(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	id := incomingRequestID(ctx)
	_ = grpc.SetHeader(ctx, metadata.Pairs(requestIDMetadataKey, id))
	return handler(context.WithValue(ctx, chimiddleware.RequestIDKey, id), req)
}

func accessLogInterceptor(logger *zerolog.Logger) grpc.UnaryServerInterceptor {
	log := zerolog.Nop()
	if logger != nil {
		log = logger.With().Str("component", "grpc").Logger()
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)

		metrics.IncGRPC(info.FullMethod, code.String())
		log.Debug().
			Str("request_id", chimiddleware.GetReqID(ctx)).
			Str("method", info.FullMethod).
			Str("peer", peerHost(ctx)).
			Str("code", code.String()).
			Dur("duration", time.Since(start)).
			Msg("grpc request")

		return resp, err
	}
}

// rateLimitInterceptor shares the HTTP token buckets, keyed by peer host.
func rateLimitInterceptor(limiter *rateLimiter) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !limiter.allow(peerHost(ctx)) {
			return nil, status.Error(codes.ResourceExhausted, "rate limit exceeded")
		}
		return handler(ctx, req)
	}
}

func peerHost(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return clientKeyUnknown
	}
	addr := p.Addr.String()
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

func incomingRequestID(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		for _, v := range md.Get(requestIDMetadataKey) {
			if id := strings.TrimSpace(v); id != "" {
				return id
			}
		}
	}
	return uuid.NewString()
}
