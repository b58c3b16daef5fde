package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// TokenSource yields the bearer token for outgoing calls. *frontauth.SessionStore implements it.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// InterceptorConfig configures the bearer interceptors.
type InterceptorConfig struct {
	// Config holds the metadata key configuration.
	*Config

	// RequireToken when true fails calls locally with Unauthenticated when
	// there is no persisted session. When false they are sent without a token.
	RequireToken bool

	// PublicMethods are sent without a token even when one exists.
	// Keys should be full method names like "/package.Service/Method".
	PublicMethods map[string]bool
}

// DefaultInterceptorConfig returns a config that attaches a token when one exists.
func DefaultInterceptorConfig() *InterceptorConfig {
	return &InterceptorConfig{
		Config:        DefaultConfig(),
		PublicMethods: make(map[string]bool),
	}
}

// NewPublicMethodsConfig creates a config requiring a token except for the given methods.
func NewPublicMethodsConfig(publicMethods ...string) *InterceptorConfig {
	config := DefaultInterceptorConfig()
	config.RequireToken = true
	for _, method := range publicMethods {
		config.PublicMethods[method] = true
	}
	return config
}

func normalize(config *InterceptorConfig) *InterceptorConfig {
	if config == nil {
		config = DefaultInterceptorConfig()
	}
	if config.Config == nil {
		config.Config = DefaultConfig()
	}
	config.Config.EnsureDefaults()
	return config
}

// UnaryBearerInterceptor returns a client interceptor that attaches the persisted token.
func UnaryBearerInterceptor(tokens TokenSource, config *InterceptorConfig) grpc.UnaryClientInterceptor {
	config = normalize(config)

	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx, err := withToken(ctx, method, tokens, config)
		if err != nil {
			return err
		}
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// StreamBearerInterceptor returns a client stream interceptor that attaches the persisted token.
func StreamBearerInterceptor(tokens TokenSource, config *InterceptorConfig) grpc.StreamClientInterceptor {
	config = normalize(config)

	return func(ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn, method string, streamer grpc.Streamer, opts ...grpc.CallOption) (grpc.ClientStream, error) {
		ctx, err := withToken(ctx, method, tokens, config)
		if err != nil {
			return nil, err
		}
		return streamer(ctx, desc, cc, method, opts...)
	}
}

// DialOptions returns the options that install both interceptors on a connection.
func DialOptions(tokens TokenSource, config *InterceptorConfig) []grpc.DialOption {
	return []grpc.DialOption{
		grpc.WithChainUnaryInterceptor(UnaryBearerInterceptor(tokens, config)),
		grpc.WithChainStreamInterceptor(StreamBearerInterceptor(tokens, config)),
	}
}

func withToken(ctx context.Context, method string, tokens TokenSource, config *InterceptorConfig) (context.Context, error) {
	if config.PublicMethods[method] {
		return ctx, nil
	}

	token, err := tokens.Token(ctx)
	if err != nil {
		return nil, status.Errorf(codes.Unavailable, "reading session token: %v", err)
	}
	if token == "" {
		if config.RequireToken {
			return nil, status.Error(codes.Unauthenticated, "no session, log in first")
		}
		return ctx, nil
	}
	return TokenToOutgoingContextWithConfig(ctx, token, config.Config), nil
}
