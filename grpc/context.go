// Package grpc carries the persisted frontauth bearer token on gRPC calls
// made by the front end, as "authorization: Bearer <token>" metadata.
package grpc

import (
	"context"
	"strings"

	"google.golang.org/grpc/metadata"
)

const (
	// DefaultMetadataKeyAuthorization is the default gRPC metadata key for the bearer token
	DefaultMetadataKeyAuthorization = "authorization"

	// DefaultScheme prefixes the token in the metadata value
	DefaultScheme = "Bearer"
)

// Config holds the metadata key configuration.
type Config struct {
	// MetadataKey is the gRPC metadata key the token is sent under.
	// Defaults to "authorization".
	MetadataKey string

	// Scheme prefixes the token. Defaults to "Bearer".
	Scheme string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		MetadataKey: DefaultMetadataKeyAuthorization,
		Scheme:      DefaultScheme,
	}
}

// EnsureDefaults fills in default values for any unset fields.
func (c *Config) EnsureDefaults() {
	if c.MetadataKey == "" {
		c.MetadataKey = DefaultMetadataKeyAuthorization
	}
	if c.Scheme == "" {
		c.Scheme = DefaultScheme
	}
}

// TokenToOutgoingContext adds the bearer token to outgoing gRPC context metadata.
func TokenToOutgoingContext(ctx context.Context, token string) context.Context {
	return TokenToOutgoingContextWithConfig(ctx, token, nil)
}

// TokenToOutgoingContextWithConfig adds the token using the specified config.
func TokenToOutgoingContextWithConfig(ctx context.Context, token string, config *Config) context.Context {
	if config == nil {
		config = DefaultConfig()
	}
	config.EnsureDefaults()
	return metadata.AppendToOutgoingContext(ctx, config.MetadataKey, config.Scheme+" "+token)
}

// TokenFromIncomingContext extracts the bearer token a client sent.
// Returns empty string if there is none. Useful for servers and tests.
func TokenFromIncomingContext(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	return tokenFromValues(md.Get(DefaultMetadataKeyAuthorization), DefaultScheme)
}

func tokenFromValues(values []string, scheme string) string {
	for _, v := range values {
		if len(v) > len(scheme) && strings.EqualFold(v[:len(scheme)], scheme) && v[len(scheme)] == ' ' {
			return strings.TrimSpace(v[len(scheme)+1:])
		}
	}
	return ""
}
