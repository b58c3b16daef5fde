package frontauth

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var untrustedParser = jwt.NewParser(jwt.WithPaddingAllowed())

var errNotObject = errors.New("payload is not a JSON object")

// UntrustedClaims decodes the payload segment of a bearer token WITHOUT
// verifying its signature. The result is informational only and must never
// be treated as an authenticated identity.
//
// Only the middle segment is read; the header and signature are ignored. A
// token that is not three dot separated segments, or whose middle segment
// is not base64url encoded JSON object, yields a *DecodeFailure.
func UntrustedClaims(token string) (UserProfile, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, &DecodeFailure{Err: fmt.Errorf("token has %d segments, want 3", len(parts))}
	}

	payload, err := untrustedParser.DecodeSegment(parts[1])
	if err != nil {
		return nil, &DecodeFailure{Err: err}
	}

	var claims jwt.MapClaims
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&claims); err != nil {
		return nil, &DecodeFailure{Err: err}
	}
	if claims == nil {
		return nil, &DecodeFailure{Err: errNotObject}
	}
	return UserProfile(claims), nil
}
