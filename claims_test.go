package frontauth_test

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fa "github.com/martinez-Diana/FRONTJMARTINEZ"
)

func TestUntrustedClaims_SignedToken(t *testing.T) {
	token := mintToken(t, jwt.MapClaims{"sub": "42", "role_id": 2, "email": "ana@example.com"})

	claims, err := fa.UntrustedClaims(token)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", claims["email"])

	role, ok := claims.RoleID()
	assert.True(t, ok)
	assert.Equal(t, 2, role)
}

func TestUntrustedClaims_IgnoresSignature(t *testing.T) {
	token := mintToken(t, jwt.MapClaims{"role_id": 1})
	tampered := token[:len(token)-4] + "AAAA"

	claims, err := fa.UntrustedClaims(tampered)
	require.NoError(t, err, "signatures are never checked")
	role, _ := claims.RoleID()
	assert.Equal(t, 1, role)
}

func TestUntrustedClaims_UnknownAlg(t *testing.T) {
	enc := base64.RawURLEncoding.EncodeToString
	token := enc([]byte(`{"alg":"XYZ","typ":"JWT"}`)) + "." + enc([]byte(`{"role_id":3}`)) + ".sig"

	claims, err := fa.UntrustedClaims(token)
	require.NoError(t, err)
	role, ok := claims.RoleID()
	assert.True(t, ok)
	assert.Equal(t, 3, role)
}

func TestUntrustedClaims_IgnoresHeader(t *testing.T) {
	enc := base64.RawURLEncoding.EncodeToString

	tests := []struct {
		name  string
		token string
		want  fa.UserProfile
	}{
		{
			name:  "garbage header",
			token: "xx." + enc([]byte(`{"role_id":2,"email":"a@b"}`)) + ".sig",
			want:  fa.UserProfile{"role_id": json.Number("2"), "email": "a@b"},
		},
		{
			name:  "empty payload with unknown alg",
			token: enc([]byte(`{"alg":"XYZ"}`)) + "." + enc([]byte(`{}`)) + ".sig",
			want:  fa.UserProfile{},
		},
		{
			name:  "no alg and no signature",
			token: enc([]byte(`{}`)) + "." + enc([]byte(`{"role_id":1}`)) + ".",
			want:  fa.UserProfile{"role_id": json.Number("1")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := fa.UntrustedClaims(tt.token)
			require.NoError(t, err)
			assert.Equal(t, tt.want, claims)
		})
	}
}

func TestUntrustedClaims_Malformed(t *testing.T) {
	enc := base64.RawURLEncoding.EncodeToString
	header := enc([]byte(`{"alg":"HS256","typ":"JWT"}`))

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "opaque", token: "not-a-jwt"},
		{name: "two segments", token: header + "." + enc([]byte(`{}`))},
		{name: "payload not base64", token: header + ".%%%.sig"},
		{name: "payload not json", token: header + "." + enc([]byte("hello")) + ".sig"},
		{name: "payload not an object", token: header + "." + enc([]byte("[1,2]")) + ".sig"},
		{name: "null payload", token: header + "." + enc([]byte("null")) + ".sig"},
		{name: "four segments", token: header + "." + enc([]byte(`{}`)) + ".sig.extra"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var claims fa.UserProfile
			var err error
			require.NotPanics(t, func() { claims, err = fa.UntrustedClaims(tt.token) })

			var failure *fa.DecodeFailure
			require.ErrorAs(t, err, &failure)
			assert.Nil(t, claims)
		})
	}
}

func TestUserProfile_RoleID(t *testing.T) {
	tests := []struct {
		name    string
		profile fa.UserProfile
		want    int
		ok      bool
	}{
		{name: "nil", profile: nil},
		{name: "absent", profile: fa.UserProfile{"id": 1}},
		{name: "int", profile: fa.UserProfile{"role_id": 2}, want: 2, ok: true},
		{name: "int64", profile: fa.UserProfile{"role_id": int64(3)}, want: 3, ok: true},
		{name: "float", profile: fa.UserProfile{"role_id": 1.0}, want: 1, ok: true},
		{name: "fractional", profile: fa.UserProfile{"role_id": 1.5}},
		{name: "numeric string", profile: fa.UserProfile{"role_id": "2"}},
		{name: "padded numeric string", profile: fa.UserProfile{"role_id": " 1 "}},
		{name: "word", profile: fa.UserProfile{"role_id": "admin"}},
		{name: "bool", profile: fa.UserProfile{"role_id": true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.profile.RoleID()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
