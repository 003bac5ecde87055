package auth

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCodec(t *testing.T) *TokenCodec {
	t.Helper()
	codec, err := NewTokenCodec("test-secret-key", "HS256")
	require.NoError(t, err)
	return codec
}

// fixedClock pins the codec's notion of now; advance moves it.
func fixedClock(codec *TokenCodec, start time.Time) (advance func(time.Duration)) {
	current := start
	codec.now = func() time.Time { return current }
	return func(d time.Duration) { current = current.Add(d) }
}

func TestTokenCodec_RoundTrip(t *testing.T) {
	codec := newTestCodec(t)

	token, err := codec.Encode("alice", time.Hour)
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	subject, err := codec.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", subject)
}

func TestTokenCodec_ExpiryBoundary(t *testing.T) {
	codec := newTestCodec(t)
	advance := fixedClock(codec, time.Unix(1_700_000_000, 0))

	token, err := codec.Encode("alice", 30*time.Minute)
	require.NoError(t, err)

	advance(30*time.Minute - time.Second)
	subject, err := codec.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", subject)

	advance(time.Second)
	_, err = codec.Decode(token)
	assert.ErrorIs(t, err, ErrDecode, "token must be invalid exactly at expiry")

	advance(time.Second)
	_, err = codec.Decode(token)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestTokenCodec_ExpiryBoundaryBetweenSeconds(t *testing.T) {
	codec := newTestCodec(t)
	advance := fixedClock(codec, time.Unix(1_700_000_000, 900_000_000))

	token, err := codec.Encode("alice", 30*time.Minute)
	require.NoError(t, err)

	advance(30*time.Minute - 500*time.Millisecond)
	subject, err := codec.Decode(token)
	require.NoError(t, err, "token rejected before its ttl elapsed")
	assert.Equal(t, "alice", subject)

	advance(500*time.Millisecond - time.Nanosecond)
	_, err = codec.Decode(token)
	require.NoError(t, err)

	advance(time.Nanosecond)
	_, err = codec.Decode(token)
	assert.ErrorIs(t, err, ErrDecode, "token must be invalid exactly at expiry")
}

func TestExpiry_JSON(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		wire string
	}{
		{name: "whole second", at: time.Unix(1_700_000_000, 0), wire: "1700000000"},
		{name: "fraction", at: time.Unix(1_700_000_000, 900_000_000), wire: "1700000000.9"},
		{name: "nanoseconds", at: time.Unix(1_700_000_000, 123_456_789), wire: "1700000000.123456789"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := json.Marshal(expiry{Time: tt.at})
			require.NoError(t, err)
			assert.Equal(t, tt.wire, string(raw))

			var decoded expiry
			require.NoError(t, json.Unmarshal(raw, &decoded))
			assert.True(t, tt.at.Equal(decoded.Time))
		})
	}

	var decoded expiry
	require.NoError(t, json.Unmarshal([]byte("1.7e9"), &decoded))
	assert.True(t, time.Unix(1_700_000_000, 0).Equal(decoded.Time))

	assert.Error(t, json.Unmarshal([]byte(`"soon"`), &decoded))
}

func TestTokenCodec_DefaultTTL(t *testing.T) {
	codec := newTestCodec(t)
	start := time.Unix(1_700_000_000, 0)
	fixedClock(codec, start)

	token, err := codec.Encode("alice", 0)
	require.NoError(t, err)

	claims := jwt.RegisteredClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(token, &claims)
	require.NoError(t, err)
	require.NotNil(t, claims.ExpiresAt)
	assert.True(t, start.Add(DefaultTokenTTL).Equal(claims.ExpiresAt.Time))
	assert.Equal(t, "alice", claims.Subject)
}

func TestTokenCodec_OnlySubjectAndExpiryClaims(t *testing.T) {
	codec := newTestCodec(t)

	token, err := codec.Encode("alice", time.Minute)
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(token, claims)
	require.NoError(t, err)

	keys := make([]string, 0, len(claims))
	for k := range claims {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{"sub", "exp"}, keys)
}

func TestTokenCodec_TamperedByteFails(t *testing.T) {
	codec := newTestCodec(t)

	token, err := codec.Encode("alice", time.Hour)
	require.NoError(t, err)

	for i := 0; i < len(token); i++ {
		replacement := byte('A')
		if token[i] == 'A' {
			replacement = 'B'
		}
		tampered := token[:i] + string(replacement) + token[i+1:]

		_, err := codec.Decode(tampered)
		assert.ErrorIs(t, err, ErrDecode, "tampered byte at %d decoded", i)
	}
}

func TestTokenCodec_DecodeFailures(t *testing.T) {
	codec := newTestCodec(t)
	secret := []byte("test-secret-key")
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))

	sign := func(method jwt.SigningMethod, key any, claims jwt.Claims) string {
		t.Helper()
		token, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return token
	}

	otherCodec, err := NewTokenCodec("another-secret", "HS256")
	require.NoError(t, err)
	foreign, err := otherCodec.Encode("alice", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "not a jwt", token: "not-a-token"},
		{name: "three garbage segments", token: "a.b.c"},
		{name: "wrong secret", token: foreign},
		{name: "missing expiry", token: sign(jwt.SigningMethodHS256, secret, jwt.RegisteredClaims{Subject: "alice"})},
		{name: "missing subject", token: sign(jwt.SigningMethodHS256, secret, jwt.RegisteredClaims{ExpiresAt: future})},
		{name: "already expired", token: sign(jwt.SigningMethodHS256, secret, jwt.RegisteredClaims{Subject: "alice", ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))})},
		{name: "other hmac algorithm", token: sign(jwt.SigningMethodHS512, secret, jwt.RegisteredClaims{Subject: "alice", ExpiresAt: future})},
		{name: "unsigned", token: sign(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, jwt.RegisteredClaims{Subject: "alice", ExpiresAt: future})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, err := codec.Decode(tt.token)
			assert.ErrorIs(t, err, ErrDecode)
			assert.Empty(t, subject)
		})
	}
}

func TestNewTokenCodec(t *testing.T) {
	tests := []struct {
		name      string
		secret    string
		algorithm string
		wantAlg   string
		wantErr   bool
	}{
		{name: "hs256", secret: "s", algorithm: "HS256", wantAlg: "HS256"},
		{name: "hs512", secret: "s", algorithm: "HS512", wantAlg: "HS512"},
		{name: "alias", secret: "s", algorithm: "HMAC-SHA256", wantAlg: "HS256"},
		{name: "lowercase alias", secret: "s", algorithm: "hmac-sha384", wantAlg: "HS384"},
		{name: "empty secret", secret: "", algorithm: "HS256", wantErr: true},
		{name: "asymmetric", secret: "s", algorithm: "RS256", wantErr: true},
		{name: "none", secret: "s", algorithm: "none", wantErr: true},
		{name: "unknown", secret: "s", algorithm: "XYZ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec, err := NewTokenCodec(tt.secret, tt.algorithm)
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, codec)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAlg, codec.method.Alg())
		})
	}
}
