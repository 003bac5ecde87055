package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const DefaultTokenTTL = 30 * time.Minute

var algorithmAliases = map[string]string{
	"HMAC-SHA256": jwt.SigningMethodHS256.Alg(),
	"HMAC-SHA384": jwt.SigningMethodHS384.Alg(),
	"HMAC-SHA512": jwt.SigningMethodHS512.Alg(),
}

// expiry is a NumericDate carrying nanoseconds as a fractional part, so a
// token lives for exactly its ttl rather than until the previous whole second.
type expiry struct {
	time.Time
}

func (e expiry) MarshalJSON() ([]byte, error) {
	seconds := strconv.FormatInt(e.Unix(), 10)
	if e.Nanosecond() == 0 {
		return []byte(seconds), nil
	}
	frac := strings.TrimRight(fmt.Sprintf("%09d", e.Nanosecond()), "0")
	return []byte(seconds + "." + frac), nil
}

func (e *expiry) UnmarshalJSON(b []byte) error {
	var number json.Number
	if err := json.Unmarshal(b, &number); err != nil {
		return err
	}

	raw := number.String()
	if strings.ContainsAny(raw, "eE") {
		f, err := number.Float64()
		if err != nil {
			return err
		}
		whole, frac := math.Modf(f)
		e.Time = time.Unix(int64(whole), int64(frac*1e9))
		return nil
	}

	whole, frac, _ := strings.Cut(raw, ".")
	seconds, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return err
	}

	var nanos int64
	if frac != "" {
		if len(frac) > 9 {
			frac = frac[:9]
		}
		nanos, err = strconv.ParseInt(frac+strings.Repeat("0", 9-len(frac)), 10, 64)
		if err != nil {
			return err
		}
	}

	e.Time = time.Unix(seconds, nanos)
	return nil
}

// tokenClaims is the whole wire contract: a subject and an expiry.
type tokenClaims struct {
	Subject   string  `json:"sub"`
	ExpiresAt *expiry `json:"exp"`
}

func (c tokenClaims) GetExpirationTime() (*jwt.NumericDate, error) {
	if c.ExpiresAt == nil {
		return nil, nil
	}
	return &jwt.NumericDate{Time: c.ExpiresAt.Time}, nil
}

func (c tokenClaims) GetIssuedAt() (*jwt.NumericDate, error)  { return nil, nil }
func (c tokenClaims) GetNotBefore() (*jwt.NumericDate, error) { return nil, nil }
func (c tokenClaims) GetIssuer() (string, error)              { return "", nil }
func (c tokenClaims) GetSubject() (string, error)             { return c.Subject, nil }
func (c tokenClaims) GetAudience() (jwt.ClaimStrings, error)  { return nil, nil }

// TokenCodec signs and verifies bearer tokens with a symmetric secret. The
// secret and method are fixed at construction.
type TokenCodec struct {
	secret []byte
	method jwt.SigningMethod
	now    func() time.Time
}

func NewTokenCodec(secret, algorithm string) (*TokenCodec, error) {
	if secret == "" {
		return nil, errors.New("token signing secret is empty")
	}

	name := strings.TrimSpace(algorithm)
	if alias, ok := algorithmAliases[strings.ToUpper(name)]; ok {
		name = alias
	}
	method, ok := jwt.GetSigningMethod(name).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}

	return &TokenCodec{
		secret: []byte(secret),
		method: method,
		now:    time.Now,
	}, nil
}

// Encode issues a token for subject that expires ttl from now. A non-positive
// ttl falls back to DefaultTokenTTL.
func (c *TokenCodec) Encode(subject string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	claims := tokenClaims{
		Subject:   subject,
		ExpiresAt: &expiry{Time: c.now().Add(ttl)},
	}
	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}

	return signed, nil
}

// Decode returns the subject of a well-formed, correctly signed and unexpired
// token. Every other outcome is ErrDecode.
func (c *TokenCodec) Decode(token string) (subject string, err error) {
	defer func() {
		if recover() != nil {
			subject, err = "", ErrDecode
		}
	}()

	var claims tokenClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !parsed.Valid {
		return "", ErrDecode
	}
	if claims.Subject == "" {
		return "", ErrDecode
	}

	return claims.Subject, nil
}
