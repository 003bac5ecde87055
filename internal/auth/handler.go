package auth

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"

	"user-service/internal/user"
)

const maxJSONBodyBytes = 1 << 20

type Handler struct {
	verifier *CredentialVerifier
	codec    *TokenCodec
	store    UserStore
	tokenTTL time.Duration
}

func NewHandler(verifier *CredentialVerifier, codec *TokenCodec, store UserStore, tokenTTL time.Duration) *Handler {
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}
	return &Handler{verifier: verifier, codec: codec, store: store, tokenTTL: tokenTTL}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login accepts either an OAuth2 password form or a JSON body.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	body, ok := parseLoginRequest(w, r)
	if !ok {
		return
	}

	if body.Username == "" || body.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	u, err := h.verifier.Authenticate(r.Context(), body.Username, body.Password)
	if err != nil {
		if errors.Is(err, ErrAuthFailure) {
			writeUnauthorized(w, ErrAuthFailure.Error())
			return
		}
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to login")
		return
	}

	token, err := h.codec.Encode(u.Username, h.tokenTTL)
	if err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to login")
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(h.tokenTTL.Seconds()),
	})
}

// Me returns the caller's own record. It must sit behind Middleware.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, ErrUnauthenticated.Error())
		return
	}

	u, err := h.store.FindByID(r.Context(), principal.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			writeUnauthorized(w, ErrUnauthenticated.Error())
			return
		}
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}

	writeJSON(w, http.StatusOK, u)
}

func parseLoginRequest(w http.ResponseWriter, r *http.Request) (loginRequest, bool) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data" {
		parse := r.ParseForm
		if mediaType == "multipart/form-data" {
			parse = func() error { return r.ParseMultipartForm(maxJSONBodyBytes) }
		}
		if err := parse(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid form body")
			return loginRequest{}, false
		}
		return loginRequest{
			Username: r.PostForm.Get("username"),
			Password: r.PostForm.Get("password"),
		}, true
	}

	var body loginRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return loginRequest{}, false
	}
	return body, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, http.StatusUnauthorized, message)
}
