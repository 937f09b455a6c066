package blob

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/terandy/canvas-print-shop-sub000/pkg/memstore"
)

// localObject is one stored blob.
type localObject struct {
	Data        []byte    `json:"-"`
	ContentType string    `json:"contentType"`
	Size        int       `json:"size"`
	CreatedAt   time.Time `json:"createdAt"`
}

// LocalStore is an in-process stand-in for object storage, used in dev and
// tests. Upload URLs point back at this server and carry a signed JWT
// authorizing exactly one object key and content type for a limited time,
// mirroring how real presigned URLs scope a single write.
type LocalStore struct {
	objects *memstore.Store[localObject]
	baseURL string
	secret  []byte
	ttl     time.Duration
	logger  *slog.Logger
}

// NewLocalStore creates a local blob store. baseURL is the externally
// reachable address of this server, secret signs upload tokens.
func NewLocalStore(baseURL, secret string, logger *slog.Logger) *LocalStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalStore{
		objects: memstore.New[localObject](),
		baseURL: baseURL,
		secret:  []byte(secret),
		ttl:     15 * time.Minute,
		logger:  logger,
	}
}

// SetBaseURL updates the externally reachable address. Tests point this at
// their httptest server.
func (l *LocalStore) SetBaseURL(baseURL string) {
	l.baseURL = baseURL
}

// CreateUploadTarget names a fresh object and returns a token-bearing
// upload URL alongside the public read URL.
func (l *LocalStore) CreateUploadTarget(_ context.Context, contentType string) (UploadTarget, error) {
	key := NewObjectKey(contentType)

	claims := jwt.MapClaims{
		"key": key,
		"ct":  contentType,
		"exp": time.Now().Add(l.ttl).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(l.secret)
	if err != nil {
		return UploadTarget{}, fmt.Errorf("signing upload token: %w", err)
	}

	return UploadTarget{
		UploadURL: fmt.Sprintf("%s/blob/%s?token=%s", l.baseURL, key, token),
		PublicURL: fmt.Sprintf("%s/blob/%s", l.baseURL, key),
	}, nil
}

// Delete removes the object behind a public URL.
func (l *LocalStore) Delete(_ context.Context, publicURL string) error {
	key, err := KeyFromURL(publicURL)
	if err != nil {
		return err
	}
	if !l.objects.Delete(key) {
		return fmt.Errorf("object %s not found", key)
	}
	return nil
}

// Count returns the number of stored objects.
func (l *LocalStore) Count() int {
	return l.objects.Count()
}

// Routes mounts the upload and read endpoints that presigned local URLs
// point at.
func (l *LocalStore) Routes(r chi.Router) {
	r.Put("/blob/*", l.handlePut)
	r.Get("/blob/*", l.handleGet)
}

func (l *LocalStore) handlePut(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")

	claims, err := l.parseToken(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "invalid upload token", http.StatusForbidden)
		return
	}
	if claims["key"] != key {
		http.Error(w, "token does not authorize this key", http.StatusForbidden)
		return
	}
	if ct, _ := claims["ct"].(string); ct != "" && r.Header.Get("Content-Type") != ct {
		http.Error(w, "content type does not match upload token", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	l.objects.Set(key, localObject{
		Data:        data,
		ContentType: r.Header.Get("Content-Type"),
		Size:        len(data),
		CreatedAt:   time.Now(),
	})
	l.logger.Debug("stored local blob", "key", key, "bytes", len(data))
	w.WriteHeader(http.StatusOK)
}

func (l *LocalStore) handleGet(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	obj, ok := l.objects.Get(key)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if obj.ContentType != "" {
		w.Header().Set("Content-Type", obj.ContentType)
	}
	w.Write(obj.Data)
}

func (l *LocalStore) parseToken(tokenString string) (jwt.MapClaims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("missing token")
	}
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return l.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parsing upload token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid upload token")
	}
	return claims, nil
}
