// Package firebase opens the process-wide connection to Firebase.
package firebase

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/switzea/portal/internal/config"
)

// ErrInvalidServiceAccount is returned when FIREBASE_SERVICE_ACCOUNT_JSON_BASE64 cannot be decoded.
var ErrInvalidServiceAccount = errors.New("FIREBASE_SERVICE_ACCOUNT_JSON_BASE64 is not a valid base64 string")

// Backend holds the initialized service handles. They are shared and must not be replaced.
type Backend struct {
	App  *firebase.App
	Auth *auth.Client
	// Firestore is nil when the memory store is configured.
	Firestore *firestore.Client
}

// Bootstrapper initializes the Backend on first use.
type Bootstrapper struct {
	cfg    *config.Config
	logger *zap.Logger
	init   func(ctx context.Context) (*Backend, error)

	once    sync.Once
	backend *Backend
	err     error
}

// New returns a Bootstrapper for cfg. Nothing is contacted until Backend is called.
func New(cfg *config.Config, logger *zap.Logger) *Bootstrapper {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Bootstrapper{cfg: cfg, logger: logger}
	b.init = b.connect
	return b
}

// Backend initializes Firebase exactly once. Every call returns the same
// Backend, or the same error if initialization failed.
func (b *Bootstrapper) Backend(ctx context.Context) (*Backend, error) {
	b.once.Do(func() {
		b.backend, b.err = b.init(ctx)
		if b.err != nil {
			b.logger.Error("Firebase initialization failed", zap.Error(b.err))
		}
	})
	return b.backend, b.err
}

// Close releases the Firestore client, if one was opened.
func (b *Bootstrapper) Close() error {
	b.once.Do(func() { b.err = errors.New("firebase: bootstrapper closed before use") })
	if b.backend == nil || b.backend.Firestore == nil {
		return nil
	}
	return b.backend.Firestore.Close()
}

func (b *Bootstrapper) connect(ctx context.Context) (*Backend, error) {
	if b.cfg == nil {
		return nil, errors.New("firebase: config cannot be nil")
	}
	opts, source, err := clientOptions(b.cfg)
	if err != nil {
		return nil, err
	}
	b.logger.Info("Initializing Firebase", zap.String("project_id", b.cfg.FirebaseProjectID), zap.String("credentials", source))

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: b.cfg.FirebaseProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase.NewApp: %w", err)
	}
	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("app.Auth: %w", err)
	}
	backend := &Backend{App: app, Auth: authClient}

	if b.cfg.StoreBackend == config.StoreFirestore {
		client, err := app.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("app.Firestore: %w", err)
		}
		backend.Firestore = client
	}
	b.logger.Info("Firebase initialized", zap.Bool("firestore", backend.Firestore != nil))
	return backend, nil
}

// clientOptions picks the credentials: a key file, then inline base64 JSON,
// then Application Default Credentials.
func clientOptions(cfg *config.Config) ([]option.ClientOption, string, error) {
	switch {
	case cfg.GoogleApplicationCredentials != "":
		return []option.ClientOption{option.WithCredentialsFile(cfg.GoogleApplicationCredentials)}, "file", nil
	case cfg.FirebaseServiceAccountJSONBase64 != "":
		raw, err := base64.StdEncoding.DecodeString(cfg.FirebaseServiceAccountJSONBase64)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrInvalidServiceAccount, err)
		}
		return []option.ClientOption{option.WithCredentialsJSON(raw)}, "inline", nil
	}
	return nil, "adc", nil
}
