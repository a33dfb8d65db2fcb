package config

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/makola-community/makola/pkg/service/storage"
	"github.com/makola-community/makola/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Storage holds the photo bucket flags
type Storage struct {
	bucket       string
	keyFile      string
	uploadExpiry time.Duration
}

// Flags returns CLI flags for photo storage
func (x *Storage) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "photo-bucket",
			Usage:       "Cloud Storage bucket for issue photos. Photo uploads are off when unset",
			Category:    "Storage",
			Destination: &x.bucket,
			Sources:     cli.EnvVars("MAKOLA_PHOTO_BUCKET"),
		},
		&cli.StringFlag{
			Name:        "photo-signer-key-file",
			Usage:       "Service account JSON key used to sign upload URLs locally (default: IAM signBlob)",
			Category:    "Storage",
			Destination: &x.keyFile,
			Sources:     cli.EnvVars("MAKOLA_PHOTO_SIGNER_KEY_FILE"),
		},
		&cli.DurationFlag{
			Name:        "photo-upload-expiry",
			Usage:       "Validity of signed upload URLs",
			Category:    "Storage",
			Value:       storage.DefaultUploadExpiry,
			Destination: &x.uploadExpiry,
			Sources:     cli.EnvVars("MAKOLA_PHOTO_UPLOAD_EXPIRY"),
		},
	}
}

type serviceAccountKey struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

// LoadServiceAccountKey reads client_email and private_key from a service
// account JSON key file
func LoadServiceAccountKey(path string) (string, []byte, error) {
	// #nosec G304 - path is provided by CLI flag
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, goerr.Wrap(err, "failed to read service account key", goerr.V("path", path))
	}

	var key serviceAccountKey
	if err := json.Unmarshal(data, &key); err != nil {
		return "", nil, goerr.Wrap(ErrInvalidConfig, "failed to parse service account key",
			goerr.V("path", path), goerr.V("reason", err.Error()))
	}
	if key.ClientEmail == "" || key.PrivateKey == "" {
		return "", nil, goerr.Wrap(ErrInvalidConfig, "service account key lacks client_email or private_key",
			goerr.V("path", path))
	}
	return key.ClientEmail, []byte(key.PrivateKey), nil
}

// Configure creates the photo storage client, or nil when no bucket is set
func (x *Storage) Configure(ctx context.Context) (*storage.Client, error) {
	if x.bucket == "" {
		logging.Default().Info("Photo uploads disabled")
		return nil, nil
	}

	opts := []storage.Option{storage.WithUploadExpiry(x.uploadExpiry)}
	if x.keyFile != "" {
		email, key, err := LoadServiceAccountKey(x.keyFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, storage.WithServiceAccountKey(email, key))
	}

	client, err := storage.New(ctx, x.bucket, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create photo storage client", goerr.V("bucket", x.bucket))
	}
	logging.Default().Info("Photo uploads enabled", "bucket", x.bucket, "upload_expiry", x.uploadExpiry)
	return client, nil
}
