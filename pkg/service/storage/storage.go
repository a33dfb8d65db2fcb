package storage

import (
	"context"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/makola-community/makola/pkg/domain/interfaces"
	"github.com/makola-community/makola/pkg/domain/model"
)

const (
	// DefaultUploadExpiry is how long a signed upload URL stays valid
	DefaultUploadExpiry = 15 * time.Minute

	publicHost = "https://storage.googleapis.com"
)

type signFunc func(object string, opts *storage.SignedURLOptions) (string, error)

// Client issues V4 signed upload URLs for objects in a Cloud Storage bucket
type Client struct {
	bucket string
	expiry time.Duration

	accessID   string
	privateKey []byte

	sign  signFunc
	close func() error
}

var _ interfaces.PhotoStorage = &Client{}

// Option is a functional option for Client
type Option func(*Client)

// WithUploadExpiry sets the lifetime of signed upload URLs
func WithUploadExpiry(d time.Duration) Option {
	return func(c *Client) {
		c.expiry = d
	}
}

// WithServiceAccountKey signs URLs locally with the given service account
// email and PEM encoded private key instead of the ambient credentials.
func WithServiceAccountKey(accessID string, privateKey []byte) Option {
	return func(c *Client) {
		c.accessID = accessID
		c.privateKey = privateKey
	}
}

// New creates a Client for bucket. Without a service account key the
// application default credentials are used for signing.
func New(ctx context.Context, bucket string, opts ...Option) (*Client, error) {
	if bucket == "" {
		return nil, goerr.New("bucket name is required")
	}

	c := &Client{
		bucket: bucket,
		expiry: DefaultUploadExpiry,
		close:  func() error { return nil },
	}
	for _, opt := range opts {
		opt(c)
	}

	if len(c.privateKey) > 0 {
		c.sign = func(object string, o *storage.SignedURLOptions) (string, error) {
			o.GoogleAccessID = c.accessID
			o.PrivateKey = c.privateKey
			return storage.SignedURL(c.bucket, object, o)
		}
		return c, nil
	}

	gcs, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Cloud Storage client", goerr.V("bucket", bucket))
	}
	c.sign = gcs.Bucket(bucket).SignedURL
	c.close = gcs.Close
	return c, nil
}

// CreateUploadURL returns a signed PUT URL for objectName and the URL the
// object is served from after upload.
func (c *Client) CreateUploadURL(ctx context.Context, objectName, contentType string) (*model.PhotoUpload, error) {
	if objectName == "" || strings.HasPrefix(objectName, "/") {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "invalid object name", goerr.V("object", objectName))
	}

	// Signing reads the wall clock, so the reported expiry must too
	expiresAt := time.Now().Add(c.expiry)
	signed, err := c.sign(objectName, &storage.SignedURLOptions{
		Scheme:      storage.SigningSchemeV4,
		Method:      "PUT",
		ContentType: contentType,
		Expires:     expiresAt,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to sign upload URL",
			goerr.V("bucket", c.bucket), goerr.V("object", objectName))
	}

	return &model.PhotoUpload{
		UploadURL:   signed,
		PublicURL:   c.PublicURL(objectName),
		ContentType: contentType,
		ExpiresAt:   expiresAt,
	}, nil
}

// PublicURL returns the URL an uploaded object is served from
func (c *Client) PublicURL(objectName string) string {
	segments := strings.Split(objectName, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return publicHost + "/" + url.PathEscape(c.bucket) + "/" + strings.Join(segments, "/")
}

// Close releases the underlying Cloud Storage client
func (c *Client) Close() error {
	return c.close()
}
