package storage_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/url"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/makola-community/makola/pkg/domain/model"
	"github.com/makola-community/makola/pkg/service/storage"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	gt.NoError(t, err).Required()
	return pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
}

func TestClient_CreateUploadURL(t *testing.T) {
	client, err := storage.New(context.Background(), "makola-photos",
		storage.WithServiceAccountKey("uploader@makola.iam.gserviceaccount.com", testKey(t)),
		storage.WithUploadExpiry(10*time.Minute),
	)
	gt.NoError(t, err).Required()
	defer func() { gt.NoError(t, client.Close()) }()

	t.Run("signs a V4 PUT URL", func(t *testing.T) {
		before := time.Now()
		upload, err := client.CreateUploadURL(context.Background(), "issues/issue-1/photo.jpg", "image/jpeg")
		gt.NoError(t, err).Required()
		after := time.Now()

		gt.Value(t, upload.PublicURL).Equal("https://storage.googleapis.com/makola-photos/issues/issue-1/photo.jpg")
		gt.Value(t, upload.ContentType).Equal("image/jpeg")
		gt.Bool(t, upload.ExpiresAt.Before(before.Add(10*time.Minute))).False()
		gt.Bool(t, upload.ExpiresAt.After(after.Add(10*time.Minute))).False()

		u, err := url.Parse(upload.UploadURL)
		gt.NoError(t, err).Required()
		gt.Bool(t, strings.Contains(u.Path, "issues/issue-1/photo.jpg")).True()
		gt.Value(t, u.Query().Get("X-Goog-Algorithm")).Equal("GOOG4-RSA-SHA256")
		// Whole seconds left at signing time
		expiresIn, err := strconv.Atoi(u.Query().Get("X-Goog-Expires"))
		gt.NoError(t, err).Required()
		gt.Bool(t, expiresIn == 599 || expiresIn == 600).True()

		// The signed validity ends where the reported expiry does
		signedAt, err := time.Parse("20060102T150405Z", u.Query().Get("X-Goog-Date"))
		gt.NoError(t, err).Required()
		drift := upload.ExpiresAt.Sub(signedAt.Add(time.Duration(expiresIn) * time.Second))
		gt.Bool(t, drift > -2*time.Second && drift < 2*time.Second).True()

		gt.String(t, u.Query().Get("X-Goog-Credential")).Contains("uploader@makola.iam.gserviceaccount.com")
		gt.String(t, u.Query().Get("X-Goog-SignedHeaders")).Contains("content-type")
	})

	t.Run("rejects an empty object name", func(t *testing.T) {
		_, err := client.CreateUploadURL(context.Background(), "", "image/jpeg")
		gt.Error(t, err).Is(model.ErrInvalidArgument)
	})
}

func TestClient_PublicURL(t *testing.T) {
	client, err := storage.New(context.Background(), "makola-photos",
		storage.WithServiceAccountKey("uploader@makola.iam.gserviceaccount.com", testKey(t)))
	gt.NoError(t, err).Required()

	gt.Value(t, client.PublicURL("issues/a b/c.png")).
		Equal("https://storage.googleapis.com/makola-photos/issues/a%20b/c.png")
}

func TestNew(t *testing.T) {
	_, err := storage.New(context.Background(), "")
	gt.Value(t, err).NotNil()
}

func TestIntegration(t *testing.T) {
	bucket := os.Getenv("TEST_PHOTO_BUCKET")
	if bucket == "" {
		t.Skip("TEST_PHOTO_BUCKET is not set")
	}

	client, err := storage.New(context.Background(), bucket)
	gt.NoError(t, err).Required()
	defer func() { gt.NoError(t, client.Close()) }()

	upload, err := client.CreateUploadURL(context.Background(), "issues/integration/test.png", "image/png")
	gt.NoError(t, err).Required()
	gt.String(t, upload.UploadURL).Contains(bucket)
}
