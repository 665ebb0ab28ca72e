package services

import (
	"bytes"
	"context"
	"image"
	_ "image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessImage_StoresFeedAndThumbnail(t *testing.T) {
	store := newFakeStore()
	svc := NewMediaService(store, testConfig()).(*mediaService)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	stored, err := svc.ProcessImage(context.Background(), fileHeader(t, "foto.png", pngBytes(t, 1600, 800)))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(stored.URL, "https://cdn.example.com/incidentes-test/2024-05-01T12:00:00Z-"))
	assert.True(t, strings.HasSuffix(stored.URL, ".jpg"))
	assert.True(t, strings.HasSuffix(stored.ThumbnailURL, "_thumb.jpg"))
	require.Equal(t, 2, store.count())

	for key, data := range store.objects {
		cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, "jpeg", format)
		if strings.HasSuffix(key, "_thumb.jpg") {
			assert.Equal(t, 200, cfg.Width)
			assert.Equal(t, 100, cfg.Height)
		} else {
			assert.Equal(t, 1080, cfg.Width)
			assert.Equal(t, 540, cfg.Height)
		}
	}
}

func TestProcessImage_SmallImageNotUpscaled(t *testing.T) {
	store := newFakeStore()
	svc := NewMediaService(store, testConfig())

	_, err := svc.ProcessImage(context.Background(), fileHeader(t, "foto.png", pngBytes(t, 64, 48)))
	require.NoError(t, err)
	for key, data := range store.objects {
		if strings.HasSuffix(key, "_thumb.jpg") {
			continue
		}
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, 64, cfg.Width)
	}
}

func TestProcessImage_Rejections(t *testing.T) {
	store := newFakeStore()
	conf := testConfig()
	conf.MaxImageSize = 64
	svc := NewMediaService(store, conf)
	ctx := context.Background()

	_, err := svc.ProcessImage(ctx, nil)
	assert.ErrorIs(t, err, ErrImageRequired)

	_, err = svc.ProcessImage(ctx, fileHeader(t, "big.png", pngBytes(t, 300, 300)))
	assert.ErrorIs(t, err, ErrImageTooLarge)

	_, err = svc.ProcessImage(ctx, fileHeader(t, "notes.txt", []byte("no soy una imagen")))
	assert.ErrorIs(t, err, ErrImageUnsupported)

	assert.Zero(t, store.count())
}

func TestProcessImage_RejectsOversizedDimensions(t *testing.T) {
	store := newFakeStore()
	conf := testConfig()
	conf.MaxImagePixels = 100 * 100
	svc := NewMediaService(store, conf)

	data := pngBytes(t, 400, 300)
	require.Less(t, int64(len(data)), conf.MaxImageSize)

	_, err := svc.ProcessImage(context.Background(), fileHeader(t, "plano.png", data))
	assert.ErrorIs(t, err, ErrImageTooLarge)
	assert.Zero(t, store.count())

	_, err = svc.ProcessImage(context.Background(), fileHeader(t, "ok.png", pngBytes(t, 100, 100)))
	assert.NoError(t, err)
}

func TestProcessImage_StoreFailure(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("bucket unavailable")
	svc := NewMediaService(store, testConfig())

	_, err := svc.ProcessImage(context.Background(), fileHeader(t, "foto.png", pngBytes(t, 10, 10)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket unavailable")
}

func TestLocalStore_Upload(t *testing.T) {
	conf := testConfig()
	conf.UploadDir = t.TempDir()
	conf.PublicBaseURL = "http://localhost:4000/"
	store := NewLocalStore(conf)

	url, err := store.Upload(context.Background(), "incidentes-test/a.jpg", "image/jpeg", strings.NewReader("jpeg"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4000/uploads/incidentes-test/a.jpg", url)

	data, err := os.ReadFile(filepath.Join(conf.UploadDir, "incidentes-test", "a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))
}

func TestS3Store_URL(t *testing.T) {
	aws := &S3Store{bucket: "fotos", region: "us-east-1"}
	assert.Equal(t, "https://fotos.s3.us-east-1.amazonaws.com/a/b.jpg", aws.url("a/b.jpg"))

	minio := &S3Store{bucket: "fotos", endpoint: "http://minio:9000"}
	assert.Equal(t, "http://minio:9000/fotos/a/b.jpg", minio.url("a/b.jpg"))
}
