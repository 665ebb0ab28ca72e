package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"github.com/portoviejo/incidentes/config"
	apiError "github.com/portoviejo/incidentes/errors"
)

const (
	feedMaxSide   = 1080
	thumbnailSide = 200
	jpegQuality   = 85
)

var (
	ErrImageRequired    = apiError.New("La imagen es obligatoria.", http.StatusBadRequest)
	ErrImageTooLarge    = apiError.New("La imagen excede el tamaño máximo permitido.", http.StatusBadRequest)
	ErrImageUnsupported = apiError.New("Formato de imagen no soportado.", http.StatusBadRequest)
)

// ImageStore is the external object storage photos are uploaded to.
type ImageStore interface {
	// Upload stores body under key and returns its public URL.
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

// StoredImage holds the public URLs of an uploaded photo.
type StoredImage struct {
	URL          string
	ThumbnailURL string
}

// MediaService turns an uploaded photo into a normalized JPEG plus a
// thumbnail and stores both.
type MediaService interface {
	ProcessImage(ctx context.Context, fileHeader *multipart.FileHeader) (*StoredImage, error)
}

type mediaService struct {
	Config *config.Config
	store  ImageStore
	now    func() time.Time
}

func NewMediaService(store ImageStore, conf *config.Config) MediaService {
	return &mediaService{
		Config: conf,
		store:  store,
		now:    time.Now,
	}
}

// CheckFileSize rejects uploads larger than max bytes.
func CheckFileSize(fileHeader *multipart.FileHeader, max int64) error {
	if max > 0 && fileHeader.Size > max {
		return ErrImageTooLarge
	}
	return nil
}

func (m *mediaService) ProcessImage(ctx context.Context, fileHeader *multipart.FileHeader) (*StoredImage, error) {
	if fileHeader == nil {
		return nil, ErrImageRequired
	}
	if err := CheckFileSize(fileHeader, m.Config.MaxImageSize); err != nil {
		return nil, err
	}
	file, err := fileHeader.Open()
	if err != nil {
		return nil, errors.Wrap(err, "open upload")
	}
	defer file.Close()

	feed, thumb, err := m.encode(file)
	if err != nil {
		return nil, err
	}

	key := m.imageKey()
	url, err := m.store.Upload(ctx, key+".jpg", "image/jpeg", bytes.NewReader(feed))
	if err != nil {
		log.Printf("Error uploading image %s: %v", key, err)
		return nil, errors.Wrap(err, "upload image")
	}
	thumbURL, err := m.store.Upload(ctx, key+"_thumb.jpg", "image/jpeg", bytes.NewReader(thumb))
	if err != nil {
		log.Printf("Error uploading thumbnail %s: %v", key, err)
		return nil, errors.Wrap(err, "upload thumbnail")
	}
	log.Printf("Stored image %s (%d bytes, thumbnail %d bytes)", key, len(feed), len(thumb))
	return &StoredImage{URL: url, ThumbnailURL: thumbURL}, nil
}

// encode decodes r and returns the feed-size JPEG and the thumbnail JPEG.
func (m *mediaService) encode(r io.Reader) ([]byte, []byte, error) {
	limit := m.Config.MaxImageSize
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, errors.Wrap(err, "read upload")
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, nil, ErrImageTooLarge
	}

	// The header is enough to size the frame before it is allocated.
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		log.Printf("Error reading image header: %v", err)
		return nil, nil, ErrImageUnsupported
	}
	if budget := m.Config.MaxImagePixels; budget > 0 && int64(cfg.Width)*int64(cfg.Height) > budget {
		log.Printf("Rejecting image of %dx%d pixels", cfg.Width, cfg.Height)
		return nil, nil, ErrImageTooLarge
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		log.Printf("Error decoding image: %v", err)
		return nil, nil, ErrImageUnsupported
	}

	feed, err := encodeJPEG(imaging.Fit(img, feedMaxSide, feedMaxSide, imaging.Lanczos))
	if err != nil {
		return nil, nil, err
	}
	thumb, err := encodeJPEG(resize.Thumbnail(thumbnailSide, thumbnailSide, img, resize.Lanczos3))
	if err != nil {
		return nil, nil, err
	}
	return feed, thumb, nil
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, errors.Wrap(err, "encode jpeg")
	}
	return buf.Bytes(), nil
}

func (m *mediaService) imageKey() string {
	name := fmt.Sprintf("%s-%s", m.now().UTC().Format(time.RFC3339), uuid.NewString()[:8])
	return path.Join(m.Config.ImageFolder, name)
}

// S3Store uploads to an S3 bucket, or to any S3-compatible endpoint when
// S3Endpoint is set.
type S3Store struct {
	client   *s3.Client
	bucket   string
	region   string
	endpoint string
}

func NewS3Store(ctx context.Context, conf *config.Config) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(conf.AWSRegion)}
	if conf.AWSAccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(conf.AWSAccessKeyID, conf.AWSSecretAccessKey, ""),
		))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "unable to load AWS config")
	}
	endpoint := strings.TrimRight(conf.S3Endpoint, "/")
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Store{client: client, bucket: conf.AWSBucket, region: conf.AWSRegion, endpoint: endpoint}, nil
}

func (s *S3Store) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ACL:         types.ObjectCannedACLPublicRead,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to upload file to S3")
	}
	return s.url(key), nil
}

func (s *S3Store) url(key string) string {
	if s.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

// LocalStore writes uploads under a directory served at /uploads.
type LocalStore struct {
	dir     string
	baseURL string
}

func NewLocalStore(conf *config.Config) *LocalStore {
	return &LocalStore{dir: conf.UploadDir, baseURL: strings.TrimRight(conf.PublicBaseURL, "/")}
}

func (l *LocalStore) Dir() string {
	return l.dir
}

func (l *LocalStore) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	dest := filepath.Join(l.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return "", errors.Wrap(err, "error creating upload folder")
	}
	f, err := os.Create(dest)
	if err != nil {
		return "", errors.Wrap(err, "failed to create file")
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		return "", errors.Wrap(err, "failed to write file")
	}
	if err := f.Close(); err != nil {
		return "", errors.Wrap(err, "failed to close file")
	}
	return l.baseURL + "/uploads/" + key, nil
}
