package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/chai2010/webp"
	"github.com/google/uuid"
	"golang.org/x/image/draw"

	"github.com/fieldserve/tool-custody/internal/config"
)

const thumbMaxEdge = 320

// PhotoStore keeps tool photos in S3 as webp, original plus a thumbnail.
// Purely decorative: the transfer path never touches it.
type PhotoStore struct {
	client *s3.Client
	bucket string
}

func NewPhotoStore(cfg *config.Config) *PhotoStore {
	if cfg.S3Bucket == "" {
		return nil
	}

	opts := s3.Options{
		Region: cfg.S3Region,
		Credentials: aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		),
	}
	if cfg.S3Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.S3Endpoint)
		opts.UsePathStyle = true
	}

	return &PhotoStore{
		client: s3.New(opts),
		bucket: cfg.S3Bucket,
	}
}

func (p *PhotoStore) Enabled() bool {
	return p != nil
}

// SaveToolPhoto re-encodes the upload as webp, stores it with a generated
// key and a downscaled "<key>.thumb" alongside, and returns the key.
func (p *PhotoStore) SaveToolPhoto(
	ctx context.Context,
	companyID uint,
	toolID uint,
	upload io.Reader,
) (string, error) {

	img, _, err := image.Decode(upload)
	if err != nil {
		return "", fmt.Errorf("decoding photo: %w", err)
	}

	key := fmt.Sprintf("tools/%d/%d/%s.webp", companyID, toolID, uuid.NewString())

	full, err := encodeWebp(img, 85)
	if err != nil {
		return "", err
	}
	if err := p.put(ctx, key, full); err != nil {
		return "", err
	}

	thumbImg := scaleDown(img, thumbMaxEdge)
	thumb, err := encodeWebp(thumbImg, 75)
	if err != nil {
		return "", err
	}
	if err := p.put(ctx, key+".thumb", thumb); err != nil {
		return "", err
	}

	return key, nil
}

func (p *PhotoStore) put(ctx context.Context, key string, body []byte) error {
	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("image/webp"),
	})
	if err != nil {
		return fmt.Errorf("uploading %s: %w", key, err)
	}
	return nil
}

func encodeWebp(img image.Image, quality float32) ([]byte, error) {
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encoding webp: %w", err)
	}
	return buf.Bytes(), nil
}

// scaleDown fits the image inside maxEdge x maxEdge, keeping aspect ratio.
// Images already small enough pass through untouched.
func scaleDown(img image.Image, maxEdge int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxEdge && h <= maxEdge {
		return img
	}

	if w > h {
		h = h * maxEdge / w
		w = maxEdge
	} else {
		w = w * maxEdge / h
		h = maxEdge
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
