// Package publish uploads captured images to durable blob storage and hands
// back a stable reference. A failed upload is a hard failure; callers decide
// the retry policy.
package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/jpeg"
	"path"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"cloudcollector/internal/models"
)

// MaxAssetSize is the upload size ceiling.
const MaxAssetSize = 10 << 20 // 10 MB

const thumbnailEdge = 320

var allowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

var (
	// ErrUnsupportedType rejects an asset whose MIME type is not on the
	// allow-list. Reported before any network call.
	ErrUnsupportedType = errors.New("unsupported image type")
	// ErrTooLarge rejects an asset above MaxAssetSize.
	ErrTooLarge = errors.New("image exceeds the 10MB size limit")
)

// ObjectStore is a blob storage backend. Put must be atomic from the
// caller's perspective; PublicURL must be derivable without a network call.
type ObjectStore interface {
	Put(ctx context.Context, objectPath, contentType string, data []byte) error
	Remove(ctx context.Context, objectPath string) error
	PublicURL(objectPath string) string
}

// Publisher validates and uploads assets. One Publish call performs at most
// one original upload plus a best-effort thumbnail upload.
type Publisher struct {
	store  ObjectStore
	folder string
	now    func() time.Time
	newID  func() string
	log    *zap.Logger
}

func NewPublisher(store ObjectStore, folder string, log *zap.Logger) *Publisher {
	return &Publisher{
		store:  store,
		folder: folder,
		now:    time.Now,
		newID:  func() string { return strings.ReplaceAll(uuid.New().String(), "-", "")[:8] },
		log:    log,
	}
}

// SetClock and SetIDGenerator make object paths deterministic in tests.
func (p *Publisher) SetClock(now func() time.Time)    { p.now = now }
func (p *Publisher) SetIDGenerator(gen func() string) { p.newID = gen }

// Validate checks the declared MIME type and size. It runs before the
// pipeline starts and performs no I/O.
func (p *Publisher) Validate(asset models.CapturedAsset) error {
	if !allowedContentTypes[strings.ToLower(asset.ContentType)] {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, asset.ContentType)
	}
	if asset.Size > MaxAssetSize || int64(len(asset.Data)) > MaxAssetSize {
		return ErrTooLarge
	}
	if len(asset.Data) == 0 {
		return fmt.Errorf("%w: empty file", ErrUnsupportedType)
	}
	return nil
}

// Publish uploads the original and, best effort, a JPEG thumbnail beside it.
// Thumbnail failures are logged and absorbed; an original upload failure is
// returned to the caller as a hard error.
func (p *Publisher) Publish(ctx context.Context, asset models.CapturedAsset) (models.AssetRef, error) {
	if err := p.Validate(asset); err != nil {
		return models.AssetRef{}, err
	}

	objectPath := p.objectPath(asset)
	if err := p.store.Put(ctx, objectPath, asset.ContentType, asset.Data); err != nil {
		return models.AssetRef{}, fmt.Errorf("upload asset to %s: %w", objectPath, err)
	}
	ref := models.AssetRef{
		URL:         p.store.PublicURL(objectPath),
		StoragePath: objectPath,
	}
	p.log.Info("asset published", zap.String("path", objectPath), zap.Int("bytes", len(asset.Data)))

	if thumbPath, err := p.publishThumbnail(ctx, asset, objectPath); err != nil {
		p.log.Warn("thumbnail generation skipped", zap.String("path", objectPath), zap.Error(err))
	} else {
		ref.ThumbnailPath = thumbPath
		ref.ThumbnailURL = p.store.PublicURL(thumbPath)
	}
	return ref, nil
}

func (p *Publisher) publishThumbnail(ctx context.Context, asset models.CapturedAsset, originalPath string) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(asset.Data))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}
	thumb := imaging.Thumbnail(img, thumbnailEdge, thumbnailEdge, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 82}); err != nil {
		return "", fmt.Errorf("encode thumbnail: %w", err)
	}

	thumbPath := thumbnailPath(originalPath)
	if err := p.store.Put(ctx, thumbPath, "image/jpeg", buf.Bytes()); err != nil {
		return "", fmt.Errorf("upload thumbnail: %w", err)
	}
	return thumbPath, nil
}

// objectPath builds <folder>/<year>/<month>/<unixms>_<id8>.<ext>.
func (p *Publisher) objectPath(asset models.CapturedAsset) string {
	now := p.now().UTC()
	ext := extensionFor(asset)
	name := fmt.Sprintf("%d_%s.%s", now.UnixMilli(), p.newID(), ext)
	return path.Join(p.folder, fmt.Sprintf("%04d", now.Year()), fmt.Sprintf("%02d", int(now.Month())), name)
}

// thumbnailPath mirrors the original path under a thumbnails/ prefix, always
// with a .jpg extension.
func thumbnailPath(originalPath string) string {
	base := strings.TrimSuffix(path.Base(originalPath), path.Ext(originalPath))
	return path.Join("thumbnails", path.Dir(originalPath), base+".jpg")
}

func extensionFor(asset models.CapturedAsset) string {
	if ext := strings.TrimPrefix(path.Ext(asset.Filename), "."); ext != "" {
		return strings.ToLower(ext)
	}
	switch strings.ToLower(asset.ContentType) {
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	default:
		return "jpg"
	}
}
