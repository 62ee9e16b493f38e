package exifmeta_test

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"testing"

	"go.uber.org/zap"

	"cloudcollector/internal/exifmeta"
	"cloudcollector/internal/models"
)

func plainJPEG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("jpeg.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func TestExtractor_Extract(t *testing.T) {
	e := exifmeta.NewExtractor(zap.NewNop())

	t.Run("jpeg without exif yields empty metadata", func(t *testing.T) {
		meta := e.Extract(context.Background(), models.CapturedAsset{
			Data:        plainJPEG(t),
			ContentType: "image/jpeg",
		})
		if meta.HasGPS {
			t.Error("HasGPS = true for image without EXIF")
		}
		if meta.HasCaptureTime {
			t.Error("HasCaptureTime = true for image without EXIF")
		}
		if meta.GPS != nil {
			t.Errorf("GPS = %v, want nil", meta.GPS)
		}
	})

	t.Run("garbage bytes do not error or panic", func(t *testing.T) {
		meta := e.Extract(context.Background(), models.CapturedAsset{
			Data:        []byte("not an image at all"),
			ContentType: "image/png",
		})
		if meta.HasGPS || meta.HasCaptureTime {
			t.Errorf("metadata extracted from garbage: %+v", meta)
		}
	})

	t.Run("empty asset is a valid non-error input", func(t *testing.T) {
		meta := e.Extract(context.Background(), models.CapturedAsset{})
		if meta.HasGPS || meta.HasCaptureTime {
			t.Errorf("metadata extracted from empty asset: %+v", meta)
		}
	})
}
