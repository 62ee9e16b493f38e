package publish_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"cloudcollector/internal/models"
	"cloudcollector/internal/publish"
)

type memStore struct {
	objects map[string][]byte
	types   map[string]string
	putErr  error
	puts    int
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (s *memStore) Put(ctx context.Context, objectPath, contentType string, data []byte) error {
	s.puts++
	if s.putErr != nil {
		return s.putErr
	}
	s.objects[objectPath] = data
	s.types[objectPath] = contentType
	return nil
}

func (s *memStore) Remove(ctx context.Context, objectPath string) error {
	delete(s.objects, objectPath)
	return nil
}

func (s *memStore) PublicURL(objectPath string) string {
	return "https://cdn.example.com/" + objectPath
}

func pngAsset(t *testing.T) models.CapturedAsset {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 16, 16))); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return models.CapturedAsset{
		Data:        buf.Bytes(),
		ContentType: "image/png",
		Size:        int64(buf.Len()),
		Filename:    "cloud.png",
	}
}

func fixedPublisher(store publish.ObjectStore) *publish.Publisher {
	p := publish.NewPublisher(store, "original", zap.NewNop())
	p.SetClock(func() time.Time { return time.Date(2025, 7, 3, 12, 0, 0, 0, time.UTC) })
	p.SetIDGenerator(func() string { return "abcd1234" })
	return p
}

func TestPublisher_Validate(t *testing.T) {
	p := publish.NewPublisher(newMemStore(), "original", zap.NewNop())

	cases := []struct {
		name    string
		asset   models.CapturedAsset
		wantErr error
	}{
		{"jpeg ok", models.CapturedAsset{Data: []byte{1}, ContentType: "image/jpeg", Size: 1}, nil},
		{"webp ok", models.CapturedAsset{Data: []byte{1}, ContentType: "image/webp", Size: 1}, nil},
		{"pdf rejected", models.CapturedAsset{Data: []byte{1}, ContentType: "application/pdf", Size: 1}, publish.ErrUnsupportedType},
		{"svg rejected", models.CapturedAsset{Data: []byte{1}, ContentType: "image/svg+xml", Size: 1}, publish.ErrUnsupportedType},
		{"oversize rejected", models.CapturedAsset{Data: []byte{1}, ContentType: "image/png", Size: publish.MaxAssetSize + 1}, publish.ErrTooLarge},
		{"empty rejected", models.CapturedAsset{ContentType: "image/png"}, publish.ErrUnsupportedType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := p.Validate(tc.asset)
			if tc.wantErr == nil && err != nil {
				t.Fatalf("Validate() error = %v, want nil", err)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestPublisher_Publish(t *testing.T) {
	ctx := context.Background()

	t.Run("uploads original under the dated path", func(t *testing.T) {
		store := newMemStore()
		p := fixedPublisher(store)

		ref, err := p.Publish(ctx, pngAsset(t))
		if err != nil {
			t.Fatalf("Publish() error = %v", err)
		}

		const wantPath = "original/2025/07/1751544000000_abcd1234.png"
		if ref.StoragePath != wantPath {
			t.Errorf("StoragePath = %q, want %q", ref.StoragePath, wantPath)
		}
		if ref.URL != "https://cdn.example.com/"+wantPath {
			t.Errorf("URL = %q", ref.URL)
		}
		if _, ok := store.objects[wantPath]; !ok {
			t.Error("original bytes not stored")
		}
	})

	t.Run("generates a thumbnail beside the original", func(t *testing.T) {
		store := newMemStore()
		p := fixedPublisher(store)

		ref, err := p.Publish(ctx, pngAsset(t))
		if err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
		if ref.ThumbnailPath == "" {
			t.Fatal("ThumbnailPath is empty")
		}
		if !strings.HasPrefix(ref.ThumbnailPath, "thumbnails/original/2025/07/") {
			t.Errorf("ThumbnailPath = %q", ref.ThumbnailPath)
		}
		if store.types[ref.ThumbnailPath] != "image/jpeg" {
			t.Errorf("thumbnail content type = %q", store.types[ref.ThumbnailPath])
		}
	})

	t.Run("undecodable image skips the thumbnail but still succeeds", func(t *testing.T) {
		store := newMemStore()
		p := fixedPublisher(store)

		asset := models.CapturedAsset{
			Data:        []byte("GIF89a not really a gif"),
			ContentType: "image/gif",
			Size:        23,
			Filename:    "broken.gif",
		}
		ref, err := p.Publish(ctx, asset)
		if err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
		if ref.ThumbnailPath != "" {
			t.Errorf("ThumbnailPath = %q, want empty", ref.ThumbnailPath)
		}
		if ref.URL == "" {
			t.Error("URL empty for successful publish")
		}
	})

	t.Run("store failure is a hard error with no reference", func(t *testing.T) {
		store := newMemStore()
		store.putErr = errors.New("bucket unavailable")
		p := fixedPublisher(store)

		ref, err := p.Publish(ctx, pngAsset(t))
		if err == nil {
			t.Fatal("Publish() error = nil, want upload failure")
		}
		if ref.URL != "" || ref.StoragePath != "" {
			t.Errorf("ref = %+v, want zero value", ref)
		}
		if store.puts != 1 {
			t.Errorf("puts = %d, want exactly 1 attempt", store.puts)
		}
	})

	t.Run("validation failure performs no store call", func(t *testing.T) {
		store := newMemStore()
		p := fixedPublisher(store)

		_, err := p.Publish(ctx, models.CapturedAsset{Data: []byte{1}, ContentType: "text/plain", Size: 1})
		if !errors.Is(err, publish.ErrUnsupportedType) {
			t.Fatalf("Publish() error = %v, want ErrUnsupportedType", err)
		}
		if store.puts != 0 {
			t.Errorf("puts = %d, want 0", store.puts)
		}
	})
}
