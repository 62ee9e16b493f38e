// Package exifmeta derives capture metadata from embedded image EXIF data.
package exifmeta

import (
	"bytes"
	"context"

	"github.com/rwcarlsen/goexif/exif"
	"go.uber.org/zap"

	"cloudcollector/internal/models"
)

// Extractor parses GPS coordinates and the capture timestamp out of an
// asset's embedded metadata. Extraction is total: an asset without usable
// EXIF yields a zero-value ExtractedMetadata, never an error.
type Extractor struct {
	log *zap.Logger
}

func NewExtractor(log *zap.Logger) *Extractor {
	return &Extractor{log: log}
}

// Extract decodes the asset's EXIF block. goexif converts GPS rationals to
// signed decimal degrees, so no coordinate conversion is needed here.
func (e *Extractor) Extract(ctx context.Context, asset models.CapturedAsset) models.ExtractedMetadata {
	var meta models.ExtractedMetadata

	x, err := exif.Decode(bytes.NewReader(asset.Data))
	if err != nil {
		e.log.Debug("asset carries no decodable EXIF block", zap.String("filename", asset.Filename), zap.Error(err))
		return meta
	}

	if lat, lon, err := x.LatLong(); err == nil {
		meta.HasGPS = true
		meta.GPS = &models.GPSPoint{Latitude: lat, Longitude: lon, Source: "exif"}
	}

	if ts, err := x.DateTime(); err == nil {
		meta.HasCaptureTime = true
		meta.CaptureTime = ts
	}

	if meta.HasGPS || meta.HasCaptureTime {
		e.log.Info("extracted embedded metadata",
			zap.Bool("hasGPS", meta.HasGPS),
			zap.Bool("hasCaptureTime", meta.HasCaptureTime))
	}
	return meta
}
