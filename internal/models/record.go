package models

import "time"

// LocationSource records which fallback tier produced a ResolvedLocation.
type LocationSource string

const (
	SourceExifAddress        LocationSource = "exif-address"
	SourceExifGPS            LocationSource = "exif-gps"
	SourceLiveGPS            LocationSource = "live-gps"
	SourceToolPlaceholder    LocationSource = "tool-placeholder"
	SourceGenericPlaceholder LocationSource = "generic-placeholder"
)

// EnrichmentOrigin distinguishes a service-generated caption from a degraded
// local one.
type EnrichmentOrigin string

const (
	OriginService       EnrichmentOrigin = "service"
	OriginLocalFallback EnrichmentOrigin = "local-fallback"
)

// CapturedAsset is the raw image handed to one pipeline run. It is immutable
// and owned exclusively by that run.
type CapturedAsset struct {
	Data        []byte
	ContentType string
	Size        int64
	Filename    string
}

// GPSPoint is a decoded coordinate pair in signed decimal degrees.
type GPSPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Source    string  `json:"source"`
}

// ExtractedMetadata is derived once from a CapturedAsset and never mutated.
// Absence of metadata is a valid, non-error state.
type ExtractedMetadata struct {
	HasGPS         bool
	GPS            *GPSPoint
	HasCaptureTime bool
	CaptureTime    time.Time
}

// ResolvedLocation is the single best-effort location of one pipeline run.
type ResolvedLocation struct {
	Latitude  float64        `firestore:"latitude" json:"latitude"`
	Longitude float64        `firestore:"longitude" json:"longitude"`
	Address   string         `firestore:"address" json:"address"`
	City      string         `firestore:"city,omitempty" json:"city,omitempty"`
	Country   string         `firestore:"country,omitempty" json:"country,omitempty"`
	Source    LocationSource `firestore:"source" json:"source"`
}

// EnrichmentResult is the generated caption set for one run.
type EnrichmentResult struct {
	Name        string           `firestore:"name" json:"name"`
	Description string           `firestore:"description" json:"description"`
	Keywords    []string         `firestore:"keywords" json:"keywords"`
	Origin      EnrichmentOrigin `firestore:"origin" json:"origin"`
}

// ToolContext identifies the capture tool (persona selector) used for a run.
// Supplied by the caller, read-only to the pipeline.
type ToolContext struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
}

// AssetRef is the durable reference returned by a successful publish.
type AssetRef struct {
	URL           string `firestore:"url" json:"url"`
	ThumbnailURL  string `firestore:"thumbnailUrl,omitempty" json:"thumbnail_url,omitempty"`
	StoragePath   string `firestore:"storagePath" json:"storage_path"`
	ThumbnailPath string `firestore:"thumbnailPath,omitempty" json:"thumbnail_path,omitempty"`
}

// WeatherSnapshot is the weather observed near the capture coordinates at
// submission time. Best effort; may be absent.
type WeatherSnapshot struct {
	Main        string  `firestore:"main" json:"main"`
	Description string  `firestore:"description" json:"description"`
	TempC       float64 `firestore:"tempC" json:"temperature"`
}

// CollectionRecord is the persisted entity. Created exactly once per
// successful pipeline run; mutated afterwards only by the favorite toggle,
// deletion, and view-count collaborators.
type CollectionRecord struct {
	ID          string           `firestore:"-" json:"id"`
	OwnerID     string           `firestore:"ownerId" json:"owner_id"`
	ToolID      string           `firestore:"toolId" json:"tool_id"`
	ToolName    string           `firestore:"toolName,omitempty" json:"tool_name,omitempty"`
	ToolEmoji   string           `firestore:"toolEmoji,omitempty" json:"tool_emoji,omitempty"`
	Asset       AssetRef         `firestore:"asset" json:"asset"`
	Name        string           `firestore:"name" json:"name"`
	Description string           `firestore:"description" json:"description"`
	Keywords    []string         `firestore:"keywords" json:"keywords"`
	Origin      EnrichmentOrigin `firestore:"origin" json:"origin"`
	Location    ResolvedLocation `firestore:"location" json:"location"`
	Weather     *WeatherSnapshot `firestore:"weather,omitempty" json:"weather,omitempty"`
	CaptureTime time.Time        `firestore:"captureTime" json:"capture_time"`
	CreatedAt   time.Time        `firestore:"createdAt" json:"created_at"`
	Favorite    bool             `firestore:"favorite" json:"is_favorite"`
	ViewCount   int64            `firestore:"viewCount" json:"view_count"`
}
