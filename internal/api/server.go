// Package api is the HTTP surface of the collector. All collection routes
// require a bearer token; the subject claim scopes every operation to its
// principal.
package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cloudcollector/internal/location"
	"cloudcollector/internal/models"
	"cloudcollector/internal/pipeline"
	"cloudcollector/internal/records"
)

// CaptureRunner executes one capture submission.
type CaptureRunner interface {
	Run(ctx context.Context, in pipeline.Input) (models.CollectionRecord, error)
}

// RecordStore is the collaborator surface over persisted records.
type RecordStore interface {
	List(ctx context.Context, principal string, q records.ListQuery) (records.ListPage, error)
	ToggleFavorite(ctx context.Context, principal, id string) (bool, error)
	Delete(ctx context.Context, principal, id string) (models.CollectionRecord, error)
	IncrementViews(ctx context.Context, principal, id string) error
}

// MetadataExtractor derives embedded metadata for the preview endpoint.
type MetadataExtractor interface {
	Extract(ctx context.Context, asset models.CapturedAsset) models.ExtractedMetadata
}

// AssetRemover removes published objects after a record deletion.
type AssetRemover interface {
	Remove(ctx context.Context, path string) error
}

// Server holds the route handlers and their collaborators.
type Server struct {
	runner    CaptureRunner
	store     RecordStore
	extractor MetadataExtractor
	remover   AssetRemover
	view      *pipeline.CollectionView
	geocoder  location.Geocoder
	jwtSecret string
	log       *zap.Logger
}

func NewServer(
	runner CaptureRunner,
	store RecordStore,
	extractor MetadataExtractor,
	remover AssetRemover,
	view *pipeline.CollectionView,
	jwtSecret string,
	log *zap.Logger,
) *Server {
	return &Server{
		runner:    runner,
		store:     store,
		extractor: extractor,
		remover:   remover,
		view:      view,
		jwtSecret: jwtSecret,
		log:       log,
	}
}

// SetGeocoder enables reverse-geocoded addresses on the metadata probe.
func (s *Server) SetGeocoder(g location.Geocoder) { s.geocoder = g }

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(RequestLogger(s.log), Recovery(s.log))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1", RequireAuth(s.jwtSecret))
	{
		v1.POST("/collections", s.createCollection)
		v1.GET("/collections", s.listCollections)
		v1.PATCH("/collections/:id/favorite", s.toggleFavorite)
		v1.DELETE("/collections/:id", s.deleteCollection)
		v1.POST("/collections/:id/views", s.incrementViews)
		v1.POST("/metadata", s.extractMetadata)
	}
	return r
}
