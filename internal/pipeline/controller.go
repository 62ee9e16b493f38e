// Package pipeline orchestrates a capture submission end to end: metadata
// extraction, location resolution and enrichment in parallel, asset publish,
// record write, and view sync. Soft failures degrade inside their stages;
// only publish and write abort a run.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cloudcollector/internal/enrich"
	"cloudcollector/internal/location"
	"cloudcollector/internal/models"
)

// MetadataExtractor derives embedded metadata from the raw asset. Total.
type MetadataExtractor interface {
	Extract(ctx context.Context, asset models.CapturedAsset) models.ExtractedMetadata
}

// LocationResolver produces a location for every run. Total.
type LocationResolver interface {
	ResolveWith(ctx context.Context, meta models.ExtractedMetadata, tool models.ToolContext, live location.Locator) models.ResolvedLocation
}

// EnrichmentGenerator produces a caption set for every run. Total.
type EnrichmentGenerator interface {
	Generate(ctx context.Context, asset models.CapturedAsset, tool models.ToolContext, cctx enrich.CaptureContext) models.EnrichmentResult
}

// AssetPublisher validates and durably stores the asset. Hard failure.
type AssetPublisher interface {
	Validate(asset models.CapturedAsset) error
	Publish(ctx context.Context, asset models.CapturedAsset) (models.AssetRef, error)
}

// RecordWriter persists the finished record. Hard failure.
type RecordWriter interface {
	Write(ctx context.Context, rec models.CollectionRecord) (models.CollectionRecord, error)
}

// WeatherService reads current conditions near a coordinate. Best effort.
type WeatherService interface {
	Current(ctx context.Context, lat, lon float64) (models.WeatherSnapshot, error)
}

// Input is one capture submission.
type Input struct {
	Session   string
	Principal string
	Asset     models.CapturedAsset
	Tool      models.ToolContext

	// Caller-supplied hints passed through to enrichment. Optional.
	CaptureTime  time.Time
	LocationHint string
	WeatherHint  string

	// Live position supplied with the submission. Optional; feeds the
	// live tier of location resolution.
	Live location.Locator
}

// Controller runs the pipeline. One Controller serves all sessions; the
// embedded guard serializes runs per session.
type Controller struct {
	extractor MetadataExtractor
	resolver  LocationResolver
	generator EnrichmentGenerator
	publisher AssetPublisher
	writer    RecordWriter
	weather   WeatherService
	view      *CollectionView
	guard     *runGuard
	now       func() time.Time
	log       *zap.Logger
}

func NewController(
	extractor MetadataExtractor,
	resolver LocationResolver,
	generator EnrichmentGenerator,
	publisher AssetPublisher,
	writer RecordWriter,
	weather WeatherService,
	view *CollectionView,
	log *zap.Logger,
) *Controller {
	return &Controller{
		extractor: extractor,
		resolver:  resolver,
		generator: generator,
		publisher: publisher,
		writer:    writer,
		weather:   weather,
		view:      view,
		guard:     newRunGuard(),
		now:       time.Now,
		log:       log,
	}
}

// SetClock fixes the submission clock in tests.
func (c *Controller) SetClock(now func() time.Time) { c.now = now }

// View exposes the controller's collection view.
func (c *Controller) View() *CollectionView { return c.view }

// State reports the session's current run state.
func (c *Controller) State(session string) RunState { return c.guard.state(session) }

// Run executes one submission. It validates up front, so a rejected asset
// costs no network calls, then extracts metadata, resolves location and
// generates enrichment concurrently, publishes, writes the record and
// updates the view. The error, when non-nil, is ErrAlreadyRunning, a
// validation error, or a *StageError.
func (c *Controller) Run(ctx context.Context, in Input) (models.CollectionRecord, error) {
	if !c.guard.tryStart(in.Session) {
		return models.CollectionRecord{}, ErrAlreadyRunning
	}
	ok := false
	defer func() { c.guard.finish(in.Session, ok) }()

	if err := c.publisher.Validate(in.Asset); err != nil {
		return models.CollectionRecord{}, err
	}

	meta := c.extractor.Extract(ctx, in.Asset)
	captureTime := c.captureTime(meta, in)

	var (
		loc        models.ResolvedLocation
		enrichment models.EnrichmentResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		loc = c.resolver.ResolveWith(gctx, meta, in.Tool, in.Live)
		return nil
	})
	g.Go(func() error {
		enrichment = c.generator.Generate(gctx, in.Asset, in.Tool, enrich.CaptureContext{
			Time:     captureTime,
			Location: in.LocationHint,
			Weather:  in.WeatherHint,
		})
		return nil
	})
	_ = g.Wait() // both stages are total

	weather := c.currentWeather(ctx, loc)

	ref, err := c.publisher.Publish(ctx, in.Asset)
	if err != nil {
		c.log.Error("asset publish failed, aborting run",
			zap.String("session", in.Session), zap.Error(err))
		return models.CollectionRecord{}, &StageError{Stage: StagePublish, Err: err}
	}

	rec := models.CollectionRecord{
		OwnerID:     in.Principal,
		ToolID:      in.Tool.ID,
		ToolName:    in.Tool.Name,
		ToolEmoji:   in.Tool.Emoji,
		Asset:       ref,
		Name:        enrichment.Name,
		Description: enrichment.Description,
		Keywords:    enrichment.Keywords,
		Origin:      enrichment.Origin,
		Location:    loc,
		Weather:     weather,
		CaptureTime: captureTime,
	}
	rec, err = c.writer.Write(ctx, rec)
	if err != nil {
		c.log.Error("record write failed, asset is orphaned",
			zap.String("session", in.Session),
			zap.String("storagePath", ref.StoragePath),
			zap.Error(err))
		return models.CollectionRecord{}, &StageError{
			Stage:         StageWrite,
			Err:           err,
			StoragePath:   ref.StoragePath,
			ThumbnailPath: ref.ThumbnailPath,
		}
	}

	c.view.OnRecordCreated(rec)
	ok = true
	c.log.Info("capture run completed",
		zap.String("session", in.Session),
		zap.String("recordId", rec.ID),
		zap.String("locationSource", string(loc.Source)),
		zap.String("enrichmentOrigin", string(enrichment.Origin)))
	return rec, nil
}

// captureTime prefers embedded metadata, then the caller hint, then now.
func (c *Controller) captureTime(meta models.ExtractedMetadata, in Input) time.Time {
	if meta.HasCaptureTime {
		return meta.CaptureTime
	}
	if !in.CaptureTime.IsZero() {
		return in.CaptureTime
	}
	return c.now().UTC()
}

// currentWeather fetches conditions for coordinate-backed locations only.
// Failures are absorbed; the record simply carries no weather.
func (c *Controller) currentWeather(ctx context.Context, loc models.ResolvedLocation) *models.WeatherSnapshot {
	if c.weather == nil {
		return nil
	}
	switch loc.Source {
	case models.SourceToolPlaceholder, models.SourceGenericPlaceholder:
		return nil
	}
	snap, err := c.weather.Current(ctx, loc.Latitude, loc.Longitude)
	if err != nil {
		c.log.Info("weather lookup failed, continuing without it", zap.Error(err))
		return nil
	}
	return &snap
}
