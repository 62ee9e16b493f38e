// cloudcollectord is the capture enrichment and persistence service. It
// accepts image submissions, enriches them with embedded metadata, location
// and generated captions, publishes the asset and persists one record per
// run.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"cloudcollector/internal/api"
	"cloudcollector/internal/config"
	"cloudcollector/internal/enrich"
	"cloudcollector/internal/exifmeta"
	"cloudcollector/internal/gcp"
	"cloudcollector/internal/location"
	"cloudcollector/internal/pipeline"
	"cloudcollector/internal/publish"
	"cloudcollector/internal/records"
	"cloudcollector/internal/tools"
	"cloudcollector/internal/weather"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := run(log); err != nil {
		log.Fatal("service failed", zap.Error(err))
	}
}

func run(log *zap.Logger) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	firestoreClient, err := gcp.NewFirestoreClient(ctx, cfg.ProjectID)
	if err != nil {
		return err
	}
	defer firestoreClient.Close()

	vertexClient, err := gcp.NewVertexClient(ctx, cfg.ProjectID, cfg.VertexRegion)
	if err != nil {
		return err
	}
	defer vertexClient.Close()

	store, err := buildStore(ctx, cfg, log)
	if err != nil {
		return err
	}

	var geocoder *location.AmapGeocoder
	var weatherSvc pipeline.WeatherService
	if cfg.AmapKey != "" {
		geocoder = location.NewAmapGeocoder(cfg.AmapKey, log)
		weatherSvc = weather.NewClient(cfg.AmapKey, geocoder, log)
	} else {
		log.Warn("AMAP_KEY not set, reverse geocoding and weather disabled")
	}

	extractor := exifmeta.NewExtractor(log)
	resolver := newResolver(geocoder, log)
	generator := enrich.NewGenerator(
		enrich.NewVertexCaptioner(vertexClient, log),
		tools.DefaultFallbackCaptions(),
		log,
	)
	publisher := publish.NewPublisher(store, cfg.StorageFolder, log)
	writer := records.NewWriter(firestoreClient, cfg.FirestoreCollection, log)
	view := pipeline.NewCollectionView()

	ctrl := pipeline.NewController(
		extractor, resolver, generator, publisher, writer, weatherSvc, view, log,
	)

	server := api.NewServer(ctrl, writer, extractor, store, view, cfg.JWTSecret, log)
	if geocoder != nil {
		server.SetGeocoder(geocoder)
	}

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.Router(),
	}
	go func() {
		log.Info("listening", zap.String("addr", cfg.ListenAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server stopped", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// newResolver builds the location fallback chain. A nil geocoder simply
// disables the reverse-geocode tier.
func newResolver(geocoder *location.AmapGeocoder, log *zap.Logger) *location.Resolver {
	var g location.Geocoder
	if geocoder != nil {
		g = geocoder
	}
	return location.NewResolver(g, nil, tools.DefaultLocationPlaceholders(), tools.GenericLocationPlaceholder, log)
}

// buildStore selects the object store backend.
func buildStore(ctx context.Context, cfg config.Config, log *zap.Logger) (publish.ObjectStore, error) {
	if cfg.StorageBackend == config.BackendMinio {
		client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
			Secure: cfg.MinioUseSSL,
		})
		if err != nil {
			return nil, err
		}
		store := publish.NewMinioStore(client, cfg.Bucket, cfg.MinioPublicURL)
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		log.Info("using minio object store", zap.String("endpoint", cfg.MinioEndpoint))
		return store, nil
	}

	client, err := gcp.NewStorageClient(ctx)
	if err != nil {
		return nil, err
	}
	log.Info("using gcs object store", zap.String("bucket", cfg.Bucket))
	return publish.NewGCSStore(client, cfg.Bucket), nil
}
