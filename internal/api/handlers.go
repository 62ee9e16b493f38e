package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cloudcollector/internal/location"
	"cloudcollector/internal/models"
	"cloudcollector/internal/pipeline"
	"cloudcollector/internal/publish"
	"cloudcollector/internal/records"
	"cloudcollector/internal/tools"
)

// createCollection runs the capture pipeline for one uploaded image.
//
// Multipart fields: file (required), tool (required), time, location,
// weather, latitude, longitude.
func (s *Server) createCollection(c *gin.Context) {
	asset, err := readAsset(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	toolID := c.PostForm("tool")
	if toolID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tool is required"})
		return
	}
	toolCtx := models.ToolContext{ID: toolID}
	if tool, ok := tools.Lookup(toolID); ok {
		toolCtx.Name = tool.Name
		toolCtx.Emoji = tool.Emoji
	}

	in := pipeline.Input{
		Session:      principal(c),
		Principal:    principal(c),
		Asset:        asset,
		Tool:         toolCtx,
		LocationHint: c.PostForm("location"),
		WeatherHint:  c.PostForm("weather"),
	}
	if raw := c.PostForm("time"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			in.CaptureTime = t
		}
	}
	if lat, lon, ok := formCoordinates(c); ok {
		in.Live = location.StaticLocator{Point: models.GPSPoint{Latitude: lat, Longitude: lon, Source: "submission"}}
	}

	rec, err := s.runner.Run(c.Request.Context(), in)
	if err != nil {
		s.writeRunError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// writeRunError maps pipeline failures onto HTTP statuses. A write-stage
// failure carries an orphaned flag so clients know an asset was stored
// without a record.
func (s *Server) writeRunError(c *gin.Context, err error) {
	if errors.Is(err, pipeline.ErrAlreadyRunning) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if errors.Is(err, publish.ErrUnsupportedType) || errors.Is(err, publish.ErrTooLarge) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var stageErr *pipeline.StageError
	if errors.As(err, &stageErr) {
		if stageErr.Stage == pipeline.StagePublish {
			c.JSON(http.StatusBadGateway, gin.H{"error": "asset publish failed"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":    "record write failed",
			"orphaned": stageErr.Orphaned(),
		})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func (s *Server) listCollections(c *gin.Context) {
	q := records.ListQuery{
		ToolID: c.Query("tool_id"),
	}
	q.Page, _ = strconv.Atoi(c.Query("page"))
	q.PageSize, _ = strconv.Atoi(c.Query("page_size"))
	if raw := c.Query("is_favorite"); raw != "" {
		fav := raw == "true"
		q.Favorite = &fav
	}

	page, err := s.store.List(c.Request.Context(), principal(c), q)
	if err != nil {
		s.writeStoreError(c, err)
		return
	}
	// an unfiltered first page is the authoritative listing
	if q.ToolID == "" && q.Favorite == nil && page.Page == 1 {
		s.view.Replace(principal(c), page.Records)
	}
	c.JSON(http.StatusOK, page)
}

func (s *Server) toggleFavorite(c *gin.Context) {
	id := c.Param("id")
	flag, err := s.store.ToggleFavorite(c.Request.Context(), principal(c), id)
	if err != nil {
		s.writeStoreError(c, err)
		return
	}
	s.view.OnFavoriteToggled(principal(c), id, flag)
	c.JSON(http.StatusOK, gin.H{"id": id, "is_favorite": flag})
}

func (s *Server) deleteCollection(c *gin.Context) {
	id := c.Param("id")
	rec, err := s.store.Delete(c.Request.Context(), principal(c), id)
	if err != nil {
		s.writeStoreError(c, err)
		return
	}
	s.view.OnRecordDeleted(principal(c), id)

	// asset removal is best effort; the record is already gone
	for _, path := range []string{rec.Asset.StoragePath, rec.Asset.ThumbnailPath} {
		if path == "" {
			continue
		}
		if err := s.remover.Remove(c.Request.Context(), path); err != nil {
			s.log.Warn("failed to remove published asset",
				zap.String("path", path), zap.Error(err))
		}
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) incrementViews(c *gin.Context) {
	if err := s.store.IncrementViews(c.Request.Context(), principal(c), c.Param("id")); err != nil {
		s.writeStoreError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// metadataResponse is the preview shape for an uploaded image.
type metadataResponse struct {
	HasGPS         bool             `json:"has_gps"`
	GPSInfo        *models.GPSPoint `json:"gps_info,omitempty"`
	LocationInfo   string           `json:"location_info,omitempty"`
	HasCaptureTime bool             `json:"has_capture_time"`
	CaptureTime    *time.Time       `json:"capture_time,omitempty"`
}

func (s *Server) extractMetadata(c *gin.Context) {
	asset, err := readAsset(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	meta := s.extractor.Extract(c.Request.Context(), asset)
	resp := metadataResponse{
		HasGPS:         meta.HasGPS,
		GPSInfo:        meta.GPS,
		HasCaptureTime: meta.HasCaptureTime,
	}
	if meta.HasGPS && meta.GPS != nil {
		resp.LocationInfo = location.FormatCoordinates(meta.GPS.Latitude, meta.GPS.Longitude)
		if s.geocoder != nil {
			if place, err := s.geocoder.ReverseGeocode(c.Request.Context(), meta.GPS.Latitude, meta.GPS.Longitude); err == nil && place.Address != "" {
				resp.LocationInfo = place.Address
			}
		}
	}
	if meta.HasCaptureTime {
		t := meta.CaptureTime
		resp.CaptureTime = &t
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) writeStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, records.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "collection record not found"})
	case errors.Is(err, records.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// readAsset loads the uploaded file into a CapturedAsset.
func readAsset(c *gin.Context) (models.CapturedAsset, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return models.CapturedAsset{}, errors.New("file is required")
	}
	f, err := header.Open()
	if err != nil {
		return models.CapturedAsset{}, errors.New("failed to open uploaded file")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return models.CapturedAsset{}, errors.New("failed to read uploaded file")
	}
	return models.CapturedAsset{
		Data:        data,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Filename:    header.Filename,
	}, nil
}

func formCoordinates(c *gin.Context) (lat, lon float64, ok bool) {
	rawLat, rawLon := c.PostForm("latitude"), c.PostForm("longitude")
	if rawLat == "" || rawLon == "" {
		return 0, 0, false
	}
	lat, errLat := strconv.ParseFloat(rawLat, 64)
	lon, errLon := strconv.ParseFloat(rawLon, 64)
	if errLat != nil || errLon != nil {
		return 0, 0, false
	}
	return lat, lon, true
}
