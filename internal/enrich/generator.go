// Package enrich asks the enrichment service to name and describe a captured
// image, and keeps a local canned-caption generator so the pipeline always
// ends up with some name and description.
package enrich

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"

	"cloudcollector/internal/models"
	"cloudcollector/internal/tools"
)

// CaptureContext is the ambient context handed to the enrichment service.
type CaptureContext struct {
	Time     time.Time
	Location string
	Weather  string
}

// Captioner is the primary enrichment path. The returned description and
// keywords may be empty when the service answers with a combined
// "name｜description" string; Generator normalizes both shapes.
type Captioner interface {
	Caption(ctx context.Context, asset models.CapturedAsset, tool models.ToolContext, cctx CaptureContext) (Caption, error)
}

// Caption is the raw answer of the enrichment service.
type Caption struct {
	Name        string
	Description string
	Keywords    []string
}

// Generator produces an EnrichmentResult for every call. Service failures
// degrade to the per-tool fallback table; generation never fails.
type Generator struct {
	captioner Captioner
	fallback  map[string][]tools.FallbackCaption
	pick      func(n int) int
	log       *zap.Logger
}

// NewGenerator builds a Generator around the given captioner. The fallback
// table is supplied by the caller so tests can substitute their own; a nil
// captioner makes every call take the fallback path.
func NewGenerator(captioner Captioner, fallback map[string][]tools.FallbackCaption, log *zap.Logger) *Generator {
	return &Generator{
		captioner: captioner,
		fallback:  fallback,
		pick:      rand.Intn,
		log:       log,
	}
}

// Generate returns a caption set for the asset. Failures of the primary path
// are absorbed: the result's Origin field records which path produced it.
func (g *Generator) Generate(ctx context.Context, asset models.CapturedAsset, tool models.ToolContext, cctx CaptureContext) models.EnrichmentResult {
	if g.captioner != nil {
		caption, err := g.captioner.Caption(ctx, asset, tool, cctx)
		if err == nil {
			name, description := NormalizeCaption(caption.Name, caption.Description)
			if name != "" && description != "" {
				keywords := caption.Keywords
				if keywords == nil {
					keywords = []string{}
				}
				return models.EnrichmentResult{
					Name:        name,
					Description: description,
					Keywords:    keywords,
					Origin:      models.OriginService,
				}
			}
			g.log.Warn("enrichment service returned an empty caption, using local fallback",
				zap.String("tool", tool.ID))
		} else {
			g.log.Warn("enrichment service failed, using local fallback",
				zap.String("tool", tool.ID), zap.Error(err))
		}
	}
	return g.local(tool)
}

// local draws one canned pair from the tool's table. Total by construction.
func (g *Generator) local(tool models.ToolContext) models.EnrichmentResult {
	pair := tools.GenericFallbackCaption
	if list := g.fallback[tool.ID]; len(list) > 0 {
		pair = list[g.pick(len(list))]
	}
	return models.EnrichmentResult{
		Name:        pair.Name,
		Description: pair.Description,
		Keywords:    []string{},
		Origin:      models.OriginLocalFallback,
	}
}

// NormalizeCaption folds the service's two answer shapes into separate name
// and description fields. A combined "name｜description" string is split on
// the delimiter and trimmed; a separately provided description wins over the
// combined one.
func NormalizeCaption(name, description string) (string, string) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	if left, right, found := strings.Cut(name, tools.CaptionDelimiter); found {
		name = strings.TrimSpace(left)
		if description == "" {
			description = strings.TrimSpace(right)
		}
	}
	return name, description
}
