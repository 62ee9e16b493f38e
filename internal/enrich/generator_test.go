package enrich_test

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"cloudcollector/internal/enrich"
	"cloudcollector/internal/models"
	"cloudcollector/internal/tools"
)

type stubCaptioner struct {
	caption enrich.Caption
	err     error
}

func (c *stubCaptioner) Caption(ctx context.Context, asset models.CapturedAsset, tool models.ToolContext, cctx enrich.CaptureContext) (enrich.Caption, error) {
	return c.caption, c.err
}

func fallbackTable() map[string][]tools.FallbackCaption {
	return map[string][]tools.FallbackCaption{
		"catPaw": {
			{Name: "软萌云", Description: "喵～软软的触感"},
			{Name: "毛球云", Description: "毛茸茸的云朵收藏"},
		},
	}
}

func TestGenerator_Generate(t *testing.T) {
	ctx := context.Background()
	asset := models.CapturedAsset{Data: []byte{0x1}, ContentType: "image/jpeg"}
	catPaw := models.ToolContext{ID: "catPaw"}

	t.Run("separate fields pass through", func(t *testing.T) {
		svc := &stubCaptioner{caption: enrich.Caption{
			Name:        "软得不合理的云",
			Description: "它今天必须给我躺",
			Keywords:    []string{"软", "云"},
		}}
		g := enrich.NewGenerator(svc, fallbackTable(), zap.NewNop())

		got := g.Generate(ctx, asset, catPaw, enrich.CaptureContext{})

		if got.Origin != models.OriginService {
			t.Errorf("Origin = %q, want %q", got.Origin, models.OriginService)
		}
		if got.Name != "软得不合理的云" || got.Description != "它今天必须给我躺" {
			t.Errorf("caption = %q / %q", got.Name, got.Description)
		}
		if len(got.Keywords) != 2 {
			t.Errorf("Keywords = %v", got.Keywords)
		}
	})

	t.Run("combined delimited string is split and trimmed", func(t *testing.T) {
		svc := &stubCaptioner{caption: enrich.Caption{
			Name: "童年夏日午后云｜那些年追过的蜻蜓，都变成了云",
		}}
		g := enrich.NewGenerator(svc, fallbackTable(), zap.NewNop())

		got := g.Generate(ctx, asset, catPaw, enrich.CaptureContext{})

		if got.Origin != models.OriginService {
			t.Errorf("Origin = %q, want %q", got.Origin, models.OriginService)
		}
		if got.Name != "童年夏日午后云" {
			t.Errorf("Name = %q, want 童年夏日午后云", got.Name)
		}
		if got.Description != "那些年追过的蜻蜓，都变成了云" {
			t.Errorf("Description = %q", got.Description)
		}
	})

	t.Run("service failure falls back to tool table", func(t *testing.T) {
		svc := &stubCaptioner{err: errors.New("connection reset")}
		g := enrich.NewGenerator(svc, fallbackTable(), zap.NewNop())

		got := g.Generate(ctx, asset, catPaw, enrich.CaptureContext{})

		if got.Origin != models.OriginLocalFallback {
			t.Errorf("Origin = %q, want %q", got.Origin, models.OriginLocalFallback)
		}
		if got.Name == "" || got.Description == "" {
			t.Errorf("fallback produced empty caption: %q / %q", got.Name, got.Description)
		}
		found := false
		for _, pair := range fallbackTable()["catPaw"] {
			if pair.Name == got.Name && pair.Description == got.Description {
				found = true
			}
		}
		if !found {
			t.Errorf("caption %q / %q not drawn from the catPaw table", got.Name, got.Description)
		}
		if len(got.Keywords) != 0 {
			t.Errorf("fallback Keywords = %v, want empty", got.Keywords)
		}
	})

	t.Run("empty service payload counts as failure", func(t *testing.T) {
		svc := &stubCaptioner{caption: enrich.Caption{}}
		g := enrich.NewGenerator(svc, fallbackTable(), zap.NewNop())

		got := g.Generate(ctx, asset, catPaw, enrich.CaptureContext{})
		if got.Origin != models.OriginLocalFallback {
			t.Errorf("Origin = %q, want %q", got.Origin, models.OriginLocalFallback)
		}
	})

	t.Run("fallback is total even for unknown tools", func(t *testing.T) {
		g := enrich.NewGenerator(nil, fallbackTable(), zap.NewNop())

		got := g.Generate(ctx, asset, models.ToolContext{ID: "nosuch"}, enrich.CaptureContext{})
		if got.Name == "" || got.Description == "" {
			t.Errorf("generic fallback empty: %q / %q", got.Name, got.Description)
		}
		if got.Origin != models.OriginLocalFallback {
			t.Errorf("Origin = %q", got.Origin)
		}
	})
}

func TestNormalizeCaption(t *testing.T) {
	cases := []struct {
		name               string
		inName, inDesc     string
		wantName, wantDesc string
	}{
		{"plain fields", "云A", "描述A", "云A", "描述A"},
		{"combined only", "云B｜描述B", "", "云B", "描述B"},
		{"combined with spaces", " 云C ｜ 描述C ", "", "云C", "描述C"},
		{"separate description wins", "云D｜内嵌描述", "独立描述", "云D", "独立描述"},
		{"no delimiter no description", "云E", "", "云E", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gotName, gotDesc := enrich.NormalizeCaption(tc.inName, tc.inDesc)
			if gotName != tc.wantName || gotDesc != tc.wantDesc {
				t.Errorf("NormalizeCaption(%q, %q) = %q, %q; want %q, %q",
					tc.inName, tc.inDesc, gotName, gotDesc, tc.wantName, tc.wantDesc)
			}
		})
	}
}
