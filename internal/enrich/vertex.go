package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"go.uber.org/zap"

	"cloudcollector/internal/gcp"
	"cloudcollector/internal/models"
	"cloudcollector/internal/tools"
)

// VertexCaptioner is the production Captioner backed by the Gemini caption
// model. Its errors are soft by contract: the Generator absorbs them.
type VertexCaptioner struct {
	client *gcp.VertexClient
	log    *zap.Logger
}

func NewVertexCaptioner(client *gcp.VertexClient, log *zap.Logger) *VertexCaptioner {
	return &VertexCaptioner{client: client, log: log}
}

// captionPayload is the JSON shape the caption model is instructed to emit.
type captionPayload struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
}

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

func (v *VertexCaptioner) Caption(ctx context.Context, asset models.CapturedAsset, tool models.ToolContext, cctx CaptureContext) (Caption, error) {
	prompt := buildPrompt(tool, cctx)
	filePart := genai.Blob{
		MIMEType: asset.ContentType,
		Data:     asset.Data,
	}

	resp, err := v.client.CaptionModel.GenerateContent(ctx, filePart, genai.Text(prompt))
	if err != nil {
		return Caption{}, fmt.Errorf("generate caption: %w", err)
	}

	text := extractText(resp)
	if text == "" {
		return Caption{}, fmt.Errorf("caption response contained no text for tool %s", tool.ID)
	}
	return parseCaption(text), nil
}

// buildPrompt assembles the per-tool persona prompt. The examples teach the
// combined "名字｜描述" format, which the generator splits if the model uses
// it instead of JSON.
func buildPrompt(tool models.ToolContext, cctx CaptureContext) string {
	var b strings.Builder
	if t, ok := tools.Lookup(tool.ID); ok {
		fmt.Fprintf(&b, "人设风格：%s\n%s\n\n参考示例（格式为\"名字｜描述\"）：\n", t.Style, t.Persona)
		for _, ex := range t.Examples {
			fmt.Fprintf(&b, "- %s\n", ex)
		}
	} else {
		b.WriteString("请为这朵云起一个有趣的名字并配一句描述。\n")
	}
	b.WriteString("\n拍摄环境：\n")
	if !cctx.Time.IsZero() {
		fmt.Fprintf(&b, "- 时间: %s\n", cctx.Time.Format("2006-01-02 15:04"))
	}
	if cctx.Location != "" {
		fmt.Fprintf(&b, "- 地点: %s\n", cctx.Location)
	}
	if cctx.Weather != "" {
		fmt.Fprintf(&b, "- 天气: %s\n", cctx.Weather)
	}
	return b.String()
}

// extractText concatenates the text parts of the model response; mirrors how
// the rest of this codebase reads Gemini answers.
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(b.String())
}

// parseCaption tries JSON first (optionally inside a markdown fence); when
// that fails the whole text is treated as a combined caption string and left
// for the generator to split.
func parseCaption(text string) Caption {
	candidates := []string{text}
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		candidates = append([]string{strings.TrimSpace(m[1])}, candidates...)
	}
	for _, c := range candidates {
		var payload captionPayload
		if err := json.Unmarshal([]byte(c), &payload); err == nil && payload.Name != "" {
			return Caption{
				Name:        payload.Name,
				Description: payload.Description,
				Keywords:    payload.Keywords,
			}
		}
	}
	return Caption{Name: text}
}
