package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/vertexai/genai"
)

// CaptionSystemPrompt frames every captioning request; the per-tool persona
// and examples are appended by the enrichment generator.
const CaptionSystemPrompt = "你是云彩收集手册的命名引擎。观察用户拍摄的云朵照片，" +
	"结合给定的人设风格为它创作名字和一句描述。" +
	"输出必须是一个 JSON 对象：{\"name\": \"...\", \"description\": \"...\", \"keywords\": [\"...\"]}，" +
	"描述不超过30字，不要输出任何其他内容。"

// VertexClient holds the pre-configured captioning model.
type VertexClient struct {
	CaptionModel *genai.GenerativeModel
	baseClient   *genai.Client
}

// NewVertexClient creates the client and configures the caption model for
// structured output.
func NewVertexClient(ctx context.Context, projectID, region string) (*VertexClient, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertexClient: projectID and region cannot be empty")
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	captionModel := baseClient.GenerativeModel("gemini-1.5-flash")
	captionModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(CaptionSystemPrompt)},
	}
	captionModel.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		// Captions should be playful, not deterministic.
		Temperature: genai.Ptr[float32](1.1),
		TopP:        genai.Ptr[float32](0.9),
	}
	captionModel.SafetySettings = []*genai.SafetySetting{
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockNone},
	}

	return &VertexClient{
		CaptionModel: captionModel,
		baseClient:   baseClient,
	}, nil
}

func (c *VertexClient) Close() error {
	if c.baseClient != nil {
		return c.baseClient.Close()
	}
	return nil
}
