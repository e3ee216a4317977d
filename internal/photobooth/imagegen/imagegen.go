// Package imagegen wraps the Gemini image model behind a small renderer
// interface so the orchestrator can be tested without network calls.
package imagegen

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"event_leads_backend/internal/photobooth/source"
	"event_leads_backend/platform/config"
)

// Rendered is one generated output image.
type Rendered struct {
	Data     []byte
	MIMEType string
}

// Client renders styled photo variants with the Gemini image model.
type Client struct {
	client *genai.Client
	model  string
}

// NewClient creates a Gemini-backed renderer.
func NewClient(ctx context.Context, cfg config.GenAIConfig) (*Client, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GetGeminiAPIKey(),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Client{client: c, model: cfg.GetGeminiImageModel()}, nil
}

// Render submits the source photo and prompt to the image model and
// returns the first image part of the response. The SDK retries
// internally; the caller's context carries the overall deadline.
func (c *Client) Render(ctx context.Context, prompt string, img source.Image) (Rendered, error) {
	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{
				InlineData: &genai.Blob{
					MIMEType: img.MIMEType,
					Data:     img.Data,
				},
			},
			genai.NewPartFromText(renderPrompt(prompt, img.Orientation)),
		},
	}}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
	})
	if err != nil {
		return Rendered{}, fmt.Errorf("generate image: %w", err)
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return Rendered{
					Data:     part.InlineData.Data,
					MIMEType: part.InlineData.MIMEType,
				}, nil
			}
		}
	}

	return Rendered{}, fmt.Errorf("generate image: response contained no image part")
}

func renderPrompt(template string, orientation int) string {
	prompt := template + "\n\nKeep the person's face recognizable. Output a single styled image."
	if orientation != 1 {
		prompt += fmt.Sprintf("\nThe source photo carries EXIF orientation %d; render the subject upright.", orientation)
	}
	return prompt
}
