package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/panelworks/panelgen-api/internal/generation"
)

// modelProvider is the transport the resilient client drives. It exists
// so tests can exercise retry, fallback and breaker behavior without a
// network; production wires genaiProvider.
type modelProvider interface {
	generateText(ctx context.Context, model, prompt string) (string, error)
	generateImage(ctx context.Context, model, prompt string) ([]byte, string, error)
}

// genaiProvider implements modelProvider on the google.golang.org/genai client.
type genaiProvider struct {
	client *genai.Client
}

func (p *genaiProvider) generateText(ctx context.Context, model, prompt string) (string, error) {
	resp, err := p.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates in response", generation.ErrInvalidResponse)
	}

	if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: finish reason safety", generation.ErrContentBlocked)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: empty completion text", generation.ErrInvalidResponse)
	}

	return text, nil
}

func (p *genaiProvider) generateImage(ctx context.Context, model, prompt string) ([]byte, string, error) {
	resp, err := p.client.Models.GenerateImages(ctx, model, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
	})
	if err != nil {
		return nil, "", err
	}

	if resp == nil || len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return nil, "", fmt.Errorf("%w: no image in response", generation.ErrInvalidResponse)
	}

	img := resp.GeneratedImages[0].Image
	if len(img.ImageBytes) == 0 {
		return nil, "", fmt.Errorf("%w: empty image bytes", generation.ErrInvalidResponse)
	}

	mimeType := img.MIMEType
	if mimeType == "" {
		mimeType = "image/png"
	}

	return img.ImageBytes, mimeType, nil
}
