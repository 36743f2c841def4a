package pipeline

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"math"

	"github.com/panelworks/panelgen-api/internal/domain"
	"github.com/panelworks/panelgen-api/internal/platform/logger"
	"github.com/panelworks/panelgen-api/internal/textutil"
)

// runRenderSpec compiles the semantics and layout into per-panel render
// instructions: a generation prompt plus pixel geometry on the canvas.
func (o *Orchestrator) runRenderSpec(ctx context.Context, scene *domain.Scene, _ RunOptions) (any, error) {
	var semantics domain.PanelSemantics
	if err := o.latest(ctx, scene.ID, domain.ArtifactPanelSemantics, &semantics); err != nil {
		return nil, err
	}

	var layout domain.LayoutTemplate
	if err := o.latest(ctx, scene.ID, domain.ArtifactLayoutTemplate, &layout); err != nil {
		return nil, err
	}

	heights := make(map[int]float64, len(layout.Rows))
	for _, row := range layout.Rows {
		heights[row.PanelIndex] = row.Height
	}

	spec := domain.RenderSpec{Style: "comic panel, clean line art, flat color"}
	for _, panel := range semantics.Panels {
		height := heights[panel.Index]
		if height == 0 {
			height = 1.0 / float64(len(semantics.Panels))
		}
		spec.Panels = append(spec.Panels, domain.PanelRenderSpec{
			Index:  panel.Index,
			Prompt: renderPrompt(spec.Style, panel),
			Width:  layout.CanvasWidth,
			Height: int(math.Round(height * float64(layout.CanvasHeight))),
		})
	}

	return spec, nil
}

// runRender produces one image per panel. Every panel gets a
// deterministic placeholder first; a model client may then replace
// individual placeholders, and a failed image call leaves the
// placeholder in place rather than failing the stage.
func (o *Orchestrator) runRender(ctx context.Context, scene *domain.Scene, _ RunOptions) (any, error) {
	log := logger.FromContextOrDefault(ctx, o.logger)

	var spec domain.RenderSpec
	if err := o.latest(ctx, scene.ID, domain.ArtifactRenderSpec, &spec); err != nil {
		return nil, err
	}

	var result domain.RenderResult
	for _, panel := range spec.Panels {
		render := placeholderRender(panel)

		if o.model != nil {
			data, mime, err := o.model.GenerateImage(ctx, panel.Prompt, "")
			if err != nil {
				log.Warn("panel image generation failed, keeping placeholder",
					slog.String("scene_id", scene.ID.String()),
					slog.Int("panel", panel.Index),
					slog.String("error", err.Error()))
			} else if len(data) > 0 {
				render = domain.PanelRender{
					Index:     panel.Index,
					MimeType:  mime,
					ByteCount: len(data),
					ImageData: base64.StdEncoding.EncodeToString(data),
				}
			}
		}

		result.Panels = append(result.Panels, render)
	}

	return result, nil
}

// runBlindTest scores how much of the source text survives the pipeline.
// The reconstructed text from panel semantics is compared against the
// scene's source with a cosine term-frequency similarity.
func (o *Orchestrator) runBlindTest(ctx context.Context, scene *domain.Scene, _ RunOptions) (any, error) {
	var semantics domain.PanelSemantics
	if err := o.latest(ctx, scene.ID, domain.ArtifactPanelSemantics, &semantics); err != nil {
		return nil, err
	}

	score := textutil.Similarity(scene.SourceText, semantics.ReconstructedText)
	score = math.Min(1.0, math.Max(0.0, score))

	return domain.BlindTestReport{
		Score:             score,
		Passed:            score >= blindTestPassThreshold,
		ReconstructedText: semantics.ReconstructedText,
	}, nil
}

// placeholderRender builds the deterministic stand-in image for a panel:
// a minimal SVG box at the panel's geometry, base64-encoded like a real
// render so downstream consumers handle both uniformly.
func placeholderRender(panel domain.PanelRenderSpec) domain.PanelRender {
	svg := fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d"><rect width="100%%" height="100%%" fill="#e8e8e8" stroke="#444"/><text x="12" y="24" font-size="16">panel %d</text></svg>`,
		panel.Width, panel.Height, panel.Index)

	return domain.PanelRender{
		Index:       panel.Index,
		MimeType:    "image/svg+xml",
		ByteCount:   len(svg),
		ImageData:   base64.StdEncoding.EncodeToString([]byte(svg)),
		Placeholder: true,
	}
}
