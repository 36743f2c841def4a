package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/panelworks/panelgen-api/internal/domain"
	"github.com/panelworks/panelgen-api/internal/platform/logger"
	"github.com/panelworks/panelgen-api/internal/textutil"
)

// Panel weight bounds. Every panel weight ends up inside this range.
const (
	minPanelWeight = 0.1
	maxPanelWeight = 1.0
)

// emphasisKeywords mark sentences that deserve a heavier, closer panel.
var emphasisKeywords = []string{
	"reveal", "secret", "shock", "scream", "suddenly", "explo",
	"dead", "blood", "betray", "kiss", "gasp",
}

// runSceneIntent computes what the scene is about. The heuristic draft
// uses the first sentence as summary and a keyword scan for mood; a
// supplied model client may replace the draft with a parsed completion.
func (o *Orchestrator) runSceneIntent(ctx context.Context, scene *domain.Scene, _ RunOptions) (any, error) {
	sentences := textutil.SplitSentences(scene.SourceText)

	draft := domain.SceneIntent{
		Mood:       classifyMood(scene.SourceText),
		Characters: scene.CharacterNames,
	}
	if len(sentences) > 0 {
		draft.Summary = sentences[0]
		beats := sentences
		if len(beats) > 5 {
			beats = beats[:5]
		}
		draft.Beats = beats
	} else {
		draft.Summary = strings.TrimSpace(scene.SourceText)
	}

	if o.model == nil {
		return draft, nil
	}

	var enriched domain.SceneIntent
	if ok := o.enrich(ctx, sceneIntentPrompt(scene), &enriched); ok && enriched.Summary != "" {
		if len(enriched.Characters) == 0 {
			enriched.Characters = scene.CharacterNames
		}
		return enriched, nil
	}
	return draft, nil
}

// runPanelPlan breaks the scene into at most MaxPanelsPerScene panels.
func (o *Orchestrator) runPanelPlan(ctx context.Context, scene *domain.Scene, opts RunOptions) (any, error) {
	var intent domain.SceneIntent
	if err := o.latest(ctx, scene.ID, domain.ArtifactSceneIntent, &intent); err != nil {
		return nil, err
	}

	draft := heuristicPanelPlan(scene, opts.PanelCount)

	if o.model == nil {
		return draft, nil
	}

	var enriched domain.PanelPlan
	if ok := o.enrich(ctx, panelPlanPrompt(scene, intent, len(draft.Panels)), &enriched); ok && len(enriched.Panels) > 0 {
		enriched.Source = "model"
		normalizePanels(&enriched)
		return enriched, nil
	}
	return draft, nil
}

// runNormalize rewrites the latest panel plan into its canonical form:
// indices renumbered 1..n, count truncated, weights clamped, framing
// defaulted. Purely deterministic.
func (o *Orchestrator) runNormalize(ctx context.Context, scene *domain.Scene, _ RunOptions) (any, error) {
	var plan domain.PanelPlan
	if err := o.latest(ctx, scene.ID, domain.ArtifactPanelPlan, &plan); err != nil {
		return nil, err
	}

	normalizePanels(&plan)
	return plan, nil
}

// runLayout derives the page geometry from the normalized plan. Panel
// heights are proportional to panel weights: a heavier panel gets a
// taller region.
func (o *Orchestrator) runLayout(ctx context.Context, scene *domain.Scene, _ RunOptions) (any, error) {
	var plan domain.PanelPlan
	if err := o.latest(ctx, scene.ID, domain.ArtifactPanelPlanNormalized, &plan); err != nil {
		return nil, err
	}

	var totalWeight float64
	for _, p := range plan.Panels {
		totalWeight += p.Weight
	}

	layout := domain.LayoutTemplate{
		CanvasWidth:  o.cfg.Layout.CanvasWidth,
		CanvasHeight: o.cfg.Layout.CanvasHeight,
	}
	for _, p := range plan.Panels {
		height := 1.0 / float64(len(plan.Panels))
		if totalWeight > 0 {
			height = p.Weight / totalWeight
		}
		layout.Rows = append(layout.Rows, domain.LayoutRow{
			PanelIndex: p.Index,
			Height:     height,
		})
	}

	return layout, nil
}

// runPanelSemantics is the pipeline's one fail-fast stage: it has no
// heuristic fallback and errors immediately when no model client is
// available or the completion cannot be parsed into the expected shape.
func (o *Orchestrator) runPanelSemantics(ctx context.Context, scene *domain.Scene, _ RunOptions) (any, error) {
	log := logger.FromContextOrDefault(ctx, o.logger)

	var plan domain.PanelPlan
	if err := o.latest(ctx, scene.ID, domain.ArtifactPanelPlanNormalized, &plan); err != nil {
		return nil, err
	}

	if o.model == nil {
		return nil, fmt.Errorf("%w: panel semantics requires a model client", ErrNoModelClient)
	}

	completion, err := o.model.GenerateText(ctx, panelSemanticsPrompt(scene, plan), "")
	if err != nil {
		return nil, fmt.Errorf("panel semantics generation failed: %w", err)
	}

	var semantics domain.PanelSemantics
	if err := decodeModelJSON(completion, &semantics); err != nil {
		log.Warn("panel semantics completion unparseable",
			slog.String("scene_id", scene.ID.String()),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: panel semantics completion unparseable: %v",
			domain.ErrInvalidFormat, err)
	}

	if len(semantics.Panels) == 0 || semantics.ReconstructedText == "" {
		return nil, fmt.Errorf("%w: panel semantics completion incomplete",
			domain.ErrInvalidFormat)
	}

	return semantics, nil
}

// heuristicPanelPlan builds the deterministic panel draft: sentences are
// distributed across the clamped panel count, framing and weight follow
// position and emphasis keywords.
func heuristicPanelPlan(scene *domain.Scene, requested int) domain.PanelPlan {
	count := requested
	if count == 0 {
		count = panelCountForImportance(scene.Importance)
	}
	count = clampInt(count, 1, MaxPanelsPerScene)

	sentences := textutil.SplitSentences(scene.SourceText)
	if len(sentences) == 0 {
		sentences = []string{strings.TrimSpace(scene.SourceText)}
	}
	if count > len(sentences) {
		count = len(sentences)
	}

	plan := domain.PanelPlan{Source: "heuristic"}
	perPanel := int(math.Ceil(float64(len(sentences)) / float64(count)))

	for i := 0; i < count; i++ {
		start := i * perPanel
		end := start + perPanel
		if end > len(sentences) {
			end = len(sentences)
		}
		description := strings.Join(sentences[start:end], ". ")

		framing := "medium"
		switch {
		case i == 0:
			framing = "wide"
		case textutil.ContainsAny(description, emphasisKeywords...):
			framing = "close_up"
		}

		weight := 0.5
		if textutil.ContainsAny(description, emphasisKeywords...) {
			weight += 0.3
		}
		if len(textutil.QuotedSpans(description)) > 0 {
			weight += 0.1
		}

		plan.Panels = append(plan.Panels, domain.Panel{
			Index:       i + 1,
			Description: description,
			Framing:     framing,
			Characters:  charactersIn(description, scene.CharacterNames),
			Weight:      clampWeight(weight),
		})
	}

	return plan
}

// normalizePanels enforces the structural contract on a plan in place:
// stable order, contiguous 1-based indices, at most MaxPanelsPerScene
// panels, weights in [minPanelWeight, maxPanelWeight].
func normalizePanels(plan *domain.PanelPlan) {
	sort.SliceStable(plan.Panels, func(i, j int) bool {
		return plan.Panels[i].Index < plan.Panels[j].Index
	})

	if len(plan.Panels) > MaxPanelsPerScene {
		plan.Panels = plan.Panels[:MaxPanelsPerScene]
	}

	for i := range plan.Panels {
		plan.Panels[i].Index = i + 1
		plan.Panels[i].Weight = clampWeight(plan.Panels[i].Weight)
		if plan.Panels[i].Framing == "" {
			plan.Panels[i].Framing = "medium"
		}
	}
}

// panelCountForImportance maps scene importance onto a draft panel count.
func panelCountForImportance(importance float64) int {
	switch {
	case importance >= 0.75:
		return 3
	case importance <= 0.25:
		return 1
	default:
		return 2
	}
}

// classifyMood is the keyword-scan mood heuristic.
func classifyMood(text string) string {
	switch {
	case textutil.ContainsAny(text, "shock", "scream", "terror", "panic", "blood"):
		return "tense"
	case textutil.ContainsAny(text, "grave", "funeral", "mourn", "wept", "rain"):
		return "somber"
	case textutil.ContainsAny(text, "laugh", "smile", "celebrat", "joy"):
		return "light"
	default:
		return "neutral"
	}
}

// charactersIn returns the known character names mentioned in the text.
func charactersIn(text string, names []string) []string {
	var present []string
	lowered := strings.ToLower(text)
	for _, name := range names {
		if name != "" && strings.Contains(lowered, strings.ToLower(name)) {
			present = append(present, name)
		}
	}
	return present
}

func clampWeight(w float64) float64 {
	return math.Min(maxPanelWeight, math.Max(minPanelWeight, w))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
