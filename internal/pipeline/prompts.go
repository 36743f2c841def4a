package pipeline

import (
	"fmt"
	"strings"

	"github.com/panelworks/panelgen-api/internal/domain"
)

func sceneIntentPrompt(scene *domain.Scene) string {
	var b strings.Builder
	b.WriteString("You analyze a comic scene. Respond with JSON only, matching this shape:\n")
	b.WriteString(`{"summary": "...", "mood": "...", "beats": ["..."], "characters": ["..."]}` + "\n\n")
	if len(scene.CharacterNames) > 0 {
		fmt.Fprintf(&b, "Known characters: %s\n", strings.Join(scene.CharacterNames, ", "))
	}
	fmt.Fprintf(&b, "Scene text:\n%s\n", scene.SourceText)
	return b.String()
}

func panelPlanPrompt(scene *domain.Scene, intent domain.SceneIntent, panelCount int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Split this comic scene into exactly %d panels. Respond with JSON only:\n", panelCount)
	b.WriteString(`{"panels": [{"index": 1, "description": "...", "framing": "wide|medium|close_up", "characters": ["..."], "weight": 0.5}]}` + "\n\n")
	b.WriteString("Weight is visual importance in [0.1, 1.0]. Index is 1-based.\n")
	fmt.Fprintf(&b, "Scene summary: %s\nMood: %s\n", intent.Summary, intent.Mood)
	fmt.Fprintf(&b, "Scene text:\n%s\n", scene.SourceText)
	return b.String()
}

func panelSemanticsPrompt(scene *domain.Scene, plan domain.PanelPlan) string {
	var b strings.Builder
	b.WriteString("For each panel below, describe the subject, the action, the camera, and any dialogue. ")
	b.WriteString("Then reconstruct the scene's text from the panels alone. Respond with JSON only:\n")
	b.WriteString(`{"panels": [{"index": 1, "subject": "...", "action": "...", "camera": "...", "dialogue": ["..."]}], "reconstructed_text": "..."}` + "\n\n")
	for _, p := range plan.Panels {
		fmt.Fprintf(&b, "Panel %d (%s): %s\n", p.Index, p.Framing, p.Description)
	}
	fmt.Fprintf(&b, "\nOriginal scene text:\n%s\n", scene.SourceText)
	return b.String()
}

func renderPrompt(style string, panel domain.PanelSemantic) string {
	var parts []string
	parts = append(parts, style)
	if panel.Subject != "" {
		parts = append(parts, panel.Subject)
	}
	if panel.Action != "" {
		parts = append(parts, panel.Action)
	}
	if panel.Camera != "" {
		parts = append(parts, panel.Camera+" shot")
	}
	return strings.Join(parts, ", ")
}

func qcPrompt(scene *domain.Scene, report domain.QCReport) string {
	var b strings.Builder
	b.WriteString("Review these rule findings for a comic scene and restate each one as a short actionable note. Respond with JSON only:\n")
	b.WriteString(`{"issues": [{"rule": "...", "message": "...", "observed": 0.0, "limit": 0.0}], "passed": false}` + "\n\n")
	for _, issue := range report.Issues {
		fmt.Fprintf(&b, "- %s: %s (observed %.2f, limit %.2f)\n",
			issue.Rule, issue.Message, issue.Observed, issue.Limit)
	}
	fmt.Fprintf(&b, "\nScene text:\n%s\n", scene.SourceText)
	return b.String()
}

func dialoguePrompt(scene *domain.Scene, semantics domain.PanelSemantics) string {
	var b strings.Builder
	b.WriteString("Suggest concise dialogue for each panel of this comic scene. Respond with JSON only:\n")
	b.WriteString(`{"panels": [{"panel_index": 1, "lines": ["..."]}]}` + "\n\n")
	for _, p := range semantics.Panels {
		fmt.Fprintf(&b, "Panel %d: %s, %s\n", p.Index, p.Subject, p.Action)
	}
	if len(scene.CharacterNames) > 0 {
		fmt.Fprintf(&b, "\nCharacters: %s\n", strings.Join(scene.CharacterNames, ", "))
	}
	fmt.Fprintf(&b, "Scene text:\n%s\n", scene.SourceText)
	return b.String()
}
