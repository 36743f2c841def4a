package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/panelworks/panelgen-api/internal/domain"
	"github.com/panelworks/panelgen-api/internal/textutil"
)

// RunQC evaluates the scene's normalized panel plan against the
// configured quality rules and writes a qc_report artifact. The checks
// themselves are deterministic; a model client, when present, only
// rewrites issue messages into reviewer-friendly notes.
func (o *Orchestrator) RunQC(ctx context.Context, sceneID uuid.UUID) (*Result, error) {
	scene, err := o.scenes.GetByID(ctx, sceneID)
	if err != nil {
		return nil, err
	}

	var plan domain.PanelPlan
	if err := o.latest(ctx, sceneID, domain.ArtifactPanelPlanNormalized, &plan); err != nil {
		return nil, err
	}

	report := o.evaluateQC(plan)

	if o.model != nil && len(report.Issues) > 0 {
		var rewritten domain.QCReport
		if ok := o.enrich(ctx, qcPrompt(scene, report), &rewritten); ok &&
			len(rewritten.Issues) == len(report.Issues) {
			for i := range report.Issues {
				if rewritten.Issues[i].Message != "" {
					report.Issues[i].Message = rewritten.Issues[i].Message
				}
			}
		}
	}

	artifact, err := o.createArtifact(ctx, sceneID, domain.ArtifactQCReport, report)
	if err != nil {
		return nil, err
	}

	result := newResult(sceneID)
	result.Artifacts[domain.ArtifactQCReport] = artifact.ID
	return result, nil
}

// SuggestDialogue generates per-panel dialogue from the scene's panel
// semantics and writes a dialogue_suggestions artifact. Like panel
// semantics it has no heuristic fallback: no model client means no
// suggestions.
func (o *Orchestrator) SuggestDialogue(ctx context.Context, sceneID uuid.UUID) (*Result, error) {
	scene, err := o.scenes.GetByID(ctx, sceneID)
	if err != nil {
		return nil, err
	}

	var semantics domain.PanelSemantics
	if err := o.latest(ctx, sceneID, domain.ArtifactPanelSemantics, &semantics); err != nil {
		return nil, err
	}

	if o.model == nil {
		return nil, fmt.Errorf("%w: dialogue suggestions require a model client", ErrNoModelClient)
	}

	completion, err := o.model.GenerateText(ctx, dialoguePrompt(scene, semantics), "")
	if err != nil {
		return nil, fmt.Errorf("dialogue generation failed: %w", err)
	}

	var suggestions domain.DialogueSuggestions
	if err := decodeModelJSON(completion, &suggestions); err != nil {
		return nil, fmt.Errorf("%w: dialogue completion unparseable: %v",
			domain.ErrInvalidFormat, err)
	}
	if len(suggestions.Panels) == 0 {
		return nil, fmt.Errorf("%w: dialogue completion empty", domain.ErrInvalidFormat)
	}
	suggestions.Source = "model"

	artifact, err := o.createArtifact(ctx, sceneID, domain.ArtifactDialogueSuggestions, suggestions)
	if err != nil {
		return nil, err
	}

	result := newResult(sceneID)
	result.Artifacts[domain.ArtifactDialogueSuggestions] = artifact.ID
	return result, nil
}

// evaluateQC applies the configured thresholds to a normalized plan.
func (o *Orchestrator) evaluateQC(plan domain.PanelPlan) domain.QCReport {
	var report domain.QCReport

	total := len(plan.Panels)
	if total == 0 {
		report.Issues = append(report.Issues, domain.QCIssue{
			Rule:    "empty_plan",
			Message: "plan has no panels",
		})
		report.Passed = false
		return report
	}

	var closeups, withDialogue int
	longestRun, run := 1, 1
	for i, p := range plan.Panels {
		if p.Framing == "close_up" {
			closeups++
		}
		if len(textutil.QuotedSpans(p.Description)) > 0 {
			withDialogue++
		}
		if i > 0 {
			if p.Framing == plan.Panels[i-1].Framing {
				run++
				if run > longestRun {
					longestRun = run
				}
			} else {
				run = 1
			}
		}
	}

	closeupRatio := float64(closeups) / float64(total)
	if closeupRatio > o.cfg.QC.MaxCloseupRatio {
		report.Issues = append(report.Issues, domain.QCIssue{
			Rule:     "closeup_ratio",
			Message:  "too many close-up panels",
			Observed: closeupRatio,
			Limit:    o.cfg.QC.MaxCloseupRatio,
		})
	}

	dialogueRatio := float64(withDialogue) / float64(total)
	if dialogueRatio > o.cfg.QC.MaxDialogueRatio {
		report.Issues = append(report.Issues, domain.QCIssue{
			Rule:     "dialogue_ratio",
			Message:  "too many dialogue-heavy panels",
			Observed: dialogueRatio,
			Limit:    o.cfg.QC.MaxDialogueRatio,
		})
	}

	if longestRun > o.cfg.QC.MaxRepeatedFramingRun {
		report.Issues = append(report.Issues, domain.QCIssue{
			Rule:     "repeated_framing",
			Message:  "too many consecutive panels share one framing",
			Observed: float64(longestRun),
			Limit:    float64(o.cfg.QC.MaxRepeatedFramingRun),
		})
	}

	report.Passed = len(report.Issues) == 0
	return report
}
