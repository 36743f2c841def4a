package domain

// Per-type views over the artifact JSON payload. Each stage only ever
// marshals and unmarshals the shape it expects; the store treats payloads
// as opaque JSON.

// SceneIntent captures what the scene is about before panels are planned.
type SceneIntent struct {
	Summary    string   `json:"summary"`
	Mood       string   `json:"mood"`
	Beats      []string `json:"beats"`
	Characters []string `json:"characters"`
}

// Panel is one planned comic panel. Weight is always in [0.1, 1.0] and
// drives the panel's relative height in the layout.
type Panel struct {
	Index       int      `json:"index"`
	Description string   `json:"description"`
	Framing     string   `json:"framing"`
	Characters  []string `json:"characters,omitempty"`
	Weight      float64  `json:"weight"`
}

// PanelPlan is the ordered panel list for a scene. Panel count is clamped
// to [1, MaxPanelsPerScene].
type PanelPlan struct {
	Panels []Panel `json:"panels"`
	Source string  `json:"source"` // "heuristic" or "model"
}

// LayoutRow positions one panel region on the page. Height is the
// weight-proportional fraction of the canvas, so heights sum to ~1.
type LayoutRow struct {
	PanelIndex int     `json:"panel_index"`
	Height     float64 `json:"height"`
}

// LayoutTemplate is the page geometry derived from the panel plan.
type LayoutTemplate struct {
	CanvasWidth  int         `json:"canvas_width"`
	CanvasHeight int         `json:"canvas_height"`
	Rows         []LayoutRow `json:"rows"`
}

// PanelSemantic is the model-produced interpretation of one panel.
type PanelSemantic struct {
	Index    int      `json:"index"`
	Subject  string   `json:"subject"`
	Action   string   `json:"action"`
	Camera   string   `json:"camera"`
	Dialogue []string `json:"dialogue,omitempty"`
}

// PanelSemantics is the full semantic pass over a plan. ReconstructedText
// is the model's retelling of the scene from the panels alone and feeds
// the blind test.
type PanelSemantics struct {
	Panels            []PanelSemantic `json:"panels"`
	ReconstructedText string          `json:"reconstructed_text"`
}

// PanelRenderSpec is the prompt and geometry for rendering one panel.
type PanelRenderSpec struct {
	Index  int    `json:"index"`
	Prompt string `json:"prompt"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// RenderSpec is the render plan for all panels of a scene.
type RenderSpec struct {
	Style  string            `json:"style"`
	Panels []PanelRenderSpec `json:"panels"`
}

// PanelRender is the rendered output for one panel. ImageData is base64
// when a provider produced real bytes, or a deterministic placeholder
// reference when no image model was available.
type PanelRender struct {
	Index       int    `json:"index"`
	MimeType    string `json:"mime_type"`
	ByteCount   int    `json:"byte_count"`
	ImageData   string `json:"image_data,omitempty"`
	Placeholder bool   `json:"placeholder"`
}

// RenderResult is the output of the render stage.
type RenderResult struct {
	Panels []PanelRender `json:"panels"`
}

// QCIssue is one rule violation found by the quality check.
type QCIssue struct {
	Rule     string  `json:"rule"`
	Message  string  `json:"message"`
	Observed float64 `json:"observed"`
	Limit    float64 `json:"limit"`
}

// QCReport is the structured issue list from evaluating a plan and its
// semantics against the externally supplied thresholds.
type QCReport struct {
	Issues []QCIssue `json:"issues"`
	Passed bool      `json:"passed"`
}

// BlindTestReport records how recognizable the scene is from its panels
// alone. Score is in [0,1]; Passed is score >= the fixed pass threshold.
type BlindTestReport struct {
	Score             float64 `json:"score"`
	Passed            bool    `json:"passed"`
	ReconstructedText string  `json:"reconstructed_text"`
}

// PanelDialogue holds suggested dialogue lines for one panel.
type PanelDialogue struct {
	PanelIndex int      `json:"panel_index"`
	Lines      []string `json:"lines"`
}

// DialogueSuggestions is the dialogue suggestion pass over a scene.
type DialogueSuggestions struct {
	Panels []PanelDialogue `json:"panels"`
	Source string          `json:"source"`
}
