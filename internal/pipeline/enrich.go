package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/panelworks/panelgen-api/internal/platform/logger"
)

// enrich runs one model completion and decodes it into out. It returns
// false on any failure; callers fall back to their heuristic draft, so
// a flaky or absent model never breaks a planning stage.
func (o *Orchestrator) enrich(ctx context.Context, prompt string, out any) bool {
	log := logger.FromContextOrDefault(ctx, o.logger)

	completion, err := o.model.GenerateText(ctx, prompt, "")
	if err != nil {
		log.Warn("model enrichment failed, using heuristic draft",
			slog.String("error", err.Error()))
		return false
	}

	if err := decodeModelJSON(completion, out); err != nil {
		log.Warn("model completion unparseable, using heuristic draft",
			slog.String("error", err.Error()))
		return false
	}
	return true
}

// decodeModelJSON extracts the first JSON object from a completion.
// Models routinely wrap JSON in markdown fences or prose, so we locate
// the outermost braces rather than decoding the raw string.
func decodeModelJSON(completion string, out any) error {
	start := strings.Index(completion, "{")
	end := strings.LastIndex(completion, "}")
	if start < 0 || end <= start {
		return fmt.Errorf("no JSON object in completion")
	}
	return json.Unmarshal([]byte(completion[start:end+1]), out)
}
