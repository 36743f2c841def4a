// Package pipeline implements the generation pipeline: a fixed-order
// sequence of stages that turn a scene's narrative text into planned,
// laid-out and rendered comic panels, persisting each stage's output as a
// new immutable artifact version.
//
// Stages follow a heuristic-then-enrich pattern: a deterministic,
// rule-based draft is computed first so a stage never fails purely
// because the model provider is unavailable, and a model completion is
// adopted only when it parses into the expected shape. The one exception
// is panel semantics, which has no heuristic and fails fast without a
// usable model result.
package pipeline
