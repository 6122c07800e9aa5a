package pipeline

import (
	"fmt"
	"log/slog"
)

// Stage names the step that produced an outcome.
type Stage string

const (
	StageLoad         Stage = "load"
	StageTextureGroup Stage = "texture-group"
	StageTexture      Stage = "texture"
	StageFont         Stage = "font"
	StageMaterial     Stage = "material"
	StageText         Stage = "text"
	StageTitle        Stage = "title"
)

// Outcome is the result of patching one asset or stream group.
type Outcome struct {
	Container string
	Asset     string
	Stage     Stage
	Err       error // nil when patched
	Failed    bool  // false for skips
}

func (o Outcome) String() string {
	switch {
	case o.Err == nil:
		return fmt.Sprintf("[%s] %s: patched", o.Stage, o.Asset)
	case o.Failed:
		return fmt.Sprintf("[%s] %s: failed: %v", o.Stage, o.Asset, o.Err)
	default:
		return fmt.Sprintf("[%s] %s: skipped: %v", o.Stage, o.Asset, o.Err)
	}
}

// Report collects the outcomes of a run.
type Report struct {
	Outcomes []Outcome
}

// Success reports whether no outcome failed.
func (r *Report) Success() bool {
	return len(r.Failures()) == 0
}

// Failures returns the failed outcomes.
func (r *Report) Failures() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Failed {
			out = append(out, o)
		}
	}
	return out
}

// Patched returns the number of rewritten assets.
func (r *Report) Patched() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err == nil {
			n++
		}
	}
	return n
}

// Skipped returns the number of assets left alone without failing.
func (r *Report) Skipped() int {
	return len(r.Outcomes) - r.Patched() - len(r.Failures())
}

func (r *Report) patched(container, asset string, stage Stage) {
	r.Outcomes = append(r.Outcomes, Outcome{Container: container, Asset: asset, Stage: stage})
}

func (r *Report) skip(container, asset string, stage Stage, err error) {
	slog.Warn("skipped asset", "container", container, "asset", asset, "stage", stage, "reason", err)
	r.Outcomes = append(r.Outcomes, Outcome{Container: container, Asset: asset, Stage: stage, Err: err})
}

func (r *Report) fail(container, asset string, stage Stage, err error) {
	slog.Error("asset failed", "container", container, "asset", asset, "stage", stage, "error", err)
	r.Outcomes = append(r.Outcomes, Outcome{Container: container, Asset: asset, Stage: stage, Err: err, Failed: true})
}
