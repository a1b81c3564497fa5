// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"fmt"
	"log/slog"

	"pgxnbuild/internal/executor"
	"pgxnbuild/internal/pgconfig"
)

// Score is the confidence a pipeline kind has in building a directory.
type Score struct {
	Kind       Kind
	Confidence uint8
}

// Confidence rates how likely the pipeline kind is to build dir, from 0 (it
// cannot) to 255 (certain). Unreadable files lower the rating rather than
// causing an error. Unknown kinds rate 0.
func Confidence(kind Kind, dir string) uint8 {
	switch kind {
	case KindPGXS:
		return pgxsConfidence(dir)
	case KindPgrx:
		return pgrxConfidence(dir)
	default:
		return 0
	}
}

// Scores rates dir for every known kind, in Kinds order.
func Scores(dir string) []Score {
	kinds := Kinds()
	scores := make([]Score, len(kinds))
	for i, k := range kinds {
		scores[i] = Score{Kind: k, Confidence: Confidence(k, dir)}
	}
	return scores
}

// Detect returns the kind with the highest confidence for dir. Ties go to the
// kind listed first by Kinds. It returns ErrNoPipeline when every kind rates
// dir 0.
func Detect(dir string) (Kind, error) {
	var best Score
	for _, s := range Scores(dir) {
		slog.Debug("pipeline confidence", "pipeline", s.Kind, "confidence", s.Confidence)
		if s.Confidence > best.Confidence {
			best = s
		}
	}
	if best.Confidence == 0 {
		return "", ErrNoPipeline
	}
	return best.Kind, nil
}

// New constructs the pipeline for kind. exec must be rooted at the source
// directory. A nil cfg behaves as an empty pg_config table.
func New(kind Kind, exec *executor.Executor, cfg *pgconfig.PgConfig, opts Options) (Pipeline, error) {
	if exec == nil {
		return nil, &ConfigurationError{Reason: "no executor"}
	}
	b := newBase(exec, cfg, opts)
	switch kind {
	case KindPGXS:
		return &Pgxs{base: b}, nil
	case KindPgrx:
		return &Pgrx{base: b}, nil
	default:
		return nil, &UnknownPipelineError{Name: string(kind)}
	}
}

// Select constructs the pipeline named by name. When name is empty the
// pipeline is detected from the executor's directory instead; an explicit
// name always wins over detection.
func Select(name string, exec *executor.Executor, cfg *pgconfig.PgConfig, opts Options) (Pipeline, error) {
	if name != "" {
		kind, err := ParseKind(name)
		if err != nil {
			return nil, err
		}
		slog.Debug("using declared pipeline", "pipeline", kind)
		return New(kind, exec, cfg, opts)
	}

	if exec == nil {
		return nil, &ConfigurationError{Reason: "no executor"}
	}
	kind, err := Detect(exec.Dir())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", exec.Dir(), err)
	}
	slog.Debug("detected pipeline", "pipeline", kind, "dir", exec.Dir())
	return New(kind, exec, cfg, opts)
}
