// Package stages holds the per-instrument analysis stages of a pipeline run.
//
// Each stage fans one fetch-and-transform call per instrument out on the shared
// worker pool and returns its results keyed by instrument id.
package stages

import (
	"github.com/aristath/commodities/internal/domain"
)

// Stage names used in progress events and errors
const (
	StageTechnical   = "technical"
	StageDerivatives = "derivatives"
	StageNews        = "news"
	StageAlerts      = "alerts"
)

func instrumentKey(inst domain.Instrument) string {
	return inst.ID
}
