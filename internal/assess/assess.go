// Package assess implements the maturity scorer: a pure, deterministic
// evaluation of a project snapshot against a fixed taxonomy of process areas.
//
// Scoring never touches the store and never writes to the ledger. Given
// identical snapshots, two assessments produce identical output.
package assess

import (
	"fmt"

	"github.com/veritrail/veritrail/pkg/projectboard"
)

// SatisfactionThreshold is the minimum area score for satisfaction. This is
// a policy constant, deliberately not user-configurable.
const SatisfactionThreshold = 70

// Evidence is the outcome of one evidence rule.
type Evidence struct {
	Satisfied bool
	Detail    string
}

// Gap is the outcome of one gap rule. A blocking gap prevents area
// satisfaction regardless of score.
type Gap struct {
	Present  bool
	Detail   string
	Blocking bool
}

// evidenceRule is a weighted predicate over the snapshot.
type evidenceRule struct {
	name   string
	weight int
	eval   func(*projectboard.Snapshot) Evidence
}

// gapRule is a predicate identifying missing or disqualifying evidence.
type gapRule struct {
	name string
	eval func(*projectboard.Snapshot) Gap
}

// ProcessArea is one entry of the static taxonomy. Areas are not
// user-editable; the taxonomy is compiled in.
type ProcessArea struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	MaturityLevel int    `json:"maturity_level"`

	// applicable reports whether the snapshot contains any artifacts this
	// area can judge. An inapplicable area scores 0 and is never satisfied:
	// absence of evidence is not evidence of absence.
	applicable func(*projectboard.Snapshot) bool

	evidenceRules []evidenceRule
	gapRules      []gapRule
}

// AreaStatus is the derived evaluation of one process area. It is always
// recomputed from the snapshot, never persisted independently.
type AreaStatus struct {
	ProcessAreaID string   `json:"process_area_id"`
	Name          string   `json:"name"`
	MaturityLevel int      `json:"maturity_level"`
	Score         int      `json:"score"`
	Satisfied     bool     `json:"satisfied"`
	Evidence      []string `json:"evidence"`
	Gaps          []string `json:"gaps"`
}

// Assessment is the full scoring result.
type Assessment struct {
	MaturityLevel int          `json:"maturity_level"`
	LevelProgress int          `json:"level_progress"`
	Areas         []AreaStatus `json:"areas"`
}

// Assess evaluates every process area against the snapshot and aggregates
// the organization-wide maturity level. Levels must be achieved in strictly
// ascending order: a gap at level 2 caps the result at level 1 even if
// higher-level areas are individually satisfied. Areas are grouped by level
// in taxonomy order; equally scored areas have no defined order beyond that.
func Assess(snap *projectboard.Snapshot) Assessment {
	areas := make([]AreaStatus, 0, len(taxonomy))
	for i := range taxonomy {
		areas = append(areas, evaluateArea(&taxonomy[i], snap))
	}

	satisfiedByLevel := make(map[int]int)
	totalByLevel := make(map[int]int)
	maxLevel := 0
	for _, a := range areas {
		totalByLevel[a.MaturityLevel]++
		if a.Satisfied {
			satisfiedByLevel[a.MaturityLevel]++
		}
		if a.MaturityLevel > maxLevel {
			maxLevel = a.MaturityLevel
		}
	}

	level := 0
	for l := 1; l <= maxLevel; l++ {
		if totalByLevel[l] == 0 || satisfiedByLevel[l] < totalByLevel[l] {
			break
		}
		level = l
	}

	progress := 100
	if level < maxLevel {
		next := level + 1
		progress = 0
		if totalByLevel[next] > 0 {
			progress = 100 * satisfiedByLevel[next] / totalByLevel[next]
		}
	}

	return Assessment{
		MaturityLevel: level,
		LevelProgress: progress,
		Areas:         areas,
	}
}

// evaluateArea scores one process area against the snapshot.
func evaluateArea(pa *ProcessArea, snap *projectboard.Snapshot) AreaStatus {
	status := AreaStatus{
		ProcessAreaID: pa.ID,
		Name:          pa.Name,
		MaturityLevel: pa.MaturityLevel,
		Evidence:      []string{},
		Gaps:          []string{},
	}

	if !pa.applicable(snap) {
		status.Gaps = append(status.Gaps, "no applicable artifacts for this process area")
		return status
	}

	totalWeight := 0
	satisfiedWeight := 0
	for _, rule := range pa.evidenceRules {
		totalWeight += rule.weight
		ev := rule.eval(snap)
		if ev.Satisfied {
			satisfiedWeight += rule.weight
			status.Evidence = append(status.Evidence, fmt.Sprintf("%s: %s", rule.name, ev.Detail))
		}
	}
	if totalWeight > 0 {
		// Round half up to an integer percentage.
		status.Score = (100*satisfiedWeight + totalWeight/2) / totalWeight
	}

	blocking := false
	for _, rule := range pa.gapRules {
		gap := rule.eval(snap)
		if !gap.Present {
			continue
		}
		status.Gaps = append(status.Gaps, fmt.Sprintf("%s: %s", rule.name, gap.Detail))
		if gap.Blocking {
			blocking = true
		}
	}

	status.Satisfied = status.Score >= SatisfactionThreshold && !blocking
	return status
}

// Areas returns the static taxonomy as display metadata.
func Areas() []ProcessArea {
	out := make([]ProcessArea, len(taxonomy))
	copy(out, taxonomy)
	return out
}
