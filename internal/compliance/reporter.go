// Package compliance derives audit-facing reports from the ledger and the
// project snapshot. Reports are read-only views; generating one never writes
// to the store or the ledger.
package compliance

import (
	"context"
	"fmt"
	"time"

	"github.com/veritrail/veritrail/internal/assess"
	"github.com/veritrail/veritrail/internal/ledger"
	"github.com/veritrail/veritrail/pkg/projectboard"
)

// Status is the overall compliance posture.
type Status string

const (
	StatusCompliant    Status = "COMPLIANT"
	StatusWarning      Status = "WARNING"
	StatusNonCompliant Status = "NON_COMPLIANT"
)

// ActorCounts is the per-actor entry tally.
type ActorCounts struct {
	User   int `json:"user"`
	AI     int `json:"ai"`
	System int `json:"system"`
}

// ClassificationBreakdown tallies ledger entries by sensitivity label.
type ClassificationBreakdown struct {
	Public       int `json:"public"`
	Internal     int `json:"internal"`
	Confidential int `json:"confidential"`
	Restricted   int `json:"restricted"`
}

// SourceBreakdown tallies ledger entries by originating system.
type SourceBreakdown struct {
	Local       int `json:"local"`
	ExternalVCS int `json:"external_vcs"`
	Manual      int `json:"manual"`
	ThirdParty  int `json:"third_party"`
}

// Metrics is the quantitative core of a compliance report.
type Metrics struct {
	TotalEntries      int `json:"total_entries"`
	IntegrityScore    int `json:"integrity_score"`
	BrokenLinks       int `json:"broken_links"`
	NonconformingType int `json:"nonconforming_event_types"`

	Actors ActorCounts `json:"actors"`
}

// Control is one checkable item within a framework descriptor.
type Control struct {
	Name      string `json:"name"`
	Satisfied bool   `json:"satisfied"`
	Detail    string `json:"detail"`
}

// Framework is a fixed compliance framework descriptor with its control
// outcomes. The set of frameworks and controls is compiled in.
type Framework struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Satisfied int       `json:"satisfied"`
	Total     int       `json:"total"`
	Controls  []Control `json:"controls"`
}

// ComplianceSnapshot is a point-in-time compliance view.
type ComplianceSnapshot struct {
	GeneratedAt     time.Time               `json:"generated_at"`
	Metrics         Metrics                 `json:"metrics"`
	Frameworks      []Framework             `json:"frameworks"`
	Classifications ClassificationBreakdown `json:"classification_breakdown"`
	Sources         SourceBreakdown         `json:"source_breakdown"`
	OverallStatus   Status                  `json:"overall_status"`
}

// CompliancePackage is a self-contained export for external auditors: the
// metrics, the framework outcomes, the raw ledger entries of the requested
// window and the maturity assessment, all frozen at generation time.
type CompliancePackage struct {
	GeneratedAt        time.Time                   `json:"generated_at"`
	Metrics            Metrics                     `json:"metrics"`
	Frameworks         []Framework                 `json:"frameworks"`
	LedgerEntries      []projectboard.LedgerRecord `json:"ledger_entries"`
	MaturityAssessment assess.Assessment           `json:"maturity_assessment"`
}

// Reporter builds compliance views over one project.
type Reporter struct {
	client *projectboard.Client
	ledger *ledger.Ledger
}

// New creates a reporter over an existing store client and ledger.
func New(client *projectboard.Client, lgr *ledger.Ledger) *Reporter {
	return &Reporter{client: client, ledger: lgr}
}

// Snapshot computes the current compliance posture.
func (r *Reporter) Snapshot(ctx context.Context) (*ComplianceSnapshot, error) {
	records, err := r.client.LedgerRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}
	integrity, err := r.ledger.IntegrityScore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to verify ledger: %w", err)
	}
	board, err := r.client.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read project state: %w", err)
	}

	metrics, classifications, sources := tally(records, integrity)
	assessment := assess.Assess(board)

	return &ComplianceSnapshot{
		GeneratedAt:     time.Now().UTC(),
		Metrics:         metrics,
		Frameworks:      evaluateFrameworks(metrics, records, board, assessment),
		Classifications: classifications,
		Sources:         sources,
		OverallStatus:   overallStatus(metrics),
	}, nil
}

// ExportPackage assembles an auditor-facing export covering the given time
// window. Zero bounds leave that side of the window open.
func (r *Reporter) ExportPackage(ctx context.Context, since, until time.Time) (*CompliancePackage, error) {
	snap, err := r.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := r.ledger.Query(ctx, &ledger.Filter{Since: since, Until: until})
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger window: %w", err)
	}
	// Query returns newest first; exports read chronologically.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	board, err := r.client.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read project state: %w", err)
	}

	return &CompliancePackage{
		GeneratedAt:        snap.GeneratedAt,
		Metrics:            snap.Metrics,
		Frameworks:         snap.Frameworks,
		LedgerEntries:      entries,
		MaturityAssessment: assess.Assess(board),
	}, nil
}

// tally walks the ledger once and aggregates all counting metrics.
func tally(records []projectboard.LedgerRecord, integrity ledger.IntegrityReport) (Metrics, ClassificationBreakdown, SourceBreakdown) {
	m := Metrics{
		TotalEntries:   len(records),
		IntegrityScore: integrity.Score,
		BrokenLinks:    integrity.Broken,
	}
	var cls ClassificationBreakdown
	var src SourceBreakdown

	for i := range records {
		rec := &records[i]
		switch rec.Actor {
		case projectboard.ActorUser:
			m.Actors.User++
		case projectboard.ActorAI:
			m.Actors.AI++
		case projectboard.ActorSystem:
			m.Actors.System++
		}
		switch rec.DataClassification {
		case projectboard.ClassificationPublic:
			cls.Public++
		case projectboard.ClassificationInternal:
			cls.Internal++
		case projectboard.ClassificationConfidential:
			cls.Confidential++
		case projectboard.ClassificationRestricted:
			cls.Restricted++
		}
		switch rec.SourceSystem {
		case projectboard.SourceLocal:
			src.Local++
		case projectboard.SourceExternalVCS:
			src.ExternalVCS++
		case projectboard.SourceManual:
			src.Manual++
		case projectboard.SourceThirdParty:
			src.ThirdParty++
		}
		if ledger.ClassifyEventType(rec.EventType) == ledger.EventTypeNonconforming {
			m.NonconformingType++
		}
	}
	return m, cls, src
}

// overallStatus maps metrics to a posture. A tampered chain is always
// NON_COMPLIANT; an empty ledger is a WARNING rather than a failure because
// a freshly initialized project has nothing to attest yet.
func overallStatus(m Metrics) Status {
	switch {
	case m.TotalEntries == 0:
		return StatusWarning
	case m.IntegrityScore == 100:
		return StatusCompliant
	case m.IntegrityScore >= 95:
		return StatusWarning
	default:
		return StatusNonCompliant
	}
}

// evaluateFrameworks scores the fixed framework descriptors.
func evaluateFrameworks(m Metrics, records []projectboard.LedgerRecord, board *projectboard.Snapshot, a assess.Assessment) []Framework {
	frameworks := []Framework{
		auditTrailFramework(m),
		traceabilityFramework(board, a),
		classificationFramework(m, records),
	}
	for i := range frameworks {
		for _, c := range frameworks[i].Controls {
			frameworks[i].Total++
			if c.Satisfied {
				frameworks[i].Satisfied++
			}
		}
	}
	return frameworks
}

func auditTrailFramework(m Metrics) Framework {
	return Framework{
		ID:   "audit-trail",
		Name: "Audit Trail Completeness",
		Controls: []Control{
			{
				Name:      "ledger-populated",
				Satisfied: m.TotalEntries > 0,
				Detail:    fmt.Sprintf("%d ledger entries recorded", m.TotalEntries),
			},
			{
				Name:      "chain-integrity",
				Satisfied: m.TotalEntries > 0 && m.IntegrityScore == 100,
				Detail:    fmt.Sprintf("integrity score %d, %d broken link(s)", m.IntegrityScore, m.BrokenLinks),
			},
			{
				Name:      "event-type-conformance",
				Satisfied: m.TotalEntries > 0 && m.NonconformingType == 0,
				Detail:    fmt.Sprintf("%d entries with nonconforming event types", m.NonconformingType),
			},
		},
	}
}

func traceabilityFramework(board *projectboard.Snapshot, a assess.Assessment) Framework {
	traced := board.RequirementsLinkedToIssues()
	level := a.MaturityLevel
	return Framework{
		ID:   "traceability",
		Name: "Change Traceability",
		Controls: []Control{
			{
				Name:      "requirements-traced",
				Satisfied: len(board.Requirements) > 0 && traced == len(board.Requirements),
				Detail:    fmt.Sprintf("%d of %d requirements traced to tracker issues", traced, len(board.Requirements)),
			},
			{
				Name:      "changes-traced",
				Satisfied: board.IssuesLinkedTo(projectboard.LinkKindIssueConfigurationItem) > 0,
				Detail:    fmt.Sprintf("%d issue(s) traced to configuration items", board.IssuesLinkedTo(projectboard.LinkKindIssueConfigurationItem)),
			},
			{
				Name:      "managed-maturity",
				Satisfied: level >= 2,
				Detail:    fmt.Sprintf("organization assessed at maturity level %d", level),
			},
		},
	}
}

func classificationFramework(m Metrics, records []projectboard.LedgerRecord) Framework {
	restrictedExternal := 0
	for i := range records {
		if records[i].DataClassification == projectboard.ClassificationRestricted &&
			records[i].SourceSystem != projectboard.SourceLocal &&
			records[i].SourceSystem != projectboard.SourceManual {
			restrictedExternal++
		}
	}
	return Framework{
		ID:   "classification",
		Name: "Data Classification Coverage",
		Controls: []Control{
			{
				Name:      "entries-classified",
				Satisfied: m.TotalEntries > 0,
				Detail:    fmt.Sprintf("%d entries carry a sensitivity label", m.TotalEntries),
			},
			{
				Name:      "restricted-data-local",
				Satisfied: restrictedExternal == 0,
				Detail:    fmt.Sprintf("%d restricted entries originate outside local control", restrictedExternal),
			},
		},
	}
}
