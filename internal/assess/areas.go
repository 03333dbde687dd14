package assess

import (
	"fmt"

	"github.com/veritrail/veritrail/pkg/projectboard"
)

// taxonomy is the fixed set of process areas, levels 1 through 5. Order
// within the slice is the presentation order; the scorer groups by level and
// does not sort further.
var taxonomy = []ProcessArea{
	{
		ID:            "PA-REQ",
		Name:          "Requirements Recording",
		MaturityLevel: 1,
		applicable: func(s *projectboard.Snapshot) bool {
			return len(s.Requirements) > 0
		},
		evidenceRules: []evidenceRule{
			{
				name:   "requirements-exist",
				weight: 1,
				eval: func(s *projectboard.Snapshot) Evidence {
					return Evidence{
						Satisfied: len(s.Requirements) > 0,
						Detail:    fmt.Sprintf("%d requirement(s) recorded", len(s.Requirements)),
					}
				},
			},
		},
		gapRules: []gapRule{
			// Drafts satisfy level 1 (recording is the bar here, approval is
			// PA-REQM's); they are surfaced as a non-blocking gap.
			{
				name: "requirements-in-draft",
				eval: func(s *projectboard.Snapshot) Gap {
					drafts := s.RequirementsWithStatus(projectboard.RequirementStatusDraft)
					return Gap{
						Present: drafts > 0,
						Detail:  fmt.Sprintf("%d requirement(s) still in draft", drafts),
					}
				},
			},
		},
	},
	{
		ID:            "PA-TSTREC",
		Name:          "Test Recording",
		MaturityLevel: 1,
		applicable: func(s *projectboard.Snapshot) bool {
			return len(s.TestCases) > 0
		},
		evidenceRules: []evidenceRule{
			{
				name:   "test-cases-exist",
				weight: 1,
				eval: func(s *projectboard.Snapshot) Evidence {
					return Evidence{
						Satisfied: len(s.TestCases) > 0,
						Detail:    fmt.Sprintf("%d test case(s) recorded", len(s.TestCases)),
					}
				},
			},
			{
				name:   "tests-executed",
				weight: 1,
				eval: func(s *projectboard.Snapshot) Evidence {
					executed := len(s.TestCases) - s.TestCasesWithStatus(projectboard.TestStatusNotRun)
					return Evidence{
						Satisfied: executed > 0,
						Detail:    fmt.Sprintf("%d test case(s) executed", executed),
					}
				},
			},
		},
		gapRules: []gapRule{},
	},
	{
		ID:            "PA-REQM",
		Name:          "Requirements Management",
		MaturityLevel: 2,
		applicable: func(s *projectboard.Snapshot) bool {
			return len(s.Requirements) > 0
		},
		evidenceRules: []evidenceRule{
			{
				name:   "requirements-approved",
				weight: 2,
				eval: func(s *projectboard.Snapshot) Evidence {
					approved := len(s.Requirements) - s.RequirementsWithStatus(projectboard.RequirementStatusDraft)
					return Evidence{
						Satisfied: 2*approved >= len(s.Requirements),
						Detail:    fmt.Sprintf("%d of %d requirements approved or beyond", approved, len(s.Requirements)),
					}
				},
			},
			{
				name:   "requirements-traced-to-issues",
				weight: 2,
				eval: func(s *projectboard.Snapshot) Evidence {
					linked := s.RequirementsLinkedToIssues()
					return Evidence{
						Satisfied: linked > 0,
						Detail:    fmt.Sprintf("%d requirement(s) traced to tracker issues", linked),
					}
				},
			},
		},
		gapRules: []gapRule{
			{
				name: "untraced-requirements",
				eval: func(s *projectboard.Snapshot) Gap {
					untraced := len(s.Requirements) - s.RequirementsLinkedToIssues()
					return Gap{
						Present: untraced > 0,
						Detail:  fmt.Sprintf("%d requirement(s) have no issue trace", untraced),
					}
				},
			},
		},
	},
	{
		ID:            "PA-CM",
		Name:          "Configuration Management",
		MaturityLevel: 2,
		applicable: func(s *projectboard.Snapshot) bool {
			return len(s.ConfigurationItems) > 0
		},
		evidenceRules: []evidenceRule{
			{
				name:   "configuration-items-exist",
				weight: 1,
				eval: func(s *projectboard.Snapshot) Evidence {
					return Evidence{
						Satisfied: len(s.ConfigurationItems) > 0,
						Detail:    fmt.Sprintf("%d configuration item(s) under control", len(s.ConfigurationItems)),
					}
				},
			},
			{
				name:   "changes-traced-to-items",
				weight: 1,
				eval: func(s *projectboard.Snapshot) Evidence {
					n := s.IssuesLinkedTo(projectboard.LinkKindIssueConfigurationItem)
					return Evidence{
						Satisfied: n > 0,
						Detail:    fmt.Sprintf("%d issue(s) traced to configuration items", n),
					}
				},
			},
		},
		gapRules: []gapRule{},
	},
	{
		ID:            "PA-TP",
		Name:          "Test Planning",
		MaturityLevel: 2,
		applicable: func(s *projectboard.Snapshot) bool {
			return len(s.TestCases) > 0
		},
		evidenceRules: []evidenceRule{
			{
				name:   "test-coverage-breadth",
				weight: 1,
				eval: func(s *projectboard.Snapshot) Evidence {
					return Evidence{
						Satisfied: len(s.TestCases) >= len(s.Requirements),
						Detail:    fmt.Sprintf("%d test case(s) against %d requirement(s)", len(s.TestCases), len(s.Requirements)),
					}
				},
			},
			{
				name:   "scenario-style-tests",
				weight: 1,
				eval: func(s *projectboard.Snapshot) Evidence {
					n := s.TestCasesWithGherkin()
					return Evidence{
						Satisfied: n > 0,
						Detail:    fmt.Sprintf("%d test case(s) carry Gherkin scenarios", n),
					}
				},
			},
		},
		gapRules: []gapRule{},
	},
	{
		ID:            "PA-VER",
		Name:          "Verification",
		MaturityLevel: 3,
		applicable: func(s *projectboard.Snapshot) bool {
			return len(s.TestCases)-s.TestCasesWithStatus(projectboard.TestStatusNotRun) > 0
		},
		evidenceRules: []evidenceRule{
			{
				name:   "pass-rate",
				weight: 2,
				eval: func(s *projectboard.Snapshot) Evidence {
					executed := len(s.TestCases) - s.TestCasesWithStatus(projectboard.TestStatusNotRun)
					passed := s.TestCasesWithStatus(projectboard.TestStatusPassed)
					return Evidence{
						Satisfied: executed > 0 && 5*passed >= 4*executed,
						Detail:    fmt.Sprintf("%d of %d executed test case(s) passed", passed, executed),
					}
				},
			},
			{
				name:   "full-execution",
				weight: 1,
				eval: func(s *projectboard.Snapshot) Evidence {
					notRun := s.TestCasesWithStatus(projectboard.TestStatusNotRun)
					return Evidence{
						Satisfied: notRun == 0,
						Detail:    "every recorded test case has been executed",
					}
				},
			},
		},
		gapRules: []gapRule{
			{
				name: "failing-tests",
				eval: func(s *projectboard.Snapshot) Gap {
					failed := s.TestCasesWithStatus(projectboard.TestStatusFailed)
					return Gap{
						Present:  failed > 0,
						Detail:   fmt.Sprintf("%d test case(s) currently failing", failed),
						Blocking: true,
					}
				},
			},
		},
	},
	{
		ID:            "PA-RSKM",
		Name:          "Risk Management",
		MaturityLevel: 3,
		applicable: func(s *projectboard.Snapshot) bool {
			return len(s.Risks) > 0
		},
		evidenceRules: []evidenceRule{
			{
				name:   "risks-identified",
				weight: 1,
				eval: func(s *projectboard.Snapshot) Evidence {
					return Evidence{
						Satisfied: len(s.Risks) > 0,
						Detail:    fmt.Sprintf("%d risk(s) identified", len(s.Risks)),
					}
				},
			},
			{
				name:   "risks-traced-to-work",
				weight: 1,
				eval: func(s *projectboard.Snapshot) Evidence {
					n := s.IssuesLinkedTo(projectboard.LinkKindIssueRisk)
					return Evidence{
						Satisfied: n > 0,
						Detail:    fmt.Sprintf("%d issue(s) traced to risks", n),
					}
				},
			},
		},
		gapRules: []gapRule{},
	},
	{
		ID:            "PA-SECDOC",
		Name:          "Security Documentation",
		MaturityLevel: 3,
		applicable: func(s *projectboard.Snapshot) bool {
			return len(s.Documents) > 0
		},
		evidenceRules: []evidenceRule{
			{
				name:   "security-section",
				weight: 2,
				eval: func(s *projectboard.Snapshot) Evidence {
					return Evidence{
						Satisfied: s.HasDocumentSection("security"),
						Detail:    "a security section exists in project documentation",
					}
				},
			},
			{
				name:   "structured-documents",
				weight: 1,
				eval: func(s *projectboard.Snapshot) Evidence {
					n := 0
					for _, d := range s.Documents {
						if len(d.Sections) >= 3 {
							n++
						}
					}
					return Evidence{
						Satisfied: n > 0,
						Detail:    fmt.Sprintf("%d document(s) with structured sections", n),
					}
				},
			},
		},
		gapRules: []gapRule{
			{
				name: "missing-security-section",
				eval: func(s *projectboard.Snapshot) Gap {
					return Gap{
						Present: !s.HasDocumentSection("security"),
						Detail:  "no document declares a security section",
					}
				},
			},
		},
	},
	{
		ID:            "PA-QPM",
		Name:          "Quantitative Management",
		MaturityLevel: 4,
		applicable: func(s *projectboard.Snapshot) bool {
			return len(s.Requirements) > 0 && len(s.TestCases) > 0
		},
		evidenceRules: []evidenceRule{
			{
				name:   "test-stability",
				weight: 1,
				eval: func(s *projectboard.Snapshot) Evidence {
					return Evidence{
						Satisfied: len(s.TestCases) > 0 &&
							s.TestCasesWithStatus(projectboard.TestStatusPassed) == len(s.TestCases),
						Detail: "every recorded test case passes",
					}
				},
			},
			{
				name:   "verified-requirements",
				weight: 1,
				eval: func(s *projectboard.Snapshot) Evidence {
					verified := s.RequirementsWithStatus(projectboard.RequirementStatusVerified)
					return Evidence{
						Satisfied: 2*verified >= len(s.Requirements),
						Detail:    fmt.Sprintf("%d of %d requirements verified", verified, len(s.Requirements)),
					}
				},
			},
			{
				name:   "full-traceability",
				weight: 1,
				eval: func(s *projectboard.Snapshot) Evidence {
					return Evidence{
						Satisfied: len(s.Requirements) > 0 &&
							s.RequirementsLinkedToIssues() == len(s.Requirements),
						Detail: "every requirement is traced to a tracker issue",
					}
				},
			},
		},
		gapRules: []gapRule{},
	},
	{
		ID:            "PA-OPT",
		Name:          "Automation and Optimization",
		MaturityLevel: 5,
		applicable: func(s *projectboard.Snapshot) bool {
			return len(s.TestCases) > 0
		},
		evidenceRules: []evidenceRule{
			{
				name:   "automation-in-the-loop",
				weight: 1,
				eval: func(s *projectboard.Snapshot) Evidence {
					n := s.TestCasesBy(projectboard.OriginAutomation)
					return Evidence{
						Satisfied: n > 0,
						Detail:    fmt.Sprintf("%d test case(s) touched by automation", n),
					}
				},
			},
			{
				name:   "scenario-coverage",
				weight: 1,
				eval: func(s *projectboard.Snapshot) Evidence {
					return Evidence{
						Satisfied: len(s.TestCases) > 0 && s.TestCasesWithGherkin() == len(s.TestCases),
						Detail:    "every test case carries a Gherkin scenario",
					}
				},
			},
			{
				name:   "all-requirements-verified",
				weight: 1,
				eval: func(s *projectboard.Snapshot) Evidence {
					verified := s.RequirementsWithStatus(projectboard.RequirementStatusVerified)
					return Evidence{
						Satisfied: len(s.Requirements) > 0 && verified == len(s.Requirements),
						Detail:    "every requirement has reached verified status",
					}
				},
			},
		},
		gapRules: []gapRule{},
	},
}
