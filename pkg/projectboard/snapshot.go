package projectboard

import "strings"

// Snapshot is a point-in-time, read-only copy of the project state. All
// collections are sorted by ID (issues by number) so that two snapshots of
// identical state compare equal and downstream scoring is deterministic.
type Snapshot struct {
	Requirements       []Requirement       `json:"requirements"`
	TestCases          []TestCase          `json:"test_cases"`
	Risks              []Risk              `json:"risks"`
	ConfigurationItems []ConfigurationItem `json:"configuration_items"`
	Issues             []Issue             `json:"issues"`
	Documents          []Document          `json:"documents"`
	Links              []Link              `json:"links"`
}

// LinksOf returns every link in the snapshot touching id.
func (s *Snapshot) LinksOf(id string) []Link {
	var out []Link
	for _, l := range s.Links {
		if l.Touches(id) {
			out = append(out, l)
		}
	}
	return out
}

// HasLink reports whether id participates in at least one link of the given
// kind.
func (s *Snapshot) HasLink(id string, kind LinkKind) bool {
	for _, l := range s.Links {
		if l.Kind == kind && l.Touches(id) {
			return true
		}
	}
	return false
}

// CountLinks returns how many links of the given kind exist in the graph.
func (s *Snapshot) CountLinks(kind LinkKind) int {
	n := 0
	for _, l := range s.Links {
		if l.Kind == kind {
			n++
		}
	}
	return n
}

// RequirementsLinkedToIssues returns how many requirements have at least one
// issue link.
func (s *Snapshot) RequirementsLinkedToIssues() int {
	n := 0
	for _, r := range s.Requirements {
		if s.HasLink(r.ID, LinkKindRequirementIssue) {
			n++
		}
	}
	return n
}

// IssuesLinkedTo returns how many mirrored issues have at least one link of
// the given kind.
func (s *Snapshot) IssuesLinkedTo(kind LinkKind) int {
	n := 0
	for _, i := range s.Issues {
		if s.HasLink(IssueRef(i.Number), kind) {
			n++
		}
	}
	return n
}

// TestCasesWithStatus returns how many test cases have the given status.
func (s *Snapshot) TestCasesWithStatus(status TestStatus) int {
	n := 0
	for _, tc := range s.TestCases {
		if tc.Status == status {
			n++
		}
	}
	return n
}

// TestCasesWithGherkin returns how many test cases carry a Gherkin body.
func (s *Snapshot) TestCasesWithGherkin() int {
	n := 0
	for _, tc := range s.TestCases {
		if strings.TrimSpace(tc.Gherkin) != "" {
			n++
		}
	}
	return n
}

// TestCasesBy returns how many test cases were created or last updated by
// the given origin.
func (s *Snapshot) TestCasesBy(origin Origin) int {
	n := 0
	for _, tc := range s.TestCases {
		if tc.CreatedBy == origin || tc.UpdatedBy == origin {
			n++
		}
	}
	return n
}

// RequirementsWithStatus returns how many requirements have the given status.
func (s *Snapshot) RequirementsWithStatus(status RequirementStatus) int {
	n := 0
	for _, r := range s.Requirements {
		if r.Status == status {
			n++
		}
	}
	return n
}

// HasDocumentSection reports whether any document has a section title
// containing the keyword (case-insensitive). Section titles are weak
// evidence signals, not parsed content.
func (s *Snapshot) HasDocumentSection(keyword string) bool {
	needle := strings.ToLower(keyword)
	for _, d := range s.Documents {
		for _, sec := range d.Sections {
			if strings.Contains(strings.ToLower(sec), needle) {
				return true
			}
		}
	}
	return false
}
