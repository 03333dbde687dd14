package projectboard

import "testing"

// TestKeyPatterns verifies the documented Redis key patterns stay stable.
// Changing a pattern silently orphans existing project data.
func TestKeyPatterns(t *testing.T) {
	cases := []struct {
		name string
		got  string
		want string
	}{
		{"entity", EntityKey("demo", CollectionRequirements, "REQ-1"), "veritrail:demo:requirement:REQ-1"},
		{"index", IndexKey("demo", CollectionTestCases), "veritrail:demo:index:testcase"},
		{"adjacency", AdjacencyKey("demo", "issue:42"), "veritrail:demo:links:issue:42"},
		{"link index", LinkIndexKey("demo"), "veritrail:demo:links"},
		{"ledger", LedgerKey("demo"), "veritrail:demo:ledger"},
		{"fingerprints", FingerprintKey("demo"), "veritrail:demo:ledger:fingerprints"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Errorf("got %q, want %q", tc.got, tc.want)
			}
		})
	}
}
