package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/veritrail/veritrail/internal/printer"
	"github.com/veritrail/veritrail/pkg/projectboard"
)

var listOutputFormat string

var listCmd = &cobra.Command{
	Use:   "list [COLLECTION]",
	Short: "List project artifacts",
	Long: `List project artifacts as a table or JSON.

Without a collection, prints a summary of everything recorded.

Collections:
  requirements, testcases, risks, configitems, documents, issues, links

Examples:
  veritrail list
  veritrail list requirements
  veritrail list links --output=json | jq '.[].kind'`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"requirements", "testcases", "risks", "configitems", "documents", "issues", "links"},
	RunE:      runList,
}

func init() {
	listCmd.Flags().StringVarP(&listOutputFormat, "output", "o", "default", "Output format: default or json")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	if listOutputFormat != "default" && listOutputFormat != "json" {
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", listOutputFormat),
			[]string{"Valid formats: default, json"},
		)
	}

	ctx := context.Background()
	sess, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	snap, err := sess.client.Snapshot(ctx)
	if err != nil {
		return err
	}

	collection := ""
	if len(args) == 1 {
		collection = args[0]
	}

	if listOutputFormat == "json" {
		return printListJSON(snap, collection)
	}
	return printListTable(snap, collection)
}

func printListJSON(snap *projectboard.Snapshot, collection string) error {
	var payload any
	switch collection {
	case "":
		payload = snap
	case "requirements":
		payload = snap.Requirements
	case "testcases":
		payload = snap.TestCases
	case "risks":
		payload = snap.Risks
	case "configitems":
		payload = snap.ConfigurationItems
	case "documents":
		payload = snap.Documents
	case "issues":
		payload = snap.Issues
	case "links":
		payload = snap.Links
	default:
		return fmt.Errorf("unknown collection %q", collection)
	}

	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render JSON: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func printListTable(snap *projectboard.Snapshot, collection string) error {
	table := tablewriter.NewWriter(os.Stdout)

	switch collection {
	case "":
		table.Header("Collection", "Count")
		table.Append([]string{"requirements", strconv.Itoa(len(snap.Requirements))})
		table.Append([]string{"testcases", strconv.Itoa(len(snap.TestCases))})
		table.Append([]string{"risks", strconv.Itoa(len(snap.Risks))})
		table.Append([]string{"configitems", strconv.Itoa(len(snap.ConfigurationItems))})
		table.Append([]string{"documents", strconv.Itoa(len(snap.Documents))})
		table.Append([]string{"issues", strconv.Itoa(len(snap.Issues))})
		table.Append([]string{"links", strconv.Itoa(len(snap.Links))})
	case "requirements":
		table.Header("ID", "Status", "Description")
		for _, r := range snap.Requirements {
			table.Append([]string{r.ID, string(r.Status), r.Description})
		}
	case "testcases":
		table.Header("ID", "Status", "Gherkin", "Updated By", "Description")
		for _, tc := range snap.TestCases {
			gherkin := "no"
			if tc.Gherkin != "" {
				gherkin = "yes"
			}
			table.Append([]string{tc.ID, string(tc.Status), gherkin, string(tc.UpdatedBy), tc.Description})
		}
	case "risks":
		table.Header("ID", "Description")
		for _, r := range snap.Risks {
			table.Append([]string{r.ID, r.Description})
		}
	case "configitems":
		table.Header("ID", "Name")
		for _, ci := range snap.ConfigurationItems {
			table.Append([]string{ci.ID, ci.Name})
		}
	case "documents":
		table.Header("ID", "Title", "Sections")
		for _, d := range snap.Documents {
			table.Append([]string{d.ID, d.Title, strconv.Itoa(len(d.Sections))})
		}
	case "issues":
		table.Header("Number", "Title", "URL")
		for _, iss := range snap.Issues {
			table.Append([]string{strconv.Itoa(iss.Number), iss.Title, iss.URL})
		}
	case "links":
		table.Header("Source", "Target", "Kind")
		for _, l := range snap.Links {
			table.Append([]string{l.SourceID, l.TargetID, string(l.Kind)})
		}
	default:
		return fmt.Errorf("unknown collection %q", collection)
	}

	table.Render()
	return nil
}
