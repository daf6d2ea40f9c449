package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"videorank/internal/model"

	"gopkg.in/yaml.v3"
)

// render writes v as YAML when --output yaml is set, otherwise it hands a
// tabwriter to table.
func render(w io.Writer, v any, table func(tw *tabwriter.Writer)) error {
	switch strings.ToLower(output) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "table", "":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		table(tw)
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q (want table or yaml)", output)
	}
}

func videoTable(tw *tabwriter.Writer, videos []model.RankedVideo) {
	fmt.Fprintln(tw, "RANK\tID\tSCORE\tVOTES\tUNVOTES\tCREATED\tTITLE")
	for i, v := range videos {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%d\t%d\t%s\t%s\n",
			i+1, v.ID, formatScore(v.Score), v.Votes, v.Unvotes, v.CreatedAt.Format(time.RFC3339), v.Title)
	}
}

func formatScore(f float64) string {
	return fmt.Sprintf("%.6g", f)
}
