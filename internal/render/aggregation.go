package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"

	"github.com/couchcryptid/disaster-alert-service/internal/domain"
)

const timeLayout = "2006-01-02 15:04 MST"

// Aggregation writes res in the given format.
func Aggregation(w io.Writer, f Format, res domain.AggregationResult) error {
	switch f {
	case FormatJSON:
		return writeJSON(w, res)
	case FormatYAML:
		return writeYAML(w, res)
	case FormatMarkdown:
		return aggregationMarkdown(w, res)
	default:
		return fmt.Errorf("unknown format %q", f)
	}
}

func aggregationMarkdown(w io.Writer, res domain.AggregationResult) error {
	md := markdown.NewMarkdown(w)

	if res.Global {
		md.H1("Global disaster reports")
	} else {
		md.H1("Disaster reports for " + res.SearchedLocation)
	}
	md.PlainText("")

	rows := [][]string{
		{"Run", res.RunID},
		{"Time", res.Timestamp.Format(timeLayout)},
		{"Status", string(res.Status)},
		{"Reports", fmt.Sprintf("%d genuine of %d fetched", len(res.GenuineReports), len(res.AllReports))},
	}
	if !res.Global {
		rows = append(rows, []string{"Nearby cities", cell(strings.Join(res.NearbyCities, ", "))})
	}
	md.Table(markdown.TableSet{Header: []string{"Property", "Value"}, Rows: rows})
	md.PlainText("")

	if res.Error != "" {
		md.Warning(res.Error)
		md.PlainText("")
	}

	md.H2("Reports")
	md.PlainText("")
	if len(res.GenuineReports) == 0 {
		md.Note("No genuine reports found.")
	} else {
		md.Table(reportTable(res.GenuineReports))
	}

	return md.Build()
}

func reportTable(reports []domain.Report) markdown.TableSet {
	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		rows = append(rows, []string{
			string(r.Severity),
			string(r.Source),
			titleCell(r),
			dateCell(r.Date),
			cell(r.MatchedLocation),
		})
	}
	return markdown.TableSet{
		Header: []string{"Severity", "Source", "Title", "Date", "Matched"},
		Rows:   rows,
	}
}

func titleCell(r domain.Report) string {
	if r.URL == "" {
		return cell(r.Title)
	}
	return markdown.Link(cell(r.Title), r.URL)
}

func dateCell(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(timeLayout)
}

func kmCell(meters *float64) string {
	if meters == nil {
		return "-"
	}
	return strconv.FormatFloat(*meters/1000, 'f', 1, 64)
}
