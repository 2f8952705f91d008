package render

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/couchcryptid/disaster-alert-service/internal/domain"
)

// AlertCheck writes res in the given format.
func AlertCheck(w io.Writer, f Format, res domain.AlertCheckResult) error {
	switch f {
	case FormatJSON:
		return writeJSON(w, res)
	case FormatYAML:
		return writeYAML(w, res)
	case FormatMarkdown:
		return alertMarkdown(w, res)
	default:
		return fmt.Errorf("unknown format %q", f)
	}
}

var tierHeadings = []struct {
	tier  domain.AlertTier
	title string
}{
	{domain.TierRed, "Red alerts"},
	{domain.TierYellow, "Yellow alerts"},
	{domain.TierInfo, "Info"},
}

func alertMarkdown(w io.Writer, res domain.AlertCheckResult) error {
	md := markdown.NewMarkdown(w)

	md.H1("Alert check")
	md.PlainText("")

	position := "-"
	if res.Location != nil {
		position = strconv.FormatFloat(res.Location.Lat, 'f', 4, 64) + ", " + strconv.FormatFloat(res.Location.Lon, 'f', 4, 64)
	}
	city := res.City
	if city == "" {
		city = "-"
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Status", string(res.Status)},
			{"Position", position},
			{"City", cell(city)},
			{"Time", res.Timestamp.Format(timeLayout)},
		},
	})
	md.PlainText("")

	if res.Error != "" {
		md.Caution(res.Error)
		return md.Build()
	}
	if res.Alerts.HasDanger() {
		md.Importantf("%d report(s) within alert range.", len(res.Alerts.Red)+len(res.Alerts.Yellow))
		md.PlainText("")
	}

	for _, h := range tierHeadings {
		reports := res.Alerts.Bucket(h.tier)
		md.H2f("%s (%d)", h.title, len(reports))
		md.PlainText("")
		if len(reports) == 0 {
			md.PlainText("None.")
			md.PlainText("")
			continue
		}
		rows := make([][]string, 0, len(reports))
		for _, r := range reports {
			rows = append(rows, []string{titleCell(r), kmCell(r.DistanceMeters), string(r.Source), dateCell(r.Date)})
		}
		md.Table(markdown.TableSet{Header: []string{"Title", "Distance (km)", "Source", "Date"}, Rows: rows})
		md.PlainText("")
	}

	return md.Build()
}
