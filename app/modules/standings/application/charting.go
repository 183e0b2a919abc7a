package standingsservice

import (
	"bytes"
	"context"
	"fmt"

	standingsdomain "github.com/Black-And-White-Club/judge-standings/app/modules/standings/domain"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ChartPalette holds the colors used by rendered charts.
type ChartPalette struct {
	Background drawing.Color
	Text       drawing.Color
	Accepted   drawing.Color
	Rejected   drawing.Color
}

// DefaultChartPalette is a light palette suited to embedding in a scoreboard page.
var DefaultChartPalette = ChartPalette{
	Background: drawing.ColorWhite,
	Text:       drawing.ColorFromHex("333333"),
	Accepted:   drawing.ColorFromHex("2e7d32"),
	Rejected:   drawing.ColorFromHex("c62828"),
}

// RenderContestStatisticsChart draws the accepted share of each problem's submissions as a PNG.
func (s *StandingsService) RenderContestStatisticsChart(ctx context.Context, contestID int64) ([]byte, error) {
	return withTelemetry(s, ctx, "RenderContestStatisticsChart", contestID, func(ctx context.Context) ([]byte, error) {
		stats, err := s.contestStatistics(ctx, contestID)
		if err != nil {
			return nil, err
		}

		codes := make(map[int64]string)
		contest, err := s.catalog.GetContest(ctx, contestID)
		if err != nil {
			return nil, fmt.Errorf("failed to load contest %d: %w", contestID, err)
		}
		for _, p := range contest.Problems {
			codes[p.ID] = p.Code
		}
		return GenerateContestStatisticsChart(stats, codes, DefaultChartPalette)
	})
}

// GenerateContestStatisticsChart produces one stacked bar per attempted problem,
// split into accepted and rejected shares.
func GenerateContestStatisticsChart(stats *standingsdomain.ContestStatistics, codes map[int64]string, palette ChartPalette) ([]byte, error) {
	if stats == nil || stats.Total == 0 || len(stats.Problems) == 0 {
		return renderNoDataPlaceholder(palette)
	}

	bars := make([]chart.StackedBar, 0, len(stats.Problems))
	for _, p := range stats.Problems {
		if p.Total == 0 {
			continue
		}
		name := codes[p.ProblemID]
		if name == "" {
			name = fmt.Sprint(p.ProblemID)
		}
		bars = append(bars, chart.StackedBar{
			Name: name,
			Values: []chart.Value{
				{Label: "AC", Value: float64(p.Accepted), Style: chart.Style{FillColor: palette.Accepted, StrokeColor: palette.Accepted}},
				{Label: "", Value: float64(p.Total - p.Accepted), Style: chart.Style{FillColor: palette.Rejected, StrokeColor: palette.Rejected}},
			},
		})
	}

	graph := chart.StackedBarChart{
		Title:  "Acceptance ratio per problem",
		Width:  max(400, 90*len(bars)),
		Height: 400,
		Background: chart.Style{
			FillColor: palette.Background,
		},
		Canvas: chart.Style{
			FillColor: palette.Background,
		},
		TitleStyle: chart.Style{FontColor: palette.Text},
		XAxis:      chart.Style{FontColor: palette.Text, StrokeColor: palette.Text},
		YAxis:      chart.Style{FontColor: palette.Text, StrokeColor: palette.Text},
		Bars:       bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("failed to render statistics chart: %w", err)
	}
	return buffer.Bytes(), nil
}

func renderNoDataPlaceholder(palette ChartPalette) ([]byte, error) {
	const (
		width  = 400
		height = 200
		msg    = "No submissions yet"
	)

	graph := chart.Chart{
		Width:  width,
		Height: height,
		Background: chart.Style{
			FillColor: palette.Background,
		},
		Canvas: chart.Style{
			FillColor: palette.Background,
		},
		Elements: []chart.Renderable{
			func(r chart.Renderer, cb chart.Box, chartDefaults chart.Style) {
				r.SetFontColor(palette.Text)
				r.SetFontSize(12.0)
				tb := r.MeasureText(msg)
				x := (cb.Width() - tb.Width()) / 2
				y := (cb.Height() + tb.Height()) / 2
				r.Text(msg, x, y)
			},
		},
	}
	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
