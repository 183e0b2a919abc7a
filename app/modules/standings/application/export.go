package standingsservice

import (
	"bytes"
	"context"
	"fmt"
	"time"

	standingsdomain "github.com/Black-And-White-Club/judge-standings/app/modules/standings/domain"
	"github.com/xuri/excelize/v2"
)

const rankListSheet = "Standings"

// ExportRankListXLSX renders a rank list as a spreadsheet, one row per contestant.
func (s *StandingsService) ExportRankListXLSX(ctx context.Context, req RankListRequest) ([]byte, error) {
	return withTelemetry(s, ctx, "ExportRankListXLSX", req.ContestID, func(ctx context.Context) ([]byte, error) {
		var (
			list *RankList
			err  error
		)
		if req.AsOf.IsZero() {
			list, err = s.rankList(ctx, req)
		} else {
			list, err = s.buildRankList(ctx, req)
		}
		if err != nil {
			return nil, err
		}
		return renderRankListXLSX(list)
	})
}

func renderRankListXLSX(list *RankList) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", rankListSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	header := []any{"Rank", "User", "Solved"}
	if list.Mode == standingsdomain.ModeContest {
		header = append(header, "Penalty")
	} else {
		header = append(header, "Attempts")
	}
	for _, p := range list.Contest.Problems {
		header = append(header, p.Code)
	}
	if err := f.SetSheetRow(rankListSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, entry := range list.Entries {
		row := []any{entry.Rank, entry.UserID, entry.Solved}
		if list.Mode == standingsdomain.ModeContest {
			row = append(row, formatMinutes(entry.Penalty))
		} else {
			row = append(row, entry.SolvedAttempts)
		}
		for _, cell := range entry.Cells {
			row = append(row, FormatCell(cell, list.Mode))
		}

		addr, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(rankListSheet, addr, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(rankListSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze header: %w", err)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func formatMinutes(d time.Duration) int64 {
	return int64(d / time.Minute)
}

// FormatCell renders a cell ICPC style: "+" for a clean solve, "+2" after two
// rejected attempts, "-3" for three rejected attempts, "?" for hidden ones.
func FormatCell(cell standingsdomain.ProblemCell, mode standingsdomain.Mode) string {
	var out string
	switch {
	case cell.Solved:
		out = "+"
		if wrong := cell.Attempts - 1; wrong > 0 {
			out += fmt.Sprint(wrong)
		}
		if mode == standingsdomain.ModeContest {
			out += fmt.Sprintf(" (%d)", formatMinutes(cell.SolveTime))
		}
	case cell.Attempts > 0:
		out = fmt.Sprintf("-%d", cell.Attempts)
	}
	if cell.FrozenAttempts > 0 {
		if out != "" {
			out += " "
		}
		out += fmt.Sprintf("?%d", cell.FrozenAttempts)
	}
	return out
}
