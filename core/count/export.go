package count

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/coastwrpt/wrpt/core"
)

// exportPageSize is how many rows are read from the repository at a time.
const exportPageSize = 100

var exportHeader = []string{
	"program", "eventDate", "classroom", "enrollment", "value",
	"activeValue", "inactiveValue", "absentees", "comments",
}

// Export writes every count as CSV to `w`, one row per count, in ID order.
func Export(ctx context.Context, repo Repository, w io.Writer) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return 0, errors.Wrap(err, "writing header")
	}

	var n int
	afterID := ""
	for {
		rows, err := repo.QueryExportRows(ctx, afterID, exportPageSize)
		if err != nil {
			return n, errors.Wrap(err, "querying export rows")
		}
		if len(rows) == 0 {
			break
		}
		for _, r := range rows {
			if err = cw.Write(exportRecord(r)); err != nil {
				return n, errors.Wrap(err, "writing row")
			}
			n++
		}
		afterID = rows[len(rows)-1].ID
	}

	cw.Flush()
	return n, errors.Wrap(cw.Error(), "flushing csv")
}

func exportRecord(r ExportRow) []string {
	f := func(v null.Int) string {
		if !v.Valid {
			return ""
		}
		return strconv.Itoa(v.Int)
	}
	return []string{
		r.SchoolYear + " " + r.SchoolName,
		r.EventDate.Format(core.DateLayout),
		r.ClassroomName,
		strconv.Itoa(r.ClassroomEnrollment),
		f(r.Value),
		f(r.ActiveValue),
		f(r.InactiveValue),
		strconv.Itoa(r.Absentees),
		r.Comments,
	}
}
