package output

import (
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/adamancini/stewardctl/internal/types"
)

// NameLimit is the task name length, in runes, at which tables start
// truncating. A truncated name is NameLimit-1 runes plus an ellipsis.
const NameLimit = 15

// DateLayout formats report timestamps.
const DateLayout = "2006-01-02 15:04:05 UTC"

// Tasks renders as a task table in text mode and as a list otherwise.
type Tasks []types.Task

func (t Tasks) String() string {
	rows := make([][]string, 0, len(t))
	for _, task := range t {
		rows = append(rows, []string{task.ID, Truncate(task.Name, NameLimit), task.Type, task.Frequency})
	}
	return render([]string{"Task ID", "Name", "Type", "Frequency"}, rows)
}

// Reports renders as a report table in text mode and as a list otherwise.
type Reports []types.Report

func (r Reports) String() string {
	rows := make([][]string, 0, len(r))
	for _, report := range r {
		rows = append(rows, []string{report.ID, report.TaskID, FormatTimestamp(report.CreatedAt), strconv.FormatBool(report.Successful)})
	}
	return render([]string{"Report ID", "Task ID", "Executed At", "Did success"}, rows)
}

func render(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderRow(false).
		BorderColumn(true).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return Header
			}
			return Cell
		}).
		String()
}

// Truncate cuts s when it has limit or more runes, keeping limit-1 runes and
// appending an ellipsis.
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if limit <= 1 || len(runes) < limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

// FormatTimestamp renders a service timestamp as DateLayout. Unparseable
// values are shown as received.
func FormatTimestamp(s string) string {
	t, err := types.ParseTimestamp(s)
	if err != nil {
		return s
	}
	return FormatDate(t)
}

// FormatDate renders t in UTC as DateLayout.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// Bytes renders a byte count for humans, e.g. "12 MB".
func Bytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}
