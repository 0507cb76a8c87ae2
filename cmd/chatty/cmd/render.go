package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jooleearr/chatty-boxy/internal/adapters/tui/styles"
	"github.com/jooleearr/chatty-boxy/internal/application/report"
	"github.com/jooleearr/chatty-boxy/internal/application/syncer"
	"github.com/jooleearr/chatty-boxy/internal/domain"
)

func renderRunResult(w io.Writer, run *syncer.RunResult) {
	var b strings.Builder

	b.WriteString(styles.Label.Render(fmt.Sprintf("Run %d ", run.RunID)))
	b.WriteString(styles.RunStatus(run.Status).Render(string(run.Status)))
	b.WriteString(styles.MutedText.Render(fmt.Sprintf("  %s", run.Duration.Round(time.Millisecond))))
	b.WriteString("\n\n")

	rows := []struct {
		label string
		value int
	}{
		{"Remote pages", run.TotalRemote},
		{"Added", run.Counts.Added},
		{"Updated", run.Counts.Updated},
		{"Deleted", run.Counts.Deleted},
		{"Unchanged", run.UnchangedCount},
		{"Errors", run.Counts.Failed},
	}
	for _, r := range rows {
		b.WriteString(fmt.Sprintf("%-14s %d\n", r.label, r.value))
	}

	if len(run.Anomalies) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.WarningMsg.Render(fmt.Sprintf("%d pages reported an older version than the mirror", len(run.Anomalies))))
		b.WriteString("\n")
	}

	if len(run.Errors) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.ErrorMsg.Render("Errors"))
		b.WriteString("\n")
		b.WriteString(report.ErrorSummary(run.Errors))
		b.WriteString("\n")
	}

	fmt.Fprintln(w, styles.Panel.Render(strings.TrimRight(b.String(), "\n")))
}

func renderPlan(w io.Writer, run *syncer.RunResult) {
	plan := run.Plan
	var b strings.Builder

	b.WriteString(styles.Label.Render(fmt.Sprintf("Dry run %d", run.RunID)))
	b.WriteString("\n\n")
	if plan.IsEmpty() {
		b.WriteString("Mirror is up to date\n")
	}
	for _, item := range plan.ToCreateOrUpdate {
		b.WriteString(fmt.Sprintf("%s %s/%s  v%d  %s\n",
			styles.Success.Render("write "), item.CollectionKey, item.ID, item.Version, item.Path()))
	}
	for _, r := range plan.ToReindex {
		b.WriteString(fmt.Sprintf("%s %s/%s  %s\n",
			styles.WarningMsg.Render("index "), r.CollectionKey, r.ID, r.Title))
	}
	for _, r := range plan.ToDelete {
		b.WriteString(fmt.Sprintf("%s %s/%s  %s\n",
			styles.ErrorMsg.Render("delete"), r.CollectionKey, r.ID, r.Title))
	}
	b.WriteString(styles.MutedText.Render(fmt.Sprintf("\n%d new, %d updated, %d deleted, %d unchanged",
		plan.Added, plan.Updated, len(plan.ToDelete), plan.UnchangedCount)))

	fmt.Fprintln(w, styles.Panel.Render(b.String()))
}

func renderRunLine(r domain.RunRecord) string {
	status := styles.RunStatus(r.Status).Render(fmt.Sprintf("%-9s", r.Status))
	took := "open"
	if d, ok := r.Duration(); ok {
		took = d.Round(time.Second).String()
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		styles.Label.Render(fmt.Sprintf("#%-5d", r.ID)), " ",
		status, " ",
		r.StartedAt.Local().Format("2006-01-02 15:04:05"), " ",
		styles.MutedText.Render(fmt.Sprintf("%-6s", took)), " ",
		report.CountsLine(r.Counts),
	)
}
