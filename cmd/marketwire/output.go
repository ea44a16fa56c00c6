package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/johnrirwin/marketwire/internal/models"
)

var (
	bold  = color.New(color.Bold).SprintFunc()
	cyan  = color.New(color.FgCyan).SprintFunc()
	green = color.New(color.FgGreen).SprintFunc()
	red   = color.New(color.FgRed).SprintFunc()
	faint = color.New(color.Faint).SprintFunc()
)

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printReport(w io.Writer, report models.AggregationReport, now time.Time) {
	health := green
	if report.FeedsSuccessful == 0 {
		health = red
	}
	fmt.Fprintf(w, "%s %s\n", bold(strings.ToUpper(report.Category)),
		health(fmt.Sprintf("%d/%d feeds working", report.FeedsSuccessful, report.FeedsAttempted)))

	if len(report.Articles) == 0 {
		fmt.Fprintln(w, faint("  no articles"))
		return
	}

	for _, it := range report.Articles {
		fmt.Fprintf(w, "  %s %s\n", cyan(it.SourceName), it.Title)
		fmt.Fprintf(w, "    %s %s\n", faint(age(now, it.PublishedAt)), faint(it.Link))
	}
	fmt.Fprintf(w, "%s %s\n", faint("sources:"), strings.Join(report.Sources, ", "))
}

func printSnapshot(w io.Writer, snap models.Snapshot) {
	mode := green
	if snap.Mode == models.ModeDemo {
		mode = red
	}
	fmt.Fprintf(w, "%s %s\n", faint(snap.UpdatedAt.Format(time.RFC3339)), mode(snap.Notice))
	for _, c := range snap.Categories {
		state := green("live")
		if !c.Live {
			state = red("demo")
		}
		fmt.Fprintf(w, "  %-12s %s %d articles (%d/%d feeds)\n",
			c.Label, state, len(c.Articles), c.FeedsSuccessful, c.FeedsAttempted)
	}
}

func printFeeds(w io.Writer, feeds []models.FeedSource) error {
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
	)

	rows := make([][]string, 0, len(feeds))
	for i, f := range feeds {
		rows = append(rows, []string{
			fmt.Sprint(i + 1),
			f.SourceName,
			strings.Join(f.Categories, ","),
			f.URL,
		})
	}

	table.Header([]string{"#", "Source", "Categories", "URL"})
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

func age(now, t time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
