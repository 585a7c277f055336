// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package report renders health check results as a text table or an
// Excel workbook.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/H0llyW00dzZ/dns-rotator/src/rotator"
)

// SheetName is the worksheet written by [WriteXLSX].
const SheetName = "Health"

var header = []any{
	"Label", "Primary", "Secondary", "Healthy",
	"Primary ms", "Secondary ms", "Checked At", "Error",
}

// WriteTable prints statuses as an aligned text table.
func WriteTable(w io.Writer, statuses []rotator.HealthStatus) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LABEL\tPRIMARY\tSECONDARY\tSTATUS\tLATENCY")
	for _, s := range statuses {
		status := "OFFLINE"
		latency := "-"
		switch {
		case s.Primary.Online && s.Secondary.Online:
			status = "HEALTHY"
		case s.Primary.Online:
			status = "PARTIAL"
		}
		if s.Primary.Online {
			latency = s.Primary.Latency.Round(time.Millisecond).String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			s.Pair.Label, s.Pair.Primary, s.Pair.Secondary, status, latency)
	}
	return tw.Flush()
}

// WriteXLSX saves statuses as a workbook at path.
func WriteXLSX(path string, statuses []rotator.HealthStatus) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("report: write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", "H1", bold); err != nil {
		return fmt.Errorf("report: %w", err)
	}

	for i, s := range statuses {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("report: %w", err)
		}
		row := []any{
			s.Pair.Label,
			s.Pair.Primary.String(),
			s.Pair.Secondary.String(),
			s.Healthy(),
			latencyMs(s.Primary),
			latencyMs(s.Secondary),
			s.CheckedAt.Format(time.RFC3339),
			probeError(s),
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("report: write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(SheetName, "A", "H", 18); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("report: save %s: %w", path, err)
	}
	return nil
}

func latencyMs(p rotator.ProbeStatus) any {
	if !p.Online {
		return ""
	}
	return p.Latency.Milliseconds()
}

func probeError(s rotator.HealthStatus) string {
	switch {
	case s.Primary.Error != nil:
		return "primary: " + s.Primary.Error.Error()
	case s.Secondary.Error != nil:
		return "secondary: " + s.Secondary.Error.Error()
	}
	return ""
}
