package session

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"discvault/internal/drive"
	"discvault/internal/isovol"
	"discvault/internal/textutil"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// writeReport prints the dry-run/summarize report: the resolved settings and
// the inserted disc's volume metadata. Nothing is written to disk and the
// run ends normally afterwards.
func (c *Controller) writeReport(device string, desc *isovol.Descriptor, geom isovol.Geometry, discType drive.DiscType, label string, source isovol.LabelSource) error {
	mode := "write"
	if c.opts.DryRun() {
		mode = "dry-run (no files written)"
	}

	settings := [][]string{
		{"Mode", mode},
		{"Device", device},
		{"Label", fmt.Sprintf("%s (from %s)", label, source)},
		{"Output directory", c.opts.OutputDir},
		{"Placement", c.placementDescription()},
		{"Metadata sidecar", yesNo(c.opts.Sidecar)},
		{"Verification", yesNo(c.opts.Verify)},
		{"Interactive batch", yesNo(c.opts.Interactive)},
		{"License key", yesNo(c.opts.LicenseKey != "")},
	}

	volume := [][]string{
		{"Disc type", discType.String()},
		{"Volume id", desc.VolumeID},
		{"Title", textutil.DisplayTitle(desc.VolumeID)},
		{"Publisher id", desc.PublisherID},
		{"Data preparer id", desc.DataPreparerID},
		{"Application id", desc.ApplicationID},
		{"System id", desc.SystemID},
		{"Volume UUID", desc.VolumeUUID()},
		{"Created", desc.Created.String()},
		{"Block size", fmt.Sprintf("%d", geom.BlockSize)},
		{"Block count", fmt.Sprintf("%d", geom.BlockCount)},
		{"Image size", humanize.IBytes(uint64(geom.TotalBytes()))},
	}

	if _, err := fmt.Fprintln(c.out, "Session settings"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(c.out, renderTable([]string{"Setting", "Value"}, settings, nil)); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(c.out, "Disc metadata"); err != nil {
		return err
	}
	_, err := fmt.Fprintln(c.out, renderTable([]string{"Field", "Value"}, volume, nil))
	return err
}

// writeSummary prints what a completed write run produced.
func (c *Controller) writeSummary(discs []discRecord, artifacts []string) error {
	discRows := make([][]string, 0, len(discs))
	for _, rec := range discs {
		discRows = append(discRows, []string{
			fmt.Sprintf("%d", rec.Index),
			rec.ImageName,
			rec.DiscType.String(),
			humanize.IBytes(uint64(rec.Bytes)),
			rec.Verification.String(),
		})
	}

	artifactRows := make([][]string, 0, len(artifacts))
	for _, path := range artifacts {
		size := "-"
		if info, err := os.Stat(path); err == nil {
			size = humanize.IBytes(uint64(info.Size()))
		}
		artifactRows = append(artifactRows, []string{path, size})
	}

	if _, err := fmt.Fprintln(c.out, renderTable(
		[]string{"Disc", "Image", "Type", "Size", "Verification"},
		discRows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
	)); err != nil {
		return err
	}
	_, err := fmt.Fprintln(c.out, renderTable(
		[]string{"Artifact", "Size"},
		artifactRows,
		[]columnAlignment{alignLeft, alignRight},
	))
	return err
}

func (c *Controller) placementDescription() string {
	switch {
	case c.opts.Bundle && c.opts.Compress:
		return "compressed tar bundle"
	case c.opts.Bundle:
		return "tar bundle"
	default:
		return "individual files"
	}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
