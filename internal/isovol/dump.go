package isovol

import (
	"fmt"
	"io"
)

// WriteDump renders the descriptor in the classic isoinfo -d layout, extended
// with the derived UUID and timestamps. This is the exact content of the
// metadata sidecar placed next to each captured image.
func (d *Descriptor) WriteDump(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "CD-ROM is in ISO 9660 format"); err != nil {
		return err
	}
	fields := []struct {
		label string
		value string
	}{
		{"System id", d.SystemID},
		{"Volume id", d.VolumeID},
		{"Volume set id", d.VolumeSetID},
		{"Publisher id", d.PublisherID},
		{"Data preparer id", d.DataPreparerID},
		{"Application id", d.ApplicationID},
		{"Copyright File id", d.CopyrightFileID},
		{"Abstract File id", d.AbstractFileID},
		{"Bibliographic File id", d.BibliographicFileID},
	}
	for _, f := range fields {
		if err := writeField(w, f.label, f.value); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "Volume set size is: %d\n", d.VolumeSetSize); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Volume set sequence number is: %d\n", d.VolumeSequence); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Logical block size is: %d\n", d.BlockSize); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Volume size is: %d\n", d.BlockCount); err != nil {
		return err
	}
	if err := writeField(w, "Volume UUID is", d.VolumeUUID()); err != nil {
		return err
	}
	if err := writeField(w, "Creation date is", d.Created.String()); err != nil {
		return err
	}
	return writeField(w, "Modification date is", d.Modified.String())
}

// Blank values render as "label:" with no trailing space.
func writeField(w io.Writer, label, value string) error {
	if value == "" {
		_, err := fmt.Fprintf(w, "%s:\n", label)
		return err
	}
	_, err := fmt.Fprintf(w, "%s: %s\n", label, value)
	return err
}
