package report

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/vk/gmtrain/internal/dataset"
	"github.com/vk/gmtrain/internal/model"
)

// errWriter remembers the first write error so table rendering, which
// ignores them, can still report failure.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}
	return n, err
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	return table
}

// WriteDatasetSummary renders one row per split with its shape and value range.
func WriteDatasetSummary(w io.Writer, family dataset.Family, stats ...dataset.Stats) error {
	ew := &errWriter{w: w}
	fmt.Fprintf(ew, "Dataset %s\n", family)

	table := newTable(ew, []string{"SPLIT", "SHAPE", "MIN", "MAX", "MEAN"})
	for _, s := range stats {
		table.Append([]string{
			string(s.Split),
			s.Shape.String(),
			fmt.Sprintf("%.4f", s.Min),
			fmt.Sprintf("%.4f", s.Max),
			fmt.Sprintf("%.4f", s.Mean),
		})
	}
	table.Render()
	fmt.Fprintln(ew)
	return ew.err
}

// WriteParamCounts renders the trainable parameter counts of a model.
func WriteParamCounts(w io.Writer, family model.Family, pc model.ParamCounts) error {
	ew := &errWriter{w: w}

	header := []string{"MODEL", "ENCODER PARAMS", "DECODER PARAMS"}
	row := []string{family.Upper(), fmt.Sprint(pc.Encoder), fmt.Sprint(pc.Decoder)}
	if pc.Extras > 0 {
		header = append(header, "EXTRA PARAMS")
		row = append(row, fmt.Sprint(pc.Extras))
	}
	header = append(header, "TOTAL PARAMS")
	row = append(row, fmt.Sprint(pc.Total))

	table := newTable(ew, header)
	table.Append(row)
	table.Render()
	fmt.Fprintln(ew)
	return ew.err
}
