package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"

	"github.com/schoolerp/erp/core/reportcard"
)

// render renders the report card inputs of file `in` into `outDir`, then prints a summary.
func (cli *commandLine) render(in, outDir string) error {
	inputs, err := readInputs(in)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return errors.Wrap(err, "creating output directory")
	}

	table := tablewriter.NewWriter(cli.out)
	table.SetHeader([]string{"Student", "Exam", "Percentage", "Grade", "Attendance", "File"})

	var warnings []string
	written := make(map[string]bool, len(inputs))
	for i, input := range inputs {
		if err := input.Validate(cli.validate); err != nil {
			return errors.Wrapf(cli.validationError(err), "input %d", i)
		}
		rendered, err := cli.rcSvc.Render(input)
		if err != nil {
			return errors.Wrapf(err, "rendering input %d", i)
		}
		filename := uniqueFilename(rendered.Filename, written)
		written[filename] = true
		path := filepath.Join(outDir, filename)
		if err := os.WriteFile(path, rendered.HTML, 0o644); err != nil {
			return errors.Wrapf(err, "writing %s", path)
		}

		doc := rendered.Document
		table.Append([]string{
			doc.Student.Name,
			doc.Exam.Code() + " " + doc.Exam.AcademicYear,
			fmt.Sprintf("%.1f%%", doc.Summary.Percentage),
			gradeColor(doc.Summary.Grade).Sprint(doc.Summary.Grade),
			fmt.Sprintf("%.1f%%", doc.Totals.Percentage),
			filename,
		})
		warnings = append(warnings, doc.Warnings...)
	}
	table.Render()

	for _, w := range warnings {
		color.New(color.FgYellow).Fprintln(cli.out, "warning: "+w)
	}
	color.New(color.FgGreen).Fprintf(cli.out, "%d report card(s) written to %s\n", len(inputs), outDir)
	return nil
}

// readInputs decodes a single Input or a list of them.
func readInputs(path string) ([]reportcard.Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	data = bytes.TrimSpace(data)

	var inputs []reportcard.Input
	if len(data) > 0 && data[0] == '[' {
		err = json.Unmarshal(data, &inputs)
	} else {
		var input reportcard.Input
		err = json.Unmarshal(data, &input)
		inputs = append(inputs, input)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", path)
	}
	return inputs, nil
}

func gradeColor(grade string) *color.Color {
	switch grade {
	case "O", "A":
		return color.New(color.FgGreen)
	case "B", "C":
		return color.New(color.FgCyan)
	case "D":
		return color.New(color.FgRed)
	default:
		return color.New(color.FgYellow)
	}
}

// uniqueFilename suffixes `name` with -2, -3... until it is not in `taken`.
func uniqueFilename(name string, taken map[string]bool) string {
	if !taken[name] {
		return name
	}
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s-%d%s", base, n, ext)
		if !taken[candidate] {
			return candidate
		}
	}
}
