package reportcard

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var (
	//go:embed templates/report_card.gohtml
	templatesFS embed.FS

	reportTmpl = template.Must(
		template.New("report_card.gohtml").
			Funcs(template.FuncMap{
				"num":   formatNumber,
				"pct":   func(f float64) string { return fmt.Sprintf("%.1f%%", f) },
				"lower": strings.ToLower,
				"date":  func(t time.Time) string { return t.Format("02 January 2006, 03:04 PM") },
			}).
			Option("missingkey=error").
			ParseFS(templatesFS, "templates/report_card.gohtml"),
	)

	whitespaceRegex = regexp.MustCompile(`\s+`)
	unsafeNameChars = strings.NewReplacer("/", "", "\\", "")
)

// Render renders `doc` as a standalone, printable HTML page.
// Output only depends on `doc`: rendering the same document twice yields the same bytes.
func Render(doc Document) ([]byte, error) {
	var buff bytes.Buffer
	if err := reportTmpl.Execute(&buff, doc); err != nil {
		return nil, errors.Wrap(err, "rendering report card")
	}
	return buff.Bytes(), nil
}

// Filename is the suggested download name of the rendered document.
func Filename(doc Document) string {
	return fmt.Sprintf(
		"report-card-%s-%s%d-%s.html",
		filenamePart(doc.Student.Name),
		filenamePart(doc.Exam.Type),
		doc.Exam.AssessmentNumber,
		filenamePart(doc.Exam.AcademicYear),
	)
}

func filenamePart(s string) string {
	return whitespaceRegex.ReplaceAllString(unsafeNameChars.Replace(strings.TrimSpace(s)), "-")
}
