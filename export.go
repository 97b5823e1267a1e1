package paperstack

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// AnnotationReport renders a paper's annotations as plain text, grouped by
// page in cache order.
func AnnotationReport(p *Paper, anns []Annotation) string {
	var sb strings.Builder
	sb.WriteString(p.Title + "\n")
	if p.Authors != "" {
		sb.WriteString(p.Authors + "\n")
	}
	sb.WriteString(fmt.Sprintf("%d annotations\n", len(anns)))

	for _, page := range annotationPages(anns) {
		sb.WriteString(fmt.Sprintf("\nPage %d\n", page))
		for _, a := range anns {
			if a.Page != page {
				continue
			}
			switch a.Type {
			case Comment:
				sb.WriteString(fmt.Sprintf("  [comment] %q\n", a.SelectionText))
				if a.Content != "" {
					sb.WriteString("    " + a.Content + "\n")
				}
			default:
				sb.WriteString(fmt.Sprintf("  [highlight] %q\n", a.SelectionText))
			}
		}
	}
	return sb.String()
}

// ExportAnnotationsPDF writes a PDF report of a paper's annotations.
func ExportAnnotationsPDF(path string, p *Paper, anns []Annotation) error {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetMargins(20, 20, 20)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 16)
	doc.MultiCell(170, 8, p.Title, "", "L", false)
	if p.Authors != "" {
		doc.SetFont("Helvetica", "", 11)
		doc.MultiCell(170, 6, p.Authors, "", "L", false)
	}
	doc.Ln(4)

	for _, page := range annotationPages(anns) {
		doc.SetFont("Helvetica", "B", 12)
		doc.CellFormat(170, 8, fmt.Sprintf("Page %d", page), "", 1, "L", false, 0, "")

		for _, a := range anns {
			if a.Page != page {
				continue
			}

			r, g, b := parseHexColor(a.Color)
			doc.SetFillColor(r, g, b)
			doc.CellFormat(4, 5, "", "", 0, "L", true, 0, "")
			doc.CellFormat(2, 5, "", "", 0, "L", false, 0, "")

			doc.SetFont("Helvetica", "I", 10)
			doc.MultiCell(164, 5, a.SelectionText, "", "L", false)

			if a.Type == Comment && a.Content != "" {
				doc.SetFont("Helvetica", "", 10)
				doc.SetX(26)
				doc.MultiCell(164, 5, a.Content, "", "L", false)
			}
			doc.Ln(2)
		}
		doc.Ln(2)
	}

	return doc.OutputFileAndClose(path)
}

// annotationPages returns the distinct pages carrying annotations, sorted.
func annotationPages(anns []Annotation) []int {
	seen := make(map[int]bool)
	var pages []int
	for _, a := range anns {
		if !seen[a.Page] {
			seen[a.Page] = true
			pages = append(pages, a.Page)
		}
	}
	sort.Ints(pages)
	return pages
}

// parseHexColor parses "#rgb" or "#rrggbb" into 0-255 components. Bad
// input yields the default highlight yellow.
func parseHexColor(s string) (r, g, b int) {
	r, g, b = 255, 235, 59 // #ffeb3b
	if !validHexColor(s) {
		return
	}
	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	var rv, gv, bv int
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &rv, &gv, &bv); err != nil {
		return
	}
	return rv, gv, bv
}
