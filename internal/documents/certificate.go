// Package documents renders the printable artifacts the workflow produces.
package documents

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/mahadigital/schooldesk/internal/models"
)

var filenameUnsafe = regexp.MustCompile(`[^A-Za-z0-9_]+`)

// CertificateFilename derives the download filename from the student name,
// with whitespace runs collapsed to single underscores.
func CertificateFilename(studentName string) string {
	name := strings.TrimSpace(studentName)
	name = filenameUnsafe.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")
	if name == "" {
		name = "Student"
	}
	return fmt.Sprintf("Leaving_Certificate_%s.pdf", name)
}

// RenderLeavingCertificate produces the A4 leaving certificate for an
// approved request. Missing free-form fields render as an em-length dash
// rather than an empty cell.
func RenderLeavingCertificate(schoolName string, student *models.Student, approvedAt time.Time) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(18, 16, 18)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, schoolName, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 9, "LEAVING CERTIFICATE", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetDrawColor(60, 60, 60)
	pdf.SetLineWidth(0.4)
	x, y := pdf.GetXY()
	pdf.Line(x, y, 210-18, y)
	pdf.Ln(6)

	rows := []struct {
		label string
		value string
	}{
		{"Name of Student", student.Name},
		{"Mother's Name", student.MotherName},
		{"Mother Tongue", student.MotherTongue},
		{"Race / Caste", student.RaceCaste},
		{"Nationality", student.Nationality},
		{"Place of Birth", student.BirthPlace},
		{"Date of Birth", student.DateOfBirth},
		{"Last School Attended", student.LastSchool},
		{"Date of Admission", student.DateAdmission},
		{"Standard", student.Standard},
		{"Progress", student.Progress},
		{"Conduct", student.Conduct},
		{"Date of Leaving", student.DateLeaving},
		{"Reason for Leaving", student.ReasonLeaving},
		{"Remark", student.Remark},
	}

	pdf.SetFont("Helvetica", "", 11)
	for i, row := range rows {
		value := strings.TrimSpace(row.value)
		if value == "" {
			value = "-"
		}
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(62, 8, fmt.Sprintf("%d. %s", i+1, row.label), "B", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 8, value, "B", "L", false)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 6, fmt.Sprintf(
		"Certified that the above information is in accordance with the General Register of the school. Approved on %s.",
		approvedAt.Format("02 January 2006")), "", "L", false)

	pdf.Ln(16)
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(80, 8, "Date: "+approvedAt.Format("02/01/2006"), "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 8, "Principal / Headmaster", "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render certificate pdf: %w", err)
	}
	return buf.Bytes(), nil
}
