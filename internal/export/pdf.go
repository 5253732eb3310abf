package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

// PDF encodes the rows as a narrative document, one page per farmer.
func PDF(rows []Row) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Farmers Data Export", false)

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 12, "Farmers Data Export", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 8, "Generated on: "+time.Now().Format(time.RFC1123), "", 1, "L", false, 0, "")

	section := func(title string) {
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 7, title, "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
	}
	line := func(label, value string) {
		pdf.MultiCell(0, 6, fmt.Sprintf("%s: %s", label, value), "", "L", false)
	}

	for _, farmer := range rows {
		pdf.AddPage()
		pdf.SetFont("Helvetica", "B", 16)
		pdf.CellFormat(0, 10, "Farmer Details - "+farmer.Name, "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)

		section("Basic Information")
		line("Survey Number", farmer.SurveyNumber)
		line("Gender", farmer.Gender)
		line("Community", farmer.Community)
		line("Aadhar Number", farmer.AadharNumber)
		line("Contact", farmer.ContactNumber)
		line("Age", fmt.Sprintf("%d", farmer.Age))
		line("Date of Birth", farmer.DateOfBirth)

		section("Location Details")
		line("State", farmer.State)
		line("District", farmer.District)
		line("Mandal", farmer.Mandal)
		line("Village", farmer.Village)
		line("Panchayath", farmer.Panchayath)

		section("Bank Information")
		line("Bank Name", farmer.Bank.BankName)
		line("Branch", farmer.Bank.BranchName)
		line("IFSC", farmer.Bank.IFSC)
		line("Account Number", farmer.Bank.AccountNumber)

		section("Field Details")
		for i, field := range farmer.Fields {
			line(fmt.Sprintf("Field %d", i+1), "")
			line("Area (Ha)", fmt.Sprintf("%g", field.AreaHa))
			line("Yield Estimate", fmt.Sprintf("%g", field.YieldEstimate))
			line("Location", field.Location)
		}

		section("Document Links")
		line("Profile Picture", farmer.ProfilePicURL)
		line("Aadhar Document", farmer.AadharDocURL)
		line("Bank Document", farmer.BankDocURL)

		section("Record Information")
		line("Created By", farmer.CreatedBy)
		line("Created At", farmer.CreatedAt)
		line("Updated By", farmer.UpdatedBy)
		line("Updated At", farmer.UpdatedAt)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize PDF: %w", err)
	}
	return buf.Bytes(), nil
}
