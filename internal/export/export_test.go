package export_test

import (
	"bytes"
	"encoding/csv"
	"testing"

	"chaya/internal/export"

	"github.com/stretchr/testify/assert"
	"github.com/xuri/excelize/v2"
)

func sampleRows() []export.Row {
	return []export.Row{
		{
			SurveyNumber:  "ABCD1234567",
			Name:          "Ramu",
			Gender:        "MALE",
			AadharNumber:  "123456789012",
			ContactNumber: "9876543210",
			State:         "Telangana",
			District:      "Warangal",
			DateOfBirth:   "1985-06-15",
			Age:           40,
			ProfilePicURL: "https://example.com/profile",
			Bank: export.BankRow{
				IFSC:          "SBIN0001234",
				AccountNumber: "123456789",
			},
			Fields: []export.FieldRow{
				{AreaHa: 1.5, YieldEstimate: 2.0, Location: "lat=17.9 lng=79.5 accuracy=5"},
			},
			CreatedBy: "Admin",
			CreatedAt: "2026-01-01T00:00:00Z",
		},
		{
			SurveyNumber: "EFGH7654321",
			Name:         "Lakshmi",
			Gender:       "FEMALE",
			DateOfBirth:  "1990-02-20",
			Age:          36,
		},
	}
}

func TestCSV(t *testing.T) {
	data, err := export.CSV(sampleRows())
	assert.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	assert.NoError(t, err)
	assert.Len(t, records, 3)
	assert.Equal(t, export.Headers(), records[0])
	assert.Equal(t, "ABCD1234567", records[1][0])
	assert.Equal(t, "40", records[1][12])
	assert.Contains(t, records[1][16], "SBIN0001234")
	assert.Contains(t, records[1][17], "areaHa")
	assert.Equal(t, "Lakshmi", records[2][1])
}

func TestExcel(t *testing.T) {
	data, err := export.Excel(sampleRows())
	assert.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	assert.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(export.SheetName)
	assert.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.Equal(t, "SurveyNumber", rows[0][0])
	assert.Equal(t, "ABCD1234567", rows[1][0])
	assert.Equal(t, "Ramu", rows[1][1])
}

func TestPDF(t *testing.T) {
	data, err := export.PDF(sampleRows())
	assert.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
	assert.Greater(t, len(data), 500)
}

func TestCSVEmpty(t *testing.T) {
	data, err := export.CSV(nil)
	assert.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	assert.NoError(t, err)
	assert.Len(t, records, 1)
}
