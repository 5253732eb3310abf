// Package export flattens farmer aggregates and encodes them as CSV,
// Excel or PDF documents.
package export

import (
	"encoding/json"
	"strconv"
)

// BankRow is the flattened bank details of one farmer.
type BankRow struct {
	IFSC          string `json:"ifsc"`
	AccountNumber string `json:"accountNumber"`
	BankName      string `json:"bankName"`
	BranchName    string `json:"branchName"`
}

// FieldRow is one flattened land field.
type FieldRow struct {
	AreaHa        float64 `json:"areaHa"`
	YieldEstimate float64 `json:"yieldEstimate"`
	Location      string  `json:"location"`
	LandDocURL    string  `json:"landDocUrl"`
}

// Row is one farmer flattened for export. Document URLs are pre-signed by
// the caller.
type Row struct {
	SurveyNumber  string
	Name          string
	Gender        string
	Community     string
	AadharNumber  string
	ContactNumber string
	State         string
	District      string
	Mandal        string
	Village       string
	Panchayath    string
	DateOfBirth   string
	Age           int
	ProfilePicURL string
	AadharDocURL  string
	BankDocURL    string
	Bank          BankRow
	Fields        []FieldRow
	CreatedBy     string
	CreatedAt     string
	UpdatedBy     string
	UpdatedAt     string
}

// Headers returns the column names of the tabular formats.
func Headers() []string {
	return []string{
		"SurveyNumber", "Name", "Gender", "Community", "AadharNumber",
		"ContactNumber", "State", "District", "Mandal", "Village",
		"Panchayath", "DateOfBirth", "Age", "ProfilePicUrl",
		"AadharDocUrl", "BankDocUrl", "BankDetails", "Fields",
		"CreatedBy", "CreatedAt", "UpdatedBy", "UpdatedAt",
	}
}

// cells serializes a row into tabular columns. Nested structures become
// single JSON-encoded columns.
func (r Row) cells() []string {
	bank, _ := json.Marshal(r.Bank)
	fields, _ := json.Marshal(r.Fields)
	return []string{
		r.SurveyNumber, r.Name, r.Gender, r.Community, r.AadharNumber,
		r.ContactNumber, r.State, r.District, r.Mandal, r.Village,
		r.Panchayath, r.DateOfBirth, strconv.Itoa(r.Age), r.ProfilePicURL,
		r.AadharDocURL, r.BankDocURL, string(bank), string(fields),
		r.CreatedBy, r.CreatedAt, r.UpdatedBy, r.UpdatedAt,
	}
}
