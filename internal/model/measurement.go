package model

import "time"

// RowInput is one unit of imported input: a spreadsheet line or one
// OCR-extracted candidate record. Row numbering is 1-based.
type RowInput struct {
	Row       int    `json:"row"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	TeamName  string `json:"team_name,omitempty"`
	Metric    string `json:"metric"`
	Value     string `json:"value"`
	Unit      string `json:"unit,omitempty"`
	Date      string `json:"date,omitempty"`
	Age       string `json:"age,omitempty"`
}

// MeasurementSource records where a measurement came from.
type MeasurementSource string

const (
	SourceSpreadsheet MeasurementSource = "spreadsheet"
	SourceOCR         MeasurementSource = "ocr"
	SourceReview      MeasurementSource = "review"
)

// Measurement is the final payload persisted after a row resolves to an
// athlete.
type Measurement struct {
	ID             string            `json:"id"`
	AthleteID      string            `json:"athlete_id"`
	OrganizationID string            `json:"organization_id"`
	Metric         string            `json:"metric"`
	Value          float64           `json:"value"`
	Unit           string            `json:"unit"`
	MeasuredAt     *time.Time        `json:"measured_at,omitempty"`
	Source         MeasurementSource `json:"source"`
	CreatedBy      string            `json:"created_by"`
	CreatedAt      time.Time         `json:"created_at"`
}

// ExtractedMeasurementData is one OCR-derived candidate row. SourceText
// keeps the exact matched substring for audit.
type ExtractedMeasurementData struct {
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	Metric     string `json:"metric"`
	RawValue   string `json:"raw_value"`
	Date       string `json:"date,omitempty"`
	Age        string `json:"age,omitempty"`
	Confidence int    `json:"confidence"`
	SourceText string `json:"source_text"`
}

// ToRow converts an extracted candidate into a RowInput for the import
// path shared with spreadsheet rows.
func (e ExtractedMeasurementData) ToRow(row int) RowInput {
	return RowInput{
		Row:       row,
		FirstName: e.FirstName,
		LastName:  e.LastName,
		Metric:    e.Metric,
		Value:     e.RawValue,
		Date:      e.Date,
		Age:       e.Age,
	}
}
