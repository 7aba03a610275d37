package model

// OCRResult is the outcome of extracting measurement candidates from one
// image. A failed image carries Error and empty ExtractedData; batch OCR
// isolates failures per image.
type OCRResult struct {
	Text          string                     `json:"text"`
	Confidence    int                        `json:"confidence"`
	ExtractedData []ExtractedMeasurementData `json:"extracted_data,omitempty"`
	Warnings      []string                   `json:"warnings,omitempty"`
	Error         string                     `json:"error,omitempty"`
}
