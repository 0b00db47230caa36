package domain

import "strings"

type Label string

const (
	LabelInvoice        Label = "invoice"
	LabelDrivingLicense Label = "driving_license"
	LabelContract       Label = "contract"
	LabelPassport       Label = "passport"
)

// Labels is indexed by model output position.
var Labels = []Label{
	LabelInvoice,
	LabelDrivingLicense,
	LabelContract,
	LabelPassport,
}

const (
	ExtPDF  = "pdf"
	ExtPNG  = "png"
	ExtJPG  = "jpg"
	ExtJPEG = "jpeg"
	ExtDOCX = "docx"
	ExtTXT  = "txt"
)

// AllowedExtensions keeps the order used in client-facing messages.
var AllowedExtensions = []string{ExtPDF, ExtPNG, ExtJPG, ExtJPEG, ExtDOCX, ExtTXT}

var ExpectedMimeTypes = map[string]string{
	ExtPDF:  "application/pdf",
	ExtPNG:  "image/png",
	ExtJPG:  "image/jpeg",
	ExtJPEG: "image/jpeg",
	ExtDOCX: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	ExtTXT:  "text/plain",
}

func IsImageExtension(ext string) bool {
	switch strings.ToLower(ext) {
	case ExtPNG, ExtJPG, ExtJPEG:
		return true
	default:
		return false
	}
}

type UploadedFile struct {
	Filename string
	MimeType string
	Payload  []byte
}

type ExtractionStatus int

const (
	ExtractionFound ExtractionStatus = iota
	ExtractionEmpty
	ExtractionUnsupported
)

func (s ExtractionStatus) String() string {
	switch s {
	case ExtractionFound:
		return "found"
	case ExtractionEmpty:
		return "empty"
	case ExtractionUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// Extraction separates "nothing found" from "format not handled"; the
// orchestrator treats only the latter as a hard failure.
type Extraction struct {
	Text   string
	Status ExtractionStatus
	Method string
}

func NewExtraction(text, method string) Extraction {
	text = strings.TrimSpace(text)
	if text == "" {
		return Extraction{Status: ExtractionEmpty, Method: method}
	}
	return Extraction{Text: text, Status: ExtractionFound, Method: method}
}

func UnsupportedExtraction() Extraction {
	return Extraction{Status: ExtractionUnsupported, Method: "none"}
}

type Encoding struct {
	InputIDs      []int64
	AttentionMask []int64
}

func (e Encoding) Len() int {
	return len(e.InputIDs)
}

type Classification struct {
	Label      Label   `json:"label"`
	Confidence float64 `json:"confidence"`
}

type ClassificationOutcome struct {
	Label      Label   `json:"label"`
	Confidence float64 `json:"confidence"`
	Text       string  `json:"text"`
}
