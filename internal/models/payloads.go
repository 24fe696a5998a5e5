package models

// These structs define the JSON payloads for the upload job request and
// response, shared by the function entry points, the server and the CLI.

// Payload formats accepted by the renderer.
const (
	FormatXML  = "xml"
	FormatJSON = "json"
)

// TransferTarget identifies the remote endpoint and its three destination directories.
type TransferTarget struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	PayloadDir   string `json:"payloadDir"`
	PDFDir       string `json:"pdfDir"`
	SecondaryDir string `json:"secondaryDir"`
}

// UploadJobRequest is the input for one upload job.
type UploadJobRequest struct {
	Target                      TransferTarget `json:"target"`
	Payload                     string         `json:"payload"`
	PDFBase64                   string         `json:"pdfBase64"`
	BaseFilename                string         `json:"baseFilename"`
	OriginalFilename            string         `json:"originalFilename,omitempty"`
	FieldPathForID              string         `json:"fieldPathForId,omitempty"`
	ReuseIdentifierForFirstPage *int64         `json:"reuseIdentifierForFirstPage,omitempty"`
	UserRef                     string         `json:"userRef,omitempty"`
	ClassificationRef           string         `json:"classificationRef,omitempty"`
	PayloadFormat               string         `json:"payloadFormat,omitempty"`
}

// UploadedPaths holds the remote paths of the two files written for one page.
type UploadedPaths struct {
	Data string `json:"data"`
	PDF  string `json:"pdf"`
}

// UploadOutcome records one successfully uploaded page.
type UploadOutcome struct {
	Page       int           `json:"page"`
	Identifier int64         `json:"identifier"`
	Filename   string        `json:"filename"`
	Paths      UploadedPaths `json:"paths"`
}

// UploadJobResponse is the success body returned to the caller.
type UploadJobResponse struct {
	Success   bool            `json:"success"`
	PageCount int             `json:"pageCount"`
	Results   []UploadOutcome `json:"results"`
}

// ErrorResponse is the failure body returned to the caller.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
