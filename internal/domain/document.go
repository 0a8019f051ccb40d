package domain

// DocumentType classifies an identity-proof document.
type DocumentType string

const (
	DocumentAadharCard      DocumentType = "Aadhar Card"
	DocumentPANCard         DocumentType = "PAN Card"
	DocumentDrivingLicense  DocumentType = "Driving License"
	DocumentPassport        DocumentType = "Passport"
	DocumentVoterID         DocumentType = "Voter ID"
	DocumentBusinessLicense DocumentType = "Business License"
	DocumentGSTCertificate  DocumentType = "GST Certificate"
	DocumentOther           DocumentType = "Other"
)

// DocumentTypes returns every document classification in picker order.
func DocumentTypes() []DocumentType {
	return []DocumentType{
		DocumentAadharCard,
		DocumentPANCard,
		DocumentDrivingLicense,
		DocumentPassport,
		DocumentVoterID,
		DocumentBusinessLicense,
		DocumentGSTCertificate,
		DocumentOther,
	}
}

// Document is a file attached to a company.
type Document struct {
	ID           string    `json:"id"`
	URL          string    `json:"url"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	MimeType     string    `json:"mime_type"`
	DocumentType string    `json:"document_type,omitempty"`
	CreatedAt    Timestamp `json:"created_at"`
}
