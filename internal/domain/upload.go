package domain

import (
	"io"
	"os"
)

// FileKind is the upload "type" discriminator.
type FileKind string

const (
	KindImage    FileKind = "image"
	KindVideo    FileKind = "video"
	KindDocument FileKind = "document"
)

// Valid reports whether k is one of image, video or document.
func (k FileKind) Valid() bool {
	return k == KindImage || k == KindVideo || k == KindDocument
}

// UploadFile is a local file selected for upload. URI is a filesystem path;
// Content, when set, is read instead of opening URI.
type UploadFile struct {
	URI      string
	Type     string
	FileName string
	Name     string
	Content  io.Reader
}

// PartName is the filename sent in the multipart part.
func (f UploadFile) PartName() string {
	switch {
	case f.FileName != "":
		return f.FileName
	case f.Name != "":
		return f.Name
	default:
		return "file"
	}
}

// DisplayName identifies the file in bulk-upload failure reports.
func (f UploadFile) DisplayName() string {
	switch {
	case f.FileName != "":
		return f.FileName
	case f.Name != "":
		return f.Name
	default:
		return f.URI
	}
}

// ContentType is the declared MIME type, defaulting to octet-stream.
func (f UploadFile) ContentType() string {
	if f.Type != "" {
		return f.Type
	}
	return "application/octet-stream"
}

// Open returns the file's bytes. The caller closes the returned reader.
func (f UploadFile) Open() (io.ReadCloser, error) {
	if f.Content != nil {
		return io.NopCloser(f.Content), nil
	}
	return os.Open(f.URI)
}

// UploadResponse is returned for every stored file.
type UploadResponse struct {
	ID           string `json:"id"`
	URL          string `json:"url"`
	Type         string `json:"type"`
	Size         int64  `json:"size"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// UploadFailure records one file that could not be uploaded.
type UploadFailure struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// BulkUploadResponse aggregates a batch: one bad file never aborts the rest.
type BulkUploadResponse struct {
	Uploaded []UploadResponse `json:"uploaded"`
	Failed   []UploadFailure  `json:"failed"`
}
