package events

const (
	DocumentUploadedKind  string = "docpipe.document.uploaded"
	DocumentConvertedKind string = "docpipe.document.converted"
	ConversionFailedKind  string = "docpipe.document.conversion_failed"
	MetadataExtractedKind string = "docpipe.document.metadata_extracted"
	MetadataFailedKind    string = "docpipe.document.metadata_failed"
	defaultTopic          string = "docpipe.events"
	defaultSource         string = "docpipe"
)

// DocumentEvent is the payload of every document lifecycle event.
type DocumentEvent struct {
	DocumentID string `json:"document_id"`
	FileName   string `json:"file_name,omitempty"`
	Status     string `json:"status,omitempty"`
	BlobKey    string `json:"blob_key,omitempty"`
	Error      string `json:"error,omitempty"`
}
