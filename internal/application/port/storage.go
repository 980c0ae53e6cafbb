package port

import "context"

// StoredBlob describes where an uploaded file landed
type StoredBlob struct {
	URL      string
	FileName string
	Size     int64
}

// BlobStorage stores uploaded report attachments. The engine treats stored
// files as opaque URLs.
type BlobStorage interface {
	Store(ctx context.Context, content []byte, name string) (*StoredBlob, error)
}
