package registry

import "time"

// Field bounds enforced on every stored document. ContentHashLen matches the
// fixed-length encoding of the content-addressing scheme (e.g. a base58
// CIDv0); the registry never inspects the referenced bytes.
const (
	ContentHashLen    = 46
	TitleMaxLen       = 256
	DescriptionMaxLen = 1023
	TagsMaxLen        = 256
)

// Document is an immutable record referencing externally stored content.
// All four string fields satisfy the bounds above for the record's lifetime;
// UploadedAt is set by the registry clock at append time, never by the caller.
type Document struct {
	ContentHash string    `json:"contentHash" bson:"contentHash"`
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description" bson:"description"`
	Tags        string    `json:"tags" bson:"tags"`
	UploadedAt  time.Time `json:"uploadedAt" bson:"uploadedAt"`
}
