package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/docledger/docledger/pkg/logger"
)

// Kind discriminates audit entry types on the wire.
type Kind string

const (
	KindDocumentUploaded Kind = "document_uploaded"
	KindEmergencyStop    Kind = "emergency_stop"
)

// Entry is one immutable audit record. Entries are produced by completed
// mutating operations and are never updated or removed once appended.
type Entry interface {
	Kind() Kind
}

// DocumentUploaded records a successful append with the arguments as stored.
type DocumentUploaded struct {
	Owner       string    `json:"owner"`
	ContentHash string    `json:"contentHash"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Tags        string    `json:"tags"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

func (DocumentUploaded) Kind() Kind { return KindDocumentUploaded }

// EmergencyStop records a pause toggle by the registry owner.
type EmergencyStop struct {
	Owner string `json:"owner"`
	Stop  bool   `json:"stop"`
}

func (EmergencyStop) Kind() Kind { return KindEmergencyStop }

// Sink receives audit entries. Implementations must be append-only; a failed
// Append is reported to the caller but must not affect already-written entries.
type Sink interface {
	Append(ctx context.Context, e Entry) error
}

// Recorder is an in-memory sink used in tests and as the default for
// standalone runs.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Append(ctx context.Context, e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

// Entries returns a snapshot of everything appended so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// LogSink writes entries to the service log as single-line JSON.
type LogSink struct{}

func NewLogSink() *LogSink { return &LogSink{} }

func (*LogSink) Append(ctx context.Context, e Entry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	logger.Infof("audit %s %s", e.Kind(), b)
	return nil
}
