package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/docledger/docledger/internal/audit"
	"github.com/docledger/docledger/pkg/logger"
)

// Error taxonomy. Handlers map these onto transport status codes; callers
// should test with errors.Is since operations wrap them with detail.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrSuspended       = errors.New("registry suspended")
	ErrNotFound        = errors.New("not found")
)

// Store is the per-owner append-only document index. Implementations keep
// insertion order stable and never remove or reorder records. The registry
// serializes all calls, so implementations may assume single-writer access.
type Store interface {
	Append(ctx context.Context, owner string, doc Document) error
	Count(ctx context.Context, owner string) (uint, error)
	// Get returns the document at the zero-based position, or found=false
	// when the owner has no record there.
	Get(ctx context.Context, owner string, index uint8) (doc Document, found bool, err error)
}

// Registry is the document registry state machine: an owner-keyed append-only
// index behind a pause switch that only the registry owner may toggle.
// A single mutex serializes every public operation, so each call is
// all-or-nothing with no interleaving.
type Registry struct {
	mu    sync.Mutex
	owner string
	state bool // paused
	store Store
	sink  audit.Sink
	now   func() time.Time
}

// New creates a registry owned by the given identity. The owner identity is
// immutable for the life of the registry. A nil sink disables audit emission.
func New(owner string, store Store, sink audit.Sink) *Registry {
	return &Registry{owner: owner, store: store, sink: sink, now: time.Now}
}

// Owner returns the registry-owner identity set at creation.
func (r *Registry) Owner() string { return r.owner }

// Paused reports whether the emergency stop is active.
func (r *Registry) Paused() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Upload validates the four document fields and appends a new record to the
// caller's sequence, creating it on first upload. Validation runs to
// completion before any mutation; on any failure the registry is unchanged.
// The success flag is never false with a nil error.
func (r *Registry) Upload(ctx context.Context, caller, contentHash, title, description, tags string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state {
		return false, fmt.Errorf("%w: uploads disabled", ErrSuspended)
	}
	if caller == "" {
		return false, fmt.Errorf("%w: missing caller identity", ErrInvalidArgument)
	}
	if len(contentHash) != ContentHashLen {
		return false, fmt.Errorf("%w: content hash must be exactly %d characters", ErrInvalidArgument, ContentHashLen)
	}
	if l := len(title); l < 1 || l > TitleMaxLen {
		return false, fmt.Errorf("%w: title must be 1-%d bytes", ErrInvalidArgument, TitleMaxLen)
	}
	if len(description) > DescriptionMaxLen {
		return false, fmt.Errorf("%w: description must be at most %d bytes", ErrInvalidArgument, DescriptionMaxLen)
	}
	if l := len(tags); l < 1 || l > TagsMaxLen {
		return false, fmt.Errorf("%w: tags must be 1-%d bytes", ErrInvalidArgument, TagsMaxLen)
	}

	doc := Document{
		ContentHash: contentHash,
		Title:       title,
		Description: description,
		Tags:        tags,
		UploadedAt:  r.now().UTC(),
	}
	if err := r.store.Append(ctx, caller, doc); err != nil {
		return false, fmt.Errorf("append document: %w", err)
	}

	r.emit(ctx, audit.DocumentUploaded{
		Owner:       caller,
		ContentHash: doc.ContentHash,
		Title:       doc.Title,
		Description: doc.Description,
		Tags:        doc.Tags,
		UploadedAt:  doc.UploadedAt,
	})
	return true, nil
}

// Count returns the number of documents the owner has uploaded. An owner with
// no uploads yields 0; absence and emptiness are indistinguishable.
func (r *Registry) Count(ctx context.Context, owner string) (uint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state {
		return 0, fmt.Errorf("%w: reads disabled", ErrSuspended)
	}
	if owner == "" {
		return 0, fmt.Errorf("%w: missing owner identity", ErrInvalidArgument)
	}
	n, err := r.store.Count(ctx, owner)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

// Get returns the document at the zero-based index of the owner's sequence.
// Positions are stable once assigned. An index at or past the sequence length
// yields ErrNotFound.
func (r *Registry) Get(ctx context.Context, owner string, index uint8) (Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state {
		return Document{}, fmt.Errorf("%w: reads disabled", ErrSuspended)
	}
	if owner == "" {
		return Document{}, fmt.Errorf("%w: missing owner identity", ErrInvalidArgument)
	}
	n, err := r.store.Count(ctx, owner)
	if err != nil {
		return Document{}, fmt.Errorf("count documents: %w", err)
	}
	if n == 0 {
		return Document{}, fmt.Errorf("%w: owner has no documents", ErrNotFound)
	}
	if uint(index) >= n {
		return Document{}, fmt.Errorf("%w: index %d out of range (have %d)", ErrNotFound, index, n)
	}
	doc, found, err := r.store.Get(ctx, owner, index)
	if err != nil {
		return Document{}, fmt.Errorf("get document: %w", err)
	}
	if !found {
		return Document{}, fmt.Errorf("%w: index %d out of range (have %d)", ErrNotFound, index, n)
	}
	return doc, nil
}

// EmergencyStop sets the pause switch. Only the registry owner may call it;
// every invocation by the owner is recorded, including no-op repeats.
func (r *Registry) EmergencyStop(ctx context.Context, caller string, stop bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if caller != r.owner {
		return fmt.Errorf("%w: caller is not the registry owner", ErrUnauthorized)
	}
	r.state = stop
	r.emit(ctx, audit.EmergencyStop{Owner: r.owner, Stop: stop})
	return nil
}

// emit appends an audit entry. Emission failures are logged and never roll
// back the primary mutation.
func (r *Registry) emit(ctx context.Context, e audit.Entry) {
	if r.sink == nil {
		return
	}
	if err := r.sink.Append(ctx, e); err != nil {
		logger.Warnf("audit append failed (%s): %v", e.Kind(), err)
	}
}
