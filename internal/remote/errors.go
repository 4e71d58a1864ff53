package remote

import (
	"context"
	"errors"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
)

// Kind partitions remote failures into the closed set the sync engine
// branches on.
type Kind int

const (
	// KindTransient covers timeouts, refused connections and server-side
	// hiccups; the order stays queued and is retried with backoff.
	KindTransient Kind = iota
	// KindDuplicate means the order header already exists remotely. A
	// previous attempt succeeded but its response was lost; treated as
	// success.
	KindDuplicate
	// KindPermanent covers rejections that retrying will not fix.
	KindPermanent
	// KindOffline is reported when no submission was attempted because
	// the link or server was known to be down.
	KindOffline
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindDuplicate:
		return "duplicate"
	case KindPermanent:
		return "permanent"
	case KindOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// SyncError tags an underlying remote failure with its Kind.
type SyncError struct {
	Kind Kind
	Err  error
}

func (e *SyncError) Error() string {
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *SyncError) Unwrap() error { return e.Err }

// Classify maps a raw pgx error onto the SyncError taxonomy.
func Classify(err error) *SyncError {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		class := pgErr.Code
		if len(class) > 2 {
			class = class[:2]
		}
		switch {
		case pgErr.Code == "23505":
			return &SyncError{Kind: KindDuplicate, Err: err}
		case class == "08" || class == "57":
			// connection exceptions, operator intervention (shutdown)
			return &SyncError{Kind: KindTransient, Err: err}
		default:
			return &SyncError{Kind: KindPermanent, Err: err}
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return &SyncError{Kind: KindTransient, Err: err}
	}

	// unreachable host, DNS failure, closed pool: assume transient so the
	// order stays queued rather than being abandoned
	return &SyncError{Kind: KindTransient, Err: err}
}

// IsDuplicate reports whether err is a duplicate-key rejection.
func IsDuplicate(err error) bool {
	var syncErr *SyncError
	return errors.As(err, &syncErr) && syncErr.Kind == KindDuplicate
}
