package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{
			name: "unique violation is a duplicate",
			err:  &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"},
			want: KindDuplicate,
		},
		{
			name: "connection exception is transient",
			err:  &pgconn.PgError{Code: "08006", Message: "connection failure"},
			want: KindTransient,
		},
		{
			name: "admin shutdown is transient",
			err:  &pgconn.PgError{Code: "57P01", Message: "terminating connection"},
			want: KindTransient,
		},
		{
			name: "not-null violation is permanent",
			err:  &pgconn.PgError{Code: "23502", Message: "null value in column"},
			want: KindPermanent,
		},
		{
			name: "wrapped pg error is still classified",
			err:  fmt.Errorf("error inserting order: %w", &pgconn.PgError{Code: "23505"}),
			want: KindDuplicate,
		},
		{
			name: "net timeout is transient",
			err:  &net.DNSError{Err: "timeout", IsTimeout: true},
			want: KindTransient,
		},
		{
			name: "context deadline is transient",
			err:  context.DeadlineExceeded,
			want: KindTransient,
		},
		{
			name: "unknown errors default to transient",
			err:  errors.New("pool closed"),
			want: KindTransient,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.err).Kind)
		})
	}
}

func TestIsDuplicate(t *testing.T) {
	dup := Classify(&pgconn.PgError{Code: "23505"})
	assert.True(t, IsDuplicate(dup))
	assert.True(t, IsDuplicate(fmt.Errorf("submit: %w", dup)))
	assert.False(t, IsDuplicate(errors.New("nope")))
	assert.False(t, IsDuplicate(nil))
}
