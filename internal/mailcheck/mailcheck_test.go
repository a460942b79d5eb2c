package mailcheck

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeResolver struct {
	records []*net.MX
	err     error
	calls   int
}

func (f *fakeResolver) LookupMX(ctx context.Context, domain string) ([]*net.MX, error) {
	f.calls++
	return f.records, f.err
}

func TestIsValidFormat(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"user@example.com", true},
		{"first.last+tag@sub.domain.co", true},
		{"not-an-email", false},
		{"a@b", false},
		{"a b@c.com", false},
		{"a@b c.com", false},
		{"@example.com", false},
		{"user@", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidFormat(tt.email))
		})
	}
}

func TestHasMailExchanger(t *testing.T) {
	ctx := context.Background()

	t.Run("domain with records", func(t *testing.T) {
		c := New(&fakeResolver{records: []*net.MX{{Host: "mx.example.com"}}}, true)
		assert.True(t, c.HasMailExchanger(ctx, "user@example.com"))
	})

	t.Run("lookup error fails closed", func(t *testing.T) {
		c := New(&fakeResolver{err: errors.New("NXDOMAIN")}, true)
		assert.False(t, c.HasMailExchanger(ctx, "user@nope.invalid"))
	})

	t.Run("zero records fails closed", func(t *testing.T) {
		c := New(&fakeResolver{}, true)
		assert.False(t, c.HasMailExchanger(ctx, "user@example.com"))
	})

	t.Run("no domain part", func(t *testing.T) {
		r := &fakeResolver{records: []*net.MX{{Host: "mx.example.com"}}}
		c := New(r, true)
		assert.False(t, c.HasMailExchanger(ctx, "no-at-sign"))
		assert.False(t, c.HasMailExchanger(ctx, "trailing@"))
		assert.Zero(t, r.calls, "no lookup without a domain")
	})
}

func TestValidate(t *testing.T) {
	ctx := context.Background()

	t.Run("format failure short-circuits", func(t *testing.T) {
		r := &fakeResolver{records: []*net.MX{{Host: "mx.example.com"}}}
		c := New(r, true)

		res := c.Validate(ctx, "not-an-email")
		assert.False(t, res.Valid)
		assert.Equal(t, ReasonBadFormat, res.Reason)
		assert.Zero(t, r.calls)
	})

	t.Run("mx failure", func(t *testing.T) {
		c := New(&fakeResolver{err: errors.New("timeout")}, true)

		res := c.Validate(ctx, "user@example.com")
		assert.False(t, res.Valid)
		assert.Equal(t, ReasonNoMX, res.Reason)
	})

	t.Run("both pass", func(t *testing.T) {
		c := New(&fakeResolver{records: []*net.MX{{Host: "mx.example.com"}}}, true)

		res := c.Validate(ctx, "user@example.com")
		assert.True(t, res.Valid)
		assert.Empty(t, res.Reason)
	})

	t.Run("mx check disabled", func(t *testing.T) {
		r := &fakeResolver{err: errors.New("should not be called")}
		c := New(r, false)

		res := c.Validate(ctx, "user@example.com")
		assert.True(t, res.Valid)
		assert.Zero(t, r.calls)
	})
}
