// Package mailcheck gates which sender identities are allowed into the
// rate limiter and the mail pipeline.
package mailcheck

import (
	"context"
	"net"
	"regexp"
	"strings"
	"time"
)

// Deliberately permissive: local@domain.tld shaped, no embedded
// whitespace. Good enough to reject obvious garbage, not a guarantee of
// deliverability.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const (
	ReasonBadFormat     = "Invalid email address"
	ReasonNoMX          = "Email domain cannot receive mail"
	defaultLookupPeriod = 3 * time.Second
)

// Resolver is the MX lookup capability; *net.Resolver satisfies it.
type Resolver interface {
	LookupMX(ctx context.Context, domain string) ([]*net.MX, error)
}

type Result struct {
	Valid  bool
	Reason string
}

type Checker struct {
	resolver Resolver
	timeout  time.Duration
	mxCheck  bool
}

// New returns a checker; a nil resolver defaults to net.DefaultResolver.
// With mxCheck false, Validate stops after the format check (offline
// development, or deployments that accept the weaker policy).
func New(resolver Resolver, mxCheck bool) *Checker {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	return &Checker{
		resolver: resolver,
		timeout:  defaultLookupPeriod,
		mxCheck:  mxCheck,
	}
}

func IsValidFormat(email string) bool {
	return emailRegex.MatchString(email)
}

// HasMailExchanger reports whether the address's domain publishes at
// least one MX record. Fails closed: a lookup error of any kind means an
// unverifiable domain, which must not consume a rate-limit slot or
// trigger a send attempt.
func (c *Checker) HasMailExchanger(ctx context.Context, email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	records, err := c.resolver.LookupMX(ctx, domain)
	if err != nil {
		return false
	}
	return len(records) > 0
}

// Validate runs the format check, then the MX check, short-circuiting on
// the first failure.
func (c *Checker) Validate(ctx context.Context, email string) Result {
	if !IsValidFormat(email) {
		return Result{Reason: ReasonBadFormat}
	}
	if c.mxCheck && !c.HasMailExchanger(ctx, email) {
		return Result{Reason: ReasonNoMX}
	}
	return Result{Valid: true}
}
