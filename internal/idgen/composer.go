// Package idgen composes human-readable identifiers of the form
// <type code><yyMMdd><serial>, where the serial is zero-padded to four digits
// and grows wider once a type issues 10000 or more IDs on the same day.
package idgen

import (
	"context"
	"fmt"
	"time"

	"clearledger/internal/platform/metrics"
	"clearledger/pkg/domain"
	dErrors "clearledger/pkg/domain-errors"
)

const (
	dateLayout  = "060102"
	serialWidth = 4
)

// Entity identifies a kind of record and its serial counter.
type Entity struct {
	Code string
	Tag  string
}

var (
	EntityUser        = Entity{Code: domain.UserCode, Tag: "user"}
	EntityLedger      = Entity{Code: domain.LedgerCode, Tag: "ledger"}
	EntityTransaction = Entity{Code: domain.TransactionCode, Tag: "tx"}
)

// Entities lists every kind the composer issues IDs for.
var Entities = []Entity{EntityUser, EntityLedger, EntityTransaction}

// Tags returns the serial tags of all entities; the daily reset job zeroes
// exactly these.
func Tags() []string {
	tags := make([]string, 0, len(Entities))
	for _, e := range Entities {
		tags = append(tags, e.Tag)
	}
	return tags
}

// SerialSource hands out the next serial for a tag.
type SerialSource interface {
	Next(ctx context.Context, tag string) (int64, error)
}

// Composer builds identifiers from a serial source and the local date.
type Composer struct {
	serials SerialSource
	now     func() time.Time
	metrics *metrics.Metrics
}

// Option configures a Composer.
type Option func(*Composer)

// WithClock overrides the date source.
func WithClock(now func() time.Time) Option {
	return func(c *Composer) {
		if now != nil {
			c.now = now
		}
	}
}

// WithMetrics counts issued IDs per entity.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Composer) {
		c.metrics = m
	}
}

// New constructs a Composer.
func New(serials SerialSource, opts ...Option) *Composer {
	c := &Composer{serials: serials, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NextID issues a new identifier for entity.
func (c *Composer) NextID(ctx context.Context, entity Entity) (string, error) {
	if len(entity.Code) != 2 || entity.Tag == "" {
		return "", dErrors.New(dErrors.CodeInternal, "unknown entity type")
	}
	date := c.now().Format(dateLayout)
	n, err := c.serials.Next(ctx, entity.Tag)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate serial")
	}
	c.metrics.IncIDIssued(entity.Tag)
	return Format(entity.Code, date, n), nil
}

// Format renders the identifier parts.
func Format(code, date string, serial int64) string {
	return fmt.Sprintf("%s%s%0*d", code, date, serialWidth, serial)
}
