package service

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/charter-booking/internal/model"
)

// RefundTier grants Percent of the deposit when a booking is cancelled at
// least MinLead before it starts.
type RefundTier struct {
	MinLead time.Duration
	Percent int
}

// RefundPolicy is a list of tiers ordered by decreasing lead time.
type RefundPolicy []RefundTier

// DefaultRefundPolicy refunds everything a week out and half two days out.
func DefaultRefundPolicy() RefundPolicy {
	return RefundPolicy{
		{MinLead: 168 * time.Hour, Percent: 100},
		{MinLead: 48 * time.Hour, Percent: 50},
	}
}

// ParseRefundTiers parses "hours:percent" pairs such as "168:100,48:50".
// An empty string yields the default policy.
func ParseRefundTiers(s string) (RefundPolicy, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultRefundPolicy(), nil
	}
	var p RefundPolicy
	for _, part := range strings.Split(s, ",") {
		hours, pct, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			return nil, fmt.Errorf("refund tier %q: want hours:percent", part)
		}
		h, err := strconv.Atoi(strings.TrimSpace(hours))
		if err != nil || h < 0 {
			return nil, fmt.Errorf("refund tier %q: invalid hours", part)
		}
		n, err := strconv.Atoi(strings.TrimSpace(pct))
		if err != nil || n < 0 || n > 100 {
			return nil, fmt.Errorf("refund tier %q: invalid percent", part)
		}
		p = append(p, RefundTier{MinLead: time.Duration(h) * time.Hour, Percent: n})
	}
	sort.Slice(p, func(i, j int) bool { return p[i].MinLead > p[j].MinLead })
	return p, nil
}

// Percent returns the share of the deposit refunded when b is cancelled at
// at.  Bookings without a paid deposit get nothing back.
func (p RefundPolicy) Percent(b model.Booking, at time.Time) int {
	if !b.DepositPaid {
		return 0
	}
	lead := b.StartsAt.Sub(at)
	for _, t := range p {
		if lead >= t.MinLead {
			return t.Percent
		}
	}
	return 0
}
