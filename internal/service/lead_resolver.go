package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/whatsapp-crm/internal/domain"
	"github.com/spec-kit/whatsapp-crm/internal/phone"
	"github.com/spec-kit/whatsapp-crm/internal/repository"
)

// LeadResolver finds the existing lead for a raw inbound phone number using
// a cascade of strategies, cheapest and most precise first. Each strategy
// only runs when the previous one found nothing; the cascade is an explicit
// ordered list so its ordering is testable.
type LeadResolver struct {
	leads      repository.LeadRepository
	logger     *zap.Logger
	strategies []resolveStrategy
}

type resolveStrategy struct {
	name string
	run  func(ctx context.Context, tenantID, rawPhone string) (*domain.Lead, error)
}

// NewLeadResolver constructs a resolver over the lead repository.
func NewLeadResolver(leads repository.LeadRepository, logger *zap.Logger) *LeadResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &LeadResolver{leads: leads, logger: logger}
	r.strategies = []resolveStrategy{
		{name: "exact_variations", run: r.byExactVariations},
		{name: "suffix_8", run: r.byLast8Digits},
		{name: "suffix_7_scored", run: r.byLast7DigitsScored},
	}
	return r
}

// FindLeadByPhone resolves rawPhone to a lead, or nil when no strategy
// matches. Genuine I/O failures are logged and also surfaced as nil: the
// caller's policy is to fall through to lead creation.
func (r *LeadResolver) FindLeadByPhone(ctx context.Context, tenantID, rawPhone string) *domain.Lead {
	digits := phone.DigitsOnly(rawPhone)
	if digits == "" {
		return nil
	}
	for _, strategy := range r.strategies {
		lead, err := strategy.run(ctx, tenantID, digits)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			r.logger.Error("lead lookup failed",
				zap.String("strategy", strategy.name),
				zap.Error(err))
			return nil
		}
		if lead != nil {
			return lead
		}
	}
	return nil
}

// FindLeadByPhoneAndName is a narrower fallback for when the gateway pushed
// a display name: it matches on the last 7 digits and keeps only candidates
// whose stored name or WhatsApp name is a case-insensitive substring match
// (either direction) of the supplied name. Names shorter than 2 characters
// never engage it.
func (r *LeadResolver) FindLeadByPhoneAndName(ctx context.Context, tenantID, rawPhone, name string) *domain.Lead {
	trimmed := strings.TrimSpace(name)
	if len([]rune(trimmed)) < 2 {
		return nil
	}
	digits := phone.DigitsOnly(rawPhone)
	if len(digits) < 7 {
		return nil
	}

	candidates, err := r.leads.FindByPhoneSuffix(ctx, tenantID, lastN(digits, 7), 5)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			r.logger.Error("lead lookup by name failed", zap.Error(err))
		}
		return nil
	}

	matched := candidates[:0:0]
	for _, lead := range candidates {
		if nameMatches(trimmed, lead.Name) || nameMatches(trimmed, lead.WhatsappName) {
			matched = append(matched, lead)
		}
	}
	return bestBySuffixScore(matched, digits)
}

// PhoneVariations builds the deduplicated set of digit strings that could
// identify the same phone: the raw digits, the parsed local and full
// numbers, and for Brazil both mobile forms with and without the 9th digit
// (plus their 55-prefixed equivalents).
func PhoneVariations(rawPhone string) []string {
	digits := phone.DigitsOnly(rawPhone)
	if digits == "" {
		return nil
	}
	parsed := phone.Parse(digits)

	seen := map[string]bool{}
	var out []string
	add := func(v string) {
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}

	add(digits)
	add(parsed.LocalNumber)
	add(parsed.FullNumber)

	if parsed.CountryCode == "55" {
		local := parsed.LocalNumber
		switch {
		case len(local) == 11 && local[2] == '9':
			without9 := local[:2] + local[3:]
			add(without9)
			add("55" + without9)
		case len(local) == 10:
			with9 := local[:2] + "9" + local[2:]
			add(with9)
			add("55" + with9)
		}
	}
	return out
}

func (r *LeadResolver) byExactVariations(ctx context.Context, tenantID, digits string) (*domain.Lead, error) {
	return r.leads.FindByPhoneVariations(ctx, tenantID, PhoneVariations(digits))
}

func (r *LeadResolver) byLast8Digits(ctx context.Context, tenantID, digits string) (*domain.Lead, error) {
	if len(digits) < 8 {
		return nil, nil
	}
	candidates, err := r.leads.FindByPhoneSuffix(ctx, tenantID, lastN(digits, 8), 1)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	return &candidates[0], nil
}

func (r *LeadResolver) byLast7DigitsScored(ctx context.Context, tenantID, digits string) (*domain.Lead, error) {
	if len(digits) < 7 {
		return nil, nil
	}
	candidates, err := r.leads.FindByPhoneSuffix(ctx, tenantID, lastN(digits, 7), 5)
	if err != nil {
		return nil, err
	}
	return bestBySuffixScore(candidates, digits), nil
}

// bestBySuffixScore picks the candidate sharing the longest run of trailing
// digits with the input. Candidates arrive most-recently-updated first with
// ids ascending, and only a strictly better score replaces the current best,
// so ties resolve to the most recently active lead deterministically.
func bestBySuffixScore(candidates []domain.Lead, digits string) *domain.Lead {
	if len(candidates) == 0 {
		return nil
	}
	if len(candidates) == 1 {
		return &candidates[0]
	}
	best := 0
	bestScore := -1
	for i := range candidates {
		score := commonSuffixLen(candidates[i].Phone, digits)
		if score > bestScore {
			best = i
			bestScore = score
		}
	}
	return &candidates[best]
}

func commonSuffixLen(a, b string) int {
	i, j := len(a)-1, len(b)-1
	n := 0
	for i >= 0 && j >= 0 && a[i] == b[j] {
		n++
		i--
		j--
	}
	return n
}

func lastN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

func nameMatches(a, b string) bool {
	if strings.TrimSpace(b) == "" {
		return false
	}
	la, lb := strings.ToLower(a), strings.ToLower(strings.TrimSpace(b))
	return strings.Contains(la, lb) || strings.Contains(lb, la)
}
