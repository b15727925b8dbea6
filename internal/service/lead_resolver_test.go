package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/whatsapp-crm/internal/domain"
	"github.com/spec-kit/whatsapp-crm/internal/repository"
)

// fakeLeadRepo answers phone lookups from an in-memory slice ordered the way
// the real repository orders rows (most recently updated first).
type fakeLeadRepo struct {
	leads       []domain.Lead
	failLookups bool
	created     int
	updated     int
}

func (f *fakeLeadRepo) Create(ctx context.Context, lead *domain.Lead) error {
	f.created++
	if lead.ID == "" {
		lead.ID = fmt.Sprintf("lead-%d", len(f.leads)+1)
	}
	f.leads = append(f.leads, *lead)
	return nil
}

func (f *fakeLeadRepo) Update(ctx context.Context, lead *domain.Lead) error {
	f.updated++
	return nil
}

func (f *fakeLeadRepo) GetByID(ctx context.Context, tenantID, id string) (*domain.Lead, error) {
	for i := range f.leads {
		if f.leads[i].ID == id {
			return &f.leads[i], nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeLeadRepo) GetByPhone(ctx context.Context, tenantID, phoneNumber, countryCode string) (*domain.Lead, error) {
	for i := range f.leads {
		if f.leads[i].Phone == phoneNumber && f.leads[i].CountryCode == countryCode {
			return &f.leads[i], nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeLeadRepo) FindByPhoneVariations(ctx context.Context, tenantID string, variations []string) (*domain.Lead, error) {
	if f.failLookups {
		return nil, errors.New("connection refused")
	}
	for i := range f.leads {
		for _, v := range variations {
			if f.leads[i].Phone == v || f.leads[i].CountryCode+f.leads[i].Phone == v {
				return &f.leads[i], nil
			}
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeLeadRepo) FindByPhoneSuffix(ctx context.Context, tenantID, suffix string, limit int) ([]domain.Lead, error) {
	if f.failLookups {
		return nil, errors.New("connection refused")
	}
	var out []domain.Lead
	for _, lead := range f.leads {
		if strings.HasSuffix(lead.Phone, suffix) {
			out = append(out, lead)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeLeadRepo) ListWithFilter(ctx context.Context, filter repository.LeadFilter) ([]domain.Lead, error) {
	return f.leads, nil
}

func newTestResolver(repo repository.LeadRepository) *LeadResolver {
	return NewLeadResolver(repo, zap.NewNop())
}

func TestPhoneVariationsBrazilianMobile(t *testing.T) {
	variations := PhoneVariations("5511987654321")
	want := []string{"5511987654321", "11987654321", "1187654321", "551187654321"}
	for _, w := range want {
		found := false
		for _, v := range variations {
			if v == w {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("missing variation %s in %v", w, variations)
		}
	}
}

func TestPhoneVariationsAddNinthDigit(t *testing.T) {
	variations := PhoneVariations("551187654321")
	found := false
	for _, v := range variations {
		if v == "11987654321" {
			found = true
		}
	}
	if !found {
		t.Fatalf("with-9 form missing from %v", variations)
	}
}

func TestPhoneVariationsDeduplicated(t *testing.T) {
	variations := PhoneVariations("11987654321")
	seen := map[string]bool{}
	for _, v := range variations {
		if seen[v] {
			t.Fatalf("duplicate variation %s in %v", v, variations)
		}
		seen[v] = true
	}
}

func TestFindLeadByPhoneNinthDigitAmbiguity(t *testing.T) {
	repo := &fakeLeadRepo{leads: []domain.Lead{
		{ID: "l1", Phone: "987654321", CountryCode: "55"},
	}}
	resolver := newTestResolver(repo)

	for _, input := range []string{"5511987654321", "11987654321", "987654321", "1187654321"} {
		lead := resolver.FindLeadByPhone(context.Background(), "t1", input)
		if lead == nil || lead.ID != "l1" {
			t.Fatalf("input %s did not resolve to l1 (got %v)", input, lead)
		}
	}
}

func TestFindLeadByPhoneExactBeatsSuffix(t *testing.T) {
	// Both leads share the last 8 digits; the exact-variation match must win.
	repo := &fakeLeadRepo{leads: []domain.Lead{
		{ID: "fuzzy", Phone: "9911987654321", CountryCode: "99"},
		{ID: "exact", Phone: "11987654321", CountryCode: "55"},
	}}
	resolver := newTestResolver(repo)

	lead := resolver.FindLeadByPhone(context.Background(), "t1", "5511987654321")
	if lead == nil || lead.ID != "exact" {
		t.Fatalf("got %v, want exact", lead)
	}
}

func TestFindLeadByPhoneScoresSuffixCandidates(t *testing.T) {
	// Neither matches exactly nor on 8 digits; among the 7-digit candidates
	// the longer common trailing run must win.
	repo := &fakeLeadRepo{leads: []domain.Lead{
		{ID: "weak", Phone: "4412345678901", CountryCode: "44"},
		{ID: "strong", Phone: "5545678901", CountryCode: "55"},
	}}
	resolver := newTestResolver(repo)

	lead := resolver.FindLeadByPhone(context.Background(), "t1", "995545678901")
	if lead == nil {
		t.Fatal("expected a lead")
	}
	if lead.ID != "strong" {
		t.Fatalf("got %s, want strong", lead.ID)
	}
}

func TestFindLeadByPhoneNoMatch(t *testing.T) {
	repo := &fakeLeadRepo{leads: []domain.Lead{
		{ID: "l1", Phone: "11987654321", CountryCode: "55"},
	}}
	resolver := newTestResolver(repo)

	if lead := resolver.FindLeadByPhone(context.Background(), "t1", "5521912345678"); lead != nil {
		t.Fatalf("expected nil, got %v", lead)
	}
}

func TestFindLeadByPhoneFailsOpenOnIOError(t *testing.T) {
	repo := &fakeLeadRepo{failLookups: true}
	resolver := newTestResolver(repo)

	if lead := resolver.FindLeadByPhone(context.Background(), "t1", "5511987654321"); lead != nil {
		t.Fatalf("expected nil on I/O failure, got %v", lead)
	}
}

func TestFindLeadByPhoneEmptyInput(t *testing.T) {
	resolver := newTestResolver(&fakeLeadRepo{})
	if lead := resolver.FindLeadByPhone(context.Background(), "t1", "no digits here"); lead != nil {
		t.Fatalf("expected nil, got %v", lead)
	}
}

func TestFindLeadByPhoneAndName(t *testing.T) {
	repo := &fakeLeadRepo{leads: []domain.Lead{
		{ID: "maria", Phone: "2197654321", CountryCode: "55", Name: "Maria Silva"},
		{ID: "joao", Phone: "1197654321", CountryCode: "55", WhatsappName: "João"},
	}}
	resolver := newTestResolver(repo)

	lead := resolver.FindLeadByPhoneAndName(context.Background(), "t1", "5511997654321", "joão")
	if lead == nil || lead.ID != "joao" {
		t.Fatalf("got %v, want joao", lead)
	}
}

func TestFindLeadByPhoneAndNameRequiresTwoChars(t *testing.T) {
	repo := &fakeLeadRepo{leads: []domain.Lead{
		{ID: "l1", Phone: "11987654321", CountryCode: "55", Name: "X"},
	}}
	resolver := newTestResolver(repo)

	if lead := resolver.FindLeadByPhoneAndName(context.Background(), "t1", "5511987654321", "x"); lead != nil {
		t.Fatalf("short name must not engage, got %v", lead)
	}
}

func TestFindLeadByPhoneAndNameNoNameMatch(t *testing.T) {
	repo := &fakeLeadRepo{leads: []domain.Lead{
		{ID: "l1", Phone: "11987654321", CountryCode: "55", Name: "Maria"},
	}}
	resolver := newTestResolver(repo)

	if lead := resolver.FindLeadByPhoneAndName(context.Background(), "t1", "5511987654321", "Pedro"); lead != nil {
		t.Fatalf("expected nil, got %v", lead)
	}
}
