package customdomain

import (
	"context"
	"errors"
	"testing"
	"time"

	"go_sitebuilder/internal/dbtest"
	"go_sitebuilder/internal/model"
	"go_sitebuilder/internal/sslcert"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeResolver struct {
	txt   map[string][]string
	cname map[string]string
	err   error
}

func (f *fakeResolver) LookupTXT(_ context.Context, name string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.txt[name]
	if !ok {
		return nil, ErrNoRecord
	}
	return v, nil
}

func (f *fakeResolver) LookupCNAME(_ context.Context, name string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	v, ok := f.cname[name]
	if !ok {
		return "", ErrNoRecord
	}
	return v, nil
}

type fakeIssuer struct {
	calls int
	err   error
}

func (f *fakeIssuer) Issue(_ context.Context, domain string) (*sslcert.Certificate, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &sslcert.Certificate{CertPEM: "cert:" + domain, KeyPEM: "key", ExpiresAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}, nil
}

const target = "sites.sitebuilder.app"

func newService(t *testing.T, resolver *fakeResolver, issuer sslcert.Issuer) (*Service, *gorm.DB) {
	t.Helper()
	db := dbtest.Open(t)
	require.NoError(t, db.Create(&model.Company{BaseModel: model.BaseModel{ID: 1}, Name: "T1", WebsiteEnabled: true}).Error)
	require.NoError(t, db.Create(&model.Company{BaseModel: model.BaseModel{ID: 2}, Name: "T2", WebsiteEnabled: true}).Error)
	svc := NewService(Config{DB: db, Resolver: resolver, Issuer: issuer, CNAMETarget: target + "."})
	return svc, db
}

func companyDomain(t *testing.T, db *gorm.DB, id int) string {
	t.Helper()
	var c model.Company
	require.NoError(t, db.First(&c, id).Error)
	return c.CustomDomain
}

func TestCreate(t *testing.T) {
	svc, _ := newService(t, &fakeResolver{}, nil)
	ctx := context.Background()

	d, err := svc.Create(ctx, 1, " WWW.CasaNova.com.br. ")
	require.NoError(t, err)
	assert.Equal(t, "www.casanova.com.br", d.Domain)
	assert.Equal(t, "www", d.Subdomain)
	assert.Equal(t, model.DomainStatusPending, d.Status)
	assert.Len(t, d.VerificationToken, 32)

	_, err = svc.Create(ctx, 2, "www.casanova.com.br")
	assert.Error(t, err, "domains are globally unique")

	_, err = svc.Create(ctx, 1, "10.0.0.1")
	assert.Error(t, err)

	_, err = svc.Create(ctx, 1, "loja.sites.sitebuilder.app")
	assert.Error(t, err)
}

func TestVerify(t *testing.T) {
	resolver := &fakeResolver{txt: map[string][]string{}}
	svc, _ := newService(t, resolver, nil)
	ctx := context.Background()

	d, err := svc.Create(ctx, 1, "casanova.com.br")
	require.NoError(t, err)

	// no record yet
	got, err := svc.Verify(ctx, 1, d.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DomainStatusFailed, got.Status)
	assert.Contains(t, got.LastError, "_sitebuilder-verify.casanova.com.br")

	// failed is re-verifiable
	resolver.txt["_sitebuilder-verify.casanova.com.br"] = []string{"other", d.VerificationToken}
	got, err = svc.Verify(ctx, 1, d.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DomainStatusVerified, got.Status)
	assert.NotNil(t, got.VerifiedAt)
	assert.Empty(t, got.LastError)

	// other company cannot touch it
	_, err = svc.Verify(ctx, 2, d.ID)
	assert.Error(t, err)
}

func TestVerify_LookupError(t *testing.T) {
	resolver := &fakeResolver{err: errors.New("i/o timeout")}
	svc, _ := newService(t, resolver, nil)

	d, err := svc.Create(context.Background(), 1, "casanova.com.br")
	require.NoError(t, err)

	got, err := svc.Verify(context.Background(), 1, d.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DomainStatusFailed, got.Status)
	assert.Contains(t, got.LastError, "i/o timeout")
}

func TestCheckActivation(t *testing.T) {
	resolver := &fakeResolver{txt: map[string][]string{}, cname: map[string]string{}}
	issuer := &fakeIssuer{}
	svc, db := newService(t, resolver, issuer)
	ctx := context.Background()

	d, err := svc.Create(ctx, 1, "www.casanova.com.br")
	require.NoError(t, err)

	// must be verified first
	_, err = svc.CheckActivation(ctx, 1, d.ID)
	assert.Error(t, err)

	resolver.txt["_sitebuilder-verify.www.casanova.com.br"] = []string{d.VerificationToken}
	_, err = svc.Verify(ctx, 1, d.ID)
	require.NoError(t, err)
	_, err = svc.SetPrimary(ctx, 1, d.ID)
	require.NoError(t, err)
	assert.Empty(t, companyDomain(t, db, 1), "primary is synced only once active")

	// CNAME missing → stays verified, no certificate requested
	got, err := svc.CheckActivation(ctx, 1, d.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DomainStatusVerified, got.Status)
	assert.False(t, got.DNSConfigured)
	assert.Contains(t, got.LastError, target)
	assert.Equal(t, 0, issuer.calls)

	resolver.cname["www.casanova.com.br"] = target
	got, err = svc.CheckActivation(ctx, 1, d.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DomainStatusActive, got.Status)
	assert.True(t, got.DNSConfigured)
	assert.True(t, got.SSLEnabled)
	assert.NotNil(t, got.ActivatedAt)
	assert.Equal(t, 1, issuer.calls)
	assert.Equal(t, "www.casanova.com.br", companyDomain(t, db, 1))

	// re-check of an active domain keeps the certificate
	_, err = svc.CheckActivation(ctx, 1, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, issuer.calls)
}

func TestCheckActivation_IssuerFailureKeepsVerified(t *testing.T) {
	resolver := &fakeResolver{
		txt:   map[string][]string{},
		cname: map[string]string{"casanova.com.br": target},
	}
	svc, _ := newService(t, resolver, &fakeIssuer{err: errors.New("rate limited")})
	ctx := context.Background()

	d, err := svc.Create(ctx, 1, "casanova.com.br")
	require.NoError(t, err)
	resolver.txt["_sitebuilder-verify.casanova.com.br"] = []string{d.VerificationToken}
	_, err = svc.Verify(ctx, 1, d.ID)
	require.NoError(t, err)

	got, err := svc.CheckActivation(ctx, 1, d.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DomainStatusVerified, got.Status)
	assert.True(t, got.DNSConfigured)
	assert.False(t, got.SSLEnabled)
	assert.Contains(t, got.LastError, "rate limited")
}

func activate(t *testing.T, db *gorm.DB, id int) {
	t.Helper()
	require.NoError(t, db.Model(&model.CustomDomain{}).Where("id = ?", id).Update("status", model.DomainStatusActive).Error)
}

func TestSetPrimary_AtMostOne(t *testing.T) {
	svc, db := newService(t, &fakeResolver{}, nil)
	ctx := context.Background()

	a, err := svc.Create(ctx, 1, "casanova.com.br")
	require.NoError(t, err)
	b, err := svc.Create(ctx, 1, "www.casanova.com.br")
	require.NoError(t, err)
	other, err := svc.Create(ctx, 2, "outra.com.br")
	require.NoError(t, err)
	activate(t, db, a.ID)
	activate(t, db, b.ID)

	_, err = svc.SetPrimary(ctx, 2, other.ID)
	require.NoError(t, err)
	_, err = svc.SetPrimary(ctx, 1, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "casanova.com.br", companyDomain(t, db, 1))

	_, err = svc.SetPrimary(ctx, 1, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "www.casanova.com.br", companyDomain(t, db, 1))

	var primaries []int
	require.NoError(t, db.Model(&model.CustomDomain{}).Where("company_id = ? AND is_primary = ?", 1, true).Pluck("id", &primaries).Error)
	assert.Equal(t, []int{b.ID}, primaries)

	// other company untouched
	reloaded, err := svc.Get(ctx, 2, other.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsPrimary)
}

func TestDisableAndDelete_ClearCompanyDomain(t *testing.T) {
	svc, db := newService(t, &fakeResolver{}, nil)
	ctx := context.Background()

	d, err := svc.Create(ctx, 1, "casanova.com.br")
	require.NoError(t, err)
	activate(t, db, d.ID)
	_, err = svc.SetPrimary(ctx, 1, d.ID)
	require.NoError(t, err)
	require.Equal(t, "casanova.com.br", companyDomain(t, db, 1))

	got, err := svc.Disable(ctx, 1, d.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DomainStatusDisabled, got.Status)
	assert.Empty(t, companyDomain(t, db, 1))

	_, err = svc.Disable(ctx, 1, d.ID)
	assert.Error(t, err, "already disabled")
	_, err = svc.SetPrimary(ctx, 1, d.ID)
	assert.Error(t, err)

	require.NoError(t, svc.Delete(ctx, 1, d.ID))
	_, err = svc.Get(ctx, 1, d.ID)
	assert.Error(t, err)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition("verify", model.DomainStatusDisabled))
	assert.False(t, CanTransition("verify", model.DomainStatusActive))
	assert.True(t, CanTransition("activate", model.DomainStatusActive))
	assert.False(t, CanTransition("activate", model.DomainStatusPending))
	assert.False(t, CanTransition("disable", model.DomainStatusDisabled))
	assert.False(t, CanTransition("unknown", model.DomainStatusPending))
}

func TestWorker_RunOnce(t *testing.T) {
	resolver := &fakeResolver{txt: map[string][]string{}, cname: map[string]string{}}
	svc, _ := newService(t, resolver, nil)
	ctx := context.Background()

	ready, err := svc.Create(ctx, 1, "casanova.com.br")
	require.NoError(t, err)
	waiting, err := svc.Create(ctx, 1, "www.casanova.com.br")
	require.NoError(t, err)
	resolver.txt["_sitebuilder-verify.casanova.com.br"] = []string{ready.VerificationToken}
	resolver.cname["casanova.com.br"] = target

	w := NewWorker(svc, WorkerConfig{BatchSize: 10})
	w.RunOnce(ctx)

	got, err := svc.Get(ctx, 1, ready.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DomainStatusActive, got.Status, "verified and activated in one round")

	got, err = svc.Get(ctx, 1, waiting.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DomainStatusFailed, got.Status)
}
