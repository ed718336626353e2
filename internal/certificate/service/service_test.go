package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"marriage-registry/internal/certificate/cache"
	"marriage-registry/internal/certificate/events"
	"marriage-registry/internal/certificate/metrics"
	"marriage-registry/internal/certificate/models"
	"marriage-registry/internal/certificate/service"
	"marriage-registry/internal/certificate/store"
	"marriage-registry/pkg/certno"
	id "marriage-registry/pkg/domain"
	dErrors "marriage-registry/pkg/domain-errors"
	"marriage-registry/pkg/requestcontext"
	tu "marriage-registry/pkg/testutil"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type brokenCache struct{}

func (brokenCache) Find(context.Context, string) (*models.Verification, error) {
	return nil, errors.New("redis: connection refused")
}
func (brokenCache) Save(context.Context, *models.Verification) error {
	return errors.New("redis: connection refused")
}
func (brokenCache) Invalidate(context.Context, string) error {
	return errors.New("redis: connection refused")
}

// barrierStore holds every FindByID caller until all expected callers have
// read, so each one sees the certificate in the same state.
type barrierStore struct {
	*store.InMemoryStore
	reads *sync.WaitGroup
}

func (b barrierStore) FindByID(ctx context.Context, certID id.CertificateID) (*models.Certificate, error) {
	c, err := b.InMemoryStore.FindByID(ctx, certID)
	b.reads.Done()
	b.reads.Wait()
	return c, err
}

// ServiceSuite exercises issuance, revocation and verification against the
// in-memory store and cache.
//
// Justification: the public lookup must resolve either written form of a
// number to the same registered certificate, must never reveal full party
// names, and must reflect a revocation immediately even with a warm cache.
type ServiceSuite struct {
	suite.Suite
	ctx       context.Context
	store     *store.InMemoryStore
	cache     *cache.MemoryCache
	publisher *recordingPublisher
	metrics   *metrics.Metrics
	service   *service.Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), tu.FixedTime)
	s.ctx = requestcontext.WithActor(s.ctx, "registrar-7")
	s.ctx = requestcontext.WithRequestID(s.ctx, "req-1")
	s.store = store.NewInMemoryStore()
	s.metrics = metrics.New(nil)
	s.cache = cache.NewMemoryCache(time.Hour, cache.WithMetrics(s.metrics))
	s.publisher = &recordingPublisher{}
	s.service = service.New(s.store,
		service.WithCache(s.cache),
		service.WithPublisher(s.publisher),
		service.WithMetrics(s.metrics),
	)
}

func (s *ServiceSuite) issueCommand() models.IssueCommand {
	return models.IssueCommand{
		Number:       certno.Number{Book: "I", Volume: "1", Serial: "16", Page: "21"},
		PartyOne:     "  Asha Devi Roy ",
		PartyTwo:     "Rahul Sen",
		MarriageDate: time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
	}
}

func (s *ServiceSuite) issue() *models.Certificate {
	cert, err := s.service.Issue(s.ctx, s.issueCommand())
	s.Require().NoError(err)
	return cert
}

func (s *ServiceSuite) TestIssue() {
	cert := s.issue()

	s.False(cert.ID.IsNil())
	s.Equal("WBMSDBRWI11621", cert.CanonicalNumber)
	s.Equal("Asha Devi Roy", cert.PartyOne)
	s.Equal(models.StatusActive, cert.Status)
	s.Equal("registrar-7", cert.IssuedBy)
	s.True(cert.RegisteredAt.Equal(tu.FixedTime))

	stored, err := s.store.FindByCanonical(s.ctx, "WBMSDBRWI11621")
	s.Require().NoError(err)
	s.Equal(cert.ID, stored.ID)

	s.Equal([]events.Type{events.TypeIssued}, s.publisher.types())
	s.Equal("req-1", s.publisher.events[0].RequestID)
	s.InDelta(1, testutil.ToFloat64(s.metrics.CertificatesIssued), 0)
}

func (s *ServiceSuite) TestIssueRejectsSameCanonicalNumber() {
	s.issue()

	// Volume 11 serial 6 concatenates to the same compact text as volume 1
	// serial 16.
	cmd := s.issueCommand()
	cmd.Number = certno.Number{Book: "I", Volume: "11", Serial: "6", Page: "21"}
	_, err := s.service.Issue(s.ctx, cmd)

	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.Len(s.publisher.types(), 1)
}

func (s *ServiceSuite) TestIssueConcurrentDuplicates() {
	result := tu.RunConcurrent(20, func(int) error {
		_, err := s.service.Issue(s.ctx, s.issueCommand())
		return err
	})

	s.Equal(int32(1), result.Successes)
	s.Equal(int32(19), result.Conflicts)
	s.Zero(result.Errors)
}

func (s *ServiceSuite) TestIssueValidation() {
	tests := []struct {
		name   string
		mutate func(*models.IssueCommand)
		want   string
	}{
		{"book outside I..L", func(c *models.IssueCommand) { c.Number.Book = "LI" }, "book_number"},
		{"missing book", func(c *models.IssueCommand) { c.Number.Book = "" }, "book_number"},
		{"only a book", func(c *models.IssueCommand) { c.Number = certno.Number{Book: "II"} }, "at least one field"},
		{"two digit volume year", func(c *models.IssueCommand) { c.Number.VolumeYear = "20" }, "volume_year"},
		{"non-numeric serial year", func(c *models.IssueCommand) { c.Number.SerialYear = "20x0" }, "serial_year"},
		{"numeric volume letter", func(c *models.IssueCommand) { c.Number.VolumeLetter = "3" }, "volume_letter"},
		{"hyphen inside a field", func(c *models.IssueCommand) { c.Number.Serial = "1-6" }, "serial_number"},
		{"blank party", func(c *models.IssueCommand) { c.PartyTwo = "   " }, "party_two"},
		{"missing marriage date", func(c *models.IssueCommand) { c.MarriageDate = time.Time{} }, "marriage_date"},
		{"marriage after registration", func(c *models.IssueCommand) { c.MarriageDate = tu.FixedTime.AddDate(0, 0, 1) }, "marriage_date"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			cmd := s.issueCommand()
			tt.mutate(&cmd)
			_, err := s.service.Issue(s.ctx, cmd)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation), "got %v", err)
			s.Contains(err.Error(), tt.want)
		})
	}
}

func (s *ServiceSuite) TestVerifyEitherForm() {
	s.issue()

	for _, raw := range []string{"WB-MSD-BRW-I-1-16-21", "WBMSDBRWI11621", "  WB-MSD-BRW-I-1-16-21\n"} {
		s.Run(raw, func() {
			v, err := s.service.Verify(s.ctx, raw)
			s.Require().NoError(err)
			s.Equal("WBMSDBRWI11621", v.CanonicalNumber)
			s.Equal(models.StatusActive, v.Status)
			s.Equal("2024-01-20", v.MarriageDate)
			s.Equal("A*** D*** R***", v.PartyOneMasked)
			s.Equal("R*** S***", v.PartyTwoMasked)
			s.True(v.CheckedAt.Equal(tu.FixedTime))
		})
	}

	s.InDelta(1, testutil.ToFloat64(s.metrics.CacheMissesTotal), 0)
	s.InDelta(2, testutil.ToFloat64(s.metrics.CacheHitsTotal), 0)
	s.InDelta(3, testutil.ToFloat64(s.metrics.Verifications.WithLabelValues(metrics.OutcomeVerified)), 0)
}

func (s *ServiceSuite) TestVerifyUnrecognised() {
	for _, raw := range []string{"", "XX-1-2-3", "WBMSDBRW", "WB-MSD-BRW-", "WB-MSD-BRW-99-1-16-21"} {
		s.Run(raw, func() {
			_, err := s.service.Verify(s.ctx, raw)
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput), "got %v", err)
		})
	}
}

func (s *ServiceSuite) TestVerifyNotRegistered() {
	_, err := s.service.Verify(s.ctx, "WB-MSD-BRW-II-4-7-9")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.InDelta(1, testutil.ToFloat64(s.metrics.Verifications.WithLabelValues(metrics.OutcomeNotFound)), 0)
}

func (s *ServiceSuite) TestRevokeIsVisibleThroughWarmCache() {
	cert := s.issue()
	_, err := s.service.Verify(s.ctx, "WBMSDBRWI11621")
	s.Require().NoError(err)
	s.Equal(1, s.cache.Len())

	revoked, err := s.service.Revoke(s.ctx, cert.ID, "  issued in error ")
	s.Require().NoError(err)
	s.Equal(models.StatusRevoked, revoked.Status)
	s.Equal("issued in error", revoked.RevocationReason)
	s.Require().NotNil(revoked.RevokedAt)

	v, err := s.service.Verify(s.ctx, "WB-MSD-BRW-I-1-16-21")
	s.Require().NoError(err)
	s.Equal(models.StatusRevoked, v.Status)

	s.Equal([]events.Type{events.TypeIssued, events.TypeRevoked}, s.publisher.types())
	s.Equal("registrar-7", s.publisher.events[1].Actor)
	s.InDelta(1, testutil.ToFloat64(s.metrics.Verifications.WithLabelValues(metrics.OutcomeRevoked)), 0)
}

func (s *ServiceSuite) TestRevokeErrors() {
	cert := s.issue()

	_, err := s.service.Revoke(s.ctx, cert.ID, " ")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.service.Revoke(s.ctx, id.NewCertificateID(), "issued in error")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.service.Revoke(s.ctx, cert.ID, "issued in error")
	s.Require().NoError(err)
	_, err = s.service.Revoke(s.ctx, cert.ID, "again")
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestRevokeConcurrently() {
	cert := s.issue()

	result := tu.RunConcurrentCtx(s.ctx, 10, func(ctx context.Context, _ int) error {
		_, err := s.service.Revoke(ctx, cert.ID, "issued in error")
		return err
	})

	s.Equal(int32(1), result.Successes)
	s.Equal(int32(9), result.Conflicts)
	s.InDelta(1, testutil.ToFloat64(s.metrics.CertificatesRevoked), 0)
	s.Equal([]events.Type{events.TypeIssued, events.TypeRevoked}, s.publisher.types())
}

func (s *ServiceSuite) TestRevokeAcrossInstancesSharingAStore() {
	cert := s.issue()

	reads := &sync.WaitGroup{}
	reads.Add(2)
	shared := barrierStore{InMemoryStore: s.store, reads: reads}
	instances := []*service.Service{service.New(shared), service.New(shared)}
	reasons := []string{"entered twice", "clerical error"}

	errs := make([]error, len(instances))
	var wg sync.WaitGroup
	for i, svc := range instances {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.Revoke(s.ctx, cert.ID, reasons[i])
		}()
	}
	wg.Wait()

	winner := -1
	for i, err := range errs {
		if err == nil {
			s.Equal(-1, winner, "only one revocation may succeed")
			winner = i
			continue
		}
		s.True(dErrors.HasCode(err, dErrors.CodeConflict), "loser must see a conflict, got %v", err)
	}
	s.Require().NotEqual(-1, winner, "one revocation must succeed")

	stored, err := s.store.FindByID(s.ctx, cert.ID)
	s.Require().NoError(err)
	s.True(stored.IsRevoked())
	s.Equal(reasons[winner], stored.RevocationReason)
}

func (s *ServiceSuite) TestPublishFailureDoesNotFailOperations() {
	s.publisher.err = errors.New("broker unreachable")

	cert := s.issue()
	_, err := s.service.Revoke(s.ctx, cert.ID, "issued in error")
	s.NoError(err)
}

func (s *ServiceSuite) TestVerifyWorksWhenCacheIsDown() {
	svc := service.New(s.store, service.WithCache(brokenCache{}))
	cert := s.issue()

	v, err := svc.Verify(s.ctx, "WBMSDBRWI11621")
	s.Require().NoError(err)
	s.Equal(models.StatusActive, v.Status)

	_, err = svc.Revoke(s.ctx, cert.ID, "issued in error")
	s.NoError(err)
}

func (s *ServiceSuite) TestGetAndList() {
	first := s.issue()
	cmd := s.issueCommand()
	cmd.Number.Page = "22"
	later := requestcontext.WithTime(s.ctx, tu.FixedTime.Add(time.Hour))
	second, err := s.service.Issue(later, cmd)
	s.Require().NoError(err)

	got, err := s.service.Get(s.ctx, first.ID)
	s.Require().NoError(err)
	s.Equal(first.CanonicalNumber, got.CanonicalNumber)

	_, err = s.service.Get(s.ctx, id.NewCertificateID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	page, err := s.service.List(s.ctx, -5, 0)
	s.Require().NoError(err)
	s.Equal(0, page.Offset)
	s.Equal(50, page.Limit)
	s.Equal(2, page.Total)
	s.Require().Len(page.Certificates, 2)
	s.Equal(first.ID, page.Certificates[0].ID)
	s.Equal(second.ID, page.Certificates[1].ID)

	page, err = s.service.List(s.ctx, 2, 1000)
	s.Require().NoError(err)
	s.Equal(200, page.Limit)
	s.NotNil(page.Certificates)
	s.Empty(page.Certificates)
}

func (s *ServiceSuite) TestDecode() {
	tests := []struct {
		name string
		raw  string
		want models.Decoded
	}{
		{
			name: "legacy",
			raw:  "WB-MSD-BRW-I-1-C-16-21",
			want: models.Decoded{
				Form:      certno.FormLegacy,
				Number:    certno.Number{Book: "I", Volume: "1", VolumeLetter: "C", Serial: "16", Page: "21"},
				Canonical: "WBMSDBRWI1C1621",
			},
		},
		{
			name: "legacy with too few segments",
			raw:  "WB-MSD-BRW-I-1",
			want: models.Decoded{Form: certno.FormLegacy, Number: certno.Default(), Defaulted: true},
		},
		{
			name: "compact",
			raw:  "WBMSDBRWXIV1C1621",
			want: models.Decoded{
				Form:      certno.FormCompact,
				Number:    certno.Number{Book: "XIV"},
				Canonical: "WBMSDBRWXIV1C1621",
				Compact:   &certno.Compact{Book: "XIV", Tail: "1C1621"},
			},
		},
		{
			name: "compact without a book",
			raw:  "WBMSDBRW1621",
			want: models.Decoded{Form: certno.FormCompact, Number: certno.Default(), Defaulted: true},
		},
		{
			name: "unknown",
			raw:  "hello",
			want: models.Decoded{Form: certno.FormUnknown, Number: certno.Default(), Defaulted: true},
		},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.Equal(&tt.want, s.service.Decode(tt.raw))
		})
	}
}

func (s *ServiceSuite) TestPreviewAndBooks() {
	s.Equal("WBMSDBRWII2020", s.service.Preview(certno.Number{Book: "II", SerialYear: "2020"}))
	s.Equal("WBMSDBRWI", s.service.Preview(certno.Number{}))

	books := s.service.Books()
	s.Len(books, certno.MaxBook)
	s.Equal(certno.Book{Ordinal: 40, Numeral: "XL"}, books[39])
}
