package feed

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	docmodels "caretrust/internal/document/models"
	docstore "caretrust/internal/document/store"
	entitymodels "caretrust/internal/entity/models"
	entitystore "caretrust/internal/entity/store"
	"caretrust/internal/registry"
	"caretrust/pkg/domain"
	"caretrust/pkg/requestcontext"
)

type FeedSuite struct {
	suite.Suite

	ctx      context.Context
	now      time.Time
	docs     *docstore.InMemory
	entities *entitystore.InMemory
	builder  *Builder
}

func TestFeedSuite(t *testing.T) {
	suite.Run(t, new(FeedSuite))
}

func (s *FeedSuite) SetupTest() {
	s.now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.docs = docstore.NewInMemory()
	s.entities = entitystore.NewInMemory()
	s.builder = NewBuilder(s.docs, s.entities, registry.New())
}

func (s *FeedSuite) seedEntity(kind domain.EntityKind, name string, verified bool) *entitymodels.Entity {
	e := &entitymodels.Entity{
		ID:         domain.NewEntityID(),
		Kind:       kind,
		Name:       name,
		Email:      "owner@example.com",
		IsVerified: verified,
		CreatedAt:  s.now.Add(-30 * 24 * time.Hour),
	}
	s.Require().NoError(s.entities.Put(s.ctx, e))
	return e
}

func (s *FeedSuite) seedDocument(e *entitymodels.Entity, docType string, status docmodels.VerificationStatus, age time.Duration) *docmodels.Document {
	doc := &docmodels.Document{
		ID:                 domain.NewDocumentID(),
		EntityID:           e.ID,
		Kind:               e.Kind,
		Type:               docType,
		VerificationStatus: status,
		Status:             docmodels.CurrentStatus(e.Kind),
		CreatedAt:          s.now.Add(-age),
		UpdatedAt:          s.now.Add(-age),
	}
	s.Require().NoError(s.docs.Put(s.ctx, doc))
	return doc
}

func (s *FeedSuite) byCategory(list []Notification, category Category) []Notification {
	var out []Notification
	for _, n := range list {
		if n.Category == category {
			out = append(out, n)
		}
	}
	return out
}

func (s *FeedSuite) TestStalePendingDocumentSkipsUploadButNeedsReview() {
	e := s.seedEntity(domain.KindDoctor, "Dr Adeyemi", false)
	doc := s.seedDocument(e, "gmc_registration", docmodels.VerificationPending, 10*24*time.Hour)

	feed, err := s.builder.Build(s.ctx, AdminGlobal())
	s.Require().NoError(err)

	s.Empty(s.byCategory(feed, CategoryUpload))

	review := s.byCategory(feed, CategoryReview)
	s.Require().Len(review, 1)
	s.Equal(SeverityError, review[0].Type)
	s.Equal(documentNotificationID(CategoryReview, doc.ID), review[0].ID)
	s.True(review[0].ActionRequired)
	s.False(review[0].Read)
}

func (s *FeedSuite) TestSingleRecentUploadGetsDetailEntry() {
	e := s.seedEntity(domain.KindDoctor, "Dr Adeyemi", false)
	doc := s.seedDocument(e, "cv", docmodels.VerificationVerified, 24*time.Hour)

	feed, err := s.builder.Build(s.ctx, AdminGlobal())
	s.Require().NoError(err)

	uploads := s.byCategory(feed, CategoryUpload)
	s.Require().Len(uploads, 1)
	s.Equal(SeveritySuccess, uploads[0].Type)
	s.Equal(documentNotificationID(CategoryUpload, doc.ID), uploads[0].ID)
	s.Contains(uploads[0].Message, "Dr Adeyemi")
	s.Contains(uploads[0].Message, "Curriculum Vitae")
}

func (s *FeedSuite) TestMultipleRecentUploadsFoldIntoSummary() {
	e := s.seedEntity(domain.KindDoctor, "Dr Adeyemi", false)
	s.seedDocument(e, "cv", docmodels.VerificationVerified, 24*time.Hour)
	s.seedDocument(e, "photo_id", docmodels.VerificationVerified, 48*time.Hour)

	feed, err := s.builder.Build(s.ctx, AdminGlobal())
	s.Require().NoError(err)

	uploads := s.byCategory(feed, CategoryUpload)
	s.Require().Len(uploads, 1)
	s.Equal(SeverityInfo, uploads[0].Type)
	s.Equal(summaryNotificationID(CategoryUpload, e.ID), uploads[0].ID)
	s.Contains(uploads[0].Message, "2 documents")
}

func (s *FeedSuite) TestFreshPendingDocumentsGroupIntoWarning() {
	e := s.seedEntity(domain.KindBusiness, "Elm Clinic", false)
	s.seedDocument(e, "business_license", docmodels.VerificationPending, 24*time.Hour)
	s.seedDocument(e, "insurance_certificate", docmodels.VerificationPending, 36*time.Hour)

	feed, err := s.builder.Build(s.ctx, AdminGlobal())
	s.Require().NoError(err)

	review := s.byCategory(feed, CategoryReview)
	s.Require().Len(review, 1)
	s.Equal(SeverityWarning, review[0].Type)
	s.Equal(summaryNotificationID(CategoryReview, e.ID), review[0].ID)
	s.Contains(review[0].Message, "Business License")
	s.Contains(review[0].Message, "Insurance Certificate")
}

func (s *FeedSuite) TestExpiredNotYetFlaggedIsReported() {
	e := s.seedEntity(domain.KindBusiness, "Elm Clinic", true)
	doc := s.seedDocument(e, "insurance_certificate", docmodels.VerificationVerified, 300*24*time.Hour)
	past := s.now.Add(-48 * time.Hour)
	doc.AutoExpiry = true
	doc.ExpiryDate = &past
	s.Require().NoError(s.docs.Put(s.ctx, doc))

	feed, err := s.builder.Build(s.ctx, AdminGlobal())
	s.Require().NoError(err)

	expired := s.byCategory(feed, CategoryExpired)
	s.Require().Len(expired, 1)
	s.Equal(SeverityError, expired[0].Type)
	s.Contains(expired[0].Message, "Insurance Certificate")
}

func (s *FeedSuite) TestAlreadyFlaggedExpiredIsSuppressed() {
	e := s.seedEntity(domain.KindBusiness, "Elm Clinic", false)
	doc := s.seedDocument(e, "insurance_certificate", docmodels.VerificationVerified, 300*24*time.Hour)
	past := s.now.Add(-48 * time.Hour)
	doc.AutoExpiry = true
	doc.ExpiryDate = &past
	doc.Status = docmodels.StatusExpired
	doc.DaysUntilExpiry = -2
	s.Require().NoError(s.docs.Put(s.ctx, doc))

	feed, err := s.builder.Build(s.ctx, AdminGlobal())
	s.Require().NoError(err)

	s.Empty(s.byCategory(feed, CategoryExpired))
}

func (s *FeedSuite) TestExpiringSplitByUrgency() {
	e := s.seedEntity(domain.KindDoctor, "Dr Adeyemi", true)

	urgent := s.seedDocument(e, "indemnity_insurance", docmodels.VerificationVerified, 300*24*time.Hour)
	in2d := s.now.Add(2 * 24 * time.Hour)
	urgent.AutoExpiry = true
	urgent.ExpiryDate = &in2d
	s.Require().NoError(s.docs.Put(s.ctx, urgent))

	later := s.seedDocument(e, "dbs_check", docmodels.VerificationVerified, 300*24*time.Hour)
	in5d := s.now.Add(5 * 24 * time.Hour)
	later.AutoExpiry = true
	later.ExpiryDate = &in5d
	s.Require().NoError(s.docs.Put(s.ctx, later))

	feed, err := s.builder.Build(s.ctx, AdminGlobal())
	s.Require().NoError(err)

	expiring := s.byCategory(feed, CategoryExpiring)
	s.Require().Len(expiring, 2)

	var perDoc, grouped *Notification
	for i := range expiring {
		switch expiring[i].ID {
		case documentNotificationID(CategoryExpiring, urgent.ID):
			perDoc = &expiring[i]
		case summaryNotificationID(CategoryExpiring, e.ID):
			grouped = &expiring[i]
		}
	}
	s.Require().NotNil(perDoc)
	s.Require().NotNil(grouped)
	s.Equal(SeverityError, perDoc.Type)
	s.Equal(SeverityWarning, grouped.Type)
	s.Contains(grouped.Message, "DBS Check")
}

func (s *FeedSuite) TestRejectedSeverityDependsOnAudience() {
	e := s.seedEntity(domain.KindDoctor, "Dr Adeyemi", false)
	s.seedDocument(e, "references", docmodels.VerificationRejected, 2*24*time.Hour)

	adminFeed, err := s.builder.Build(s.ctx, AdminGlobal())
	s.Require().NoError(err)
	adminRejected := s.byCategory(adminFeed, CategoryRejected)
	s.Require().Len(adminRejected, 1)
	s.Equal(SeverityWarning, adminRejected[0].Type)

	ownerFeed, err := s.builder.Build(s.ctx, OwnerOf(e.ID, e.Kind))
	s.Require().NoError(err)
	ownerRejected := s.byCategory(ownerFeed, CategoryRejected)
	s.Require().Len(ownerRejected, 1)
	s.Equal(SeverityError, ownerRejected[0].Type)
	s.True(ownerRejected[0].ActionRequired)
}

func (s *FeedSuite) TestOldRejectionFallsOutOfFeed() {
	e := s.seedEntity(domain.KindDoctor, "Dr Adeyemi", false)
	s.seedDocument(e, "references", docmodels.VerificationRejected, 20*24*time.Hour)

	feed, err := s.builder.Build(s.ctx, AdminGlobal())
	s.Require().NoError(err)
	s.Empty(s.byCategory(feed, CategoryRejected))
}

func (s *FeedSuite) TestComplianceRequiresBlockedDocuments() {
	blocked := s.seedEntity(domain.KindBusiness, "Elm Clinic", false)
	s.seedDocument(blocked, "business_license", docmodels.VerificationPending, 24*time.Hour)

	// only missing documents, nothing pending/rejected/expired
	missingOnly := s.seedEntity(domain.KindBusiness, "Oak Clinic", false)
	s.seedDocument(missingOnly, "business_license", docmodels.VerificationVerified, 24*time.Hour)

	empty := s.seedEntity(domain.KindBusiness, "No Docs Ltd", false)
	_ = empty

	feed, err := s.builder.Build(s.ctx, AdminGlobal())
	s.Require().NoError(err)

	compliance := s.byCategory(feed, CategoryCompliance)
	s.Require().Len(compliance, 1)
	s.Equal(entityNotificationID(CategoryCompliance, blocked.ID), compliance[0].ID)
	s.Contains(compliance[0].Message, "Elm Clinic")
}

func (s *FeedSuite) TestComplianceCapBoundsAdminFeed() {
	for i := 0; i < ComplianceCap+5; i++ {
		e := s.seedEntity(domain.KindBusiness, fmt.Sprintf("Clinic %02d", i), false)
		s.seedDocument(e, "business_license", docmodels.VerificationPending, 10*24*time.Hour)
	}

	feed, err := s.builder.Build(s.ctx, AdminGlobal())
	s.Require().NoError(err)

	s.Len(s.byCategory(feed, CategoryCompliance), ComplianceCap)
}

func (s *FeedSuite) TestOwnerFeedOnlySeesOwnDocuments() {
	mine := s.seedEntity(domain.KindDoctor, "Dr Adeyemi", false)
	s.seedDocument(mine, "cv", docmodels.VerificationVerified, 24*time.Hour)

	other := s.seedEntity(domain.KindDoctor, "Dr Osei", false)
	s.seedDocument(other, "cv", docmodels.VerificationRejected, 24*time.Hour)

	feed, err := s.builder.Build(s.ctx, OwnerOf(mine.ID, mine.Kind))
	s.Require().NoError(err)

	s.Empty(s.byCategory(feed, CategoryRejected))
	uploads := s.byCategory(feed, CategoryUpload)
	s.Require().Len(uploads, 1)
	s.Contains(uploads[0].Message, "Dr Adeyemi")
}

func (s *FeedSuite) TestFeedOrderedBySeverityThenRecency() {
	e := s.seedEntity(domain.KindDoctor, "Dr Adeyemi", false)
	s.seedDocument(e, "cv", docmodels.VerificationVerified, 24*time.Hour)
	s.seedDocument(e, "references", docmodels.VerificationPending, 10*24*time.Hour)
	s.seedDocument(e, "photo_id", docmodels.VerificationPending, 24*time.Hour)
	s.seedDocument(e, "dbs_check", docmodels.VerificationRejected, 2*24*time.Hour)

	feed, err := s.builder.Build(s.ctx, AdminGlobal())
	s.Require().NoError(err)
	s.Require().NotEmpty(feed)

	lastRank := -1
	lastTime := time.Time{}
	for _, n := range feed {
		rank := severityRank[n.Type]
		s.GreaterOrEqual(rank, lastRank)
		if rank == lastRank {
			s.False(n.Timestamp.After(lastTime))
		}
		lastRank = rank
		lastTime = n.Timestamp
	}
	s.Equal(SeverityError, feed[0].Type)
}

func (s *FeedSuite) TestPanickingScanDropsOnlyItsCategory() {
	e := s.seedEntity(domain.KindDoctor, "Dr Adeyemi", false)
	s.seedDocument(e, "cv", docmodels.VerificationVerified, 24*time.Hour)

	orig := categoryScans
	defer func() { categoryScans = orig }()
	categoryScans = append([]struct {
		category Category
		scan     func(b *Builder, v *view) []Notification
	}{{CategoryReview, func(*Builder, *view) []Notification {
		panic("scan blew up")
	}}}, orig...)

	feed, err := s.builder.Build(s.ctx, AdminGlobal())
	s.Require().NoError(err)

	s.Empty(s.byCategory(feed, CategoryReview))
	s.Require().Len(s.byCategory(feed, CategoryUpload), 1)
}

func (s *FeedSuite) TestDeterministicAcrossCalls() {
	e := s.seedEntity(domain.KindBusiness, "Elm Clinic", false)
	s.seedDocument(e, "business_license", docmodels.VerificationPending, 24*time.Hour)
	s.seedDocument(e, "insurance_certificate", docmodels.VerificationRejected, 24*time.Hour)

	first, err := s.builder.Build(s.ctx, AdminGlobal())
	s.Require().NoError(err)
	second, err := s.builder.Build(s.ctx, AdminGlobal())
	s.Require().NoError(err)

	s.Equal(first, second)
}
