package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	agreementdomain "github.com/opsbill/tarifa/internal/agreement/domain"
	agreementrepository "github.com/opsbill/tarifa/internal/agreement/repository"
	"github.com/opsbill/tarifa/internal/clock"
	"github.com/opsbill/tarifa/internal/period"
	"github.com/opsbill/tarifa/internal/servicerequest/domain"
	"github.com/opsbill/tarifa/internal/servicerequest/repository"
	srtdomain "github.com/opsbill/tarifa/internal/servicerequesttype/domain"
	srtrepository "github.com/opsbill/tarifa/internal/servicerequesttype/repository"
	dbpkg "github.com/opsbill/tarifa/pkg/db"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, *gorm.DB, *clock.FakeClock) {
	t.Helper()

	db, err := dbpkg.NewTest()
	if err != nil {
		t.Fatalf("test db: %v", err)
	}
	err = db.AutoMigrate(
		&agreementdomain.Agreement{},
		&srtdomain.ServiceRequestType{},
		&domain.ServiceRequest{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	fc := clock.NewFakeClock(time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC))
	svc := &Service{
		db:         db,
		log:        zap.NewNop(),
		clock:      fc,
		genID:      node,
		repo:       repository.Provide(),
		agreements: agreementrepository.Provide(),
		types:      srtrepository.Provide(),
	}
	return svc, db, fc
}

func seedAgreement(t *testing.T, db *gorm.DB, svc *Service, state agreementdomain.State) agreementdomain.Agreement {
	t.Helper()
	agreement := agreementdomain.Agreement{
		ID:             svc.genID.Generate(),
		CustomerID:     svc.genID.Generate(),
		ProjectID:      svc.genID.Generate(),
		StartingPeriod: period.Period{Year: 2025, Month: time.June},
		EndingPeriod:   period.Period{Year: 2025, Month: time.December},
		State:          state,
		CreatedAt:      svc.clock.Now(),
		UpdatedAt:      svc.clock.Now(),
	}
	if err := db.Create(&agreement).Error; err != nil {
		t.Fatalf("seed agreement: %v", err)
	}
	return agreement
}

func seedType(t *testing.T, db *gorm.DB, svc *Service, fee float64) srtdomain.ServiceRequestType {
	t.Helper()
	srt := srtdomain.ServiceRequestType{
		ID:        svc.genID.Generate(),
		Name:      "support-" + svc.genID.Generate().String(),
		HourlyFee: fee,
		CreatedAt: svc.clock.Now(),
		UpdatedAt: svc.clock.Now(),
	}
	if err := db.Create(&srt).Error; err != nil {
		t.Fatalf("seed type: %v", err)
	}
	return srt
}

func TestCreateOnAgreementInCourse(t *testing.T) {
	svc, db, fc := newTestService(t)
	agreement := seedAgreement(t, db, svc, agreementdomain.StateInCourse)
	srt := seedType(t, db, svc, 10.0)

	sr, err := svc.Create(context.Background(), domain.CreateServiceRequestRequest{
		AgreementID: agreement.ID.String(),
		TypeID:      srt.ID.String(),
		Description: "fix the widget",
	})
	assert.NoError(t, err)
	assert.Equal(t, domain.StateToDo, sr.State)
	assert.NotNil(t, sr.RegisteredAt)
	assert.Equal(t, fc.Now(), sr.RegisteredAt.UTC())
	assert.Nil(t, sr.FinishedAt)
}

func TestCreateFlipsAcceptedAgreementInCourse(t *testing.T) {
	svc, db, _ := newTestService(t)
	agreement := seedAgreement(t, db, svc, agreementdomain.StateAccepted)
	srt := seedType(t, db, svc, 10.0)

	_, err := svc.Create(context.Background(), domain.CreateServiceRequestRequest{
		AgreementID: agreement.ID.String(),
		TypeID:      srt.ID.String(),
		Description: "first request",
	})
	assert.NoError(t, err)

	var state string
	assert.NoError(t, db.Raw(`SELECT state FROM agreements WHERE id = ?`, agreement.ID).Scan(&state).Error)
	assert.Equal(t, string(agreementdomain.StateInCourse), state)
}

func TestCreateRejectsUnavailableAgreement(t *testing.T) {
	svc, db, _ := newTestService(t)
	srt := seedType(t, db, svc, 10.0)

	for _, state := range []agreementdomain.State{agreementdomain.StateProvisional, agreementdomain.StateFinished} {
		agreement := seedAgreement(t, db, svc, state)
		_, err := svc.Create(context.Background(), domain.CreateServiceRequestRequest{
			AgreementID: agreement.ID.String(),
			TypeID:      srt.ID.String(),
			Description: "request",
		})
		assert.ErrorIs(t, err, domain.ErrAgreementNotAvailable, "agreement state %s", state)
	}
}

func TestCreateRejectsRetiredType(t *testing.T) {
	svc, db, fc := newTestService(t)
	agreement := seedAgreement(t, db, svc, agreementdomain.StateInCourse)
	srt := seedType(t, db, svc, 10.0)

	deletedAt := fc.Now()
	assert.NoError(t, db.Exec(`UPDATE service_request_types SET soft_deleted_at = ? WHERE id = ?`, deletedAt, srt.ID).Error)

	_, err := svc.Create(context.Background(), domain.CreateServiceRequestRequest{
		AgreementID: agreement.ID.String(),
		TypeID:      srt.ID.String(),
		Description: "request",
	})
	assert.ErrorIs(t, err, domain.ErrTypeNotAvailable)
}

func TestLifecycleStartFinish(t *testing.T) {
	svc, db, fc := newTestService(t)
	agreement := seedAgreement(t, db, svc, agreementdomain.StateInCourse)
	srt := seedType(t, db, svc, 10.0)

	sr, err := svc.Create(context.Background(), domain.CreateServiceRequestRequest{
		AgreementID: agreement.ID.String(),
		TypeID:      srt.ID.String(),
		Description: "request",
	})
	assert.NoError(t, err)

	ref := domain.GetServiceRequestRequest{ID: sr.ID.String()}

	// Cannot finish before starting.
	_, err = svc.Finish(context.Background(), ref)
	assert.ErrorIs(t, err, domain.ErrNotInProgress)

	started, err := svc.Start(context.Background(), ref)
	assert.NoError(t, err)
	assert.Equal(t, domain.StateInProgress, started.State)

	_, err = svc.Start(context.Background(), ref)
	assert.ErrorIs(t, err, domain.ErrAlreadyStarted)

	fc.Advance(2 * time.Hour)
	finished, err := svc.Finish(context.Background(), ref)
	assert.NoError(t, err)
	assert.Equal(t, domain.StateDone, finished.State)
	assert.NotNil(t, finished.FinishedAt)
	assert.Equal(t, 2*time.Hour, finished.FinishedAt.Sub(*finished.RegisteredAt))
}

func TestDeleteOnlyToDo(t *testing.T) {
	svc, db, _ := newTestService(t)
	agreement := seedAgreement(t, db, svc, agreementdomain.StateInCourse)
	srt := seedType(t, db, svc, 10.0)

	sr, err := svc.Create(context.Background(), domain.CreateServiceRequestRequest{
		AgreementID: agreement.ID.String(),
		TypeID:      srt.ID.String(),
		Description: "request",
	})
	assert.NoError(t, err)

	ref := domain.GetServiceRequestRequest{ID: sr.ID.String()}
	_, err = svc.Start(context.Background(), ref)
	assert.NoError(t, err)

	err = svc.Delete(context.Background(), ref)
	assert.ErrorIs(t, err, domain.ErrAlreadyStarted)

	sr2, err := svc.Create(context.Background(), domain.CreateServiceRequestRequest{
		AgreementID: agreement.ID.String(),
		TypeID:      srt.ID.String(),
		Description: "other request",
	})
	assert.NoError(t, err)

	assert.NoError(t, svc.Delete(context.Background(), domain.GetServiceRequestRequest{ID: sr2.ID.String()}))
	_, err = svc.GetByID(context.Background(), domain.GetServiceRequestRequest{ID: sr2.ID.String()})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFindBillable(t *testing.T) {
	svc, db, fc := newTestService(t)
	srt := seedType(t, db, svc, 10.0)
	p := period.Period{Year: 2025, Month: time.June}

	finishRequest := func(agreement agreementdomain.Agreement, d time.Duration) domain.ServiceRequest {
		sr, err := svc.Create(context.Background(), domain.CreateServiceRequestRequest{
			AgreementID: agreement.ID.String(),
			TypeID:      srt.ID.String(),
			Description: "work",
		})
		assert.NoError(t, err)
		ref := domain.GetServiceRequestRequest{ID: sr.ID.String()}
		_, err = svc.Start(context.Background(), ref)
		assert.NoError(t, err)
		fc.Advance(d)
		finished, err := svc.Finish(context.Background(), ref)
		assert.NoError(t, err)
		return finished
	}

	inCourse := seedAgreement(t, db, svc, agreementdomain.StateInCourse)
	done := finishRequest(inCourse, 2*time.Hour)

	// A second DONE request under a finished agreement still bills.
	finishedAgreement := seedAgreement(t, db, svc, agreementdomain.StateInCourse)
	finishRequest(finishedAgreement, time.Hour)
	assert.NoError(t, db.Exec(`UPDATE agreements SET state = ? WHERE id = ?`, agreementdomain.StateFinished, finishedAgreement.ID).Error)

	// Still in progress, not billable.
	openSR, err := svc.Create(context.Background(), domain.CreateServiceRequestRequest{
		AgreementID: inCourse.ID.String(),
		TypeID:      srt.ID.String(),
		Description: "open work",
	})
	assert.NoError(t, err)
	_, err = svc.Start(context.Background(), domain.GetServiceRequestRequest{ID: openSR.ID.String()})
	assert.NoError(t, err)

	rows, err := svc.FindBillable(context.Background(), inCourse.CustomerID, p, nil)
	assert.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, done.ID, rows[0].ID)
	assert.Equal(t, srt.Name, rows[0].TypeName)
	assert.Equal(t, 10.0, rows[0].HourlyFee)
	assert.Equal(t, 2.0, rows[0].Hours())

	rows, err = svc.FindBillable(context.Background(), finishedAgreement.CustomerID, p, nil)
	assert.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 1.0, rows[0].Hours())
}

func TestFindBillableExcludesOtherPeriods(t *testing.T) {
	svc, db, fc := newTestService(t)
	srt := seedType(t, db, svc, 10.0)
	agreement := seedAgreement(t, db, svc, agreementdomain.StateInCourse)

	sr, err := svc.Create(context.Background(), domain.CreateServiceRequestRequest{
		AgreementID: agreement.ID.String(),
		TypeID:      srt.ID.String(),
		Description: "late work",
	})
	assert.NoError(t, err)
	ref := domain.GetServiceRequestRequest{ID: sr.ID.String()}
	_, err = svc.Start(context.Background(), ref)
	assert.NoError(t, err)

	// Finishes in July; June's run must not pick it up.
	fc.Set(time.Date(2025, time.July, 2, 12, 0, 0, 0, time.UTC))
	_, err = svc.Finish(context.Background(), ref)
	assert.NoError(t, err)

	rows, err := svc.FindBillable(context.Background(), agreement.CustomerID, period.Period{Year: 2025, Month: time.June}, nil)
	assert.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = svc.FindBillable(context.Background(), agreement.CustomerID, period.Period{Year: 2025, Month: time.July}, nil)
	assert.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestFindBillableExcludesIneligibleAgreements(t *testing.T) {
	svc, db, fc := newTestService(t)
	srt := seedType(t, db, svc, 10.0)
	p := period.Period{Year: 2025, Month: time.June}

	agreement := seedAgreement(t, db, svc, agreementdomain.StateInCourse)

	sr, err := svc.Create(context.Background(), domain.CreateServiceRequestRequest{
		AgreementID: agreement.ID.String(),
		TypeID:      srt.ID.String(),
		Description: "done work",
	})
	assert.NoError(t, err)
	ref := domain.GetServiceRequestRequest{ID: sr.ID.String()}
	_, err = svc.Start(context.Background(), ref)
	assert.NoError(t, err)
	fc.Advance(2 * time.Hour)
	_, err = svc.Finish(context.Background(), ref)
	assert.NoError(t, err)

	rows, err := svc.FindBillable(context.Background(), agreement.CustomerID, p, nil)
	assert.NoError(t, err)
	assert.Len(t, rows, 1)

	// DONE in-period work under an agreement that is not IN_COURSE or
	// FINISHED never bills.
	for _, state := range []agreementdomain.State{agreementdomain.StateProvisional, agreementdomain.StateAccepted} {
		assert.NoError(t, db.Exec(`UPDATE agreements SET state = ? WHERE id = ?`, state, agreement.ID).Error)

		rows, err = svc.FindBillable(context.Background(), agreement.CustomerID, p, nil)
		assert.NoError(t, err)
		assert.Empty(t, rows, "agreement state %s", state)
	}
}

func TestCreateValidatesInput(t *testing.T) {
	svc, db, _ := newTestService(t)
	agreement := seedAgreement(t, db, svc, agreementdomain.StateInCourse)
	srt := seedType(t, db, svc, 10.0)

	_, err := svc.Create(context.Background(), domain.CreateServiceRequestRequest{
		AgreementID: "not-a-number",
		TypeID:      srt.ID.String(),
		Description: "request",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = svc.Create(context.Background(), domain.CreateServiceRequestRequest{
		AgreementID: agreement.ID.String(),
		TypeID:      srt.ID.String(),
		Description: "   ",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidDescription)
}
