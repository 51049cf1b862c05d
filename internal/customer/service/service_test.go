package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/opsbill/tarifa/internal/clock"
	"github.com/opsbill/tarifa/internal/customer/domain"
	"github.com/opsbill/tarifa/internal/customer/repository"
	dbpkg "github.com/opsbill/tarifa/pkg/db"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	db, err := dbpkg.NewTest()
	if err != nil {
		t.Fatalf("test db: %v", err)
	}
	if err := db.AutoMigrate(&domain.Customer{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	return &Service{
		db:    db,
		log:   zap.NewNop(),
		clock: clock.NewFakeClock(time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)),
		genID: node,
		repo:  repository.Provide(),
	}
}

func TestCreateCustomer(t *testing.T) {
	svc := newTestService(t)

	customer, err := svc.Create(context.Background(), domain.CreateCustomerRequest{
		Name:  "  Acme Corp  ",
		Email: "billing@acme.test",
	})
	assert.NoError(t, err)
	assert.Equal(t, "Acme Corp", customer.Name)
	assert.True(t, customer.Active())
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Create(context.Background(), domain.CreateCustomerRequest{Name: " ", Email: "a@b.test"})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Create(context.Background(), domain.CreateCustomerRequest{Name: "Acme", Email: "not-an-email"})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)
}

func TestCreateDuplicateNameAndEmail(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Create(context.Background(), domain.CreateCustomerRequest{Name: "Acme", Email: "billing@acme.test"})
	assert.NoError(t, err)

	_, err = svc.Create(context.Background(), domain.CreateCustomerRequest{Name: "Acme", Email: "other@acme.test"})
	assert.ErrorIs(t, err, domain.ErrNameTaken)

	_, err = svc.Create(context.Background(), domain.CreateCustomerRequest{Name: "Acme Two", Email: "billing@acme.test"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestDeleteOrRestoreToggles(t *testing.T) {
	svc := newTestService(t)

	customer, err := svc.Create(context.Background(), domain.CreateCustomerRequest{Name: "Acme", Email: "billing@acme.test"})
	assert.NoError(t, err)

	ref := domain.GetCustomerRequest{ID: customer.ID.String()}

	deleted, err := svc.DeleteOrRestore(context.Background(), ref)
	assert.NoError(t, err)
	assert.False(t, deleted.Active())

	restored, err := svc.DeleteOrRestore(context.Background(), ref)
	assert.NoError(t, err)
	assert.True(t, restored.Active())
}

func TestListActiveOnly(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	active, err := svc.Create(ctx, domain.CreateCustomerRequest{Name: "Active Co", Email: "a@test.test"})
	assert.NoError(t, err)
	gone, err := svc.Create(ctx, domain.CreateCustomerRequest{Name: "Gone Co", Email: "g@test.test"})
	assert.NoError(t, err)

	_, err = svc.DeleteOrRestore(ctx, domain.GetCustomerRequest{ID: gone.ID.String()})
	assert.NoError(t, err)

	resp, err := svc.List(ctx, domain.ListCustomerRequest{ActiveOnly: true})
	assert.NoError(t, err)
	assert.Len(t, resp.Customers, 1)
	assert.Equal(t, active.ID, resp.Customers[0].ID)

	resp, err = svc.List(ctx, domain.ListCustomerRequest{})
	assert.NoError(t, err)
	assert.Len(t, resp.Customers, 2)
	assert.Equal(t, int64(2), resp.TotalCount)
}

func TestUpdateCustomer(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	customer, err := svc.Create(ctx, domain.CreateCustomerRequest{Name: "Acme", Email: "billing@acme.test"})
	assert.NoError(t, err)

	updated, err := svc.Update(ctx, domain.UpdateCustomerRequest{
		ID:    customer.ID.String(),
		Name:  "Acme Renamed",
		Email: "billing@acme.test",
	})
	assert.NoError(t, err)
	assert.Equal(t, "Acme Renamed", updated.Name)

	_, err = svc.Update(ctx, domain.UpdateCustomerRequest{
		ID:    svc.genID.Generate().String(),
		Name:  "Ghost",
		Email: "ghost@test.test",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetByIDInvalid(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.GetByID(context.Background(), domain.GetCustomerRequest{ID: "garbage"})
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestListActivePagesInIDOrder(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	var ids []snowflake.ID
	names := []string{"One", "Two", "Three", "Four", "Five"}
	for _, name := range names {
		customer, err := svc.Create(ctx, domain.CreateCustomerRequest{Name: name, Email: name + "@test.test"})
		assert.NoError(t, err)
		ids = append(ids, customer.ID)
	}

	var seen []snowflake.ID
	afterID := snowflake.ID(0)
	for {
		page, err := svc.repo.ListActive(ctx, svc.db, afterID, 2)
		assert.NoError(t, err)
		if len(page) == 0 {
			break
		}
		for _, customer := range page {
			seen = append(seen, customer.ID)
		}
		afterID = page[len(page)-1].ID
	}

	assert.Equal(t, ids, seen)
}
