//go:build integration

package store_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	authmodels "clearledger/internal/auth/models"
	userstore "clearledger/internal/auth/store/user"
	"clearledger/internal/ledger/models"
	"clearledger/internal/ledger/store"
	"clearledger/pkg/domain"
	"clearledger/pkg/platform/sentinel"
	"clearledger/pkg/testutil/containers"
)

type PostgresLedgerStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	base     time.Time
}

func TestPostgresLedgerStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresLedgerStoreSuite))
}

func (s *PostgresLedgerStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.base = time.Date(2024, 10, 16, 9, 0, 0, 0, time.UTC)
}

func (s *PostgresLedgerStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "transactions", "ledger_members", "ledgers", "users"))

	users := userstore.NewPostgres(s.postgres.DB)
	for i, name := range []string{"alice", "bob"} {
		s.Require().NoError(users.Create(ctx, &authmodels.User{
			ID:           domain.UserID(fmt.Sprintf("US241016%04d", i+1)),
			Username:     name,
			Email:        name + "@example.com",
			PasswordHash: "$2a$04$hash",
			CreatedAt:    s.base,
		}))
	}
}

func (s *PostgresLedgerStoreSuite) createLedger(id domain.LedgerID) {
	err := s.store.CreateLedger(context.Background(),
		&models.Ledger{ID: id, OwnerID: "US2410160001", Name: "Household", CreatedAt: s.base},
		&models.Member{LedgerID: id, UserID: "US2410160001", Role: models.RoleOwner, AddedAt: s.base})
	s.Require().NoError(err)
}

func (s *PostgresLedgerStoreSuite) TestCreateLedgerWritesOwnerMembership() {
	ctx := context.Background()
	s.createLedger("LG2410160001")

	ledger, err := s.store.FindLedger(ctx, "LG2410160001")
	s.Require().NoError(err)
	s.Equal("Household", ledger.Name)
	s.True(s.base.Equal(ledger.CreatedAt))

	member, err := s.store.FindMember(ctx, "LG2410160001", "US2410160001")
	s.Require().NoError(err)
	s.Equal(models.RoleOwner, member.Role)
}

func (s *PostgresLedgerStoreSuite) TestCreateLedgerRollsBackOnMemberFailure() {
	ctx := context.Background()
	err := s.store.CreateLedger(ctx,
		&models.Ledger{ID: "LG2410160009", OwnerID: "US2410160001", Name: "Broken", CreatedAt: s.base},
		&models.Member{LedgerID: "LG2410160009", UserID: "US9999999999", Role: models.RoleOwner, AddedAt: s.base})
	s.Require().Error(err)

	_, err = s.store.FindLedger(ctx, "LG2410160009")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresLedgerStoreSuite) TestMembers() {
	ctx := context.Background()
	s.createLedger("LG2410160001")

	share := &models.Member{LedgerID: "LG2410160001", UserID: "US2410160002", Role: models.RoleMember, AddedAt: s.base}
	s.Require().NoError(s.store.AddMember(ctx, share))
	s.ErrorIs(s.store.AddMember(ctx, share), store.ErrMemberExists)

	ledgers, err := s.store.ListLedgersForUser(ctx, "US2410160002")
	s.Require().NoError(err)
	s.Require().Len(ledgers, 1)
	s.Equal(domain.LedgerID("LG2410160001"), ledgers[0].ID)
}

func (s *PostgresLedgerStoreSuite) TestTransactionPaging() {
	ctx := context.Background()
	s.createLedger("LG2410160001")
	for i := 1; i <= 7; i++ {
		s.Require().NoError(s.store.CreateTransaction(ctx, &models.Transaction{
			ID:         domain.TransactionID(fmt.Sprintf("TX241016%04d", i)),
			LedgerID:   "LG2410160001",
			AuthorID:   "US2410160001",
			Type:       models.TransactionIncome,
			Amount:     1000,
			Category:   "salary",
			OccurredAt: s.base.Add(time.Duration(i) * time.Hour),
			CreatedAt:  s.base,
		}))
	}

	page, total, err := s.store.ListTransactions(ctx, "LG2410160001", 3, 3)
	s.Require().NoError(err)
	s.Equal(7, total)
	s.Require().Len(page, 3)
	s.Equal(domain.TransactionID("TX2410160004"), page[0].ID)
	s.Equal(domain.TransactionID("TX2410160002"), page[2].ID)
}
