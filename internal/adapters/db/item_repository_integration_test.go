//go:build integration
// +build integration

package db_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/ammerola/inventory-service/internal/adapters/db"
	"github.com/ammerola/inventory-service/internal/core/domain"
	"github.com/ammerola/inventory-service/internal/core/ports"
	"github.com/ammerola/inventory-service/test/helpers"
)

type ItemRepositorySuite struct {
	suite.Suite
	testDB *helpers.TestDB
	repo   ports.ItemRepository
	ctx    context.Context
}

func (s *ItemRepositorySuite) SetupSuite() {
	s.testDB = helpers.SetupTestDB(s.T())
	s.repo = db.NewItemRepository(s.testDB.Database, helpers.TestLogger())
	s.ctx = context.Background()
}

func (s *ItemRepositorySuite) SetupTest() {
	helpers.TruncateAllTables(s.T(), s.testDB.PgxPool)
}

func (s *ItemRepositorySuite) save(code string, qty int) *domain.Item {
	item := &domain.Item{ItemCode: code, Quantity: qty}
	s.Require().NoError(s.repo.Save(s.ctx, item))
	return item
}

func (s *ItemRepositorySuite) TestSave_InsertAndUpdate() {
	item := s.save("BOOK-1", 5)
	s.NotZero(item.ID)
	s.False(item.CreatedAt.IsZero())

	item.Quantity = 9
	s.NoError(s.repo.Save(s.ctx, item))

	found, err := s.repo.FindByCode(s.ctx, "BOOK-1")
	s.NoError(err)
	s.Require().NotNil(found)
	s.Equal(item.ID, found.ID)
	s.Equal(9, found.Quantity)
}

func (s *ItemRepositorySuite) TestSave_DuplicateCode() {
	s.save("BOOK-1", 5)

	err := s.repo.Save(s.ctx, &domain.Item{ItemCode: "BOOK-1", Quantity: 1})
	s.ErrorIs(err, domain.ErrItemExists)

	found, err := s.repo.FindByCode(s.ctx, "BOOK-1")
	s.NoError(err)
	s.Equal(5, found.Quantity)
}

func (s *ItemRepositorySuite) TestSave_UpdateMissing() {
	err := s.repo.Save(s.ctx, &domain.Item{ID: 999999, ItemCode: "GHOST", Quantity: 1})
	s.ErrorIs(err, domain.ErrItemNotFound)
}

func (s *ItemRepositorySuite) TestFindByCode_Missing() {
	found, err := s.repo.FindByCode(s.ctx, "nope")
	s.NoError(err)
	s.Nil(found)
}

func (s *ItemRepositorySuite) TestFindByCodes() {
	s.save("a", 1)
	s.save("b", 2)
	s.save("c", 3)

	items, err := s.repo.FindByCodes(s.ctx, []string{"c", "a", "missing"})
	s.NoError(err)
	s.Require().Len(items, 2)
	s.Equal("a", items[0].ItemCode)
	s.Equal("c", items[1].ItemCode)

	items, err = s.repo.FindByCodes(s.ctx, nil)
	s.NoError(err)
	s.Empty(items)
}

func (s *ItemRepositorySuite) TestFindAllWithQuantityGreaterThan() {
	s.save("pos", 4)
	s.save("zero", 0)
	s.save("neg", -2)

	items, err := s.repo.FindAllWithQuantityGreaterThan(s.ctx, 0)
	s.NoError(err)
	s.Require().Len(items, 1)
	s.Equal("pos", items[0].ItemCode)

	all, err := s.repo.FindAll(s.ctx)
	s.NoError(err)
	s.Len(all, 3)
}

func (s *ItemRepositorySuite) TestDelete() {
	item := s.save("BOOK-1", 1)

	s.NoError(s.repo.Delete(s.ctx, item))
	s.ErrorIs(s.repo.Delete(s.ctx, item), domain.ErrItemNotFound)

	found, err := s.repo.FindByCode(s.ctx, "BOOK-1")
	s.NoError(err)
	s.Nil(found)
}

func (s *ItemRepositorySuite) TestDecrementQuantity() {
	s.save("BOOK-1", 5)

	s.NoError(s.repo.DecrementQuantity(s.ctx, "BOOK-1", 2))
	s.NoError(s.repo.DecrementQuantity(s.ctx, "BOOK-1", 7))

	found, err := s.repo.FindByCode(s.ctx, "BOOK-1")
	s.NoError(err)
	s.Equal(-4, found.Quantity, "decrement does not clamp")

	s.ErrorIs(s.repo.DecrementQuantity(s.ctx, "missing", 1), domain.ErrItemNotFound)
}

func (s *ItemRepositorySuite) TestRunInTx_RollbackOnError() {
	s.save("BOOK-1", 5)

	err := s.repo.RunInTx(s.ctx, func(tx ports.ItemRepository) error {
		locked, err := tx.LockByCodes(s.ctx, []string{"BOOK-1"})
		s.Require().NoError(err)
		s.Require().Len(locked, 1)

		s.Require().NoError(tx.DecrementQuantity(s.ctx, "BOOK-1", 5))
		return fmt.Errorf("abort")
	})
	s.Error(err)

	found, err := s.repo.FindByCode(s.ctx, "BOOK-1")
	s.NoError(err)
	s.Equal(5, found.Quantity)
}

func (s *ItemRepositorySuite) TestRunInTx_SerializesDecrements() {
	s.save("BOOK-1", 10)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.repo.RunInTx(context.Background(), func(tx ports.ItemRepository) error {
				locked, err := tx.LockByCodes(context.Background(), []string{"BOOK-1"})
				if err != nil {
					return err
				}
				if locked[0].Quantity < 1 {
					return domain.ErrInsufficientStock
				}
				return tx.DecrementQuantity(context.Background(), "BOOK-1", 1)
			})
			s.NoError(err)
		}()
	}
	wg.Wait()

	found, err := s.repo.FindByCode(s.ctx, "BOOK-1")
	s.NoError(err)
	s.Equal(0, found.Quantity)
}

func TestItemRepositorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	suite.Run(t, new(ItemRepositorySuite))
}
