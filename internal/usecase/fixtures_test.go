package usecase_test

import (
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/marketplace/internal/domain/model"
	testhelpers "github.com/polkiloo/marketplace/internal/test"
	"github.com/polkiloo/marketplace/internal/usecase"
)

type fixture struct {
	store  *testhelpers.MemoryStore
	buyer  model.Requester
	other  model.Requester
	admin  model.Requester
	laptop int64
	mouse  int64
	logger *slog.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := testhelpers.NewMemoryStore()
	buyerID := store.AddUser(model.User{Login: "buyer", Email: "buyer@example.com"})
	otherID := store.AddUser(model.User{Login: "other", Email: "other@example.com"})
	adminID := store.AddUser(model.User{Login: "admin", Email: "admin@example.com", Role: model.RoleAdmin})

	return &fixture{
		store:  store,
		buyer:  model.Requester{UserID: buyerID, Role: model.RoleCustomer},
		other:  model.Requester{UserID: otherID, Role: model.RoleCustomer},
		admin:  model.Requester{UserID: adminID, Role: model.RoleAdmin},
		laptop: store.AddProduct(model.Product{Name: "Laptop", Price: decimal.NewFromInt(100), Currency: "USD", StockQuantity: 5, Active: true}),
		mouse:  store.AddProduct(model.Product{Name: "Mouse", Price: decimal.RequireFromString("9.99"), Currency: "USD", StockQuantity: 10, Active: true}),
		logger: slog.New(slog.DiscardHandler),
	}
}

func (f *fixture) orders() *usecase.OrderUseCase {
	return usecase.NewOrderUseCase(f.store, f.logger)
}

func shipping() model.OrderDetail {
	return model.OrderDetail{FullName: "Jane Doe", PhoneNumber: "+15550100", Country: "US", PostalCode: "94105"}
}

func (f *fixture) createOrder(t *testing.T, products map[int64]int) *model.Order {
	t.Helper()
	order, err := f.orders().Create(t.Context(), usecase.CreateOrderRequest{
		BuyerID:  f.buyer.UserID,
		Products: products,
		Currency: "usd",
		Shipping: shipping(),
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}
