package test

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/marketplace/internal/domain/errors"
	"github.com/polkiloo/marketplace/internal/domain/model"
	"github.com/polkiloo/marketplace/internal/domain/repository"
)

// MemoryStore is an in-memory UnitOfWork. Transactions are serialized and
// a failed transaction restores the state captured when it began.
type MemoryStore struct {
	mu   sync.Mutex
	data *memoryData

	// FailOn injects an error into the named repository call, e.g. "Orders.UpdateStatus".
	FailOn map[string]error

	Commits   int
	Rollbacks int
}

type memoryData struct {
	nextID        int64
	users         map[int64]model.User
	products      map[int64]model.Product
	orders        map[int64]model.Order
	payments      map[int64]model.Payment
	balances      map[int64]model.LoyaltyBalance
	loyalty       []model.LoyaltyTransaction
	notifications map[int64]model.ReceiptNotification
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: &memoryData{
			users:         make(map[int64]model.User),
			products:      make(map[int64]model.Product),
			orders:        make(map[int64]model.Order),
			payments:      make(map[int64]model.Payment),
			balances:      make(map[int64]model.LoyaltyBalance),
			notifications: make(map[int64]model.ReceiptNotification),
		},
		FailOn: make(map[string]error),
	}
}

var _ repository.UnitOfWork = (*MemoryStore)(nil)

// WithinTransaction runs fn under the store lock and rolls back on error or panic.
func (s *MemoryStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos repository.Factory) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	defer func() {
		if p := recover(); p != nil {
			s.data = snapshot
			s.Rollbacks++
			panic(p)
		}
		if err != nil {
			s.data = snapshot
			s.Rollbacks++
			return
		}
		s.Commits++
	}()

	if failure := s.FailOn["Begin"]; failure != nil {
		return failure
	}
	return fn(ctx, memoryView{store: s, locked: true})
}

func (s *MemoryStore) Users() repository.UserRepository       { return memoryView{store: s}.Users() }
func (s *MemoryStore) Orders() repository.OrderRepository     { return memoryView{store: s}.Orders() }
func (s *MemoryStore) Products() repository.ProductRepository { return memoryView{store: s}.Products() }
func (s *MemoryStore) Payments() repository.PaymentRepository { return memoryView{store: s}.Payments() }
func (s *MemoryStore) Loyalty() repository.LoyaltyRepository  { return memoryView{store: s}.Loyalty() }
func (s *MemoryStore) Receipts() repository.ReceiptRepository { return memoryView{store: s}.Receipts() }

// AddUser seeds a user and returns its id.
func (s *MemoryStore) AddUser(u model.User) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.data.id()
	}
	if u.Role == "" {
		u.Role = model.RoleCustomer
	}
	s.data.users[u.ID] = u
	return u.ID
}

// AddProduct seeds a catalog product and returns its id.
func (s *MemoryStore) AddProduct(p model.Product) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.data.id()
	}
	s.data.products[p.ID] = p
	return p.ID
}

// Product returns the stored product state.
func (s *MemoryStore) Product(id int64) model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.products[id]
}

// SetOrderStatus forces an order status, bypassing the state machine.
func (s *MemoryStore) SetOrderStatus(id int64, status model.OrderStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.data.orders[id]
	o.Status = status
	s.data.orders[id] = o
}

// AgeNotification moves the notification's last update back by d.
func (s *MemoryStore) AgeNotification(id int64, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.data.notifications[id]
	n.UpdatedAt = n.UpdatedAt.Add(-d)
	s.data.notifications[id] = n
}

// OrderExists reports whether the order row is present.
func (s *MemoryStore) OrderExists(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data.orders[id]
	return ok
}

// PaymentCount returns the number of stored payments.
func (s *MemoryStore) PaymentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.payments)
}

// LoyaltyEntries returns a copy of the ledger.
func (s *MemoryStore) LoyaltyEntries() []model.LoyaltyTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.data.loyalty)
}

// Notifications returns outbox entries ordered by id.
func (s *MemoryStore) Notifications() []model.ReceiptNotification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ReceiptNotification, 0, len(s.data.notifications))
	for _, n := range s.data.notifications {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (d *memoryData) id() int64 {
	d.nextID++
	return d.nextID
}

func (d *memoryData) clone() *memoryData {
	c := &memoryData{
		nextID:        d.nextID,
		users:         make(map[int64]model.User, len(d.users)),
		products:      make(map[int64]model.Product, len(d.products)),
		orders:        make(map[int64]model.Order, len(d.orders)),
		payments:      make(map[int64]model.Payment, len(d.payments)),
		balances:      make(map[int64]model.LoyaltyBalance, len(d.balances)),
		loyalty:       slices.Clone(d.loyalty),
		notifications: make(map[int64]model.ReceiptNotification, len(d.notifications)),
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.products {
		c.products[k] = v
	}
	for k, v := range d.orders {
		v.Items = slices.Clone(v.Items)
		c.orders[k] = v
	}
	for k, v := range d.payments {
		c.payments[k] = v
	}
	for k, v := range d.balances {
		c.balances[k] = v
	}
	for k, v := range d.notifications {
		c.notifications[k] = v
	}
	return c
}

// memoryView binds repositories to the store. Views handed out inside a
// transaction run under the already held lock.
type memoryView struct {
	store  *MemoryStore
	locked bool
}

func (v memoryView) Users() repository.UserRepository       { return memUsers{v} }
func (v memoryView) Orders() repository.OrderRepository     { return memOrders{v} }
func (v memoryView) Products() repository.ProductRepository { return memProducts{v} }
func (v memoryView) Payments() repository.PaymentRepository { return memPayments{v} }
func (v memoryView) Loyalty() repository.LoyaltyRepository  { return memLoyalty{v} }
func (v memoryView) Receipts() repository.ReceiptRepository { return memReceipts{v} }

func (v memoryView) with(op string, fn func(d *memoryData) error) error {
	if !v.locked {
		v.store.mu.Lock()
		defer v.store.mu.Unlock()
	}
	if err := v.store.FailOn[op]; err != nil {
		return err
	}
	return fn(v.store.data)
}

type memUsers struct{ memoryView }

func (v memUsers) Create(ctx context.Context, user *model.User) error {
	return v.with("Users.Create", func(d *memoryData) error {
		for _, u := range d.users {
			if u.Login == user.Login {
				return domainErrors.ErrAlreadyExists
			}
		}
		if user.Role == "" {
			user.Role = model.RoleCustomer
		}
		user.ID = d.id()
		user.CreatedAt = time.Now()
		d.users[user.ID] = *user
		return nil
	})
}

func (v memUsers) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	var found *model.User
	err := v.with("Users.GetByLogin", func(d *memoryData) error {
		for _, u := range d.users {
			if u.Login == login {
				found = &u
				return nil
			}
		}
		return domainErrors.ErrNotFound
	})
	return found, err
}

func (v memUsers) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var found *model.User
	err := v.with("Users.GetByID", func(d *memoryData) error {
		u, ok := d.users[id]
		if !ok {
			return domainErrors.ErrNotFound
		}
		found = &u
		return nil
	})
	return found, err
}
