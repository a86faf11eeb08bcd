package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
	"github.com/Apurer/go-gin-pos-server/internal/shared/projection"
)

var (
	_ ports.StoreSession  = (*Store)(nil)
	_ ports.CatalogReader = (*Store)(nil)
	_ ports.UnitOfWork    = (*unitOfWork)(nil)
)

// ErrUnitOfWorkDone is returned when a finished unit of work is used again.
var ErrUnitOfWorkDone = errors.New("unit of work already finished")

type saleRow struct {
	sale      domain.Sale
	createdAt time.Time
}

// Store is an in-memory transactional store for development and tests. Units of work
// buffer their writes and validate the product versions they read when committing, so
// a unit of work that lost a race fails with ports.ErrConflict and leaves no trace.
type Store struct {
	mu         sync.RWMutex
	customers  map[int64]domain.Customer
	products   map[int64]domain.Product
	sales      map[int64]saleRow
	lines      map[int64][]domain.SaleLine
	keys       map[string]ports.IdempotencyRecord
	nextSaleID int64
	now        func() time.Time
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{
		customers: map[int64]domain.Customer{},
		products:  map[int64]domain.Product{},
		sales:     map[int64]saleRow{},
		lines:     map[int64][]domain.SaleLine{},
		keys:      map[string]ports.IdempotencyRecord{},
		now:       time.Now,
	}
}

// WithClock overrides the time source for deterministic testing.
func (s *Store) WithClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Seed inserts or replaces customers and products.
func (s *Store) Seed(customers []domain.Customer, products []domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range customers {
		s.customers[c.ID] = c
	}
	for _, p := range products {
		s.products[p.ID] = p
	}
}

func (s *Store) Ping(context.Context) error {
	return nil
}

// Begin starts a unit of work against the current state.
func (s *Store) Begin(ctx context.Context) (ports.UnitOfWork, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &unitOfWork{
		store:    s,
		read:     map[int64]int64{},
		products: map[int64]domain.Product{},
		sales:    map[int64]saleRow{},
		lines:    map[int64][]domain.SaleLine{},
		keys:     map[string]ports.IdempotencyRecord{},
	}, nil
}

func (s *Store) FindCustomer(_ context.Context, id int64) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &c, nil
}

func (s *Store) FindProduct(_ context.Context, id int64) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &p, nil
}

func (s *Store) ListProducts(_ context.Context, minStock int32) ([]*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]*domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if p.QuantityOnHand < minStock {
			continue
		}
		clone := p
		list = append(list, &clone)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (s *Store) ListCustomers(_ context.Context) ([]*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]*domain.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		clone := c
		list = append(list, &clone)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

// unitOfWork buffers writes until Commit. It is owned by a single orchestration.
type unitOfWork struct {
	store *Store
	mu    sync.Mutex
	done  bool

	read     map[int64]int64 // product id -> version observed
	products map[int64]domain.Product
	sales    map[int64]saleRow
	lines    map[int64][]domain.SaleLine
	keys     map[string]ports.IdempotencyRecord
}

func (u *unitOfWork) FindCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	if err := u.active(ctx); err != nil {
		return nil, err
	}
	return u.store.FindCustomer(ctx, id)
}

func (u *unitOfWork) FindProduct(ctx context.Context, id int64) (*domain.Product, error) {
	if err := u.active(ctx); err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	p, err := u.product(id)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// product returns the unit of work's view of a product and records the version it saw.
// Callers hold u.mu.
func (u *unitOfWork) product(id int64) (domain.Product, error) {
	if p, ok := u.products[id]; ok {
		return p, nil
	}
	u.store.mu.RLock()
	p, ok := u.store.products[id]
	u.store.mu.RUnlock()
	if !ok {
		return domain.Product{}, ports.ErrNotFound
	}
	if _, seen := u.read[id]; !seen {
		u.read[id] = p.Version
	}
	return p, nil
}

func (u *unitOfWork) ListProducts(ctx context.Context, minStock int32) ([]*domain.Product, error) {
	if err := u.active(ctx); err != nil {
		return nil, err
	}
	list, err := u.store.ListProducts(ctx, 0)
	if err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	filtered := list[:0]
	for _, p := range list {
		if pending, ok := u.products[p.ID]; ok {
			clone := pending
			p = &clone
		}
		if p.QuantityOnHand >= minStock {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

func (u *unitOfWork) ListCustomers(ctx context.Context) ([]*domain.Customer, error) {
	if err := u.active(ctx); err != nil {
		return nil, err
	}
	return u.store.ListCustomers(ctx)
}

func (u *unitOfWork) GetSale(ctx context.Context, id int64) (*ports.SaleProjection, error) {
	if err := u.active(ctx); err != nil {
		return nil, err
	}
	u.mu.Lock()
	row, ok := u.sales[id]
	lines := u.lines[id]
	u.mu.Unlock()
	if !ok {
		u.store.mu.RLock()
		row, ok = u.store.sales[id]
		lines = u.store.lines[id]
		u.store.mu.RUnlock()
	}
	if !ok {
		return nil, ports.ErrNotFound
	}
	sale := row.sale
	sale.Lines = append([]domain.SaleLine(nil), lines...)
	return &ports.SaleProjection{
		Entity:   &sale,
		Metadata: projection.Metadata{CreatedAt: row.createdAt, UpdatedAt: row.createdAt},
	}, nil
}

func (u *unitOfWork) CountSales(ctx context.Context) (int64, error) {
	if err := u.active(ctx); err != nil {
		return 0, err
	}
	u.mu.Lock()
	pending := len(u.sales)
	u.mu.Unlock()
	u.store.mu.RLock()
	defer u.store.mu.RUnlock()
	return int64(len(u.store.sales) + pending), nil
}

func (u *unitOfWork) InsertSale(ctx context.Context, sale *domain.Sale) (int64, error) {
	if err := u.active(ctx); err != nil {
		return 0, err
	}
	if sale == nil {
		return 0, errors.New("sale is nil")
	}
	if !sale.Status.Valid() {
		return 0, domain.ErrInvalidStatus
	}
	u.store.mu.Lock()
	if _, ok := u.store.customers[sale.CustomerID]; !ok {
		u.store.mu.Unlock()
		return 0, fmt.Errorf("sale references unknown customer %d", sale.CustomerID)
	}
	// ids behave like a sequence: consumed even if the unit of work rolls back
	u.store.nextSaleID++
	id := u.store.nextSaleID
	now := u.store.now()
	u.store.mu.Unlock()

	row := saleRow{sale: *sale, createdAt: now}
	row.sale.ID = id
	row.sale.Lines = nil
	if row.sale.CreatedAt.IsZero() {
		row.sale.CreatedAt = now
	}
	u.mu.Lock()
	u.sales[id] = row
	u.mu.Unlock()
	return id, nil
}

func (u *unitOfWork) InsertSaleLine(ctx context.Context, line domain.SaleLine) error {
	if err := u.active(ctx); err != nil {
		return err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.sales[line.SaleID]; !ok {
		return fmt.Errorf("line references unknown sale %d", line.SaleID)
	}
	if _, err := u.product(line.ProductID); err != nil {
		return fmt.Errorf("line references unknown product %d: %w", line.ProductID, err)
	}
	u.lines[line.SaleID] = append(u.lines[line.SaleID], line)
	return nil
}

func (u *unitOfWork) UpdateProductStock(ctx context.Context, productID int64, expected, next int32) error {
	if err := u.active(ctx); err != nil {
		return err
	}
	if next < 0 {
		return fmt.Errorf("product %d: %w", productID, domain.ErrNegativeStock)
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	p, err := u.product(productID)
	if err != nil {
		return err
	}
	if p.QuantityOnHand != expected {
		return fmt.Errorf("%w: product %d has %d on hand, expected %d", ports.ErrConflict, productID, p.QuantityOnHand, expected)
	}
	p.QuantityOnHand = next
	u.products[productID] = p
	return nil
}

func (u *unitOfWork) FindIdempotencyKey(ctx context.Context, key string) (*ports.IdempotencyRecord, error) {
	if err := u.active(ctx); err != nil {
		return nil, err
	}
	u.mu.Lock()
	record, ok := u.keys[key]
	u.mu.Unlock()
	if !ok {
		u.store.mu.RLock()
		record, ok = u.store.keys[key]
		u.store.mu.RUnlock()
	}
	if !ok {
		return nil, nil
	}
	copy := record
	return &copy, nil
}

func (u *unitOfWork) SaveIdempotencyKey(ctx context.Context, record ports.IdempotencyRecord) error {
	if err := u.active(ctx); err != nil {
		return err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.keys[record.Key]; ok {
		return fmt.Errorf("%w: idempotency key %q", ports.ErrConflict, record.Key)
	}
	u.store.mu.RLock()
	_, exists := u.store.keys[record.Key]
	u.store.mu.RUnlock()
	if exists {
		return fmt.Errorf("%w: idempotency key %q", ports.ErrConflict, record.Key)
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = u.store.now()
	}
	u.keys[record.Key] = record
	return nil
}

// Commit validates every product version read by the unit of work and publishes the
// buffered writes atomically. A failed commit leaves the store untouched.
func (u *unitOfWork) Commit() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		return ErrUnitOfWorkDone
	}
	u.done = true

	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	for id, version := range u.read {
		current, ok := u.store.products[id]
		if !ok || current.Version != version {
			return fmt.Errorf("%w: product %d changed since it was read", ports.ErrConflict, id)
		}
	}
	for key := range u.keys {
		if _, ok := u.store.keys[key]; ok {
			return fmt.Errorf("%w: idempotency key %q", ports.ErrConflict, key)
		}
	}

	for id, p := range u.products {
		p.Version++
		u.store.products[id] = p
	}
	for id, row := range u.sales {
		u.store.sales[id] = row
		u.store.lines[id] = append([]domain.SaleLine(nil), u.lines[id]...)
	}
	for key, record := range u.keys {
		u.store.keys[key] = record
	}
	return nil
}

// Rollback discards buffered writes. It is a no-op once the unit of work has finished.
func (u *unitOfWork) Rollback() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.done = true
	u.products = nil
	u.sales = nil
	u.lines = nil
	u.keys = nil
	return nil
}

func (u *unitOfWork) active(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		return ErrUnitOfWorkDone
	}
	return nil
}

// SeedCatalog is Seed behind the context-aware signature shared with the postgres session.
func (s *Store) SeedCatalog(_ context.Context, customers []domain.Customer, products []domain.Product) error {
	s.Seed(customers, products)
	return nil
}
