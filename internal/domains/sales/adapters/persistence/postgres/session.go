package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
)

var (
	_ ports.StoreSession  = (*Session)(nil)
	_ ports.CatalogReader = (*Session)(nil)
)

// Session opens PostgreSQL transactions as units of work. Caller manages DB lifecycle.
type Session struct {
	db          *gorm.DB
	isolation   sql.IsolationLevel
	lockTimeout time.Duration
}

// SessionOption tunes transaction behaviour.
type SessionOption func(*Session)

// WithIsolation sets the isolation level of every unit of work.
func WithIsolation(level sql.IsolationLevel) SessionOption {
	return func(s *Session) {
		s.isolation = level
	}
}

// WithLockTimeout bounds how long a unit of work waits for a row lock.
func WithLockTimeout(d time.Duration) SessionOption {
	return func(s *Session) {
		s.lockTimeout = d
	}
}

// NewSession wires a PostgreSQL-backed store session. Read committed is the default; row
// locks taken while validating serialise concurrent decrements of the same product.
func NewSession(db *gorm.DB, opts ...SessionOption) *Session {
	s := &Session{db: db, isolation: sql.LevelReadCommitted}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// ParseIsolation maps a configuration value onto a sql isolation level.
func ParseIsolation(value string) (sql.IsolationLevel, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "read_committed", "read committed":
		return sql.LevelReadCommitted, nil
	case "repeatable_read", "repeatable read":
		return sql.LevelRepeatableRead, nil
	case "serializable":
		return sql.LevelSerializable, nil
	default:
		return sql.LevelDefault, fmt.Errorf("unsupported isolation level %q", value)
	}
}

// Begin starts a transaction with the configured isolation and lock timeout.
func (s *Session) Begin(ctx context.Context) (ports.UnitOfWork, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	tx := s.db.WithContext(ctx).Begin(&sql.TxOptions{Isolation: s.isolation})
	if tx.Error != nil {
		return nil, classify("begin", tx.Error)
	}
	if s.lockTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = %d", s.lockTimeout.Milliseconds())
		if err := tx.Exec(stmt).Error; err != nil {
			_ = tx.Rollback().Error
			return nil, classify("set lock timeout", err)
		}
	}
	return &unitOfWork{tx: tx}, nil
}

// Ping verifies the database is reachable.
func (s *Session) Ping(ctx context.Context) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", ports.ErrUnavailable, err)
	}
	return nil
}

func (s *Session) FindCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	return findCustomer(s.db.WithContext(ctx), id)
}

func (s *Session) FindProduct(ctx context.Context, id int64) (*domain.Product, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var record productRecord
	if err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, classify("find product", err)
	}
	return record.toDomain(), nil
}

func (s *Session) ListProducts(ctx context.Context, minStock int32) ([]*domain.Product, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	return listProducts(s.db.WithContext(ctx), minStock)
}

func (s *Session) ListCustomers(ctx context.Context) ([]*domain.Customer, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	return listCustomers(s.db.WithContext(ctx))
}

// SeedCatalog upserts customers and products by id, leaving existing stock untouched.
func (s *Session) SeedCatalog(ctx context.Context, customers []domain.Customer, products []domain.Product) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, c := range customers {
			record := customerRecord{ID: c.ID, Name: c.Name, Email: c.Email, CreatedAt: time.Now()}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"name", "email"}),
			}).Create(&record).Error; err != nil {
				return classify("seed customer", err)
			}
		}
		for _, p := range products {
			record := productRecord{
				ID:             p.ID,
				Name:           p.Name,
				Category:       p.Category,
				UnitPrice:      domain.RoundMoney(p.UnitPrice),
				QuantityOnHand: p.QuantityOnHand,
				UpdatedAt:      time.Now(),
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"name", "category", "unit_price"}),
			}).Create(&record).Error; err != nil {
				return classify("seed product", err)
			}
		}
		// explicit ids bypass the sequences
		for _, table := range []string{"customers", "products"} {
			stmt := fmt.Sprintf("SELECT setval(pg_get_serial_sequence('%s', 'id'), GREATEST((SELECT COALESCE(MAX(id), 0) FROM %s), 1))", table, table)
			if err := tx.Exec(stmt).Error; err != nil {
				return classify("sync sequence", err)
			}
		}
		return nil
	})
}

func (s *Session) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres store session not configured")
	}
	return nil
}

func findCustomer(db *gorm.DB, id int64) (*domain.Customer, error) {
	var record customerRecord
	if err := db.First(&record, "id = ?", id).Error; err != nil {
		return nil, classify("find customer", err)
	}
	return record.toDomain(), nil
}

func listProducts(db *gorm.DB, minStock int32) ([]*domain.Product, error) {
	var records []productRecord
	if err := db.Where("quantity_on_hand >= ?", minStock).Order("id").Find(&records).Error; err != nil {
		return nil, classify("list products", err)
	}
	products := make([]*domain.Product, 0, len(records))
	for i := range records {
		products = append(products, records[i].toDomain())
	}
	return products, nil
}

func listCustomers(db *gorm.DB) ([]*domain.Customer, error) {
	var records []customerRecord
	if err := db.Order("id").Find(&records).Error; err != nil {
		return nil, classify("list customers", err)
	}
	customers := make([]*domain.Customer, 0, len(records))
	for i := range records {
		customers = append(customers, records[i].toDomain())
	}
	return customers, nil
}
