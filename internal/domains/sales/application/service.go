package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/application/types"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
)

// StateListener receives the visited states of every finished orchestration.
type StateListener func(ctx context.Context, history []domain.State)

// Service orchestrates sales against a transactional store session.
type Service struct {
	store    ports.StoreSession
	faults   FaultInjector
	listener StateListener
	now      func() time.Time
}

// Option configures optional collaborators.
type Option func(*Service)

// WithFaultInjector installs a hook consulted at every write step of ExecuteSale.
func WithFaultInjector(injector FaultInjector) Option {
	return func(s *Service) {
		s.faults = injector
	}
}

// WithStateListener observes the state machine of each orchestration.
func WithStateListener(listener StateListener) Option {
	return func(s *Service) {
		s.listener = listener
	}
}

// NewService wires the orchestrator with its store session.
func NewService(store ports.StoreSession, opts ...Option) *Service {
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// ExecuteSale validates the request and, within one unit of work, persists the sale header,
// its lines and the stock decrements. Either everything commits or nothing does.
func (s *Service) ExecuteSale(ctx context.Context, req types.SaleRequest) (*types.SaleReceipt, error) {
	if err := req.Validate(); err != nil {
		return nil, InvalidRequest(err)
	}
	key := strings.TrimSpace(req.IdempotencyKey)
	var fingerprint string
	if key != "" {
		var err error
		fingerprint, err = FingerprintSale(req)
		if err != nil {
			return nil, InvalidRequest(err)
		}
		replayed, err := s.replay(ctx, key, fingerprint)
		if err != nil || replayed != nil {
			return replayed, err
		}
	}
	return s.execute(ctx, req, domain.StatusCompleted, s.faults, func(ctx context.Context, uow ports.UnitOfWork, sale *domain.Sale) error {
		if key == "" {
			return nil
		}
		return uow.SaveIdempotencyKey(ctx, ports.IdempotencyRecord{
			Key:         key,
			RequestHash: fingerprint,
			SaleID:      sale.ID,
			CreatedAt:   s.now(),
		})
	})
}

// GetSale loads a committed sale with its lines.
func (s *Service) GetSale(ctx context.Context, id int64) (*ports.SaleProjection, error) {
	if id <= 0 {
		return nil, ports.ErrNotFound
	}
	var result *ports.SaleProjection
	err := s.readOnly(ctx, func(uow ports.UnitOfWork) error {
		sale, err := uow.GetSale(ctx, id)
		if err != nil {
			return err
		}
		result = sale
		return nil
	})
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, storeError("get sale", err)
	}
	return result, nil
}

type validatedLine struct {
	line     domain.SaleLine
	observed int32
}

type beforeCommitFunc func(ctx context.Context, uow ports.UnitOfWork, sale *domain.Sale) error

func (s *Service) execute(ctx context.Context, req types.SaleRequest, status domain.Status, faults FaultInjector, beforeCommit beforeCommitFunc) (*types.SaleReceipt, error) {
	run := domain.NewOrchestration()
	defer s.notify(ctx, run)

	var receipt *types.SaleReceipt
	err := s.withinUnitOfWork(ctx, run, func(uow ports.UnitOfWork) error {
		if err := run.Advance(domain.StateValidating); err != nil {
			return err
		}
		customer, validated, err := s.validate(ctx, uow, req)
		if err != nil {
			return err
		}
		if err := run.Advance(domain.StateWriting); err != nil {
			return err
		}
		sale, err := s.write(ctx, uow, req.CustomerID, status, validated, faults)
		if err != nil {
			return err
		}
		if beforeCommit != nil {
			if err := beforeCommit(ctx, uow, sale); err != nil {
				return storeError("record idempotency key", err)
			}
		}
		if err := inject(faults, FaultBeforeCommit, -1); err != nil {
			return err
		}
		receipt = types.ReceiptFromSale(sale)
		receipt.CustomerName = customer.DisplayName()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// validate looks up the customer and every product in input order. The first failure
// short-circuits the remaining lines.
func (s *Service) validate(ctx context.Context, uow ports.UnitOfWork, req types.SaleRequest) (*domain.Customer, []validatedLine, error) {
	customer, err := uow.FindCustomer(ctx, req.CustomerID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, nil, customerNotFound(req.CustomerID)
		}
		return nil, nil, storeError("find customer", err)
	}

	products := make(map[int64]*domain.Product, len(req.Items))
	// stock tracks what is left of each product once earlier lines are taken.
	stock := make(map[int64]domain.Product, len(req.Items))
	validated := make([]validatedLine, 0, len(req.Items))
	for _, item := range req.Items {
		product, seen := products[item.ProductID]
		if !seen {
			product, err = uow.FindProduct(ctx, item.ProductID)
			if err != nil {
				if errors.Is(err, ports.ErrNotFound) {
					return nil, nil, productNotFound(item.ProductID)
				}
				return nil, nil, storeError("find product", err)
			}
			products[product.ID] = product
			stock[product.ID] = *product
		}
		left := stock[product.ID]
		if !left.CanFulfil(item.Quantity) {
			return nil, nil, insufficientStock(product, left.QuantityOnHand, item.Quantity)
		}
		next, err := left.Remaining(item.Quantity)
		if err != nil {
			return nil, nil, InvalidRequest(err)
		}
		line, err := domain.NewSaleLine(*product, item.Quantity)
		if err != nil {
			return nil, nil, InvalidRequest(err)
		}
		validated = append(validated, validatedLine{line: line, observed: left.QuantityOnHand})
		left.QuantityOnHand = next
		stock[product.ID] = left
	}
	return customer, validated, nil
}

// write inserts the header, then each line together with its stock decrement.
func (s *Service) write(ctx context.Context, uow ports.UnitOfWork, customerID int64, status domain.Status, validated []validatedLine, faults FaultInjector) (*domain.Sale, error) {
	lines := make([]domain.SaleLine, 0, len(validated))
	for _, v := range validated {
		lines = append(lines, v.line)
	}
	sale, err := domain.NewSale(customerID, status, lines)
	if err != nil {
		return nil, storeError("build sale", err)
	}
	sale.CreatedAt = s.now()

	id, err := uow.InsertSale(ctx, sale)
	if err != nil {
		return nil, storeError("insert sale", err)
	}
	sale.AssignID(id)
	if err := inject(faults, FaultAfterHeader, -1); err != nil {
		return nil, err
	}

	for i, v := range validated {
		line := sale.Lines[i]
		if err := uow.InsertSaleLine(ctx, line); err != nil {
			return nil, storeError(fmt.Sprintf("insert line for product %d", line.ProductID), err)
		}
		if err := uow.UpdateProductStock(ctx, line.ProductID, v.observed, v.observed-line.Quantity); err != nil {
			return nil, storeError(fmt.Sprintf("decrement stock for product %d", line.ProductID), err)
		}
		if err := inject(faults, FaultAfterLine, i); err != nil {
			return nil, err
		}
	}
	return sale, nil
}

// replay serves a previously committed sale for a known idempotency key.
func (s *Service) replay(ctx context.Context, key, fingerprint string) (*types.SaleReceipt, error) {
	var receipt *types.SaleReceipt
	err := s.readOnly(ctx, func(uow ports.UnitOfWork) error {
		record, err := uow.FindIdempotencyKey(ctx, key)
		if err != nil || record == nil {
			return err
		}
		if record.RequestHash != fingerprint {
			return IdempotencyConflict(key)
		}
		stored, err := uow.GetSale(ctx, record.SaleID)
		if err != nil {
			return err
		}
		receipt = types.ReceiptFromSale(stored.Entity)
		if customer, err := uow.FindCustomer(ctx, stored.Entity.CustomerID); err == nil {
			receipt.CustomerName = customer.DisplayName()
		}
		receipt.Replayed = true
		return nil
	})
	if err != nil {
		return nil, storeError("replay idempotency key", err)
	}
	return receipt, nil
}

// withinUnitOfWork runs fn inside a unit of work, committing on success and rolling back on
// any error or panic. The unit of work is released on every path.
func (s *Service) withinUnitOfWork(ctx context.Context, run *domain.Orchestration, fn func(uow ports.UnitOfWork) error) error {
	uow, err := s.store.Begin(ctx)
	if err != nil {
		run.Fail()
		return storeError("begin unit of work", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = uow.Rollback()
			run.Fail()
			panic(p)
		}
	}()

	if err := fn(uow); err != nil {
		return abandon(uow, run, err)
	}
	if err := uow.Commit(); err != nil {
		return abandon(uow, run, storeError("commit", err))
	}
	_ = run.Advance(domain.StateCommitted)
	return nil
}

// readOnly runs fn in a unit of work that is always rolled back.
func (s *Service) readOnly(ctx context.Context, fn func(uow ports.UnitOfWork) error) error {
	uow, err := s.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = uow.Rollback() }()
	return fn(uow)
}

func abandon(uow ports.UnitOfWork, run *domain.Orchestration, err error) error {
	cause := storeError("unit of work", err)
	var saleErr *SaleError
	if errors.As(err, &saleErr) {
		cause = saleErr
	}
	rollbackErr := uow.Rollback()
	run.Fail()
	if rollbackErr != nil {
		return withRollbackFailure(cause, rollbackErr)
	}
	return cause
}

func (s *Service) notify(ctx context.Context, run *domain.Orchestration) {
	if s.listener != nil {
		s.listener(ctx, run.History())
	}
}

var _ ports.Service = (*Service)(nil)
