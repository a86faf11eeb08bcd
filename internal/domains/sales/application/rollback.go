package application

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/application/types"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
)

// VerifyRollback counts sales, inserts a throwaway pending header inside a unit of work,
// counts again from inside it, rolls back and counts a third time. The store honours
// rollback when the first and last counts match.
func (s *Service) VerifyRollback(ctx context.Context, customerID int64) (*types.RollbackReport, error) {
	if customerID <= 0 {
		return nil, InvalidRequest(domain.ErrInvalidCustomerID)
	}
	report := &types.RollbackReport{CustomerID: customerID}

	before, err := s.countSales(ctx)
	if err != nil {
		return nil, err
	}
	report.Before = before

	uow, err := s.store.Begin(ctx)
	if err != nil {
		return nil, storeError("begin unit of work", err)
	}
	tempErr := s.writeTemporarySale(ctx, uow, customerID, report)
	if rbErr := uow.Rollback(); rbErr != nil {
		cause := storeError("rollback check", rbErr)
		if tempErr != nil {
			cause = storeError("rollback check", tempErr)
		}
		return nil, withRollbackFailure(cause, rbErr)
	}
	if tempErr != nil {
		return nil, tempErr
	}

	after, err := s.countSales(ctx)
	if err != nil {
		return nil, err
	}
	report.After = after
	report.Restored = after == before
	return report, nil
}

func (s *Service) writeTemporarySale(ctx context.Context, uow ports.UnitOfWork, customerID int64, report *types.RollbackReport) error {
	if _, err := uow.FindCustomer(ctx, customerID); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return customerNotFound(customerID)
		}
		return storeError("find customer", err)
	}
	id, err := uow.InsertSale(ctx, &domain.Sale{
		CustomerID: customerID,
		Total:      decimal.Zero,
		Status:     domain.StatusPending,
		CreatedAt:  s.now(),
	})
	if err != nil {
		return storeError("insert temporary sale", err)
	}
	report.TemporarySaleID = id
	during, err := uow.CountSales(ctx)
	if err != nil {
		return storeError("count sales", err)
	}
	report.During = during
	return nil
}

func (s *Service) countSales(ctx context.Context) (int64, error) {
	var count int64
	err := s.readOnly(ctx, func(uow ports.UnitOfWork) error {
		n, err := uow.CountSales(ctx)
		count = n
		return err
	})
	if err != nil {
		return 0, storeError("count sales", err)
	}
	return count, nil
}
