package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/application/types"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
)

// FaultPoint names a step of the write phase where a fault may be injected.
type FaultPoint string

const (
	FaultAfterHeader  FaultPoint = "after_header"
	FaultAfterLine    FaultPoint = "after_line"
	FaultBeforeCommit FaultPoint = "before_commit"
)

// FaultInjector is consulted at each fault point. line is the zero-based line index for
// FaultAfterLine and -1 otherwise. A non-nil error aborts the unit of work.
type FaultInjector func(point FaultPoint, line int) error

// FailAt returns an injector that fails once the given point (and line, for FaultAfterLine) is reached.
func FailAt(point FaultPoint, line int) FaultInjector {
	return func(p FaultPoint, l int) error {
		if p == point && (point != FaultAfterLine || l == line) {
			return ErrInjectedFault
		}
		return nil
	}
}

// ExecuteSaleWithForcedFailure runs the orchestration up to the header insert with a pending
// status, then fails unconditionally. Nothing it wrote survives.
func (s *Service) ExecuteSaleWithForcedFailure(ctx context.Context, req types.SaleRequest) (*types.SaleReceipt, error) {
	if err := req.Validate(); err != nil {
		return nil, InvalidRequest(err)
	}
	req.IdempotencyKey = ""
	_, err := s.execute(ctx, req, domain.StatusPending, FailAt(FaultAfterHeader, -1), nil)
	if err == nil {
		// unreachable unless the injector is bypassed
		err = &SaleError{Kind: KindStoreFailure, Message: "forced failure did not trigger", Cause: ErrInjectedFault}
	}
	return nil, err
}

func inject(injector FaultInjector, point FaultPoint, line int) error {
	if injector == nil {
		return nil
	}
	err := injector(point, line)
	if err == nil {
		return nil
	}
	var saleErr *SaleError
	if errors.As(err, &saleErr) {
		return saleErr
	}
	msg := fmt.Sprintf("simulated failure at %s", point)
	if point == FaultAfterLine {
		msg = fmt.Sprintf("simulated failure at %s %d", point, line)
	}
	return &SaleError{Kind: KindStoreFailure, Message: msg, Cause: err}
}
