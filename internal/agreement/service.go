package agreement

import (
	"context"
	"time"

	customErrors "github.com/abisalde/marketplace-service/internal/errors"
	"github.com/abisalde/marketplace-service/internal/model"
)

var (
	ErrInvalidIDs  = customErrors.Validation("agreement_ids must be a non-empty list of integers")
	ErrNothingToDo = customErrors.NotFound("No new agreements to accept")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) List(ctx context.Context, kind string) ([]*model.Agreement, error) {
	agreements, err := s.repo.Active(ctx, model.AgreementType(kind))
	if err != nil {
		return nil, customErrors.InternalServerError(err, "Internal server error")
	}
	return agreements, nil
}

// Pending lists active agreements the user has not accepted.
func (s *Service) Pending(ctx context.Context, userID int64) ([]*model.Agreement, error) {
	active, err := s.repo.Active(ctx, "")
	if err != nil {
		return nil, customErrors.InternalServerError(err, "Internal server error")
	}
	accepted, err := s.repo.AcceptedIDs(ctx, userID)
	if err != nil {
		return nil, customErrors.InternalServerError(err, "Internal server error")
	}

	pending := []*model.Agreement{}
	for _, a := range active {
		if !accepted[a.ID] {
			pending = append(pending, a)
		}
	}
	return pending, nil
}

// Accept records the user's acceptance of ids. Inactive, unknown and
// already accepted ids are skipped.
func (s *Service) Accept(ctx context.Context, userID int64, ids []int64, ip string) ([]int64, error) {
	if len(ids) == 0 {
		return nil, ErrInvalidIDs
	}

	accepted, err := s.repo.Accept(ctx, userID, ids, ip, s.now())
	if err != nil {
		return nil, customErrors.InternalServerError(err, "Internal server error")
	}
	if len(accepted) == 0 {
		return nil, ErrNothingToDo
	}
	return accepted, nil
}
