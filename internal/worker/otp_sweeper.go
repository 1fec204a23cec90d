package worker

import (
	"context"
	"time"

	"github.com/abisalde/marketplace-service/internal/auth/repository"
	"github.com/abisalde/marketplace-service/pkg/logger"
	"go.uber.org/zap"
)

// OTPSweeper deletes expired OTP codes. Login already prunes a user's own
// expired codes; the sweeper catches users who never come back. It runs
// once per invocation and is meant to be scheduled externally.
type OTPSweeper struct {
	otps repository.OTPRepository
	now  func() time.Time
}

func NewOTPSweeper(otps repository.OTPRepository) *OTPSweeper {
	return &OTPSweeper{
		otps: otps,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Sweep runs one pass and reports how many codes it removed.
func (w *OTPSweeper) Sweep(ctx context.Context) (int64, error) {
	removed, err := w.otps.DeleteExpired(ctx, w.now())
	if err != nil {
		logger.FromContext(ctx).Error("failed to sweep expired OTPs", zap.Error(err))
		return 0, err
	}
	logger.FromContext(ctx).Info("swept expired OTPs", zap.Int64("removed", removed))
	return removed, nil
}
