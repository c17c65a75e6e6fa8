package notify

import (
	"context"

	"shopcart/internal/usecase"

	"go.uber.org/zap"
)

// Kafkaが無い環境用。ログに出すだけ
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyOrderConfirmed(ctx context.Context, notice usecase.OrderConfirmedNotice) error {
	n.logger.Info("order confirmed",
		zap.Int64("user_id", notice.UserID),
		zap.String("email", notice.Email),
		zap.String("order_number", notice.OrderNumber),
		zap.String("transaction_id", notice.TransactionID),
		zap.Int64("order_total", notice.OrderTotal),
		zap.Int("items", len(notice.Items)))
	return nil
}
