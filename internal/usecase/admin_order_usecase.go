package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"shopcart/internal/domain/model"
	repo "shopcart/internal/repository"

	"go.uber.org/zap"
)

type AdminOrderUsecase struct {
	tx     repo.TransactionManager
	clock  Clock
	logger *zap.Logger
}

func NewAdminOrderUsecase(tx repo.TransactionManager, clock Clock, logger *zap.Logger) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, clock: clock, logger: logger}
}

type AdminUpdateOrderStatusInput struct {
	Status string
}

// 一覧の1行。決済済みなら決済内容も付ける
type AdminOrderListItem struct {
	OrderOutput
	Subtotal int64          `json:"subtotal"`
	Payment  *PaymentOutput `json:"payment,omitempty"`
}

type AdminOrderListOutput struct {
	Items []AdminOrderListItem `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// 注文一覧
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) (AdminOrderListOutput, error) {
	// page/limitの最低限チェック
	if f.Page < 1 {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if f.Status != "" && !validOrderStatus(f.Status) {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	out := AdminOrderListOutput{Items: []AdminOrderListItem{}, Page: f.Page, Limit: f.Limit}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListAdmin(ctx, f)
		if err != nil {
			return u.dbError("list orders", err)
		}
		out.Total = total

		for _, o := range orders {
			items, err := r.OrderProducts().ListByOrderID(ctx, o.ID)
			if err != nil {
				return u.dbError("list order products", err)
			}
			row := AdminOrderListItem{OrderOutput: toOrderOutput(o, items)}
			for _, it := range items {
				row.Subtotal += it.ProductPrice * it.Quantity
			}

			if o.PaymentID != nil {
				p, err := r.Payments().FindByID(ctx, *o.PaymentID)
				if err != nil && !errors.Is(err, repo.ErrNotFound) {
					return u.dbError("find payment", err)
				}
				if err == nil {
					row.Payment = &PaymentOutput{
						TransactionID: p.TransactionID,
						PaymentMethod: p.PaymentMethod,
						AmountPaid:    p.AmountPaid,
						Status:        p.Status,
					}
				}
			}
			out.Items = append(out.Items, row)
		}
		return nil
	})
	if err != nil {
		return AdminOrderListOutput{}, err
	}
	return out, nil
}

// ステータス更新（決済済みをCANCELEDにしたら在庫戻し）
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorAdminUserID int64, orderID int64, in AdminUpdateOrderStatusInput) error {
	if actorAdminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	newStatus := strings.ToUpper(strings.TrimSpace(in.Status))
	if !validOrderStatus(newStatus) {
		return NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return errNotFound
		}
		if err != nil {
			return u.dbError("find order", err)
		}

		// すでに同じなら何もしない（200）
		if string(o.Status) == newStatus {
			return nil
		}
		// 終端ガード
		if o.Status == model.OrderStatusCanceled {
			return NewHTTPError(http.StatusBadRequest, "cannot change canceled order")
		}
		if o.Status == model.OrderStatusShipped {
			return NewHTTPError(http.StatusBadRequest, "cannot change shipped order")
		}
		// 未決済の注文は発送できない
		if newStatus == string(model.OrderStatusShipped) && !o.IsOrdered {
			return NewHTTPError(http.StatusBadRequest, "cannot ship unpaid order")
		}

		// 在庫を減らしているのは決済済みの注文だけ
		if newStatus == string(model.OrderStatusCanceled) && o.IsOrdered {
			items, err := r.OrderProducts().ListByOrderID(ctx, orderID)
			if err != nil {
				return u.dbError("list order products", err)
			}

			for _, it := range items {
				if err := r.Inventory().IncreaseStock(ctx, it.ProductID, it.Quantity); err != nil {
					return u.dbError("increase stock", err)
				}
				if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
					ProductID:   it.ProductID,
					OrderID:     orderID,
					ActorUserID: actorAdminUserID,
					Delta:       it.Quantity,
					Reason:      "cancel " + o.OrderNumber,
				}); err != nil {
					return u.dbError("create adjustment", err)
				}
			}
		}

		beforeStatus := string(o.Status)
		if err := r.Orders().UpdateStatus(ctx, orderID, model.OrderStatus(newStatus)); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return errNotFound
			}
			return u.dbError("update status", err)
		}

		//監査ログ（UPDATE_ORDER_STATUS）
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorAdminUserID,
			Action:       model.AuditActionUpdateOrderStatus,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   mustJSON(map[string]string{"status": beforeStatus}),
			AfterJSON:    mustJSON(map[string]string{"status": newStatus}),
			CreatedAt:    u.clock.Now(),
		}); err != nil {
			return u.dbError("create audit log", err)
		}

		u.logger.Info("order status updated",
			zap.Int64("actor_user_id", actorAdminUserID),
			zap.Int64("order_id", orderID),
			zap.String("before", beforeStatus),
			zap.String("after", newStatus))
		return nil
	})
}

// 注文の監査ログ（新しい順）
func (u *AdminOrderUsecase) History(ctx context.Context, orderID int64, limit int) ([]model.AuditLog, error) {
	if orderID <= 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	var logs []model.AuditLog
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := r.Orders().FindByID(ctx, orderID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return errNotFound
			}
			return u.dbError("find order", err)
		}

		got, err := r.AuditLogs().ListByResource(ctx, model.AuditResourceOrder, orderID, limit)
		if err != nil {
			return u.dbError("list audit logs", err)
		}
		logs = got
		return nil
	})
	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []model.AuditLog{}
	}
	return logs, nil
}

func (u *AdminOrderUsecase) dbError(op string, err error) error {
	u.logger.Error("admin order db error", zap.String("op", op), zap.Error(err))
	return errDB
}

func validOrderStatus(s string) bool {
	switch model.OrderStatus(s) {
	case model.OrderStatusNew, model.OrderStatusCompleted, model.OrderStatusShipped, model.OrderStatusCanceled:
		return true
	}
	return false
}

// 期間パラメータ（RFC3339）。空は指定なし
func ParseDateTimeRFC3339(s string) (*time.Time, bool) {
	if strings.TrimSpace(s) == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, false
	}
	return &t, true
}
