package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"shopcart/internal/domain/model"
	repo "shopcart/internal/repository"

	"go.uber.org/zap"
)

// 注文番号の日付部分
const orderNumberDateLayout = "20060102"

type OrderConfig struct {
	TaxPercent     int64
	PaymentLockTTL time.Duration
	NotifyTimeout  time.Duration
}

// OrderUsecase は注文作成と決済確定（在庫減算・カート削除・通知）です。
type OrderUsecase struct {
	tx        repo.TransactionManager
	validator BillingValidator
	notifier  OrderNotifier
	lock      PaymentLock
	clock     Clock
	cfg       OrderConfig
	logger    *zap.Logger

	// 送信中の通知
	inflight sync.WaitGroup
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	validator BillingValidator,
	notifier OrderNotifier,
	lock PaymentLock,
	clock Clock,
	cfg OrderConfig,
	logger *zap.Logger,
) *OrderUsecase {
	if cfg.PaymentLockTTL <= 0 {
		cfg.PaymentLockTTL = 30 * time.Second
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = 10 * time.Second
	}
	return &OrderUsecase{
		tx:        tx,
		validator: validator,
		notifier:  notifier,
		lock:      lock,
		clock:     clock,
		cfg:       cfg,
		logger:    logger,
	}
}

// 請求先フォーム
type BillingForm struct {
	FirstName    string `json:"first_name" validate:"required,max=50"`
	LastName     string `json:"last_name" validate:"required,max=50"`
	Phone        string `json:"phone" validate:"required,max=15"`
	Email        string `json:"email" validate:"required,email,max=50"`
	AddressLine1 string `json:"address_line_1" validate:"required,max=50"`
	AddressLine2 string `json:"address_line_2" validate:"max=50"`
	Country      string `json:"country" validate:"required,max=50"`
	State        string `json:"state" validate:"required,max=50"`
	City         string `json:"city" validate:"required,max=50"`
	OrderNote    string `json:"order_note" validate:"max=100"`
}

type PlaceOrderInput struct {
	SessionToken string
	Billing      BillingForm
	IP           string
}

type ConfirmPaymentInput struct {
	OrderNumber   string
	TransactionID string
	PaymentMethod string
	Status        string
}

type OrderItemOutput struct {
	ProductID  int64             `json:"product_id"`
	Name       string            `json:"name"`
	Price      int64             `json:"price"`
	Quantity   int64             `json:"quantity"`
	Variations []VariationOutput `json:"variations"`
}

type OrderOutput struct {
	ID           int64             `json:"id"`
	OrderNumber  string            `json:"order_number"`
	UserID       int64             `json:"user_id"`
	Status       string            `json:"status"`
	IsOrdered    bool              `json:"is_ordered"`
	FullName     string            `json:"full_name"`
	Email        string            `json:"email"`
	Phone        string            `json:"phone"`
	AddressLine1 string            `json:"address_line_1"`
	AddressLine2 string            `json:"address_line_2"`
	Country      string            `json:"country"`
	State        string            `json:"state"`
	City         string            `json:"city"`
	OrderNote    string            `json:"order_note"`
	OrderTotal   int64             `json:"order_total"`
	Tax          int64             `json:"tax"`
	CreatedAt    time.Time         `json:"created_at"`
	Items        []OrderItemOutput `json:"items"`
}

// 決済画面に渡す内容
type PlaceOrderOutput struct {
	Order     OrderOutput        `json:"order"`
	CartItems []CartItemResponse `json:"cart_items"`
	Totals
}

// 決済確定APIの返却（フロントが完了画面へ遷移するのに使う）
type PaymentResult struct {
	OrderNumber   string `json:"order_number"`
	TransactionID string `json:"transID"`
}

type PaymentOutput struct {
	TransactionID string `json:"payment_id"`
	PaymentMethod string `json:"payment_method"`
	AmountPaid    int64  `json:"amount_paid"`
	Status        string `json:"status"`
}

type ConfirmationOutput struct {
	Order    OrderOutput   `json:"order"`
	Payment  PaymentOutput `json:"payment"`
	Subtotal int64         `json:"subtotal"`
}

// PlaceOrder はカートの内容から未決済の注文を作る。
func (u *OrderUsecase) PlaceOrder(ctx context.Context, user CheckoutUser, in PlaceOrderInput) (PlaceOrderOutput, error) {
	if user.ID <= 0 {
		return PlaceOrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var out PlaceOrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//セッションのカートをユーザーに紐付ける
		if err := ClaimCart(ctx, r.Carts(), in.SessionToken, user.ID); err != nil {
			return u.dbError("claim cart", err)
		}

		items, err := r.CartItems().ListByUserID(ctx, user.ID)
		if err != nil {
			return u.dbError("list cart items", err)
		}

		cart, err := priceCart(ctx, r.Products(), items, u.cfg.TaxPercent)
		if err != nil {
			return u.dbError("price cart", err)
		}
		if len(cart.Items) == 0 {
			return errCartEmpty
		}

		//フォームが不正なら何も作らない
		if err := u.validator.ValidateBilling(ctx, in.Billing); err != nil {
			return err
		}

		b := in.Billing
		order := model.Order{
			UserID:       user.ID,
			FirstName:    strings.TrimSpace(b.FirstName),
			LastName:     strings.TrimSpace(b.LastName),
			Phone:        strings.TrimSpace(b.Phone),
			Email:        strings.TrimSpace(b.Email),
			AddressLine1: strings.TrimSpace(b.AddressLine1),
			AddressLine2: strings.TrimSpace(b.AddressLine2),
			Country:      strings.TrimSpace(b.Country),
			State:        strings.TrimSpace(b.State),
			City:         strings.TrimSpace(b.City),
			OrderNote:    strings.TrimSpace(b.OrderNote),
			OrderTotal:   cart.GrandTotal,
			Tax:          cart.Tax,
			IP:           in.IP,
			Status:       model.OrderStatusNew,
			IsOrdered:    false,
		}

		orderID, err := r.Orders().Create(ctx, order)
		if err != nil {
			return u.dbError("create order", err)
		}

		//注文番号 = 日付 + ID
		order.ID = orderID
		order.OrderNumber = u.clock.Now().Format(orderNumberDateLayout) + strconv.FormatInt(orderID, 10)
		order.CreatedAt = u.clock.Now()
		if err := r.Orders().SetOrderNumber(ctx, orderID, order.OrderNumber); err != nil {
			return u.dbError("set order number", err)
		}

		out = PlaceOrderOutput{
			Order:     toOrderOutput(order, nil),
			CartItems: cart.Items,
			Totals:    cart.Totals,
		}
		return nil
	})
	if err != nil {
		return PlaceOrderOutput{}, err
	}

	u.logger.Info("order placed",
		zap.Int64("user_id", user.ID),
		zap.String("order_number", out.Order.OrderNumber),
		zap.Int64("order_total", out.Order.OrderTotal))
	return out, nil
}

// ConfirmPayment は決済完了の通知を受けて注文を確定する。
// 決済作成〜カート削除までを1トランザクションで行い、通知はcommit後にベストエフォートで送る。
// 同じ取引IDの再送は同じ結果を返し、何も作らない。
func (u *OrderUsecase) ConfirmPayment(ctx context.Context, user CheckoutUser, in ConfirmPaymentInput) (PaymentResult, error) {
	if user.ID <= 0 {
		return PaymentResult{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	in.OrderNumber = strings.TrimSpace(in.OrderNumber)
	in.TransactionID = strings.TrimSpace(in.TransactionID)
	if in.OrderNumber == "" {
		return PaymentResult{}, NewHTTPError(http.StatusBadRequest, "invalid orderID")
	}
	if in.TransactionID == "" || len(in.TransactionID) > 100 {
		return PaymentResult{}, NewHTTPError(http.StatusBadRequest, "invalid transID")
	}

	release, err := u.acquirePaymentLock(ctx, in.TransactionID)
	if err != nil {
		return PaymentResult{}, err
	}
	defer release()

	var (
		out    PaymentResult
		notice *OrderConfirmedNotice
	)

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//同じ取引IDが処理済みなら同じ結果を返す
		existing, err := r.Payments().FindByTransactionID(ctx, in.TransactionID)
		if err == nil {
			replay, err := u.replayPayment(ctx, r, user, in, existing)
			if err != nil {
				return err
			}
			out = replay
			return nil
		}
		if !errors.Is(err, repo.ErrNotFound) {
			return u.dbError("find payment", err)
		}

		order, err := r.Orders().FindUnpaidByNumber(ctx, user.ID, in.OrderNumber)
		if errors.Is(err, repo.ErrNotFound) {
			return errNotFound
		}
		if err != nil {
			return u.dbError("find order", err)
		}

		payment, err := r.Payments().Create(ctx, model.Payment{
			UserID:        user.ID,
			OrderID:       order.ID,
			TransactionID: in.TransactionID,
			PaymentMethod: in.PaymentMethod,
			AmountPaid:    order.OrderTotal,
			Status:        in.Status,
		})
		if errors.Is(err, repo.ErrDuplicate) {
			return NewHTTPError(http.StatusConflict, "payment already recorded")
		}
		if err != nil {
			return u.dbError("create payment", err)
		}

		if err := r.Orders().MarkPaid(ctx, order.ID, payment.ID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusConflict, "order already paid")
			}
			return u.dbError("mark order paid", err)
		}

		items, err := u.finalizeCart(ctx, r, user, order, payment)
		if err != nil {
			return err
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  user.ID,
			Action:       model.AuditActionConfirmPayment,
			ResourceType: model.AuditResourcePayment,
			ResourceID:   payment.ID,
			BeforeJSON:   mustJSON(map[string]interface{}{"order_number": order.OrderNumber, "is_ordered": false}),
			AfterJSON: mustJSON(map[string]interface{}{
				"order_number":   order.OrderNumber,
				"is_ordered":     true,
				"transaction_id": payment.TransactionID,
				"amount_paid":    payment.AmountPaid,
				"status":         payment.Status,
			}),
			CreatedAt: u.clock.Now(),
		}); err != nil {
			return u.dbError("create audit log", err)
		}

		out = PaymentResult{OrderNumber: order.OrderNumber, TransactionID: payment.TransactionID}
		notice = &OrderConfirmedNotice{
			UserID:        user.ID,
			Email:         firstNonEmpty(user.Email, order.Email),
			FullName:      order.FullName(),
			OrderNumber:   order.OrderNumber,
			TransactionID: payment.TransactionID,
			OrderTotal:    order.OrderTotal,
			Tax:           order.Tax,
			Items:         items,
			ConfirmedAt:   u.clock.Now(),
		}
		return nil
	})
	if err != nil {
		return PaymentResult{}, err
	}

	if notice != nil {
		u.logger.Info("payment confirmed",
			zap.Int64("user_id", user.ID),
			zap.String("order_number", out.OrderNumber),
			zap.String("transaction_id", out.TransactionID))
		u.dispatchNotice(*notice)
	}
	return out, nil
}

// GetOrderConfirmation は決済済み注文の完了画面用データを返す。
func (u *OrderUsecase) GetOrderConfirmation(ctx context.Context, orderNumber string, transactionID string) (ConfirmationOutput, error) {
	orderNumber = strings.TrimSpace(orderNumber)
	transactionID = strings.TrimSpace(transactionID)
	if orderNumber == "" || transactionID == "" {
		return ConfirmationOutput{}, errNotFound
	}

	var out ConfirmationOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindPaidByNumber(ctx, orderNumber)
		if errors.Is(err, repo.ErrNotFound) {
			return errNotFound
		}
		if err != nil {
			return u.dbError("find order", err)
		}

		p, err := r.Payments().FindByTransactionID(ctx, transactionID)
		if errors.Is(err, repo.ErrNotFound) {
			return errNotFound
		}
		if err != nil {
			return u.dbError("find payment", err)
		}
		//別の注文の決済IDは存在しない扱い
		if o.PaymentID == nil || *o.PaymentID != p.ID {
			return errNotFound
		}

		items, err := r.OrderProducts().ListByOrderID(ctx, o.ID)
		if err != nil {
			return u.dbError("list order products", err)
		}

		var subtotal int64
		for _, it := range items {
			subtotal += it.ProductPrice * it.Quantity
		}

		out = ConfirmationOutput{
			Order: toOrderOutput(o, items),
			Payment: PaymentOutput{
				TransactionID: p.TransactionID,
				PaymentMethod: p.PaymentMethod,
				AmountPaid:    p.AmountPaid,
				Status:        p.Status,
			},
			Subtotal: subtotal,
		}
		return nil
	})
	if err != nil {
		return ConfirmationOutput{}, err
	}
	return out, nil
}

// カート明細 -> 注文明細スナップショット、在庫減算、カート削除
func (u *OrderUsecase) finalizeCart(ctx context.Context, r repo.TxRepos, user CheckoutUser, order model.Order, payment model.Payment) ([]OrderItemOutput, error) {
	cartItems, err := r.CartItems().ListByUserID(ctx, user.ID)
	if err != nil {
		return nil, u.dbError("list cart items", err)
	}

	products, err := r.Products().FindByIDs(ctx, productIDsOf(cartItems))
	if err != nil {
		return nil, u.dbError("find products", err)
	}

	snapshots := make([]model.OrderProduct, 0, len(cartItems))
	outs := make([]OrderItemOutput, 0, len(cartItems))

	for _, ci := range cartItems {
		p, ok := products[ci.ProductID]
		if !ok || !purchasable(ci, p) {
			continue
		}

		snapshots = append(snapshots, model.OrderProduct{
			OrderID:             order.ID,
			PaymentID:           payment.ID,
			UserID:              user.ID,
			ProductID:           p.ID,
			ProductNameSnapshot: p.Name,
			Quantity:            ci.Quantity,
			ProductPrice:        p.Price,
			Ordered:             true,
			Variations:          ci.Variations,
		})
		outs = append(outs, OrderItemOutput{
			ProductID:  p.ID,
			Name:       p.Name,
			Price:      p.Price,
			Quantity:   ci.Quantity,
			Variations: toVariationOutputs(ci.Variations),
		})

		//下限チェックはしない（マイナスになったら警告だけ）
		newStock, err := r.Inventory().DecreaseStock(ctx, p.ID, ci.Quantity)
		if err != nil {
			return nil, u.dbError("decrease stock", err)
		}
		if newStock < 0 {
			u.logger.Warn("stock went negative",
				zap.Int64("product_id", p.ID),
				zap.Int64("stock", newStock),
				zap.String("order_number", order.OrderNumber))
		}

		if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
			ProductID:   p.ID,
			OrderID:     order.ID,
			ActorUserID: user.ID,
			Delta:       -ci.Quantity,
			Reason:      "order " + order.OrderNumber,
		}); err != nil {
			return nil, u.dbError("create adjustment", err)
		}
	}

	if err := r.OrderProducts().CreateBulk(ctx, snapshots); err != nil {
		return nil, u.dbError("create order products", err)
	}

	if _, err := r.CartItems().DeleteByUserID(ctx, user.ID); err != nil {
		return nil, u.dbError("clear cart", err)
	}

	return outs, nil
}

// 処理済みの取引IDが来た場合。同じ注文なら同じ結果、違えば衝突
func (u *OrderUsecase) replayPayment(ctx context.Context, r repo.TxRepos, user CheckoutUser, in ConfirmPaymentInput, existing model.Payment) (PaymentResult, error) {
	if existing.UserID != user.ID {
		return PaymentResult{}, NewHTTPError(http.StatusConflict, "transaction already used")
	}

	o, err := r.Orders().FindByID(ctx, existing.OrderID)
	if errors.Is(err, repo.ErrNotFound) {
		return PaymentResult{}, NewHTTPError(http.StatusConflict, "transaction already used")
	}
	if err != nil {
		return PaymentResult{}, u.dbError("find order", err)
	}
	if o.OrderNumber != in.OrderNumber {
		return PaymentResult{}, NewHTTPError(http.StatusConflict, "transaction already used")
	}

	u.logger.Info("payment replayed",
		zap.Int64("user_id", user.ID),
		zap.String("order_number", o.OrderNumber),
		zap.String("transaction_id", existing.TransactionID))
	return PaymentResult{OrderNumber: o.OrderNumber, TransactionID: existing.TransactionID}, nil
}

// ロックが使えないときはDBのunique制約だけで守る
func (u *OrderUsecase) acquirePaymentLock(ctx context.Context, transactionID string) (func(), error) {
	noop := func() {}
	if u.lock == nil {
		return noop, nil
	}

	key := "payment:" + transactionID
	ok, err := u.lock.Acquire(ctx, key, u.cfg.PaymentLockTTL)
	if err != nil {
		u.logger.Warn("payment lock unavailable", zap.String("key", key), zap.Error(err))
		return noop, nil
	}
	if !ok {
		return noop, NewHTTPError(http.StatusConflict, "payment is being processed")
	}

	return func() {
		if err := u.lock.Release(context.WithoutCancel(ctx), key); err != nil {
			u.logger.Warn("payment lock release failed", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

// 通知はレスポンスを待たせない
func (u *OrderUsecase) dispatchNotice(n OrderConfirmedNotice) {
	if u.notifier == nil {
		return
	}
	u.inflight.Add(1)
	go func() {
		defer u.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), u.cfg.NotifyTimeout)
		defer cancel()

		if err := u.notifier.NotifyOrderConfirmed(ctx, n); err != nil {
			u.logger.Warn("order confirmation notice failed",
				zap.String("order_number", n.OrderNumber),
				zap.Error(err))
		}
	}()
}

// Wait は送信中の通知が終わるまで待つ。通知先を閉じる前に呼ぶ。
func (u *OrderUsecase) Wait() {
	u.inflight.Wait()
}

func (u *OrderUsecase) dbError(op string, err error) error {
	u.logger.Error("order db error", zap.String("op", op), zap.Error(err))
	return errDB
}

func toOrderOutput(o model.Order, items []model.OrderProduct) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID:  it.ProductID,
			Name:       it.ProductNameSnapshot,
			Price:      it.ProductPrice,
			Quantity:   it.Quantity,
			Variations: toVariationOutputs(it.Variations),
		})
	}

	return OrderOutput{
		ID:           o.ID,
		OrderNumber:  o.OrderNumber,
		UserID:       o.UserID,
		Status:       string(o.Status),
		IsOrdered:    o.IsOrdered,
		FullName:     o.FullName(),
		Email:        o.Email,
		Phone:        o.Phone,
		AddressLine1: o.AddressLine1,
		AddressLine2: o.AddressLine2,
		Country:      o.Country,
		State:        o.State,
		City:         o.City,
		OrderNote:    o.OrderNote,
		OrderTotal:   o.OrderTotal,
		Tax:          o.Tax,
		CreatedAt:    o.CreatedAt,
		Items:        outItems,
	}
}

func mustJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
