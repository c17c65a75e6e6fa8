package usecase_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"shopcart/internal/domain/model"
	repo "shopcart/internal/repository"
	"shopcart/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// =====================
// TxManager / TxRepos mocks
// =====================

// TxManagerMock は WithinTx の中で渡す repos を固定して unit テストを回す
type TxManagerMock struct {
	mock.Mock
	Repos repo.TxRepos
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	// 呼ばれた事実だけ記録（ctxの具体値は問わない）
	m.Called(ctx)
	return fn(m.Repos)
}

type TxReposMock struct {
	orders        *OrderRepoMock
	orderProducts *OrderProductRepoMock
	payments      *PaymentRepoMock
	carts         *CartRepoMock
	cartItems     *CartItemRepoMock
	inventory     *InventoryRepoMock
	products      *ProductRepoMock
	auditLogs     *AuditLogRepoMock
}

func (r *TxReposMock) Orders() repo.OrderRepository               { return r.orders }
func (r *TxReposMock) OrderProducts() repo.OrderProductRepository { return r.orderProducts }
func (r *TxReposMock) Payments() repo.PaymentRepository           { return r.payments }
func (r *TxReposMock) Carts() repo.CartRepository                 { return r.carts }
func (r *TxReposMock) CartItems() repo.CartItemRepository         { return r.cartItems }
func (r *TxReposMock) Inventory() repo.InventoryRepository        { return r.inventory }
func (r *TxReposMock) Products() repo.ProductRepository           { return r.products }
func (r *TxReposMock) AuditLogs() repo.AuditLogRepository         { return r.auditLogs }

func newTxRepos() *TxReposMock {
	return &TxReposMock{
		orders:        new(OrderRepoMock),
		orderProducts: new(OrderProductRepoMock),
		payments:      new(PaymentRepoMock),
		carts:         new(CartRepoMock),
		cartItems:     new(CartItemRepoMock),
		inventory:     new(InventoryRepoMock),
		products:      new(ProductRepoMock),
		auditLogs:     new(AuditLogRepoMock),
	}
}

func newTxManager(r *TxReposMock) *TxManagerMock {
	tx := &TxManagerMock{Repos: r}
	tx.On("WithinTx", mock.Anything).Return(nil)
	return tx
}

// =====================
// Repository mocks
// =====================

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) FindByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *ProductRepoMock) FindByIDs(ctx context.Context, ids []int64) (map[int64]model.Product, error) {
	args := m.Called(ctx, ids)
	ps, _ := args.Get(0).(map[int64]model.Product)
	return ps, args.Error(1)
}

func (m *ProductRepoMock) ListVariations(ctx context.Context, productID int64) ([]model.Variation, error) {
	args := m.Called(ctx, productID)
	vs, _ := args.Get(0).([]model.Variation)
	return vs, args.Error(1)
}

type CartRepoMock struct{ mock.Mock }

func (m *CartRepoMock) FindBySessionToken(ctx context.Context, sessionToken string) (model.Cart, error) {
	args := m.Called(ctx, sessionToken)
	c, _ := args.Get(0).(model.Cart)
	return c, args.Error(1)
}

func (m *CartRepoMock) GetOrCreateBySessionToken(ctx context.Context, sessionToken string) (model.Cart, error) {
	args := m.Called(ctx, sessionToken)
	c, _ := args.Get(0).(model.Cart)
	return c, args.Error(1)
}

func (m *CartRepoMock) AssignUser(ctx context.Context, cartID int64, userID int64) error {
	args := m.Called(ctx, cartID, userID)
	return args.Error(0)
}

type CartItemRepoMock struct{ mock.Mock }

func (m *CartItemRepoMock) ListActiveByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	args := m.Called(ctx, cartID)
	items, _ := args.Get(0).([]model.CartItem)
	return items, args.Error(1)
}

func (m *CartItemRepoMock) ListByCartAndProduct(ctx context.Context, cartID int64, productID int64) ([]model.CartItem, error) {
	args := m.Called(ctx, cartID, productID)
	items, _ := args.Get(0).([]model.CartItem)
	return items, args.Error(1)
}

func (m *CartItemRepoMock) ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error) {
	args := m.Called(ctx, userID)
	items, _ := args.Get(0).([]model.CartItem)
	return items, args.Error(1)
}

func (m *CartItemRepoMock) FindInCart(ctx context.Context, cartID int64, productID int64, cartItemID int64) (model.CartItem, error) {
	args := m.Called(ctx, cartID, productID, cartItemID)
	it, _ := args.Get(0).(model.CartItem)
	return it, args.Error(1)
}

func (m *CartItemRepoMock) Create(ctx context.Context, item model.CartItem) (model.CartItem, error) {
	args := m.Called(ctx, item)
	it, _ := args.Get(0).(model.CartItem)
	return it, args.Error(1)
}

func (m *CartItemRepoMock) UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error {
	args := m.Called(ctx, cartItemID, qty)
	return args.Error(0)
}

func (m *CartItemRepoMock) DeleteByID(ctx context.Context, cartItemID int64) error {
	args := m.Called(ctx, cartItemID)
	return args.Error(0)
}

func (m *CartItemRepoMock) DeleteByUserID(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) Create(ctx context.Context, order model.Order) (int64, error) {
	args := m.Called(ctx, order)
	return args.Get(0).(int64), args.Error(1)
}

func (m *OrderRepoMock) SetOrderNumber(ctx context.Context, orderID int64, orderNumber string) error {
	args := m.Called(ctx, orderID, orderNumber)
	return args.Error(0)
}

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) FindUnpaidByNumber(ctx context.Context, userID int64, orderNumber string) (model.Order, error) {
	args := m.Called(ctx, userID, orderNumber)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) FindPaidByNumber(ctx context.Context, orderNumber string) (model.Order, error) {
	args := m.Called(ctx, orderNumber)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) MarkPaid(ctx context.Context, orderID int64, paymentID int64) error {
	args := m.Called(ctx, orderID, paymentID)
	return args.Error(0)
}

func (m *OrderRepoMock) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	args := m.Called(ctx, orderID, status)
	return args.Error(0)
}

func (m *OrderRepoMock) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	args := m.Called(ctx, f)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

type OrderProductRepoMock struct{ mock.Mock }

func (m *OrderProductRepoMock) CreateBulk(ctx context.Context, items []model.OrderProduct) error {
	args := m.Called(ctx, items)
	return args.Error(0)
}

func (m *OrderProductRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderProduct, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderProduct)
	return items, args.Error(1)
}

type PaymentRepoMock struct{ mock.Mock }

func (m *PaymentRepoMock) Create(ctx context.Context, payment model.Payment) (model.Payment, error) {
	args := m.Called(ctx, payment)
	p, _ := args.Get(0).(model.Payment)
	return p, args.Error(1)
}

func (m *PaymentRepoMock) FindByTransactionID(ctx context.Context, transactionID string) (model.Payment, error) {
	args := m.Called(ctx, transactionID)
	p, _ := args.Get(0).(model.Payment)
	return p, args.Error(1)
}

func (m *PaymentRepoMock) FindByID(ctx context.Context, paymentID int64) (model.Payment, error) {
	args := m.Called(ctx, paymentID)
	p, _ := args.Get(0).(model.Payment)
	return p, args.Error(1)
}

type InventoryRepoMock struct{ mock.Mock }

func (m *InventoryRepoMock) DecreaseStock(ctx context.Context, productID int64, qty int64) (int64, error) {
	args := m.Called(ctx, productID, qty)
	return args.Get(0).(int64), args.Error(1)
}

func (m *InventoryRepoMock) IncreaseStock(ctx context.Context, productID int64, qty int64) error {
	args := m.Called(ctx, productID, qty)
	return args.Error(0)
}

func (m *InventoryRepoMock) CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error {
	args := m.Called(ctx, adjustment)
	return args.Error(0)
}

type AuditLogRepoMock struct{ mock.Mock }

func (m *AuditLogRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *AuditLogRepoMock) ListByResource(ctx context.Context, resourceType model.AuditResourceType, resourceID int64, limit int) ([]model.AuditLog, error) {
	args := m.Called(ctx, resourceType, resourceID, limit)
	logs, _ := args.Get(0).([]model.AuditLog)
	return logs, args.Error(1)
}

// =====================
// ports mocks
// =====================

type BillingValidatorMock struct{ mock.Mock }

func (m *BillingValidatorMock) ValidateBilling(ctx context.Context, form usecase.BillingForm) error {
	args := m.Called(ctx, form)
	return args.Error(0)
}

// 通知はgoroutineで呼ばれるのでチャネルで受け取る
type NotifierStub struct {
	ch  chan usecase.OrderConfirmedNotice
	err error
}

func newNotifierStub(err error) *NotifierStub {
	return &NotifierStub{ch: make(chan usecase.OrderConfirmedNotice, 4), err: err}
}

func (n *NotifierStub) NotifyOrderConfirmed(ctx context.Context, notice usecase.OrderConfirmedNotice) error {
	n.ch <- notice
	return n.err
}

type PaymentLockMock struct{ mock.Mock }

func (m *PaymentLockMock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *PaymentLockMock) Release(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// =====================
// Helper
// =====================

func assertErrContains(t *testing.T, err error, wantSubstr string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.True(t, strings.Contains(err.Error(), wantSubstr), "err=%q want contains %q", err.Error(), wantSubstr)
	}
}

func assertHTTPStatus(t *testing.T, err error, status int) {
	t.Helper()
	he, ok := usecase.AsHTTPError(err)
	if assert.True(t, ok, "err=%v is not HTTPError", err) {
		assert.Equal(t, status, he.Status)
	}
}

func nopLogger() *zap.Logger {
	return zap.NewNop()
}
