package repository_test

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"shopcart/internal/domain/model"
	"shopcart/internal/infra/lock"
	"shopcart/internal/infra/notify"
	infraRepo "shopcart/internal/infra/repository"
	"shopcart/internal/usecase"
	"shopcart/internal/validator"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type stubClock struct{ t time.Time }

func (c stubClock) Now() time.Time { return c.t }

func openFlowDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, gdb.AutoMigrate(model.All()...))
	return gdb
}

func flowBilling() usecase.BillingForm {
	return usecase.BillingForm{
		FirstName:    "Taro",
		LastName:     "Yamada",
		Phone:        "09012345678",
		Email:        "taro@example.com",
		AddressLine1: "1-2-3 Shibuya",
		Country:      "Japan",
		State:        "Tokyo",
		City:         "Shibuya",
	}
}

// カート追加から決済確定、完了画面までを実DBで通す
func TestCheckoutFlow(t *testing.T) {
	ctx := context.Background()
	gdb := openFlowDB(t)

	shirt := model.Product{Name: "T-shirt", Price: 100, Stock: 1, IsActive: true, Variations: []model.Variation{
		{Category: "color", Value: "red", IsActive: true},
		{Category: "color", Value: "blue", IsActive: true},
	}}
	mug := model.Product{Name: "Mug", Price: 50, Stock: 5, IsActive: true}
	require.NoError(t, gdb.Create(&shirt).Error)
	require.NoError(t, gdb.Create(&mug).Error)

	cartRepo := infraRepo.NewCartGormRepository(gdb)
	productRepo := infraRepo.NewProductGormRepository(gdb)
	txm := infraRepo.NewTxManagerGorm(gdb)
	clock := stubClock{t: time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)}

	cartUC := usecase.NewCartUsecase(txm, cartRepo, cartRepo, productRepo, 2, zap.NewNop())
	orderUC := usecase.NewOrderUsecase(
		txm,
		validator.NewBillingValidator(),
		notify.NewLogNotifier(zap.NewNop()),
		lock.NoopLock{},
		clock,
		usecase.OrderConfig{TaxPercent: 2},
		zap.NewNop(),
	)

	const session = "0b7d3f8e-5c1a-4d8e-9f00-6a2b1c3d4e5f"
	user := usecase.CheckoutUser{ID: 42, Email: "taro@example.com"}

	// 大文字小文字違いでも同じ明細にまとまる
	_, err := cartUC.AddToCart(ctx, session, usecase.AddCartInput{ProductID: shirt.ID, Options: map[string]string{"color": "red"}})
	require.NoError(t, err)
	_, err = cartUC.AddToCart(ctx, session, usecase.AddCartInput{ProductID: shirt.ID, Options: map[string]string{"Color": "RED"}})
	require.NoError(t, err)
	view, err := cartUC.AddToCart(ctx, session, usecase.AddCartInput{ProductID: mug.ID})
	require.NoError(t, err)

	require.Len(t, view.Items, 2)
	assert.Equal(t, int64(2), view.Items[0].Quantity)
	assert.Equal(t, int64(250), view.Subtotal)
	assert.Equal(t, int64(5), view.Tax)
	assert.Equal(t, int64(255), view.GrandTotal)

	placed, err := orderUC.PlaceOrder(ctx, user, usecase.PlaceOrderInput{
		SessionToken: session,
		IP:           "203.0.113.7",
		Billing:      flowBilling(),
	})
	require.NoError(t, err)
	assert.Equal(t, "20240105"+strconv.FormatInt(placed.Order.ID, 10), placed.Order.OrderNumber)
	assert.Equal(t, int64(255), placed.Order.OrderTotal)
	assert.Equal(t, int64(5), placed.Order.Tax)
	assert.False(t, placed.Order.IsOrdered)

	in := usecase.ConfirmPaymentInput{
		OrderNumber:   placed.Order.OrderNumber,
		TransactionID: "PAYID-123",
		PaymentMethod: "PayPal",
		Status:        "COMPLETED",
	}
	res, err := orderUC.ConfirmPayment(ctx, user, in)
	require.NoError(t, err)
	assert.Equal(t, placed.Order.OrderNumber, res.OrderNumber)
	assert.Equal(t, "PAYID-123", res.TransactionID)

	// 同じ通知の再送は同じ結果で、副作用は増えない
	again, err := orderUC.ConfirmPayment(ctx, user, in)
	require.NoError(t, err)
	assert.Equal(t, res, again)

	var payments []model.Payment
	require.NoError(t, gdb.Find(&payments).Error)
	require.Len(t, payments, 1)
	assert.Equal(t, int64(255), payments[0].AmountPaid)

	var stocks []model.Product
	require.NoError(t, gdb.Order("id asc").Find(&stocks).Error)
	assert.Equal(t, int64(-1), stocks[0].Stock)
	assert.Equal(t, int64(4), stocks[1].Stock)

	var adjustments int64
	require.NoError(t, gdb.Model(&model.InventoryAdjustment{}).Count(&adjustments).Error)
	assert.Equal(t, int64(2), adjustments)

	var audits []model.AuditLog
	require.NoError(t, gdb.Find(&audits).Error)
	require.Len(t, audits, 1)
	assert.Equal(t, model.AuditActionConfirmPayment, audits[0].Action)

	left, err := cartRepo.ListByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, left)

	// 決済後に価格が変わっても完了画面はスナップショットのまま
	require.NoError(t, gdb.Model(&model.Product{}).Where("id = ?", shirt.ID).Update("price", 999).Error)

	conf, err := orderUC.GetOrderConfirmation(ctx, placed.Order.OrderNumber, "PAYID-123")
	require.NoError(t, err)
	assert.Equal(t, int64(250), conf.Subtotal)
	assert.Equal(t, int64(255), conf.Order.OrderTotal)
	assert.Equal(t, "Taro Yamada", conf.Order.FullName)
	require.Len(t, conf.Order.Items, 2)
	require.Len(t, conf.Order.Items[0].Variations, 1)
	assert.Equal(t, "red", conf.Order.Items[0].Variations[0].Value)

	_, err = orderUC.GetOrderConfirmation(ctx, placed.Order.OrderNumber, "PAYID-other")
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, 404, he.Status)
}

type mugCheckout struct {
	gdb     *gorm.DB
	mug     model.Product
	carts   *infraRepo.CartGormRepository
	orderUC *usecase.OrderUsecase
	adminUC *usecase.AdminOrderUsecase
	user    usecase.CheckoutUser
	placed  usecase.PlaceOrderOutput
}

// 在庫5のマグを1つカートに入れて、未決済の注文まで進める。notifierがnilならログのみ
func placeMugOrder(t *testing.T, notifier usecase.OrderNotifier) mugCheckout {
	t.Helper()
	if notifier == nil {
		notifier = notify.NewLogNotifier(zap.NewNop())
	}
	ctx := context.Background()
	gdb := openFlowDB(t)

	mug := model.Product{Name: "Mug", Price: 50, Stock: 5, IsActive: true}
	require.NoError(t, gdb.Create(&mug).Error)

	cartRepo := infraRepo.NewCartGormRepository(gdb)
	txm := infraRepo.NewTxManagerGorm(gdb)
	clock := stubClock{t: time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)}

	cartUC := usecase.NewCartUsecase(txm, cartRepo, cartRepo, infraRepo.NewProductGormRepository(gdb), 2, zap.NewNop())
	orderUC := usecase.NewOrderUsecase(
		txm,
		validator.NewBillingValidator(),
		notifier,
		lock.NoopLock{},
		clock,
		usecase.OrderConfig{TaxPercent: 2},
		zap.NewNop(),
	)

	const session = "3c1f6a2e-7b8d-4e9f-a0b1-c2d3e4f5a6b7"
	user := usecase.CheckoutUser{ID: 42, Email: "taro@example.com"}

	_, err := cartUC.AddToCart(ctx, session, usecase.AddCartInput{ProductID: mug.ID})
	require.NoError(t, err)
	placed, err := orderUC.PlaceOrder(ctx, user, usecase.PlaceOrderInput{SessionToken: session, Billing: flowBilling()})
	require.NoError(t, err)

	return mugCheckout{
		gdb:     gdb,
		mug:     mug,
		carts:   cartRepo,
		orderUC: orderUC,
		adminUC: usecase.NewAdminOrderUsecase(txm, clock, zap.NewNop()),
		user:    user,
		placed:  placed,
	}
}

func (f mugCheckout) payIn(txID string) usecase.ConfirmPaymentInput {
	return usecase.ConfirmPaymentInput{
		OrderNumber:   f.placed.Order.OrderNumber,
		TransactionID: txID,
		PaymentMethod: "PayPal",
		Status:        "COMPLETED",
	}
}

// 決済確定で何も書かれていないこと
func (f mugCheckout) assertUnpaid(t *testing.T) {
	t.Helper()

	var o model.Order
	require.NoError(t, f.gdb.First(&o, f.placed.Order.ID).Error)
	assert.False(t, o.IsOrdered)
	assert.Nil(t, o.PaymentID)

	var p model.Product
	require.NoError(t, f.gdb.First(&p, f.mug.ID).Error)
	assert.Equal(t, int64(5), p.Stock)

	for _, m := range []interface{}{&model.Payment{}, &model.OrderProduct{}, &model.InventoryAdjustment{}} {
		var n int64
		require.NoError(t, f.gdb.Model(m).Count(&n).Error)
		assert.Zero(t, n, "%T", m)
	}

	left, err := f.carts.ListByUserID(context.Background(), f.user.ID)
	require.NoError(t, err)
	assert.Len(t, left, 1)
}

// 管理者がキャンセルした未決済注文は決済できない
func TestCheckoutFlow_CanceledOrderCannotBePaid(t *testing.T) {
	ctx := context.Background()
	f := placeMugOrder(t, nil)

	require.NoError(t, f.adminUC.UpdateStatus(ctx, 1, f.placed.Order.ID, usecase.AdminUpdateOrderStatusInput{Status: "canceled"}))

	_, err := f.orderUC.ConfirmPayment(ctx, f.user, f.payIn("PAYID-late"))
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok, "%v", err)
	assert.Equal(t, 404, he.Status)

	var o model.Order
	require.NoError(t, f.gdb.First(&o, f.placed.Order.ID).Error)
	assert.Equal(t, model.OrderStatusCanceled, o.Status)
	f.assertUnpaid(t)
}

// 途中で失敗したら決済確定の書き込みはすべて戻る
func TestCheckoutFlow_FailureRollsBack(t *testing.T) {
	ctx := context.Background()
	f := placeMugOrder(t, nil)

	const cb = "shopcart:fail_audit_insert"
	require.NoError(t, f.gdb.Callback().Create().Before("gorm:create").Register(cb, func(db *gorm.DB) {
		if db.Statement.Table == "audit_logs" {
			_ = db.AddError(errors.New("audit log unavailable"))
		}
	}))

	_, err := f.orderUC.ConfirmPayment(ctx, f.user, f.payIn("PAYID-1"))
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok, "%v", err)
	assert.Equal(t, 500, he.Status)
	f.assertUnpaid(t)

	var audits int64
	require.NoError(t, f.gdb.Model(&model.AuditLog{}).Count(&audits).Error)
	assert.Zero(t, audits)

	// 復旧後は同じ取引IDで確定できる
	require.NoError(t, f.gdb.Callback().Create().Remove(cb))
	res, err := f.orderUC.ConfirmPayment(ctx, f.user, f.payIn("PAYID-1"))
	require.NoError(t, err)
	assert.Equal(t, "PAYID-1", res.TransactionID)

	var p model.Product
	require.NoError(t, f.gdb.First(&p, f.mug.ID).Error)
	assert.Equal(t, int64(4), p.Stock)
}

type slowNotifier struct {
	delay time.Duration
	sent  atomic.Int32
}

func (n *slowNotifier) NotifyOrderConfirmed(ctx context.Context, _ usecase.OrderConfirmedNotice) error {
	select {
	case <-time.After(n.delay):
	case <-ctx.Done():
		return ctx.Err()
	}
	n.sent.Add(1)
	return nil
}

// Waitは送信中の通知が終わるまで戻らない
func TestCheckoutFlow_WaitDrainsNotices(t *testing.T) {
	n := &slowNotifier{delay: 200 * time.Millisecond}
	f := placeMugOrder(t, n)

	_, err := f.orderUC.ConfirmPayment(context.Background(), f.user, f.payIn("PAYID-1"))
	require.NoError(t, err)
	assert.Equal(t, int32(0), n.sent.Load())

	f.orderUC.Wait()
	assert.Equal(t, int32(1), n.sent.Load())

	// 通知がなければすぐ戻る
	f.orderUC.Wait()
}
