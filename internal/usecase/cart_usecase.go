package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"shopcart/internal/domain/model"
	repo "shopcart/internal/repository"

	"go.uber.org/zap"
)

// CartUsecase はセッション単位のカート操作です。
// セッショントークンは必ず引数で受け取る（リクエストから暗黙に読まない）。
type CartUsecase struct {
	tx           repo.TransactionManager
	cartRepo     repo.CartRepository
	cartItemRepo repo.CartItemRepository
	productRepo  repo.ProductRepository
	taxPercent   int64
	logger       *zap.Logger
}

func NewCartUsecase(
	tx repo.TransactionManager,
	cartRepo repo.CartRepository,
	cartItemRepo repo.CartItemRepository,
	productRepo repo.ProductRepository,
	taxPercent int64,
	logger *zap.Logger,
) *CartUsecase {
	return &CartUsecase{
		tx:           tx,
		cartRepo:     cartRepo,
		cartItemRepo: cartItemRepo,
		productRepo:  productRepo,
		taxPercent:   taxPercent,
		logger:       logger,
	}
}

type CartItemResponse struct {
	ID         int64             `json:"id"`
	ProductID  int64             `json:"product_id"`
	Name       string            `json:"name"`
	Price      int64             `json:"price"`
	Quantity   int64             `json:"quantity"`
	SubTotal   int64             `json:"sub_total"`
	Variations []VariationOutput `json:"variations"`
}

type CartResponse struct {
	Items []CartItemResponse `json:"items"`
	Totals
}

// 選択肢は category -> value
type AddCartInput struct {
	ProductID int64
	Options   map[string]string
}

// 明細の減らし方
type RemoveMode int

const (
	// 数量を1減らす（1なら削除）
	RemoveDecrement RemoveMode = iota
	// 数量に関係なく削除
	RemoveDelete
)

// AddToCart は商品を1つ追加する。
// 同じ商品・同じ選択肢の組み合わせの明細があれば数量+1、無ければ新しい明細を作る。
func (u *CartUsecase) AddToCart(ctx context.Context, sessionToken string, in AddCartInput) (CartResponse, error) {
	sessionToken = strings.TrimSpace(sessionToken)
	if sessionToken == "" {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid session")
	}
	if in.ProductID <= 0 {
		return CartResponse{}, errNotFound
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().FindByID(ctx, in.ProductID)
		if errors.Is(err, repo.ErrNotFound) {
			return errNotFound
		}
		if err != nil {
			return u.dbError("find product", err)
		}
		if !p.IsActive {
			return errNotFound
		}

		available, err := r.Products().ListVariations(ctx, p.ID)
		if err != nil {
			return u.dbError("list variations", err)
		}
		selected := resolveVariations(available, in.Options)

		cart, err := r.Carts().GetOrCreateBySessionToken(ctx, sessionToken)
		if err != nil {
			return u.dbError("get or create cart", err)
		}

		items, err := r.CartItems().ListByCartAndProduct(ctx, cart.ID, p.ID)
		if err != nil {
			return u.dbError("list cart items", err)
		}

		for _, it := range items {
			if !sameVariationSet(it.Variations, selected) {
				continue
			}
			if err := r.CartItems().UpdateQuantity(ctx, it.ID, it.Quantity+1); err != nil {
				return u.dbError("increment cart item", err)
			}
			return nil
		}

		_, err = r.CartItems().Create(ctx, model.CartItem{
			CartID:     cart.ID,
			ProductID:  p.ID,
			Quantity:   1,
			IsActive:   true,
			Variations: selected,
		})
		if err != nil {
			return u.dbError("create cart item", err)
		}
		return nil
	})
	if err != nil {
		return CartResponse{}, err
	}

	return u.ViewCart(ctx, sessionToken)
}

// RemoveCartItem は明細を減らす/消す。
// カートや明細が無いのは正常扱い（何もしない）。それ以外の失敗は返す。
func (u *CartUsecase) RemoveCartItem(ctx context.Context, sessionToken string, productID int64, cartItemID int64, mode RemoveMode) (CartResponse, error) {
	sessionToken = strings.TrimSpace(sessionToken)
	if sessionToken == "" || productID <= 0 || cartItemID <= 0 {
		return u.ViewCart(ctx, sessionToken)
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().FindBySessionToken(ctx, sessionToken)
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		if err != nil {
			return u.dbError("find cart", err)
		}

		item, err := r.CartItems().FindInCart(ctx, cart.ID, productID, cartItemID)
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		if err != nil {
			return u.dbError("find cart item", err)
		}

		if mode == RemoveDecrement && item.Quantity > 1 {
			if err := r.CartItems().UpdateQuantity(ctx, item.ID, item.Quantity-1); err != nil && !errors.Is(err, repo.ErrNotFound) {
				return u.dbError("decrement cart item", err)
			}
			return nil
		}

		if err := r.CartItems().DeleteByID(ctx, item.ID); err != nil && !errors.Is(err, repo.ErrNotFound) {
			return u.dbError("delete cart item", err)
		}
		return nil
	})
	if err != nil {
		return CartResponse{}, err
	}

	return u.ViewCart(ctx, sessionToken)
}

// ViewCart は有効な明細と合計を返す。カートが無ければ空で返す。
func (u *CartUsecase) ViewCart(ctx context.Context, sessionToken string) (CartResponse, error) {
	empty := CartResponse{Items: []CartItemResponse{}}

	sessionToken = strings.TrimSpace(sessionToken)
	if sessionToken == "" {
		return empty, nil
	}

	cart, err := u.cartRepo.FindBySessionToken(ctx, sessionToken)
	if errors.Is(err, repo.ErrNotFound) {
		return empty, nil
	}
	if err != nil {
		return CartResponse{}, u.dbError("find cart", err)
	}

	items, err := u.cartItemRepo.ListActiveByCartID(ctx, cart.ID)
	if err != nil {
		return CartResponse{}, u.dbError("list cart items", err)
	}

	resp, err := priceCart(ctx, u.productRepo, items, u.taxPercent)
	if err != nil {
		return CartResponse{}, u.dbError("price cart", err)
	}
	return resp, nil
}

// ClaimCart はセッションのカートをログインユーザーに紐付ける（何度呼んでも同じ）。
func ClaimCart(ctx context.Context, carts repo.CartRepository, sessionToken string, userID int64) error {
	sessionToken = strings.TrimSpace(sessionToken)
	if sessionToken == "" {
		return nil
	}

	cart, err := carts.FindBySessionToken(ctx, sessionToken)
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if cart.UserID != nil && *cart.UserID == userID {
		return nil
	}
	return carts.AssignUser(ctx, cart.ID, userID)
}

// 明細に商品情報を付けて合計を計算する（カート表示と注文作成で共通）
func priceCart(ctx context.Context, products repo.ProductRepository, items []model.CartItem, taxPercent int64) (CartResponse, error) {
	byID, err := products.FindByIDs(ctx, productIDsOf(items))
	if err != nil {
		return CartResponse{}, err
	}

	respItems := make([]CartItemResponse, 0, len(items))
	lines := make([]pricedLine, 0, len(items))

	for _, it := range items {
		p, ok := byID[it.ProductID]
		if !ok || !purchasable(it, p) {
			continue
		}

		respItems = append(respItems, CartItemResponse{
			ID:         it.ID,
			ProductID:  it.ProductID,
			Name:       p.Name,
			Price:      p.Price,
			Quantity:   it.Quantity,
			SubTotal:   p.Price * it.Quantity,
			Variations: toVariationOutputs(it.Variations),
		})
		lines = append(lines, pricedLine{UnitPrice: p.Price, Quantity: it.Quantity})
	}

	return CartResponse{Items: respItems, Totals: computeTotals(lines, taxPercent)}, nil
}

// 明細も商品も有効なものだけ合計・注文の対象
func purchasable(it model.CartItem, p model.Product) bool {
	return it.IsActive && it.Quantity > 0 && p.IsActive && !p.DeletedAt.Valid
}

func (u *CartUsecase) dbError(op string, err error) error {
	u.logger.Error("cart db error", zap.String("op", op), zap.Error(err))
	return errDB
}

func productIDsOf(items []model.CartItem) []int64 {
	seen := make(map[int64]bool, len(items))
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		if seen[it.ProductID] {
			continue
		}
		seen[it.ProductID] = true
		ids = append(ids, it.ProductID)
	}
	return ids
}
