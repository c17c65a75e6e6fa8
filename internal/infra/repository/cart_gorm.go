package repository

import (
	"context"
	"errors"
	"time"

	"shopcart/internal/domain/model"
	repo "shopcart/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Cart と CartItem の両方を実装する
type CartGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartGormRepository(db *gorm.DB) *CartGormRepository {
	return &CartGormRepository{db: db}
}

func (r *CartGormRepository) FindBySessionToken(ctx context.Context, sessionToken string) (model.Cart, error) {
	var cart model.Cart

	err := r.db.WithContext(ctx).
		Where("session_token = ?", sessionToken).
		First(&cart).Error
	if err != nil {
		return model.Cart{}, translateError(err)
	}
	return cart, nil
}

// セッションのカートを取得し、無ければ作成
func (r *CartGormRepository) GetOrCreateBySessionToken(ctx context.Context, sessionToken string) (model.Cart, error) {
	var cart model.Cart

	findErr := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("session_token = ?", sessionToken).
		First(&cart).Error
	if findErr == nil {
		return cart, nil
	}
	if !errors.Is(findErr, gorm.ErrRecordNotFound) {
		return model.Cart{}, findErr
	}

	// 無ければ作る（savepointで囲んで、競合したら読み直す）
	now := time.Now()
	newCart := model.Cart{
		SessionToken: sessionToken,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	createErr := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&newCart).Error
	})
	if createErr == nil {
		return newCart, nil
	}

	retryErr := r.db.WithContext(ctx).
		Where("session_token = ?", sessionToken).
		First(&cart).Error
	if retryErr == nil {
		return cart, nil
	}
	return model.Cart{}, createErr
}

func (r *CartGormRepository) AssignUser(ctx context.Context, cartID int64, userID int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.Cart{}).
		Where("id = ?", cartID).
		Update("user_id", userID)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 有効な明細を一覧取得
func (r *CartGormRepository) ListActiveByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	var items []model.CartItem

	if err := r.db.WithContext(ctx).
		Preload("Variations").
		Where("cart_id = ? AND is_active = ?", cartID, true).
		Order("id asc").
		Find(&items).Error; err != nil {
		return []model.CartItem{}, err
	}
	return items, nil
}

// 同じ商品の明細（選択肢違いで複数行あり得る）
func (r *CartGormRepository) ListByCartAndProduct(ctx context.Context, cartID int64, productID int64) ([]model.CartItem, error) {
	var items []model.CartItem

	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Variations").
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Order("id asc").
		Find(&items).Error; err != nil {
		return []model.CartItem{}, err
	}
	return items, nil
}

func (r *CartGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error) {
	var items []model.CartItem

	if err := r.db.WithContext(ctx).
		Preload("Variations").
		Where("cart_id IN (?)", r.userCartIDs(userID)).
		Order("id asc").
		Find(&items).Error; err != nil {
		return []model.CartItem{}, err
	}
	return items, nil
}

func (r *CartGormRepository) FindInCart(ctx context.Context, cartID int64, productID int64, cartItemID int64) (model.CartItem, error) {
	var item model.CartItem

	err := r.db.WithContext(ctx).
		Preload("Variations").
		Where("id = ? AND cart_id = ? AND product_id = ?", cartItemID, cartID, productID).
		First(&item).Error
	if err != nil {
		return model.CartItem{}, translateError(err)
	}
	return item, nil
}

// 明細を作成（選択肢は既存のVariationへの紐付けだけ行う）
func (r *CartGormRepository) Create(ctx context.Context, item model.CartItem) (model.CartItem, error) {
	if item.Quantity <= 0 {
		return model.CartItem{}, errors.New("invalid quantity")
	}

	if err := r.db.WithContext(ctx).
		Omit("Variations.*").
		Create(&item).Error; err != nil {
		return model.CartItem{}, err
	}
	return item, nil
}

// 明細の数量を更新
func (r *CartGormRepository) UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.CartItem{}).
		Where("id = ?", cartItemID).
		Update("quantity", qty)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 明細を削除（選択肢の紐付けも消す）
func (r *CartGormRepository) DeleteByID(ctx context.Context, cartItemID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM cart_item_variations WHERE cart_item_id = ?", cartItemID).Error; err != nil {
			return err
		}

		res := tx.Delete(&model.CartItem{}, cartItemID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}
		return nil
	})
}

// ユーザーのカート明細を全削除。削除件数を返す
func (r *CartGormRepository) DeleteByUserID(ctx context.Context, userID int64) (int64, error) {
	var deleted int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		itemIDs := tx.Model(&model.CartItem{}).
			Select("id").
			Where("cart_id IN (?)", r.userCartIDs(userID))

		if err := tx.Exec("DELETE FROM cart_item_variations WHERE cart_item_id IN (?)", itemIDs).Error; err != nil {
			return err
		}

		res := tx.Where("cart_id IN (?)", r.userCartIDs(userID)).Delete(&model.CartItem{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

func (r *CartGormRepository) userCartIDs(userID int64) *gorm.DB {
	return r.db.Model(&model.Cart{}).Select("id").Where("user_id = ?", userID)
}
