package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/kendall-kelly/checkout-flow-api/config"
	"github.com/kendall-kelly/checkout-flow-api/models"
	"gorm.io/gorm"
)

// CurrentCart returns the actor's open cart: the newest order that is still
// a draft or in checkout. ErrOrderNotFound means the actor has no cart.
func (m *Manager) CurrentCart(ctx context.Context, actor Actor) (*models.Order, error) {
	db := config.DBFromContext(ctx, m.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("state IN ?", []string{string(models.StateDraft), string(models.StateInCheckout)})

	if actor.IsAnonymous() {
		if actor.SessionToken == "" {
			return nil, ErrOrderNotFound
		}
		ids, err := m.deps.Sessions.Orders(ctx, actor.SessionToken)
		if err != nil {
			return nil, fmt.Errorf("look up guest session: %w", err)
		}
		if len(ids) == 0 {
			return nil, ErrOrderNotFound
		}
		db = db.Where("id IN ?", ids)
	} else {
		db = db.Where("owner_id = ?", actor.UserID)
	}

	var order models.Order
	err := db.Order("id DESC").First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return &order, nil
}

// AddToCart adds quantity units of a product variation to the actor's
// cart, creating the cart when there is none. Anonymous carts are bound to
// the actor's session.
func (m *Manager) AddToCart(ctx context.Context, actor Actor, variationID uint, quantity int) (*models.Order, error) {
	if actor.IsAnonymous() && actor.SessionToken == "" {
		return nil, fmt.Errorf("%w: anonymous request without a session", ErrAccessDenied)
	}
	if quantity <= 0 {
		verr := &ValidationError{}
		verr.Add("quantity", ReasonInvalid, "Quantity must be greater than zero.")
		return nil, verr
	}

	var order *models.Order
	err := config.WithTx(ctx, m.db, func(ctx context.Context) error {
		db := config.DBFromContext(ctx, m.db)

		var variation models.ProductVariation
		err := db.Where("id = ? AND active = ?", variationID, true).First(&variation).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrVariationNotFound
		}
		if err != nil {
			return fmt.Errorf("load product variation: %w", err)
		}

		order, err = m.CurrentCart(ctx, actor)
		switch {
		case errors.Is(err, ErrOrderNotFound):
			order, err = m.createCart(ctx, actor, variation.Currency)
			if err != nil {
				return err
			}
		case err != nil:
			return err
		}

		version := order.Version
		item := order.AddItem(variation, quantity)
		if err := db.Save(item).Error; err != nil {
			return fmt.Errorf("save order item: %w", err)
		}
		if err := m.log(ctx, order, actor, models.LogCategoryCart, "", variation.SKU,
			fmt.Sprintf("Added %d x %s to the cart", quantity, variation.Title)); err != nil {
			return err
		}
		return m.saveOrder(ctx, order, version)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// RemoveFromCart removes a line item from the actor's cart. Emptying a cart
// that is in checkout sends it back to draft.
func (m *Manager) RemoveFromCart(ctx context.Context, actor Actor, itemID uint) (*models.Order, error) {
	var order *models.Order
	err := config.WithTx(ctx, m.db, func(ctx context.Context) error {
		var err error
		order, err = m.CurrentCart(ctx, actor)
		if err != nil {
			return err
		}

		version := order.Version
		item, ok := order.RemoveItem(itemID)
		if !ok {
			return ErrItemNotFound
		}
		if err := config.DBFromContext(ctx, m.db).Delete(&models.OrderItem{}, item.ID).Error; err != nil {
			return fmt.Errorf("delete order item: %w", err)
		}
		if err := m.log(ctx, order, actor, models.LogCategoryCart, item.SKU, "",
			fmt.Sprintf("Removed %s from the cart", item.Title)); err != nil {
			return err
		}

		if !order.HasItems() && order.State == models.StateInCheckout {
			if err := m.applyTransition(ctx, actor, order, TransitionReturnToCart); err != nil {
				return err
			}
			order.ResetCheckout()
		}
		return m.saveOrder(ctx, order, version)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (m *Manager) createCart(ctx context.Context, actor Actor, currency string) (*models.Order, error) {
	db := config.DBFromContext(ctx, m.db)
	order := &models.Order{
		OwnerID:  actor.UserRef(),
		State:    models.StateDraft,
		Currency: currency,
		Version:  1,
	}

	if !actor.IsAnonymous() {
		var owner models.User
		if err := db.First(&owner, actor.UserID).Error; err != nil {
			return nil, fmt.Errorf("load cart owner: %w", err)
		}
		order.Email = owner.Email
	}

	if err := db.Create(order).Error; err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}
	if actor.IsAnonymous() {
		if err := m.deps.Sessions.Bind(ctx, actor.SessionToken, order.ID); err != nil {
			return nil, fmt.Errorf("bind cart to session: %w", err)
		}
	}
	return order, nil
}
