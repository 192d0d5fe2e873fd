package cart

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"
)

type cartTestContext struct {
	persister *MemoryPersister
	store     *Store
}

func (c *cartTestContext) reset() {
	c.persister = NewMemoryPersister()
	c.store = Open(context.Background(), c.persister, nil)
}

func (c *cartTestContext) anEmptyCart() error {
	c.reset()
	return nil
}

func (c *cartTestContext) iAddItemPriced(id int64, price int64) error {
	c.store.AddItem(context.Background(), Item{ID: id, Name: fmt.Sprintf("item-%d", id), Price: decimal.NewFromInt(price)})
	return nil
}

func (c *cartTestContext) iSetTheQuantity(id int64, qty int64) error {
	c.store.UpdateQuantity(context.Background(), id, qty)
	return nil
}

func (c *cartTestContext) iRemoveItem(id int64) error {
	c.store.RemoveItem(context.Background(), id)
	return nil
}

func (c *cartTestContext) iClearTheCart() error {
	c.store.Clear(context.Background())
	return nil
}

func (c *cartTestContext) iReloadTheCart() error {
	c.store = Open(context.Background(), c.persister, nil)
	return nil
}

func (c *cartTestContext) theSavedSnapshotIs(raw string) error {
	c.persister.SetRaw([]byte(raw))
	return nil
}

func (c *cartTestContext) theCartHasLines(n int) error {
	if got := len(c.store.Lines()); got != n {
		return fmt.Errorf("expected %d lines, got %d", n, got)
	}
	return nil
}

func (c *cartTestContext) itemHasQuantity(id int64, qty int64) error {
	for _, l := range c.store.Lines() {
		if l.ID == id {
			if l.Quantity != qty {
				return fmt.Errorf("expected item %d quantity %d, got %d", id, qty, l.Quantity)
			}
			return nil
		}
	}
	return fmt.Errorf("item %d not in cart", id)
}

func (c *cartTestContext) theTotalItemsIs(n int64) error {
	if got := c.store.Totals().TotalItems; got != n {
		return fmt.Errorf("expected total items %d, got %d", n, got)
	}
	return nil
}

func (c *cartTestContext) theTotalAmountIs(amount string) error {
	want, err := decimal.NewFromString(amount)
	if err != nil {
		return err
	}
	if got := c.store.Totals().TotalAmount; !got.Equal(want) {
		return fmt.Errorf("expected total amount %s, got %s", want, got)
	}
	return nil
}

func (c *cartTestContext) theCartIsEmpty() error {
	if !c.store.IsEmpty() {
		return errors.New("expected empty cart")
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &cartTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given
	ctx.Step(`^an empty cart$`, tc.anEmptyCart)
	ctx.Step(`^the cart contains item (\d+) priced (\d+)$`, tc.iAddItemPriced)
	ctx.Step(`^the saved snapshot is "([^"]*)"$`, tc.theSavedSnapshotIs)

	// When
	ctx.Step(`^I add item (\d+) priced (\d+)$`, tc.iAddItemPriced)
	ctx.Step(`^I set the quantity of item (\d+) to (-?\d+)$`, tc.iSetTheQuantity)
	ctx.Step(`^I remove item (\d+)$`, tc.iRemoveItem)
	ctx.Step(`^I clear the cart$`, tc.iClearTheCart)
	ctx.Step(`^I reload the cart$`, tc.iReloadTheCart)

	// Then
	ctx.Step(`^the cart has (\d+) lines$`, tc.theCartHasLines)
	ctx.Step(`^item (\d+) has quantity (\d+)$`, tc.itemHasQuantity)
	ctx.Step(`^the total items is (\d+)$`, tc.theTotalItemsIs)
	ctx.Step(`^the total amount is "([^"]*)"$`, tc.theTotalAmountIs)
	ctx.Step(`^the cart is empty$`, tc.theCartIsEmpty)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/cart.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
