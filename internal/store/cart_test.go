package store_test

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"github.com/DRSN-tech/storefront-shell/internal/domain"
	"github.com/DRSN-tech/storefront-shell/internal/store"
	"github.com/DRSN-tech/storefront-shell/pkg/e"
)

func assertCartInvariants(t *testing.T, cart store.CartState) {
	t.Helper()

	var subtotal domain.Money
	count := 0
	for _, it := range cart.Items {
		if it.Quantity < 1 {
			t.Fatalf("item %s has quantity %d", it.Product.ID, it.Quantity)
		}
		if it.Subtotal != it.Product.Price.Mul(it.Quantity) {
			t.Fatalf("item %s subtotal = %d, want %d", it.Product.ID, it.Subtotal, it.Product.Price.Mul(it.Quantity))
		}
		subtotal += it.Subtotal
		count += it.Quantity
	}

	if cart.Subtotal != subtotal {
		t.Fatalf("subtotal = %d, want %d", cart.Subtotal, subtotal)
	}
	if cart.ItemCount != count {
		t.Fatalf("itemCount = %d, want %d", cart.ItemCount, count)
	}
	if len(cart.Items) == 0 {
		if cart.Tax != 0 || cart.Shipping != 0 || cart.Total != 0 {
			t.Fatalf("empty cart has totals %+v", cart)
		}
		return
	}
	if cart.Tax != subtotal.ApplyRate(store.TaxRate) {
		t.Fatalf("tax = %d for subtotal %d", cart.Tax, subtotal)
	}
	if (cart.Shipping == 0) != (subtotal >= store.FreeShippingThreshold) {
		t.Fatalf("shipping = %d for subtotal %d", cart.Shipping, subtotal)
	}
	if cart.Total != cart.Subtotal+cart.Tax+cart.Shipping {
		t.Fatalf("total = %d, want %d", cart.Total, cart.Subtotal+cart.Tax+cart.Shipping)
	}
}

func TestCartScenario(t *testing.T) {
	f := newFixture(t)
	cart := f.store.Cart()
	mug := product("p-1", domain.NewMoney(30, 0), 10)

	if err := cart.AddItem(mug, 2); err != nil {
		t.Fatal(err)
	}

	got := f.store.GetState().Cart
	if got.Subtotal != domain.NewMoney(60, 0) || got.Shipping != 0 || got.Tax != domain.NewMoney(6, 0) || got.Total != domain.NewMoney(66, 0) {
		t.Fatalf("cart after 2 units = %+v", got)
	}

	if err := cart.AddItem(mug, 1); err != nil {
		t.Fatal(err)
	}

	got = f.store.GetState().Cart
	if len(got.Items) != 1 || got.Items[0].Quantity != 3 {
		t.Fatalf("items = %+v", got.Items)
	}
	if got.Subtotal != domain.NewMoney(90, 0) || got.Tax != domain.NewMoney(9, 0) || got.Total != domain.NewMoney(99, 0) {
		t.Fatalf("cart after 3 units = %+v", got)
	}
}

func TestCartShippingBelowThreshold(t *testing.T) {
	f := newFixture(t)
	if err := f.store.Cart().AddItem(product("p-1", domain.NewMoney(20, 0), 5), 1); err != nil {
		t.Fatal(err)
	}

	got := f.store.GetState().Cart
	if got.Shipping != store.FlatShippingFee || got.Total != domain.NewMoney(32, 0) {
		t.Fatalf("cart = %+v", got)
	}
}

func TestAddItemMergesAndClampsToStock(t *testing.T) {
	f := newFixture(t)
	cart := f.store.Cart()
	p := product("p-1", domain.NewMoney(5, 0), 4)

	_ = cart.AddItem(p, 2)
	_ = cart.AddItem(p, 3)

	items := f.store.GetState().Cart.Items
	if len(items) != 1 {
		t.Fatalf("expected one line, got %d", len(items))
	}
	if items[0].Quantity != 4 {
		t.Fatalf("quantity = %d, want 4 (stock)", items[0].Quantity)
	}

	_ = cart.AddItem(product("p-2", domain.NewMoney(1, 0), 2), 7)
	if it, ok := cart.Item("p-2"); !ok || it.Quantity != 2 {
		t.Fatalf("new line = %+v, %v", it, ok)
	}
}

func TestAddItemRefreshesSnapshot(t *testing.T) {
	f := newFixture(t)
	cart := f.store.Cart()

	_ = cart.AddItem(product("p-1", domain.NewMoney(10, 0), 5), 1)
	_ = cart.AddItem(product("p-1", domain.NewMoney(12, 0), 5), 1)

	it, _ := cart.Item("p-1")
	if it.Product.Price != domain.NewMoney(12, 0) || it.Subtotal != domain.NewMoney(24, 0) {
		t.Fatalf("line = %+v", it)
	}
}

func TestAddItemRejectsInvalidInput(t *testing.T) {
	f := newFixture(t)
	before := f.store.GetState()

	if err := f.store.Cart().AddItem(product("p-1", 100, 5), 0); !errors.Is(err, e.ErrInvalidQuantity) {
		t.Fatalf("err = %v, want ErrInvalidQuantity", err)
	}
	if err := f.store.Cart().AddItem(product("p-1", 100, 0), 1); !errors.Is(err, e.ErrOutOfStock) {
		t.Fatalf("err = %v, want ErrOutOfStock", err)
	}

	if !reflect.DeepEqual(before, f.store.GetState()) {
		t.Fatal("rejected AddItem changed state")
	}
}

func TestUpdateQuantity(t *testing.T) {
	f := newFixture(t)
	cart := f.store.Cart()
	_ = cart.AddItem(product("p-1", domain.NewMoney(10, 0), 5), 1)

	cart.UpdateQuantity("p-1", 9)
	if it, _ := cart.Item("p-1"); it.Quantity != 5 {
		t.Fatalf("quantity = %d, want clamp to 5", it.Quantity)
	}

	cart.UpdateQuantity("p-1", 2)
	if it, _ := cart.Item("p-1"); it.Quantity != 2 || it.Subtotal != domain.NewMoney(20, 0) {
		t.Fatalf("line = %+v", it)
	}

	cart.UpdateQuantity("p-1", 0)
	if _, ok := cart.Item("p-1"); ok {
		t.Fatal("quantity 0 must remove the line")
	}
	assertCartInvariants(t, f.store.GetState().Cart)
}

func TestMissingItemOperationsAreNoOps(t *testing.T) {
	f := newFixture(t)
	_ = f.store.Cart().AddItem(product("p-1", domain.NewMoney(10, 0), 5), 2)

	notified := 0
	f.store.Subscribe(func(store.State, store.State) { notified++ })
	saves := f.storage.Saves()
	before := f.store.GetState()

	f.store.Cart().UpdateQuantity("missing", 3)
	f.store.Cart().RemoveItem("missing")

	if !reflect.DeepEqual(before, f.store.GetState()) {
		t.Fatal("state changed")
	}
	if notified != 0 {
		t.Fatalf("listeners notified %d times", notified)
	}
	if f.storage.Saves() != saves {
		t.Fatal("no-op mutation was persisted")
	}
}

func TestClearCart(t *testing.T) {
	f := newFixture(t)
	_ = f.store.Cart().AddItem(product("p-1", domain.NewMoney(70, 0), 5), 2)

	f.store.Cart().ClearCart()

	got := f.store.GetState().Cart
	if got.Items == nil || len(got.Items) != 0 {
		t.Fatalf("items = %#v, want empty non-nil slice", got.Items)
	}
	if got.Subtotal != 0 || got.Tax != 0 || got.Shipping != 0 || got.Total != 0 || got.ItemCount != 0 {
		t.Fatalf("totals = %+v", got)
	}
}

func TestCartInvariantsHoldForRandomSequences(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	catalog := []domain.Product{
		product("p-1", 1999, 3),
		product("p-2", 500, 10),
		product("p-3", 4999, 1),
		product("p-4", 15, 50),
	}

	for run := 0; run < 20; run++ {
		f := newFixture(t)
		cart := f.store.Cart()

		for step := 0; step < 50; step++ {
			p := catalog[rnd.Intn(len(catalog))]
			switch rnd.Intn(3) {
			case 0:
				_ = cart.AddItem(p, rnd.Intn(5)+1)
			case 1:
				cart.UpdateQuantity(p.ID, rnd.Intn(8)-2)
			case 2:
				cart.RemoveItem(p.ID)
			}

			got := f.store.GetState().Cart
			assertCartInvariants(t, got)
			for _, it := range got.Items {
				if it.Quantity > it.Product.Stock {
					t.Fatalf("quantity %d exceeds stock %d", it.Quantity, it.Product.Stock)
				}
			}
		}
	}
}
