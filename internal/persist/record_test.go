package persist

import (
	"strings"
	"testing"

	"github.com/DRSN-tech/storefront-shell/internal/domain"
)

func sampleSnapshot() Snapshot {
	token := "access-1"
	refresh := "refresh-1"
	product := domain.Product{ID: "p-1", Name: "Mug", Price: domain.NewMoney(30, 0), Stock: 5}

	return Snapshot{
		Auth: AuthPartition{
			Token:           &token,
			RefreshToken:    &refresh,
			User:            &domain.User{ID: "u-1", Email: "ann@example.com", Name: "Ann"},
			IsAuthenticated: true,
		},
		Cart: CartPartition{
			Items:     []domain.CartItem{{ID: "line-1", Product: product, Quantity: 2, Subtotal: domain.NewMoney(60, 0)}},
			Subtotal:  domain.NewMoney(60, 0),
			Tax:       domain.NewMoney(6, 0),
			Total:     domain.NewMoney(66, 0),
			ItemCount: 2,
		},
		UI: UIPartition{Theme: domain.ThemeDark},
	}
}

func TestEncodeShape(t *testing.T) {
	data, err := Encode(sampleSnapshot())
	if err != nil {
		t.Fatal(err)
	}

	s := string(data)
	for _, want := range []string{`{"state":{"auth":{`, `"cart":{"items":[`, `"ui":{"theme":"dark"}`, `"version":1}`} {
		if !strings.Contains(s, want) {
			t.Errorf("encoded record %s does not contain %s", s, want)
		}
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	data, err := Encode(sampleSnapshot())
	if err != nil {
		t.Fatal(err)
	}

	got := Decode(data)
	if !got.HasAuth || !got.HasCart || !got.HasUI {
		t.Fatalf("partitions missing: %+v", got)
	}
	if got.Auth.User.ID != "u-1" || *got.Auth.Token != "access-1" || !got.Auth.IsAuthenticated {
		t.Fatalf("auth = %+v", got.Auth)
	}
	if len(got.Cart.Items) != 1 || got.Cart.Items[0].Quantity != 2 || got.Cart.Total != domain.NewMoney(66, 0) {
		t.Fatalf("cart = %+v", got.Cart)
	}
	if got.UI.Theme != domain.ThemeDark {
		t.Fatalf("theme = %q", got.UI.Theme)
	}
}

func TestDecodeIsolatesCorruptPartition(t *testing.T) {
	data, err := Encode(sampleSnapshot())
	if err != nil {
		t.Fatal(err)
	}

	corruptions := map[string]string{
		"wrong shape":         `{"items":42}`,
		"invalid json string": `"{\"items\": [oops"`,
		"invalid item":        `{"items":[{"id":"x","product":{"id":"p-1","price":1},"quantity":0}]}`,
	}

	for name, cart := range corruptions {
		t.Run(name, func(t *testing.T) {
			start := strings.Index(string(data), `"cart":`) + len(`"cart":`)
			end := strings.Index(string(data), `,"ui":`)
			corrupted := string(data[:start]) + cart + string(data[end:])

			got := Decode([]byte(corrupted))
			if got.HasCart {
				t.Fatal("corrupt cart partition decoded as present")
			}
			if len(got.Cart.Items) != 0 {
				t.Fatalf("cart items = %v, want empty", got.Cart.Items)
			}
			if !got.HasAuth || got.Auth.User == nil || got.Auth.User.ID != "u-1" {
				t.Fatalf("auth not rehydrated: %+v", got.Auth)
			}
			if !got.HasUI || got.UI.Theme != domain.ThemeDark {
				t.Fatalf("ui not rehydrated: %+v", got.UI)
			}
		})
	}
}

func TestDecodeGarbage(t *testing.T) {
	for _, in := range []string{"", "not json", `{"state":`, `{"state":{},"version":99}`} {
		got := Decode([]byte(in))
		if got.HasAuth || got.HasCart || got.HasUI {
			t.Errorf("Decode(%q) reported partitions present", in)
		}
	}
}

func TestDecodeAuthDerivesIsAuthenticated(t *testing.T) {
	got := Decode([]byte(`{"state":{"auth":{"token":"t","user":null,"isAuthenticated":true}},"version":1}`))
	if !got.HasAuth {
		t.Fatal("auth partition missing")
	}
	if got.Auth.IsAuthenticated {
		t.Fatal("isAuthenticated must be false without a user")
	}
}
