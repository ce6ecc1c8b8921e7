package usecase

import (
	"errors"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/marketplace/internal/domain/errors"
	"github.com/polkiloo/marketplace/internal/domain/model"
)

func TestNormalizeCurrency(t *testing.T) {
	valid := map[string]string{"usd": "USD", " eur ": "EUR", "JPY": "JPY"}
	for in, want := range valid {
		got, err := NormalizeCurrency(in)
		if err != nil {
			t.Fatalf("NormalizeCurrency(%q) returned error: %v", in, err)
		}
		if got != want {
			t.Fatalf("NormalizeCurrency(%q) = %q, want %q", in, got, want)
		}
	}

	for _, in := range []string{"", "US", "dollars", "QQQ"} {
		if _, err := NormalizeCurrency(in); !errors.Is(err, domainErrors.ErrValidation) {
			t.Fatalf("expected validation error for %q, got %v", in, err)
		}
	}
}

func TestValidateQuantities(t *testing.T) {
	if errs := validateQuantities(map[int64]int{1: 1, 2: 3}); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if errs := validateQuantities(nil); len(errs) != 1 {
		t.Fatalf("expected empty set to be rejected, got %v", errs)
	}
	errs := validateQuantities(map[int64]int{3: 0, 1: -2, 2: 1})
	if len(errs) != 2 {
		t.Fatalf("expected two errors, got %v", errs)
	}
	if errs[0].Error() != "products: quantity for product 1 must be positive" {
		t.Fatalf("errors must follow product order, got %q", errs[0])
	}
}

func TestValidateShipping(t *testing.T) {
	ok := model.OrderDetail{FullName: "Jane", PhoneNumber: "+1", Country: "US", PostalCode: "1"}
	if errs := validateShipping(ok); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	errs := validateShipping(model.OrderDetail{FullName: " ", Country: "US"})
	if len(errs) != 3 {
		t.Fatalf("expected three blank fields, got %v", errs)
	}
	var vErr *domainErrors.ValidationError
	if !errors.As(errs[0], &vErr) || vErr.Field != "full_name" {
		t.Fatalf("unexpected first error %v", errs[0])
	}
}

func TestValidateShippingPatch(t *testing.T) {
	blank := "  "
	name := "John"
	if errs := validateShippingPatch(model.ShippingPatch{FullName: &name}); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if errs := validateShippingPatch(model.ShippingPatch{}); len(errs) != 0 {
		t.Fatalf("empty patch must be accepted, got %v", errs)
	}
	errs := validateShippingPatch(model.ShippingPatch{FullName: &name, PostalCode: &blank})
	if len(errs) != 1 {
		t.Fatalf("expected one error, got %v", errs)
	}
}

func TestResolveProducts(t *testing.T) {
	products := []model.Product{
		{ID: 1, Price: decimal.NewFromInt(10), Currency: "USD", Active: true},
		{ID: 2, Price: decimal.NewFromInt(5), Currency: "EUR", Active: true},
	}

	byID, err := resolveProducts(products, []int64{1}, "USD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := byID[1]; !ok {
		t.Fatalf("expected product 1 to be resolved")
	}

	_, err = resolveProducts(products, []int64{1, 2, 7, 9}, "USD")
	if !errors.Is(err, domainErrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	var vErr *domainErrors.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError in %v", err)
	}
	if !reflect.DeepEqual(vErr.MissingIDs, []int64{7, 9}) {
		t.Fatalf("missing ids must come first, got %+v", vErr)
	}

	joined, ok := err.(interface{ Unwrap() []error })
	if !ok || len(joined.Unwrap()) != 2 {
		t.Fatalf("expected missing ids and currency mismatch joined, got %v", err)
	}
}

func TestSortedKeys(t *testing.T) {
	got := sortedKeys(map[int64]int{5: 1, 2: 1, 9: 1})
	if !reflect.DeepEqual(got, []int64{2, 5, 9}) {
		t.Fatalf("unexpected order %v", got)
	}
}
