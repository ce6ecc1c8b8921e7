package usecase

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/currency"

	domainErrors "github.com/polkiloo/marketplace/internal/domain/errors"
	"github.com/polkiloo/marketplace/internal/domain/model"
)

// NormalizeCurrency validates an ISO 4217 code and returns it upper-cased.
func NormalizeCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return "", domainErrors.NewValidation("currency", fmt.Sprintf("unknown currency %q", code))
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", domainErrors.NewValidation("currency", fmt.Sprintf("unknown currency %q", code))
	}
	return unit.String(), nil
}

// validateQuantities reports every non-positive quantity; an empty map is rejected too.
func validateQuantities(items map[int64]int) []error {
	if len(items) == 0 {
		return []error{domainErrors.NewValidation("products", "at least one product is required")}
	}
	var errs []error
	for _, id := range sortedKeys(items) {
		if items[id] <= 0 {
			errs = append(errs, domainErrors.NewValidation("products", fmt.Sprintf("quantity for product %d must be positive", id)))
		}
	}
	return errs
}

func validateShipping(d model.OrderDetail) []error {
	fields := []struct {
		name  string
		value string
	}{
		{"full_name", d.FullName},
		{"phone_number", d.PhoneNumber},
		{"country", d.Country},
		{"postal_code", d.PostalCode},
	}
	var errs []error
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			errs = append(errs, domainErrors.NewValidation(f.name, "must not be blank"))
		}
	}
	return errs
}

func validateShippingPatch(p model.ShippingPatch) []error {
	fields := []struct {
		name  string
		value *string
	}{
		{"full_name", p.FullName},
		{"phone_number", p.PhoneNumber},
		{"country", p.Country},
		{"postal_code", p.PostalCode},
	}
	var errs []error
	for _, f := range fields {
		if f.value != nil && strings.TrimSpace(*f.value) == "" {
			errs = append(errs, domainErrors.NewValidation(f.name, "must not be blank"))
		}
	}
	return errs
}

// resolveProducts maps ids to active catalog products priced in the given currency.
func resolveProducts(products []model.Product, ids []int64, orderCurrency string) (map[int64]model.Product, error) {
	byID := make(map[int64]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	var missing []int64
	var errs []error
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		if p.Currency != orderCurrency {
			errs = append(errs, domainErrors.NewValidation("products",
				fmt.Sprintf("product %d is priced in %s, order currency is %s", id, p.Currency, orderCurrency)))
		}
	}
	if len(missing) > 0 {
		errs = append([]error{&domainErrors.ValidationError{Field: "products", Reason: "unknown or inactive products", MissingIDs: missing}}, errs...)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return byID, nil
}

func sortedKeys(items map[int64]int) []int64 {
	ids := make([]int64, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
