// Package selection drives the checkout delivery flow: debounced city
// search, warehouse listing and filtering, and the persisted selection
// record keyed by storefront session.
package selection

import (
	"github.com/go-playground/validator/v10"

	"github.com/kramstore/delivery/internal/phone"
	"github.com/kramstore/delivery/pkg/carrier"
)

// Selection is the delivery choice persisted for a session. Exactly one of
// the warehouse fields or the courier address is populated, switched by
// DeliveryType.
type Selection struct {
	Carrier          string               `json:"carrier" validate:"required"`
	DeliveryType     carrier.DeliveryType `json:"deliveryType" validate:"required,oneof=warehouse poshtomat courier"`
	CityRef          string               `json:"cityRef" validate:"required"`
	CityName         string               `json:"cityName" validate:"required"`
	WarehouseRef     string               `json:"warehouseRef,omitempty" validate:"required_unless=DeliveryType courier,excluded_if=DeliveryType courier"`
	WarehouseAddress string               `json:"warehouseAddress,omitempty" validate:"excluded_if=DeliveryType courier"`
	CourierAddress   string               `json:"courierAddress,omitempty" validate:"required_if=DeliveryType courier,excluded_unless=DeliveryType courier"`
	RecipientName    string               `json:"recipientName,omitempty"`
	RecipientPhone   string               `json:"recipientPhone,omitempty" validate:"omitempty,uaphone"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("uaphone", func(fl validator.FieldLevel) bool {
		return phone.Valid(fl.Field().String())
	})
	return v
}

// Validate checks that the selection is internally consistent.
func (s *Selection) Validate() error {
	return validate.Struct(s)
}

// Complete reports whether the selection can be carried into checkout.
func (s *Selection) Complete() bool {
	return s.Validate() == nil
}
