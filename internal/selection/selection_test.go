package selection_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kramstore/delivery/internal/selection"
	"github.com/kramstore/delivery/pkg/carrier"
)

func validWarehouseSelection() *selection.Selection {
	return &selection.Selection{
		Carrier:          "novaposhta",
		DeliveryType:     carrier.DeliveryWarehouse,
		CityRef:          "8d5a980d-391c-11dd-90d9-001a92567626",
		CityName:         "Київ",
		WarehouseRef:     "1ec09d2e-e1c2-11e3-8c4a-0050568002cf",
		WarehouseAddress: "Відділення №1 (вул. Пирогівський шлях, 135)",
	}
}

func TestSelectionValidate_Warehouse(t *testing.T) {
	sel := validWarehouseSelection()
	assert.NoError(t, sel.Validate())
	assert.True(t, sel.Complete())
}

func TestSelectionValidate_MissingWarehouseRef(t *testing.T) {
	sel := validWarehouseSelection()
	sel.WarehouseRef = ""
	assert.Error(t, sel.Validate())
	assert.False(t, sel.Complete())
}

func TestSelectionValidate_Courier(t *testing.T) {
	sel := &selection.Selection{
		Carrier:        "novaposhta",
		DeliveryType:   carrier.DeliveryCourier,
		CityRef:        "8d5a980d-391c-11dd-90d9-001a92567626",
		CityName:       "Київ",
		CourierAddress: "вул. Хрещатик, 22, кв. 7",
	}
	assert.NoError(t, sel.Validate())
}

func TestSelectionValidate_CourierWithoutAddress(t *testing.T) {
	sel := &selection.Selection{
		Carrier:      "novaposhta",
		DeliveryType: carrier.DeliveryCourier,
		CityRef:      "8d5a980d-391c-11dd-90d9-001a92567626",
		CityName:     "Київ",
	}
	assert.Error(t, sel.Validate())
}

func TestSelectionValidate_WarehouseAndCourierExclusive(t *testing.T) {
	sel := validWarehouseSelection()
	sel.CourierAddress = "вул. Хрещатик, 22"
	assert.Error(t, sel.Validate())

	courier := &selection.Selection{
		Carrier:        "novaposhta",
		DeliveryType:   carrier.DeliveryCourier,
		CityRef:        "ref",
		CityName:       "Київ",
		CourierAddress: "вул. Хрещатик, 22",
		WarehouseRef:   "should-not-be-here",
	}
	assert.Error(t, courier.Validate())
}

func TestSelectionValidate_Phone(t *testing.T) {
	sel := validWarehouseSelection()

	sel.RecipientPhone = "+380671234567"
	assert.NoError(t, sel.Validate())

	sel.RecipientPhone = "0671234567"
	assert.NoError(t, sel.Validate())

	sel.RecipientPhone = "12345"
	assert.Error(t, sel.Validate())
}

func TestSelectionValidate_UnknownDeliveryType(t *testing.T) {
	sel := validWarehouseSelection()
	sel.DeliveryType = "drone"
	assert.Error(t, sel.Validate())
}
