package enums

// OrderState tracks an order from basket to delivery.
type OrderState string

const (
	OrderStateBasket    OrderState = "basket"
	OrderStateNew       OrderState = "new"
	OrderStateConfirmed OrderState = "confirmed"
	OrderStateAssembled OrderState = "assembled"
	OrderStateSent      OrderState = "sent"
	OrderStateDelivered OrderState = "delivered"
	OrderStateCanceled  OrderState = "canceled"
)

var orderStates = set[OrderState]{
	OrderStateBasket,
	OrderStateNew,
	OrderStateConfirmed,
	OrderStateAssembled,
	OrderStateSent,
	OrderStateDelivered,
	OrderStateCanceled,
}

func (o OrderState) String() string { return string(o) }

func (o OrderState) IsValid() bool { return orderStates.has(o) }

// IsPlaced reports whether the order left the basket.
func (o OrderState) IsPlaced() bool {
	return o != OrderStateBasket && o.IsValid()
}

func ParseOrderState(value string) (OrderState, error) {
	return orderStates.parse("order state", value)
}
