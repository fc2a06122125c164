package entity

import (
	"errors"
	"fmt"
)

// OrderState - состояние заказа: created -> paid -> delivered
type OrderState string

const (
	OrderStateCreated   OrderState = "created"
	OrderStatePaid      OrderState = "paid"
	OrderStateDelivered OrderState = "delivered"
)

var ErrInvalidTransition = errors.New("invalid order state transition")

var orderTransitions = map[OrderState][]OrderState{
	OrderStateCreated: {OrderStatePaid},
	OrderStatePaid:    {OrderStateDelivered},
}

// Transition разрешает только переходы на один шаг вперёд
// и возвращает новое состояние или ErrInvalidTransition
func (s OrderState) Transition(to OrderState) (OrderState, error) {
	for _, next := range orderTransitions[s] {
		if next == to {
			return to, nil
		}
	}
	return s, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, to)
}
