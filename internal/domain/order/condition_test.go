package order

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func orderWithClasses(classes ...string) *Order {
	o := &Order{}
	for _, c := range classes {
		o.Products = append(o.Products, OrderProduct{ID: uuid.New(), ProductClass: c, Qty: 1, Price: decimal.Zero})
	}
	return o
}

func TestOrderHasProductClassCondition(t *testing.T) {
	tests := []struct {
		name      string
		cond      OrderHasProductClassCondition
		classes   []string
		satisfied bool
	}{
		{"any present", OrderHasProductClassCondition{Classes: []string{"book", "dvd"}}, []string{"dvd"}, true},
		{"none present", OrderHasProductClassCondition{Classes: []string{"book"}}, []string{"dvd"}, false},
		{"required all present", OrderHasProductClassCondition{Classes: []string{"book", "dvd"}, Required: true}, []string{"book", "dvd", "toy"}, true},
		{"required one missing", OrderHasProductClassCondition{Classes: []string{"book", "dvd"}, Required: true}, []string{"book"}, false},
		{"forbidden other class", OrderHasProductClassCondition{Classes: []string{"book"}, Forbidden: true}, []string{"book", "toy"}, false},
		{"forbidden only configured", OrderHasProductClassCondition{Classes: []string{"book", "dvd"}, Forbidden: true}, []string{"book"}, true},
		{"required and forbidden", OrderHasProductClassCondition{Classes: []string{"book"}, Required: true, Forbidden: true}, []string{"book"}, true},
		{"empty order", OrderHasProductClassCondition{Classes: []string{"book"}}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.satisfied, tt.cond.Evaluate(orderWithClasses(tt.classes...)))
		})
	}
}
