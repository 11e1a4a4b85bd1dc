package order

// OrderHasProductClassCondition tests the product classes present on an order.
//
// With Required set every configured class must be present, otherwise at least
// one of them must be. With Forbidden set the order may not contain any class
// outside the configured set.
type OrderHasProductClassCondition struct {
	Classes   []string `json:"classes"`
	Required  bool     `json:"required"`
	Forbidden bool     `json:"forbidden"`
}

// Evaluate returns true if the order satisfies the condition
func (c OrderHasProductClassCondition) Evaluate(o *Order) bool {
	present := make(map[string]bool)
	for _, class := range o.ProductClasses() {
		present[class] = true
	}
	configured := make(map[string]bool, len(c.Classes))
	for _, class := range c.Classes {
		configured[class] = true
	}

	var ok bool
	if c.Required {
		ok = true
		for class := range configured {
			if !present[class] {
				ok = false
				break
			}
		}
	} else {
		for class := range configured {
			if present[class] {
				ok = true
				break
			}
		}
	}
	if !ok {
		return false
	}

	if c.Forbidden {
		for class := range present {
			if !configured[class] {
				return false
			}
		}
	}
	return true
}
