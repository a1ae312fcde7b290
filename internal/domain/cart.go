package domain

// LineItem is one product entry in a cart.
type LineItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    Money  `json:"price"`
	Image    string `json:"image"`
	Quantity int    `json:"quantity"`
}

// Cart is the ordered set of line items of one visitor.
// At most one line exists per product id and every quantity is at least 1.
type Cart struct {
	Items []LineItem `json:"items"`
}

// Add appends item with qty, or increments the quantity of the existing line
// for item.ID. A qty below 1 counts as 1. The stored name, price and image of
// an existing line are kept.
func (c *Cart) Add(item LineItem, qty int) {
	if qty < 1 {
		qty = 1
	}
	if i := c.indexOf(item.ID); i >= 0 {
		c.Items[i].Quantity += qty
		return
	}
	item.Quantity = qty
	c.Items = append(c.Items, item)
}

// Remove deletes the line for id. Unknown ids are ignored.
func (c *Cart) Remove(id string) {
	i := c.indexOf(id)
	if i < 0 {
		return
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
}

// SetQuantity sets the quantity of the line for id. Quantities below 1 and
// unknown ids leave the cart unchanged; a line is never removed here.
func (c *Cart) SetQuantity(id string, qty int) {
	if qty <= 0 {
		return
	}
	if i := c.indexOf(id); i >= 0 {
		c.Items[i].Quantity = qty
	}
}

// Subtract takes the quantities of lines off the cart, removing a line once
// nothing is left of it. Lines not in the cart are ignored, as are units
// added after lines were taken.
func (c *Cart) Subtract(lines []LineItem) {
	for _, l := range lines {
		i := c.indexOf(l.ID)
		if i < 0 {
			continue
		}
		if c.Items[i].Quantity > l.Quantity {
			c.Items[i].Quantity -= l.Quantity
			continue
		}
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
	}
}

// Clear removes every line.
func (c *Cart) Clear() {
	c.Items = []LineItem{}
}

// Total is the sum of price × quantity over all lines.
func (c *Cart) Total() Money {
	total := Zero
	for _, item := range c.Items {
		total = total.Add(item.Price.Mul(item.Quantity))
	}
	return total
}

// Count is the sum of quantities over all lines.
func (c *Cart) Count() int {
	var count int
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// Snapshot returns a copy of the items that does not alias the cart.
func (c *Cart) Snapshot() []LineItem {
	out := make([]LineItem, len(c.Items))
	copy(out, c.Items)
	return out
}

// Normalize drops lines a well-formed cart cannot hold: empty ids, duplicate
// ids after the first, and non-positive quantities.
func (c *Cart) Normalize() {
	seen := make(map[string]struct{}, len(c.Items))
	kept := make([]LineItem, 0, len(c.Items))
	for _, item := range c.Items {
		if item.ID == "" || item.Quantity < 1 {
			continue
		}
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}
		kept = append(kept, item)
	}
	c.Items = kept
}

func (c *Cart) indexOf(id string) int {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return i
		}
	}
	return -1
}
