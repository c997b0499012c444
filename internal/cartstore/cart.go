package cartstore

// ゲストカートの1行
type Entry struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int64  `json:"quantity"`
}

// ゲストカート本体。singletonではなくstoreから都度取り出して使う。
// 合計系は保持せず、毎回entriesから計算する。
type Cart struct {
	Entries []Entry `json:"entries"`
}

// 同一商品は数量加算、無ければ追加。
func (c *Cart) Add(e Entry) {
	if e.Quantity < 1 {
		e.Quantity = 1
	}

	for i := range c.Entries {
		if c.Entries[i].ProductID == e.ProductID {
			c.Entries[i].Quantity += e.Quantity
			return
		}
	}
	c.Entries = append(c.Entries, e)
}

// 数量変更。0以下は削除扱い。
func (c *Cart) SetQuantity(productID int64, qty int64) {
	if qty <= 0 {
		c.Remove(productID)
		return
	}

	for i := range c.Entries {
		if c.Entries[i].ProductID == productID {
			c.Entries[i].Quantity = qty
			return
		}
	}
}

func (c *Cart) Remove(productID int64) {
	out := c.Entries[:0]
	for _, e := range c.Entries {
		if e.ProductID != productID {
			out = append(out, e)
		}
	}
	c.Entries = out
}

func (c *Cart) Clear() {
	c.Entries = nil
}

func (c *Cart) ItemCount() int64 {
	var n int64
	for _, e := range c.Entries {
		n += e.Quantity
	}
	return n
}

func (c *Cart) TotalPrice() int64 {
	var total int64
	for _, e := range c.Entries {
		total += e.UnitPrice * e.Quantity
	}
	return total
}
