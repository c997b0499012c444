package cartstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCart_Add_SameProductAccumulates(t *testing.T) {
	c := Cart{}
	c.Add(Entry{ProductID: 101, Name: "Kale", UnitPrice: 300, Quantity: 2})
	c.Add(Entry{ProductID: 101, Name: "Kale", UnitPrice: 300, Quantity: 3})

	assert.Len(t, c.Entries, 1)
	assert.Equal(t, int64(5), c.Entries[0].Quantity)
}

func TestCart_Add_QuantityFloorsToOne(t *testing.T) {
	c := Cart{}
	c.Add(Entry{ProductID: 101, UnitPrice: 300, Quantity: 0})

	assert.Equal(t, int64(1), c.ItemCount())
}

func TestCart_SetQuantity_ZeroRemoves(t *testing.T) {
	c := Cart{}
	c.Add(Entry{ProductID: 101, UnitPrice: 300, Quantity: 2})
	c.Add(Entry{ProductID: 102, UnitPrice: 500, Quantity: 1})

	c.SetQuantity(101, 0)

	assert.Len(t, c.Entries, 1)
	assert.Equal(t, int64(102), c.Entries[0].ProductID)
}

func TestCart_SetQuantity_UnknownProductIsNoop(t *testing.T) {
	c := Cart{}
	c.Add(Entry{ProductID: 101, UnitPrice: 300, Quantity: 2})

	c.SetQuantity(999, 5)

	assert.Len(t, c.Entries, 1)
	assert.Equal(t, int64(2), c.Entries[0].Quantity)
}

func TestCart_Remove_KeepsOthers(t *testing.T) {
	c := Cart{}
	c.Add(Entry{ProductID: 101, UnitPrice: 300, Quantity: 2})
	c.Add(Entry{ProductID: 102, UnitPrice: 500, Quantity: 1})

	c.Remove(101)

	assert.Len(t, c.Entries, 1)
	assert.Equal(t, int64(102), c.Entries[0].ProductID)
}

// 合計系は常にentriesからの導出値。
func TestCart_Totals(t *testing.T) {
	c := Cart{}
	assert.Equal(t, int64(0), c.ItemCount())
	assert.Equal(t, int64(0), c.TotalPrice())

	c.Add(Entry{ProductID: 101, UnitPrice: 300, Quantity: 2})
	c.Add(Entry{ProductID: 102, UnitPrice: 500, Quantity: 3})

	assert.Equal(t, int64(5), c.ItemCount())
	assert.Equal(t, int64(2100), c.TotalPrice())

	c.Clear()
	assert.Equal(t, int64(0), c.ItemCount())
	assert.Equal(t, int64(0), c.TotalPrice())
}
