// Package book implements the per-symbol limit order book: sorted
// price levels on each side, an order index, and the four mutating
// operations plus a top-of-book query. It intentionally does not match
// orders against each other — a prospective order that would cross the
// opposite best is rejected outright, and only aggregate size per price
// level is tracked, not per-order fill priority.
package book

import "tickstream/internal/wire"

// OrderRecord is what the book remembers about one live order, enough
// to reverse its effect on a level during modify/execute/delete.
type OrderRecord struct {
	Side  wire.Side
	Price int64
	Qty   uint32
}

// TopOfBook is a snapshot of the best price and aggregate size on each
// side. A zero BidSz/AskSz means that side is absent.
type TopOfBook struct {
	BestBidPx int64
	BidSz     uint64
	BestAskPx int64
	AskSz     uint64
}

func (t TopOfBook) HasBid() bool { return t.BidSz > 0 }
func (t TopOfBook) HasAsk() bool { return t.AskSz > 0 }

// Book is a single-symbol order book. It is not safe for concurrent
// use: the pipeline driver guarantees each Book is touched by exactly
// one goroutine.
type Book struct {
	bids   *levelTree
	asks   *levelTree
	orders map[uint64]OrderRecord
}

// New creates an empty order book.
func New() *Book {
	return &Book{
		bids:   newLevelTree(),
		asks:   newLevelTree(),
		orders: make(map[uint64]OrderRecord),
	}
}

// OrderCount returns the number of live orders in the book.
func (b *Book) OrderCount() int { return len(b.orders) }

// crosses reports whether a prospective order on side at price would
// cross the opposite best. Equality counts as crossing (§4.3): a BUY at
// exactly the best ask, or a SELL at exactly the best bid, is rejected.
func (b *Book) crosses(side wire.Side, price int64) bool {
	if side == wire.Buy {
		if askPx, _, ok := b.asks.MinLevel(); ok {
			return price >= askPx
		}
		return false
	}
	if bidPx, _, ok := b.bids.MaxLevel(); ok {
		return price <= bidPx
	}
	return false
}

// OnAdd inserts a new order. It returns true iff the order id is fresh,
// the quantity is nonzero, and the order would not cross the book.
func (b *Book) OnAdd(orderID uint64, side wire.Side, price int64, qty uint32) bool {
	if qty == 0 {
		return false
	}
	if _, exists := b.orders[orderID]; exists {
		return false
	}
	if b.crosses(side, price) {
		return false
	}
	b.orders[orderID] = OrderRecord{Side: side, Price: price, Qty: qty}
	b.levelFor(side).AddQty(price, uint64(qty))
	return true
}

// OnModify changes an existing order's price and quantity. The crossing
// test is evaluated against the book as it stands with the modified
// order still occupying its old level (test-then-mutate, per the pinned
// choice in §9): the order is removed from its old level only after the
// new price clears the check.
func (b *Book) OnModify(orderID uint64, newPrice int64, newQty uint32) bool {
	rec, ok := b.orders[orderID]
	if !ok {
		return false
	}
	if newQty == 0 {
		return false
	}
	if b.crosses(rec.Side, newPrice) {
		return false
	}
	tree := b.levelFor(rec.Side)
	tree.RemoveQty(rec.Price, uint64(rec.Qty))
	tree.AddQty(newPrice, uint64(newQty))
	b.orders[orderID] = OrderRecord{Side: rec.Side, Price: newPrice, Qty: newQty}
	return true
}

// OnExecute reduces an order's resting quantity by execQty. If the
// order reaches zero it is removed entirely. It returns true iff the
// order exists, execQty is nonzero, and execQty does not exceed the
// order's current quantity.
func (b *Book) OnExecute(orderID uint64, execQty uint32) bool {
	rec, ok := b.orders[orderID]
	if !ok {
		return false
	}
	if execQty == 0 || execQty > rec.Qty {
		return false
	}
	tree := b.levelFor(rec.Side)
	tree.RemoveQty(rec.Price, uint64(execQty))
	rec.Qty -= execQty
	if rec.Qty == 0 {
		delete(b.orders, orderID)
		return true
	}
	b.orders[orderID] = rec
	return true
}

// OnDelete removes an order entirely. It returns true iff the order
// existed.
func (b *Book) OnDelete(orderID uint64) bool {
	rec, ok := b.orders[orderID]
	if !ok {
		return false
	}
	b.levelFor(rec.Side).RemoveQty(rec.Price, uint64(rec.Qty))
	delete(b.orders, orderID)
	return true
}

// TopOfBook returns the current best bid/ask and their aggregate sizes.
func (b *Book) TopOfBook() TopOfBook {
	var tob TopOfBook
	if px, qty, ok := b.bids.MaxLevel(); ok {
		tob.BestBidPx = px
		tob.BidSz = qty
	}
	if px, qty, ok := b.asks.MinLevel(); ok {
		tob.BestAskPx = px
		tob.AskSz = qty
	}
	return tob
}

func (b *Book) levelFor(side wire.Side) *levelTree {
	if side == wire.Buy {
		return b.bids
	}
	return b.asks
}
