// Package sim generates a synthetic capture file for exercising the
// pipeline: a stream of Add/Modify/Execute/Delete records that stays
// internally consistent by tracking its own shadow view of what orders
// are live per symbol, so it never emits a Modify/Execute/Delete for an
// order that does not exist.
package sim

import (
	"io"
	"math/rand"

	"tickstream/internal/wire"
)

// Config controls generation.
type Config struct {
	Messages uint64
	Symbols  []string
	Seed     int64
}

type liveOrder struct {
	orderID uint64
	side    wire.Side
	price   int64
	qty     uint32
}

// Generator produces a synthetic feed. It is not safe for concurrent
// use.
type Generator struct {
	symbols     []string
	rng         *rand.Rand
	nextOrderID uint64
	basePrice   map[string]int64
	active      map[string][]liveOrder
}

// New creates a Generator over the given symbols, seeded from
// cfg.Seed.
func New(cfg Config) *Generator {
	symbols := cfg.Symbols
	if len(symbols) == 0 {
		symbols = []string{"AAPL", "MSFT"}
	}
	base := make(map[string]int64, len(symbols))
	for _, s := range symbols {
		base[s] = 100_000_000_000 // $100.00
	}
	return &Generator{
		symbols:     symbols,
		rng:         rand.New(rand.NewSource(cfg.Seed)),
		nextOrderID: 1,
		basePrice:   base,
		active:      make(map[string][]liveOrder, len(symbols)),
	}
}

// Generate writes n records to w, encoded per internal/wire's layout.
func (g *Generator) Generate(w io.Writer, n uint64) error {
	buf := make([]byte, wire.AddSize) // largest record; reused per write
	tsUs := uint64(0)

	for i := uint64(0); i < n; i++ {
		tsUs += uint64(g.rng.Float64() * 10)
		symbol := g.symbols[g.rng.Intn(len(g.symbols))]

		var size int
		roll := g.rng.Float64()
		switch {
		case len(g.active[symbol]) == 0 || roll < 0.4:
			size = g.genAdd(buf, tsUs, symbol)
		case roll < 0.6:
			size = g.genModify(buf, tsUs, symbol)
		case roll < 0.8:
			size = g.genExecute(buf, tsUs, symbol)
		default:
			size = g.genDelete(buf, tsUs, symbol)
		}
		if size == 0 {
			// Chosen mutation had nothing to act on (should not
			// happen given the len()==0 guard above, but stay safe).
			size = g.genAdd(buf, tsUs, symbol)
		}
		if _, err := w.Write(buf[:size]); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) genAdd(buf []byte, tsUs uint64, symbol string) int {
	orderID := g.nextOrderID
	g.nextOrderID++

	side := wire.Buy
	if g.rng.Float64() >= 0.5 {
		side = wire.Sell
	}

	base := g.basePrice[symbol]
	factor := 0.95 + g.rng.Float64()*0.1
	price := int64(float64(base) * factor)

	qty := uint32(100 + g.rng.Float64()*9900)

	wire.PutAdd(buf, tsUs, orderID, wire.NewSymbol(symbol), side, price, qty)
	g.active[symbol] = append(g.active[symbol], liveOrder{orderID: orderID, side: side, price: price, qty: qty})
	return wire.AddSize
}

func (g *Generator) genModify(buf []byte, tsUs uint64, symbol string) int {
	orders := g.active[symbol]
	if len(orders) == 0 {
		return 0
	}
	idx := g.rng.Intn(len(orders))
	order := &orders[idx]

	priceFactor := 0.99 + g.rng.Float64()*0.02
	newPrice := int64(float64(order.price) * priceFactor)

	qtyFactor := 0.5 + g.rng.Float64()
	newQty := uint32(float64(order.qty) * qtyFactor)
	if newQty < 1 {
		newQty = 1
	}

	wire.PutModify(buf, tsUs, order.orderID, newPrice, newQty)
	order.price = newPrice
	order.qty = newQty
	return wire.ModifySize
}

func (g *Generator) genExecute(buf []byte, tsUs uint64, symbol string) int {
	orders := g.active[symbol]
	if len(orders) == 0 {
		return 0
	}
	idx := g.rng.Intn(len(orders))
	order := orders[idx]

	execFactor := 0.1 + g.rng.Float64()*0.9
	execQty := uint32(float64(order.qty) * execFactor)
	if execQty < 1 {
		execQty = 1
	}
	if execQty > order.qty {
		execQty = order.qty
	}

	wire.PutExecute(buf, tsUs, order.orderID, execQty)

	remaining := order.qty - execQty
	if remaining == 0 {
		g.active[symbol] = append(orders[:idx], orders[idx+1:]...)
	} else {
		orders[idx].qty = remaining
	}
	return wire.ExecuteSize
}

func (g *Generator) genDelete(buf []byte, tsUs uint64, symbol string) int {
	orders := g.active[symbol]
	if len(orders) == 0 {
		return 0
	}
	idx := g.rng.Intn(len(orders))
	order := orders[idx]

	wire.PutDelete(buf, tsUs, order.orderID)
	g.active[symbol] = append(orders[:idx], orders[idx+1:]...)
	return wire.DeleteSize
}
