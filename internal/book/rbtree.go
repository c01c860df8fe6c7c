package book

// levelTree is a red-black tree keyed by price, mapping each distinct
// price to its aggregate resting quantity. Both book sides use the same
// ascending tree; bids read their best price from MaxLevel and asks
// from MinLevel, so no separate descending comparator is needed. The
// shape — sentinel nil node, FindLevel, AddQty/RemoveQty (upsert and
// delete-on-zero), Min/MaxLevel, ForEachAscending/ForEachDescending — mirrors the
// reference book engine's price-level tree; unlike that engine, a level
// here is a bare aggregate (no linked list of resting orders), because
// this book tracks only per-level size, not fill priority.
type levelTree struct {
	root *rbNode
	nilN *rbNode
	size int
}

type rbColor uint8

const (
	red rbColor = iota
	black
)

type rbNode struct {
	price  int64
	qty    uint64
	color  rbColor
	left   *rbNode
	right  *rbNode
	parent *rbNode
}

func newLevelTree() *levelTree {
	sentinel := &rbNode{color: black}
	sentinel.left = sentinel
	sentinel.right = sentinel
	sentinel.parent = sentinel
	return &levelTree{root: sentinel, nilN: sentinel}
}

func (t *levelTree) Size() int { return t.size }

func (t *levelTree) find(price int64) *rbNode {
	n := t.root
	for n != t.nilN {
		switch {
		case price < n.price:
			n = n.left
		case price > n.price:
			n = n.right
		default:
			return n
		}
	}
	return t.nilN
}

// FindLevel returns the aggregate quantity at price and whether it
// exists.
func (t *levelTree) FindLevel(price int64) (uint64, bool) {
	n := t.find(price)
	if n == t.nilN {
		return 0, false
	}
	return n.qty, true
}

// AddQty adds delta to the level at price, creating it if absent.
func (t *levelTree) AddQty(price int64, delta uint64) {
	n := t.find(price)
	if n != t.nilN {
		n.qty += delta
		return
	}
	t.insert(price, delta)
}

// RemoveQty subtracts delta from the level at price and deletes the
// level if its aggregate reaches zero. It is a no-op if the level is
// absent.
func (t *levelTree) RemoveQty(price int64, delta uint64) {
	n := t.find(price)
	if n == t.nilN {
		return
	}
	if delta >= n.qty {
		t.deleteNode(n)
		t.size--
		return
	}
	n.qty -= delta
}

// MinLevel returns the lowest price and its aggregate, if any.
func (t *levelTree) MinLevel() (price int64, qty uint64, ok bool) {
	n := t.minNode(t.root)
	if n == t.nilN {
		return 0, 0, false
	}
	return n.price, n.qty, true
}

// MaxLevel returns the highest price and its aggregate, if any.
func (t *levelTree) MaxLevel() (price int64, qty uint64, ok bool) {
	n := t.maxNode(t.root)
	if n == t.nilN {
		return 0, 0, false
	}
	return n.price, n.qty, true
}

// ForEachAscending walks levels from lowest to highest price.
func (t *levelTree) ForEachAscending(fn func(price int64, qty uint64) bool) {
	for n := t.minNode(t.root); n != t.nilN; n = t.next(n) {
		if !fn(n.price, n.qty) {
			return
		}
	}
}

// ForEachDescending walks levels from highest to lowest price.
func (t *levelTree) ForEachDescending(fn func(price int64, qty uint64) bool) {
	for n := t.maxNode(t.root); n != t.nilN; n = t.prev(n) {
		if !fn(n.price, n.qty) {
			return
		}
	}
}

func (t *levelTree) minNode(n *rbNode) *rbNode {
	for n != t.nilN && n.left != t.nilN {
		n = n.left
	}
	return n
}

func (t *levelTree) maxNode(n *rbNode) *rbNode {
	for n != t.nilN && n.right != t.nilN {
		n = n.right
	}
	return n
}

func (t *levelTree) next(n *rbNode) *rbNode {
	if n.right != t.nilN {
		return t.minNode(n.right)
	}
	p := n.parent
	for p != t.nilN && n == p.right {
		n = p
		p = p.parent
	}
	return p
}

func (t *levelTree) prev(n *rbNode) *rbNode {
	if n.left != t.nilN {
		return t.maxNode(n.left)
	}
	p := n.parent
	for p != t.nilN && n == p.left {
		n = p
		p = p.parent
	}
	return p
}

func (t *levelTree) leftRotate(x *rbNode) {
	y := x.right
	x.right = y.left
	if y.left != t.nilN {
		y.left.parent = x
	}
	y.parent = x.parent
	if x.parent == t.nilN {
		t.root = y
	} else if x == x.parent.left {
		x.parent.left = y
	} else {
		x.parent.right = y
	}
	y.left = x
	x.parent = y
}

func (t *levelTree) rightRotate(x *rbNode) {
	y := x.left
	x.left = y.right
	if y.right != t.nilN {
		y.right.parent = x
	}
	y.parent = x.parent
	if x.parent == t.nilN {
		t.root = y
	} else if x == x.parent.right {
		x.parent.right = y
	} else {
		x.parent.left = y
	}
	y.right = x
	x.parent = y
}

func (t *levelTree) insert(price int64, qty uint64) {
	y := t.nilN
	x := t.root
	for x != t.nilN {
		y = x
		if price < x.price {
			x = x.left
		} else {
			x = x.right
		}
	}
	z := &rbNode{price: price, qty: qty, color: red, left: t.nilN, right: t.nilN, parent: y}
	if y == t.nilN {
		t.root = z
	} else if price < y.price {
		y.left = z
	} else {
		y.right = z
	}
	t.size++
	t.insertFixup(z)
}

func (t *levelTree) insertFixup(z *rbNode) {
	for z.parent.color == red {
		if z.parent == z.parent.parent.left {
			y := z.parent.parent.right
			if y.color == red {
				z.parent.color = black
				y.color = black
				z.parent.parent.color = red
				z = z.parent.parent
			} else {
				if z == z.parent.right {
					z = z.parent
					t.leftRotate(z)
				}
				z.parent.color = black
				z.parent.parent.color = red
				t.rightRotate(z.parent.parent)
			}
		} else {
			y := z.parent.parent.left
			if y.color == red {
				z.parent.color = black
				y.color = black
				z.parent.parent.color = red
				z = z.parent.parent
			} else {
				if z == z.parent.left {
					z = z.parent
					t.rightRotate(z)
				}
				z.parent.color = black
				z.parent.parent.color = red
				t.leftRotate(z.parent.parent)
			}
		}
	}
	t.root.color = black
}

func (t *levelTree) transplant(u, v *rbNode) {
	if u.parent == t.nilN {
		t.root = v
	} else if u == u.parent.left {
		u.parent.left = v
	} else {
		u.parent.right = v
	}
	v.parent = u.parent
}

func (t *levelTree) deleteNode(z *rbNode) {
	y := z
	yOriginalColor := y.color
	var x *rbNode

	if z.left == t.nilN {
		x = z.right
		t.transplant(z, z.right)
	} else if z.right == t.nilN {
		x = z.left
		t.transplant(z, z.left)
	} else {
		y = t.minNode(z.right)
		yOriginalColor = y.color
		x = y.right
		if y.parent == z {
			x.parent = y
		} else {
			t.transplant(y, y.right)
			y.right = z.right
			y.right.parent = y
		}
		t.transplant(z, y)
		y.left = z.left
		y.left.parent = y
		y.color = z.color
	}
	if yOriginalColor == black {
		t.deleteFixup(x)
	}
}

func (t *levelTree) deleteFixup(x *rbNode) {
	for x != t.root && x.color == black {
		if x == x.parent.left {
			w := x.parent.right
			if w.color == red {
				w.color = black
				x.parent.color = red
				t.leftRotate(x.parent)
				w = x.parent.right
			}
			if w.left.color == black && w.right.color == black {
				w.color = red
				x = x.parent
			} else {
				if w.right.color == black {
					w.left.color = black
					w.color = red
					t.rightRotate(w)
					w = x.parent.right
				}
				w.color = x.parent.color
				x.parent.color = black
				w.right.color = black
				t.leftRotate(x.parent)
				x = t.root
			}
		} else {
			w := x.parent.left
			if w.color == red {
				w.color = black
				x.parent.color = red
				t.rightRotate(x.parent)
				w = x.parent.left
			}
			if w.right.color == black && w.left.color == black {
				w.color = red
				x = x.parent
			} else {
				if w.left.color == black {
					w.right.color = black
					w.color = red
					t.leftRotate(w)
					w = x.parent.left
				}
				w.color = x.parent.color
				x.parent.color = black
				w.left.color = black
				t.rightRotate(x.parent)
				x = t.root
			}
		}
	}
	x.color = black
}
