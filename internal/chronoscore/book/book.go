// Package book implements the per-instrument limit order book: a
// Structure-of-Arrays price-level index per side, FIFO doubly-linked order
// queues over a pre-allocated slot pool, and a free list. No allocation
// happens after New; AddOrder/RemoveOrder/ReduceQuantity only ever touch the
// pre-sized backing arrays and the orderId->slot map, which is sized for
// maxOrders entries at construction.
package book

import (
	"unsafe"

	"github.com/vivkver/chronos/internal/chronoscore/scan"
	"github.com/vivkver/chronos/internal/chronoscore/types"
)

// OrderSlot is one fixed-size record in the pre-allocated order-record
// arena, identified by its index into OrderBook.slots. Field order matches
// spec.md §3's byte layout; on every platform Go's natural alignment for
// this field ordering plus the trailing 4-byte pad yields exactly 64 bytes
// (verified by the init assertion below), so no manual offset arithmetic is
// required to honor the cache-line-aligned record size.
type OrderSlot struct {
	OrderID      uint64
	PriceValue   types.Price
	ClientID     uint64
	TimestampNs  int64
	QuantityOrig types.Quantity
	Remaining    types.Quantity
	InstrumentID int32
	SideValue    types.Side
	OrderType    types.OrderType
	NextSlot     int32
	PrevSlot     int32
	LevelIndex   int32
	_            [4]byte
}

func init() {
	if unsafe.Sizeof(OrderSlot{}) != types.OrderSlotSize {
		panic("book: OrderSlot is not ORDER_SLOT_SIZE bytes; field ordering changed")
	}
}

// levelSet is the Structure-of-Arrays price-level index for one side of one
// instrument's book.
type levelSet struct {
	prices     []types.Price
	aggQty     []types.Quantity
	orderCount []int32
	headSlot   []int32
	tailSlot   []int32
	count      int
	descending bool
}

func newLevelSet(maxLevels int, descending bool) levelSet {
	ls := levelSet{
		prices:     make([]types.Price, maxLevels),
		aggQty:     make([]types.Quantity, maxLevels),
		orderCount: make([]int32, maxLevels),
		headSlot:   make([]int32, maxLevels),
		tailSlot:   make([]int32, maxLevels),
		descending: descending,
	}
	for i := range ls.headSlot {
		ls.headSlot[i] = types.NullSlot
		ls.tailSlot[i] = types.NullSlot
	}
	return ls
}

func (ls *levelSet) reset() {
	ls.count = 0
	for i := range ls.headSlot {
		ls.headSlot[i] = types.NullSlot
		ls.tailSlot[i] = types.NullSlot
		ls.aggQty[i] = 0
		ls.orderCount[i] = 0
		ls.prices[i] = 0
	}
}

// OrderBook owns one instrument's slot pool, both sides' price-level arrays,
// and the auxiliary orderId->slot index used to resolve cancels.
type OrderBook struct {
	instrumentID int32
	maxLevels    int
	maxOrders    int

	scanner *scan.Scanner

	slots     []OrderSlot
	allocated []bool

	freeListHead   int32
	liveOrderCount int32

	bids levelSet
	asks levelSet

	byOrderID map[uint64]int32
}

// New constructs an OrderBook for instrumentID with the given capacities.
// Production callers pass types.MaxLevels/types.MaxOrders; tests use smaller
// capacities. The scanner is shared with the caller (typically one per
// engine) and used for insertion-point search.
func New(instrumentID int32, maxLevels, maxOrders int, scanner *scan.Scanner) *OrderBook {
	b := &OrderBook{
		instrumentID: instrumentID,
		maxLevels:    maxLevels,
		maxOrders:    maxOrders,
		scanner:      scanner,
		slots:        make([]OrderSlot, maxOrders),
		allocated:    make([]bool, maxOrders),
		bids:         newLevelSet(maxLevels, true),
		asks:         newLevelSet(maxLevels, false),
		byOrderID:    make(map[uint64]int32, maxOrders),
	}
	b.chainFreeList()
	return b
}

func (b *OrderBook) chainFreeList() {
	for i := 0; i < b.maxOrders-1; i++ {
		b.slots[i].NextSlot = int32(i + 1)
	}
	if b.maxOrders > 0 {
		b.slots[b.maxOrders-1].NextSlot = types.NullSlot
	}
	b.freeListHead = 0
	if b.maxOrders == 0 {
		b.freeListHead = types.NullSlot
	}
}

// Reset restores the book to its empty post-construction state without
// reallocating any backing array.
func (b *OrderBook) Reset() {
	b.bids.reset()
	b.asks.reset()
	for i := range b.slots {
		b.slots[i] = OrderSlot{}
	}
	for i := range b.allocated {
		b.allocated[i] = false
	}
	for k := range b.byOrderID {
		delete(b.byOrderID, k)
	}
	b.liveOrderCount = 0
	b.chainFreeList()
}

func (b *OrderBook) InstrumentID() int32 { return b.instrumentID }
func (b *OrderBook) LiveOrderCount() int { return int(b.liveOrderCount) }
func (b *OrderBook) MaxOrders() int      { return b.maxOrders }
func (b *OrderBook) MaxLevels() int      { return b.maxLevels }

func (b *OrderBook) levels(side types.Side) *levelSet {
	if side == types.Buy {
		return &b.bids
	}
	return &b.asks
}

func (b *OrderBook) BidLevelCount() int { return b.bids.count }
func (b *OrderBook) AskLevelCount() int { return b.asks.count }

// BidPrices returns the raw bid price array; only indices [0, BidLevelCount)
// are meaningful. Exposed so the scanner can operate directly on it.
func (b *OrderBook) BidPrices() []types.Price { return b.bids.prices }

// AskPrices returns the raw ask price array; only indices [0, AskLevelCount)
// are meaningful.
func (b *OrderBook) AskPrices() []types.Price { return b.asks.prices }

// BestBid returns the highest bid price, or MinPrice if the bid side is
// empty.
func (b *OrderBook) BestBid() types.Price {
	if b.bids.count == 0 {
		return types.MinPrice
	}
	return b.bids.prices[0]
}

// BestAsk returns the lowest ask price, or MaxPrice if the ask side is
// empty.
func (b *OrderBook) BestAsk() types.Price {
	if b.asks.count == 0 {
		return types.MaxPrice
	}
	return b.asks.prices[0]
}

// HeadOrderSlot returns the slot index at the head (oldest) of the FIFO
// queue for the given side and level index, or NullSlot if the level is
// empty/out of range.
func (b *OrderBook) HeadOrderSlot(side types.Side, levelIndex int) int32 {
	ls := b.levels(side)
	if levelIndex < 0 || levelIndex >= ls.count {
		return types.NullSlot
	}
	return ls.headSlot[levelIndex]
}

// LevelAggQuantity returns the maintained aggregate remaining quantity for
// a level, for spec.md §8 invariant 2 (callers wanting to check it against
// an independently summed queue walk). Returns 0 if levelIndex is out of
// range.
func (b *OrderBook) LevelAggQuantity(side types.Side, levelIndex int) types.Quantity {
	ls := b.levels(side)
	if levelIndex < 0 || levelIndex >= ls.count {
		return 0
	}
	return ls.aggQty[levelIndex]
}

// LevelOrderCount returns the maintained queue length for a level, for
// spec.md §8 invariant 2. Returns 0 if levelIndex is out of range.
func (b *OrderBook) LevelOrderCount(side types.Side, levelIndex int) int32 {
	ls := b.levels(side)
	if levelIndex < 0 || levelIndex >= ls.count {
		return 0
	}
	return ls.orderCount[levelIndex]
}

// Slot field readers.
func (b *OrderBook) SlotOrderID(slot int32) uint64           { return b.slots[slot].OrderID }
func (b *OrderBook) SlotPrice(slot int32) types.Price        { return b.slots[slot].PriceValue }
func (b *OrderBook) SlotClientID(slot int32) uint64          { return b.slots[slot].ClientID }
func (b *OrderBook) SlotTimestampNs(slot int32) int64        { return b.slots[slot].TimestampNs }
func (b *OrderBook) SlotQuantity(slot int32) types.Quantity  { return b.slots[slot].QuantityOrig }
func (b *OrderBook) SlotRemaining(slot int32) types.Quantity { return b.slots[slot].Remaining }
func (b *OrderBook) SlotSide(slot int32) types.Side          { return b.slots[slot].SideValue }
func (b *OrderBook) SlotNext(slot int32) int32               { return b.slots[slot].NextSlot }
func (b *OrderBook) SlotLevelIndex(slot int32) int32         { return b.slots[slot].LevelIndex }

// SlotByOrderID resolves a live order id to its slot index, for CancelOrder.
func (b *OrderBook) SlotByOrderID(orderID uint64) (int32, bool) {
	slot, ok := b.byOrderID[orderID]
	return slot, ok
}

// AddOrder pops a free slot, writes the order's fields, and inserts it into
// the appropriate side's price-level structure. Returns NullSlot if the
// pool is exhausted or if the book-full policy (spec.md §9) refuses the
// level insertion; in the latter case the popped slot is returned to the
// free list before returning, so the pool never leaks.
func (b *OrderBook) AddOrder(orderID uint64, price types.Price, clientID uint64, timestampNs int64, quantity types.Quantity, instrumentID int32, side types.Side, orderType types.OrderType) int32 {
	if quantity <= 0 {
		return types.NullSlot
	}
	if b.freeListHead == types.NullSlot {
		return types.NullSlot
	}

	slotIdx := b.freeListHead
	b.freeListHead = b.slots[slotIdx].NextSlot

	s := &b.slots[slotIdx]
	*s = OrderSlot{
		OrderID:      orderID,
		PriceValue:   price,
		ClientID:     clientID,
		TimestampNs:  timestampNs,
		QuantityOrig: quantity,
		Remaining:    quantity,
		InstrumentID: instrumentID,
		SideValue:    side,
		OrderType:    orderType,
		NextSlot:     types.NullSlot,
		PrevSlot:     types.NullSlot,
		LevelIndex:   types.NullSlot,
	}

	levelIndex, ok := b.insertIntoLevel(side, price)
	if !ok {
		// Book-full: refuse the add, return slot to the free list.
		b.slots[slotIdx].NextSlot = b.freeListHead
		b.freeListHead = slotIdx
		return types.NullSlot
	}

	ls := b.levels(side)
	s.LevelIndex = int32(levelIndex)
	b.appendToQueue(ls, levelIndex, slotIdx)
	ls.aggQty[levelIndex] += quantity
	ls.orderCount[levelIndex]++

	b.allocated[slotIdx] = true
	b.byOrderID[orderID] = slotIdx
	b.liveOrderCount++

	return slotIdx
}

// insertIntoLevel finds (or creates) the level at which price belongs on
// the given side, using the scanner's insertion-point search (spec.md
// §4.1/§4.2). Returns false if the level doesn't exist and the side is
// already at maxLevels.
func (b *OrderBook) insertIntoLevel(side types.Side, price types.Price) (int, bool) {
	ls := b.levels(side)

	ip := b.scanner.FindInsertionPoint(ls.prices, ls.count, price, ls.descending)
	if ip > 0 && ls.prices[ip-1] == price {
		return ip - 1, true
	}
	if ls.count >= b.maxLevels {
		return 0, false
	}

	// Shift [ip, count) right by one across all five parallel arrays.
	for i := ls.count; i > ip; i-- {
		ls.prices[i] = ls.prices[i-1]
		ls.aggQty[i] = ls.aggQty[i-1]
		ls.orderCount[i] = ls.orderCount[i-1]
		ls.headSlot[i] = ls.headSlot[i-1]
		ls.tailSlot[i] = ls.tailSlot[i-1]
		b.rewriteLevelIndex(ls, i-1, i)
	}

	ls.prices[ip] = price
	ls.aggQty[ip] = 0
	ls.orderCount[ip] = 0
	ls.headSlot[ip] = types.NullSlot
	ls.tailSlot[ip] = types.NullSlot
	ls.count++

	return ip, true
}

// rewriteLevelIndex walks every order in the queue that used to live at
// oldIndex (now at newIndex after a shift) and updates its LevelIndex field.
func (b *OrderBook) rewriteLevelIndex(ls *levelSet, oldIndex, newIndex int) {
	cur := ls.headSlot[newIndex]
	for cur != types.NullSlot {
		b.slots[cur].LevelIndex = int32(newIndex)
		cur = b.slots[cur].NextSlot
	}
	_ = oldIndex
}

// appendToQueue appends slotIdx at the tail of level levelIndex's FIFO
// queue in O(1) using the maintained tail pointer.
func (b *OrderBook) appendToQueue(ls *levelSet, levelIndex int, slotIdx int32) {
	tail := ls.tailSlot[levelIndex]
	b.slots[slotIdx].PrevSlot = tail
	b.slots[slotIdx].NextSlot = types.NullSlot
	if tail == types.NullSlot {
		ls.headSlot[levelIndex] = slotIdx
	} else {
		b.slots[tail].NextSlot = slotIdx
	}
	ls.tailSlot[levelIndex] = slotIdx
}

// RemoveOrder unlinks the slot from its level's FIFO queue, updates
// aggregates, collapses the level if it becomes empty, and returns the slot
// to the free list. Returns the remaining quantity at the moment of
// removal. Removing an already-free slot is a no-op that returns 0.
func (b *OrderBook) RemoveOrder(slotIndex int32) types.Quantity {
	if slotIndex == types.NullSlot || slotIndex < 0 || int(slotIndex) >= b.maxOrders {
		return 0
	}
	if !b.allocated[slotIndex] {
		return 0
	}

	s := &b.slots[slotIndex]
	remaining := s.Remaining
	side := s.SideValue
	levelIndex := int(s.LevelIndex)

	ls := b.levels(side)
	b.unlinkFromQueue(ls, levelIndex, slotIndex)

	ls.aggQty[levelIndex] -= remaining
	ls.orderCount[levelIndex]--

	if ls.orderCount[levelIndex] == 0 {
		b.removeLevel(ls, levelIndex)
	}

	delete(b.byOrderID, s.OrderID)
	b.allocated[slotIndex] = false
	s.NextSlot = b.freeListHead
	b.freeListHead = slotIndex
	b.liveOrderCount--

	return remaining
}

func (b *OrderBook) unlinkFromQueue(ls *levelSet, levelIndex int, slotIndex int32) {
	s := &b.slots[slotIndex]
	if s.PrevSlot != types.NullSlot {
		b.slots[s.PrevSlot].NextSlot = s.NextSlot
	} else {
		ls.headSlot[levelIndex] = s.NextSlot
	}
	if s.NextSlot != types.NullSlot {
		b.slots[s.NextSlot].PrevSlot = s.PrevSlot
	} else {
		ls.tailSlot[levelIndex] = s.PrevSlot
	}
}

// removeLevel collapses an emptied level: shift [i+1, count) left by one
// across all five parallel arrays, decrement the side's level count, and
// rewrite LevelIndex for every order in the shifted queues.
func (b *OrderBook) removeLevel(ls *levelSet, i int) {
	for j := i; j < ls.count-1; j++ {
		ls.prices[j] = ls.prices[j+1]
		ls.aggQty[j] = ls.aggQty[j+1]
		ls.orderCount[j] = ls.orderCount[j+1]
		ls.headSlot[j] = ls.headSlot[j+1]
		ls.tailSlot[j] = ls.tailSlot[j+1]
		b.rewriteLevelIndex(ls, j+1, j)
	}
	last := ls.count - 1
	ls.prices[last] = 0
	ls.aggQty[last] = 0
	ls.orderCount[last] = 0
	ls.headSlot[last] = types.NullSlot
	ls.tailSlot[last] = types.NullSlot
	ls.count--
}

// ReduceQuantity decrements a resting slot's remaining quantity (and its
// level's aggregate) by fillQty. It does not remove the slot on reaching
// zero; that is the matching engine's responsibility, so it can emit the
// fill report first. Precondition: 0 < fillQty <= remaining.
func (b *OrderBook) ReduceQuantity(slotIndex int32, fillQty types.Quantity) types.Quantity {
	s := &b.slots[slotIndex]
	s.Remaining -= fillQty
	ls := b.levels(s.SideValue)
	ls.aggQty[s.LevelIndex] -= fillQty
	return s.Remaining
}
