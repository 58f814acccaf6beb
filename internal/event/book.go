package event

// Level is one aggregated price level of an L2 book side.
type Level struct {
	Price float64
	Size  float64
}

// Order is one resting order of an L3 book side.
type Order struct {
	OrderID string
	Price   float64
	Size    float64
}

// Delta holds only the L2 levels that changed since the last emitted
// update, per side, in the order the changes were recorded.
type Delta struct {
	Bids []Level
	Asks []Level
}

// Empty reports whether the delta carries no changed levels on either side.
func (d *Delta) Empty() bool {
	return d == nil || len(d.Bids)+len(d.Asks) == 0
}

// DeltaL3 is the L3 form of Delta, keyed by individual orders.
type DeltaL3 struct {
	Bids []Order
	Asks []Order
}

// Empty reports whether the delta carries no changed orders on either side.
func (d *DeltaL3) Empty() bool {
	return d == nil || len(d.Bids)+len(d.Asks) == 0
}

// Book is a price aggregated (L2) order book owned by the feed layer.
// Bids and Asks hold the full resting book sorted by price, best first.
// Delta, when non nil and non empty, holds only the levels changed since
// the last emission; a nil or empty Delta signals that the full snapshot
// should be emitted this cycle.
type Book struct {
	Exchange string
	Symbol   string
	// Timestamp is the venue time of the update in float seconds, nil
	// when the venue did not supply one.
	Timestamp *float64
	Bids      []Level
	Asks      []Level
	Delta     *Delta
}

// BookL3 is the per-order (L3) order book counterpart of Book.
type BookL3 struct {
	Exchange  string
	Symbol    string
	Timestamp *float64
	Bids      []Order
	Asks      []Order
	Delta     *DeltaL3
}
