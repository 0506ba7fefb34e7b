package aggregates

// WriteTxOwnership defines who owns write transaction boundaries.
type WriteTxOwnership string

const (
	// WriteTxOwnedByAggregate means aggregate write methods open and commit their own transaction.
	WriteTxOwnedByAggregate WriteTxOwnership = "aggregate_owned"
	// WriteTxOwnedByCaller means the method runs inside a transaction the caller already opened.
	WriteTxOwnedByCaller WriteTxOwnership = "caller_owned"
)

// Contract describes aggregate-level policy expectations.
type Contract struct {
	Name             string
	WriteTxOwnership WriteTxOwnership
	Notes            string
}

// Aggregate is the common marker for all aggregate contracts.
type Aggregate interface {
	Contract() Contract
}

// RequiresAggregateOwnedTx returns true when write transaction ownership is aggregate-owned.
func (c Contract) RequiresAggregateOwnedTx() bool {
	return c.WriteTxOwnership == WriteTxOwnedByAggregate
}
