package shop

type BillStatus string

const (
	BillPending   BillStatus = "Pending"
	BillDone      BillStatus = "Done"
	BillCancelled BillStatus = "Cancelled"
)

var validNext = map[BillStatus]map[BillStatus]bool{
	BillPending:   {BillDone: true, BillCancelled: true},
	BillDone:      {},
	BillCancelled: {},
}

func CanTransition(from, to BillStatus) bool {
	return validNext[from][to]
}

func (s BillStatus) Valid() bool {
	_, ok := validNext[s]
	return ok
}
