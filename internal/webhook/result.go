package webhook

// Outcome discriminates the result of a settlement attempt.
type Outcome string

const (
	OutcomeSettled             Outcome = "SETTLED"
	OutcomeAlreadySettled      Outcome = "ALREADY_SETTLED"
	OutcomeIgnored             Outcome = "IGNORED"
	OutcomeInvalidRequest      Outcome = "INVALID_REQUEST"
	OutcomeUnparsableReference Outcome = "UNPARSABLE_REFERENCE"
	OutcomeBillNotFound        Outcome = "BILL_NOT_FOUND"
	OutcomeVariantNotFound     Outcome = "VARIANT_NOT_FOUND"
	OutcomeInvalidState        Outcome = "INVALID_STATE"
	OutcomeInternal            Outcome = "INTERNAL"
)

// Result is what SettlePayment reports. EC is 0 on success and -1 otherwise.
type Result struct {
	Outcome Outcome
	BillID  int64
	EC      int
	EM      string
}

func (r Result) OK() bool { return r.EC == 0 }

func success(o Outcome, billID int64, msg string) Result {
	return Result{Outcome: o, BillID: billID, EC: 0, EM: msg}
}

func failure(o Outcome, billID int64, msg string) Result {
	return Result{Outcome: o, BillID: billID, EC: -1, EM: "Err from webhook service: " + msg}
}
