package message

// StatusPending is the status every contract message carries at creation.
// The contract-generation consumer owns all later transitions.
const StatusPending = "pending"

// Contract is the unit of durability handed to the broker. Field values are
// passed through from the callback exactly as received, without coercion, so
// they are deliberately untyped.
type Contract struct {
	Client     any    `json:"client"`
	Equipment  any    `json:"equipment"`
	Rental     any    `json:"rental"`
	TotalPrice any    `json:"total_price"`
	StartDate  any    `json:"start_date"`
	EndDate    any    `json:"end_date"`
	Status     string `json:"status"`
}
