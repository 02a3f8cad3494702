package operation

// Key prefix codes, one namespace per entity kind.
const (
	codeTransaction     = 1 // transaction records keyed by identifier
	codeTransactionHash = 2 // chain hash -> transaction identifier index
)
