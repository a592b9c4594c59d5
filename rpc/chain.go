package rpc

// Chain describes a configured chain.
type Chain struct {
	ID   int    // Chain id (e.g., 1 for mainnet)
	Name string // Human-readable name

	// RPCURLs lists HTTP endpoints for the default transport,
	// in preference order.
	RPCURLs []string

	// Testnet marks non-production chains.
	Testnet bool
}

// FindChain returns the chain with the given id, or false.
func FindChain(chains []Chain, id int) (Chain, bool) {
	for _, c := range chains {
		if c.ID == id {
			return c, true
		}
	}
	return Chain{}, false
}
