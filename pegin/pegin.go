// Package pegin provides the minimal peg-in graph reference a peg-out
// graph is constructed against (design §3, §6): the peg-in graph's
// identity and the confirmed UTXO it deposits, both of which a peg-out
// graph treats as opaque external facts.
package pegin

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Graph is the subset of a peg-in graph's public state a peg-out graph
// needs: its identity string and the confirmed deposit outpoint that
// funds take_1 and take_2 (§6, §4.3 linkage table).
type Graph struct {
	ID               string
	PegInConfirmTxid chainhash.Hash
	PegInConfirmVout uint32
}
