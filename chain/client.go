// Package chain defines the external chain-client capability the graph
// state machine consumes, plus a thin instrumented wrapper around it.
// Concrete transport (Esplora-style REST, btcd RPC, neutrino) is supplied by
// the embedder; this package treats it as an opaque collaborator, per the
// spec's non-goal "chain adapter: provides tx_status/broadcast".
//
// The interface shape mirrors chainntfs.ChainNotifier's role as a "trusted
// source to receive... targeted events", generalized to the four suspension
// points the design identifies (§5): tx_status, broadcast, get_block_height,
// get_address_utxo.
package chain

import (
	"context"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
)

// TxStatus is the confirmation state of a single transaction as observed on
// chain.
type TxStatus struct {
	Confirmed bool

	// BlockHeight is set only when Confirmed is true.
	BlockHeight uint32
}

// Utxo is a single unspent output observed at a watched address, used by
// the action executor to verify external funding (challenge crowdfunding
// inputs, peg-out transaction funding).
type Utxo struct {
	Outpoint wire.OutPoint
	Value    btcutil.Amount
}

// AsyncClient is the chain-facing capability the graph state machine
// requires. Every method is a suspension point (design §5); there is no
// other I/O anywhere else in this module.
//
// Implementations must be safe for concurrent use: graph.Graph.GetPegOutStatuses
// fetches statuses for several transactions in parallel via
// golang.org/x/sync/errgroup.
type AsyncClient interface {
	// TxStatus reports whether txid has confirmed, and if so at what
	// height.
	TxStatus(ctx context.Context, txid chainhash.Hash) (TxStatus, error)

	// Broadcast submits a fully-witnessed transaction to the network.
	// Broadcasting an already-included transaction must succeed
	// (idempotence guard, design §4.6 step 1 and §5 cancellation).
	Broadcast(ctx context.Context, tx *wire.MsgTx) error

	// GetAddressUTXO lists unspent outputs paying to address, used to
	// verify external funding before broadcasting a funding-dependent
	// action.
	GetAddressUTXO(ctx context.Context, address btcutil.Address) ([]Utxo, error)

	// GetBlockHeight returns the current chain tip height.
	GetBlockHeight(ctx context.Context) (uint32, error)
}
