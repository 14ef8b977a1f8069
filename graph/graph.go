// Package graph implements the PegOutGraph aggregate (design §4.1-§4.3):
// construction, merge, validation, and the destination-chain event match
// that the action executor and status projector build on.
package graph

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"golang.org/x/sync/errgroup"

	"github.com/pegbridge/peg-out-graph/chain"
	"github.com/pegbridge/peg-out-graph/commitment"
	"github.com/pegbridge/peg-out-graph/connectors"
	"github.com/pegbridge/peg-out-graph/errkind"
	"github.com/pegbridge/peg-out-graph/metrics"
	"github.com/pegbridge/peg-out-graph/pegin"
	"github.com/pegbridge/peg-out-graph/presign"
	"github.com/pegbridge/peg-out-graph/status"
	"github.com/pegbridge/peg-out-graph/transactions"
)

// PegOutEvent is the destination-chain withdrawal record match_and_set_
// peg_out_event consumes (§3 data model).
type PegOutEvent struct {
	SourceOutpoint         wire.OutPoint
	OperatorPublicKey      *btcec.PublicKey
	WithdrawerChainAddress string
	Amount                 btcutil.Amount
	TxHash                 chainhash.Hash
	Timestamp              uint64
}

// Version is the fixed serialization version string; peers reject a
// mismatch on deserialize (§6 external interfaces).
const Version = "peg-out-graph/1"

// Graph is the aggregate described by §3's data model: identity,
// network, keys, connector catalog, the full transaction set, pre-sign
// state, and the optional destination-chain event / peg-out
// transaction.
type Graph struct {
	Version string
	Network *chaincfg.Params
	ID      string

	PegIn       pegin.Graph
	OperatorKey *btcec.PublicKey
	NOfNKey     *btcec.PublicKey

	Catalog *connectors.Catalog
	Secrets commitment.SecretSet

	Transactions map[transactions.Kind]*transactions.Transaction
	Registry     *presign.Registry

	PegOutChainEvent  *PegOutEvent
	PegOutTransaction *wire.MsgTx
}

// GenerateID computes id = SHA256_hex(peg_in_graph.id || operator_public_key)
// (§3 "Graph identity"). It is deterministic and collision-resistant on
// its inputs by virtue of SHA-256 and is immutable once assigned.
func GenerateID(pegInGraphID string, operatorKey *btcec.PublicKey) string {
	h := sha256.New()
	h.Write([]byte(pegInGraphID))
	h.Write(operatorKey.SerializeCompressed())
	return hex.EncodeToString(h.Sum(nil))
}

// PreSignedTransactions returns every transaction in g whose kind
// requires MuSig2 pre-signing, as PreSigned capability values (design
// note "Dyn-dispatched pre-signed iteration").
func (g *Graph) PreSignedTransactions() []transactions.PreSigned {
	kinds := transactions.PreSignedKinds()
	out := make([]transactions.PreSigned, 0, len(kinds))
	for _, k := range kinds {
		if tx, ok := g.Transactions[k]; ok {
			out = append(out, tx)
		}
	}
	return out
}

// IsPegOutInitiated reports whether a peg-out has begun on the source
// chain, i.e. a peg_out_confirm transaction has been built for this
// graph (§4.5 operator projection precondition).
func (g *Graph) IsPegOutInitiated() bool {
	_, ok := g.Transactions[transactions.KindPegOutConfirm]
	return ok
}

// MatchAndSetPegOutEvent filters events by peg-in confirm txid and
// operator key (§6). Exactly one match is stored on the graph and
// returned together with a new slice of the unmatched events; events
// itself is not modified. With no match, events is returned as is; more
// than one match is a Protocol-violated error, and the graph is left
// unmodified.
func (g *Graph) MatchAndSetPegOutEvent(events []PegOutEvent) (*PegOutEvent, []PegOutEvent, error) {
	var matches []PegOutEvent
	var rest []PegOutEvent

	for _, ev := range events {
		if ev.SourceOutpoint.Hash == g.PegIn.PegInConfirmTxid &&
			ev.OperatorPublicKey.IsEqual(g.OperatorKey) {
			matches = append(matches, ev)
			continue
		}
		rest = append(rest, ev)
	}

	switch len(matches) {
	case 0:
		return nil, events, nil
	case 1:
		g.PegOutChainEvent = &matches[0]
		return &matches[0], rest, nil
	default:
		return nil, events, errkind.New(errkind.Protocol,
			"Event from L2 chain is not unique")
	}
}

// Merge unions other's pre-sign registry state into g's, in place. g and
// other must share the same ID; merge of the transaction set itself is
// not needed because transaction bodies are derived deterministically
// from identical construction parameters (§8 invariant: identical
// parameters produce byte-identical bodies).
func (g *Graph) Merge(other *Graph) error {
	if g.ID != other.ID {
		return errkind.Newf(errkind.Protocol,
			"cannot merge graphs with differing ids %s != %s", g.ID, other.ID)
	}
	return g.Registry.Merge(other.Registry, g.PreSignedTransactions())
}

// Validate compares every transaction stored in g with the entry of the
// same kind in rebuild, a set of transactions the caller has already
// reconstructed (§6, design note "Self-referencing validation
// constructor"). It reports false if a kind is missing from rebuild or its
// txid differs. Validate does not reconstruct anything itself, and it
// compares txids, which leave witness data out, not full serialized bytes.
func (g *Graph) Validate(rebuild map[transactions.Kind]*transactions.Transaction) bool {
	for kind, stored := range g.Transactions {
		candidate, ok := rebuild[kind]
		if !ok {
			return false
		}
		if stored.Tx.TxHash() != candidate.Tx.TxHash() {
			return false
		}
	}
	return true
}

// GetPegOutStatuses queries tx_status for every transaction in g
// concurrently, one errgroup goroutine per transaction with no limit set,
// and assembles the status.Snapshot the projector needs, replacing a
// sequential round-trip per transaction with fan-out (§5 concurrency model
// treats tx_status as a suspension point). The goroutines share no
// mutable state; each sends its result over a channel that is drained
// into the snapshot after they finish.
func (g *Graph) GetPegOutStatuses(ctx context.Context, client chain.AsyncClient) (status.Snapshot, error) {
	metrics.PendingPresignedTxs.WithLabelValues(g.ID).
		Set(float64(g.Registry.PendingCount(g.PreSignedTransactions())))

	snap := status.Snapshot{
		Tx:                make(map[transactions.Kind]status.TxStatus, len(g.Transactions)),
		NOfNPresigned:     g.Registry.NOfNPresigned(),
		IsPegOutInitiated: g.IsPegOutInitiated(),
		HasPegOutTx:       g.PegOutTransaction != nil,
	}

	if c := g.Catalog.Connector1; c != nil {
		snap.TimelockLeaf0 = c.TimelockLeaf0
		snap.TimelockLeaf1 = c.TimelockLeaf1
		snap.TimelockLeaf2 = c.TimelockLeaf2
	}
	if g.Catalog.Connector3 != nil {
		snap.Timelock3 = g.Catalog.Connector3.Timelock
	}
	if g.Catalog.Connector4 != nil {
		snap.Timelock4 = g.Catalog.Connector4.Timelock
	}
	if g.Catalog.ConnectorB != nil {
		snap.TimelockB1 = g.Catalog.ConnectorB.Timelock1
	}

	height, err := client.GetBlockHeight(ctx)
	if err != nil {
		return status.Snapshot{}, errkind.Wrap(errkind.ChainTransient, err)
	}
	snap.Height = height

	type result struct {
		kind transactions.Kind
		st   status.TxStatus
	}

	grp, gctx := errgroup.WithContext(ctx)
	results := make(chan result, len(g.Transactions))

	for kind, tx := range g.Transactions {
		kind, tx := kind, tx
		grp.Go(func() error {
			st, err := client.TxStatus(gctx, tx.Txid())
			if err != nil {
				return errkind.Wrap(errkind.ChainTransient, err)
			}
			results <- result{kind: kind, st: status.TxStatus{
				Confirmed:   st.Confirmed,
				BlockHeight: st.BlockHeight,
			}}
			return nil
		})
	}

	if err := grp.Wait(); err != nil {
		return status.Snapshot{}, err
	}
	close(results)

	for r := range results {
		snap.Tx[r.kind] = r.st
	}

	return snap, nil
}
