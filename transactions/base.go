// Package transactions implements the TransactionFactory: deterministic
// builders for all of a peg-out graph's fixed-topology transactions
// (design §4.3), each available as a single constructor usable both to
// build a graph (full mode, operator context) and to reconstruct one for
// comparison (validation mode, public material only) -- the same builder
// serves both, consuming only the Input tuples already present in the
// graph (design note "Self-referencing validation constructor").
package transactions

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
)

// Input is the public {outpoint, amount} tuple the design requires every
// validation constructor to consume instead of re-deriving it from a
// producing transaction (§4.3, design note "Self-referencing validation
// constructor"). Amounts are always read from the producer's
// output[vout].value; there is no fee negotiation in-band (§4.3).
type Input struct {
	Outpoint wire.OutPoint
	Amount   btcutil.Amount
}

// Kind names one of the fifteen fixed-topology transactions (§3
// "Transactions"); the optional peg-out transaction and destination-chain
// event have no Kind.
type Kind int

const (
	KindPegOutConfirm Kind = iota
	KindKickOff1
	KindKickOff2
	KindStartTime
	KindStartTimeTimeout
	KindKickOffTimeout
	KindChallenge
	KindAssertInitial
	KindAssertCommit1
	KindAssertCommit2
	KindAssertFinal
	KindDisprove
	KindDisproveChain
	KindTake1
	KindTake2
)

func (k Kind) String() string {
	switch k {
	case KindPegOutConfirm:
		return "peg_out_confirm"
	case KindKickOff1:
		return "kick_off_1"
	case KindKickOff2:
		return "kick_off_2"
	case KindStartTime:
		return "start_time"
	case KindStartTimeTimeout:
		return "start_time_timeout"
	case KindKickOffTimeout:
		return "kick_off_timeout"
	case KindChallenge:
		return "challenge"
	case KindAssertInitial:
		return "assert_initial"
	case KindAssertCommit1:
		return "assert_commit_1"
	case KindAssertCommit2:
		return "assert_commit_2"
	case KindAssertFinal:
		return "assert_final"
	case KindDisprove:
		return "disprove"
	case KindDisproveChain:
		return "disprove_chain"
	case KindTake1:
		return "take_1"
	case KindTake2:
		return "take_2"
	default:
		return "unknown"
	}
}

// PreSignedKinds returns exactly the transactions requiring n-of-n
// MuSig2 pre-signing (§3 invariants, §8 testable properties). All others
// are operator-signed at broadcast time.
func PreSignedKinds() []Kind {
	return []Kind{
		KindAssertInitial,
		KindAssertFinal,
		KindDisprove,
		KindDisproveChain,
		KindKickOffTimeout,
		KindStartTimeTimeout,
		KindTake1,
		KindTake2,
	}
}

// IsPreSigned reports whether k requires MuSig2 pre-signing.
func (k Kind) IsPreSigned() bool {
	for _, p := range PreSignedKinds() {
		if p == k {
			return true
		}
	}
	return false
}

// Transaction is a built graph transaction together with the bookkeeping
// the factory and the pre-sign registry need: its recorded Inputs (for
// validation replay) and its kind.
type Transaction struct {
	Kind   Kind
	Tx     *wire.MsgTx
	Inputs []Input
}

// Txid returns the transaction's hash. Computing it requires the
// transaction to be fully built (all inputs/outputs set); witness data
// does not affect it.
func (t *Transaction) Txid() chainhash.Hash {
	return t.Tx.TxHash()
}

// PreSigned implements the capability interface the design calls for
// (design note "Dyn-dispatched pre-signed iteration"): the graph iterates
// a homogeneous sequence of these instead of a dynamically-dispatched
// container of heterogeneous transaction types.
type PreSigned interface {
	Txid() chainhash.Hash
	TxKind() Kind
	// NumInputs reports how many inputs require a MuSig2 nonce/partial
	// signature slot: len(Inputs) for every kind, so the variable arity
	// of assert_commit_{1,2} is carried by their recorded Inputs.
	NumInputs() int
}

func (t *Transaction) TxKind() Kind      { return t.Kind }
func (t *Transaction) NumInputs() int    { return len(t.Inputs) }

var _ PreSigned = (*Transaction)(nil)

func newUnsignedTx(inputs []Input, outputs []*wire.TxOut, locktime uint32) *wire.MsgTx {
	tx := wire.NewMsgTx(2)
	tx.LockTime = locktime

	for _, in := range inputs {
		tx.AddTxIn(&wire.TxIn{
			PreviousOutPoint: in.Outpoint,
			Sequence:         wire.MaxTxInSequenceNum,
		})
	}
	for _, out := range outputs {
		tx.AddTxOut(out)
	}
	return tx
}

// withSequence sets the nth input's sequence number, used to encode a
// relative timelock (OP_CHECKSEQUENCEVERIFY) requirement on that input's
// spend.
func withSequence(tx *wire.MsgTx, inputIndex int, blocks uint32) {
	tx.TxIn[inputIndex].Sequence = blocks
}

func pkScript(addr btcutil.Address) ([]byte, error) {
	return txscript.PayToAddrScript(addr)
}

func txOut(addr btcutil.Address, amount btcutil.Amount) (*wire.TxOut, error) {
	script, err := pkScript(addr)
	if err != nil {
		return nil, err
	}
	return &wire.TxOut{Value: int64(amount), PkScript: script}, nil
}
