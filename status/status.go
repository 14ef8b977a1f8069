// Package status implements the StatusProjector: pure, total functions
// mapping observed on-chain transaction status plus graph parameters to
// a role-specific status enum (design §4.5). No projection here ever
// returns an error; ambiguity resolves to Wait so UI code stays total.
package status

import "github.com/pegbridge/peg-out-graph/transactions"

// TxStatus is the {confirmed, block_height} pair the projector reads per
// transaction (design §4.5, §6 chain client).
type TxStatus struct {
	Confirmed   bool
	BlockHeight uint32
}

// Verifier enumerates verifier-role projections (§4.5).
type Verifier int

const (
	VerifierPresign Verifier = iota
	VerifierWait
	VerifierChallengeAvailable
	VerifierKickOffTimeoutAvailable
	VerifierStartTimeTimeoutAvailable
	VerifierDisproveChainAvailable
	VerifierDisproveAvailable
	VerifierFailed
	VerifierComplete
)

func (v Verifier) String() string {
	switch v {
	case VerifierPresign:
		return "Presign"
	case VerifierWait:
		return "Wait"
	case VerifierChallengeAvailable:
		return "ChallengeAvailable"
	case VerifierKickOffTimeoutAvailable:
		return "KickOffTimeoutAvailable"
	case VerifierStartTimeTimeoutAvailable:
		return "StartTimeTimeoutAvailable"
	case VerifierDisproveChainAvailable:
		return "DisproveChainAvailable"
	case VerifierDisproveAvailable:
		return "DisproveAvailable"
	case VerifierFailed:
		return "Failed"
	case VerifierComplete:
		return "Complete"
	default:
		return "unknown"
	}
}

// Operator enumerates operator-role projections (§4.5).
type Operator int

const (
	OperatorWait Operator = iota
	OperatorStartPegOut
	OperatorPegOutConfirmAvailable
	OperatorKickOff1Available
	OperatorStartTimeAvailable
	OperatorKickOff2Available
	OperatorAssertAvailable
	OperatorTake1Available
	OperatorTake2Available
	OperatorComplete
	OperatorFailed
)

func (o Operator) String() string {
	switch o {
	case OperatorWait:
		return "Wait"
	case OperatorStartPegOut:
		return "StartPegOut"
	case OperatorPegOutConfirmAvailable:
		return "PegOutConfirmAvailable"
	case OperatorKickOff1Available:
		return "KickOff1Available"
	case OperatorStartTimeAvailable:
		return "StartTimeAvailable"
	case OperatorKickOff2Available:
		return "KickOff2Available"
	case OperatorAssertAvailable:
		return "AssertAvailable"
	case OperatorTake1Available:
		return "Take1Available"
	case OperatorTake2Available:
		return "Take2Available"
	case OperatorComplete:
		return "Complete"
	case OperatorFailed:
		return "Failed"
	default:
		return "unknown"
	}
}

// Withdrawer enumerates withdrawer-role projections (§4.5).
type Withdrawer int

const (
	WithdrawerNotStarted Withdrawer = iota
	WithdrawerWait
	WithdrawerComplete
)

func (w Withdrawer) String() string {
	switch w {
	case WithdrawerNotStarted:
		return "NotStarted"
	case WithdrawerWait:
		return "Wait"
	case WithdrawerComplete:
		return "Complete"
	default:
		return "unknown"
	}
}

// Snapshot is every observed fact a projection needs: per-transaction
// on-chain status keyed by kind, the current chain height, the graph's
// timelock parameters, n_of_n_presigned, is_peg_out_initiated, and
// whether a peg-out transaction exists at all (it is optional, §3).
type Snapshot struct {
	Tx map[transactions.Kind]TxStatus

	Height uint32

	TimelockLeaf0 uint32 // connector_1.timelock_leaf_0
	TimelockLeaf1 uint32 // connector_1.timelock_leaf_1
	TimelockLeaf2 uint32 // connector_1.timelock_leaf_2
	Timelock3     uint32 // connector_3.timelock
	Timelock4     uint32 // connector_4.timelock
	TimelockB1    uint32 // connector_b.timelock_1

	NOfNPresigned     bool
	IsPegOutInitiated bool
	HasPegOutTx       bool
}

func (s Snapshot) status(k transactions.Kind) TxStatus { return s.Tx[k] }

func (s Snapshot) confirmed(k transactions.Kind) bool { return s.status(k).Confirmed }

// VerifierStatus implements the verifier decision tree (§4.5), evaluated
// top-down with first match wins.
func VerifierStatus(s Snapshot) Verifier {
	if !s.NOfNPresigned {
		return VerifierPresign
	}

	if s.confirmed(transactions.KindKickOff2) {
		if s.confirmed(transactions.KindTake1) || s.confirmed(transactions.KindTake2) {
			return VerifierComplete
		}
		if s.confirmed(transactions.KindDisprove) || s.confirmed(transactions.KindDisproveChain) {
			return VerifierFailed
		}
		if s.confirmed(transactions.KindAssertFinal) {
			return VerifierDisproveAvailable
		}
		return VerifierDisproveChainAvailable
	}

	if s.confirmed(transactions.KindKickOff1) {
		if s.confirmed(transactions.KindStartTimeTimeout) || s.confirmed(transactions.KindKickOffTimeout) {
			return VerifierFailed
		}

		kickOff1 := s.status(transactions.KindKickOff1)

		if !s.confirmed(transactions.KindStartTime) &&
			kickOff1.BlockHeight+s.TimelockLeaf2 > s.Height {
			return VerifierStartTimeTimeoutAvailable
		}
		if kickOff1.BlockHeight+s.TimelockLeaf1 > s.Height {
			return VerifierKickOffTimeoutAvailable
		}
		if !s.confirmed(transactions.KindChallenge) {
			return VerifierChallengeAvailable
		}
		return VerifierWait
	}

	return VerifierWait
}

// OperatorStatus implements the operator decision tree (§4.5). It
// requires n_of_n_presigned and is_peg_out_initiated; otherwise Wait.
// StartPegOut is returned while the graph holds no peg-out transaction;
// whether an existing peg-out transaction has confirmed is not consulted.
func OperatorStatus(s Snapshot) Operator {
	if !s.NOfNPresigned || !s.IsPegOutInitiated {
		return OperatorWait
	}

	if s.confirmed(transactions.KindTake1) || s.confirmed(transactions.KindTake2) {
		return OperatorComplete
	}
	if s.confirmed(transactions.KindDisprove) || s.confirmed(transactions.KindDisproveChain) ||
		s.confirmed(transactions.KindKickOffTimeout) || s.confirmed(transactions.KindStartTimeTimeout) {
		return OperatorFailed
	}

	if !s.HasPegOutTx {
		return OperatorStartPegOut
	}
	if !s.confirmed(transactions.KindPegOutConfirm) {
		return OperatorPegOutConfirmAvailable
	}
	if !s.confirmed(transactions.KindKickOff1) {
		return OperatorKickOff1Available
	}

	kickOff1 := s.status(transactions.KindKickOff1)

	noTimeoutConfirmed := !s.confirmed(transactions.KindKickOffTimeout) &&
		!s.confirmed(transactions.KindStartTimeTimeout)
	if !s.confirmed(transactions.KindStartTime) && noTimeoutConfirmed {
		return OperatorStartTimeAvailable
	}

	if s.confirmed(transactions.KindStartTime) &&
		!s.confirmed(transactions.KindKickOff2) &&
		kickOff1.BlockHeight+s.TimelockLeaf0 <= s.Height {
		return OperatorKickOff2Available
	}

	if s.confirmed(transactions.KindKickOff2) {
		kickOff2 := s.status(transactions.KindKickOff2)

		if s.confirmed(transactions.KindChallenge) &&
			!s.confirmed(transactions.KindAssertFinal) &&
			kickOff2.BlockHeight+s.TimelockB1 <= s.Height {
			return OperatorAssertAvailable
		}

		if !s.confirmed(transactions.KindChallenge) &&
			kickOff2.BlockHeight+s.Timelock3 <= s.Height {
			return OperatorTake1Available
		}
	}

	if s.confirmed(transactions.KindAssertFinal) {
		assertFinal := s.status(transactions.KindAssertFinal)
		if assertFinal.BlockHeight+s.Timelock4 <= s.Height {
			return OperatorTake2Available
		}
	}

	return OperatorWait
}

// WithdrawerStatus implements the withdrawer projection (§4.5).
func WithdrawerStatus(hasPegOutTx bool, pegOutTx TxStatus) Withdrawer {
	if !hasPegOutTx {
		return WithdrawerNotStarted
	}
	if pegOutTx.Confirmed {
		return WithdrawerComplete
	}
	return WithdrawerWait
}
