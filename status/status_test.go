package status

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pegbridge/peg-out-graph/transactions"
)

func TestVerifierStatusPresignBlocksEverythingElse(t *testing.T) {
	s := Snapshot{NOfNPresigned: false}
	require.Equal(t, VerifierPresign, VerifierStatus(s))
}

func TestVerifierStatusWaitBeforeKickOff1(t *testing.T) {
	s := Snapshot{NOfNPresigned: true}
	require.Equal(t, VerifierWait, VerifierStatus(s))
}

func TestVerifierStatusChallengeAvailable(t *testing.T) {
	s := Snapshot{
		NOfNPresigned: true,
		Height:        1000,
		TimelockLeaf1: 5,
		TimelockLeaf2: 5,
		Tx: map[transactions.Kind]TxStatus{
			transactions.KindKickOff1:  {Confirmed: true, BlockHeight: 1},
			transactions.KindStartTime: {Confirmed: true, BlockHeight: 1},
		},
	}
	require.Equal(t, VerifierChallengeAvailable, VerifierStatus(s))
}

func TestVerifierStatusKickOffTimeoutAvailableBeatsChallenge(t *testing.T) {
	s := Snapshot{
		NOfNPresigned: true,
		Height:        1000,
		TimelockLeaf1: 2000,
		TimelockLeaf2: 5,
		Tx: map[transactions.Kind]TxStatus{
			transactions.KindKickOff1:  {Confirmed: true, BlockHeight: 1},
			transactions.KindStartTime: {Confirmed: true, BlockHeight: 1},
			transactions.KindChallenge: {Confirmed: true, BlockHeight: 5},
		},
	}
	require.Equal(t, VerifierKickOffTimeoutAvailable, VerifierStatus(s))
}

func TestVerifierStatusStartTimeTimeoutAvailableWhenStartTimeMissing(t *testing.T) {
	s := Snapshot{
		NOfNPresigned: true,
		Height:        1000,
		TimelockLeaf1: 5,
		TimelockLeaf2: 2000,
		Tx: map[transactions.Kind]TxStatus{
			transactions.KindKickOff1: {Confirmed: true, BlockHeight: 1},
		},
	}
	require.Equal(t, VerifierStartTimeTimeoutAvailable, VerifierStatus(s))
}

func TestVerifierStatusFailedOnTimeoutConfirmed(t *testing.T) {
	s := Snapshot{
		NOfNPresigned: true,
		Tx: map[transactions.Kind]TxStatus{
			transactions.KindKickOff1:     {Confirmed: true},
			transactions.KindKickOffTimeout: {Confirmed: true},
		},
	}
	require.Equal(t, VerifierFailed, VerifierStatus(s))
}

func TestVerifierStatusDisproveChainThenDisproveThenFailedThenComplete(t *testing.T) {
	base := Snapshot{
		NOfNPresigned: true,
		Tx: map[transactions.Kind]TxStatus{
			transactions.KindKickOff2: {Confirmed: true},
		},
	}
	require.Equal(t, VerifierDisproveChainAvailable, VerifierStatus(base))

	withAssertFinal := base
	withAssertFinal.Tx = map[transactions.Kind]TxStatus{
		transactions.KindKickOff2:    {Confirmed: true},
		transactions.KindAssertFinal: {Confirmed: true},
	}
	require.Equal(t, VerifierDisproveAvailable, VerifierStatus(withAssertFinal))

	withDisprove := base
	withDisprove.Tx = map[transactions.Kind]TxStatus{
		transactions.KindKickOff2: {Confirmed: true},
		transactions.KindDisprove: {Confirmed: true},
	}
	require.Equal(t, VerifierFailed, VerifierStatus(withDisprove))

	withTake := base
	withTake.Tx = map[transactions.Kind]TxStatus{
		transactions.KindKickOff2: {Confirmed: true},
		transactions.KindTake1:    {Confirmed: true},
	}
	require.Equal(t, VerifierComplete, VerifierStatus(withTake))
}

func TestOperatorStatusRequiresPresignAndPegOutInitiated(t *testing.T) {
	require.Equal(t, OperatorWait, OperatorStatus(Snapshot{}))
	require.Equal(t, OperatorWait, OperatorStatus(Snapshot{NOfNPresigned: true}))
	require.Equal(t, OperatorStartPegOut, OperatorStatus(Snapshot{
		NOfNPresigned:     true,
		IsPegOutInitiated: true,
	}))
}

func TestOperatorStatusCompleteBeatsEverythingElse(t *testing.T) {
	s := Snapshot{
		NOfNPresigned:     true,
		IsPegOutInitiated: true,
		Tx: map[transactions.Kind]TxStatus{
			transactions.KindTake2: {Confirmed: true},
		},
	}
	require.Equal(t, OperatorComplete, OperatorStatus(s))
}

func TestWithdrawerStatus(t *testing.T) {
	require.Equal(t, WithdrawerNotStarted, WithdrawerStatus(false, TxStatus{}))
	require.Equal(t, WithdrawerWait, WithdrawerStatus(true, TxStatus{Confirmed: false}))
	require.Equal(t, WithdrawerComplete, WithdrawerStatus(true, TxStatus{Confirmed: true}))
}
