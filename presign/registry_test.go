package presign

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/require"

	"github.com/pegbridge/peg-out-graph/transactions"
)

// fakePreSigned satisfies transactions.PreSigned without needing a fully
// built wire.MsgTx, so registry behavior can be exercised independently of
// the transaction factory.
type fakePreSigned struct {
	kind   transactions.Kind
	inputs int
}

func (f fakePreSigned) Txid() chainhash.Hash { return chainhash.Hash{} }
func (f fakePreSigned) TxKind() transactions.Kind { return f.kind }
func (f fakePreSigned) NumInputs() int        { return f.inputs }

func fixedSigHash(kind transactions.Kind, index int) ([32]byte, error) {
	return [32]byte{byte(kind), byte(index)}, nil
}

func twoSigners(t *testing.T) (*btcec.PrivateKey, *btcec.PrivateKey, []*btcec.PublicKey) {
	t.Helper()
	a, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	b, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	return a, b, []*btcec.PublicKey{a.PubKey(), b.PubKey()}
}

func TestVerifierSignRefusesWithoutAllNonces(t *testing.T) {
	a, _, signers := twoSigners(t)
	reg := NewRegistry(signers, fixedSigHash)

	txs := []transactions.PreSigned{fakePreSigned{kind: transactions.KindTake1, inputs: 1}}

	secretA, err := reg.PushVerifierNonces(a.PubKey(), txs)
	require.NoError(t, err)

	err = reg.VerifierSign(a, secretA, txs)
	require.Error(t, err, "signing before every signer's nonce is published must fail")
}

func TestPushSignMergeReachesNOfNPresigned(t *testing.T) {
	a, b, signers := twoSigners(t)
	regA := NewRegistry(signers, fixedSigHash)
	regB := NewRegistry(signers, fixedSigHash)

	txs := []transactions.PreSigned{fakePreSigned{kind: transactions.KindTake1, inputs: 1}}

	secretA, err := regA.PushVerifierNonces(a.PubKey(), txs)
	require.NoError(t, err)
	secretB, err := regB.PushVerifierNonces(b.PubKey(), txs)
	require.NoError(t, err)

	require.NoError(t, regA.Merge(regB, txs))
	require.NoError(t, regB.Merge(regA, txs))

	require.True(t, regA.HasAllNonces(txs))
	require.True(t, regB.HasAllNonces(txs))

	require.NoError(t, regA.VerifierSign(a, secretA, txs))
	require.NoError(t, regB.VerifierSign(b, secretB, txs))

	require.False(t, regA.NOfNPresigned(), "regA only has its own partial signature until merged")

	// Merge recomputes n_of_n_presigned against the merged state itself, so
	// completeness reached purely by merging (with no further local sign
	// call) is observed immediately.
	require.NoError(t, regA.Merge(regB, txs))

	require.True(t, regA.HasAllSignatures(txs))
	require.True(t, regA.NOfNPresigned())
}

func TestMergeRejectsConflictingNonces(t *testing.T) {
	a, _, signers := twoSigners(t)
	reg1 := NewRegistry(signers, fixedSigHash)
	reg2 := NewRegistry(signers, fixedSigHash)

	txs := []transactions.PreSigned{fakePreSigned{kind: transactions.KindTake1, inputs: 1}}

	_, err := reg1.PushVerifierNonces(a.PubKey(), txs)
	require.NoError(t, err)
	_, err = reg2.PushVerifierNonces(a.PubKey(), txs)
	require.NoError(t, err)

	// Two independently generated nonce pairs for the same signer and slot
	// are, with overwhelming probability, unequal, so merging them must be
	// rejected as a conflict rather than silently overwritten.
	err = reg1.Merge(reg2, txs)
	require.Error(t, err)

	// The rejected merge must leave reg1 untouched: it should still hold
	// only its own, pre-merge nonce for the conflicting slot, not reg2's.
	require.Equal(t, 1, len(reg1.nonces[inputKey{kind: transactions.KindTake1, index: 0}]))
}

func TestCombinedSignatureRequiresAllSigners(t *testing.T) {
	a, _, signers := twoSigners(t)
	reg := NewRegistry(signers, fixedSigHash)

	txs := []transactions.PreSigned{fakePreSigned{kind: transactions.KindTake1, inputs: 1}}
	_, err := reg.PushVerifierNonces(a.PubKey(), txs)
	require.NoError(t, err)

	_, _, err = reg.CombinedSignature(transactions.KindTake1, 0)
	require.Error(t, err, "combining before every signer has signed must fail")
}
