package contexts

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/require"

	"github.com/pegbridge/peg-out-graph/commitment"
)

func TestMarkRevealedRejectsSecondUse(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err, "unable to generate operator key")

	op := &OperatorContext{PrivateKey: priv}
	id := commitment.StartTime()

	require.True(t, op.MarkRevealed(id), "first reveal must succeed")
	require.False(t, op.MarkRevealed(id), "second reveal of the same id must be rejected")
}

func TestMarkRevealedIsPerMessageId(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err, "unable to generate operator key")

	op := &OperatorContext{PrivateKey: priv}

	require.True(t, op.MarkRevealed(commitment.StartTime()))
	require.True(t, op.MarkRevealed(commitment.Superblock()), "distinct ids must not collide")
}

func TestContextPublicKeys(t *testing.T) {
	vPriv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	oPriv, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	v := VerifierContext{PrivateKey: vPriv}
	o := OperatorContext{PrivateKey: oPriv}

	require.True(t, v.PublicKey().IsEqual(vPriv.PubKey()))
	require.True(t, o.PublicKey().IsEqual(oPriv.PubKey()))
}
