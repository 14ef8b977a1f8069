package graph

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

func TestGenerateIDIsDeterministic(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err, "unable to generate operator key")
	pub := priv.PubKey()

	id1 := GenerateID("peg-in-graph-id", pub)
	id2 := GenerateID("peg-in-graph-id", pub)
	require.Equal(t, id1, id2)
	require.Len(t, id1, 64, "expected 32-byte sha256 digest as hex")
}

func TestGenerateIDDependsOnBothInputs(t *testing.T) {
	priv1, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	priv2, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	idA := GenerateID("peg-in-graph-a", priv1.PubKey())
	idB := GenerateID("peg-in-graph-b", priv1.PubKey())
	require.NotEqual(t, idA, idB, "different peg-in ids must yield different graph ids")

	idC := GenerateID("peg-in-graph-a", priv2.PubKey())
	require.NotEqual(t, idA, idC, "different operator keys must yield different graph ids")
}

func newTestGraph(t *testing.T, pegInTxid chainhash.Hash, operatorKey *btcec.PublicKey) *Graph {
	t.Helper()
	return &Graph{
		ID:          "test-graph",
		OperatorKey: operatorKey,
	}
}

func TestMatchAndSetPegOutEventNoMatch(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	var pegInTxid chainhash.Hash
	g := newTestGraph(t, pegInTxid, priv.PubKey())

	other, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	events := []PegOutEvent{
		{
			SourceOutpoint:    wire.OutPoint{Hash: chainhash.Hash{0x01}},
			OperatorPublicKey: other.PubKey(),
		},
	}

	matched, rest, err := g.MatchAndSetPegOutEvent(events)
	require.NoError(t, err)
	require.Nil(t, matched)
	require.Len(t, rest, 1)
	require.Nil(t, g.PegOutChainEvent)
}

func TestMatchAndSetPegOutEventSingleMatch(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	pegInTxid := chainhash.Hash{0xaa}
	g := newTestGraph(t, pegInTxid, priv.PubKey())
	g.PegIn.PegInConfirmTxid = pegInTxid

	events := []PegOutEvent{
		{
			SourceOutpoint:    wire.OutPoint{Hash: pegInTxid, Index: 0},
			OperatorPublicKey: priv.PubKey(),
		},
	}

	matched, rest, err := g.MatchAndSetPegOutEvent(events)
	require.NoError(t, err)
	require.NotNil(t, matched)
	require.Empty(t, rest)
	require.Same(t, g.PegOutChainEvent, matched)
}

func TestMatchAndSetPegOutEventRejectsDuplicates(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	pegInTxid := chainhash.Hash{0xbb}
	g := newTestGraph(t, pegInTxid, priv.PubKey())
	g.PegIn.PegInConfirmTxid = pegInTxid

	events := []PegOutEvent{
		{SourceOutpoint: wire.OutPoint{Hash: pegInTxid}, OperatorPublicKey: priv.PubKey()},
		{SourceOutpoint: wire.OutPoint{Hash: pegInTxid}, OperatorPublicKey: priv.PubKey()},
	}

	matched, rest, err := g.MatchAndSetPegOutEvent(events)
	require.Error(t, err)
	require.Nil(t, matched)
	require.Equal(t, events, rest)
	require.Nil(t, g.PegOutChainEvent, "graph must be left unmodified on ambiguous match")
}

func TestMergeRejectsMismatchedIDs(t *testing.T) {
	g1 := &Graph{ID: "graph-a"}
	g2 := &Graph{ID: "graph-b"}

	err := g1.Merge(g2)
	require.Error(t, err)
}
