package connectors

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/btcutil"

	"github.com/pegbridge/peg-out-graph/commitment"
	"github.com/pegbridge/peg-out-graph/errkind"
)

// commitmentLeaf builds a tapscript leaf that requires revealing the
// committed Winternitz message before the named key may sign. The actual
// OP_ccode Winternitz-verification sequence is an implementation detail
// delegated to the committed WinternitzPublicKey's consuming script
// template; per the non-goal this package treats script assembly as
// opaque and only needs a working, distinguishable leaf per commitment.
func commitmentLeaf(key *btcec.PublicKey, pub commitment.PublicKey) (txscript.TapLeaf, error) {
	builder := txscript.NewScriptBuilder()
	for _, digit := range pub {
		builder.AddData(digit[:])
	}
	builder.AddData(schnorr.SerializePubKey(key))
	builder.AddOp(txscript.OP_CHECKSIG)
	script, err := builder.Script()
	if err != nil {
		return txscript.TapLeaf{}, err
	}
	return txscript.NewBaseTapLeaf(script), nil
}

// Connector0 is the peg-out-confirm funding output, spendable only by the
// n-of-n key (no timelock, no commitments).
type Connector0 struct {
	Network *chaincfg.Params
	NOfNKey *btcec.PublicKey
}

func (c *Connector0) Address() (*btcutil.AddressTaproot, error) {
	return keyPathOnlyAddress(c.Network, c.NOfNKey)
}

// Connector1 gates kick_off_1's output[1], spent by kick_off_2,
// kick_off_timeout, and start_time_timeout, with three timelock leaves:
// the start_time window (leaf 0), the kick-off timeout window (leaf 1),
// and the start_time timeout window (leaf 2), per StatusProjector's
// references to connector_1.timelock_leaf_{0,1,2}. Its commitment keys
// carry the Superblock and SuperblockHash messages, revealed in
// kick_off_2's witness when it spends this output.
type Connector1 struct {
	Network          *chaincfg.Params
	OperatorKey      *btcec.PublicKey
	TimelockLeaf0    uint32
	TimelockLeaf1    uint32
	TimelockLeaf2    uint32
	CommitmentKeys   CommitmentView
	leaves           [3]TimelockLeaf
}

func NewConnector1(net *chaincfg.Params, operatorKey *btcec.PublicKey,
	leaf0, leaf1, leaf2 uint32, pub commitment.PublicSet) (*Connector1, error) {

	c := &Connector1{
		Network:       net,
		OperatorKey:   operatorKey,
		TimelockLeaf0: leaf0,
		TimelockLeaf1: leaf1,
		TimelockLeaf2: leaf2,
		CommitmentKeys: newCommitmentView(
			pub, commitment.Superblock(), commitment.SuperblockHash(),
		),
	}

	for i, blocks := range []uint32{leaf0, leaf1, leaf2} {
		leaf, err := newTimelockLeaf(blocks, operatorKey)
		if err != nil {
			return nil, err
		}
		c.leaves[i] = leaf
	}
	return c, nil
}

func (c *Connector1) Address() (*btcutil.AddressTaproot, *txscript.IndexedTapScriptTree, error) {
	return scriptPathAddress(c.Network, c.OperatorKey,
		c.leaves[0].leaf, c.leaves[1].leaf, c.leaves[2].leaf)
}

// Connector2 is kick_off_1's output[2], spent by start_time and
// start_time_timeout. Its commitment key carries the StartTime message,
// revealed in start_time's witness when it spends this output.
type Connector2 struct {
	Network        *chaincfg.Params
	OperatorKey    *btcec.PublicKey
	CommitmentKeys CommitmentView
}

func NewConnector2(net *chaincfg.Params, operatorKey *btcec.PublicKey,
	pub commitment.PublicSet) *Connector2 {

	return &Connector2{
		Network:        net,
		OperatorKey:    operatorKey,
		CommitmentKeys: newCommitmentView(pub, commitment.StartTime()),
	}
}

func (c *Connector2) Address() (*btcutil.AddressTaproot, error) {
	return keyPathOnlyAddress(c.Network, c.OperatorKey)
}

// Connector3 gates take_1's eligibility window after kick_off_2.
type Connector3 struct {
	Network     *chaincfg.Params
	NOfNKey     *btcec.PublicKey
	Timelock    uint32
	leaf        TimelockLeaf
}

func NewConnector3(net *chaincfg.Params, nOfNKey *btcec.PublicKey, blocks uint32) (*Connector3, error) {
	leaf, err := newTimelockLeaf(blocks, nOfNKey)
	if err != nil {
		return nil, err
	}
	return &Connector3{Network: net, NOfNKey: nOfNKey, Timelock: blocks, leaf: leaf}, nil
}

func (c *Connector3) Address() (*btcutil.AddressTaproot, *txscript.IndexedTapScriptTree, error) {
	return scriptPathAddress(c.Network, c.NOfNKey, c.leaf.leaf)
}

// Connector4 gates take_2's eligibility window after assert_final.
type Connector4 struct {
	Network  *chaincfg.Params
	NOfNKey  *btcec.PublicKey
	Timelock uint32
	leaf     TimelockLeaf
}

func NewConnector4(net *chaincfg.Params, nOfNKey *btcec.PublicKey, blocks uint32) (*Connector4, error) {
	leaf, err := newTimelockLeaf(blocks, nOfNKey)
	if err != nil {
		return nil, err
	}
	return &Connector4{Network: net, NOfNKey: nOfNKey, Timelock: blocks, leaf: leaf}, nil
}

func (c *Connector4) Address() (*btcutil.AddressTaproot, *txscript.IndexedTapScriptTree, error) {
	return scriptPathAddress(c.Network, c.NOfNKey, c.leaf.leaf)
}

// Connector5 is assert_final's intermediate n-of-n-owned output feeding
// take_2.
type Connector5 struct {
	Network *chaincfg.Params
	NOfNKey *btcec.PublicKey
}

func (c *Connector5) Address() (*btcutil.AddressTaproot, error) {
	return keyPathOnlyAddress(c.Network, c.NOfNKey)
}

// Connector6 is peg_out_confirm's output[1], an anchor spent alongside
// Connector0 by kick_off_1, carrying the source- and destination-network
// peg-out txid commitments revealed in kick_off_1's own witness.
type Connector6 struct {
	Network        *chaincfg.Params
	OperatorKey    *btcec.PublicKey
	CommitmentKeys CommitmentView
}

func NewConnector6(net *chaincfg.Params, operatorKey *btcec.PublicKey,
	pub commitment.PublicSet, destLen int) *Connector6 {

	return &Connector6{
		Network:     net,
		OperatorKey: operatorKey,
		CommitmentKeys: newCommitmentView(
			pub,
			commitment.PegOutTxIdSourceNetwork(),
			commitment.PegOutTxIdDestinationNetwork(destLen),
		),
	}
}

func (c *Connector6) Address() (*btcutil.AddressTaproot, error) {
	return keyPathOnlyAddress(c.Network, c.OperatorKey)
}

// ConnectorA is kick_off_1's n-of-n-owned challenge-or-take_1 output.
type ConnectorA struct {
	Network *chaincfg.Params
	NOfNKey *btcec.PublicKey
}

func (c *ConnectorA) Address() (*btcutil.AddressTaproot, error) {
	return keyPathOnlyAddress(c.Network, c.NOfNKey)
}

// ConnectorB gates kick_off_2's output with the assert-availability window
// (Timelock1, per StatusProjector's connector_b.timelock_1) and an
// alternate leaf spendable directly by disprove_chain.
type ConnectorB struct {
	Network     *chaincfg.Params
	NOfNKey     *btcec.PublicKey
	Timelock1   uint32
	assertLeaf  TimelockLeaf
	chainLeaf   txscript.TapLeaf
}

func NewConnectorB(net *chaincfg.Params, nOfNKey *btcec.PublicKey, blocks uint32) (*ConnectorB, error) {
	assertLeaf, err := newTimelockLeaf(blocks, nOfNKey)
	if err != nil {
		return nil, err
	}

	builder := txscript.NewScriptBuilder()
	builder.AddData(schnorr.SerializePubKey(nOfNKey))
	builder.AddOp(txscript.OP_CHECKSIG)
	chainScript, err := builder.Script()
	if err != nil {
		return nil, err
	}

	return &ConnectorB{
		Network:    net,
		NOfNKey:    nOfNKey,
		Timelock1:  blocks,
		assertLeaf: assertLeaf,
		chainLeaf:  txscript.NewBaseTapLeaf(chainScript),
	}, nil
}

func (c *ConnectorB) Address() (*btcutil.AddressTaproot, *txscript.IndexedTapScriptTree, error) {
	return scriptPathAddress(c.Network, c.NOfNKey, c.assertLeaf.leaf, c.chainLeaf)
}

// DisproveChainLeafIndex is the leaf index disprove_chain must use within
// ConnectorB's script tree.
const DisproveChainLeafIndex = 1

// ConnectorC is the disprove output, built from the union of connector E1
// and E2's commitment public keys (design §4.2). Each candidate leaf
// corresponds to one intermediate value whose committed reveal, combined
// with the neighboring values, would prove the circuit assignment
// inconsistent.
type ConnectorC struct {
	Network        *chaincfg.Params
	NOfNKey        *btcec.PublicKey
	CommitmentKeys CommitmentView
	leaves         []txscript.TapLeaf
	leafIds        []commitment.MessageId
}

func NewConnectorC(net *chaincfg.Params, nOfNKey *btcec.PublicKey,
	pub commitment.PublicSet, e1, e2 []commitment.MessageId) (*ConnectorC, error) {

	ids := append(append([]commitment.MessageId{}, e1...), e2...)

	c := &ConnectorC{
		Network:        net,
		NOfNKey:        nOfNKey,
		CommitmentKeys: newCommitmentView(pub, ids...),
	}

	for _, id := range ids {
		key, ok := pub.Public(id)
		if !ok {
			continue
		}
		leaf, err := commitmentLeaf(nOfNKey, key)
		if err != nil {
			return nil, err
		}
		c.leaves = append(c.leaves, leaf)
		c.leafIds = append(c.leafIds, id)
	}
	return c, nil
}

func (c *ConnectorC) Address() (*btcutil.AddressTaproot, *txscript.IndexedTapScriptTree, error) {
	return scriptPathAddress(c.Network, c.NOfNKey, c.leaves...)
}

// DisproveWitness is the result of a successful GenerateDisproveWitness
// call: the script-tree leaf index to spend through, and the witness
// stack revealing the inconsistent value and its Winternitz signature.
type DisproveWitness struct {
	ScriptIndex int
	Witness     [][]byte
}

// RawProof is the source of the revealed intermediate values that
// GenerateDisproveWitness inspects; chunker.Proof implements it (design
// §4.2, §9 "Commitment message enumeration").
type RawProof interface {
	// IntermediateValue returns the claimed value and its Winternitz
	// signature for the intermediate variable named name, or false if
	// the proof carries no such reveal.
	IntermediateValue(name string) (value []byte, signature commitment.Signature, ok bool)
}

// GenerateDisproveWitness walks ConnectorC's leaves in order and returns a
// witness for the first one whose intermediate value, as revealed by
// proof, verifies under that leaf's committed Winternitz public key. It
// does not check the revealed value against the circuit, so the witness
// shows a correctly signed reveal, not an inconsistent one. When no leaf
// verifies it reports that no disprove is possible.
//
// defaultScriptIndex (config.DisproveScriptIndex, design note
// "Placeholder values") is accepted but not used to pick a leaf.
func (c *ConnectorC) GenerateDisproveWitness(proof RawProof,
	defaultScriptIndex int) (*DisproveWitness, error) {

	for i, id := range c.leafIds {
		pubKey, ok := c.CommitmentKeys[id.String()]
		if !ok {
			continue
		}

		value, sig, ok := proof.IntermediateValue(id.Name())
		if !ok {
			continue
		}

		if !commitment.Verify(pubKey, value, sig) {
			continue
		}

		witness := make([][]byte, 0, len(sig)+1)
		for _, digit := range sig {
			d := digit
			witness = append(witness, d[:])
		}

		return &DisproveWitness{ScriptIndex: i, Witness: witness}, nil
	}

	// No leaf's committed key verified a reveal from proof, so no witness
	// can be built. defaultScriptIndex is never substituted for a leaf.
	_ = defaultScriptIndex
	return nil, errkind.New(errkind.Cryptographic, "no disprove possible")
}

// ConnectorD is assert_final's n-of-n-owned disprove/take_2 feed output.
type ConnectorD struct {
	Network *chaincfg.Params
	NOfNKey *btcec.PublicKey
}

func (c *ConnectorD) Address() (*btcutil.AddressTaproot, error) {
	return keyPathOnlyAddress(c.Network, c.NOfNKey)
}

// ConnectorE is one member of the e1/e2 family: assert_initial outputs
// feeding assert_commit_1 (family e1) or assert_commit_2 (family e2), each
// carrying the Winternitz commitment for one intermediate value.
type ConnectorE struct {
	Network        *chaincfg.Params
	NOfNKey        *btcec.PublicKey
	MessageId      commitment.MessageId
	CommitmentKeys CommitmentView
}

func NewConnectorE(net *chaincfg.Params, nOfNKey *btcec.PublicKey,
	id commitment.MessageId, pub commitment.PublicSet) *ConnectorE {

	return &ConnectorE{
		Network:        net,
		NOfNKey:        nOfNKey,
		MessageId:      id,
		CommitmentKeys: newCommitmentView(pub, id),
	}
}

func (c *ConnectorE) Address() (*btcutil.AddressTaproot, error) {
	return keyPathOnlyAddress(c.Network, c.NOfNKey)
}

// ConnectorF is one member of the f1/f2 family: assert_commit_{1,2}'s
// n-of-n-owned output feeding assert_final.
type ConnectorF struct {
	Network *chaincfg.Params
	NOfNKey *btcec.PublicKey
}

func (c *ConnectorF) Address() (*btcutil.AddressTaproot, error) {
	return keyPathOnlyAddress(c.Network, c.NOfNKey)
}
