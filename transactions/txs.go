package transactions

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"

	"github.com/pegbridge/peg-out-graph/connectors"
)

// Amounts bundles the per-output values the factory needs at
// construction time. The spec notes amounts are always read from the
// producer's output[vout].value once built (§4.3); these fields are only
// the values chosen when an output is first created.
type Amounts struct {
	Connector0      btcutil.Amount
	Connector6      btcutil.Amount
	ConnectorA      btcutil.Amount
	Connector1      btcutil.Amount
	Connector2      btcutil.Amount
	ConnectorB      btcutil.Amount
	KickOff2A       btcutil.Amount
	ConnectorD      btcutil.Amount
	ConnectorE      btcutil.Amount
	ConnectorF      btcutil.Amount
	Connector5      btcutil.Amount
	ConnectorC      btcutil.Amount
	CrowdfundingPer btcutil.Amount
	PayoutMinerFee  btcutil.Amount
}

func addr1(a *btcutil.AddressTaproot, err error) (btcutil.Address, error) {
	return a, err
}

// NewPegOutConfirm builds peg_out_confirm: external funding in, an output
// funding Connector0 (kick_off_1's main input) and one funding
// Connector6 (the txid-commitment anchor also spent by kick_off_1).
func NewPegOutConfirm(funding []Input, cat *connectors.Catalog,
	amt Amounts) (*Transaction, error) {

	c0, err := addr1(cat.Connector0.Address())
	if err != nil {
		return nil, err
	}
	c6, err := addr1(cat.Connector6.Address())
	if err != nil {
		return nil, err
	}

	out0, err := txOut(c0, amt.Connector0)
	if err != nil {
		return nil, err
	}
	out1, err := txOut(c6, amt.Connector6)
	if err != nil {
		return nil, err
	}

	tx := newUnsignedTx(funding, []*wire.TxOut{out0, out1}, 0)
	return &Transaction{Kind: KindPegOutConfirm, Tx: tx, Inputs: funding}, nil
}

// NewKickOff1 spends peg_out_confirm's two outputs, producing
// ConnectorA (output 0, challenge/take_1), Connector1 (output 1,
// superblock commitment, spent by kick_off_2/kick_off_timeout/
// start_time_timeout) and Connector2 (output 2, start_time commitment).
func NewKickOff1(pegOutConfirm0, pegOutConfirm1 Input, cat *connectors.Catalog,
	amt Amounts) (*Transaction, error) {

	inputs := []Input{pegOutConfirm0, pegOutConfirm1}

	a, err := addr1(cat.ConnectorA.Address())
	if err != nil {
		return nil, err
	}
	c1, _, err := cat.Connector1.Address()
	if err != nil {
		return nil, err
	}
	c2, err := addr1(cat.Connector2.Address())
	if err != nil {
		return nil, err
	}

	outA, err := txOut(a, amt.ConnectorA)
	if err != nil {
		return nil, err
	}
	out1, err := txOut(c1, amt.Connector1)
	if err != nil {
		return nil, err
	}
	out2, err := txOut(c2, amt.Connector2)
	if err != nil {
		return nil, err
	}

	tx := newUnsignedTx(inputs, []*wire.TxOut{outA, out1, out2}, 0)
	return &Transaction{Kind: KindKickOff1, Tx: tx, Inputs: inputs}, nil
}

// NewStartTime spends kick_off_1's Connector2 output, revealing the
// current block height as the StartTime commitment message, and returns
// the value to the operator payout address.
func NewStartTime(kickOff1Out2 Input, payout btcutil.Address) (*Transaction, error) {
	inputs := []Input{kickOff1Out2}

	out, err := txOut(payout, kickOff1Out2.Amount)
	if err != nil {
		return nil, err
	}

	tx := newUnsignedTx(inputs, []*wire.TxOut{out}, 0)
	return &Transaction{Kind: KindStartTime, Tx: tx, Inputs: inputs}, nil
}

// NewStartTimeTimeout spends both of kick_off_1's Connector2 and
// Connector1 outputs, setting each input's sequence to Connector1's
// timelock leaf 2, and pays the reclaimed value to payout.
func NewStartTimeTimeout(kickOff1Out2, kickOff1Out1 Input, cat *connectors.Catalog,
	payout btcutil.Address) (*Transaction, error) {

	inputs := []Input{kickOff1Out2, kickOff1Out1}

	total := kickOff1Out2.Amount + kickOff1Out1.Amount
	out, err := txOut(payout, total)
	if err != nil {
		return nil, err
	}

	tx := newUnsignedTx(inputs, []*wire.TxOut{out}, 0)
	withSequence(tx, 0, cat.Connector1.TimelockLeaf2)
	withSequence(tx, 1, cat.Connector1.TimelockLeaf2)
	return &Transaction{Kind: KindStartTimeTimeout, Tx: tx, Inputs: inputs}, nil
}

// NewKickOffTimeout spends kick_off_1's Connector1 output through its
// kick-off timeout leaf (timelock leaf 1), bypassing the superblock
// reveal.
func NewKickOffTimeout(kickOff1Out1 Input, cat *connectors.Catalog,
	payout btcutil.Address) (*Transaction, error) {

	inputs := []Input{kickOff1Out1}

	out, err := txOut(payout, kickOff1Out1.Amount)
	if err != nil {
		return nil, err
	}

	tx := newUnsignedTx(inputs, []*wire.TxOut{out}, 0)
	withSequence(tx, 0, cat.Connector1.TimelockLeaf1)
	return &Transaction{Kind: KindKickOffTimeout, Tx: tx, Inputs: inputs}, nil
}

// NewKickOff2 spends kick_off_1's Connector1 output through its
// start_time-elapsed leaf (timelock leaf 0), revealing the superblock
// header and hash, and produces the take_1/assert path outputs.
func NewKickOff2(kickOff1Out1 Input, cat *connectors.Catalog,
	amt Amounts) (*Transaction, error) {

	inputs := []Input{kickOff1Out1}

	a, err := addr1(cat.ConnectorKickOff2A.Address())
	if err != nil {
		return nil, err
	}
	b, _, err := cat.ConnectorB.Address()
	if err != nil {
		return nil, err
	}

	outA, err := txOut(a, amt.KickOff2A)
	if err != nil {
		return nil, err
	}
	outB, err := txOut(b, amt.ConnectorB)
	if err != nil {
		return nil, err
	}

	tx := newUnsignedTx(inputs, []*wire.TxOut{outA, outB}, 0)
	withSequence(tx, 0, cat.Connector1.TimelockLeaf0)
	return &Transaction{Kind: KindKickOff2, Tx: tx, Inputs: inputs}, nil
}

// NewChallenge spends kick_off_1's ConnectorA output plus externally
// funded crowdfunding inputs, bonding a challenge. CrowdfundingInputAmount
// per input comes from config (design note "Placeholder values").
func NewChallenge(kickOff1Out0 Input, crowdfunding []Input,
	payout btcutil.Address) (*Transaction, error) {

	inputs := append([]Input{kickOff1Out0}, crowdfunding...)

	total := kickOff1Out0.Amount
	for _, in := range crowdfunding {
		total += in.Amount
	}

	out, err := txOut(payout, total)
	if err != nil {
		return nil, err
	}

	tx := newUnsignedTx(inputs, []*wire.TxOut{out}, 0)
	return &Transaction{Kind: KindChallenge, Tx: tx, Inputs: inputs}, nil
}

// NewAssertInitial spends kick_off_2's ConnectorB output through its
// assert leaf, fanning out into one ConnectorD output and one
// ConnectorE output per e1/e2 intermediate value.
func NewAssertInitial(kickOff2Out1 Input, cat *connectors.Catalog,
	amt Amounts) (*Transaction, error) {

	inputs := []Input{kickOff2Out1}

	d, err := addr1(cat.ConnectorD.Address())
	if err != nil {
		return nil, err
	}
	outD, err := txOut(d, amt.ConnectorD)
	if err != nil {
		return nil, err
	}

	outputs := []*wire.TxOut{outD}
	for _, e := range cat.ConnectorsE1 {
		eAddr, err := addr1(e.Address())
		if err != nil {
			return nil, err
		}
		out, err := txOut(eAddr, amt.ConnectorE)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, out)
	}
	for _, e := range cat.ConnectorsE2 {
		eAddr, err := addr1(e.Address())
		if err != nil {
			return nil, err
		}
		out, err := txOut(eAddr, amt.ConnectorE)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, out)
	}

	tx := newUnsignedTx(inputs, outputs, 0)
	withSequence(tx, 0, cat.ConnectorB.Timelock1)
	return &Transaction{Kind: KindAssertInitial, Tx: tx, Inputs: inputs}, nil
}

// NewAssertCommit1 spends assert_initial's e1-family outputs
// (variable arity, §4.3 invariants), producing one ConnectorF output
// feeding assert_final.
func NewAssertCommit1(e1Inputs []Input, cat *connectors.Catalog,
	amt Amounts) (*Transaction, error) {

	f, err := addr1(cat.ConnectorF1.Address())
	if err != nil {
		return nil, err
	}
	out, err := txOut(f, amt.ConnectorF)
	if err != nil {
		return nil, err
	}

	tx := newUnsignedTx(e1Inputs, []*wire.TxOut{out}, 0)
	return &Transaction{Kind: KindAssertCommit1, Tx: tx, Inputs: e1Inputs}, nil
}

// NewAssertCommit2 spends assert_initial's e2-family outputs
// (variable arity), producing one ConnectorF output feeding
// assert_final.
func NewAssertCommit2(e2Inputs []Input, cat *connectors.Catalog,
	amt Amounts) (*Transaction, error) {

	f, err := addr1(cat.ConnectorF2.Address())
	if err != nil {
		return nil, err
	}
	out, err := txOut(f, amt.ConnectorF)
	if err != nil {
		return nil, err
	}

	tx := newUnsignedTx(e2Inputs, []*wire.TxOut{out}, 0)
	return &Transaction{Kind: KindAssertCommit2, Tx: tx, Inputs: e2Inputs}, nil
}

// NewAssertFinal spends assert_initial's ConnectorD output plus both
// assert_commit outputs, producing the shared disprove/take_2 output set:
// output 0 (Connector5), output 1 (ConnectorC, the disprove target), and
// output 2 (ConnectorD, also consumed by both disprove and take_2).
func NewAssertFinal(assertInitial0, assertCommit1_0, assertCommit2_0 Input,
	cat *connectors.Catalog, amt Amounts) (*Transaction, error) {

	inputs := []Input{assertInitial0, assertCommit1_0, assertCommit2_0}

	c5, err := addr1(cat.Connector5.Address())
	if err != nil {
		return nil, err
	}
	cc, _, err := cat.ConnectorC.Address()
	if err != nil {
		return nil, err
	}
	cd, err := addr1(cat.ConnectorD.Address())
	if err != nil {
		return nil, err
	}

	out0, err := txOut(c5, amt.Connector5)
	if err != nil {
		return nil, err
	}
	out1, err := txOut(cc, amt.ConnectorC)
	if err != nil {
		return nil, err
	}
	out2, err := txOut(cd, amt.ConnectorD)
	if err != nil {
		return nil, err
	}

	tx := newUnsignedTx(inputs, []*wire.TxOut{out0, out1, out2}, 0)
	return &Transaction{Kind: KindAssertFinal, Tx: tx, Inputs: inputs}, nil
}

// NewDisprove spends assert_final's ConnectorC and ConnectorD outputs,
// requiring a valid disprove witness from ConnectorC.
// GenerateDisproveWitness (design §4.2, §4.6).
func NewDisprove(assertFinal1, assertFinal2 Input, payout btcutil.Address) (*Transaction, error) {
	inputs := []Input{assertFinal1, assertFinal2}

	total := assertFinal1.Amount + assertFinal2.Amount
	out, err := txOut(payout, total)
	if err != nil {
		return nil, err
	}

	tx := newUnsignedTx(inputs, []*wire.TxOut{out}, 0)
	return &Transaction{Kind: KindDisprove, Tx: tx, Inputs: inputs}, nil
}

// NewDisproveChain spends kick_off_2's ConnectorB output through its
// alternate leaf (connectors.DisproveChainLeafIndex), bypassing the
// assert phase entirely.
func NewDisproveChain(kickOff2Out1 Input, payout btcutil.Address) (*Transaction, error) {
	inputs := []Input{kickOff2Out1}

	out, err := txOut(payout, kickOff2Out1.Amount)
	if err != nil {
		return nil, err
	}

	tx := newUnsignedTx(inputs, []*wire.TxOut{out}, 0)
	return &Transaction{Kind: KindDisproveChain, Tx: tx, Inputs: inputs}, nil
}

// NewTake1 reclaims the peg-in UTXO alongside kick_off_1 and kick_off_2's
// remaining outputs after the take_1 eligibility window (Connector3)
// elapses.
func NewTake1(pegInConfirm0, kickOff1Out0, kickOff2Out0, kickOff2Out1 Input,
	cat *connectors.Catalog, operatorPayout btcutil.Address) (*Transaction, error) {

	inputs := []Input{pegInConfirm0, kickOff1Out0, kickOff2Out0, kickOff2Out1}

	total := btcutil.Amount(0)
	for _, in := range inputs {
		total += in.Amount
	}

	out, err := txOut(operatorPayout, total)
	if err != nil {
		return nil, err
	}

	tx := newUnsignedTx(inputs, []*wire.TxOut{out}, 0)
	withSequence(tx, 3, cat.Connector3.Timelock)
	return &Transaction{Kind: KindTake1, Tx: tx, Inputs: inputs}, nil
}

// NewTake2 reclaims the peg-in UTXO alongside assert_final's outputs
// after the take_2 eligibility window (Connector4) elapses.
func NewTake2(pegInConfirm0, assertFinal0, assertFinal1, assertFinal2 Input,
	cat *connectors.Catalog, operatorPayout btcutil.Address) (*Transaction, error) {

	inputs := []Input{pegInConfirm0, assertFinal0, assertFinal1, assertFinal2}

	total := btcutil.Amount(0)
	for _, in := range inputs {
		total += in.Amount
	}

	out, err := txOut(operatorPayout, total)
	if err != nil {
		return nil, err
	}

	tx := newUnsignedTx(inputs, []*wire.TxOut{out}, 0)
	withSequence(tx, 1, cat.Connector4.Timelock)
	return &Transaction{Kind: KindTake2, Tx: tx, Inputs: inputs}, nil
}
