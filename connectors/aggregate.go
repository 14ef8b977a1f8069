package connectors

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg"

	"github.com/pegbridge/peg-out-graph/commitment"
)

// Catalog is the full set of connectors a single peg-out graph owns
// (design §4.2). Connectors 1, 2, 6, c, and every E-family member embed
// Winternitz commitment keys and so must be stored on the graph rather
// than reconstructed on demand (§4.2).
type Catalog struct {
	Connector0 *Connector0
	Connector1 *Connector1
	Connector2 *Connector2
	Connector3 *Connector3
	Connector4 *Connector4
	Connector5 *Connector5
	Connector6 *Connector6

	ConnectorA *ConnectorA
	ConnectorB *ConnectorB
	ConnectorC *ConnectorC
	ConnectorD *ConnectorD

	// ConnectorKickOff2A is kick_off_2's output[0], a simple n-of-n
	// output spent only by take_1 alongside ConnectorB.
	ConnectorKickOff2A *ConnectorA

	// ConnectorsE1 and ConnectorsE2 are the two e-families; their sizes
	// are equal to the number of intermediate values assigned to each,
	// and determine assert_commit_1 / assert_commit_2's variable input
	// arity (§4.3 invariants).
	ConnectorsE1 []*ConnectorE
	ConnectorsE2 []*ConnectorE

	// ConnectorF1 and ConnectorF2 are assert_commit_1 and
	// assert_commit_2's single output[0], each feeding assert_final.
	ConnectorF1 *ConnectorF
	ConnectorF2 *ConnectorF
}

// Params bundles the construction-time material the catalog needs: the
// network, operator and n-of-n keys, the pre-generated commitment public
// keys, timelock parameters, and the intermediate-variable split across
// the two e/f families.
type Params struct {
	Network     *chaincfg.Params
	OperatorKey *btcec.PublicKey
	NOfNKey     *btcec.PublicKey

	CommitmentPublic commitment.PublicSet

	TimelockLeaf0 uint32
	TimelockLeaf1 uint32
	TimelockLeaf2 uint32
	Timelock3     uint32
	Timelock4     uint32
	TimelockB1    uint32

	DestinationTxIdLength int

	// E1Ids and E2Ids partition the Groth16IntermediateValue message ids
	// between assert_commit_1 and assert_commit_2's connector families;
	// the partition is a construction-time choice, not something this
	// package derives.
	E1Ids []commitment.MessageId
	E2Ids []commitment.MessageId
}

// NewCatalog builds every connector from shared construction parameters,
// deriving e1/e2 member connectors one per id and a single ConnectorF1 and
// ConnectorF2 (§4.3 assert_commit_{1,2} variable arity).
func NewCatalog(p Params) (*Catalog, error) {
	c1, err := NewConnector1(p.Network, p.OperatorKey,
		p.TimelockLeaf0, p.TimelockLeaf1, p.TimelockLeaf2, p.CommitmentPublic)
	if err != nil {
		return nil, err
	}

	c3, err := NewConnector3(p.Network, p.NOfNKey, p.Timelock3)
	if err != nil {
		return nil, err
	}

	c4, err := NewConnector4(p.Network, p.NOfNKey, p.Timelock4)
	if err != nil {
		return nil, err
	}

	cb, err := NewConnectorB(p.Network, p.NOfNKey, p.TimelockB1)
	if err != nil {
		return nil, err
	}

	cc, err := NewConnectorC(p.Network, p.NOfNKey, p.CommitmentPublic, p.E1Ids, p.E2Ids)
	if err != nil {
		return nil, err
	}

	e1 := make([]*ConnectorE, len(p.E1Ids))
	for i, id := range p.E1Ids {
		e1[i] = NewConnectorE(p.Network, p.NOfNKey, id, p.CommitmentPublic)
	}

	e2 := make([]*ConnectorE, len(p.E2Ids))
	for i, id := range p.E2Ids {
		e2[i] = NewConnectorE(p.Network, p.NOfNKey, id, p.CommitmentPublic)
	}

	return &Catalog{
		Connector0: &Connector0{Network: p.Network, NOfNKey: p.NOfNKey},
		Connector1: c1,
		Connector2: NewConnector2(p.Network, p.OperatorKey, p.CommitmentPublic),
		Connector3: c3,
		Connector4: c4,
		Connector5: &Connector5{Network: p.Network, NOfNKey: p.NOfNKey},
		Connector6: NewConnector6(p.Network, p.OperatorKey, p.CommitmentPublic, p.DestinationTxIdLength),

		ConnectorA: &ConnectorA{Network: p.Network, NOfNKey: p.NOfNKey},
		ConnectorB: cb,
		ConnectorC: cc,
		ConnectorD: &ConnectorD{Network: p.Network, NOfNKey: p.NOfNKey},

		ConnectorKickOff2A: &ConnectorA{Network: p.Network, NOfNKey: p.NOfNKey},

		ConnectorsE1: e1,
		ConnectorsE2: e2,
		ConnectorF1:  &ConnectorF{Network: p.Network, NOfNKey: p.NOfNKey},
		ConnectorF2:  &ConnectorF{Network: p.Network, NOfNKey: p.NOfNKey},
	}, nil
}
