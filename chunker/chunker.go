// Package chunker models the external circuit analyzer the design treats
// as an injected function (design note "Commitment message enumeration"):
// it enumerates the Groth16 circuit's intermediate values and carries the
// disprove witness data extracted from a submitted proof.
//
// Backed by consensys/gnark's Groth16 types per the domain-stack wiring,
// since the disprove protocol's cryptographic core (circuit verification)
// is an explicit non-goal consumed as a library.
package chunker

import (
	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"

	"github.com/pegbridge/peg-out-graph/commitment"
)

// Assigner enumerates the ordered (name, byte_length) pairs of every
// intermediate value the disprove circuit exposes. Concrete circuits
// (compiled with gnark) implement this by walking their R1CS wire
// assignment; this package depends only on the shape.
type Assigner interface {
	// IntermediateVariables returns the deterministic, ordered sequence
	// of intermediate values a circuit of this shape commits to.
	IntermediateVariables() []commitment.IntermediateVariable
}

// IntermediateVariablesFunc adapts an Assigner to
// commitment.IntermediateVariablesFunc.
func IntermediateVariablesFunc(a Assigner) commitment.IntermediateVariablesFunc {
	return a.IntermediateVariables
}

// ValueReveal is one intermediate value an operator has committed to and
// later reveals inside a disprove attempt, together with the Winternitz
// signature proving the reveal matches the committed key.
type ValueReveal struct {
	Name      string
	Value     []byte
	Signature commitment.Signature
}

// Proof wraps a submitted Groth16 proof, its verifying key, and the set
// of intermediate-value reveals extracted from the witness, implementing
// connectors.RawProof.
type Proof struct {
	VerifyingKey groth16.VerifyingKey
	Proof        groth16.Proof
	CurveID      ecc.ID

	reveals map[string]ValueReveal
}

// NewProof builds a Proof from its cryptographic material and the
// intermediate-value reveals an operator published alongside it.
func NewProof(vk groth16.VerifyingKey, proof groth16.Proof, curve ecc.ID,
	reveals []ValueReveal) *Proof {

	byName := make(map[string]ValueReveal, len(reveals))
	for _, r := range reveals {
		byName[r.Name] = r
	}
	return &Proof{VerifyingKey: vk, Proof: proof, CurveID: curve, reveals: byName}
}

// IntermediateValue implements connectors.RawProof.
func (p *Proof) IntermediateValue(name string) ([]byte, commitment.Signature, bool) {
	r, ok := p.reveals[name]
	if !ok {
		return nil, nil, false
	}
	return r.Value, r.Signature, true
}
