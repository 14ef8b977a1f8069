// Package presign implements the PreSignedRegistry: the two-round MuSig2
// protocol state for every pre-signed transaction and input (design §4.4),
// built on github.com/btcsuite/btcd/btcec/v2/musig2.
package presign

import (
	"strconv"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/musig2"

	"github.com/pegbridge/peg-out-graph/errkind"
	"github.com/pegbridge/peg-out-graph/metrics"
	"github.com/pegbridge/peg-out-graph/transactions"
)

type pubKeyHex = [33]byte

func keyOf(pub *btcec.PublicKey) pubKeyHex {
	var k pubKeyHex
	copy(k[:], pub.SerializeCompressed())
	return k
}

// inputKey addresses one (transaction, input) slot within the registry.
type inputKey struct {
	kind  transactions.Kind
	index int
}

// Registry holds, for every pre-signed transaction and input, the
// per-signer public nonces and partial signatures (design §4.4).
type Registry struct {
	signers []*btcec.PublicKey

	nonces   map[inputKey]map[pubKeyHex]*musig2.Nonces
	partials map[inputKey]map[pubKeyHex]*musig2.PartialSignature

	// sigHash supplies the signature hash for a given (kind, index),
	// computed by the embedder from the built transaction and its
	// spent-output set (BIP-341 taproot key-path sighash). Kept as an
	// injected function so this package never needs to hold full
	// transaction bodies itself.
	sigHash func(kind transactions.Kind, index int) ([32]byte, error)

	nOfNPresigned bool
}

// NewRegistry builds an empty registry for the given n-of-n signer set.
// sigHash is called for every input slot each time VerifierSign produces a
// partial signature for it.
func NewRegistry(signers []*btcec.PublicKey,
	sigHash func(kind transactions.Kind, index int) ([32]byte, error)) *Registry {

	return &Registry{
		signers:  signers,
		nonces:   make(map[inputKey]map[pubKeyHex]*musig2.Nonces),
		partials: make(map[inputKey]map[pubKeyHex]*musig2.PartialSignature),
		sigHash:  sigHash,
	}
}

// slotsFor returns the registry slots a given pre-signed transaction
// requires: one per input, keyed by kind and index. Only the eight
// pre-signed kinds (§3 invariants) ever produce non-empty slots;
// numInputs comes from the built PreSigned value, so assert_commit_1 /
// assert_commit_2's variable arity (§4.3) is handled transparently.
func slotsFor(t transactions.PreSigned) []inputKey {
	if !t.TxKind().IsPreSigned() {
		return nil
	}
	slots := make([]inputKey, t.NumInputs())
	for i := range slots {
		slots[i] = inputKey{kind: t.TxKind(), index: i}
	}
	return slots
}

// PushVerifierNonces implements push_verifier_nonces (§4.4): for every
// pre-signed transaction and input, sample a nonce pair, publish the
// public nonce under signerKey, and return the secret nonces to the
// caller. The returned map is the signer's private state and is never
// retained by the registry.
func (r *Registry) PushVerifierNonces(signerKey *btcec.PublicKey,
	txs []transactions.PreSigned) (map[transactions.Kind]map[int]*musig2.Nonces, error) {

	secret := make(map[transactions.Kind]map[int]*musig2.Nonces)
	signer := keyOf(signerKey)

	for _, t := range txs {
		for _, slot := range slotsFor(t) {
			nonces, err := musig2.GenNonces(musig2.WithPublicKey(signerKey))
			if err != nil {
				return nil, errkind.Wrap(errkind.Cryptographic, err)
			}

			if r.nonces[slot] == nil {
				r.nonces[slot] = make(map[pubKeyHex]*musig2.Nonces)
			}
			r.nonces[slot][signer] = &musig2.Nonces{PubNonce: nonces.PubNonce}

			if secret[slot.kind] == nil {
				secret[slot.kind] = make(map[int]*musig2.Nonces)
			}
			secret[slot.kind][slot.index] = nonces
		}
	}

	return secret, nil
}

// HasAllNoncesOf reports whether slot has a public nonce from every
// declared n-of-n signer.
func (r *Registry) HasAllNoncesOf(kind transactions.Kind, index int) bool {
	slot := inputKey{kind: kind, index: index}
	for _, s := range r.signers {
		if _, ok := r.nonces[slot][keyOf(s)]; !ok {
			return false
		}
	}
	return true
}

// HasAllNonces reports whether every pre-signed transaction/input slot
// among txs has nonces from every signer.
func (r *Registry) HasAllNonces(txs []transactions.PreSigned) bool {
	for _, t := range txs {
		for _, slot := range slotsFor(t) {
			if !r.HasAllNoncesOf(slot.kind, slot.index) {
				return false
			}
		}
	}
	return true
}

// VerifierSign implements verifier_sign (§4.4). It refuses to produce a
// partial signature for any slot until public nonces from every signer
// are present (two-phase discipline, §4.4, §5 ordering guarantees), then
// aggregates the published nonces and signs against the injected sighash
// using the real secret nonce paired with this signer's key.
func (r *Registry) VerifierSign(signerKey *btcec.PrivateKey,
	secretNonces map[transactions.Kind]map[int]*musig2.Nonces,
	txs []transactions.PreSigned) error {

	pub := signerKey.PubKey()
	signer := keyOf(pub)

	for _, t := range txs {
		for _, slot := range slotsFor(t) {
			if !r.HasAllNoncesOf(slot.kind, slot.index) {
				return errkind.Newf(errkind.Protocol,
					"nonce-before-signature violation: missing a nonce for %v input %d",
					slot.kind, slot.index)
			}

			secret, ok := secretNonces[slot.kind][slot.index]
			if !ok {
				return errkind.Newf(errkind.Protocol,
					"no local secret nonce held for %v input %d", slot.kind, slot.index)
			}

			hash, err := r.sigHash(slot.kind, slot.index)
			if err != nil {
				return errkind.Wrap(errkind.ChainTransient, err)
			}

			pubNonces := make([][musig2.PubNonceSize]byte, 0, len(r.signers))
			for _, s := range r.signers {
				pubNonces = append(pubNonces, r.nonces[slot][keyOf(s)].PubNonce)
			}

			combined, err := musig2.AggregateNonces(pubNonces)
			if err != nil {
				return errkind.Wrap(errkind.Cryptographic, err)
			}

			partial, err := musig2.Sign(
				secret.SecNonce, signerKey, combined, r.signers, hash,
			)
			if err != nil {
				return errkind.Wrap(errkind.Cryptographic, err)
			}

			if r.partials[slot] == nil {
				r.partials[slot] = make(map[pubKeyHex]*musig2.PartialSignature)
			}
			r.partials[slot][signer] = partial
		}
	}

	r.maybeFinalize(txs)
	return nil
}

// HasAllSignaturesOf reports whether slot has a partial signature from
// every declared n-of-n signer.
func (r *Registry) HasAllSignaturesOf(kind transactions.Kind, index int) bool {
	slot := inputKey{kind: kind, index: index}
	for _, s := range r.signers {
		if _, ok := r.partials[slot][keyOf(s)]; !ok {
			return false
		}
	}
	return true
}

// HasAllSignatures reports whether every pre-signed slot among txs has
// signatures from every signer, implying n_of_n_presigned (§8 testable
// properties: "has_all_signatures(S) ⇒ n_of_n_presigned").
func (r *Registry) HasAllSignatures(txs []transactions.PreSigned) bool {
	for _, t := range txs {
		for _, slot := range slotsFor(t) {
			if !r.HasAllSignaturesOf(slot.kind, slot.index) {
				return false
			}
		}
	}
	return true
}

func (r *Registry) maybeFinalize(txs []transactions.PreSigned) {
	if r.nOfNPresigned {
		return
	}
	if r.HasAllSignatures(txs) {
		r.nOfNPresigned = true
		metrics.PresignCompletions.WithLabelValues(strconv.Itoa(len(r.signers))).Inc()
	}
}

// PendingCount reports how many pre-signed transactions among txs still
// have at least one input slot missing a signer's partial signature, for
// the pegout_presign_pending_txs gauge a graph publishes per id.
func (r *Registry) PendingCount(txs []transactions.PreSigned) int {
	pending := 0
	for _, t := range txs {
		for _, slot := range slotsFor(t) {
			if !r.HasAllSignaturesOf(slot.kind, slot.index) {
				pending++
				break
			}
		}
	}
	return pending
}

// NOfNPresigned reports the graph-wide completion flag, which
// transitions false to true exactly once (§3 invariants).
func (r *Registry) NOfNPresigned() bool { return r.nOfNPresigned }

// CombinedSignature returns the per-signer partial signatures held for
// slot (kind, index), in signer order, once every signer's partial
// signature is present: the first signer's partial, then the rest. It does
// not aggregate them into a final Schnorr signature.
func (r *Registry) CombinedSignature(kind transactions.Kind, index int) (*musig2.PartialSignature, []*musig2.PartialSignature, error) {
	if !r.HasAllSignaturesOf(kind, index) {
		return nil, nil, errkind.Newf(errkind.Precondition,
			"cannot combine signatures for %v input %d: missing a signer's partial signature",
			kind, index)
	}

	slot := inputKey{kind: kind, index: index}
	partials := make([]*musig2.PartialSignature, 0, len(r.signers))
	for _, s := range r.signers {
		partials = append(partials, r.partials[slot][keyOf(s)])
	}
	return partials[0], partials[1:], nil
}

// copyNonces returns a fresh, independently-mutable shallow copy of m:
// new outer and inner maps sharing the same *musig2.Nonces values.
func copyNonces(m map[inputKey]map[pubKeyHex]*musig2.Nonces) map[inputKey]map[pubKeyHex]*musig2.Nonces {
	out := make(map[inputKey]map[pubKeyHex]*musig2.Nonces, len(m))
	for slot, signers := range m {
		cp := make(map[pubKeyHex]*musig2.Nonces, len(signers))
		for k, v := range signers {
			cp[k] = v
		}
		out[slot] = cp
	}
	return out
}

// copyPartials returns a fresh, independently-mutable shallow copy of m.
func copyPartials(m map[inputKey]map[pubKeyHex]*musig2.PartialSignature) map[inputKey]map[pubKeyHex]*musig2.PartialSignature {
	out := make(map[inputKey]map[pubKeyHex]*musig2.PartialSignature, len(m))
	for slot, signers := range m {
		cp := make(map[pubKeyHex]*musig2.PartialSignature, len(signers))
		for k, v := range signers {
			cp[k] = v
		}
		out[slot] = cp
	}
	return out
}

// Merge unions other's per-signer nonce and partial-signature maps into
// r. Conflicting entries for the same (tx, input, signer) must be equal;
// otherwise the merge fails as a Protocol-violated error and neither
// registry is mutated (§4.4, §8 Byzantine merge rejection). Merge builds
// the union in scratch copies of r's maps and only swaps them into r once
// every entry from other has been checked, so a conflict discovered
// midway through leaves r exactly as it was before the call. txs is the
// graph's full set of pre-signed transactions, used to recompute
// n_of_n_presigned against the merged state (§3 "transitions false to
// true ... when all pre-sign partial signatures have been collected";
// §8 invariant has_all_signatures(S) ⇒ n_of_n_presigned, which merging
// alone -- not just a local VerifierSign call -- can newly satisfy).
func (r *Registry) Merge(other *Registry, txs []transactions.PreSigned) error {
	scratchNonces := copyNonces(r.nonces)
	scratchPartials := copyPartials(r.partials)

	for slot, signers := range other.nonces {
		for signer, nonce := range signers {
			if existing, ok := scratchNonces[slot][signer]; ok {
				if existing.PubNonce != nonce.PubNonce {
					return errkind.Newf(errkind.Protocol,
						"merge conflict: differing nonce for %v input %d signer %x",
						slot.kind, slot.index, signer)
				}
				continue
			}
			if scratchNonces[slot] == nil {
				scratchNonces[slot] = make(map[pubKeyHex]*musig2.Nonces)
			}
			scratchNonces[slot][signer] = nonce
		}
	}

	for slot, signers := range other.partials {
		for signer, partial := range signers {
			if existing, ok := scratchPartials[slot][signer]; ok {
				if existing.S.Bytes() != partial.S.Bytes() {
					return errkind.Newf(errkind.Protocol,
						"merge conflict: differing partial signature for %v input %d signer %x",
						slot.kind, slot.index, signer)
				}
				continue
			}
			if scratchPartials[slot] == nil {
				scratchPartials[slot] = make(map[pubKeyHex]*musig2.PartialSignature)
			}
			scratchPartials[slot][signer] = partial
		}
	}

	r.nonces = scratchNonces
	r.partials = scratchPartials
	r.maybeFinalize(txs)
	return nil
}
