package commitment

import "github.com/pegbridge/peg-out-graph/errkind"

// Registry implements the CommitmentRegistry operations (design §4.1):
// generating one fresh Winternitz secret per commitment message the graph
// can reveal, and deriving the corresponding public keys for embedding in
// connector scripts.
type Registry struct {
	destinationTxIdLength int
	intermediateVars      IntermediateVariablesFunc
}

// NewRegistry builds a Registry for a destination chain whose transaction
// identifiers are destinationTxIdLength bytes long, using intermediateVars
// to enumerate the disprove circuit's Groth16 intermediate values (design
// note "Commitment message enumeration").
func NewRegistry(destinationTxIdLength int, intermediateVars IntermediateVariablesFunc) *Registry {
	return &Registry{
		destinationTxIdLength: destinationTxIdLength,
		intermediateVars:      intermediateVars,
	}
}

// MessageIds returns every commitment message id this registry manages, in
// a stable order: the fixed ids, the destination txid id, then one
// Groth16IntermediateValue id per enumerated intermediate variable.
func (r *Registry) MessageIds() []MessageId {
	ids := FixedMessageIds()
	ids = append(ids, PegOutTxIdDestinationNetwork(r.destinationTxIdLength))

	for _, v := range r.intermediateVars() {
		ids = append(ids, Groth16IntermediateValue(v.Name, v.Length))
	}
	return ids
}

// SecretSet is the result of GenerateSecrets: one single-use Winternitz
// secret per commitment message id, keyed by its stable string form.
type SecretSet map[string]Secret

// PublicSet mirrors SecretSet with the corresponding derived public keys.
type PublicSet map[string]PublicKey

// GenerateSecrets draws a fresh secret for every message id this registry
// manages. Secrets are single-use (design §4.1 contract): a caller that
// reuses one to sign two different messages leaks the underlying key.
func (r *Registry) GenerateSecrets() (SecretSet, error) {
	secrets := make(SecretSet)
	for _, id := range r.MessageIds() {
		secret, err := GenerateSecret(id.Length())
		if err != nil {
			return nil, errkind.Wrap(errkind.Cryptographic, err)
		}
		secrets[id.String()] = secret
	}
	return secrets, nil
}

// DerivePublicSet derives the public key set for a previously generated
// secret set.
func DerivePublicSet(secrets SecretSet) PublicSet {
	public := make(PublicSet, len(secrets))
	for k, s := range secrets {
		public[k] = DerivePublic(s)
	}
	return public
}

// Secret looks up the single-use secret for id, used once at signing time
// by the action executor.
func (s SecretSet) Secret(id MessageId) (Secret, bool) {
	secret, ok := s[id.String()]
	return secret, ok
}

// Public looks up the public key for id, used when constructing connector
// scripts.
func (p PublicSet) Public(id MessageId) (PublicKey, bool) {
	pub, ok := p[id.String()]
	return pub, ok
}
