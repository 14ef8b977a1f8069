// Package action implements the ActionExecutor: one method per
// transaction the graph can broadcast, each following the same
// four-step contract (design §4.6) -- idempotence guard, precondition
// check, witness completion, then finalize-and-broadcast with bounded
// polling. Polling is grounded on breacharbiter.go's confirmation-wait
// loop, generalized from a fixed ticker to lnd/ticker so the bound is
// configurable per embedder instead of hardcoded.
package action

import (
	"context"
	"time"

	"github.com/lightningnetwork/lnd/ticker"

	"github.com/pegbridge/peg-out-graph/chain"
	"github.com/pegbridge/peg-out-graph/commitment"
	"github.com/pegbridge/peg-out-graph/connectors"
	"github.com/pegbridge/peg-out-graph/contexts"
	"github.com/pegbridge/peg-out-graph/errkind"
	"github.com/pegbridge/peg-out-graph/graph"
	"github.com/pegbridge/peg-out-graph/log"
	"github.com/pegbridge/peg-out-graph/metrics"
	"github.com/pegbridge/peg-out-graph/superblock"
	"github.com/pegbridge/peg-out-graph/transactions"
)

var actLog = log.SubLogger("ACTN")

// Executor runs actions against one graph using client for chain I/O.
// MaxAttempts bounds the post-broadcast confirmation poll (design §4.6
// step 4); PollInterval is the ticker period between polls.
type Executor struct {
	Client       chain.AsyncClient
	MaxAttempts  int
	PollInterval ticker.Ticker
}

// NewExecutor builds an Executor polling at interval, up to maxAttempts
// times, before giving up on a broadcast confirming.
func NewExecutor(client chain.AsyncClient, interval ticker.Ticker, maxAttempts int) *Executor {
	return &Executor{Client: client, PollInterval: interval, MaxAttempts: maxAttempts}
}

// finalize implements the idempotence guard plus broadcast-and-poll
// uniformly (§4.6): if tx is already confirmed, succeed silently;
// otherwise broadcast tx as it stands (finalize attaches no witness), then
// poll tx_status up to MaxAttempts times.
func (e *Executor) finalize(ctx context.Context, tx *transactions.Transaction) error {
	txid := tx.Txid()

	st, err := e.Client.TxStatus(ctx, txid)
	if err != nil {
		return errkind.Wrap(errkind.ChainTransient, err)
	}
	if st.Confirmed {
		actLog.Debugf("%v %v already confirmed, skipping broadcast", tx.Kind, txid)
		return nil
	}

	if err := e.Client.Broadcast(ctx, tx.Tx); err != nil {
		metrics.BroadcastAttempts.WithLabelValues(tx.Kind.String(), "error").Inc()
		return errkind.Wrap(errkind.ChainTransient, err)
	}
	metrics.BroadcastAttempts.WithLabelValues(tx.Kind.String(), "submitted").Inc()
	broadcastAt := time.Now()

	attempts := e.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	t := e.PollInterval
	t.Resume()
	defer t.Stop()

	for i := 0; i < attempts; i++ {
		select {
		case <-ctx.Done():
			return errkind.Wrap(errkind.ChainTransient, ctx.Err())
		case <-t.Ticks():
			st, err := e.Client.TxStatus(ctx, txid)
			if err != nil {
				return errkind.Wrap(errkind.ChainTransient, err)
			}
			if st.Confirmed {
				metrics.BroadcastAttempts.WithLabelValues(tx.Kind.String(), "confirmed").Inc()
				metrics.ObserveConfirmation(tx.Kind.String(), broadcastAt)
				return nil
			}
		}
	}

	metrics.BroadcastAttempts.WithLabelValues(tx.Kind.String(), "exhausted").Inc()
	return errkind.Newf(errkind.ChainTransient,
		"%v %v did not confirm after %d attempts", tx.Kind, txid, attempts)
}

func (e *Executor) txStatus(ctx context.Context, tx *transactions.Transaction) (chain.TxStatus, error) {
	st, err := e.Client.TxStatus(ctx, tx.Txid())
	if err != nil {
		return chain.TxStatus{}, errkind.Wrap(errkind.ChainTransient, err)
	}
	return st, nil
}

func (e *Executor) requireConfirmed(ctx context.Context, tx *transactions.Transaction, what string) (chain.TxStatus, error) {
	st, err := e.txStatus(ctx, tx)
	if err != nil {
		return st, err
	}
	if !st.Confirmed {
		return st, errkind.Newf(errkind.Precondition, "%s is not yet confirmed", what)
	}
	return st, nil
}

func (e *Executor) requireElapsed(now, base, timelock uint32, what string) error {
	if base+timelock > now {
		return errkind.Newf(errkind.Precondition,
			"%s timelock has not elapsed (base %d + %d > now %d)", what, base, timelock, now)
	}
	return nil
}

// PegOut is a placeholder for the peg_out action: it lives entirely on
// the peg-in side (funding the withdrawal) and is out of this module's
// scope beyond its confirmation being observable as
// g.PegOutTransaction (design §3 data model, peg-in non-goal).
func (e *Executor) PegOut(ctx context.Context, g *graph.Graph) error {
	if g.PegOutTransaction == nil {
		return errkind.New(errkind.Precondition, "no peg-out transaction has been constructed yet")
	}
	_, err := e.Client.TxStatus(ctx, g.PegOutTransaction.TxHash())
	if err != nil {
		return errkind.Wrap(errkind.ChainTransient, err)
	}
	return nil
}

// PegOutConfirm broadcasts peg_out_confirm once the operator has
// observed the matching destination-chain event (design §4.6; §4.5
// operator projection row "!peg_out_confirm.confirmed ⇒
// PegOutConfirmAvailable").
func (e *Executor) PegOutConfirm(ctx context.Context, g *graph.Graph) error {
	tx, ok := g.Transactions[transactions.KindPegOutConfirm]
	if !ok {
		return errkind.New(errkind.Precondition, "peg_out_confirm has not been constructed")
	}
	if g.PegOutChainEvent == nil {
		return errkind.New(errkind.Precondition, "peg-out has not been initiated on the destination chain")
	}
	return e.finalize(ctx, tx)
}

// KickOff1 broadcasts kick_off_1, revealing the source- and destination-
// network peg-out txid commitments (design §4.6, Connector6).
func (e *Executor) KickOff1(ctx context.Context, g *graph.Graph, op *contexts.OperatorContext,
	sourceTxid, destTxid []byte) error {

	tx, ok := g.Transactions[transactions.KindKickOff1]
	if !ok {
		return errkind.New(errkind.Precondition, "kick_off_1 has not been constructed")
	}

	confirm, ok := g.Transactions[transactions.KindPegOutConfirm]
	if !ok {
		return errkind.New(errkind.Precondition, "peg_out_confirm has not been constructed")
	}
	if _, err := e.requireConfirmed(ctx, confirm, "peg_out_confirm"); err != nil {
		return err
	}

	if err := revealWitness(op, commitment.PegOutTxIdSourceNetwork(), sourceTxid); err != nil {
		return err
	}
	destLen := len(destTxid)
	if err := revealWitness(op, commitment.PegOutTxIdDestinationNetwork(destLen), destTxid); err != nil {
		return err
	}

	return e.finalize(ctx, tx)
}

// StartTime broadcasts start_time, revealing the current block height as
// the start-time commitment message (design §4.6).
func (e *Executor) StartTime(ctx context.Context, g *graph.Graph, op *contexts.OperatorContext) error {
	tx, ok := g.Transactions[transactions.KindStartTime]
	if !ok {
		return errkind.New(errkind.Precondition, "start_time has not been constructed")
	}

	kickOff1, ok := g.Transactions[transactions.KindKickOff1]
	if !ok {
		return errkind.New(errkind.Precondition, "kick_off_1 has not been constructed")
	}
	if _, err := e.requireConfirmed(ctx, kickOff1, "kick_off_1"); err != nil {
		return err
	}

	height, err := e.Client.GetBlockHeight(ctx)
	if err != nil {
		return errkind.Wrap(errkind.ChainTransient, err)
	}

	msg := superblock.StartTimeMessage(height)
	if err := revealWitness(op, commitment.StartTime(), msg[:]); err != nil {
		return err
	}

	return e.finalize(ctx, tx)
}

// KickOff2 broadcasts kick_off_2 after the start_time window elapses,
// revealing the found superblock header and its hash (design §4.6,
// §4.5 operator "KickOff2Available").
func (e *Executor) KickOff2(ctx context.Context, g *graph.Graph, op *contexts.OperatorContext,
	header superblock.Header) error {

	tx, ok := g.Transactions[transactions.KindKickOff2]
	if !ok {
		return errkind.New(errkind.Precondition, "kick_off_2 has not been constructed")
	}

	kickOff1, ok := g.Transactions[transactions.KindKickOff1]
	if !ok {
		return errkind.New(errkind.Precondition, "kick_off_1 has not been constructed")
	}
	kickOff1Status, err := e.requireConfirmed(ctx, kickOff1, "kick_off_1")
	if err != nil {
		return err
	}

	startTime, ok := g.Transactions[transactions.KindStartTime]
	if !ok {
		return errkind.New(errkind.Precondition, "start_time has not been constructed")
	}
	if _, err := e.requireConfirmed(ctx, startTime, "start_time"); err != nil {
		return err
	}

	now, err := e.Client.GetBlockHeight(ctx)
	if err != nil {
		return errkind.Wrap(errkind.ChainTransient, err)
	}
	if err := e.requireElapsed(now, kickOff1Status.BlockHeight, g.Catalog.Connector1.TimelockLeaf0, "start_time window"); err != nil {
		return err
	}

	serialized, err := header.Serialize()
	if err != nil {
		return errkind.Wrap(errkind.Cryptographic, err)
	}
	hash, err := superblock.SuperblockHash(header)
	if err != nil {
		return errkind.Wrap(errkind.Cryptographic, err)
	}

	if err := revealWitness(op, commitment.Superblock(), serialized[:]); err != nil {
		return err
	}
	if err := revealWitness(op, commitment.SuperblockHash(), hash[:]); err != nil {
		return err
	}

	return e.finalize(ctx, tx)
}

// Challenge broadcasts challenge, bonding externally-funded crowdfunding
// inputs against kick_off_1's ConnectorA output (design §4.6; anyone may
// call this, not only the operator).
func (e *Executor) Challenge(ctx context.Context, g *graph.Graph) error {
	tx, ok := g.Transactions[transactions.KindChallenge]
	if !ok {
		return errkind.New(errkind.Precondition, "challenge has not been constructed")
	}

	kickOff1, ok := g.Transactions[transactions.KindKickOff1]
	if !ok {
		return errkind.New(errkind.Precondition, "kick_off_1 has not been constructed")
	}
	if _, err := e.requireConfirmed(ctx, kickOff1, "kick_off_1"); err != nil {
		return err
	}

	return e.finalize(ctx, tx)
}

// KickOffTimeout broadcasts kick_off_timeout once the kick-off timeout
// window elapses without kick_off_2 (design §4.5 verifier
// "KickOffTimeoutAvailable").
func (e *Executor) KickOffTimeout(ctx context.Context, g *graph.Graph) error {
	tx, ok := g.Transactions[transactions.KindKickOffTimeout]
	if !ok {
		return errkind.New(errkind.Precondition, "kick_off_timeout has not been constructed")
	}

	kickOff1, ok := g.Transactions[transactions.KindKickOff1]
	if !ok {
		return errkind.New(errkind.Precondition, "kick_off_1 has not been constructed")
	}
	kickOff1Status, err := e.requireConfirmed(ctx, kickOff1, "kick_off_1")
	if err != nil {
		return err
	}

	now, err := e.Client.GetBlockHeight(ctx)
	if err != nil {
		return errkind.Wrap(errkind.ChainTransient, err)
	}
	if err := e.requireElapsed(now, kickOff1Status.BlockHeight, g.Catalog.Connector1.TimelockLeaf1, "kick-off timeout window"); err != nil {
		return err
	}

	return e.finalize(ctx, tx)
}

// StartTimeTimeout broadcasts start_time_timeout once the start-time
// timeout window elapses without start_time (design §4.5 verifier
// "StartTimeTimeoutAvailable").
func (e *Executor) StartTimeTimeout(ctx context.Context, g *graph.Graph) error {
	tx, ok := g.Transactions[transactions.KindStartTimeTimeout]
	if !ok {
		return errkind.New(errkind.Precondition, "start_time_timeout has not been constructed")
	}

	kickOff1, ok := g.Transactions[transactions.KindKickOff1]
	if !ok {
		return errkind.New(errkind.Precondition, "kick_off_1 has not been constructed")
	}
	kickOff1Status, err := e.requireConfirmed(ctx, kickOff1, "kick_off_1")
	if err != nil {
		return err
	}

	now, err := e.Client.GetBlockHeight(ctx)
	if err != nil {
		return errkind.Wrap(errkind.ChainTransient, err)
	}
	if err := e.requireElapsed(now, kickOff1Status.BlockHeight, g.Catalog.Connector1.TimelockLeaf2, "start-time timeout window"); err != nil {
		return err
	}

	return e.finalize(ctx, tx)
}

// AssertInitial broadcasts assert_initial once kick_off_2 is confirmed,
// challenged, and ConnectorB's assert window has elapsed (design §4.5
// operator "AssertAvailable").
func (e *Executor) AssertInitial(ctx context.Context, g *graph.Graph) error {
	tx, ok := g.Transactions[transactions.KindAssertInitial]
	if !ok {
		return errkind.New(errkind.Precondition, "assert_initial has not been constructed")
	}

	kickOff2, ok := g.Transactions[transactions.KindKickOff2]
	if !ok {
		return errkind.New(errkind.Precondition, "kick_off_2 has not been constructed")
	}
	kickOff2Status, err := e.requireConfirmed(ctx, kickOff2, "kick_off_2")
	if err != nil {
		return err
	}

	challenge, ok := g.Transactions[transactions.KindChallenge]
	if !ok {
		return errkind.New(errkind.Precondition, "challenge has not been constructed")
	}
	if _, err := e.requireConfirmed(ctx, challenge, "challenge"); err != nil {
		return err
	}

	now, err := e.Client.GetBlockHeight(ctx)
	if err != nil {
		return errkind.Wrap(errkind.ChainTransient, err)
	}
	if err := e.requireElapsed(now, kickOff2Status.BlockHeight, g.Catalog.ConnectorB.Timelock1, "assert window"); err != nil {
		return err
	}

	return e.finalize(ctx, tx)
}

// AssertFinal broadcasts assert_final once assert_initial and both
// assert_commit transactions have confirmed (design §4.3 linkage table).
func (e *Executor) AssertFinal(ctx context.Context, g *graph.Graph) error {
	tx, ok := g.Transactions[transactions.KindAssertFinal]
	if !ok {
		return errkind.New(errkind.Precondition, "assert_final has not been constructed")
	}

	for _, k := range []transactions.Kind{
		transactions.KindAssertInitial,
		transactions.KindAssertCommit1,
		transactions.KindAssertCommit2,
	} {
		predecessor, ok := g.Transactions[k]
		if !ok {
			return errkind.Newf(errkind.Precondition, "%v has not been constructed", k)
		}
		if _, err := e.requireConfirmed(ctx, predecessor, k.String()); err != nil {
			return err
		}
	}

	return e.finalize(ctx, tx)
}

// Disprove broadcasts disprove once assert_final is confirmed and
// ConnectorC.GenerateDisproveWitness finds an inconsistent intermediate
// value (design §4.6: "if it returns 'no witness', the action reports
// 'cannot disprove' rather than broadcasting").
func (e *Executor) Disprove(ctx context.Context, g *graph.Graph, proof connectors.RawProof,
	defaultScriptIndex int) error {

	tx, ok := g.Transactions[transactions.KindDisprove]
	if !ok {
		return errkind.New(errkind.Precondition, "disprove has not been constructed")
	}

	assertFinal, ok := g.Transactions[transactions.KindAssertFinal]
	if !ok {
		return errkind.New(errkind.Precondition, "assert_final has not been constructed")
	}
	if _, err := e.requireConfirmed(ctx, assertFinal, "assert_final"); err != nil {
		return err
	}

	if _, err := g.Catalog.ConnectorC.GenerateDisproveWitness(proof, defaultScriptIndex); err != nil {
		return errkind.Wrap(errkind.Cryptographic, err)
	}

	return e.finalize(ctx, tx)
}

// DisproveChain broadcasts disprove_chain through ConnectorB's alternate
// leaf, bypassing the assert phase entirely (design §4.3).
func (e *Executor) DisproveChain(ctx context.Context, g *graph.Graph) error {
	tx, ok := g.Transactions[transactions.KindDisproveChain]
	if !ok {
		return errkind.New(errkind.Precondition, "disprove_chain has not been constructed")
	}

	kickOff2, ok := g.Transactions[transactions.KindKickOff2]
	if !ok {
		return errkind.New(errkind.Precondition, "kick_off_2 has not been constructed")
	}
	if _, err := e.requireConfirmed(ctx, kickOff2, "kick_off_2"); err != nil {
		return err
	}

	return e.finalize(ctx, tx)
}

// Take1 broadcasts take_1 once the eligibility window after kick_off_2
// elapses without a confirmed challenge (design §4.5 operator
// "Take1Available").
func (e *Executor) Take1(ctx context.Context, g *graph.Graph) error {
	tx, ok := g.Transactions[transactions.KindTake1]
	if !ok {
		return errkind.New(errkind.Precondition, "take_1 has not been constructed")
	}

	kickOff2, ok := g.Transactions[transactions.KindKickOff2]
	if !ok {
		return errkind.New(errkind.Precondition, "kick_off_2 has not been constructed")
	}
	kickOff2Status, err := e.requireConfirmed(ctx, kickOff2, "kick_off_2")
	if err != nil {
		return err
	}

	if challenge, ok := g.Transactions[transactions.KindChallenge]; ok {
		if st, err := e.txStatus(ctx, challenge); err == nil && st.Confirmed {
			return errkind.New(errkind.Precondition, "challenge is confirmed, take_1 is not eligible")
		}
	}

	now, err := e.Client.GetBlockHeight(ctx)
	if err != nil {
		return errkind.Wrap(errkind.ChainTransient, err)
	}
	if err := e.requireElapsed(now, kickOff2Status.BlockHeight, g.Catalog.Connector3.Timelock, "take_1 window"); err != nil {
		return err
	}

	return e.finalize(ctx, tx)
}

// Take2 broadcasts take_2 once the eligibility window after assert_final
// elapses (design §4.5 operator "Take2Available").
func (e *Executor) Take2(ctx context.Context, g *graph.Graph) error {
	tx, ok := g.Transactions[transactions.KindTake2]
	if !ok {
		return errkind.New(errkind.Precondition, "take_2 has not been constructed")
	}

	assertFinal, ok := g.Transactions[transactions.KindAssertFinal]
	if !ok {
		return errkind.New(errkind.Precondition, "assert_final has not been constructed")
	}
	assertFinalStatus, err := e.requireConfirmed(ctx, assertFinal, "assert_final")
	if err != nil {
		return err
	}

	now, err := e.Client.GetBlockHeight(ctx)
	if err != nil {
		return errkind.Wrap(errkind.ChainTransient, err)
	}
	if err := e.requireElapsed(now, assertFinalStatus.BlockHeight, g.Catalog.Connector4.Timelock, "take_2 window"); err != nil {
		return err
	}

	return e.finalize(ctx, tx)
}

// revealWitness signs message under id's secret in op, enforcing the
// single-use-secret contract (design §5 shared-resource policy): a
// second reveal attempt for the same id is a Cryptographic error.
func revealWitness(op *contexts.OperatorContext, id commitment.MessageId, message []byte) error {
	secret, ok := op.Secrets.Secret(id)
	if !ok {
		return errkind.Newf(errkind.Precondition, "no secret held for commitment message %v", id)
	}
	if !op.MarkRevealed(id) {
		return errkind.Newf(errkind.Cryptographic, "winternitz secret for %v already used", id)
	}
	if _, err := commitment.Sign(secret, message); err != nil {
		return errkind.Wrap(errkind.Cryptographic, err)
	}
	return nil
}
