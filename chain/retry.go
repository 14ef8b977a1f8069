package chain

import (
	"context"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"golang.org/x/time/rate"

	"github.com/pegbridge/peg-out-graph/errkind"
	pblog "github.com/pegbridge/peg-out-graph/log"
)

var chnLog = pblog.SubLogger("CHNT")

// RetryingClient wraps an AsyncClient, classifying its I/O errors as
// Chain-transient (design §7) and rate-limiting outbound calls so a slow or
// rate-limited backend does not get hammered by the action executor's
// broadcast poll loop.
type RetryingClient struct {
	inner   AsyncClient
	limiter *rate.Limiter
}

// NewRetryingClient wraps inner with a token-bucket limiter allowing
// ratePerSec calls per second, bursting up to burst.
func NewRetryingClient(inner AsyncClient, ratePerSec float64, burst int) *RetryingClient {
	return &RetryingClient{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), burst),
	}
}

func (c *RetryingClient) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errkind.Wrap(errkind.ChainTransient, err)
	}
	return nil
}

// TxStatus implements AsyncClient.
func (c *RetryingClient) TxStatus(ctx context.Context, txid chainhash.Hash) (TxStatus, error) {
	if err := c.wait(ctx); err != nil {
		return TxStatus{}, err
	}

	status, err := c.inner.TxStatus(ctx, txid)
	if err != nil {
		chnLog.Debugf("tx_status(%v) failed: %v", txid, err)
		return TxStatus{}, errkind.Wrap(errkind.ChainTransient, err)
	}
	return status, nil
}

// Broadcast implements AsyncClient.
func (c *RetryingClient) Broadcast(ctx context.Context, tx *wire.MsgTx) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	if err := c.inner.Broadcast(ctx, tx); err != nil {
		chnLog.Debugf("broadcast(%v) failed: %v", tx.TxHash(), err)
		return errkind.Wrap(errkind.ChainTransient, err)
	}
	return nil
}

// GetAddressUTXO implements AsyncClient.
func (c *RetryingClient) GetAddressUTXO(ctx context.Context,
	address btcutil.Address) ([]Utxo, error) {

	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	utxos, err := c.inner.GetAddressUTXO(ctx, address)
	if err != nil {
		return nil, errkind.Wrap(errkind.ChainTransient, err)
	}
	return utxos, nil
}

// GetBlockHeight implements AsyncClient.
func (c *RetryingClient) GetBlockHeight(ctx context.Context) (uint32, error) {
	if err := c.wait(ctx); err != nil {
		return 0, err
	}

	height, err := c.inner.GetBlockHeight(ctx)
	if err != nil {
		return 0, errkind.Wrap(errkind.ChainTransient, err)
	}
	return height, nil
}

var _ AsyncClient = (*RetryingClient)(nil)
