package chain

import (
	"context"
	"time"

	"github.com/lightningnetwork/lnd/healthcheck"
)

// NewLivenessCheck builds an lnd/healthcheck.Observation that periodically
// confirms the wrapped AsyncClient can still answer GetBlockHeight, so an
// embedding daemon can wire the graph's chain dependency into its own
// liveness monitor instead of discovering a stuck client only when an
// action's broadcast poll times out.
func NewLivenessCheck(client AsyncClient, interval, timeout time.Duration,
	backoff time.Duration, retries int) *healthcheck.Observation {

	check := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		_, err := client.GetBlockHeight(ctx)
		return err
	}

	return healthcheck.NewObservation(
		"chain client", check, interval, timeout, backoff, retries,
	)
}
