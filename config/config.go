// Package config defines the embedder-supplied parameters that the graph
// state machine needs but does not hard-code: network selection, chain
// client endpoints, key material paths, and the two placeholder values the
// source left as open questions (design note "Placeholder values").
//
// The struct uses jessevdk/go-flags tags even though this module exposes no
// CLI binary of its own, so an embedding daemon can compose it into its own
// flags.Parser without redeclaring field metadata.
package config

import (
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/btcutil"
)

// Config holds every ambient parameter the peg-out graph package needs from
// its embedder.
type Config struct {
	Network string `long:"network" description:"Bitcoin network to operate on" choice:"mainnet" choice:"testnet" choice:"signet" choice:"regtest" default:"testnet"`

	ChainClientEndpoint string `long:"chainclient" description:"REST or RPC endpoint of the AsyncClient implementation backing chain queries"`

	OperatorKeyPath string `long:"operatorkey" description:"path to the operator's extended private key"`

	NOfNKeyPath string `long:"nofnkey" description:"path to this participant's share of the n-of-n key material"`

	// CrowdfundingInputAmount is the amount reserved, in satoshis, for
	// each external crowdfunding input spent by the challenge
	// transaction. The source hard-coded 1 BTC (see design note
	// "Placeholder values"); this module accepts it as a parameter
	// instead.
	CrowdfundingInputAmount btcutil.Amount `long:"crowdfundinginputamount" description:"reserved amount per external challenge crowdfunding input, in satoshis" default:"100000000"`

	// DisproveScriptIndex is a taproot leaf index within connector C,
	// passed to ConnectorC.GenerateDisproveWitness as its
	// defaultScriptIndex argument; that function does not use it to pick
	// a leaf. The source hard-coded 1; this module accepts it as a
	// parameter.
	DisproveScriptIndex int `long:"disprovescriptindex" description:"default taproot leaf index within connector C for disprove witnesses" default:"1"`

	// MaxBroadcastAttempts bounds the poll loop in ActionExecutor's
	// broadcast step (design §4.6 step 4).
	MaxBroadcastAttempts int `long:"maxbroadcastattempts" description:"number of tx_status polls before a broadcast is considered failed" default:"10"`

	LogFile  string `long:"logfile" description:"file to write rotated logs to"`
	LogLevel string `long:"loglevel" description:"logging level {trace, debug, info, warn, error, critical}" default:"info"`
}

// ChainParams resolves the configured network name to the corresponding
// btcd chain parameters.
func (c *Config) ChainParams() (*chaincfg.Params, error) {
	switch c.Network {
	case "mainnet":
		return &chaincfg.MainNetParams, nil
	case "testnet":
		return &chaincfg.TestNet3Params, nil
	case "signet":
		return &chaincfg.SigNetParams, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	default:
		return nil, &UnknownNetworkError{Network: c.Network}
	}
}

// UnknownNetworkError is returned when Config.Network does not name one of
// the four supported chain parameter sets.
type UnknownNetworkError struct {
	Network string
}

func (e *UnknownNetworkError) Error() string {
	return "unknown network: " + e.Network
}

// Default returns a Config populated with the same defaults go-flags would
// apply, for callers that construct a Config programmatically instead of
// via flag parsing (e.g. tests).
func Default() *Config {
	return &Config{
		Network:                 "testnet",
		CrowdfundingInputAmount: 100_000_000,
		DisproveScriptIndex:     1,
		MaxBroadcastAttempts:    10,
		LogLevel:                "info",
	}
}
