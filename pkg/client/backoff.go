package client

import (
	"github.com/cenkalti/backoff/v4"
)

// BackoffCfg is a hotcfg describing an exponential backoff. BackOff is a shared instance for a single
// caller; NewBackOff builds an independent one per use.
type BackoffCfg struct {
	backoff.ExponentialBackOff `mapstructure:",squash"`
	MaxRetries                 uint64
	backoff.BackOff
}

func (b *BackoffCfg) OnUpdate(_, new *BackoffCfg) {
	new.BackOff = new.NewBackOff()
}

// NewBackOff returns a fresh backoff built from the configured fields, falling back to the library defaults
// for zero values.
func (b *BackoffCfg) NewBackOff() backoff.BackOff {
	expBackoff := backoff.NewExponentialBackOff()
	if b.InitialInterval != 0 {
		expBackoff.InitialInterval = b.InitialInterval
	}
	if b.RandomizationFactor != 0 {
		expBackoff.RandomizationFactor = b.RandomizationFactor
	}
	if b.Multiplier != 0 {
		expBackoff.Multiplier = b.Multiplier
	}
	if b.MaxInterval != 0 {
		expBackoff.MaxInterval = b.MaxInterval
	}
	if b.MaxElapsedTime != 0 {
		expBackoff.MaxElapsedTime = b.MaxElapsedTime
	}
	expBackoff.Reset()
	if b.MaxRetries != 0 {
		return backoff.WithMaxRetries(expBackoff, b.MaxRetries)
	}
	return expBackoff
}

func (b *BackoffCfg) Retry(o backoff.Operation) error {
	return backoff.Retry(o, b.BackOff)
}

func (b *BackoffCfg) RetryNotify(o backoff.Operation, n backoff.Notify) error {
	return backoff.RetryNotify(o, b.BackOff, n)
}
