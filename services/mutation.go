package services

import (
	"context"
	"errors"
	"time"

	"github.com/HSouheill/catalog_backend/common"
	"github.com/HSouheill/catalog_backend/repositories"
	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

// Step is one write of a multi-document mutation. A step may run more than
// once, so it must be safe to repeat: either idempotent or, like a version
// bump, monotonic.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// RetryPolicy bounds the retries of a single step.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxElapsed      time.Duration
}

// MutationRunner executes multi-document mutations. With a transactional
// store every step runs inside one transaction. Otherwise steps run in order
// and each is retried until it succeeds, so a crash or transient failure
// between steps is repaired before the call returns.
type MutationRunner struct {
	tx     repositories.Transactor
	policy RetryPolicy
	log    logrus.FieldLogger
}

func NewMutationRunner(tx repositories.Transactor, policy RetryPolicy, log logrus.FieldLogger) *MutationRunner {
	if tx == nil {
		tx = repositories.NoTransactions{}
	}
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.InitialInterval <= 0 {
		policy.InitialInterval = 50 * time.Millisecond
	}
	return &MutationRunner{tx: tx, policy: policy, log: log}
}

func (m *MutationRunner) Run(ctx context.Context, op string, steps ...Step) error {
	if m.tx.SupportsTransactions() {
		return m.tx.WithTransaction(ctx, func(ctx context.Context) error {
			for _, s := range steps {
				if err := s.Run(ctx); err != nil {
					return err
				}
			}
			return nil
		})
	}

	for _, s := range steps {
		if err := m.retry(ctx, op, s); err != nil {
			return err
		}
	}
	return nil
}

func (m *MutationRunner) retry(ctx context.Context, op string, s Step) error {
	attempt := 0
	operation := func() error {
		attempt++
		err := s.Run(ctx)
		if err == nil {
			return nil
		}
		if permanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = m.policy.InitialInterval
	if m.policy.MaxElapsed > 0 {
		eb.MaxElapsedTime = m.policy.MaxElapsed
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(m.policy.MaxAttempts-1)), ctx)

	err := backoff.RetryNotify(operation, policy, func(err error, wait time.Duration) {
		m.log.WithFields(logrus.Fields{
			"operation": op,
			"step":      s.Name,
			"attempt":   attempt,
			"wait":      wait.String(),
		}).WithError(err).Warn("mutation step failed, retrying")
	})
	if err != nil {
		m.log.WithFields(logrus.Fields{
			"operation": op,
			"step":      s.Name,
			"attempts":  attempt,
		}).WithError(err).Error("mutation step gave up")
	}
	return err
}

// permanent reports errors that a retry cannot fix.
func permanent(err error) bool {
	if errors.Is(err, repositories.ErrDuplicate) || errors.Is(err, repositories.ErrNotFound) {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var e *common.Error
	return errors.As(err, &e) && e.Kind != common.KindInternal
}
