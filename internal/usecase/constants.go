package usecase

import "time"

const (
	// DefaultLockTimeout bounds how long a transfer waits for its account locks.
	DefaultLockTimeout = 5 * time.Second

	// FailureRecordTimeout bounds the detached write that records a FAILED transaction.
	FailureRecordTimeout = 5 * time.Second

	// DefaultHistoryLimit caps history listings when the caller gives no limit.
	DefaultHistoryLimit = 100
)

// Lock key prefixes.
const (
	accountLockPrefix   = "account:"
	referenceLockPrefix = "reference:"
	reversalLockPrefix  = "reversal:"
)

func accountLockKey(id string) string { return accountLockPrefix + id }

func referenceLockKey(ref string) string { return referenceLockPrefix + ref }

func reversalLockKey(id string) string { return reversalLockPrefix + id }
