package redrain

import "github.com/teenjuna/redrain/retry"

// RetryPolicy is the policy interface accepted by [WithPolicy]. See
// [retry.Policy] for the contract and the provided implementations.
type RetryPolicy = retry.Policy
