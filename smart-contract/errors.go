/*
SPDX-License-Identifier: Apache-2.0
*/

package auction

import "errors"

// Failure modes reported by the contract. Every failing operation wraps one
// of these sentinels, so callers can match with errors.Is while still seeing
// the contextual message. A failed transaction commits none of its writes.
var (
	ErrInvalidDuration      = errors.New("auction duration must be positive")
	ErrAuctionAlreadyActive = errors.New("an auction for this asset is already active")
	ErrAuctionNotActive     = errors.New("no active auction for this asset")
	ErrAuctionExpired       = errors.New("the auction deadline has passed")
	ErrBidTooLow            = errors.New("bid does not beat the reserve price and the leading bid")
	ErrAlreadyLeading       = errors.New("bidder already holds the leading bid")
	ErrNotSeller            = errors.New("caller is not the auction seller")
	ErrAuctionHasBids       = errors.New("auction already has at least one bid")
	ErrNothingToWithdraw    = errors.New("no refundable balance to withdraw")

	// Custody adapter failures, propagated unchanged to the caller.
	ErrNotOwner    = errors.New("asset is not owned by the expected account")
	ErrNotApproved = errors.New("asset transfer has not been approved")
	ErrNotInEscrow = errors.New("asset is not held in escrow")

	ErrCommitMismatch = errors.New("revealed bid does not match the stored commitment")
)
