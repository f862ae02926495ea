/*
SPDX-License-Identifier: Apache-2.0
*/

package auction

import (
	"fmt"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// This contract implements an english auction with asset escrow.
//
// Creating an auction pulls the asset into escrow; bids pull their full
// amount into the escrow account and credit the displaced leader's amount
// to the funds ledger; after the deadline anyone may settle, which hands
// the asset to the winner and the proceeds to the seller. Displaced bidders
// withdraw their refunds at their own pace.
//
// All internal state is written before any external transfer is invoked,
// and a transaction that returns an error commits nothing.
type SmartContract struct {
	contractapi.Contract
	custodian       AssetCustodian
	funds           FundsAgent
	allowSelfOutbid bool
}

// NewSmartContract wires the contract to its collaborator adapters. When
// allowSelfOutbid is set, a current leader may raise their own bid and only
// the difference over their standing amount is collected; otherwise such a
// raise is rejected.
func NewSmartContract(custodian AssetCustodian, funds FundsAgent, allowSelfOutbid bool) *SmartContract {
	return &SmartContract{
		custodian:       custodian,
		funds:           funds,
		allowSelfOutbid: allowSelfOutbid,
	}
}

/**************** AUCTION SELLER METHODS ****************/

// CreateAuction escrows the caller's asset and opens an auction for it.
// duration is in seconds from the transaction timestamp.
func (s *SmartContract) CreateAuction(ctx contractapi.TransactionContextInterface, collection string, tokenID string, reservePrice uint64, duration uint64) error {

	if duration == 0 {
		return fmt.Errorf("cannot create auction for %s %s: %w", collection, tokenID, ErrInvalidDuration)
	}

	// get ID of submitting client
	seller, errClientID := submittingClientID(ctx)
	if errClientID != nil {
		return fmt.Errorf("failed to get client identity: %v", errClientID)
	}

	now, errNow := txTime(ctx)
	if errNow != nil {
		return errNow
	}

	// check for a live auction before touching custody, so escrow is only
	// attempted for a registrable asset
	existing, errLookup := lookupAuction(ctx, collection, tokenID)
	if errLookup != nil {
		return errLookup
	}
	if existing != nil {
		return fmt.Errorf("asset %s %s: %w", collection, tokenID, ErrAuctionAlreadyActive)
	}

	errEscrow := s.custodian.Escrow(ctx, collection, tokenID, seller)
	if errEscrow != nil {
		return fmt.Errorf("could not escrow asset %s %s: %w", collection, tokenID, errEscrow)
	}

	auction := Auction{
		Collection:    collection,
		TokenID:       tokenID,
		Seller:        seller,
		ReservePrice:  reservePrice,
		Deadline:      now + int64(duration),
		Phase:         Active,
		LeadingBidder: "",
		LeadingAmount: 0,
	}

	errRegister := registerAuction(ctx, &auction)
	if errRegister != nil {
		return errRegister
	}

	return setAuctionEvent(ctx, EventAuctionCreated, &auction)
}

// Cancel returns the asset to the seller and removes the auction. Only the
// seller may cancel, only before the deadline, and only while no bid has
// been accepted; once a bid exists the bidder's funds are at stake and the
// auction has to run through settlement.
func (s *SmartContract) Cancel(ctx contractapi.TransactionContextInterface, collection string, tokenID string) error {

	caller, errClientID := submittingClientID(ctx)
	if errClientID != nil {
		return fmt.Errorf("failed to get client identity: %v", errClientID)
	}

	now, errNow := txTime(ctx)
	if errNow != nil {
		return errNow
	}

	auction, errLookup := lookupAuction(ctx, collection, tokenID)
	if errLookup != nil {
		return errLookup
	}
	if auction == nil || auction.Phase != Active {
		return fmt.Errorf("asset %s %s: %w", collection, tokenID, ErrAuctionNotActive)
	}

	if caller != auction.Seller {
		return fmt.Errorf("cannot cancel auction for %s %s: %w", collection, tokenID, ErrNotSeller)
	}
	if now >= auction.Deadline {
		// an expired auction is finalized through Settle, by anyone
		return fmt.Errorf("auction for %s %s has expired: %w", collection, tokenID, ErrAuctionNotActive)
	}
	if auction.LeadingAmount != 0 {
		return fmt.Errorf("cannot cancel auction for %s %s: %w", collection, tokenID, ErrAuctionHasBids)
	}

	auction.Phase = Cancelled
	errRemove := removeAuction(ctx, collection, tokenID)
	if errRemove != nil {
		return errRemove
	}

	errRelease := s.custodian.Release(ctx, collection, tokenID, auction.Seller)
	if errRelease != nil {
		return fmt.Errorf("could not release asset %s %s: %w", collection, tokenID, errRelease)
	}

	return setAuctionEvent(ctx, EventAuctionCancelled, auction)
}

/**************** AUCTION BIDDER METHODS ****************/

// Bid places an open bid on a live auction. The full bid amount is collected
// from the bidder; the displaced leader's amount becomes a refundable ledger
// balance.
func (s *SmartContract) Bid(ctx contractapi.TransactionContextInterface, collection string, tokenID string, amount uint64) error {

	bidder, errClientID := submittingClientID(ctx)
	if errClientID != nil {
		return fmt.Errorf("failed to get client identity: %v", errClientID)
	}

	now, errNow := txTime(ctx)
	if errNow != nil {
		return errNow
	}

	return s.placeBid(ctx, collection, tokenID, bidder, amount, now)
}

// placeBid runs bid acceptance for both open and revealed sealed bids.
// Caller identity and ambient time arrive as explicit parameters.
func (s *SmartContract) placeBid(ctx contractapi.TransactionContextInterface, collection string, tokenID string, bidder string, amount uint64, now int64) error {

	auction, errLookup := lookupAuction(ctx, collection, tokenID)
	if errLookup != nil {
		return errLookup
	}
	if auction == nil || auction.Phase != Active {
		return fmt.Errorf("asset %s %s: %w", collection, tokenID, ErrAuctionNotActive)
	}
	if now >= auction.Deadline {
		return fmt.Errorf("asset %s %s: %w", collection, tokenID, ErrAuctionExpired)
	}
	if amount < auction.ReservePrice || amount <= auction.LeadingAmount {
		return fmt.Errorf("bid of %d on %s %s: %w", amount, collection, tokenID, ErrBidTooLow)
	}

	if bidder == auction.LeadingBidder {
		if !s.allowSelfOutbid {
			return fmt.Errorf("bid of %d on %s %s: %w", amount, collection, tokenID, ErrAlreadyLeading)
		}
		// raising one's own bid collects only the difference; nothing is
		// displaced, so nothing is credited to the ledger
		delta := amount - auction.LeadingAmount
		auction.LeadingAmount = amount
		errPut := putAuction(ctx, auction)
		if errPut != nil {
			return errPut
		}
		errCollect := s.funds.Collect(ctx, bidder, delta)
		if errCollect != nil {
			return fmt.Errorf("could not collect bid deposit: %w", errCollect)
		}
		return setAuctionEvent(ctx, EventBidAccepted, auction)
	}

	// the displaced leader gets their full amount back as a ledger balance,
	// never a synchronous payout
	if auction.LeadingBidder != "" {
		errCredit := creditRefund(ctx, collection, tokenID, auction.LeadingBidder, auction.LeadingAmount)
		if errCredit != nil {
			return errCredit
		}
	}

	auction.LeadingBidder = bidder
	auction.LeadingAmount = amount
	errPut := putAuction(ctx, auction)
	if errPut != nil {
		return errPut
	}

	errCollect := s.funds.Collect(ctx, bidder, amount)
	if errCollect != nil {
		return fmt.Errorf("could not collect bid deposit: %w", errCollect)
	}

	return setAuctionEvent(ctx, EventBidAccepted, auction)
}

// Withdraw pays out the caller's entire refundable balance for one auction.
func (s *SmartContract) Withdraw(ctx contractapi.TransactionContextInterface, collection string, tokenID string) error {

	bidder, errClientID := submittingClientID(ctx)
	if errClientID != nil {
		return fmt.Errorf("failed to get client identity: %v", errClientID)
	}

	amount, errWithdraw := withdrawRefund(ctx, s.funds, collection, tokenID, bidder)
	if errWithdraw != nil {
		return errWithdraw
	}

	return setWithdrawalEvent(ctx, collection, tokenID, bidder, amount)
}

/**************** FINALIZATION ****************/

// Settle finalizes an expired auction. Anyone may call it: finalization is
// permissionless so no trusted operator or scheduler is needed. With at
// least one bid the asset goes to the leading bidder and the proceeds to
// the seller; with none the asset returns to the seller.
func (s *SmartContract) Settle(ctx contractapi.TransactionContextInterface, collection string, tokenID string) error {

	now, errNow := txTime(ctx)
	if errNow != nil {
		return errNow
	}

	auction, errLookup := lookupAuction(ctx, collection, tokenID)
	if errLookup != nil {
		return errLookup
	}
	if auction == nil || auction.Phase != Active {
		return fmt.Errorf("asset %s %s: %w", collection, tokenID, ErrAuctionNotActive)
	}
	if now < auction.Deadline {
		return fmt.Errorf("auction for %s %s is open until %d: %w", collection, tokenID, auction.Deadline, ErrAuctionNotActive)
	}

	// the record is removed before any external transfer; a second Settle
	// in a later transaction fails the lookup above
	errRemove := removeAuction(ctx, collection, tokenID)
	if errRemove != nil {
		return errRemove
	}

	if auction.LeadingAmount == 0 {
		// no bids were ever accepted: hand the asset back
		auction.Phase = Cancelled
		errRelease := s.custodian.Release(ctx, collection, tokenID, auction.Seller)
		if errRelease != nil {
			return fmt.Errorf("could not release asset %s %s: %w", collection, tokenID, errRelease)
		}
		return setAuctionEvent(ctx, EventAuctionCancelled, auction)
	}

	auction.Phase = Settled
	errRelease := s.custodian.Release(ctx, collection, tokenID, auction.LeadingBidder)
	if errRelease != nil {
		return fmt.Errorf("could not release asset %s %s: %w", collection, tokenID, errRelease)
	}

	errSweep := sweepToSeller(ctx, s.funds, auction.Seller, auction.LeadingAmount)
	if errSweep != nil {
		return fmt.Errorf("could not pay auction proceeds to the seller: %w", errSweep)
	}

	return setAuctionEvent(ctx, EventAuctionSettled, auction)
}

/**************** QUERIES ****************/

// GetAuction returns a snapshot of the live auction record for the given
// asset, or nil if there is none
func (s *SmartContract) GetAuction(ctx contractapi.TransactionContextInterface, collection string, tokenID string) (*Auction, error) {
	return lookupAuction(ctx, collection, tokenID)
}

// GetRefundBalance returns a bidder's refundable balance for one auction
func (s *SmartContract) GetRefundBalance(ctx contractapi.TransactionContextInterface, collection string, tokenID string, bidder string) (uint64, error) {
	return refundBalance(ctx, collection, tokenID, bidder)
}

// ListAuctions returns all live auction records
func (s *SmartContract) ListAuctions(ctx contractapi.TransactionContextInterface) ([]*Auction, error) {
	return listAuctions(ctx)
}
