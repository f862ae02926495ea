package auction

import (
	"encoding/json"
	"fmt"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// Chaincode event names. Fabric keeps one event per transaction; each
// state-changing operation sets exactly one.
const (
	EventAuctionCreated   = "AuctionCreated"
	EventBidAccepted      = "BidAccepted"
	EventAuctionSettled   = "AuctionSettled"
	EventAuctionCancelled = "AuctionCancelled"
	EventRefundWithdrawn  = "RefundWithdrawn"
)

// setAuctionEvent publishes the auction's state under the given event name.
// Terminal transitions delete the record, so this event is where the final
// phase remains observable.
func setAuctionEvent(ctx contractapi.TransactionContextInterface, name string, auction *Auction) error {
	if auction == nil {
		return fmt.Errorf("auction cannot be nil")
	}
	event := AuctionEvent{
		Collection:    auction.Collection,
		TokenID:       auction.TokenID,
		Seller:        auction.Seller,
		Phase:         auction.Phase,
		LeadingBidder: auction.LeadingBidder,
		LeadingAmount: auction.LeadingAmount,
		Deadline:      auction.Deadline,
	}
	eventBin, err := json.Marshal(&event)
	if err != nil {
		return err
	}
	return ctx.GetStub().SetEvent(name, eventBin)
}

// setWithdrawalEvent publishes a refund payout
func setWithdrawalEvent(ctx contractapi.TransactionContextInterface, collection string, tokenID string, bidder string, amount uint64) error {
	event := WithdrawalEvent{
		Collection: collection,
		TokenID:    tokenID,
		Bidder:     bidder,
		Amount:     amount,
	}
	eventBin, err := json.Marshal(&event)
	if err != nil {
		return err
	}
	return ctx.GetStub().SetEvent(EventRefundWithdrawn, eventBin)
}
