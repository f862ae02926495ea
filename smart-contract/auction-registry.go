package auction

import (
	"encoding/json"
	"fmt"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

const auctionKeyType = "auction"

// auctionStateKey builds the world state key for the auction record of one asset
func auctionStateKey(ctx contractapi.TransactionContextInterface, collection string, tokenID string) (string, error) {
	key, err := ctx.GetStub().CreateCompositeKey(auctionKeyType, []string{collection, tokenID})
	if err != nil {
		return "", fmt.Errorf("could not create auction key for %s %s: %v", collection, tokenID, err)
	}
	return key, nil
}

// lookupAuction retrieves the live auction record for the given asset, or nil if there is none
func lookupAuction(ctx contractapi.TransactionContextInterface, collection string, tokenID string) (*Auction, error) {
	key, errKey := auctionStateKey(ctx, collection, tokenID)
	if errKey != nil {
		return nil, errKey
	}
	auctionBin, errGetState := ctx.GetStub().GetState(key)
	if errGetState != nil {
		return nil, fmt.Errorf("could not read auction %s %s: %v", collection, tokenID, errGetState)
	}
	if auctionBin == nil {
		return nil, nil
	}
	var auction Auction
	err := json.Unmarshal(auctionBin, &auction)
	if err != nil {
		return nil, err
	}
	return &auction, nil
}

// putAuction saves the given auction record in the contract world state
func putAuction(ctx contractapi.TransactionContextInterface, auction *Auction) error {
	key, errKey := auctionStateKey(ctx, auction.Collection, auction.TokenID)
	if errKey != nil {
		return errKey
	}
	auctionBin, err := json.Marshal(auction)
	if err != nil {
		return err
	}
	return ctx.GetStub().PutState(key, auctionBin)
}

// registerAuction saves a new auction record, enforcing at most one live
// auction per asset. Only the create transition calls this.
func registerAuction(ctx contractapi.TransactionContextInterface, auction *Auction) error {
	existing, err := lookupAuction(ctx, auction.Collection, auction.TokenID)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("asset %s %s: %w", auction.Collection, auction.TokenID, ErrAuctionAlreadyActive)
	}
	return putAuction(ctx, auction)
}

// removeAuction deletes the auction record for the given asset. Deleting an
// absent record is a no-op, so terminal transitions can call it unconditionally.
func removeAuction(ctx contractapi.TransactionContextInterface, collection string, tokenID string) error {
	key, errKey := auctionStateKey(ctx, collection, tokenID)
	if errKey != nil {
		return errKey
	}
	return ctx.GetStub().DelState(key)
}

// listAuctions returns every live auction record
func listAuctions(ctx contractapi.TransactionContextInterface) ([]*Auction, error) {
	iterator, err := ctx.GetStub().GetStateByPartialCompositeKey(auctionKeyType, []string{})
	if err != nil {
		return nil, fmt.Errorf("could not query live auctions: %v", err)
	}
	defer iterator.Close()

	auctions := []*Auction{}
	for iterator.HasNext() {
		result, errNext := iterator.Next()
		if errNext != nil {
			return nil, errNext
		}
		var auction Auction
		errUnmarshal := json.Unmarshal(result.Value, &auction)
		if errUnmarshal != nil {
			return nil, errUnmarshal
		}
		auctions = append(auctions, &auction)
	}
	return auctions, nil
}
