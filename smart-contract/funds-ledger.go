/*
SPDX-License-Identifier: Apache-2.0
*/

package auction

import (
	"encoding/json"
	"fmt"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

const refundKeyType = "refund"

// The funds ledger holds the refundable balance owed to each displaced bidder
// of each auction. Balances only ever grow by crediting and are paid out in
// full by a withdrawal; the entry is deleted *before* the payout call so a
// re-entrant callee finds nothing left to withdraw.

func refundStateKey(ctx contractapi.TransactionContextInterface, collection string, tokenID string, bidder string) (string, error) {
	key, err := ctx.GetStub().CreateCompositeKey(refundKeyType, []string{collection, tokenID, bidder})
	if err != nil {
		return "", fmt.Errorf("could not create refund key for %s %s: %v", collection, tokenID, err)
	}
	return key, nil
}

// refundBalance reads a bidder's current refundable balance; absent entries are zero
func refundBalance(ctx contractapi.TransactionContextInterface, collection string, tokenID string, bidder string) (uint64, error) {
	key, errKey := refundStateKey(ctx, collection, tokenID, bidder)
	if errKey != nil {
		return 0, errKey
	}
	entryBin, errGetState := ctx.GetStub().GetState(key)
	if errGetState != nil {
		return 0, fmt.Errorf("could not read refund balance of %s: %v", bidder, errGetState)
	}
	if entryBin == nil {
		return 0, nil
	}
	var entry RefundEntry
	err := json.Unmarshal(entryBin, &entry)
	if err != nil {
		return 0, err
	}
	return entry.Amount, nil
}

// creditRefund adds amount to a bidder's refundable balance. It is the only
// way value enters the ledger; valid inputs never fail beyond state errors.
func creditRefund(ctx contractapi.TransactionContextInterface, collection string, tokenID string, bidder string, amount uint64) error {
	balance, err := refundBalance(ctx, collection, tokenID, bidder)
	if err != nil {
		return err
	}
	entry := RefundEntry{
		Collection: collection,
		TokenID:    tokenID,
		Bidder:     bidder,
		Amount:     balance + amount,
	}
	entryBin, errMarshal := json.Marshal(&entry)
	if errMarshal != nil {
		return errMarshal
	}
	key, errKey := refundStateKey(ctx, collection, tokenID, bidder)
	if errKey != nil {
		return errKey
	}
	return ctx.GetStub().PutState(key, entryBin)
}

// withdrawRefund pays out the bidder's entire balance for one auction and
// zeroes it. The entry is deleted before the funds agent is invoked.
func withdrawRefund(ctx contractapi.TransactionContextInterface, funds FundsAgent, collection string, tokenID string, bidder string) (uint64, error) {
	balance, err := refundBalance(ctx, collection, tokenID, bidder)
	if err != nil {
		return 0, err
	}
	if balance == 0 {
		return 0, fmt.Errorf("bidder %s on asset %s %s: %w", bidder, collection, tokenID, ErrNothingToWithdraw)
	}

	key, errKey := refundStateKey(ctx, collection, tokenID, bidder)
	if errKey != nil {
		return 0, errKey
	}
	errDel := ctx.GetStub().DelState(key)
	if errDel != nil {
		return 0, fmt.Errorf("could not clear refund balance of %s: %v", bidder, errDel)
	}

	errPay := funds.Pay(ctx, bidder, balance)
	if errPay != nil {
		return 0, errPay
	}
	return balance, nil
}

// sweepToSeller transfers the winning amount to the seller. Only the settle
// transition calls it; the record has already been removed at that point.
func sweepToSeller(ctx contractapi.TransactionContextInterface, funds FundsAgent, seller string, amount uint64) error {
	return funds.Pay(ctx, seller, amount)
}
