/*
SPDX-License-Identifier: Apache-2.0
*/

package auction

import (
	"fmt"
	"strconv"

	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// AssetCustodian moves one non-fungible asset unit in and out of escrow.
// Failures abort the calling transaction; there are no retries.
type AssetCustodian interface {
	Escrow(ctx contractapi.TransactionContextInterface, collection string, tokenID string, from string) error
	Release(ctx contractapi.TransactionContextInterface, collection string, tokenID string, to string) error
}

// FundsAgent moves bid value between bidder accounts and the escrow account.
type FundsAgent interface {
	Collect(ctx contractapi.TransactionContextInterface, from string, amount uint64) error
	Pay(ctx contractapi.TransactionContextInterface, to string, amount uint64) error
}

// tokenCustodian drives an ERC-721 style token chaincode. The collection of
// an asset key is the name of that chaincode, which must be deployed on the
// same channel so its writes commit atomically with the auction's.
type tokenCustodian struct {
	escrowAccount string
	channel       string // empty means the caller's own channel
}

// NewTokenCustodian returns the production custody adapter. All escrowed
// assets are parked under the given account until released.
func NewTokenCustodian(escrowAccount string) AssetCustodian {
	return &tokenCustodian{escrowAccount: escrowAccount}
}

func (c *tokenCustodian) ownerOf(ctx contractapi.TransactionContextInterface, collection string, tokenID string) (string, error) {
	response := ctx.GetStub().InvokeChaincode(collection, [][]byte{[]byte("OwnerOf"), []byte(tokenID)}, c.channel)
	if response.Status != shim.OK {
		return "", fmt.Errorf("owner lookup of %s %s failed: %s", collection, tokenID, response.Message)
	}
	return string(response.Payload), nil
}

func (c *tokenCustodian) transfer(ctx contractapi.TransactionContextInterface, collection string, tokenID string, from string, to string) error {
	args := [][]byte{[]byte("TransferFrom"), []byte(from), []byte(to), []byte(tokenID)}
	response := ctx.GetStub().InvokeChaincode(collection, args, c.channel)
	if response.Status != shim.OK {
		return fmt.Errorf("transfer of %s %s was rejected: %s", collection, tokenID, response.Message)
	}
	return nil
}

// Escrow pulls the asset from the seller into the escrow account. The asset
// must exist and be held by the seller, and the transfer must have been
// approved for the escrow account beforehand.
func (c *tokenCustodian) Escrow(ctx contractapi.TransactionContextInterface, collection string, tokenID string, from string) error {
	owner, errOwner := c.ownerOf(ctx, collection, tokenID)
	if errOwner != nil {
		return fmt.Errorf("%v: %w", errOwner, ErrNotOwner)
	}
	if owner != from {
		return fmt.Errorf("asset %s %s is held by another account: %w", collection, tokenID, ErrNotOwner)
	}
	errTransfer := c.transfer(ctx, collection, tokenID, from, c.escrowAccount)
	if errTransfer != nil {
		return fmt.Errorf("%v: %w", errTransfer, ErrNotApproved)
	}
	return nil
}

// Release hands the escrowed asset to the auction's outcome recipient.
func (c *tokenCustodian) Release(ctx contractapi.TransactionContextInterface, collection string, tokenID string, to string) error {
	owner, errOwner := c.ownerOf(ctx, collection, tokenID)
	if errOwner != nil {
		return fmt.Errorf("%v: %w", errOwner, ErrNotInEscrow)
	}
	if owner != c.escrowAccount {
		return fmt.Errorf("asset %s %s left escrow: %w", collection, tokenID, ErrNotInEscrow)
	}
	return c.transfer(ctx, collection, tokenID, c.escrowAccount, to)
}

// coinAgent moves bid value through an ERC-20 style token chaincode. Deposits
// and payouts are both TransferFrom calls against the escrow account, so the
// auction chaincode must be an approved operator of that account and each
// bidder must have approved the escrow account for their deposit.
type coinAgent struct {
	chaincodeName string
	escrowAccount string
	channel       string
}

// NewCoinAgent returns the production funds agent backed by the named
// fungible token chaincode.
func NewCoinAgent(chaincodeName string, escrowAccount string) FundsAgent {
	return &coinAgent{chaincodeName: chaincodeName, escrowAccount: escrowAccount}
}

func (a *coinAgent) transferFrom(ctx contractapi.TransactionContextInterface, from string, to string, amount uint64) error {
	args := [][]byte{[]byte("TransferFrom"), []byte(from), []byte(to), []byte(strconv.FormatUint(amount, 10))}
	response := ctx.GetStub().InvokeChaincode(a.chaincodeName, args, a.channel)
	if response.Status != shim.OK {
		return fmt.Errorf("value transfer of %d from %s was rejected: %s", amount, from, response.Message)
	}
	return nil
}

func (a *coinAgent) Collect(ctx contractapi.TransactionContextInterface, from string, amount uint64) error {
	return a.transferFrom(ctx, from, a.escrowAccount, amount)
}

func (a *coinAgent) Pay(ctx contractapi.TransactionContextInterface, to string, amount uint64) error {
	return a.transferFrom(ctx, a.escrowAccount, to, amount)
}
