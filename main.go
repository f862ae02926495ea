/*
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"log"
	"os"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"

	auction "github.com/hyperledger/fabric-samples/auction/nft-english-auction/chaincode-go/smart-contract"
)

func envOr(name string, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func main() {
	escrowAccount := os.Getenv("AUCTION_ESCROW_ACCOUNT")
	if escrowAccount == "" {
		log.Panicf("AUCTION_ESCROW_ACCOUNT must be set to the escrow holder account")
	}
	coinChaincode := envOr("AUCTION_COIN_CHAINCODE", "token_erc20")
	allowSelfOutbid := os.Getenv("AUCTION_ALLOW_SELF_OUTBID") == "true"

	contract := auction.NewSmartContract(
		auction.NewTokenCustodian(escrowAccount),
		auction.NewCoinAgent(coinChaincode, escrowAccount),
		allowSelfOutbid,
	)

	chaincode, err := contractapi.NewChaincode(contract)
	if err != nil {
		log.Panicf("error creating auction chaincode: %v", err)
	}

	if err := chaincode.Start(); err != nil {
		log.Panicf("error starting auction chaincode: %v", err)
	}
}
