/*
SPDX-License-Identifier: Apache-2.0
*/

package auction

// enum possible phases: active, settled, cancelled
type AuctionPhase int

const (
	Active    AuctionPhase = iota // Bidders can place bids until the deadline
	Settled                       // Terminal: asset went to the highest bidder, proceeds to the seller
	Cancelled                     // Terminal: asset returned to the seller (no bids, or cancelled pre-deadline)
)

// Auction is the live record for one escrowed asset.
// It is keyed in the world state by (collection, tokenId) and exists only
// while the auction is in the Active phase; terminal transitions remove it
// and the outcome survives in the chaincode event and the key's history.
type Auction struct {
	Collection    string       `json:"collection"` // name of the token chaincode holding the asset
	TokenID       string       `json:"tokenId"`
	Seller        string       `json:"seller"` // client ID of the seller who opened the auction
	ReservePrice  uint64       `json:"reservePrice"`
	Deadline      int64        `json:"deadline"` // unix seconds, from the creating transaction's timestamp
	Phase         AuctionPhase `json:"phase"`
	LeadingBidder string       `json:"leadingBidder"` // empty until the first accepted bid
	LeadingAmount uint64       `json:"leadingAmount"` // 0 means no bid yet; strictly increases per accepted bid
}

// RefundEntry is a displaced bidder's refundable balance for one auction.
// The ledger, not the bidder, holds the value until the bidder withdraws it.
type RefundEntry struct {
	Collection string `json:"collection"`
	TokenID    string `json:"tokenId"`
	Bidder     string `json:"bidder"`
	Amount     uint64 `json:"amount"`
}

// SealedBidCommit is a hidden bid commitment, stored until the bidder reveals.
type SealedBidCommit struct {
	Collection string `json:"collection"`
	TokenID    string `json:"tokenId"`
	Bidder     string `json:"bidder"`
	Commit     []byte `json:"commit"`
	/*
		Commit is the 64 byte SHAKE256 output of (clientCert, amount, salt)
		* clientCert is the X.509 client certificate in DER format
		* the amount is a big endian encoded 64 bit integer
		* salt should be at least 64 bytes long
		It can be computed using the hashBid function.
	*/
}

// Auction status information, which will be presented to the users in an event
type AuctionEvent struct {
	Collection    string       `json:"collection"`
	TokenID       string       `json:"tokenId"`
	Seller        string       `json:"seller"`
	Phase         AuctionPhase `json:"phase"`
	LeadingBidder string       `json:"leadingBidder,omitempty"`
	LeadingAmount uint64       `json:"leadingAmount"`
	Deadline      int64        `json:"deadline"`
}

// WithdrawalEvent reports a refund payout to its bidder.
type WithdrawalEvent struct {
	Collection string `json:"collection"`
	TokenID    string `json:"tokenId"`
	Bidder     string `json:"bidder"`
	Amount     uint64 `json:"amount"`
}
