package auction

import (
	"bytes"
	"crypto/x509"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"golang.org/x/crypto/sha3"
)

const commitKeyType = "bidcommit"

// Sealed bids let a bidder hide their amount until they choose to reveal.
// A commitment binds the bidder's certificate, the amount and a salt; the
// reveal recomputes it and, on a match, runs the standard bid acceptance.
// Both commit and reveal must land before the deadline.

func commitStateKey(ctx contractapi.TransactionContextInterface, collection string, tokenID string, bidder string) (string, error) {
	key, err := ctx.GetStub().CreateCompositeKey(commitKeyType, []string{collection, tokenID, bidder})
	if err != nil {
		return "", fmt.Errorf("could not create commitment key for %s %s: %v", collection, tokenID, err)
	}
	return key, nil
}

// hashBid hashes a bid
// It takes a random salt and the client's ID (X.509 certificate) into account
func hashBid(clientCert *x509.Certificate, amount uint64, salt []byte) ([]byte, error) {
	shake := sha3.NewShake256()
	amountBytes := [8]byte{}
	binary.BigEndian.PutUint64(amountBytes[:], amount)
	for _, data := range [][]byte{clientCert.Raw, amountBytes[:], salt} {
		_, errShakeWrite := shake.Write(data)
		if errShakeWrite != nil {
			return nil, fmt.Errorf("failed to write data to SHAKE: %v", errShakeWrite)
		}
	}
	hash := make([]byte, 64)
	_, errShakeRead := shake.Read(hash)
	if errShakeRead != nil {
		return nil, fmt.Errorf("failed to read data from SHAKE: %v", errShakeRead)
	}
	return hash, nil
}

// CommitBid stores a hidden bid commitment for the submitting client.
// Committing again before revealing replaces the previous commitment.
func (s *SmartContract) CommitBid(ctx contractapi.TransactionContextInterface, collection string, tokenID string, commitHex string) error {

	commit, errDecode := hex.DecodeString(commitHex)
	if errDecode != nil {
		return fmt.Errorf("could not decode commitment: %v", errDecode)
	}
	// the commitment should be a 512 bit long hash
	if len(commit) != 64 {
		return fmt.Errorf("commitment is not 512 bit long")
	}

	bidder, errClientID := submittingClientID(ctx)
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
	if now >= auction.Deadline {
		return fmt.Errorf("asset %s %s: %w", collection, tokenID, ErrAuctionExpired)
	}

	sealed := SealedBidCommit{
		Collection: collection,
		TokenID:    tokenID,
		Bidder:     bidder,
		Commit:     commit,
	}
	sealedBin, errMarshal := json.Marshal(&sealed)
	if errMarshal != nil {
		return errMarshal
	}
	key, errKey := commitStateKey(ctx, collection, tokenID, bidder)
	if errKey != nil {
		return errKey
	}
	return ctx.GetStub().PutState(key, sealedBin)
}

// RevealBid opens the submitting client's sealed bid. On a matching
// commitment the bid goes through the same acceptance path as an open Bid,
// with all of its failure modes.
func (s *SmartContract) RevealBid(ctx contractapi.TransactionContextInterface, collection string, tokenID string, amount uint64, saltHex string) error {

	salt, errSaltDecode := hex.DecodeString(saltHex)
	if errSaltDecode != nil {
		return fmt.Errorf("could not decode salt: %v", errSaltDecode)
	}
	if len(salt) < 64 {
		return fmt.Errorf("salt should be at least 64 bytes long")
	}

	bidder, errClientID := submittingClientID(ctx)
	if errClientID != nil {
		return fmt.Errorf("failed to get client identity: %v", errClientID)
	}

	clientCert, errCert := submittingClientCertificate(ctx)
	if errCert != nil {
		return errCert
	}

	now, errNow := txTime(ctx)
	if errNow != nil {
		return errNow
	}

	key, errKey := commitStateKey(ctx, collection, tokenID, bidder)
	if errKey != nil {
		return errKey
	}
	sealedBin, errGetState := ctx.GetStub().GetState(key)
	if errGetState != nil {
		return fmt.Errorf("could not read commitment of %s: %v", bidder, errGetState)
	}
	if sealedBin == nil {
		return fmt.Errorf("no sealed bid committed for %s %s: %w", collection, tokenID, ErrCommitMismatch)
	}
	var sealed SealedBidCommit
	errUnmarshal := json.Unmarshal(sealedBin, &sealed)
	if errUnmarshal != nil {
		return errUnmarshal
	}

	bidHash, errHashBid := hashBid(clientCert, amount, salt)
	if errHashBid != nil {
		return errHashBid
	}
	if !bytes.Equal(sealed.Commit, bidHash) {
		return fmt.Errorf("sealed bid for %s %s: %w", collection, tokenID, ErrCommitMismatch)
	}

	// the commitment is spent whether or not the bid is accepted
	errDel := ctx.GetStub().DelState(key)
	if errDel != nil {
		return fmt.Errorf("could not clear commitment of %s: %v", bidder, errDel)
	}

	return s.placeBid(ctx, collection, tokenID, bidder, amount, now)
}
