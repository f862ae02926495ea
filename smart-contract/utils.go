/*
SPDX-License-Identifier: Apache-2.0
*/

package auction

import (
	"crypto/x509"
	"fmt"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// submittingClientID returns the unique client ID of the transaction submitter.
// It is the caller identity threaded into every state-mutating operation.
func submittingClientID(ctx contractapi.TransactionContextInterface) (string, error) {
	clientID, err := ctx.GetClientIdentity().GetID()
	if err != nil {
		return "", fmt.Errorf("failed to read clientID: %v", err)
	}
	return clientID, nil
}

// submittingClientCertificate returns the submitter's X.509 certificate,
// needed to verify sealed bid commitments
func submittingClientCertificate(ctx contractapi.TransactionContextInterface) (*x509.Certificate, error) {
	cert, err := ctx.GetClientIdentity().GetX509Certificate()
	if err != nil {
		return nil, fmt.Errorf("failed to read client certificate: %v", err)
	}
	return cert, nil
}

// txTime returns the transaction timestamp in unix seconds. All deadline
// checks use this ambient time, sourced once at the call boundary; the
// ordering service makes it identical on every endorser.
func txTime(ctx contractapi.TransactionContextInterface) (int64, error) {
	timestamp, err := ctx.GetStub().GetTxTimestamp()
	if err != nil {
		return 0, fmt.Errorf("failed to get the transaction timestamp: %v", err)
	}
	return timestamp.Seconds, nil
}
