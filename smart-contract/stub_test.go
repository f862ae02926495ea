package auction

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"sort"
	"strings"
	"testing"

	"github.com/golang/protobuf/ptypes/timestamp"
	"github.com/hyperledger/fabric-chaincode-go/pkg/cid"
	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric-protos-go/ledger/queryresult"
	"github.com/hyperledger/fabric-protos-go/peer"
)

// In-memory test doubles for the transaction context, following the
// fabric-samples chaincode test architecture.

var (
	_ shim.ChaincodeStubInterface             = (*fakeStub)(nil)
	_ cid.ClientIdentity                      = (*fakeIdentity)(nil)
	_ contractapi.TransactionContextInterface = (*fakeContext)(nil)
	_ AssetCustodian                          = (*fakeCustodian)(nil)
	_ FundsAgent                              = (*fakeFunds)(nil)
)

const compositeKeySeparator = "\x00"

type chaincodeCall struct {
	name    string
	args    []string
	channel string
}

// fakeStub keeps world state in a map and lets tests control the transaction
// timestamp and the outcome of cross-chaincode invocations.
type fakeStub struct {
	state        map[string][]byte
	txTimestamp  int64
	eventName    string
	eventPayload []byte
	invoke       func(name string, args [][]byte, channel string) peer.Response
	invocations  []chaincodeCall
}

func newFakeStub() *fakeStub {
	return &fakeStub{state: map[string][]byte{}}
}

func (s *fakeStub) GetState(key string) ([]byte, error) {
	return s.state[key], nil
}

func (s *fakeStub) PutState(key string, value []byte) error {
	s.state[key] = value
	return nil
}

func (s *fakeStub) DelState(key string) error {
	delete(s.state, key)
	return nil
}

func (s *fakeStub) CreateCompositeKey(objectType string, attributes []string) (string, error) {
	key := compositeKeySeparator + objectType + compositeKeySeparator
	for _, attribute := range attributes {
		key += attribute + compositeKeySeparator
	}
	return key, nil
}

func (s *fakeStub) SplitCompositeKey(compositeKey string) (string, []string, error) {
	parts := strings.Split(strings.Trim(compositeKey, compositeKeySeparator), compositeKeySeparator)
	return parts[0], parts[1:], nil
}

func (s *fakeStub) GetStateByPartialCompositeKey(objectType string, keys []string) (shim.StateQueryIteratorInterface, error) {
	prefix, _ := s.CreateCompositeKey(objectType, keys)
	matching := []string{}
	for key := range s.state {
		if strings.HasPrefix(key, prefix) {
			matching = append(matching, key)
		}
	}
	sort.Strings(matching)
	results := make([]*queryresult.KV, 0, len(matching))
	for _, key := range matching {
		results = append(results, &queryresult.KV{Key: key, Value: s.state[key]})
	}
	return &fakeIterator{results: results}, nil
}

func (s *fakeStub) InvokeChaincode(chaincodeName string, args [][]byte, channel string) peer.Response {
	stringArgs := make([]string, 0, len(args))
	for _, arg := range args {
		stringArgs = append(stringArgs, string(arg))
	}
	s.invocations = append(s.invocations, chaincodeCall{name: chaincodeName, args: stringArgs, channel: channel})
	if s.invoke == nil {
		return shim.Success(nil)
	}
	return s.invoke(chaincodeName, args, channel)
}

func (s *fakeStub) GetTxTimestamp() (*timestamp.Timestamp, error) {
	return &timestamp.Timestamp{Seconds: s.txTimestamp}, nil
}

func (s *fakeStub) SetEvent(name string, payload []byte) error {
	s.eventName = name
	s.eventPayload = payload
	return nil
}

// The remaining stub surface is not exercised by the contract.

func (s *fakeStub) GetArgs() [][]byte                            { return nil }
func (s *fakeStub) GetStringArgs() []string                      { return nil }
func (s *fakeStub) GetFunctionAndParameters() (string, []string) { return "", nil }
func (s *fakeStub) GetArgsSlice() ([]byte, error)                { return nil, nil }
func (s *fakeStub) GetTxID() string                              { return "faketx" }
func (s *fakeStub) GetChannelID() string                         { return "fakechannel" }

func (s *fakeStub) SetStateValidationParameter(key string, ep []byte) error { return nil }
func (s *fakeStub) GetStateValidationParameter(key string) ([]byte, error)  { return nil, nil }
func (s *fakeStub) GetStateByRange(startKey, endKey string) (shim.StateQueryIteratorInterface, error) {
	return &fakeIterator{}, nil
}
func (s *fakeStub) GetStateByRangeWithPagination(startKey, endKey string, pageSize int32, bookmark string) (shim.StateQueryIteratorInterface, *peer.QueryResponseMetadata, error) {
	return &fakeIterator{}, nil, nil
}
func (s *fakeStub) GetStateByPartialCompositeKeyWithPagination(objectType string, keys []string, pageSize int32, bookmark string) (shim.StateQueryIteratorInterface, *peer.QueryResponseMetadata, error) {
	return &fakeIterator{}, nil, nil
}
func (s *fakeStub) GetQueryResult(query string) (shim.StateQueryIteratorInterface, error) {
	return &fakeIterator{}, nil
}
func (s *fakeStub) GetQueryResultWithPagination(query string, pageSize int32, bookmark string) (shim.StateQueryIteratorInterface, *peer.QueryResponseMetadata, error) {
	return &fakeIterator{}, nil, nil
}
func (s *fakeStub) GetHistoryForKey(key string) (shim.HistoryQueryIteratorInterface, error) {
	return nil, nil
}
func (s *fakeStub) GetPrivateData(collection, key string) ([]byte, error)     { return nil, nil }
func (s *fakeStub) GetPrivateDataHash(collection, key string) ([]byte, error) { return nil, nil }
func (s *fakeStub) PutPrivateData(collection string, key string, value []byte) error { return nil }
func (s *fakeStub) DelPrivateData(collection, key string) error               { return nil }
func (s *fakeStub) PurgePrivateData(collection, key string) error             { return nil }
func (s *fakeStub) SetPrivateDataValidationParameter(collection, key string, ep []byte) error {
	return nil
}
func (s *fakeStub) GetPrivateDataValidationParameter(collection, key string) ([]byte, error) {
	return nil, nil
}
func (s *fakeStub) GetPrivateDataByRange(collection, startKey, endKey string) (shim.StateQueryIteratorInterface, error) {
	return &fakeIterator{}, nil
}
func (s *fakeStub) GetPrivateDataByPartialCompositeKey(collection, objectType string, keys []string) (shim.StateQueryIteratorInterface, error) {
	return &fakeIterator{}, nil
}
func (s *fakeStub) GetPrivateDataQueryResult(collection, query string) (shim.StateQueryIteratorInterface, error) {
	return &fakeIterator{}, nil
}
func (s *fakeStub) GetCreator() ([]byte, error)              { return nil, nil }
func (s *fakeStub) GetTransient() (map[string][]byte, error) { return nil, nil }
func (s *fakeStub) GetBinding() ([]byte, error)              { return nil, nil }
func (s *fakeStub) GetDecorations() map[string][]byte        { return nil }
func (s *fakeStub) GetSignedProposal() (*peer.SignedProposal, error) { return nil, nil }

type fakeIterator struct {
	results []*queryresult.KV
	next    int
}

func (it *fakeIterator) HasNext() bool {
	return it.next < len(it.results)
}

func (it *fakeIterator) Next() (*queryresult.KV, error) {
	result := it.results[it.next]
	it.next++
	return result, nil
}

func (it *fakeIterator) Close() error { return nil }

type fakeIdentity struct {
	id   string
	cert *x509.Certificate
}

func (f *fakeIdentity) GetID() (string, error)    { return f.id, nil }
func (f *fakeIdentity) GetMSPID() (string, error) { return "Org1MSP", nil }
func (f *fakeIdentity) GetAttributeValue(attrName string) (string, bool, error) {
	return "", false, nil
}
func (f *fakeIdentity) AssertAttributeValue(attrName, attrValue string) error { return nil }
func (f *fakeIdentity) GetX509Certificate() (*x509.Certificate, error)        { return f.cert, nil }

type fakeContext struct {
	stub     *fakeStub
	identity *fakeIdentity
}

func (c *fakeContext) GetStub() shim.ChaincodeStubInterface  { return c.stub }
func (c *fakeContext) GetClientIdentity() cid.ClientIdentity { return c.identity }

func contextFor(stub *fakeStub, clientID string) *fakeContext {
	return &fakeContext{stub: stub, identity: &fakeIdentity{id: clientID}}
}

func contextWithCert(stub *fakeStub, clientID string, cert *x509.Certificate) *fakeContext {
	return &fakeContext{stub: stub, identity: &fakeIdentity{id: clientID, cert: cert}}
}

// newTestCert builds a self-signed certificate so sealed bid commitments can
// be computed the way the contract does.
func newTestCert(t *testing.T, commonName string) *x509.Certificate {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("could not generate key: %v", err)
	}
	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: commonName},
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("could not create certificate: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("could not parse certificate: %v", err)
	}
	return cert
}

type custodyCall struct {
	op         string
	collection string
	tokenID    string
	account    string
}

// fakeCustodian records custody moves and can be primed to fail.
type fakeCustodian struct {
	calls      []custodyCall
	escrowErr  error
	releaseErr error
}

func (f *fakeCustodian) Escrow(ctx contractapi.TransactionContextInterface, collection string, tokenID string, from string) error {
	if f.escrowErr != nil {
		return f.escrowErr
	}
	f.calls = append(f.calls, custodyCall{op: "escrow", collection: collection, tokenID: tokenID, account: from})
	return nil
}

func (f *fakeCustodian) Release(ctx contractapi.TransactionContextInterface, collection string, tokenID string, to string) error {
	if f.releaseErr != nil {
		return f.releaseErr
	}
	f.calls = append(f.calls, custodyCall{op: "release", collection: collection, tokenID: tokenID, account: to})
	return nil
}

func (f *fakeCustodian) lastCall() custodyCall {
	if len(f.calls) == 0 {
		return custodyCall{}
	}
	return f.calls[len(f.calls)-1]
}

type fundsCall struct {
	op      string
	account string
	amount  uint64
}

// fakeFunds records value movement so tests can check conservation.
type fakeFunds struct {
	calls      []fundsCall
	collectErr error
	payErr     error
	collected  uint64
	paidOut    uint64
}

func (f *fakeFunds) Collect(ctx contractapi.TransactionContextInterface, from string, amount uint64) error {
	if f.collectErr != nil {
		return f.collectErr
	}
	f.calls = append(f.calls, fundsCall{op: "collect", account: from, amount: amount})
	f.collected += amount
	return nil
}

func (f *fakeFunds) Pay(ctx contractapi.TransactionContextInterface, to string, amount uint64) error {
	if f.payErr != nil {
		return f.payErr
	}
	f.calls = append(f.calls, fundsCall{op: "pay", account: to, amount: amount})
	f.paidOut += amount
	return nil
}

func newTestContract(allowSelfOutbid bool) (*SmartContract, *fakeStub, *fakeCustodian, *fakeFunds) {
	custodian := &fakeCustodian{}
	funds := &fakeFunds{}
	contract := NewSmartContract(custodian, funds, allowSelfOutbid)
	return contract, newFakeStub(), custodian, funds
}
