package delegation_server_test

import (
	"context"
	"errors"
	"math/big"
	"net"
	"sync"
	"testing"

	"github.com/cyphera/cyphera-agent/internal/client/delegation_server"
	"github.com/cyphera/cyphera-agent/internal/logger"
	"github.com/cyphera/cyphera-agent/internal/types/business"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

func init() {
	logger.InitLogger("test")
}

// fakeRelay implements the two relay methods over structpb.
type fakeRelay struct {
	mu        sync.Mutex
	submitted []*structpb.Struct
	submitErr error
	statuses  map[string]map[string]interface{}
}

func (f *fakeRelay) submit(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, in)
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return structpb.NewStruct(map[string]interface{}{
		"reference": "userop-" + in.GetFields()["execution_id"].GetStringValue(),
		"status":    "pending",
	})
}

func (f *fakeRelay) status(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ref := in.GetFields()["reference"].GetStringValue()
	st, ok := f.statuses[ref]
	if !ok {
		return nil, status.Error(codes.NotFound, "unknown reference")
	}
	return structpb.NewStruct(st)
}

func unaryHandler(fn func(context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(_ interface{}, ctx context.Context, dec func(interface{}) error, _ grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		return fn(ctx, in)
	}
}

func newTestClient(t *testing.T, relay *fakeRelay) *delegation_server.DelegationClient {
	t.Helper()
	listener := bufconn.Listen(1024 * 1024)
	server := grpc.NewServer()
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: "delegation.DelegationService",
		HandlerType: (*interface{})(nil),
		Methods: []grpc.MethodDesc{
			{MethodName: "SubmitExecution", Handler: unaryHandler(relay.submit)},
			{MethodName: "GetExecutionStatus", Handler: unaryHandler(relay.status)},
		},
	}, relay)
	go func() { _ = server.Serve(listener) }()
	t.Cleanup(server.Stop)

	client, err := delegation_server.NewDelegationClient(delegation_server.DelegationClientConfig{
		DelegationGRPCAddr: "bufnet",
		UseLocalMode:       true,
		DialOptions: []grpc.DialOption{
			grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
				return listener.DialContext(ctx)
			}),
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func submitRequest() business.SubmitRequest {
	approve := common.FromHex("0x095ea7b3")
	return business.SubmitRequest{
		ExecutionID: uuid.MustParse("6f1c2f7e-8d7a-4b55-9d3e-0d3b8c1f2a11"),
		GrantID:     uuid.New(),
		NetworkID:   8453,
		Owner:       common.HexToAddress("0x1111111111111111111111111111111111111111"),
		Delegate:    common.HexToAddress("0x2222222222222222222222222222222222222222"),
		Payload: business.CallPayload{
			NetworkID:        8453,
			SourceID:         "uniswap_v3",
			AmountOutMinimum: big.NewInt(995),
			Calls: []business.Call{
				{Target: common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"), Value: big.NewInt(0), Data: approve},
			},
		},
		AuthorizationProof: []byte{0xde, 0xad},
	}
}

func TestDelegationClient_Submit(t *testing.T) {
	relay := &fakeRelay{}
	client := newTestClient(t, relay)

	receipt, err := client.Submit(context.Background(), submitRequest())
	require.NoError(t, err)
	assert.Equal(t, "userop-6f1c2f7e-8d7a-4b55-9d3e-0d3b8c1f2a11", receipt.Reference)
	assert.Equal(t, business.RelayStatusPending, receipt.Status)

	require.Len(t, relay.submitted, 1)
	fields := relay.submitted[0].GetFields()
	assert.Equal(t, float64(8453), fields["chain_id"].GetNumberValue())
	assert.Equal(t, "0xdead", fields["authorization_proof"].GetStringValue())
	assert.Equal(t, "995", fields["amount_out_minimum"].GetStringValue())
	calls := fields["calls"].GetListValue().GetValues()
	require.Len(t, calls, 1)
	assert.Equal(t, "0x095ea7b3", calls[0].GetStructValue().GetFields()["data"].GetStringValue())
}

func TestDelegationClient_SubmitErrorClassification(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantRejected bool
	}{
		{name: "invalid argument", err: status.Error(codes.InvalidArgument, "bad signature"), wantRejected: true},
		{name: "failed precondition", err: status.Error(codes.FailedPrecondition, "delegation disabled"), wantRejected: true},
		{name: "unavailable", err: status.Error(codes.Unavailable, "connection reset"), wantRejected: false},
		{name: "internal", err: status.Error(codes.Internal, "bundler crashed"), wantRejected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, &fakeRelay{submitErr: tt.err})
			_, err := client.Submit(context.Background(), submitRequest())
			require.Error(t, err)
			assert.Equal(t, tt.wantRejected, errors.Is(err, business.ErrRelayRejected))
		})
	}

	client := newTestClient(t, &fakeRelay{})
	req := submitRequest()
	req.AuthorizationProof = nil
	_, err := client.Submit(context.Background(), req)
	assert.ErrorIs(t, err, business.ErrRelayRejected)
}

func TestDelegationClient_PollStatus(t *testing.T) {
	relay := &fakeRelay{statuses: map[string]map[string]interface{}{
		"userop-1": {"status": "confirmed", "transaction_hash": "0xabc"},
		"userop-2": {"status": "failed", "detail": "execution reverted"},
		"userop-3": {"status": "queued"},
	}}
	client := newTestClient(t, relay)
	ctx := context.Background()

	res, err := client.PollStatus(ctx, "userop-1")
	require.NoError(t, err)
	assert.Equal(t, business.RelayStatusConfirmed, res.Status)
	assert.Equal(t, "0xabc", res.TransactionHash)

	res, err = client.PollStatus(ctx, "userop-2")
	require.NoError(t, err)
	assert.Equal(t, business.RelayStatusFailed, res.Status)
	assert.Equal(t, "execution reverted", res.Detail)

	res, err = client.PollStatus(ctx, "userop-3")
	require.NoError(t, err)
	assert.Equal(t, business.RelayStatusPending, res.Status)

	res, err = client.PollStatus(ctx, "never-submitted")
	require.NoError(t, err)
	assert.Equal(t, business.RelayStatusFailed, res.Status)

	assert.NoError(t, client.HealthCheck(ctx))
}
