package delegation_server

import (
	"context"
	"fmt"
	"time"

	"github.com/cyphera/cyphera-agent/internal/logger"
	"github.com/cyphera/cyphera-agent/internal/types/business"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	submitExecutionMethod    = "/delegation.DelegationService/SubmitExecution"
	getExecutionStatusMethod = "/delegation.DelegationService/GetExecutionStatus"
	healthCheckTimeout       = 10 * time.Second
)

// DelegationClient submits delegated executions to the relay service over gRPC.
// Messages are exchanged as google.protobuf.Struct.
type DelegationClient struct {
	conn       *grpc.ClientConn
	rpcTimeout time.Duration
	logger     *zap.Logger
}

type DelegationClientConfig struct {
	DelegationGRPCAddr string
	RPCTimeout         time.Duration
	UseLocalMode       bool
	// DialOptions are appended to the defaults.
	DialOptions []grpc.DialOption
}

// NewDelegationClient creates a new client for the delegation service.
func NewDelegationClient(config DelegationClientConfig) (*DelegationClient, error) {
	grpcServerAddr := config.DelegationGRPCAddr
	if grpcServerAddr == "" {
		return nil, fmt.Errorf("delegation gRPC address is required")
	}

	timeout := config.RPCTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	var creds grpc.DialOption
	if config.UseLocalMode {
		creds = grpc.WithTransportCredentials(insecure.NewCredentials())
	} else {
		creds = grpc.WithTransportCredentials(credentials.NewClientTLSFromCert(nil, ""))
	}

	dialOpts := []grpc.DialOption{
		creds,
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(4*1024*1024),
			grpc.MaxCallSendMsgSize(4*1024*1024),
		),
	}
	dialOpts = append(dialOpts, config.DialOptions...)

	target := grpcServerAddr
	if config.UseLocalMode {
		// Bypass DNS resolution for local development
		target = fmt.Sprintf("passthrough:///%s", grpcServerAddr)
	}
	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to delegation gRPC server: %w", err)
	}

	return &DelegationClient{
		conn:       conn,
		rpcTimeout: timeout,
		logger:     logger.ForComponent(logger.ComponentRelay),
	}, nil
}

// Submit sends the call payload with the owner's authorization proof. The
// execution id is the idempotency key and can be polled as the reference.
func (c *DelegationClient) Submit(ctx context.Context, req business.SubmitRequest) (*business.SubmitReceipt, error) {
	if err := validateSubmitRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", business.ErrRelayRejected, err)
	}

	in, err := encodeSubmitRequest(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", business.ErrRelayRejected, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.rpcTimeout)
	defer cancel()

	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, submitExecutionMethod, in, out); err != nil {
		return nil, c.classifyRPCError("submit execution", err)
	}

	receipt := &business.SubmitReceipt{
		Reference: stringField(out, "reference"),
		Status:    parseStatus(stringField(out, "status")),
		Detail:    stringField(out, "detail"),
	}
	if receipt.Reference == "" {
		receipt.Reference = req.ExecutionID.String()
	}

	c.logger.Info("Execution submitted to relay",
		zap.String("execution_id", req.ExecutionID.String()),
		zap.String("grant_id", req.GrantID.String()),
		zap.String("tx_reference", receipt.Reference),
		zap.String("status", string(receipt.Status)))
	return receipt, nil
}

// PollStatus returns the relay's view of an execution. An unknown reference
// is reported as failed: the relay never accepted it.
func (c *DelegationClient) PollStatus(ctx context.Context, reference string) (*business.RelayStatusResult, error) {
	if reference == "" {
		return nil, fmt.Errorf("reference is required")
	}

	in, err := structpb.NewStruct(map[string]interface{}{"reference": reference})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.rpcTimeout)
	defer cancel()

	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, getExecutionStatusMethod, in, out); err != nil {
		if status.Code(err) == codes.NotFound {
			return &business.RelayStatusResult{
				Reference: reference,
				Status:    business.RelayStatusFailed,
				Detail:    "execution not found by relay",
			}, nil
		}
		return nil, fmt.Errorf("failed to get execution status: %w", err)
	}

	return &business.RelayStatusResult{
		Reference:       reference,
		Status:          parseStatus(stringField(out, "status")),
		Detail:          stringField(out, "detail"),
		TransactionHash: stringField(out, "transaction_hash"),
	}, nil
}

// HealthCheck reports an error only when the relay is unreachable.
func (c *DelegationClient) HealthCheck(ctx context.Context) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	in, _ := structpb.NewStruct(map[string]interface{}{"reference": ""})
	err := c.conn.Invoke(timeoutCtx, getExecutionStatusMethod, in, new(structpb.Struct))
	if err == nil {
		return nil
	}
	// Any status other than Unavailable means the server answered.
	st, _ := status.FromError(err)
	if st.Code() == codes.Unavailable || st.Code() == codes.DeadlineExceeded {
		return fmt.Errorf("delegation server unavailable: %s", st.Message())
	}
	return nil
}

// Close closes the gRPC connection.
func (c *DelegationClient) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// classifyRPCError wraps definitive rejections with ErrRelayRejected. Any
// other failure leaves the outcome unknown.
func (c *DelegationClient) classifyRPCError(op string, err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	switch st.Code() {
	case codes.InvalidArgument, codes.FailedPrecondition, codes.PermissionDenied, codes.Unauthenticated:
		return fmt.Errorf("%w: %s", business.ErrRelayRejected, st.Message())
	default:
		c.logger.Warn("Relay call failed with unknown outcome",
			zap.String("operation", op),
			zap.String("code", st.Code().String()),
			zap.String("message", st.Message()))
		return fmt.Errorf("failed to %s: %s: %s", op, st.Code(), st.Message())
	}
}

func validateSubmitRequest(req business.SubmitRequest) error {
	if len(req.AuthorizationProof) == 0 {
		return fmt.Errorf("authorization proof cannot be empty")
	}
	if len(req.Payload.Calls) == 0 {
		return fmt.Errorf("payload has no calls")
	}
	if req.NetworkID == 0 {
		return fmt.Errorf("network ID cannot be zero")
	}
	return nil
}

func encodeSubmitRequest(req business.SubmitRequest) (*structpb.Struct, error) {
	calls := make([]interface{}, 0, len(req.Payload.Calls))
	for _, call := range req.Payload.Calls {
		value := "0"
		if call.Value != nil {
			value = call.Value.String()
		}
		calls = append(calls, map[string]interface{}{
			"target": call.Target.Hex(),
			"value":  value,
			"data":   hexutil.Encode(call.Data),
		})
	}

	amountOutMinimum := "0"
	if req.Payload.AmountOutMinimum != nil {
		amountOutMinimum = req.Payload.AmountOutMinimum.String()
	}

	return structpb.NewStruct(map[string]interface{}{
		"execution_id":        req.ExecutionID.String(),
		"grant_id":            req.GrantID.String(),
		"chain_id":            float64(req.NetworkID),
		"owner":               req.Owner.Hex(),
		"delegate":            req.Delegate.Hex(),
		"source_id":           req.Payload.SourceID,
		"amount_out_minimum":  amountOutMinimum,
		"calls":               calls,
		"authorization_proof": hexutil.Encode(req.AuthorizationProof),
	})
}

func stringField(s *structpb.Struct, key string) string {
	if s == nil {
		return ""
	}
	if v, ok := s.GetFields()[key]; ok {
		return v.GetStringValue()
	}
	return ""
}

func parseStatus(value string) business.RelayStatus {
	switch business.RelayStatus(value) {
	case business.RelayStatusConfirmed:
		return business.RelayStatusConfirmed
	case business.RelayStatusFailed:
		return business.RelayStatusFailed
	default:
		return business.RelayStatusPending
	}
}
