package aws_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	awsclient "github.com/cyphera/cyphera-agent/internal/client/aws"
	"github.com/cyphera/cyphera-agent/internal/logger"
	"github.com/cyphera/cyphera-agent/internal/types/business"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.InitLogger("test")
}

type fakeSecrets struct {
	values map[string]string
}

func (f *fakeSecrets) GetSecretValue(_ context.Context, in *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	v, ok := f.values[awssdk.ToString(in.SecretId)]
	if !ok {
		return nil, errors.New("ResourceNotFoundException")
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: awssdk.String(v)}, nil
}

func TestSecretsManagerClient_GetSecretString(t *testing.T) {
	client := awsclient.NewSecretsManagerClientWithAPI(&fakeSecrets{values: map[string]string{
		"arn:aws:secretsmanager:us-east-1:1:secret:jwt": "from-secrets-manager",
	}})
	ctx := context.Background()

	t.Setenv("AUTH_JWT_SECRET_ARN", "arn:aws:secretsmanager:us-east-1:1:secret:jwt")
	t.Setenv("AUTH_JWT_SECRET", "from-env")
	v, err := client.GetSecretString(ctx, "AUTH_JWT_SECRET_ARN", "AUTH_JWT_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "from-secrets-manager", v)

	t.Setenv("AUTH_JWT_SECRET_ARN", "arn:aws:secretsmanager:us-east-1:1:secret:missing")
	v, err = client.GetSecretString(ctx, "AUTH_JWT_SECRET_ARN", "AUTH_JWT_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "from-env", v)

	t.Setenv("AUTH_JWT_SECRET", "")
	_, err = client.GetSecretString(ctx, "AUTH_JWT_SECRET_ARN", "AUTH_JWT_SECRET")
	assert.Error(t, err)
}

type fakeSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (f *fakeSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: awssdk.String("m-1")}, nil
}

func TestActivityQueue_Emit(t *testing.T) {
	api := &fakeSQS{}
	queue := awsclient.NewActivityQueueWithAPI(api, "https://sqs.us-east-1.amazonaws.com/1/activity")
	record := business.ActivityRecord{
		ExecutionID: uuid.New(),
		GrantID:     uuid.New(),
		Status:      business.ExecutionStatusFailed,
		AmountIn:    "30",
		AmountOut:   "0",
	}

	require.NoError(t, queue.Emit(context.Background(), record))
	require.Len(t, api.inputs, 1)
	assert.Equal(t, "https://sqs.us-east-1.amazonaws.com/1/activity", awssdk.ToString(api.inputs[0].QueueUrl))
	assert.Equal(t, "FAILED", awssdk.ToString(api.inputs[0].MessageAttributes["status"].StringValue))

	var decoded business.ActivityRecord
	require.NoError(t, json.Unmarshal([]byte(awssdk.ToString(api.inputs[0].MessageBody)), &decoded))
	assert.Equal(t, record.GrantID, decoded.GrantID)

	api.err = errors.New("throttled")
	assert.ErrorContains(t, queue.Emit(context.Background(), record), "throttled")
}
