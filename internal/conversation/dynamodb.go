package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"maitred/internal/config"
	"maitred/internal/logger"
	"maitred/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoAPI is the subset of *dynamodb.Client the repository uses.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// DynamoRepository stores one item per conversation keyed by ConversationID.
// The conversation itself is kept as a JSON attribute.
type DynamoRepository struct {
	db    DynamoAPI
	table string
	ttl   time.Duration
}

func NewDynamoRepository(db DynamoAPI, table string, ttl time.Duration) *DynamoRepository {
	return &DynamoRepository{db: db, table: table, ttl: ttl}
}

// NewDynamoClient builds a client for cfg. A configured endpoint (DynamoDB
// Local) is used with static dummy credentials.
func NewDynamoClient(ctx context.Context, cfg config.DynamoDBConfig) (*dynamodb.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.Endpoint != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{URL: cfg.Endpoint}, nil
		})
		opts = append(opts,
			awsconfig.WithEndpointResolverWithOptions(resolver),
			awsconfig.WithCredentialsProvider(credentials.StaticCredentialsProvider{
				Value: aws.Credentials{AccessKeyID: "dummy", SecretAccessKey: "dummy", SessionToken: "dummy"},
			}),
		)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return dynamodb.NewFromConfig(awsCfg), nil
}

// EnsureTable creates the table if it does not exist yet.
func (r *DynamoRepository) EnsureTable(ctx context.Context) error {
	_, err := r.db.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(r.table),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("ConversationID"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("ConversationID"), KeyType: types.KeyTypeHash},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	var inUse *types.ResourceInUseException
	if errors.As(err, &inUse) {
		logger.Debug("dynamodb table %s already exists", r.table)
		return nil
	}
	return err
}

func (r *DynamoRepository) Load(ctx context.Context, id string) (*models.Conversation, error) {
	out, err := r.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table),
		Key:            r.key(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, models.NotFoundf("conversation %s", id)
	}

	payload, ok := out.Item["Payload"].(*types.AttributeValueMemberS)
	if !ok {
		return nil, fmt.Errorf("conversation %s: missing payload", id)
	}
	var conv models.Conversation
	if err := json.Unmarshal([]byte(payload.Value), &conv); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation: %w", err)
	}
	return &conv, nil
}

func (r *DynamoRepository) Save(ctx context.Context, conv *models.Conversation) error {
	data, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}

	item := map[string]types.AttributeValue{
		"ConversationID": &types.AttributeValueMemberS{Value: conv.ID},
		"UserID":         &types.AttributeValueMemberS{Value: conv.UserID},
		"Payload":        &types.AttributeValueMemberS{Value: string(data)},
		"UpdatedAt":      &types.AttributeValueMemberS{Value: conv.UpdatedAt.Format(time.RFC3339)},
	}
	if r.ttl > 0 {
		expires := conv.UpdatedAt.Add(r.ttl).Unix()
		item["ExpiresAt"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(expires, 10)}
	}

	_, err = r.db.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(r.table), Item: item})
	if err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}
	return nil
}

func (r *DynamoRepository) Delete(ctx context.Context, id string) error {
	out, err := r.db.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(r.table),
		Key:          r.key(id),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	if len(out.Attributes) == 0 {
		return models.NotFoundf("conversation %s", id)
	}
	return nil
}

func (r *DynamoRepository) key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"ConversationID": &types.AttributeValueMemberS{Value: id},
	}
}
