package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"deptinbox/backend/internal/domain"
	"deptinbox/backend/internal/storage"
)

var _ storage.MessageGateway = (*Store)(nil)
var _ storage.Migrator = (*Store)(nil)

// dynamodbAPI Store 用到的 DynamoDB 操作，*dynamodb.Client 满足该接口
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// Store 以 id 为主键把留言存在单张 DynamoDB 表中
type Store struct {
	api       dynamodbAPI
	tableName string
	newID     func() string
}

// New 创建指定表上的 Store
func New(api dynamodbAPI, tableName string) (*Store, error) {
	if api == nil {
		return nil, errors.New("dynamodb: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("dynamodb: table name must not be empty")
	}
	return &Store{api: api, tableName: tableName, newID: uuid.NewString}, nil
}

// Migrate 表不存在时按需计费建表
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.api.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(s.tableName),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("id"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("id"), KeyType: types.KeyTypeHash},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	var inUse *types.ResourceInUseException
	if err != nil && !errors.As(err, &inUse) {
		return fmt.Errorf("dynamodb: create table: %w", err)
	}
	return nil
}

// Ping 通过 DescribeTable 确认表可达
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.api.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.tableName)})
	if err != nil {
		return fmt.Errorf("dynamodb: describe table: %w", err)
	}
	return nil
}

// Insert 生成新 id 并写入条目
func (s *Store) Insert(ctx context.Context, message *domain.Message) (storage.InsertResult, error) {
	id := s.newID()
	_, err := s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                messageItem(id, message),
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return storage.InsertResult{}, fmt.Errorf("dynamodb: put item: %w", err)
	}
	return storage.InsertResult{Acknowledged: true, ID: id}, nil
}

// Find 全表扫描，结果按创建时间倒序
func (s *Store) Find(ctx context.Context, opts storage.FindOptions) ([]domain.Message, error) {
	in := &dynamodb.ScanInput{TableName: aws.String(s.tableName)}
	if opts.Status != nil {
		in.FilterExpression = aws.String("#s = :s")
		in.ExpressionAttributeNames = map[string]string{"#s": "status"}
		in.ExpressionAttributeValues = map[string]types.AttributeValue{
			":s": &types.AttributeValueMemberS{Value: string(*opts.Status)},
		}
	}

	messages := make([]domain.Message, 0)
	for {
		out, err := s.api.Scan(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("dynamodb: scan: %w", err)
		}
		for _, item := range out.Items {
			msg, err := itemToMessage(item)
			if err != nil {
				return nil, fmt.Errorf("dynamodb: scan unmarshal: %w", err)
			}
			messages = append(messages, msg)
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		in.ExclusiveStartKey = out.LastEvaluatedKey
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.After(messages[j].CreatedAt)
	})
	return messages, nil
}

// UpdateOne 更新 status 和 updatedAt，条目不存在时匹配数为 0
func (s *Store) UpdateOne(ctx context.Context, id string, update storage.StatusUpdate) (storage.UpdateResult, error) {
	_, err := s.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.tableName),
		Key:                 itemKey(id),
		UpdateExpression:    aws.String("SET #s = :s, updatedAt = :u"),
		ConditionExpression: aws.String("attribute_exists(id)"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":s": &types.AttributeValueMemberS{Value: string(update.Status)},
			":u": &types.AttributeValueMemberS{Value: formatTime(update.UpdatedAt)},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return storage.UpdateResult{}, nil
		}
		return storage.UpdateResult{}, fmt.Errorf("dynamodb: update item: %w", err)
	}
	return storage.UpdateResult{MatchedCount: 1}, nil
}

// DeleteOne 删除条目并返回是否确有删除
func (s *Store) DeleteOne(ctx context.Context, id string) (storage.DeleteResult, error) {
	out, err := s.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(s.tableName),
		Key:          itemKey(id),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return storage.DeleteResult{}, fmt.Errorf("dynamodb: delete item: %w", err)
	}
	if out == nil || len(out.Attributes) == 0 {
		return storage.DeleteResult{}, nil
	}
	return storage.DeleteResult{DeletedCount: 1}, nil
}

// Close 无操作，SDK 客户端没有需要释放的连接
func (s *Store) Close(context.Context) error {
	return nil
}

func itemKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func messageItem(id string, m *domain.Message) map[string]types.AttributeValue {
	item := map[string]types.AttributeValue{
		"id":        &types.AttributeValueMemberS{Value: id},
		"name":      &types.AttributeValueMemberS{Value: m.Name},
		"email":     &types.AttributeValueMemberS{Value: m.Email},
		"subject":   &types.AttributeValueMemberS{Value: m.Subject},
		"message":   &types.AttributeValueMemberS{Value: m.Body},
		"status":    &types.AttributeValueMemberS{Value: string(m.Status)},
		"createdAt": &types.AttributeValueMemberS{Value: formatTime(m.CreatedAt)},
	}
	if m.Phone != "" {
		item["phone"] = &types.AttributeValueMemberS{Value: m.Phone}
	}
	if m.UpdatedAt != nil {
		item["updatedAt"] = &types.AttributeValueMemberS{Value: formatTime(*m.UpdatedAt)}
	}
	return item
}

func itemToMessage(item map[string]types.AttributeValue) (domain.Message, error) {
	id, err := strAttr(item, "id")
	if err != nil {
		return domain.Message{}, err
	}
	created, err := timeAttr(item, "createdAt")
	if err != nil {
		return domain.Message{}, err
	}
	name, _ := strAttr(item, "name")
	email, _ := strAttr(item, "email")
	phone, _ := strAttr(item, "phone")
	subject, _ := strAttr(item, "subject")
	body, _ := strAttr(item, "message")
	status, _ := strAttr(item, "status")

	msg := domain.Message{
		ID:        id,
		Name:      name,
		Email:     email,
		Phone:     phone,
		Subject:   subject,
		Body:      body,
		Status:    domain.Status(status),
		CreatedAt: created,
	}
	if _, ok := item["updatedAt"]; ok {
		updated, err := timeAttr(item, "updatedAt")
		if err != nil {
			return domain.Message{}, err
		}
		msg.UpdatedAt = &updated
	}
	return msg, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("dynamodb: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("dynamodb: attribute %q is not a string", key)
	}
	return s.Value, nil
}

func timeAttr(item map[string]types.AttributeValue, key string) (time.Time, error) {
	raw, err := strAttr(item, key)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("dynamodb: parse attribute %q: %w", key, err)
	}
	return t.UTC(), nil
}
