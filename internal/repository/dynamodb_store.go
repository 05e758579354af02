package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"brief-agent/internal/domain"
)

const (
	skState           = "STATE#"
	DefaultSessionTTL = 2 * time.Hour
)

// dynamodbAPI is the minimal DynamoDB interface required by DynamoStore.
// Defined here for testability.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoStore keeps conversation sessions in a DynamoDB table. The table's
// TTL attribute is "ttl"; since DynamoDB deletes expired items lazily, reads
// also check expiry themselves.
type DynamoStore struct {
	api       dynamodbAPI
	tableName string
	ttl       time.Duration
	now       func() time.Time
}

// NewDynamoStore creates a DynamoStore. A non-positive ttl uses DefaultSessionTTL.
func NewDynamoStore(api dynamodbAPI, tableName string, ttl time.Duration) (*DynamoStore, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &DynamoStore{api: api, tableName: tableName, ttl: ttl, now: time.Now}, nil
}

// sessionPK returns the DynamoDB partition key for a session.
func sessionPK(sessionID string) string {
	return "SESSION#" + sessionID
}

// Create persists a new idle session with a fresh id.
func (c *DynamoStore) Create(ctx context.Context, host domain.HostVariant, brandID, userID string) (*domain.Session, error) {
	s := domain.NewSession(newUUID(), host, brandID, userID, c.now().UTC(), c.ttl)
	item, err := sessionItem(s)
	if err != nil {
		return nil, fmt.Errorf("repository: Create: %w", err)
	}
	_, err = c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		return nil, fmt.Errorf("repository: Create: %w", err)
	}
	return s, nil
}

// Get returns the session, or nil when it does not exist or has expired.
func (c *DynamoStore) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: sessionPK(sessionID)},
			"SK": &types.AttributeValueMemberS{Value: skState},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("repository: Get get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return nil, nil
	}
	s, err := itemToSession(out.Item)
	if err != nil {
		return nil, fmt.Errorf("repository: Get decode: %w", err)
	}
	if s.Expired(c.now()) {
		return nil, nil
	}
	return s, nil
}

// Save writes the session back and slides its expiry forward.
func (c *DynamoStore) Save(ctx context.Context, s *domain.Session) error {
	if s == nil || s.ID == "" {
		return errors.New("repository: Save: session id is required")
	}
	now := c.now().UTC()
	s.UpdatedAt = now
	s.ExpiresAt = now.Add(c.ttl)
	item, err := sessionItem(s)
	if err != nil {
		return fmt.Errorf("repository: Save: %w", err)
	}
	_, err = c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("repository: Save: %w", err)
	}
	return nil
}

func sessionItem(s *domain.Session) (map[string]types.AttributeValue, error) {
	draft, err := sonic.MarshalString(s.Draft)
	if err != nil {
		return nil, fmt.Errorf("encode draft: %w", err)
	}
	flags := make(map[string]types.AttributeValue, len(s.Flags))
	for k, v := range s.Flags {
		flags[k] = &types.AttributeValueMemberBOOL{Value: v}
	}
	item := map[string]types.AttributeValue{
		"PK":          &types.AttributeValueMemberS{Value: sessionPK(s.ID)},
		"SK":          &types.AttributeValueMemberS{Value: skState},
		"sessionId":   &types.AttributeValueMemberS{Value: s.ID},
		"host":        &types.AttributeValueMemberS{Value: string(s.Host)},
		"brandId":     &types.AttributeValueMemberS{Value: s.BrandID},
		"userId":      &types.AttributeValueMemberS{Value: s.UserID},
		"stage":       &types.AttributeValueMemberS{Value: string(s.Stage)},
		"draft":       &types.AttributeValueMemberS{Value: draft},
		"questions":   &types.AttributeValueMemberN{Value: strconv.Itoa(s.Questions)},
		"tone":        &types.AttributeValueMemberS{Value: string(s.Tone)},
		"lastIntent":  &types.AttributeValueMemberS{Value: string(s.LastIntent)},
		"pendingSlot": &types.AttributeValueMemberS{Value: string(s.PendingSlot)},
		"lastOrderId": &types.AttributeValueMemberS{Value: s.LastOrderID},
		"lastJobId":   &types.AttributeValueMemberS{Value: s.LastJobID},
		"flags":       &types.AttributeValueMemberM{Value: flags},
		"createdAt":   &types.AttributeValueMemberS{Value: s.CreatedAt.UTC().Format(time.RFC3339Nano)},
		"updatedAt":   &types.AttributeValueMemberS{Value: s.UpdatedAt.UTC().Format(time.RFC3339Nano)},
		"ttl":         &types.AttributeValueMemberN{Value: strconv.FormatInt(s.ExpiresAt.Unix(), 10)},
	}
	if s.Brief != nil {
		brief, err := sonic.MarshalString(s.Brief)
		if err != nil {
			return nil, fmt.Errorf("encode brief: %w", err)
		}
		item["brief"] = &types.AttributeValueMemberS{Value: brief}
	}
	if s.LastQueueSize != nil {
		item["lastQueueSize"] = &types.AttributeValueMemberN{Value: strconv.Itoa(*s.LastQueueSize)}
	}
	return item, nil
}

func itemToSession(item map[string]types.AttributeValue) (*domain.Session, error) {
	id, err := strAttr(item, "sessionId")
	if err != nil {
		return nil, err
	}
	ttl, err := int64Attr(item, "ttl")
	if err != nil {
		return nil, err
	}
	s := &domain.Session{
		ID:          id,
		Host:        domain.HostVariant(optStrAttr(item, "host")),
		BrandID:     optStrAttr(item, "brandId"),
		UserID:      optStrAttr(item, "userId"),
		Stage:       domain.Stage(optStrAttr(item, "stage")).Normalize(),
		Tone:        domain.ToneProfile(optStrAttr(item, "tone")),
		LastIntent:  domain.Intent(optStrAttr(item, "lastIntent")),
		PendingSlot: domain.Slot(optStrAttr(item, "pendingSlot")),
		LastOrderID: optStrAttr(item, "lastOrderId"),
		LastJobID:   optStrAttr(item, "lastJobId"),
		Flags:       map[string]bool{},
		ExpiresAt:   time.Unix(ttl, 0).UTC(),
	}
	if s.Questions, err = intAttr(item, "questions"); err != nil {
		return nil, err
	}
	if raw := optStrAttr(item, "draft"); raw != "" {
		if err := sonic.UnmarshalString(raw, &s.Draft); err != nil {
			return nil, fmt.Errorf("repository: attribute \"draft\": %w", err)
		}
	}
	if raw := optStrAttr(item, "brief"); raw != "" {
		var b domain.Brief
		if err := sonic.UnmarshalString(raw, &b); err != nil {
			return nil, fmt.Errorf("repository: attribute \"brief\": %w", err)
		}
		s.Brief = &b
	}
	if _, ok := item["lastQueueSize"]; ok {
		n, err := intAttr(item, "lastQueueSize")
		if err != nil {
			return nil, err
		}
		s.LastQueueSize = &n
	}
	if m, ok := item["flags"].(*types.AttributeValueMemberM); ok {
		for k, v := range m.Value {
			if b, ok := v.(*types.AttributeValueMemberBOOL); ok && b.Value {
				s.Flags[k] = true
			}
		}
	}
	if s.CreatedAt, err = timeAttr(item, "createdAt"); err != nil {
		return nil, err
	}
	if s.UpdatedAt, err = timeAttr(item, "updatedAt"); err != nil {
		return nil, err
	}
	return s, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}

func optStrAttr(item map[string]types.AttributeValue, key string) string {
	s, _ := strAttr(item, key) // allow empty
	return s
}

func int64Attr(item map[string]types.AttributeValue, key string) (int64, error) {
	v, ok := item[key]
	if !ok {
		return 0, fmt.Errorf("repository: missing attribute %q", key)
	}
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("repository: attribute %q is not a number", key)
	}
	parsed, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return parsed, nil
}

func intAttr(item map[string]types.AttributeValue, key string) (int, error) {
	n, err := int64Attr(item, key)
	return int(n), err
}

func timeAttr(item map[string]types.AttributeValue, key string) (time.Time, error) {
	raw := optStrAttr(item, key)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return t, nil
}

var newUUID = func() string {
	return uuid.NewString()
}
