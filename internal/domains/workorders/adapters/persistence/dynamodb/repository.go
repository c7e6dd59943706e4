package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/Apurer/go-gin-workorders/internal/domains/workorders/domain"
	"github.com/Apurer/go-gin-workorders/internal/domains/workorders/ports"
	"github.com/Apurer/go-gin-workorders/internal/shared/projection"
)

// DefaultTableName is used when WORK_ORDERS_TABLE is not configured.
const DefaultTableName = "work_orders"

// Client is the subset of the DynamoDB API the repository needs.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

var _ ports.Repository = (*Repository)(nil)

// Repository stores each work order as a single DynamoDB item keyed by id.
//
// Table requirements:
//   - PK: id (string)
type Repository struct {
	ddb       Client
	tableName string
	now       func() time.Time
}

// NewRepository wires a DynamoDB-backed repository.
func NewRepository(ddb Client, tableName string) *Repository {
	if strings.TrimSpace(tableName) == "" {
		tableName = DefaultTableName
	}
	return &Repository{ddb: ddb, tableName: tableName, now: time.Now}
}

// WithClock overrides the time source for deterministic testing.
func (r *Repository) WithClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	r.now = now
}

// Create puts the item only if no item with the same id exists.
func (r *Repository) Create(ctx context.Context, order *domain.WorkOrder) (*projection.Projection[*domain.WorkOrder], error) {
	if order == nil {
		return nil, errors.New("work order is nil")
	}
	it := toItem(order, projection.Initial(r.now().UTC()))
	av, err := attributevalue.MarshalMap(it)
	if err != nil {
		return nil, err
	}
	_, err = r.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     av,
		ConditionExpression:      aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": "id"},
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return nil, ports.ErrAlreadyExists
		}
		return nil, err
	}
	return it.toProjection()
}

// GetByID performs a strongly consistent read.
func (r *Repository) GetByID(ctx context.Context, id string) (*projection.Projection[*domain.WorkOrder], error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Item) == 0 {
		return nil, ports.ErrNotFound
	}
	var it workOrderItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, err
	}
	return it.toProjection()
}

// CompareAndSwap replaces the item guarded by a version condition.
func (r *Repository) CompareAndSwap(ctx context.Context, expectedVersion int64, order *domain.WorkOrder) (*projection.Projection[*domain.WorkOrder], error) {
	if order == nil {
		return nil, errors.New("work order is nil")
	}
	current, err := r.GetByID(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if current.Metadata.Version != expectedVersion {
		return nil, ports.ErrConcurrentModification
	}
	it := toItem(order, current.Metadata.Next(r.now().UTC()))
	av, err := attributevalue.MarshalMap(it)
	if err != nil {
		return nil, err
	}
	_, err = r.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_exists(#id) AND #version = :expected"),
		ExpressionAttributeNames: map[string]string{
			"#id":      "id",
			"#version": "version",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberN{Value: fmt.Sprint(expectedVersion)},
		},
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return nil, ports.ErrConcurrentModification
		}
		return nil, err
	}
	return it.toProjection()
}

// ListByStatus scans for orders in any of the given statuses.
func (r *Repository) ListByStatus(ctx context.Context, statuses []domain.Status) ([]*projection.Projection[*domain.WorkOrder], error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := make([]string, 0, len(statuses))
	values := make(map[string]types.AttributeValue, len(statuses))
	for i, s := range statuses {
		key := fmt.Sprintf(":s%d", i)
		placeholders = append(placeholders, key)
		values[key] = &types.AttributeValueMemberS{Value: string(s)}
	}
	return r.scan(ctx, &dynamodb.ScanInput{
		FilterExpression:          aws.String(fmt.Sprintf("#status IN (%s)", strings.Join(placeholders, ", "))),
		ExpressionAttributeNames:  map[string]string{"#status": "status"},
		ExpressionAttributeValues: values,
	})
}

// ListByAcceptor scans for orders claimed by the technician.
func (r *Repository) ListByAcceptor(ctx context.Context, technicianID string) ([]*projection.Projection[*domain.WorkOrder], error) {
	return r.scan(ctx, &dynamodb.ScanInput{
		FilterExpression:         aws.String("#accepted_by = :acceptor"),
		ExpressionAttributeNames: map[string]string{"#accepted_by": "accepted_by"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":acceptor": &types.AttributeValueMemberS{Value: technicianID},
		},
	})
}

// List scans the whole table.
func (r *Repository) List(ctx context.Context) ([]*projection.Projection[*domain.WorkOrder], error) {
	return r.scan(ctx, &dynamodb.ScanInput{})
}

// scan follows LastEvaluatedKey until the table is exhausted and returns
// results oldest first.
func (r *Repository) scan(ctx context.Context, input *dynamodb.ScanInput) ([]*projection.Projection[*domain.WorkOrder], error) {
	input.TableName = aws.String(r.tableName)
	list := []*projection.Projection[*domain.WorkOrder]{}
	for {
		out, err := r.ddb.Scan(ctx, input)
		if err != nil {
			return nil, err
		}
		for _, raw := range out.Items {
			var it workOrderItem
			if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
				return nil, err
			}
			p, err := it.toProjection()
			if err != nil {
				return nil, err
			}
			list = append(list, p)
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i].Metadata.CreatedAt, list[j].Metadata.CreatedAt
		if a.Equal(b) {
			return list[i].Entity.ID < list[j].Entity.ID
		}
		return a.Before(b)
	})
	return list, nil
}
