package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"familytree-backend/application/ports"
	"familytree-backend/domain/tree"
	pkgerrors "familytree-backend/pkg/errors"
)

// batchWriteLimit is the DynamoDB BatchWriteItem cap.
const batchWriteLimit = 25

// PersonRepository implements ports.PersonRepository on DynamoDB.
type PersonRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

var _ ports.PersonRepository = (*PersonRepository)(nil)

// NewPersonRepository creates a person repository over the given table.
func NewPersonRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) *PersonRepository {
	return &PersonRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

func (r *PersonRepository) GetRoot(ctx context.Context) (*tree.Person, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexByLevel),
		KeyConditionExpression: aws.String("GSI1PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: levelKey(1)},
		},
		Limit: aws.Int32(2),
	}

	result, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("query root person", err)
	}
	if len(result.Items) == 0 {
		return nil, pkgerrors.NewNotFoundError("root person")
	}
	if len(result.Items) > 1 {
		return nil, pkgerrors.NewInternalError("multiple persons at level 1")
	}

	var item personItem
	if err := attributevalue.UnmarshalMap(result.Items[0], &item); err != nil {
		return nil, pkgerrors.NewDatabaseError("unmarshal root person", err)
	}

	return item.toPerson(), nil
}

func (r *PersonRepository) GetByID(ctx context.Context, id string) (*tree.Person, error) {
	item, err := r.getPersonItem(ctx, id)
	if err != nil {
		return nil, err
	}
	return item.toPerson(), nil
}

func (r *PersonRepository) getPersonItem(ctx context.Context, id string) (*personItem, error) {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: personKey(id)},
			"SK": &types.AttributeValueMemberS{Value: skMetadata},
		},
	}

	result, err := r.client.GetItem(ctx, input)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get person", err)
	}
	if result.Item == nil {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("person '%s'", id))
	}

	var item personItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, pkgerrors.NewDatabaseError("unmarshal person", err)
	}

	return &item, nil
}

func (r *PersonRepository) GetByIDWithChildren(ctx context.Context, id string) (*tree.Person, error) {
	person, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	children, err := r.FindChildren(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, child := range children {
		person.AddChild(child)
	}

	return person, nil
}

func (r *PersonRepository) GetByIDWithDescendants(ctx context.Context, id string) (*tree.Person, error) {
	person, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Visited guard keeps traversal terminating even if the edge set was
	// corrupted into a cycle.
	if err := r.loadDescendants(ctx, person, map[string]bool{id: true}); err != nil {
		return nil, err
	}

	return person, nil
}

func (r *PersonRepository) loadDescendants(ctx context.Context, parent *tree.Person, visited map[string]bool) error {
	children, err := r.FindChildren(ctx, parent.ID)
	if err != nil {
		return err
	}

	for _, child := range children {
		if visited[child.ID] {
			continue
		}
		visited[child.ID] = true
		parent.AddChild(child)
		if err := r.loadDescendants(ctx, child, visited); err != nil {
			return err
		}
	}

	return nil
}

func (r *PersonRepository) SearchByName(ctx context.Context, term string) ([]*tree.Person, error) {
	filter := expression.Name("EntityType").Equal(expression.Value(entityPerson)).
		And(expression.Name("NameLower").Contains(normalizeSearchTerm(term)))
	expr, err := expression.NewBuilder().WithFilter(filter).Build()
	if err != nil {
		return nil, pkgerrors.NewInternalError("build search expression: " + err.Error())
	}

	return r.scanPersons(ctx, expr)
}

func (r *PersonRepository) GetByLevel(ctx context.Context, level int) ([]*tree.Person, error) {
	var persons []*tree.Person
	var startKey map[string]types.AttributeValue

	for {
		input := &dynamodb.QueryInput{
			TableName:              aws.String(r.tableName),
			IndexName:              aws.String(indexByLevel),
			KeyConditionExpression: aws.String("GSI1PK = :pk"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk": &types.AttributeValueMemberS{Value: levelKey(level)},
			},
			ExclusiveStartKey: startKey,
		}

		result, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("query persons by level", err)
		}

		for _, raw := range result.Items {
			var item personItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				r.logger.Warn("Skipping unreadable person item", zap.Error(err))
				continue
			}
			persons = append(persons, item.toPerson())
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		startKey = result.LastEvaluatedKey
	}

	return persons, nil
}

func (r *PersonRepository) GetAll(ctx context.Context) ([]*tree.Person, error) {
	filter := expression.Name("EntityType").Equal(expression.Value(entityPerson))
	expr, err := expression.NewBuilder().WithFilter(filter).Build()
	if err != nil {
		return nil, pkgerrors.NewInternalError("build scan expression: " + err.Error())
	}

	return r.scanPersons(ctx, expr)
}

func (r *PersonRepository) scanPersons(ctx context.Context, expr expression.Expression) ([]*tree.Person, error) {
	var persons []*tree.Person
	var startKey map[string]types.AttributeValue

	for {
		input := &dynamodb.ScanInput{
			TableName:                 aws.String(r.tableName),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         startKey,
		}

		result, err := r.client.Scan(ctx, input)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("scan persons", err)
		}

		for _, raw := range result.Items {
			var item personItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				r.logger.Warn("Skipping unreadable person item", zap.Error(err))
				continue
			}
			persons = append(persons, item.toPerson())
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		startKey = result.LastEvaluatedKey
	}

	return persons, nil
}

func (r *PersonRepository) FindChildren(ctx context.Context, id string) ([]*tree.Person, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: personKey(id)},
			":sk": &types.AttributeValueMemberS{Value: "CHILD#"},
		},
	}

	result, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("query children", err)
	}

	children := make([]*tree.Person, 0, len(result.Items))
	for _, raw := range result.Items {
		var edge edgeItem
		if err := attributevalue.UnmarshalMap(raw, &edge); err != nil {
			r.logger.Warn("Skipping unreadable edge item", zap.Error(err))
			continue
		}

		child, err := r.GetByID(ctx, edge.ChildID)
		if err != nil {
			if pkgerrors.IsNotFound(err) {
				// Dangling edge, the child node was removed out of band.
				r.logger.Warn("Edge points at missing person",
					zap.String("parentId", edge.ParentID),
					zap.String("childId", edge.ChildID),
				)
				continue
			}
			return nil, err
		}
		children = append(children, child)
	}

	return children, nil
}

func (r *PersonRepository) Exists(ctx context.Context, id string) (bool, error) {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: personKey(id)},
			"SK": &types.AttributeValueMemberS{Value: skMetadata},
		},
		ProjectionExpression: aws.String("PK"),
	}

	result, err := r.client.GetItem(ctx, input)
	if err != nil {
		return false, pkgerrors.NewDatabaseError("get person", err)
	}

	return result.Item != nil, nil
}

func (r *PersonRepository) Create(ctx context.Context, person *tree.Person) (*tree.Person, error) {
	av, err := attributevalue.MarshalMap(toPersonItem(person))
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("marshal person", err)
	}

	input := &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	}

	if _, err := r.client.PutItem(ctx, input); err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return nil, pkgerrors.NewAlreadyExistsError(person.ID)
		}
		return nil, pkgerrors.NewDatabaseError("create person", err)
	}

	r.logger.Debug("Person created",
		zap.String("personId", person.ID),
		zap.Int("level", person.Level),
	)

	return person, nil
}

func (r *PersonRepository) Save(ctx context.Context, person *tree.Person) (*tree.Person, error) {
	av, err := attributevalue.MarshalMap(toPersonItem(person))
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("marshal person", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}

	if _, err := r.client.PutItem(ctx, input); err != nil {
		return nil, pkgerrors.NewDatabaseError("save person", err)
	}

	return person, nil
}

func (r *PersonRepository) SaveAll(ctx context.Context, persons []*tree.Person) error {
	var written []string

	for start := 0; start < len(persons); start += batchWriteLimit {
		end := start + batchWriteLimit
		if end > len(persons) {
			end = len(persons)
		}

		requests := make([]types.WriteRequest, 0, end-start)
		for _, p := range persons[start:end] {
			av, err := attributevalue.MarshalMap(toPersonItem(p))
			if err != nil {
				r.rollback(ctx, written)
				return pkgerrors.NewDatabaseError("marshal person", err)
			}
			requests = append(requests, types.WriteRequest{
				PutRequest: &types.PutRequest{Item: av},
			})
		}

		if err := r.batchWrite(ctx, requests); err != nil {
			r.rollback(ctx, written)
			return pkgerrors.NewDatabaseError("bulk write persons", err)
		}

		for _, p := range persons[start:end] {
			written = append(written, p.ID)
		}
	}

	return nil
}

// batchWrite submits one BatchWriteItem call and retries unprocessed
// requests until the store accepts them all.
func (r *PersonRepository) batchWrite(ctx context.Context, requests []types.WriteRequest) error {
	pending := requests
	for attempt := 0; len(pending) > 0; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
			}
		}

		result, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				r.tableName: pending,
			},
		})
		if err != nil {
			return err
		}

		pending = result.UnprocessedItems[r.tableName]
		if attempt >= 5 && len(pending) > 0 {
			return fmt.Errorf("batch write left %d unprocessed items", len(pending))
		}
	}

	return nil
}

// rollback removes persons written before a bulk failure so the batch
// stays all-or-nothing for readers.
func (r *PersonRepository) rollback(ctx context.Context, ids []string) {
	for _, id := range ids {
		input := &dynamodb.DeleteItemInput{
			TableName: aws.String(r.tableName),
			Key: map[string]types.AttributeValue{
				"PK": &types.AttributeValueMemberS{Value: personKey(id)},
				"SK": &types.AttributeValueMemberS{Value: skMetadata},
			},
		}
		if _, err := r.client.DeleteItem(ctx, input); err != nil {
			r.logger.Error("Rollback delete failed",
				zap.String("personId", id),
				zap.Error(err),
			)
		}
	}

	if len(ids) > 0 {
		r.logger.Warn("Rolled back partial bulk write", zap.Int("count", len(ids)))
	}
}

func (r *PersonRepository) Delete(ctx context.Context, id string) error {
	exists, err := r.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return pkgerrors.NewNotFoundError(fmt.Sprintf("person '%s'", id))
	}

	// Collect every item the person owns or participates in: metadata,
	// detail record, outgoing edges and incoming edges via GSI2.
	keys := []map[string]types.AttributeValue{
		{
			"PK": &types.AttributeValueMemberS{Value: personKey(id)},
			"SK": &types.AttributeValueMemberS{Value: skMetadata},
		},
		{
			"PK": &types.AttributeValueMemberS{Value: personKey(id)},
			"SK": &types.AttributeValueMemberS{Value: skDetails},
		},
	}

	outgoing, err := r.queryEdges(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: personKey(id)},
			":sk": &types.AttributeValueMemberS{Value: "CHILD#"},
		},
	})
	if err != nil {
		return err
	}

	incoming, err := r.queryEdges(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexByChild),
		KeyConditionExpression: aws.String("GSI2PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: childKey(id)},
		},
	})
	if err != nil {
		return err
	}

	for _, edge := range append(outgoing, incoming...) {
		keys = append(keys, map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: personKey(edge.ParentID)},
			"SK": &types.AttributeValueMemberS{Value: childKey(edge.ChildID)},
		})
	}

	for _, key := range keys {
		input := &dynamodb.DeleteItemInput{
			TableName: aws.String(r.tableName),
			Key:       key,
		}
		if _, err := r.client.DeleteItem(ctx, input); err != nil {
			return pkgerrors.NewDatabaseError("delete person", err)
		}
	}

	r.logger.Debug("Person deleted",
		zap.String("personId", id),
		zap.Int("edgesRemoved", len(outgoing)+len(incoming)),
	)

	return nil
}

func (r *PersonRepository) queryEdges(ctx context.Context, input *dynamodb.QueryInput) ([]edgeItem, error) {
	var edges []edgeItem
	var startKey map[string]types.AttributeValue

	for {
		input.ExclusiveStartKey = startKey

		result, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("query edges", err)
		}

		for _, raw := range result.Items {
			var edge edgeItem
			if err := attributevalue.UnmarshalMap(raw, &edge); err != nil {
				r.logger.Warn("Skipping unreadable edge item", zap.Error(err))
				continue
			}
			edges = append(edges, edge)
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		startKey = result.LastEvaluatedKey
	}

	return edges, nil
}

func (r *PersonRepository) CreateEdge(ctx context.Context, parentID, childID string) error {
	for _, id := range []string{parentID, childID} {
		exists, err := r.Exists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return pkgerrors.NewNotFoundError(fmt.Sprintf("person '%s'", id))
		}
	}

	edge := edgeItem{
		PK:         personKey(parentID),
		SK:         childKey(childID),
		GSI2PK:     childKey(childID),
		GSI2SK:     personKey(parentID),
		EntityType: entityEdge,
		ParentID:   parentID,
		ChildID:    childID,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}

	av, err := attributevalue.MarshalMap(edge)
	if err != nil {
		return pkgerrors.NewDatabaseError("marshal edge", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}

	if _, err := r.client.PutItem(ctx, input); err != nil {
		return pkgerrors.NewDatabaseError("create edge", err)
	}

	return nil
}

func (r *PersonRepository) Count(ctx context.Context) (int64, error) {
	filter := expression.Name("EntityType").Equal(expression.Value(entityPerson))
	expr, err := expression.NewBuilder().WithFilter(filter).Build()
	if err != nil {
		return 0, pkgerrors.NewInternalError("build count expression: " + err.Error())
	}

	var count int64
	var startKey map[string]types.AttributeValue

	for {
		input := &dynamodb.ScanInput{
			TableName:                 aws.String(r.tableName),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			Select:                    types.SelectCount,
			ExclusiveStartKey:         startKey,
		}

		result, err := r.client.Scan(ctx, input)
		if err != nil {
			return 0, pkgerrors.NewDatabaseError("count persons", err)
		}

		count += int64(result.Count)

		if result.LastEvaluatedKey == nil {
			break
		}
		startKey = result.LastEvaluatedKey
	}

	return count, nil
}

func (r *PersonRepository) DeleteAll(ctx context.Context) error {
	var startKey map[string]types.AttributeValue

	for {
		input := &dynamodb.ScanInput{
			TableName:            aws.String(r.tableName),
			ProjectionExpression: aws.String("PK, SK"),
			ExclusiveStartKey:    startKey,
		}

		result, err := r.client.Scan(ctx, input)
		if err != nil {
			return pkgerrors.NewDatabaseError("scan table for delete", err)
		}

		for batchStart := 0; batchStart < len(result.Items); batchStart += batchWriteLimit {
			batchEnd := batchStart + batchWriteLimit
			if batchEnd > len(result.Items) {
				batchEnd = len(result.Items)
			}

			requests := make([]types.WriteRequest, 0, batchEnd-batchStart)
			for _, raw := range result.Items[batchStart:batchEnd] {
				requests = append(requests, types.WriteRequest{
					DeleteRequest: &types.DeleteRequest{Key: map[string]types.AttributeValue{
						"PK": raw["PK"],
						"SK": raw["SK"],
					}},
				})
			}

			if err := r.batchWrite(ctx, requests); err != nil {
				return pkgerrors.NewDatabaseError("bulk delete items", err)
			}
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		startKey = result.LastEvaluatedKey
	}

	return nil
}
