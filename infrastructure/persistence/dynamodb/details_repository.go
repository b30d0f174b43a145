package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"familytree-backend/application/ports"
	"familytree-backend/domain/tree"
	pkgerrors "familytree-backend/pkg/errors"
)

// DetailsRepository implements ports.DetailsRepository on DynamoDB. Detail
// records share the owning person's partition under a DETAILS sort key, so
// the person id is the lookup index.
type DetailsRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

var _ ports.DetailsRepository = (*DetailsRepository)(nil)

// NewDetailsRepository creates a detail-record repository over the given table.
func NewDetailsRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) *DetailsRepository {
	return &DetailsRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

func (r *DetailsRepository) FindByPersonID(ctx context.Context, personID string) (*tree.PersonDetails, error) {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: personKey(personID)},
			"SK": &types.AttributeValueMemberS{Value: skDetails},
		},
	}

	result, err := r.client.GetItem(ctx, input)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get person details", err)
	}
	if result.Item == nil {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("details for person '%s'", personID))
	}

	var item detailsItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, pkgerrors.NewDatabaseError("unmarshal person details", err)
	}

	return item.toDetails(), nil
}

func (r *DetailsRepository) Save(ctx context.Context, details *tree.PersonDetails) (*tree.PersonDetails, error) {
	av, err := attributevalue.MarshalMap(toDetailsItem(details))
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("marshal person details", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}

	if _, err := r.client.PutItem(ctx, input); err != nil {
		return nil, pkgerrors.NewDatabaseError("save person details", err)
	}

	r.logger.Debug("Person details saved",
		zap.String("personId", details.PersonID),
		zap.String("detailsId", details.ID),
	)

	return details, nil
}

func (r *DetailsRepository) DeleteByPersonID(ctx context.Context, personID string) error {
	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: personKey(personID)},
			"SK": &types.AttributeValueMemberS{Value: skDetails},
		},
	}

	// Deleting an absent record is a no-op, DeleteItem already behaves so.
	if _, err := r.client.DeleteItem(ctx, input); err != nil {
		return pkgerrors.NewDatabaseError("delete person details", err)
	}

	return nil
}
