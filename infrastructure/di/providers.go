package di

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"familytree-backend/application/ports"
	"familytree-backend/application/services"
	"familytree-backend/infrastructure/cache"
	"familytree-backend/infrastructure/config"
	dynamostore "familytree-backend/infrastructure/persistence/dynamodb"
	memorystore "familytree-backend/infrastructure/persistence/memory"
)

// Repositories bundles the two persistence ports so both views of a
// shared memory store come out of a single provider.
type Repositories struct {
	Persons ports.PersonRepository
	Details ports.DetailsRepository
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	if level, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}

	return zapCfg.Build()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideRepositories selects the persistence backend from configuration
func ProvideRepositories(cfg *config.Config, client *awsdynamodb.Client, logger *zap.Logger) *Repositories {
	if cfg.StorageBackend == "dynamodb" {
		return &Repositories{
			Persons: dynamostore.NewPersonRepository(client, cfg.DynamoDBTable, logger),
			Details: dynamostore.NewDetailsRepository(client, cfg.DynamoDBTable, logger),
		}
	}

	store := memorystore.NewStore()
	return &Repositories{
		Persons: store.Persons(),
		Details: store.Details(),
	}
}

// ProvideCacheRegistry creates the named caches with their default tuning
func ProvideCacheRegistry(logger *zap.Logger) *cache.Registry {
	return cache.NewRegistry(cache.DefaultSettings(), logger)
}

// ProvideInvalidator creates the cache invalidation coordinator
func ProvideInvalidator(registry *cache.Registry, logger *zap.Logger) *cache.Invalidator {
	return cache.NewInvalidator(registry, logger)
}

// ProvideTreeLoader creates the bulk document loader
func ProvideTreeLoader(repos *Repositories, cfg *config.Config, logger *zap.Logger) *services.TreeLoader {
	return services.NewTreeLoader(repos.Persons, cfg.SeedDocumentPath, logger)
}

// ProvideTreeService creates the family tree application service
func ProvideTreeService(
	repos *Repositories,
	registry *cache.Registry,
	invalidator *cache.Invalidator,
	loader *services.TreeLoader,
	logger *zap.Logger,
) *services.FamilyTreeService {
	return services.NewFamilyTreeService(repos.Persons, repos.Details, registry, invalidator, loader, logger)
}
