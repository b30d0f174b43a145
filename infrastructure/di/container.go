package di

import (
	"go.uber.org/zap"

	"familytree-backend/application/services"
	"familytree-backend/infrastructure/cache"
	"familytree-backend/infrastructure/config"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	Repos       *Repositories
	Caches      *cache.Registry
	Invalidator *cache.Invalidator
	Loader      *services.TreeLoader
	TreeService *services.FamilyTreeService
}
