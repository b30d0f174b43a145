package services

import (
	"context"
	"encoding/json"
	"os"

	"familytree-backend/application/mapping"
	"familytree-backend/application/ports"
	"familytree-backend/domain/tree"
	pkgerrors "familytree-backend/pkg/errors"

	"go.uber.org/zap"
)

// TreeLoader imports an external nested tree document in two passes: all
// nodes first in one bulk write, then the parent edges one at a time. A
// node-level failure aborts the import; edge failures are counted and the
// import continues with the remaining edges.
type TreeLoader struct {
	persons  ports.PersonRepository
	seedPath string
	logger   *zap.Logger
}

// NewTreeLoader creates a loader. seedPath is the document used by Reload
// and the startup seed; it may be empty when seeding is disabled.
func NewTreeLoader(persons ports.PersonRepository, seedPath string, logger *zap.Logger) *TreeLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TreeLoader{
		persons:  persons,
		seedPath: seedPath,
		logger:   logger,
	}
}

// SeedPath returns the configured seed document path.
func (l *TreeLoader) SeedPath() string {
	return l.seedPath
}

// LoadResult reports what an import did. FailedEdges is the operational
// side-channel for per-edge failures that did not abort the import.
type LoadResult struct {
	NodeCount    int
	EdgesCreated int
	FailedEdges  int
}

// Load flattens and persists the document. The returned node count equals
// the document's total node count regardless of edge failures.
func (l *TreeLoader) Load(ctx context.Context, root *mapping.DocumentNode) (*LoadResult, error) {
	flat, err := mapping.Flatten(root)
	if err != nil {
		return nil, err
	}

	l.logger.Info("Flattened import document",
		zap.Int("nodes", len(flat.Nodes)),
		zap.Int("edges", len(flat.ChildToParent)),
	)

	// First pass: persist every node in one bulk write. Partial node
	// state must never remain observable, so any failure here is fatal.
	persons := make([]*tree.Person, 0, len(flat.Nodes))
	for _, node := range flat.Nodes {
		person, err := mapping.FromDocumentNode(node)
		if err != nil {
			return nil, err
		}
		person.Level = flat.Levels[node.ID]
		persons = append(persons, person)
	}

	if err := l.persons.SaveAll(ctx, persons); err != nil {
		return nil, err
	}
	l.logger.Info("Saved person nodes", zap.Int("count", len(persons)))

	// Second pass: create edges one at a time. Each edge is independent;
	// record failures and keep going so one bad edge cannot drop the
	// rest of the tree.
	result := &LoadResult{NodeCount: len(flat.Nodes)}
	for childID, parentID := range flat.ChildToParent {
		if err := l.persons.CreateEdge(ctx, parentID, childID); err != nil {
			result.FailedEdges++
			edgeErr := pkgerrors.NewEdgeCreationError(parentID, childID, err)
			l.logger.Error("Edge creation failed", zap.Error(edgeErr))
			continue
		}
		result.EdgesCreated++
	}

	l.logger.Info("Created parent edges", zap.Int("count", result.EdgesCreated))
	if result.FailedEdges > 0 {
		l.logger.Warn("Some edges failed to create", zap.Int("failed", result.FailedEdges))
	}

	l.verifyRootChildren(ctx, root)

	return result, nil
}

// verifyRootChildren checks that the root has children in the store whenever
// the document declared some. An empty result after a successful node pass
// signals systemic failure and is logged at error level for escalation.
func (l *TreeLoader) verifyRootChildren(ctx context.Context, root *mapping.DocumentNode) {
	if len(root.Childs) == 0 {
		return
	}

	children, err := l.persons.FindChildren(ctx, root.ID)
	if err != nil {
		l.logger.Error("Failed to verify root children after import",
			zap.String("rootId", root.ID),
			zap.Error(err),
		)
		return
	}

	if len(children) == 0 {
		l.logger.Error("Root has no children after import despite document declaring some",
			zap.String("rootId", root.ID),
			zap.Int("expected", len(root.Childs)),
		)
		return
	}

	l.logger.Info("Verified root children after import",
		zap.String("rootId", root.ID),
		zap.Int("children", len(children)),
	)
}

// LoadFromFile reads a JSON tree document from disk and imports it.
func (l *TreeLoader) LoadFromFile(ctx context.Context, path string) (*LoadResult, error) {
	if path == "" {
		return nil, pkgerrors.NewValidationError("no seed document path configured")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to read seed document: " + err.Error())
	}

	var root mapping.DocumentNode
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, pkgerrors.NewValidationError("malformed seed document: " + err.Error())
	}

	l.logger.Info("Loading tree document", zap.String("path", path), zap.String("root", root.Name))

	return l.Load(ctx, &root)
}

// SeedIfEmpty imports the seed document when the store holds no persons.
// Called once at startup.
func (l *TreeLoader) SeedIfEmpty(ctx context.Context) error {
	if l.seedPath == "" {
		l.logger.Info("Initial data loading is disabled")
		return nil
	}

	count, err := l.persons.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		l.logger.Info("Store already contains data, skipping initial load",
			zap.Int64("persons", count),
		)
		return nil
	}

	result, err := l.LoadFromFile(ctx, l.seedPath)
	if err != nil {
		return err
	}

	l.logger.Info("Initial data load complete", zap.Int("persons", result.NodeCount))
	return nil
}

// Clear destroys all persons and edges. Destructive and non-reversible;
// only called on an explicit reload request.
func (l *TreeLoader) Clear(ctx context.Context) error {
	l.logger.Warn("Clearing all data from store")
	return l.persons.DeleteAll(ctx)
}
