// Package neo4jrepo is an alternative relationship-index backend on Neo4j.
// Each edge is a Relationship node keyed by the (subject_id, object_id,
// type) triple; MERGE gives the same insert-or-ignore semantics the
// relational backend gets from its unique constraint. Surrogate ids are not
// assigned on this backend.
package neo4jrepo

import (
	"context"
	"fmt"
	"time"

	"commgraph/internal/relationships"
	"commgraph/pkg/logger"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// RelationshipRepository handles all Neo4j relationship operations.
type RelationshipRepository struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// NewRelationshipRepository creates a repository over an open driver. The
// driver's lifecycle belongs to the caller.
func NewRelationshipRepository(driver neo4j.DriverWithContext) *RelationshipRepository {
	return &RelationshipRepository{
		driver: driver,
		logger: logger.Get(),
	}
}

// Save merges the triple; an existing node keeps its created_at.
func (r *RelationshipRepository) Save(ctx context.Context, rel relationships.Relationship) (relationships.Relationship, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MERGE (r:Relationship {subject_id: $subjectID, object_id: $objectID, type: $type})
		ON CREATE SET r.created_at = datetime($createdAt)
		RETURN r.created_at as created_at
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"subjectID": rel.SubjectID,
		"objectID":  rel.ObjectID,
		"type":      string(rel.Type),
		"createdAt": rel.CreatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return relationships.Relationship{}, fmt.Errorf("failed to save relationship: %w", err)
	}

	record, err := result.Single(ctx)
	if err != nil {
		return relationships.Relationship{}, fmt.Errorf("failed to read saved relationship: %w", err)
	}

	saved := rel
	saved.ID = 0
	if v, ok := record.Get("created_at"); ok {
		if t, ok := v.(time.Time); ok {
			saved.CreatedAt = t
		}
	}
	return saved, nil
}

// SaveMany merges the batch in a single write transaction.
func (r *RelationshipRepository) SaveMany(ctx context.Context, rels []relationships.Relationship) error {
	if len(rels) == 0 {
		return nil
	}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	rows := make([]map[string]interface{}, 0, len(rels))
	for _, rel := range rels {
		rows = append(rows, map[string]interface{}{
			"subject_id": rel.SubjectID,
			"object_id":  rel.ObjectID,
			"type":       string(rel.Type),
			"created_at": rel.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	query := `
		UNWIND $rows as row
		MERGE (r:Relationship {subject_id: row.subject_id, object_id: row.object_id, type: row.type})
		ON CREATE SET r.created_at = datetime(row.created_at)
	`

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, query, map[string]interface{}{"rows": rows})
	})
	if err != nil {
		return fmt.Errorf("failed to save relationships: %w", err)
	}

	r.logger.Debug("relationship batch merged", zap.Int("count", len(rels)))
	return nil
}

// Delete removes the triple. Deleting an absent triple is a no-op.
func (r *RelationshipRepository) Delete(ctx context.Context, subjectID, objectID int64, t relationships.Type) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MATCH (r:Relationship {subject_id: $subjectID, object_id: $objectID, type: $type})
		DELETE r
	`

	_, err := session.Run(ctx, query, map[string]interface{}{
		"subjectID": subjectID,
		"objectID":  objectID,
		"type":      string(t),
	})
	if err != nil {
		return fmt.Errorf("failed to delete relationship: %w", err)
	}
	return nil
}

// Clear removes every relationship node.
func (r *RelationshipRepository) Clear(ctx context.Context) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.Run(ctx, `MATCH (r:Relationship) DELETE r`, nil)
	if err != nil {
		return fmt.Errorf("failed to clear relationships: %w", err)
	}
	return nil
}

// All enumerates every stored edge.
func (r *RelationshipRepository) All(ctx context.Context) ([]relationships.Relationship, error) {
	return r.query(ctx, `
		MATCH (r:Relationship)
		RETURN r.subject_id as subject_id, r.object_id as object_id, r.type as type, r.created_at as created_at
	`, nil)
}

// FindBySubject returns edges of the given types from the subject.
func (r *RelationshipRepository) FindBySubject(ctx context.Context, subjectID int64, types ...relationships.Type) ([]relationships.Relationship, error) {
	return r.query(ctx, `
		MATCH (r:Relationship {subject_id: $id})
		WHERE size($types) = 0 OR r.type IN $types
		RETURN r.subject_id as subject_id, r.object_id as object_id, r.type as type, r.created_at as created_at
	`, map[string]interface{}{
		"id":    subjectID,
		"types": typeStrings(types),
	})
}

// FindByObject returns edges of the given types to the object.
func (r *RelationshipRepository) FindByObject(ctx context.Context, objectID int64, types ...relationships.Type) ([]relationships.Relationship, error) {
	return r.query(ctx, `
		MATCH (r:Relationship {object_id: $id})
		WHERE size($types) = 0 OR r.type IN $types
		RETURN r.subject_id as subject_id, r.object_id as object_id, r.type as type, r.created_at as created_at
	`, map[string]interface{}{
		"id":    objectID,
		"types": typeStrings(types),
	})
}

func (r *RelationshipRepository) query(ctx context.Context, query string, params map[string]interface{}) ([]relationships.Relationship, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to query relationships: %w", err)
	}

	rels := make([]relationships.Relationship, 0)
	for result.Next(ctx) {
		record := result.Record()
		rels = append(rels, relationships.Relationship{
			SubjectID: getInt64(record, "subject_id"),
			ObjectID:  getInt64(record, "object_id"),
			Type:      relationships.Type(getString(record, "type")),
			CreatedAt: getTime(record, "created_at"),
		})
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to read relationships: %w", err)
	}
	return rels, nil
}

// Helper functions

func getInt64(record *neo4j.Record, key string) int64 {
	val, ok := record.Get(key)
	if !ok {
		return 0
	}
	if n, ok := val.(int64); ok {
		return n
	}
	return 0
}

func getString(record *neo4j.Record, key string) string {
	val, ok := record.Get(key)
	if !ok {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

func getTime(record *neo4j.Record, key string) time.Time {
	val, ok := record.Get(key)
	if !ok {
		return time.Time{}
	}
	// Neo4j datetime values come as time.Time
	if t, ok := val.(time.Time); ok {
		return t
	}
	return time.Time{}
}

func typeStrings(types []relationships.Type) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, string(t))
	}
	return out
}

var _ relationships.Repository = (*RelationshipRepository)(nil)
