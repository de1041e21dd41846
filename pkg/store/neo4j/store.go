// Package neo4j loads workflow process graphs from a Neo4j database.
//
// The data model mirrors the modeling convention of the source system:
// (:Process)-[:HAS_STEP]->(:Element) attaches elements to a process, and
// (:Element)-[:NEXT]->(:Element) orders them. Element nodes carry id, name,
// and type properties; NEXT relationships may carry a label.
package neo4j

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/kdreher/flowmap/pkg/graph"
	"github.com/kdreher/flowmap/pkg/observability"
)

// ErrUnavailable is returned when the database cannot be reached.
// Callers surface this as a degraded state rather than a hard failure.
var ErrUnavailable = errors.New("graph database unavailable")

// ErrProcessNotFound is returned when a process id matches nothing.
var ErrProcessNotFound = errors.New("process not found")

// Config holds the connection settings for a Neo4j instance.
type Config struct {
	URI      string
	Username string
	Password string
}

// Store is a Neo4j-backed source of process graphs.
// It is safe for concurrent use; the underlying driver pools connections.
type Store struct {
	driver neo4j.DriverWithContext
}

// Open creates a Store and verifies connectivity.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &Store{driver: driver}, nil
}

// Close releases the driver's connection pool.
func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// Ping checks that the database is still reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.driver.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// ProcessInfo summarizes one stored process.
type ProcessInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Elements int    `json:"elements"`
}

// Stats aggregates database-wide counts for the statistics view.
type Stats struct {
	Processes   int            `json:"processes"`
	Elements    int            `json:"elements"`
	Transitions int            `json:"transitions"`
	ByType      map[string]int `json:"by_type"`
}

// TaskMatch is one hit from a task name search.
type TaskMatch struct {
	ProcessID   string `json:"process_id"`
	ProcessName string `json:"process_name"`
	Node        graph.Node
}

// GraphData loads the complete graph of one process as a validated snapshot.
// Nodes and edges come back in the database's return order, which fixes the
// insertion order of the snapshot.
func (s *Store) GraphData(ctx context.Context, processID string) (*graph.Graph, error) {
	start := time.Now()
	observability.Store().OnQuery(ctx, "GraphData")

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		nodes, err := readNodes(ctx, tx, processID)
		if err != nil {
			return nil, err
		}
		if len(nodes) == 0 {
			if ok, err := processExists(ctx, tx, processID); err != nil {
				return nil, err
			} else if !ok {
				return nil, fmt.Errorf("%w: %s", ErrProcessNotFound, processID)
			}
		}
		edges, err := readEdges(ctx, tx, processID)
		if err != nil {
			return nil, err
		}
		return graph.Load(nodes, edges)
	})

	if err != nil {
		observability.Store().OnQueryComplete(ctx, "GraphData", 0, time.Since(start), err)
		if errors.Is(err, ErrProcessNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	g := result.(*graph.Graph)
	observability.Store().OnQueryComplete(ctx, "GraphData", g.NodeCount(), time.Since(start), nil)
	return g, nil
}

func readNodes(ctx context.Context, tx neo4j.ManagedTransaction, processID string) ([]graph.Node, error) {
	rows, err := tx.Run(ctx, `
		MATCH (p:Process {id: $id})-[:HAS_STEP]->(e:Element)
		RETURN e.id AS id, e.name AS name, e.type AS type
		ORDER BY id(e)`,
		map[string]any{"id": processID})
	if err != nil {
		return nil, err
	}

	var nodes []graph.Node
	for rows.Next(ctx) {
		rec := rows.Record()
		nodes = append(nodes, graph.Node{
			ID:   recordString(rec, "id"),
			Name: recordString(rec, "name"),
			Type: graph.ParseNodeType(recordString(rec, "type")),
		})
	}
	return nodes, rows.Err()
}

func readEdges(ctx context.Context, tx neo4j.ManagedTransaction, processID string) ([]graph.Edge, error) {
	rows, err := tx.Run(ctx, `
		MATCH (p:Process {id: $id})-[:HAS_STEP]->(a:Element)-[r:NEXT]->(b:Element)<-[:HAS_STEP]-(p)
		RETURN a.id AS source, b.id AS target, r.label AS label
		ORDER BY id(r)`,
		map[string]any{"id": processID})
	if err != nil {
		return nil, err
	}

	var edges []graph.Edge
	for rows.Next(ctx) {
		rec := rows.Record()
		edges = append(edges, graph.Edge{
			Source: recordString(rec, "source"),
			Target: recordString(rec, "target"),
			Label:  recordString(rec, "label"),
		})
	}
	return edges, rows.Err()
}

func processExists(ctx context.Context, tx neo4j.ManagedTransaction, processID string) (bool, error) {
	rows, err := tx.Run(ctx,
		`MATCH (p:Process {id: $id}) RETURN count(p) AS n`,
		map[string]any{"id": processID})
	if err != nil {
		return false, err
	}
	rec, err := rows.Single(ctx)
	if err != nil {
		return false, err
	}
	return recordInt(rec, "n") > 0, nil
}

// Processes lists all stored processes with their element counts.
func (s *Store) Processes(ctx context.Context) ([]ProcessInfo, error) {
	start := time.Now()
	observability.Store().OnQuery(ctx, "Processes")

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		rows, err := tx.Run(ctx, `
			MATCH (p:Process)
			OPTIONAL MATCH (p)-[:HAS_STEP]->(e:Element)
			RETURN p.id AS id, p.name AS name, count(e) AS elements
			ORDER BY name`,
			nil)
		if err != nil {
			return nil, err
		}
		var infos []ProcessInfo
		for rows.Next(ctx) {
			rec := rows.Record()
			infos = append(infos, ProcessInfo{
				ID:       recordString(rec, "id"),
				Name:     recordString(rec, "name"),
				Elements: recordInt(rec, "elements"),
			})
		}
		return infos, rows.Err()
	})
	if err != nil {
		observability.Store().OnQueryComplete(ctx, "Processes", 0, time.Since(start), err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	infos := result.([]ProcessInfo)
	observability.Store().OnQueryComplete(ctx, "Processes", len(infos), time.Since(start), nil)
	return infos, nil
}

// Statistics aggregates counts over the whole database.
func (s *Store) Statistics(ctx context.Context) (Stats, error) {
	start := time.Now()
	observability.Store().OnQuery(ctx, "Statistics")

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		stats := Stats{ByType: make(map[string]int)}

		rows, err := tx.Run(ctx, `
			MATCH (p:Process)
			OPTIONAL MATCH (e:Element)
			OPTIONAL MATCH (:Element)-[r:NEXT]->(:Element)
			RETURN count(DISTINCT p) AS processes, count(DISTINCT e) AS elements, count(DISTINCT r) AS transitions`,
			nil)
		if err != nil {
			return nil, err
		}
		rec, err := rows.Single(ctx)
		if err != nil {
			return nil, err
		}
		stats.Processes = recordInt(rec, "processes")
		stats.Elements = recordInt(rec, "elements")
		stats.Transitions = recordInt(rec, "transitions")

		typed, err := tx.Run(ctx, `
			MATCH (e:Element)
			RETURN e.type AS type, count(e) AS n
			ORDER BY type`,
			nil)
		if err != nil {
			return nil, err
		}
		for typed.Next(ctx) {
			rec := typed.Record()
			stats.ByType[recordString(rec, "type")] = recordInt(rec, "n")
		}
		return stats, typed.Err()
	})
	if err != nil {
		observability.Store().OnQueryComplete(ctx, "Statistics", 0, time.Since(start), err)
		return Stats{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	stats := result.(Stats)
	observability.Store().OnQueryComplete(ctx, "Statistics", stats.Elements, time.Since(start), nil)
	return stats, nil
}

// CreateProcess stores a new process graph and returns its id.
// Node and edge records come in loader shape; an empty processID gets a
// generated UUID. The whole write runs in one transaction.
func (s *Store) CreateProcess(ctx context.Context, processID, name string, nodes []graph.Node, edges []graph.Edge) (string, error) {
	// Validate before touching the database.
	if _, err := graph.Load(nodes, edges); err != nil {
		return "", err
	}
	if processID == "" {
		processID = uuid.NewString()
	}

	start := time.Now()
	observability.Store().OnQuery(ctx, "CreateProcess")

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx,
			`CREATE (p:Process {id: $id, name: $name})`,
			map[string]any{"id": processID, "name": name}); err != nil {
			return nil, err
		}
		for _, n := range nodes {
			if _, err := tx.Run(ctx, `
				MATCH (p:Process {id: $pid})
				CREATE (p)-[:HAS_STEP]->(:Element {id: $id, name: $name, type: $type})`,
				map[string]any{"pid": processID, "id": n.ID, "name": n.Name, "type": string(n.Type)}); err != nil {
				return nil, err
			}
		}
		for _, e := range edges {
			if _, err := tx.Run(ctx, `
				MATCH (p:Process {id: $pid})-[:HAS_STEP]->(a:Element {id: $source})
				MATCH (p)-[:HAS_STEP]->(b:Element {id: $target})
				CREATE (a)-[:NEXT {label: $label}]->(b)`,
				map[string]any{"pid": processID, "source": e.Source, "target": e.Target, "label": e.Label}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	observability.Store().OnQueryComplete(ctx, "CreateProcess", len(nodes), time.Since(start), err)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return processID, nil
}

// DeleteProcess removes a process and all its elements.
func (s *Store) DeleteProcess(ctx context.Context, processID string) error {
	start := time.Now()
	observability.Store().OnQuery(ctx, "DeleteProcess")

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if ok, err := processExists(ctx, tx, processID); err != nil {
			return nil, err
		} else if !ok {
			return nil, fmt.Errorf("%w: %s", ErrProcessNotFound, processID)
		}
		_, err := tx.Run(ctx, `
			MATCH (p:Process {id: $id})
			OPTIONAL MATCH (p)-[:HAS_STEP]->(e:Element)
			DETACH DELETE p, e`,
			map[string]any{"id": processID})
		return nil, err
	})
	observability.Store().OnQueryComplete(ctx, "DeleteProcess", 0, time.Since(start), err)
	if err != nil {
		if errors.Is(err, ErrProcessNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// FindTask searches all processes for elements whose name contains the query,
// case-insensitively.
func (s *Store) FindTask(ctx context.Context, query string) ([]TaskMatch, error) {
	start := time.Now()
	observability.Store().OnQuery(ctx, "FindTask")

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		rows, err := tx.Run(ctx, `
			MATCH (p:Process)-[:HAS_STEP]->(e:Element)
			WHERE toLower(e.name) CONTAINS toLower($q)
			RETURN p.id AS pid, p.name AS pname, e.id AS id, e.name AS name, e.type AS type
			ORDER BY pname, name`,
			map[string]any{"q": query})
		if err != nil {
			return nil, err
		}
		var matches []TaskMatch
		for rows.Next(ctx) {
			rec := rows.Record()
			matches = append(matches, TaskMatch{
				ProcessID:   recordString(rec, "pid"),
				ProcessName: recordString(rec, "pname"),
				Node: graph.Node{
					ID:   recordString(rec, "id"),
					Name: recordString(rec, "name"),
					Type: graph.ParseNodeType(recordString(rec, "type")),
				},
			})
		}
		return matches, rows.Err()
	})
	if err != nil {
		observability.Store().OnQueryComplete(ctx, "FindTask", 0, time.Since(start), err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	matches := result.([]TaskMatch)
	observability.Store().OnQueryComplete(ctx, "FindTask", len(matches), time.Since(start), nil)
	return matches, nil
}

// Gateways lists every Gateway or Decision element across all processes.
func (s *Store) Gateways(ctx context.Context) ([]TaskMatch, error) {
	start := time.Now()
	observability.Store().OnQuery(ctx, "Gateways")

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		rows, err := tx.Run(ctx, `
			MATCH (p:Process)-[:HAS_STEP]->(e:Element)
			WHERE e.type IN ['Gateway', 'Decision']
			RETURN p.id AS pid, p.name AS pname, e.id AS id, e.name AS name, e.type AS type
			ORDER BY pname, name`,
			nil)
		if err != nil {
			return nil, err
		}
		var matches []TaskMatch
		for rows.Next(ctx) {
			rec := rows.Record()
			matches = append(matches, TaskMatch{
				ProcessID:   recordString(rec, "pid"),
				ProcessName: recordString(rec, "pname"),
				Node: graph.Node{
					ID:   recordString(rec, "id"),
					Name: recordString(rec, "name"),
					Type: graph.ParseNodeType(recordString(rec, "type")),
				},
			})
		}
		return matches, rows.Err()
	})
	if err != nil {
		observability.Store().OnQueryComplete(ctx, "Gateways", 0, time.Since(start), err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	matches := result.([]TaskMatch)
	observability.Store().OnQueryComplete(ctx, "Gateways", len(matches), time.Since(start), nil)
	return matches, nil
}

// recordString reads a string field from a record, tolerating nulls.
func recordString(rec *neo4j.Record, key string) string {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// recordInt reads an integer field from a record, tolerating nulls.
func recordInt(rec *neo4j.Record, key string) int {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return 0
	}
	n, _ := v.(int64)
	return int(n)
}
