package redis

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/shoppilot/prosearch/internal/db"
)

// UpsertVectors stores document vectors (plus light metadata) as hashes in a
// single DoMulti round-trip. The caller bounds batch sizes.
func (s *Store) UpsertVectors(ctx context.Context, items []db.VectorItem) error {
	if len(items) == 0 {
		return nil
	}

	cmds := make([]rueidis.Completed, len(items))
	for i, item := range items {
		cmd := s.b().Hset().Key(item.Key).FieldValue().
			FieldValue(db.VectorField, vectorToBytes(item.Vector))
		for k, v := range item.Meta {
			cmd = cmd.FieldValue(k, v)
		}
		cmds[i] = cmd.Build()
	}

	results := s.client.DoMulti(ctx, cmds...)
	for i, res := range results {
		if err := res.Error(); err != nil {
			return &db.Error{Op: db.OpHSet, Err: fmt.Errorf("key %s: %w", items[i].Key, err)}
		}
	}
	return nil
}

// SearchKNN runs a KNN vector similarity query via FT.SEARCH and returns
// neighbors with cosine distance converted to similarity.
func (s *Store) SearchKNN(ctx context.Context, index string, vector []float32, k int) ([]db.Neighbor, error) {
	if index == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("vector is required")
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	queryStr := fmt.Sprintf("*=>[KNN %d @%s $BLOB]", k, db.VectorField)

	cmd := s.b().Arbitrary("FT.SEARCH").Args(
		index, queryStr,
		"RETURN", "1", "__"+db.VectorField+"_score",
		"PARAMS", "2", "BLOB", vectorToBytes(vector),
		"LIMIT", "0", strconv.Itoa(k),
		"DIALECT", "2",
	).Build()

	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return parseKNNResult(raw)
}

// parseKNNResult decodes the RESP2 FT.SEARCH reply:
// [total, key1, fields1, key2, fields2, ...].
func parseKNNResult(raw []rueidis.RedisMessage) ([]db.Neighbor, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return nil, nil
	}

	neighbors := make([]db.Neighbor, 0, total)
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		pairs := parseFieldPairs(fields)
		distStr, ok := pairs["__"+db.VectorField+"_score"]
		if !ok {
			continue
		}
		dist, err := strconv.ParseFloat(distStr, 64)
		if err != nil {
			continue
		}

		neighbors = append(neighbors, db.Neighbor{
			Key:        key,
			Similarity: distanceToSimilarity(dist),
		})
	}

	return neighbors, nil
}

// distanceToSimilarity converts cosine distance to similarity, clamped to [0,1].
func distanceToSimilarity(dist float64) float64 {
	sim := 1.0 - dist
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
