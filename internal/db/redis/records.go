package redis

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/rueidis"

	"github.com/kailas-cloud/pdfchat/internal/db"
	"github.com/kailas-cloud/pdfchat/internal/domain"
)

const (
	recordPrefix = domain.KeyPrefix + "records:"
	indexName    = recordPrefix + "idx"
)

var returnFields = []string{
	"document_id", "chunk_index", "source_key", "content",
	"client_id", "chat_mode", "__vector_score",
}

// EnsureSchema creates the record FT index (HNSW, cosine) if it is missing.
func (s *Store) EnsureSchema(ctx context.Context, dim int) error {
	args := []string{
		indexName, "ON", "HASH", "PREFIX", "1", recordPrefix, "SCHEMA",
		"document_id", "TAG",
		"vector", "VECTOR", "HNSW", "6",
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(dim),
		"DISTANCE_METRIC", strings.ToUpper(domain.DefaultVectorConfig().DistanceMetric),
	}
	cmd := s.b().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return nil
		}
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	return nil
}

// InsertRecord appends a record hash under a fresh UUID key. No existence
// check against (document id, chunk index): retries create duplicate rows.
func (s *Store) InsertRecord(ctx context.Context, row *db.RecordRow) error {
	key := recordPrefix + uuid.NewString()
	cmd := s.b().Hset().Key(key).FieldValue().
		FieldValue("document_id", row.DocumentID).
		FieldValue("chunk_index", strconv.Itoa(row.ChunkIndex)).
		FieldValue("source_key", row.SourceKey).
		FieldValue("content", row.Content).
		FieldValue("client_id", row.ClientID).
		FieldValue("chat_mode", strconv.FormatBool(row.ChatMode)).
		FieldValue("vector", vectorToBytes(row.Vector)).
		Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpHSet, Err: err}
	}
	return nil
}

// SearchKNN runs a KNN vector similarity search via FT.SEARCH, with an
// optional document_id TAG pre-filter.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) ([]db.Hit, error) {
	if len(q.Vector) == 0 {
		return nil, fmt.Errorf("vector is required")
	}
	if q.K <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	knnPart := fmt.Sprintf("[KNN %d @vector $BLOB]", q.K)
	queryStr := "*=>" + knnPart
	if q.ScopeDocumentID != "" {
		queryStr = fmt.Sprintf("(@document_id:{%s})=>%s", escapeTag(q.ScopeDocumentID), knnPart)
	}

	args := []string{indexName, queryStr}
	args = append(args, "RETURN", strconv.Itoa(len(returnFields)))
	args = append(args, returnFields...)
	args = append(args, "PARAMS", "2", "BLOB", vectorToBytes(q.Vector), "DIALECT", "2")

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return parseKNNResult(raw)
}

// parseKNNResult converts the RESP2 FT.SEARCH reply into hits ordered by
// ascending distance.
func parseKNNResult(raw []rueidis.RedisMessage) ([]db.Hit, error) {
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

	hits := make([]db.Hit, 0, total)
	// 2-stride: [total, key1, fields1, key2, fields2, ...]
	for i := 1; i+1 < len(raw); i += 2 {
		fieldArr, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}
		fields := parseFieldPairs(fieldArr)

		hit := db.Hit{Row: db.RecordRow{
			DocumentID: fields["document_id"],
			SourceKey:  fields["source_key"],
			Content:    fields["content"],
			ClientID:   fields["client_id"],
			ChatMode:   fields["chat_mode"] == "true",
		}}
		if idx, err := strconv.Atoi(fields["chunk_index"]); err == nil {
			hit.Row.ChunkIndex = idx
		}
		if dist, err := strconv.ParseFloat(fields["__vector_score"], 64); err == nil {
			hit.Score = max(0, 1.0-dist) // cosine distance → similarity, clamped to [0,1]
		}
		hits = append(hits, hit)
	}

	// FT.SEARCH returns KNN hits distance-ordered already; re-sort stably so
	// the ordering contract does not depend on server behavior.
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	return hits, nil
}

func parseFieldPairs(arr []rueidis.RedisMessage) map[string]string {
	fields := make(map[string]string, len(arr)/2)
	for i := 0; i+1 < len(arr); i += 2 {
		k, err := arr[i].ToString()
		if err != nil {
			continue
		}
		v, err := arr[i+1].ToString()
		if err != nil {
			continue
		}
		fields[k] = v
	}
	return fields
}

// vectorToBytes serializes []float32 to the little-endian binary string the
// search module expects for VECTOR fields and KNN params.
func vectorToBytes(v []float32) string {
	b := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(f))
	}
	return string(b)
}

// escapeTag escapes TAG query syntax characters (UUID dashes in particular).
func escapeTag(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`,.<>{}[]"':;!@#$%^&*()-+=~|/\ `, r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
