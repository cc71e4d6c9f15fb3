// ABOUTME: Qdrant storage backend over gRPC; one point per chunk, cosine distance
// ABOUTME: Chunk 0 of each document carries the document payload used for listing
package qdrant

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/harper/docqa/internal/models"
	"github.com/harper/docqa/internal/util"
)

// Payload keys
const (
	fieldDocumentID = "document_id"
	fieldChunkIndex = "chunk_index"
	fieldText       = "text"
	fieldSeq        = "seq"
	fieldRawText    = "raw_text"
	fieldMetadata   = "metadata"
	fieldCreatedAt  = "created_at"
	fieldChunkCount = "chunk_count"
)

const scrollPage = 256

// pointNamespace derives stable point ids from document id and chunk index
var pointNamespace = uuid.MustParse("6f1c9a52-3d0e-4c1b-9a57-2f8b1e4d7c90")

// Store implements the storage backend and native cosine search on Qdrant
type Store struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	collection  string
	dimension   int

	// holds the duplicate check and the upsert together
	writeMu sync.Mutex
}

// Open connects to host:port and ensures collection exists with the given vector size
func Open(ctx context.Context, host string, port int, collection string, dimension int) (*Store, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, models.WrapError(models.KindStoreUnavailable, "qdrant connect", err)
	}

	s := newStore(pb.NewPointsClient(conn), pb.NewCollectionsClient(conn), collection, dimension)
	s.conn = conn

	err = util.Retry(ctx, 3, 500*time.Millisecond, isUnavailable, s.ensureCollection)
	if err != nil {
		_ = conn.Close()
		if models.KindOf(err) == models.KindDimensionMismatch {
			return nil, err
		}
		return nil, models.WrapError(models.KindStoreUnavailable, "qdrant connect", err)
	}
	return s, nil
}

func newStore(points pb.PointsClient, collections pb.CollectionsClient, collection string, dimension int) *Store {
	return &Store{
		points:      points,
		collections: collections,
		collection:  collection,
		dimension:   dimension,
	}
}

func isUnavailable(err error) bool {
	return status.Code(err) == codes.Unavailable
}

// ensureCollection creates the collection when missing and checks the
// vector size of an existing one
func (s *Store) ensureCollection(ctx context.Context) error {
	resp, err := s.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return err
	}
	for _, c := range resp.GetCollections() {
		if c.GetName() == s.collection {
			return s.checkDimension(ctx)
		}
	}
	return s.createCollection(ctx)
}

func (s *Store) checkDimension(ctx context.Context) error {
	info, err := s.collections.Get(ctx, &pb.GetCollectionInfoRequest{CollectionName: s.collection})
	if err != nil {
		return err
	}
	// Named vector configs report no single size and are rejected too
	size := info.GetResult().GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()
	if size != uint64(s.dimension) {
		return models.NewError(models.KindDimensionMismatch, "qdrant open",
			"collection %s holds %d-dimensional vectors, embedder produces %d", s.collection, size, s.dimension)
	}
	return nil
}

func (s *Store) createCollection(ctx context.Context) error {
	_, err := s.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &pb.VectorsConfig{Config: &pb.VectorsConfig_Params{Params: &pb.VectorParams{
			Size:     uint64(s.dimension),
			Distance: pb.Distance_Cosine,
		}}},
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", s.collection, err)
	}
	return nil
}

// PointID returns the deterministic point id for a chunk
func PointID(documentID string, index int) string {
	return uuid.NewSHA1(pointNamespace, []byte(documentID+"/"+strconv.Itoa(index))).String()
}

// Insert upserts all chunk points of doc in a single request
func (s *Store) Insert(ctx context.Context, doc *models.Document) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	n, err := s.count(ctx, documentFilter(doc.ID))
	if err != nil {
		return err
	}
	if n > 0 {
		return models.NewError(models.KindDuplicateIdentity, "qdrant insert", "document %q already exists", doc.ID)
	}

	points, err := toPoints(doc)
	if err != nil {
		return err
	}

	wait := true
	_, err = s.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points:         points,
	})
	return err
}

// toPoints converts a document into Qdrant points.
// Seq derives from the creation time so ties order by insertion across processes.
func toPoints(doc *models.Document) ([]*pb.PointStruct, error) {
	meta, err := json.Marshal(doc.Metadata)
	if err != nil {
		return nil, models.WrapError(models.KindInvalidInput, "qdrant insert", err)
	}
	base := doc.CreatedAt.UnixMicro() * 1000

	points := make([]*pb.PointStruct, len(doc.Chunks))
	for i, c := range doc.Chunks {
		payload := map[string]*pb.Value{
			fieldDocumentID: stringValue(doc.ID),
			fieldChunkIndex: intValue(int64(c.Index)),
			fieldText:       stringValue(c.Text),
			fieldSeq:        intValue(base + int64(c.Index)),
		}
		if c.Index == 0 {
			payload[fieldRawText] = stringValue(doc.RawText)
			payload[fieldMetadata] = stringValue(string(meta))
			payload[fieldCreatedAt] = stringValue(doc.CreatedAt.UTC().Format(time.RFC3339Nano))
			payload[fieldChunkCount] = intValue(int64(len(doc.Chunks)))
		}

		vec := make([]float32, len(c.Embedding))
		for j, v := range c.Embedding {
			vec[j] = float32(v)
		}

		points[i] = &pb.PointStruct{
			Id:      &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: PointID(doc.ID, c.Index)}},
			Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: vec}}},
			Payload: payload,
		}
	}
	return points, nil
}

// Documents lists documents by scrolling the chunk-0 points
func (s *Store) Documents(ctx context.Context) ([]models.Document, error) {
	var docs []models.Document
	err := s.scroll(ctx, headFilter(), false, func(payload map[string]*pb.Value, _ []float32) error {
		doc, err := documentFromPayload(payload)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].CreatedAt.Before(docs[j].CreatedAt)
	})
	return docs, nil
}

// Scan visits every chunk with its vector; used for non-cosine metrics
func (s *Store) Scan(ctx context.Context, fn func(models.Chunk) error) error {
	return s.scroll(ctx, nil, true, func(payload map[string]*pb.Value, vec []float32) error {
		c := chunkFromPayload(payload)
		c.Embedding = toFloat64(vec)
		return fn(c)
	})
}

// Search runs a native cosine search
func (s *Store) Search(ctx context.Context, query []float64, k int) ([]models.RetrievalResult, error) {
	vec := make([]float32, len(query))
	for i, v := range query {
		vec[i] = float32(v)
	}

	resp, err := s.points.Search(ctx, &pb.SearchPoints{
		CollectionName: s.collection,
		Vector:         vec,
		Limit:          uint64(k),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
		WithVectors:    &pb.WithVectorsSelector{SelectorOptions: &pb.WithVectorsSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, err
	}

	results := make([]models.RetrievalResult, 0, len(resp.GetResult()))
	for _, pt := range resp.GetResult() {
		c := chunkFromPayload(pt.GetPayload())
		c.Embedding = toFloat64(pt.GetVectors().GetVector().GetData())
		results = append(results, models.RetrievalResult{Chunk: c, Score: float64(pt.GetScore())})
	}

	// Qdrant does not order equal scores; keep earlier inserts first
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.Seq < results[j].Chunk.Seq
	})
	return results, nil
}

// Reset drops and recreates the collection
func (s *Store) Reset(ctx context.Context) (int, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	n, err := s.count(ctx, headFilter())
	if err != nil {
		return 0, err
	}
	if _, err := s.collections.Delete(ctx, &pb.DeleteCollection{CollectionName: s.collection}); err != nil {
		return 0, fmt.Errorf("delete collection %s: %w", s.collection, err)
	}
	if err := s.createCollection(ctx); err != nil {
		return 0, err
	}
	return n, nil
}

// Close closes the gRPC connection
func (s *Store) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func (s *Store) count(ctx context.Context, filter *pb.Filter) (int, error) {
	exact := true
	resp, err := s.points.Count(ctx, &pb.CountPoints{
		CollectionName: s.collection,
		Filter:         filter,
		Exact:          &exact,
	})
	if err != nil {
		return 0, err
	}
	return int(resp.GetResult().GetCount()), nil
}

func (s *Store) scroll(ctx context.Context, filter *pb.Filter, withVectors bool, fn func(map[string]*pb.Value, []float32) error) error {
	limit := uint32(scrollPage)
	var offset *pb.PointId
	for {
		req := &pb.ScrollPoints{
			CollectionName: s.collection,
			Filter:         filter,
			Offset:         offset,
			Limit:          &limit,
			WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
			WithVectors:    &pb.WithVectorsSelector{SelectorOptions: &pb.WithVectorsSelector_Enable{Enable: withVectors}},
		}
		resp, err := s.points.Scroll(ctx, req)
		if err != nil {
			return err
		}
		for _, pt := range resp.GetResult() {
			if err := fn(pt.GetPayload(), pt.GetVectors().GetVector().GetData()); err != nil {
				return err
			}
		}
		offset = resp.GetNextPageOffset()
		if offset == nil {
			return nil
		}
	}
}

func documentFilter(documentID string) *pb.Filter {
	return &pb.Filter{Must: []*pb.Condition{{
		ConditionOneOf: &pb.Condition_Field{Field: &pb.FieldCondition{
			Key:   fieldDocumentID,
			Match: &pb.Match{MatchValue: &pb.Match_Keyword{Keyword: documentID}},
		}},
	}}}
}

// headFilter selects the chunk-0 point of every document
func headFilter() *pb.Filter {
	return &pb.Filter{Must: []*pb.Condition{{
		ConditionOneOf: &pb.Condition_Field{Field: &pb.FieldCondition{
			Key:   fieldChunkIndex,
			Match: &pb.Match{MatchValue: &pb.Match_Integer{Integer: 0}},
		}},
	}}}
}

func chunkFromPayload(payload map[string]*pb.Value) models.Chunk {
	return models.Chunk{
		DocumentID: payload[fieldDocumentID].GetStringValue(),
		Index:      int(payload[fieldChunkIndex].GetIntegerValue()),
		Text:       payload[fieldText].GetStringValue(),
		Seq:        payload[fieldSeq].GetIntegerValue(),
	}
}

func documentFromPayload(payload map[string]*pb.Value) (models.Document, error) {
	doc := models.Document{
		ID:         payload[fieldDocumentID].GetStringValue(),
		RawText:    payload[fieldRawText].GetStringValue(),
		ChunkCount: int(payload[fieldChunkCount].GetIntegerValue()),
		Metadata:   map[string]any{},
	}
	if raw := payload[fieldMetadata].GetStringValue(); raw != "" {
		if err := json.Unmarshal([]byte(raw), &doc.Metadata); err != nil {
			return doc, fmt.Errorf("document %s metadata: %w", doc.ID, err)
		}
	}
	if ts := payload[fieldCreatedAt].GetStringValue(); ts != "" {
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return doc, fmt.Errorf("document %s created_at: %w", doc.ID, err)
		}
		doc.CreatedAt = t
	}
	return doc, nil
}

func stringValue(s string) *pb.Value {
	return &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}}
}

func intValue(n int64) *pb.Value {
	return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: n}}
}

func toFloat64(vec []float32) []float64 {
	if len(vec) == 0 {
		return nil
	}
	out := make([]float64, len(vec))
	for i, v := range vec {
		out[i] = float64(v)
	}
	return out
}
