package tmindex

import (
	"context"
	"fmt"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.uber.org/zap"

	"github.com/legalmt/hct/internal/errs"
	"github.com/legalmt/hct/internal/logging"
)

// milvusIVFNList and milvusSearchNProbe are the exact index/search
// parameters spec.md §6 mandates for the cosine IVF_FLAT index.
const (
	milvusIVFNList     = 128
	milvusSearchNProbe = 10
)

// VectorConfig configures the Milvus-backed vector branch of the hybrid
// index. Unset Dimension is a hard error — spec.md §4.3: "create_collection
// refuses to proceed if unset."
type VectorConfig struct {
	Host           string
	Port           int
	CollectionName string
	Dimension      int
}

func (c VectorConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("%w: tmindex: milvus host is required", errs.ConfigError)
	}
	if c.CollectionName == "" {
		return fmt.Errorf("%w: tmindex: milvus collection name is required", errs.ConfigError)
	}
	if c.Dimension <= 0 {
		return fmt.Errorf("%w: tmindex: milvus vector dimension must be > 0", errs.ConfigError)
	}
	return nil
}

const (
	fieldID         = "id"
	fieldVector     = "vector"
	fieldText       = "text"
	fieldSourceLang = "source_lang"
	fieldTargetLang = "target_lang"
	fieldDomain     = "domain"
	fieldCreatedAt  = "created_at"
)

// VectorStore wraps a Milvus collection matching the schema spec.md §6
// names exactly: {id:varchar(255) primary, vector:float_vector(D),
// text:varchar(65535), source_lang:varchar(10), target_lang:varchar(10),
// domain:varchar(100), created_at:int64}, cosine IVF_FLAT(nlist=128).
// Grounded on ai/providers/vectorstores/qdrant/store.go's
// Config+Validate+constructor and create-collection-if-missing shape,
// retargeted at Milvus since the corpus carries no Milvus client.
type VectorStore struct {
	cfg    VectorConfig
	client client.Client
	log    *zap.Logger
}

// NewVectorStore dials Milvus. When initializeSchema is true it also
// ensures the collection (and its cosine IVF_FLAT index) exists, creating
// it if missing, and loads it; otherwise the collection is not checked.
func NewVectorStore(ctx context.Context, cfg VectorConfig, initializeSchema bool, logger *zap.Logger) (*VectorStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Nop()
	}

	c, err := client.NewClient(ctx, client.Config{Address: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)})
	if err != nil {
		return nil, fmt.Errorf("%w: tmindex: connect milvus: %v", errs.StorageError, err)
	}

	store := &VectorStore{cfg: cfg, client: c, log: logger.Named("tmindex.milvus")}
	if initializeSchema {
		if err := store.ensureCollection(ctx); err != nil {
			c.Close()
			return nil, err
		}
	}
	return store, nil
}

func (v *VectorStore) ensureCollection(ctx context.Context) error {
	exists, err := v.client.HasCollection(ctx, v.cfg.CollectionName)
	if err != nil {
		return fmt.Errorf("%w: tmindex: has collection: %v", errs.StorageError, err)
	}
	if exists {
		return v.client.LoadCollection(ctx, v.cfg.CollectionName, false)
	}

	schema := entity.NewSchema().WithName(v.cfg.CollectionName).WithDescription("translation memory").
		WithField(entity.NewField().WithName(fieldID).WithDataType(entity.FieldTypeVarChar).WithMaxLength(255).WithIsPrimaryKey(true)).
		WithField(entity.NewField().WithName(fieldVector).WithDataType(entity.FieldTypeFloatVector).WithDim(int64(v.cfg.Dimension))).
		WithField(entity.NewField().WithName(fieldText).WithDataType(entity.FieldTypeVarChar).WithMaxLength(65535)).
		WithField(entity.NewField().WithName(fieldSourceLang).WithDataType(entity.FieldTypeVarChar).WithMaxLength(10)).
		WithField(entity.NewField().WithName(fieldTargetLang).WithDataType(entity.FieldTypeVarChar).WithMaxLength(10)).
		WithField(entity.NewField().WithName(fieldDomain).WithDataType(entity.FieldTypeVarChar).WithMaxLength(100)).
		WithField(entity.NewField().WithName(fieldCreatedAt).WithDataType(entity.FieldTypeInt64))

	if err := v.client.CreateCollection(ctx, schema, 2); err != nil {
		return fmt.Errorf("%w: tmindex: create collection: %v", errs.StorageError, err)
	}

	idx, err := entity.NewIndexIvfFlat(entity.COSINE, milvusIVFNList)
	if err != nil {
		return fmt.Errorf("%w: tmindex: build index params: %v", errs.StorageError, err)
	}
	if err := v.client.CreateIndex(ctx, v.cfg.CollectionName, fieldVector, idx, false); err != nil {
		return fmt.Errorf("%w: tmindex: create index: %v", errs.StorageError, err)
	}
	if err := v.client.LoadCollection(ctx, v.cfg.CollectionName, false); err != nil {
		return fmt.Errorf("%w: tmindex: load collection: %v", errs.StorageError, err)
	}
	return nil
}

// Insert inserts entries that carry a SourceVector. Entries with no
// vector are silently skipped — they only ever live in the BM25 branch.
func (v *VectorStore) Insert(ctx context.Context, entries []Entry) error {
	ids := make([]string, 0, len(entries))
	vectors := make([][]float32, 0, len(entries))
	texts := make([]string, 0, len(entries))
	sourceLangs := make([]string, 0, len(entries))
	targetLangs := make([]string, 0, len(entries))
	domains := make([]string, 0, len(entries))
	createdAts := make([]int64, 0, len(entries))

	for _, e := range entries {
		if len(e.SourceVector) == 0 {
			continue
		}
		ids = append(ids, e.ID)
		vectors = append(vectors, e.SourceVector)
		texts = append(texts, e.vectorText())
		sourceLangs = append(sourceLangs, e.SourceLang)
		targetLangs = append(targetLangs, e.TargetLang)
		domains = append(domains, e.Domain)
		createdAts = append(createdAts, time.Now().Unix())
	}
	if len(ids) == 0 {
		return nil
	}

	columns := []entity.Column{
		entity.NewColumnVarChar(fieldID, ids),
		entity.NewColumnFloatVector(fieldVector, v.cfg.Dimension, vectors),
		entity.NewColumnVarChar(fieldText, texts),
		entity.NewColumnVarChar(fieldSourceLang, sourceLangs),
		entity.NewColumnVarChar(fieldTargetLang, targetLangs),
		entity.NewColumnVarChar(fieldDomain, domains),
		entity.NewColumnInt64(fieldCreatedAt, createdAts),
	}

	if _, err := v.client.Insert(ctx, v.cfg.CollectionName, "", columns...); err != nil {
		return fmt.Errorf("%w: tmindex: insert: %v", errs.StorageError, err)
	}
	return nil
}

// Search runs a cosine-similarity nearest-neighbor search with
// nprobe=10, filtering by langs via a boolean expression pushed down to
// Milvus, per spec.md §4.3.
func (v *VectorStore) Search(ctx context.Context, queryVector []float32, sourceLang, targetLang string, topK int) ([]Result, error) {
	sp, err := entity.NewIndexIvfFlatSearchParam(milvusSearchNProbe)
	if err != nil {
		return nil, fmt.Errorf("%w: tmindex: search params: %v", errs.StorageError, err)
	}

	expr := ""
	if sourceLang != "" {
		expr = fmt.Sprintf("%s == \"%s\"", fieldSourceLang, sourceLang)
	}
	if targetLang != "" {
		clause := fmt.Sprintf("%s == \"%s\"", fieldTargetLang, targetLang)
		if expr == "" {
			expr = clause
		} else {
			expr = expr + " && " + clause
		}
	}

	results, err := v.client.Search(ctx, v.cfg.CollectionName, nil, expr,
		[]string{fieldText, fieldSourceLang, fieldTargetLang, fieldDomain},
		[]entity.Vector{entity.FloatVector(queryVector)}, fieldVector,
		entity.COSINE, topK, sp)
	if err != nil {
		return nil, fmt.Errorf("%w: tmindex: search: %v", errs.StorageError, err)
	}

	var out []Result
	for _, r := range results {
		for i := 0; i < r.ResultCount; i++ {
			id, _ := r.IDs.GetAsString(i)
			out = append(out, Result{
				Entry: Entry{ID: id},
				Score: float64(r.Scores[i]),
			})
		}
	}
	return out, nil
}

// Close releases the Milvus connection.
func (v *VectorStore) Close() error {
	return v.client.Close()
}
