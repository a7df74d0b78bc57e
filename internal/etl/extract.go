package etl

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/BartekS5/WETL/pkg/logger"
	"github.com/BartekS5/WETL/pkg/models"
)

// CSVExtractor reads a headered CSV file into a Batch. Empty cells become
// nil; numeric-looking cells are parsed into int64/float64.
type CSVExtractor struct {
	Path string
}

func (e *CSVExtractor) Extract(ctx context.Context) (*models.Batch, error) {
	f, err := os.Open(e.Path)
	if err != nil {
		return nil, &ExtractionError{Source: e.Path, Err: err}
	}
	defer f.Close()

	batch, err := readCSV(f)
	if err != nil {
		return nil, &ExtractionError{Source: e.Path, Err: err}
	}
	logger.Infof("extracted %d records from %s", batch.Len(), e.Path)
	return batch, nil
}

func readCSV(r io.Reader) (*models.Batch, error) {
	reader := csv.NewReader(r)
	// Rows shorter than the header are padded with nulls.
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return models.EmptyBatch(), nil
	}
	if err != nil {
		return nil, err
	}

	var records []models.Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rec := make(models.Record, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = parseCSVValue(row[i])
			}
		}
		records = append(records, rec)
	}
	return models.NewBatch(header, records), nil
}

// parseCSVValue infers a scalar from a CSV cell. Empty cells are null.
func parseCSVValue(s string) interface{} {
	if s == "" {
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// JSONExtractor reads a JSON file holding an array of flat objects.
type JSONExtractor struct {
	Path string
}

func (e *JSONExtractor) Extract(ctx context.Context) (*models.Batch, error) {
	data, err := os.ReadFile(e.Path)
	if err != nil {
		return nil, &ExtractionError{Source: e.Path, Err: err}
	}
	batch, err := decodeJSONRecords(data)
	if err != nil {
		return nil, &ExtractionError{Source: e.Path, Err: err}
	}
	logger.Infof("extracted %d records from %s", batch.Len(), e.Path)
	return batch, nil
}

func decodeJSONRecords(data []byte) (*models.Batch, error) {
	var raw []map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("expected a JSON array of objects: %w", err)
	}

	// Column order is the sorted union of keys: JSON object order is not
	// preserved through a map decode.
	colSet := make(map[string]struct{})
	for _, obj := range raw {
		for k := range obj {
			colSet[k] = struct{}{}
		}
	}
	columns := make([]string, 0, len(colSet))
	for k := range colSet {
		columns = append(columns, k)
	}
	sort.Strings(columns)

	records := make([]models.Record, 0, len(raw))
	for _, obj := range raw {
		rec := make(models.Record, len(columns))
		for k, v := range obj {
			rec[k] = flattenJSONValue(v)
		}
		records = append(records, rec)
	}
	return models.NewBatch(columns, records), nil
}

// flattenJSONValue keeps scalars as-is and renders nested structures as
// their JSON text, since batch values are scalar by contract.
func flattenJSONValue(v interface{}) interface{} {
	switch v.(type) {
	case nil, string, float64, bool:
		return v
	default:
		text, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(text)
	}
}

// APIExtractor fetches records from a REST endpoint returning a JSON array.
type APIExtractor struct {
	URL     string
	Method  string
	Headers map[string]string
	Params  map[string]string
	Client  *http.Client
}

func (e *APIExtractor) Extract(ctx context.Context) (*models.Batch, error) {
	method := e.Method
	if method == "" {
		method = http.MethodGet
	}
	client := e.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, method, e.URL, nil)
	if err != nil {
		return nil, &ExtractionError{Source: e.URL, Err: err}
	}
	if len(e.Params) > 0 {
		q := url.Values{}
		for k, v := range e.Params {
			q.Set(k, v)
		}
		req.URL.RawQuery = q.Encode()
	}
	for k, v := range e.Headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &ExtractionError{Source: e.URL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ExtractionError{Source: e.URL, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ExtractionError{Source: e.URL, Err: err}
	}
	batch, err := decodeJSONRecords(body)
	if err != nil {
		return nil, &ExtractionError{Source: e.URL, Err: err}
	}
	logger.Infof("extracted %d records from %s", batch.Len(), e.URL)
	return batch, nil
}

// DirExtractor combines every CSV and JSON file directly under a directory
// into one Batch. Other file types are skipped with a warning; no matching
// files yields an empty Batch.
type DirExtractor struct {
	Dir string
}

func (e *DirExtractor) Extract(ctx context.Context) (*models.Batch, error) {
	entries, err := os.ReadDir(e.Dir)
	if err != nil {
		return nil, &ExtractionError{Source: e.Dir, Err: err}
	}

	var batches []*models.Batch
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(e.Dir, entry.Name())
		var sub Extractor
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".csv":
			sub = &CSVExtractor{Path: path}
		case ".json":
			sub = &JSONExtractor{Path: path}
		default:
			logger.Warnf("skipping unsupported file type: %s", entry.Name())
			continue
		}
		batch, err := sub.Extract(ctx)
		if err != nil {
			return nil, err
		}
		batches = append(batches, batch)
	}

	if len(batches) == 0 {
		logger.Warnf("no CSV or JSON files found in %s", e.Dir)
		return models.EmptyBatch(), nil
	}
	combined := combineBatches(batches)
	logger.Infof("combined %d files into %d records", len(batches), combined.Len())
	return combined, nil
}

// combineBatches concatenates batches over the union of their columns.
// Records keep nil for columns their source file did not have.
func combineBatches(batches []*models.Batch) *models.Batch {
	var columns []string
	seen := make(map[string]struct{})
	total := 0
	for _, b := range batches {
		for _, col := range b.Columns() {
			if _, ok := seen[col]; !ok {
				seen[col] = struct{}{}
				columns = append(columns, col)
			}
		}
		total += b.Len()
	}

	records := make([]models.Record, 0, total)
	for _, b := range batches {
		records = append(records, b.Records()...)
	}
	return models.NewBatch(columns, records)
}

// MongoExtractor reads an entire MongoDB collection into a Batch.
type MongoExtractor struct {
	Client     *mongo.Client
	Database   string
	Collection string
}

func (e *MongoExtractor) Extract(ctx context.Context) (*models.Batch, error) {
	source := e.Database + "." + e.Collection
	coll := e.Client.Database(e.Database).Collection(e.Collection)

	cursor, err := coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, &ExtractionError{Source: source, Err: err}
	}
	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, &ExtractionError{Source: source, Err: err}
	}

	colSet := make(map[string]struct{})
	records := make([]models.Record, 0, len(docs))
	for _, doc := range docs {
		rec := make(models.Record, len(doc))
		for k, v := range doc {
			rec[k] = flattenBSONValue(v)
			colSet[k] = struct{}{}
		}
		records = append(records, rec)
	}
	columns := make([]string, 0, len(colSet))
	for k := range colSet {
		columns = append(columns, k)
	}
	sort.Strings(columns)

	logger.Infof("extracted %d records from %s", len(records), source)
	return models.NewBatch(columns, records), nil
}

// flattenBSONValue maps BSON values onto the batch's scalar types.
func flattenBSONValue(v interface{}) interface{} {
	switch val := v.(type) {
	case primitive.ObjectID:
		return val.Hex()
	case primitive.DateTime:
		return val.Time()
	case primitive.Decimal128:
		return val.String()
	case nil, string, int32, int64, float64, bool, time.Time:
		if i, ok := val.(int32); ok {
			return int64(i)
		}
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}
