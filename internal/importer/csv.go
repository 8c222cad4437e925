// Package importer loads SAM.gov CSV contract exports into storage.
package importer

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/saintfish/chardet"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"

	"samscope/internal/models"
	"samscope/internal/storage"
)

// detectSampleSize bounds how much of the file is fed to charset detection.
const detectSampleSize = 10 * 1024

// Importer reads contract CSV files and persists them.
type Importer struct {
	store  storage.Storage
	logger *zap.Logger
}

// Option configures an Importer.
type Option func(*Importer)

// WithLogger sets a logger for import logging.
func WithLogger(l *zap.Logger) Option {
	return func(i *Importer) { i.logger = l }
}

// NewImporter creates an importer writing to store.
func NewImporter(store storage.Storage, opts ...Option) *Importer {
	imp := &Importer{store: store}
	for _, opt := range opts {
		opt(imp)
	}
	return imp
}

// ImportFile parses the CSV file at path and upserts its rows. Character
// encoding is auto-detected per file. Rows missing required fields are
// dropped by the store; the import itself only fails on I/O or malformed
// CSV structure. Returns the number of contracts persisted.
func (i *Importer) ImportFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read csv file: %w", err)
	}
	contracts, err := Parse(data)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	n, err := i.store.UpsertContracts(ctx, contracts)
	if err != nil {
		return 0, err
	}
	if i.logger != nil {
		i.logger.Info("csv imported",
			zap.String("path", path),
			zap.Int("rows", len(contracts)),
			zap.Int("persisted", n))
	}
	return n, nil
}

// Parse decodes CSV bytes into contracts. The first row is the header;
// each subsequent row becomes a contract keyed by header name, with the
// full row kept as the opaque payload.
func Parse(data []byte) ([]*models.Contract, error) {
	reader := csv.NewReader(decodingReader(data))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty csv file")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var contracts []*models.Contract
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		row := make(map[string]string, len(header))
		for idx, name := range header {
			if idx < len(record) {
				row[name] = record[idx]
			}
		}
		contracts = append(contracts, models.FromRow(row))
	}
	return contracts, nil
}

// decodingReader wraps data in a reader that converts the detected
// character encoding to UTF-8. Falls back to the raw bytes when detection
// or encoder lookup fails, or when the file is already UTF-8.
func decodingReader(data []byte) io.Reader {
	sample := data
	if len(sample) > detectSampleSize {
		sample = sample[:detectSampleSize]
	}
	result, err := chardet.NewTextDetector().DetectBest(sample)
	if err != nil || result == nil || result.Charset == "UTF-8" {
		return bytes.NewReader(data)
	}
	enc, err := ianaindex.IANA.Encoding(result.Charset)
	if err != nil || enc == nil {
		return bytes.NewReader(data)
	}
	return transform.NewReader(bytes.NewReader(data), enc.NewDecoder())
}
