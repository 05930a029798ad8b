// FILE: strategic-logger/internal/pool/tasks.go
package pool

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/gzip"
)

// Built-in task kinds. KindFormatEntry is reserved for strategies that
// register their own rendering function against it.
const (
	KindFormatEntry    = "format-entry"
	KindSerializeValue = "serialize-value"
	KindCompressBatch  = "compress-batch"
	KindEncodeBatch    = "encode-batch"
)

// EncodeBatchRequest asks for a batch of formatted records to be encoded
// to wire bytes: a JSON array, gzip-compressed when Compress is set.
type EncodeBatchRequest struct {
	Records  []map[string]any
	Compress bool
}

func (p *Pool) registerBuiltins() {
	p.tasks[KindSerializeValue] = serializeValue
	p.tasks[KindCompressBatch] = compressPayload
	p.tasks[KindEncodeBatch] = encodeBatch
}

// serializeValue renders an arbitrary value to JSON bytes.
func serializeValue(payload any) (any, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("pool: serialize failed: %w", err)
	}
	return data, nil
}

// compressPayload gzips a byte slice.
func compressPayload(payload any) (any, error) {
	data, ok := payload.([]byte)
	if !ok {
		return nil, fmt.Errorf("pool: compress expects []byte, got %T", payload)
	}
	return gzipBytes(data)
}

// encodeBatch combines JSON array encoding and optional compression in a
// single task so a network batch crosses the worker boundary once.
func encodeBatch(payload any) (any, error) {
	req, ok := payload.(EncodeBatchRequest)
	if !ok {
		return nil, fmt.Errorf("pool: encode-batch expects EncodeBatchRequest, got %T", payload)
	}

	body, err := json.Marshal(req.Records)
	if err != nil {
		return nil, fmt.Errorf("pool: batch encode failed: %w", err)
	}
	if !req.Compress {
		return body, nil
	}
	return gzipBytes(body)
}

func gzipBytes(data []byte) (any, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		zw.Close()
		return nil, fmt.Errorf("pool: gzip write failed: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("pool: gzip close failed: %w", err)
	}
	return buf.Bytes(), nil
}
