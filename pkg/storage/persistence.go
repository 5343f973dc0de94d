package storage

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/pierrec/lz4/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// SaveToFile writes a compressed snapshot of all collections and index
// definitions. An empty filename falls back to the configured data file.
func (se *StorageEngine) SaveToFile(filename string) error {
	if filename == "" {
		filename = se.dataFile
	}
	if filename == "" {
		return fmt.Errorf("no snapshot file configured")
	}

	storageData := NewStorageData()

	se.mu.RLock()
	colls := make([]*collection, 0, len(se.collections))
	for _, coll := range se.collections {
		colls = append(colls, coll)
	}
	se.mu.RUnlock()

	for _, coll := range colls {
		coll.buildMu.RLock()
		storageData.Collections[coll.name] = coll.snapshotDocs()
		coll.buildMu.RUnlock()
	}
	storageData.IndexDefs = se.indexes.ExportDefs()
	storageData.Metadata["saved_at"] = time.Now().UTC()

	msgpackData, err := msgpack.Marshal(storageData)
	if err != nil {
		return fmt.Errorf("failed to encode MessagePack: %w", err)
	}

	compressedData := make([]byte, lz4.CompressBlockBound(len(msgpackData)))
	var hashTable [1 << 16]int
	n, err := lz4.CompressBlock(msgpackData, compressedData, hashTable[:])
	if err != nil {
		return fmt.Errorf("failed to compress data: %w", err)
	}
	compressedData = compressedData[:n]

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if err := WriteHeader(file); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if _, err := file.Write(compressedData); err != nil {
		return fmt.Errorf("failed to write compressed data: %w", err)
	}
	log.Printf("INFO: saved snapshot to %s (%d collections)", filename, len(storageData.Collections))
	return nil
}

// LoadFromFile restores collections from a snapshot and rebuilds every
// index from its persisted definition. A missing file is not an error:
// the engine starts empty.
func (se *StorageEngine) LoadFromFile(filename string) error {
	if filename == "" {
		filename = se.dataFile
	}
	if filename == "" {
		return fmt.Errorf("no snapshot file configured")
	}

	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if _, err := ReadHeader(file); err != nil {
		return fmt.Errorf("invalid file header: %w", err)
	}

	compressedData, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("failed to read compressed data: %w", err)
	}

	// Snapshot payloads compress well; grow the buffer until the block
	// fits.
	var decompressedData []byte
	for size := len(compressedData)*4 + 1024; ; size *= 2 {
		decompressedData = make([]byte, size)
		n, err := lz4.UncompressBlock(compressedData, decompressedData)
		if err == nil {
			decompressedData = decompressedData[:n]
			break
		}
		if size > len(compressedData)*256 {
			return fmt.Errorf("failed to decompress data: %w", err)
		}
	}

	var storageData StorageData
	if err := msgpack.Unmarshal(decompressedData, &storageData); err != nil {
		return fmt.Errorf("failed to decode MessagePack: %w", err)
	}

	for collName, docs := range storageData.Collections {
		coll := se.getOrCreateCollection(collName)
		for docID, doc := range docs {
			if doc.ID() == "" {
				doc = doc.Clone()
				doc["_id"] = docID
			}
			coll.docs.Store(docID, doc)
			coll.docCount.Add(1)
		}
	}

	for collName, defs := range storageData.IndexDefs {
		for _, def := range defs {
			if _, err := se.CreateIndex(collName, def); err != nil {
				log.Printf("WARN: could not rebuild index %q on %q: %v", def.CanonicalName(), collName, err)
			}
		}
	}

	log.Printf("INFO: loaded snapshot from %s (%d collections)", filename, len(storageData.Collections))
	return nil
}
