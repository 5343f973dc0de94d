package storage

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/rcastelli/plandb/pkg/domain"
)

const (
	// Magic bytes identifying a plandb snapshot file
	MagicBytes = "PLDB"
	// Current snapshot format version
	FormatVersion = 1
	// File extension for snapshot files
	FileExtension = ".plandb"
)

// FileHeader is the fixed-size header of a snapshot file.
type FileHeader struct {
	Magic    [4]byte // "PLDB"
	Version  uint8
	Flags    uint8   // Reserved
	Reserved [2]byte // Reserved
}

// WriteHeader writes the snapshot header to the given writer.
func WriteHeader(w io.Writer) error {
	header := FileHeader{
		Magic:   [4]byte{'P', 'L', 'D', 'B'},
		Version: FormatVersion,
	}
	return binary.Write(w, binary.LittleEndian, header)
}

// ReadHeader reads and validates the snapshot header.
func ReadHeader(r io.Reader) (*FileHeader, error) {
	var header FileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if string(header.Magic[:]) != MagicBytes {
		return nil, fmt.Errorf("invalid file format: expected %s, got %s", MagicBytes, string(header.Magic[:]))
	}
	if header.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported file version: %d", header.Version)
	}
	return &header, nil
}

// StorageData is the snapshot payload: documents per collection plus the
// index shapes. Index contents are rebuilt from the documents on load,
// so only definitions travel.
type StorageData struct {
	Collections map[string]map[string]domain.Document `msgpack:"collections"`
	IndexDefs   map[string][]domain.IndexDef          `msgpack:"index_defs,omitempty"`
	Metadata    map[string]interface{}                `msgpack:"metadata,omitempty"`
}

// NewStorageData creates an empty snapshot payload.
func NewStorageData() *StorageData {
	return &StorageData{
		Collections: make(map[string]map[string]domain.Document),
		IndexDefs:   make(map[string][]domain.IndexDef),
		Metadata:    make(map[string]interface{}),
	}
}
