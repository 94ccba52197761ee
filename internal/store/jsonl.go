package store

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"swapScope/internal/model"
)

// A complete ladder serializes to one long line.
const maxSnapshotLine = 16 * 1024 * 1024

// JsonlStore appends snapshots to a JSONL file, one snapshot per line.
type JsonlStore struct {
	path string
	mu   sync.Mutex
}

var _ SnapshotStore = (*JsonlStore)(nil)

func NewJsonlStore(path string) *JsonlStore {
	return &JsonlStore{path: path}
}

// SaveSnapshot appends the snapshot as a JSON line.
func (s *JsonlStore) SaveSnapshot(_ context.Context, snap *model.PoolSnapshot) error {
	if snap == nil {
		return fmt.Errorf("nil snapshot")
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	line, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if _, err := writer.Write(line); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}

// LoadLatest scans the file and keeps the highest-block match. Later lines win
// ties, so re-saving a block supersedes the earlier line.
func (s *JsonlStore) LoadLatest(_ context.Context, chainID uint64, pool string) (*model.PoolSnapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("open snapshot file: %w", err)
	}
	defer file.Close()

	var best *model.PoolSnapshot
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSnapshotLine)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		snap := &model.PoolSnapshot{}
		if err := json.Unmarshal(line, snap); err != nil {
			return nil, false, fmt.Errorf("decode snapshot line: %w", err)
		}
		if chainID != 0 && snap.ChainID != chainID {
			continue
		}
		if !strings.EqualFold(snap.Address, pool) {
			continue
		}
		if best == nil || snap.BlockNumber >= best.BlockNumber {
			best = snap
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, false, fmt.Errorf("scan snapshot file: %w", err)
	}
	if best == nil {
		return nil, false, nil
	}
	return best, true, nil
}
