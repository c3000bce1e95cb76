// Package jsonrepo is the file-based persistence adapter: one JSON file per
// entity under a storage directory, named {type}_{id}.json. Each file carries
// a type discriminator plus every entity attribute; sets are stored as sorted
// arrays and timestamps as RFC 3339 text.
package jsonrepo

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

func entityPath(dir, entityType string, id int64) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%d.json", entityType, id))
}

func writeRecord(path string, record any) error {
	data, err := json.MarshalIndent(record, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// readRecord loads the file into record. The bool reports presence; a missing
// file is not an error.
func readRecord(path string, record any) (bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, record); err != nil {
		return false, err
	}
	return true, nil
}

func removeRecord(path string) error {
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// listIDs scans the storage directory for files of the given entity type and
// returns their ids. Files that do not match the naming convention are
// skipped.
func listIDs(dir, entityType string) ([]int64, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	prefix := entityType + "_"
	ids := make([]int64, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		raw := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".json")
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func clearType(dir, entityType string) error {
	ids, err := listIDs(dir, entityType)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := removeRecord(entityPath(dir, entityType, id)); err != nil {
			return err
		}
	}
	return nil
}
