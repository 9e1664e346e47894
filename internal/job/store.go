package job

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cartoriolabs/acervo-digital/internal/common"
)

// Store persists each job as three JSON documents under
// <root>/jobs/<id>/{inputs,status,result}.json. Writes are atomic
// (temp file + rename) so a concurrent status poll always reads a complete
// snapshot.
type Store struct {
	root string
}

func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(root, "jobs"), 0o755); err != nil {
		return nil, fmt.Errorf("create job store: %w", err)
	}
	return &Store{root: root}, nil
}

func (s *Store) dir(id string) string {
	return filepath.Join(s.root, "jobs", id)
}

func (s *Store) writeDoc(id, name string, v any) error {
	dir := s.dir(id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := filepath.Join(dir, name+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(dir, name))
}

func (s *Store) readDoc(id, name string, v any) error {
	data, err := os.ReadFile(filepath.Join(s.dir(id), name))
	if err != nil {
		if os.IsNotExist(err) {
			return common.ErrNotFound
		}
		return err
	}
	return json.Unmarshal(data, v)
}

func (s *Store) SaveInputs(id string, in *Inputs) error {
	return s.writeDoc(id, "inputs.json", in)
}

func (s *Store) LoadInputs(id string) (*Inputs, error) {
	var in Inputs
	if err := s.readDoc(id, "inputs.json", &in); err != nil {
		return nil, err
	}
	return &in, nil
}

func (s *Store) SaveStatus(st *Status) error {
	return s.writeDoc(st.ID, "status.json", st)
}

func (s *Store) LoadStatus(id string) (*Status, error) {
	var st Status
	if err := s.readDoc(id, "status.json", &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *Store) SaveResult(id string, res *Result) error {
	return s.writeDoc(id, "result.json", res)
}

func (s *Store) LoadResult(id string) (*Result, error) {
	var res Result
	if err := s.readDoc(id, "result.json", &res); err != nil {
		return nil, err
	}
	return &res, nil
}
