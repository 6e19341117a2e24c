package tabledb

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"tabledb/ds"
	"tabledb/row"
	"tabledb/util"
)

// Provider manages the tables living under one root directory. Each table is
// a sub-directory holding its bucket grid and a signature file with its
// schema. Tables are opened lazily and cached until removed or Close.
type Provider struct {
	cfg    ProviderConfig
	mu     sync.Mutex
	tables *ds.AdaptiveRadixTree // name -> *Table
	closed bool
}

func OpenProvider(cfg ProviderConfig) (*Provider, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("%w: empty root directory", ErrInvalidArgument)
	}
	if cfg.Logger == nil {
		cfg.Logger = DefaultProviderConfig(cfg.Root).Logger
	}
	if util.PathExist(cfg.Root) {
		if !util.IsDir(cfg.Root) {
			return nil, fmt.Errorf("%w: %s is not a directory", ErrInvalidArgument, cfg.Root)
		}
	} else if err := os.MkdirAll(cfg.Root, 0755); err != nil {
		return nil, err
	}
	return &Provider{
		cfg:    cfg,
		tables: ds.NewART(),
	}, nil
}

func (p *Provider) Root() string {
	return p.cfg.Root
}

func checkTableName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: bad table name %q", ErrInvalidArgument, name)
	}
	return nil
}

func (p *Provider) cached(name string) *Table {
	if v := p.tables.Get([]byte(name)); v != nil {
		return v.(*Table)
	}
	return nil
}

// CreateTable makes a new empty table and opens it.
func (p *Provider) CreateTable(name string, schema row.Schema) (*Table, error) {
	if err := checkTableName(name); err != nil {
		return nil, err
	}
	if len(schema) == 0 {
		return nil, fmt.Errorf("%w: empty schema", ErrInvalidArgument)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrTableClosed
	}

	dir := filepath.Join(p.cfg.Root, name)
	if util.PathExist(dir) {
		return nil, fmt.Errorf("%w: %s", ErrTableExists, name)
	}
	if err := os.Mkdir(dir, 0755); err != nil {
		return nil, err
	}
	sig := strings.Join(schemaNames(schema), "\t") + "\n"
	if err := os.WriteFile(filepath.Join(dir, SignatureFileName), []byte(sig), 0644); err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}

	t, err := Open(p.cfg.tableConfig(name), schema)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}
	p.tables.Put([]byte(name), t)
	p.cfg.Logger.Info("table created", "table", name, "schema", schema.String())
	return t, nil
}

// GetTable returns the open table called name, opening it from disk on first
// use.
func (p *Provider) GetTable(name string) (*Table, error) {
	if err := checkTableName(name); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrTableClosed
	}
	if t := p.cached(name); t != nil {
		return t, nil
	}

	dir := filepath.Join(p.cfg.Root, name)
	if !util.IsDir(dir) {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	schema, err := readSignature(dir)
	if err != nil {
		return nil, fmt.Errorf("open table %s: %w", name, err)
	}
	t, err := Open(p.cfg.tableConfig(name), schema)
	if err != nil {
		return nil, err
	}
	p.tables.Put([]byte(name), t)
	return t, nil
}

func readSignature(dir string) (row.Schema, error) {
	data, err := os.ReadFile(filepath.Join(dir, SignatureFileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: missing %s", ErrCorruptShard, SignatureFileName)
		}
		return nil, err
	}
	schema, err := row.ParseSchema(strings.Fields(string(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptShard, SignatureFileName, err)
	}
	return schema, nil
}

func schemaNames(schema row.Schema) []string {
	names := make([]string, len(schema))
	for i, c := range schema {
		names[i] = c.String()
	}
	return names
}

// RemoveTable closes the table and deletes its directory.
func (p *Provider) RemoveTable(name string) error {
	if err := checkTableName(name); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrTableClosed
	}

	dir := filepath.Join(p.cfg.Root, name)
	if !util.IsDir(dir) {
		return fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	if t := p.cached(name); t != nil {
		_ = t.Close()
		p.tables.Delete([]byte(name))
	}
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	p.cfg.Logger.Info("table removed", "table", name)
	return nil
}

// TableNames lists, in order, the directories under the root that carry a
// signature file.
func (p *Provider) TableNames() ([]string, error) {
	entries, err := os.ReadDir(p.cfg.Root)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if util.PathExist(filepath.Join(p.cfg.Root, e.Name(), SignatureFileName)) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Close closes every table opened through the provider. Later calls on the
// provider fail with ErrTableClosed.
func (p *Provider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	for _, v := range p.tables.Values() {
		_ = v.(*Table).Close()
	}
	p.tables = ds.NewART()
	p.closed = true
}
