package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"tabledb"
	"tabledb/row"
)

// session runs table commands against one transaction and prints their
// results the way the interactive shell does.
type session struct {
	tx    *tabledb.Tx
	codec row.Codec
	out   io.Writer
}

func newSession(t *tabledb.Table, out io.Writer) (*session, error) {
	tx, err := t.Begin()
	if err != nil {
		return nil, err
	}
	return &session{tx: tx, codec: row.XMLCodec{}, out: out}, nil
}

func (s *session) schema() row.Schema {
	return s.tx.Table().Schema()
}

func (s *session) format(r *row.Row) (string, error) {
	return s.codec.Serialize(s.schema(), r)
}

func (s *session) put(key, text string) error {
	r, err := s.codec.Parse(s.schema(), text)
	if err != nil {
		return err
	}
	old, err := s.tx.Put(key, r)
	if err != nil {
		return err
	}
	if old == nil {
		fmt.Fprintln(s.out, "new")
		return nil
	}
	prev, err := s.format(old)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, "overwrite")
	fmt.Fprintln(s.out, prev)
	return nil
}

func (s *session) get(key string) error {
	r, err := s.tx.Get(key)
	if err != nil {
		return err
	}
	if r == nil {
		fmt.Fprintln(s.out, "not found")
		return nil
	}
	text, err := s.format(r)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, "found")
	fmt.Fprintln(s.out, text)
	return nil
}

func (s *session) remove(key string) error {
	r, err := s.tx.Remove(key)
	if err != nil {
		return err
	}
	if r == nil {
		fmt.Fprintln(s.out, "not found")
	} else {
		fmt.Fprintln(s.out, "removed")
	}
	return nil
}

func (s *session) list() error {
	keys, err := s.tx.List()
	if err != nil {
		return err
	}
	sort.Strings(keys)
	fmt.Fprintln(s.out, strings.Join(keys, ", "))
	return nil
}

func (s *session) size() error {
	n, err := s.tx.Size()
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, n)
	return nil
}

func (s *session) commit() error {
	n, err := s.tx.Commit()
	fmt.Fprintln(s.out, n)
	return err
}

func (s *session) rollback() {
	fmt.Fprintln(s.out, s.tx.Rollback())
}
