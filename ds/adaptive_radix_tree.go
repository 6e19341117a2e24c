package ds

import (
	art "github.com/plar/go-adaptive-radix-tree"
)

// AdaptiveRadixTree is an ordered byte-keyed index. It is not safe for
// concurrent use.
type AdaptiveRadixTree struct {
	tree art.Tree
}

func NewART() *AdaptiveRadixTree {
	return &AdaptiveRadixTree{
		tree: art.New(),
	}
}

func (t *AdaptiveRadixTree) Get(key []byte) interface{} {
	value, _ := t.tree.Search(key)
	return value
}

func (t *AdaptiveRadixTree) Put(key []byte, value interface{}) (oldVal interface{}, updated bool) {
	return t.tree.Insert(key, value)
}

func (t *AdaptiveRadixTree) Delete(key []byte) (val interface{}, updated bool) {
	return t.tree.Delete(key)
}

func (t *AdaptiveRadixTree) Size() int {
	return t.tree.Size()
}

// Values returns every stored value in ascending key order.
func (t *AdaptiveRadixTree) Values() []interface{} {
	values := make([]interface{}, 0, t.tree.Size())
	t.tree.ForEach(func(node art.Node) bool {
		values = append(values, node.Value())
		return true
	})
	return values
}
