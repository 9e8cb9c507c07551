package mfs

import "github.com/google/btree"

const indexDegree = 8

type nameItem struct {
	name  string
	value interface{}
}

func (a nameItem) Less(than btree.Item) bool {
	return a.name < than.(nameItem).name
}

// nameIndex maps exact native names to records or folders. The first
// insertion of a name wins, matching a front-to-back scan of the list.
type nameIndex struct {
	tree *btree.BTree
}

func newNameIndex() *nameIndex {
	return &nameIndex{tree: btree.New(indexDegree)}
}

func (ix *nameIndex) insert(name string, value interface{}) {
	if ix.tree.Has(nameItem{name: name}) {
		return
	}
	ix.tree.ReplaceOrInsert(nameItem{name: name, value: value})
}

func (ix *nameIndex) get(name string) (interface{}, bool) {
	if ix == nil {
		return nil, false
	}
	item := ix.tree.Get(nameItem{name: name})
	if item == nil {
		return nil, false
	}
	return item.(nameItem).value, true
}

func (ix *nameIndex) len() int {
	if ix == nil {
		return 0
	}
	return ix.tree.Len()
}
