package shape

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func makeObject() *Node {
	return &Node{
		Types: []Kind{KindObject, KindNull},
		Fields: []Field{
			{Key: "aaa", Node: New(KindString), Required: true},
			{Key: "bbb", Node: New(KindInteger), Required: false},
		},
	}
}

func TestNullable(t *testing.T) {
	k, ok := makeObject().Nullable()
	assert.True(t, ok)
	assert.Equal(t, KindObject, k)

	k, ok = (&Node{Types: []Kind{KindNull, KindString}}).Nullable()
	assert.True(t, ok)
	assert.Equal(t, KindString, k)

	_, ok = (&Node{Types: []Kind{KindString, KindInteger}}).Nullable()
	assert.False(t, ok)

	_, ok = New(KindNull).Nullable()
	assert.False(t, ok)

	_, ok = (&Node{Types: []Kind{KindString, KindInteger, KindNull}}).Nullable()
	assert.False(t, ok)
}

func TestKeysAndRequired(t *testing.T) {
	n := makeObject()
	assert.Equal(t, []string{"aaa", "bbb"}, n.Keys())
	assert.Equal(t, []string{"aaa"}, n.RequiredKeys())

	f, ok := n.Field("bbb")
	assert.True(t, ok)
	assert.False(t, f.Required)
	assert.True(t, f.Node.Has(KindInteger))

	_, ok = n.Field("ccc")
	assert.False(t, ok)
}

func TestOnlyDropsForeignStructure(t *testing.T) {
	n := makeObject()
	assert.Len(t, n.Only(KindObject).Fields, 2)
	assert.Empty(t, n.Only(KindNull).Fields)
	assert.True(t, n.Only(KindDate).Date)
}

func TestNilNode(t *testing.T) {
	var n *Node
	assert.False(t, n.Has(KindString))
	assert.False(t, n.Union())
	assert.Nil(t, n.Keys())
}
