package xmetricname

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/omeyang/xreqtrace/pkg/observability/xapptags"
)

func TestBuilder_Tags(t *testing.T) {
	b := NewBuilder(xapptags.ApplicationTags{Application: "shop", Service: "orders"})

	assert.Equal(t, map[string]string{"application": "shop"}, b.Tags(TagOptions{}))

	assert.Equal(t, map[string]string{
		"application": "shop",
		"cluster":     "c1",
		"service":     "orders",
		"shard":       "s1",
		"flask.func":  "get_order",
		"source":      WavefrontProvidedSource,
	}, b.Tags(TagOptions{
		Cluster:  "c1",
		Service:  "orders",
		Shard:    "s1",
		FuncName: "get_order",
		Source:   WavefrontProvidedSource,
	}))
}

func TestBuilder_Shortcuts(t *testing.T) {
	b := NewBuilder(xapptags.ApplicationTags{Application: "shop", Service: "orders"})

	assert.Equal(t, map[string]string{
		"application": "shop",
		"cluster":     "none",
		"service":     "orders",
		"shard":       "none",
		"flask.func":  "f",
	}, b.Complete("f"))

	assert.Equal(t, map[string]string{"application": "shop", "flask.func": "f"}, b.Func("f"))

	assert.Equal(t, map[string]string{
		"application": "shop",
		"cluster":     "none",
		"service":     "orders",
		"shard":       "none",
	}, b.Overall())
}

func TestBuilder_Identity(t *testing.T) {
	b := NewBuilder(xapptags.ApplicationTags{})
	assert.Equal(t, xapptags.NullTagValue, b.Identity().Application)
}
