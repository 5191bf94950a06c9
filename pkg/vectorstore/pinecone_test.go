package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPineconeStore_RequiresAPIKey(t *testing.T) {
	_, err := NewPineconeStore(PineconeConfig{})
	require.Error(t, err)
}

func TestNewPineconeStore_DefaultsIndexName(t *testing.T) {
	store, err := NewPineconeStore(PineconeConfig{APIKey: "test-key"})
	require.NoError(t, err)
	assert.Equal(t, "standards-engine", store.indexName)
}

func TestNewPineconeStore_KeepsExplicitIndexName(t *testing.T) {
	store, err := NewPineconeStore(PineconeConfig{APIKey: "test-key", IndexName: "standards"})
	require.NoError(t, err)
	assert.Equal(t, "standards", store.indexName)
}

func TestCompilePineconeFilter_Nil(t *testing.T) {
	filter, err := compilePineconeFilter(nil)
	require.NoError(t, err)
	assert.Nil(t, filter)
}

func TestCompilePineconeFilter_Eq(t *testing.T) {
	filter, err := compilePineconeFilter(Eq("standard_no", "IEC-61000"))
	require.NoError(t, err)
	require.NotNil(t, filter)

	field := filter.Fields["standard_no"].GetStructValue()
	require.NotNil(t, field)
	assert.Equal(t, "IEC-61000", field.Fields["$eq"].GetStringValue())
}

func TestCompilePineconeFilter_In(t *testing.T) {
	filter, err := compilePineconeFilter(In("category", "electrical", "mechanical"))
	require.NoError(t, err)
	require.NotNil(t, filter)

	field := filter.Fields["category"].GetStructValue()
	require.NotNil(t, field)
	values := field.Fields["$in"].GetListValue().GetValues()
	require.Len(t, values, 2)
	assert.Equal(t, "electrical", values[0].GetStringValue())
	assert.Equal(t, "mechanical", values[1].GetStringValue())
}

func TestCompilePineconeFilter_AndOr(t *testing.T) {
	filter, err := compilePineconeFilter(And(
		Eq("project", "p1"),
		Or(Eq("category", "a"), Eq("category", "b")),
	))
	require.NoError(t, err)
	require.NotNil(t, filter)

	and := filter.Fields["$and"].GetListValue().GetValues()
	require.Len(t, and, 2)
}

func TestPineconeStore_ScrollCountSetPayload_AreUnsupported(t *testing.T) {
	store, err := NewPineconeStore(PineconeConfig{APIKey: "test-key"})
	require.NoError(t, err)

	_, err = store.Scroll(nil, "collection", nil, 10, "")
	assert.Error(t, err)

	_, err = store.Count(nil, "collection", nil)
	assert.Error(t, err)

	err = store.SetPayload(nil, "collection", "id", map[string]any{"x": 1})
	assert.Error(t, err)
}

func TestPineconeStore_Delete_RequiresIDsOrFilter(t *testing.T) {
	store, err := NewPineconeStore(PineconeConfig{APIKey: "test-key"})
	require.NoError(t, err)

	err = store.Delete(nil, "collection", nil, nil)
	assert.Error(t, err)
}
