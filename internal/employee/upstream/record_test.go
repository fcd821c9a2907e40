package upstream

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordPrefixWins(t *testing.T) {
	var r record
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": "x",
		"name": "Plain", "employee_name": "Prefixed",
		"salary": 1, "employee_salary": 2,
		"title": "Plain title"
	}`), &r))

	e, ok := r.toEmployee()

	require.True(t, ok)
	assert.Equal(t, "Prefixed", e.Name)
	assert.Equal(t, 2, *e.Salary)
	assert.Equal(t, "Plain title", *e.Title)
	assert.Nil(t, e.Age)
}

func TestRecordTrimsID(t *testing.T) {
	e, ok := record{ID: ptr(" a1 "), Name: ptr("Alice")}.toEmployee()

	assert.True(t, ok)
	assert.Equal(t, "a1", e.ID.String())
}

func TestRecordRejectsBlankIdentity(t *testing.T) {
	_, ok := record{Name: ptr("Alice")}.toEmployee()
	assert.False(t, ok)

	_, ok = record{ID: ptr("a1"), PrefixedName: ptr(" ")}.toEmployee()
	assert.False(t, ok)
}

func TestUnwrapIgnoresUnknownFields(t *testing.T) {
	got, err := unwrap[[]int]([]byte(`{"status":"ok","meta":{"x":1},"data":[1,2]}`))

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, *got)
}

func TestUnwrapMissingData(t *testing.T) {
	got, err := unwrap[[]int]([]byte(`{"status":"ok"}`))

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUnwrapWrongShape(t *testing.T) {
	_, err := unwrap[[]int]([]byte(`{"data":"nope"}`))
	assert.Error(t, err)
}

func ptr[T any](v T) *T { return &v }
