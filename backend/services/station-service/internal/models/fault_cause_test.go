package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFaultCauseSet_OrderIndependentEquality(t *testing.T) {
	a := NewFaultCauseSet(1, 3)
	b := NewFaultCauseSet(3, 1)
	c := NewFaultCauseSet(3, 1, 3)

	assert.True(t, a.Equal(b))
	assert.True(t, a.Equal(c))
	assert.Equal(t, []int64{1, 3}, c.IDs())
	assert.False(t, a.Equal(NewFaultCauseSet(1, 3, 5)))
	assert.True(t, FaultCauseSet{}.Equal(NewFaultCauseSet()))
}

func TestFaultCauseSet_NoStringAmbiguity(t *testing.T) {
	// {1,10} and {11,0} would collide if compared as concatenated digits.
	assert.False(t, NewFaultCauseSet(1, 10).Equal(NewFaultCauseSet(11, 0)))
	assert.False(t, NewFaultCauseSet(1, 10).Equal(NewFaultCauseSet(110)))
}

func TestFaultCauseSet_Contains(t *testing.T) {
	set := NewFaultCauseSet(5, 2, 9)
	assert.True(t, set.Contains(2))
	assert.True(t, set.Contains(9))
	assert.False(t, set.Contains(3))
	assert.Equal(t, 3, set.Len())
}

func TestFaultCauseSet_Validate(t *testing.T) {
	assert.NoError(t, NewFaultCauseSet(1, 2).Validate())
	assert.Error(t, NewFaultCauseSet(0, 2).Validate())
	assert.Error(t, NewFaultCauseSet(-4).Validate())
}

func TestFaultCauseSet_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Causes FaultCauseSet `json:"causes"`
	}{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"causes":[]}`, string(data))

	var decoded struct {
		Causes FaultCauseSet `json:"causes"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"causes":[5,2,5]}`), &decoded))
	assert.Equal(t, []int64{2, 5}, decoded.Causes.IDs())

	require.NoError(t, json.Unmarshal([]byte(`{"causes":"3,1"}`), &decoded))
	assert.Equal(t, []int64{1, 3}, decoded.Causes.IDs())

	require.NoError(t, json.Unmarshal([]byte(`{"causes":null}`), &decoded))
	assert.True(t, decoded.Causes.IsEmpty())

	assert.Error(t, json.Unmarshal([]byte(`{"causes":{"a":1}}`), &decoded))
	assert.Error(t, json.Unmarshal([]byte(`{"causes":"1,x"}`), &decoded))
}
