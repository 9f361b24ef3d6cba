package mutation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestSet(t *testing.T) {
	var tr Tracker
	name := "alice"

	Set(&tr, "username", &name, "alice")
	assert.False(t, tr.Changed())

	Set(&tr, "username", &name, "bob")
	assert.True(t, tr.Changed())
	assert.Equal(t, "bob", name)
	assert.Equal(t, []string{"username"}, tr.Fields())
}

func TestSetNullable(t *testing.T) {
	var tr Tracker
	var desc *string

	SetNullable(&tr, "description", &desc, nil)
	assert.False(t, tr.Changed())

	next := ptr("front door")
	SetNullable(&tr, "description", &desc, next)
	assert.Equal(t, "front door", *desc)
	assert.NotSame(t, next, desc)

	SetNullable(&tr, "description", &desc, ptr("front door"))
	assert.Len(t, tr.Fields(), 1)

	SetNullable(&tr, "description", &desc, nil)
	assert.Nil(t, desc)
	assert.Equal(t, []string{"description", "description"}, tr.Fields())
}

func TestSetIfPresent(t *testing.T) {
	var tr Tracker
	enabled := true

	SetIfPresent(&tr, "enabled", &enabled, nil)
	assert.False(t, tr.Changed())

	SetIfPresent(&tr, "enabled", &enabled, ptr(true))
	assert.False(t, tr.Changed())

	SetIfPresent(&tr, "enabled", &enabled, ptr(false))
	assert.False(t, enabled)
	assert.True(t, tr.Changed())
}

func TestFieldsIsACopy(t *testing.T) {
	var tr Tracker
	tr.Mark("roles")
	fields := tr.Fields()
	fields[0] = "mutated"
	assert.Equal(t, []string{"roles"}, tr.Fields())
}

func TestSameSet(t *testing.T) {
	tests := []struct {
		name string
		a, b []int64
		want bool
	}{
		{"both empty", nil, []int64{}, true},
		{"same order", []int64{1, 2}, []int64{1, 2}, true},
		{"different order", []int64{2, 1}, []int64{1, 2}, true},
		{"duplicates ignored", []int64{1, 1, 2}, []int64{2, 1}, true},
		{"extra member", []int64{1}, []int64{1, 2}, false},
		{"missing member", []int64{1, 2}, []int64{1}, false},
		{"disjoint", []int64{3}, []int64{4}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SameSet(tt.a, tt.b))
		})
	}
}
