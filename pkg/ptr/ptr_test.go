package ptr

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
)

func FuzzPtr_Int64(f *testing.F) {
	f.Add(int64(0))
	f.Add(int64(1))
	f.Add(int64(-100))
	f.Fuzz(func(t *testing.T, i int64) {
		ptr := Ptr(i)
		assert.Equal(t, ptr, &i)
		assert.Equal(t, i, PtrGet(ptr))
	})
}

func FuzzPtr_String(f *testing.F) {
	f.Add("")
	f.Add("abc")
	f.Fuzz(func(t *testing.T, s string) {
		ptr := Ptr(s)
		assert.Equal(t, ptr, &s)
		assert.Equal(t, ptr, FromNull(ToNull(ptr)))
	})
}

func TestPtrGet_Nil(t *testing.T) {
	assert.Equal(t, "", PtrGet[string](nil))
	assert.Equal(t, int64(0), PtrGet[int64](nil))
}

func TestNonZero(t *testing.T) {
	assert.Nil(t, NonZero(""))
	assert.Nil(t, NonZero(int64(0)))
	assert.Equal(t, Ptr("x"), NonZero("x"))
}

func TestNull(t *testing.T) {
	assert.Nil(t, FromNull(sql.Null[int64]{}))
	assert.Equal(t, Ptr(int64(5)), FromNull(sql.Null[int64]{V: 5, Valid: true}))
	assert.False(t, ToNull[string](nil).Valid)
}
