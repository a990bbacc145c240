package stations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ktx/src/types"
)

func TestResolveCanonicalNames(t *testing.T) {
	code, err := Resolve("서울")
	require.NoError(t, err)
	assert.Equal(t, "NAT010000", code)

	code, err = Resolve("부산")
	require.NoError(t, err)
	assert.Equal(t, "NAT014445", code)
}

func TestResolveAliases(t *testing.T) {
	ulsan, err := Resolve("울산")
	require.NoError(t, err)
	assert.Equal(t, "NATH13717", ulsan)

	canonical, err := Resolve("울산(통도사)")
	require.NoError(t, err)
	assert.Equal(t, canonical, ulsan)

	for _, name := range []string{"여수", "여수엑스포", "여수EXPO"} {
		code, err := Resolve(name)
		require.NoError(t, err)
		assert.Equal(t, "NAT041993", code, name)
	}
}

func TestResolveUnknownStation(t *testing.T) {
	_, err := Resolve("평양")
	require.Error(t, err)
	assert.Equal(t, types.ERR_STATION_NOT_FOUND, types.KindOf(err))
}

func TestKnownAndCode(t *testing.T) {
	assert.True(t, Known("동대구"))
	assert.True(t, Known("울산"))
	assert.False(t, Known("없는역"))

	assert.Equal(t, "NAT013271", Code("동대구"))
	assert.Empty(t, Code("없는역"))
}

func TestAllReturnsCopy(t *testing.T) {
	all := All()
	assert.NotEmpty(t, all)

	all["서울"] = "tampered"
	assert.Equal(t, "NAT010000", Code("서울"), "mutating the copy must not touch the table")
}
