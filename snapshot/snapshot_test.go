package snapshot

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user-none/em99/emu"
)

func makeTestState(t *testing.T, marker uint8) []byte {
	t.Helper()
	c := emu.NewConsole(emu.DefaultConfig())
	c.Chip().WriteVRAM(0x0800, marker)
	state, err := c.Serialize()
	require.NoError(t, err)
	return state
}

func makeTestStore(t *testing.T, cacheSize int) (*Store, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	s, err := NewStore(fs, "/states", cacheSize)
	require.NoError(t, err)
	return s, fs
}

func TestEncodeDecode(t *testing.T) {
	state := makeTestState(t, 0x42)
	data, err := Encode(state)
	require.NoError(t, err)
	assert.Less(t, len(data), len(state), "VRAM is mostly zero and should compress")

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, state, decoded)
}

func TestDecode_RawState(t *testing.T) {
	state := makeTestState(t, 1)
	decoded, err := Decode(state)
	require.NoError(t, err)
	assert.Equal(t, state, decoded)
}

func TestDecode_Rejects(t *testing.T) {
	_, err := Decode([]byte("plain text"))
	assert.ErrorIs(t, err, ErrNotState)

	compressed, err := Encode([]byte("compressed text"))
	require.NoError(t, err)
	_, err = Decode(compressed)
	assert.ErrorIs(t, err, ErrNotState)
}

func TestStore_SaveLoad(t *testing.T) {
	s, fs := makeTestStore(t, 4)
	state := makeTestState(t, 0x99)
	require.NoError(t, s.Save(3, state))

	exists, err := afero.Exists(fs, "/states/slot3.e99z")
	require.NoError(t, err)
	assert.True(t, exists)

	loaded, err := s.Load(3)
	require.NoError(t, err)
	assert.Equal(t, state, loaded)

	// Callers may modify what they get back.
	loaded[0] = 'X'
	again, err := s.Load(3)
	require.NoError(t, err)
	assert.Equal(t, state, again)
}

func TestStore_LoadFromDisk(t *testing.T) {
	s, fs := makeTestStore(t, 1)
	first := makeTestState(t, 1)
	second := makeTestState(t, 2)
	require.NoError(t, s.Save(0, first))
	require.NoError(t, s.Save(1, second)) // evicts slot 0 from the cache

	loaded, err := s.Load(0)
	require.NoError(t, err)
	assert.Equal(t, first, loaded)

	// A fresh store over the same files sees the same slots.
	reopened, err := NewStore(fs, "/states", 2)
	require.NoError(t, err)
	loaded, err = reopened.Load(1)
	require.NoError(t, err)
	assert.Equal(t, second, loaded)
}

func TestStore_EmptySlot(t *testing.T) {
	s, _ := makeTestStore(t, 2)
	_, err := s.Load(7)
	assert.ErrorIs(t, err, ErrEmptySlot)
}

func TestStore_InvalidSlot(t *testing.T) {
	s, _ := makeTestStore(t, 2)
	assert.ErrorIs(t, s.Save(-1, makeTestState(t, 0)), ErrInvalidSlot)
	_, err := s.Load(MaxSlots)
	assert.ErrorIs(t, err, ErrInvalidSlot)
}

func TestStore_RejectsForeignData(t *testing.T) {
	s, _ := makeTestStore(t, 2)
	assert.ErrorIs(t, s.Save(0, []byte("not a state")), ErrNotState)
}

func TestStore_DeleteAndSlots(t *testing.T) {
	s, fs := makeTestStore(t, 4)
	state := makeTestState(t, 5)
	for _, slot := range []int{9, 2, 4} {
		require.NoError(t, s.Save(slot, state))
	}
	require.NoError(t, afero.WriteFile(fs, "/states/notes.txt", []byte("x"), 0644))

	slots, err := s.Slots()
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4, 9}, slots)

	require.NoError(t, s.Delete(4))
	require.NoError(t, s.Delete(4), "deleting an empty slot is not an error")
	_, err = s.Load(4)
	assert.ErrorIs(t, err, ErrEmptySlot)

	slots, err = s.Slots()
	require.NoError(t, err)
	assert.Equal(t, []int{2, 9}, slots)
}
