// Package snapshot stores compressed save states in numbered slots.
package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/spf13/afero"
	"github.com/user-none/em99/emu"
)

// Slot files are named slot<N>.e99z inside the store directory.
const (
	slotPrefix = "slot"
	slotExt    = ".e99z"
)

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// Errors returned by the store.
var (
	ErrEmptySlot   = errors.New("snapshot slot is empty")
	ErrInvalidSlot = errors.New("snapshot slot out of range")
	ErrNotState    = errors.New("data is not a save state")
)

// MaxSlots bounds the slot numbers a store accepts.
const MaxSlots = 100

var (
	encoder *zstd.Encoder
	decoder *zstd.Decoder
	codecMu sync.Mutex
)

func codec() (*zstd.Encoder, *zstd.Decoder, error) {
	codecMu.Lock()
	defer codecMu.Unlock()
	if encoder == nil {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if err != nil {
			return nil, nil, err
		}
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, nil, err
		}
		encoder, decoder = enc, dec
	}
	return encoder, decoder, nil
}

// Encode compresses a save state into a single zstd frame.
func Encode(state []byte) ([]byte, error) {
	enc, _, err := codec()
	if err != nil {
		return nil, err
	}
	return enc.EncodeAll(state, make([]byte, 0, len(state)/4)), nil
}

// Decode returns the save state held in data. Uncompressed states are
// accepted as they are.
func Decode(data []byte) ([]byte, error) {
	state := data
	if bytes.HasPrefix(data, zstdMagic) {
		_, dec, err := codec()
		if err != nil {
			return nil, err
		}
		state, err = dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress snapshot: %w", err)
		}
	}
	if _, err := emu.StateVariant(state); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotState, err)
	}
	return state, nil
}

// Store keeps compressed states in a directory and the most recently used
// decoded states in memory.
type Store struct {
	mu    sync.Mutex
	fs    afero.Fs
	dir   string
	cache *lru.Cache[int, []byte]
}

// NewStore creates a store rooted at dir on fs, creating the directory
// when missing. cacheSize is the number of decoded states kept in memory.
func NewStore(fs afero.Fs, dir string, cacheSize int) (*Store, error) {
	if cacheSize < 1 {
		cacheSize = 1
	}
	cache, err := lru.New[int, []byte](cacheSize)
	if err != nil {
		return nil, err
	}
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}
	return &Store{fs: fs, dir: dir, cache: cache}, nil
}

func (s *Store) slotPath(slot int) string {
	return path.Join(s.dir, slotPrefix+strconv.Itoa(slot)+slotExt)
}

func checkSlot(slot int) error {
	if slot < 0 || slot >= MaxSlots {
		return fmt.Errorf("%w: %d", ErrInvalidSlot, slot)
	}
	return nil
}

// Save compresses state into slot, replacing what was there.
func (s *Store) Save(slot int, state []byte) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	if _, err := emu.StateVariant(state); err != nil {
		return fmt.Errorf("%w: %v", ErrNotState, err)
	}
	data, err := Encode(state)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := afero.WriteFile(s.fs, s.slotPath(slot), data, 0644); err != nil {
		return fmt.Errorf("write slot %d: %w", slot, err)
	}
	s.cache.Add(slot, bytes.Clone(state))
	return nil
}

// Load returns the state in slot.
func (s *Store) Load(slot int) ([]byte, error) {
	if err := checkSlot(slot); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if state, ok := s.cache.Get(slot); ok {
		return bytes.Clone(state), nil
	}

	data, err := afero.ReadFile(s.fs, s.slotPath(slot))
	if err != nil {
		if errors.Is(err, afero.ErrFileNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrEmptySlot, slot)
		}
		return nil, fmt.Errorf("read slot %d: %w", slot, err)
	}
	state, err := Decode(data)
	if err != nil {
		return nil, err
	}
	s.cache.Add(slot, state)
	return bytes.Clone(state), nil
}

// Delete removes slot. Deleting an empty slot is not an error.
func (s *Store) Delete(slot int) error {
	if err := checkSlot(slot); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Remove(slot)
	err := s.fs.Remove(s.slotPath(slot))
	if err != nil && !errors.Is(err, afero.ErrFileNotFound) {
		return fmt.Errorf("delete slot %d: %w", slot, err)
	}
	return nil
}

// Slots lists the occupied slots in ascending order.
func (s *Store) Slots() ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return nil, err
	}
	var slots []int
	for _, info := range infos {
		name := info.Name()
		if info.IsDir() || !strings.HasPrefix(name, slotPrefix) || !strings.HasSuffix(name, slotExt) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, slotPrefix), slotExt))
		if err != nil || checkSlot(n) != nil {
			continue
		}
		slots = append(slots, n)
	}
	sort.Ints(slots)
	return slots, nil
}
