package program

import (
	"fmt"
	"os"
)

// Storage is the flat, byte-addressable medium programs are read from.
// Reads never fail.
type Storage interface {
	Load(offset, length int) []byte
}

// Image is an in-memory flash image.
type Image []byte

// NewImage returns a zeroed image large enough for the setlist and every
// program slot.
func NewImage() Image {
	return make(Image, ImageSize)
}

// ReadImage reads a flash image file.
func ReadImage(path string) (Image, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return Image(b), nil
}

// WriteFile writes the image to path.
func (im Image) WriteFile(path string) error {
	if err := os.WriteFile(path, im, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	return nil
}

// Load copies length bytes at offset. Bytes past the end of the image read
// as zero.
func (im Image) Load(offset, length int) []byte {
	out := make([]byte, length)
	if offset >= 0 && offset < len(im) {
		copy(out, im[offset:])
	}
	return out
}

// PutSetList stores the setlist record.
func (im Image) PutSetList(sl SetList) error {
	b, err := sl.MarshalBinary()
	if err != nil {
		return err
	}
	copy(im[0:SetListSize], b)
	return nil
}

// PutProgram stores p in slot index.
func (im Image) PutProgram(index int, p Program) error {
	if index < 0 || index >= ProgramCount {
		return fmt.Errorf("program: slot %d out of range", index)
	}
	b, err := p.MarshalBinary()
	if err != nil {
		return fmt.Errorf("program %d: %w", index+1, err)
	}
	off := AddressOf(index)
	copy(im[off:off+ProgramSize], b)
	return nil
}

// AddressOf returns the storage offset of program slot index, clamped to
// the valid slots.
func AddressOf(index int) int {
	return SetListSize + clampIndex(index)*ProgramSize
}

func clampIndex(index int) int {
	return max(0, min(index, ProgramCount-1))
}

// Store is the read-only repository of programs and the setlist.
type Store struct {
	st Storage
}

func NewStore(st Storage) *Store {
	return &Store{st: st}
}

// SetList loads the setlist record.
func (s *Store) SetList() SetList {
	var sl SetList
	_ = sl.UnmarshalBinary(s.st.Load(0, SetListSize))
	return sl
}

// Load returns a copy of program slot index.
func (s *Store) Load(index int) Program {
	var p Program
	_ = p.UnmarshalBinary(s.st.Load(AddressOf(index), ProgramSize))
	return p
}

// AddressOf returns the storage offset of program slot index.
func (s *Store) AddressOf(index int) int {
	return AddressOf(index)
}

// NameOf returns the stored name of program slot index; empty when unnamed.
func (s *Store) NameOf(index int) string {
	return s.Load(index).Name
}
