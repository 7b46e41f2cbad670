package storage

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/snappy"
)

// ErrCorrupt is returned when a snapshot fails an integrity check on load
// (spec.md §7).
var ErrCorrupt = errors.New("storage: corrupt snapshot")

// snapshotMagic and snapshotVersion identify the on-disk format (spec.md
// §6 item 1). The magic and version are stored uncompressed so a reader
// can reject a foreign file before paying for a snappy decode.
var snapshotMagic = [4]byte{'L', 'S', 'D', 'B'}

const snapshotVersion = uint32(1)

// BinaryWriter accumulates a snapshot body using the same length-prefixed
// primitive encoding the teacher's MetaPage and Document codecs use
// (uint16/uint32 length prefixes, little-endian fixed-width fields).
type BinaryWriter struct {
	buf bytes.Buffer
}

// NewBinaryWriter returns an empty writer.
func NewBinaryWriter() *BinaryWriter { return &BinaryWriter{} }

func (w *BinaryWriter) WriteUint32(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	w.buf.Write(tmp[:])
}

func (w *BinaryWriter) WriteInt64(v int64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], uint64(v))
	w.buf.Write(tmp[:])
}

func (w *BinaryWriter) WriteString(s string) {
	w.WriteUint32(uint32(len(s)))
	w.buf.WriteString(s)
}

// WriteInt64Slice writes a length-prefixed slice of int64 cells, the
// encoding used for every Page's raw contents.
func (w *BinaryWriter) WriteInt64Slice(vs []int64) {
	w.WriteUint32(uint32(len(vs)))
	for _, v := range vs {
		w.WriteInt64(v)
	}
}

// Bytes returns the accumulated body.
func (w *BinaryWriter) Bytes() []byte { return w.buf.Bytes() }

// BinaryReader consumes a snapshot body written by BinaryWriter.
type BinaryReader struct {
	data []byte
	off  int
}

// NewBinaryReader wraps data for sequential reads.
func NewBinaryReader(data []byte) *BinaryReader { return &BinaryReader{data: data} }

func (r *BinaryReader) need(n int) error {
	if r.off+n > len(r.data) {
		return ErrCorrupt
	}
	return nil
}

func (r *BinaryReader) ReadUint32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v, nil
}

func (r *BinaryReader) ReadInt64() (int64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := int64(binary.LittleEndian.Uint64(r.data[r.off:]))
	r.off += 8
	return v, nil
}

func (r *BinaryReader) ReadString() (string, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return "", err
	}
	if err := r.need(int(n)); err != nil {
		return "", err
	}
	s := string(r.data[r.off : r.off+int(n)])
	r.off += int(n)
	return s, nil
}

// ReadInt64Slice reads a length-prefixed slice of int64 cells.
func (r *BinaryReader) ReadInt64Slice() ([]int64, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	out := make([]int64, n)
	for i := range out {
		v, err := r.ReadInt64()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Done reports whether the reader has consumed the entire body.
func (r *BinaryReader) Done() bool { return r.off >= len(r.data) }

// encodeFramed prefixes a snappy-compressed body with the magic+version
// header shared by both the on-disk and in-memory snapshot targets.
func encodeFramed(body []byte) []byte {
	compressed := snappy.Encode(nil, body)
	var out bytes.Buffer
	out.Write(snapshotMagic[:])
	var verBuf [4]byte
	binary.LittleEndian.PutUint32(verBuf[:], snapshotVersion)
	out.Write(verBuf[:])
	out.Write(compressed)
	return out.Bytes()
}

// decodeFramed validates the magic+version header and decompresses the
// remaining snappy payload.
func decodeFramed(raw []byte) ([]byte, error) {
	if len(raw) < 8 || [4]byte(raw[:4]) != snapshotMagic {
		return nil, ErrCorrupt
	}
	version := binary.LittleEndian.Uint32(raw[4:8])
	if version != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported snapshot version %d", ErrCorrupt, version)
	}
	body, err := snappy.Decode(nil, raw[8:])
	if err != nil {
		return nil, fmt.Errorf("%w: snappy decode: %v", ErrCorrupt, err)
	}
	return body, nil
}

// PersistSnapshotMem writes body into an in-memory MemFile target, used by
// Database.OpenMemory so the same framing/compression round-trips without
// touching disk.
func PersistSnapshotMem(f *MemFile, body []byte) error {
	f.Reset()
	_, err := f.WriteAt(encodeFramed(body), 0)
	return err
}

// LoadSnapshotMem reads body back from a MemFile target. found is false
// when the file is still empty (nothing has been persisted yet).
func LoadSnapshotMem(f *MemFile) (body []byte, found bool, err error) {
	info, _ := f.Stat()
	if info == nil || info.Size() == 0 {
		return nil, false, nil
	}
	raw := make([]byte, info.Size())
	if _, err := f.ReadAt(raw, 0); err != nil && !errors.Is(err, io.EOF) {
		return nil, true, fmt.Errorf("storage: read mem snapshot: %w", err)
	}
	body, err = decodeFramed(raw)
	if err != nil {
		return nil, true, err
	}
	return body, true, nil
}

// PersistSnapshot writes body to path atomically: encode the header,
// snappy-compress the body, write to a temp file in the same directory,
// fsync, then rename over path (spec.md §4.7 "close serializes... writes
// to a temp file, then renames").
func PersistSnapshot(path string, body []byte) error {
	out := encodeFramed(body)

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".lstore-snapshot-*")
	if err != nil {
		return fmt.Errorf("storage: create temp snapshot: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("storage: write temp snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("storage: sync temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("storage: close temp snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("storage: rename temp snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads and decompresses the body written at path. found is
// false (with a nil error) when path does not exist, matching
// Database.Open's "otherwise create an empty database" branch.
func LoadSnapshot(path string) (body []byte, found bool, err error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("storage: read snapshot: %w", err)
	}
	body, err = decodeFramed(raw)
	if err != nil {
		return nil, true, err
	}
	return body, true, nil
}
