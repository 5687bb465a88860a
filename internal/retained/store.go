// internal/retained/store.go
package retained

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"

	"github.com/jtn0123/ESP32-Temp-Sensor-sub001/internal/diag"
)

// Store is the single accessor for retained memory. All mutation of the
// Record goes through Load/Commit; Commit is atomic with respect to power
// loss (write-then-rename with a validity checksum).
type Store struct {
	path     string
	capacity int
	log      *diag.Logger
}

const (
	recordMagic   uint32 = 0x45535052 // "ESPR"
	recordVersion uint16 = 1
)

var errCorrupt = errors.New("retained: record corrupt")

// NewStore creates a store backed by one file. capacity is the offline
// queue capacity used when a fresh record is created.
func NewStore(path string, capacity int, log *diag.Logger) *Store {
	return &Store{path: path, capacity: capacity, log: log}
}

// Fresh returns a zeroed record, as after a power-on reset.
func (s *Store) Fresh() *Record {
	return &Record{
		Queue: QueueState{Slots: make([]Sample, s.capacity)},
	}
}

// Load reads the retained record. A missing, truncated, or checksum-invalid
// file yields a fresh record with fresh=true; that is how a power-on reset
// (or first boot) presents itself. IO errors other than not-exist are
// returned so the caller can decide.
func (s *Store) Load() (rec *Record, fresh bool, err error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return s.Fresh(), true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("retained: read: %w", err)
	}

	rec, err = unmarshalRecord(raw)
	if err != nil {
		s.log.Warnf("Retained: invalid record, starting fresh (%v)", err)
		return s.Fresh(), true, nil
	}
	return rec, false, nil
}

// Commit durably writes the record. The image is fully assembled and
// checksummed before any byte reaches disk; the rename publishes it
// atomically, so a power cut leaves either the old record or the new one,
// never a torn write.
func (s *Store) Commit(rec *Record) error {
	img := marshalRecord(rec)

	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("retained: open tmp: %w", err)
	}
	if _, err := f.Write(img); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("retained: write: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("retained: sync: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("retained: close: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("retained: commit: %w", err)
	}

	// Best-effort directory sync so the rename itself is durable.
	if d, err := os.Open(filepath.Dir(s.path)); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}

// ---- binary image ----

// Image layout:
//
//	magic(4) crc32(4) body
//
// body:
//
//	version(2) slotCount(2) BootState WifiCache queue-fixed slots
//
// All integers little-endian. The CRC covers the body only.

func marshalRecord(rec *Record) []byte {
	var body bytes.Buffer

	binary.Write(&body, binary.LittleEndian, recordVersion)
	binary.Write(&body, binary.LittleEndian, uint16(len(rec.Queue.Slots)))
	binary.Write(&body, binary.LittleEndian, rec.Boot)
	binary.Write(&body, binary.LittleEndian, rec.Wifi)
	binary.Write(&body, binary.LittleEndian, queueFixed{
		Head:    rec.Queue.Head,
		Tail:    rec.Queue.Tail,
		NextSeq: rec.Queue.NextSeq,
		Queued:  rec.Queue.Queued,
		Drained: rec.Queue.Drained,
		Dropped: rec.Queue.Dropped,
	})
	binary.Write(&body, binary.LittleEndian, rec.Queue.Slots)

	out := make([]byte, 8, 8+body.Len())
	binary.LittleEndian.PutUint32(out[0:4], recordMagic)
	binary.LittleEndian.PutUint32(out[4:8], crc32.ChecksumIEEE(body.Bytes()))
	return append(out, body.Bytes()...)
}

type queueFixed struct {
	Head    uint32
	Tail    uint32
	NextSeq uint32
	Queued  uint32
	Drained uint32
	Dropped uint32
}

func unmarshalRecord(raw []byte) (*Record, error) {
	if len(raw) < 8 {
		return nil, errCorrupt
	}
	if binary.LittleEndian.Uint32(raw[0:4]) != recordMagic {
		return nil, fmt.Errorf("%w: bad magic", errCorrupt)
	}
	body := raw[8:]
	if binary.LittleEndian.Uint32(raw[4:8]) != crc32.ChecksumIEEE(body) {
		return nil, fmt.Errorf("%w: checksum mismatch", errCorrupt)
	}

	r := bytes.NewReader(body)

	var version uint16
	var slotCount uint16
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, errCorrupt
	}
	if version != recordVersion {
		return nil, fmt.Errorf("%w: version %d", errCorrupt, version)
	}
	if err := binary.Read(r, binary.LittleEndian, &slotCount); err != nil {
		return nil, errCorrupt
	}

	rec := &Record{}
	if err := binary.Read(r, binary.LittleEndian, &rec.Boot); err != nil {
		return nil, errCorrupt
	}
	if err := binary.Read(r, binary.LittleEndian, &rec.Wifi); err != nil {
		return nil, errCorrupt
	}
	var qf queueFixed
	if err := binary.Read(r, binary.LittleEndian, &qf); err != nil {
		return nil, errCorrupt
	}
	rec.Queue.Head = qf.Head
	rec.Queue.Tail = qf.Tail
	rec.Queue.NextSeq = qf.NextSeq
	rec.Queue.Queued = qf.Queued
	rec.Queue.Drained = qf.Drained
	rec.Queue.Dropped = qf.Dropped

	rec.Queue.Slots = make([]Sample, slotCount)
	if err := binary.Read(r, binary.LittleEndian, rec.Queue.Slots); err != nil {
		return nil, errCorrupt
	}
	return rec, nil
}
