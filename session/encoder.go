package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"sort"
)

const (
	recordFormatVersionCurrent = 1
	familyFormatVersionCurrent = 1

	maxMetadataEntries = 64
	maxFamilyMembers   = 255
)

var errInvalidFormat = errors.New("invalid record format version")

// EncodeRecord serializes a session record into the versioned binary layout.
func EncodeRecord(r *Record) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(recordFormatVersionCurrent)

	if err := writeShort(&buf, r.SessionID, "sessionID"); err != nil {
		return nil, err
	}
	if err := writeShort(&buf, r.UserID, "userID"); err != nil {
		return nil, err
	}
	if err := writeShort(&buf, r.FamilyID, "familyID"); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, r.Version); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, r.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, r.LastRefreshed); err != nil {
		return nil, err
	}

	if len(r.Metadata) > maxMetadataEntries {
		return nil, errors.New("metadata has too many entries")
	}
	buf.WriteByte(byte(len(r.Metadata)))

	// sorted so equal records encode to equal bytes
	keys := make([]string, 0, len(r.Metadata))
	for k := range r.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := writeShort(&buf, k, "metadata key"); err != nil {
			return nil, err
		}
		if err := writeLong(&buf, r.Metadata[k]); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

// DecodeRecord parses bytes produced by EncodeRecord.
func DecodeRecord(data []byte) (*Record, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != recordFormatVersionCurrent {
		return nil, errInvalidFormat
	}

	r := &Record{}
	if r.SessionID, err = readShort(reader); err != nil {
		return nil, err
	}
	if r.UserID, err = readShort(reader); err != nil {
		return nil, err
	}
	if r.FamilyID, err = readShort(reader); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &r.Version); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &r.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &r.LastRefreshed); err != nil {
		return nil, err
	}

	count, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if count > maxMetadataEntries {
		return nil, errors.New("metadata has too many entries")
	}
	if count > 0 {
		r.Metadata = make(map[string]string, count)
		for i := 0; i < int(count); i++ {
			k, err := readShort(reader)
			if err != nil {
				return nil, err
			}
			v, err := readLong(reader)
			if err != nil {
				return nil, err
			}
			r.Metadata[k] = v
		}
	}

	if reader.Len() != 0 {
		return nil, errors.New("trailing bytes in session record")
	}
	return r, nil
}

// EncodeFamily serializes a family record.
func EncodeFamily(f *FamilyRecord) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(familyFormatVersionCurrent)

	if err := writeShort(&buf, f.FamilyID, "familyID"); err != nil {
		return nil, err
	}
	if err := writeShort(&buf, f.SessionID, "sessionID"); err != nil {
		return nil, err
	}
	if err := writeShort(&buf, f.UserID, "userID"); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, f.Version); err != nil {
		return nil, err
	}
	if len(f.Members) > maxFamilyMembers {
		return nil, errors.New("family has too many members")
	}
	buf.WriteByte(byte(len(f.Members)))
	for _, m := range f.Members {
		buf.Write(m[:])
	}

	return buf.Bytes(), nil
}

// DecodeFamily parses bytes produced by EncodeFamily.
func DecodeFamily(data []byte) (*FamilyRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != familyFormatVersionCurrent {
		return nil, errInvalidFormat
	}

	f := &FamilyRecord{}
	if f.FamilyID, err = readShort(reader); err != nil {
		return nil, err
	}
	if f.SessionID, err = readShort(reader); err != nil {
		return nil, err
	}
	if f.UserID, err = readShort(reader); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &f.Version); err != nil {
		return nil, err
	}

	count, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	f.Members = make([][32]byte, count)
	for i := range f.Members {
		if _, err := io.ReadFull(reader, f.Members[i][:]); err != nil {
			return nil, err
		}
	}

	if reader.Len() != 0 {
		return nil, errors.New("trailing bytes in family record")
	}
	return f, nil
}

func writeShort(buf *bytes.Buffer, s, field string) error {
	if len(s) > 255 {
		return errors.New(field + " too long")
	}
	buf.WriteByte(byte(len(s)))
	buf.WriteString(s)
	return nil
}

func writeLong(buf *bytes.Buffer, s string) error {
	if len(s) > 0xFFFF {
		return errors.New("metadata value too long")
	}
	if err := binary.Write(buf, binary.BigEndian, uint16(len(s))); err != nil {
		return err
	}
	buf.WriteString(s)
	return nil
}

func readShort(reader *bytes.Reader) (string, error) {
	n, err := reader.ReadByte()
	if err != nil {
		return "", err
	}
	out := make([]byte, n)
	if _, err := io.ReadFull(reader, out); err != nil {
		return "", err
	}
	return string(out), nil
}

func readLong(reader *bytes.Reader) (string, error) {
	var n uint16
	if err := binary.Read(reader, binary.BigEndian, &n); err != nil {
		return "", err
	}
	out := make([]byte, n)
	if _, err := io.ReadFull(reader, out); err != nil {
		return "", err
	}
	return string(out), nil
}
