package recordmodel

import (
	"encoding/binary"
	"math"
)

// Binary container head bytes, unchanged from the original wire format:
// array, map and id-map are each followed by a u32 element count.
const (
	headArray byte = 0xD0
	headMap   byte = 0xD1
	headIDMap byte = 0xD2
)

// fieldTerminator is the u16 field index written to close a struct's
// field list; 0 is never a valid field index (indices start at 1).
const fieldTerminator uint16 = 0x0000

func writeInt8(w *WriteBuffer, v int8) { w.grow(1)[0] = byte(v) }

func writeUint8(w *WriteBuffer, v uint8) { w.grow(1)[0] = v }

func writeInt16(w *WriteBuffer, v int16) { writeUint16(w, uint16(v)) }

func writeUint16(w *WriteBuffer, v uint16) {
	binary.BigEndian.PutUint16(w.grow(2), v)
}

func writeInt32(w *WriteBuffer, v int32) { writeUint32(w, uint32(v)) }

func writeUint32(w *WriteBuffer, v uint32) {
	binary.BigEndian.PutUint32(w.grow(4), v)
}

func writeInt64(w *WriteBuffer, v int64) { writeUint64(w, uint64(v)) }

func writeUint64(w *WriteBuffer, v uint64) {
	binary.BigEndian.PutUint64(w.grow(8), v)
}

func writeFloat32(w *WriteBuffer, v float32) { writeUint32(w, math.Float32bits(v)) }

func writeFloat64(w *WriteBuffer, v float64) { writeUint64(w, math.Float64bits(v)) }

func writeBool(w *WriteBuffer, v bool) {
	if v {
		writeUint8(w, 1)
	} else {
		writeUint8(w, 0)
	}
}

func writeString(w *WriteBuffer, v string) error {
	if len(v) > math.MaxUint16 {
		return ErrStringTooLong
	}
	writeUint16(w, uint16(len(v)))
	copy(w.grow(len(v)), v)
	return nil
}

func writeFieldIndex(w *WriteBuffer, index uint16) { writeUint16(w, index) }

func writeContainerHead(w *WriteBuffer, head byte, count uint32) {
	w.grow(1)[0] = head
	writeUint32(w, count)
}

func readInt8(r *ReadBuffer) (int8, error) {
	b, err := r.push(1)
	if err != nil {
		return 0, err
	}
	return int8(b[0]), nil
}

func readUint8(r *ReadBuffer) (uint8, error) {
	b, err := r.push(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func readInt16(r *ReadBuffer) (int16, error) {
	v, err := readUint16(r)
	return int16(v), err
}

func readUint16(r *ReadBuffer) (uint16, error) {
	b, err := r.push(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func readInt32(r *ReadBuffer) (int32, error) {
	v, err := readUint32(r)
	return int32(v), err
}

func readUint32(r *ReadBuffer) (uint32, error) {
	b, err := r.push(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func readInt64(r *ReadBuffer) (int64, error) {
	v, err := readUint64(r)
	return int64(v), err
}

func readUint64(r *ReadBuffer) (uint64, error) {
	b, err := r.push(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func readFloat32(r *ReadBuffer) (float32, error) {
	v, err := readUint32(r)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func readFloat64(r *ReadBuffer) (float64, error) {
	v, err := readUint64(r)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

func readBool(r *ReadBuffer) (bool, error) {
	v, err := readUint8(r)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

func readString(r *ReadBuffer) (string, error) {
	n, err := readUint16(r)
	if err != nil {
		return "", err
	}
	b, err := r.push(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func readFieldIndex(r *ReadBuffer) (uint16, error) {
	return readUint16(r)
}

func readContainerHead(r *ReadBuffer, want byte) (uint32, error) {
	b, err := r.push(1)
	if err != nil {
		return 0, err
	}
	if b[0] != want {
		return 0, ErrInvalidContainerHead
	}
	return readUint32(r)
}
