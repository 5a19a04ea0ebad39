// Package encoding implements the canonical msgpack subset used for
// transaction hashing and signing. Canonical means: map keys sorted
// lexicographically by raw byte value, zero-valued entries omitted,
// integers packed in the shortest unsigned form, and byte strings
// always in the bin format family. The output for a given record is
// byte-identical to the network's own encoding of the same content.
package encoding

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"sort"

	"github.com/pkg/errors"
)

// Value is one node of a canonical record. The closed set of
// implementations is Uint, Bool, String, Bin, Array and Map.
type Value interface {
	isValue()
}

type Uint uint64

type Bool bool

type String string

type Bin []byte

type Array []Value

// KV is a single map entry. Entries are kept in insertion order inside
// Map; Encode sorts them.
type KV struct {
	Key   string
	Value Value
}

type Map []KV

func (Uint) isValue()   {}
func (Bool) isValue()   {}
func (String) isValue() {}
func (Bin) isValue()    {}
func (Array) isValue()  {}
func (Map) isValue()    {}

// Get returns the value stored under key, if present.
func (m Map) Get(key string) (Value, bool) {
	for _, kv := range m {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return nil, false
}

// Has reports whether key is present.
func (m Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Without returns a copy of m with key removed.
func (m Map) Without(key string) Map {
	out := make(Map, 0, len(m))
	for _, kv := range m {
		if kv.Key != key {
			out = append(out, kv)
		}
	}
	return out
}

// Uint returns the unsigned integer under key, or 0 if absent.
func (m Map) Uint(key string) (uint64, error) {
	v, ok := m.Get(key)
	if !ok {
		return 0, nil
	}
	u, ok := v.(Uint)
	if !ok {
		return 0, errors.Errorf("key '%s' is not an unsigned integer", key)
	}
	return uint64(u), nil
}

// Bool returns the boolean under key, or false if absent.
func (m Map) Bool(key string) (bool, error) {
	v, ok := m.Get(key)
	if !ok {
		return false, nil
	}
	b, ok := v.(Bool)
	if !ok {
		return false, errors.Errorf("key '%s' is not a boolean", key)
	}
	return bool(b), nil
}

// String returns the string under key, or "" if absent.
func (m Map) String(key string) (string, error) {
	v, ok := m.Get(key)
	if !ok {
		return "", nil
	}
	s, ok := v.(String)
	if !ok {
		return "", errors.Errorf("key '%s' is not a string", key)
	}
	return string(s), nil
}

// Bin returns the byte string under key, or nil if absent.
func (m Map) Bin(key string) ([]byte, error) {
	v, ok := m.Get(key)
	if !ok {
		return nil, nil
	}
	b, ok := v.(Bin)
	if !ok {
		return nil, errors.Errorf("key '%s' is not a byte string", key)
	}
	return []byte(b), nil
}

// Array returns the array under key, or nil if absent.
func (m Map) Array(key string) (Array, error) {
	v, ok := m.Get(key)
	if !ok {
		return nil, nil
	}
	a, ok := v.(Array)
	if !ok {
		return nil, errors.Errorf("key '%s' is not an array", key)
	}
	return a, nil
}

// Map returns the nested map under key, or nil if absent.
func (m Map) Map(key string) (Map, error) {
	v, ok := m.Get(key)
	if !ok {
		return nil, nil
	}
	n, ok := v.(Map)
	if !ok {
		return nil, errors.Errorf("key '%s' is not a map", key)
	}
	return n, nil
}

// isZero reports whether v is the zero value of its type and therefore
// must be omitted from a canonical map. Nested maps are not considered
// zero: an explicitly present empty map encodes as such.
func isZero(v Value) bool {
	switch t := v.(type) {
	case nil:
		return true
	case Uint:
		return t == 0
	case Bool:
		return !bool(t)
	case String:
		return t == ""
	case Bin:
		return len(t) == 0
	case Array:
		return len(t) == 0
	default:
		return false
	}
}

// Encode serializes v into canonical msgpack.
func Encode(v Value) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := encodeValue(buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeValue(buf *bytes.Buffer, v Value) error {
	switch t := v.(type) {
	case Uint:
		encodeUint(buf, uint64(t))
	case Bool:
		if t {
			buf.WriteByte(0xc3)
		} else {
			buf.WriteByte(0xc2)
		}
	case String:
		if err := encodeStringHeader(buf, len(t)); err != nil {
			return err
		}
		buf.WriteString(string(t))
	case Bin:
		if len(t) > math.MaxUint32 {
			return errors.New("byte string too long")
		}
		switch {
		case len(t) <= math.MaxUint8:
			buf.WriteByte(0xc4)
			buf.WriteByte(byte(len(t)))
		case len(t) <= math.MaxUint16:
			buf.WriteByte(0xc5)
			writeUint16(buf, uint16(len(t)))
		default:
			buf.WriteByte(0xc6)
			writeUint32(buf, uint32(len(t)))
		}
		buf.Write(t)
	case Array:
		switch {
		case len(t) <= 15:
			buf.WriteByte(0x90 | byte(len(t)))
		case len(t) <= math.MaxUint16:
			buf.WriteByte(0xdc)
			writeUint16(buf, uint16(len(t)))
		default:
			buf.WriteByte(0xdd)
			writeUint32(buf, uint32(len(t)))
		}
		for _, item := range t {
			if err := encodeValue(buf, item); err != nil {
				return err
			}
		}
	case Map:
		return encodeMap(buf, t)
	default:
		return errors.Errorf("unsupported value type %T", v)
	}
	return nil
}

func encodeMap(buf *bytes.Buffer, m Map) error {
	entries := make(Map, 0, len(m))
	for _, kv := range m {
		if isZero(kv.Value) {
			continue
		}
		entries = append(entries, kv)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	for i := 1; i < len(entries); i++ {
		if entries[i].Key == entries[i-1].Key {
			return errors.Errorf("duplicate map key '%s'", entries[i].Key)
		}
	}
	switch {
	case len(entries) <= 15:
		buf.WriteByte(0x80 | byte(len(entries)))
	case len(entries) <= math.MaxUint16:
		buf.WriteByte(0xde)
		writeUint16(buf, uint16(len(entries)))
	default:
		buf.WriteByte(0xdf)
		writeUint32(buf, uint32(len(entries)))
	}
	for _, kv := range entries {
		if err := encodeStringHeader(buf, len(kv.Key)); err != nil {
			return err
		}
		buf.WriteString(kv.Key)
		if err := encodeValue(buf, kv.Value); err != nil {
			return err
		}
	}
	return nil
}

func encodeUint(buf *bytes.Buffer, u uint64) {
	switch {
	case u <= 0x7f:
		buf.WriteByte(byte(u))
	case u <= math.MaxUint8:
		buf.WriteByte(0xcc)
		buf.WriteByte(byte(u))
	case u <= math.MaxUint16:
		buf.WriteByte(0xcd)
		writeUint16(buf, uint16(u))
	case u <= math.MaxUint32:
		buf.WriteByte(0xce)
		writeUint32(buf, uint32(u))
	default:
		buf.WriteByte(0xcf)
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], u)
		buf.Write(b[:])
	}
}

func encodeStringHeader(buf *bytes.Buffer, l int) error {
	switch {
	case l <= 31:
		buf.WriteByte(0xa0 | byte(l))
	case l <= math.MaxUint8:
		buf.WriteByte(0xd9)
		buf.WriteByte(byte(l))
	case l <= math.MaxUint16:
		buf.WriteByte(0xda)
		writeUint16(buf, uint16(l))
	case l <= math.MaxUint32:
		buf.WriteByte(0xdb)
		writeUint32(buf, uint32(l))
	default:
		return errors.New("string too long")
	}
	return nil
}

func writeUint16(buf *bytes.Buffer, u uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], u)
	buf.Write(b[:])
}

func writeUint32(buf *bytes.Buffer, u uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], u)
	buf.Write(b[:])
}

// Decode parses exactly one canonical msgpack record from data and
// fails if any bytes remain.
func Decode(data []byte) (Value, error) {
	d := NewDecoder(bytes.NewReader(data))
	v, err := d.Decode()
	if err != nil {
		return nil, err
	}
	if _, err := d.r.ReadByte(); err != io.EOF {
		return nil, errors.New("trailing bytes after msgpack record")
	}
	return v, nil
}

// Decoder reads a stream of concatenated msgpack records. Records
// carry no framing, so Decode consumes exactly one record per call and
// returns io.EOF once the stream is exhausted.
type Decoder struct {
	r *bufio.Reader
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Decode reads the next record from the stream.
func (d *Decoder) Decode() (Value, error) {
	return d.decodeValue()
}

func (d *Decoder) decodeValue() (Value, error) {
	c, err := d.r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch {
	case c <= 0x7f: // positive fixint
		return Uint(c), nil
	case c >= 0xa0 && c <= 0xbf: // fixstr
		return d.decodeString(int(c & 0x1f))
	case c >= 0x80 && c <= 0x8f: // fixmap
		return d.decodeMap(int(c & 0x0f))
	case c >= 0x90 && c <= 0x9f: // fixarray
		return d.decodeArray(int(c & 0x0f))
	}
	switch c {
	case 0xc2:
		return Bool(false), nil
	case 0xc3:
		return Bool(true), nil
	case 0xcc:
		u, err := d.readUint(1)
		return Uint(u), err
	case 0xcd:
		u, err := d.readUint(2)
		return Uint(u), err
	case 0xce:
		u, err := d.readUint(4)
		return Uint(u), err
	case 0xcf:
		u, err := d.readUint(8)
		return Uint(u), err
	case 0xc4:
		l, err := d.readUint(1)
		if err != nil {
			return nil, err
		}
		return d.decodeBin(int(l))
	case 0xc5:
		l, err := d.readUint(2)
		if err != nil {
			return nil, err
		}
		return d.decodeBin(int(l))
	case 0xc6:
		l, err := d.readUint(4)
		if err != nil {
			return nil, err
		}
		return d.decodeBin(int(l))
	case 0xd9:
		l, err := d.readUint(1)
		if err != nil {
			return nil, err
		}
		return d.decodeString(int(l))
	case 0xda:
		l, err := d.readUint(2)
		if err != nil {
			return nil, err
		}
		return d.decodeString(int(l))
	case 0xdb:
		l, err := d.readUint(4)
		if err != nil {
			return nil, err
		}
		return d.decodeString(int(l))
	case 0xdc:
		l, err := d.readUint(2)
		if err != nil {
			return nil, err
		}
		return d.decodeArray(int(l))
	case 0xdd:
		l, err := d.readUint(4)
		if err != nil {
			return nil, err
		}
		return d.decodeArray(int(l))
	case 0xde:
		l, err := d.readUint(2)
		if err != nil {
			return nil, err
		}
		return d.decodeMap(int(l))
	case 0xdf:
		l, err := d.readUint(4)
		if err != nil {
			return nil, err
		}
		return d.decodeMap(int(l))
	}
	return nil, errors.Errorf("unsupported msgpack type byte 0x%02x", c)
}

func (d *Decoder) readUint(size int) (uint64, error) {
	b := make([]byte, size)
	if _, err := io.ReadFull(d.r, b); err != nil {
		return 0, errors.Wrap(err, "truncated msgpack data")
	}
	var u uint64
	for _, c := range b {
		u = u<<8 | uint64(c)
	}
	return u, nil
}

func (d *Decoder) decodeString(l int) (Value, error) {
	b := make([]byte, l)
	if _, err := io.ReadFull(d.r, b); err != nil {
		return nil, errors.Wrap(err, "truncated msgpack string")
	}
	return String(b), nil
}

func (d *Decoder) decodeBin(l int) (Value, error) {
	b := make([]byte, l)
	if _, err := io.ReadFull(d.r, b); err != nil {
		return nil, errors.Wrap(err, "truncated msgpack byte string")
	}
	return Bin(b), nil
}

func (d *Decoder) decodeArray(l int) (Value, error) {
	a := make(Array, l)
	for i := range a {
		v, err := d.decodeValue()
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, errors.Wrap(err, "truncated msgpack array")
		}
		a[i] = v
	}
	return a, nil
}

func (d *Decoder) decodeMap(l int) (Value, error) {
	m := make(Map, 0, l)
	for i := 0; i < l; i++ {
		k, err := d.decodeValue()
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, errors.Wrap(err, "truncated msgpack map")
		}
		key, ok := k.(String)
		if !ok {
			return nil, errors.New("msgpack map key is not a string")
		}
		v, err := d.decodeValue()
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, errors.Wrapf(err, "truncated msgpack map value for key '%s'", key)
		}
		m = append(m, KV{Key: string(key), Value: v})
	}
	return m, nil
}
