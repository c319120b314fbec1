package heap

import (
	"fmt"
	"sync"

	"github.com/robert-malhotra/phicore/internal/binary"
)

// ID references one object in a global heap collection.
type ID struct {
	Collection uint64
	Index      uint32
}

// VarLenSize is the encoded size of a variable-length element: a 4-byte
// length followed by a heap ID.
func VarLenSize(cfg binary.Config) int { return 4 + cfg.OffsetSize + 4 }

// DecodeVarLen splits a variable-length element into its length and ID.
func DecodeVarLen(b []byte, cfg binary.Config) (uint32, ID) {
	d := binary.NewDecoder(b, cfg)
	n := d.Uint32()
	return n, ID{Collection: d.Addr(), Index: d.Uint32()}
}

// Collection is a decoded global heap collection.
type Collection struct {
	objects map[uint32][]byte
}

// ReadCollection loads the collection at addr.
func ReadCollection(r *binary.Reader, addr uint64) (*Collection, error) {
	cfg := r.Config()
	hr := r.At(int64(addr))
	hdr, err := hr.ReadBytes(8 + cfg.LengthSize)
	if err != nil {
		return nil, fmt.Errorf("reading global heap at %d: %w", addr, err)
	}
	d := binary.NewDecoder(hdr, cfg)
	if string(d.Bytes(4)) != "GCOL" {
		return nil, fmt.Errorf("%w: bad global heap signature at %d", ErrInvalidHeap, addr)
	}
	if v := d.Uint8(); v != 1 {
		return nil, fmt.Errorf("%w: global heap version %d", ErrInvalidHeap, v)
	}
	d.Skip(3)
	size := d.Length()
	if size < uint64(len(hdr)) {
		return nil, fmt.Errorf("%w: collection size %d", ErrInvalidHeap, size)
	}
	body, err := hr.ReadBytes(int(size) - len(hdr))
	if err != nil {
		return nil, fmt.Errorf("reading global heap objects: %w", err)
	}

	c := &Collection{objects: make(map[uint32][]byte)}
	d = binary.NewDecoder(body, cfg)
	for d.Remaining() >= 8+cfg.LengthSize {
		idx := d.Uint16()
		if idx == 0 {
			break // free space
		}
		d.Skip(6) // reference count, reserved
		n := int(d.Length())
		data := d.Bytes(n)
		d.Skip((8 - n%8) % 8)
		if d.Err() != nil {
			return nil, fmt.Errorf("%w: object %d overruns collection", ErrInvalidHeap, idx)
		}
		c.objects[uint32(idx)] = data
	}
	return c, nil
}

// Object returns the bytes of object idx.
func (c *Collection) Object(idx uint32) ([]byte, error) {
	b, ok := c.objects[idx]
	if !ok {
		return nil, fmt.Errorf("%w: no object %d in collection", ErrInvalidHeap, idx)
	}
	return b, nil
}

// Cache memoizes collections by address.
type Cache struct {
	r  *binary.Reader
	mu sync.Mutex
	m  map[uint64]*Collection
}

func NewCache(r *binary.Reader) *Cache {
	return &Cache{r: r, m: make(map[uint64]*Collection)}
}

// Get returns the object an ID refers to. A zero collection address is the
// null reference and yields no bytes.
func (c *Cache) Get(id ID) ([]byte, error) {
	if id.Collection == 0 {
		return nil, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	col, ok := c.m[id.Collection]
	if !ok {
		var err error
		if col, err = ReadCollection(c.r, id.Collection); err != nil {
			return nil, err
		}
		c.m[id.Collection] = col
	}
	return col.Object(id.Index)
}
