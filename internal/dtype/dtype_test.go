package dtype

import (
	"encoding/binary"
	"errors"
	"math"
	"reflect"
	"testing"

	binpkg "github.com/robert-malhotra/phicore/internal/binary"
	"github.com/robert-malhotra/phicore/internal/heap"
	"github.com/robert-malhotra/phicore/internal/message"
)

var cfg = binpkg.DefaultConfig()

func TestGoType(t *testing.T) {
	tests := []struct {
		name string
		dt   *message.Datatype
		want reflect.Type
	}{
		{"int8", message.NewInteger(1, true), int8Type},
		{"uint8", message.NewInteger(1, false), uint8Type},
		{"int16", message.NewInteger(2, true), int16Type},
		{"uint16", message.NewInteger(2, false), uint16Type},
		{"int32", message.NewInteger(4, true), int32Type},
		{"uint32", message.NewInteger(4, false), uint32Type},
		{"int64", message.NewInteger(8, true), int64Type},
		{"uint64", message.NewInteger(8, false), uint64Type},
		{"float32", message.NewFloat(4), float32Type},
		{"float64", message.NewFloat(8), float64Type},
		{"string", message.NewString(8, message.CharsetASCII), stringType},
		{"vlen string", message.NewVarLenString(message.CharsetUTF8), stringType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GoType(tt.dt)
			if err != nil {
				t.Fatalf("GoType: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGoTypeUnsupported(t *testing.T) {
	for _, dt := range []*message.Datatype{
		nil,
		{Class: message.ClassCompound, Size: 16},
		{Class: message.ClassFixedPoint, Size: 3},
		{Class: message.ClassFloatPoint, Size: 8}, // no IEEE properties
	} {
		if _, err := GoType(dt); !errors.Is(err, ErrUnsupported) {
			t.Errorf("GoType(%v) error = %v, want ErrUnsupported", dt, err)
		}
	}
	if IsNumeric(message.NewString(4, message.CharsetASCII)) {
		t.Error("string reported numeric")
	}
	if !IsNumeric(message.NewInteger(2, false)) {
		t.Error("uint16 not numeric")
	}
}

func TestDecodeBigEndian(t *testing.T) {
	dt := message.NewInteger(4, true)
	dt.BigEndian = true
	data := binary.BigEndian.AppendUint32(nil, uint32(0xfffffffe))
	data = binary.BigEndian.AppendUint32(data, 7)

	v, err := Decode(dt, data, 2, cfg, nil)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := v.([]int32); !reflect.DeepEqual(got, []int32{-2, 7}) {
		t.Errorf("got %v", got)
	}
}

func TestDecodeShortData(t *testing.T) {
	if _, err := Decode(message.NewFloat(8), make([]byte, 12), 2, cfg, nil); err == nil {
		t.Fatal("expected error for truncated data")
	}
}

func TestEncodeDecode(t *testing.T) {
	tests := []any{
		[]int8{-1, 2},
		[]uint16{1, 65535},
		[]int32{math.MinInt32, 0, math.MaxInt32},
		[]uint64{math.MaxUint64},
		[]float32{1.5, -2.25},
		[]float64{math.Pi, math.Inf(-1)},
	}
	for _, in := range tests {
		v, err := Encode(in)
		if err != nil {
			t.Fatalf("Encode(%T): %v", in, err)
		}
		out, err := Decode(v.Type, v.Data, v.Len(), cfg, nil)
		if err != nil {
			t.Fatalf("Decode(%T): %v", in, err)
		}
		if !reflect.DeepEqual(out, in) {
			t.Errorf("%T: got %v, want %v", in, out, in)
		}
	}
}

func TestEncodeScalar(t *testing.T) {
	v, err := Encode(int64(3))
	if err != nil {
		t.Fatal(err)
	}
	if v.Dims != nil || v.Len() != 1 || v.Type.Size != 8 || !v.Type.Signed {
		t.Errorf("unexpected value %+v", v)
	}

	v, err = Encode(7) // int widens to int64
	if err != nil {
		t.Fatal(err)
	}
	var got int64
	if err := Convert(v.Type, v.Data, 1, &got, cfg, nil); err != nil || got != 7 {
		t.Errorf("got %d, %v", got, err)
	}

	if _, err := Encode(struct{}{}); !errors.Is(err, ErrUnsupported) {
		t.Errorf("struct error = %v", err)
	}
	if _, err := Encode(nil); !errors.Is(err, ErrUnsupported) {
		t.Errorf("nil error = %v", err)
	}
}

func TestEncodeStrings(t *testing.T) {
	v, err := Encode([]string{"x", "lamb", ""})
	if err != nil {
		t.Fatal(err)
	}
	if v.Type.Size != 5 || v.Type.Charset != message.CharsetUTF8 {
		t.Errorf("type %+v", v.Type)
	}
	var got []string
	if err := Convert(v.Type, v.Data, v.Len(), &got, cfg, nil); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"x", "lamb", ""}) {
		t.Errorf("got %q", got)
	}

	v, err = Encode("")
	if err != nil {
		t.Fatal(err)
	}
	if v.Type.Size != 1 || v.Dims != nil {
		t.Errorf("empty string encoded as %+v", v)
	}
}

func TestDecodeSpacePadded(t *testing.T) {
	dt := &message.Datatype{Class: message.ClassString, Size: 6, Padding: message.PadSpacePad}
	got, err := Decode(dt, []byte("mm    fs    "), 2, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"mm", "fs"}) {
		t.Errorf("got %q", got)
	}
}

type fakeHeap map[heap.ID][]byte

func (f fakeHeap) Get(id heap.ID) ([]byte, error) {
	b, ok := f[id]
	if !ok {
		return nil, errors.New("missing object")
	}
	return b, nil
}

func vlenRef(e *binpkg.Encoder, n uint32, id heap.ID) {
	e.Uint32(n)
	e.Addr(id.Collection)
	e.Uint32(id.Index)
}

func TestDecodeVarLenStrings(t *testing.T) {
	h := fakeHeap{
		{Collection: 4096, Index: 1}: []byte("PHz"),
		{Collection: 4096, Index: 2}: []byte("fs\x00"),
	}
	e := binpkg.NewEncoder(cfg)
	vlenRef(e, 3, heap.ID{Collection: 4096, Index: 1})
	vlenRef(e, 0, heap.ID{})
	vlenRef(e, 2, heap.ID{Collection: 4096, Index: 2})

	dt := message.NewVarLenString(message.CharsetUTF8)
	got, err := Decode(dt, e.Data(), 3, cfg, h)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"PHz", "", "fs"}) {
		t.Errorf("got %q", got)
	}

	if _, err := Decode(dt, e.Data(), 3, cfg, nil); err == nil {
		t.Error("expected error without heap")
	}
}

func TestConvertNumeric(t *testing.T) {
	v, err := Encode([]int16{-3, 4})
	if err != nil {
		t.Fatal(err)
	}

	var f []float64
	if err := Convert(v.Type, v.Data, 2, &f, cfg, nil); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(f, []float64{-3, 4}) {
		t.Errorf("got %v", f)
	}

	var a any
	if err := Convert(v.Type, v.Data, 2, &a, cfg, nil); err != nil {
		t.Fatal(err)
	}
	if _, ok := a.([]int16); !ok {
		t.Errorf("interface holds %T", a)
	}

	var s []string
	if err := Convert(v.Type, v.Data, 2, &s, cfg, nil); err == nil {
		t.Error("numbers stored into strings")
	}
	if err := Convert(v.Type, v.Data, 2, f, cfg, nil); err == nil {
		t.Error("non-pointer dest accepted")
	}
	var one float32
	if err := Convert(v.Type, v.Data, 0, &one, cfg, nil); err == nil {
		t.Error("scalar from zero elements accepted")
	}
}
