package bigendian

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = hclog.New(&hclog.LoggerOptions{
	Name:  "bigendian_test",
	Level: hclog.Trace,
})

func newTestWriter(t *testing.T) (*Writer, *Buffer) {
	t.Helper()
	buf := NewBuffer(nil)
	w, err := NewWriter(buf)
	require.NoError(t, err)
	return w, buf
}

func newTestReader(t *testing.T, data []byte) *Reader {
	t.Helper()
	r, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	return r
}

// TestIntegersAreBigEndian checks every width against hand-laid bytes
func TestIntegersAreBigEndian(t *testing.T) {
	w, buf := newTestWriter(t)
	require.NoError(t, w.WriteUint16(0x0102))
	require.NoError(t, w.WriteInt16(-2))
	require.NoError(t, w.WriteUint32(0x01020304))
	require.NoError(t, w.WriteInt32(-3))
	require.NoError(t, w.WriteUint64(0x0102030405060708))
	require.NoError(t, w.WriteInt64(-4))

	want := []byte{
		0x01, 0x02,
		0xFF, 0xFE,
		0x01, 0x02, 0x03, 0x04,
		0xFF, 0xFF, 0xFF, 0xFD,
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
		0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFC,
	}
	assert.Equal(t, want, buf.Bytes())

	r := newTestReader(t, buf.Bytes())
	u16, err := r.ReadUint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0102), u16)
	i16, err := r.ReadInt16()
	require.NoError(t, err)
	assert.Equal(t, int16(-2), i16)
	u32, err := r.ReadUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x01020304), u32)
	i32, err := r.ReadInt32()
	require.NoError(t, err)
	assert.Equal(t, int32(-3), i32)
	u64, err := r.ReadUint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0102030405060708), u64)
	i64, err := r.ReadInt64()
	require.NoError(t, err)
	assert.Equal(t, int64(-4), i64)
	assert.Equal(t, int64(len(want)), r.Position())
}

func TestReadPastEndFails(t *testing.T) {
	r := newTestReader(t, []byte{0x01, 0x02, 0x03})
	_, err := r.ReadUint32()
	require.Error(t, err)
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))

	r = newTestReader(t, nil)
	_, err = r.ReadByte()
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
}

func TestPascalStringPadding(t *testing.T) {
	testCases := []struct {
		name    string
		value   string
		padding Padding
		want    []byte
	}{
		{"padded empty", "", Padded, []byte{0, 0}},
		{"padded odd", "abc", Padded, []byte{3, 'a', 'b', 'c'}},
		{"padded even", "ab", Padded, []byte{2, 'a', 'b', 0}},
		{"unpadded empty", "", Unpadded, []byte{0}},
		{"unpadded even", "ab", Unpadded, []byte{2, 'a', 'b'}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w, buf := newTestWriter(t)
			n, err := w.WritePascalString(tc.value, tc.padding)
			require.NoError(t, err)
			assert.Equal(t, len(tc.want), n)
			assert.Equal(t, tc.want, buf.Bytes())

			r := newTestReader(t, buf.Bytes())
			got, err := r.ReadPascalString(tc.padding)
			require.NoError(t, err)
			assert.Equal(t, tc.value, got)
			assert.Equal(t, int64(len(tc.want)), r.Position())
		})
	}
}

func TestPascalStringTruncates(t *testing.T) {
	long := string(bytes.Repeat([]byte{'x'}, 300))
	w, buf := newTestWriter(t)
	n, err := w.WritePascalString(long, Unpadded)
	require.NoError(t, err)
	assert.Equal(t, 256, n)
	assert.Equal(t, byte(255), buf.Bytes()[0])
}

func TestWriteKeyPadsAndTruncates(t *testing.T) {
	w, buf := newTestWriter(t)
	require.NoError(t, w.WriteKey("ab"))
	require.NoError(t, w.WriteKey("8BIMX"))
	assert.Equal(t, []byte("ab  8BIM"), buf.Bytes())
}

// TestSectionLength writes N bytes in a section and checks the patched length
func TestSectionLength(t *testing.T) {
	for _, n := range []int{0, 1, 7, 1024} {
		w, buf := newTestWriter(t)
		require.NoError(t, w.WriteUint16(0xAAAA))
		err := w.WriteSection(func() error {
			return w.WriteBytes(bytes.Repeat([]byte{0x5A}, n))
		})
		require.NoError(t, err)
		require.NoError(t, w.WriteByte(0xEE))

		data := buf.Bytes()
		testLogger.Debug("📦 Section written", "body", n, "total", len(data))
		require.Len(t, data, 2+4+n+1)

		r := newTestReader(t, data)
		require.NoError(t, r.Skip(2))
		length, err := r.ReadUint32()
		require.NoError(t, err)
		assert.Equal(t, uint32(n), length)
		assert.Equal(t, byte(0xEE), data[len(data)-1])
	}
}

func TestNestedSections(t *testing.T) {
	w, buf := newTestWriter(t)
	err := w.WriteSection(func() error {
		if err := w.WriteBytes([]byte{1, 2, 3}); err != nil {
			return err
		}
		return w.WriteSection(func() error {
			return w.WriteBytes([]byte{4, 5})
		})
	})
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 9, 1, 2, 3, 0, 0, 0, 2, 4, 5}, buf.Bytes())
}

func TestSectionPatchedOnError(t *testing.T) {
	w, buf := newTestWriter(t)
	boom := errors.New("boom")
	err := w.WriteSection(func() error {
		if err := w.WriteBytes([]byte{1, 2}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []byte{0, 0, 0, 2, 1, 2}, buf.Bytes())
}

func TestSectionCloseOnce(t *testing.T) {
	w, buf := newTestWriter(t)
	s, err := w.BeginSection()
	require.NoError(t, err)
	require.NoError(t, w.WriteByte(9))
	require.NoError(t, s.Close())
	require.NoError(t, w.WriteByte(8))
	require.NoError(t, s.Close())
	assert.Equal(t, []byte{0, 0, 0, 1, 9, 8}, buf.Bytes())
}

// TestReadSectionRepositions simulates bodies that under- and over-read
func TestReadSectionRepositions(t *testing.T) {
	const n = 10
	w, buf := newTestWriter(t)
	require.NoError(t, w.WriteSection(func() error {
		return w.WriteBytes(bytes.Repeat([]byte{0x11}, n))
	}))
	require.NoError(t, w.WriteBytes(bytes.Repeat([]byte{0x22}, 8)))
	data := buf.Bytes()

	testCases := []struct {
		name    string
		consume int
		fail    bool
	}{
		{"exact", n, false},
		{"under", 3, false},
		{"nothing", 0, false},
		{"over", n + 5, false},
		{"fails midway", 4, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestReader(t, data)
			boom := errors.New("boom")
			err := r.ReadSection(func(length uint32, end int64) error {
				assert.Equal(t, uint32(n), length)
				assert.Equal(t, int64(4+n), end)
				if _, err := r.ReadBytes(tc.consume); err != nil {
					return err
				}
				if tc.fail {
					return boom
				}
				return nil
			})
			if tc.fail {
				assert.ErrorIs(t, err, boom)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, int64(4+n), r.Position())
		})
	}
}

func TestBufferSeekAndOverwrite(t *testing.T) {
	buf := NewBuffer(nil)
	_, err := buf.Write([]byte{1, 2, 3, 4})
	require.NoError(t, err)
	_, err = buf.Seek(1, io.SeekStart)
	require.NoError(t, err)
	_, err = buf.Write([]byte{9})
	require.NoError(t, err)
	_, err = buf.Seek(6, io.SeekStart)
	require.NoError(t, err)
	_, err = buf.Write([]byte{7})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 9, 3, 4, 0, 0, 7}, buf.Bytes())

	_, err = buf.Seek(-1, io.SeekStart)
	assert.Error(t, err)
}
