package imagefmt

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// maxTIFFFrames bounds the IFD walk so a corrupted next-IFD chain cannot
// spin forever.
const maxTIFFFrames = 65535

// TIFF tags that carry pixel data offsets, paired with their length tags.
var pixelDataTags = map[uint16]uint16{
	273: 279, // StripOffsets / StripByteCounts
	324: 325, // TileOffsets / TileByteCounts
	513: 514, // JPEGInterchangeFormat / JPEGInterchangeFormatLength
}

// Tags that point at subsidiary IFD structures. They are dropped when
// re-slicing a frame since the structures they reference are not copied.
var subIFDTags = map[uint16]bool{
	330:   true, // SubIFDs
	34665: true, // EXIF IFD
	34853: true, // GPS IFD
}

// sizeof per TIFF field type, indexed by type id 1..12.
var tiffTypeSize = [13]uint32{0, 1, 1, 2, 4, 8, 1, 1, 2, 4, 8, 4, 8}

// tiffFile provides bounds-checked reads over a TIFF container.
type tiffFile struct {
	r  io.ReaderAt
	bo binary.ByteOrder
}

// openTIFF validates the TIFF header and returns the file handle plus the
// offset of the first image file directory.
func openTIFF(r io.ReaderAt) (*tiffFile, uint32, error) {
	var hdr [8]byte
	if _, err := r.ReadAt(hdr[:], 0); err != nil {
		return nil, 0, fmt.Errorf("%w: short TIFF header: %v", ErrUnreadableImage, err)
	}

	var bo binary.ByteOrder
	switch {
	case hdr[0] == 'I' && hdr[1] == 'I':
		bo = binary.LittleEndian
	case hdr[0] == 'M' && hdr[1] == 'M':
		bo = binary.BigEndian
	default:
		return nil, 0, fmt.Errorf("%w: bad TIFF byte-order mark", ErrUnreadableImage)
	}
	if bo.Uint16(hdr[2:4]) != 42 {
		return nil, 0, fmt.Errorf("%w: bad TIFF version marker", ErrUnreadableImage)
	}

	first := bo.Uint32(hdr[4:8])
	if first < 8 {
		return nil, 0, fmt.Errorf("%w: first IFD offset inside header", ErrUnreadableImage)
	}
	return &tiffFile{r: r, bo: bo}, first, nil
}

// read returns n bytes starting at off, failing as unreadable on any
// short read.
func (t *tiffFile) read(off uint32, n uint32) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := t.r.ReadAt(buf, int64(off)); err != nil {
		return nil, fmt.Errorf("%w: truncated TIFF data at offset %d: %v", ErrUnreadableImage, off, err)
	}
	return buf, nil
}

// ifdHeader reads the entry count of the IFD at off and the offset of the
// following IFD.
func (t *tiffFile) ifdHeader(off uint32) (count uint16, next uint32, err error) {
	cb, err := t.read(off, 2)
	if err != nil {
		return 0, 0, err
	}
	count = t.bo.Uint16(cb)
	nb, err := t.read(off+2+uint32(count)*12, 4)
	if err != nil {
		return 0, 0, err
	}
	return count, t.bo.Uint32(nb), nil
}

// countTIFFFrames walks the IFD chain and returns the number of frames.
// Only directory headers are read, never pixel data.
func countTIFFFrames(r io.ReaderAt) (int, error) {
	t, off, err := openTIFF(r)
	if err != nil {
		return 0, err
	}

	seen := make(map[uint32]bool)
	frames := 0
	for off != 0 {
		if seen[off] {
			return 0, fmt.Errorf("%w: IFD chain loops at offset %d", ErrUnreadableImage, off)
		}
		seen[off] = true
		frames++
		if frames > maxTIFFFrames {
			return 0, fmt.Errorf("%w: IFD chain exceeds %d entries", ErrUnreadableImage, maxTIFFFrames)
		}

		_, next, err := t.ifdHeader(off)
		if err != nil {
			return 0, err
		}
		off = next
	}
	return frames, nil
}

// ifdEntry is one 12-byte directory entry, with any out-of-line payload
// it references pulled in.
type ifdEntry struct {
	tag    uint16
	typ    uint16
	count  uint32
	value  [4]byte  // inline value field, left-justified
	data   []byte   // out-of-line payload when the field exceeds 4 bytes
	strips [][]byte // pixel data referenced by an offsets tag
}

// ExtractFrame re-slices the frame at the given zero-based index of a
// multi-frame TIFF into a standalone single-frame TIFF. The result keeps
// the source's byte order and compression untouched; only directory and
// pixel-data offsets are rewritten.
func ExtractFrame(path string, index int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}
	defer f.Close()

	t, off, err := openTIFF(f)
	if err != nil {
		return nil, err
	}

	// Walk to the requested directory.
	for i := 0; i < index; i++ {
		_, next, err := t.ifdHeader(off)
		if err != nil {
			return nil, err
		}
		if next == 0 {
			return nil, fmt.Errorf("%w: frame index %d past end of IFD chain", ErrUnreadableImage, index)
		}
		off = next
	}

	entries, err := t.readEntries(off)
	if err != nil {
		return nil, err
	}
	return t.assembleFrame(entries)
}

// readEntries loads the directory at off, resolving out-of-line payloads
// and pixel data so the frame can be rewritten self-contained.
func (t *tiffFile) readEntries(off uint32) ([]*ifdEntry, error) {
	count, _, err := t.ifdHeader(off)
	if err != nil {
		return nil, err
	}
	raw, err := t.read(off+2, uint32(count)*12)
	if err != nil {
		return nil, err
	}

	byTag := make(map[uint16]*ifdEntry)
	var entries []*ifdEntry
	for i := 0; i < int(count); i++ {
		rec := raw[i*12 : (i+1)*12]
		e := &ifdEntry{
			tag:   t.bo.Uint16(rec[0:2]),
			typ:   t.bo.Uint16(rec[2:4]),
			count: t.bo.Uint32(rec[4:8]),
		}
		copy(e.value[:], rec[8:12])

		if subIFDTags[e.tag] || e.typ == 0 || int(e.typ) >= len(tiffTypeSize) {
			continue
		}

		if size := tiffTypeSize[e.typ] * e.count; size > 4 {
			data, err := t.read(t.bo.Uint32(e.value[:]), size)
			if err != nil {
				return nil, err
			}
			e.data = data
		}

		entries = append(entries, e)
		byTag[e.tag] = e
	}

	// Pull in the pixel data referenced by each offsets/lengths pair.
	for offTag, lenTag := range pixelDataTags {
		offEntry, ok := byTag[offTag]
		if !ok {
			continue
		}
		lenEntry, ok := byTag[lenTag]
		if !ok {
			return nil, fmt.Errorf("%w: tag %d present without byte counts", ErrUnreadableImage, offTag)
		}
		offsets, err := t.integerValues(offEntry)
		if err != nil {
			return nil, err
		}
		lengths, err := t.integerValues(lenEntry)
		if err != nil {
			return nil, err
		}
		if len(offsets) != len(lengths) {
			return nil, fmt.Errorf("%w: %d data offsets but %d byte counts", ErrUnreadableImage, len(offsets), len(lengths))
		}
		offEntry.strips = make([][]byte, len(offsets))
		for i := range offsets {
			strip, err := t.read(offsets[i], lengths[i])
			if err != nil {
				return nil, err
			}
			offEntry.strips[i] = strip
		}
	}

	return entries, nil
}

// integerValues decodes an entry's payload as an array of SHORT or LONG
// values.
func (t *tiffFile) integerValues(e *ifdEntry) ([]uint32, error) {
	payload := e.data
	if payload == nil {
		payload = e.value[:]
	}
	out := make([]uint32, e.count)
	switch e.typ {
	case 3: // SHORT
		for i := range out {
			out[i] = uint32(t.bo.Uint16(payload[i*2:]))
		}
	case 4: // LONG
		for i := range out {
			out[i] = t.bo.Uint32(payload[i*4:])
		}
	default:
		return nil, fmt.Errorf("%w: tag %d has non-integer type %d", ErrUnreadableImage, e.tag, e.typ)
	}
	return out, nil
}

// assembleFrame writes a single-frame TIFF containing the given entries,
// relocating out-of-line payloads and pixel data into an auxiliary area
// that follows the rewritten directory.
func (t *tiffFile) assembleFrame(entries []*ifdEntry) ([]byte, error) {
	ifd := &bytes.Buffer{}
	aux := &bytes.Buffer{}
	auxStart := uint32(8 + 2 + len(entries)*12 + 4)

	auxOffset := func(data []byte) uint32 {
		if aux.Len()%2 == 1 {
			aux.WriteByte(0) // keep offsets word-aligned
		}
		off := auxStart + uint32(aux.Len())
		aux.Write(data)
		return off
	}

	writeEntry := func(tag, typ uint16, count uint32, value [4]byte) {
		var rec [12]byte
		t.bo.PutUint16(rec[0:2], tag)
		t.bo.PutUint16(rec[2:4], typ)
		t.bo.PutUint32(rec[4:8], count)
		copy(rec[8:12], value[:])
		ifd.Write(rec[:])
	}

	for _, e := range entries {
		if e.strips != nil {
			// Copy the pixel data and re-encode the offsets as LONGs.
			newOffsets := make([]byte, 4*len(e.strips))
			for i, strip := range e.strips {
				t.bo.PutUint32(newOffsets[i*4:], auxOffset(strip))
			}
			var value [4]byte
			if len(newOffsets) <= 4 {
				copy(value[:], newOffsets)
			} else {
				t.bo.PutUint32(value[:], auxOffset(newOffsets))
			}
			writeEntry(e.tag, 4, uint32(len(e.strips)), value)
			continue
		}

		value := e.value
		if e.data != nil {
			t.bo.PutUint32(value[:], auxOffset(e.data))
		}
		writeEntry(e.tag, e.typ, e.count, value)
	}

	out := &bytes.Buffer{}
	var hdr [8]byte
	if t.bo == binary.LittleEndian {
		hdr[0], hdr[1] = 'I', 'I'
	} else {
		hdr[0], hdr[1] = 'M', 'M'
	}
	t.bo.PutUint16(hdr[2:4], 42)
	t.bo.PutUint32(hdr[4:8], 8)
	out.Write(hdr[:])

	var cnt [2]byte
	t.bo.PutUint16(cnt[:], uint16(len(entries)))
	out.Write(cnt[:])
	out.Write(ifd.Bytes())
	out.Write(make([]byte, 4)) // next IFD offset: none
	out.Write(aux.Bytes())

	return out.Bytes(), nil
}
