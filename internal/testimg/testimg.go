// Package testimg builds small in-memory images for tests, optionally with
// an EXIF block carrying date tags.
package testimg

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
)

// EXIF tag IDs used by the date extractor.
const (
	TagDateTime          uint16 = 0x0132
	TagDateTimeOriginal  uint16 = 0x9003
	TagDateTimeDigitized uint16 = 0x9004

	tagExifIFDPointer uint16 = 0x8769

	typeASCII uint16 = 2
	typeLong  uint16 = 4
)

// Tag is an ASCII EXIF field.
type Tag struct {
	ID    uint16
	Value string
}

// Solid returns a w×h image filled with c.
func Solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

// JPEG encodes img at quality 95.
func JPEG(img image.Image) []byte {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// PNG encodes img.
func PNG(img image.Image) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// WithExif inserts an APP1 EXIF segment holding tags right after the JPEG
// SOI marker. Date tags of the Exif sub-IFD are placed there, the rest in IFD0.
func WithExif(jpg []byte, tags ...Tag) []byte {
	tiff := TIFF(tags...)
	payload := append([]byte("Exif\x00\x00"), tiff...)

	seg := []byte{0xFF, 0xE1, 0, 0}
	binary.BigEndian.PutUint16(seg[2:], uint16(len(payload)+2))
	seg = append(seg, payload...)

	out := make([]byte, 0, len(jpg)+len(seg))
	out = append(out, jpg[:2]...)
	out = append(out, seg...)
	out = append(out, jpg[2:]...)
	return out
}

// TIFF returns a little-endian TIFF structure containing tags.
func TIFF(tags ...Tag) []byte {
	var ifd0, sub []Tag
	for _, t := range tags {
		switch t.ID {
		case TagDateTimeOriginal, TagDateTimeDigitized:
			sub = append(sub, t)
		default:
			ifd0 = append(ifd0, t)
		}
	}

	n0 := len(ifd0)
	if len(sub) > 0 {
		n0++
	}
	ifd0Off := 8
	subOff := ifd0Off + ifdSize(n0)
	dataOff := subOff
	if len(sub) > 0 {
		dataOff += ifdSize(len(sub))
	}

	var data []byte
	entry := func(buf *bytes.Buffer, t Tag) {
		val := append([]byte(t.Value), 0)
		writeEntryHeader(buf, t.ID, typeASCII, uint32(len(val)))
		if len(val) <= 4 {
			inline := make([]byte, 4)
			copy(inline, val)
			buf.Write(inline)
			return
		}
		binary.Write(buf, binary.LittleEndian, uint32(dataOff+len(data)))
		data = append(data, val...)
	}

	var buf bytes.Buffer
	buf.WriteString("II")
	binary.Write(&buf, binary.LittleEndian, uint16(42))
	binary.Write(&buf, binary.LittleEndian, uint32(ifd0Off))

	binary.Write(&buf, binary.LittleEndian, uint16(n0))
	for _, t := range ifd0 {
		entry(&buf, t)
	}
	if len(sub) > 0 {
		writeEntryHeader(&buf, tagExifIFDPointer, typeLong, 1)
		binary.Write(&buf, binary.LittleEndian, uint32(subOff))
	}
	binary.Write(&buf, binary.LittleEndian, uint32(0))

	if len(sub) > 0 {
		binary.Write(&buf, binary.LittleEndian, uint16(len(sub)))
		for _, t := range sub {
			entry(&buf, t)
		}
		binary.Write(&buf, binary.LittleEndian, uint32(0))
	}

	buf.Write(data)
	return buf.Bytes()
}

func ifdSize(n int) int { return 2 + 12*n + 4 }

func writeEntryHeader(buf *bytes.Buffer, id, typ uint16, count uint32) {
	binary.Write(buf, binary.LittleEndian, id)
	binary.Write(buf, binary.LittleEndian, typ)
	binary.Write(buf, binary.LittleEndian, count)
}
