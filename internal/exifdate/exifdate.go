// Package exifdate reads the capture time of a photo from its EXIF block.
package exifdate

import (
	"io"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// Source tells where a Stamp's time came from.
type Source string

const (
	SourceExif  Source = "exif"
	SourceClock Source = "clock"
)

// Stamp is the capture time chosen for one image.
type Stamp struct {
	Time   time.Time
	Source Source
	// Tag is the EXIF field the time was read from, empty for SourceClock.
	Tag string
}

// Format renders the stamp with a Go time layout.
func (s Stamp) Format(layout string) string {
	return s.Time.Format(layout)
}

// Clock supplies the fallback date when an image has no usable EXIF time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock is the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// fields are tried in order; the first parsable one wins.
var fields = []exif.FieldName{
	exif.DateTimeOriginal,
	exif.DateTimeDigitized,
	exif.DateTime,
}

var layouts = []string{
	"2006:01:02 15:04:05",
	"2006-01-02 15:04:05",
	"2006:01:02",
}

// Extractor turns an image's metadata into a Stamp.
type Extractor struct {
	clock Clock
}

// New returns an Extractor that falls back to clock. A nil clock means SystemClock.
func New(clock Clock) *Extractor {
	if clock == nil {
		clock = SystemClock
	}
	return &Extractor{clock: clock}
}

// Extract reads the capture time from the EXIF data in r. It never fails:
// missing, corrupt or unparsable metadata yields the clock's current time.
func (e *Extractor) Extract(r io.Reader) Stamp {
	if tm, tag, ok := captureTime(r); ok {
		return Stamp{Time: tm, Source: SourceExif, Tag: string(tag)}
	}
	return Stamp{Time: e.clock.Now(), Source: SourceClock}
}

func captureTime(r io.Reader) (tm time.Time, tag exif.FieldName, ok bool) {
	// goexif can panic on truncated IFDs.
	defer func() {
		if recover() != nil {
			tm, tag, ok = time.Time{}, "", false
		}
	}()

	x, err := exif.Decode(r)
	if err != nil {
		return time.Time{}, "", false
	}
	for _, name := range fields {
		f, err := x.Get(name)
		if err != nil {
			continue
		}
		s, err := f.StringVal()
		if err != nil {
			continue
		}
		if t, ok := parse(s); ok {
			return t, name, true
		}
	}
	return time.Time{}, "", false
}

// parse accepts the EXIF "2006:01:02 15:04:05" form and a couple of variants
// written by non-conforming software. The time is interpreted as local.
func parse(s string) (time.Time, bool) {
	s = strings.Trim(s, " \t\x00")
	if s == "" || strings.HasPrefix(s, "0000") {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
