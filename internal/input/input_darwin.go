//go:build darwin

package input

/*
#cgo LDFLAGS: -framework ApplicationServices
#include <ApplicationServices/ApplicationServices.h>

static void postUnicode(const UniChar* chars, int n) {
    CGEventRef down = CGEventCreateKeyboardEvent(NULL, 0, true);
    CGEventRef up = CGEventCreateKeyboardEvent(NULL, 0, false);
    CGEventKeyboardSetUnicodeString(down, n, chars);
    CGEventKeyboardSetUnicodeString(up, n, chars);
    CGEventPost(kCGHIDEventTap, down);
    CGEventPost(kCGHIDEventTap, up);
    CFRelease(down);
    CFRelease(up);
}

static void postKey(CGKeyCode code) {
    CGEventRef down = CGEventCreateKeyboardEvent(NULL, code, true);
    CGEventRef up = CGEventCreateKeyboardEvent(NULL, code, false);
    CGEventPost(kCGHIDEventTap, down);
    CGEventPost(kCGHIDEventTap, up);
    CFRelease(down);
    CFRelease(up);
}
*/
import "C"

import (
	"unicode/utf16"
	"unsafe"
)

const (
	// maxChunk - сколько UTF-16 единиц macOS принимает в одном событии.
	maxChunk = 20

	keyReturn = 0x24
	keyTab    = 0x30
)

type darwinTyper struct{}

func newTyper() (Typer, error) {
	return &darwinTyper{}, nil
}

func (t *darwinTyper) Type(text string) error {
	var chunk []uint16
	flush := func() {
		if len(chunk) == 0 {
			return
		}
		C.postUnicode((*C.UniChar)(unsafe.Pointer(&chunk[0])), C.int(len(chunk)))
		chunk = chunk[:0]
	}

	for _, r := range text {
		switch r {
		case '\n':
			flush()
			C.postKey(keyReturn)
			continue
		case '\t':
			flush()
			C.postKey(keyTab)
			continue
		}
		units := utf16.Encode([]rune{r})
		// Суррогатная пара не разрывается между событиями
		if len(chunk)+len(units) > maxChunk {
			flush()
		}
		chunk = append(chunk, units...)
	}
	flush()
	return nil
}
