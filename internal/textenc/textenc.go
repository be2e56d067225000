// Package textenc decodes the single and double byte code pages help files
// store their text in. The code page is chosen by the Windows character set
// number a file declares (|SYSTEM charset record or font descriptors).
package textenc

import (
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
)

// Windows character set numbers.
const (
	CharsetANSI        = 0
	CharsetDefault     = 1
	CharsetSymbol      = 2
	CharsetMac         = 77
	CharsetShiftJIS    = 128
	CharsetHangeul     = 129
	CharsetGB2312      = 134
	CharsetChineseBig5 = 136
	CharsetGreek       = 161
	CharsetTurkish     = 162
	CharsetVietnamese  = 163
	CharsetHebrew      = 177
	CharsetArabic      = 178
	CharsetBaltic      = 186
	CharsetRussian     = 204
	CharsetThai        = 222
	CharsetEastEurope  = 238
	CharsetOEM         = 255
)

var byCharset = map[uint8]encoding.Encoding{
	CharsetANSI:        charmap.Windows1252,
	CharsetDefault:     charmap.Windows1252,
	CharsetSymbol:      charmap.Windows1252,
	CharsetMac:         charmap.Macintosh,
	CharsetShiftJIS:    japanese.ShiftJIS,
	CharsetHangeul:     korean.EUCKR,
	CharsetGB2312:      simplifiedchinese.GBK,
	CharsetChineseBig5: traditionalchinese.Big5,
	CharsetGreek:       charmap.Windows1253,
	CharsetTurkish:     charmap.Windows1254,
	CharsetVietnamese:  charmap.Windows1258,
	CharsetHebrew:      charmap.Windows1255,
	CharsetArabic:      charmap.Windows1256,
	CharsetBaltic:      charmap.Windows1257,
	CharsetRussian:     charmap.Windows1251,
	CharsetThai:        charmap.Windows874,
	CharsetEastEurope:  charmap.Windows1250,
	CharsetOEM:         charmap.CodePage437,
}

// ForCharset returns the encoding of a character set. Unknown sets fall
// back to Windows-1252 with ok false.
func ForCharset(cs uint8) (enc encoding.Encoding, ok bool) {
	if e, found := byCharset[cs]; found {
		return e, true
	}
	return charmap.Windows1252, false
}

// Decode converts b from the code page of cs to UTF-8.
func Decode(cs uint8, b []byte) (string, error) {
	if isASCII(b) {
		return string(b), nil
	}
	enc, _ := ForCharset(cs)
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("decode charset %d: %w", cs, err)
	}
	return string(out), nil
}

// isASCII reports whether every byte is below 0x80, which all supported
// code pages map to itself.
func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= 0x80 {
			return false
		}
	}
	return true
}
