package directory

import "strings"

// Kind is the closed set of internal file types the parser knows about.
type Kind uint8

const (
	KindOther Kind = iota
	KindTopic
	KindContext
	KindPhrase
	KindPhrIndex
	KindPhrImage
	KindSystem
	KindFont
	KindTitles
	KindCtxoMap
	KindBitmap
)

var kindNames = map[string]Kind{
	"|TOPIC":    KindTopic,
	"|CONTEXT":  KindContext,
	"|PHRASE":   KindPhrase,
	"|PhrIndex": KindPhrIndex,
	"|PhrImage": KindPhrImage,
	"|SYSTEM":   KindSystem,
	"|FONT":     KindFont,
	"|TTLBTREE": KindTitles,
	"|CTXOMAP":  KindCtxoMap,
}

// KindOf classifies a directory name. Bitmaps are stored as |bm0, |bm1, ...
// (bm0 without the pipe in some 3.0 files).
func KindOf(name string) Kind {
	if k, ok := kindNames[name]; ok {
		return k
	}
	rest, ok := strings.CutPrefix(strings.TrimPrefix(name, "|"), "bm")
	if ok && rest != "" && strings.Trim(rest, "0123456789") == "" {
		return KindBitmap
	}
	return KindOther
}

func (k Kind) String() string {
	switch k {
	case KindTopic:
		return "topic"
	case KindContext:
		return "context"
	case KindPhrase:
		return "phrase"
	case KindPhrIndex:
		return "phrase-index"
	case KindPhrImage:
		return "phrase-image"
	case KindSystem:
		return "system"
	case KindFont:
		return "font"
	case KindTitles:
		return "titles"
	case KindCtxoMap:
		return "ctxomap"
	case KindBitmap:
		return "bitmap"
	default:
		return "other"
	}
}
