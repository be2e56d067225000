package system

import (
	"github.com/joshuapare/hlpkit/internal/format"
	"github.com/joshuapare/hlpkit/pkg/types"
)

// Compression flag values of 3.1 |SYSTEM headers.
const (
	FlagLZ77        = 0x0004
	FlagLZ77Block2K = 0x0008
)

// Config derives the layout configuration a session needs. has reports
// whether an internal file exists; the phrase files decide between legacy
// and Hall phrase compression.
func Config(info *types.SystemInfo, has func(name string) bool) types.Config {
	cfg := types.Config{Version: types.Version31, Charset: info.Charset}
	switch {
	case info.Minor <= minorMax:
		cfg.Version = types.Version30
	case info.Minor >= Minor40:
		cfg.Version = types.Version40
	}

	if !cfg.Version.Before31() {
		switch {
		case info.Flags&FlagLZ77Block2K != 0:
			cfg.Compression |= types.CompressLZ77
			cfg.TopicBlockSize = format.TopicBlockSize30
		case info.Flags&FlagLZ77 != 0:
			cfg.Compression |= types.CompressLZ77
			cfg.TopicBlockSize = format.TopicBlockSize31
		default:
			cfg.TopicBlockSize = format.TopicBlockSize31
		}
	}

	switch {
	case has("|PhrIndex") && has("|PhrImage"):
		if !cfg.Version.Before31() {
			cfg.Compression |= types.CompressHall
		}
	case has("|PHRASE"):
		cfg.Compression |= types.CompressPhrase
	}
	return cfg
}
