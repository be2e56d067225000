package reader

import (
	"github.com/joshuapare/hlpkit/internal/directory"
	"github.com/joshuapare/hlpkit/internal/format"
	"github.com/joshuapare/hlpkit/internal/system"
	"github.com/joshuapare/hlpkit/pkg/types"
)

const fileSystem = "|SYSTEM"

// Probe reads |SYSTEM without opening a session and derives the
// configuration a session needs. Header failures are classified the same
// way Open classifies them.
func Probe(image []byte) (*types.SystemInfo, types.Config, error) {
	head, err := format.ParseHeader(image)
	if err != nil {
		return nil, types.Config{}, headerErr(err)
	}
	dir, err := directory.Resolve(image, int(head.DirectoryStart), nil)
	if err != nil {
		return nil, types.Config{}, wrapFormatErr(err, "directory", int64(head.DirectoryStart))
	}
	e, err := dir.Lookup(fileSystem)
	if err != nil {
		return nil, types.Config{}, wrapFormatErr(err, fileSystem, -1)
	}
	data, err := directory.Data(image, e)
	if err != nil {
		return nil, types.Config{}, wrapFormatErr(err, fileSystem, int64(e.Offset))
	}
	info, err := system.Parse(data)
	if err != nil {
		return nil, types.Config{}, wrapFormatErr(err, fileSystem, int64(e.DataOffset()))
	}
	return info, system.Config(info, dir.Has), nil
}

// SystemInfo parses |SYSTEM of an open session.
func SystemInfo(s types.Session) (*types.SystemInfo, error) {
	data, err := s.InternalFileData(fileSystem)
	if err != nil {
		return nil, err
	}
	info, err := system.Parse(data)
	if err != nil {
		return nil, wrapFormatErr(err, fileSystem, -1)
	}
	return info, nil
}
