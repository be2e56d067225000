package hlp

import (
	"github.com/joshuapare/hlpkit/internal/ctxindex"
	"github.com/joshuapare/hlpkit/internal/mmfile"
	"github.com/joshuapare/hlpkit/internal/reader"
	"github.com/joshuapare/hlpkit/pkg/types"
)

// Open opens a help file for reading. When opts.Config is nil the
// configuration is read from |SYSTEM.
// The caller must call Close() when done to release resources.
//
// Example:
//
//	s, err := hlp.Open("app.hlp", hlp.OpenOptions{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
func Open(path string, opts OpenOptions) (Session, error) {
	if opts.Config != nil {
		return reader.Open(path, opts)
	}
	data, unmap, err := mmfile.Map(path)
	if err != nil {
		return nil, &types.Error{Kind: types.ErrKindState, Msg: "open help file", Offset: -1, Err: err}
	}
	_, cfg, err := reader.Probe(data)
	if err != nil {
		_ = unmap()
		return nil, err
	}
	opts.Config = &cfg
	return reader.OpenMapped(path, data, unmap, opts)
}

// OpenBytes opens a help file image held in memory. The session borrows
// image; do not modify it until Close.
func OpenBytes(image []byte, opts OpenOptions) (Session, error) {
	if opts.Config == nil {
		_, cfg, err := reader.Probe(image)
		if err != nil {
			return nil, err
		}
		opts.Config = &cfg
	}
	return reader.OpenBytes(image, opts)
}

// Probe reads |SYSTEM from an image and returns it with the configuration
// Open would derive from it.
func Probe(image []byte) (*SystemInfo, Config, error) {
	return reader.Probe(image)
}

// System parses |SYSTEM of an open session.
func System(s Session) (*SystemInfo, error) {
	return reader.SystemInfo(s)
}

// Diagnose reads every structure of image once and reports what is
// damaged. The configuration is probed when opts.Config is nil.
func Diagnose(image []byte, opts OpenOptions) (*DiagnosticReport, error) {
	if opts.Config == nil {
		_, cfg, err := reader.Probe(image)
		if err != nil {
			return nil, err
		}
		opts.Config = &cfg
	}
	return reader.Diagnose(image, opts)
}

// ContextHash returns the |CONTEXT hash of a context string.
func ContextHash(name string) uint32 {
	return ctxindex.Hash(name)
}
