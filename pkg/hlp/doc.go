/*
Package hlp reads Windows Help (.HLP) files.

A help file is a small file system: a directory B+tree names internal files
such as |SYSTEM, |TOPIC and |CONTEXT. The session returned by Open decodes
them lazily and never writes to the image.

# Quick Start

	s, err := hlp.Open("app.hlp", hlp.OpenOptions{})
	if err != nil {
	    log.Fatal(err)
	}
	defer s.Close()

	it := s.Topics()
	for {
	    p, err := it.Next()
	    if errors.Is(err, io.EOF) {
	        break
	    }
	    var te *hlp.TopicError
	    if errors.As(err, &te) {
	        continue // one record is lost, the walk goes on
	    }
	    if err != nil {
	        log.Fatal(err)
	    }
	    fmt.Printf("%q\n", p.Text)
	}

# Configuration

The layout of |TOPIC depends on the compiler generation and the
compression it used. When OpenOptions.Config is nil, Open reads |SYSTEM
and derives it. Pass an explicit Config to override a damaged or
misleading |SYSTEM:

	cfg := hlp.Config{Version: hlp.Version31, Compression: hlp.CompressLZ77}
	s, err := hlp.Open("app.hlp", hlp.OpenOptions{Config: &cfg})

# Contexts and Titles

Jumps name their target by context hash. ResolveContext hashes a context
string and looks it up in |CONTEXT; TopicTitle returns the title of the
topic that contains a TOPICOFFSET:

	off, err := s.ResolveContext("IDH_CONTENTS")
	title, err := s.TopicTitle(off)

# Error Handling

Only an invalid main header makes Open fail. Everything else is reported by
the call that needs the damaged structure, as a *hlp.Error whose kind can
be tested with errors.Is:

	if errors.Is(err, hlp.ErrNotFound) { ... }

Set OpenOptions.CollectDiagnostics to gather every recoverable problem, or
call Diagnose to walk the whole file once.
*/
package hlp
