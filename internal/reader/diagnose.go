package reader

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/joshuapare/hlpkit/internal/format"
	"github.com/joshuapare/hlpkit/pkg/types"
)

// maxScanRecords bounds a diagnostic walk over a damaged chain.
const maxScanRecords = 1 << 20

// Diagnose opens image with diagnostics enabled and reads every structure
// once: the directory, each topic record, the context map and the title
// tree. Only the errors that make the image unreadable are returned; the
// rest is in the report.
func Diagnose(image []byte, opts types.OpenOptions) (*types.DiagnosticReport, error) {
	opts.CollectDiagnostics = true
	s, err := newSession(image, nil, opts)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return newDiagnosticScanner(s).scan(), nil
}

// diagnosticScanner encapsulates the state for a full diagnostic scan.
type diagnosticScanner struct {
	s      *session
	ranges []textRange // TOPICOFFSET span of each decoded record
	start  time.Time
}

type textRange struct{ from, to uint32 }

func newDiagnosticScanner(s *session) *diagnosticScanner {
	return &diagnosticScanner{s: s, start: time.Now()}
}

func (d *diagnosticScanner) scan() *types.DiagnosticReport {
	d.checkDirectory()
	d.walkTopics()
	d.checkContexts()
	d.checkTitles()
	d.s.log.Debug("diagnostic scan finished", "records", len(d.ranges), "elapsed", time.Since(d.start))
	return d.s.GetDiagnostics()
}

// checkDirectory flags FILEHEADERs whose used space exceeds the space they
// reserve.
func (d *diagnosticScanner) checkDirectory() {
	if d.s.dir == nil {
		return
	}
	for _, e := range d.s.dir.Entries() {
		if uint64(e.Size)+format.FileHeaderSize > uint64(e.Reserved) {
			d.s.diagnostics.record(diagStructure(types.SevWarning, uint64(e.Offset), "FILEHEADER", e.Name,
				"used space exceeds reserved space", fmt.Sprintf("<= %d", e.Reserved), uint64(e.Size)+format.FileHeaderSize))
		}
	}
}

func (d *diagnosticScanner) walkTopics() {
	it := d.s.Topics()
	for range maxScanRecords {
		p, err := it.Next()
		if errors.Is(err, io.EOF) {
			return
		}
		var te *types.TopicError
		if errors.As(err, &te) {
			continue // recorded by the iterator
		}
		if err != nil {
			if !errors.Is(err, types.ErrNotFound) {
				d.s.diagnostics.record(diagStructure(types.SevCritical, 0, "TOPICBLOCK", fileTopic, err.Error(), nil, nil))
			}
			return
		}
		d.ranges = append(d.ranges, textRange{p.Offset, p.NextOffset})
	}
	d.s.diagnostics.record(diagIntegrity(types.SevError, 0, "TOPICLINK", fileTopic,
		"record chain did not end", maxScanRecords))
}

// checkContexts flags context entries whose TOPICOFFSET lies outside every
// decoded record.
func (d *diagnosticScanner) checkContexts() {
	if len(d.ranges) == 0 {
		return
	}
	sort.Slice(d.ranges, func(i, j int) bool { return d.ranges[i].from < d.ranges[j].from })
	for i := 1; i < len(d.ranges); i++ {
		d.ranges[i].to = max(d.ranges[i].to, d.ranges[i-1].to)
	}
	it := d.s.Contexts()
	for {
		e, err := it.Next()
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, types.ErrNotFound) {
				d.s.diagnostics.record(diagStructure(types.SevError, 0, "BTREE", fileContext, err.Error(), nil, nil))
			}
			return
		}
		if !d.covered(e.TopicOffset) {
			d.s.diagnostics.record(diagIntegrity(types.SevWarning, 0, "CONTEXT", fileContext,
				fmt.Sprintf("context 0x%08X points outside the topic text", e.Hash), e.TopicOffset))
		}
	}
}

func (d *diagnosticScanner) covered(off uint32) bool {
	i := sort.Search(len(d.ranges), func(i int) bool { return d.ranges[i].from > off })
	return i > 0 && off <= d.ranges[i-1].to
}

// checkTitles opens the title tree, if any, and looks up the first topic.
func (d *diagnosticScanner) checkTitles() {
	if d.s.dir == nil || !d.s.dir.Has(fileTitles) || len(d.ranges) == 0 {
		return
	}
	if _, err := d.s.TopicTitle(d.ranges[0].from); err != nil && !errors.Is(err, types.ErrNotFound) {
		d.s.diagnostics.record(diagStructure(types.SevError, 0, "BTREE", fileTitles, err.Error(), nil, nil))
	}
}
