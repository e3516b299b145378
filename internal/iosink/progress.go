package iosink

import (
	"github.com/cheggaaa/pb/v3"
	"github.com/gnames/gnexport/pkg/export"
)

// Progress wraps a sink and shows a progress bar of written records.
type Progress struct {
	export.Sink
	bar *pb.ProgressBar
}

// NewProgress wraps a sink with a progress bar. The bar starts when the
// expected total becomes known.
func NewProgress(sink export.Sink) *Progress {
	return &Progress{Sink: sink}
}

// SetTotal starts the progress bar.
func (p *Progress) SetTotal(total int) {
	if p.bar != nil {
		p.bar.SetTotal(int64(total))
		return
	}
	p.bar = pb.Full.Start(total)
	p.bar.Set("prefix", "Exporting records: ")
	p.bar.Set(pb.CleanOnFinish, true)
}

// WriteHeader passes the header to the wrapped sink.
func (p *Progress) WriteHeader(headers []string) error {
	if hw, ok := p.Sink.(export.HeaderWriter); ok {
		return hw.WriteHeader(headers)
	}
	return nil
}

// Write writes a record and advances the bar.
func (p *Progress) Write(fields []string) error {
	if err := p.Sink.Write(fields); err != nil {
		return err
	}
	if p.bar != nil {
		p.bar.Increment()
	}
	return nil
}

// Finalize stops the bar and finalizes the wrapped sink.
func (p *Progress) Finalize() error {
	if p.bar != nil {
		p.bar.Finish()
	}
	return p.Sink.Finalize()
}
