package sound_extraction

import (
	"acoustic-listener/config"
	"acoustic-listener/matcher"
	"acoustic-listener/spectrogram"
	"acoustic-listener/template"
)

type Interface interface {
	ControlInterface

	// LoadTemplate builds (or fetches from the cache) the template of the
	// given recordings and makes it current. A running capture is stopped.
	LoadTemplate(paths []string) (*template.Template, error)
	LoadTemplateFolder(dir string) (*template.Template, error)
	Template() *template.Template

	// Bounds returns a copy of the editable bound table.
	Bounds() matcher.Table
	SetBound(name spectrogram.Param, bound matcher.Bound) error

	// Poll processes the latest capture snapshot without blocking. It
	// returns the error that stopped the capture, if any.
	Poll() error

	// AnalyzeFile analyzes a recording as if it were a captured fragment.
	AnalyzeFile(path string) (*Analysis, error)

	// History returns the recorded fragments, oldest first.
	History() []Fragment
	Session() config.Session

	// Close stops capturing and waits for pending notifications.
	Close()
}

type ControlInterface interface {
	Start() error
	Stop()
	Listening() bool
}
