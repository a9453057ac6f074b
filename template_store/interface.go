package template_store

import "acoustic-listener/template"

type Interface interface {
	// Get returns the template cached under key, or false when there is none.
	Get(key string) (*template.Template, bool, error)
	Put(key string, t *template.Template) error
	Close() error
}
