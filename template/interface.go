package template

type Interface interface {
	// Build aggregates the given reference recordings, in order, into a
	// template. Unusable files are skipped with a warning.
	Build(paths []string) (*Template, error)
	// BuildFolder builds a template from every WAV file in dir.
	BuildFolder(dir string) (*Template, error)
}
