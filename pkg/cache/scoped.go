package cache

// ScopedKeyer prepends a fixed prefix to every key of an inner [Keyer]. The
// CLI scopes by release:
//
//	keyer := NewScopedKeyer(nil, buildinfo.Version+":")
//	keyer.WidthKey("Mux", h) // "v0.3.0:widths:Mux:<h>"
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or a [DefaultKeyer] when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) WidthKey(chip, sourceHash string) string {
	return k.prefix + k.inner.WidthKey(chip, sourceHash)
}

func (k *ScopedKeyer) ArtifactKey(graphHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(graphHash, opts)
}
