package cache

// ScopedKeyer wraps a Keyer with a prefix so that several tenants can share
// one backend without seeing each other's entries.
//
// Example usage:
//
//	// Results of one API client
//	k := NewScopedKeyer(NewDefaultKeyer(), "client:abc123:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

func (k *ScopedKeyer) ResultKey(coverHash string, opts ResultKeyOpts) string {
	return k.prefix + k.inner.ResultKey(coverHash, opts)
}

func (k *ScopedKeyer) VerifyKey(aHash, bHash, method string) string {
	return k.prefix + k.inner.VerifyKey(aHash, bHash, method)
}

func (k *ScopedKeyer) RenderKey(coverHash string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(coverHash, opts)
}
