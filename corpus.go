package corpus

// Builder assembles a Corpus: one backend (possibly a layered composite
// built elsewhere) plus an optional event hook applied to every store
// opened through the resulting handle.
type Builder struct {
	backend Backend
	hook    EventHook
}

// New starts an empty builder.
func New() *Builder { return &Builder{} }

// WithBackend sets the backend all stores share.
func (b *Builder) WithBackend(be Backend) *Builder {
	b.backend = be
	return b
}

// OnEvent installs the event hook.
func (b *Builder) OnEvent(h EventHook) *Builder {
	b.hook = h
	return b
}

// Build validates the configuration. A builder with no backend fails
// eagerly with invalid_config rather than at first use.
func (b *Builder) Build() (*Corpus, error) {
	if b.backend == nil {
		return nil, Errorf(KindInvalidConfig, "corpus.build", "no backend configured")
	}
	return &Corpus{backend: b.backend, hook: b.hook}, nil
}

// Corpus is the built handle stores are opened against.
type Corpus struct {
	backend Backend
	hook    EventHook
}

// Backend returns the underlying backend, unwrapped.
func (c *Corpus) Backend() Backend { return c.backend }

// Metadata returns an event-emitting metadata client for direct use
// outside the engine.
func (c *Corpus) Metadata() MetadataClient {
	return &eventMetadata{inner: c.backend.Metadata(), hook: c.hook}
}

// Data returns an event-emitting data client for direct use outside
// the engine.
func (c *Corpus) Data() DataClient {
	return &eventData{inner: c.backend.Data(), hook: c.hook}
}

// Observations returns the backend's observations adapter, or nil.
func (c *Corpus) Observations() ObservationsAdapter {
	return c.backend.Observations()
}

// OpenStore opens the typed snapshot engine for storeID. The corpus event
// hook applies unless cfg overrides it.
func OpenStore[T any](c *Corpus, storeID string, codec Codec[T], cfg *StoreConfig) *Store[T] {
	merged := StoreConfig{OnEvent: c.hook}
	if cfg != nil {
		merged = *cfg
		if merged.OnEvent == nil {
			merged.OnEvent = c.hook
		}
	}
	return NewStore(c.backend, storeID, codec, &merged)
}
