package ports

// StoreMetrics receives counters from the idea store
type StoreMetrics interface {
	RecordStoreOperation(operation string, err error)
	RecordConflict()
	RecordReload()
}

// NoopMetrics discards everything
type NoopMetrics struct{}

func (NoopMetrics) RecordStoreOperation(string, error) {}
func (NoopMetrics) RecordConflict()                    {}
func (NoopMetrics) RecordReload()                      {}
