package redline

// DissimilarityMonitor watches the worker's chunk stream and estimates,
// before the diff completes, whether the two documents are almost
// entirely unrelated, so the caller can offer early cancellation. It
// fires at most once per run; Reset re-arms it for the next run.
type DissimilarityMonitor struct {
	// MinSample is how many tokens must be observed before the monitor
	// may fire.
	MinSample int
	// Ratio is the changed/observed fraction at which it fires.
	Ratio float64

	observed int
	changed  int
	fired    bool
}

// NewDissimilarityMonitor returns a monitor with production tuning.
func NewDissimilarityMonitor() *DissimilarityMonitor {
	return &DissimilarityMonitor{MinSample: 15000, Ratio: 0.8}
}

// Observe feeds one chunk of the diff stream and reports whether the
// monitor fired on this chunk. It returns true exactly once per run.
func (m *DissimilarityMonitor) Observe(chunk []DiffToken) bool {
	for _, d := range chunk {
		m.observed++
		if d.Type != Unchanged {
			m.changed++
		}
	}
	if m.fired || m.MinSample <= 0 || m.Ratio <= 0 {
		return false
	}
	if m.observed < m.MinSample {
		return false
	}
	if float64(m.changed)/float64(m.observed) < m.Ratio {
		return false
	}
	m.fired = true
	return true
}

// Fired reports whether the monitor has fired during this run.
func (m *DissimilarityMonitor) Fired() bool {
	return m.fired
}

// Reset disarms the monitor and clears its counts for a new run.
func (m *DissimilarityMonitor) Reset() {
	m.observed = 0
	m.changed = 0
	m.fired = false
}
