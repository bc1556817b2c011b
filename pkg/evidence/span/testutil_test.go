package span

import (
	"sync"

	"mercator-hq/callisto/pkg/evidence"
)

// fakeResolver is a minimal in-memory ControlResolver for tests.
type fakeResolver struct {
	controls map[string]evidence.ControlDescriptor
	version  string
}

func newFakeResolver() *fakeResolver {
	r := &fakeResolver{
		controls: make(map[string]evidence.ControlDescriptor),
		version:  "test-catalog-v1",
	}
	for _, d := range []evidence.ControlDescriptor{
		{Framework: "gdpr", ID: "Art.15", Title: "Right of Access", Citation: "Regulation (EU) 2016/679, Article 15"},
		{Framework: "gdpr", ID: "Art.17", Title: "Right to Erasure"},
		{Framework: "gdpr", ID: "Art.5(1)(f)", Title: "Integrity and Confidentiality"},
		{Framework: "soc2", ID: "CC6.1", Title: "Logical Access Controls"},
	} {
		r.controls[d.Key()] = d
	}
	return r
}

func (r *fakeResolver) Lookup(framework, id string) (evidence.ControlDescriptor, error) {
	d, ok := r.controls[framework+"/"+id]
	if !ok {
		return evidence.ControlDescriptor{}, evidence.NewUnknownControlError(framework, id)
	}
	return d, nil
}

func (r *fakeResolver) CatalogVersion() string { return r.version }

// captureEnqueuer records enqueued evidence records for assertions.
type captureEnqueuer struct {
	mu      sync.Mutex
	records []*evidence.EvidenceRecord
	err     error
}

func (e *captureEnqueuer) Enqueue(record *evidence.EvidenceRecord) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.records = append(e.records, record)
	return nil
}

func (e *captureEnqueuer) Records() []*evidence.EvidenceRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*evidence.EvidenceRecord, len(e.records))
	copy(out, e.records)
	return out
}

// newTestFactory wires a factory with fake collaborators.
func newTestFactory(framework string) (*Factory, *captureEnqueuer, *Correlations, *OpenTracker) {
	enq := &captureEnqueuer{}
	correlations := NewCorrelations()
	tracker := NewOpenTracker()
	factory := NewFactory(framework, newFakeResolver(), correlations, enq, &FactoryConfig{Tracker: tracker})
	return factory, enq, correlations, tracker
}
