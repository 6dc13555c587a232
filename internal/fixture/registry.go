package fixture

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/pitabwire/worklist/model"
)

// snapshot is an immutable set of patient records indexed by id.
type snapshot struct {
	patients map[string]*model.PatientRecord
	ids      []string
	checksum string
}

// Registry is a read-optimized, thread-safe store of loaded patient records.
// It uses atomic pointer swap for lock-free concurrent reads. Records handed
// out are shared and must be treated as read-only.
type Registry struct {
	snap atomic.Pointer[snapshot]
}

// NewRegistry creates a Registry from the given records.
func NewRegistry(records []model.PatientRecord) *Registry {
	r := &Registry{}
	r.Replace(records)
	return r
}

// Replace atomically swaps the registry contents with a new snapshot built
// from the given records. A later record with a duplicate patient id wins;
// the validator reports such duplicates before they get here.
func (r *Registry) Replace(records []model.PatientRecord) {
	s := &snapshot{
		patients: make(map[string]*model.PatientRecord, len(records)),
	}

	var checksumParts []string
	for i := range records {
		rec := records[i]
		if _, dup := s.patients[rec.PatientID]; !dup {
			s.ids = append(s.ids, rec.PatientID)
		}
		s.patients[rec.PatientID] = &rec
		checksumParts = append(checksumParts, rec.Checksum)
	}
	sort.Strings(s.ids)

	sort.Strings(checksumParts)
	combined := strings.Join(checksumParts, ":")
	s.checksum = fmt.Sprintf("%x", sha256.Sum256([]byte(combined)))

	r.snap.Store(s)
}

func (r *Registry) current() *snapshot {
	return r.snap.Load()
}

// Get returns the patient record with the given id.
func (r *Registry) Get(patientID string) (*model.PatientRecord, bool) {
	p, ok := r.current().patients[patientID]
	return p, ok
}

// IDs returns all patient ids in lexical order.
func (r *Registry) IDs() []string {
	ids := r.current().ids
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

// Len returns the number of loaded patients.
func (r *Registry) Len() int {
	return len(r.current().ids)
}

// Checksum returns the combined checksum of all loaded records.
func (r *Registry) Checksum() string {
	return r.current().checksum
}
