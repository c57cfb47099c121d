package enricher

import (
	"github.com/dtnitsch/ld-enricher/models"
	"github.com/dtnitsch/ld-enricher/pkg/extractor"
)

// Status is a snapshot of how far enrichment of a collection has got.
type Status struct {
	Records     int `yaml:"records"`
	Enriched    int `yaml:"enriched"`
	Sentinel    int `yaml:"sentinel"`    // tried and failed, retried on the next run
	Unprocessed int `yaml:"unprocessed"` // no metaData field yet
	MissingURL  int `yaml:"missing_url"`
	// FirstPending is the first index that is not enriched, or -1 when every
	// record is. It is the --start to resume from.
	FirstPending int `yaml:"first_pending"`
}

// Done reports whether every record carries real metadata.
func (s Status) Done() bool {
	return s.FirstPending < 0
}

// CollectionStatus classifies every record of coll.
func CollectionStatus(coll models.Collection) Status {
	s := Status{Records: len(coll), FirstPending: -1}
	for i, rec := range coll {
		meta, has := rec.MetaData()
		if _, ok := rec.URL(); !ok {
			s.MissingURL++
		}
		switch {
		case has && extractor.IsEnriched(meta):
			s.Enriched++
			continue
		case has:
			s.Sentinel++
		default:
			s.Unprocessed++
		}
		if s.FirstPending < 0 {
			s.FirstPending = i
		}
	}
	return s
}
