package verify

import (
	"net/url"
	"sort"
	"strings"

	"github.com/ppiankov/incidentcheck/internal/model"
	"github.com/ppiankov/incidentcheck/internal/score"
)

// sourceIndex resolves oracle source references against discovered sources
type sourceIndex struct {
	byURL map[string]model.SourceRecord
}

func newSourceIndex(sources []model.SourceRecord) *sourceIndex {
	idx := &sourceIndex{byURL: make(map[string]model.SourceRecord, len(sources))}
	for _, s := range sources {
		key := urlKey(s.URL)
		if _, ok := idx.byURL[key]; !ok {
			idx.byURL[key] = s
		}
	}
	return idx
}

// resolve returns the discovered record for ref, or a new record with the
// default reliability when the oracle cites something we never found
func (idx *sourceIndex) resolve(ref string) model.SourceRecord {
	ref = strings.TrimSpace(ref)
	if rec, ok := idx.byURL[urlKey(ref)]; ok {
		return rec
	}
	rec := model.SourceRecord{URL: ref, Reliability: score.DefaultSourceReliability}
	if u, err := url.Parse(ref); err == nil {
		rec.Domain = strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	}
	return rec
}

// urlKey ignores case in scheme and host and a trailing slash
func urlKey(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.TrimSuffix(raw, "/")
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	return strings.TrimSuffix(u.String(), "/")
}

// sourceSet keeps records unique by URL in first-seen order
type sourceSet struct {
	seen map[string]bool
	list []model.SourceRecord
}

func newSourceSet() *sourceSet {
	return &sourceSet{seen: make(map[string]bool), list: []model.SourceRecord{}}
}

func (s *sourceSet) add(rec model.SourceRecord) {
	if rec.URL == "" {
		return
	}
	key := urlKey(rec.URL)
	if s.seen[key] {
		return
	}
	s.seen[key] = true
	s.list = append(s.list, rec)
}

func (s *sourceSet) records() []model.SourceRecord {
	return s.list
}

// topSources returns at most n sources by descending reliability
func topSources(sources []model.SourceRecord, n int) []model.SourceRecord {
	sorted := make([]model.SourceRecord, len(sources))
	copy(sorted, sources)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Reliability > sorted[j].Reliability
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
