// Package announce implements the ordered, tiered tracker list: URL
// parsing/validation, duplicate detection, sibling-tier coalescing,
// scrape-URL derivation, and variant/text round-tripping.
package announce

import (
	"net/url"
	"sort"
	"strings"

	"github.com/omnicloud/torrentcore/internal/corerr"
	"github.com/omnicloud/torrentcore/internal/quark"
	"github.com/omnicloud/torrentcore/internal/variant"
)

// Tier is a tracker's position in the BEP-12 tier ordering.
type Tier uint32

// ID is a per-process-stable identifier for a tracker entry.
type ID uint32

var allowedSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"udp":   true,
	"ws":    true,
}

// Entry is a single tracker in a List.
type Entry struct {
	Announce quark.Quark
	Scrape   quark.Quark
	Tier     Tier
	ID       ID

	host string
	path string
	port string
	rawq string
}

func (e Entry) announceStr() string { return quark.String(e.Announce) }

// List is the ordered, tiered set of trackers for one torrent.
// Entries are kept sorted by (Tier, Announce).
type List struct {
	entries []Entry
	nextID  ID
}

// New returns an empty announce list.
func New() *List { return &List{} }

// Len reports the number of trackers in l.
func (l *List) Len() int { return len(l.entries) }

// At returns the entry at position i.
func (l *List) At(i int) Entry { return l.entries[i] }

// NextTier returns 0 for an empty list, else the last entry's tier + 1.
func (l *List) NextTier() Tier {
	if len(l.entries) == 0 {
		return 0
	}
	return l.entries[len(l.entries)-1].Tier + 1
}

type parsedURL struct {
	scheme string
	host   string
	port   string
	path   string
	query  string
}

func parseTrackerURL(raw string) (*parsedURL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, corerr.New(corerr.InvalidUrl, "cannot parse tracker URL").WithContext(raw)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, corerr.New(corerr.InvalidUrl, "tracker URL missing scheme or host").WithContext(raw)
	}
	scheme := strings.ToLower(u.Scheme)
	if !allowedSchemes[scheme] {
		return nil, corerr.New(corerr.InvalidUrl, "unsupported tracker scheme "+scheme).WithContext(raw)
	}

	port := u.Port()
	if port == "" {
		port = defaultPort(scheme)
	}

	return &parsedURL{
		scheme: scheme,
		host:   strings.ToLower(u.Hostname()),
		port:   port,
		path:   u.EscapedPath(),
		query:  u.RawQuery,
	}, nil
}

func defaultPort(scheme string) string {
	switch scheme {
	case "http", "ws":
		return "80"
	case "https":
		return "443"
	default:
		return ""
	}
}

// Add validates and inserts a new tracker, returning its assigned ID.
// If an existing entry shares (host, path) but differs in scheme (an
// "http+udp on the same tracker" sibling), the new entry is coerced
// into that entry's tier instead of tier.
func (l *List) Add(rawURL string, tier Tier) (ID, error) {
	parsed, err := parseTrackerURL(rawURL)
	if err != nil {
		return 0, err
	}
	if !l.canAdd(parsed) {
		return 0, corerr.New(corerr.DuplicateUrl, "tracker URL already present").WithContext(rawURL)
	}

	e := Entry{
		Announce: quark.Intern([]byte(rawURL)),
		Tier:     l.tierFor(tier, parsed),
		ID:       l.nextID,
		host:     parsed.host,
		path:     parsed.path,
		port:     parsed.port,
		rawq:     parsed.query,
	}
	l.nextID++

	if scrape, ok := announceToScrape(rawURL); ok {
		e.Scrape = quark.Intern([]byte(scrape))
	}

	l.insertSorted(e)
	return e.ID, nil
}

// tierFor implements the sibling-coalescing rule: if any existing
// entry shares (host, path) with the candidate, the candidate joins
// that entry's tier regardless of the tier it was asked to join.
func (l *List) tierFor(tier Tier, parsed *parsedURL) Tier {
	for _, e := range l.entries {
		if e.host == parsed.host && e.path == parsed.path {
			return e.Tier
		}
	}
	return tier
}

// canAdd reports whether rawURL, already parsed, compares unequal on
// (scheme, host, port, path, query) to every existing entry.
func (l *List) canAdd(parsed *parsedURL) bool {
	for _, e := range l.entries {
		if e.host == parsed.host && e.port == parsed.port && e.path == parsed.path && e.rawq == parsed.query {
			existing, err := parseTrackerURL(e.announceStr())
			if err == nil && existing.scheme == parsed.scheme {
				return false
			}
		}
	}
	return true
}

func (l *List) insertSorted(e Entry) {
	i := sort.Search(len(l.entries), func(i int) bool {
		if l.entries[i].Tier != e.Tier {
			return l.entries[i].Tier > e.Tier
		}
		return l.entries[i].announceStr() >= e.announceStr()
	})
	l.entries = append(l.entries, Entry{})
	copy(l.entries[i+1:], l.entries[i:])
	l.entries[i] = e
}

// Replace swaps the URL of the tracker named by id, preserving its
// tier. If the new URL is invalid or a duplicate, the list is left
// unchanged.
func (l *List) Replace(id ID, newURL string) error {
	idx := l.indexOf(id)
	if idx < 0 {
		return corerr.New(corerr.UnknownId, "unknown tracker id")
	}
	old := l.entries[idx]
	l.entries = append(l.entries[:idx], l.entries[idx+1:]...)
	if _, err := l.Add(newURL, old.Tier); err != nil {
		l.insertSorted(old)
		return err
	}
	return nil
}

func (l *List) indexOf(id ID) int {
	for i, e := range l.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// announceToScrape derives the scrape URL per the BEP convention: if
// the last path segment is literally "announce", swap it for
// "scrape"; UDP trackers use the announce URL itself as the scrape
// URL; otherwise there is no scrape URL.
func announceToScrape(announceURL string) (string, bool) {
	const oldval = "/announce"
	const newval = "/scrape"
	if strings.HasPrefix(announceURL, "udp:") {
		return announceURL, true
	}
	end := len(announceURL)
	if q := strings.IndexAny(announceURL, "?#"); q >= 0 {
		end = q
	}
	if pos := strings.LastIndex(announceURL[:end], "/"); pos >= 0 && announceURL[pos:end] == oldval {
		return announceURL[:pos] + newval + announceURL[end:], true
	}
	return "", false
}

// ToVariant writes the announce/announce-list keys per §4.6: a single
// `announce` key for the first tracker, and, when there are two or
// more trackers, an `announce-list` key grouping trackers by tier in
// tier order.
func (l *List) ToVariant(m *variant.Variant) {
	m.Erase(quark.KeyAnnounce)
	m.Erase(quark.KeyAnnounceList)

	if len(l.entries) == 0 {
		return
	}
	m.InsertOrAssign(quark.KeyAnnounce, variant.String(l.entries[0].announceStr()))

	if len(l.entries) < 2 {
		return
	}

	tiersVec := variant.Vector()
	var curTier Tier
	var curVec variant.Variant
	haveTier := false
	for _, e := range l.entries {
		if !haveTier || e.Tier != curTier {
			if haveTier {
				tiersVec.PushVariant(curVec)
			}
			curTier = e.Tier
			curVec = variant.Vector()
			haveTier = true
		}
		curVec.PushString(e.announceStr())
	}
	if haveTier {
		tiersVec.PushVariant(curVec)
	}
	m.InsertOrAssign(quark.KeyAnnounceList, tiersVec)
}

// FromVariant populates a new List from a metainfo-shaped map's
// `announce`/`announce-list` keys.
func FromVariant(m *variant.Variant) (*List, error) {
	l := New()

	if alv, ok := m.Find(quark.KeyAnnounceList); ok {
		if vec, ok := alv.GetIfVector(); ok {
			for tierIdx, tierVal := range *vec {
				tierVec, ok := tierVal.GetIfVector()
				if !ok {
					continue
				}
				for _, urlVal := range *tierVec {
					s, ok := urlVal.GetIfString()
					if !ok {
						continue
					}
					if _, err := l.Add(string(s), Tier(tierIdx)); err != nil {
						return nil, err
					}
				}
			}
			return l, nil
		}
	}

	if av, ok := m.Find(quark.KeyAnnounce); ok {
		if s, ok := av.GetIfString(); ok {
			if _, err := l.Add(string(s), 0); err != nil {
				return nil, err
			}
		}
	}
	return l, nil
}

// ParseText parses one URL per line; blank lines mark tier
// boundaries. Surrounding whitespace and CR are stripped. Any invalid
// line fails the whole parse and no list is returned.
func ParseText(text string) (*List, error) {
	scratch := New()
	tier := Tier(0)
	tierSize := 0

	lines := strings.Split(text, "\n")
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		line = strings.TrimSpace(line)

		if line == "" {
			if tierSize > 0 {
				tier++
				tierSize = 0
			}
			continue
		}
		if _, err := scratch.Add(line, tier); err != nil {
			return nil, err
		}
		tierSize++
	}
	return scratch, nil
}

// ToText is the inverse of ParseText: one URL per line, a blank line
// between tiers, trailing newline.
func (l *List) ToText() string {
	var sb strings.Builder
	var curTier *Tier
	for _, e := range l.entries {
		if curTier != nil && *curTier != e.Tier {
			sb.WriteByte('\n')
		}
		sb.WriteString(e.announceStr())
		sb.WriteByte('\n')
		t := e.Tier
		curTier = &t
	}
	return sb.String()
}
