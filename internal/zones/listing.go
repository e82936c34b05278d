package zones

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Entry is one zone as shown to a user picking a timezone.
type Entry struct {
	Name   string
	City   string
	Offset time.Duration
	Label  string
}

// Region groups the zones sharing a first path segment ("Asia", "Europe").
type Region struct {
	Name    string
	Entries []Entry
}

// Group lays the registry out by region, each entry labelled with its GMT
// offset at instant now. Regions are sorted by name, entries by label.
// Names that fail to load are skipped.
func (l *Locator) Group(now time.Time) []Region {
	byRegion := make(map[string][]Entry)
	for _, name := range l.registry.Names() {
		loc, err := l.Load(name)
		if err != nil {
			continue
		}
		_, secs := now.In(loc).Zone()
		offset := time.Duration(secs) * time.Second

		region, _, _ := strings.Cut(name, "/")
		city := name[strings.LastIndex(name, "/")+1:]
		city = strings.ReplaceAll(city, "_", " ")

		byRegion[region] = append(byRegion[region], Entry{
			Name:   name,
			City:   city,
			Offset: offset,
			Label:  fmt.Sprintf("%s %s", FormatOffset(offset), city),
		})
	}

	regions := make([]Region, 0, len(byRegion))
	for name, entries := range byRegion {
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].Label == entries[j].Label {
				return entries[i].Name < entries[j].Name
			}
			return entries[i].Label < entries[j].Label
		})
		regions = append(regions, Region{Name: name, Entries: entries})
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i].Name < regions[j].Name })

	return regions
}

// FormatOffset renders an offset as "(GMT+06:30)".
func FormatOffset(d time.Duration) string {
	sign := '+'
	if d < 0 {
		sign = '-'
		d = -d
	}
	mins := int(d / time.Minute)
	return fmt.Sprintf("(GMT%c%02d:%02d)", sign, mins/60, mins%60)
}
