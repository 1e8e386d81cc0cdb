package availability

// ApprovedStay is the slice of an approved booking group the index needs:
// the stay range of one property, with the group's shared check-in time.
type ApprovedStay struct {
	GroupID      string
	CheckInDate  string // YYYY-MM-DD
	CheckOutDate string // YYYY-MM-DD
	CheckInTime  string // HH:MM; empty means DefaultCheckInTime
}

// Index is the read-side availability projection for one property, rebuilt
// from the approved set before every validation. It is never persisted.
type Index struct {
	blockedDays    map[string]struct{}
	checkoutCutoff map[string]string // checkout date -> latest HH:MM cutoff
	stays          []Interval
}

// BuildIndex derives the availability index from the approved stays of a
// property. Returns an error if any stay carries malformed dates; approved
// rows are validated at create time, so that indicates storage corruption.
func BuildIndex(approved []ApprovedStay) (*Index, error) {
	idx := &Index{
		blockedDays:    make(map[string]struct{}),
		checkoutCutoff: make(map[string]string),
	}
	for _, stay := range approved {
		iv, err := NewStayInterval(stay.CheckInDate, stay.CheckOutDate, stay.CheckInTime)
		if err != nil {
			return nil, err
		}
		idx.stays = append(idx.stays, iv)
		for _, day := range iv.BlockedDays() {
			idx.blockedDays[day] = struct{}{}
		}

		// The latest checkout of a day is the binding cutoff: no new guest
		// may arrive before the last departing guest has vacated.
		cutoff := stay.CheckInTime
		if cutoff == "" {
			cutoff = DefaultCheckInTime
		}
		if prev, ok := idx.checkoutCutoff[stay.CheckOutDate]; !ok || cutoff > prev {
			idx.checkoutCutoff[stay.CheckOutDate] = cutoff
		}
	}
	return idx, nil
}

// DayBlocked reports whether a calendar day is fully occupied by an approved
// stay. Checkout days are not fully blocked; they are tracked via CutoffFor.
func (idx *Index) DayBlocked(date string) bool {
	_, ok := idx.blockedDays[date]
	return ok
}

// CutoffFor returns the earliest HH:MM at which a new check-in is permitted
// on the given date, if an approved stay checks out that day.
func (idx *Index) CutoffFor(date string) (string, bool) {
	cutoff, ok := idx.checkoutCutoff[date]
	return cutoff, ok
}

// Stays returns the intervals of all approved stays in the index.
func (idx *Index) Stays() []Interval {
	return idx.stays
}
