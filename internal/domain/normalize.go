package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Ordered candidate key lists for reading a raw occupancy sample. Order is
// behavior: the first key that yields a value wins and later ones are never
// consulted.
var (
	subjectKeys  = []string{"id", "parking_id", "facility_id", "name"}
	totalKeys    = []string{"total", "total_spaces", "total_spots", "capacity", "spots"}
	occupiedKeys = []string{"occupied", "occupied_spaces", "occupied_spots", "busy"}
	freeKeys     = []string{"free", "free_spaces", "free_spots", "available"}
	ratioKeys    = []string{"occupancy_probability", "occupancy_ratio", "occupancy", "ratio"}
	percentKeys  = []string{"occupancy_percentage", "occupancy_percent", "percentage", "percent"}
	statusKeys   = []string{"occupancy_level", "status", "state", "level"}
	instantKeys  = []string{"observed_at", "timestamp", "updated_at", "time"}
)

// Percent-threshold fallback boundaries, applied only when no status keyword
// matches. Hand-tuned against the estimator's output; changing them changes
// bucketing.
const (
	mediumThreshold = 60 // below this the facility counts as "low"
	highThreshold   = 85 // below this "medium", at or above "high"
)

// Status keyword sets, checked in low → medium → high order against the
// lower-cased raw status text. A keyword match always beats the percent
// thresholds. The estimator upstream speaks Russian («низкая», «высокая»);
// the English entries cover hand-fed samples.
var (
	lowKeywords    = []string{"свобод", "низк", "пуст", "free", "empty", "available", "low"}
	mediumKeywords = []string{"средн", "умерен", "medium", "moderate", "half"}
	highKeywords   = []string{"высок", "заполн", "переполн", "закрыт", "full", "busy", "high", "closed", "overflow"}
)

const displayTimeLayout = "02.01.2006 15:04"

// Normalize converts a raw occupancy sample (a decoded JSON object with any
// subset of fields) into a complete OccupancyRecord. fallbackID is used only
// when the sample carries no identifier of its own.
//
// The only hard failure is a payload that is not an object at all; missing or
// contradictory fields degrade to absent/unknown instead. The function is
// referentially transparent except for the relative-time fields, which read
// the package clock.
func Normalize(raw any, fallbackID string) (OccupancyRecord, error) {
	sample, ok := raw.(map[string]any)
	if !ok || sample == nil {
		return OccupancyRecord{}, fmt.Errorf("normalize: %w", ErrInvalidPayload)
	}

	rec := OccupancyRecord{SubjectID: fallbackID}
	if id, ok := firstString(sample, subjectKeys); ok {
		rec.SubjectID = id
	}

	total := firstCount(sample, totalKeys)
	occupied := firstCount(sample, occupiedKeys)
	free := firstCount(sample, freeKeys)

	rec.OccupancyPercent = derivePercent(sample, total, occupied, free)
	rec.TotalSpots, rec.OccupiedSpots, rec.FreeSpots = reconcileCounts(total, occupied, free)

	statusText, _ := firstString(sample, statusKeys)
	rec.StatusBucket = classify(statusText, rec.OccupancyPercent)
	rec.HumanStatus = humanStatus(statusText, rec.StatusBucket, rec.OccupancyPercent)

	if ts, ok := firstInstant(sample, instantKeys); ok {
		display := ts.Format(displayTimeLayout)
		relative := relativeAge(clock.Now(), ts)
		rec.ObservedAt = &ts
		rec.ObservedAtDisplay = &display
		rec.ObservedAtRelative = &relative
	}

	return rec, nil
}

// derivePercent runs the fixed derivation chain for occupancyPercent: explicit
// ratio field, explicit percent field, occupied/total, then (total-free)/total.
// The first step producing a value wins; later steps never override it.
func derivePercent(sample map[string]any, total, occupied, free *int) *int {
	steps := []func() (int, bool){
		func() (int, bool) { return firstPercent(sample, ratioKeys) },
		func() (int, bool) { return firstPercent(sample, percentKeys) },
		func() (int, bool) { return percentOfTotal(occupied, total) },
		func() (int, bool) { return percentOfRemainder(free, total) },
	}
	for _, step := range steps {
		if p, ok := step(); ok {
			return &p
		}
	}
	return nil
}

// reconcileCounts fills the missing member of {total, occupied, free} when the
// other two are known: total = occupied + free, clamped at zero. When all
// three are present the upstream values are kept as-is.
func reconcileCounts(total, occupied, free *int) (*int, *int, *int) {
	switch {
	case total != nil && occupied != nil && free == nil:
		free = intPtr(max(*total-*occupied, 0))
	case total != nil && free != nil && occupied == nil:
		occupied = intPtr(max(*total-*free, 0))
	case occupied != nil && free != nil && total == nil:
		total = intPtr(*occupied + *free)
	}
	return total, occupied, free
}

// classify picks the status bucket. Keyword matching on the raw text takes
// precedence; the percent thresholds are the fallback; with neither signal
// the bucket is unknown.
func classify(statusText string, percent *int) Status {
	text := strings.ToLower(strings.TrimSpace(statusText))
	if text != "" {
		switch {
		case containsAny(text, lowKeywords):
			return StatusLow
		case containsAny(text, mediumKeywords):
			return StatusMedium
		case containsAny(text, highKeywords):
			return StatusHigh
		}
	}
	if percent != nil {
		switch {
		case *percent < mediumThreshold:
			return StatusLow
		case *percent < highThreshold:
			return StatusMedium
		default:
			return StatusHigh
		}
	}
	return StatusUnknown
}

// humanStatus produces the display text: upstream status verbatim with its
// first letter capitalized, or a synthesized bucket phrase when the upstream
// sent none.
func humanStatus(statusText string, bucket Status, percent *int) string {
	if s := strings.TrimSpace(statusText); s != "" {
		return capitalizeFirst(s)
	}

	switch bucket {
	case StatusLow:
		if percent != nil {
			return fmt.Sprintf("Свободно, занято %d%%", *percent)
		}
		return "Есть свободные места"
	case StatusMedium:
		if percent != nil {
			return fmt.Sprintf("Умеренная загруженность, занято %d%%", *percent)
		}
		return "Умеренная загруженность"
	case StatusHigh:
		if percent != nil {
			return fmt.Sprintf("Высокая загруженность, занято %d%%", *percent)
		}
		return "Свободных мест почти нет"
	default:
		return "Нет данных о загруженности"
	}
}

// relativeAge buckets elapsed time since the observation. Sub-unit remainders
// are floored, so 90 seconds reads as «1 мин назад».
func relativeAge(now, observed time.Time) string {
	elapsed := now.Sub(observed)
	if elapsed < 0 {
		elapsed = 0
	}
	switch {
	case elapsed < time.Minute:
		return "только что"
	case elapsed < time.Hour:
		return fmt.Sprintf("%d мин назад", int(elapsed.Minutes()))
	case elapsed < 24*time.Hour:
		return fmt.Sprintf("%d ч назад", int(elapsed.Hours()))
	default:
		return fmt.Sprintf("%d дн назад", int(elapsed.Hours())/24)
	}
}

func percentOfTotal(occupied, total *int) (int, bool) {
	if occupied == nil || total == nil || *total <= 0 {
		return 0, false
	}
	return clampPercent(float64(*occupied) / float64(*total)), true
}

func percentOfRemainder(free, total *int) (int, bool) {
	if free == nil || total == nil || *total <= 0 {
		return 0, false
	}
	return clampPercent(float64(*total-*free) / float64(*total)), true
}

func clampPercent(ratio float64) int {
	p, _ := CoercePercent(ratio)
	return p
}

func firstString(sample map[string]any, keys []string) (string, bool) {
	for _, key := range keys {
		v, present := sample[key]
		if !present {
			continue
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s), true
		}
		if f, ok := CoerceNumber(v); ok {
			return strconv.FormatFloat(f, 'f', -1, 64), true
		}
	}
	return "", false
}

func firstCount(sample map[string]any, keys []string) *int {
	for _, key := range keys {
		v, present := sample[key]
		if !present {
			continue
		}
		if f, ok := CoerceNumber(v); ok {
			return intPtr(max(int(f), 0))
		}
	}
	return nil
}

func firstPercent(sample map[string]any, keys []string) (int, bool) {
	for _, key := range keys {
		v, present := sample[key]
		if !present {
			continue
		}
		if p, ok := CoercePercent(v); ok {
			return p, true
		}
	}
	return 0, false
}

// firstInstant stops at the first timestamp key present in the sample; if
// that value does not parse, no later key is consulted.
func firstInstant(sample map[string]any, keys []string) (time.Time, bool) {
	for _, key := range keys {
		if v, present := sample[key]; present {
			return CoerceInstant(v)
		}
	}
	return time.Time{}, false
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func capitalizeFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func intPtr(n int) *int { return &n }
