package leadimport

import "time"

// CountDuplicates is the number of redundant phone repeats among contacts:
// phones ["1","1","2"] give 1.
func CountDuplicates(contacts []ProcessedContact) int {
	seen := make(map[string]struct{}, len(contacts))
	for _, c := range contacts {
		seen[c.Phone] = struct{}{}
	}
	return len(contacts) - len(seen)
}

func buildStats(totalRows int, valid []ProcessedContact, groups []LeadSourceGroup, elapsed time.Duration) ProcessingStats {
	return ProcessingStats{
		TotalProcessed:   totalRows,
		ValidContacts:    len(valid),
		InvalidContacts:  totalRows - len(valid),
		Duplicates:       CountDuplicates(valid),
		LeadSourcesFound: len(groups),
		ProcessingTime:   elapsed,
		ProcessingTimeMs: elapsed.Milliseconds(),
	}
}
