package job

var statusProgressMap = map[Status]int32{
	Queued:       0,
	Extracting:   30,
	Transcribing: 80,
	Finalizing:   95,
	Completed:    100,
}

// Progress returns the percentage value for a status.
// The table is a fixed policy, coarser than wall clock but monotonic.
func Progress(st Status) int32 {
	pr, found := statusProgressMap[st]
	if found {
		return pr
	}
	return 0
}
