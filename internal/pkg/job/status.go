package job

// Status represents transcription job status
type Status int

const (
	// Queued value
	Queued Status = iota + 1
	// Extracting value
	Extracting
	// Transcribing value
	Transcribing
	// Finalizing value
	Finalizing
	// Completed value
	Completed
	// Failed value
	Failed
)

var (
	statusName = map[Status]string{Queued: "QUEUED", Extracting: "Extracting",
		Transcribing: "Transcribing", Finalizing: "Finalizing",
		Completed: "COMPLETED", Failed: "FAILED"}
	nameStatus = map[string]Status{"QUEUED": Queued, "Extracting": Extracting,
		"Transcribing": Transcribing, "Finalizing": Finalizing,
		"COMPLETED": Completed, "FAILED": Failed}
)

// Name returns the status string
func Name(st Status) string {
	return statusName[st]
}

// From maps a status string back to the value
func From(st string) Status {
	return nameStatus[st]
}

// Terminal returns true for statuses with no further transitions
func Terminal(st Status) bool {
	return st == Completed || st == Failed
}

func validTransition(from, to Status) bool {
	switch from {
	case Queued:
		return to == Extracting || to == Failed
	case Extracting:
		return to == Transcribing || to == Finalizing || to == Failed
	case Transcribing:
		return to == Finalizing || to == Failed
	case Finalizing:
		return to == Completed || to == Failed
	}
	return false
}
